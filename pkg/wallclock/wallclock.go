// Package wallclock resolves instants into civil calendar components of a zone.
//
// A nil *time.Location means "auto": the host's local zone. Zones are resolved
// once with LoadZone when configuration is read so the per-tick functions here
// cannot fail.
package wallclock

import (
	"fmt"
	"time"
)

// DateKeyLayout is the layout of date keys (YYYY-MM-DD)
const DateKeyLayout = "2006-01-02"

// Components are the civil date and time of an instant in a zone
type Components struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// MinuteOfDay returns Hour*60+Minute
func (c Components) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// DateKey returns the YYYY-MM-DD key for the components' day
func (c Components) DateKey() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
}

// In converts t into loc, using the local zone for nil
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.Local()
	}
	return t.In(loc)
}

// At returns the wall clock components of t in loc
func At(t time.Time, loc *time.Location) Components {
	lt := In(t, loc)
	return Components{
		Year:   lt.Year(),
		Month:  int(lt.Month()),
		Day:    lt.Day(),
		Hour:   lt.Hour(),
		Minute: lt.Minute(),
	}
}

// DateKey returns the YYYY-MM-DD key of the day t falls on in loc
func DateKey(t time.Time, loc *time.Location) string {
	return At(t, loc).DateKey()
}

// DateKeyMs is DateKey for an epoch-millisecond instant
func DateKeyMs(ms int64, loc *time.Location) string {
	return DateKey(time.UnixMilli(ms), loc)
}

// LoadZone resolves a zone id. The empty string and "auto" map to nil (local).
func LoadZone(id string) (*time.Location, error) {
	if id == "" || id == "auto" {
		return nil, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", id, err)
	}
	return loc, nil
}

// ZoneName returns the IANA name of loc, or "Local" for nil
func ZoneName(loc *time.Location) string {
	if loc == nil {
		return time.Local.String()
	}
	return loc.String()
}

// NextOccurrence returns the next instant at or after t whose wall clock in loc
// reads hour:minute. Nonexistent local times (DST gaps) are normalised by time.Date.
func NextOccurrence(t time.Time, hour, minute int, loc *time.Location) time.Time {
	lt := In(t, loc)
	next := time.Date(lt.Year(), lt.Month(), lt.Day(), hour, minute, 0, 0, lt.Location())
	if next.Before(lt.Truncate(time.Minute)) {
		next = time.Date(lt.Year(), lt.Month(), lt.Day()+1, hour, minute, 0, 0, lt.Location())
	}
	return next
}
