package calendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/clockbar/pkg/timezone"
)

// normalizeComponentTimezones rewrites Windows zone names in TZID parameters
// to their IANA equivalents
func normalizeComponentTimezones(comp *ical.Component) {
	for _, name := range []string{ical.PropDateTimeStart, ical.PropDateTimeEnd} {
		if prop := comp.Props.Get(name); prop != nil {
			normalizeTZID(prop)
		}
	}
	for _, name := range []string{ical.PropExceptionDates, ical.PropRecurrenceDates} {
		props := comp.Props[name]
		for i := range props {
			normalizeTZID(&props[i])
		}
	}
}

func normalizeTZID(prop *ical.Prop) {
	if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
		if iana := timezone.FromWindows(tzid); iana != tzid {
			prop.Params.Set(ical.ParamTimezoneID, iana)
		}
	}
}

// zoneOf returns the zone DTSTART was written in, or fallback for floating times
func zoneOf(comp *ical.Component, fallback *time.Location) *time.Location {
	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return fallback
	}
	if tzid := dtstart.Params.Get(ical.ParamTimezoneID); tzid != "" {
		if loc, err := time.LoadLocation(timezone.FromWindows(tzid)); err == nil {
			return loc
		}
	}
	if strings.HasSuffix(dtstart.Value, "Z") {
		return time.UTC
	}
	return fallback
}
