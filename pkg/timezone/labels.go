package timezone

import (
	"fmt"
	"strings"
	"time"
)

// OffsetMinutes returns loc's UTC offset at t in minutes
func OffsetMinutes(t time.Time, loc *time.Location) int {
	_, offset := t.In(loc).Zone()
	return offset / 60
}

// OffsetLabel formats an offset in minutes as UTC+hh:mm
func OffsetLabel(offsetMinutes int) string {
	sign := "+"
	if offsetMinutes < 0 {
		sign = "-"
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// shortOffset formats like UTC+9 or UTC+5:30, and plain UTC for zero
func shortOffset(offsetMinutes int) string {
	if offsetMinutes == 0 {
		return "UTC"
	}
	sign := "+"
	if offsetMinutes < 0 {
		sign = "-"
		offsetMinutes = -offsetMinutes
	}
	if offsetMinutes%60 == 0 {
		return fmt.Sprintf("UTC%s%d", sign, offsetMinutes/60)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// ShortLabel is the compact zone name shown next to a clock.
// Tokyo is always JST; numeric and GMT abbreviations are rewritten to UTC form.
func ShortLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if loc.String() == "Asia/Tokyo" {
		return "JST"
	}
	name, offset := t.In(loc).Zone()
	switch {
	case name == "":
		return loc.String()
	case strings.HasPrefix(name, "+"), strings.HasPrefix(name, "-"),
		strings.HasPrefix(name, "GMT"), name == "UTC":
		return shortOffset(offset / 60)
	}
	return name
}

// InDST reports whether z is currently away from its standard offset
func InDST(t time.Time, z Zone, loc *time.Location) bool {
	return OffsetMinutes(t, loc) != int(z.BaseUTCOffset*60)
}

// Describe is a one-line summary used in zone pickers: label, offset and a DST mark
func Describe(t time.Time, z Zone, loc *time.Location) string {
	s := fmt.Sprintf("%s (%s)", z.Label, OffsetLabel(OffsetMinutes(t, loc)))
	if InDST(t, z, loc) {
		s += " DST"
	}
	return s
}
