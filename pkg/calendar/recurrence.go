package calendar

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

// Occurrence is one upcoming ring of an alarm
type Occurrence struct {
	AlarmID string
	At      time.Time
}

func sortOccurrences(o []Occurrence) {
	slices.SortStableFunc(o, func(a, b Occurrence) int {
		return a.At.Compare(b.At)
	})
}

// isDaily reports whether rule repeats every day without further filters
func isDaily(rule *rrule.ROption) bool {
	if rule == nil {
		return true
	}
	if rule.Freq != rrule.DAILY || rule.Interval > 1 {
		return false
	}
	return len(rule.Byweekday) == 0 && len(rule.Bymonth) == 0 && len(rule.Bymonthday) == 0
}
