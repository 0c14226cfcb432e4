package calendar

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/wallclock"
)

// Import reads daily alarms from an iCalendar stream. Each VEVENT with a
// timed DTSTART that is either one-off or repeats every day becomes an alarm
// at its wall-clock time in loc (nil for local). All-day and otherwise
// recurring events are skipped. Cancelled events import disabled. Ids are
// left empty for the store to assign.
func Import(r io.Reader, loc *time.Location) ([]models.AlarmSettings, error) {
	dec := ical.NewDecoder(r)
	alarms := []models.AlarmSettings{}

	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}

		for _, event := range cal.Events() {
			a, ok := parseEvent(event.Component, loc)
			if ok {
				alarms = append(alarms, a)
			}
		}
	}
	return alarms, nil
}

func parseEvent(comp *ical.Component, loc *time.Location) (models.AlarmSettings, bool) {
	normalizeComponentTimezones(comp)

	summary, _ := comp.Props.Text(ical.PropSummary)
	dtstart := comp.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		log.Printf("[DEBUG] skipping event %q without DTSTART", summary)
		return models.AlarmSettings{}, false
	}
	if dtstart.ValueType() == ical.ValueDate {
		log.Printf("[DEBUG] skipping all-day event %q", summary)
		return models.AlarmSettings{}, false
	}

	rule, err := comp.Props.RecurrenceRule()
	if err != nil {
		log.Printf("[WARN] skipping event %q with unreadable RRULE: %v", summary, err)
		return models.AlarmSettings{}, false
	}
	if !isDaily(rule) {
		log.Printf("[DEBUG] skipping event %q: not a daily rule", summary)
		return models.AlarmSettings{}, false
	}

	floating := loc
	if floating == nil {
		floating = time.Local
	}
	start, err := parseDateTime(dtstart, zoneOf(comp, floating))
	if err != nil {
		log.Printf("[WARN] skipping event %q: %v", summary, err)
		return models.AlarmSettings{}, false
	}
	clock := wallclock.At(start, loc)

	a := models.NewAlarm(clock.Hour, clock.Minute)
	if status, _ := comp.Props.Text(ical.PropStatus); strings.EqualFold(status, statusCancelled) {
		a.Enabled = false
	}
	return a, true
}

// parseDateTime reads a DATE-TIME value, falling back to a few loose layouts
// some producers write
func parseDateTime(prop *ical.Prop, loc *time.Location) (time.Time, error) {
	if t, err := prop.DateTime(loc); err == nil {
		return t, nil
	}

	layouts := []string{
		"20060102T150405",
		"20060102T1504",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, prop.Value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", prop.Value)
}
