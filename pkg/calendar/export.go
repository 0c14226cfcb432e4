// Package calendar exchanges alarms with calendar applications as daily
// recurring iCalendar events.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/wallclock"
)

const (
	ProductID = "-//borgmon//clockbar//EN"
	uidSuffix = "@clockbar"

	statusCancelled = "CANCELLED"
	statusConfirmed = "CONFIRMED"
)

// ExportOptions controls how alarms are written
type ExportOptions struct {
	// Location is the alarm zone; nil writes floating local times
	Location *time.Location
	// Now anchors DTSTART and DTSTAMP
	Now time.Time
	// Summary titles an event; defaults to "Alarm HH:mm"
	Summary func(a models.AlarmSettings) string
}

// Export writes alarms as a VCALENDAR with one daily VEVENT and a display
// VALARM per alarm. Disabled alarms are written with STATUS:CANCELLED.
func Export(w io.Writer, alarms []models.AlarmSettings, opts ExportOptions) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Summary == nil {
		opts.Summary = func(a models.AlarmSettings) string { return "Alarm " + a.Time() }
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, a := range alarms {
		cal.Children = append(cal.Children, alarmEvent(a, opts).Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func alarmEvent(a models.AlarmSettings, opts ExportOptions) *ical.Event {
	start := firstStart(a, opts.Now, opts.Location)
	summary := opts.Summary(a)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID+uidSuffix)
	event.Props.SetDateTime(ical.PropDateTimeStamp, opts.Now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetText(ical.PropSummary, summary)
	event.Props.SetRecurrenceRule(DailyRule(start))
	if a.Enabled {
		event.Props.SetText(ical.PropStatus, statusConfirmed)
	} else {
		event.Props.SetText(ical.PropStatus, statusCancelled)
	}

	duration := ical.NewProp(ical.PropDuration)
	duration.Value = "PT1M"
	event.Props.Set(duration)

	valarm := ical.NewComponent(ical.CompAlarm)
	valarm.Props.SetText(ical.PropAction, "DISPLAY")
	valarm.Props.SetText(ical.PropDescription, summary)
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "PT0S"
	valarm.Props.Set(trigger)
	event.Children = append(event.Children, valarm)

	return event
}

// firstStart is the alarm's time on the day of now in loc. A nil loc gives a
// floating time.
func firstStart(a models.AlarmSettings, now time.Time, loc *time.Location) time.Time {
	lt := wallclock.In(now, loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), a.Hour, a.Minute, 0, 0, lt.Location())
	if loc == nil {
		start = time.Date(start.Year(), start.Month(), start.Day(), a.Hour, a.Minute, 0, 0, time.Local)
	}
	return start
}

// DailyRule is the recurrence of an alarm starting at start
func DailyRule(start time.Time) *rrule.ROption {
	return &rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: 1,
		Dtstart:  start,
	}
}

// Upcoming returns the next ring time of every enabled alarm within the
// window [from, from+within), earliest first.
func Upcoming(alarms []models.AlarmSettings, from time.Time, within time.Duration, loc *time.Location) ([]Occurrence, error) {
	out := []Occurrence{}
	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		start := wallclock.NextOccurrence(from, a.Hour, a.Minute, loc)
		rule, err := rrule.NewRRule(*DailyRule(start))
		if err != nil {
			return nil, fmt.Errorf("daily rule for %s: %w", a.ID, err)
		}
		for _, t := range rule.Between(from, from.Add(within), true) {
			out = append(out, Occurrence{AlarmID: a.ID, At: t})
		}
	}
	sortOccurrences(out)
	return out, nil
}
