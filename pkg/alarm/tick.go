// Package alarm decides, tick by tick, what each alarm should do and drives
// the alarm list through the store and the notification controller.
package alarm

import (
	"time"

	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/wallclock"
)

// ActionKind tells the caller what to do with an Action
type ActionKind int

const (
	// ActionNone leaves the alarm untouched
	ActionNone ActionKind = iota
	// ActionSave persists Action.Alarm without notifying
	ActionSave
	// ActionTrigger fires Action.Alarm for TodayKey
	ActionTrigger
)

func (k ActionKind) String() string {
	switch k {
	case ActionSave:
		return "save"
	case ActionTrigger:
		return "trigger"
	default:
		return "none"
	}
}

// Action is the outcome of evaluating one alarm.
// Alarm is set for Save and Trigger, TodayKey for Trigger.
type Action struct {
	Kind     ActionKind
	Alarm    models.AlarmSettings
	TodayKey string
}

func none() Action {
	return Action{Kind: ActionNone}
}

func save(a models.AlarmSettings) Action {
	return Action{Kind: ActionSave, Alarm: a}
}

func trigger(a models.AlarmSettings, todayKey string) Action {
	return Action{Kind: ActionTrigger, Alarm: a, TodayKey: todayKey}
}

// Evaluate decides the next action for alarm at now. lastNotification is the
// last time this alarm was announced (zero if never); loc is the alarm zone,
// nil meaning the local zone.
//
// Evaluate is pure: alarm is passed by value and never modified, and calling
// it again with the same inputs gives the same answer. A Trigger leaves
// Triggered false in the returned alarm; accepting the trigger is up to the caller.
func Evaluate(alarm models.AlarmSettings, now, lastNotification time.Time, loc *time.Location) Action {
	if !alarm.Enabled {
		return none()
	}

	clock := wallclock.At(now, loc)
	todayKey := clock.DateKey()

	if alarm.DismissedOn == todayKey {
		return none()
	}

	if alarm.Triggered {
		if alarm.LastTriggeredOn == "" {
			// Best-effort inference for records written before trigger dates were kept.
			// Near midnight it can guess the wrong day.
			if clock.MinuteOfDay() <= alarm.MinuteOfDay() {
				alarm.Triggered = false
				return save(alarm)
			}
			alarm.LastTriggeredOn = todayKey
			alarm.SnoozeUntilMs = 0
			return save(alarm)
		}

		if alarm.LastTriggeredOn != todayKey {
			alarm.Triggered = false
			alarm.DismissedOn = ""
			alarm.SnoozeUntilMs = 0
			return save(alarm)
		}

		return none()
	}

	if alarm.Snoozed() {
		if wallclock.DateKeyMs(alarm.SnoozeUntilMs, loc) != todayKey {
			alarm.SnoozeUntilMs = 0
			alarm.DismissedOn = ""
			return save(alarm)
		}

		if now.Before(alarm.SnoozeUntil()) {
			return none()
		}

		alarm.SnoozeUntilMs = 0
		if inCooldown(now, lastNotification) {
			return save(alarm)
		}
		return trigger(alarm, todayKey)
	}

	if alarm.Hour == clock.Hour && alarm.Minute == clock.Minute {
		if inCooldown(now, lastNotification) {
			return none()
		}
		return trigger(alarm, todayKey)
	}

	return none()
}

func inCooldown(now, lastNotification time.Time) bool {
	if lastNotification.IsZero() {
		return false
	}
	return now.Sub(lastNotification) < models.NotificationCooldown
}
