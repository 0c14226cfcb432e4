package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxAlarms is the maximum number of live alarms
	MaxAlarms = 5

	// NotificationCooldown suppresses a second trigger for the same alarm inside one minute
	NotificationCooldown = 60 * time.Second
	// RepeatInterval is the delay between reminders of one notification session
	RepeatInterval = 30 * time.Second
	// SnoozeDuration is how long a snoozed alarm stays quiet
	SnoozeDuration = 3 * time.Minute
)

// TimePattern validates user supplied alarm times (H:mm or HH:mm, 24h)
var TimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// AlarmConfig is the user intent part of an alarm, shared across devices
type AlarmConfig struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
}

// AlarmRuntime is the machine-local trigger state of an alarm
type AlarmRuntime struct {
	Triggered       bool   `json:"triggered"`
	LastTriggeredOn string `json:"lastTriggeredOn,omitempty"`
	TimeSignature   string `json:"timeSignature,omitempty"`
	SnoozeUntilMs   int64  `json:"snoozeUntilMs,omitempty"` // epoch ms, 0 = not snoozed
	DismissedOn     string `json:"dismissedOn,omitempty"`
}

// AlarmSettings is an AlarmConfig merged with its AlarmRuntime
type AlarmSettings struct {
	AlarmConfig
	AlarmRuntime
}

// NewAlarm creates an enabled, unarmed alarm for hour:minute without an id
func NewAlarm(hour, minute int) AlarmSettings {
	return AlarmSettings{
		AlarmConfig:  AlarmConfig{Enabled: true, Hour: hour, Minute: minute},
		AlarmRuntime: AlarmRuntime{TimeSignature: FormatTime(hour, minute)},
	}
}

// Config returns the config half
func (a AlarmSettings) Config() AlarmConfig {
	return a.AlarmConfig
}

// Runtime returns the runtime half
func (a AlarmSettings) Runtime() AlarmRuntime {
	return a.AlarmRuntime
}

// Time returns the alarm time as HH:mm
func (a AlarmSettings) Time() string {
	return FormatTime(a.Hour, a.Minute)
}

// MinuteOfDay returns hour*60+minute
func (a AlarmSettings) MinuteOfDay() int {
	return a.Hour*60 + a.Minute
}

// Snoozed reports whether a snooze target is recorded
func (a AlarmSettings) Snoozed() bool {
	return a.SnoozeUntilMs != 0
}

// SnoozeUntil returns the snooze target as a time
func (a AlarmSettings) SnoozeUntil() time.Time {
	return time.UnixMilli(a.SnoozeUntilMs)
}

// FiredToday reports whether the alarm has fired on the given date key
func (a AlarmSettings) FiredToday(todayKey string) bool {
	return a.Enabled && a.Triggered && a.LastTriggeredOn == todayKey
}

// FormatTime formats hour and minute as zero padded HH:mm
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseTime parses H:mm or HH:mm validated against TimePattern
func ParseTime(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if !TimePattern.MatchString(s) {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:mm", s)
	}
	parts := strings.SplitN(s, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute, nil
}

// ValidTime reports whether hour and minute are within a day
func ValidTime(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// ValidDateKey reports whether s looks like YYYY-MM-DD
func ValidDateKey(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
