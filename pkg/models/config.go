package models

import "time"

// Config holds application configuration
type Config struct {
	AutoStart          bool   `json:"auto_start" yaml:"auto_start"`
	AlarmSoundEnabled  bool   `json:"alarm_sound_enabled" yaml:"alarm_sound_enabled"`
	ShowZoneInTray     bool   `json:"show_time_zone_in_status_bar" yaml:"show_time_zone_in_status_bar"`
	AlarmTimeZone      string `json:"alarm_time_zone" yaml:"alarm_time_zone"`           // "" = system local
	Locale             string `json:"locale" yaml:"locale"`                             // "" = detect
	AlarmRepeatMinutes int    `json:"alarm_repeat_minutes" yaml:"alarm_repeat_minutes"` // 0 = repeat until handled
	LogLevel           string `json:"log_level" yaml:"log_level"`
	StateFile          string `json:"state_file,omitempty" yaml:"state_file"` // headless host only
}

// DefaultRepeatMinutes is how long an unanswered alarm keeps reminding by default
const DefaultRepeatMinutes = 3

// DefaultConfig returns configuration used when nothing is persisted
func DefaultConfig() *Config {
	return &Config{
		AlarmSoundEnabled:  true,
		ShowZoneInTray:     true,
		AlarmRepeatMinutes: DefaultRepeatMinutes,
		LogLevel:           "INFO",
	}
}

// RepeatFor returns the session repeat cap, 0 meaning unbounded
func (c *Config) RepeatFor() time.Duration {
	if c.AlarmRepeatMinutes <= 0 {
		return 0
	}
	return time.Duration(c.AlarmRepeatMinutes) * time.Minute
}
