package store

import (
	"fyne.io/fyne/v2"
	"github.com/borgmon/clockbar/pkg/models"
)

// ConfigStore handles configuration persistence using Fyne preferences
type ConfigStore struct {
	app fyne.App
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(app fyne.App) *ConfigStore {
	return &ConfigStore{app: app}
}

// Load loads configuration from preferences
func (cs *ConfigStore) Load() *models.Config {
	prefs := cs.app.Preferences()
	def := models.DefaultConfig()

	return &models.Config{
		AutoStart:          prefs.BoolWithFallback("auto_start", def.AutoStart),
		AlarmSoundEnabled:  prefs.BoolWithFallback("alarm_sound_enabled", def.AlarmSoundEnabled),
		ShowZoneInTray:     prefs.BoolWithFallback("show_time_zone_in_status_bar", def.ShowZoneInTray),
		AlarmTimeZone:      prefs.StringWithFallback("alarm_time_zone", def.AlarmTimeZone),
		Locale:             prefs.StringWithFallback("locale", def.Locale),
		AlarmRepeatMinutes: prefs.IntWithFallback("alarm_repeat_minutes", def.AlarmRepeatMinutes),
		LogLevel:           prefs.StringWithFallback("log_level", def.LogLevel),
	}
}

// Save saves configuration to preferences
func (cs *ConfigStore) Save(config *models.Config) {
	prefs := cs.app.Preferences()

	prefs.SetBool("auto_start", config.AutoStart)
	prefs.SetBool("alarm_sound_enabled", config.AlarmSoundEnabled)
	prefs.SetBool("show_time_zone_in_status_bar", config.ShowZoneInTray)
	prefs.SetString("alarm_time_zone", config.AlarmTimeZone)
	prefs.SetString("locale", config.Locale)
	prefs.SetInt("alarm_repeat_minutes", config.AlarmRepeatMinutes)
	prefs.SetString("log_level", config.LogLevel)
}
