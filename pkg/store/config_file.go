package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/borgmon/clockbar/pkg/models"
)

// EnvPrefix prefixes environment overrides of file configuration
const EnvPrefix = "CLOCKBAR_"

// LoadConfigFile reads YAML configuration for the headless host.
// A missing file yields defaults. Optional .env files are loaded first and
// CLOCKBAR_* variables override file values.
func LoadConfigFile(path string, envFiles ...string) (*models.Config, error) {
	if len(envFiles) > 0 {
		existing := []string{}
		for _, f := range envFiles {
			if _, err := os.Stat(f); err == nil {
				existing = append(existing, f)
			}
		}
		if len(existing) > 0 {
			if err := godotenv.Load(existing...); err != nil {
				return nil, fmt.Errorf("load env files: %w", err)
			}
		}
	}

	config := models.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(config, os.LookupEnv)
	return config, nil
}

// SaveConfigFile writes config as YAML
func SaveConfigFile(path string, config *models.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnv(config *models.Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	boolean("AUTO_START", &config.AutoStart)
	boolean("ALARM_SOUND_ENABLED", &config.AlarmSoundEnabled)
	boolean("SHOW_TIME_ZONE", &config.ShowZoneInTray)
	str("ALARM_TIME_ZONE", &config.AlarmTimeZone)
	str("LOCALE", &config.Locale)
	str("LOG_LEVEL", &config.LogLevel)
	str("STATE_FILE", &config.StateFile)
	if v, ok := lookup(EnvPrefix + "ALARM_REPEAT_MINUTES"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.AlarmRepeatMinutes = n
		}
	}
}
