package alarm

import (
	"slices"
	"time"

	"github.com/borgmon/clockbar/pkg/models"
)

// SameAlarms reports whether two lists hold the same alarms in the same order
func SameAlarms(a, b []models.AlarmSettings) bool {
	return slices.Equal(a, b)
}

// UpdateByID returns a copy of alarms with fn applied to the alarm with id
func UpdateByID(alarms []models.AlarmSettings, id string, fn func(models.AlarmSettings) models.AlarmSettings) ([]models.AlarmSettings, bool) {
	found := false
	updated := slices.Clone(alarms)
	for i := range updated {
		if updated[i].ID == id {
			updated[i] = fn(updated[i])
			found = true
		}
	}
	return updated, found
}

// FindByID returns the alarm with id
func FindByID(alarms []models.AlarmSettings, id string) (models.AlarmSettings, bool) {
	i := slices.IndexFunc(alarms, func(a models.AlarmSettings) bool { return a.ID == id })
	if i < 0 {
		return models.AlarmSettings{}, false
	}
	return alarms[i], true
}

// pruneNotifications drops entries for alarms that are gone
func pruneNotifications(last map[string]time.Time, alarms []models.AlarmSettings) {
	for id := range last {
		if !slices.ContainsFunc(alarms, func(a models.AlarmSettings) bool { return a.ID == id }) {
			delete(last, id)
		}
	}
}
