package wallclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/clockbar/pkg/wallclock"
)

func mustZone(t *testing.T, id string) *time.Location {
	t.Helper()
	loc, err := wallclock.LoadZone(id)
	require.NoError(t, err)
	return loc
}

func TestAt(t *testing.T) {
	instant := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		zone string
		want wallclock.Components
		key  string
	}{
		{"UTC", wallclock.Components{Year: 2024, Month: 6, Day: 15, Hour: 0, Minute: 0}, "2024-06-15"},
		{"Asia/Tokyo", wallclock.Components{Year: 2024, Month: 6, Day: 15, Hour: 9, Minute: 0}, "2024-06-15"},
		{"America/Los_Angeles", wallclock.Components{Year: 2024, Month: 6, Day: 14, Hour: 17, Minute: 0}, "2024-06-14"},
		{"Asia/Kolkata", wallclock.Components{Year: 2024, Month: 6, Day: 15, Hour: 5, Minute: 30}, "2024-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			loc := mustZone(t, tt.zone)
			assert.Equal(t, tt.want, wallclock.At(instant, loc))
			assert.Equal(t, tt.key, wallclock.DateKey(instant, loc))
			// same inputs, same answer
			assert.Equal(t, wallclock.At(instant, loc), wallclock.At(instant, loc))
		})
	}
}

func TestAtFollowsDST(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	winter := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	summer := time.Date(2024, 7, 15, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, 9, wallclock.At(winter, ny).Hour)
	assert.Equal(t, 10, wallclock.At(summer, ny).Hour)
}

func TestAutoUsesLocal(t *testing.T) {
	instant := time.Date(2024, 3, 1, 12, 34, 0, 0, time.UTC)
	lt := instant.Local()

	got := wallclock.At(instant, nil)
	assert.Equal(t, lt.Hour(), got.Hour)
	assert.Equal(t, lt.Format(wallclock.DateKeyLayout), wallclock.DateKey(instant, nil))
}

func TestLoadZone(t *testing.T) {
	loc, err := wallclock.LoadZone("")
	require.NoError(t, err)
	assert.Nil(t, loc)

	loc, err = wallclock.LoadZone("auto")
	require.NoError(t, err)
	assert.Nil(t, loc)

	_, err = wallclock.LoadZone("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestNextOccurrence(t *testing.T) {
	utc := mustZone(t, "UTC")
	now := time.Date(2024, 6, 15, 10, 0, 30, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 6, 16, 9, 0, 0, 0, time.UTC), wallclock.NextOccurrence(now, 9, 0, utc))
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), wallclock.NextOccurrence(now, 10, 0, utc))
	assert.Equal(t, time.Date(2024, 6, 15, 23, 59, 0, 0, time.UTC), wallclock.NextOccurrence(now, 23, 59, utc))
}
