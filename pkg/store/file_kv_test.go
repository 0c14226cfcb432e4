package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/clockbar/pkg/models"
)

func TestFileKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "clockbar.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	_, ok := kv.Get("missing")
	assert.False(t, ok)

	require.NoError(t, kv.Set("timeZone1", []byte(`{"timeZoneId":"UTC"}`)))
	require.NoError(t, kv.Set("plain", []byte("not json")))

	v, ok := kv.Get("timeZone1")
	require.True(t, ok)
	assert.JSONEq(t, `{"timeZoneId":"UTC"}`, string(v))

	v, ok = kv.Get("plain")
	require.True(t, ok)
	assert.Equal(t, `"not json"`, string(v))

	require.NoError(t, kv.Delete("plain"))
	_, ok = kv.Get("plain")
	assert.False(t, ok)
}

func TestFileKVSharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clockbar.json")
	a, err := NewFileKV(path)
	require.NoError(t, err)
	b, err := NewFileKV(path)
	require.NoError(t, err)

	storeA := NewAlarmStore(a)
	storeB := NewAlarmStore(b)

	saved, err := storeA.Save([]models.AlarmSettings{models.NewAlarm(7, 15)})
	require.NoError(t, err)

	loaded := storeB.Load()
	assert.Equal(t, saved, loaded)
}

func TestFileKVCorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clockbar.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	assert.Empty(t, NewAlarmStore(kv).Load())

	require.NoError(t, kv.Set("k", []byte(`1`)))
	v, ok := kv.Get("k")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestFileKVWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clockbar.json")
	kv, err := NewFileKV(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	require.NoError(t, kv.Watch(ctx, func() { changed <- struct{}{} }))

	other, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, other.Set("k", []byte(`true`)))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alarm_time_zone: Asia/Tokyo\nalarm_repeat_minutes: 3\nalarm_sound_enabled: false\n"), 0o644))

	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", config.AlarmTimeZone)
	assert.Equal(t, 3*time.Minute, config.RepeatFor())
	assert.False(t, config.AlarmSoundEnabled)
	assert.Equal(t, "INFO", config.LogLevel, "defaults kept for absent fields")

	missing, err := LoadConfigFile(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), missing)
}

func TestLoadConfigFileEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CLOCKBAR_LOG_LEVEL=DEBUG\n"), 0o644))
	t.Setenv("CLOCKBAR_ALARM_TIME_ZONE", "Europe/Paris")
	t.Setenv("CLOCKBAR_LOG_LEVEL", "")
	os.Unsetenv("CLOCKBAR_LOG_LEVEL")

	config, err := LoadConfigFile("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", config.AlarmTimeZone)
	assert.Equal(t, "DEBUG", config.LogLevel)
}
