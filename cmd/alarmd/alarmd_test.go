package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/store"
	"github.com/borgmon/clockbar/pkg/timezone"
)

func newTestDaemon(t *testing.T, input string) (*daemon, *bytes.Buffer) {
	t.Helper()

	config := models.DefaultConfig()
	config.StateFile = filepath.Join(t.TempDir(), "state.json")
	config.AlarmTimeZone = "UTC"
	config.Locale = "en"

	kv, err := store.NewFileKV(config.StateFile)
	require.NoError(t, err)
	tr, err := i18n.New(config.Locale)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	d := &daemon{
		config:   config,
		kv:       kv,
		zones:    timezone.NewSelection(kv),
		tr:       tr,
		prompter: newTerminalPrompter(strings.NewReader(input), out),
	}
	d.alarms = alarm.NewManager(alarm.Options{
		Store:      store.NewAlarmStore(kv),
		Prompter:   d.prompter,
		Translator: tr,
		Location:   alarmLocation(config.AlarmTimeZone),
	})
	return d, out
}

func TestSetAndList(t *testing.T) {
	d, out := newTestDaemon(t, "")
	ctx := context.Background()

	require.NoError(t, d.dispatch(ctx, "set", []string{"07:30"}))
	require.NoError(t, d.dispatch(ctx, "set", []string{"22:05"}))
	assert.Contains(t, out.String(), "Alarm set for 07:30")

	var list bytes.Buffer
	require.NoError(t, d.list(&list, time.Date(2024, 6, 15, 7, 0, 0, 0, time.UTC)))
	assert.Contains(t, list.String(), "1. 07:30 (Enabled)")
	assert.Contains(t, list.String(), "2. 22:05 (Enabled)")
	assert.Contains(t, list.String(), "Next: ")

	assert.Error(t, d.dispatch(ctx, "set", []string{"25:00"}))
}

func TestSetPromptsWithoutArgument(t *testing.T) {
	d, out := newTestDaemon(t, "7h\n6:15\n")

	require.NoError(t, d.dispatch(context.Background(), "set", nil))

	alarms := d.alarms.Alarms()
	require.Len(t, alarms, 1)
	assert.Equal(t, "06:15", alarms[0].Time())
	assert.Contains(t, out.String(), "Enter a time as HH:mm")
}

func TestToggleEditDeleteByPosition(t *testing.T) {
	d, _ := newTestDaemon(t, "y\n")
	ctx := context.Background()
	require.NoError(t, d.dispatch(ctx, "set", []string{"07:30"}))
	require.NoError(t, d.dispatch(ctx, "set", []string{"08:00"}))

	require.NoError(t, d.dispatch(ctx, "toggle", []string{"2"}))
	assert.False(t, d.alarms.Alarms()[1].Enabled)

	require.NoError(t, d.dispatch(ctx, "edit", []string{"1", "09:45"}))
	assert.Equal(t, "09:45", d.alarms.Alarms()[0].Time())

	require.NoError(t, d.dispatch(ctx, "delete", []string{"1"}))
	alarms := d.alarms.Alarms()
	require.Len(t, alarms, 1)
	assert.Equal(t, "08:00", alarms[0].Time())

	err := d.dispatch(ctx, "toggle", []string{"7"})
	assert.Equal(t, alarm.ErrNotFound, alarm.ErrorCode(err))
}

func TestExportImportRoundTrip(t *testing.T) {
	d, _ := newTestDaemon(t, "")
	ctx := context.Background()
	require.NoError(t, d.dispatch(ctx, "set", []string{"07:30"}))
	require.NoError(t, d.dispatch(ctx, "set", []string{"21:00"}))

	path := filepath.Join(t.TempDir(), "alarms.ics")
	require.NoError(t, d.dispatch(ctx, "export", []string{path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")

	other, out := newTestDaemon(t, "")
	require.NoError(t, other.dispatch(ctx, "import", []string{path}))
	assert.Contains(t, out.String(), "Imported 2 alarms")

	times := []string{}
	for _, a := range other.alarms.Alarms() {
		times = append(times, a.Time())
	}
	assert.Equal(t, []string{"07:30", "21:00"}, times)
}

func TestZoneAndSwap(t *testing.T) {
	d, _ := newTestDaemon(t, "")

	require.NoError(t, d.dispatch(context.Background(), "zone", []string{"1", "Europe/London"}))
	require.NoError(t, d.dispatch(context.Background(), "swap", nil))

	z1, z2 := d.zones.Zones()
	assert.Equal(t, "Asia/Tokyo", z1.ID)
	assert.Equal(t, "Europe/London", z2.ID)

	assert.ErrorIs(t, d.dispatch(context.Background(), "zone", []string{"3", "UTC"}), errUsage)
	assert.Error(t, d.dispatch(context.Background(), "zone", []string{"1", "Mars/Olympus"}))
	assert.ErrorIs(t, d.dispatch(context.Background(), "bogus", nil), errUsage)
}

func TestTerminalPrompterPick(t *testing.T) {
	var out bytes.Buffer
	p := newTerminalPrompter(strings.NewReader("9\nx\n2\n"), &out)

	idx, ok, err := p.Pick(context.Background(), "Alarms", []alarm.Choice{{Label: "a"}, {Label: "b", Detail: "07:30"}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "2) b  07:30")
}

func TestTerminalPrompterCancels(t *testing.T) {
	p := newTerminalPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	_, ok, err := p.InputTime(context.Background(), alarm.TimeInput{Prompt: "time"})
	require.NoError(t, err)
	assert.False(t, ok, "empty answer cancels")

	_, ok, err = p.InputTime(context.Background(), alarm.TimeInput{Prompt: "time"})
	require.NoError(t, err)
	assert.False(t, ok, "end of input cancels")

	confirmed, err := p.Confirm(context.Background(), "sure?", "Delete", "Cancel")
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestTerminalPrompterHonoursContext(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	p := newTerminalPrompter(r, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = p.Pick(ctx, "Alarms", []alarm.Choice{{Label: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocaleFromEnvironment(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ja_JP.UTF-8")

	assert.Equal(t, "ja_JP", locale(&models.Config{}))
	assert.Equal(t, "en", locale(&models.Config{Locale: "en"}))
}

func TestUntilNextMinute(t *testing.T) {
	assert.Equal(t, 30*time.Second, untilNextMinute(time.Date(2024, 1, 1, 9, 0, 30, 0, time.UTC)))
}
