package notify_test

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/notify"
	"github.com/borgmon/clockbar/pkg/wallclock"
)

type fakeSource struct {
	mu     sync.Mutex
	alarms []models.AlarmSettings
	saves  int
	menus  chan struct{}
}

func newSource(alarms ...models.AlarmSettings) *fakeSource {
	return &fakeSource{alarms: alarms, menus: make(chan struct{}, 1)}
}

func (s *fakeSource) Alarms() []models.AlarmSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.alarms)
}

func (s *fakeSource) SaveAlarms(alarms []models.AlarmSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = slices.Clone(alarms)
	s.saves++
	return nil
}

func (s *fakeSource) TodayKey(now time.Time) string {
	return wallclock.DateKey(now, time.UTC)
}

func (s *fakeSource) ShowAlarmMenu(context.Context) error {
	s.menus <- struct{}{}
	return nil
}

func (s *fakeSource) get(id string) models.AlarmSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alarms {
		if a.ID == id {
			return a
		}
	}
	return models.AlarmSettings{}
}

func (s *fakeSource) edit(id string, fn func(a *models.AlarmSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alarms {
		if s.alarms[i].ID == id {
			fn(&s.alarms[i])
		}
	}
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) notify.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// pending returns the live timers
func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := []*fakeTimer{}
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	return live
}

type fakeToaster struct {
	mu        sync.Mutex
	shown     []notify.Toast
	responses []func(notify.Response)
	withdrawn []string
}

func (t *fakeToaster) Show(toast notify.Toast, respond func(notify.Response)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = append(t.shown, toast)
	t.responses = append(t.responses, respond)
}

func (t *fakeToaster) Withdraw(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.withdrawn = append(t.withdrawn, id)
}

func (t *fakeToaster) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.shown)
}

func (t *fakeToaster) last() (notify.Toast, func(notify.Response)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.shown) - 1
	return t.shown[n], t.responses[n]
}

var today = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func ringing(id string, hour, minute int) models.AlarmSettings {
	a := models.NewAlarm(hour, minute)
	a.ID = id
	a.Triggered = true
	a.LastTriggeredOn = "2024-06-15"
	return a
}

type harness struct {
	source    *fakeSource
	toaster   *fakeToaster
	scheduler *fakeScheduler
	ctrl      *notify.Controller
	now       time.Time
	sounds    atomic.Int32
}

func newHarness(t *testing.T, opts notify.Options, alarms ...models.AlarmSettings) *harness {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)

	h := &harness{
		source:    newSource(alarms...),
		toaster:   &fakeToaster{},
		scheduler: &fakeScheduler{},
		now:       today,
	}
	opts.Source = h.source
	opts.Toaster = h.toaster
	opts.Translator = tr
	opts.Scheduler = h.scheduler
	opts.Now = func() time.Time { return h.now }
	if opts.Sound == nil {
		opts.Sound = func() { h.sounds.Add(1) }
	}
	h.ctrl = notify.NewController(opts)
	return h
}

func TestStartShowsOneToast(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)

	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	require.Equal(t, 1, h.toaster.count())
	toast, _ := h.toaster.last()
	assert.Equal(t, "Alarm: 09:00", toast.Title)
	assert.Equal(t, "Stop", toast.StopLabel)
	assert.Equal(t, "Snooze 3 min", toast.SnoozeLabel)
	assert.Equal(t, "Manage alarms", toast.ManageLabel)

	info, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, info.AlarmIDs)
	assert.True(t, info.Awaiting)
	assert.Equal(t, h.now.Add(models.RepeatInterval), info.NextNotifyAt)

	assert.Eventually(t, func() bool { return h.sounds.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRepeatDoesNotStackToasts(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	h.now = h.now.Add(models.RepeatInterval)
	h.ctrl.Tick(h.now)
	h.now = h.now.Add(models.RepeatInterval)
	h.ctrl.Tick(h.now)

	assert.Equal(t, 1, h.toaster.count(), "the first toast is still waiting")
	assert.Eventually(t, func() bool { return h.sounds.Load() == 3 }, time.Second, 10*time.Millisecond,
		"every cycle rings even while the toast waits")
}

func TestUnansweredToastKeepsRinging(t *testing.T) {
	a := ringing("a", 9, 0)
	flashes := atomic.Int32{}
	h := newHarness(t, notify.Options{Flash: func() { flashes.Add(1) }}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	for range 10 {
		h.now = h.now.Add(models.RepeatInterval)
		h.ctrl.Tick(h.now)
	}

	assert.Equal(t, 1, h.toaster.count())
	assert.Eventually(t, func() bool { return h.sounds.Load() == 11 && flashes.Load() == 11 },
		time.Second, 10*time.Millisecond)
	info, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.True(t, info.Awaiting)
}

func TestTickBeforeDueOnlyReschedules(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	h.ctrl.Tick(h.now.Add(10 * time.Second))

	pending := h.scheduler.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 20*time.Second, pending[0].at)
}

func TestNoResponseRechecksSoon(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseNone)

	info, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.False(t, info.Awaiting)
	assert.Equal(t, h.now.Add(notify.RecheckDelay), info.NextNotifyAt)

	pending := h.scheduler.pending()
	require.Len(t, pending, 1)
	h.now = h.now.Add(notify.RecheckDelay)
	pending[0].fn()

	assert.Equal(t, 2, h.toaster.count())
}

func TestStopDismissesEverySessionAlarm(t *testing.T) {
	a, b := ringing("a", 9, 0), ringing("b", 9, 0)
	h := newHarness(t, notify.Options{}, a, b)

	h.ctrl.StartOrMerge([]models.AlarmSettings{a, b}, h.now)
	require.Equal(t, 1, h.toaster.count())
	toast, respond := h.toaster.last()
	assert.Equal(t, "2 alarms: 09:00, 09:00", toast.Title)

	respond(notify.ResponseStop)

	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, "2024-06-15", h.source.get("a").DismissedOn)
	assert.Equal(t, "2024-06-15", h.source.get("b").DismissedOn)
	assert.Empty(t, h.scheduler.pending())
}

func TestStopAfterMidnightDismissesTheRingingDay(t *testing.T) {
	a := ringing("late", 23, 59)
	h := newHarness(t, notify.Options{}, a)
	h.now = time.Date(2024, 6, 15, 23, 59, 40, 0, time.UTC)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	h.now = time.Date(2024, 6, 16, 0, 0, 5, 0, time.UTC)
	_, respond := h.toaster.last()
	respond(notify.ResponseStop)

	got := h.source.get("late")
	assert.Equal(t, "2024-06-15", got.DismissedOn)

	// the next day still rings
	next := time.Date(2024, 6, 16, 23, 59, 0, 0, time.UTC)
	kind := alarm.ActionNone
	for range 3 {
		action := alarm.Evaluate(got, next, time.Time{}, time.UTC)
		kind = action.Kind
		if kind != alarm.ActionSave {
			break
		}
		got = action.Alarm
	}
	assert.Equal(t, alarm.ActionTrigger, kind)
}

func TestAnswerWithdrawsToast(t *testing.T) {
	for _, r := range []notify.Response{notify.ResponseStop, notify.ResponseSnooze, notify.ResponseManage} {
		t.Run(r.String(), func(t *testing.T) {
			a := ringing("a", 9, 0)
			h := newHarness(t, notify.Options{}, a)
			h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)
			info, _ := h.ctrl.Session()

			_, respond := h.toaster.last()
			respond(r)

			assert.Equal(t, []string{info.ID}, h.toaster.withdrawn)
		})
	}

	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)
	_, respond := h.toaster.last()
	respond(notify.ResponseNone)
	assert.Empty(t, h.toaster.withdrawn, "a closed toast needs no withdrawal")
}

func TestSnoozeClearsTriggered(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseSnooze)

	got := h.source.get("a")
	assert.False(t, got.Triggered)
	assert.Equal(t, h.now.Add(models.SnoozeDuration).UnixMilli(), got.SnoozeUntilMs)
	assert.Empty(t, got.DismissedOn)
	_, ok := h.ctrl.Session()
	assert.False(t, ok)
}

func TestManageOpensMenu(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseManage)

	select {
	case <-h.source.menus:
	case <-time.After(time.Second):
		t.Fatal("alarm menu was not opened")
	}
	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, 0, h.source.saves)
}

func TestResponseIsAppliedOnce(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseStop)
	respond(notify.ResponseSnooze)

	got := h.source.get("a")
	assert.Equal(t, "2024-06-15", got.DismissedOn)
	assert.True(t, got.Triggered)
	assert.Equal(t, 1, h.source.saves)
}

func TestMergeAddsToLiveSession(t *testing.T) {
	a, b := ringing("a", 9, 0), ringing("b", 9, 1)
	h := newHarness(t, notify.Options{}, a, b)

	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)
	first, _ := h.ctrl.Session()

	h.now = h.now.Add(time.Minute)
	h.ctrl.StartOrMerge([]models.AlarmSettings{b}, h.now)

	info, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, first.ID, info.ID)
	assert.Equal(t, []string{"a", "b"}, info.AlarmIDs)

	require.Equal(t, 2, h.toaster.count())
	assert.Equal(t, []string{first.ID}, h.toaster.withdrawn, "the stale toast is replaced")
	toast, _ := h.toaster.last()
	assert.Equal(t, []string{"09:00", "09:01"}, toast.Times)
}

func TestStaleToastAnswerIsIgnored(t *testing.T) {
	a, b := ringing("a", 9, 0), ringing("b", 9, 1)
	h := newHarness(t, notify.Options{}, a, b)

	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)
	_, stale := h.toaster.last()
	h.ctrl.StartOrMerge([]models.AlarmSettings{b}, h.now.Add(time.Minute))

	stale(notify.ResponseStop)

	_, ok := h.ctrl.Session()
	assert.True(t, ok)
	assert.Empty(t, h.source.get("a").DismissedOn)
}

func TestDismissedElsewhereEndsSession(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseNone)
	h.source.edit("a", func(a *models.AlarmSettings) { a.DismissedOn = "2024-06-15" })

	h.now = h.now.Add(notify.RecheckDelay)
	h.ctrl.Tick(h.now)

	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, 1, h.toaster.count())
}

func TestSnoozedElsewhereDropsFromSession(t *testing.T) {
	a, b := ringing("a", 9, 0), ringing("b", 9, 0)
	h := newHarness(t, notify.Options{}, a, b)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a, b}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseNone)
	h.source.edit("a", func(a *models.AlarmSettings) {
		a.Triggered = false
		a.SnoozeUntilMs = today.Add(models.SnoozeDuration).UnixMilli()
	})

	h.now = h.now.Add(notify.RecheckDelay)
	h.ctrl.Tick(h.now)

	info, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, info.AlarmIDs)
	toast, _ := h.toaster.last()
	assert.Equal(t, "Alarm: 09:00", toast.Title)
}

func TestPrune(t *testing.T) {
	a, b := ringing("a", 9, 0), ringing("b", 9, 0)
	h := newHarness(t, notify.Options{}, a, b)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a, b}, h.now)
	info, _ := h.ctrl.Session()

	h.ctrl.Prune([]models.AlarmSettings{b})
	got, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, got.AlarmIDs)

	h.ctrl.Prune(nil)
	_, ok = h.ctrl.Session()
	assert.False(t, ok)
	assert.Contains(t, h.toaster.withdrawn, info.ID)
}

func TestRepeatCap(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{RepeatFor: time.Minute}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	_, respond := h.toaster.last()
	respond(notify.ResponseNone)
	h.ctrl.Tick(h.now.Add(time.Minute))

	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, "2024-06-15", h.source.get("a").LastTriggeredOn, "stored state is left alone")
}

func TestSideEffectPanicDoesNotBreakSession(t *testing.T) {
	a := ringing("a", 9, 0)
	flashed := make(chan struct{})
	h := newHarness(t, notify.Options{
		Sound: func() { panic("no audio device") },
		Flash: func() { close(flashed) },
	}, a)

	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	<-flashed
	_, respond := h.toaster.last()
	respond(notify.ResponseStop)
	assert.Equal(t, "2024-06-15", h.source.get("a").DismissedOn)
}

func TestCloseIgnoresLaterCalls(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	h.ctrl.Close()
	assert.Empty(t, h.scheduler.pending())

	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now.Add(time.Hour))
	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, 1, h.toaster.count())
}

func TestTimerFromEndedSessionIsIgnored(t *testing.T) {
	a := ringing("a", 9, 0)
	h := newHarness(t, notify.Options{}, a)
	h.ctrl.StartOrMerge([]models.AlarmSettings{a}, h.now)

	timers := h.scheduler.pending()
	require.Len(t, timers, 1)
	h.ctrl.Stop()

	h.now = h.now.Add(models.RepeatInterval)
	timers[0].fn()
	assert.Equal(t, 1, h.toaster.count())
}
