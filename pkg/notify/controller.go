// Package notify runs the repeating reminder shown while alarms are ringing.
package notify

import (
	"context"
	"log"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
)

// RecheckDelay is how soon a toast closed without an answer is shown again
const RecheckDelay = 5 * time.Second

// Response is the user's answer to a toast
type Response int

const (
	// ResponseNone means the toast went away without a button press
	ResponseNone Response = iota
	ResponseStop
	ResponseSnooze
	ResponseManage
)

func (r Response) String() string {
	switch r {
	case ResponseStop:
		return "stop"
	case ResponseSnooze:
		return "snooze"
	case ResponseManage:
		return "manage"
	default:
		return "none"
	}
}

// Toast is one combined reminder for every ringing alarm of a session
type Toast struct {
	SessionID   string
	Title       string
	Times       []string
	StopLabel   string
	SnoozeLabel string
	ManageLabel string
}

// Toaster presents toasts. Show must not block; respond may be called from any
// goroutine, at most once per toast.
type Toaster interface {
	Show(toast Toast, respond func(Response))
	Withdraw(sessionID string)
}

// AlarmSource gives the controller access to persisted alarm state.
// It is never called while the controller holds its lock.
type AlarmSource interface {
	// Alarms reloads the alarm list from durable storage
	Alarms() []models.AlarmSettings
	SaveAlarms(alarms []models.AlarmSettings) error
	// TodayKey is the date key of now in the alarm zone
	TodayKey(now time.Time) string
	ShowAlarmMenu(ctx context.Context) error
}

// Timer is a cancellable one-shot callback
type Timer interface {
	Stop() bool
}

// Scheduler creates one-shot timers
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a Controller. Source, Toaster and Translator are required.
type Options struct {
	Source     AlarmSource
	Toaster    Toaster
	Translator i18n.Translator

	// Sound and Flash are best-effort side effects run on every toast
	Sound func()
	Flash func()

	// FormatTime renders an alarm time for toasts; defaults to HH:mm
	FormatTime func(a models.AlarmSettings) string

	// RepeatFor caps how long a session keeps reminding; zero repeats until answered
	RepeatFor time.Duration

	Scheduler Scheduler
	Now       func() time.Time
}

// SessionState is the lifecycle of a session
type SessionState int

const (
	SessionActive SessionState = iota
	SessionStopped
)

type session struct {
	id           string
	state        SessionState
	alarmIDs     []string
	nextNotifyAt time.Time
	repeatUntil  time.Time // zero: no cap
	triggeredOn  string    // date key of the day the session started
	awaiting     bool      // a toast is waiting for an answer
	toastSeq     int
	timer        Timer
}

// SessionInfo is a read-only view of the live session
type SessionInfo struct {
	ID           string
	AlarmIDs     []string
	NextNotifyAt time.Time
	Awaiting     bool
}

// Controller manages at most one live notification session. Entry points are
// StartOrMerge, Tick, Respond, Prune, Stop and Close; timers only ever call Tick
// for the session id they were created for.
type Controller struct {
	opts Options

	mu      sync.Mutex
	session *session
	closed  bool
}

// NewController creates a Controller
func NewController(opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FormatTime == nil {
		opts.FormatTime = func(a models.AlarmSettings) string { return a.Time() }
	}
	return &Controller{opts: opts}
}

// SetRepeatFor changes the repeat cap of sessions started from now on
func (c *Controller) SetRepeatFor(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.RepeatFor = d
}

// Session returns the live session, if any
func (c *Controller) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:           s.id,
		AlarmIDs:     slices.Clone(s.alarmIDs),
		NextNotifyAt: s.nextNotifyAt,
		Awaiting:     s.awaiting,
	}, true
}

// StartOrMerge announces newly triggered alarms. Without a live session a new
// one is created; otherwise the ids are merged in and the next reminder is
// pulled forward to now.
func (c *Controller) StartOrMerge(triggered []models.AlarmSettings, now time.Time) {
	incoming := make([]string, 0, len(triggered))
	for _, a := range triggered {
		if a.ID != "" && !slices.Contains(incoming, a.ID) {
			incoming = append(incoming, a.ID)
		}
	}
	if len(incoming) == 0 {
		return
	}

	todayKey := c.opts.Source.TodayKey(now)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	replaced := ""
	s := c.session
	if s == nil || s.state == SessionStopped || c.expired(s, now) {
		if s != nil {
			c.endLocked(s)
		}
		s = &session{
			id:           "session-" + uuid.New().String(),
			alarmIDs:     incoming,
			nextNotifyAt: now,
			triggeredOn:  todayKey,
		}
		if c.opts.RepeatFor > 0 {
			s.repeatUntil = now.Add(c.opts.RepeatFor)
		}
		c.session = s
		log.Printf("[INFO] alarm session %s started for %s", s.id, strings.Join(incoming, ","))
	} else {
		for _, id := range incoming {
			if !slices.Contains(s.alarmIDs, id) {
				s.alarmIDs = append(s.alarmIDs, id)
			}
		}
		if now.Before(s.nextNotifyAt) {
			s.nextNotifyAt = now
		}
		if c.opts.RepeatFor > 0 && now.Add(c.opts.RepeatFor).After(s.repeatUntil) {
			s.repeatUntil = now.Add(c.opts.RepeatFor)
		}
		// the pending toast is replaced by one listing every alarm
		if s.awaiting {
			s.awaiting = false
			replaced = s.id
		}
		log.Printf("[INFO] alarm session %s now covers %s", s.id, strings.Join(s.alarmIDs, ","))
	}
	c.mu.Unlock()

	if replaced != "" {
		c.opts.Toaster.Withdraw(replaced)
	}
	c.Tick(now)
}

// Tick runs one repeat cycle of the live session if it is due
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	s := c.session
	if s == nil || c.closed {
		c.mu.Unlock()
		return
	}
	if c.expired(s, now) {
		log.Printf("[INFO] alarm session %s reached its repeat limit", s.id)
		c.endLocked(s)
		c.mu.Unlock()
		c.opts.Toaster.Withdraw(s.id)
		return
	}
	if now.Before(s.nextNotifyAt) {
		c.scheduleLocked(s, s.nextNotifyAt.Sub(now))
		c.mu.Unlock()
		return
	}
	sessionID := s.id
	s.nextNotifyAt = now.Add(models.RepeatInterval)
	c.mu.Unlock()

	// Another window may have stopped or snoozed these alarms since the last cycle.
	alarms := c.opts.Source.Alarms()
	todayKey := c.opts.Source.TodayKey(now)

	c.mu.Lock()
	s = c.session
	if s == nil || s.id != sessionID || s.state == SessionStopped {
		c.mu.Unlock()
		return
	}

	ringing := ringingAlarms(alarms, s.alarmIDs, todayKey)
	if len(ringing) == 0 {
		log.Printf("[INFO] alarm session %s handled elsewhere, stopping", s.id)
		c.endLocked(s)
		c.mu.Unlock()
		c.opts.Toaster.Withdraw(sessionID)
		return
	}
	s.alarmIDs = s.alarmIDs[:0]
	for _, a := range ringing {
		s.alarmIDs = append(s.alarmIDs, a.ID)
	}
	c.scheduleLocked(s, s.nextNotifyAt.Sub(now))

	// The unanswered toast stays up; only the sound and flash repeat.
	if s.awaiting {
		c.mu.Unlock()
		c.sideEffect("sound", c.opts.Sound)
		c.sideEffect("flash", c.opts.Flash)
		return
	}
	s.awaiting = true
	s.toastSeq++
	seq := s.toastSeq
	c.mu.Unlock()

	toast := c.buildToast(sessionID, ringing)
	c.sideEffect("sound", c.opts.Sound)
	c.sideEffect("flash", c.opts.Flash)

	var once sync.Once
	c.opts.Toaster.Show(toast, func(r Response) {
		once.Do(func() { c.respond(sessionID, seq, r) })
	})
}

// Respond applies r to the session with the given id; stale ids are ignored
func (c *Controller) Respond(sessionID string, r Response) {
	c.respond(sessionID, 0, r)
}

func (c *Controller) respond(sessionID string, seq int, r Response) {
	now := c.opts.Now()

	c.mu.Lock()
	s := c.session
	if s == nil || s.id != sessionID || s.state == SessionStopped || (seq != 0 && seq != s.toastSeq) {
		c.mu.Unlock()
		return
	}
	s.awaiting = false
	log.Printf("[INFO] alarm session %s: %s", s.id, r)

	if r == ResponseNone {
		if recheck := now.Add(RecheckDelay); recheck.Before(s.nextNotifyAt) {
			s.nextNotifyAt = recheck
		}
		c.scheduleLocked(s, s.nextNotifyAt.Sub(now))
		c.mu.Unlock()
		return
	}

	ids := slices.Clone(s.alarmIDs)
	triggeredOn := s.triggeredOn
	c.endLocked(s)
	c.mu.Unlock()
	c.opts.Toaster.Withdraw(sessionID)

	switch r {
	case ResponseStop:
		// Dismiss the day that rang, which differs from today when Stop comes after midnight.
		c.update(ids, func(a *models.AlarmSettings) {
			if a.LastTriggeredOn != "" {
				a.DismissedOn = a.LastTriggeredOn
			} else {
				a.DismissedOn = triggeredOn
			}
		})
	case ResponseSnooze:
		until := now.Add(models.SnoozeDuration).UnixMilli()
		c.update(ids, func(a *models.AlarmSettings) {
			a.Triggered = false
			a.SnoozeUntilMs = until
		})
	case ResponseManage:
		go func() {
			if err := c.opts.Source.ShowAlarmMenu(context.Background()); err != nil {
				log.Printf("[WARN] alarm menu: %v", err)
			}
		}()
	}
}

// update applies fn to the session's alarms in a fresh copy of the stored list
func (c *Controller) update(ids []string, fn func(a *models.AlarmSettings)) {
	alarms := c.opts.Source.Alarms()
	changed := false
	for i := range alarms {
		if slices.Contains(ids, alarms[i].ID) {
			fn(&alarms[i])
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := c.opts.Source.SaveAlarms(alarms); err != nil {
		log.Printf("[ERROR] failed to save alarm response: %v", err)
	}
}

// Prune drops session alarms that no longer exist, ending an emptied session
func (c *Controller) Prune(live []models.AlarmSettings) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return
	}

	kept := s.alarmIDs[:0]
	for _, id := range s.alarmIDs {
		if slices.ContainsFunc(live, func(a models.AlarmSettings) bool { return a.ID == id }) {
			kept = append(kept, id)
		}
	}
	s.alarmIDs = kept

	if len(kept) > 0 {
		c.mu.Unlock()
		return
	}
	sessionID := s.id
	c.endLocked(s)
	c.mu.Unlock()
	c.opts.Toaster.Withdraw(sessionID)
}

// Stop ends the live session without touching stored state
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return
	}
	c.endLocked(s)
	c.mu.Unlock()
	c.opts.Toaster.Withdraw(s.id)
}

// Close stops the session and cancels its timer; the controller ignores all later calls
func (c *Controller) Close() {
	c.Stop()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) expired(s *session, now time.Time) bool {
	return !s.repeatUntil.IsZero() && !now.Before(s.repeatUntil)
}

func (c *Controller) endLocked(s *session) {
	s.state = SessionStopped
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if c.session == s {
		c.session = nil
	}
}

func (c *Controller) scheduleLocked(s *session, delay time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	if delay < 0 {
		delay = 0
	}
	sessionID := s.id
	s.timer = c.opts.Scheduler.AfterFunc(delay, func() { c.fire(sessionID) })
}

func (c *Controller) fire(sessionID string) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.id != sessionID {
		c.mu.Unlock()
		return
	}
	s.timer = nil
	c.mu.Unlock()

	c.Tick(c.opts.Now())
}

func (c *Controller) buildToast(sessionID string, ringing []models.AlarmSettings) Toast {
	t := c.opts.Translator
	times := make([]string, 0, len(ringing))
	for _, a := range ringing {
		times = append(times, c.opts.FormatTime(a))
	}

	var title string
	if len(times) == 1 {
		title = t.T("alarm.notification.singleTitle", map[string]string{"time": times[0]})
	} else {
		title = t.T("alarm.notification.multiTitle", map[string]string{
			"count": strconv.Itoa(len(times)),
			"times": strings.Join(times, ", "),
		})
	}

	return Toast{
		SessionID:   sessionID,
		Title:       title,
		Times:       times,
		StopLabel:   t.T("alarm.notification.action.stop", nil),
		SnoozeLabel: t.T("alarm.notification.action.snooze3m", nil),
		ManageLabel: t.T("alarm.notification.action.manage", nil),
	}
}

// sideEffect runs fn in the background; a panic or failure only gets logged
func (c *Controller) sideEffect(name string, fn func()) {
	if fn == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[WARN] alarm %s failed: %v\n%s", name, r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ringingAlarms returns, in session order, the alarms still ringing today
func ringingAlarms(alarms []models.AlarmSettings, ids []string, todayKey string) []models.AlarmSettings {
	ringing := []models.AlarmSettings{}
	for _, id := range ids {
		for _, a := range alarms {
			if a.ID != id {
				continue
			}
			if a.Enabled && a.DismissedOn != todayKey && a.Triggered && a.LastTriggeredOn == todayKey {
				ringing = append(ringing, a)
			}
			break
		}
	}
	return ringing
}
