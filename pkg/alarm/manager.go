package alarm

import (
	"context"
	"errors"
	"log"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/wallclock"
)

// Repository persists the alarm list
type Repository interface {
	Load() []models.AlarmSettings
	Save(alarms []models.AlarmSettings) ([]models.AlarmSettings, error)
}

// Notifier is the notification session the manager hands triggered alarms to
type Notifier interface {
	StartOrMerge(triggered []models.AlarmSettings, now time.Time)
	Prune(live []models.AlarmSettings)
	Close()
}

// Options configures a Manager. Store and Translator are required.
type Options struct {
	Store      Repository
	Prompter   Prompter
	Translator i18n.Translator

	// Location is the alarm zone; nil uses the local zone
	Location *time.Location

	// OnChange is called with the new list whenever the alarms change. It runs
	// while a write may be in progress and must not modify alarms itself.
	OnChange func(alarms []models.AlarmSettings)
}

// Manager owns the alarm list. Every change is written through the store and
// the in-memory list is only ever replaced by what the store returned.
type Manager struct {
	store    Repository
	prompter Prompter
	t        i18n.Translator
	onChange func([]models.AlarmSettings)

	tickMu sync.Mutex // one tick at a time
	opMu   sync.Mutex // serialises read-modify-write of the stored list

	mu               sync.Mutex
	loc              *time.Location
	alarms           []models.AlarmSettings
	lastNotification map[string]time.Time
	notifier         Notifier
	closed           bool
}

// NewManager loads the stored alarms and returns a Manager
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:            opts.Store,
		prompter:         opts.Prompter,
		t:                opts.Translator,
		onChange:         opts.OnChange,
		loc:              opts.Location,
		lastNotification: map[string]time.Time{},
	}
	m.alarms = m.store.Load()
	return m
}

// SetNotifier attaches the notification controller
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// SetLocation changes the alarm zone; nil uses the local zone
func (m *Manager) SetLocation(loc *time.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loc = loc
}

// Location returns the alarm zone
func (m *Manager) Location() *time.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loc
}

// Snapshot returns the last known list without touching storage
func (m *Manager) Snapshot() []models.AlarmSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.alarms)
}

// Alarms reloads the list from storage
func (m *Manager) Alarms() []models.AlarmSettings {
	return m.refresh()
}

// TodayKey is the date key of now in the alarm zone
func (m *Manager) TodayKey(now time.Time) string {
	return wallclock.DateKey(now, m.Location())
}

// SaveAlarms writes alarms through the store
func (m *Manager) SaveAlarms(alarms []models.AlarmSettings) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	_, err := m.save(alarms)
	return err
}

// Tick evaluates every alarm at now. Resets and triggers are written in a
// single save; triggered alarms are then handed to the notifier together.
func (m *Manager) Tick(now time.Time) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	m.opMu.Lock()
	alarms := m.refresh()
	if len(alarms) == 0 {
		m.opMu.Unlock()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.opMu.Unlock()
		return
	}
	loc := m.loc
	next := slices.Clone(alarms)
	triggered := []models.AlarmSettings{}
	changed := false
	for i, a := range next {
		if a.ID == "" {
			continue
		}
		action := Evaluate(a, now, m.lastNotification[a.ID], loc)
		switch action.Kind {
		case ActionSave:
			next[i] = action.Alarm
			changed = true
		case ActionTrigger:
			fired := action.Alarm
			fired.Triggered = true
			fired.LastTriggeredOn = action.TodayKey
			next[i] = fired
			m.lastNotification[a.ID] = now
			triggered = append(triggered, fired)
			changed = true
			log.Printf("[INFO] alarm %s (%s) triggered for %s", a.ID, a.Time(), action.TodayKey)
		}
	}
	notifier := m.notifier
	m.mu.Unlock()

	if changed {
		if _, err := m.save(next); err != nil {
			log.Printf("[ERROR] failed to save alarm tick: %v", err)
		}
	}
	m.opMu.Unlock()

	if len(triggered) > 0 && notifier != nil {
		notifier.StartOrMerge(triggered, now)
	}
}

// AddAlarm appends an enabled alarm at hour:minute
func (m *Manager) AddAlarm(hour, minute int) (models.AlarmSettings, error) {
	if !models.ValidTime(hour, minute) {
		return models.AlarmSettings{}, Errorf(ErrInvalid, "time %d:%d is out of range", hour, minute)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	alarms := m.refresh()
	if len(alarms) >= models.MaxAlarms {
		return models.AlarmSettings{}, Errorf(ErrLimit, "at most %d alarms can be set", models.MaxAlarms)
	}

	saved, err := m.save(append(alarms, models.NewAlarm(hour, minute)))
	if err != nil {
		return models.AlarmSettings{}, err
	}
	return saved[len(saved)-1], nil
}

// UpdateAlarm moves an alarm to hour:minute and clears its runtime state
func (m *Manager) UpdateAlarm(id string, hour, minute int) (models.AlarmSettings, error) {
	if !models.ValidTime(hour, minute) {
		return models.AlarmSettings{}, Errorf(ErrInvalid, "time %d:%d is out of range", hour, minute)
	}
	return m.updateByID(id, func(a models.AlarmSettings) models.AlarmSettings {
		a.Hour, a.Minute = hour, minute
		a.AlarmRuntime = models.AlarmRuntime{TimeSignature: models.FormatTime(hour, minute)}
		return a
	})
}

// SetEnabled turns an alarm on or off
func (m *Manager) SetEnabled(id string, enabled bool) (models.AlarmSettings, error) {
	return m.updateByID(id, func(a models.AlarmSettings) models.AlarmSettings {
		a.Enabled = enabled
		return a
	})
}

// RemoveAlarm deletes an alarm
func (m *Manager) RemoveAlarm(id string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	alarms := m.refresh()
	kept := slices.DeleteFunc(slices.Clone(alarms), func(a models.AlarmSettings) bool { return a.ID == id })
	if len(kept) == len(alarms) {
		return Errorf(ErrNotFound, "no alarm with id %q", id)
	}
	_, err := m.save(kept)
	return err
}

// ImportAlarms appends alarms read from elsewhere, skipping times that are
// already set and anything beyond the alarm limit. It returns how many were
// added.
func (m *Manager) ImportAlarms(incoming []models.AlarmSettings) (int, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	alarms := slices.Clone(m.refresh())
	taken := map[string]bool{}
	for _, a := range alarms {
		taken[a.Time()] = true
	}

	added := 0
	for _, a := range incoming {
		if len(alarms) >= models.MaxAlarms {
			log.Printf("[WARN] import stopped at the limit of %d alarms", models.MaxAlarms)
			break
		}
		if !models.ValidTime(a.Hour, a.Minute) || taken[a.Time()] {
			continue
		}
		imported := models.NewAlarm(a.Hour, a.Minute)
		imported.Enabled = a.Enabled
		alarms = append(alarms, imported)
		taken[a.Time()] = true
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if _, err := m.save(alarms); err != nil {
		return 0, err
	}
	return added, nil
}

func (m *Manager) updateByID(id string, fn func(models.AlarmSettings) models.AlarmSettings) (models.AlarmSettings, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	updated, found := UpdateByID(m.refresh(), id, fn)
	if !found {
		return models.AlarmSettings{}, Errorf(ErrNotFound, "no alarm with id %q", id)
	}
	saved, err := m.save(updated)
	if err != nil {
		return models.AlarmSettings{}, err
	}
	a, _ := FindByID(saved, id)
	return a, nil
}

// Close stops the notifier; later ticks do nothing
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	notifier := m.notifier
	m.mu.Unlock()

	if notifier != nil {
		notifier.Close()
	}
}

// refresh reloads the list and publishes it if it changed
func (m *Manager) refresh() []models.AlarmSettings {
	next := m.store.Load()

	m.mu.Lock()
	if SameAlarms(m.alarms, next) {
		m.mu.Unlock()
		return next
	}
	m.publishLocked(next)
	notifier := m.notifier
	m.mu.Unlock()

	m.changed(notifier, next)
	return next
}

// save writes alarms through the store and publishes the normalised result.
// The caller holds opMu.
func (m *Manager) save(alarms []models.AlarmSettings) ([]models.AlarmSettings, error) {
	normalized, err := m.store.Save(alarms)
	if err != nil {
		return nil, Errorf(ErrInternal, "save alarms: %v", err)
	}

	m.mu.Lock()
	m.publishLocked(normalized)
	notifier := m.notifier
	m.mu.Unlock()

	m.changed(notifier, normalized)
	return normalized, nil
}

func (m *Manager) publishLocked(alarms []models.AlarmSettings) {
	m.alarms = slices.Clone(alarms)
	pruneNotifications(m.lastNotification, alarms)
}

func (m *Manager) changed(notifier Notifier, alarms []models.AlarmSettings) {
	if notifier != nil {
		notifier.Prune(alarms)
	}
	if m.onChange != nil {
		m.onChange(slices.Clone(alarms))
	}
}

// SetAlarm asks for a time and adds an alarm
func (m *Manager) SetAlarm(ctx context.Context) error {
	if len(m.refresh()) >= models.MaxAlarms {
		m.prompter.Warn(m.t.T("alarm.message.limit", map[string]string{"max": strconv.Itoa(models.MaxAlarms)}))
		return nil
	}

	hour, minute, ok, err := m.promptTime(ctx, "")
	if err != nil || !ok {
		return err
	}

	a, err := m.AddAlarm(hour, minute)
	switch ErrorCode(err) {
	case "":
		m.prompter.Info(m.t.T("alarm.message.set", map[string]string{"time": a.Time()}))
		return nil
	case ErrLimit:
		m.prompter.Warn(m.t.T("alarm.message.limit", map[string]string{"max": strconv.Itoa(models.MaxAlarms)}))
		return nil
	default:
		return err
	}
}

// EditAlarm changes the time of the alarm with id, asking which one when id
// is empty. With no alarms at all it falls through to SetAlarm.
func (m *Manager) EditAlarm(ctx context.Context, id string) error {
	alarms := m.refresh()
	if id == "" {
		if len(alarms) == 0 {
			return m.SetAlarm(ctx)
		}
		picked, ok, err := m.pickAlarm(ctx, alarms, "alarm.pick.edit")
		if err != nil || !ok {
			return err
		}
		id = picked
	}

	current, ok := FindByID(alarms, id)
	if !ok {
		return nil
	}
	hour, minute, ok, err := m.promptTime(ctx, current.Time())
	if err != nil || !ok {
		return err
	}

	a, err := m.UpdateAlarm(id, hour, minute)
	if ErrorCode(err) == ErrNotFound {
		log.Printf("[INFO] alarm %s was removed while editing", id)
		return nil
	}
	if err != nil {
		return err
	}
	m.prompter.Info(m.t.T("alarm.message.updated", map[string]string{"time": a.Time()}))
	return nil
}

// ToggleAlarm flips the enabled flag of the alarm with id, asking which one when id is empty
func (m *Manager) ToggleAlarm(ctx context.Context, id string) error {
	alarms := m.refresh()
	if id == "" {
		picked, ok, err := m.pickAlarm(ctx, alarms, "alarm.pick.toggle")
		if err != nil || !ok {
			return err
		}
		id = picked
	}

	current, ok := FindByID(alarms, id)
	if !ok {
		return nil
	}
	a, err := m.SetEnabled(id, !current.Enabled)
	if ErrorCode(err) == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if a.Enabled {
		m.prompter.Info(m.t.T("alarm.message.enabled", map[string]string{"time": a.Time()}))
	} else {
		m.prompter.Info(m.t.T("alarm.message.disabled", nil))
	}
	return nil
}

// DeleteAlarm removes the alarm with id after confirmation, asking which one when id is empty
func (m *Manager) DeleteAlarm(ctx context.Context, id string) error {
	alarms := m.refresh()
	if id == "" {
		picked, ok, err := m.pickAlarm(ctx, alarms, "alarm.pick.delete")
		if err != nil || !ok {
			return err
		}
		id = picked
	}

	current, ok := FindByID(alarms, id)
	if !ok {
		return nil
	}
	confirmed, err := m.prompter.Confirm(ctx,
		m.t.T("alarm.confirm.delete", map[string]string{"time": current.Time()}),
		m.t.T("alarm.action.delete", nil),
		m.t.T("alarm.action.cancel", nil))
	if err != nil || !confirmed {
		return err
	}

	err = m.RemoveAlarm(id)
	if ErrorCode(err) == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	m.prompter.Info(m.t.T("alarm.message.deleted", nil))
	return nil
}

// ShowAlarmMenu offers a free slot plus toggle, edit and delete for each alarm
func (m *Manager) ShowAlarmMenu(ctx context.Context) error {
	alarms := m.refresh()
	items := MenuItems(alarms, m.t)
	if len(items) == 0 {
		return nil
	}

	choices := make([]Choice, len(items))
	for i, item := range items {
		choices[i] = item.Choice
	}
	idx, ok, err := m.prompter.Pick(ctx, slotCounter(len(alarms)), choices)
	if err != nil || !ok {
		return err
	}
	if idx < 0 || idx >= len(items) {
		return nil
	}

	item := items[idx]
	switch item.Action {
	case MenuSet:
		return m.SetAlarm(ctx)
	case MenuToggle:
		return m.ToggleAlarm(ctx, item.AlarmID)
	case MenuEdit:
		return m.EditAlarm(ctx, item.AlarmID)
	case MenuDelete:
		return m.DeleteAlarm(ctx, item.AlarmID)
	}
	return nil
}

func (m *Manager) promptTime(ctx context.Context, initial string) (hour, minute int, ok bool, err error) {
	value, ok, err := m.prompter.InputTime(ctx, TimeInput{
		Prompt:      m.t.T("alarm.input.prompt", nil),
		Placeholder: m.t.T("alarm.input.placeholder", nil),
		Initial:     initial,
		Validate: func(s string) error {
			if !models.TimePattern.MatchString(s) {
				return errors.New(m.t.T("alarm.input.invalidFormat", nil))
			}
			return nil
		},
	})
	if err != nil || !ok {
		return 0, 0, false, err
	}
	hour, minute, err = models.ParseTime(value)
	if err != nil {
		return 0, 0, false, Errorf(ErrInvalid, "%v", err)
	}
	return hour, minute, true, nil
}

// pickAlarm returns the only alarm directly and asks when there are several
func (m *Manager) pickAlarm(ctx context.Context, alarms []models.AlarmSettings, titleKey string) (string, bool, error) {
	switch len(alarms) {
	case 0:
		return "", false, nil
	case 1:
		return alarms[0].ID, true, nil
	}

	choices := make([]Choice, len(alarms))
	for i, a := range alarms {
		choices[i] = Choice{
			Label:  strconv.Itoa(i+1) + ". " + a.Time(),
			Detail: statusText(a, m.t),
		}
	}
	idx, ok, err := m.prompter.Pick(ctx, m.t.T(titleKey, nil), choices)
	if err != nil || !ok || idx < 0 || idx >= len(alarms) {
		return "", false, err
	}
	return alarms[idx].ID, true, nil
}
