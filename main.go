package main

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/lang"
	"github.com/hashicorp/logutils"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/audio"
	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/logging"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/notify"
	"github.com/borgmon/clockbar/pkg/platform"
	"github.com/borgmon/clockbar/pkg/store"
	"github.com/borgmon/clockbar/pkg/timezone"
)

const appID = "com.borgmon.clockbar"

type ClockBar struct {
	app       fyne.App
	configs   *store.ConfigStore
	logFilter *logutils.LevelFilter

	mu     sync.RWMutex
	config *models.Config

	kv       *store.PrefsKV
	zones    *timezone.Selection
	tr       *i18n.Bundle
	alarms   *alarm.Manager
	notifier *notify.Controller
	beeper   *audio.Beeper
	prompter *fynePrompter
	toasts   *toastWindows

	tray  *trayMenu
	clock *clockZones

	openWindows    atomic.Int32
	flashing       atomic.Bool
	wake           chan struct{}
	stop           chan struct{}
	settingsWindow *SettingsWindow
}

func main() {
	cb := &ClockBar{
		app:  app.NewWithID(appID),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}

	if err := cb.initialize(); err != nil {
		log.Fatal(err)
	}

	cb.run()
}

func (cb *ClockBar) initialize() error {
	cb.configs = store.NewConfigStore(cb.app)
	cb.config = cb.configs.Load()
	cb.logFilter = logging.Setup(cb.config.LogLevel)

	// Sync autostart state with config on startup
	if err := setupAutostart(cb.config.AutoStart); err != nil {
		log.Printf("[WARN] failed to setup autostart: %v", err)
	}

	tr, err := i18n.New(cb.locale())
	if err != nil {
		return err
	}
	cb.tr = tr

	cb.kv = store.NewPrefsKV(cb.app)
	cb.zones = timezone.NewSelection(cb.kv)
	cb.clock = newClockZones(cb.zones)

	cb.prompter = newFynePrompter(cb)
	cb.alarms = alarm.NewManager(alarm.Options{
		Store:      store.NewAlarmStore(cb.kv),
		Prompter:   cb.prompter,
		Translator: cb.tr,
		Location:   alarmLocation(cb.config.AlarmTimeZone),
		OnChange: func([]models.AlarmSettings) {
			fyne.Do(cb.refreshTray)
		},
	})

	cb.beeper = audio.NewBeeper(func() bool { return cb.currentConfig().AlarmSoundEnabled })
	cb.toasts = newToastWindows(cb)
	cb.notifier = notify.NewController(notify.Options{
		Source:     cb.alarms,
		Toaster:    cb.toasts,
		Translator: cb.tr,
		Sound:      cb.beeper.Beep,
		Flash:      cb.flashTray,
		RepeatFor:  cb.config.RepeatFor(),
	})
	cb.alarms.SetNotifier(cb.notifier)

	// Preferences also change when another instance writes the shared file.
	cb.kv.OnChange(func() {
		go cb.externalChange()
	})

	cb.setupSystemTray()
	cb.startClock()

	return nil
}

func (cb *ClockBar) run() {
	cb.app.Lifecycle().SetOnStarted(func() {
		platform.SetActivationPolicy()
	})
	cb.app.Run()
}

func (cb *ClockBar) currentConfig() *models.Config {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.config
}

// applyConfig stores a new config and pushes it into the running components
func (cb *ClockBar) applyConfig(config *models.Config) {
	cb.mu.Lock()
	old := cb.config
	cb.config = config
	cb.mu.Unlock()

	cb.configs.Save(config)

	if old.LogLevel != config.LogLevel {
		logging.SetLevel(cb.logFilter, config.LogLevel)
	}
	if old.Locale != config.Locale {
		cb.tr.SetLocale(cb.locale())
	}
	if old.AlarmTimeZone != config.AlarmTimeZone {
		cb.alarms.SetLocation(alarmLocation(config.AlarmTimeZone))
	}
	if old.AlarmRepeatMinutes != config.AlarmRepeatMinutes {
		cb.notifier.SetRepeatFor(config.RepeatFor())
	}

	fyne.Do(cb.rebuildTray)
}

func (cb *ClockBar) externalChange() {
	cb.zones.Reload()
	cb.clock.reload()
	cb.alarms.Alarms()
	fyne.Do(cb.refreshTray)
}

func (cb *ClockBar) locale() string {
	if l := cb.currentConfig().Locale; l != "" {
		return l
	}
	return string(lang.SystemLocale())
}

// alarmLocation resolves the configured alarm zone; empty or unsupported means local
func alarmLocation(id string) *time.Location {
	if id == "" || id == "auto" {
		return nil
	}
	_, loc, ok := timezone.Resolve(id)
	if !ok {
		log.Printf("[WARN] alarm time zone %q is not supported, using local time", id)
		return nil
	}
	return loc
}

// trackWindow counts our open windows so the clock can speed up while one is
// shown. onClosed may be nil.
func (cb *ClockBar) trackWindow(w fyne.Window, onClosed func()) {
	cb.openWindows.Add(1)
	cb.poke()
	w.SetOnClosed(func() {
		cb.openWindows.Add(-1)
		if onClosed != nil {
			onClosed()
		}
	})
}

func (cb *ClockBar) poke() {
	select {
	case cb.wake <- struct{}{}:
	default:
	}
}

func (cb *ClockBar) quit() {
	close(cb.stop)
	cb.alarms.Close()
	cb.app.Quit()
}
