// Command alarmd runs the clockbar alarms without a desktop: alarms ring as
// desktop notifications over D-Bus, or on the terminal when there is no bus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/audio"
	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/logging"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/notify"
	"github.com/borgmon/clockbar/pkg/store"
	"github.com/borgmon/clockbar/pkg/timezone"
)

const appName = "clockbar"

const usage = `usage: alarmd [flags] <command> [args]

commands:
  run                 ring alarms until interrupted (default)
  list                show alarms and clocks
  set [HH:mm]         add an alarm
  edit [n|id] [HH:mm] change an alarm's time
  toggle [n|id]       enable or disable an alarm
  delete [n|id]       delete an alarm
  menu                pick an action from the alarm menu
  export [file]       write alarms as iCalendar (stdout by default)
  import <file|url>   add the daily events of a calendar
  zone <1|2> <id>     choose a clock's time zone
  zones               list selectable time zones
  swap                swap the two clocks

flags:
`

// daemon is everything a command needs
type daemon struct {
	config   *models.Config
	kv       *store.FileKV
	zones    *timezone.Selection
	tr       *i18n.Bundle
	prompter *terminalPrompter
	alarms   *alarm.Manager
}

func main() {
	var configPath, envFile, statePath string

	flag.StringVar(&configPath, "config", defaultPath("config.yaml"), "YAML configuration file")
	flag.StringVar(&envFile, "env", ".env", "optional file of CLOCKBAR_* environment overrides")
	flag.StringVar(&statePath, "state", "", "alarm state file (overrides state_file)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	config, err := store.LoadConfigFile(configPath, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load configuration: %s\n", err.Error())
		os.Exit(1)
	}
	logging.Setup(config.LogLevel)

	if statePath != "" {
		config.StateFile = statePath
	}
	if config.StateFile == "" {
		config.StateFile = defaultPath("state.json")
	}

	d, err := newDaemon(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %s\n", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"run"}
	}
	if err := d.dispatch(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], err.Error())
		os.Exit(1)
	}
}

func newDaemon(config *models.Config) (*daemon, error) {
	if err := os.MkdirAll(filepath.Dir(config.StateFile), 0o755); err != nil {
		return nil, err
	}
	kv, err := store.NewFileKV(config.StateFile)
	if err != nil {
		return nil, err
	}
	tr, err := i18n.New(locale(config))
	if err != nil {
		return nil, err
	}

	d := &daemon{
		config:   config,
		kv:       kv,
		zones:    timezone.NewSelection(kv),
		tr:       tr,
		prompter: newTerminalPrompter(os.Stdin, os.Stdout),
	}
	d.alarms = alarm.NewManager(alarm.Options{
		Store:      store.NewAlarmStore(kv),
		Prompter:   d.prompter,
		Translator: tr,
		Location:   alarmLocation(config.AlarmTimeZone),
	})
	return d, nil
}

// run rings alarms until ctx ends, evaluating them on every minute boundary
func (d *daemon) run(ctx context.Context) error {
	toaster, closeToaster := newToaster()
	defer closeToaster()

	beeper := audio.NewBeeper(func() bool { return d.config.AlarmSoundEnabled })
	controller := notify.NewController(notify.Options{
		Source:     d.alarms,
		Toaster:    toaster,
		Translator: d.tr,
		Sound:      beeper.Beep,
		RepeatFor:  d.config.RepeatFor(),
	})
	d.alarms.SetNotifier(controller)
	defer d.alarms.Close()

	// Another instance, or the CLI, may change the state file at any time.
	if err := d.kv.Watch(ctx, func() {
		d.alarms.Alarms()
		d.zones.Reload()
	}); err != nil {
		log.Printf("[WARN] not watching %s: %v", d.kv.Path(), err)
	}

	log.Printf("[INFO] alarmd watching %d alarms in %s", len(d.alarms.Snapshot()), d.kv.Path())
	for {
		d.alarms.Tick(time.Now())

		timer := time.NewTimer(untilNextMinute(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("[INFO] alarmd is shutting down")
			return nil
		case <-timer.C:
		}
	}
}

// newToaster prefers desktop notifications and falls back to the terminal
func newToaster() (notify.Toaster, func()) {
	t, err := notify.NewDBusToaster(appName)
	if err != nil {
		log.Printf("[WARN] desktop notifications unavailable, ringing on the terminal: %v", err)
		return notify.NewLogToaster(), func() {}
	}
	return t, func() {
		if err := t.Close(); err != nil {
			log.Printf("[DEBUG] close notifications: %v", err)
		}
	}
}

func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

func locale(config *models.Config) string {
	if config.Locale != "" {
		return config.Locale
	}
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			// ja_JP.UTF-8 -> ja_JP
			v, _, _ = strings.Cut(v, ".")
			return v
		}
	}
	return ""
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

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, appName, name)
}
