package main

import (
	"log"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/clockbar/pkg/logging"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/timezone"
)

var repeatChoices = []int{0, 3, 5, 10, 15, 30, 60}

// SettingsWindow edits the application config
type SettingsWindow struct {
	cb     *ClockBar
	window fyne.Window

	autoStartCheck *widget.Check
	soundCheck     *widget.Check
	showZoneCheck  *widget.Check
	alarmZone      *widget.Select
	language       *widget.Select
	repeat         *widget.Select
	logLevel       *widget.Select
	statusLabel    *widget.Label

	// option label to config value
	zoneIDs   map[string]string
	languages map[string]string
	repeats   map[string]int
}

// showSettingsWindow opens the settings, reusing an open window
func (cb *ClockBar) showSettingsWindow() {
	if cb.settingsWindow != nil {
		cb.settingsWindow.window.RequestFocus()
		return
	}

	sw := newSettingsWindow(cb)
	cb.settingsWindow = sw
	cb.trackWindow(sw.window, func() {
		cb.settingsWindow = nil
	})
	sw.window.Show()
}

func newSettingsWindow(cb *ClockBar) *SettingsWindow {
	sw := &SettingsWindow{
		cb:        cb,
		zoneIDs:   map[string]string{},
		languages: map[string]string{},
		repeats:   map[string]int{},
	}
	sw.window = cb.app.NewWindow(cb.tr.T("settings.title", nil))
	sw.buildUI(cb.currentConfig())
	return sw
}

func (sw *SettingsWindow) buildUI(config *models.Config) {
	t := sw.cb.tr

	sw.autoStartCheck = widget.NewCheck(t.T("settings.autoStart", nil), nil)
	sw.autoStartCheck.SetChecked(config.AutoStart)
	sw.soundCheck = widget.NewCheck(t.T("settings.sound", nil), nil)
	sw.soundCheck.SetChecked(config.AlarmSoundEnabled)
	sw.showZoneCheck = widget.NewCheck(t.T("settings.showZone", nil), nil)
	sw.showZoneCheck.SetChecked(config.ShowZoneInTray)

	local := t.T("settings.alarmZoneLocal", nil)
	zoneOptions := []string{local}
	sw.zoneIDs[local] = ""
	selectedZone := local
	now := time.Now()
	for _, z := range timezone.Zones {
		_, loc, _ := timezone.Resolve(z.ID)
		label := timezone.Describe(now, z, loc)
		zoneOptions = append(zoneOptions, label)
		sw.zoneIDs[label] = z.ID
		if z.ID == config.AlarmTimeZone {
			selectedZone = label
		}
	}
	sw.alarmZone = widget.NewSelect(zoneOptions, nil)
	sw.alarmZone.SetSelected(selectedZone)

	auto := t.T("settings.languageAuto", nil)
	languageOptions := []string{auto}
	sw.languages[auto] = ""
	for _, l := range sw.cb.tr.Languages() {
		languageOptions = append(languageOptions, l)
		sw.languages[l] = l
	}
	sw.language = widget.NewSelect(languageOptions, nil)
	sw.language.SetSelected(auto)
	if _, ok := sw.languages[config.Locale]; ok && config.Locale != "" {
		sw.language.SetSelected(config.Locale)
	}

	repeatOptions := []string{}
	selectedRepeat := ""
	for _, minutes := range repeatChoices {
		label := t.T("settings.repeatForever", nil)
		if minutes > 0 {
			label = t.T("settings.repeatMinutes", map[string]string{"minutes": strconv.Itoa(minutes)})
		}
		repeatOptions = append(repeatOptions, label)
		sw.repeats[label] = minutes
		if minutes == config.AlarmRepeatMinutes || selectedRepeat == "" {
			selectedRepeat = label
		}
	}
	sw.repeat = widget.NewSelect(repeatOptions, nil)
	sw.repeat.SetSelected(selectedRepeat)

	levels := make([]string, 0, len(logging.Levels))
	for _, l := range logging.Levels {
		levels = append(levels, string(l))
	}
	sw.logLevel = widget.NewSelect(levels, nil)
	sw.logLevel.SetSelected(config.LogLevel)

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel(t.T("settings.alarmZone", nil)), sw.alarmZone,
		widget.NewLabel(t.T("settings.repeat", nil)), sw.repeat,
		widget.NewLabel(t.T("settings.language", nil)), sw.language,
		widget.NewLabel(t.T("settings.logLevel", nil)), sw.logLevel,
	)

	sw.statusLabel = widget.NewLabel("")
	sw.statusLabel.Importance = widget.SuccessImportance

	saveButton := widget.NewButton(t.T("settings.save", nil), sw.save)
	saveButton.Importance = widget.HighImportance
	closeButton := widget.NewButton(t.T("settings.close", nil), func() { sw.window.Close() })

	content := container.NewBorder(
		nil,
		container.NewHBox(saveButton, sw.statusLabel, layout.NewSpacer(), closeButton),
		nil,
		nil,
		container.NewVBox(
			sw.autoStartCheck,
			sw.soundCheck,
			sw.showZoneCheck,
			widget.NewSeparator(),
			form,
		),
	)

	sw.window.SetContent(container.NewPadded(content))
	sw.window.Resize(fyne.NewSize(520, 0))
	sw.window.CenterOnScreen()
	sw.window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape {
			sw.window.Close()
		}
	})
}

func (sw *SettingsWindow) configFromUI() *models.Config {
	config := *sw.cb.currentConfig()
	config.AutoStart = sw.autoStartCheck.Checked
	config.AlarmSoundEnabled = sw.soundCheck.Checked
	config.ShowZoneInTray = sw.showZoneCheck.Checked
	config.AlarmTimeZone = sw.zoneIDs[sw.alarmZone.Selected]
	config.Locale = sw.languages[sw.language.Selected]
	config.AlarmRepeatMinutes = sw.repeats[sw.repeat.Selected]
	config.LogLevel = sw.logLevel.Selected
	return &config
}

func (sw *SettingsWindow) save() {
	config := sw.configFromUI()
	sw.statusLabel.SetText("")

	go func() {
		if err := setupAutostart(config.AutoStart); err != nil {
			log.Printf("[WARN] Error setting autostart: %v", err)
		}
		sw.cb.applyConfig(config)

		fyne.Do(func() {
			sw.statusLabel.SetText(sw.cb.tr.T("settings.saved", nil))
		})
	}()
}
