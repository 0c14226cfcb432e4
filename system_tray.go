package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/calendar"
	"github.com/borgmon/clockbar/pkg/timezone"
)

const upcomingWindow = 24 * time.Hour

// trayMenu keeps the items that change between rebuilds
type trayMenu struct {
	menu   *fyne.Menu
	clocks [2]*fyne.MenuItem
	status *fyne.MenuItem
	next   *fyne.MenuItem

	// the alarm detail lines sit between head and tail
	head []*fyne.MenuItem
	tail []*fyne.MenuItem
}

var regionKeys = map[string]string{
	timezone.RegionUniversal: "region.universal",
	timezone.RegionAmericas:  "region.americas",
	timezone.RegionEurope:    "region.europe",
	timezone.RegionAfricaME:  "region.africaMiddleEast",
	timezone.RegionAsia:      "region.asia",
	timezone.RegionOceania:   "region.oceania",
}

func (cb *ClockBar) setupSystemTray() {
	cb.rebuildTray()
}

// rebuildTray recreates the whole menu; needed when the locale or zones change
func (cb *ClockBar) rebuildTray() {
	desk, ok := cb.app.(desktop.App)
	if !ok {
		log.Println("[WARN] no system tray on this driver")
		return
	}

	t := cb.tr
	tray := &trayMenu{
		clocks: [2]*fyne.MenuItem{disabledItem(""), disabledItem("")},
		status: fyne.NewMenuItem("", func() { cb.runPrompt(cb.alarms.ShowAlarmMenu) }),
		next:   disabledItem(""),
	}

	tray.head = []*fyne.MenuItem{tray.clocks[0], tray.clocks[1], fyne.NewMenuItemSeparator(), tray.status}
	tray.tail = []*fyne.MenuItem{
		tray.next,
		fyne.NewMenuItem(t.T("app.setAlarm", nil), func() { cb.runPrompt(cb.alarms.SetAlarm) }),
		fyne.NewMenuItem(t.T("app.manageAlarms", nil), func() { cb.runPrompt(cb.alarms.ShowAlarmMenu) }),
		fyne.NewMenuItemSeparator(),
		cb.zoneMenu(1),
		cb.zoneMenu(2),
		fyne.NewMenuItem(t.T("clock.swapTimeZones", nil), func() {
			cb.zones.Swap()
			cb.clock.reload()
			cb.rebuildTray()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(t.T("app.exportAlarms", nil), cb.exportAlarms),
		fyne.NewMenuItem(t.T("app.importAlarms", nil), cb.importAlarms),
		fyne.NewMenuItem(t.T("app.settings", nil), cb.showSettingsWindow),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(t.T("app.quit", nil), cb.quit),
	}

	tray.menu = fyne.NewMenu("Clockbar")
	cb.tray = tray
	cb.fillTray(time.Now())

	desk.SetSystemTrayMenu(tray.menu)
	if !cb.flashing.Load() {
		desk.SetSystemTrayIcon(resourceIcon)
	}
}

// refreshTray updates the alarm items from the current alarm list
func (cb *ClockBar) refreshTray() {
	if cb.tray == nil {
		return
	}
	cb.fillTray(time.Now())
	cb.tray.menu.Refresh()
}

// updateClock redraws the clock items only
func (cb *ClockBar) updateClock(now time.Time) {
	if cb.tray == nil {
		return
	}
	cb.fillClocks(now)
	cb.tray.menu.Refresh()
}

func (cb *ClockBar) fillClocks(now time.Time) {
	lines := cb.clock.lines(now, cb.currentConfig().ShowZoneInTray)
	for i, item := range cb.tray.clocks {
		item.Label = lines[i]
	}
}

func (cb *ClockBar) fillTray(now time.Time) {
	cb.fillClocks(now)

	alarms := cb.alarms.Snapshot()
	status := alarm.StatusLine(alarms, cb.tr)
	cb.tray.status.Label = status.Text

	// The last tooltip line is the click hint, which the menu item itself replaces.
	lines := strings.Split(status.Tooltip, "\n")
	lines = lines[:len(lines)-1]
	items := append([]*fyne.MenuItem{}, cb.tray.head...)
	for _, line := range lines {
		items = append(items, disabledItem("  "+line))
	}
	cb.tray.menu.Items = append(items, cb.tray.tail...)

	upcoming, err := calendar.Upcoming(alarms, now, upcomingWindow, cb.alarms.Location())
	switch {
	case err != nil:
		log.Printf("[WARN] next alarm: %v", err)
		cb.tray.next.Label = ""
	case len(upcoming) == 0:
		cb.tray.next.Label = cb.tr.T("app.noUpcoming", nil)
	default:
		at := upcoming[0].At
		cb.tray.next.Label = cb.tr.T("app.nextAlarm", map[string]string{
			"time": at.In(now.Location()).Format("15:04"),
			"in":   untilText(at.Sub(now)),
		})
	}
}

// zoneMenu lists the selectable zones of one clock slot grouped by region
func (cb *ClockBar) zoneMenu(slot int) *fyne.MenuItem {
	now := time.Now()
	zones, _ := cb.clock.get()
	current := zones[slot-1]

	order, groups := timezone.ByRegion()
	regions := make([]*fyne.MenuItem, 0, len(order))
	for _, region := range order {
		children := make([]*fyne.MenuItem, 0, len(groups[region]))
		for _, z := range groups[region] {
			_, loc, _ := timezone.Resolve(z.ID)
			item := fyne.NewMenuItem(timezone.Describe(now, z, loc), func() {
				if err := cb.zones.Set(slot, z.ID); err != nil {
					log.Printf("[WARN] select zone %s for clock %d: %v", z.ID, slot, err)
					return
				}
				log.Printf("[INFO] clock %d now shows %s", slot, z.ID)
				cb.clock.reload()
				cb.rebuildTray()
			})
			item.Checked = z.ID == current.ID
			children = append(children, item)
		}

		label := region
		if key, ok := regionKeys[region]; ok {
			label = cb.tr.T(key, nil)
		}
		item := fyne.NewMenuItem(label, nil)
		item.ChildMenu = fyne.NewMenu(label, children...)
		regions = append(regions, item)
	}

	title := cb.tr.T("clock.selectTimeZone", map[string]string{"slot": fmt.Sprint(slot)})
	item := fyne.NewMenuItem(title+": "+current.Label, nil)
	item.ChildMenu = fyne.NewMenu(title, regions...)
	return item
}

// runPrompt runs a prompting alarm operation off the UI thread
func (cb *ClockBar) runPrompt(op func(ctx context.Context) error) {
	go func() {
		if err := op(context.Background()); err != nil {
			log.Printf("[ERROR] alarm operation: %v", err)
			cb.prompter.Warn(err.Error())
		}
	}()
}

func disabledItem(label string) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, nil)
	item.Disabled = true
	return item
}

// untilText formats a wait like 3h05m or 12m
func untilText(d time.Duration) string {
	d = d.Round(time.Minute)
	h, m := int(d.Hours()), int(d.Minutes())%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
