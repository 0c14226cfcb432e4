package alarm

import (
	"slices"
	"strconv"
	"strings"

	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
)

const (
	BellIcon      = "🔔"
	BellSlashIcon = "🔕"
)

// Status is the text and tooltip of the alarm indicator
type Status struct {
	Text    string
	Tooltip string
}

// StatusLine summarises alarms for the indicator. With several alarms the
// first enabled one is shown and the tooltip lists them all.
func StatusLine(alarms []models.AlarmSettings, t i18n.Translator) Status {
	manage := t.T("alarm.statusBar.clickToManage", nil)

	switch len(alarms) {
	case 0:
		return Status{
			Text:    BellIcon + " +",
			Tooltip: t.T("alarm.statusBar.noAlarmSet", nil) + "\n" + manage,
		}
	case 1:
		a := alarms[0]
		icon := BellSlashIcon
		if a.Enabled {
			icon = BellIcon
		}
		lines := []string{
			t.T("alarm.statusBar.alarm", map[string]string{"time": a.Time()}),
			t.T("alarm.statusBar.status", map[string]string{"status": enabledText(a, t)}),
		}
		if a.Enabled && a.Triggered {
			lines = append(lines, t.T("alarm.statusBar.triggeredToday", nil))
		}
		lines = append(lines, manage)
		return Status{Text: icon + " " + a.Time(), Tooltip: strings.Join(lines, "\n")}
	}

	shown := alarms[0]
	icon := BellSlashIcon
	if i := slices.IndexFunc(alarms, func(a models.AlarmSettings) bool { return a.Enabled }); i >= 0 {
		shown = alarms[i]
		icon = BellIcon
	}

	lines := make([]string, 0, len(alarms)+1)
	for i, a := range alarms {
		lines = append(lines, strconv.Itoa(i+1)+". "+a.Time()+" ("+enabledText(a, t)+")"+firedSuffix(a, t))
	}
	lines = append(lines, manage)
	return Status{Text: icon + " " + shown.Time(), Tooltip: strings.Join(lines, "\n")}
}
