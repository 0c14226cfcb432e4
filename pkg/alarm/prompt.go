package alarm

import (
	"context"
	"strconv"

	"github.com/borgmon/clockbar/pkg/i18n"
	"github.com/borgmon/clockbar/pkg/models"
)

// TimeInput describes a modal HH:mm entry
type TimeInput struct {
	Prompt      string
	Placeholder string
	Initial     string
	// Validate returns a displayable error for input that is not HH:mm
	Validate func(string) error
}

// Choice is one row of a pick list
type Choice struct {
	Label  string
	Detail string
}

// Prompter is the host UI used by the interactive operations. Every blocking
// call returns ok=false when the user cancels.
type Prompter interface {
	InputTime(ctx context.Context, in TimeInput) (value string, ok bool, err error)
	Pick(ctx context.Context, title string, choices []Choice) (index int, ok bool, err error)
	Confirm(ctx context.Context, message, confirmLabel, cancelLabel string) (bool, error)
	Info(message string)
	Warn(message string)
}

// MenuAction is what an alarm menu row does
type MenuAction int

const (
	MenuSet MenuAction = iota
	MenuToggle
	MenuEdit
	MenuDelete
)

// MenuItem is a row of the alarm menu
type MenuItem struct {
	Choice
	Action  MenuAction
	AlarmID string
}

// MenuItems builds the alarm menu: a "set" row while a slot is free, then
// toggle, edit and delete rows for every alarm.
func MenuItems(alarms []models.AlarmSettings, t i18n.Translator) []MenuItem {
	items := []MenuItem{}
	if len(alarms) < models.MaxAlarms {
		items = append(items, MenuItem{
			Choice: Choice{
				Label:  t.T("alarm.menu.setSlot", map[string]string{"slot": strconv.Itoa(len(alarms) + 1)}),
				Detail: slotCounter(len(alarms)),
			},
			Action: MenuSet,
		})
	}

	for i, a := range alarms {
		if a.ID == "" {
			continue
		}
		slot := map[string]string{"slot": strconv.Itoa(i + 1)}
		detail := Describe(a, t)

		toggleKey := "alarm.menu.enableSlot"
		if a.Enabled {
			toggleKey = "alarm.menu.disableSlot"
		}
		items = append(items,
			MenuItem{Choice: Choice{Label: t.T(toggleKey, slot), Detail: detail}, Action: MenuToggle, AlarmID: a.ID},
			MenuItem{Choice: Choice{Label: t.T("alarm.menu.editSlot", slot), Detail: detail}, Action: MenuEdit, AlarmID: a.ID},
			MenuItem{Choice: Choice{Label: t.T("alarm.menu.deleteSlot", slot), Detail: detail}, Action: MenuDelete, AlarmID: a.ID},
		)
	}
	return items
}

// Describe is the one-line summary of an alarm, e.g. "07:30 (Enabled)"
func Describe(a models.AlarmSettings, t i18n.Translator) string {
	return a.Time() + " (" + enabledText(a, t) + ")" + firedSuffix(a, t)
}

func slotCounter(n int) string {
	return strconv.Itoa(n) + "/" + strconv.Itoa(models.MaxAlarms)
}

func enabledText(a models.AlarmSettings, t i18n.Translator) string {
	if a.Enabled {
		return t.T("alarm.status.enabled", nil)
	}
	return t.T("alarm.status.disabled", nil)
}

func firedSuffix(a models.AlarmSettings, t i18n.Translator) string {
	if a.Enabled && a.Triggered {
		return t.T("alarm.status.firedTodaySuffix", nil)
	}
	return ""
}

func statusText(a models.AlarmSettings, t i18n.Translator) string {
	return enabledText(a, t) + firedSuffix(a, t)
}
