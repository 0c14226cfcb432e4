package main

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/clockbar/pkg/notify"
	"github.com/borgmon/clockbar/pkg/platform"
)

// toastWindows shows each reminder as a small always-on-top style window with
// Stop, Snooze and Manage buttons. Closing the window counts as no answer.
type toastWindows struct {
	cb *ClockBar

	mu     sync.Mutex
	toasts map[string]*toastWindow
}

type toastWindow struct {
	window  fyne.Window
	once    sync.Once
	respond func(notify.Response)
}

// answer delivers r at most once; withdrawn toasts are answered with nothing
func (tw *toastWindow) answer(r notify.Response, deliver bool) {
	tw.once.Do(func() {
		if deliver {
			go tw.respond(r)
		}
	})
}

func newToastWindows(cb *ClockBar) *toastWindows {
	return &toastWindows{cb: cb, toasts: map[string]*toastWindow{}}
}

// Show implements notify.Toaster
func (t *toastWindows) Show(toast notify.Toast, respond func(notify.Response)) {
	fyne.Do(func() {
		t.withdrawOnUI(toast.SessionID)

		tw := &toastWindow{respond: respond}
		tw.window = t.cb.app.NewWindow(toast.Title)
		tw.window.SetContent(t.content(toast, tw))
		tw.window.SetFixedSize(true)
		tw.window.Resize(fyne.NewSize(380, 0))
		tw.window.CenterOnScreen()
		t.cb.trackWindow(tw.window, func() {
			tw.answer(notify.ResponseNone, true)
			t.forget(toast.SessionID, tw)
		})

		t.mu.Lock()
		t.toasts[toast.SessionID] = tw
		t.mu.Unlock()

		platform.ActivateApp()
		tw.window.Show()
		tw.window.RequestFocus()
	})
}

// Withdraw implements notify.Toaster
func (t *toastWindows) Withdraw(sessionID string) {
	fyne.Do(func() {
		t.withdrawOnUI(sessionID)
	})
}

// withdrawOnUI closes the session's window without answering; UI thread only
func (t *toastWindows) withdrawOnUI(sessionID string) {
	t.mu.Lock()
	tw, ok := t.toasts[sessionID]
	delete(t.toasts, sessionID)
	t.mu.Unlock()
	if !ok {
		return
	}
	tw.answer(notify.ResponseNone, false)
	tw.window.Close()
}

func (t *toastWindows) forget(sessionID string, tw *toastWindow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.toasts[sessionID] == tw {
		delete(t.toasts, sessionID)
	}
}

func (t *toastWindows) content(toast notify.Toast, tw *toastWindow) fyne.CanvasObject {
	title := canvas.NewText(toast.Title, theme.Color(theme.ColorNameForeground))
	title.TextSize = 24
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	times := widget.NewLabel(strings.Join(toast.Times, "  "))
	times.Alignment = fyne.TextAlignCenter

	button := func(label string, r notify.Response) *widget.Button {
		return widget.NewButton(label, func() {
			tw.answer(r, true)
			tw.window.Close()
		})
	}
	stop := button(toast.StopLabel, notify.ResponseStop)
	stop.Importance = widget.HighImportance
	snooze := button(toast.SnoozeLabel, notify.ResponseSnooze)
	manage := button(toast.ManageLabel, notify.ResponseManage)
	manage.Importance = widget.LowImportance

	buttons := container.NewHBox(layout.NewSpacer(), manage, snooze, stop, layout.NewSpacer())

	return container.NewPadded(container.NewVBox(
		container.NewPadded(title),
		times,
		widget.NewSeparator(),
		buttons,
	))
}
