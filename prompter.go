package main

import (
	"context"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/clockbar/pkg/alarm"
)

// fynePrompter asks questions in small windows of their own, since a tray
// app has no main window to attach dialogs to. Every method may be called
// from any goroutine except the UI thread.
type fynePrompter struct {
	cb *ClockBar
}

func newFynePrompter(cb *ClockBar) *fynePrompter {
	return &fynePrompter{cb: cb}
}

type textAnswer struct {
	text string
	ok   bool
}

// InputTime implements alarm.Prompter
func (p *fynePrompter) InputTime(ctx context.Context, in alarm.TimeInput) (string, bool, error) {
	answers := make(chan textAnswer, 1)
	var w fyne.Window

	fyne.Do(func() {
		w = p.cb.app.NewWindow(in.Prompt)

		entry := widget.NewEntry()
		entry.SetPlaceHolder(in.Placeholder)
		entry.SetText(in.Initial)
		entry.Validator = in.Validate

		form := &widget.Form{
			Items: []*widget.FormItem{widget.NewFormItem(in.Prompt, entry)},
			OnSubmit: func() {
				offer(answers, textAnswer{text: entry.Text, ok: true})
				w.Close()
			},
			OnCancel: func() {
				w.Close()
			},
		}
		entry.OnSubmitted = func(string) {
			if in.Validate == nil || in.Validate(entry.Text) == nil {
				form.OnSubmit()
			}
		}

		p.show(w, container.NewPadded(form), fyne.NewSize(360, 0), func() {
			offer(answers, textAnswer{})
		})
		w.Canvas().Focus(entry)
	})

	a, err := await(ctx, answers, func() { w.Close() })
	return a.text, a.ok, err
}

type pickAnswer struct {
	index int
	ok    bool
}

// Pick implements alarm.Prompter
func (p *fynePrompter) Pick(ctx context.Context, title string, choices []alarm.Choice) (int, bool, error) {
	answers := make(chan pickAnswer, 1)
	var w fyne.Window

	fyne.Do(func() {
		w = p.cb.app.NewWindow(title)

		list := widget.NewList(
			func() int { return len(choices) },
			func() fyne.CanvasObject {
				detail := widget.NewLabel("")
				detail.Importance = widget.LowImportance
				return container.NewBorder(nil, nil, widget.NewLabel(""), detail)
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				row := obj.(*fyne.Container)
				row.Objects[0].(*widget.Label).SetText(choices[id].Label)
				row.Objects[1].(*widget.Label).SetText(choices[id].Detail)
			},
		)
		list.OnSelected = func(id widget.ListItemID) {
			offer(answers, pickAnswer{index: id, ok: true})
			w.Close()
		}

		cancel := widget.NewButton(p.cb.tr.T("alarm.action.cancel", nil), func() { w.Close() })
		content := container.NewBorder(
			widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			container.NewHBox(layout.NewSpacer(), cancel),
			nil, nil,
			list,
		)

		height := float32(60 + 44*len(choices))
		p.show(w, container.NewPadded(content), fyne.NewSize(420, min(height, 480)), func() {
			offer(answers, pickAnswer{})
		})
	})

	a, err := await(ctx, answers, func() { w.Close() })
	return a.index, a.ok, err
}

// Confirm implements alarm.Prompter
func (p *fynePrompter) Confirm(ctx context.Context, message, confirmLabel, cancelLabel string) (bool, error) {
	answers := make(chan bool, 1)
	var w fyne.Window

	fyne.Do(func() {
		w = p.cb.app.NewWindow(confirmLabel)

		confirm := widget.NewButton(confirmLabel, func() {
			offer(answers, true)
			w.Close()
		})
		confirm.Importance = widget.DangerImportance
		cancel := widget.NewButton(cancelLabel, func() { w.Close() })

		label := widget.NewLabel(message)
		label.Wrapping = fyne.TextWrapWord
		content := container.NewVBox(label, container.NewHBox(layout.NewSpacer(), cancel, confirm))

		p.show(w, container.NewPadded(content), fyne.NewSize(360, 0), func() {
			offer(answers, false)
		})
	})

	return await(ctx, answers, func() { w.Close() })
}

// Info implements alarm.Prompter
func (p *fynePrompter) Info(message string) {
	log.Printf("[INFO] %s", message)
	p.cb.app.SendNotification(fyne.NewNotification("Clockbar", message))
}

// Warn implements alarm.Prompter
func (p *fynePrompter) Warn(message string) {
	log.Printf("[WARN] %s", message)

	fyne.Do(func() {
		w := p.cb.app.NewWindow("Clockbar")

		label := widget.NewLabel(message)
		label.Wrapping = fyne.TextWrapWord
		label.Importance = widget.WarningImportance
		ok := widget.NewButton(p.cb.tr.T("app.ok", nil), func() { w.Close() })
		ok.Importance = widget.HighImportance
		content := container.NewVBox(label, container.NewHBox(layout.NewSpacer(), ok))

		p.show(w, container.NewPadded(content), fyne.NewSize(360, 0), nil)
	})
}

// show presents a prompt window; onClosed runs however the window goes away
func (p *fynePrompter) show(w fyne.Window, content fyne.CanvasObject, size fyne.Size, onClosed func()) {
	w.SetContent(content)
	if size.Height == 0 {
		size.Height = content.MinSize().Height
	}
	w.Resize(size)
	w.SetFixedSize(true)
	w.CenterOnScreen()
	p.cb.trackWindow(w, onClosed)
	w.Show()
	w.RequestFocus()
}

// await blocks until the window answers or ctx ends, closing the window in
// the latter case
func await[T any](ctx context.Context, answers <-chan T, closeWindow func()) (T, error) {
	select {
	case a := <-answers:
		return a, nil
	case <-ctx.Done():
		fyne.Do(closeWindow)
		var zero T
		return zero, ctx.Err()
	}
}

// offer sends v unless an answer is already waiting
func offer[T any](answers chan<- T, v T) {
	select {
	case answers <- v:
	default:
	}
}
