package main

import (
	"log"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/borgmon/clockbar/pkg/calendar"
)

const exportFileName = "clockbar-alarms.ics"

var icsFilter = storage.NewExtensionFileFilter([]string{".ics"})

// exportAlarms writes the alarms to a calendar file picked by the user
func (cb *ClockBar) exportAlarms() {
	w := cb.fileWindow(cb.tr.T("app.exportAlarms", nil))

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		defer w.Close()
		if err != nil {
			log.Printf("[ERROR] export alarms: %v", err)
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()

		alarms := cb.alarms.Snapshot()
		if err := calendar.Export(writer, alarms, calendar.ExportOptions{Location: cb.alarms.Location()}); err != nil {
			log.Printf("[ERROR] export alarms to %s: %v", writer.URI(), err)
			cb.prompter.Warn(err.Error())
			return
		}
		log.Printf("[INFO] exported %d alarms to %s", len(alarms), writer.URI())
		cb.prompter.Info(cb.tr.T("app.exported", map[string]string{"count": strconv.Itoa(len(alarms))}))
	}, w)
	d.SetFileName(exportFileName)
	d.SetFilter(icsFilter)
	d.Show()
}

// importAlarms adds the daily events of a calendar file picked by the user
func (cb *ClockBar) importAlarms() {
	w := cb.fileWindow(cb.tr.T("app.importAlarms", nil))

	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		defer w.Close()
		if err != nil {
			log.Printf("[ERROR] import alarms: %v", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		incoming, err := calendar.Import(reader, cb.alarms.Location())
		if err != nil {
			log.Printf("[ERROR] import alarms from %s: %v", reader.URI(), err)
			cb.prompter.Warn(err.Error())
			return
		}
		if len(incoming) == 0 {
			cb.prompter.Info(cb.tr.T("app.importNothing", nil))
			return
		}

		// The manager may prompt or block on storage, keep it off the UI thread.
		go func() {
			added, err := cb.alarms.ImportAlarms(incoming)
			if err != nil {
				log.Printf("[ERROR] import alarms: %v", err)
				cb.prompter.Warn(err.Error())
				return
			}
			cb.prompter.Info(cb.tr.T("app.imported", map[string]string{"count": strconv.Itoa(added)}))
		}()
	}, w)
	d.SetFilter(icsFilter)
	d.Show()
}

// fileWindow hosts a file dialog, which needs a parent window
func (cb *ClockBar) fileWindow(title string) fyne.Window {
	w := cb.app.NewWindow(title)
	w.Resize(fyne.NewSize(720, 520))
	w.CenterOnScreen()
	cb.trackWindow(w, nil)
	w.Show()
	return w
}
