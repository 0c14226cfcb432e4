package main

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const (
	flashBlinks   = 6
	flashInterval = 400 * time.Millisecond
)

// flashTray blinks the tray icon a few times; overlapping calls are dropped
func (cb *ClockBar) flashTray() {
	desk, ok := cb.app.(desktop.App)
	if !ok || !cb.flashing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer cb.flashing.Store(false)

		for i := range flashBlinks {
			icon := resourceIcon
			if i%2 == 0 {
				icon = resourceIconRinging
			}
			fyne.Do(func() { desk.SetSystemTrayIcon(icon) })
			time.Sleep(flashInterval)
		}
		fyne.Do(func() { desk.SetSystemTrayIcon(resourceIcon) })
	}()
}
