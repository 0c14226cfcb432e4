package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
)

func setupAutostart(enable bool) error {
	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return err
	}

	app := &autostart.App{
		Name:        "clockbar",
		DisplayName: "Clockbar",
		Exec:        []string{execPath},
	}

	switch {
	case enable && !app.IsEnabled():
		if err := app.Enable(); err != nil {
			log.Printf("[ERROR] Failed to enable autostart: %v", err)
			return err
		}
		log.Println("[INFO] Autostart enabled")
	case !enable && app.IsEnabled():
		if err := app.Disable(); err != nil {
			log.Printf("[ERROR] Failed to disable autostart: %v", err)
			return err
		}
		log.Println("[INFO] Autostart disabled")
	}

	return nil
}
