package store

import (
	"fyne.io/fyne/v2"
)

// PrefsKV stores values as strings in Fyne preferences
type PrefsKV struct {
	prefs fyne.Preferences
}

// NewPrefsKV wraps the application's preferences
func NewPrefsKV(app fyne.App) *PrefsKV {
	return &PrefsKV{prefs: app.Preferences()}
}

// Get returns the stored value, treating an empty string as absent
func (p *PrefsKV) Get(key string) ([]byte, bool) {
	v := p.prefs.String(key)
	if v == "" {
		return nil, false
	}
	return []byte(v), true
}

// Set stores value as a string
func (p *PrefsKV) Set(key string, value []byte) error {
	p.prefs.SetString(key, string(value))
	return nil
}

// Delete removes key
func (p *PrefsKV) Delete(key string) error {
	p.prefs.RemoveValue(key)
	return nil
}

// OnChange registers fn for preference changes made by this process
func (p *PrefsKV) OnChange(fn func()) {
	p.prefs.AddChangeListener(fn)
}
