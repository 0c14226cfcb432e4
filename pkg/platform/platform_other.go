//go:build !darwin

// Package platform wraps the few native calls the menu bar app needs.
// Elsewhere than macOS they do nothing.
package platform

// SetActivationPolicy is a no-op
func SetActivationPolicy() {}

// IsAppActive is always true, so an open window keeps the clock on its fast cadence
func IsAppActive() bool {
	return true
}

// ActivateApp is a no-op
func ActivateApp() {}
