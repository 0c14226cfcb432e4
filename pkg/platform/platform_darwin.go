//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

void setAccessoryPolicy(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}

int isAppActive(void) {
    return [NSApp isActive] ? 1 : 0;
}

void activateApp(void) {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"
import "log"

// SetActivationPolicy keeps the app out of the Dock; it lives in the menu bar only
func SetActivationPolicy() {
	log.Println("[DEBUG] Setting ActivationPolicy")
	C.setAccessoryPolicy()
}

// IsAppActive reports whether one of our windows has focus
func IsAppActive() bool {
	return C.isAppActive() == 1
}

// ActivateApp brings the application to the front so a ringing alarm is seen
func ActivateApp() {
	C.activateApp()
}
