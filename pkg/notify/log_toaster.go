package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogToaster writes toasts to a stream. Nobody can answer it, so each toast
// counts as closed without a response after Linger.
type LogToaster struct {
	Out    io.Writer
	Linger time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewLogToaster writes to stderr; the next reminder follows shortly after Linger
func NewLogToaster() *LogToaster {
	return &LogToaster{Out: os.Stderr, Linger: 25 * time.Second}
}

// Show implements Toaster
func (t *LogToaster) Show(toast Toast, respond func(Response)) {
	fmt.Fprintf(t.Out, "\a[%s] %s (%s)\n", time.Now().Format("15:04:05"), toast.Title, strings.Join(toast.Times, ", "))

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timers == nil {
		t.timers = map[string]*time.Timer{}
	}
	if old, ok := t.timers[toast.SessionID]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.Linger, func() {
		t.mu.Lock()
		if t.timers[toast.SessionID] == timer {
			delete(t.timers, toast.SessionID)
		}
		t.mu.Unlock()
		respond(ResponseNone)
	})
	t.timers[toast.SessionID] = timer
}

// Withdraw implements Toaster
func (t *LogToaster) Withdraw(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[sessionID]; ok {
		timer.Stop()
		delete(t.timers, sessionID)
	}
}
