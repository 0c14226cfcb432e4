package notify

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyObj + ".Notify"
	closeMethod  = notifyObj + ".CloseNotification"

	signalAction = notifyObj + ".ActionInvoked"
	signalClosed = notifyObj + ".NotificationClosed"
)

// Action keys sent with each notification
const (
	actionStop   = "stop"
	actionSnooze = "snooze"
	actionManage = "manage"
)

const urgencyCritical byte = 2

// DBusToaster shows toasts through the desktop notification service
type DBusToaster struct {
	appName string
	conn    *dbus.Conn
	signals chan *dbus.Signal

	mu        sync.Mutex
	pending   map[uint32]func(Response)
	bySession map[string]uint32
}

// NewDBusToaster connects to the session bus
func NewDBusToaster(appName string) (*DBusToaster, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	if err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notifyPath),
		dbus.WithMatchInterface(notifyObj),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to notification signals: %w", err)
	}

	t := &DBusToaster{
		appName:   appName,
		conn:      conn,
		signals:   make(chan *dbus.Signal, 16),
		pending:   map[uint32]func(Response){},
		bySession: map[string]uint32{},
	}
	conn.Signal(t.signals)
	go t.signalLoop()
	return t, nil
}

// Show implements Toaster
func (t *DBusToaster) Show(toast Toast, respond func(Response)) {
	t.mu.Lock()
	replaces := t.bySession[toast.SessionID]
	delete(t.pending, replaces)
	t.mu.Unlock()

	actions := []string{
		actionStop, toast.StopLabel,
		actionSnooze, toast.SnoozeLabel,
		actionManage, toast.ManageLabel,
	}
	hints := map[string]dbus.Variant{
		"urgency":  dbus.MakeVariant(urgencyCritical),
		"resident": dbus.MakeVariant(true),
	}

	var id uint32
	err := t.conn.Object(notifyObj, notifyPath).Call(
		notifyMethod,
		0,
		t.appName,
		replaces,
		"alarm-clock",
		toast.Title,
		strings.Join(toast.Times, ", "),
		actions,
		hints,
		int32(0),
	).Store(&id)
	if err != nil {
		log.Printf("[ERROR] Cannot send notification %q: %s\n", toast.Title, err.Error())
		go respond(ResponseNone)
		return
	}

	t.mu.Lock()
	t.pending[id] = respond
	t.bySession[toast.SessionID] = id
	t.mu.Unlock()
}

// Withdraw implements Toaster
func (t *DBusToaster) Withdraw(sessionID string) {
	t.mu.Lock()
	id, ok := t.bySession[sessionID]
	delete(t.bySession, sessionID)
	delete(t.pending, id)
	t.mu.Unlock()
	if !ok {
		return
	}

	if call := t.conn.Object(notifyObj, notifyPath).Call(closeMethod, 0, id); call.Err != nil {
		log.Printf("[DEBUG] close notification %d: %v", id, call.Err)
	}
}

// Close disconnects from the bus
func (t *DBusToaster) Close() error {
	t.conn.RemoveSignal(t.signals)
	return t.conn.Close()
}

func (t *DBusToaster) signalLoop() {
	defer log.Println("[DEBUG] notification signal loop is shutting down")

	for sig := range t.signals {
		if len(sig.Body) < 2 {
			continue
		}
		id, ok := sig.Body[0].(uint32)
		if !ok {
			continue
		}

		var r Response
		switch sig.Name {
		case signalAction:
			key, _ := sig.Body[1].(string)
			r = actionResponse(key)
		case signalClosed:
			r = ResponseNone
		default:
			continue
		}

		t.mu.Lock()
		respond := t.pending[id]
		delete(t.pending, id)
		t.mu.Unlock()

		// respond may call back into the bus, which must not stall this loop
		if respond != nil {
			go respond(r)
		}
	}
}

func actionResponse(key string) Response {
	switch key {
	case actionStop:
		return ResponseStop
	case actionSnooze:
		return ResponseSnooze
	case actionManage:
		return ResponseManage
	default:
		return ResponseNone
	}
}
