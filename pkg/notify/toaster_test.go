package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionResponse(t *testing.T) {
	assert.Equal(t, ResponseStop, actionResponse("stop"))
	assert.Equal(t, ResponseSnooze, actionResponse("snooze"))
	assert.Equal(t, ResponseManage, actionResponse("manage"))
	assert.Equal(t, ResponseNone, actionResponse("default"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogToasterClosesAfterLinger(t *testing.T) {
	out := &syncBuffer{}
	toaster := &LogToaster{Out: out, Linger: 10 * time.Millisecond}

	got := make(chan Response, 1)
	toaster.Show(Toast{SessionID: "s", Title: "Alarm: 09:00", Times: []string{"09:00"}}, func(r Response) { got <- r })

	select {
	case r := <-got:
		assert.Equal(t, ResponseNone, r)
	case <-time.After(time.Second):
		t.Fatal("toast never closed")
	}
	assert.Contains(t, out.String(), "Alarm: 09:00 (09:00)")
}

func TestLogToasterWithdraw(t *testing.T) {
	toaster := &LogToaster{Out: &syncBuffer{}, Linger: 20 * time.Millisecond}

	got := make(chan Response, 1)
	toaster.Show(Toast{SessionID: "s"}, func(r Response) { got <- r })
	toaster.Withdraw("s")

	select {
	case <-got:
		t.Fatal("withdrawn toast answered")
	case <-time.After(60 * time.Millisecond):
	}
	toaster.mu.Lock()
	defer toaster.mu.Unlock()
	require.Empty(t, toaster.timers)
}
