package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cal.ics":
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte(strings.ReplaceAll(foreignCalendar, "\n", "\r\n")))
		case "/login":
			_, _ = w.Write([]byte("<!DOCTYPE html><html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	got, err := Fetch(ctx, srv.Client(), srv.URL+"/cal.ics", time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/login", time.UTC)
	assert.ErrorContains(t, err, "HTML")

	_, err = Fetch(ctx, srv.Client(), srv.URL+"/missing", time.UTC)
	assert.ErrorContains(t, err, "404")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.ics")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(foreignCalendar, "\n", "\r\n")), 0o600))

	got, err := Load(context.Background(), path, time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "none.ics"), time.UTC)
	assert.Error(t, err)
}

func TestValidateICalFormat(t *testing.T) {
	assert.NoError(t, validateICalFormat([]byte("\r\nBEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")))
	assert.ErrorContains(t, validateICalFormat([]byte("<html>")), "HTML")
	assert.ErrorContains(t, validateICalFormat([]byte("hello")), "expected BEGIN:VCALENDAR")
}
