package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/borgmon/clockbar/pkg/models"
)

const maxCalendarSize = 4 << 20

// Fetch downloads a calendar and imports its daily alarms. webcal:// links are
// fetched over https.
func Fetch(ctx context.Context, client *http.Client, url string, loc *time.Location) ([]models.AlarmSettings, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if rest, ok := strings.CutPrefix(url, "webcal://"); ok {
		url = "https://" + rest
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCalendarSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := validateICalFormat(body); err != nil {
		return nil, err
	}

	alarms, err := Import(bytes.NewReader(body), loc)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] %s: %d daily events", url, len(alarms))
	return alarms, nil
}

// Load imports alarms from a local file or an http(s)/webcal URL
func Load(ctx context.Context, source string, loc *time.Location) ([]models.AlarmSettings, error) {
	for _, scheme := range []string{"http://", "https://", "webcal://"} {
		if strings.HasPrefix(source, scheme) {
			return Fetch(ctx, nil, source, loc)
		}
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Import(f, loc)
}

func validateICalFormat(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	upper := strings.ToUpper(trimmed)

	// Check if response is HTML instead of iCalendar
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data - check if URL requires authentication")
	}

	if !strings.HasPrefix(upper, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %s", preview)
	}

	return nil
}
