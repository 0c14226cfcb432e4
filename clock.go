package main

import (
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"github.com/borgmon/clockbar/pkg/platform"
	"github.com/borgmon/clockbar/pkg/timezone"
)

const (
	focusedCadence = time.Second
	idleCadence    = time.Minute
)

// clockZones caches the two selected zones with their locations
type clockZones struct {
	sel *timezone.Selection

	mu    sync.RWMutex
	zones [2]timezone.Zone
	locs  [2]*time.Location
}

func newClockZones(sel *timezone.Selection) *clockZones {
	c := &clockZones{sel: sel}
	c.reload()
	return c
}

func (c *clockZones) reload() {
	z1, z2 := c.sel.Zones()
	zones := [2]timezone.Zone{z1, z2}
	var locs [2]*time.Location
	for i, z := range zones {
		_, loc, ok := timezone.Resolve(z.ID)
		if !ok {
			log.Printf("[WARN] clock %d: zone %q did not load, showing UTC", i+1, z.ID)
		}
		locs[i] = loc
	}

	c.mu.Lock()
	c.zones = zones
	c.locs = locs
	c.mu.Unlock()
}

func (c *clockZones) get() ([2]timezone.Zone, [2]*time.Location) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zones, c.locs
}

// lines renders both clocks, e.g. "09:41 JST"
func (c *clockZones) lines(now time.Time, showZone bool) [2]string {
	_, locs := c.get()
	var out [2]string
	for i, loc := range locs {
		out[i] = now.In(loc).Format("15:04")
		if showZone {
			out[i] += " " + timezone.ShortLabel(now, loc)
		}
	}
	return out
}

// startClock redraws the clocks and evaluates alarms on every boundary.
// It ticks each second while one of our windows has focus and each minute
// otherwise.
func (cb *ClockBar) startClock() {
	go func() {
		defer log.Println("[DEBUG] clock loop is shutting down")

		for {
			cb.tick(time.Now())

			timer := time.NewTimer(untilBoundary(time.Now(), cb.cadence()))
			select {
			case <-cb.stop:
				timer.Stop()
				return
			case <-cb.wake:
				timer.Stop()
			case <-timer.C:
			}
		}
	}()
}

func (cb *ClockBar) tick(now time.Time) {
	cb.alarms.Tick(now)
	fyne.Do(func() {
		cb.updateClock(now)
	})
}

func (cb *ClockBar) cadence() time.Duration {
	if cb.openWindows.Load() > 0 && platform.IsAppActive() {
		return focusedCadence
	}
	return idleCadence
}

// untilBoundary is the wait until the next multiple of step
func untilBoundary(now time.Time, step time.Duration) time.Duration {
	d := now.Truncate(step).Add(step).Sub(now)
	if d <= 0 {
		return step
	}
	return d
}
