package timezone

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/borgmon/clockbar/pkg/store"
)

// Keys and defaults of the two clock slots
const (
	Slot1Key = "timeZone1"
	Slot2Key = "timeZone2"

	DefaultSlot1 = "UTC"
	DefaultSlot2 = "Asia/Tokyo"
)

// Selection holds the zones shown by the two clocks
type Selection struct {
	kv    store.KV
	mu    sync.RWMutex
	zones [2]Zone
}

// NewSelection creates a Selection over kv and loads it
func NewSelection(kv store.KV) *Selection {
	s := &Selection{kv: kv}
	s.Reload()
	return s
}

// Reload reads both slots, replacing unknown or malformed entries with defaults
func (s *Selection) Reload() {
	z1 := s.read(Slot1Key, DefaultSlot1)
	z2 := s.read(Slot2Key, DefaultSlot2)

	s.mu.Lock()
	s.zones = [2]Zone{z1, z2}
	s.mu.Unlock()
}

func (s *Selection) read(key, fallback string) Zone {
	data, ok := s.kv.Get(key)
	if !ok {
		z, _, _ := Resolve(fallback)
		return z
	}

	id := decodeZoneID(data)
	z, _, ok := Resolve(id)
	if !ok {
		log.Printf("[WARN] stored zone %q for %s is not supported, using %s", id, key, fallback)
		z, _, _ = Resolve(fallback)
		s.write(key, z)
	}
	return z
}

// decodeZoneID accepts the stored zone object or a bare id string
func decodeZoneID(data []byte) string {
	var obj struct {
		ID string `json:"timeZoneId"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.ID != "" {
		return obj.ID
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id
	}
	return string(data)
}

func (s *Selection) write(key string, z Zone) {
	data, err := json.Marshal(z)
	if err != nil {
		return
	}
	if err := s.kv.Set(key, data); err != nil {
		log.Printf("[ERROR] save %s: %v", key, err)
	}
}

// Zones returns the zones of slot 1 and slot 2
func (s *Selection) Zones() (Zone, Zone) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zones[0], s.zones[1]
}

// Set selects id for slot (1 or 2) after validating it
func (s *Selection) Set(slot int, id string) error {
	if err := Validate(id); err != nil {
		return err
	}
	z, _, _ := Resolve(id)

	s.mu.Lock()
	s.zones[slotIndex(slot)] = z
	s.mu.Unlock()

	s.write(slotKey(slot), z)
	return nil
}

// Swap exchanges the two slots
func (s *Selection) Swap() {
	s.mu.Lock()
	s.zones[0], s.zones[1] = s.zones[1], s.zones[0]
	z1, z2 := s.zones[0], s.zones[1]
	s.mu.Unlock()

	s.write(Slot1Key, z1)
	s.write(Slot2Key, z2)
}

func slotIndex(slot int) int {
	if slot == 2 {
		return 1
	}
	return 0
}

func slotKey(slot int) string {
	if slot == 2 {
		return Slot2Key
	}
	return Slot1Key
}
