package store

import (
	"maps"
	"sync"
)

// KV is the durable key-value store alarm and clock state lives in.
// It may be shared with other windows or processes; nothing here locks across them.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// BatchKV is implemented by stores that can write several keys at once.
// A nil value deletes the key.
type BatchKV interface {
	KV
	Apply(changes map[string][]byte) error
}

// apply writes changes atomically when kv supports it, one key at a time otherwise
func apply(kv KV, changes map[string][]byte) error {
	if len(changes) == 0 {
		return nil
	}
	if b, ok := kv.(BatchKV); ok {
		return b.Apply(changes)
	}
	// Keys are written in a fixed order so a crash leaves config ahead of runtime,
	// which the next load repairs through the signature check.
	for _, key := range []string{AlarmConfigKey, AlarmRuntimeKey, LegacyAlarmKey} {
		if value, ok := changes[key]; ok {
			if err := setOrDelete(kv, key, value); err != nil {
				return err
			}
		}
	}
	for key, value := range changes {
		if key == AlarmConfigKey || key == AlarmRuntimeKey || key == LegacyAlarmKey {
			continue
		}
		if err := setOrDelete(kv, key, value); err != nil {
			return err
		}
	}
	return nil
}

func setOrDelete(kv KV, key string, value []byte) error {
	if value == nil {
		return kv.Delete(key)
	}
	return kv.Set(key, value)
}

// MemoryKV is an in-process KV, used by tests and as a fallback
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (m *MemoryKV) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Set stores a copy of value
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

// Delete removes key
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	m.writes++
	return nil
}

// Apply writes all changes under one lock
func (m *MemoryKV) Apply(changes map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range changes {
		if value == nil {
			delete(m.values, key)
		} else {
			m.values[key] = append([]byte(nil), value...)
		}
	}
	m.writes++
	return nil
}

// Writes counts write operations, a batch counting once
func (m *MemoryKV) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Snapshot returns a copy of all values
func (m *MemoryKV) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}
