package store

import (
	"encoding/json"
	"log"
	"math"
	"slices"
	"sync"

	"github.com/borgmon/clockbar/pkg/models"
	"github.com/google/uuid"
)

// Keys of the persisted alarm records
const (
	AlarmConfigKey  = "alarmConfig"
	AlarmRuntimeKey = "alarmRuntime"
	LegacyAlarmKey  = "alarm"
)

// AlarmStore loads and saves alarms from a KV, normalising and migrating
// whatever it finds. Load and Save never fail on bad data: malformed entries
// are dropped and a corrective rewrite is scheduled.
type AlarmStore struct {
	kv    KV
	newID func() string
	mu    sync.Mutex
}

// NewAlarmStore creates an AlarmStore over kv
func NewAlarmStore(kv KV) *AlarmStore {
	return &AlarmStore{
		kv:    kv,
		newID: func() string { return uuid.New().String() },
	}
}

// readJSON decodes key; present is false only when the key is absent
func (s *AlarmStore) readJSON(key string) (value any, present bool) {
	data, ok := s.kv.Get(key)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("[WARN] %s holds malformed JSON, discarding: %v", key, err)
		return nil, true
	}
	return value, true
}

// Load returns the persisted alarms in list order
func (s *AlarmStore) Load() []models.AlarmSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		persistConfig  bool
		persistRuntime bool
		cleanupLegacy  bool
	)

	rawConfig, configPresent := s.readJSON(AlarmConfigKey)
	configs, dirty := parseConfigList(rawConfig, configPresent)
	persistConfig = dirty

	// legacy runtime carried over from the combined single-alarm record
	var legacyRuntime *models.AlarmRuntime

	rawLegacy, legacyPresent := s.readJSON(LegacyAlarmKey)
	if len(configs) == 0 {
		if legacy, ok := parseLegacyAlarm(rawLegacy); ok {
			log.Printf("[INFO] migrating legacy alarm %s", legacy.Time())
			configs = []models.AlarmConfig{legacy.AlarmConfig}
			legacyRuntime = &legacy.AlarmRuntime
			persistConfig = true
			persistRuntime = true
			cleanupLegacy = true
		} else if legacyPresent {
			cleanupLegacy = true
		}
	} else if legacyPresent {
		cleanupLegacy = true
	}

	seen := make(map[string]bool, len(configs))
	ids := make([]string, 0, len(configs))
	for i := range configs {
		if configs[i].ID == "" || seen[configs[i].ID] {
			configs[i].ID = s.uniqueID(seen)
			persistConfig = true
		}
		seen[configs[i].ID] = true
		ids = append(ids, configs[i].ID)
	}

	rawRuntime, runtimePresent := s.readJSON(AlarmRuntimeKey)
	runtimeByID, dirty := parseRuntimeMap(rawRuntime, runtimePresent, ids)
	persistRuntime = persistRuntime || dirty
	for id := range runtimeByID {
		if !slices.Contains(ids, id) {
			// runtime of a deleted alarm
			delete(runtimeByID, id)
			persistRuntime = true
		}
	}
	if len(ids) == 0 && runtimePresent {
		persistRuntime = true
	}
	if legacyRuntime != nil && len(ids) > 0 {
		runtimeByID[ids[0]] = *legacyRuntime
	}

	alarms := make([]models.AlarmSettings, 0, len(configs))
	for _, cfg := range configs {
		signature := models.FormatTime(cfg.Hour, cfg.Minute)
		rt := runtimeByID[cfg.ID]

		switch {
		case rt.TimeSignature == "":
			rt.TimeSignature = signature
			persistRuntime = true
		case rt.TimeSignature != signature:
			log.Printf("[INFO] alarm %s time changed from %s to %s, resetting its state", cfg.ID, rt.TimeSignature, signature)
			rt = models.AlarmRuntime{TimeSignature: signature}
			persistRuntime = true
		}

		alarms = append(alarms, models.AlarmSettings{AlarmConfig: cfg, AlarmRuntime: rt})
	}

	changes := map[string][]byte{}
	if persistConfig {
		changes[AlarmConfigKey] = encodeConfigs(alarms)
	}
	if persistRuntime {
		changes[AlarmRuntimeKey] = encodeRuntime(alarms)
	}
	if cleanupLegacy {
		changes[LegacyAlarmKey] = nil
	}
	if len(changes) > 0 {
		if err := apply(s.kv, changes); err != nil {
			log.Printf("[ERROR] failed to rewrite normalised alarms: %v", err)
		}
	}

	return alarms
}

// Save persists alarms and returns the normalised list actually written.
// Extra alarms beyond MaxAlarms are dropped and missing or duplicate ids replaced.
func (s *AlarmStore) Save(alarms []models.AlarmSettings) ([]models.AlarmSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := s.normalize(alarms)

	changes := map[string][]byte{
		AlarmConfigKey:  encodeConfigs(normalized),
		AlarmRuntimeKey: encodeRuntime(normalized),
		LegacyAlarmKey:  nil,
	}
	return normalized, apply(s.kv, changes)
}

func (s *AlarmStore) normalize(alarms []models.AlarmSettings) []models.AlarmSettings {
	normalized := make([]models.AlarmSettings, 0, min(len(alarms), models.MaxAlarms))
	seen := make(map[string]bool, len(alarms))
	for _, a := range alarms {
		if len(normalized) == models.MaxAlarms {
			break
		}
		// Load would drop it anyway
		if !models.ValidTime(a.Hour, a.Minute) {
			log.Printf("[WARN] not saving alarm %s with invalid time %d:%d", a.ID, a.Hour, a.Minute)
			continue
		}
		if a.ID == "" || seen[a.ID] {
			a.ID = s.uniqueID(seen)
		}
		seen[a.ID] = true
		if a.TimeSignature == "" {
			a.TimeSignature = a.Time()
		}
		normalized = append(normalized, a)
	}
	return normalized
}

func (s *AlarmStore) uniqueID(seen map[string]bool) string {
	for {
		id := s.newID()
		if id != "" && !seen[id] {
			return id
		}
	}
}

// encodeConfigs returns nil (delete) for an empty list
func encodeConfigs(alarms []models.AlarmSettings) []byte {
	if len(alarms) == 0 {
		return nil
	}
	configs := make([]models.AlarmConfig, 0, len(alarms))
	for _, a := range alarms {
		configs = append(configs, a.Config())
	}
	data, err := json.Marshal(configs)
	if err != nil {
		log.Printf("[ERROR] encode alarm config: %v", err)
		return nil
	}
	return data
}

func encodeRuntime(alarms []models.AlarmSettings) []byte {
	if len(alarms) == 0 {
		return nil
	}
	byID := make(map[string]models.AlarmRuntime, len(alarms))
	for _, a := range alarms {
		byID[a.ID] = a.Runtime()
	}
	data, err := json.Marshal(byID)
	if err != nil {
		log.Printf("[ERROR] encode alarm runtime: %v", err)
		return nil
	}
	return data
}

// parseConfigList accepts the current array form and the older single-object form.
// dirty reports that what was read differs from what should be stored.
func parseConfigList(raw any, present bool) (configs []models.AlarmConfig, dirty bool) {
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if cfg, ok := parseConfig(item); ok {
				configs = append(configs, cfg)
			} else {
				dirty = true
			}
		}
	case map[string]any:
		if cfg, ok := parseConfig(v); ok {
			configs = append(configs, cfg)
		}
		dirty = true
	default:
		dirty = present
	}

	if len(configs) > models.MaxAlarms {
		return configs[:models.MaxAlarms], true
	}
	return configs, dirty
}

// parseRuntimeMap accepts an id map, a positional array and a single unkeyed runtime
func parseRuntimeMap(raw any, present bool, ids []string) (map[string]models.AlarmRuntime, bool) {
	byID := map[string]models.AlarmRuntime{}

	switch v := raw.(type) {
	case []any:
		for i := 0; i < len(v) && i < len(ids); i++ {
			if rt, ok := parseRuntime(v[i]); ok {
				byID[ids[i]] = rt
			}
		}
		return byID, true

	case map[string]any:
		if looksLikeRuntime(v) {
			if rt, ok := parseRuntime(v); ok && len(ids) > 0 {
				byID[ids[0]] = rt
			}
			return byID, true
		}

		dirty := false
		for id, item := range v {
			rt, ok := parseRuntime(item)
			if !ok {
				dirty = true
				continue
			}
			byID[id] = rt
		}
		return byID, dirty
	}

	return byID, present
}

func looksLikeRuntime(m map[string]any) bool {
	for _, key := range []string{"triggered", "lastTriggeredOn", "timeSignature", "snoozeUntilMs", "dismissedOn"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// parseLegacyAlarm reads the combined record older versions kept under "alarm"
func parseLegacyAlarm(raw any) (models.AlarmSettings, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.AlarmSettings{}, false
	}
	cfg, ok := parseConfig(m)
	if !ok {
		return models.AlarmSettings{}, false
	}
	rt, _ := parseRuntime(m)
	// the legacy record predates signatures; it describes this config's time
	rt.TimeSignature = models.FormatTime(cfg.Hour, cfg.Minute)
	return models.AlarmSettings{AlarmConfig: cfg, AlarmRuntime: rt}, true
}

func parseConfig(raw any) (models.AlarmConfig, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.AlarmConfig{}, false
	}

	hour, ok := intField(m, "hour")
	if !ok {
		return models.AlarmConfig{}, false
	}
	minute, ok := intField(m, "minute")
	if !ok || !models.ValidTime(hour, minute) {
		return models.AlarmConfig{}, false
	}

	enabled := true
	if v, present := m["enabled"]; present {
		b, ok := v.(bool)
		if !ok {
			return models.AlarmConfig{}, false
		}
		enabled = b
	}

	id, _ := m["id"].(string)

	return models.AlarmConfig{ID: id, Enabled: enabled, Hour: hour, Minute: minute}, true
}

// parseRuntime keeps the fields that are well formed and drops the rest
func parseRuntime(raw any) (models.AlarmRuntime, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.AlarmRuntime{}, false
	}

	rt := models.AlarmRuntime{}
	if v, present := m["triggered"]; present {
		b, ok := v.(bool)
		if !ok {
			return models.AlarmRuntime{}, false
		}
		rt.Triggered = b
	}
	if s, ok := m["lastTriggeredOn"].(string); ok && models.ValidDateKey(s) {
		rt.LastTriggeredOn = s
	}
	if s, ok := m["timeSignature"].(string); ok {
		if h, min, err := models.ParseTime(s); err == nil {
			rt.TimeSignature = models.FormatTime(h, min)
		}
	}
	if f, ok := m["snoozeUntilMs"].(float64); ok && f > 0 && !math.IsInf(f, 0) {
		rt.SnoozeUntilMs = int64(f)
	}
	if s, ok := m["dismissedOn"].(string); ok && models.ValidDateKey(s) {
		rt.DismissedOn = s
	}
	return rt, true
}

func intField(m map[string]any, key string) (int, bool) {
	f, ok := m[key].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
