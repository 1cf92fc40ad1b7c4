// Package state holds the last known capability values of every device of an entry.
package state

import (
	"cmp"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/nlowe/goveemqtt/govee"
)

// Key addresses one cached capability value.
type Key struct {
	Device   string
	Type     govee.CapabilityType
	Instance string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Device, k.Type, k.Instance)
}

// Entry is one persisted value, see Store.Snapshot and Store.Load.
type Entry struct {
	Key
	Value jsontext.Value
}

// Store is a concurrency-safe cache of capability values. The zero value is not usable, use NewStore.
type Store struct {
	mu     sync.RWMutex
	values map[Key]jsontext.Value
}

func NewStore() *Store {
	return &Store{values: map[Key]jsontext.Value{}}
}

// Get returns the cached raw value for the provided key.
func (s *Store) Get(device string, t govee.CapabilityType, instance string) (jsontext.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[Key{Device: device, Type: t, Instance: instance}]
	return v.Clone(), ok
}

// Set stores the value of a command after it was accepted by the cloud. An rgb color replaces the color temperature
// on the device, so accepting one resets a cached kelvin value to 0.
func (s *Store) Set(device string, t govee.CapabilityType, instance string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: marshal %s/%s: %w", t, instance, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[Key{Device: device, Type: t, Instance: instance}] = data

	if t == govee.CapabilityColorSetting && instance == govee.InstanceColorRGB {
		kelvin := Key{Device: device, Type: govee.CapabilityColorSetting, Instance: govee.InstanceColorTemperatureK}
		if _, ok := s.values[kelvin]; ok {
			s.values[kelvin] = jsontext.Value("0")
		}
	}

	return nil
}

// Replace drops every cached value of device and stores the provided states instead.
func (s *Store) Replace(device string, states []govee.CapabilityState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps.DeleteFunc(s.values, func(k Key, _ jsontext.Value) bool {
		return k.Device == device
	})

	for _, cs := range states {
		if len(cs.Value) == 0 {
			continue
		}

		s.values[Key{Device: device, Type: cs.Type, Instance: cs.Instance}] = cs.Value.Clone()
	}
}

// Snapshot returns every cached value ordered by key.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := slices.SortedFunc(maps.Keys(s.values), compareKeys)

	result := make([]Entry, 0, len(keys))
	for _, k := range keys {
		result = append(result, Entry{Key: k, Value: s.values[k].Clone()})
	}

	return result
}

// Load restores previously persisted values without removing existing ones. Invalid json values are skipped.
func (s *Store) Load(entries []Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, e := range entries {
		if !e.Value.IsValid() {
			continue
		}

		s.values[e.Key] = e.Value.Clone()
		loaded++
	}

	return loaded
}

func compareKeys(a, b Key) int {
	return cmp.Or(
		strings.Compare(a.Device, b.Device),
		strings.Compare(string(a.Type), string(b.Type)),
		strings.Compare(a.Instance, b.Instance),
	)
}
