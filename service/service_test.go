package service

import (
	"context"
	"encoding/json/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/light"
)

type recordingController struct {
	mu   sync.Mutex
	sent []govee.Command
}

func (r *recordingController) Control(_ context.Context, _ govee.Device, cmd govee.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, cmd)
	return nil
}

type intervalStore map[string]time.Duration

func (s intervalStore) SaveScanInterval(_ context.Context, entryID string, interval time.Duration) error {
	s[entryID] = interval
	return nil
}

type lightFinder map[string]*light.Light

func (f lightFinder) Light(entityID string) (*light.Light, bool) {
	l, ok := f[entityID]
	return l, ok
}

func TestRegister(t *testing.T) {
	var r Registry

	var calls []string
	first := HandlerFunc(func(context.Context, Call) { calls = append(calls, "first") })
	second := HandlerFunc(func(context.Context, Call) { calls = append(calls, "second") })

	require.True(t, r.Register(Domain, NameSetSegmentColors, first))
	require.NotPanics(t, func() {
		require.False(t, r.Register(Domain, NameSetSegmentColors, second))
	})

	assert.Equal(t, []string{NameSetSegmentColors}, r.Services(Domain))
	assert.True(t, r.Has(Domain, NameSetSegmentColors))
	assert.False(t, r.Has("other", NameSetSegmentColors))

	require.NoError(t, r.Call(t.Context(), Domain, NameSetSegmentColors, Call{}))
	assert.Equal(t, []string{"first"}, calls)

	require.ErrorIs(t, r.Call(t.Context(), Domain, "missing", Call{}), ErrUnknownService)
}

func TestSetupServicesTwice(t *testing.T) {
	var r Registry
	entries := &entry.Registry{}

	SetupServices(&r, entries, nil, lightFinder{})
	SetupServices(&r, entries, nil, lightFinder{})

	assert.Equal(t, []string{NameSetPollInterval, NameSetSegmentColors}, r.Services(Domain))
}

func TestSetPollInterval(t *testing.T) {
	newRegistry := func() (*entry.Registry, *entry.Entry) {
		e := entry.New("entry", &recordingController{}, nil)
		entries := &entry.Registry{}
		entries.Add(e)
		return entries, e
	}

	t.Run("Updates And Persists", func(t *testing.T) {
		entries, e := newRegistry()
		store := intervalStore{}

		svc := &SetPollInterval{Entries: entries, Store: store}
		svc.Handle(t.Context(), Call{Data: map[string]any{FieldScanInterval: 120.0, FieldEntryID: "entry"}})

		assert.Equal(t, 2*time.Minute, e.ScanInterval())
		assert.Equal(t, 2*time.Minute, store["entry"])
	})

	t.Run("Decoded From Json", func(t *testing.T) {
		entries, e := newRegistry()

		var call Call
		require.NoError(t, json.Unmarshal([]byte(`{"data":{"scan_interval":30,"entry_id":"entry"}}`), &call))

		(&SetPollInterval{Entries: entries}).Handle(t.Context(), call)
		assert.Equal(t, 30*time.Second, e.ScanInterval())
	})

	for _, tt := range []struct {
		name string
		data map[string]any
	}{
		{name: "Missing Interval", data: map[string]any{FieldEntryID: "entry"}},
		{name: "Missing Entry", data: map[string]any{FieldScanInterval: 10}},
		{name: "Unknown Entry", data: map[string]any{FieldScanInterval: 10, FieldEntryID: "other"}},
		{name: "Not A Number", data: map[string]any{FieldScanInterval: "soon", FieldEntryID: "entry"}},
		{name: "Negative", data: map[string]any{FieldScanInterval: -5, FieldEntryID: "entry"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			entries, e := newRegistry()
			store := intervalStore{}

			require.NotPanics(t, func() {
				(&SetPollInterval{Entries: entries, Store: store}).Handle(t.Context(), Call{Data: tt.data})
			})

			assert.Equal(t, entry.DefaultScanInterval, e.ScanInterval())
			assert.Empty(t, store)
		})
	}
}

func TestSetSegmentColors(t *testing.T) {
	c := &recordingController{}
	e := entry.New("entry", c, nil)

	l, err := light.New("entry", govee.Device{SKU: "H6199", ID: "AA:BB", Type: govee.DeviceTypeLight}, e, nil)
	require.NoError(t, err)

	svc := &SetSegmentColors{Lights: lightFinder{"light.aabb": l}}

	segments := []any{map[string]any{"segment": []any{0.0, 1.0}, "rgb": 255.0}}
	svc.Handle(t.Context(), Call{Target: []string{"light.aabb"}, Data: map[string]any{FieldSegments: segments}})

	require.Len(t, c.sent, 1)
	assert.Equal(t, govee.Command{
		Type:     govee.CapabilitySegmentColorSetting,
		Instance: govee.InstanceSegmentColor,
		Value:    segments,
	}, c.sent[0])

	t.Run("Missing Entity", func(t *testing.T) {
		svc.Handle(t.Context(), Call{Target: []string{"light.missing"}})
		svc.Handle(t.Context(), Call{})
		assert.Len(t, c.sent, 1)
	})
}
