package state

import (
	"encoding/json/jsontext"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/govee"
)

func TestStore(t *testing.T) {
	s := NewStore()

	_, ok := s.Get("a", govee.CapabilityOnOff, govee.InstancePowerSwitch)
	require.False(t, ok)

	require.NoError(t, s.Set("a", govee.CapabilityOnOff, govee.InstancePowerSwitch, 1))
	require.NoError(t, s.Set("a", govee.CapabilitySegmentColorSetting, govee.InstanceSegmentColor, map[string]any{"segment": []int{0, 1}, "rgb": 255}))

	v, ok := s.Get("a", govee.CapabilityOnOff, govee.InstancePowerSwitch)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	require.Error(t, s.Set("a", govee.CapabilityRange, govee.InstanceBrightness, make(chan int)))

	s.Replace("a", []govee.CapabilityState{
		{Type: govee.CapabilityRange, Instance: govee.InstanceBrightness, Value: jsontext.Value("50")},
		{Type: govee.CapabilityColorSetting, Instance: govee.InstanceColorRGB},
	})

	_, ok = s.Get("a", govee.CapabilityOnOff, govee.InstancePowerSwitch)
	assert.False(t, ok, "replace should drop values not reported by the poll")

	_, ok = s.Get("a", govee.CapabilityColorSetting, govee.InstanceColorRGB)
	assert.False(t, ok, "empty values are not cached")

	v, ok = s.Get("a", govee.CapabilityRange, govee.InstanceBrightness)
	require.True(t, ok)
	assert.Equal(t, "50", string(v))
}

func TestStoreRGBResetsKelvin(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Set("a", govee.CapabilityColorSetting, govee.InstanceColorRGB, 0xff0000))
	_, ok := s.Get("a", govee.CapabilityColorSetting, govee.InstanceColorTemperatureK)
	assert.False(t, ok, "a missing kelvin value stays missing")

	require.NoError(t, s.Set("a", govee.CapabilityColorSetting, govee.InstanceColorTemperatureK, 4000))
	require.NoError(t, s.Set("a", govee.CapabilityColorSetting, govee.InstanceColorRGB, 0x00ff00))

	v, ok := s.Get("a", govee.CapabilityColorSetting, govee.InstanceColorTemperatureK)
	require.True(t, ok)
	assert.Equal(t, "0", string(v))

	require.NoError(t, s.Set("a", govee.CapabilityColorSetting, govee.InstanceColorTemperatureK, 3000))
	v, _ = s.Get("a", govee.CapabilityColorSetting, govee.InstanceColorTemperatureK)
	assert.Equal(t, "3000", string(v))
}

func TestStoreSnapshotAndLoad(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set("b", govee.CapabilityOnOff, govee.InstancePowerSwitch, 0))
	require.NoError(t, s.Set("a", govee.CapabilityRange, govee.InstanceBrightness, 10))
	require.NoError(t, s.Set("a", govee.CapabilityOnOff, govee.InstancePowerSwitch, 1))

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].Device)
	assert.Equal(t, govee.CapabilityOnOff, snapshot[0].Type)
	assert.Equal(t, govee.CapabilityRange, snapshot[1].Type)
	assert.Equal(t, "b", snapshot[2].Device)

	restored := NewStore()
	loaded := restored.Load(append(snapshot, Entry{
		Key:   Key{Device: "c", Type: govee.CapabilityOnOff, Instance: govee.InstancePowerSwitch},
		Value: jsontext.Value("{"),
	}))
	assert.Equal(t, 3, loaded)
	assert.Equal(t, snapshot, restored.Snapshot())
}

func TestInt(t *testing.T) {
	for _, tt := range []struct {
		raw  string
		want int
		ok   bool
	}{
		{raw: "1", want: 1, ok: true},
		{raw: "6500.0", want: 6500, ok: true},
		{raw: "1.5"},
		{raw: `"1"`},
		{raw: "null"},
		{raw: ""},
	} {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Int(jsontext.Value(tt.raw))
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(jsontext.Value(`{"id":1,"paramId":2}`), jsontext.Value(`{ "paramId": 2, "id": 1.0 }`)))
	assert.True(t, Equal(jsontext.Value(`3853`), jsontext.Value(`3853`)))
	assert.False(t, Equal(jsontext.Value(`3853`), jsontext.Value(`3854`)))
	assert.False(t, Equal(jsontext.Value(`1`), nil))
	assert.True(t, Equal(nil, nil))
}
