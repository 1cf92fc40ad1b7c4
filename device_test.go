package goveemqtt_test

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
	"github.com/nlowe/goveemqtt/mqtt/mqtttest"
	"github.com/nlowe/goveemqtt/platform"
)

func TestDeviceID(t *testing.T) {
	assert.Equal(t, "AA__BB__CC", (&goveemqtt.Device{Identifiers: []string{"AA:BB:CC"}}).ID())
	assert.Equal(t, "a__b", (&goveemqtt.Device{Identifiers: []string{"a", "b"}}).ID())
	assert.Equal(t, "custom", (&goveemqtt.Device{DiscoveryID: "custom", Identifiers: []string{"a"}}).ID())
}

func TestDeviceConfigure(t *testing.T) {
	broker := mqtttest.NewBroker()

	d := &goveemqtt.Device{
		Name:         "Desk Lamp",
		Manufacturer: "Govee",
		Model:        "H6008",
		Identifiers:  []string{"AA:BB"},
		ViaDevice:    "goveemqtt_bridge_default",
	}

	sensor := &goveemqtt.Component[*platform.Sensor[uint]]{
		TopicPrefix:  "goveemqtt",
		UniqueID:     "goveemqtt_poll",
		Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		Platform: &platform.Sensor[uint]{
			State: mqtt.NewValue("poll_interval", mqtt.UintMarshaler),
		},
	}

	require.NoError(t, d.Configure(t.Context(), broker, "homeassistant", map[string]json.MarshalerTo{
		"poll": sensor,
	}))

	msg, ok := broker.Last("homeassistant/device/AA__BB/config")
	require.True(t, ok)
	assert.True(t, msg.Options.Retain)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	assert.Equal(t, map[string]any{
		"name":       "Desk Lamp",
		"mf":         "Govee",
		"mdl":        "H6008",
		"ids":        []any{"AA:BB"},
		"via_device": "goveemqtt_bridge_default",
	}, payload["dev"])
	assert.Equal(t, "goveemqtt", payload["o"].(map[string]any)["name"])

	components := payload["cmps"].(map[string]any)
	assert.Len(t, components, 1)
	assert.Equal(t, "goveemqtt/poll_interval", components["poll"].(map[string]any)["stat_t"])
}

func TestDeviceConfigureErrors(t *testing.T) {
	broker := mqtttest.NewBroker()

	require.ErrorIs(t, (&goveemqtt.Device{}).Configure(t.Context(), broker, "homeassistant", nil), goveemqtt.ErrInvalidDevice)

	broken := &goveemqtt.Component[*platform.Sensor[uint]]{
		TopicPrefix:  "goveemqtt",
		Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		Platform:     &platform.Sensor[uint]{State: mqtt.NewValue("x", mqtt.UintMarshaler)},
	}

	d := &goveemqtt.Device{Identifiers: []string{"a"}}
	assert.Error(t, d.Configure(t.Context(), broker, "homeassistant", map[string]json.MarshalerTo{"broken": broken}))
	assert.Empty(t, broker.Messages())
}

func TestComponentSubscribe(t *testing.T) {
	broker := mqtttest.NewBroker()

	c := &goveemqtt.Component[*platform.Light]{
		TopicPrefix:  "goveemqtt",
		UniqueID:     "goveemqtt_desk",
		Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		Platform: &platform.Light{
			State:   mqtt.NewValue("desk/state", platform.LightStateMarshaler),
			Command: mqtt.NewRemoteValue("desk/set", platform.LightCommandUnmarshaler),
		},
	}

	require.NoError(t, c.Subscribe(t.Context(), broker))
	assert.True(t, broker.Subscribed("goveemqtt/desk/set"))
	assert.ErrorIs(t, c.Subscribe(t.Context(), broker), goveemqtt.ErrComponentAlreadySubscribed)

	require.NoError(t, c.Unsubscribe(t.Context(), broker))
	assert.False(t, broker.Subscribed("goveemqtt/desk/set"))
	require.NoError(t, c.Unsubscribe(t.Context(), broker))
}
