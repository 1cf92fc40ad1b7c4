package platform_test

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

func newLight() *platform.Light {
	return &platform.Light{
		State:   mqtt.NewValue("state", platform.LightStateMarshaler),
		Command: mqtt.NewRemoteValue("set", platform.LightCommandUnmarshaler),
	}
}

func TestLightDiscovery(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		l := newLight()
		l.SupportedColorModes = []hass.ColorMode{hass.ColorModeTemperature, hass.ColorModeRGB}
		l.ColorTemperatureInKelvin = true
		l.MinKelvin = 2000
		l.MaxKelvin = 9000
		l.PossibleEffects = []string{"lightScene_Sunrise"}

		c := &goveemqtt.Component[*platform.Light]{
			Platform:     l,
			TopicPrefix:  "goveemqtt/aabb",
			UniqueID:     "goveemqtt_aabb",
			Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		}

		data, err := json.Marshal(c)
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"p": "light",
			"name": null,
			"avty_t": "goveemqtt/aabb/available",
			"uniq_id": "goveemqtt_aabb",
			"schema": "json",
			"stat_t": "goveemqtt/aabb/state",
			"cmd_t": "goveemqtt/aabb/set",
			"sup_clrm": ["color_temp", "rgb"],
			"brightness": true,
			"clr_temp_k": true,
			"max_k": 9000,
			"min_k": 2000,
			"effect": true,
			"fx_list": ["lightScene_Sunrise"]
		}`, string(data))
	})

	t.Run("On Off", func(t *testing.T) {
		l := newLight()
		l.SupportedColorModes = []hass.ColorMode{hass.ColorModeOnOff}

		c := &goveemqtt.Component[*platform.Light]{
			Platform:     l,
			TopicPrefix:  "goveemqtt/aabb",
			UniqueID:     "goveemqtt_aabb",
			Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		}

		data, err := json.Marshal(c)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.NotContains(t, decoded, "brightness")
		assert.NotContains(t, decoded, "effect")
		assert.NotContains(t, decoded, "fx_list")
	})

	t.Run("Missing Command", func(t *testing.T) {
		l := newLight()
		l.Command = nil

		c := &goveemqtt.Component[*platform.Light]{
			Platform:     l,
			UniqueID:     "x",
			Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
		}

		_, err := json.Marshal(c)
		require.Error(t, err)
	})
}

func TestLightCommandRouting(t *testing.T) {
	b := mqtttest.NewBroker()
	l := newLight()

	c := &goveemqtt.Component[*platform.Light]{
		Platform:     l,
		TopicPrefix:  "goveemqtt/aabb",
		UniqueID:     "goveemqtt_aabb",
		Availability: mqtt.NewValue("available", hass.AvailabilityMarshaler),
	}

	var got []platform.LightCommand
	l.Command.Watch(func(cmd platform.LightCommand) { got = append(got, cmd) })

	require.NoError(t, c.Subscribe(t.Context(), b))
	require.ErrorIs(t, c.Subscribe(t.Context(), b), goveemqtt.ErrComponentAlreadySubscribed)

	require.True(t, b.Deliver("goveemqtt/aabb/set", []byte(`{"state":"ON","brightness":128,"color":{"r":255,"g":16,"b":0},"effect":"diyScene_Party"}`)))
	require.Len(t, got, 1)

	cmd := got[0]
	assert.Equal(t, hass.PowerStateOn, cmd.State)
	require.NotNil(t, cmd.Brightness)
	assert.EqualValues(t, 128, *cmd.Brightness)
	require.NotNil(t, cmd.Color)
	assert.Equal(t, platform.RGB{R: 255, G: 16, B: 0}, *cmd.Color)
	require.NotNil(t, cmd.Effect)
	assert.Equal(t, "diyScene_Party", *cmd.Effect)
	assert.Nil(t, cmd.ColorTemp)

	require.NoError(t, c.Unsubscribe(t.Context(), b))
	assert.False(t, b.Subscribed("goveemqtt/aabb/set"))
}

func TestLightStatePayload(t *testing.T) {
	brightness := uint(255)
	data, err := platform.LightStateMarshaler(platform.LightState{
		State:      hass.PowerStateOn,
		ColorMode:  hass.ColorModeRGB,
		Brightness: &brightness,
		Color:      &platform.RGB{R: 1, G: 2, B: 3},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"state":"ON","color_mode":"rgb","brightness":255,"color":{"r":1,"g":2,"b":3}}`, string(data))
}

func TestUnknownLightStatePayload(t *testing.T) {
	data, err := platform.LightStateMarshaler(platform.LightState{State: hass.PowerStateUnknown})
	require.NoError(t, err)

	assert.JSONEq(t, `{"state":null}`, string(data))
}

func TestRGBString(t *testing.T) {
	require.Equal(t, "#ff1000", platform.RGB{R: 255, G: 16}.String())
}
