package platform_test

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
	"github.com/nlowe/goveemqtt/platform"
)

func TestSensorDiscovery(t *testing.T) {
	c := &goveemqtt.Component[*platform.Sensor[uint]]{
		Name:           "Poll Interval",
		EntityCategory: hass.EntityCategoryDiagnostic,
		Icon:           "mdi:timer-sync-outline",
		TopicPrefix:    "goveemqtt/bridge",
		UniqueID:       "goveemqtt_bridge_poll_interval",
		Availability:   mqtt.NewValue("available", hass.AvailabilityMarshaler),
		Platform: &platform.Sensor[uint]{
			State:             mqtt.NewValue("poll_interval", mqtt.UintMarshaler),
			DeviceClass:       "duration",
			UnitOfMeasurement: "s",
		},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"p": "sensor",
		"name": "Poll Interval",
		"ent_cat": "diagnostic",
		"ic": "mdi:timer-sync-outline",
		"avty_t": "goveemqtt/bridge/available",
		"uniq_id": "goveemqtt_bridge_poll_interval",
		"dev_cla": "duration",
		"stat_t": "goveemqtt/bridge/poll_interval",
		"unit_of_meas": "s"
	}`, string(data))
	assert.Empty(t, c.Platform.Subscriptions(c.TopicPrefix))
}
