package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/hass"
)

func TestHomeAssistantAvailability(t *testing.T) {
	for _, tt := range []struct {
		prefix string
		topic  string
	}{
		{prefix: DefaultPrefix, topic: "homeassistant/status"},
		{prefix: "ha/", topic: "ha/status"},
	} {
		t.Run(tt.prefix, func(t *testing.T) {
			sut := HomeAssistantAvailability(tt.prefix)
			require.Equal(t, tt.topic, sut.FullyQualifiedTopic(""))

			_, ok := sut.Get()
			assert.False(t, ok)

			var seen []hass.Availability
			sut.Watch(func(a hass.Availability) { seen = append(seen, a) })

			sut.ServeMQTT(nil, tt.topic, []byte("offline"))
			sut.ServeMQTT(nil, tt.topic, []byte("online"))

			assert.Equal(t, []hass.Availability{hass.Unavailable, hass.Available}, seen)
		})
	}
}
