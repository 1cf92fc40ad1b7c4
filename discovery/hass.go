package discovery

import (
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
)

const (
	// DefaultPrefix is where Home Assistant looks for discovery payloads unless configured otherwise.
	DefaultPrefix = "homeassistant"
	// StatusTopic is where Home Assistant announces its own availability, relative to the discovery prefix.
	StatusTopic = "status"
)

// HomeAssistantAvailability tracks Home Assistant's birth and last will messages. An "online" after a restart means
// every retained discovery payload and state has to be sent again.
//
// See https://www.home-assistant.io/integrations/mqtt/#birth-and-last-will-messages
func HomeAssistantAvailability(discoveryPrefix string) *mqtt.RemoteValue[hass.Availability] {
	return mqtt.NewRemoteValue(mqtt.JoinTopic(discoveryPrefix, StatusTopic), hass.AvailabilityUnmarshaler)
}
