package hass

import (
	"github.com/nlowe/goveemqtt/mqtt"
)

// Availability is the payload of an availability topic. Home Assistant publishes the same values on its own status
// topic.
type Availability string

const (
	Available   Availability = "online"
	Unavailable Availability = "offline"
)

var (
	AvailabilityMarshaler   = mqtt.TextMarshaler[Availability]()
	AvailabilityUnmarshaler = mqtt.TextUnmarshaler[Availability]()
)
