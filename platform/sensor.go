package platform

import (
	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
)

// Sensor is a goveemqtt.Platform that implements the sensor.mqtt integration for Home Assistant. The state of this
// sensor has a type of TValue. Sensors are read-only, so they never subscribe to anything.
//
// See https://www.home-assistant.io/integrations/sensor.mqtt/.
type Sensor[TValue any] struct {
	// The number of decimals which should be used in the sensor's state after rounding.
	SuggestedDisplayPrecision uint

	StateClass  hass.StateClass
	DeviceClass string

	// The current value of the sensor
	State *mqtt.Value[TValue] `goveemqtt:"required"`

	UnitOfMeasurement string
}

func (s *Sensor[TValue]) PlatformName() string {
	return "sensor"
}

func (s *Sensor[TValue]) Subscriptions(_ string) []mqtt.Subscription {
	return nil
}

func (s *Sensor[TValue]) ServeMQTT(_ mqtt.Writer, _ string, _ []byte) {}

func (s *Sensor[TValue]) WriteDiscovery(o *discovery.Object, prefix string) {
	o.RequireTopic(discovery.FieldStateTopic, s.State.FullyQualifiedTopic(prefix))

	discovery.Set(o, discovery.FieldDeviceClass, s.DeviceClass)
	discovery.Set(o, discovery.FieldStateClass, s.StateClass)
	discovery.Set(o, discovery.FieldUnitOfMeasurement, s.UnitOfMeasurement)
	discovery.Set(o, discovery.FieldSuggestedDisplayPrecision, s.SuggestedDisplayPrecision)
}
