package platform

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
)

// RGB holds 8-bit Red, Green, and Blue values for a Light. It implements fmt.Stringer and slog.LogValuer.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (r RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", r.R, r.G, r.B)
}

func (r RGB) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("r", uint64(r.R)),
		slog.Uint64("g", uint64(r.G)),
		slog.Uint64("b", uint64(r.B)),
		slog.String("hex", r.String()),
	)
}

// LightState is the json-schema state document published to Light.State. Optional attributes are omitted when the
// light does not support them or their value is unknown.
type LightState struct {
	State      hass.PowerState `json:"state"`
	ColorMode  hass.ColorMode  `json:"color_mode,omitempty"`
	Brightness *uint           `json:"brightness,omitempty"`
	// Kelvin when Light.ColorTemperatureInKelvin is set.
	ColorTemp *int    `json:"color_temp,omitempty"`
	Color     *RGB    `json:"color,omitempty"`
	Effect    *string `json:"effect,omitempty"`
}

// LightCommand is the json-schema command document Home Assistant writes to Light.Command. Attributes that were not
// part of the service call are nil.
type LightCommand struct {
	State      hass.PowerState `json:"state"`
	Brightness *uint           `json:"brightness,omitempty"`
	ColorTemp  *int            `json:"color_temp,omitempty"`
	Color      *RGB            `json:"color,omitempty"`
	Effect     *string         `json:"effect,omitempty"`
	Transition *float64        `json:"transition,omitempty"`
}

func (c LightCommand) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Any("state", c.State)}
	if c.Brightness != nil {
		attrs = append(attrs, slog.Uint64("brightness", uint64(*c.Brightness)))
	}
	if c.ColorTemp != nil {
		attrs = append(attrs, slog.Int("color_temp", *c.ColorTemp))
	}
	if c.Color != nil {
		attrs = append(attrs, slog.Any("color", *c.Color))
	}
	if c.Effect != nil {
		attrs = append(attrs, slog.String("effect", *c.Effect))
	}

	return slog.GroupValue(attrs...)
}

var (
	LightStateMarshaler     = mqtt.JSONMarshaler[LightState]()
	LightCommandUnmarshaler = mqtt.JSONUnmarshaler[LightCommand]()
)

// Light is a goveemqtt.Platform that implements the light.mqtt integration for Home Assistant using the json schema.
// All attribute changes of one service call arrive as a single LightCommand.
//
// See https://www.home-assistant.io/integrations/light.mqtt/#json-schema
type Light struct {
	// The current state of the Light
	State *mqtt.Value[LightState] `goveemqtt:"required"`
	// Home Assistant will write commands for this entity to this value
	Command *mqtt.RemoteValue[LightCommand] `goveemqtt:"required"`

	// The color modes supported by this light. See hass.FilterColorModes.
	SupportedColorModes []hass.ColorMode

	// Defines the maximum brightness value (i.e., 100%). Home Assistant uses 255 if not otherwise specified.
	BrightnessScale uint

	// Whether color temperature is in Kelvin (true) or mireds (false)
	ColorTemperatureInKelvin bool
	MaxKelvin                uint
	MinKelvin                uint

	// The list of possible effects this device supports
	PossibleEffects []string
}

func (l *Light) PlatformName() string {
	return "light"
}

func (l *Light) Subscriptions(prefix string) []mqtt.Subscription {
	return l.Command.AppendSubscribeOptions(nil, prefix)
}

// ServeMQTT routes payloads for the command topic to Light.Command.
func (l *Light) ServeMQTT(w mqtt.Writer, topic string, payload []byte) {
	if topic == l.Command.FullyQualifiedTopic("") {
		l.Command.ServeMQTT(w, topic, payload)
	}
}

// SupportsBrightness reports whether any supported color mode can be dimmed.
func (l *Light) SupportsBrightness() bool {
	return slices.ContainsFunc(l.SupportedColorModes, hass.ColorMode.SupportsBrightness)
}

func (l *Light) WriteDiscovery(o *discovery.Object, prefix string) {
	discovery.Require(o, discovery.FieldSchema, discovery.SchemaJSON)
	o.RequireTopic(discovery.FieldStateTopic, l.State.FullyQualifiedTopic(prefix))
	o.RequireTopic(discovery.FieldCommandTopic, l.Command.FullyQualifiedTopic(prefix))

	discovery.List(o, discovery.FieldSupportedColorModes, l.SupportedColorModes)

	discovery.Set(o, discovery.FieldBrightness, l.SupportsBrightness())
	discovery.Set(o, discovery.FieldBrightnessScale, l.BrightnessScale)

	discovery.Set(o, discovery.FieldColorTemperatureInKelvin, l.ColorTemperatureInKelvin)
	discovery.Set(o, discovery.FieldMaxKelvin, l.MaxKelvin)
	discovery.Set(o, discovery.FieldMinKelvin, l.MinKelvin)

	discovery.Set(o, discovery.FieldEffect, len(l.PossibleEffects) > 0)
	discovery.List(o, discovery.FieldEffectList, l.PossibleEffects)
}
