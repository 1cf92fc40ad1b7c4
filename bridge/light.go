package bridge

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/nlowe/goveemqtt"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/light"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/mqtt"
	"github.com/nlowe/goveemqtt/platform"
)

// lightEntity binds a light to its discovery device and component.
type lightEntity struct {
	light    *light.Light
	entityID string

	device    *goveemqtt.Device
	component *goveemqtt.Component[*platform.Light]

	commands commandQueue
}

// EntityID is the Home Assistant entity id suggested for a device.
func EntityID(deviceID string) string {
	return fmt.Sprintf("%s.%s", light.PlatformLight, mqtt.SanitizeSegment(deviceID))
}

func newLightEntity(l *light.Light, ed *entryDevice, availability *mqtt.Value[hass.Availability], topicPrefix string) *lightEntity {
	segment := mqtt.SanitizeSegment(l.Device.ID)
	f := l.Features

	p := &platform.Light{
		State: mqtt.NewValueWithOptions(
			mqtt.JoinTopic(segment, "state"),
			platform.LightStateMarshaler,
			mqtt.WriteOptions{Retain: true},
		),
		Command:             mqtt.NewRemoteValue(mqtt.JoinTopic(segment, "set"), platform.LightCommandUnmarshaler),
		SupportedColorModes: l.SupportedColorModes(),
		PossibleEffects:     l.EffectList(),
	}

	if f.Supports(hass.ColorModeTemperature) {
		p.ColorTemperatureInKelvin = true
		p.MinKelvin = uint(f.KelvinRange.Min)
		p.MaxKelvin = uint(f.KelvinRange.Max)
	}

	return &lightEntity{
		light:    l,
		entityID: EntityID(l.Device.ID),
		device: &goveemqtt.Device{
			Name:         l.Name(),
			Manufacturer: "Govee",
			Model:        l.Device.SKU,
			ModelID:      l.Device.SKU,
			Identifiers:  []string{l.Device.ID},
			ViaDevice:    ed.device.Identifiers[0],
		},
		component: &goveemqtt.Component[*platform.Light]{
			Platform:        p,
			TopicPrefix:     topicPrefix,
			Availability:    availability,
			DefaultEntityID: EntityID(l.Device.ID),
			UniqueID:        fmt.Sprintf("%s_%s", goveemqtt.DefaultOrigin.Name, segment),
		},
	}
}

func (le *lightEntity) configure(ctx context.Context, w mqtt.Writer, discoveryPrefix string) error {
	return le.device.Configure(ctx, w, discoveryPrefix, map[string]json.MarshalerTo{
		le.component.UniqueID: le.component,
	})
}

func (le *lightEntity) publish(ctx context.Context, w mqtt.Writer, topicPrefix string) error {
	return mqtt.Error(le.component.Platform.State.Write(ctx, w, topicPrefix, le.light.Snapshot()))
}

// requestFromCommand converts a json schema command into a turn on request. Transition is not supported by the
// cloud and is dropped.
func requestFromCommand(cmd platform.LightCommand) light.TurnOnRequest {
	return light.TurnOnRequest{
		Effect:          cmd.Effect,
		Brightness:      cmd.Brightness,
		ColorTempKelvin: cmd.ColorTemp,
		RGB:             cmd.Color,
	}
}

// drainCommands handles the queued commands of le one at a time until the queue is empty. Commands still queued when
// ctx is done are dropped.
func (b *Bridge) drainCommands(ctx context.Context, le *lightEntity) {
	for cmd, ok := le.commands.next(); ok; cmd, ok = le.commands.next() {
		if ctx.Err() != nil {
			continue
		}

		b.handleCommand(ctx, le, cmd)
	}
}

func (b *Bridge) handleCommand(ctx context.Context, le *lightEntity, cmd platform.LightCommand) {
	l := b.log.With(slog.String("entity_id", le.entityID), slog.Any("command", cmd))
	l.Debug("Home Assistant sent light command")

	switch cmd.State {
	case hass.PowerStateOff:
		le.light.TurnOff(ctx)
	case hass.PowerStateOn:
		le.light.TurnOn(ctx, requestFromCommand(cmd))
	default:
		l.Warn("Ignoring light command with unexpected state")
	}

	// Publish even when nothing changed so Home Assistant drops an optimistic state for failed commands.
	if err := le.publish(ctx, b.w, b.opts.TopicPrefix); err != nil {
		l.With(log.Failure(err)...).Error("Failed to publish light state")
	}
}

// NotifyFunc returns a light.NotifyFunc that publishes the state of the light.
func (b *Bridge) NotifyFunc(ctx context.Context) light.NotifyFunc {
	return func(l *light.Light) {
		if err := b.PublishLight(ctx, EntityID(l.Device.ID)); err != nil {
			b.log.With(log.Device(l.Device.ID)).With(log.Failure(err)...).Error("Failed to publish light state")
		}
	}
}

// DeviceUpdated returns a callback for the poller that publishes the state of a refreshed device.
func (b *Bridge) DeviceUpdated(ctx context.Context) func(deviceID string) {
	return func(deviceID string) {
		if err := b.PublishLight(ctx, EntityID(deviceID)); err != nil {
			b.log.With(log.Device(deviceID)).With(log.Failure(err)...).Error("Failed to publish light state")
		}
	}
}

// PublishLight publishes the current state of a light. Unknown entity ids are ignored, since polled devices are not
// necessarily lights.
func (b *Bridge) PublishLight(ctx context.Context, entityID string) error {
	b.mu.RLock()
	le, ok := b.lights[entityID]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	return le.publish(ctx, b.w, b.opts.TopicPrefix)
}

// Light looks up a light by entity id.
func (b *Bridge) Light(entityID string) (*light.Light, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	le, ok := b.lights[entityID]
	if !ok {
		return nil, false
	}

	return le.light, true
}

// LightInfo describes an exposed light.
type LightInfo struct {
	EntityID   string              `json:"entity_id"`
	EntryID    string              `json:"entry_id"`
	DeviceID   string              `json:"device_id"`
	Name       string              `json:"name"`
	SKU        string              `json:"sku"`
	ColorModes []hass.ColorMode    `json:"supported_color_modes"`
	EffectList []string            `json:"effect_list,omitempty"`
	State      platform.LightState `json:"state"`
}

// Lights lists every exposed light ordered by entity id.
func (b *Bridge) Lights() []LightInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]LightInfo, 0, len(b.lights))
	for _, id := range slices.Sorted(maps.Keys(b.lights)) {
		le := b.lights[id]
		result = append(result, LightInfo{
			EntityID:   id,
			EntryID:    le.light.EntryID,
			DeviceID:   le.light.Device.ID,
			Name:       le.light.Name(),
			SKU:        le.light.Device.SKU,
			ColorModes: le.light.SupportedColorModes(),
			EffectList: le.light.EffectList(),
			State:      le.light.Snapshot(),
		})
	}

	return result
}
