package bridge

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"

	"github.com/nlowe/goveemqtt"
	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/light"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/mqtt"
	"github.com/nlowe/goveemqtt/platform"
)

// entryDevice is the discovery device of one entry. Light devices reference it with via_device.
type entryDevice struct {
	entry  *entry.Entry
	device *goveemqtt.Device

	pollInterval *goveemqtt.Component[*platform.Sensor[uint]]

	lights []*lightEntity
}

func entryIdentifier(entryID string) string {
	return fmt.Sprintf("%s_bridge_%s", goveemqtt.DefaultOrigin.Name, mqtt.SanitizeSegment(entryID))
}

func newEntryDevice(e *entry.Entry, availability *mqtt.Value[hass.Availability]) *entryDevice {
	id := entryIdentifier(e.ID)
	segment := mqtt.JoinTopic("bridge", mqtt.SanitizeSegment(e.ID))

	return &entryDevice{
		entry: e,
		device: &goveemqtt.Device{
			Name:         fmt.Sprintf("Govee Bridge %s", e.ID),
			Manufacturer: "goveemqtt",
			Model:        "Cloud Bridge",
			Identifiers:  []string{id},
		},
		pollInterval: &goveemqtt.Component[*platform.Sensor[uint]]{
			Name:           "Poll Interval",
			EntityCategory: hass.EntityCategoryDiagnostic,
			Icon:           "mdi:timer-sync-outline",
			UniqueID:       id + "_poll_interval",
			Availability:   availability,
			Platform: &platform.Sensor[uint]{
				State: mqtt.NewValueWithOptions(
					mqtt.JoinTopic(segment, "poll_interval"),
					mqtt.UintMarshaler,
					mqtt.WriteOptions{Retain: true},
				),
				DeviceClass:       "duration",
				StateClass:        hass.StateClassMeasurement,
				UnitOfMeasurement: "s",
			},
		},
	}
}

func (e *entryDevice) configure(ctx context.Context, w mqtt.Writer, discoveryPrefix string) error {
	return e.device.Configure(ctx, w, discoveryPrefix, map[string]json.MarshalerTo{
		e.pollInterval.UniqueID: e.pollInterval,
	})
}

func (e *entryDevice) publish(ctx context.Context, w mqtt.Writer, topicPrefix string) error {
	return mqtt.Error(e.pollInterval.Platform.State.Write(ctx, w, topicPrefix, uint(e.entry.ScanInterval().Seconds())))
}

// AddEntry exposes an entry and its lights. Commands for the lights are accepted once this returns. Lights should be
// set up with NotifyFunc so their state is published after every successful command.
func (b *Bridge) AddEntry(ctx context.Context, e *entry.Entry, lights []*light.Light) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, e.ID)
	}

	ed := newEntryDevice(e, b.availability)
	ed.pollInterval.TopicPrefix = b.opts.TopicPrefix

	for _, l := range lights {
		le := newLightEntity(l, ed, b.availability, b.opts.TopicPrefix)
		if err := le.component.Subscribe(ctx, b.s); err != nil {
			for _, added := range ed.lights {
				_ = added.component.Unsubscribe(ctx, b.s)
			}
			return fmt.Errorf("bridge: subscribe %s: %w", le.entityID, err)
		}

		le.component.Platform.Command.Watch(func(cmd platform.LightCommand) {
			if !le.commands.push(cmd) {
				return
			}

			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.drainCommands(ctx, le)
			}()
		})

		ed.lights = append(ed.lights, le)
	}

	b.entries[e.ID] = ed
	for _, le := range ed.lights {
		b.lights[le.entityID] = le
	}

	b.log.With(log.Entry(e.ID), slog.Int("lights", len(ed.lights))).Info("Added entry")
	return nil
}

// PublishPollInterval republishes the poll interval sensor of an entry, for example after set_poll_interval.
func (b *Bridge) PublishPollInterval(ctx context.Context, entryID string) error {
	b.mu.RLock()
	ed, ok := b.entries[entryID]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	return ed.publish(ctx, b.w, b.opts.TopicPrefix)
}
