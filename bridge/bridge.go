// Package bridge exposes lights to Home Assistant over MQTT device discovery. Every light is a discovery device with
// one json schema light component, and every entry gets a device of its own carrying diagnostic sensors.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/mqtt"
)

const (
	// DefaultTopicPrefix is the root of every state and command topic.
	DefaultTopicPrefix = "goveemqtt"

	availabilityTopic = "available"
)

// ErrEntryExists is the error returned by Bridge.AddEntry for an entry id that was already added.
var ErrEntryExists = errors.New("bridge: entry already added")

// Options configures the topics a Bridge uses.
type Options struct {
	TopicPrefix     string
	DiscoveryPrefix string
}

func (o Options) withDefaults() Options {
	if o.TopicPrefix == "" {
		o.TopicPrefix = DefaultTopicPrefix
	}
	if o.DiscoveryPrefix == "" {
		o.DiscoveryPrefix = discovery.DefaultPrefix
	}

	return o
}

// AvailabilityTopic is the topic every component reports availability on. Use it as the MQTT last will topic so Home
// Assistant marks all entities unavailable when the bridge drops off.
func (o Options) AvailabilityTopic() string {
	return mqtt.JoinTopic(o.withDefaults().TopicPrefix, availabilityTopic)
}

// Bridge publishes discovery payloads and states and routes commands from Home Assistant to lights.
type Bridge struct {
	w    mqtt.Writer
	s    mqtt.Subscriber
	opts Options

	availability *mqtt.Value[hass.Availability]
	hassStatus   *mqtt.RemoteValue[hass.Availability]

	mu      sync.RWMutex
	entries map[string]*entryDevice
	lights  map[string]*lightEntity

	// command goroutines
	wg sync.WaitGroup

	log *slog.Logger
}

func New(w mqtt.Writer, s mqtt.Subscriber, opts Options) *Bridge {
	opts = opts.withDefaults()

	return &Bridge{
		w:    w,
		s:    s,
		opts: opts,

		availability: mqtt.NewValueWithOptions(availabilityTopic, hass.AvailabilityMarshaler, mqtt.WriteOptions{Retain: true}),
		hassStatus:   discovery.HomeAssistantAvailability(opts.DiscoveryPrefix),

		entries: map[string]*entryDevice{},
		lights:  map[string]*lightEntity{},

		log: log.ForComponent("bridge"),
	}
}

// Options returns the effective options, including defaults.
func (b *Bridge) Options() Options {
	return b.opts
}

// WatchHomeAssistant subscribes to Home Assistant's status topic and re-sends discovery payloads and states every time
// Home Assistant comes online.
func (b *Bridge) WatchHomeAssistant(ctx context.Context) error {
	b.hassStatus.Watch(func(a hass.Availability) {
		b.log.With(slog.String("availability", string(a))).Info("Home Assistant state changed")
		if a != hass.Available {
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()

			if err := b.Rediscover(ctx); err != nil {
				b.log.With(log.Failure(err)...).Error("Failed to re-send discovery info")
			}
		}()
	})

	return b.s.Subscribe(ctx, b.hassStatus, b.hassStatus.AppendSubscribeOptions(nil, "")...)
}

// Rediscover publishes the discovery payload of every device, marks the bridge available and republishes every
// state.
func (b *Bridge) Rediscover(ctx context.Context) error {
	b.mu.RLock()
	entries := slices.Collect(maps.Values(b.entries))
	lights := slices.Collect(maps.Values(b.lights))
	b.mu.RUnlock()

	b.log.With(slog.Int("entries", len(entries)), slog.Int("lights", len(lights))).Info("Re-sending discovery info")

	var errs []error
	for _, e := range entries {
		errs = append(errs, e.configure(ctx, b.w, b.opts.DiscoveryPrefix))
	}
	for _, l := range lights {
		errs = append(errs, l.configure(ctx, b.w, b.opts.DiscoveryPrefix))
	}

	errs = append(errs, b.SetAvailability(ctx, hass.Available))

	for _, e := range entries {
		errs = append(errs, e.publish(ctx, b.w, b.opts.TopicPrefix))
	}
	for _, l := range lights {
		errs = append(errs, l.publish(ctx, b.w, b.opts.TopicPrefix))
	}

	return errors.Join(errs...)
}

// SetAvailability publishes the availability shared by every component.
func (b *Bridge) SetAvailability(ctx context.Context, a hass.Availability) error {
	return mqtt.Error(b.availability.Write(ctx, b.w, b.opts.TopicPrefix, a))
}

// Shutdown marks the bridge unavailable, removes every subscription and waits for running commands.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.log.Info("Shutting down bridge")

	errs := []error{b.SetAvailability(ctx, hass.Unavailable)}

	b.mu.RLock()
	for _, e := range b.entries {
		for _, l := range e.lights {
			errs = append(errs, l.component.Unsubscribe(ctx, b.s))
		}
	}
	b.mu.RUnlock()

	errs = append(errs, b.s.Unsubscribe(ctx, b.hassStatus.FullyQualifiedTopic("")))

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, context.Cause(ctx))
	}

	return errors.Join(errs...)
}
