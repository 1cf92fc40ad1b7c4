package light

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/log"
)

// Setup builds one Light per light device of e. It returns no lights when the entry has none, and aborts with an
// error when a device cannot be set up.
func Setup(ctx context.Context, e *entry.Entry, notify NotifyFunc) ([]*Light, error) {
	l := log.ForComponent("light.setup").With(log.Entry(e.ID))

	var lights []*Light
	for _, d := range e.Devices() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p, ok := PlatformFor(d.Type); !ok || p != PlatformLight {
			continue
		}

		light, err := New(e.ID, d, e, notify)
		if err != nil {
			l.With(log.Device(d.ID)).With(log.Failure(err)...).Error("Failed to set up device")
			return nil, fmt.Errorf("setup %s: %w", d.ID, err)
		}

		l.With(log.Device(d.ID), slog.Any("modes", light.SupportedColorModes()), slog.Int("effects", len(light.EffectList()))).
			Debug("Set up light")
		lights = append(lights, light)
	}

	l.With(slog.Int("count", len(lights))).Info("Set up lights")
	if len(lights) == 0 {
		return nil, nil
	}

	return lights, nil
}
