package light

import (
	"context"
	"log/slog"

	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/platform"
)

// TurnOnRequest bundles the attributes of one turn on call. Nil attributes are left unchanged.
type TurnOnRequest struct {
	Effect          *string
	Brightness      *uint
	ColorTempKelvin *int
	RGB             *platform.RGB
}

func (r TurnOnRequest) LogValue() slog.Value {
	var attrs []slog.Attr
	if r.Effect != nil {
		attrs = append(attrs, slog.String("effect", *r.Effect))
	}
	if r.Brightness != nil {
		attrs = append(attrs, slog.Uint64("brightness", uint64(*r.Brightness)))
	}
	if r.ColorTempKelvin != nil {
		attrs = append(attrs, slog.Int("color_temp_kelvin", *r.ColorTempKelvin))
	}
	if r.RGB != nil {
		attrs = append(attrs, slog.Any("rgb", *r.RGB))
	}

	return slog.GroupValue(attrs...)
}

// TurnOn sends one capability command per attribute present in r, in the order effect, brightness, color
// temperature, rgb. The light is switched on last, and only if it is not on already. A failed command does not stop
// the remaining ones.
func (l *Light) TurnOn(ctx context.Context, r TurnOnRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.log.With(slog.Any("request", r)).Debug("Turning on")

	if r.Effect != nil {
		if scene, ok := l.Features.SceneByName(*r.Effect); ok {
			l.control(ctx, scene.Command())
		} else {
			l.log.With(slog.String("effect", *r.Effect)).Warn("Unknown effect")
		}
	}

	if r.Brightness != nil {
		l.control(ctx, govee.Command{
			Type:     govee.CapabilityRange,
			Instance: govee.InstanceBrightness,
			Value:    BrightnessToValue(l.Features.BrightnessRange, *r.Brightness),
		})
	}

	if r.ColorTempKelvin != nil {
		l.control(ctx, govee.Command{
			Type:     govee.CapabilityColorSetting,
			Instance: govee.InstanceColorTemperatureK,
			Value:    *r.ColorTempKelvin,
		})
	}

	if r.RGB != nil {
		l.control(ctx, govee.Command{
			Type:     govee.CapabilityColorSetting,
			Instance: govee.InstanceColorRGB,
			Value:    IntFromRGB(*r.RGB),
		})
	}

	if l.IsOn() {
		l.log.Debug("Already on")
		return
	}

	l.control(ctx, powerCommand(hass.PowerStateOn))
}

// TurnOff switches the light off unless it is already off.
func (l *Light) TurnOff(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.IsOn() {
		l.log.Debug("Already off")
		return
	}

	l.control(ctx, powerCommand(hass.PowerStateOff))
}

// Control sends an arbitrary capability command, for example a segment color, under the same lock as TurnOn.
func (l *Light) Control(ctx context.Context, cmd govee.Command) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.control(ctx, cmd)
}

func (l *Light) control(ctx context.Context, cmd govee.Command) bool {
	if !l.backend.Control(ctx, l.Device, cmd) {
		return false
	}

	if l.notify != nil {
		l.notify(l)
	}

	return true
}

func powerCommand(s hass.PowerState) govee.Command {
	return govee.Command{
		Type:     govee.CapabilityOnOff,
		Instance: govee.InstancePowerSwitch,
		Value:    powerValues[s],
	}
}
