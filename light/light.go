package light

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/platform"
	"github.com/nlowe/goveemqtt/state"
)

// ErrInvalidDevice is the error returned by New for devices without an id or sku.
var ErrInvalidDevice = errors.New("light: device id and sku are required")

// Backend reads cached capability state and sends capability commands. entry.Entry implements Backend.
type Backend interface {
	CachedValue(deviceID string, t govee.CapabilityType, instance string) (jsontext.Value, bool)
	Control(ctx context.Context, d govee.Device, cmd govee.Command) bool
}

// NotifyFunc is called after every successful control call so the new state can be published.
type NotifyFunc func(*Light)

// powerStates maps vendor powerSwitch values onto Home Assistant states.
var powerStates = map[int]hass.PowerState{
	1: hass.PowerStateOn,
	0: hass.PowerStateOff,
}

var powerValues = map[hass.PowerState]int{
	hass.PowerStateOn:  1,
	hass.PowerStateOff: 0,
}

// Light adapts one Govee device to a Home Assistant light.
type Light struct {
	EntryID  string
	Device   govee.Device
	Features Features

	backend Backend
	notify  NotifyFunc

	// serializes TurnOn and TurnOff so the attribute order of one request is never interleaved with another
	mu sync.Mutex

	log *slog.Logger
}

// New builds a Light for d. notify may be nil.
func New(entryID string, d govee.Device, backend Backend, notify NotifyFunc) (*Light, error) {
	if d.ID == "" || d.SKU == "" {
		return nil, ErrInvalidDevice
	}

	return &Light{
		EntryID:  entryID,
		Device:   d,
		Features: Derive(d.Capabilities),

		backend: backend,
		notify:  notify,

		log: log.ForComponent("light").With(log.Entry(entryID), log.Device(d.ID)),
	}, nil
}

// Name is the display name of the light, falling back to the sku.
func (l *Light) Name() string {
	if l.Device.Name != "" {
		return l.Device.Name
	}

	return l.Device.SKU
}

func (l *Light) cached(t govee.CapabilityType, instance string) (jsontext.Value, bool) {
	return l.backend.CachedValue(l.Device.ID, t, instance)
}

func (l *Light) cachedInt(t govee.CapabilityType, instance string) (int, bool) {
	v, ok := l.cached(t, instance)
	if !ok {
		return 0, false
	}

	return state.Int(v)
}

// State maps the cached power value. Missing or unexpected values are reported as hass.PowerStateUnknown.
func (l *Light) State() hass.PowerState {
	raw, _ := l.cached(govee.CapabilityOnOff, govee.InstancePowerSwitch)
	if v, ok := state.Int(raw); ok {
		if s, known := powerStates[v]; known {
			return s
		}
	}

	l.log.With(slog.String("value", string(raw))).Warn("Invalid power state value")
	return hass.PowerStateUnknown
}

func (l *Light) IsOn() bool {
	return l.State() == hass.PowerStateOn
}

// Brightness is the cached brightness rescaled to 1-255.
func (l *Light) Brightness() (uint, bool) {
	v, ok := l.cachedInt(govee.CapabilityRange, govee.InstanceBrightness)
	if !ok {
		return 0, false
	}

	return ValueToBrightness(l.Features.BrightnessRange, v), true
}

func (l *Light) ColorTempKelvin() (int, bool) {
	return l.cachedInt(govee.CapabilityColorSetting, govee.InstanceColorTemperatureK)
}

func (l *Light) RGB() (platform.RGB, bool) {
	v, ok := l.cachedInt(govee.CapabilityColorSetting, govee.InstanceColorRGB)
	if !ok {
		return platform.RGB{}, false
	}

	return RGBFromInt(v), true
}

// Effect finds the active scene. The scene instances are checked in order and the first scene whose value matches
// the cached value wins.
func (l *Light) Effect() (string, bool) {
	if len(l.Features.EffectList) == 0 {
		return "", false
	}

	for _, instance := range sceneInstances {
		v, ok := l.cached(govee.CapabilityDynamicScene, instance)
		if !ok {
			continue
		}

		for _, name := range l.Features.EffectList {
			scene := l.Features.scenes[name]
			if scene.Instance == instance && state.Equal(scene.Value, v) {
				return name, true
			}
		}
	}

	return "", false
}

func (l *Light) EffectList() []string {
	return l.Features.EffectList
}

func (l *Light) SupportedColorModes() []hass.ColorMode {
	return l.Features.SupportedColorModes()
}

func (l *Light) SupportedFeatures() Feature {
	return l.Features.Flags
}

// ColorMode guesses the active color mode: color temperature when a kelvin value is cached, rgb when supported,
// then brightness, then on/off.
func (l *Light) ColorMode() hass.ColorMode {
	supported := l.SupportedColorModes()
	has := func(m hass.ColorMode) bool {
		return slices.Contains(supported, m)
	}

	if k, ok := l.ColorTempKelvin(); ok && k > 0 && has(hass.ColorModeTemperature) {
		return hass.ColorModeTemperature
	}

	for _, m := range []hass.ColorMode{hass.ColorModeRGB, hass.ColorModeBrightness, hass.ColorModeOnOff} {
		if has(m) {
			return m
		}
	}

	return supported[0]
}

// Snapshot builds the json state document for this light from the cache.
func (l *Light) Snapshot() platform.LightState {
	s := platform.LightState{State: l.State()}
	if s.State == hass.PowerStateUnknown {
		return s
	}

	s.ColorMode = l.ColorMode()

	if b, ok := l.Brightness(); ok && s.ColorMode.SupportsBrightness() {
		s.Brightness = &b
	}

	switch s.ColorMode {
	case hass.ColorModeTemperature:
		if k, ok := l.ColorTempKelvin(); ok {
			s.ColorTemp = &k
		}
	case hass.ColorModeRGB:
		if c, ok := l.RGB(); ok {
			s.Color = &c
		}
	}

	if e, ok := l.Effect(); ok {
		s.Effect = &e
	}

	return s
}
