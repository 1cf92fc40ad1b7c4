// Package light maps Govee light capabilities onto Home Assistant light semantics: which color modes and effects a
// device supports, its current state, and the capability commands for a turn on or turn off request.
package light

import (
	"encoding/json/jsontext"
	"fmt"
	"slices"

	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/hass"
)

// Feature is a bit in the Home Assistant light supported features mask.
type Feature uint

const FeatureEffect Feature = 4

var (
	// DefaultBrightnessRange is used when a brightness capability does not report its range.
	DefaultBrightnessRange = govee.Range{Min: 1, Max: 100}
	// DefaultKelvinRange is used when a color temperature capability does not report its range.
	DefaultKelvinRange = govee.Range{Min: 2000, Max: 9000}

	// sceneInstances is the order in which cached scene values are checked for the active effect.
	sceneInstances = []string{govee.InstanceLightScene, govee.InstanceDIYScene, govee.InstanceSnapshot}
)

// Scene is what an effect name resolves to.
type Scene struct {
	Instance string
	Value    jsontext.Value
}

// Command returns the capability command that activates this scene.
func (s Scene) Command() govee.Command {
	return govee.Command{Type: govee.CapabilityDynamicScene, Instance: s.Instance, Value: s.Value}
}

// Features is what a light supports, derived once from its capabilities.
type Features struct {
	// ColorModes are the raw modes in the order their capabilities were found. See hass.FilterColorModes for what is
	// advertised.
	ColorModes []hass.ColorMode

	Flags Feature

	BrightnessRange govee.Range
	KelvinRange     govee.Range

	EffectList []string
	scenes     map[string]Scene
}

// SceneName builds the effect name for a scene option. The instance is included so equally named scenes in
// lightScene, diyScene and snapshot stay distinct.
func SceneName(instance, option string) string {
	return fmt.Sprintf("%s_%s", instance, option)
}

// Derive computes the Features of a device from its capability list. Scene options without a name or value are
// skipped and duplicate scene names keep their first occurrence.
func Derive(capabilities []govee.Capability) Features {
	f := Features{
		BrightnessRange: DefaultBrightnessRange,
		KelvinRange:     DefaultKelvinRange,
		scenes:          map[string]Scene{},
	}

	addMode := func(m hass.ColorMode) {
		if !slices.Contains(f.ColorModes, m) {
			f.ColorModes = append(f.ColorModes, m)
		}
	}

	for _, c := range capabilities {
		switch {
		case c.Type == govee.CapabilityOnOff:
			addMode(hass.ColorModeOnOff)
		case c.Type == govee.CapabilityRange && c.Instance == govee.InstanceBrightness:
			addMode(hass.ColorModeBrightness)
			f.BrightnessRange = validRange(c.Parameters.Range, DefaultBrightnessRange)
		case c.Type == govee.CapabilityColorSetting && c.Instance == govee.InstanceColorRGB:
			addMode(hass.ColorModeRGB)
		case c.Type == govee.CapabilityColorSetting && c.Instance == govee.InstanceColorTemperatureK:
			addMode(hass.ColorModeTemperature)
			f.KelvinRange = validRange(c.Parameters.Range, DefaultKelvinRange)
		case c.Type == govee.CapabilityDynamicScene:
			f.Flags |= FeatureEffect

			for _, o := range c.Parameters.Options {
				if o.Name == "" || len(o.Value) == 0 {
					continue
				}

				name := SceneName(c.Instance, o.Name)
				if _, exists := f.scenes[name]; exists {
					continue
				}

				f.EffectList = append(f.EffectList, name)
				f.scenes[name] = Scene{Instance: c.Instance, Value: o.Value.Clone()}
			}
		}
	}

	return f
}

func validRange(r *govee.Range, fallback govee.Range) govee.Range {
	if r == nil || r.Max <= r.Min {
		return fallback
	}

	return *r
}

// SceneByName resolves an effect name back to its scene.
func (f Features) SceneByName(name string) (Scene, bool) {
	s, ok := f.scenes[name]
	return s, ok
}

// SupportedColorModes are the color modes advertised to Home Assistant.
func (f Features) SupportedColorModes() []hass.ColorMode {
	return hass.FilterColorModes(f.ColorModes)
}

// Supports reports whether the raw capability list contained m.
func (f Features) Supports(m hass.ColorMode) bool {
	return slices.Contains(f.ColorModes, m)
}

// Platform is a Home Assistant entity platform.
type Platform string

const PlatformLight Platform = "light"

var platformsByDeviceType = map[govee.DeviceType]Platform{
	govee.DeviceTypeLight: PlatformLight,
}

// PlatformFor maps a vendor device type onto the platform that represents it.
func PlatformFor(t govee.DeviceType) (Platform, bool) {
	p, ok := platformsByDeviceType[t]
	return p, ok
}
