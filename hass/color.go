package hass

import "slices"

// ColorMode represents constants that Home Assistant uses to determine what mode a given color represents
type ColorMode string

const (
	ColorModeOnOff       ColorMode = "onoff"
	ColorModeBrightness  ColorMode = "brightness"
	ColorModeTemperature ColorMode = "color_temp"
	ColorModeHueSat      ColorMode = "hs"
	ColorModeXY          ColorMode = "xy"
	ColorModeRGB         ColorMode = "rgb"
	ColorModeRGBW        ColorMode = "rgbw"
	ColorModeRGBWW       ColorMode = "rgbww"
	ColorModeWhite       ColorMode = "white"
)

// colorModeOrder is the order color modes are listed in discovery payloads.
var colorModeOrder = []ColorMode{
	ColorModeOnOff,
	ColorModeBrightness,
	ColorModeTemperature,
	ColorModeHueSat,
	ColorModeXY,
	ColorModeRGB,
	ColorModeRGBW,
	ColorModeRGBWW,
	ColorModeWhite,
}

// SupportsBrightness reports whether a light in color mode m can be dimmed.
func (m ColorMode) SupportsBrightness() bool {
	return m != "" && m != ColorModeOnOff
}

// FilterColorModes reduces a set of raw color modes to a combination Home Assistant accepts: ColorModeOnOff and
// ColorModeBrightness are only valid on their own, so they are dropped when a more capable mode is present. The result
// is sorted in a stable order and never empty.
func FilterColorModes(modes []ColorMode) []ColorMode {
	set := map[ColorMode]bool{}
	for _, m := range modes {
		set[m] = true
	}

	colorful := false
	for m := range set {
		if m != ColorModeOnOff && m != ColorModeBrightness {
			colorful = true
		}
	}

	if colorful {
		delete(set, ColorModeOnOff)
		delete(set, ColorModeBrightness)
	} else if set[ColorModeBrightness] {
		delete(set, ColorModeOnOff)
	}

	if len(set) == 0 {
		return []ColorMode{ColorModeOnOff}
	}

	result := make([]ColorMode, 0, len(set))
	for _, m := range colorModeOrder {
		if set[m] {
			result = append(result, m)
		}
	}

	return slices.Clip(result)
}
