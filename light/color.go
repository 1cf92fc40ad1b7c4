package light

import (
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/platform"
)

// MaxBrightness is the top of the Home Assistant brightness scale.
const MaxBrightness = 255

// RGBFromInt splits a 24-bit color into its channels, red in the high byte.
func RGBFromInt(n int) platform.RGB {
	return platform.RGB{
		R: uint8(n >> 16 & 0xff),
		G: uint8(n >> 8 & 0xff),
		B: uint8(n & 0xff),
	}
}

// IntFromRGB packs a color into a 24-bit integer, red in the high byte.
func IntFromRGB(c platform.RGB) int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

func statesInRange(r govee.Range) int {
	return r.Max - r.Min + 1
}

// ValueToBrightness rescales a device value in r onto 1-255. It floors instead of rounding to nearest, so that
// BrightnessToValue(r, ValueToBrightness(r, v)) == v for every v of a range with at most 255 values.
func ValueToBrightness(r govee.Range, v int) uint {
	b := (v - (r.Min - 1)) * MaxBrightness / statesInRange(r)
	return uint(min(MaxBrightness, max(1, b)))
}

// BrightnessToValue rescales a 1-255 brightness onto r, rounding up so a non-zero brightness never turns into a
// value below the range.
func BrightnessToValue(r govee.Range, b uint) int {
	n := statesInRange(r)
	scaled := (int(b)*n + MaxBrightness - 1) / MaxBrightness
	return min(r.Max, max(r.Min, scaled+r.Min-1))
}
