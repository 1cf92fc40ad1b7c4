package hass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterColorModes(t *testing.T) {
	for _, tt := range []struct {
		name  string
		modes []ColorMode
		want  []ColorMode
	}{
		{name: "Empty", modes: nil, want: []ColorMode{ColorModeOnOff}},
		{name: "OnOff", modes: []ColorMode{ColorModeOnOff}, want: []ColorMode{ColorModeOnOff}},
		{name: "Dimmable", modes: []ColorMode{ColorModeOnOff, ColorModeBrightness}, want: []ColorMode{ColorModeBrightness}},
		{
			name:  "Full Color",
			modes: []ColorMode{ColorModeRGB, ColorModeOnOff, ColorModeBrightness, ColorModeTemperature},
			want:  []ColorMode{ColorModeTemperature, ColorModeRGB},
		},
		{name: "Duplicates", modes: []ColorMode{ColorModeRGB, ColorModeRGB}, want: []ColorMode{ColorModeRGB}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FilterColorModes(tt.modes))
		})
	}
}

func TestColorModeSupportsBrightness(t *testing.T) {
	require.False(t, ColorModeOnOff.SupportsBrightness())
	require.False(t, ColorMode("").SupportsBrightness())
	require.True(t, ColorModeBrightness.SupportsBrightness())
	require.True(t, ColorModeRGB.SupportsBrightness())
}
