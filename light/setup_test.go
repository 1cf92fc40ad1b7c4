package light

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
)

type nopController struct{}

func (nopController) Control(context.Context, govee.Device, govee.Command) error {
	return nil
}

func TestSetup(t *testing.T) {
	heater := govee.Device{SKU: "H7130", ID: "heater", Type: govee.DeviceTypeHeater}

	t.Run("Lights Only", func(t *testing.T) {
		e := entry.New("entry", nopController{}, []govee.Device{heater, fullDevice})

		lights, err := Setup(t.Context(), e, nil)
		require.NoError(t, err)
		require.Len(t, lights, 1)
		assert.Equal(t, fullDevice.ID, lights[0].Device.ID)
		assert.Equal(t, "entry", lights[0].EntryID)

		lights[0].TurnOn(t.Context(), TurnOnRequest{})
		assert.True(t, lights[0].IsOn(), "lights read the entry cache")
	})

	t.Run("No Lights", func(t *testing.T) {
		e := entry.New("entry", nopController{}, []govee.Device{heater})

		lights, err := Setup(t.Context(), e, nil)
		require.NoError(t, err)
		require.Nil(t, lights)
	})

	t.Run("Invalid Device Aborts", func(t *testing.T) {
		e := entry.New("entry", nopController{}, []govee.Device{fullDevice, {Type: govee.DeviceTypeLight}})

		lights, err := Setup(t.Context(), e, nil)
		require.ErrorIs(t, err, ErrInvalidDevice)
		require.Nil(t, lights)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := Setup(ctx, entry.New("entry", nopController{}, []govee.Device{fullDevice}), nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}
