package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/platform"
)

func TestCommandQueue(t *testing.T) {
	var q commandQueue

	_, ok := q.next()
	require.False(t, ok)

	require.True(t, q.push(platform.LightCommand{State: hass.PowerStateOn}), "first push starts a drain")
	require.False(t, q.push(platform.LightCommand{State: hass.PowerStateOff}), "a drain is already running")

	cmd, ok := q.next()
	require.True(t, ok)
	assert.Equal(t, hass.PowerStateOn, cmd.State)

	require.False(t, q.push(platform.LightCommand{State: hass.PowerStateOn}))

	cmd, _ = q.next()
	assert.Equal(t, hass.PowerStateOff, cmd.State)
	cmd, _ = q.next()
	assert.Equal(t, hass.PowerStateOn, cmd.State)

	_, ok = q.next()
	require.False(t, ok, "drain ends once the queue is empty")
	require.True(t, q.push(platform.LightCommand{}), "the next push starts a new drain")
}
