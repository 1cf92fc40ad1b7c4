package hass

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPowerStateJSON(t *testing.T) {
	for _, tt := range []struct {
		state PowerState
		want  string
	}{
		{state: PowerStateOn, want: `"ON"`},
		{state: PowerStateOff, want: `"OFF"`},
		{state: PowerStateUnknown, want: `null`},
	} {
		t.Run(tt.want, func(t *testing.T) {
			data, err := json.Marshal(tt.state)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(data))

			var got PowerState
			require.NoError(t, json.Unmarshal(data, &got))
			require.Equal(t, tt.state, got)
		})
	}
}
