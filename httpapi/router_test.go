package httpapi

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlowe/goveemqtt/bridge"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/platform"
	"github.com/nlowe/goveemqtt/service"
)

type fakeLights []bridge.LightInfo

func (f fakeLights) Lights() []bridge.LightInfo {
	return f
}

type countingRefresher struct {
	n atomic.Int32
}

func (c *countingRefresher) TriggerRefresh() {
	c.n.Add(1)
}

func newTestServer(t *testing.T) (*httptest.Server, *[]service.Call, *countingRefresher) {
	t.Helper()

	var calls []service.Call
	var registry service.Registry
	registry.Register(service.Domain, service.NameSetPollInterval, service.HandlerFunc(func(_ context.Context, call service.Call) {
		calls = append(calls, call)
	}))

	refresher := &countingRefresher{}
	lights := fakeLights{{
		EntityID:   "light.aabb",
		EntryID:    "main",
		DeviceID:   "AA:BB",
		Name:       "Desk",
		SKU:        "H6008",
		ColorModes: []hass.ColorMode{hass.ColorModeRGB},
		State:      platform.LightState{State: hass.PowerStateOn, ColorMode: hass.ColorModeRGB},
	}}

	srv := httptest.NewServer(NewRouter(New(&registry, lights, refresher)))
	t.Cleanup(srv.Close)

	return srv, &calls, refresher
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.UnmarshalRead(resp.Body, &body))
	return body
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestListLights(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/lights")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	lights := decode(t, resp)["lights"].([]any)
	require.Len(t, lights, 1)

	l := lights[0].(map[string]any)
	assert.Equal(t, "light.aabb", l["entity_id"])
	assert.Equal(t, "ON", l["state"].(map[string]any)["state"])
}

func TestCallService(t *testing.T) {
	for _, tt := range []struct {
		name   string
		path   string
		body   string
		status int
		calls  int
	}{
		{
			name:   "Known",
			path:   "/api/services/goveemqtt/set_poll_interval",
			body:   `{"data":{"scan_interval":30,"entry_id":"main"}}`,
			status: http.StatusAccepted,
			calls:  1,
		},
		{
			name:   "Empty Body",
			path:   "/api/services/goveemqtt/set_poll_interval",
			status: http.StatusAccepted,
			calls:  1,
		},
		{
			name:   "Unknown",
			path:   "/api/services/goveemqtt/explode",
			body:   `{}`,
			status: http.StatusNotFound,
		},
		{
			name:   "Bad Json",
			path:   "/api/services/goveemqtt/set_poll_interval",
			body:   `{"data":`,
			status: http.StatusBadRequest,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls, _ := newTestServer(t)

			resp, err := srv.Client().Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tt.status, resp.StatusCode)
			require.Len(t, *calls, tt.calls)
		})
	}

	t.Run("Call Is Decoded", func(t *testing.T) {
		srv, calls, _ := newTestServer(t)

		resp, err := srv.Client().Post(
			srv.URL+"/api/services/goveemqtt/set_poll_interval",
			"application/json",
			strings.NewReader(`{"entity_id":["light.aabb"],"data":{"scan_interval":30}}`),
		)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		require.Len(t, *calls, 1)
		assert.Equal(t, []string{"light.aabb"}, (*calls)[0].Target)
		assert.Equal(t, 30.0, (*calls)[0].Data["scan_interval"])
	})
}

func TestRefresh(t *testing.T) {
	srv, _, refresher := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.EqualValues(t, 1, refresher.n.Load())
}
