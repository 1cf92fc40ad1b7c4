package httpapi

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"net/http"

	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/service"
)

const maxBody = 1 << 20

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ListLights returns every exposed light with its derived state.
func (a *API) ListLights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"lights": a.lights.Lights()})
}

// Refresh polls every entry right away.
func (a *API) Refresh(w http.ResponseWriter, _ *http.Request) {
	for _, r := range a.refresher {
		r.TriggerRefresh()
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "refresh_scheduled"})
}

// CallService invokes a registered service. Service failures are logged by the service and never surfaced, so known
// services always answer 202.
func (a *API) CallService(w http.ResponseWriter, r *http.Request, domain, name string) {
	if !a.services.Has(domain, name) {
		writeError(w, http.StatusNotFound, "unknown_service", "Unknown service "+domain+"."+name)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return
	}

	var call service.Call
	if len(bytes.TrimSpace(body)) > 0 {
		if err = json.Unmarshal(body, &call); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "Request body must be a service call object")
			return
		}
	}

	if err = a.services.Call(r.Context(), domain, name, call); err != nil {
		a.log.With(log.Failure(err)...).Error("Service call failed")
		writeError(w, http.StatusNotFound, "unknown_service", "Unknown service "+domain+"."+name)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "called"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
