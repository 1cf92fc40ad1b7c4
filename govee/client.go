package govee

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nlowe/goveemqtt/log"
)

const (
	// DefaultBaseURL is the Govee OpenAPI endpoint.
	DefaultBaseURL = "https://openapi.api.govee.com"

	headerAPIKey = "Govee-API-Key"

	pathDevices    = "/router/api/v1/user/devices"
	pathState      = "/router/api/v1/device/state"
	pathControl    = "/router/api/v1/device/control"
	pathScenes     = "/router/api/v1/device/scenes"
	pathDIYScenes  = "/router/api/v1/device/diy-scenes"
	codeSuccess    = 200
	maxErrorBody   = 512
	defaultTimeout = 10 * time.Second
)

// Client calls the Govee OpenAPI. It never retries: a failed call is reported to the caller and dropped.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	log *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u = strings.TrimSuffix(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default http.Client, which times out after 10 seconds.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient constructs a Client for the provided API key.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},

		log: log.ForComponent("govee"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type envelope[T any] struct {
	RequestID string `json:"requestId,omitzero"`
	Code      int    `json:"code"`
	Message   string `json:"message,omitzero"`
	Msg       string `json:"msg,omitzero"`
	Data      T      `json:"data,omitzero"`
	Payload   T      `json:"payload,omitzero"`
}

func (e envelope[T]) message() string {
	if e.Msg != "" {
		return e.Msg
	}

	return e.Message
}

type deviceRequest struct {
	RequestID string         `json:"requestId"`
	Payload   requestPayload `json:"payload"`
}

type requestPayload struct {
	SKU        string   `json:"sku"`
	Device     string   `json:"device"`
	Capability *Command `json:"capability,omitzero"`
}

type statePayload struct {
	SKU          string `json:"sku"`
	Device       string `json:"device"`
	Capabilities []struct {
		Type     CapabilityType `json:"type"`
		Instance string         `json:"instance"`
		State    struct {
			Value jsontext.Value `json:"value"`
		} `json:"state"`
	} `json:"capabilities"`
}

type scenePayload struct {
	Capabilities []Capability `json:"capabilities"`
}

// Devices lists every device of the account along with its capabilities.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var resp envelope[[]Device]
	if err := c.do(ctx, http.MethodGet, pathDevices, nil, &resp); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	return resp.Data, nil
}

// State fetches the current value of every capability of d.
func (c *Client) State(ctx context.Context, d Device) ([]CapabilityState, error) {
	var resp envelope[statePayload]
	if err := c.do(ctx, http.MethodPost, pathState, c.deviceRequest(d, nil), &resp); err != nil {
		return nil, fmt.Errorf("state %s: %w", d.ID, err)
	}

	result := make([]CapabilityState, 0, len(resp.Payload.Capabilities))
	for _, cs := range resp.Payload.Capabilities {
		result = append(result, CapabilityState{Type: cs.Type, Instance: cs.Instance, Value: cs.State.Value})
	}

	return result, nil
}

// Control sends a single capability command to d.
func (c *Client) Control(ctx context.Context, d Device, cmd Command) error {
	var resp envelope[jsontext.Value]
	if err := c.do(ctx, http.MethodPost, pathControl, c.deviceRequest(d, &cmd), &resp); err != nil {
		return fmt.Errorf("control %s %s/%s: %w", d.ID, cmd.Type, cmd.Instance, err)
	}

	return nil
}

// Scenes lists the built-in dynamic scenes of d.
func (c *Client) Scenes(ctx context.Context, d Device) ([]Capability, error) {
	return c.scenes(ctx, pathScenes, d)
}

// DIYScenes lists the user created scenes of d.
func (c *Client) DIYScenes(ctx context.Context, d Device) ([]Capability, error) {
	return c.scenes(ctx, pathDIYScenes, d)
}

func (c *Client) scenes(ctx context.Context, path string, d Device) ([]Capability, error) {
	var resp envelope[scenePayload]
	if err := c.do(ctx, http.MethodPost, path, c.deviceRequest(d, nil), &resp); err != nil {
		return nil, fmt.Errorf("scenes %s: %w", d.ID, err)
	}

	return resp.Payload.Capabilities, nil
}

func (c *Client) deviceRequest(d Device, cmd *Command) *deviceRequest {
	return &deviceRequest{
		RequestID: uuid.NewString(),
		Payload: requestPayload{
			SKU:        d.SKU,
			Device:     d.ID,
			Capability: cmd,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out interface{ checkCode() (int, string) }) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	l := c.log.With(slog.String("method", method), slog.String("path", path))
	l.Debug("Calling govee api")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err = json.UnmarshalRead(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if code, msg := out.checkCode(); code != codeSuccess {
		return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
	}

	l.With(slog.Int("status", resp.StatusCode)).Debug("Govee api call succeeded")
	return nil
}

func (e *envelope[T]) checkCode() (int, string) {
	return e.Code, e.message()
}
