// Package entry holds the per-account context shared by lights, services and the poller. One Entry exists per
// configured API key.
package entry

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/state"
)

// DefaultScanInterval is used when an entry is created without a poll interval.
const DefaultScanInterval = 60 * time.Second

// ErrInvalidScanInterval is the error returned by SetScanInterval for non-positive durations.
var ErrInvalidScanInterval = errors.New("scan interval must be positive")

// Controller sends capability commands to the cloud.
type Controller interface {
	Control(ctx context.Context, d govee.Device, cmd govee.Command) error
}

// Entry is one configured integration instance.
type Entry struct {
	ID string

	State *state.Store

	controller Controller

	mu      sync.RWMutex
	devices []govee.Device

	scanInterval atomic.Int64

	log *slog.Logger
}

func New(id string, controller Controller, devices []govee.Device) *Entry {
	e := &Entry{
		ID:         id,
		State:      state.NewStore(),
		controller: controller,
		devices:    slices.Clone(devices),

		log: log.ForComponent("entry").With(log.Entry(id)),
	}

	e.scanInterval.Store(int64(DefaultScanInterval))
	return e
}

// Devices returns the device-configuration list of this entry.
func (e *Entry) Devices() []govee.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return slices.Clone(e.devices)
}

// ScanInterval is how long the poller waits between state refreshes.
func (e *Entry) ScanInterval() time.Duration {
	return time.Duration(e.scanInterval.Load())
}

// SetScanInterval changes the poll interval. The poller picks it up after the current wait.
func (e *Entry) SetScanInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidScanInterval
	}

	e.scanInterval.Store(int64(d))
	return nil
}

// CachedValue reads the cached state of one capability of a device.
func (e *Entry) CachedValue(deviceID string, t govee.CapabilityType, instance string) (jsontext.Value, bool) {
	return e.State.Get(deviceID, t, instance)
}

// Control issues cmd for d and reports whether the cloud accepted it. Accepted values are written to the cache so the
// next state read reflects them before the next poll. Failures are logged, never returned.
func (e *Entry) Control(ctx context.Context, d govee.Device, cmd govee.Command) bool {
	l := e.log.With(log.Device(d.ID), slog.Any("command", cmd))

	if err := e.controller.Control(ctx, d, cmd); err != nil {
		l.With(log.Failure(err)...).Error("Failed to control device")
		return false
	}

	if err := e.State.Set(d.ID, cmd.Type, cmd.Instance, cmd.Value); err != nil {
		l.With(log.Error(err)).Warn("Failed to cache command value")
	}

	l.Debug("Controlled device")
	return true
}
