package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/light"
	"github.com/nlowe/goveemqtt/log"
)

const (
	NameSetPollInterval  = "set_poll_interval"
	NameSetSegmentColors = "set_segment_colors"

	FieldScanInterval = "scan_interval"
	FieldEntryID      = "entry_id"
	FieldSegments     = "segments"
)

var (
	// ErrMissingField is logged when a required call field is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidField is logged when a call field has the wrong type.
	ErrInvalidField = errors.New("invalid field")
)

// IntervalStore persists the poll interval of an entry.
type IntervalStore interface {
	SaveScanInterval(ctx context.Context, entryID string, interval time.Duration) error
}

// LightFinder resolves entity ids to lights.
type LightFinder interface {
	Light(entityID string) (*light.Light, bool)
}

// SetPollInterval changes how often an entry is polled. The new interval applies after the next poll.
type SetPollInterval struct {
	Entries *entry.Registry
	// Store is optional
	Store IntervalStore
}

func (s *SetPollInterval) Handle(ctx context.Context, call Call) {
	l := log.ForComponent("service").With(slog.String("service", NameSetPollInterval))

	raw, ok := call.Data[FieldScanInterval]
	if !ok || raw == nil {
		l.With(log.Error(fmt.Errorf("%s: %w", FieldScanInterval, ErrMissingField))).Error("Service call failed")
		return
	}

	seconds, err := number(raw)
	if err != nil {
		l.With(log.Failure(fmt.Errorf("%s: %w", FieldScanInterval, err))...).Error("Service call failed")
		return
	}

	entryID, _ := call.Data[FieldEntryID].(string)
	if entryID == "" {
		l.With(log.Error(fmt.Errorf("%s: %w", FieldEntryID, ErrMissingField))).Error("Service call failed")
		return
	}

	l = l.With(log.Entry(entryID))

	e, ok := s.Entries.Get(entryID)
	if !ok {
		l.Error("Unknown entry")
		return
	}

	interval := time.Duration(seconds * float64(time.Second))
	if err = e.SetScanInterval(interval); err != nil {
		l.With(log.Failure(err)...).Error("Service call failed")
		return
	}

	if s.Store != nil {
		if err = s.Store.SaveScanInterval(ctx, entryID, interval); err != nil {
			l.With(log.Failure(err)...).Warn("Failed to persist poll interval")
		}
	}

	l.With(slog.Duration("interval", interval)).Info("Poll interval updated, change active after next poll")
}

// SetSegmentColors sends the segments list of the call as a segmentColor command to the first target light.
type SetSegmentColors struct {
	Lights LightFinder
}

func (s *SetSegmentColors) Handle(ctx context.Context, call Call) {
	l := log.ForComponent("service").With(slog.String("service", NameSetSegmentColors))

	if len(call.Target) == 0 {
		l.With(log.Error(fmt.Errorf("entity_id: %w", ErrMissingField))).Error("Service call failed")
		return
	}

	entityID := call.Target[0]
	l = l.With(slog.String("entity_id", entityID))

	target, ok := s.Lights.Light(entityID)
	if !ok {
		l.Error("Entity not found")
		return
	}

	segments, ok := call.Data[FieldSegments]
	if !ok || segments == nil {
		segments = []any{}
	}

	target.Control(ctx, govee.Command{
		Type:     govee.CapabilitySegmentColorSetting,
		Instance: govee.InstanceSegmentColor,
		Value:    segments,
	})
}

// SetupServices registers every service of this bridge. Calling it again is a no-op.
func SetupServices(r *Registry, entries *entry.Registry, store IntervalStore, lights LightFinder) {
	r.Register(Domain, NameSetPollInterval, &SetPollInterval{Entries: entries, Store: store})
	r.Register(Domain, NameSetSegmentColors, &SetSegmentColors{Lights: lights})
}

func number(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidField, n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: unexpected %T", ErrInvalidField, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidField, f)
	}

	return f, nil
}
