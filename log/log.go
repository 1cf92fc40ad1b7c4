package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

const (
	ComponentKey = "component"
	ErrorKey     = "error"
	ErrorTypeKey = "error_type"
	EntryKey     = "entry_id"
	DeviceKey    = "device"
)

// Error returns a slog.Attr for the provided error. The key will be ErrorKey.
func Error(e error) slog.Attr {
	return slog.Any(ErrorKey, e)
}

// ErrorType returns a slog.Attr holding the dynamic Go type of the provided error (for example "*url.Error"). The key
// will be ErrorTypeKey.
func ErrorType(e error) slog.Attr {
	return slog.String(ErrorTypeKey, fmt.Sprintf("%T", e))
}

// Failure returns both the Error and ErrorType attributes for the provided error.
func Failure(e error) []any {
	return []any{Error(e), ErrorType(e)}
}

// Entry returns a slog.Attr identifying an integration entry.
func Entry(id string) slog.Attr {
	return slog.String(EntryKey, id)
}

// Device returns a slog.Attr identifying a vendor device.
func Device(id string) slog.Attr {
	return slog.String(DeviceKey, id)
}

// ParseLevel converts a configured level name into a slog.Level. Unknown names map to slog.LevelInfo.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// indirectHandler is a small wrapper around a slog.Handler that allows swapping out the underlying handler on demand.
type indirectHandler struct {
	h atomic.Pointer[slog.Handler]
}

func (i *indirectHandler) Enabled(ctx context.Context, level slog.Level) bool {
	h := i.h.Load()
	if h == nil {
		return false
	}

	return (*h).Enabled(ctx, level)
}

func (i *indirectHandler) Handle(ctx context.Context, record slog.Record) error {
	h := i.h.Load()
	if h == nil {
		return nil
	}

	return (*h).Handle(ctx, record)
}

func (i *indirectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &boundHandler{sink: i, attrs: attrs}
}

func (i *indirectHandler) WithGroup(name string) slog.Handler {
	return &boundHandler{sink: i, group: name}
}

// boundHandler remembers attributes and groups added to a logger so they are applied to whichever handler is installed
// at the time a record is handled, not the one installed when the logger was built.
type boundHandler struct {
	sink   *indirectHandler
	parent *boundHandler

	attrs []slog.Attr
	group string
}

func (b *boundHandler) resolve(h slog.Handler) slog.Handler {
	if b.parent != nil {
		h = b.parent.resolve(h)
	}

	if b.group != "" {
		h = h.WithGroup(b.group)
	}

	if len(b.attrs) > 0 {
		h = h.WithAttrs(b.attrs)
	}

	return h
}

func (b *boundHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return b.sink.Enabled(ctx, level)
}

func (b *boundHandler) Handle(ctx context.Context, record slog.Record) error {
	h := b.sink.h.Load()
	if h == nil {
		return nil
	}

	return b.resolve(*h).Handle(ctx, record)
}

func (b *boundHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &boundHandler{sink: b.sink, parent: b, attrs: attrs}
}

func (b *boundHandler) WithGroup(name string) slog.Handler {
	return &boundHandler{sink: b.sink, parent: b, group: name}
}

var (
	_ slog.Handler = &indirectHandler{}
	_ slog.Handler = &boundHandler{}
)

var (
	sink = &indirectHandler{h: atomic.Pointer[slog.Handler]{}}
)

// To updates all slog.Logger objects used internally by goveemqtt to write logs to the provided slog.Handler. By
// default, log values will be discarded unless To is called at least once with a non-discarding slog.Handler. Loggers
// constructed before To is called pick up the new handler as well.
func To(h slog.Handler) {
	sink.h.Store(&h)
}

// ForComponent constructs a slog.Logger for the specified component (which is stored in an attribute with the key
// ComponentKey).
func ForComponent(component string) *slog.Logger {
	return slog.New(sink).With(slog.String(ComponentKey, component))
}
