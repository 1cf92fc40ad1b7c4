package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nlowe/goveemqtt/log"
)

// ErrNoMarshaler is the error returned by Value.Write when the Value has no ValueMarshaler.
var ErrNoMarshaler = errors.New("no marshaler configured")

// Value is something the bridge publishes, such as the state document of a light. The topic is relative to the prefix
// passed to Write.
type Value[T any] struct {
	topic     string
	marshaler ValueMarshaler[T]
	opts      WriteOptions

	mu      sync.RWMutex
	v       T
	written bool
}

func NewValue[T any](topic string, marshal ValueMarshaler[T]) *Value[T] {
	return NewValueWithOptions(topic, marshal, WriteOptions{})
}

func NewValueWithOptions[T any](topic string, marshal ValueMarshaler[T], opts WriteOptions) *Value[T] {
	return &Value[T]{topic: topic, marshaler: marshal, opts: opts}
}

// FullyQualifiedTopic joins prefix and the topic of v. A nil Value has no topic.
func (v *Value[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// Get returns the last value passed to a successful marshal in Write.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.written
}

// Write publishes next under prefix and remembers it. Concurrent writes of the same Value are serialized so the broker
// sees them in the order they were accepted.
func (v *Value[T]) Write(ctx context.Context, w Writer, prefix string, next T) (T, error) {
	if v.marshaler == nil {
		return next, ErrNoMarshaler
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.marshaler(next)
	if err != nil {
		return v.v, fmt.Errorf("marshal %s: %w", v.topic, err)
	}

	v.v, v.written = next, true
	return next, w.WriteTopic(ctx, JoinTopic(prefix, v.topic), v.opts, data)
}

// RemoteValue is something Home Assistant publishes for the bridge, such as a light command or its own status.
type RemoteValue[T any] struct {
	topic       string
	unmarshaler ValueUnmarshaler[T]

	mu       sync.RWMutex
	watchers []func(T)
	v        T
	received bool

	log *slog.Logger
}

func NewRemoteValue[T any](topic string, unmarshaler ValueUnmarshaler[T]) *RemoteValue[T] {
	if unmarshaler == nil {
		unmarshaler = JSONUnmarshaler[T]()
	}

	return &RemoteValue[T]{
		topic:       topic,
		unmarshaler: unmarshaler,
		log:         log.ForComponent("mqtt.remote").With(slog.String("topic", topic)),
	}
}

// ServeMQTT decodes payloads for the exact topic of v and passes them to every watcher. Payloads that fail to decode
// are logged and dropped.
func (v *RemoteValue[T]) ServeMQTT(_ Writer, topic string, payload []byte) {
	if v == nil || topic != v.topic {
		return
	}

	parsed, err := v.unmarshaler(payload)
	if err != nil {
		v.log.With(log.Error(err)).Warn("Dropping malformed payload")
		return
	}

	v.mu.Lock()
	v.v, v.received = parsed, true
	watchers := v.watchers
	v.mu.Unlock()

	for _, w := range watchers {
		w(parsed)
	}
}

// FullyQualifiedTopic joins prefix and the topic of v. A nil RemoteValue has no topic.
func (v *RemoteValue[T]) FullyQualifiedTopic(prefix string) string {
	if v == nil {
		return ""
	}

	return JoinTopic(prefix, v.topic)
}

// AppendSubscribeOptions appends the subscription for v, if any.
func (v *RemoteValue[T]) AppendSubscribeOptions(existing []Subscription, prefix string) []Subscription {
	if v == nil || v.topic == "" {
		return existing
	}

	return append(existing, Subscription{Topic: v.FullyQualifiedTopic(prefix)})
}

// Get returns the last decoded payload.
func (v *RemoteValue[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.v, v.received
}

// Watch registers a callback for every decoded payload. Callbacks run on the MQTT client's goroutine and must not
// block.
func (v *RemoteValue[T]) Watch(callback func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.watchers = append(v.watchers[:len(v.watchers):len(v.watchers)], callback)
}
