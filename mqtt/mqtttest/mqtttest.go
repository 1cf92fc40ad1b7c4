// Package mqtttest provides in-memory implementations of mqtt.Writer and mqtt.Subscriber for tests.
package mqtttest

import (
	"context"
	"strings"
	"sync"

	"github.com/nlowe/goveemqtt/mqtt"
)

// Message is a single payload captured by a Broker.
type Message struct {
	Topic   string
	Options mqtt.WriteOptions
	Payload []byte
}

// Broker records every published message and routes messages to subscribed handlers. Wildcards are not supported,
// subscriptions match exact topics only.
type Broker struct {
	mu sync.Mutex

	messages []Message
	handlers map[string]mqtt.Handler

	// Err, when set, is returned from every WriteTopic call.
	Err error
}

var (
	_ mqtt.Writer     = &Broker{}
	_ mqtt.Subscriber = &Broker{}
)

func NewBroker() *Broker {
	return &Broker{handlers: map[string]mqtt.Handler{}}
}

func (b *Broker) WriteTopic(_ context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return b.Err
	}

	b.messages = append(b.messages, Message{Topic: topic, Options: options, Payload: append([]byte(nil), value...)})
	return nil
}

func (b *Broker) Subscribe(_ context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range subscriptions {
		b.handlers[s.Topic] = handler
	}

	return nil
}

func (b *Broker) Unsubscribe(_ context.Context, topics ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range topics {
		delete(b.handlers, t)
	}

	return nil
}

// Deliver simulates a message arriving from the broker on topic.
func (b *Broker) Deliver(topic string, payload []byte) bool {
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()

	if !ok {
		return false
	}

	h.ServeMQTT(b, topic, payload)
	return true
}

// Subscribed reports whether a handler is registered for topic.
func (b *Broker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.handlers[topic]
	return ok
}

// Messages returns a copy of all captured messages.
func (b *Broker) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Message(nil), b.messages...)
}

// Last returns the most recent message published to topic.
func (b *Broker) Last(topic string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.messages) - 1; i >= 0; i-- {
		if b.messages[i].Topic == topic {
			return b.messages[i], true
		}
	}

	return Message{}, false
}

// WithPrefix returns all captured messages whose topic starts with prefix.
func (b *Broker) WithPrefix(prefix string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result []Message
	for _, m := range b.messages {
		if strings.HasPrefix(m.Topic, prefix) {
			result = append(result, m)
		}
	}

	return result
}

// Reset drops all captured messages.
func (b *Broker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = nil
}
