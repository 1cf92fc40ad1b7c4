package mqtt

import (
	"context"
	"log/slog"
)

// Subscription is one topic filter the bridge listens on.
type Subscription struct {
	Topic   string
	Options ReadOptions
}

func (s Subscription) String() string {
	return s.Topic
}

func (s Subscription) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("topic", s.Topic),
		slog.Any("options", s.Options),
	)
}

// Handler receives messages for a subscription. Handlers run on the client's receive path: anything that talks to the
// vendor cloud has to be started on its own goroutine. message must not be retained after ServeMQTT returns.
type Handler interface {
	ServeMQTT(w Writer, topic string, message []byte)
}

type HandlerFunc func(Writer, string, []byte)

func (f HandlerFunc) ServeMQTT(w Writer, topic string, message []byte) {
	f(w, topic, message)
}

// Subscriber manages subscriptions on the MQTT connection.
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler, subscriptions ...Subscription) error
	Unsubscribe(ctx context.Context, topics ...string) error
}
