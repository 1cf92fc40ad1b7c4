package autopaho

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/mqtt"
)

// ErrNoBroker is the error returned by DialMQTT when Options.Broker is not configured.
var ErrNoBroker = errors.New("mqtt broker url is required")

// Will is the last-will message the broker publishes when this client disconnects ungracefully.
type Will struct {
	Topic   string
	Payload []byte
}

// Options configures the connection to the MQTT broker.
type Options struct {
	Broker   *url.URL
	ClientID string
	Username string
	Password string

	// KeepAlive is the keepalive interval in seconds. Defaults to 20.
	KeepAlive uint16

	Will *Will
}

func (o Options) LogValue() slog.Value {
	broker := ""
	if o.Broker != nil {
		broker = o.Broker.Redacted()
	}

	return slog.GroupValue(
		slog.String("broker", broker),
		slog.String("client_id", o.ClientID),
		slog.Bool("auth", o.Username != ""),
	)
}

type adapter struct {
	mu sync.Mutex

	conn *autopaho.ConnectionManager
	r    paho.Router

	subscriptions map[string]paho.SubscribeOptions

	log *slog.Logger
}

var _ mqtt.Writer = &adapter{}
var _ mqtt.Subscriber = &adapter{}

func clientConfig(opts Options, logger *slog.Logger) (autopaho.ClientConfig, error) {
	if opts.Broker == nil {
		return autopaho.ClientConfig{}, ErrNoBroker
	}

	keepAlive := opts.KeepAlive
	if keepAlive == 0 {
		keepAlive = 20
	}

	cfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{opts.Broker},
		KeepAlive:  keepAlive,

		// Keep the session for a minute so commands published by Home Assistant during a short reconnect are not
		// lost.
		SessionExpiryInterval: 60,

		ConnectUsername: opts.Username,
		ConnectPassword: []byte(opts.Password),

		OnConnectError: func(err error) {
			logger.With(log.Error(err)).Error("Mqtt connection error")
		},

		ClientConfig: paho.ClientConfig{
			ClientID: opts.ClientID,
			OnClientError: func(err error) {
				logger.With(log.Error(err)).Error("Mqtt client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				l := logger.With(slog.Int("reason", int(d.ReasonCode)))
				if d.Properties != nil {
					l = l.With(slog.String("reason_string", d.Properties.ReasonString))
				}

				l.Warn("Disconnected from server")
			},
		},
	}

	if opts.Will != nil {
		cfg.WillMessage = &paho.WillMessage{
			Retain:  true,
			QoS:     1,
			Topic:   opts.Will.Topic,
			Payload: opts.Will.Payload,
		}
	}

	return cfg, nil
}

// DialMQTT connects to the configured broker and blocks until the first connection is established. It returns a
// mqtt.Writer and mqtt.Subscriber backed by the connection, and a function to disconnect gracefully. Subscriptions are
// re-sent whenever the connection comes back up.
func DialMQTT(ctx context.Context, opts Options) (mqtt.Writer, mqtt.Subscriber, func(ctx context.Context) error, error) {
	a := &adapter{
		r: paho.NewStandardRouter(),

		subscriptions: map[string]paho.SubscribeOptions{},

		log: log.ForComponent("autopaho"),
	}

	config, err := clientConfig(opts, a.log)
	if err != nil {
		return nil, nil, nil, err
	}

	config.OnConnectionUp = func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
		a.log.Info("Mqtt connected")
		a.onReconnect(ctx)
	}

	// Hold the lock while connecting so the first OnConnectionUp callback blocks until a.conn is assigned.
	a.mu.Lock()
	a.log.With(slog.Any("options", opts)).Info("Connecting to mqtt broker")
	conn, err := autopaho.NewConnection(ctx, config)
	if err != nil {
		a.mu.Unlock()
		return nil, nil, nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	a.conn = conn
	a.mu.Unlock()

	if err = conn.AwaitConnection(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("mqtt: wait for connection: %w", err)
	}

	conn.AddOnPublishReceived(func(rx autopaho.PublishReceived) (bool, error) {
		a.r.Route(rx.Packet.Packet())
		return true, nil
	})

	return a, a, conn.Disconnect, nil
}

func (a *adapter) onReconnect(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.subscriptions) == 0 {
		return
	}

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, 0, len(a.subscriptions)),
	}

	for _, s := range a.subscriptions {
		sub.Subscriptions = append(sub.Subscriptions, s)
	}

	a.log.Debug("Re-sending subscriptions")
	if _, err := a.conn.Subscribe(ctx, sub); err != nil {
		a.log.With(log.Error(err)).Error("Failed to re-subscribe to mqtt topics")
	}
}

func (a *adapter) WriteTopic(ctx context.Context, topic string, options mqtt.WriteOptions, value []byte) error {
	a.log.With(slog.String("topic", topic), slog.Any("options", options)).Debug("Publishing payload")

	_, err := a.conn.Publish(ctx, &paho.Publish{
		QoS:     uint8(options.QoS),
		Retain:  options.Retain,
		Topic:   topic,
		Payload: value,
	})

	return err
}

func (a *adapter) Subscribe(ctx context.Context, handler mqtt.Handler, subscriptions ...mqtt.Subscription) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(subscriptions) == 0 {
		return nil
	}

	sub := &paho.Subscribe{
		Subscriptions: make([]paho.SubscribeOptions, len(subscriptions)),
	}

	for i, s := range subscriptions {
		opts := paho.SubscribeOptions{
			Topic:   s.Topic,
			QoS:     uint8(s.Options.QoS),
			NoLocal: s.Options.NoLocal,
		}

		a.subscriptions[s.Topic] = opts
		sub.Subscriptions[i] = opts

		a.r.RegisterHandler(s.Topic, func(publish *paho.Publish) {
			handler.ServeMQTT(a, publish.Topic, publish.Payload)
		})
	}

	a.log.With(slog.Any("subscriptions", subscriptions)).Debug("Subscribing to mqtt topics")
	_, err := a.conn.Subscribe(ctx, sub)
	return err
}

func (a *adapter) Unsubscribe(ctx context.Context, topics ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, t := range topics {
		delete(a.subscriptions, t)
		a.r.UnregisterHandler(t)
	}

	a.log.With(slog.Any("topics", topics)).Debug("Unsubscribing from mqtt topics")
	_, err := a.conn.Unsubscribe(ctx, &paho.Unsubscribe{
		Topics: topics,
	})

	return err
}
