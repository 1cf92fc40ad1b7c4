package mqtt

import (
	"fmt"
	"log/slog"
)

// QualityOfService is the MQTT delivery guarantee of a publish or subscription.
type QualityOfService uint8

const (
	QOSAtMostOnce QualityOfService = iota
	QOSAtLeastOnce
	QOSExactlyOnce
)

func (q QualityOfService) String() string {
	switch q {
	case QOSAtMostOnce:
		return "at most once (0)"
	case QOSAtLeastOnce:
		return "at least once (1)"
	case QOSExactlyOnce:
		return "exactly once (2)"
	default:
		return fmt.Sprintf("invalid (%d)", uint8(q))
	}
}

func (q QualityOfService) LogValue() slog.Value {
	return slog.StringValue(q.String())
}

// WriteOptions configures a publish. The zero value publishes with QoS 0 and no retain.
type WriteOptions struct {
	QoS    QualityOfService
	Retain bool
}

func (w WriteOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", w.QoS),
		slog.Bool("retain", w.Retain),
	)
}

// ReadOptions configures a subscription.
type ReadOptions struct {
	QoS QualityOfService

	// NoLocal asks the broker not to echo messages this client published.
	NoLocal bool
}

func (r ReadOptions) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("qos", r.QoS),
		slog.Bool("no_local", r.NoLocal),
	)
}
