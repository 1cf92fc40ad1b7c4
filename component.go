package goveemqtt

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"strings"

	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/mqtt"
)

// ErrComponentAlreadySubscribed is the error returned by Component.Subscribe when it has already been subscribed. Call
// Component.Unsubscribe first.
var ErrComponentAlreadySubscribed = errors.New("component already subscribed")

// Component is one Home Assistant entity of a Device. It implements json.MarshalerTo by encoding the component for a
// Home Assistant Device Discovery payload.
type Component[TPlatform Platform] struct {
	Platform    TPlatform
	TopicPrefix string

	// The name of the entity. Leave empty if only the device name is relevant, which is the case for lights.
	Name string

	EntityCategory hass.EntityCategory
	Icon           string

	// Identifies to home assistant whether this entity is available
	Availability *mqtt.Value[hass.Availability] `goveemqtt:"required"`

	// Suggested entity id, for example `light.living_room`.
	DefaultEntityID string

	// An ID that uniquely identifies this entity. Required with device-based discovery.
	UniqueID string `goveemqtt:"required"`

	WriteOptions mqtt.WriteOptions

	subscribedTopics []string
}

// Subscribe registers the platform's command topics with the provided mqtt.Subscriber. The subscriptions can be removed
// by calling Unsubscribe.
func (c *Component[TPlatform]) Subscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) != 0 {
		return ErrComponentAlreadySubscribed
	}

	subscriptions := c.Platform.Subscriptions(c.TopicPrefix)
	if len(subscriptions) == 0 {
		return nil
	}

	c.subscribedTopics = make([]string, len(subscriptions))
	for i, subscription := range subscriptions {
		c.subscribedTopics[i] = subscription.Topic
	}

	return s.Subscribe(ctx, mqtt.HandlerFunc(func(w mqtt.Writer, topic string, payload []byte) {
		rest, ok := strings.CutPrefix(topic, mqtt.TrimTopic(c.TopicPrefix))
		if !ok {
			return
		}

		c.Platform.ServeMQTT(w, mqtt.TrimTopic(rest), payload)
	}), subscriptions...)
}

// Unsubscribe removes the subscriptions created by Subscribe.
func (c *Component[TPlatform]) Unsubscribe(ctx context.Context, s mqtt.Subscriber) error {
	if len(c.subscribedTopics) == 0 {
		return nil
	}

	topics := c.subscribedTopics
	c.subscribedTopics = nil

	return s.Unsubscribe(ctx, topics...)
}

// SetAvailability publishes the availability of this entity.
func (c *Component[TPlatform]) SetAvailability(ctx context.Context, w mqtt.Writer, a hass.Availability) error {
	return mqtt.Error(c.Availability.Write(ctx, w, c.TopicPrefix, a))
}

func (c *Component[TPlatform]) MarshalJSONTo(e *jsontext.Encoder) error {
	o := discovery.Open(e)

	discovery.Require(o, discovery.FieldPlatform, c.Platform.PlatformName())
	o.Nullable(discovery.FieldName, c.Name)
	discovery.Require(o, discovery.FieldUniqueID, c.UniqueID)
	discovery.Set(o, discovery.FieldDefaultEntityID, c.DefaultEntityID)
	discovery.Set(o, discovery.FieldEntityCategory, c.EntityCategory)
	discovery.Set(o, discovery.FieldIcon, c.Icon)

	o.RequireTopic(discovery.FieldAvailabilityTopic, c.Availability.FullyQualifiedTopic(c.TopicPrefix))
	discovery.Set(o, discovery.FieldQualityOfService, c.WriteOptions.QoS)
	discovery.Set(o, discovery.FieldRetain, c.WriteOptions.Retain)

	c.Platform.WriteDiscovery(o, c.TopicPrefix)

	if err := o.Close(); err != nil {
		return fmt.Errorf("component %s: %w", c.UniqueID, err)
	}

	return nil
}
