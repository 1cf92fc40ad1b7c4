package goveemqtt

import (
	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/mqtt"
)

// Platform is the interface implemented by every Home Assistant entity type the bridge exposes (see the platform
// package).
type Platform interface {
	mqtt.Handler

	// WriteDiscovery adds the platform specific fields of the component to o, resolving topics against prefix.
	WriteDiscovery(o *discovery.Object, prefix string)

	// PlatformName returns the value for the `platform` field of the component in the discovery payload.
	PlatformName() string

	// Subscriptions returns the command topics Home Assistant writes to for this platform.
	Subscriptions(prefix string) []mqtt.Subscription
}
