// Package platform contains the Home Assistant MQTT platforms exposed by the bridge: a json-schema Light for each vendor
// light and a Sensor for bridge diagnostics.
//
// Each implementation satisfies the goveemqtt.Platform interface. Required fields are tagged with
// `goveemqtt:"required"` and checked when marshaling for discovery.
package platform
