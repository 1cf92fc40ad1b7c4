package goveemqtt

import "net/url"

// Origin provides information about the software providing devices over MQTT to Home Assistant. Home Assistant
// requires it for device-based discovery.
type Origin struct {
	// The name of the application that is the origin of the discovered MQTT item.
	Name string `json:"name"`
	// Software version of the application that supplies the discovered MQTT item.
	SoftwareVersion string `json:"sw,omitempty"`
	// Support URL of the application that supplies the discovered MQTT item.
	SupportURL *url.URL `json:"url,omitempty"`
}

// Version is reported as the origin software version. Overridden at build time with -ldflags.
var Version = "dev"

var (
	supportURL, _ = url.Parse("https://github.com/nlowe/goveemqtt")

	// DefaultOrigin is used for devices that do not specify an Origin.
	DefaultOrigin = Origin{
		Name:            "goveemqtt",
		SoftwareVersion: Version,
		SupportURL:      supportURL,
	}
)
