// Package discovery writes Home Assistant device discovery payloads. Field names are the abbreviated forms Home
// Assistant accepts, which keeps the retained config messages small.
//
// See https://www.home-assistant.io/integrations/mqtt/#supported-abbreviations-in-mqtt-discovery-messages
package discovery
