package goveemqtt

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/nlowe/goveemqtt/discovery"
	"github.com/nlowe/goveemqtt/mqtt"
)

// ErrInvalidDevice is the error returned by Device.Configure and Device.Valid if it is not properly configured.
var ErrInvalidDevice = errors.New("device must have at least one value in 'identifiers'")

// Device is a Home Assistant device. Each vendor light is one Device with a single light component, and each
// integration entry is a Device carrying the bridge's own diagnostic components.
//
// See https://www.home-assistant.io/integrations/mqtt/#device-discovery-payload
type Device struct {
	// The ID to use for discovery. If empty, an ID is calculated from Identifiers.
	DiscoveryID string `json:"-"`

	Name         string `json:"name,omitempty"`
	Manufacturer string `json:"mf,omitempty"`
	Model        string `json:"mdl,omitempty"`
	ModelID      string `json:"mdl_id,omitempty"`

	FirmwareVersion string `json:"sw,omitempty"`

	// A list of IDs that uniquely identify the device. The vendor device id for lights.
	Identifiers []string `json:"ids,omitempty"`

	SuggestedArea string `json:"sa,omitempty"`

	// If nil, DefaultOrigin is used when serializing the discovery payload.
	Origin *Origin `json:"-"`

	// Identifier of the device that routes messages for this one. Lights point at their entry's bridge device.
	ViaDevice string `json:"via_device,omitempty"`
}

// ID calculates an identifier for this device. If Device.DiscoveryID is specified, that value will be used. Otherwise
// the sanitized Identifiers are joined with discovery.IDSep.
func (d *Device) ID() string {
	if d.DiscoveryID != "" {
		return d.DiscoveryID
	}

	parts := make([]string, 0, len(d.Identifiers))
	for _, ident := range d.Identifiers {
		parts = append(parts, discovery.IDSanitizer.Replace(ident))
	}

	return strings.Join(parts, discovery.IDSep)
}

// Valid checks if this Device is configured appropriately.
func (d *Device) Valid() error {
	if len(d.Identifiers) == 0 {
		return ErrInvalidDevice
	}

	return nil
}

func (d *Device) configTopic(discoveryPrefix string) string {
	return fmt.Sprintf(`%s/device/%s/config`, discoveryPrefix, d.ID())
}

// Configure publishes the retained device discovery payload for this device and the provided components.
func (d *Device) Configure(ctx context.Context, w mqtt.Writer, discoveryPrefix string, components map[string]json.MarshalerTo) error {
	if err := d.Valid(); err != nil {
		return err
	}

	var buf bytes.Buffer
	e := jsontext.NewEncoder(
		&buf,
		jsontext.CanonicalizeRawInts(true),
		jsontext.CanonicalizeRawFloats(true),
	)

	o := discovery.Open(e)
	discovery.Embed(o, discovery.FieldDevice, d)
	discovery.Embed(o, discovery.FieldOrigin, cmp.Or(d.Origin, &DefaultOrigin))

	o.Key(discovery.FieldComponents)

	err := o.Err()
	if err == nil {
		cmps := discovery.Open(e)
		discovery.Inline(cmps, components)
		err = errors.Join(cmps.Close(), o.Close())
	}

	if err != nil {
		return fmt.Errorf("configure: marshal discovery config: %w", err)
	}

	return w.WriteTopic(ctx, d.configTopic(discoveryPrefix), mqtt.WriteOptions{Retain: true}, buf.Bytes())
}
