package hass

import (
	"encoding/json/jsontext"
	"log/slog"
)

// PowerState is the state member of a json schema light state or command.
type PowerState string

const (
	PowerStateOn  PowerState = "ON"
	PowerStateOff PowerState = "OFF"
	// PowerStateUnknown is reported when the device's power value cannot be mapped. It is encoded as a json null,
	// which the json schema light renders as unknown.
	PowerStateUnknown PowerState = ""
)

func (p PowerState) MarshalJSONTo(enc *jsontext.Encoder) error {
	if p == PowerStateUnknown {
		return enc.WriteToken(jsontext.Null)
	}

	return enc.WriteToken(jsontext.String(string(p)))
}

func (p PowerState) LogValue() slog.Value {
	if p == PowerStateUnknown {
		return slog.StringValue("unknown")
	}

	return slog.StringValue(string(p))
}
