// Package govee models the Govee cloud capability schema and implements the few OpenAPI endpoints needed to list,
// poll and control devices.
package govee

import (
	"encoding/json/jsontext"
	"log/slog"
)

// CapabilityType identifies a family of device functionality. Unknown values are kept as-is.
type CapabilityType string

const (
	CapabilityOnOff               CapabilityType = "devices.capabilities.on_off"
	CapabilityToggle              CapabilityType = "devices.capabilities.toggle"
	CapabilityRange               CapabilityType = "devices.capabilities.range"
	CapabilityMode                CapabilityType = "devices.capabilities.mode"
	CapabilityColorSetting        CapabilityType = "devices.capabilities.color_setting"
	CapabilitySegmentColorSetting CapabilityType = "devices.capabilities.segment_color_setting"
	CapabilityMusicSetting        CapabilityType = "devices.capabilities.music_setting"
	CapabilityDynamicScene        CapabilityType = "devices.capabilities.dynamic_scene"
	CapabilityWorkMode            CapabilityType = "devices.capabilities.work_mode"
	CapabilityTemperatureSetting  CapabilityType = "devices.capabilities.temperature_setting"
	CapabilityOnline              CapabilityType = "devices.capabilities.online"
	CapabilityProperty            CapabilityType = "devices.capabilities.property"
)

// Well known capability instances.
const (
	InstancePowerSwitch       = "powerSwitch"
	InstanceBrightness        = "brightness"
	InstanceColorRGB          = "colorRgb"
	InstanceColorTemperatureK = "colorTemperatureK"
	InstanceSegmentColor      = "segmentColor"
	InstanceLightScene        = "lightScene"
	InstanceDIYScene          = "diyScene"
	InstanceSnapshot          = "snapshot"
	InstanceOnline            = "online"
)

// DeviceType is the vendor classification of a device.
type DeviceType string

const (
	DeviceTypeLight       DeviceType = "devices.types.light"
	DeviceTypeAirPurifier DeviceType = "devices.types.air_purifier"
	DeviceTypeThermometer DeviceType = "devices.types.thermometer"
	DeviceTypeSocket      DeviceType = "devices.types.socket"
	DeviceTypeSensor      DeviceType = "devices.types.sensor"
	DeviceTypeHeater      DeviceType = "devices.types.heater"
	DeviceTypeHumidifier  DeviceType = "devices.types.humidifier"
	DeviceTypeFan         DeviceType = "devices.types.fan"
)

// Range bounds an integer capability such as brightness or color temperature.
type Range struct {
	Min       int `json:"min"`
	Max       int `json:"max"`
	Precision int `json:"precision,omitzero"`
}

// Option is one selectable value of an ENUM capability, for example a scene. Value is arbitrary JSON, usually an
// integer or an object with a scene id and code.
type Option struct {
	Name  string         `json:"name"`
	Value jsontext.Value `json:"value,omitzero"`
}

// Field describes one member of a STRUCT capability such as segmentColor.
type Field struct {
	FieldName    string      `json:"fieldName"`
	DataType     string      `json:"dataType,omitzero"`
	Required     bool        `json:"required,omitzero"`
	Options      []Option    `json:"options,omitzero"`
	Range        *Range      `json:"range,omitzero"`
	ElementRange *Range      `json:"elementRange,omitzero"`
	Size         *SizeBounds `json:"size,omitzero"`
}

// SizeBounds limits the length of ARRAY fields.
type SizeBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Parameters describes the values a capability accepts.
type Parameters struct {
	DataType string   `json:"dataType,omitzero"`
	Unit     string   `json:"unit,omitzero"`
	Options  []Option `json:"options,omitzero"`
	Range    *Range   `json:"range,omitzero"`
	Fields   []Field  `json:"fields,omitzero"`
}

// Capability is one capability descriptor from the device list.
type Capability struct {
	Type       CapabilityType `json:"type"`
	Instance   string         `json:"instance"`
	Parameters Parameters     `json:"parameters,omitzero"`
}

func (c Capability) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(c.Type)),
		slog.String("instance", c.Instance),
		slog.Int("options", len(c.Parameters.Options)),
	)
}

// Device is one device of an account as returned by the device list.
type Device struct {
	SKU          string       `json:"sku"`
	ID           string       `json:"device"`
	Name         string       `json:"deviceName,omitzero"`
	Type         DeviceType   `json:"type"`
	Capabilities []Capability `json:"capabilities,omitzero"`
}

func (d Device) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sku", d.SKU),
		slog.String("id", d.ID),
		slog.String("name", d.Name),
	)
}

// Command sets one capability of a device. Value is marshaled as-is.
type Command struct {
	Type     CapabilityType `json:"type"`
	Instance string         `json:"instance"`
	Value    any            `json:"value"`
}

func (c Command) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(c.Type)),
		slog.String("instance", c.Instance),
		slog.Any("value", c.Value),
	)
}

// CapabilityState is the last reported value of one capability.
type CapabilityState struct {
	Type     CapabilityType `json:"type"`
	Instance string         `json:"instance"`
	Value    jsontext.Value `json:"value"`
}
