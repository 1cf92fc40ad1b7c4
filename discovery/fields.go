package discovery

// Fields shared by the device payload and every component.
const (
	FieldDevice     = "dev"
	FieldOrigin     = "o"
	FieldComponents = "cmps"

	FieldPlatform          = "p"
	FieldName              = "name"
	FieldEntityCategory    = "ent_cat"
	FieldIcon              = "ic"
	FieldDefaultEntityID   = "def_ent_id"
	FieldUniqueID          = "uniq_id"
	FieldAvailabilityTopic = "avty_t"
	FieldQualityOfService  = "qos"
	FieldRetain            = "ret"

	FieldStateTopic   = "stat_t"
	FieldCommandTopic = "cmd_t"
)

// Light fields for the json schema. Every command and state is a single JSON document on one topic, so only flags and
// limits are advertised.
//
// See https://www.home-assistant.io/integrations/light.mqtt/#json-schema
const (
	FieldSchema              = "schema"
	FieldSupportedColorModes = "sup_clrm"

	FieldBrightness      = "brightness"
	FieldBrightnessScale = "bri_scl"

	FieldColorTemperatureInKelvin = "clr_temp_k"
	FieldMinKelvin                = "min_k"
	FieldMaxKelvin                = "max_k"

	FieldEffect     = "effect"
	FieldEffectList = "fx_list"

	SchemaJSON = "json"
)

// Sensor fields.
const (
	FieldSuggestedDisplayPrecision = "sug_dsp_prc"
	FieldStateClass                = "stat_cla"
	FieldDeviceClass               = "dev_cla"
	FieldUnitOfMeasurement         = "unit_of_meas"
)
