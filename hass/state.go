package hass

// StateClass is the state_class of a sensor.
type StateClass string

const (
	// StateClassMeasurement indicates the state represents a measurement in present time.
	StateClassMeasurement StateClass = "measurement"
)

// EntityCategory classifies entities that are not the primary control of a device.
type EntityCategory string

const (
	// EntityCategoryDiagnostic marks read-only entities exposing configuration or diagnostics of the device.
	EntityCategoryDiagnostic EntityCategory = "diagnostic"
	// EntityCategoryConfig marks entities that change the configuration of the device.
	EntityCategoryConfig EntityCategory = "config"
)
