package model

// ServiceRadius is a named search radius used by service-area queries.
type ServiceRadius int

const (
	ServiceRadiusWalking    ServiceRadius = 2
	ServiceRadiusDriving    ServiceRadius = 10
	ServiceRadiusRegional   ServiceRadius = 25
	ServiceRadiusIslandWide ServiceRadius = 100
)

var serviceRadii = map[ServiceRadius]struct {
	label       string
	description string
}{
	ServiceRadiusWalking:    {"2 km (Walking Distance)", "Services you can walk to"},
	ServiceRadiusDriving:    {"10 km (Driving Distance)", "Short drive, local area"},
	ServiceRadiusRegional:   {"25 km (Regional)", "Extended regional coverage"},
	ServiceRadiusIslandWide: {"Island Wide", "Anywhere on the island"},
}

// Kilometers returns the radius in kilometers.
func (r ServiceRadius) Kilometers() float64 { return float64(r) }

// Label returns the human-readable name for the radius.
func (r ServiceRadius) Label() string { return serviceRadii[r].label }

// Description explains the coverage of the radius.
func (r ServiceRadius) Description() string { return serviceRadii[r].description }
