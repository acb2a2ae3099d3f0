package geocode

import "context"

// Null is a no-op geocoder. Every lookup reports no match, which lets the
// address pipeline run with geocoding effectively disabled.
type Null struct{}

// NewNull creates a Null geocoder.
func NewNull() *Null { return &Null{} }

// Name implements Geocoder.
func (*Null) Name() string { return "null" }

// Available implements Geocoder.
func (*Null) Available() bool { return true }

// Geocode implements Geocoder.
func (*Null) Geocode(_ context.Context, _ string) (*Result, error) {
	return nil, nil
}

// ReverseGeocode implements Geocoder.
func (*Null) ReverseGeocode(_ context.Context, _, _ float64) (*ReverseResult, error) {
	return nil, nil
}
