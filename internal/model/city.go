package model

import (
	"fmt"
	"time"

	"github.com/caribdata/tt-addresses/internal/geo"
)

// City is a city, town, or village. The same name may legitimately appear
// under two different divisions; Belmont exists in both Port of Spain
// and Tobago.
type City struct {
	ID         int       `json:"id"`
	DivisionID int       `json:"division_id"`
	Name       string    `json:"name"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`

	// Division is the resolved owning division, populated by the gazetteer
	// or store when loading.
	Division *Division `json:"division,omitempty"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (c City) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Coordinates returns the city's coordinates, or nil when absent.
func (c City) Coordinates() *Coordinates {
	if !c.HasCoordinates() {
		return nil
	}
	return &Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

// FullLocation returns "City, Division" when the division is resolved.
func (c City) FullLocation() string {
	if c.Division == nil {
		return c.Name
	}
	return fmt.Sprintf("%s, %s", c.Name, c.Division.Name)
}

// Island returns the island of the owning division, or empty when unresolved.
func (c City) Island() string {
	if c.Division == nil {
		return ""
	}
	return c.Division.Island
}

// IsTrinidad reports whether the city is on Trinidad.
func (c City) IsTrinidad() bool { return c.Island() == IslandTrinidad }

// IsTobago reports whether the city is on Tobago.
func (c City) IsTobago() bool { return c.Island() == IslandTobago }

// DistanceToPoint returns the Haversine distance in kilometers to the given
// coordinates, or nil when this city has no coordinate data.
func (c City) DistanceToPoint(lat, lon float64) *float64 {
	if !c.HasCoordinates() {
		return nil
	}
	d := geo.HaversineKm(*c.Latitude, *c.Longitude, lat, lon)
	return &d
}

// DistanceTo returns the distance in kilometers to another city, or nil when
// either side lacks coordinates.
func (c City) DistanceTo(other City) *float64 {
	if !other.HasCoordinates() {
		return nil
	}
	return c.DistanceToPoint(*other.Latitude, *other.Longitude)
}

// GoogleMapsURL returns a maps link for the city, or empty without coordinates.
func (c City) GoogleMapsURL() string {
	if !c.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", *c.Latitude, *c.Longitude)
}

// OpenStreetMapURL returns an OSM link for the city, or empty without coordinates.
func (c City) OpenStreetMapURL() string {
	if !c.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%v&mlon=%v&zoom=15", *c.Latitude, *c.Longitude)
}

// SearchResult is the JSON projection returned by search endpoints.
type SearchResult struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	FullLocation string       `json:"full_location"`
	Coordinates  *Coordinates `json:"coordinates"`
	DivisionType DivisionType `json:"division_type,omitempty"`
}

// SearchResult builds the search projection for the city.
func (c City) SearchResult() SearchResult {
	r := SearchResult{
		ID:           c.ID,
		Name:         c.Name,
		FullLocation: c.FullLocation(),
		Coordinates:  c.Coordinates(),
	}
	if c.Division != nil {
		r.DivisionType = c.Division.Type
	}
	return r
}

// AutocompleteOption is the value/label projection for autocomplete pickers.
type AutocompleteOption struct {
	Value       int          `json:"value"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Coordinates *Coordinates `json:"coordinates"`
}

// AutocompleteOption builds the autocomplete projection for the city.
func (c City) AutocompleteOption() AutocompleteOption {
	opt := AutocompleteOption{
		Value:       c.ID,
		Label:       c.Name,
		Coordinates: c.Coordinates(),
	}
	if c.Division != nil {
		opt.Description = c.Division.FullName()
	}
	return opt
}
