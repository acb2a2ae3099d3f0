package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AddressType classifies an address by use.
type AddressType string

const (
	AddressTypeHome     AddressType = "home"
	AddressTypeWork     AddressType = "work"
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
	AddressTypeOther    AddressType = "other"
)

type addressTypeInfo struct {
	label string
	color string
}

var addressTypes = map[AddressType]addressTypeInfo{
	AddressTypeHome:     {label: "Home", color: "success"},
	AddressTypeWork:     {label: "Work", color: "info"},
	AddressTypeBilling:  {label: "Billing", color: "warning"},
	AddressTypeShipping: {label: "Shipping", color: "primary"},
	AddressTypeOther:    {label: "Other", color: "gray"},
}

// Valid reports whether t is a known address type.
func (t AddressType) Valid() bool {
	_, ok := addressTypes[t]
	return ok
}

// Label returns the human-readable name for the type.
func (t AddressType) Label() string {
	return addressTypes[t].label
}

// Color returns the admin-UI badge color for the type.
func (t AddressType) Color() string {
	return addressTypes[t].color
}

// OwnerRef is a discriminated reference to the entity an address belongs to:
// a kind tag registered by the host application plus that entity's identifier.
type OwnerRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// IsZero reports whether the reference is unset.
func (o OwnerRef) IsZero() bool {
	return o.Kind == "" && o.ID == ""
}

// Address is a point of contact owned by exactly one external entity.
// At most one address per owner carries the primary flag; the application
// layer enforces this on save. Addresses are soft-deleted.
type Address struct {
	ID         uuid.UUID   `json:"id"`
	Owner      OwnerRef    `json:"owner"`
	Type       AddressType `json:"type"`
	IsPrimary  bool        `json:"is_primary"`
	Line1      string      `json:"line_1"`
	Line2      string      `json:"line_2,omitempty"`
	DivisionID *int        `json:"division_id,omitempty"`
	CityID     *int        `json:"city_id,omitempty"`
	PostalCode string      `json:"postal_code,omitempty"`
	Latitude   *float64    `json:"latitude,omitempty"`
	Longitude  *float64    `json:"longitude,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitzero"`
	UpdatedAt  time.Time   `json:"updated_at,omitzero"`
	DeletedAt  *time.Time  `json:"deleted_at,omitempty"`

	// Resolved references, populated on load when the gazetteer is available.
	Division *Division `json:"division,omitempty"`
	City     *City     `json:"city,omitempty"`
}

// FormattedAddress joins the non-empty components with ", ":
// line 1, line 2, city name, division name.
func (a Address) FormattedAddress() string {
	return strings.Join(a.components(), ", ")
}

// FormattedAddressMultiline joins the components plus the country name with
// newlines.
func (a Address) FormattedAddressMultiline(countryName string) string {
	lines := a.components()
	if countryName != "" {
		lines = append(lines, countryName)
	}
	return strings.Join(lines, "\n")
}

func (a Address) components() []string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Line1, a.Line2, a.cityName(), a.divisionName()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (a Address) cityName() string {
	if a.City == nil {
		return ""
	}
	return a.City.Name
}

func (a Address) divisionName() string {
	if a.Division == nil {
		return ""
	}
	return a.Division.Name
}

// Island returns the division's island when a division is set, otherwise the
// city's division's island, otherwise empty.
func (a Address) Island() string {
	if a.Division != nil {
		return a.Division.Island
	}
	if a.City != nil && a.City.Division != nil {
		return a.City.Division.Island
	}
	return ""
}

// IsInTrinidad reports whether the address resolves to Trinidad.
func (a Address) IsInTrinidad() bool { return a.Island() == IslandTrinidad }

// IsInTobago reports whether the address resolves to Tobago.
func (a Address) IsInTobago() bool { return a.Island() == IslandTobago }

// IsComplete reports whether division, city, and line 1 are all present.
func (a Address) IsComplete() bool {
	return a.DivisionID != nil && a.CityID != nil && strings.TrimSpace(a.Line1) != ""
}

// HasCoordinates reports whether both latitude and longitude are present.
func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Coordinates returns the address coordinates, or nil when absent.
func (a Address) Coordinates() *Coordinates {
	if !a.HasCoordinates() {
		return nil
	}
	return &Coordinates{Latitude: *a.Latitude, Longitude: *a.Longitude}
}

// GeoFieldsChanged reports whether the address-relevant fields differ from a
// previous version. The geocoding trigger uses this to avoid re-geocoding
// saves that only touch flags or postal codes.
func (a Address) GeoFieldsChanged(prev Address) bool {
	return a.Line1 != prev.Line1 ||
		a.Line2 != prev.Line2 ||
		!intPtrEqual(a.DivisionID, prev.DivisionID) ||
		!intPtrEqual(a.CityID, prev.CityID)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
