// Package model defines the reference-data and address types for Trinidad and
// Tobago administrative geography.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Island names for the two landmasses.
const (
	IslandTrinidad = "Trinidad"
	IslandTobago   = "Tobago"
)

// DivisionType classifies an administrative division.
type DivisionType string

const (
	DivisionTypeRegionalCorporation DivisionType = "regional_corporation"
	DivisionTypeBorough             DivisionType = "borough"
	DivisionTypeCityCorporation     DivisionType = "city_corporation"
	DivisionTypeWard                DivisionType = "ward"
)

// divisionTypeInfo carries the display metadata for each division type.
type divisionTypeInfo struct {
	label  string
	color  string
	island string
}

var divisionTypes = map[DivisionType]divisionTypeInfo{
	DivisionTypeRegionalCorporation: {label: "Regional Corporation", color: "info", island: IslandTrinidad},
	DivisionTypeBorough:             {label: "Borough", color: "success", island: IslandTrinidad},
	DivisionTypeCityCorporation:     {label: "City Corporation", color: "warning", island: IslandTrinidad},
	DivisionTypeWard:                {label: "Ward", color: "primary", island: IslandTobago},
}

// Valid reports whether t is one of the four known division types.
func (t DivisionType) Valid() bool {
	_, ok := divisionTypes[t]
	return ok
}

// Label returns the human-readable name for the type.
func (t DivisionType) Label() string {
	return divisionTypes[t].label
}

// Color returns the admin-UI badge color for the type.
func (t DivisionType) Color() string {
	return divisionTypes[t].color
}

// Island returns the island this division type is found on.
func (t DivisionType) Island() string {
	return divisionTypes[t].island
}

// DivisionTypesForIsland returns the division types present on an island.
// Unknown islands return all types.
func DivisionTypesForIsland(island string) []DivisionType {
	switch strings.ToLower(island) {
	case "tobago":
		return []DivisionType{DivisionTypeWard}
	case "trinidad":
		return []DivisionType{
			DivisionTypeRegionalCorporation,
			DivisionTypeBorough,
			DivisionTypeCityCorporation,
		}
	default:
		return []DivisionType{
			DivisionTypeRegionalCorporation,
			DivisionTypeBorough,
			DivisionTypeCityCorporation,
			DivisionTypeWard,
		}
	}
}

// Division is a top-level administrative area. Trinidad has 9 regional
// corporations, 3 boroughs, and 2 city corporations; Tobago has 1 ward.
// Abbreviations are unique across all divisions.
type Division struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Type         DivisionType `json:"type"`
	Abbreviation string       `json:"abbreviation"`
	Island       string       `json:"island"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	CreatedAt    time.Time    `json:"created_at,omitzero"`
	UpdatedAt    time.Time    `json:"updated_at,omitzero"`
}

// FullName returns the name with its type label, e.g. "Arima (Borough)".
func (d Division) FullName() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Type.Label())
}

// IsTrinidad reports whether the division is on Trinidad.
func (d Division) IsTrinidad() bool { return d.Island == IslandTrinidad }

// IsTobago reports whether the division is on Tobago.
func (d Division) IsTobago() bool { return d.Island == IslandTobago }

// Matches reports whether the query matches the division name or
// abbreviation, case-insensitively.
func (d Division) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Abbreviation), q)
}
