package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(i int) *int { return &i }

func TestAddressType_Labels(t *testing.T) {
	tests := []struct {
		at    AddressType
		label string
		color string
	}{
		{AddressTypeHome, "Home", "success"},
		{AddressTypeWork, "Work", "info"},
		{AddressTypeBilling, "Billing", "warning"},
		{AddressTypeShipping, "Shipping", "primary"},
		{AddressTypeOther, "Other", "gray"},
	}
	for _, tt := range tests {
		assert.True(t, tt.at.Valid())
		assert.Equal(t, tt.label, tt.at.Label())
		assert.Equal(t, tt.color, tt.at.Color())
	}
	assert.False(t, AddressType("vacation").Valid())
}

func TestAddress_FormattedAddress_SkipsEmptyParts(t *testing.T) {
	a := Address{
		Line1:    "123 Main Street",
		City:     &City{Name: "Chaguanas"},
		Division: &Division{Name: "Chaguanas"},
	}
	assert.Equal(t, "123 Main Street, Chaguanas, Chaguanas", a.FormattedAddress())
}

func TestAddress_FormattedAddress_AllParts(t *testing.T) {
	a := Address{
		Line1:    "12 Frederick Street",
		Line2:    "Apt 3",
		City:     &City{Name: "Port-of-Spain"},
		Division: &Division{Name: "Port of Spain"},
	}
	assert.Equal(t, "12 Frederick Street, Apt 3, Port-of-Spain, Port of Spain", a.FormattedAddress())
}

func TestAddress_FormattedAddress_Line1Only(t *testing.T) {
	a := Address{Line1: "LP 42 Southern Main Road"}
	assert.Equal(t, "LP 42 Southern Main Road", a.FormattedAddress())
}

func TestAddress_FormattedAddressMultiline(t *testing.T) {
	a := Address{
		Line1:    "123 Main Street",
		City:     &City{Name: "Couva"},
		Division: &Division{Name: "Couva/Tabaquite/Talparo"},
	}
	want := "123 Main Street\nCouva\nCouva/Tabaquite/Talparo\nTrinidad and Tobago"
	assert.Equal(t, want, a.FormattedAddressMultiline("Trinidad and Tobago"))
}

func TestAddress_Island(t *testing.T) {
	tobago := &Division{Island: IslandTobago}
	trinidad := &Division{Island: IslandTrinidad}

	// Division wins when set.
	a := Address{Division: tobago, City: &City{Division: trinidad}}
	assert.Equal(t, IslandTobago, a.Island())
	assert.True(t, a.IsInTobago())

	// Falls back to the city's division.
	b := Address{City: &City{Division: trinidad}}
	assert.Equal(t, IslandTrinidad, b.Island())
	assert.True(t, b.IsInTrinidad())

	// Undefined without either.
	assert.Empty(t, Address{}.Island())
}

func TestAddress_IsComplete(t *testing.T) {
	complete := Address{Line1: "1 High Street", DivisionID: intp(14), CityID: intp(7)}
	assert.True(t, complete.IsComplete())

	assert.False(t, Address{Line1: "1 High Street", DivisionID: intp(14)}.IsComplete())
	assert.False(t, Address{Line1: "  ", DivisionID: intp(14), CityID: intp(7)}.IsComplete())
	assert.False(t, Address{DivisionID: intp(14), CityID: intp(7)}.IsComplete())
}

func TestAddress_GeoFieldsChanged(t *testing.T) {
	base := Address{Line1: "1 High Street", Line2: "Upper Floor", DivisionID: intp(14), CityID: intp(7)}

	same := base
	assert.False(t, same.GeoFieldsChanged(base))

	line1 := base
	line1.Line1 = "2 High Street"
	assert.True(t, line1.GeoFieldsChanged(base))

	city := base
	city.CityID = intp(8)
	assert.True(t, city.GeoFieldsChanged(base))

	cleared := base
	cleared.DivisionID = nil
	assert.True(t, cleared.GeoFieldsChanged(base))

	flags := base
	flags.IsPrimary = true
	flags.PostalCode = "190123"
	assert.False(t, flags.GeoFieldsChanged(base))
}

func TestOwnerRef_IsZero(t *testing.T) {
	assert.True(t, OwnerRef{}.IsZero())
	assert.False(t, OwnerRef{Kind: "customer", ID: "17"}.IsZero())
}

func TestServiceRadius(t *testing.T) {
	assert.Equal(t, 2.0, ServiceRadiusWalking.Kilometers())
	assert.Equal(t, "2 km (Walking Distance)", ServiceRadiusWalking.Label())
	assert.Equal(t, "10 km (Driving Distance)", ServiceRadiusDriving.Label())
	assert.Equal(t, 25.0, ServiceRadiusRegional.Kilometers())
	assert.Equal(t, "Anywhere on the island", ServiceRadiusIslandWide.Description())
}
