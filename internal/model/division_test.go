package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivisionType_Labels(t *testing.T) {
	tests := []struct {
		dt    DivisionType
		label string
		color string
	}{
		{DivisionTypeRegionalCorporation, "Regional Corporation", "info"},
		{DivisionTypeBorough, "Borough", "success"},
		{DivisionTypeCityCorporation, "City Corporation", "warning"},
		{DivisionTypeWard, "Ward", "primary"},
	}
	for _, tt := range tests {
		assert.True(t, tt.dt.Valid())
		assert.Equal(t, tt.label, tt.dt.Label())
		assert.Equal(t, tt.color, tt.dt.Color())
	}
	assert.False(t, DivisionType("parish").Valid())
}

func TestDivisionType_Island(t *testing.T) {
	assert.Equal(t, IslandTobago, DivisionTypeWard.Island())
	assert.Equal(t, IslandTrinidad, DivisionTypeBorough.Island())
	assert.Equal(t, IslandTrinidad, DivisionTypeRegionalCorporation.Island())
	assert.Equal(t, IslandTrinidad, DivisionTypeCityCorporation.Island())
}

func TestDivisionTypesForIsland(t *testing.T) {
	assert.Equal(t, []DivisionType{DivisionTypeWard}, DivisionTypesForIsland("Tobago"))
	assert.Equal(t, []DivisionType{DivisionTypeWard}, DivisionTypesForIsland("tobago"))
	assert.Len(t, DivisionTypesForIsland("Trinidad"), 3)
	assert.Len(t, DivisionTypesForIsland("unknown"), 4)
}

func TestDivision_FullName(t *testing.T) {
	d := Division{Name: "Arima", Type: DivisionTypeBorough}
	assert.Equal(t, "Arima (Borough)", d.FullName())
}

func TestDivision_Matches(t *testing.T) {
	d := Division{Name: "San Juan/Laventille", Abbreviation: "SJL"}
	assert.True(t, d.Matches("laventille"))
	assert.True(t, d.Matches("sjl"))
	assert.False(t, d.Matches("tobago"))
}

func TestDivision_IslandHelpers(t *testing.T) {
	assert.True(t, Division{Island: IslandTobago}.IsTobago())
	assert.True(t, Division{Island: IslandTrinidad}.IsTrinidad())
	assert.False(t, Division{Island: IslandTrinidad}.IsTobago())
}
