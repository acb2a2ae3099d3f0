package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/model"
)

const (
	posLat = 10.6711
	posLon = -61.5212
)

func TestWithinRadius(t *testing.T) {
	g := newSeeded(t)

	within := g.WithinRadius(posLat, posLon, 5)
	require.NotEmpty(t, within)

	var names []string
	for i, cd := range within {
		names = append(names, cd.City.Name)
		assert.LessOrEqual(t, cd.DistanceKm, 5.0)
		assert.Equal(t, model.IslandTrinidad, cd.City.Island(), "5km around the capital stays on Trinidad")
		if i > 0 {
			assert.GreaterOrEqual(t, cd.DistanceKm, within[i-1].DistanceKm, "results are nearest first")
		}
	}
	assert.Contains(t, names, "Port-of-Spain")
	assert.Contains(t, names, "Belmont")
}

func TestWithinRadius_NonPositiveRadius(t *testing.T) {
	g := newSeeded(t)
	assert.Nil(t, g.WithinRadius(posLat, posLon, 0))
	assert.Nil(t, g.WithinRadius(posLat, posLon, -10))
}

func TestWithinRadius_ClampsToMax(t *testing.T) {
	g := newSeeded(t)

	clamped := g.WithinRadius(posLat, posLon, 100000)
	max := g.WithinRadius(posLat, posLon, 100)
	assert.Equal(t, len(max), len(clamped), "oversized radii are clamped to the configured maximum")

	for _, cd := range clamped {
		assert.LessOrEqual(t, cd.DistanceKm, 100.0)
	}
}

func TestNearest(t *testing.T) {
	g := newSeeded(t)

	nearest := g.Nearest(posLat, posLon)
	require.NotNil(t, nearest)
	assert.Equal(t, "City of Port-of-Spain", nearest.City.Name)
	assert.InDelta(t, 0, nearest.DistanceKm, 0.01)
}

func TestNearest_NoCoordinates(t *testing.T) {
	g := New(nil, []model.City{{ID: 1, Name: "Nowhere"}}, defaultSearchConfig())
	assert.Nil(t, g.Nearest(posLat, posLon))
}

func TestNearestN(t *testing.T) {
	g := newSeeded(t)

	nearest := g.NearestN(posLat, posLon, 5)
	require.Len(t, nearest, 5)
	assert.Equal(t, "City of Port-of-Spain", nearest[0].City.Name)
	for i := 1; i < len(nearest); i++ {
		assert.GreaterOrEqual(t, nearest[i].DistanceKm, nearest[i-1].DistanceKm)
	}

	assert.Nil(t, g.NearestN(posLat, posLon, 0))
	assert.Equal(t, len(g.WithCoordinates()), len(g.NearestN(posLat, posLon, 100000)), "oversized n returns every city with coordinates")
}

func TestOrderByDistanceFrom(t *testing.T) {
	g := newSeeded(t)

	asc := g.OrderByDistanceFrom(posLat, posLon, false)
	require.NotEmpty(t, asc)
	assert.Equal(t, "City of Port-of-Spain", asc[0].City.Name)

	desc := g.OrderByDistanceFrom(posLat, posLon, true)
	require.Equal(t, len(asc), len(desc))
	assert.Equal(t, asc[0].City.ID, desc[len(desc)-1].City.ID)
	assert.Equal(t, asc[len(asc)-1].City.ID, desc[0].City.ID)
}

func TestOrderByDistanceFrom_TiesKeepStorageOrder(t *testing.T) {
	north, south, east := 10.6, 10.4, -61.3
	lon, lat := -61.5, 10.5
	divisions := []model.Division{{ID: 1, Name: "Test", Abbreviation: "TST", Island: model.IslandTrinidad}}
	cities := []model.City{
		{ID: 1, DivisionID: 1, Name: "North", Latitude: &north, Longitude: &lon},
		{ID: 2, DivisionID: 1, Name: "South", Latitude: &south, Longitude: &lon},
		{ID: 3, DivisionID: 1, Name: "Far", Latitude: &lat, Longitude: &east},
	}
	g := New(divisions, cities, config.SearchConfig{PopularCitiesCacheTTLSecs: 3600})

	// North and South sit the same distance from the query point.
	asc := g.OrderByDistanceFrom(lat, lon, false)
	require.Len(t, asc, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{asc[0].City.ID, asc[1].City.ID, asc[2].City.ID})

	desc := g.OrderByDistanceFrom(lat, lon, true)
	require.Len(t, desc, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{desc[0].City.ID, desc[1].City.ID, desc[2].City.ID})
}

func TestDetectCity_WithinRadius(t *testing.T) {
	g := newSeeded(t)

	detected := g.DetectCity(10.5173, -61.4113, 0)
	require.NotNil(t, detected)
	assert.Equal(t, "Chaguanas", detected.City.Name)
	assert.InDelta(t, 0, detected.DistanceKm, 0.01)
}

func TestDetectCity_FallsBackToNearest(t *testing.T) {
	g := newSeeded(t)

	// Open water southeast of Trinidad, outside any detection radius.
	detected := g.DetectCity(9.8, -60.5, 25)
	require.NotNil(t, detected)
	assert.Greater(t, detected.DistanceKm, 25.0, "fallback result lies beyond the radius")

	assert.Equal(t, g.Nearest(9.8, -60.5).City.ID, detected.City.ID)
}

func TestWithinServiceArea(t *testing.T) {
	g := newSeeded(t)

	chaguanas := g.Search("Chaguanas")[0]

	assert.True(t, g.WithinServiceArea(10.5173, -61.4113, chaguanas.ID, model.ServiceRadiusWalking))
	assert.False(t, g.WithinServiceArea(posLat, posLon, chaguanas.ID, model.ServiceRadiusWalking))
	assert.True(t, g.WithinServiceArea(posLat, posLon, chaguanas.ID, model.ServiceRadiusIslandWide))
	assert.False(t, g.WithinServiceArea(posLat, posLon, -1, model.ServiceRadiusIslandWide), "unknown city serves nothing")
}

func TestServiceCities(t *testing.T) {
	g := newSeeded(t)

	chaguanas := g.Search("Chaguanas")[0]
	reachable := g.ServiceCities(chaguanas.ID, model.ServiceRadiusRegional)
	require.NotEmpty(t, reachable)

	var names []string
	for _, cd := range reachable {
		require.NotEqual(t, chaguanas.ID, cd.City.ID, "base city is excluded")
		assert.LessOrEqual(t, cd.DistanceKm, 25.0)
		names = append(names, cd.City.Name)
	}
	assert.Contains(t, names, "Couva")

	assert.Nil(t, g.ServiceCities(-1, model.ServiceRadiusRegional))
}

func defaultSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		AutocompleteLimit:         10,
		PopularCitiesCacheTTLSecs: 3600,
	}
}
