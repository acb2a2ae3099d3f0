package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caribdata/tt-addresses/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), testTables)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedReference(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	lat, lon := 10.6711, -61.5212
	divisions := []model.Division{
		{ID: 3, Name: "Chaguanas", Type: model.DivisionTypeBorough, Abbreviation: "CHA", Island: model.IslandTrinidad},
		{ID: 13, Name: "City of Port of Spain", Type: model.DivisionTypeCityCorporation, Abbreviation: "POS", Island: model.IslandTrinidad, Latitude: &lat, Longitude: &lon},
	}
	n, err := s.UpsertDivisions(ctx, divisions)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	cLat, cLon := 10.5168, -61.4114
	cities := []model.City{
		{ID: 1, DivisionID: 3, Name: "Chaguanas", Latitude: &cLat, Longitude: &cLon},
		{ID: 2, DivisionID: 13, Name: "Woodbrook", Latitude: &lat, Longitude: &lon},
	}
	n, err = s.UpsertCities(ctx, cities)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestSQLiteReferenceRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	seedReference(t, s)
	ctx := context.Background()

	divisions, err := s.ListDivisions(ctx)
	require.NoError(t, err)
	require.Len(t, divisions, 2)
	assert.Equal(t, "CHA", divisions[0].Abbreviation)
	assert.Equal(t, model.DivisionTypeBorough, divisions[0].Type)
	require.NotNil(t, divisions[1].Latitude)
	assert.InDelta(t, 10.6711, *divisions[1].Latitude, 0.0001)

	cities, err := s.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	require.NotNil(t, cities[0].Division)
	assert.Equal(t, "Chaguanas", cities[0].Division.Name)
	assert.Equal(t, "POS", cities[1].Division.Abbreviation)
}

func TestSQLiteUpsertIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	seedReference(t, s)
	seedReference(t, s)

	divisions, err := s.ListDivisions(context.Background())
	require.NoError(t, err)
	assert.Len(t, divisions, 2)

	cities, err := s.ListCities(context.Background())
	require.NoError(t, err)
	assert.Len(t, cities, 2)
}

func TestSQLiteUpsertUpdatesCoordinates(t *testing.T) {
	s := newSQLiteStore(t)
	seedReference(t, s)
	ctx := context.Background()

	lat, lon := 10.52, -61.41
	_, err := s.UpsertCities(ctx, []model.City{
		{ID: 99, DivisionID: 3, Name: "Chaguanas", Latitude: &lat, Longitude: &lon},
	})
	require.NoError(t, err)

	cities, err := s.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2, "conflict on (division_id, name) must update, not insert")

	var chaguanas *model.City
	for i := range cities {
		if cities[i].Name == "Chaguanas" {
			chaguanas = &cities[i]
		}
	}
	require.NotNil(t, chaguanas)
	assert.Equal(t, 1, chaguanas.ID, "existing row keeps its id")
	require.NotNil(t, chaguanas.Latitude)
	assert.InDelta(t, 10.52, *chaguanas.Latitude, 0.0001)
}

func TestSQLiteCityCoordinateBackfill(t *testing.T) {
	s := newSQLiteStore(t)
	seedReference(t, s)
	ctx := context.Background()

	_, err := s.UpsertCities(ctx, []model.City{
		{ID: 3, DivisionID: 3, Name: "Edinburgh"},
	})
	require.NoError(t, err)

	missing, err := s.ListCitiesMissingCoordinates(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "Edinburgh", missing[0].Name)
	require.NotNil(t, missing[0].Division)
	assert.Equal(t, "CHA", missing[0].Division.Abbreviation)

	require.NoError(t, s.SetCityCoordinates(ctx, 3, 10.51, -61.42))

	missing, err = s.ListCitiesMissingCoordinates(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)

	err = s.SetCityCoordinates(ctx, 999, 10.0, -61.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}

func TestSQLiteAddressLifecycle(t *testing.T) {
	s := newSQLiteStore(t)
	seedReference(t, s)
	ctx := context.Background()

	divisionID, cityID := 3, 1
	addr := &model.Address{
		Owner:      model.OwnerRef{Kind: "customer", ID: "42"},
		Type:       model.AddressTypeHome,
		IsPrimary:  true,
		Line1:      "123 Main Street",
		DivisionID: &divisionID,
		CityID:     &cityID,
	}
	require.NoError(t, s.CreateAddress(ctx, addr))
	require.NotEqual(t, uuid.Nil, addr.ID)

	got, err := s.GetAddress(ctx, addr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "123 Main Street", got.Line1)
	assert.True(t, got.IsPrimary)
	require.NotNil(t, got.DivisionID)
	assert.Equal(t, 3, *got.DivisionID)
	assert.Nil(t, got.Latitude)

	got.Line1 = "125 Main Street"
	require.NoError(t, s.UpdateAddress(ctx, got))

	updated, err := s.GetAddress(ctx, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, "125 Main Street", updated.Line1)

	require.NoError(t, s.SetCoordinates(ctx, addr.ID, 10.5168, -61.4114))
	located, err := s.GetAddress(ctx, addr.ID)
	require.NoError(t, err)
	require.NotNil(t, located.Latitude)
	assert.InDelta(t, 10.5168, *located.Latitude, 0.0001)

	require.NoError(t, s.DeleteAddress(ctx, addr.ID))
	gone, err := s.GetAddress(ctx, addr.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "soft-deleted addresses are invisible")

	err = s.DeleteAddress(ctx, addr.ID)
	require.Error(t, err, "double delete reports not found")
}

func TestSQLitePrimaryDemotion(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	owner := model.OwnerRef{Kind: "customer", ID: "7"}

	first := &model.Address{Owner: owner, Type: model.AddressTypeHome, IsPrimary: true, Line1: "First"}
	require.NoError(t, s.CreateAddress(ctx, first))

	second := &model.Address{Owner: owner, Type: model.AddressTypeWork, IsPrimary: true, Line1: "Second"}
	require.NoError(t, s.CreateAddress(ctx, second))

	addrs, err := s.ListAddresses(ctx, AddressFilter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, addrs, 2)

	var primaries int
	for _, a := range addrs {
		if a.IsPrimary {
			primaries++
			assert.Equal(t, second.ID, a.ID)
		}
	}
	assert.Equal(t, 1, primaries, "only the latest primary survives")

	// Another owner's primary is untouched.
	other := &model.Address{Owner: model.OwnerRef{Kind: "customer", ID: "8"}, IsPrimary: true, Line1: "Elsewhere", Type: model.AddressTypeHome}
	require.NoError(t, s.CreateAddress(ctx, other))

	primary, err := s.ListAddresses(ctx, AddressFilter{Owner: owner, PrimaryOnly: true})
	require.NoError(t, err)
	require.Len(t, primary, 1)
	assert.Equal(t, second.ID, primary[0].ID)
}

func TestSQLiteListAddressesFilters(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	owner := model.OwnerRef{Kind: "business", ID: "b1"}

	for _, typ := range []model.AddressType{model.AddressTypeBilling, model.AddressTypeShipping, model.AddressTypeShipping} {
		require.NoError(t, s.CreateAddress(ctx, &model.Address{Owner: owner, Type: typ, Line1: "x"}))
	}

	shipping, err := s.ListAddresses(ctx, AddressFilter{Owner: owner, Type: model.AddressTypeShipping})
	require.NoError(t, err)
	assert.Len(t, shipping, 2)

	limited, err := s.ListAddresses(ctx, AddressFilter{Owner: owner, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteListAddressesMissingCoordinates(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	owner := model.OwnerRef{Kind: "customer", ID: "c1"}

	withCoords := &model.Address{Owner: owner, Type: model.AddressTypeHome, Line1: "Located"}
	require.NoError(t, s.CreateAddress(ctx, withCoords))
	require.NoError(t, s.SetCoordinates(ctx, withCoords.ID, 10.65, -61.52))

	missing := &model.Address{Owner: owner, Type: model.AddressTypeHome, Line1: "Unlocated"}
	require.NoError(t, s.CreateAddress(ctx, missing))

	blank := &model.Address{Owner: owner, Type: model.AddressTypeHome}
	require.NoError(t, s.CreateAddress(ctx, blank))

	got, err := s.ListAddressesMissingCoordinates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "blank line1 rows are not geocodable and are skipped")
	assert.Equal(t, missing.ID, got[0].ID)
}
