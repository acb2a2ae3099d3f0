package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/address"
	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/gazetteer"
	"github.com/caribdata/tt-addresses/internal/model"
	"github.com/caribdata/tt-addresses/internal/seed"
	"github.com/caribdata/tt-addresses/internal/store"
	"github.com/caribdata/tt-addresses/pkg/geocode"
)

// env bundles the wired subsystems a command needs.
type env struct {
	store     store.Store
	gaz       *gazetteer.Gazetteer
	geocoder  geocode.Geocoder
	addresses *address.Service
}

// initEnv opens the store and builds the gazetteer, geocoder, and address
// service. Reference data comes from the store when seeded, otherwise from
// the embedded dataset.
func initEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	st, err := store.FromConfig(ctx, cfg.Store, cfg.Tables)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	divisions, cities, err := loadReference(ctx, st)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	gaz := gazetteer.FromConfig(divisions, cities, cfg)

	gc, err := geocode.FromConfig(cfg.Geocoding, cfg.CountryCode, cfg.CountryName)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	return &env{
		store:     st,
		gaz:       gaz,
		geocoder:  gc,
		addresses: address.NewService(st, gc, gaz, cfg),
	}, nil
}

// loadReference prefers stored reference data. An empty store gets the
// embedded seed written into it so address foreign keys resolve.
func loadReference(ctx context.Context, st store.Store) ([]model.Division, []model.City, error) {
	divisions, err := st.ListDivisions(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(divisions) > 0 {
		cities, err := st.ListCities(ctx)
		if err != nil {
			return nil, nil, err
		}
		return divisions, cities, nil
	}

	zap.L().Info("store has no reference data, seeding from embedded dataset")
	divisions, cities, err := seed.Load()
	if err != nil {
		return nil, nil, err
	}
	if _, err := st.UpsertDivisions(ctx, divisions); err != nil {
		return nil, nil, err
	}
	if _, err := st.UpsertCities(ctx, cities); err != nil {
		return nil, nil, err
	}
	return divisions, cities, nil
}

func (e *env) Close() {
	e.addresses.WaitIdle()
	if err := e.store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}
