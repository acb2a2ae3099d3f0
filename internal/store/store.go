// Package store persists divisions, cities, and addresses behind a common
// interface with PostgreSQL and SQLite backends.
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/model"
)

// AddressFilter specifies criteria for listing addresses.
type AddressFilter struct {
	Owner       model.OwnerRef    `json:"owner,omitempty"`
	Type        model.AddressType `json:"type,omitempty"`
	PrimaryOnly bool              `json:"primary_only,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Offset      int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the gazetteer and address book.
type Store interface {
	// Reference data
	UpsertDivisions(ctx context.Context, divisions []model.Division) (int64, error)
	UpsertCities(ctx context.Context, cities []model.City) (int64, error)
	ListDivisions(ctx context.Context) ([]model.Division, error)
	ListCities(ctx context.Context) ([]model.City, error)
	ListCitiesMissingCoordinates(ctx context.Context) ([]model.City, error)
	SetCityCoordinates(ctx context.Context, id int, lat, lon float64) error

	// Addresses
	CreateAddress(ctx context.Context, addr *model.Address) error
	UpdateAddress(ctx context.Context, addr *model.Address) error
	GetAddress(ctx context.Context, id uuid.UUID) (*model.Address, error)
	ListAddresses(ctx context.Context, filter AddressFilter) ([]model.Address, error)
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error
	ListAddressesMissingCoordinates(ctx context.Context, limit int) ([]model.Address, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// FromConfig opens the configured store backend.
func FromConfig(ctx context.Context, cfg config.StoreConfig, tables config.TablesConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg, tables)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL, tables)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
