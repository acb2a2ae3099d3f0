package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/db"
	"github.com/caribdata/tt-addresses/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	tables  config.TablesConfig
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig, tables config.TablesConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, tables: tables, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, mainly for tests.
func NewPostgresWithPool(pool db.Pool, tables config.TablesConfig) *PostgresStore {
	return &PostgresStore{pool: pool, tables: tables}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id           INTEGER PRIMARY KEY,
	name         TEXT NOT NULL,
	type         TEXT NOT NULL,
	abbreviation TEXT NOT NULL UNIQUE,
	island       TEXT NOT NULL,
	latitude     DOUBLE PRECISION,
	longitude    DOUBLE PRECISION,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id          INTEGER PRIMARY KEY,
	division_id INTEGER NOT NULL REFERENCES %[1]s(id),
	name        TEXT NOT NULL,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (division_id, name)
);

CREATE INDEX IF NOT EXISTS idx_%[2]s_division_id ON %[2]s(division_id);
CREATE INDEX IF NOT EXISTS idx_%[2]s_name ON %[2]s(name);

CREATE TABLE IF NOT EXISTS %[3]s (
	id          TEXT PRIMARY KEY,
	owner_kind  TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT 'home',
	is_primary  BOOLEAN NOT NULL DEFAULT false,
	line1       TEXT NOT NULL DEFAULT '',
	line2       TEXT NOT NULL DEFAULT '',
	division_id INTEGER REFERENCES %[1]s(id),
	city_id     INTEGER REFERENCES %[2]s(id),
	postal_code TEXT NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_%[3]s_owner ON %[3]s(owner_kind, owner_id);
CREATE INDEX IF NOT EXISTS idx_%[3]s_deleted_at ON %[3]s(deleted_at);
CREATE INDEX IF NOT EXISTS idx_%[3]s_city_id ON %[3]s(city_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	sql := fmt.Sprintf(postgresMigration, s.tables.Divisions, s.tables.Cities, s.tables.Addresses)
	_, err := s.pool.Exec(ctx, sql)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) UpsertDivisions(ctx context.Context, divisions []model.Division) (int64, error) {
	rows := make([][]any, len(divisions))
	for i, d := range divisions {
		rows[i] = []any{d.ID, d.Name, string(d.Type), d.Abbreviation, d.Island, d.Latitude, d.Longitude}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        s.tables.Divisions,
		Columns:      []string{"id", "name", "type", "abbreviation", "island", "latitude", "longitude"},
		ConflictKeys: []string{"abbreviation"},
		UpdateCols:   []string{"name", "type", "island", "latitude", "longitude"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert divisions")
}

func (s *PostgresStore) UpsertCities(ctx context.Context, cities []model.City) (int64, error) {
	rows := make([][]any, len(cities))
	for i, c := range cities {
		rows[i] = []any{c.ID, c.DivisionID, c.Name, c.Latitude, c.Longitude}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        s.tables.Cities,
		Columns:      []string{"id", "division_id", "name", "latitude", "longitude"},
		ConflictKeys: []string{"division_id", "name"},
		UpdateCols:   []string{"latitude", "longitude"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert cities")
}

func (s *PostgresStore) ListDivisions(ctx context.Context) ([]model.Division, error) {
	query := fmt.Sprintf(
		`SELECT id, name, type, abbreviation, island, latitude, longitude, created_at, updated_at
		 FROM %s ORDER BY id`, s.tables.Divisions)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list divisions")
	}
	defer rows.Close()

	var divisions []model.Division
	for rows.Next() {
		var d model.Division
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Abbreviation, &d.Island,
			&d.Latitude, &d.Longitude, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan division")
		}
		divisions = append(divisions, d)
	}
	return divisions, eris.Wrap(rows.Err(), "postgres: list divisions iterate")
}

func (s *PostgresStore) ListCities(ctx context.Context) ([]model.City, error) {
	query := fmt.Sprintf(
		`SELECT c.id, c.division_id, c.name, c.latitude, c.longitude, c.created_at, c.updated_at,
		        d.id, d.name, d.type, d.abbreviation, d.island, d.latitude, d.longitude
		 FROM %s c
		 JOIN %s d ON d.id = c.division_id
		 ORDER BY c.id`, s.tables.Cities, s.tables.Divisions)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cities")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		var d model.Division
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.Name, &c.Latitude, &c.Longitude,
			&c.CreatedAt, &c.UpdatedAt,
			&d.ID, &d.Name, &d.Type, &d.Abbreviation, &d.Island, &d.Latitude, &d.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city")
		}
		c.Division = &d
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "postgres: list cities iterate")
}

func (s *PostgresStore) ListCitiesMissingCoordinates(ctx context.Context) ([]model.City, error) {
	query := fmt.Sprintf(
		`SELECT c.id, c.division_id, c.name, c.latitude, c.longitude, c.created_at, c.updated_at,
		        d.id, d.name, d.type, d.abbreviation, d.island, d.latitude, d.longitude
		 FROM %s c
		 JOIN %s d ON d.id = c.division_id
		 WHERE c.latitude IS NULL
		 ORDER BY c.id`, s.tables.Cities, s.tables.Divisions)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list cities missing coordinates")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		var d model.Division
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.Name, &c.Latitude, &c.Longitude,
			&c.CreatedAt, &c.UpdatedAt,
			&d.ID, &d.Name, &d.Type, &d.Abbreviation, &d.Island, &d.Latitude, &d.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city")
		}
		c.Division = &d
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "postgres: list cities missing coordinates iterate")
}

func (s *PostgresStore) SetCityCoordinates(ctx context.Context, id int, lat, lon float64) error {
	query := fmt.Sprintf(
		`UPDATE %s SET latitude = $1, longitude = $2, updated_at = $3 WHERE id = $4`, s.tables.Cities)

	tag, err := s.pool.Exec(ctx, query, lat, lon, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set city coordinates %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("city not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) CreateAddress(ctx context.Context, addr *model.Address) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	if addr.IsPrimary {
		if err := s.demoteOtherPrimaries(ctx, tx, addr); err != nil {
			return err
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, owner_kind, owner_id, type, is_primary, line1, line2,
		                 division_id, city_id, postal_code, latitude, longitude, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, s.tables.Addresses)

	_, err = tx.Exec(ctx, query,
		addr.ID.String(), addr.Owner.Kind, addr.Owner.ID, string(addr.Type), addr.IsPrimary,
		addr.Line1, addr.Line2, addr.DivisionID, addr.CityID, addr.PostalCode,
		addr.Latitude, addr.Longitude, addr.CreatedAt, addr.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert address")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit address insert")
}

func (s *PostgresStore) UpdateAddress(ctx context.Context, addr *model.Address) error {
	addr.UpdatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	if addr.IsPrimary {
		if err := s.demoteOtherPrimaries(ctx, tx, addr); err != nil {
			return err
		}
	}

	query := fmt.Sprintf(
		`UPDATE %s SET type = $1, is_primary = $2, line1 = $3, line2 = $4,
		        division_id = $5, city_id = $6, postal_code = $7,
		        latitude = $8, longitude = $9, updated_at = $10
		 WHERE id = $11 AND deleted_at IS NULL`, s.tables.Addresses)

	tag, err := tx.Exec(ctx, query,
		string(addr.Type), addr.IsPrimary, addr.Line1, addr.Line2,
		addr.DivisionID, addr.CityID, addr.PostalCode,
		addr.Latitude, addr.Longitude, addr.UpdatedAt, addr.ID.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update address %s", addr.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("address not found: %s", addr.ID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit address update")
}

// demoteOtherPrimaries clears the primary flag on the owner's other addresses
// so at most one primary survives per owner.
func (s *PostgresStore) demoteOtherPrimaries(ctx context.Context, tx pgx.Tx, addr *model.Address) error {
	query := fmt.Sprintf(
		`UPDATE %s SET is_primary = false, updated_at = $1
		 WHERE owner_kind = $2 AND owner_id = $3 AND id <> $4 AND is_primary AND deleted_at IS NULL`,
		s.tables.Addresses)

	_, err := tx.Exec(ctx, query, time.Now().UTC(), addr.Owner.Kind, addr.Owner.ID, addr.ID.String())
	return eris.Wrap(err, "postgres: demote primaries")
}

const addressColumns = `id, owner_kind, owner_id, type, is_primary, line1, line2,
	division_id, city_id, postal_code, latitude, longitude, created_at, updated_at, deleted_at`

func (s *PostgresStore) GetAddress(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, addressColumns, s.tables.Addresses)

	addr, err := scanAddress(s.pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get address %s", id)
	}
	return addr, nil
}

func (s *PostgresStore) ListAddresses(ctx context.Context, filter AddressFilter) ([]model.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL`, addressColumns, s.tables.Addresses)
	args := []any{}
	argIdx := 1

	if !filter.Owner.IsZero() {
		query += fmt.Sprintf(` AND owner_kind = $%d AND owner_id = $%d`, argIdx, argIdx+1)
		args = append(args, filter.Owner.Kind, filter.Owner.ID)
		argIdx += 2
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	if filter.PrimaryOnly {
		query += ` AND is_primary`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list addresses")
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan address")
		}
		addrs = append(addrs, *addr)
	}
	return addrs, eris.Wrap(rows.Err(), "postgres: list addresses iterate")
}

func (s *PostgresStore) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(
		`UPDATE %s SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		s.tables.Addresses)

	tag, err := s.pool.Exec(ctx, query, time.Now().UTC(), id.String())
	if err != nil {
		return eris.Wrapf(err, "postgres: delete address %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("address not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	query := fmt.Sprintf(
		`UPDATE %s SET latitude = $1, longitude = $2, updated_at = $3 WHERE id = $4 AND deleted_at IS NULL`,
		s.tables.Addresses)

	tag, err := s.pool.Exec(ctx, query, lat, lon, time.Now().UTC(), id.String())
	if err != nil {
		return eris.Wrapf(err, "postgres: set coordinates %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("address not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListAddressesMissingCoordinates(ctx context.Context, limit int) ([]model.Address, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE deleted_at IS NULL AND latitude IS NULL AND line1 <> ''
		 ORDER BY created_at ASC LIMIT $1`, addressColumns, s.tables.Addresses)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list addresses missing coordinates")
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan address")
		}
		addrs = append(addrs, *addr)
	}
	return addrs, eris.Wrap(rows.Err(), "postgres: list missing coordinates iterate")
}

// scanAddress reads one address row ordered per addressColumns.
func scanAddress(row pgx.Row) (*model.Address, error) {
	var addr model.Address
	var id string

	err := row.Scan(&id, &addr.Owner.Kind, &addr.Owner.ID, &addr.Type, &addr.IsPrimary,
		&addr.Line1, &addr.Line2, &addr.DivisionID, &addr.CityID, &addr.PostalCode,
		&addr.Latitude, &addr.Longitude, &addr.CreatedAt, &addr.UpdatedAt, &addr.DeletedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: parse address id %q", id)
	}
	addr.ID = parsed
	return &addr, nil
}
