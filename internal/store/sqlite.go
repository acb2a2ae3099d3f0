package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves embedded
// and development setups where running PostgreSQL is not worth the trouble.
type SQLiteStore struct {
	db     *sql.DB
	tables config.TablesConfig
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, tables config.TablesConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, tables: tables}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id           INTEGER PRIMARY KEY,
	name         TEXT NOT NULL,
	type         TEXT NOT NULL,
	abbreviation TEXT NOT NULL UNIQUE,
	island       TEXT NOT NULL,
	latitude     REAL,
	longitude    REAL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id          INTEGER PRIMARY KEY,
	division_id INTEGER NOT NULL REFERENCES %[1]s(id),
	name        TEXT NOT NULL,
	latitude    REAL,
	longitude   REAL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (division_id, name)
);

CREATE INDEX IF NOT EXISTS idx_%[2]s_division_id ON %[2]s(division_id);
CREATE INDEX IF NOT EXISTS idx_%[2]s_name ON %[2]s(name);

CREATE TABLE IF NOT EXISTS %[3]s (
	id          TEXT PRIMARY KEY,
	owner_kind  TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	type        TEXT NOT NULL DEFAULT 'home',
	is_primary  INTEGER NOT NULL DEFAULT 0,
	line1       TEXT NOT NULL DEFAULT '',
	line2       TEXT NOT NULL DEFAULT '',
	division_id INTEGER REFERENCES %[1]s(id),
	city_id     INTEGER REFERENCES %[2]s(id),
	postal_code TEXT NOT NULL DEFAULT '',
	latitude    REAL,
	longitude   REAL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	deleted_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_%[3]s_owner ON %[3]s(owner_kind, owner_id);
CREATE INDEX IF NOT EXISTS idx_%[3]s_deleted_at ON %[3]s(deleted_at);
CREATE INDEX IF NOT EXISTS idx_%[3]s_city_id ON %[3]s(city_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	sqlText := fmt.Sprintf(sqliteMigration, s.tables.Divisions, s.tables.Cities, s.tables.Addresses)
	_, err := s.db.ExecContext(ctx, sqlText)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertDivisions(ctx context.Context, divisions []model.Division) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(
		`INSERT INTO %s (id, name, type, abbreviation, island, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (abbreviation) DO UPDATE SET
		   name = excluded.name, type = excluded.type, island = excluded.island,
		   latitude = excluded.latitude, longitude = excluded.longitude,
		   updated_at = datetime('now')`, s.tables.Divisions)

	var n int64
	for _, d := range divisions {
		if _, err := tx.ExecContext(ctx, query,
			d.ID, d.Name, string(d.Type), d.Abbreviation, d.Island, d.Latitude, d.Longitude); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert division %s", d.Abbreviation)
		}
		n++
	}

	return n, eris.Wrap(tx.Commit(), "sqlite: commit divisions")
}

func (s *SQLiteStore) UpsertCities(ctx context.Context, cities []model.City) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(
		`INSERT INTO %s (id, division_id, name, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (division_id, name) DO UPDATE SET
		   latitude = excluded.latitude, longitude = excluded.longitude,
		   updated_at = datetime('now')`, s.tables.Cities)

	var n int64
	for _, c := range cities {
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.DivisionID, c.Name, c.Latitude, c.Longitude); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert city %s", c.Name)
		}
		n++
	}

	return n, eris.Wrap(tx.Commit(), "sqlite: commit cities")
}

func (s *SQLiteStore) ListDivisions(ctx context.Context) ([]model.Division, error) {
	query := fmt.Sprintf(
		`SELECT id, name, type, abbreviation, island, latitude, longitude, created_at, updated_at
		 FROM %s ORDER BY id`, s.tables.Divisions)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list divisions")
	}
	defer rows.Close()

	var divisions []model.Division
	for rows.Next() {
		var d model.Division
		var typ string
		if err := rows.Scan(&d.ID, &d.Name, &typ, &d.Abbreviation, &d.Island,
			&d.Latitude, &d.Longitude, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan division")
		}
		d.Type = model.DivisionType(typ)
		divisions = append(divisions, d)
	}
	return divisions, eris.Wrap(rows.Err(), "sqlite: list divisions iterate")
}

func (s *SQLiteStore) ListCities(ctx context.Context) ([]model.City, error) {
	query := fmt.Sprintf(
		`SELECT c.id, c.division_id, c.name, c.latitude, c.longitude, c.created_at, c.updated_at,
		        d.id, d.name, d.type, d.abbreviation, d.island, d.latitude, d.longitude
		 FROM %s c
		 JOIN %s d ON d.id = c.division_id
		 ORDER BY c.id`, s.tables.Cities, s.tables.Divisions)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cities")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		var d model.Division
		var typ string
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.Name, &c.Latitude, &c.Longitude,
			&c.CreatedAt, &c.UpdatedAt,
			&d.ID, &d.Name, &typ, &d.Abbreviation, &d.Island, &d.Latitude, &d.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city")
		}
		d.Type = model.DivisionType(typ)
		c.Division = &d
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: list cities iterate")
}

func (s *SQLiteStore) ListCitiesMissingCoordinates(ctx context.Context) ([]model.City, error) {
	query := fmt.Sprintf(
		`SELECT c.id, c.division_id, c.name, c.latitude, c.longitude, c.created_at, c.updated_at,
		        d.id, d.name, d.type, d.abbreviation, d.island, d.latitude, d.longitude
		 FROM %s c
		 JOIN %s d ON d.id = c.division_id
		 WHERE c.latitude IS NULL
		 ORDER BY c.id`, s.tables.Cities, s.tables.Divisions)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list cities missing coordinates")
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		var d model.Division
		var typ string
		if err := rows.Scan(&c.ID, &c.DivisionID, &c.Name, &c.Latitude, &c.Longitude,
			&c.CreatedAt, &c.UpdatedAt,
			&d.ID, &d.Name, &typ, &d.Abbreviation, &d.Island, &d.Latitude, &d.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city")
		}
		d.Type = model.DivisionType(typ)
		c.Division = &d
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: list cities missing coordinates iterate")
}

func (s *SQLiteStore) SetCityCoordinates(ctx context.Context, id int, lat, lon float64) error {
	query := fmt.Sprintf(
		`UPDATE %s SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`, s.tables.Cities)

	res, err := s.db.ExecContext(ctx, query, lat, lon, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set city coordinates %d", id)
	}
	return checkRowsAffected(res, "city", fmt.Sprint(id))
}

func (s *SQLiteStore) CreateAddress(ctx context.Context, addr *model.Address) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	now := time.Now().UTC()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if addr.IsPrimary {
		if err := s.demoteOtherPrimaries(ctx, tx, addr); err != nil {
			return err
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, owner_kind, owner_id, type, is_primary, line1, line2,
		                 division_id, city_id, postal_code, latitude, longitude, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.tables.Addresses)

	_, err = tx.ExecContext(ctx, query,
		addr.ID.String(), addr.Owner.Kind, addr.Owner.ID, string(addr.Type), addr.IsPrimary,
		addr.Line1, addr.Line2, addr.DivisionID, addr.CityID, addr.PostalCode,
		addr.Latitude, addr.Longitude, addr.CreatedAt, addr.UpdatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert address")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit address insert")
}

func (s *SQLiteStore) UpdateAddress(ctx context.Context, addr *model.Address) error {
	addr.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if addr.IsPrimary {
		if err := s.demoteOtherPrimaries(ctx, tx, addr); err != nil {
			return err
		}
	}

	query := fmt.Sprintf(
		`UPDATE %s SET type = ?, is_primary = ?, line1 = ?, line2 = ?,
		        division_id = ?, city_id = ?, postal_code = ?,
		        latitude = ?, longitude = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`, s.tables.Addresses)

	res, err := tx.ExecContext(ctx, query,
		string(addr.Type), addr.IsPrimary, addr.Line1, addr.Line2,
		addr.DivisionID, addr.CityID, addr.PostalCode,
		addr.Latitude, addr.Longitude, addr.UpdatedAt, addr.ID.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update address %s", addr.ID)
	}
	if err := checkRowsAffected(res, "address", addr.ID.String()); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit address update")
}

func (s *SQLiteStore) demoteOtherPrimaries(ctx context.Context, tx *sql.Tx, addr *model.Address) error {
	query := fmt.Sprintf(
		`UPDATE %s SET is_primary = 0, updated_at = ?
		 WHERE owner_kind = ? AND owner_id = ? AND id <> ? AND is_primary AND deleted_at IS NULL`,
		s.tables.Addresses)

	_, err := tx.ExecContext(ctx, query, time.Now().UTC(), addr.Owner.Kind, addr.Owner.ID, addr.ID.String())
	return eris.Wrap(err, "sqlite: demote primaries")
}

func (s *SQLiteStore) GetAddress(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = ? AND deleted_at IS NULL`, addressColumns, s.tables.Addresses)

	addr, err := scanSQLiteAddress(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get address %s", id)
	}
	return addr, nil
}

func (s *SQLiteStore) ListAddresses(ctx context.Context, filter AddressFilter) ([]model.Address, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE deleted_at IS NULL`, addressColumns, s.tables.Addresses)
	args := []any{}

	if !filter.Owner.IsZero() {
		query += ` AND owner_kind = ? AND owner_id = ?`
		args = append(args, filter.Owner.Kind, filter.Owner.ID)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.PrimaryOnly {
		query += ` AND is_primary`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list addresses")
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		addr, err := scanSQLiteAddress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan address")
		}
		addrs = append(addrs, *addr)
	}
	return addrs, eris.Wrap(rows.Err(), "sqlite: list addresses iterate")
}

func (s *SQLiteStore) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(
		`UPDATE %s SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		s.tables.Addresses)

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query, now, now, id.String())
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete address %s", id)
	}
	return checkRowsAffected(res, "address", id.String())
}

func (s *SQLiteStore) SetCoordinates(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	query := fmt.Sprintf(
		`UPDATE %s SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		s.tables.Addresses)

	res, err := s.db.ExecContext(ctx, query, lat, lon, time.Now().UTC(), id.String())
	if err != nil {
		return eris.Wrapf(err, "sqlite: set coordinates %s", id)
	}
	return checkRowsAffected(res, "address", id.String())
}

func (s *SQLiteStore) ListAddressesMissingCoordinates(ctx context.Context, limit int) ([]model.Address, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE deleted_at IS NULL AND latitude IS NULL AND line1 <> ''
		 ORDER BY created_at ASC LIMIT ?`, addressColumns, s.tables.Addresses)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list addresses missing coordinates")
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		addr, err := scanSQLiteAddress(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan address")
		}
		addrs = append(addrs, *addr)
	}
	return addrs, eris.Wrap(rows.Err(), "sqlite: list missing coordinates iterate")
}

// sqlRow covers both *sql.Row and *sql.Rows.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLiteAddress(row sqlRow) (*model.Address, error) {
	var addr model.Address
	var id, typ string

	err := row.Scan(&id, &addr.Owner.Kind, &addr.Owner.ID, &typ, &addr.IsPrimary,
		&addr.Line1, &addr.Line2, &addr.DivisionID, &addr.CityID, &addr.PostalCode,
		&addr.Latitude, &addr.Longitude, &addr.CreatedAt, &addr.UpdatedAt, &addr.DeletedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse address id %q", id)
	}
	addr.ID = parsed
	addr.Type = model.AddressType(typ)
	return &addr, nil
}

// checkRowsAffected returns a not-found error when an UPDATE matched no rows.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
