package store

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-plant-market.git/internal/postgres"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured driver and applies the schema.
// The returned close func releases every resource behind the handle.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, func(), error) {
	switch driver {
	case DriverPostgres:
		pg, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(ctx, pg.DB); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg.DB, pg.Close, nil
	case DriverSQLite:
		db, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenSQLite opens an embedded database (":memory:" works) and migrates it.
// SQLite allows a single writer, so the pool is pinned to one connection;
// that also keeps ":memory:" databases from splitting per connection.
func OpenSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
