/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	table = "kv_entries"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLStore is a Backend on top of sqlite or postgres.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

// Open returns the Backend for driver. dsn is ignored for the memory driver.
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (Backend, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// Every connection to ":memory:" would be its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := Migrate(db, driver, log); err != nil {
		db.Close()
		return nil, err
	}

	store, err := NewSQLStore(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	var format sq.PlaceholderFormat

	switch driver {
	case DriverSQLite:
		format = sq.Question
	case DriverPostgres:
		format = sq.Dollar
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		now:     time.Now,
	}, nil
}

// Migrate brings the schema up to date.
func Migrate(db *sql.DB, driver string, log *zap.Logger) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var target database.Driver
	switch driver {
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case DriverPostgres:
		target, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("no new migrations to apply", zap.String("driver", driver))
	case err != nil:
		return fmt.Errorf("run migrations: %w", err)
	default:
		log.Info("migrations applied", zap.String("driver", driver))
	}

	return nil
}

func (s *SQLStore) Namespace(id string) KV {
	return &sqlKV{s: s, ns: id}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlKV struct {
	s  *SQLStore
	ns string
}

func (kv *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := kv.s.builder.
		Select("value").
		From(table).
		Where("ns = ? AND name = ?", kv.ns, key).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build get %q: %w", key, err)
	}

	var value string
	err = kv.s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}

	return value, true, nil
}

func (kv *sqlKV) Set(ctx context.Context, key, value string) error {
	query, args, err := kv.s.builder.
		Insert(table).
		Columns("ns", "name", "value", "updated_at").
		Values(kv.ns, key, value, kv.s.now().UTC()).
		Suffix("ON CONFLICT (ns, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set %q: %w", key, err)
	}

	if _, err := kv.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	return nil
}
