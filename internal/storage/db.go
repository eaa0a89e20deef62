package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Driver names a storage backend.
type Driver string

const (
	// DriverSQLite is the embedded file database.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres is the hosted PostgreSQL database.
	DriverPostgres Driver = "postgres"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMemberHasContributions is returned when deleting a member that still owns contributions.
	ErrMemberHasContributions = errors.New("member has contributions")
)

// Options configures Open.
type Options struct {
	Driver Driver
	// Path is the SQLite database file (or ":memory:").
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps a sqlx connection bound to one SQL dialect.
type DB struct {
	conn    *sqlx.DB
	dialect dialect
}

// NewDB opens a SQLite database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	return Open(context.Background(), Options{Driver: DriverSQLite, Path: path})
}

// Open connects to the backend selected by opts.Driver and runs migrations.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		conn *sqlx.DB
		d    dialect
		err  error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		conn, err = openSQLite(opts.Path)
		d = sqliteDialect
	case DriverPostgres:
		conn, err = openPostgres(opts)
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	db := newDB(conn, d)
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func newDB(conn *sqlx.DB, d dialect) *DB {
	return &DB{conn: conn, dialect: d}
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

func openPostgres(opts Options) (*sqlx.DB, error) {
	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	cfg.ConnectTimeout = 5 * time.Second

	conn := sqlx.NewDb(stdlib.OpenDB(*cfg), "pgx")
	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return conn, nil
}

func (db *DB) migrate(ctx context.Context) error {
	for _, m := range db.dialect.schema {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", db.dialect.name, err)
		}
	}
	return nil
}

// Driver reports which backend db is connected to.
func (db *DB) Driver() Driver {
	return db.dialect.driver
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) rebind(query string) string {
	return db.conn.Rebind(query)
}
