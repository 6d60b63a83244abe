// Package sqlstore implements the database interfaces on top of database/sql
// for PostgreSQL (pgx) and SQLite (modernc).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/migrations"
	"github.com/leafsii/blog-backend/internal/db/query"
)

const (
	postgresDriver = "pgx"
	sqliteDriver   = "sqlite"

	sqliteParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Database implements interfaces.Database over a *sql.DB pool.
type Database struct {
	mu      sync.RWMutex
	dialect query.Dialect
	dsn     string
	opts    Options
	builder *query.Builder
	db      *sql.DB
}

// New creates an unconnected database for the dialect and DSN.
func New(dialect query.Dialect, dsn string, opts Options) *Database {
	return &Database{
		dialect: dialect,
		dsn:     dsn,
		opts:    opts,
		builder: query.NewBuilder(dialect),
	}
}

// Dialect returns the SQL dialect of the database
func (d *Database) Dialect() query.Dialect {
	return d.dialect
}

// DB returns the underlying pool, or nil before Connect.
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Connect opens the pool and verifies it with a ping
func (d *Database) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return nil
	}

	var (
		driver string
		dsn    = d.dsn
	)
	switch d.dialect {
	case query.Postgres:
		driver = postgresDriver
	case query.SQLite:
		driver = sqliteDriver
		dsn = sqliteDSN(dsn)
	default:
		return fmt.Errorf("%w: unsupported dialect %q", interfaces.ErrInvalidQuery, d.dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return &interfaces.DatabaseError{Op: "open", Err: err}
	}

	if d.dialect == query.SQLite {
		// a single connection serializes writers and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if d.opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(d.opts.MaxOpenConns)
		}
		if d.opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(d.opts.MaxIdleConns)
		}
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &interfaces.DatabaseError{Op: "ping", Err: err}
	}

	d.db = db
	return nil
}

// Disconnect closes the pool
func (d *Database) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	if err != nil {
		return &interfaces.DatabaseError{Op: "close", Err: err}
	}
	return nil
}

// IsHealthy pings the database
func (d *Database) IsHealthy(ctx context.Context) bool {
	db := d.DB()
	if db == nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

// Migrate applies the embedded goose migrations for the dialect
func (d *Database) Migrate(ctx context.Context) error {
	db := d.DB()
	if db == nil {
		return interfaces.ErrDatabaseNotConnected
	}
	if _, err := migrations.Up(ctx, d.dialect, db); err != nil {
		return &interfaces.DatabaseError{Op: "migrate", Err: err}
	}
	return nil
}

// Transaction runs fn inside a database transaction. It commits when fn
// returns nil and rolls back on error or panic.
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	db := d.DB()
	if db == nil {
		return interfaces.ErrDatabaseNotConnected
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &interfaces.DatabaseError{Op: "begin", Err: err}
	}
	tx := newTransaction(sqlTx, d.builder)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, interfaces.ErrTransactionCompleted) {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqliteParams
}
