package db

import (
	"context"
	"fmt"

	"github.com/leafsii/blog-backend/internal/db/backends/memory"
	"github.com/leafsii/blog-backend/internal/db/backends/sqlstore"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

// Config holds database configuration
type Config struct {
	Type         string // "memory", "postgres", "sqlite"
	DSN          string // Data Source Name / Connection String
	MaxOpenConns int    // Maximum open connections (for SQL backends)
	MaxIdleConns int    // Maximum idle connections (for SQL backends)
}

// NewDatabase creates a new database instance based on configuration
func NewDatabase(config *Config) (interfaces.Database, error) {
	if config == nil {
		config = &Config{Type: "memory"}
	}

	switch config.Type {
	case "", "memory":
		return memory.NewDatabase(), nil
	case "postgres", "sqlite":
		dialect, err := query.ParseDialect(config.Type)
		if err != nil {
			return nil, err
		}
		if config.DSN == "" {
			return nil, fmt.Errorf("database type %s requires a DSN", config.Type)
		}
		return sqlstore.New(dialect, config.DSN, sqlstore.Options{
			MaxOpenConns: config.MaxOpenConns,
			MaxIdleConns: config.MaxIdleConns,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// MustNewDatabase creates a new database instance and panics on error
func MustNewDatabase(config *Config) interfaces.Database {
	db, err := NewDatabase(config)
	if err != nil {
		panic(fmt.Sprintf("failed to create database: %v", err))
	}
	return db
}

// NewInMemoryDatabase creates a new in-memory database instance
func NewInMemoryDatabase() interfaces.Database {
	return memory.NewDatabase()
}

// ConnectAndMigrate connects to the database and runs migrations
func ConnectAndMigrate(ctx context.Context, db interfaces.Database) error {
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if !db.IsHealthy(ctx) {
		return fmt.Errorf("database health check failed")
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
