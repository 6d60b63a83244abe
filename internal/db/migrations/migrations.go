// Package migrations embeds the schema migrations for every supported SQL
// dialect and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/leafsii/blog-backend/internal/db/query"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Status is the state of a single migration.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

func gooseDialect(d query.Dialect) (goose.Dialect, error) {
	switch d {
	case query.Postgres:
		return goose.DialectPostgres, nil
	case query.SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no migrations for dialect %q", d)
	}
}

// Files returns the migration files for the dialect.
func Files(d query.Dialect) (fs.FS, error) {
	return fs.Sub(embedded, string(d))
}

// NewProvider returns a goose provider bound to db. The provider must not be
// closed by callers that keep using db, since closing it closes db.
func NewProvider(d query.Dialect, db *sql.DB) (*goose.Provider, error) {
	dialect, err := gooseDialect(d)
	if err != nil {
		return nil, err
	}
	files, err := Files(d)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, db, files)
}

// Up applies every pending migration and returns the number applied.
func Up(ctx context.Context, d query.Dialect, db *sql.DB) (int, error) {
	p, err := NewProvider(d, db)
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("migrate up: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recently applied migration.
func Down(ctx context.Context, d query.Dialect, db *sql.DB) error {
	p, err := NewProvider(d, db)
	if err != nil {
		return err
	}
	if _, err := p.Down(ctx); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// CurrentStatus lists every known migration and whether it is applied.
func CurrentStatus(ctx context.Context, d query.Dialect, db *sql.DB) ([]Status, error) {
	p, err := NewProvider(d, db)
	if err != nil {
		return nil, err
	}
	res, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}

	out := make([]Status, 0, len(res))
	for _, s := range res {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
