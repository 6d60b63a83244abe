package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates driver errors into the interfaces error taxonomy.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &interfaces.DatabaseError{Op: op, Err: interfaces.ErrNotFound}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, pgErr.ConstraintName)}
		case pgForeignKeyViolation:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, pgErr.ConstraintName)}
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrUniqueConstraint, liteErr.Error())}
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &interfaces.DatabaseError{Op: op, Err: fmt.Errorf("%w: %s", interfaces.ErrForeignKeyConstraint, liteErr.Error())}
		}
	}

	return &interfaces.DatabaseError{Op: op, Err: err}
}
