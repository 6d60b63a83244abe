package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// Dialect names the SQL flavour a Builder emits.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a configured database type onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: unsupported dialect %q", interfaces.ErrInvalidQuery, name)
	}
}

// Builder helps construct database queries
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a new query builder for a dialect
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect the builder targets
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
// Question marks inside single-quoted literals are left alone.
func (b *Builder) Rebind(query string) string {
	if b.dialect != Postgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			sb.WriteByte(c)
		case c == '?' && !quoted:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Paginate appends LIMIT/OFFSET to query. A negative limit means no limit.
func (b *Builder) Paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit >= 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	} else if offset > 0 && b.dialect == SQLite {
		// sqlite only accepts OFFSET after a LIMIT clause
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}

// Set is one column assignment of an UPDATE statement.
type Set struct {
	Column string
	Value  any
}

// Update builds "UPDATE table SET a = ?, b = ? WHERE key = ?" for the
// given assignments, rebound for the dialect.
func (b *Builder) Update(table string, sets []Set, key string, id any) (string, []any, error) {
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("%w: update of %s without columns", interfaces.ErrInvalidQuery, table)
	}

	cols := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for _, s := range sets {
		cols = append(cols, s.Column+" = ?")
		args = append(args, s.Value)
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(cols, ", "), key)
	return b.Rebind(q), args, nil
}

// Offset converts a 1-based page number into a row offset. Values that
// would overflow saturate at math.MaxInt.
func Offset(page, size int) int {
	if page <= 1 || size <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// PageCount returns ceil(total/size), never less than one.
func PageCount(total int64, size int) int64 {
	if total <= 0 || size <= 0 {
		return 1
	}
	s := int64(size)
	return (total + s - 1) / s
}

// ApplyPagination applies limit and offset to the records. A negative limit
// means no limit. The result is never nil.
func ApplyPagination[T any](records []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []T{}
	}

	end := len(records)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}

	out := make([]T, end-offset)
	copy(out, records[offset:end])
	return out
}
