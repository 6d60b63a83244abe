package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafsii/blog-backend/internal/db/dbtest"
	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

func newSQLite(t *testing.T, dsn string) *Database {
	t.Helper()
	ctx := context.Background()
	db := New(query.SQLite, dsn, Options{})
	require.NoError(t, db.Connect(ctx))
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { _ = db.Disconnect(context.Background()) })
	return db
}

func TestSQLiteDatabase(t *testing.T) {
	dbtest.RunConformanceTests(t, func(t *testing.T) interfaces.Database {
		return newSQLite(t, ":memory:")
	})
}

func TestSQLiteFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	ctx := context.Background()

	first := New(query.SQLite, path, Options{})
	require.NoError(t, first.Connect(ctx))
	require.NoError(t, first.Migrate(ctx))
	require.NoError(t, first.Transaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		_, err := tx.Topics().Create(ctx, entities.TopicCreate{Name: "durable"})
		return err
	}))
	require.NoError(t, first.Disconnect(ctx))

	second := newSQLite(t, path)
	require.NoError(t, second.Transaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		topic, err := tx.Topics().GetByName(ctx, "durable")
		require.NoError(t, err)
		assert.Equal(t, int64(1), topic.ID)
		return nil
	}))
}

func TestNotConnected(t *testing.T) {
	db := New(query.SQLite, ":memory:", Options{})
	ctx := context.Background()

	assert.False(t, db.IsHealthy(ctx))
	assert.Nil(t, db.DB())
	assert.ErrorIs(t, db.Migrate(ctx), interfaces.ErrDatabaseNotConnected)
	assert.ErrorIs(t, db.Transaction(ctx, func(ctx context.Context, tx interfaces.Tx) error { return nil }),
		interfaces.ErrDatabaseNotConnected)
	assert.NoError(t, db.Disconnect(ctx))
}

func TestUnsupportedDialect(t *testing.T) {
	db := New(query.Dialect("oracle"), "x", Options{})
	assert.ErrorIs(t, db.Connect(context.Background()), interfaces.ErrInvalidQuery)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "blog.db?"+sqliteParams, sqliteDSN("blog.db"))
	assert.Equal(t, "file:blog.db?mode=rwc&"+sqliteParams, sqliteDSN("file:blog.db?mode=rwc"))
	assert.Equal(t, "x.db?_pragma=foreign_keys(0)", sqliteDSN("x.db?_pragma=foreign_keys(0)"))
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError("op", nil))

	other := errors.New("disk on fire")
	err := mapError("op", other)
	var dbErr *interfaces.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "op", dbErr.Op)
	assert.ErrorIs(t, err, other)

	assert.ErrorIs(t, mapError("op", fmt.Errorf("wrapped: %w", sql.ErrNoRows)), interfaces.ErrNotFound)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := newSQLite(t, ":memory:")
	ctx := context.Background()

	errBoom := errors.New("boom")
	var seen *Transaction
	err := db.Transaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		seen = tx.(*Transaction)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	require.NotNil(t, seen)
	assert.True(t, seen.IsCompleted())
	assert.ErrorIs(t, seen.Commit(ctx), interfaces.ErrTransactionCompleted)
}
