package memory

import (
	"context"
	"sync"

	"github.com/leafsii/blog-backend/internal/db/entities"
	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// tables holds every row of the in-memory store. Posts are stored without
// their Topic and Comments; those are attached on read.
type tables struct {
	topics   map[int64]entities.Topic
	posts    map[int64]entities.Post
	comments map[int64]entities.Comment

	topicSeq   int64
	postSeq    int64
	commentSeq int64
}

func newTables() *tables {
	return &tables{
		topics:   make(map[int64]entities.Topic),
		posts:    make(map[int64]entities.Post),
		comments: make(map[int64]entities.Comment),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		topics:     make(map[int64]entities.Topic, len(t.topics)),
		posts:      make(map[int64]entities.Post, len(t.posts)),
		comments:   make(map[int64]entities.Comment, len(t.comments)),
		topicSeq:   t.topicSeq,
		postSeq:    t.postSeq,
		commentSeq: t.commentSeq,
	}
	for id, v := range t.topics {
		c.topics[id] = v
	}
	for id, v := range t.posts {
		c.posts[id] = v
	}
	for id, v := range t.comments {
		c.comments[id] = v
	}
	return c
}

// Database implements the Database interface for in-memory storage.
// Transactions are serialized; each one sees and mutates the live tables
// and restores a snapshot on rollback.
type Database struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	data      *tables
	connected bool
}

// NewDatabase creates a new in-memory database
func NewDatabase() *Database {
	return &Database{data: newTables()}
}

// Connect establishes a connection to the database
func (db *Database) Connect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = true
	return nil
}

// Disconnect closes the database connection and drops all data
func (db *Database) Disconnect(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.connected = false
	db.data = newTables()
	return nil
}

// IsHealthy checks if the database connection is healthy
func (db *Database) IsHealthy(ctx context.Context) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.connected
}

// Migrate is a no-op beyond the connection check; tables always exist.
func (db *Database) Migrate(ctx context.Context) error {
	if !db.IsHealthy(ctx) {
		return interfaces.ErrDatabaseNotConnected
	}
	return nil
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	if !db.IsHealthy(ctx) {
		return interfaces.ErrDatabaseNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	tx := NewTransaction(db)

	defer func() {
		if !tx.IsCompleted() {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// TableSizes returns the number of rows per table (for debugging/testing)
func (db *Database) TableSizes() map[string]int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return map[string]int{
		"topics":   len(db.data.topics),
		"posts":    len(db.data.posts),
		"comments": len(db.data.comments),
	}
}

// Clear removes all data from all tables (for testing)
func (db *Database) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data = newTables()
}
