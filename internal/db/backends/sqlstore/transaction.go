package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/leafsii/blog-backend/internal/db/interfaces"
	"github.com/leafsii/blog-backend/internal/db/query"
)

// Transaction wraps a *sql.Tx and hands out repositories bound to it.
type Transaction struct {
	mu        sync.Mutex
	tx        *sql.Tx
	builder   *query.Builder
	completed bool
}

func newTransaction(tx *sql.Tx, builder *query.Builder) *Transaction {
	return &Transaction{tx: tx, builder: builder}
}

func (t *Transaction) Topics() interfaces.TopicRepository {
	return &topicRepository{tx: t.tx, b: t.builder}
}

func (t *Transaction) Posts() interfaces.PostRepository {
	return &postRepository{tx: t.tx, b: t.builder}
}

func (t *Transaction) Comments() interfaces.CommentRepository {
	return &commentRepository{tx: t.tx, b: t.builder}
}

// Commit commits the transaction
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return interfaces.ErrTransactionCompleted
	}
	t.completed = true
	if err := t.tx.Commit(); err != nil {
		return &interfaces.DatabaseError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return interfaces.ErrTransactionCompleted
	}
	t.completed = true
	// the driver already rolled back when the context was cancelled
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &interfaces.DatabaseError{Op: "rollback", Err: err}
	}
	return nil
}

// IsCompleted returns true if the transaction has been committed or rolled back
func (t *Transaction) IsCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}
