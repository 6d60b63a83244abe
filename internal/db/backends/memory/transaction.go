package memory

import (
	"context"
	"sync"

	"github.com/leafsii/blog-backend/internal/db/interfaces"
)

// Transaction represents an in-memory transaction. The tables are
// snapshotted on the first write so read-only transactions copy nothing.
type Transaction struct {
	mu         sync.RWMutex
	db         *Database
	snapshot   *tables // guarded by db.mu
	committed  bool
	rolledBack bool
}

// NewTransaction creates a new in-memory transaction. The caller must hold
// the database transaction lock until the transaction completes.
func NewTransaction(db *Database) *Transaction {
	return &Transaction{db: db}
}

// snapshotLocked records the pre-transaction state before the first write.
// The caller must hold db.mu for writing.
func (tx *Transaction) snapshotLocked() {
	if tx.snapshot == nil {
		tx.snapshot = tx.db.data.clone()
	}
}

func (tx *Transaction) Topics() interfaces.TopicRepository {
	return &topicRepository{db: tx.db, tx: tx}
}

func (tx *Transaction) Posts() interfaces.PostRepository {
	return &postRepository{db: tx.db, tx: tx}
}

func (tx *Transaction) Comments() interfaces.CommentRepository {
	return &commentRepository{db: tx.db, tx: tx}
}

// Commit commits the transaction
func (tx *Transaction) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return interfaces.ErrTransactionCompleted
	}

	tx.db.mu.Lock()
	tx.snapshot = nil
	tx.db.mu.Unlock()

	tx.committed = true
	return nil
}

// Rollback rolls back the transaction
func (tx *Transaction) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return interfaces.ErrTransactionCompleted
	}

	tx.db.mu.Lock()
	if tx.snapshot != nil {
		tx.db.data = tx.snapshot
		tx.snapshot = nil
	}
	tx.db.mu.Unlock()

	tx.rolledBack = true
	return nil
}

// IsCompleted returns true if the transaction has been committed or rolled back
func (tx *Transaction) IsCompleted() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()

	return tx.committed || tx.rolledBack
}
