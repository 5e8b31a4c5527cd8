// Package transaction runs one top-level write call inside a single
// database transaction.
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrTransactionDone is returned when a finished transaction is committed or rolled back again
var ErrTransactionDone = errors.New("transaction already finished")

// Transaction wraps a sql.Tx and records how it ended
type Transaction struct {
	tx         *sql.Tx
	committed  atomic.Bool
	rolledBack atomic.Bool
}

// Manager manages database transactions
type Manager struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, logger: logger}
}

// Begin starts a new transaction
func (m *Manager) Begin(ctx context.Context) (*Transaction, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Transaction{tx: tx}, nil
}

// WithTransaction executes fn within a transaction. It commits when fn
// returns nil and rolls back when fn returns an error or panics.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		m.logger.Debug("transaction rolled back", zap.Error(err))
		return err
	}

	return tx.Commit()
}

// Tx returns the underlying sql.Tx
func (t *Transaction) Tx() *sql.Tx {
	return t.tx
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	if t.committed.Load() || t.rolledBack.Load() {
		return ErrTransactionDone
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.committed.Store(true)
	return nil
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback() error {
	if t.committed.Load() || t.rolledBack.Load() {
		return ErrTransactionDone
	}
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.rolledBack.Store(true)
	return nil
}

// IsCommitted reports whether the transaction was committed
func (t *Transaction) IsCommitted() bool {
	return t.committed.Load()
}

// IsRolledBack reports whether the transaction was rolled back
func (t *Transaction) IsRolledBack() bool {
	return t.rolledBack.Load()
}
