package crud

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
	"github.com/labbookdb/labbookdb/internal/orm/transaction"
)

// Operation represents a write operation type
type Operation int

const (
	// OperationCreate builds new records; expressions in lists link their first match
	OperationCreate Operation = iota
	// OperationUpdate changes an existing record; expressions in lists link every match
	OperationUpdate
)

// String returns the string representation of the operation
func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// TransactionManager is an interface for managing transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// operations holds what the constructor and the mutator share
type operations struct {
	dialect   dialect.Dialect
	registry  *schema.Registry
	resolver  *identifier.Resolver
	txManager TransactionManager
	logger    *zap.Logger
}

func newOperations(db *sql.DB, d dialect.Dialect, r *schema.Registry, logger *zap.Logger) operations {
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := query.NewBuilder(r, d, logger)
	return operations{
		dialect:   d,
		registry:  r,
		resolver:  identifier.NewResolver(r, builder, logger),
		txManager: transaction.NewManager(db, logger),
		logger:    logger,
	}
}

// begin returns the logger of one top-level call, tagged with a fresh session id
func (o *operations) begin(op Operation, fields ...zap.Field) *zap.Logger {
	fields = append([]zap.Field{
		zap.String("session", uuid.NewString()),
		zap.Stringer("operation", op),
	}, fields...)
	return o.logger.With(fields...)
}

func (o *operations) dispatcher(tx *sql.Tx, op Operation, logger *zap.Logger) (*dispatcher, *Session) {
	s := NewSession(tx, o.dialect, o.registry, logger)
	return &dispatcher{
		registry: o.registry,
		resolver: o.resolver,
		session:  s,
		db:       tx,
		logger:   logger,
		mode:     op,
	}, s
}
