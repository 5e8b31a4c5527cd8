package crud

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Mutator applies parameter trees to existing records
type Mutator struct {
	operations
}

// NewMutator creates a new mutator writing to db
func NewMutator(db *sql.DB, d dialect.Dialect, r *schema.Registry, logger *zap.Logger) *Mutator {
	return &Mutator{operations: newOperations(db, d, r, logger)}
}

// WithTransactionManager replaces the transaction manager
func (m *Mutator) WithTransactionManager(tm TransactionManager) *Mutator {
	m.txManager = tm
	return m
}

// Update resolves target to an existing record, using the first match,
// and applies params to it in one transaction. Scalars are overwritten;
// collections are appended to.
func (m *Mutator) Update(ctx context.Context, target string, params ParameterTree) (*Record, error) {
	e, err := identifier.Parse(target)
	if err != nil {
		return nil, err
	}

	logger := m.begin(OperationUpdate, zap.String("target", target))

	var record *Record
	err = m.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		d, s := m.dispatcher(tx, OperationUpdate, logger)

		res, err := m.resolver.ResolveExpr(ctx, tx, e)
		if err != nil {
			return err
		}
		d.warnMultiple(res.Category, schema.PrimaryKey, target, res.Keys)

		t, err := m.registry.Resolve(res.Category)
		if err != nil {
			return err
		}
		r, err := s.Load(ctx, t, res.Keys[0])
		if err != nil {
			return err
		}
		if err := d.apply(ctx, r, params); err != nil {
			return err
		}
		s.Add(r)
		if err := s.Flush(ctx); err != nil {
			return err
		}
		record = r
		return nil
	})
	if err != nil {
		logger.Debug("update failed", zap.Error(err))
		return nil, ConvertDBError(err)
	}

	logger.Info("updated record", zap.String("category", record.Type.Name), zap.Int64("id", record.ID))
	return record, nil
}
