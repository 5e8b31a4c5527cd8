package crud

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Result is the outcome of a Create call
type Result struct {
	Record *Record
	ID     int64

	// SettableFields is set when the tree named only a category
	SettableFields []string

	// Duplicate is set when the store rejected the tree as a double entry
	Duplicate bool
}

// Discovery reports whether the call listed the settable fields instead
// of creating a record
func (r *Result) Discovery() bool {
	return r.SettableFields != nil
}

// Constructor creates records, with their nested children and links, from
// parameter trees
type Constructor struct {
	operations
}

// NewConstructor creates a new constructor writing to db
func NewConstructor(db *sql.DB, d dialect.Dialect, r *schema.Registry, logger *zap.Logger) *Constructor {
	return &Constructor{operations: newOperations(db, d, r, logger)}
}

// WithTransactionManager replaces the transaction manager
func (c *Constructor) WithTransactionManager(tm TransactionManager) *Constructor {
	c.txManager = tm
	return c
}

// Create builds the record described by tree and everything it nests,
// then persists them in one transaction. A tree holding only CATEGORY
// writes nothing and returns the settable fields of the category.
//
// A failed call leaves the store unchanged. A uniqueness violation is
// reported as a Duplicate result rather than an error.
func (c *Constructor) Create(ctx context.Context, tree ParameterTree) (*Result, error) {
	category, err := tree.Category()
	if err != nil {
		return nil, err
	}
	t, err := c.registry.Resolve(category)
	if err != nil {
		return nil, err
	}

	if len(tree.Keys()) == 0 {
		fields := t.SettableFields()
		if fields == nil {
			fields = []string{}
		}
		return &Result{SettableFields: fields}, nil
	}

	logger := c.begin(OperationCreate, zap.String("category", t.Name))

	var record *Record
	err = c.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		d, s := c.dispatcher(tx, OperationCreate, logger)
		r := NewRecord(t)
		if err := d.apply(ctx, r, tree); err != nil {
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
		err = ConvertDBError(err)
		if IsUniqueViolation(err) {
			logger.Warn("possible double entry, nothing was written", zap.Error(err))
			return &Result{Duplicate: true}, nil
		}
		logger.Debug("create failed", zap.Error(err))
		return nil, err
	}

	logger.Info("created record", zap.Int64("id", record.ID))
	return &Result{Record: record, ID: record.ID}, nil
}
