package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// DBTX is the subset of *sql.Tx a session writes through
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type identityKey struct {
	root string
	id   int64
}

// Session is the unit of work of one top-level call. Nothing is written
// until Flush.
type Session struct {
	db       DBTX
	dialect  dialect.Dialect
	registry *schema.Registry
	logger   *zap.Logger

	identity map[identityKey]*Record
	pending  []*Record
	flushing map[*Record]bool
}

// NewSession creates a session writing through db, normally a transaction
func NewSession(db DBTX, d dialect.Dialect, r *schema.Registry, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		db:       db,
		dialect:  d,
		registry: r,
		logger:   logger,
		identity: make(map[identityKey]*Record),
		flushing: make(map[*Record]bool),
	}
}

// Add schedules a record for the next flush
func (s *Session) Add(r *Record) {
	for _, p := range s.pending {
		if p == r {
			return
		}
	}
	s.pending = append(s.pending, r)
}

// Load returns the record of type t with the given key, typed as the most
// specific category the row's discriminator names. Loading the same row
// twice returns the same record.
func (s *Session) Load(ctx context.Context, t *schema.EntityType, id int64) (*Record, error) {
	key := identityKey{root: t.Root().Name, id: id}
	if r, ok := s.identity[key]; ok {
		if !r.Type.IsA(t) {
			return nil, fmt.Errorf("%w: %s %d is a %s", ErrNotFound, t.Name, id, r.Type.Name)
		}
		return r, nil
	}

	actual, err := s.rowType(ctx, t, id)
	if err != nil {
		return nil, err
	}

	r := loaded(actual, id)
	s.identity[key] = r
	return r, nil
}

// rowType reads the discriminator of an existing row and returns the
// category it names, which must be t or one of its subtypes
func (s *Session) rowType(ctx context.Context, t *schema.EntityType, id int64) (*schema.EntityType, error) {
	root := t.Root()
	column := schema.PrimaryKey
	if root.Discriminator != "" {
		column = root.Discriminator
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		dialect.QuoteIdentifier(column),
		dialect.QuoteIdentifier(root.Table),
		dialect.QuoteIdentifier(schema.PrimaryKey),
		s.dialect.Placeholder(1),
	)
	var identity sql.NullString
	if err := s.db.QueryRowContext(ctx, stmt, id).Scan(&identity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, t.Name, id)
		}
		return nil, fmt.Errorf("failed to load %s %d: %w", t.Name, id, err)
	}
	if root.Discriminator == "" {
		return t, nil
	}

	actual := s.byIdentity(root, identity.String)
	if actual == nil {
		// Unknown identities load as the requested type
		actual = t
	}
	if !actual.IsA(t) {
		return nil, fmt.Errorf("%w: %s %d is a %s", ErrNotFound, t.Name, id, actual.Name)
	}
	return actual, nil
}

// byIdentity returns the category of root's hierarchy with the given
// discriminator value
func (s *Session) byIdentity(root *schema.EntityType, identity string) *schema.EntityType {
	if root.Identity == identity {
		return root
	}
	for _, t := range s.registry.Types() {
		if t != root && t.Root() == root && t.Identity == identity {
			return t
		}
	}
	return nil
}

// Flush writes every pending record with its linked records
func (s *Session) Flush(ctx context.Context) error {
	for _, r := range s.pending {
		if err := s.persist(ctx, r); err != nil {
			return err
		}
	}
	s.pending = nil
	return nil
}

// persist writes r in dependency order: to-one targets first so their
// keys can be set, then the record itself, then foreign key children with
// their key set, then association rows
func (s *Session) persist(ctx context.Context, r *Record) error {
	if s.flushing[r] {
		return fmt.Errorf("%w: %s links back to itself", ErrInvalidParameter, r.Type.Name)
	}
	s.flushing[r] = true
	defer delete(s.flushing, r)

	for _, name := range sortedKeys(r.toOne) {
		target := r.toOne[name]
		rel, _ := r.Type.Relationship(name)
		if err := s.persist(ctx, target); err != nil {
			return err
		}
		if err := r.setColumn(rel.ForeignKey, target.ID); err != nil {
			return err
		}
	}

	if !r.persisted {
		if err := s.insert(ctx, r); err != nil {
			return err
		}
	} else if err := s.update(ctx, r); err != nil {
		return err
	}

	for _, name := range sortedKeys(r.links) {
		rel, _ := r.Type.Relationship(name)
		for _, child := range r.links[name] {
			if rel.Linkage == schema.ForeignKey {
				if err := child.setColumn(rel.ForeignKey, r.ID); err != nil {
					return err
				}
				if err := s.persist(ctx, child); err != nil {
					return err
				}
				continue
			}
			if err := s.persist(ctx, child); err != nil {
				return err
			}
			if err := s.associate(ctx, rel, r.ID, child.ID); err != nil {
				return err
			}
		}
	}
	r.links = make(map[string][]*Record)
	return nil
}

// insert writes the root table row with the discriminator, then one row
// per subtype table sharing the generated key
func (s *Session) insert(ctx context.Context, r *Record) error {
	chain := r.Type.Chain()
	root := chain[0]

	cols, vals := s.ownColumns(root, r)
	if disc := root.Discriminator; disc != "" {
		cols = append(cols, disc)
		vals = append(vals, r.Type.Identity)
	}
	id, err := s.insertRow(ctx, root.Table, cols, vals)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", r.Type.Name, ConvertDBError(err))
	}

	for _, t := range chain[1:] {
		cols, vals := s.ownColumns(t, r)
		cols = append([]string{schema.PrimaryKey}, cols...)
		vals = append([]interface{}{id}, vals...)
		if _, err := s.db.ExecContext(ctx, s.insertStatement(t.Table, cols), vals...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.Type.Name, ConvertDBError(err))
		}
	}

	r.ID = id
	r.persisted = true
	r.changed = make(map[string]bool)
	s.identity[identityKey{root: root.Name, id: id}] = r

	s.logger.Debug("inserted record",
		zap.String("category", r.Type.Name),
		zap.Int64("id", id),
	)
	return nil
}

// update writes the changed columns of a persisted record, one statement
// per table of the chain
func (s *Session) update(ctx context.Context, r *Record) error {
	if len(r.changed) == 0 {
		return nil
	}
	for _, t := range r.Type.Chain() {
		var sets []string
		var vals []interface{}
		for _, f := range t.OwnFields() {
			if !r.changed[f.Name] {
				continue
			}
			vals = append(vals, r.values[f.Name])
			sets = append(sets, fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(f.Name), s.dialect.Placeholder(len(vals))))
		}
		if len(sets) == 0 {
			continue
		}
		vals = append(vals, r.ID)
		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			dialect.QuoteIdentifier(t.Table),
			strings.Join(sets, ", "),
			dialect.QuoteIdentifier(schema.PrimaryKey),
			s.dialect.Placeholder(len(vals)),
		)
		if _, err := s.db.ExecContext(ctx, stmt, vals...); err != nil {
			return fmt.Errorf("failed to update %s %d: %w", r.Type.Name, r.ID, ConvertDBError(err))
		}
	}

	s.logger.Debug("updated record",
		zap.String("category", r.Type.Name),
		zap.Int64("id", r.ID),
		zap.Int("fields", len(r.changed)),
	)
	r.changed = make(map[string]bool)
	return nil
}

// associate inserts a join table row unless the pair is already linked
func (s *Session) associate(ctx context.Context, rel *schema.Relationship, source, target int64) error {
	src, tgt := dialect.QuoteIdentifier(rel.SourceColumn), dialect.QuoteIdentifier(rel.TargetColumn)
	table := dialect.QuoteIdentifier(rel.JoinTable)

	probe := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s AND %s = %s",
		table, src, s.dialect.Placeholder(1), tgt, s.dialect.Placeholder(2))
	var n int
	if err := s.db.QueryRowContext(ctx, probe, source, target).Scan(&n); err != nil {
		return fmt.Errorf("failed to check %s link: %w", rel.Name, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, s.insertStatement(rel.JoinTable, []string{rel.SourceColumn, rel.TargetColumn}), source, target); err != nil {
		return fmt.Errorf("failed to link %s: %w", rel.Name, ConvertDBError(err))
	}
	return nil
}

// ownColumns returns the set columns stored in t's own table
func (s *Session) ownColumns(t *schema.EntityType, r *Record) ([]string, []interface{}) {
	var cols []string
	var vals []interface{}
	for _, f := range t.OwnFields() {
		if f.Name == schema.PrimaryKey {
			continue
		}
		if v, ok := r.values[f.Name]; ok {
			cols = append(cols, f.Name)
			vals = append(vals, v)
		}
	}
	return cols, vals
}

func (s *Session) insertStatement(table string, cols []string) string {
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", dialect.QuoteIdentifier(table))
	}
	quoted := make([]string, len(cols))
	holders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = dialect.QuoteIdentifier(c)
		holders[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(holders, ", "))
}

// insertRow inserts one row and returns its generated key
func (s *Session) insertRow(ctx context.Context, table string, cols []string, vals []interface{}) (int64, error) {
	stmt := s.insertStatement(table, cols)
	if s.dialect.Returning() {
		var id int64
		err := s.db.QueryRowContext(ctx, stmt+" RETURNING "+dialect.QuoteIdentifier(schema.PrimaryKey), vals...).Scan(&id)
		return id, err
	}

	res, err := s.db.ExecContext(ctx, stmt, vals...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
