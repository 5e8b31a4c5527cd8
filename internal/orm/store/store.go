// Package store opens the relational store the lab records live in and
// bootstraps its tables.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/labbookdb/labbookdb/internal/orm/codegen"
	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// MemoryPath opens a private in-memory SQLite database
const MemoryPath = ":memory:"

var sqlOpen = sql.Open

// Options selects and addresses the store
type Options struct {
	// Driver is "sqlite" (default) or "postgres"
	Driver string
	// Path is the SQLite database file
	Path string
	// DSN is the PostgreSQL connection string
	DSN string
}

// Store is an open relational store
type Store struct {
	db       *sql.DB
	dialect  dialect.Dialect
	registry *schema.Registry
	logger   *zap.Logger
	location string
}

// Open connects to the store described by opts and creates any missing tables
func Open(ctx context.Context, opts Options, reg *schema.Registry, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := dialect.Parse(opts.Driver)
	if err != nil {
		return nil, err
	}

	var source string
	switch d {
	case dialect.Postgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres store needs a DSN")
		}
		source = opts.DSN
	default:
		source, err = ExpandPath(opts.Path)
		if err != nil {
			return nil, err
		}
		if source == "" {
			return nil, fmt.Errorf("sqlite store needs a database path")
		}
		if source != MemoryPath {
			if err := os.MkdirAll(filepath.Dir(source), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	}

	db, err := sqlOpen(d.DriverName(), source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if d == dialect.SQLite && source == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}

	s := New(db, d, reg, logger)
	s.location = source
	if d == dialect.Postgres {
		s.location = "postgres"
	}
	if err := s.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("store opened", zap.String("dialect", d.String()), zap.String("location", s.location))
	return s, nil
}

// New wraps an already open database handle
func New(db *sql.DB, d dialect.Dialect, reg *schema.Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: d, registry: reg, logger: logger}
}

// Bootstrap creates every table of the registry that does not exist yet
func (s *Store) Bootstrap(ctx context.Context) error {
	stmts, err := codegen.NewDDLGenerator(s.dialect, s.registry).GenerateSchema()
	if err != nil {
		return fmt.Errorf("generate ddl: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// DB returns the underlying database handle
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect of the store
func (s *Store) Dialect() dialect.Dialect { return s.dialect }

// Registry returns the schema registry the store was bootstrapped with
func (s *Store) Registry() *schema.Registry { return s.registry }

// Location returns the database file path, or the driver name for server stores
func (s *Store) Location() string { return s.location }

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
