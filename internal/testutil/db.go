// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/labbookdb/labbookdb/internal/orm/schema"
	"github.com/labbookdb/labbookdb/internal/orm/store"
)

// NewStore opens a bootstrapped SQLite store in a temporary directory.
// The store is closed when the test finishes.
func NewStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "meta.db")
	s, err := store.Open(context.Background(), store.Options{Path: path}, schema.Labbook(), nil)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Exec runs statements and fails the test on the first error
func Exec(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// Count returns the number of rows in a table
func Count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// SeedScenario inserts two cages, one treated with the cFluDW protocol
// (cage 7, id_local 570974) and one without any treatment (cage 8).
func SeedScenario(t *testing.T, db *sql.DB) {
	t.Helper()
	Exec(t, db,
		`INSERT INTO cages (id, id_local, location) VALUES (7, '570974', 'room A')`,
		`INSERT INTO cages (id, id_local, location) VALUES (8, '570975', 'room B')`,
		`INSERT INTO protocols (id, code, name, type) VALUES (1, 'cFluDW', 'Fluoxetine drinking water', 'treatment')`,
		`INSERT INTO treatment_protocols (id, route, frequency) VALUES (1, 'drinking water', 'continuous')`,
		`INSERT INTO treatments (id, start_date, protocol_id) VALUES (1, '2016-04-25 00:00:00+00:00', 1)`,
		`INSERT INTO treatment_cage_associations (treatments_id, cages_id) VALUES (1, 7)`,
	)
}
