package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.db")

	s, err := Open(context.Background(), Options{Path: path}, schema.Labbook(), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, dialect.SQLite, s.Dialect())
	assert.Equal(t, path, s.Location())
	_, err = os.Stat(path)
	require.NoError(t, err)

	var n int
	err = s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('cages', 'treatment_protocols', 'genotype_associations')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOpen_BootstrapIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	ctx := context.Background()

	s, err := Open(ctx, Options{Path: path}, schema.Labbook(), nil)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO cages (id_local) VALUES ('570974')`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Path: path}, schema.Labbook(), nil)
	require.NoError(t, err)
	defer s.Close()

	var idLocal string
	require.NoError(t, s.DB().QueryRow(`SELECT id_local FROM cages`).Scan(&idLocal))
	assert.Equal(t, "570974", idLocal)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{Driver: "mysql", Path: "x.db"}, schema.Labbook(), nil)
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: "postgres"}, schema.Labbook(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")

	_, err = Open(ctx, Options{}, schema.Labbook(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{Path: MemoryPath}, schema.Labbook(), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.DB().Exec(`INSERT INTO genotypes (code) VALUES ('eptg')`)
	require.NoError(t, err)
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM genotypes`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/syncdata/meta.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "syncdata", "meta.db"), got)

	got, err = ExpandPath("/tmp/meta.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/meta.db", got)

	got, err = ExpandPath("~user/x")
	require.NoError(t, err)
	assert.Equal(t, "~user/x", got)
}
