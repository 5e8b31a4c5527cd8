package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

func TestParse(t *testing.T) {
	tests := map[string]Dialect{
		"":           SQLite,
		"sqlite3":    SQLite,
		"SQLite":     SQLite,
		"postgres":   Postgres,
		"postgresql": Postgres,
		"pgx":        Postgres,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("mysql")
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", SQLite.Placeholder(3))
	assert.Equal(t, "$3", Postgres.Placeholder(3))
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, "INTEGER", SQLite.ColumnType(schema.KindInt))
	assert.Equal(t, "BIGINT", Postgres.ColumnType(schema.KindInt))
	assert.Equal(t, "TIMESTAMP", SQLite.ColumnType(schema.KindDateTime))
	assert.Equal(t, "DOUBLE PRECISION", Postgres.ColumnType(schema.KindFloat))
	assert.Equal(t, "TEXT", Postgres.ColumnType(schema.KindString))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"cages"`, QuoteIdentifier("cages"))
	assert.Equal(t, `"a""b"`, QuoteIdentifier(`a"b`))
	assert.Equal(t, `"Cage"."id_local"`, Qualify("Cage", "id_local"))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "sqlite3", SQLite.DriverName())
	assert.Equal(t, "pgx", Postgres.DriverName())
	assert.True(t, Postgres.Returning())
	assert.False(t, SQLite.Returning())
}
