// Package dialect holds the SQL differences between the supported stores
package dialect

import (
	"fmt"
	"strings"

	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

// Dialect identifies a SQL flavor
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Parse maps a driver or dialect name to a Dialect
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported database driver: %s", name)
	}
}

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// DriverName returns the database/sql driver registered for the dialect
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite3"
}

// Placeholder returns the bind parameter marker for the nth argument (1-based)
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Returning reports whether INSERT ... RETURNING is used to read generated keys
func (d Dialect) Returning() bool {
	return d == Postgres
}

// ColumnType maps a field kind to a column type
func (d Dialect) ColumnType(k schema.Kind) string {
	switch k {
	case schema.KindInt:
		if d == Postgres {
			return "BIGINT"
		}
		return "INTEGER"
	case schema.KindFloat:
		if d == Postgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case schema.KindBool:
		return "BOOLEAN"
	case schema.KindDateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// PrimaryKey returns the column definition of a generated integer key
func (d Dialect) PrimaryKey() string {
	if d == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// InheritedKey returns the column definition of a subtype key referencing its supertype row
func (d Dialect) InheritedKey(parentTable string) string {
	kind := "INTEGER"
	if d == Postgres {
		kind = "BIGINT"
	}
	return fmt.Sprintf("%s PRIMARY KEY REFERENCES %s (%s)", kind, QuoteIdentifier(parentTable), QuoteIdentifier(schema.PrimaryKey))
}

// QuoteIdentifier wraps a SQL identifier in double quotes and escapes internal quotes
func QuoteIdentifier(identifier string) string {
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return `"` + escaped + `"`
}

// Qualify returns the quoted alias.column reference
func Qualify(alias, column string) string {
	return QuoteIdentifier(alias) + "." + QuoteIdentifier(column)
}
