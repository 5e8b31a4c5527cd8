package codegen

import (
	"strings"
	"testing"

	"github.com/labbookdb/labbookdb/internal/orm/dialect"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

func TestDDLGenerator_GenerateCreateTable_Simple(t *testing.T) {
	reg := schema.Labbook()
	gen := NewDDLGenerator(dialect.SQLite, reg)

	cage, err := reg.Resolve("Cage")
	if err != nil {
		t.Fatal(err)
	}

	result, err := gen.GenerateCreateTable(cage)
	if err != nil {
		t.Fatalf("GenerateCreateTable() error = %v", err)
	}

	expected := []string{
		`CREATE TABLE IF NOT EXISTS "cages"`,
		`"id" INTEGER PRIMARY KEY AUTOINCREMENT`,
		`"id_local" TEXT UNIQUE`,
		`"location" TEXT`,
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
		}
	}
}

func TestDDLGenerator_GenerateCreateTable_Subtype(t *testing.T) {
	reg := schema.Labbook()
	gen := NewDDLGenerator(dialect.Postgres, reg)

	tp, err := reg.Resolve("TreatmentProtocol")
	if err != nil {
		t.Fatal(err)
	}

	result, err := gen.GenerateCreateTable(tp)
	if err != nil {
		t.Fatalf("GenerateCreateTable() error = %v", err)
	}

	expected := []string{
		`CREATE TABLE IF NOT EXISTS "treatment_protocols"`,
		`"id" BIGINT PRIMARY KEY REFERENCES "protocols" ("id")`,
		`"rate" DOUBLE PRECISION`,
		`"solution_id" BIGINT REFERENCES "solutions" ("id")`,
		`"dose_unit_id" BIGINT REFERENCES "measurement_units" ("id")`,
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("GenerateCreateTable() missing %q\nGot:\n%s", exp, result)
		}
	}

	// Inherited columns live in the supertype table only
	if strings.Contains(result, `"code"`) {
		t.Errorf("subtype table should not repeat supertype columns\nGot:\n%s", result)
	}
}

func TestDDLGenerator_InboundReferences(t *testing.T) {
	reg := schema.Labbook()
	gen := NewDDLGenerator(dialect.SQLite, reg)

	aei, err := reg.Resolve("AnimalExternalIdentifier")
	if err != nil {
		t.Fatal(err)
	}
	obs, err := reg.Resolve("Observation")
	if err != nil {
		t.Fatal(err)
	}

	for _, et := range []*schema.EntityType{aei, obs} {
		result, err := gen.GenerateCreateTable(et)
		if err != nil {
			t.Fatalf("GenerateCreateTable(%s) error = %v", et.Name, err)
		}
		want := `"animal_id" INTEGER REFERENCES "animals" ("id")`
		if !strings.Contains(result, want) {
			t.Errorf("GenerateCreateTable(%s) missing %q\nGot:\n%s", et.Name, want, result)
		}
	}
}

func TestDDLGenerator_GenerateAssociationTables(t *testing.T) {
	gen := NewDDLGenerator(dialect.SQLite, schema.Labbook())

	stmts, err := gen.GenerateAssociationTables()
	if err != nil {
		t.Fatalf("GenerateAssociationTables() error = %v", err)
	}

	count := 0
	for _, s := range stmts {
		if strings.Contains(s, `"treatment_cage_associations"`) {
			count++
			if !strings.Contains(s, `"treatments_id" INTEGER REFERENCES "treatments" ("id")`) {
				t.Errorf("unexpected column order\nGot:\n%s", s)
			}
		}
	}
	if count != 1 {
		t.Errorf("treatment_cage_associations generated %d times, want 1", count)
	}
}

func TestDDLGenerator_GenerateSchema(t *testing.T) {
	reg := schema.Labbook()
	gen := NewDDLGenerator(dialect.SQLite, reg)

	stmts, err := gen.GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}

	index := func(table string) int {
		for i, s := range stmts {
			if strings.HasPrefix(s, `CREATE TABLE IF NOT EXISTS "`+table+`"`) {
				return i
			}
		}
		return -1
	}

	if index("protocols") < 0 || index("protocols") > index("treatment_protocols") {
		t.Errorf("protocols must be created before treatment_protocols")
	}
	if index("cages") > index("cage_stays") {
		t.Errorf("cages must be created before cage_stays")
	}
	if index("genotype_associations") < index("animals") {
		t.Errorf("association tables must follow entity tables")
	}
	if len(stmts) < reg.Count() {
		t.Errorf("GenerateSchema() returned %d statements for %d categories", len(stmts), reg.Count())
	}
}
