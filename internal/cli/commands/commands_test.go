package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labbookdb/labbookdb/internal/orm/identifier"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

type harness struct {
	dir string
	db  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	t.Setenv("HOME", dir)
	for _, env := range []string{"LDB_PATH", "LDB_DRIVER", "LDB_DSN", "LDB_LOG_LEVEL"} {
		t.Setenv(env, "")
	}

	noColor := color.NoColor
	t.Cleanup(func() { color.NoColor = noColor })

	return &harness{dir: dir, db: filepath.Join(dir, "meta.db")}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", h.db, "--log-level", "error", "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "labbookdb", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, expected := range []string{"add", "append", "query", "resolve", "schema", "show", "version"} {
		assert.Contains(t, names, expected)
	}

	for _, flag := range []string{"config", "db", "driver", "dsn", "log-level", "no-color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	Version = "1.0.0-test"
	defer func() { Version = "dev" }()

	out := h.mustRun(t, "version")
	assert.Contains(t, out, "labbookdb version: 1.0.0-test")
	assert.Contains(t, out, "Go version:")
}

func TestAddCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "add", `{"CATEGORY": "Cage", "id_local": "570974", "location": "room A"}`)
	assert.Contains(t, out, "created Cage 1")

	out = h.mustRun(t, "resolve", "Cage:id_local.570974")
	assert.Equal(t, "1\n", out)

	// Same unique code again
	out = h.mustRun(t, "add", `{"CATEGORY": "Cage", "id_local": "570974"}`)
	assert.Contains(t, out, "possible double entry of Cage")

	out = h.mustRun(t, "add", `{"CATEGORY": "Cage"}`)
	assert.Contains(t, out, "Settable fields of Cage")
	assert.Contains(t, out, "  id_local\n")
	assert.NotContains(t, out, "  id\n")
}

func TestAddCommand_File(t *testing.T) {
	h := newHarness(t)

	tree := `
CATEGORY: Animal
sex: f
external_ids:
  - database: ETH/AIC
    identifier: "5682"
`
	path := filepath.Join(h.dir, "animal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tree), 0o644))

	out := h.mustRun(t, "add", "--file", path)
	assert.Contains(t, out, "created Animal 1")

	out = h.mustRun(t, "resolve", "Animal:external_ids.AnimalExternalIdentifier:database.ETH/AIC&#&identifier.5682")
	assert.Equal(t, "1\n", out)
}

func TestAddCommand_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "add")
	assert.Error(t, err)

	_, err = h.run(t, "add", `{"CATEGORY": "Cgae"}`)
	assert.True(t, errors.Is(err, schema.ErrUnknownCategory), "got %v", err)

	_, err = h.run(t, "add", `not json`)
	assert.Error(t, err)
}

func TestAppendAndShowCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "add", `{"CATEGORY": "Cage", "id_local": "570974", "location": "room A"}`)
	h.mustRun(t, "add", `{"CATEGORY": "Treatment", "start_date": "2016,4,25", "cages": ["Cage:id_local.570974"]}`)

	out := h.mustRun(t, "append", "Cage:id_local.570974", `{"location": "room C"}`)
	assert.Contains(t, out, "updated Cage 1")

	out = h.mustRun(t, "show", "Cage:id_local.570974")
	assert.Contains(t, out, "Cage 1")
	assert.Contains(t, out, "room C")
	assert.Contains(t, out, "570974")
	assert.Contains(t, out, "treatments:")

	_, err := h.run(t, "append", "Cage:id_local.999", `{"location": "room C"}`)
	assert.True(t, errors.Is(err, identifier.ErrNotFound), "got %v", err)
}

func TestQueryCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "add", `{"CATEGORY": "Cage", "id_local": "570974", "location": "room A"}`)
	h.mustRun(t, "add", `{"CATEGORY": "Cage", "id_local": "570975", "location": "room B"}`)
	h.mustRun(t, "add", `{"CATEGORY": "Treatment", "start_date": "2016,4,25", "cages": ["Cage:id_local.570974"]}`)

	spec := `
columns:
  - [Cage, id_local]
  - [Treatment, start_date]
joins:
  - Cage.treatments
`
	path := filepath.Join(h.dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(spec), 0o644))

	out := h.mustRun(t, "query", path, "--format", "csv")
	assert.Equal(t, "Cage_id_local,Treatment_start_date\n570974,2016-04-25\n", out)

	out = h.mustRun(t, "query", path, "--format", "csv", "--outer")
	assert.Equal(t, "Cage_id_local,Treatment_start_date\n570974,2016-04-25\n570975,\n", out)

	_, err := h.run(t, "query", path, "--format", "latex")
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "schema")
	assert.Contains(t, out, "TreatmentProtocol")
	assert.Contains(t, out, "treatment_protocols")

	out = h.mustRun(t, "schema", "TreatmentProtocol")
	assert.Contains(t, out, "a Protocol with type = \"treatment\"")
	assert.Contains(t, out, "route")

	out = h.mustRun(t, "schema", "--dot")
	assert.True(t, strings.HasPrefix(out, "digraph labbookdb {"))
	assert.Contains(t, out, `"TreatmentProtocol" -> "Protocol" [style=dashed`)
	assert.Contains(t, out, `"Cage" -> "Treatment" [label="treatments", arrowhead=crow];`)

	_, err := h.run(t, "schema", "Mouse")
	assert.True(t, errors.Is(err, schema.ErrUnknownCategory), "got %v", err)
}
