package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabbookRegistry_Validates(t *testing.T) {
	r := NewLabbookRegistry()
	require.NoError(t, r.Validate())
	assert.True(t, r.Exists("Animal"))
	assert.True(t, r.Exists("SucrosePreferenceMeasurement"))
	assert.Same(t, Labbook(), Labbook())
}

func TestValidator_Errors(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Define("Cage").
			HasMany("stays", "CageStay", "cage_id").
			ManyToMany("treatments", "Treatment", "treatment_cage_associations", "", ""),
		Define("CageStay"),
	)

	v := NewValidator(r)
	err := v.Validate()
	require.Error(t, err)

	msgs := make([]string, 0, len(v.Errors()))
	for _, e := range v.Errors() {
		msgs = append(msgs, e.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "Cage.stays: foreign key cage_id is not an int field of CageStay")
	assert.Contains(t, joined, "Cage.treatments: target Treatment is not registered")
}

func TestValidator_SubtypeIdentity(t *testing.T) {
	r := NewRegistry()
	root := mustBuild(Define("Protocol").Discriminator("type", "protocol"))
	mustRegister(r, root)
	r.MustRegister(
		Define("AProtocol").Extends(root, "same"),
		Define("BProtocol").Extends(root, "same"),
	)

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `identity "same" also used by`)
}

func TestRelationshipGraph(t *testing.T) {
	g := NewRelationshipGraph(Labbook())

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["Protocol"], pos["TreatmentProtocol"])
	assert.Less(t, pos["Solution"], pos["TreatmentProtocol"])
	assert.Less(t, pos["Measurement"], pos["FMRIMeasurement"])
	assert.Less(t, pos["Cage"], pos["CageStay"])
	assert.Less(t, pos["Animal"], pos["Observation"])
	assert.Less(t, pos["Cage"], pos["Measurement"])
	assert.Less(t, pos["ForcedSwimTestMeasurement"], pos["Evaluation"])

	assert.ElementsMatch(t, []string{"Protocol"}, g.Dependencies("Treatment"))

	dot := g.DOT()
	assert.True(t, strings.HasPrefix(dot, "digraph labbook {"))
	assert.Contains(t, dot, `"TreatmentProtocol" -> "Protocol" [style=dashed, arrowhead=empty];`)
	assert.Contains(t, dot, `"Animal" -> "Genotype" [label="genotypes", arrowhead=crow];`)
}

func TestRelationshipGraph_Cycle(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Define("A").BelongsTo("b", "B", "b_id"),
		Define("B").BelongsTo("a", "A", "a_id"),
	)
	g := NewRelationshipGraph(r)

	assert.NotEmpty(t, g.DetectCycles())
	_, err := g.TopologicalSort()
	assert.Error(t, err)
}
