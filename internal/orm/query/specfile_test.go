package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	data := []byte(`
columns:
  - Animal
  - [Cage, id_local]
  - [Cage, Treatment, start_date]
joins:
  - Animal.cage_stays
  - [Cage_Treatment, Cage.treatments]
  - path: Cage_Treatment.protocol
    target: Cage_TreatmentProtocol
    type: left
filters:
  - [Cage, location, room A, room B]
  - [Treatment, start_date, "2016,4,25"]
  - []
memberships:
  - binding: Animal
    relationship: treatments
    keys: [1, 2]
outer: true
`)

	spec, err := ParseSpec(data)
	require.NoError(t, err)

	assert.Equal(t, []ColumnSpec{
		AllColumns("Animal"),
		Column("Cage", "id_local"),
		AliasColumns("Cage", "Treatment", "start_date"),
	}, spec.Columns)
	assert.Equal(t, []JoinSpec{
		Join("Animal.cage_stays"),
		JoinAs("Cage_Treatment", "Cage.treatments"),
		JoinAs("Cage_TreatmentProtocol", "Cage_Treatment.protocol").Left(),
	}, spec.Joins)
	assert.Equal(t, []FilterSpec{
		Filter("Cage", "location", "room A", "room B"),
		Filter("Treatment", "start_date", "2016,4,25"),
	}, spec.Filters)
	assert.Equal(t, []MembershipSpec{Member("Animal", "treatments", 1, 2)}, spec.Memberships)
	assert.True(t, spec.Outer)
}

func TestParseSpec_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "columns: [unclosed"},
		{name: "column too long", data: "columns:\n  - [a, b, c, d]\n"},
		{name: "column not a string", data: "columns:\n  - [Cage, 1]\n"},
		{name: "short filter", data: "columns: [Cage]\nfilters:\n  - [Cage, location]\n"},
		{name: "join without path", data: "columns: [Cage]\njoins:\n  - target: X\n"},
		{name: "bad join type", data: "columns: [Cage]\njoins:\n  - {path: Cage.treatments, type: cross}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)
		})
	}
}
