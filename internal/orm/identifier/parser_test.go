package identifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Expr
	}{
		{
			name:  "single condition",
			input: "Cage:id_local.570974",
			want: &Expr{Category: "Cage", Conditions: []Condition{
				{Field: "id_local", Value: Literal{Text: "570974"}},
			}},
		},
		{
			name:  "value keeps later dots and spaces",
			input: "Irregularity:description.weight 1.5 g above",
			want: &Expr{Category: "Irregularity", Conditions: []Condition{
				{Field: "description", Value: Literal{Text: "weight 1.5 g above"}},
			}},
		},
		{
			name:  "conjunction",
			input: "Cage:id_local.570974&&location.room A",
			want: &Expr{Category: "Cage", Conditions: []Condition{
				{Field: "id_local", Value: Literal{Text: "570974"}},
				{Field: "location", Value: Literal{Text: "room A"}},
			}},
		},
		{
			name:  "nested expression",
			input: "Animal:genotypes.Genotype:code.eptg",
			want: &Expr{Category: "Animal", Conditions: []Condition{
				{Field: "genotypes", Value: Nested{Expr: &Expr{Category: "Genotype", Conditions: []Condition{
					{Field: "code", Value: Literal{Text: "eptg"}},
				}}}},
			}},
		},
		{
			name:  "escaped nested conjunction",
			input: "Animal:external_ids.AnimalExternalIdentifier:database.ETH/AIC&#&identifier.275511",
			want: &Expr{Category: "Animal", Conditions: []Condition{
				{Field: "external_ids", Value: Nested{Expr: &Expr{Category: "AnimalExternalIdentifier", Conditions: []Condition{
					{Field: "database", Value: Literal{Text: "ETH/AIC"}},
					{Field: "identifier", Value: Literal{Text: "275511"}},
				}}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_TwoLevelEscape(t *testing.T) {
	e, err := Parse("Cage:treatments.Treatment:protocol.Protocol:code.cFluDW&##&type.treatment&#&start_date.2016,4,25")
	require.NoError(t, err)

	require.Len(t, e.Conditions, 1)
	treatment := e.Conditions[0].Value.(Nested).Expr
	assert.Equal(t, "Treatment", treatment.Category)
	require.Len(t, treatment.Conditions, 2)
	assert.Equal(t, Literal{Text: "2016,4,25"}, treatment.Conditions[1].Value)

	protocol := treatment.Conditions[0].Value.(Nested).Expr
	assert.Equal(t, "Protocol", protocol.Category)
	require.Len(t, protocol.Conditions, 2)
	assert.Equal(t, "type", protocol.Conditions[1].Field)
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		"Cage",
		":id_local.570974",
		"Cage:",
		"Cage:id_local",
		"Cage:.570974",
		"Cage:id_local.570974&&location",
		"Animal:genotypes.Genotype:",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedExpression), "got %v", err)
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"Cage:id_local.570974",
		"Cage:id_local.570974&&location.room A",
		"Animal:genotypes.Genotype:code.eptg&#&construct.ePet-cre&&sex.f",
		"Cage:treatments.Treatment:protocol.Protocol:code.cFluDW&##&type.treatment&#&start_date.2016,4,25",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			e, err := Parse(input)
			require.NoError(t, err)

			out, err := Format(e)
			require.NoError(t, err)
			assert.Equal(t, input, out)
			assert.Equal(t, input, e.String())

			again, err := Parse(out)
			require.NoError(t, err)
			assert.Equal(t, e, again)
		})
	}
}

func TestFormat_Rejects(t *testing.T) {
	deep := &Expr{Category: "D", Conditions: []Condition{
		{Field: "a", Value: Literal{Text: "1"}},
		{Field: "b", Value: Literal{Text: "2"}},
	}}
	for i := 0; i < 3; i++ {
		deep = &Expr{Category: "N", Conditions: []Condition{{Field: "n", Value: Nested{Expr: deep}}}}
	}

	tests := []struct {
		name string
		expr *Expr
	}{
		{name: "three nested condition lists", expr: deep},
		{name: "literal with separator", expr: &Expr{Category: "Cage", Conditions: []Condition{{Field: "location", Value: Literal{Text: "A&&B"}}}}},
		{name: "literal with colon", expr: &Expr{Category: "Cage", Conditions: []Condition{{Field: "location", Value: Literal{Text: "12:30"}}}}},
		{name: "field with dot", expr: &Expr{Category: "Cage", Conditions: []Condition{{Field: "id.local", Value: Literal{Text: "1"}}}}},
		{name: "no conditions", expr: &Expr{Category: "Cage"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.expr)
			assert.True(t, errors.Is(err, ErrMalformedExpression), "got %v", err)
		})
	}
}
