package identifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/labbookdb/labbookdb/internal/orm/query"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
	"github.com/labbookdb/labbookdb/internal/orm/store"
	"github.com/labbookdb/labbookdb/internal/testutil"
)

func setupResolver(t *testing.T) (*Resolver, *store.Store) {
	t.Helper()
	s := testutil.NewStore(t)
	testutil.SeedScenario(t, s.DB())
	logger := zaptest.NewLogger(t)
	b := query.NewBuilder(s.Registry(), s.Dialect(), logger)
	return NewResolver(s.Registry(), b, logger), s
}

func TestResolver_Resolve(t *testing.T) {
	r, s := setupResolver(t)
	testutil.Exec(t, s.DB(),
		`INSERT INTO genotypes (id, code, construct, zygosity) VALUES (3, 'eptg', 'ePet-cre', 'wt')`,
		`INSERT INTO animals (id, sex) VALUES (11, 'f'), (12, 'm')`,
		`INSERT INTO genotype_associations (animals_id, genotypes_id) VALUES (11, 3)`,
		`INSERT INTO animal_external_identifiers (id, database, identifier, animal_id) VALUES (1, 'ETH/AIC', '275511', 12)`,
	)

	tests := []struct {
		name  string
		input string
		want  []int64
	}{
		{name: "scalar equality", input: "Cage:id_local.570974", want: []int64{7}},
		{name: "conjunction", input: "Cage:id_local.570975&&location.room B", want: []int64{8}},
		{name: "to-many through an association", input: "Cage:treatments.Treatment:protocol.Protocol:code.cFluDW", want: []int64{7}},
		{name: "to-one through a foreign key", input: "Treatment:protocol.TreatmentProtocol:code.cFluDW", want: []int64{1}},
		{name: "nested conjunction", input: "Animal:external_ids.AnimalExternalIdentifier:database.ETH/AIC&#&identifier.275511", want: []int64{12}},
		{name: "membership", input: "Animal:genotypes.Genotype:code.eptg", want: []int64{11}},
		{name: "date literal", input: "Cage:treatments.Treatment:start_date.2016,4,25&#&protocol_id.1", want: []int64{7}},
		{name: "polymorphic category", input: "TreatmentProtocol:code.cFluDW", want: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), s.DB(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_NotFound(t *testing.T) {
	r, s := setupResolver(t)

	_, err := r.Resolve(context.Background(), s.DB(), "Cage:id_local.NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "NOPE")
	assert.Contains(t, err.Error(), "id_local")
	assert.Contains(t, err.Error(), "Cage")

	// The last condition of the failing expression is reported
	_, err = r.Resolve(context.Background(), s.DB(), "Cage:id_local.570974&&location.room B")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "location", nf.Field)
	assert.Equal(t, "room B", nf.Value)

	// An empty nested result fails the outer expression
	_, err = r.Resolve(context.Background(), s.DB(), "Animal:genotypes.Genotype:code.nope")
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Genotype", nf.Category)
}

func TestResolver_Errors(t *testing.T) {
	r, s := setupResolver(t)

	tests := []struct {
		input   string
		wantErr error
	}{
		{input: "Mouse:id.1", wantErr: schema.ErrUnknownCategory},
		{input: "Cage:colour.red", wantErr: schema.ErrUnknownField},
		{input: "Cage:treatments.1", wantErr: ErrMalformedExpression},
		{input: "Cage:colour.Treatment:id.1", wantErr: schema.ErrUnknownField},
		{input: "Cage", wantErr: ErrMalformedExpression},
		{input: "Treatment:start_date.yesterday", wantErr: schema.ErrMalformedValue},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), s.DB(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestResolver_Idempotent(t *testing.T) {
	r, s := setupResolver(t)
	before := testutil.Count(t, s.DB(), "cages")

	first, err := r.Resolve(context.Background(), s.DB(), "Cage:treatments.Treatment:protocol.Protocol:code.cFluDW")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), s.DB(), "Cage:treatments.Treatment:protocol.Protocol:code.cFluDW")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, testutil.Count(t, s.DB(), "cages"))
}

func TestResolver_DistinctKeys(t *testing.T) {
	r, s := setupResolver(t)
	testutil.Exec(t, s.DB(),
		`INSERT INTO treatments (id, protocol_id) VALUES (2, 1)`,
		`INSERT INTO treatment_cage_associations (treatments_id, cages_id) VALUES (2, 7)`,
	)

	keys, err := r.Resolve(context.Background(), s.DB(), "Treatment:protocol.Protocol:code.cFluDW")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, keys)

	keys, err = r.Resolve(context.Background(), s.DB(), "Cage:treatments.Treatment:protocol.Protocol:code.cFluDW")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, keys)

	res, err := r.ResolveExpr(context.Background(), s.DB(), &Expr{Category: "Cage", Conditions: []Condition{
		{Field: "id", Value: Nested{Expr: &Expr{Category: "Cage", Conditions: []Condition{{Field: "location", Value: Literal{Text: "room A"}}}}}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Cage", res.Category)
	assert.Equal(t, []int64{7}, res.Keys)
	assert.Contains(t, res.Query.SQL, `"Cage"."id" = ?`)
}
