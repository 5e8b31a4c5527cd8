package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	cage := mustBuild(Define("Cage").Text("id_local", Unique))
	require.NoError(t, r.Register(cage))

	err := r.Register(mustBuild(Define("Cage")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_RegisterRequiresSupertype(t *testing.T) {
	r := NewRegistry()
	protocol := mustBuild(Define("Protocol").Discriminator("type", "protocol"))
	sub := mustBuild(Define("TreatmentProtocol").Extends(protocol, "treatment"))

	err := r.Register(sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supertype Protocol is not registered")

	require.NoError(t, r.Register(protocol))
	require.NoError(t, r.Register(sub))
	assert.Len(t, r.Subtypes("Protocol"), 1)
}

func TestRegistry_Resolve(t *testing.T) {
	r := Labbook()

	cage, err := r.Resolve("Cage")
	require.NoError(t, err)
	assert.Equal(t, "cages", cage.Table)

	_, err = r.Resolve("cage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	var unknown *UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "cage", unknown.Name)
}

func TestRegistry_Categories(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Define("Genotype"), Define("Animal"), Define("Cage"))

	assert.Equal(t, []string{"Animal", "Cage", "Genotype"}, r.Categories())
	names := make([]string, 0)
	for _, et := range r.Types() {
		names = append(names, et.Name)
	}
	assert.Equal(t, []string{"Genotype", "Animal", "Cage"}, names)
}

func TestAliasTable(t *testing.T) {
	r := Labbook()
	treatment, err := r.Resolve("Treatment")
	require.NoError(t, err)

	t.Run("resolves aliases before categories", func(t *testing.T) {
		aliases := r.NewAliasTable()
		b, err := aliases.RegisterAlias("Cage_Treatment", treatment)
		require.NoError(t, err)
		assert.True(t, b.Alias)

		got, err := aliases.Resolve("Cage_Treatment")
		require.NoError(t, err)
		assert.Same(t, b, got)
		assert.Same(t, treatment, got.Type)

		plain, err := aliases.Resolve("Treatment")
		require.NoError(t, err)
		assert.False(t, plain.Alias)
	})

	t.Run("rejects duplicates and category names", func(t *testing.T) {
		aliases := r.NewAliasTable()
		_, err := aliases.RegisterAlias("A_Treatment", treatment)
		require.NoError(t, err)

		_, err = aliases.RegisterAlias("A_Treatment", treatment)
		assert.Error(t, err)

		_, err = aliases.RegisterAlias("Cage", treatment)
		assert.Error(t, err)
	})

	t.Run("tables are independent", func(t *testing.T) {
		first := r.NewAliasTable()
		_, err := first.RegisterAlias("X_Treatment", treatment)
		require.NoError(t, err)

		second := r.NewAliasTable()
		_, err = second.Resolve("X_Treatment")
		assert.True(t, errors.Is(err, ErrUnknownCategory))
		assert.Equal(t, 0, second.Len())
		assert.False(t, r.Exists("X_Treatment"))
	})
}
