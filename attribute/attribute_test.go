package attribute_test

import (
	"testing"

	"github.com/flowplan/logicalplan/attribute"
	"github.com/stretchr/testify/require"
)

func TestGetFallsBackToDefault(t *testing.T) {
	k := attribute.NewWithDefault(t.Name()+".timeout", 30)
	m := attribute.NewMap()

	v, ok := attribute.Get(m, k)
	require.True(t, ok)
	require.Equal(t, 30, v)

	attribute.Put(m, k, 90)
	v, ok = attribute.Get(m, k)
	require.True(t, ok)
	require.Equal(t, 90, v)
}

func TestGetWithoutDefaultIsAbsent(t *testing.T) {
	k := attribute.New[string](t.Name() + ".name")
	m := attribute.NewMap()

	_, ok := attribute.Get(m, k)
	require.False(t, ok)
}

func TestScopedMapFallsBackToParent(t *testing.T) {
	k := attribute.NewWithDefault(t.Name()+".license", "none")

	planLevel := attribute.NewMap()
	attribute.Put(planLevel, k, "enterprise")

	operatorLevel := attribute.NewScoped(planLevel)
	v, ok := attribute.GetScoped(operatorLevel, k)
	require.True(t, ok)
	require.Equal(t, "enterprise", v)

	attribute.PutScoped(operatorLevel, k, "trial")
	v, ok = attribute.GetScoped(operatorLevel, k)
	require.True(t, ok)
	require.Equal(t, "trial", v)
}

func TestPortLevelMapDoesNotChain(t *testing.T) {
	k := attribute.NewWithDefault(t.Name()+".optional", false)

	operatorLevel := attribute.NewMap()
	attribute.Put(operatorLevel, k, true)

	portLevel := attribute.NewMap() // ports never chain to their operator
	v, ok := attribute.Get(portLevel, k)
	require.True(t, ok)
	require.False(t, v, "port map must see only its own value or the key default")
}

func TestDuplicateKeyNameOfSameTypePanics(t *testing.T) {
	name := t.Name() + ".dup"
	attribute.New[int](name)
	require.Panics(t, func() {
		attribute.New[int](name)
	})
}

func TestEqualityIsByIdentityNotName(t *testing.T) {
	a := attribute.New[int](t.Name() + ".a")
	b := attribute.New[int](t.Name() + ".b")
	require.False(t, a.Equal(b))
	require.True(t, a.Equal(a))
}

func TestLookupRebindsByName(t *testing.T) {
	name := t.Name() + ".rebind"
	original := attribute.NewWithDefault(name, 42)

	rebound, ok := attribute.Lookup[int](name)
	require.True(t, ok)
	require.True(t, original.Equal(rebound))

	_, ok = attribute.Lookup[string](name)
	require.False(t, ok, "lookup with mismatched type must fail")
}
