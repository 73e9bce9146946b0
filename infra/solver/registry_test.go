package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/factory"
)

func TestRegistryBackends(t *testing.T) {
	assert.Contains(t, Registry.Names(), "cbc")
	assert.Contains(t, Registry.Names(), "relax")

	s, err := New(factory.ModuleConfig{Type: "cbc", Conf: map[string]any{"binary": "/opt/cbc/bin/cbc", "threads": 4}})
	require.NoError(t, err)
	assert.Equal(t, "cbc", s.Name())

	s, err = New(factory.ModuleConfig{Type: "relax"})
	require.NoError(t, err)
	assert.Equal(t, "relax", s.Name())

	_, err = New(factory.ModuleConfig{Type: "gurobi"})
	assert.Error(t, err)
}
