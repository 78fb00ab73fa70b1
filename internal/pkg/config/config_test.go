package config

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestLoadAppliesEnvDefaultsWithoutFlags(t *testing.T) {
	r, err := Load(nil)
	assert.NilError(t, err)
	assert.Equal(t, ".", r.MainDir)
	assert.Equal(t, "source_compat", r.ExpectationMode)
	assert.Equal(t, "aggregate", r.FlowFormulation)
	assert.Equal(t, true, r.IncludeShunts)
	assert.Equal(t, "virtual", r.Solver)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	r, err := Load([]string{"-main-dir", "/scenario", "-solver", "highs", "-flow-formulation", "per_line"})
	assert.NilError(t, err)
	assert.Equal(t, "/scenario", r.MainDir)
	assert.Equal(t, "highs", r.Solver)
	assert.Equal(t, "per_line", r.FlowFormulation)
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	_, err := Load([]string{"-not-a-real-flag", "x"})
	assert.Assert(t, err != nil)
}
