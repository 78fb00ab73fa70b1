package policy

import (
	"context"
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/lib/solver/virtualsolver"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
	"github.com/REAM-lab/CATEX/internal/pkg/transmission"
)

func TestBuildBindsAngleWithinLimit(t *testing.T) {
	sys := model.New()
	sys.BusOrder = []string{"A"}
	sys.ScenarioOrder = []string{"s1"}
	sys.TimepointOrder = []int{1}
	sys.Policy.MaxDiffAngleRadians = 0.1

	m := virtualsolver.New0()
	theta := m.AddVariable(math.Inf(-1), math.Inf(1))
	trans := &transmission.Bindings{Theta: map[string]map[string]map[int]solver.VarRef{
		"A": {"s1": {1: theta}},
	}}

	assert.NilError(t, Build(m, sys, trans))

	// drive theta toward +infinity via a linear objective; the angle
	// limit constraint should clamp it near the configured bound.
	obj := solver.NewQuadExpr()
	obj.Linear.AddTerm(theta, -1)
	assert.NilError(t, m.AddQuadraticObjective(obj))

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.TerminationStatus())
	assert.Assert(t, m.Value(theta) <= 0.1+1e-2)
}
