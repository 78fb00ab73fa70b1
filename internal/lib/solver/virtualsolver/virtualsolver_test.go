package virtualsolver

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

func TestMinimizeQuadraticUnconstrained(t *testing.T) {
	// minimize (x-3)^2 = x^2 - 6x + 9 over x in [0, 10]
	m := New0()
	x := m.AddVariable(0, 10)

	obj := solver.NewQuadExpr()
	obj.AddQuadTerm(x, x, 1)
	obj.Linear.AddTerm(x, -6)
	assert.NilError(t, m.AddQuadraticObjective(obj))

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.TerminationStatus())
	assert.Assert(t, closeTo(m.Value(x), 3, 1e-2))
}

func TestFixPinsVariable(t *testing.T) {
	m := New0()
	x := m.AddVariable(0, 10)
	assert.NilError(t, m.Fix(x, 4))

	obj := solver.NewQuadExpr()
	obj.AddQuadTerm(x, x, 1)
	assert.NilError(t, m.AddQuadraticObjective(obj))

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, 4.0, m.Value(x))
}

func TestLinearEqualityConstraintIsRespected(t *testing.T) {
	// minimize x^2 + y^2 subject to x + y = 10, x,y in [0, 20]
	m := New0()
	x := m.AddVariable(0, 20)
	y := m.AddVariable(0, 20)

	obj := solver.NewQuadExpr()
	obj.AddQuadTerm(x, x, 1)
	obj.AddQuadTerm(y, y, 1)
	assert.NilError(t, m.AddQuadraticObjective(obj))

	expr := solver.NewLinearExpr()
	expr.AddTerm(x, 1)
	expr.AddTerm(y, 1)
	assert.NilError(t, m.AddLinearConstraint(expr, solver.EQ, 10))

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.TerminationStatus())
	assert.Assert(t, closeTo(m.Value(x)+m.Value(y), 10, 1e-1))
	// symmetric objective should split the minimum evenly
	assert.Assert(t, closeTo(m.Value(x), 5, 0.5))
	assert.Assert(t, closeTo(m.Value(y), 5, 0.5))
}

func TestFixOutOfRangeVarRefErrors(t *testing.T) {
	m := New0()
	err := m.Fix(solver.VarRef(99), 1)
	assert.ErrorContains(t, err, "out of range")
}

func closeTo(got, want, tol float64) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}
