package costs

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

func TestAddToPeriodCostAccumulatesAdditively(t *testing.T) {
	a := NewAccumulator([]int{1})

	term1 := solver.NewQuadExpr()
	term1.Linear.AddConst(5)
	a.AddToPeriodCost(term1)

	term2 := solver.NewQuadExpr()
	term2.Linear.AddConst(3)
	a.AddToPeriodCost(term2)

	assert.Equal(t, 8.0, a.PeriodCost().Linear.Const)
}

func TestAddToTimepointCostAccumulatesPerTimepoint(t *testing.T) {
	a := NewAccumulator([]int{1, 2})

	term := solver.NewQuadExpr()
	term.Linear.AddConst(4)
	a.AddToTimepointCost(1, term)

	assert.Equal(t, 4.0, a.TimepointCost(1).Linear.Const)
	assert.Equal(t, 0.0, a.TimepointCost(2).Linear.Const)
}

func TestTimepointCostOnUnknownIDReturnsEmptyExpr(t *testing.T) {
	a := NewAccumulator([]int{1})
	got := a.TimepointCost(99)
	assert.Equal(t, 0.0, got.Linear.Const)
}

func TestAddToTimepointCostPanicsOnUndeclaredTimepoint(t *testing.T) {
	a := NewAccumulator([]int{1})
	defer func() {
		assert.Assert(t, recover() != nil)
	}()
	a.AddToTimepointCost(2, solver.NewQuadExpr())
}

func TestTimepointIDsReturnsDeclaredSet(t *testing.T) {
	a := NewAccumulator([]int{1, 2, 3})
	ids := a.TimepointIDs()
	assert.Equal(t, 3, len(ids))
}
