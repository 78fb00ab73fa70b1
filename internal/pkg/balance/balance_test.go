package balance

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

func TestAddAccumulatesCoefficientsOnSameVar(t *testing.T) {
	b := NewInjection()
	v := solver.VarRef(1)

	b.Add("A", "base", 1, v, 1)
	b.Add("A", "base", 1, v, 2)

	expr := b.Expr("A", "base", 1)
	assert.Equal(t, 3.0, expr.Terms[v])
}

func TestAddIsScopedByKey(t *testing.T) {
	b := NewInjection()
	v := solver.VarRef(1)

	b.Add("A", "base", 1, v, 5)

	assert.Equal(t, 0, len(b.Expr("B", "base", 1).Terms))
	assert.Equal(t, 0, len(b.Expr("A", "other", 1).Terms))
	assert.Equal(t, 0, len(b.Expr("A", "base", 2).Terms))
}

func TestExprOnEmptyKeyReturnsZeroExpression(t *testing.T) {
	b := NewInjection()
	expr := b.Expr("A", "base", 1)
	assert.Equal(t, 0.0, expr.Const)
	assert.Equal(t, 0, len(expr.Terms))
}
