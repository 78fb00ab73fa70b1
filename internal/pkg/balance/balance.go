// Package balance is the shared per-bus power-injection accumulator.
// Design note 9.3: eGenAtBus is populated additively by the generator
// and storage submodels, then read by the transmission submodel to
// form the power-balance constraint. It is modeled as a builder method
// on an explicit object, not a shared named global.
package balance

import "github.com/REAM-lab/CATEX/internal/pkg/solver"

type key struct {
	bus, scenario string
	timepoint     int
}

// Injection accumulates eGenAtBus[n,s,t] (and, equivalently, any other
// submodel's net bus injection, such as storage's discharge-minus-
// charge) as a linear expression per (bus, scenario, timepoint).
type Injection struct {
	exprs map[key]*solver.LinearExpr
}

// NewInjection returns an empty Injection accumulator.
func NewInjection() *Injection {
	return &Injection{exprs: make(map[key]*solver.LinearExpr)}
}

// Add additively contributes coeff*v to the injection at (bus, scenario,
// timepoint). A stage-1 variable shared across scenarios is added once
// per scenario with the same VarRef; a stage-2 variable is added once
// per its own scenario.
func (b *Injection) Add(bus, scenario string, timepoint int, v solver.VarRef, coeff float64) {
	k := key{bus, scenario, timepoint}
	reg, ok := b.exprs[k]
	if !ok {
		e := solver.NewLinearExpr()
		reg = &e
		b.exprs[k] = reg
	}
	reg.AddTerm(v, coeff)
}

// Expr returns the accumulated injection expression at (bus, scenario,
// timepoint). A bus/scenario/timepoint with no contributions yet
// returns an empty (zero) expression, not an error — a bus with no
// generation or storage simply injects nothing of its own.
func (b *Injection) Expr(bus, scenario string, timepoint int) solver.LinearExpr {
	k := key{bus, scenario, timepoint}
	if reg, ok := b.exprs[k]; ok {
		return *reg
	}
	return solver.NewLinearExpr()
}
