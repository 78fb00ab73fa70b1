// Package costs is the shared cost-expression accumulator every
// submodel writes into additively. Design note 9.3 replaces the
// source's "unregister and re-register a named model-level expression"
// pattern with an explicit builder object owned by the composer and
// passed by reference into each submodel.
package costs

import "github.com/REAM-lab/CATEX/internal/pkg/solver"

// Accumulator holds the two cost registers: one per-period expression
// and one per-timepoint expression for every timepoint id in the
// model. Mutation is additive and order-independent — every submodel
// may call AddToPeriodCost/AddToTimepointCost in any order (spec §5).
type Accumulator struct {
	period       solver.QuadExpr
	perTimepoint map[int]*solver.QuadExpr
}

// NewAccumulator returns an Accumulator with a zeroed per-timepoint
// register for every id in timepointIDs.
func NewAccumulator(timepointIDs []int) *Accumulator {
	a := &Accumulator{
		period:       solver.NewQuadExpr(),
		perTimepoint: make(map[int]*solver.QuadExpr, len(timepointIDs)),
	}
	for _, id := range timepointIDs {
		q := solver.NewQuadExpr()
		a.perTimepoint[id] = &q
	}
	return a
}

// AddToPeriodCost additively contributes term to the per-period
// register (eCostPerPeriod).
func (a *Accumulator) AddToPeriodCost(term solver.QuadExpr) {
	a.period.Merge(term)
}

// AddToTimepointCost additively contributes term to timepoint t's
// register (eCostPerTimepoint[t]). It panics if t was not declared at
// construction — every submodel is expected to iterate the composer's
// own timepoint set, never an ad hoc one.
func (a *Accumulator) AddToTimepointCost(t int, term solver.QuadExpr) {
	reg, ok := a.perTimepoint[t]
	if !ok {
		panic("costs: AddToTimepointCost on unknown timepoint id")
	}
	reg.Merge(term)
}

// PeriodCost returns the accumulated per-period cost expression.
func (a *Accumulator) PeriodCost() solver.QuadExpr {
	return a.period
}

// TimepointCost returns the accumulated per-timepoint cost expression
// for timepoint t.
func (a *Accumulator) TimepointCost(t int) solver.QuadExpr {
	reg, ok := a.perTimepoint[t]
	if !ok {
		return solver.NewQuadExpr()
	}
	return *reg
}

// TimepointIDs returns the timepoint ids this accumulator was built
// with, in no particular order.
func (a *Accumulator) TimepointIDs() []int {
	ids := make([]int, 0, len(a.perTimepoint))
	for id := range a.perTimepoint {
		ids = append(ids, id)
	}
	return ids
}
