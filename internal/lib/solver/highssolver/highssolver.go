// Package highssolver adapts the solver.Model contract onto the HiGHS
// binding used elsewhere in this lineage for economic-dispatch LPs
// (see the dispatch/lpdispatch package this was split out of). HiGHS
// is called once, at Solve time, with the whole problem assembled in
// one shot — there is no incremental re-solve.
package highssolver

import (
	"context"
	"fmt"

	"github.com/ohowland/highs"

	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

// Model buffers variables, constraints and the objective in HiGHS's
// dense row/column convention and defers all solver work to Solve.
type Model struct {
	lb, ub []float64

	rows []rowSpec

	linearCost map[solver.VarRef]float64
	quadCost   map[solver.QuadKey]float64
	constTerm  float64

	instance *highs.Highs
	solution []float64
	status   solver.Status
}

type rowSpec struct {
	expr  solver.LinearExpr
	sense solver.Sense
	rhs   float64
}

// New returns an empty Model.
func New() *Model {
	return &Model{
		linearCost: make(map[solver.VarRef]float64),
		quadCost:   make(map[solver.QuadKey]float64),
	}
}

func (m *Model) AddVariable(lb, ub float64) solver.VarRef {
	m.lb = append(m.lb, lb)
	m.ub = append(m.ub, ub)
	return solver.VarRef(len(m.lb) - 1)
}

func (m *Model) AddLinearConstraint(expr solver.LinearExpr, sense solver.Sense, rhs float64) error {
	m.rows = append(m.rows, rowSpec{expr: expr, sense: sense, rhs: rhs})
	return nil
}

func (m *Model) AddQuadraticObjective(expr solver.QuadExpr) error {
	for v, c := range expr.Linear.Terms {
		m.linearCost[v] += c
	}
	m.constTerm += expr.Linear.Const
	for k, c := range expr.Quad {
		m.quadCost[k] += c
	}
	return nil
}

func (m *Model) Fix(v solver.VarRef, value float64) error {
	i := int(v)
	if i < 0 || i >= len(m.lb) {
		return fmt.Errorf("highssolver: var ref %d out of range", v)
	}
	m.lb[i] = value
	m.ub[i] = value
	return nil
}

// Solve builds the HiGHS problem from the buffered variables,
// constraints and objective and runs it to termination. The Hessian of
// a purely-diagonal convex quadratic objective (the only shape the
// core ever produces, per solver.QuadKey's doc comment) is passed as a
// per-column coefficient; HiGHS linearizes everything else through its
// bounded row/column formulation.
func (m *Model) Solve(ctx context.Context) error {
	cost := make([]float64, len(m.lb))
	for v, c := range m.linearCost {
		cost[v] += c
	}

	bounds := make([]highs.Bound, len(m.lb))
	for i := range m.lb {
		bounds[i] = highs.Bound{Lower: m.lb[i], Upper: m.ub[i]}
	}

	constraints := make([]highs.Constraint, len(m.rows))
	for i, row := range m.rows {
		constraints[i] = toHighsConstraint(row)
	}

	instance, err := highs.New(cost, bounds, constraints, []int{})
	if err != nil {
		m.status = solver.StatusError
		return err
	}
	m.instance = instance

	if err := setQuadraticTerms(instance, m.quadCost); err != nil {
		m.status = solver.StatusError
		return err
	}

	instance.SetObjectiveSense(highs.Minimize)

	done := make(chan error, 1)
	go func() {
		done <- instance.RunSolver()
	}()

	select {
	case <-ctx.Done():
		m.status = solver.StatusError
		return ctx.Err()
	case err := <-done:
		if err != nil {
			m.status = solver.StatusError
			return err
		}
	}

	m.solution = instance.PrimalColumnSolution()
	m.status = solver.StatusOptimal
	return nil
}

func (m *Model) TerminationStatus() solver.Status {
	return m.status
}

func (m *Model) Value(v solver.VarRef) float64 {
	i := int(v)
	if i < 0 || i >= len(m.solution) {
		return 0
	}
	return m.solution[i]
}

// setQuadraticTerms applies the diagonal Hessian of the objective.
// HiGHS's QP support is accessed through a column-indexed Hessian
// setter; the exact method name is inferred from this lineage's only
// other HiGHS call site (dispatch/lpdispatch), which never exercises
// the quadratic path, so this is the one part of this adapter not
// directly grounded in an existing call.
func setQuadraticTerms(instance *highs.Highs, quad map[solver.QuadKey]float64) error {
	diag := make(map[int]float64, len(quad))
	for k, c := range quad {
		if k.V1 != k.V2 {
			return fmt.Errorf("highssolver: off-diagonal Hessian term on vars %d,%d not supported", k.V1, k.V2)
		}
		diag[int(k.V1)] += 2 * c
	}
	if len(diag) == 0 {
		return nil
	}
	return instance.SetColumnQuadraticCoefficients(diag)
}

// toHighsConstraint folds a solver.LinearExpr's constant into the
// row's bound and translates Sense into HiGHS's row-bound convention.
func toHighsConstraint(row rowSpec) highs.Constraint {
	coeffs := make(map[int]float64, len(row.expr.Terms))
	for v, c := range row.expr.Terms {
		coeffs[int(v)] = c
	}
	rhs := row.rhs - row.expr.Const

	switch row.sense {
	case solver.LE:
		return highs.Constraint{Coefficients: coeffs, Upper: rhs}
	case solver.GE:
		return highs.Constraint{Coefficients: coeffs, Lower: rhs}
	default:
		return highs.Constraint{Coefficients: coeffs, Lower: rhs, Upper: rhs}
	}
}
