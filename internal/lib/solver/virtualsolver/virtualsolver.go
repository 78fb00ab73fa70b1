// Package virtualsolver is a pure-Go reference implementation of the
// solver.Model contract. It carries no external solver dependency and
// is not intended to reach HiGHS-grade precision on large problems; it
// exists so the core's own tests can run against a deterministic,
// dependency-free backend. Production runs use highssolver instead.
package virtualsolver

import (
	"context"
	"log"
	"math"

	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

type constraint struct {
	expr  solver.LinearExpr
	sense solver.Sense
	rhs   float64
}

// Model is a projected-gradient reference solver over box-constrained
// variables with linear constraints folded into the objective as a
// quadratic exterior penalty. Each Solve starts from the values the
// previous Solve left behind, so a second Solve warm-starts from the
// first one's result.
type Model struct {
	lb, ub []float64
	fixed  []bool

	constraints  []constraint
	objective    solver.QuadExpr
	hasObjective bool

	values []float64
	status solver.Status

	iterations int
	stepSize   float64
	penalty    float64
}

// New returns an empty Model. iterations, stepSize and penalty tune the
// projected-gradient penalty method; New0 supplies defaults tuned for
// the small scenario sizes this package is exercised against.
func New(iterations int, stepSize, penalty float64) *Model {
	return &Model{
		iterations: iterations,
		stepSize:   stepSize,
		penalty:    penalty,
	}
}

// New0 returns a Model with defaults adequate for the handful of
// variables a unit test typically builds.
func New0() *Model {
	return New(20000, 5e-4, 1e9)
}

func (m *Model) AddVariable(lb, ub float64) solver.VarRef {
	m.lb = append(m.lb, lb)
	m.ub = append(m.ub, ub)
	m.fixed = append(m.fixed, false)
	m.values = append(m.values, clamp(0, lb, ub))
	return solver.VarRef(len(m.lb) - 1)
}

func (m *Model) AddLinearConstraint(expr solver.LinearExpr, sense solver.Sense, rhs float64) error {
	m.constraints = append(m.constraints, constraint{expr: expr, sense: sense, rhs: rhs})
	return nil
}

func (m *Model) AddQuadraticObjective(expr solver.QuadExpr) error {
	if m.hasObjective {
		m.objective.Merge(expr)
		return nil
	}
	m.objective = expr
	m.hasObjective = true
	return nil
}

func (m *Model) Fix(v solver.VarRef, value float64) error {
	i := int(v)
	if i < 0 || i >= len(m.lb) {
		return &OutOfRangeError{VarRef: v}
	}
	m.fixed[i] = true
	m.values[i] = value
	m.lb[i] = value
	m.ub[i] = value
	return nil
}

// Solve runs a fixed number of projected-gradient steps against the
// objective plus a quadratic exterior penalty on constraint violation.
// It respects ctx cancellation between iterations but performs no
// internal retries or restarts.
func (m *Model) Solve(ctx context.Context) error {
	n := len(m.lb)
	x := make([]float64, n)
	copy(x, m.values)

	// curv[i] bounds row i of the penalty term's Hessian; capping a
	// variable's step at 1/curv[i] keeps the iteration from diverging.
	curv := make([]float64, n)
	for _, cons := range m.constraints {
		rowSum := 0.0
		for _, c := range cons.expr.Terms {
			rowSum += math.Abs(c)
		}
		for v, c := range cons.expr.Terms {
			curv[v] += 2 * m.penalty * math.Abs(c) * rowSum
		}
	}

	for iter := 0; iter < m.iterations; iter++ {
		select {
		case <-ctx.Done():
			m.status = solver.StatusError
			return ctx.Err()
		default:
		}

		grad := m.gradient(x)
		lr := m.stepSize / (1 + float64(iter)/float64(m.iterations))
		for i := range x {
			if m.fixed[i] {
				continue
			}
			step := lr
			if curv[i]*step > 1 {
				step = 1 / curv[i]
			}
			x[i] -= step * grad[i]
			x[i] = clamp(x[i], m.lb[i], m.ub[i])
		}
	}

	m.values = x
	if m.maxViolation(x) > 1e-3 {
		log.Printf("[virtualsolver] max constraint violation %v after %d iterations", m.maxViolation(x), m.iterations)
		m.status = solver.StatusInfeasible
		return nil
	}
	m.status = solver.StatusOptimal
	return nil
}

func (m *Model) TerminationStatus() solver.Status {
	return m.status
}

func (m *Model) Value(v solver.VarRef) float64 {
	i := int(v)
	if i < 0 || i >= len(m.values) {
		return 0
	}
	return m.values[i]
}

// gradient returns d/dx of the objective plus the squared-violation
// penalty term for every constraint, evaluated at x.
func (m *Model) gradient(x []float64) []float64 {
	grad := make([]float64, len(x))

	for v, c := range m.objective.Linear.Terms {
		grad[v] += c
	}
	for k, c := range m.objective.Quad {
		if k.V1 == k.V2 {
			grad[k.V1] += 2 * c * x[k.V1]
			continue
		}
		grad[k.V1] += c * x[k.V2]
		grad[k.V2] += c * x[k.V1]
	}

	for _, cons := range m.constraints {
		viol := violation(cons, x)
		if viol == 0 {
			continue
		}
		scale := 2 * m.penalty * viol
		for v, c := range cons.expr.Terms {
			grad[v] += scale * c
		}
	}

	return grad
}

func (m *Model) maxViolation(x []float64) float64 {
	max := 0.0
	for _, cons := range m.constraints {
		v := math.Abs(violation(cons, x))
		if v > max {
			max = v
		}
	}
	return max
}

// violation returns the signed amount by which x violates cons, or 0 if
// it is satisfied: for LE, max(0, lhs-rhs); for GE, min(0, lhs-rhs); for
// EQ, lhs-rhs.
func violation(cons constraint, x []float64) float64 {
	lhs := cons.expr.Const
	for v, c := range cons.expr.Terms {
		lhs += c * x[v]
	}
	switch cons.sense {
	case solver.LE:
		if d := lhs - cons.rhs; d > 0 {
			return d
		}
		return 0
	case solver.GE:
		if d := lhs - cons.rhs; d < 0 {
			return d
		}
		return 0
	case solver.EQ:
		return lhs - cons.rhs
	default:
		return 0
	}
}

func clamp(x, lb, ub float64) float64 {
	if x < lb {
		return lb
	}
	if x > ub {
		return ub
	}
	return x
}

// OutOfRangeError reports a VarRef not produced by this Model's own
// AddVariable.
type OutOfRangeError struct {
	VarRef solver.VarRef
}

func (e *OutOfRangeError) Error() string {
	return "virtualsolver: var ref out of range"
}
