// Package transmission is the Transmission submodel (spec §4.5). It
// adds the bus-angle variables, fixes the slack bus angle to zero, adds
// the DC flow expression and flow-limit constraint per bus (or,
// optionally, per line), and adds the bus power-balance constraint
// tying every submodel's injection together.
package transmission

import (
	"math"

	"github.com/REAM-lab/CATEX/internal/pkg/admittance"
	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

// FlowFormulation selects between the source's per-bus aggregate flow
// cap and a tighter per-line cap (design note 9, open question 2).
type FlowFormulation int

const (
	// Aggregate caps the sum of flow leaving a bus at the sum of rated
	// MW of lines incident to that bus. This is looser than a per-line
	// DC-OPF and is the source's literal behavior.
	Aggregate FlowFormulation = iota
	// PerLine adds |f_l| <= rate_l for every line individually.
	PerLine
)

// Bindings exposes the angle variables the Transmission submodel
// created.
type Bindings struct {
	Theta map[string]map[string]map[int]solver.VarRef // THETA[n][s][t]
}

// Build adds angle variables (fixing the slack bus to zero), the flow
// expression and limit, and the power-balance constraint that ties
// eGenAtBus (and storage's net injection, already folded into inj) to
// load and flow.
func Build(
	m solver.Model,
	sys *model.System,
	y *admittance.Matrix,
	inj *balance.Injection,
	formulation FlowFormulation,
) (*Bindings, error) {
	b := &Bindings{Theta: make(map[string]map[string]map[int]solver.VarRef)}

	for _, bus := range sys.BusOrder {
		b.Theta[bus] = make(map[string]map[int]solver.VarRef)
		for _, scenario := range sys.ScenarioOrder {
			b.Theta[bus][scenario] = make(map[int]solver.VarRef)
			for _, t := range sys.TimepointOrder {
				theta := m.AddVariable(math.Inf(-1), math.Inf(1))
				b.Theta[bus][scenario][t] = theta
				if bus == sys.SlackBus {
					if err := m.Fix(theta, 0); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	for _, scenario := range sys.ScenarioOrder {
		for _, t := range sys.TimepointOrder {
			tp := sys.Timepoints[t]

			flowExpr := make(map[string]solver.LinearExpr, len(sys.BusOrder))
			for _, bus := range sys.BusOrder {
				n, _ := y.IndexOf(bus)
				expr := solver.NewLinearExpr()
				for _, mIdx := range y.Neighbors(n) {
					bnm := y.B(n, mIdx)
					expr.AddTerm(b.Theta[bus][scenario][t], bnm)
					expr.AddTerm(b.Theta[y.Buses()[mIdx]][scenario][t], -bnm)
				}
				flowExpr[bus] = expr
			}

			switch formulation {
			case Aggregate:
				for _, bus := range sys.BusOrder {
					n, _ := y.IndexOf(bus)
					cap := y.MaxFlow(n)
					if err := m.AddLinearConstraint(flowExpr[bus], solver.LE, cap); err != nil {
						return nil, err
					}
					if err := m.AddLinearConstraint(flowExpr[bus], solver.GE, -cap); err != nil {
						return nil, err
					}
				}
			case PerLine:
				for _, line := range sys.Lines {
					lineFlow, err := perLineFlow(m, b, line, scenario, t)
					if err != nil {
						return nil, err
					}
					if err := m.AddLinearConstraint(lineFlow, solver.LE, line.RateMW); err != nil {
						return nil, err
					}
					if err := m.AddLinearConstraint(lineFlow, solver.GE, -line.RateMW); err != nil {
						return nil, err
					}
				}
			}

			for _, bus := range sys.BusOrder {
				balanceExpr := inj.Expr(bus, scenario, t)
				balanceExpr.Merge(flowExpr[bus].Scale(-1))
				load := sys.LoadMW(bus, scenario, tp.Name)
				if err := m.AddLinearConstraint(balanceExpr, solver.GE, load); err != nil {
					return nil, err
				}
			}
		}
	}

	return b, nil
}

// perLineFlow returns the DC flow f_l = B_l * (theta_from - theta_to)
// for a single line, where B_l = Im(1/(r+jx)) of that line alone
// (ignoring any parallel line sharing the same endpoints).
func perLineFlow(m solver.Model, b *Bindings, line model.Line, scenario string, t int) (solver.LinearExpr, error) {
	z := complex(line.R, line.X)
	bLine := imag(1 / z)

	thetaFrom, ok := b.Theta[line.From][scenario][t]
	if !ok {
		return solver.LinearExpr{}, &UnknownBusError{Bus: line.From, Line: line.Name}
	}
	thetaTo, ok := b.Theta[line.To][scenario][t]
	if !ok {
		return solver.LinearExpr{}, &UnknownBusError{Bus: line.To, Line: line.Name}
	}

	expr := solver.NewLinearExpr()
	expr.AddTerm(thetaFrom, bLine)
	expr.AddTerm(thetaTo, -bLine)
	return expr, nil
}

// UnknownBusError reports a line endpoint with no angle variable bound
// — indicates Build was invoked with a bus list that does not cover
// every line endpoint.
type UnknownBusError struct {
	Bus, Line string
}

func (e *UnknownBusError) Error() string {
	return "transmission: line " + e.Line + " endpoint bus " + e.Bus + " has no angle variable"
}
