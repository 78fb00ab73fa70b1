// Package generator is the Generator submodel (spec §4.3). It splits
// generators into stage-1 dispatchable (GN) and stage-2 variable (GV)
// populations, adds their capacity and dispatch variables and bounds,
// contributes their net injection into the shared bus-balance
// accumulator, and adds their cost terms into the shared cost
// accumulators. Grounded on the teacher lineage's
// dispatch/lpdispatch/lpconstruct.go BuildUnit, which performs the same
// kind of "domain record -> solver primitives" translation for a single
// economic-dispatch unit.
package generator

import (
	"math"

	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/costs"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

// ExpectationMode controls whether the stage-2 expected-cost term
// reproduces the source's extraneous 1/|S| factor alongside the
// scenario probability (design note 9, open question 1).
type ExpectationMode int

const (
	// SourceCompat multiplies scenario terms by prob_s * 1/|S|,
	// reproducing the source behavior verbatim.
	SourceCompat ExpectationMode = iota
	// ProbabilityOnly multiplies scenario terms by prob_s alone.
	ProbabilityOnly
)

// Bindings exposes every variable the Generator submodel created, keyed
// exactly as spec §4.3 names them, so the composer and result
// extraction can read them back after solve.
type Bindings struct {
	Cap  map[string]solver.VarRef            // vCAP[g], g in GN
	Gen  map[string]map[int]solver.VarRef    // vGEN[g][t], g in GN
	CapV map[string]map[string]solver.VarRef // vCAPV[g][s], g in GV

	GenV map[string]map[string]map[int]solver.VarRef // vGENV[g][s][t], g in GV
}

// Build adds the generator variables and constraints to m, accumulates
// their cost into acc, and writes their net bus injection into inj.
func Build(
	m solver.Model,
	sys *model.System,
	acc *costs.Accumulator,
	inj *balance.Injection,
	mode ExpectationMode,
) (*Bindings, error) {
	b := &Bindings{
		Cap:  make(map[string]solver.VarRef),
		Gen:  make(map[string]map[int]solver.VarRef),
		CapV: make(map[string]map[string]solver.VarRef),
		GenV: make(map[string]map[string]map[int]solver.VarRef),
	}

	numScenarios := float64(len(sys.ScenarioOrder))

	for _, name := range sys.DispatchableGenerators() {
		g := sys.Generators[name]

		cap := m.AddVariable(g.ExistCap, g.CapLimit)
		b.Cap[name] = cap

		b.Gen[name] = make(map[int]solver.VarRef)
		for _, t := range sys.TimepointOrder {
			gen := m.AddVariable(0, math.Inf(1))
			b.Gen[name][t] = gen

			if err := addUpperBound(m, gen, cap, 1); err != nil {
				return nil, err
			}

			for _, scenario := range sys.ScenarioOrder {
				inj.Add(g.Bus, scenario, t, gen, 1)
			}

			tp := sys.Timepoints[t]
			perTP := solver.NewQuadExpr()
			perTP.Linear.AddTerm(gen, g.C1+g.VarOMCost)
			perTP.Linear.AddConst(g.C0)
			perTP.AddQuadTerm(gen, gen, g.C2)
			acc.AddToTimepointCost(tp.ID, perTP)
		}

		perPeriod := solver.NewQuadExpr()
		perPeriod.Linear.AddTerm(cap, g.InvestCost)
		acc.AddToPeriodCost(perPeriod)
	}

	for _, name := range sys.VariableGenerators() {
		g := sys.Generators[name]

		b.CapV[name] = make(map[string]solver.VarRef)
		b.GenV[name] = make(map[string]map[int]solver.VarRef)

		for _, scenario := range sys.ScenarioOrder {
			prob := sys.Scenarios[scenario].Probability
			weight := prob
			if mode == SourceCompat && numScenarios > 0 {
				weight = prob / numScenarios
			}

			capv := m.AddVariable(g.ExistCap, g.CapLimit)
			b.CapV[name][scenario] = capv

			b.GenV[name][scenario] = make(map[int]solver.VarRef)

			for _, t := range sys.TimepointOrder {
				tp := sys.Timepoints[t]
				cf, ok := sys.CapacityFactorOf(name, scenario, tp.Name)
				if !ok {
					return nil, &MissingCapacityFactorError{Generator: name, Scenario: scenario, Timepoint: tp.Name}
				}

				genv := m.AddVariable(0, math.Inf(1))
				b.GenV[name][scenario][t] = genv

				if err := addUpperBound(m, genv, capv, cf); err != nil {
					return nil, err
				}

				inj.Add(g.Bus, scenario, t, genv, 1)

				perTP := solver.NewQuadExpr()
				perTP.Linear.AddTerm(genv, weight*(g.C1+g.VarOMCost))
				perTP.Linear.AddConst(weight * g.C0)
				perTP.AddQuadTerm(genv, genv, weight*g.C2)
				acc.AddToTimepointCost(tp.ID, perTP)
			}

			perPeriod := solver.NewQuadExpr()
			perPeriod.Linear.AddTerm(capv, weight*g.InvestCost)
			acc.AddToPeriodCost(perPeriod)
		}
	}

	return b, nil
}

// addUpperBound adds dispatch <= scale*capacity as a linear constraint:
// dispatch - scale*capacity <= 0. scale is 1 for GN (dispatch <=
// capacity) and the capacity factor for GV (dispatch <= cf*capacity).
func addUpperBound(m solver.Model, dispatch, capacity solver.VarRef, scale float64) error {
	expr := solver.NewLinearExpr()
	expr.AddTerm(dispatch, 1)
	expr.AddTerm(capacity, -scale)
	return m.AddLinearConstraint(expr, solver.LE, 0)
}

// MissingCapacityFactorError reports a variable generator with a gap in
// its capacity-factor coverage for some (scenario, timepoint) pair it is
// expected to cover (design note 9.2).
type MissingCapacityFactorError struct {
	Generator, Scenario, Timepoint string
}

func (e *MissingCapacityFactorError) Error() string {
	return "generator: variable generator " + e.Generator + " has no capacity factor for scenario " + e.Scenario + " timepoint " + e.Timepoint
}
