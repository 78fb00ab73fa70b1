// Package storage is the Storage submodel (spec §4.4). It adds storage
// power capacity, charge/discharge and state-of-energy variables, the
// cyclic state-of-energy dynamics within each timeseries, contributes
// net injection (discharge minus charge) into the shared bus-balance
// accumulator, and adds cost terms into the shared cost accumulators.
package storage

import (
	"math"

	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/costs"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

// ExpectationMode mirrors generator.ExpectationMode: storage var_om
// cost is also weighted by prob_s and, in SourceCompat mode, by an
// additional 1/|S|.
type ExpectationMode int

const (
	SourceCompat ExpectationMode = iota
	ProbabilityOnly
)

// Bindings exposes every variable the Storage submodel created.
type Bindings struct {
	PowerCap  map[string]solver.VarRef                    // vEPCAP[e]
	Charge    map[string]map[string]map[int]solver.VarRef // vCHG[e][s][t]
	Discharge map[string]map[string]map[int]solver.VarRef // vDIS[e][s][t]
	SOE       map[string]map[string]map[int]solver.VarRef // vSOE[e][s][t]
}

// Build adds the storage variables and constraints to m, accumulates
// their cost into acc, and writes their net injection (discharge minus
// charge) into inj.
func Build(
	m solver.Model,
	sys *model.System,
	acc *costs.Accumulator,
	inj *balance.Injection,
	mode ExpectationMode,
) (*Bindings, error) {
	b := &Bindings{
		PowerCap:  make(map[string]solver.VarRef),
		Charge:    make(map[string]map[string]map[int]solver.VarRef),
		Discharge: make(map[string]map[string]map[int]solver.VarRef),
		SOE:       make(map[string]map[string]map[int]solver.VarRef),
	}

	numScenarios := float64(len(sys.ScenarioOrder))

	for _, name := range sys.StorageOrder {
		e := sys.Storage[name]
		sqrtEff := math.Sqrt(e.Efficiency)

		epcap := m.AddVariable(e.ExistPowerCap, math.Inf(1))
		b.PowerCap[name] = epcap

		perPeriod := solver.NewQuadExpr()
		perPeriod.Linear.AddTerm(epcap, e.InvestCost)
		acc.AddToPeriodCost(perPeriod)

		b.Charge[name] = make(map[string]map[int]solver.VarRef)
		b.Discharge[name] = make(map[string]map[int]solver.VarRef)
		b.SOE[name] = make(map[string]map[int]solver.VarRef)

		for _, scenario := range sys.ScenarioOrder {
			prob := sys.Scenarios[scenario].Probability
			weight := prob
			if mode == SourceCompat && numScenarios > 0 {
				weight = prob / numScenarios
			}

			chg := make(map[int]solver.VarRef)
			dis := make(map[int]solver.VarRef)
			soe := make(map[int]solver.VarRef)
			b.Charge[name][scenario] = chg
			b.Discharge[name][scenario] = dis
			b.SOE[name][scenario] = soe

			for _, t := range sys.TimepointOrder {
				chg[t] = m.AddVariable(0, math.Inf(1))
				dis[t] = m.AddVariable(0, math.Inf(1))
				soe[t] = m.AddVariable(0, math.Inf(1))
			}

			for _, t := range sys.TimepointOrder {
				tp := sys.Timepoints[t]

				// vCHG + vDIS <= vEPCAP
				powerCapExpr := solver.NewLinearExpr()
				powerCapExpr.AddTerm(chg[t], 1)
				powerCapExpr.AddTerm(dis[t], 1)
				powerCapExpr.AddTerm(epcap, -1)
				if err := m.AddLinearConstraint(powerCapExpr, solver.LE, 0); err != nil {
					return nil, err
				}

				// vSOE <= duration * vEPCAP
				soeCapExpr := solver.NewLinearExpr()
				soeCapExpr.AddTerm(soe[t], 1)
				soeCapExpr.AddTerm(epcap, -e.DurationHrs)
				if err := m.AddLinearConstraint(soeCapExpr, solver.LE, 0); err != nil {
					return nil, err
				}

				// vSOE[t] - vSOE[prev(t)] - sqrt(eff)*dur*vCHG[t] + (1/sqrt(eff))*dur*vDIS[t] = 0
				prevSOE, ok := soe[tp.PrevTimepointID]
				if !ok {
					return nil, &MissingPrevSOEError{Storage: name, Scenario: scenario, Timepoint: tp.Name}
				}
				dynExpr := solver.NewLinearExpr()
				dynExpr.AddTerm(soe[t], 1)
				dynExpr.AddTerm(prevSOE, -1)
				dynExpr.AddTerm(chg[t], -sqrtEff*tp.DurationHrs)
				dynExpr.AddTerm(dis[t], tp.DurationHrs/sqrtEff)
				if err := m.AddLinearConstraint(dynExpr, solver.EQ, 0); err != nil {
					return nil, err
				}

				inj.Add(e.Bus, scenario, t, dis[t], 1)
				inj.Add(e.Bus, scenario, t, chg[t], -1)

				perTP := solver.NewQuadExpr()
				perTP.Linear.AddTerm(chg[t], weight*e.VarOMCost)
				perTP.Linear.AddTerm(dis[t], weight*e.VarOMCost)
				acc.AddToTimepointCost(tp.ID, perTP)
			}
		}
	}

	return b, nil
}

// MissingPrevSOEError reports a timepoint whose cyclic predecessor (set
// by the timescale resolver) does not have an SOE variable declared —
// this indicates Build was invoked before timescale.Resolve.
type MissingPrevSOEError struct {
	Storage, Scenario, Timepoint string
}

func (e *MissingPrevSOEError) Error() string {
	return "storage: unit " + e.Storage + " scenario " + e.Scenario + " timepoint " + e.Timepoint + " has no resolved previous-timepoint SOE variable"
}
