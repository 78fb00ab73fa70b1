// Package policy is the Policy submodel (spec §4.6). Today it enforces
// only the angle-limit constraint; the budget and emissions slots named
// in spec §3/§9 are reserved and intentionally not enforced (emissions
// constraints are an explicit Non-goal; see SPEC_FULL.md §1).
package policy

import (
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
	"github.com/REAM-lab/CATEX/internal/pkg/transmission"
)

// Build adds -theta_lim <= THETA[n,s,t] <= theta_lim for every bus,
// scenario and timepoint, where theta_lim is Policy.MaxDiffAngleRadians.
func Build(m solver.Model, sys *model.System, trans *transmission.Bindings) error {
	limit := sys.Policy.MaxDiffAngleRadians

	for _, bus := range sys.BusOrder {
		for _, scenario := range sys.ScenarioOrder {
			for _, t := range sys.TimepointOrder {
				theta := trans.Theta[bus][scenario][t]
				expr := solver.NewLinearExpr()
				expr.AddTerm(theta, 1)
				if err := m.AddLinearConstraint(expr, solver.LE, limit); err != nil {
					return err
				}
				if err := m.AddLinearConstraint(expr, solver.GE, -limit); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
