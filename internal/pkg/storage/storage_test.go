package storage

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/lib/solver/virtualsolver"
	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/costs"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/timescale"
)

func oneStorageTwoTimepoints() *model.System {
	sys := model.New()
	sys.Buses["A"] = model.Bus{Name: "A", Slack: true}
	sys.BusOrder = []string{"A"}
	sys.Scenarios["s1"] = model.Scenario{Name: "s1", Probability: 1}
	sys.ScenarioOrder = []string{"s1"}

	sys.Timeseries["ts1"] = &model.Timeseries{
		ID: 1, Name: "ts1", DurationOfTimepoints: 1, NumberTimepoints: 2,
		ScaleToPeriod: 1, TimepointIDs: []int{1, 2},
	}
	sys.Timepoints[1] = &model.Timepoint{ID: 1, Name: "t1", TimeseriesName: "ts1"}
	sys.Timepoints[2] = &model.Timepoint{ID: 2, Name: "t2", TimeseriesName: "ts1"}

	sys.Storage["S1"] = model.EnergyStorage{Name: "S1", Bus: "A", Efficiency: 0.81, DurationHrs: 4}
	sys.StorageOrder = []string{"S1"}

	assert_Resolve(sys)
	return sys
}

func assert_Resolve(sys *model.System) {
	if err := timescale.Resolve(sys); err != nil {
		panic(err)
	}
}

func TestBuildWiresCyclicSOEDynamics(t *testing.T) {
	sys := oneStorageTwoTimepoints()
	m := virtualsolver.New0()
	acc := costs.NewAccumulator(sys.TimepointOrder)
	inj := balance.NewInjection()

	b, err := Build(m, sys, acc, inj, SourceCompat)
	assert.NilError(t, err)

	assert.Assert(t, b.SOE["S1"]["s1"][1] != b.SOE["S1"]["s1"][2])
	assert.Equal(t, sys.Timepoints[1].PrevTimepointID, 2)
}

func TestBuildContributesDischargeMinusChargeInjection(t *testing.T) {
	sys := oneStorageTwoTimepoints()
	m := virtualsolver.New0()
	acc := costs.NewAccumulator(sys.TimepointOrder)
	inj := balance.NewInjection()

	b, err := Build(m, sys, acc, inj, SourceCompat)
	assert.NilError(t, err)

	expr := inj.Expr("A", "s1", 1)
	assert.Equal(t, 1.0, expr.Terms[b.Discharge["S1"]["s1"][1]])
	assert.Equal(t, -1.0, expr.Terms[b.Charge["S1"]["s1"][1]])
}

func TestBuildErrorsWithoutTimescaleResolve(t *testing.T) {
	sys := model.New()
	sys.Buses["A"] = model.Bus{Name: "A", Slack: true}
	sys.BusOrder = []string{"A"}
	sys.Scenarios["s1"] = model.Scenario{Name: "s1", Probability: 1}
	sys.ScenarioOrder = []string{"s1"}
	sys.Timepoints[1] = &model.Timepoint{ID: 1, Name: "t1"} // PrevTimepointID left zero-valued, unresolved
	sys.TimepointOrder = []int{1}
	sys.Storage["S1"] = model.EnergyStorage{Name: "S1", Bus: "A", Efficiency: 0.9, DurationHrs: 4}
	sys.StorageOrder = []string{"S1"}

	m := virtualsolver.New0()
	acc := costs.NewAccumulator(sys.TimepointOrder)
	inj := balance.NewInjection()

	_, err := Build(m, sys, acc, inj, SourceCompat)
	assert.ErrorContains(t, err, "no resolved previous-timepoint")
}
