package composer

import (
	"context"
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/lib/solver/virtualsolver"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/timescale"
)

// twoBusSystem is the spec's sanity scenario: a cheap generator at the
// slack bus serves load at a remote bus over one line with ample
// headroom, with one storage unit that should sit idle.
func twoBusSystem(t *testing.T) *model.System {
	t.Helper()
	sys := model.New()
	sys.Buses["A"] = model.Bus{Name: "A", Slack: true}
	sys.Buses["B"] = model.Bus{Name: "B"}
	sys.BusOrder = []string{"A", "B"}
	sys.Lines = []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 100, X: 0.1}}

	sys.Generators["G1"] = model.Generator{Name: "G1", Bus: "A", ExistCap: 50, CapLimit: 50, C1: 10}
	sys.GenOrder = []string{"G1"}

	sys.Storage["S1"] = model.EnergyStorage{Name: "S1", Bus: "B", Efficiency: 0.9, DurationHrs: 2}
	sys.StorageOrder = []string{"S1"}

	sys.Scenarios["base"] = model.Scenario{Name: "base", Probability: 1}
	sys.ScenarioOrder = []string{"base"}

	sys.Timeseries["ts1"] = &model.Timeseries{
		ID: 1, Name: "ts1", DurationOfTimepoints: 1, NumberTimepoints: 1,
		ScaleToPeriod: 8760, TimepointIDs: []int{1},
	}
	sys.Timepoints[1] = &model.Timepoint{ID: 1, Name: "t1", TimeseriesName: "ts1"}

	sys.Load[model.LoadKey{Bus: "B", Scenario: "base", Timepoint: "t1"}] = 20

	sys.Policy.MaxDiffAngleRadians = math.Pi

	assert.NilError(t, timescale.Resolve(sys))
	assert.NilError(t, sys.Validate())
	return sys
}

func TestAssembleAndSolveTwoBusSanity(t *testing.T) {
	sys := twoBusSystem(t)
	m := virtualsolver.New0()
	c := New(m, sys)

	assert.NilError(t, c.Assemble())
	assert.Equal(t, StateObjectiveSet, c.State())

	assert.NilError(t, c.Solve(context.Background()))
	assert.Equal(t, StateSolved, c.State())

	res, err := c.Result()
	assert.NilError(t, err)
	assert.Assert(t, res.Gen["G1"][1] >= 19.0)
	assert.Assert(t, res.TotalCost > 0)
}

func TestResultBeforeSolveErrors(t *testing.T) {
	sys := twoBusSystem(t)
	m := virtualsolver.New0()
	c := New(m, sys)
	assert.NilError(t, c.Assemble())

	_, err := c.Result()
	assert.ErrorContains(t, err, "want SOLVED")
}

func TestAssembleTwiceErrors(t *testing.T) {
	sys := twoBusSystem(t)
	m := virtualsolver.New0()
	c := New(m, sys)
	assert.NilError(t, c.Assemble())

	err := c.Assemble()
	assert.ErrorContains(t, err, "want CREATED")
}

func TestAssembleFailsValidationTransitionsToFailed(t *testing.T) {
	sys := twoBusSystem(t)
	sys.Scenarios["base"] = model.Scenario{Name: "base", Probability: 0.5}

	m := virtualsolver.New0()
	c := New(m, sys)

	err := c.Assemble()
	assert.ErrorContains(t, err, "probabilities sum to")
	assert.Equal(t, StateFailed, c.State())

	_, resultErr := c.Result()
	assert.ErrorContains(t, resultErr, "probabilities sum to")
}

func TestWithIncludeShuntsOptionIsHonored(t *testing.T) {
	sys := twoBusSystem(t)
	sys.Lines[0].B = 0.05

	m := virtualsolver.New0()
	c := New(m, sys, WithIncludeShunts(false))
	assert.NilError(t, c.Assemble())
	assert.Equal(t, false, c.includeShunts)
}
