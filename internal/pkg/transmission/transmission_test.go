package transmission

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/lib/solver/virtualsolver"
	"github.com/REAM-lab/CATEX/internal/pkg/admittance"
	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
)

func twoBusSystem() (*model.System, *admittance.Matrix) {
	sys := model.New()
	sys.Buses["A"] = model.Bus{Name: "A", Slack: true}
	sys.Buses["B"] = model.Bus{Name: "B"}
	sys.BusOrder = []string{"A", "B"}
	sys.SlackBus = "A"
	sys.Lines = []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 100, X: 0.1}}
	sys.Scenarios["s1"] = model.Scenario{Name: "s1", Probability: 1}
	sys.ScenarioOrder = []string{"s1"}
	sys.Timepoints[1] = &model.Timepoint{ID: 1, Name: "t1"}
	sys.TimepointOrder = []int{1}
	sys.Load[model.LoadKey{Bus: "B", Scenario: "s1", Timepoint: "t1"}] = 20

	y, err := admittance.Build(sys.BusOrder, sys.Lines, false)
	if err != nil {
		panic(err)
	}
	return sys, y
}

func TestBuildFixesSlackBusAngleToZero(t *testing.T) {
	sys, y := twoBusSystem()
	m := virtualsolver.New0()
	inj := balance.NewInjection()
	gen := m.AddVariable(0, 100)
	inj.Add("A", "s1", 1, gen, 1)

	b, err := Build(m, sys, y, inj, Aggregate)
	assert.NilError(t, err)

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, 0.0, m.Value(b.Theta["A"]["s1"][1]))
}

func TestBuildSatisfiesPowerBalanceUnderAggregateFormulation(t *testing.T) {
	sys, y := twoBusSystem()
	m := virtualsolver.New0()
	inj := balance.NewInjection()
	gen := m.AddVariable(0, 100)
	inj.Add("A", "s1", 1, gen, 1)

	_, err := Build(m, sys, y, inj, Aggregate)
	assert.NilError(t, err)

	obj := solver.NewQuadExpr()
	obj.AddQuadTerm(gen, gen, 1)
	assert.NilError(t, m.AddQuadraticObjective(obj))

	assert.NilError(t, m.Solve(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.TerminationStatus())
	assert.Assert(t, m.Value(gen) >= 19.9)
}

func TestPerLineFlowUnknownBusErrors(t *testing.T) {
	line := model.Line{Name: "Lx", From: "Z", To: "B", X: 0.1}
	bindings := &Bindings{Theta: map[string]map[string]map[int]solver.VarRef{
		"B": {"s1": {1: solver.VarRef(0)}},
	}}
	_, err := perLineFlow(nil, bindings, line, "s1", 1)
	assert.ErrorContains(t, err, "no angle variable")
}
