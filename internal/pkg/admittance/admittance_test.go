package admittance

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

func TestBuildTwoBusSeriesOnly(t *testing.T) {
	buses := []string{"A", "B"}
	lines := []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 100, R: 0, X: 0.1}}

	m, err := Build(buses, lines, false)
	assert.NilError(t, err)

	a, _ := m.IndexOf("A")
	b, _ := m.IndexOf("B")
	assert.Equal(t, -10.0, m.B(a, a))
	assert.Equal(t, -10.0, m.B(b, b))
	assert.Equal(t, 10.0, m.B(a, b))
	assert.Equal(t, 10.0, m.B(b, a))
	assert.Equal(t, 100.0, m.MaxFlow(a))
	assert.Equal(t, 100.0, m.MaxFlow(b))
}

func TestBuildAppliesShuntAtBothEndpointsWithoutHalving(t *testing.T) {
	buses := []string{"A", "B"}
	lines := []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 100, X: 0.1, B: 0.02}}

	withShunt, err := Build(buses, lines, true)
	assert.NilError(t, err)
	withoutShunt, err := Build(buses, lines, false)
	assert.NilError(t, err)

	a, _ := withShunt.IndexOf("A")
	// the full shunt susceptance is added at each endpoint, not half.
	assert.Assert(t, closeTo(withShunt.B(a, a)-withoutShunt.B(a, a), 0.02, 1e-9))
}

func TestBuildParallelLinesSumAdditively(t *testing.T) {
	buses := []string{"A", "B"}
	lines := []model.Line{
		{Name: "L1", From: "A", To: "B", RateMW: 50, X: 0.2},
		{Name: "L2", From: "A", To: "B", RateMW: 50, X: 0.2},
	}

	m, err := Build(buses, lines, false)
	assert.NilError(t, err)
	a, _ := m.IndexOf("A")
	assert.Equal(t, 100.0, m.MaxFlow(a))
}

func TestBuildRejectsUnknownBus(t *testing.T) {
	buses := []string{"A"}
	lines := []model.Line{{Name: "L1", From: "A", To: "C", X: 0.1, RateMW: 1}}
	_, err := Build(buses, lines, false)
	assert.ErrorContains(t, err, "not in bus list")
}

func TestBuildRejectsZeroImpedance(t *testing.T) {
	buses := []string{"A", "B"}
	lines := []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 1}}
	_, err := Build(buses, lines, false)
	assert.ErrorContains(t, err, "zero series impedance")
}

func TestNeighborsExcludesSelfAndZeroCoupled(t *testing.T) {
	buses := []string{"A", "B", "C"}
	lines := []model.Line{{Name: "L1", From: "A", To: "B", RateMW: 1, X: 0.1}}
	m, err := Build(buses, lines, false)
	assert.NilError(t, err)

	a, _ := m.IndexOf("A")
	b, _ := m.IndexOf("B")
	assert.DeepEqual(t, []int{b}, m.Neighbors(a))
}

func closeTo(got, want, tol float64) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}
