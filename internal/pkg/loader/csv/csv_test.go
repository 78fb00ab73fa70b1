package csv

import (
	"context"
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestLoadTwoBusFixture(t *testing.T) {
	src := New("testdata/two_bus")
	sys, err := src.Load(context.Background())
	assert.NilError(t, err)

	assert.Equal(t, 2, len(sys.BusOrder))
	assert.Equal(t, "A", sys.SlackBus)
	assert.Equal(t, 1, len(sys.Lines))
	assert.DeepEqual(t, []string{"G1"}, sys.DispatchableGenerators())
	assert.Equal(t, 0, len(sys.VariableGenerators()))

	assert.Equal(t, 20.0, sys.LoadMW("B", "base", "t1"))

	tp := sys.Timepoints[1]
	assert.Equal(t, 1.0, tp.DurationHrs)
	assert.Equal(t, 8760.0, tp.Weight)
	assert.Equal(t, 1, tp.PrevTimepointID)

	assert.Assert(t, sys.Policy.MaxDiffAngleRadians > 0.78 && sys.Policy.MaxDiffAngleRadians < 0.79)
}

func TestLoadMissingFileErrors(t *testing.T) {
	src := New("testdata/does_not_exist")
	_, err := src.Load(context.Background())
	assert.Assert(t, err != nil)
	var missing *MissingFileError
	assert.Assert(t, errors.As(err, &missing))
}
