package timescale

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

func threeTimepointSystem() *model.System {
	sys := model.New()
	sys.Timeseries["ts1"] = &model.Timeseries{
		ID: 1, Name: "ts1", DurationOfTimepoints: 2, NumberTimepoints: 3,
		ScaleToPeriod: 10, TimepointIDs: []int{1, 2, 3},
	}
	for i, id := range []int{1, 2, 3} {
		sys.Timepoints[id] = &model.Timepoint{ID: id, Name: "t" + string(rune('0'+i)), TimeseriesName: "ts1"}
	}
	return sys
}

func TestResolveSetsWeightAndCyclicPrev(t *testing.T) {
	sys := threeTimepointSystem()
	assert.NilError(t, Resolve(sys))

	for _, id := range []int{1, 2, 3} {
		tp := sys.Timepoints[id]
		assert.Equal(t, 2.0, tp.DurationHrs)
		assert.Equal(t, 20.0, tp.Weight)
	}
	assert.Equal(t, 3, sys.Timepoints[1].PrevTimepointID)
	assert.Equal(t, 1, sys.Timepoints[2].PrevTimepointID)
	assert.Equal(t, 2, sys.Timepoints[3].PrevTimepointID)
	assert.DeepEqual(t, []int{1, 2, 3}, sys.TimepointOrder)
}

func TestResolveRejectsUnknownTimeseries(t *testing.T) {
	sys := threeTimepointSystem()
	sys.Timepoints[1].TimeseriesName = "missing"
	assert.ErrorContains(t, Resolve(sys), "unknown timeseries")
}

func TestResolveRejectsTimepointCountMismatch(t *testing.T) {
	sys := threeTimepointSystem()
	sys.Timeseries["ts1"].NumberTimepoints = 5
	assert.ErrorContains(t, Resolve(sys), "declares 5 timepoints but lists 3")
}

func TestResolveRejectsNonContiguousTimepointIDs(t *testing.T) {
	sys := threeTimepointSystem()
	sys.Timeseries["ts1"].TimepointIDs = []int{1, 2, 4}
	delete(sys.Timepoints, 3)
	sys.Timepoints[4] = &model.Timepoint{ID: 4, Name: "t4", TimeseriesName: "ts1"}
	assert.ErrorContains(t, Resolve(sys), "not contiguous")
}
