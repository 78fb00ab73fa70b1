// Package timescale links timepoints to their timeseries and computes
// the per-timepoint weight and cyclic previous-timepoint pointer. See
// spec §4.2.
package timescale

import (
	"fmt"
	"sort"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// Resolve finalizes every Timepoint in sys: it looks up the timepoint's
// timeseries by name, sets DurationHrs from the timeseries, sets
// Weight = DurationHrs * ScaleToPeriod, and sets PrevTimepointID so that
// the boundary closes cyclically within each timeseries.
//
// Contract: timepoint ids within a timeseries must form a contiguous
// range. Resolve validates this and fails fast rather than silently
// producing a non-cyclic or cross-timeseries wrap.
func Resolve(sys *model.System) error {
	for id, tp := range sys.Timepoints {
		ts, ok := sys.Timeseries[tp.TimeseriesName]
		if !ok {
			return fmt.Errorf("timescale: timepoint %q references unknown timeseries %q", tp.Name, tp.TimeseriesName)
		}
		tp.TimeseriesID = ts.ID
		tp.DurationHrs = ts.DurationOfTimepoints
		tp.Weight = ts.DurationOfTimepoints * ts.ScaleToPeriod
		sys.Timepoints[id] = tp
	}

	for _, ts := range sys.Timeseries {
		if len(ts.TimepointIDs) != ts.NumberTimepoints {
			return fmt.Errorf("timescale: timeseries %q declares %d timepoints but lists %d", ts.Name, ts.NumberTimepoints, len(ts.TimepointIDs))
		}
		ordered := make([]int, len(ts.TimepointIDs))
		copy(ordered, ts.TimepointIDs)
		sort.Ints(ordered)
		for i, id := range ordered {
			if i > 0 && id != ordered[i-1]+1 {
				return fmt.Errorf("timescale: timeseries %q timepoint ids are not contiguous (%d follows %d)", ts.Name, id, ordered[i-1])
			}
		}

		for i, id := range ts.TimepointIDs {
			tp, ok := sys.Timepoints[id]
			if !ok {
				return fmt.Errorf("timescale: timeseries %q references unknown timepoint id %d", ts.Name, id)
			}
			if i == 0 {
				tp.PrevTimepointID = ts.TimepointIDs[len(ts.TimepointIDs)-1]
			} else {
				tp.PrevTimepointID = ts.TimepointIDs[i-1]
			}
			sys.Timepoints[id] = tp
		}
	}

	ids := make([]int, 0, len(sys.Timepoints))
	for id := range sys.Timepoints {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	sys.TimepointOrder = ids

	return nil
}
