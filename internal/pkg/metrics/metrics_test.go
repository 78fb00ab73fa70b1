package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"
)

func TestObserveSolveIncrementsTerminationCounter(t *testing.T) {
	before := testutil.ToFloat64(terminationCount.WithLabelValues("optimal"))
	ObserveSolve(10*time.Millisecond, "optimal")
	after := testutil.ToFloat64(terminationCount.WithLabelValues("optimal"))
	assert.Equal(t, before+1, after)
}

func TestObserveTotalCostSetsGauge(t *testing.T) {
	ObserveTotalCost(123.5)
	assert.Equal(t, 123.5, testutil.ToFloat64(lastTotalCost))
}
