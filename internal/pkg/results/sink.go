// Package results writes a solved Composer's output. CSVWriter is the
// required sink named in spec.md §6; MongoArchive, CostLedger and
// RunNotifier are optional fire-and-forget sinks behind the same Sink
// interface, invoked only once a run has reached SOLVED.
package results

import (
	"context"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// Sink receives a finished run. runID identifies the run across every
// sink that observes it (run.json and model.txt in the CSV output
// directory, Mongo document key, MySQL run_id column, NATS message
// body).
type Sink interface {
	Write(ctx context.Context, runID string, sys *model.System, res *composer.Result) error
}
