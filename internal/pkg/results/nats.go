package results

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// RunNotifier publishes a run.completed message carrying the run ID and
// total cost, so an external scheduler can react to a finished solve
// without polling the output directory.
type RunNotifier struct {
	URL, Subject string
}

type runCompletedEvent struct {
	RunID     string  `json:"run_id"`
	TotalCost float64 `json:"total_cost"`
}

func (n RunNotifier) Write(ctx context.Context, runID string, sys *model.System, res *composer.Result) error {
	nc, err := nats.Connect(n.URL)
	if err != nil {
		return err
	}
	defer nc.Close()

	data, err := json.Marshal(runCompletedEvent{RunID: runID, TotalCost: res.TotalCost})
	if err != nil {
		return err
	}
	subject := n.Subject
	if subject == "" {
		subject = "run.completed"
	}
	return nc.Publish(subject, data)
}
