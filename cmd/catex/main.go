// Command catex is the batch driver: load the input tables, assemble
// and solve the model, write results, and (if configured) archive or
// notify downstream systems. It never re-solves interactively.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/REAM-lab/CATEX/internal/lib/solver/highssolver"
	"github.com/REAM-lab/CATEX/internal/lib/solver/virtualsolver"
	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/config"
	catexcsv "github.com/REAM-lab/CATEX/internal/pkg/loader/csv"
	"github.com/REAM-lab/CATEX/internal/pkg/results"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
	"github.com/REAM-lab/CATEX/internal/pkg/transmission"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("[Main] config: %v", err)
	}

	runID := uuid.New().String()
	log.Printf("[Main] Starting CATEX run %s", runID)

	log.Println("[Main] Loading input tables")
	src := catexcsv.New(filepath.Join(cfg.MainDir, "inputs"))
	sys, err := src.Load(context.Background())
	if err != nil {
		log.Fatalf("[Main] load: %v", err)
	}

	log.Println("[Main] Assembling model")
	m, err := newSolverModel(cfg.Solver)
	if err != nil {
		log.Fatalf("[Main] solver: %v", err)
	}

	opts, err := composerOptions(cfg)
	if err != nil {
		log.Fatalf("[Main] config: %v", err)
	}

	c := composer.New(m, sys, opts...)
	if err := c.Assemble(); err != nil {
		log.Fatalf("[Main] assemble: %v", err)
	}

	log.Println("[Main] Solving")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := c.Solve(ctx); err != nil {
		log.Fatalf("[Main] solve: %v", err)
	}

	res, err := c.Result()
	if err != nil {
		log.Fatalf("[Main] result: %v", err)
	}
	log.Printf("[Main] Solved, total cost %v", res.TotalCost)

	log.Println("[Main] Writing results")
	outDir := filepath.Join(cfg.MainDir, "outputs")
	csvSink := results.CSVWriter{Dir: outDir, DumpModel: cfg.DumpModel}
	if err := csvSink.Write(context.Background(), runID, sys, res); err != nil {
		log.Fatalf("[Main] write results: %v", err)
	}

	for _, sink := range optionalSinks(cfg) {
		if err := sink.Write(context.Background(), runID, sys, res); err != nil {
			log.Printf("[Main] sink error: %v", err)
		}
	}

	log.Println("[Main] Done")
}

func newSolverModel(name string) (solver.Model, error) {
	switch name {
	case "virtual", "":
		return virtualsolver.New0(), nil
	case "highs":
		return highssolver.New(), nil
	default:
		return nil, fmt.Errorf("unknown solver %q", name)
	}
}

func composerOptions(cfg *config.Run) ([]composer.Option, error) {
	var opts []composer.Option

	switch cfg.ExpectationMode {
	case "source_compat", "":
		opts = append(opts, composer.WithExpectationMode(composer.SourceCompat))
	case "probability_only":
		opts = append(opts, composer.WithExpectationMode(composer.ProbabilityOnly))
	default:
		return nil, fmt.Errorf("unknown expectation mode %q", cfg.ExpectationMode)
	}

	switch cfg.FlowFormulation {
	case "aggregate", "":
		// transmission.Aggregate is the Composer default already.
	case "per_line":
		opts = append(opts, composer.WithFlowFormulation(transmission.PerLine))
	default:
		return nil, fmt.Errorf("unknown flow formulation %q", cfg.FlowFormulation)
	}

	opts = append(opts, composer.WithIncludeShunts(cfg.IncludeShunts))
	return opts, nil
}

func optionalSinks(cfg *config.Run) []results.Sink {
	var sinks []results.Sink
	if cfg.MongoURI != "" {
		sinks = append(sinks, results.MongoArchive{URI: cfg.MongoURI, Database: cfg.MongoDB, Collection: "runs"})
	}
	if cfg.MySQLDSN != "" {
		sinks = append(sinks, results.CostLedger{DSN: cfg.MySQLDSN, Table: "catex_costs"})
	}
	if cfg.NATSURL != "" {
		sinks = append(sinks, results.RunNotifier{URL: cfg.NATSURL, Subject: "run.completed"})
	}
	return sinks
}
