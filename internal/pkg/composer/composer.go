// Package composer is the top-level model assembly engine (spec §4.7,
// §4.8). It creates the model, initializes the two shared cost
// accumulators, invokes the Generator, Storage, Transmission and Policy
// submodels in that fixed order, assembles the objective, invokes the
// solver, and extracts results. The composer is the only component
// aware of the full assembly order and the state machine; individual
// submodels only ever see the System, the Model, and the shared
// accumulators passed to them.
package composer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/REAM-lab/CATEX/internal/pkg/admittance"
	"github.com/REAM-lab/CATEX/internal/pkg/balance"
	"github.com/REAM-lab/CATEX/internal/pkg/costs"
	"github.com/REAM-lab/CATEX/internal/pkg/generator"
	"github.com/REAM-lab/CATEX/internal/pkg/metrics"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/policy"
	"github.com/REAM-lab/CATEX/internal/pkg/solver"
	"github.com/REAM-lab/CATEX/internal/pkg/storage"
	"github.com/REAM-lab/CATEX/internal/pkg/transmission"
)

// State is a node of the composer's assembly state machine:
// CREATED -> DATA_LOADED -> VARS_ADDED -> CONSTRAINTS_ADDED ->
// OBJECTIVE_SET -> SOLVING -> { SOLVED | FAILED }.
type State int

const (
	StateCreated State = iota
	StateDataLoaded
	StateVarsAdded
	StateConstraintsAdded
	StateObjectiveSet
	StateSolving
	StateSolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateDataLoaded:
		return "DATA_LOADED"
	case StateVarsAdded:
		return "VARS_ADDED"
	case StateConstraintsAdded:
		return "CONSTRAINTS_ADDED"
	case StateObjectiveSet:
		return "OBJECTIVE_SET"
	case StateSolving:
		return "SOLVING"
	case StateSolved:
		return "SOLVED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Option configures a Composer at construction.
type Option func(*Composer)

// WithExpectationMode selects the generator/storage stage-2 expected-
// cost weighting (design note 9, open question 1). Defaults to
// SourceCompat.
func WithExpectationMode(mode ExpectationMode) Option {
	return func(c *Composer) { c.expectationMode = mode }
}

// WithFlowFormulation selects the transmission flow-limit formulation
// (design note 9, open question 2). Defaults to Aggregate.
func WithFlowFormulation(f transmission.FlowFormulation) Option {
	return func(c *Composer) { c.flowFormulation = f }
}

// WithIncludeShunts controls whether line shunts are folded into the
// admittance matrix (spec §4.1). Defaults to true.
func WithIncludeShunts(include bool) Option {
	return func(c *Composer) { c.includeShunts = include }
}

// ExpectationMode is a composer-level alias so callers need only import
// this package's options, not generator's and storage's separately; the
// two packages' enums are kept numerically identical by construction.
type ExpectationMode = generator.ExpectationMode

const (
	SourceCompat    = generator.SourceCompat
	ProbabilityOnly = generator.ProbabilityOnly
)

// Composer drives one model-assembly-and-solve run.
type Composer struct {
	mux   sync.Mutex
	state State

	sys *model.System
	m   solver.Model

	expectationMode ExpectationMode
	flowFormulation transmission.FlowFormulation
	includeShunts   bool

	acc *costs.Accumulator
	inj *balance.Injection

	genBindings   *generator.Bindings
	stgBindings   *storage.Bindings
	transBindings *transmission.Bindings

	objective solver.QuadExpr

	result *Result
	err    error
}

// New returns a Composer in state CREATED for the given solver Model
// and loaded System.
func New(m solver.Model, sys *model.System, opts ...Option) *Composer {
	c := &Composer{
		state:           StateCreated,
		sys:             sys,
		m:               m,
		expectationMode: SourceCompat,
		flowFormulation: transmission.Aggregate,
		includeShunts:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the composer's current assembly/solve state.
func (c *Composer) State() State {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.state
}

func (c *Composer) transition(to State) {
	c.state = to
}

// Assemble validates the loaded system, then builds variables and
// constraints by invoking the submodels in fixed order (Generator ->
// Storage -> Transmission -> Policy) and forms the objective. Submodel
// invocation order is significant only because Transmission reads the
// bus injection Generator and Storage produced.
func (c *Composer) Assemble() error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateCreated {
		return fmt.Errorf("composer: Assemble called in state %s, want %s", c.state, StateCreated)
	}

	if err := c.sys.Validate(); err != nil {
		c.transition(StateFailed)
		c.err = err
		return err
	}
	c.transition(StateDataLoaded)

	c.acc = costs.NewAccumulator(c.sys.TimepointOrder)
	c.inj = balance.NewInjection()

	y, err := admittance.Build(c.sys.BusOrder, c.sys.Lines, c.includeShunts)
	if err != nil {
		return c.fail(err)
	}

	genBindings, err := generator.Build(c.m, c.sys, c.acc, c.inj, c.expectationMode)
	if err != nil {
		return c.fail(err)
	}
	c.genBindings = genBindings

	stgBindings, err := storage.Build(c.m, c.sys, c.acc, c.inj, storage.ExpectationMode(c.expectationMode))
	if err != nil {
		return c.fail(err)
	}
	c.stgBindings = stgBindings

	c.transition(StateVarsAdded)

	transBindings, err := transmission.Build(c.m, c.sys, y, c.inj, c.flowFormulation)
	if err != nil {
		return c.fail(err)
	}
	c.transBindings = transBindings

	if err := policy.Build(c.m, c.sys, c.transBindings); err != nil {
		return c.fail(err)
	}

	c.transition(StateConstraintsAdded)

	objective := solver.NewQuadExpr()
	for _, t := range c.sys.TimepointOrder {
		tp := c.sys.Timepoints[t]
		objective.Merge(scaleQuad(c.acc.TimepointCost(t), tp.Weight))
	}
	objective.Merge(c.acc.PeriodCost())
	c.objective = objective

	if err := c.m.AddQuadraticObjective(objective); err != nil {
		return c.fail(err)
	}
	c.transition(StateObjectiveSet)

	return nil
}

func (c *Composer) fail(err error) error {
	c.transition(StateFailed)
	c.err = err
	return err
}

// Solve invokes the solver. On success the composer transitions to
// SOLVED and the result can be read with Result(); on failure it
// transitions to FAILED and Result() returns an error. The solver's
// termination status, if not optimal, is surfaced unchanged — the
// composer does not retry (spec §7 category 3).
func (c *Composer) Solve(ctx context.Context) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateObjectiveSet {
		return fmt.Errorf("composer: Solve called in state %s, want %s", c.state, StateObjectiveSet)
	}
	c.transition(StateSolving)

	start := time.Now()
	err := c.m.Solve(ctx)
	status := c.m.TerminationStatus()
	metrics.ObserveSolve(time.Since(start), status.String())

	if err != nil {
		return c.fail(err)
	}
	if status != solver.StatusOptimal {
		return c.fail(&InfeasibleError{Status: status})
	}

	c.result = c.extractResult()
	metrics.ObserveTotalCost(c.result.TotalCost)
	c.transition(StateSolved)
	return nil
}

// Result returns the extracted primal solution and cost breakdown.
// Valid only once the composer has reached SOLVED (spec §4.8).
func (c *Composer) Result() (*Result, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateSolved {
		if c.err != nil {
			return nil, c.err
		}
		return nil, fmt.Errorf("composer: Result called in state %s, want %s", c.state, StateSolved)
	}
	return c.result, nil
}

// InfeasibleError wraps a non-optimal solver termination status. Per
// spec §7 category 3, the composer surfaces it verbatim and writes no
// result CSVs.
type InfeasibleError struct {
	Status solver.Status
}

func (e *InfeasibleError) Error() string {
	return "composer: solver terminated with status " + e.Status.String()
}

func scaleQuad(e solver.QuadExpr, k float64) solver.QuadExpr {
	out := solver.NewQuadExpr()
	for v, c := range e.Linear.Terms {
		out.Linear.Terms[v] = c * k
	}
	out.Linear.Const = e.Linear.Const * k
	for qk, c := range e.Quad {
		out.Quad[qk] = c * k
	}
	return out
}

// evalQuad evaluates a quadratic expression at the solver's current
// solution, for itemized result extraction.
func evalQuad(m solver.Model, e solver.QuadExpr) float64 {
	total := e.Linear.Const
	for v, c := range e.Linear.Terms {
		total += c * m.Value(v)
	}
	for k, c := range e.Quad {
		total += c * m.Value(k.V1) * m.Value(k.V2)
	}
	return total
}
