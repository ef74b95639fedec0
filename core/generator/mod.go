// Package generator implements the pipeline assembling a transaction from the
// rules of several contracts.
//
// The contracts run as stages in the order they are piped. Every stage first
// collects the input queries of all the contracts into a shared queue, drains
// it through the query engine to attach the inputs, then appends the template
// of its contract and folds the output rules over the outputs referencing it.
// A later stage observes and can rewrite what earlier stages produced, never
// the other way around.
package generator

import (
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/cellkit"
	"go.dedis.ch/cellkit/core/contract"
	"go.dedis.ch/cellkit/core/query"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

var promRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "cellkit_generator_runs_total",
	Help: "total number of generator runs by status",
}, []string{"status"})

func init() {
	cellkit.PromCollectors = append(cellkit.PromCollectors, promRuns)
}

// Result is the outcome of a generation.
type Result struct {
	// RunID is the unique identifier of the run, also found in the logs.
	RunID string
	// Transaction is the transaction produced by the pipeline.
	Transaction types.Transaction
	// Inputs are the cells selected by the queries, keyed by out-point.
	Inputs map[types.OutPoint]types.CellMeta
}

// Generator is a pipeline of contracts.
type Generator struct {
	engine    query.Engine
	contracts []*contract.Contract
	logger    zerolog.Logger
}

// Option is the type of options to create a generator.
type Option func(*Generator)

// WithLogger sets the logger of the generator.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator resolving the queries with the engine.
func NewGenerator(engine query.Engine, opts ...Option) *Generator {
	g := &Generator{
		engine: engine,
		logger: cellkit.Logger,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.logger = g.logger.With().Str("component", "generator").Logger()

	return g
}

// Pipe appends the contracts to the pipeline.
func (g *Generator) Pipe(contracts ...*contract.Contract) *Generator {
	g.contracts = append(g.contracts, contracts...)
	return g
}

// Check verifies the consistency of every contract of the pipeline. Every
// failure is reported.
func (g *Generator) Check() error {
	var result error

	for _, c := range g.contracts {
		err := c.Check()
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

// Generate runs the pipeline over the transaction and returns the result. The
// transaction passed as argument is not modified.
func (g *Generator) Generate(tx types.Transaction) (Result, error) {
	runID := xid.New().String()
	logger := g.logger.With().Str("run", runID).Logger()

	err := g.Check()
	if err != nil {
		promRuns.WithLabelValues("failed").Inc()
		return Result{}, xerrors.Errorf("inconsistent contracts: %w", err)
	}

	run := &run{
		engine: g.engine,
		tx:     tx.Clone(),
		inputs: make(map[types.OutPoint]types.CellMeta),
		logger: logger,
	}

	for i, c := range g.contracts {
		err := run.stage(g.contracts, c)
		if err != nil {
			promRuns.WithLabelValues("failed").Inc()
			return Result{}, xerrors.Errorf("stage %d (%s): %w", i, c.Name(), err)
		}
	}

	promRuns.WithLabelValues("succeeded").Inc()

	logger.Info().
		Int("stages", len(g.contracts)).
		Int("inputs", len(run.tx.Inputs)).
		Int("outputs", len(run.tx.Outputs)).
		Msg("transaction generated")

	res := Result{
		RunID:       runID,
		Transaction: run.tx,
		Inputs:      run.inputs,
	}

	return res, nil
}

// run is the shared state of a generation.
type run struct {
	engine query.Engine
	tx     types.Transaction
	inputs map[types.OutPoint]types.CellMeta
	queue  []query.CellQuery
	logger zerolog.Logger
}

func (r *run) stage(contracts []*contract.Contract, current *contract.Contract) error {
	for _, c := range contracts {
		queries, err := c.Queries(r.tx)
		if err != nil {
			return xerrors.Errorf("queries of %s: %v", c.Name(), err)
		}

		r.queue = append(r.queue, queries...)
	}

	err := r.drain()
	if err != nil {
		return err
	}

	current.AppendTemplate(&r.tx)

	applied := 0

	for i, output := range r.tx.Outputs {
		if !current.Matches(output) {
			continue
		}

		err := current.Apply(&r.tx, i, r.inputs)
		if err != nil {
			return err
		}

		applied++
	}

	r.logger.Debug().
		Str("contract", current.Name()).
		Int("outputs", applied).
		Msg("stage applied")

	return nil
}

func (r *run) drain() error {
	queue := r.queue
	r.queue = nil

	for _, q := range queue {
		cells, err := r.engine.Query(q)
		if err != nil {
			return xerrors.Errorf("query %v: %w", q.Predicate, err)
		}

		for _, meta := range cells {
			if !r.tx.HasInput(meta.OutPoint) {
				r.tx.Inputs = append(r.tx.Inputs, types.NewCellInput(meta.OutPoint))
			}

			r.inputs[meta.OutPoint] = meta
		}
	}

	return nil
}
