// Package bench runs scaling benchmark sessions in-process: every core
// count of a plan, repeated, through the fractal generator, one
// configuration at a time.
package bench

import (
	"context"
	"fmt"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/pkg/models"
)

// Generator runs one timed generation. *fractal.Generator implements it;
// benchmark generators should be built with fractal.WithKeepBranches(false).
type Generator interface {
	Generate(ctx context.Context, cfg fractal.Config) (*fractal.Result, error)
}

// ProgressReporter is notified around each run. *cli.Progress implements it.
type ProgressReporter interface {
	Start()
	Begin(label string)
	Complete()
	Stop()
}

// Runner executes benchmark sessions.
type Runner struct {
	gen      Generator
	logger   logging.Logger
	progress func(total int) ProgressReporter
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress installs a factory for the per-session progress reporter.
func WithProgress(factory func(total int) ProgressReporter) Option {
	return func(r *Runner) { r.progress = factory }
}

// NewRunner returns a Runner using gen for every run.
func NewRunner(gen Generator, opts ...Option) *Runner {
	r := &Runner{gen: gen, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunError reports the run that aborted a session.
type RunError struct {
	Cores int
	Run   int
	Cause error
}

func (e RunError) Error() string {
	return fmt.Sprintf("benchmark run %d with %d cores failed: %v", e.Run, e.Cores, e.Cause)
}

func (e RunError) Unwrap() error { return e.Cause }

// Run executes plan in the given scaling mode: for each core count in
// ascending order, plan.Runs timed generations. The first failed run
// aborts the session.
//
// Parameters:
//   - ctx: The context for cancellation of the whole session.
//   - plan: The validated benchmark plan.
//   - scaling: Strong (fixed tree) or weak (tree grows with cores).
//
// Returns:
//   - []models.BenchmarkRow: One row per completed run, in execution order.
//   - error: A RunError wrapping the first failure; the rows completed
//     before it are still returned.
func (r *Runner) Run(ctx context.Context, plan config.BenchPlan, scaling config.Scaling) ([]models.BenchmarkRow, error) {
	cores := plan.SortedCoreCounts()
	total := len(cores) * plan.Runs
	rows := make([]models.BenchmarkRow, 0, total)

	var progress ProgressReporter = noProgress{}
	if r.progress != nil {
		progress = r.progress(total)
	}
	progress.Start()
	defer progress.Stop()

	r.logger.Info("benchmark session started",
		logging.String("scaling", string(scaling)),
		logging.String("plan", plan.String()),
		logging.Int("runs", total))

	for _, c := range cores {
		cfg := plan.Generation(scaling, c)
		predicted := fractal.SubtreeSize(cfg.TrunkLength, cfg.LengthRatio, cfg.MinLength)
		r.logger.Debug("benchmark configuration",
			logging.Int("cores", c),
			logging.Float64("min_length", cfg.MinLength),
			logging.Int("branches", predicted))

		for run := 1; run <= plan.Runs; run++ {
			if err := ctx.Err(); err != nil {
				return rows, RunError{Cores: c, Run: run, Cause: err}
			}
			progress.Begin(fmt.Sprintf("%d cores, run %d", c, run))
			res, err := r.gen.Generate(ctx, cfg)
			if err != nil {
				r.logger.Error("benchmark run failed", err, logging.Int("cores", c), logging.Int("run", run))
				return rows, RunError{Cores: c, Run: run, Cause: err}
			}
			rows = append(rows, models.BenchmarkRow{
				Cores:    c,
				Run:      run,
				Time:     res.ExecutionTime.Seconds(),
				Branches: predicted,
			})
			progress.Complete()
		}
	}
	r.logger.Info("benchmark session finished", logging.Int("rows", len(rows)))
	return rows, nil
}

type noProgress struct{}

func (noProgress) Start()       {}
func (noProgress) Begin(string) {}
func (noProgress) Complete()    {}
func (noProgress) Stop()        {}
