package fractal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/internal/parallel"
)

const (
	// ModeParallel labels partitioned runs.
	ModeParallel = "parallel"
	// ModeSequential labels single-goroutine runs.
	ModeSequential = "sequential"

	tracerName = "github.com/agbru/fractree/internal/fractal"
)

// TaskTimes summarizes the wall time of the tasks of one run.
type TaskTimes struct {
	Count int
	Min   time.Duration
	P50   time.Duration
	P99   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Result is the outcome of one generation run. All derived fields are
// computed from the merged collection.
type Result struct {
	Config        Config
	Parameters    Parameters
	Mode          string
	SplitDepth    int
	Workers       int
	Tasks         int
	Encoding      Encoding
	Order         MergeOrder
	TotalBranches int
	MaxDepth      int
	ExecutionTime time.Duration
	// Branches is nil when the generator was configured not to keep them.
	Branches []Branch
	// Fingerprint is only computed when branches are kept.
	Fingerprint uint64
	TaskTimes   TaskTimes
}

// Generator orchestrates a run: validate, plan, partition, fan out to
// workers, fan in and merge. A Generator is immutable after construction and
// safe for concurrent use.
type Generator struct {
	splitDepth   int
	encoding     Encoding
	order        MergeOrder
	keepBranches bool
	worker       Worker
	logger       logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSplitDepth forces the split depth instead of planning it. A negative
// value restores planning.
func WithSplitDepth(depth int) Option {
	return func(g *Generator) { g.splitDepth = depth }
}

// WithEncoding selects the worker encoding. It has no effect when a custom
// worker is installed with WithWorker.
func WithEncoding(e Encoding) Option {
	return func(g *Generator) { g.encoding = e }
}

// WithMergeOrder selects the merged collection layout.
func WithMergeOrder(o MergeOrder) Option {
	return func(g *Generator) { g.order = o }
}

// WithKeepBranches controls whether Result.Branches and Result.Fingerprint
// are populated. Benchmarks disable it to release memory early.
func WithKeepBranches(keep bool) Option {
	return func(g *Generator) { g.keepBranches = keep }
}

// WithWorker replaces the production Bridge worker.
func WithWorker(w Worker) Option {
	return func(g *Generator) { g.worker = w }
}

// WithLogger sets the logger used for plan and timing events.
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator creates a Generator. Defaults: planned split depth, packed
// encoding, upper-first merge, branches kept, silent logger.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		splitDepth:   -1,
		encoding:     EncodingPacked,
		order:        OrderUpperFirst,
		keepBranches: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.NewNopLogger()
	}
	return g
}

// taskOutcome is the per-slot record of one task: its partial result and
// how long the worker took. Each slot is written only by its own goroutine.
type taskOutcome struct {
	partial PartialResult
	elapsed time.Duration
}

// Generate runs a partitioned, parallel generation.
//
// Invalid parameters are reported before the clock starts. The first worker
// failure cancels the remaining tasks and is returned as a WorkerError; a
// caller deadline or cancellation voids the run even if every task finished.
//
// Parameters:
//   - ctx: Controls cancellation of the fan-out.
//   - cfg: The run configuration.
//
// Returns:
//   - *Result: The merged result.
//   - error: An InvalidParametersError, WorkerError, SizeInvariantError or
//     context error.
func (g *Generator) Generate(ctx context.Context, cfg Config) (result *Result, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fractal.Generate")
	defer span.End()
	defer g.observe(ModeParallel, span, &result, &err)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params := cfg.Parameters()
	if err := checkTreeSize(params); err != nil {
		return nil, err
	}
	workers := cfg.EffectiveWorkers()

	split := g.splitDepth
	if split < 0 {
		if split, err = PlanSplitDepth(params.TrunkLength, params.LengthRatio, params.MinLength, workers); err != nil {
			return nil, err
		}
	}
	g.logger.Debug("split depth planned",
		logging.Int("split_depth", split),
		logging.Int("workers", workers),
		logging.Float64("estimated_depth", EstimateDepth(params.TrunkLength, params.LengthRatio, params.MinLength)),
	)

	start := time.Now()

	part, err := g.partition(ctx, params, split)
	if err != nil {
		return nil, err
	}
	if g.worker == nil && g.encoding == EncodingFixed && !part.Uniform {
		return nil, apperrors.NewInvalidParametersError("encoding", g.encoding.String(),
			"fixed encoding requires every task to share one subtree size")
	}

	outcomes, err := g.fanOut(ctx, part, workers)
	if err != nil {
		return nil, err
	}

	branches, stats, err := g.merge(ctx, part, outcomes)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &Result{
		Config:        cfg,
		Parameters:    params,
		Mode:          ModeParallel,
		SplitDepth:    split,
		Workers:       workers,
		Tasks:         len(part.Tasks),
		Encoding:      g.encoding,
		Order:         g.order,
		TotalBranches: stats.TotalBranches,
		MaxDepth:      stats.MaxDepth,
		ExecutionTime: elapsed,
		TaskTimes:     summarizeTaskTimes(outcomes),
	}
	g.attachBranches(result, branches)
	return result, nil
}

// GenerateSequential emits the whole tree on the calling goroutine. It is
// the reference the parallel path is verified against.
func (g *Generator) GenerateSequential(ctx context.Context, cfg Config) (result *Result, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fractal.GenerateSequential")
	defer span.End()
	defer g.observe(ModeSequential, span, &result, &err)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params := cfg.Parameters()
	if err := checkTreeSize(params); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	branches := AppendSubtree(make([]Branch, 0, SubtreeSize(params.TrunkLength, params.LengthRatio, params.MinLength)),
		RootPose(params.TrunkLength), params)
	stats := ComputeStats(branches)
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &Result{
		Config:        cfg,
		Parameters:    params,
		Mode:          ModeSequential,
		Workers:       1,
		TotalBranches: stats.TotalBranches,
		MaxDepth:      stats.MaxDepth,
		ExecutionTime: elapsed,
	}
	g.attachBranches(result, branches)
	return result, nil
}

func (g *Generator) partition(ctx context.Context, params Parameters, split int) (Partition, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "fractal.partition")
	defer span.End()

	part, err := NewPartition(RootPose(params.TrunkLength), params, split)
	if err != nil {
		return Partition{}, err
	}
	span.SetAttributes(
		attribute.Int("fractal.split_depth", split),
		attribute.Int("fractal.tasks", len(part.Tasks)),
		attribute.Int("fractal.upper_branches", len(part.Upper)),
		attribute.Bool("fractal.uniform", part.Uniform),
	)
	return part, nil
}

func (g *Generator) fanOut(ctx context.Context, part Partition, workers int) ([]taskOutcome, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fractal.fanout")
	defer span.End()

	worker := g.worker
	if worker == nil {
		worker = Bridge{Encoding: g.encoding}
	}
	tasksTotal.Add(float64(len(part.Tasks)))

	outcomes, err := parallel.Map(ctx, part.Tasks, workers,
		func(ctx context.Context, _ int, task TaskDescriptor) (taskOutcome, error) {
			t0 := time.Now()
			partial, err := worker.Run(ctx, task)
			if err != nil {
				return taskOutcome{}, apperrors.WorkerError{Task: task.Index, Cause: err}
			}
			return taskOutcome{partial: partial, elapsed: time.Since(t0)}, nil
		})
	if err != nil {
		var pe *parallel.PanicError
		if errors.As(err, &pe) {
			err = apperrors.WorkerError{Task: part.Tasks[pe.Index].Index, Cause: pe}
		}
		g.logger.Error("fan-out failed", err, logging.Int("tasks", len(part.Tasks)))
		return nil, err
	}
	return outcomes, nil
}

func (g *Generator) merge(ctx context.Context, part Partition, outcomes []taskOutcome) ([]Branch, Stats, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "fractal.merge")
	defer span.End()

	partials := make([]PartialResult, len(outcomes))
	for i, o := range outcomes {
		partials[i] = o.partial
	}
	branches, stats, err := Merge(part, partials, g.order)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("merging partial results: %w", err)
	}
	return branches, stats, nil
}

func (g *Generator) attachBranches(result *Result, branches []Branch) {
	if !g.keepBranches {
		return
	}
	result.Branches = branches
	result.Fingerprint = Fingerprint(branches)
}

// observe records metrics, span status and a debug event once a run ends.
func (g *Generator) observe(mode string, span trace.Span, result **Result, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	generationsTotal.WithLabelValues(mode, status).Inc()
	if *result == nil {
		return
	}
	r := *result
	generationDuration.WithLabelValues(mode).Observe(r.ExecutionTime.Seconds())
	branchesGenerated.Add(float64(r.TotalBranches))
	span.SetAttributes(
		attribute.Int("fractal.total_branches", r.TotalBranches),
		attribute.Int("fractal.max_depth", r.MaxDepth),
	)
	g.logger.Debug("generation completed",
		logging.String("mode", mode),
		logging.Int("workers", r.Workers),
		logging.Int("tasks", r.Tasks),
		logging.Int("total_branches", r.TotalBranches),
		logging.Duration("elapsed", r.ExecutionTime),
	)
}

// summarizeTaskTimes builds the task time distribution after the barrier.
func summarizeTaskTimes(outcomes []taskOutcome) TaskTimes {
	if len(outcomes) == 0 {
		return TaskTimes{}
	}
	// Microsecond resolution from 1µs to one hour, three significant figures.
	h := hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
	// Tasks beyond the trackable range are recorded at the ceiling, so the
	// value is always in range.
	ceiling := h.HighestTrackableValue()
	for _, o := range outcomes {
		_ = h.RecordValue(min(max(1, o.elapsed.Microseconds()), ceiling))
	}
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return TaskTimes{
		Count: len(outcomes),
		Min:   us(h.Min()),
		P50:   us(h.ValueAtQuantile(50)),
		P99:   us(h.ValueAtQuantile(99)),
		Max:   us(h.Max()),
		Mean:  time.Duration(h.Mean() * float64(time.Microsecond)),
	}
}
