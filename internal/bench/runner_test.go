package bench

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/internal/fractal"
)

// scriptedGenerator fails on the n-th call (1-based) when failAt > 0.
type scriptedGenerator struct {
	mu     sync.Mutex
	calls  []fractal.Config
	failAt int
}

func (g *scriptedGenerator) Generate(_ context.Context, cfg fractal.Config) (*fractal.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, cfg)
	if len(g.calls) == g.failAt {
		return nil, errors.New("worker exploded")
	}
	return &fractal.Result{Config: cfg, ExecutionTime: time.Duration(len(g.calls)) * time.Millisecond}, nil
}

type recordingProgress struct {
	total            int
	begins, complete int
	started, stopped bool
}

func (p *recordingProgress) Start()       { p.started = true }
func (p *recordingProgress) Begin(string) { p.begins++ }
func (p *recordingProgress) Complete()    { p.complete++ }
func (p *recordingProgress) Stop()        { p.stopped = true }

func smallPlan() config.BenchPlan {
	plan := config.DefaultBenchPlan()
	plan.CoreCounts = []int{4, 1, 2}
	plan.Runs = 2
	plan.Strong.MinLength = 1
	return plan
}

func TestRunnerStrong(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{}
	progress := &recordingProgress{}
	r := NewRunner(gen, WithProgress(func(total int) ProgressReporter {
		progress.total = total
		return progress
	}))

	rows, err := r.Run(context.Background(), smallPlan(), config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	wantCores := []int{1, 1, 2, 2, 4, 4}
	predicted := fractal.SubtreeSize(100, 0.67, 1)
	for i, row := range rows {
		if row.Cores != wantCores[i] || row.Run != i%2+1 || row.Branches != predicted {
			t.Errorf("row %d = %+v", i, row)
		}
		if want := float64(i+1) / 1000; row.Time != want {
			t.Errorf("row %d time = %v, want %v", i, row.Time, want)
		}
		if gen.calls[i].Workers != row.Cores || gen.calls[i].MinLength != 1 {
			t.Errorf("call %d used %+v", i, gen.calls[i])
		}
	}
	if progress.total != 6 || progress.begins != 6 || progress.complete != 6 || !progress.started || !progress.stopped {
		t.Errorf("unexpected progress %+v", progress)
	}
}

func TestRunnerWeakGrowsTheTree(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{}
	plan := config.DefaultBenchPlan()
	plan.Runs = 1
	rows, err := NewRunner(gen).Run(context.Background(), plan, config.ScalingWeak)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Branches <= rows[i-1].Branches {
			t.Errorf("weak scaling must grow the tree: %+v then %+v", rows[i-1], rows[i])
		}
	}
	if rows[0].Branches != 16383 || rows[1].Branches != 32767 {
		t.Errorf("unexpected weak sizes %+v", rows)
	}
}

func TestRunnerAbortsOnFirstFailure(t *testing.T) {
	t.Parallel()
	gen := &scriptedGenerator{failAt: 3}
	rows, err := NewRunner(gen).Run(context.Background(), smallPlan(), config.ScalingStrong)
	var runErr RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %v", err)
	}
	if runErr.Cores != 2 || runErr.Run != 1 {
		t.Errorf("failure attributed to %+v", runErr)
	}
	if len(rows) != 2 || len(gen.calls) != 3 {
		t.Errorf("session must stop at the failure: %d rows, %d calls", len(rows), len(gen.calls))
	}
}

func TestRunnerCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &scriptedGenerator{}
	_, err := NewRunner(gen).Run(ctx, smallPlan(), config.ScalingStrong)
	if !errors.Is(err, context.Canceled) || len(gen.calls) != 0 {
		t.Errorf("err = %v after %d calls", err, len(gen.calls))
	}
}

func TestRunnerWithRealGenerator(t *testing.T) {
	t.Parallel()
	plan := smallPlan()
	plan.Runs = 1
	gen := fractal.NewGenerator(fractal.WithKeepBranches(false))
	rows, err := NewRunner(gen).Run(context.Background(), plan, config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Branches != fractal.SubtreeSize(100, 0.67, 1) {
		t.Errorf("unexpected rows %+v", rows)
	}
}
