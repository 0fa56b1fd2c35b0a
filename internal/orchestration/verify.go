// Package orchestration coordinates multi-run workflows. Verification runs
// the sequential and the parallel generator on the same tree, tabulates
// them and decides whether they agree.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/agbru/fractree/internal/cli"
	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/ui"
)

// Runner is the generation surface verification needs. *fractal.Generator
// implements it.
type Runner interface {
	Generate(ctx context.Context, cfg fractal.Config) (*fractal.Result, error)
	GenerateSequential(ctx context.Context, cfg fractal.Config) (*fractal.Result, error)
}

// RunOutcome is the result of one verification leg.
type RunOutcome struct {
	// Name is the mode of the leg ("sequential" or "parallel").
	Name     string
	Result   *fractal.Result
	Duration time.Duration
	Err      error
}

// ExecuteVerification runs the sequential then the parallel generator on
// cfg, back to back, so neither timing is disturbed by the other. The
// parallel leg is skipped when ctx is already done.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - runner: The generator under test; it must keep branches.
//   - cfg: The tree to generate.
//
// Returns:
//   - []RunOutcome: The sequential outcome followed by the parallel one.
func ExecuteVerification(ctx context.Context, runner Runner, cfg fractal.Config) []RunOutcome {
	legs := []struct {
		name string
		run  func(context.Context, fractal.Config) (*fractal.Result, error)
	}{
		{fractal.ModeSequential, runner.GenerateSequential},
		{fractal.ModeParallel, runner.Generate},
	}
	outcomes := make([]RunOutcome, 0, len(legs))
	for _, leg := range legs {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, RunOutcome{Name: leg.name, Err: err})
			continue
		}
		start := time.Now()
		res, err := leg.run(ctx, cfg)
		outcome := RunOutcome{Name: leg.name, Result: res, Duration: time.Since(start), Err: err}
		if res != nil {
			outcome.Duration = res.ExecutionTime
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// AnalyzeVerification prints the comparison table and maps the outcomes to
// an exit code: the first failure's code, ExitErrorMismatch if the
// successful runs disagree on size, depth or fingerprint, ExitSuccess
// otherwise.
//
// Parameters:
//   - outcomes: The legs returned by ExecuteVerification.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: The exit code.
func AnalyzeVerification(outcomes []RunOutcome, out io.Writer) int {
	fmt.Fprintf(out, "\n%s--- Verification Summary ---%s\n", ui.ColorBold(), ui.ColorReset())
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Mode\tWorkers\tDuration\tBranches\tMax depth\tFingerprint\tStatus")

	var (
		reference *fractal.Result
		firstErr  error
		failedAt  time.Duration
		mismatch  bool
	)
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t%s\t-\t-\t-\t%sFailure (%v)%s\n",
				o.Name, cli.FormatExecutionDuration(o.Duration), ui.ColorRed(), o.Err, ui.ColorReset())
			if firstErr == nil {
				firstErr, failedAt = o.Err, o.Duration
			}
			continue
		}
		status := ui.Paint(ui.ColorGreen(), "OK")
		if reference == nil {
			reference = o.Result
		} else if !sameTree(reference, o.Result) {
			mismatch = true
			status = ui.Paint(ui.ColorRed(), "MISMATCH")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%016x\t%s\n",
			o.Name, workersOf(o.Result), cli.FormatExecutionDuration(o.Duration),
			cli.FormatCount(o.Result.TotalBranches), o.Result.MaxDepth, o.Result.Fingerprint, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	switch {
	case firstErr != nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. Verification could not complete.\n")
		return apperrors.HandleRunError(firstErr, failedAt, out, cli.ColorProvider{})
	case mismatch:
		fmt.Fprintf(out, "\nGlobal Status: %sCRITICAL ERROR!%s Sequential and parallel generation produced different trees.\n",
			ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorMismatch
	}
	fmt.Fprintf(out, "\nGlobal Status: %sSuccess.%s Sequential and parallel trees are identical.\n",
		ui.ColorGreen(), ui.ColorReset())
	return apperrors.ExitSuccess
}

// sameTree compares two runs as branch sets.
func sameTree(a, b *fractal.Result) bool {
	return a.TotalBranches == b.TotalBranches &&
		a.MaxDepth == b.MaxDepth &&
		a.Fingerprint == b.Fingerprint
}

func workersOf(res *fractal.Result) int {
	if res.Mode == fractal.ModeSequential {
		return 1
	}
	return res.Workers
}
