package orchestration

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/testutil"
)

// spyRunner returns canned results and records which legs ran.
type spyRunner struct {
	seq, par       *fractal.Result
	seqErr, parErr error
	calls          []string
}

func (s *spyRunner) GenerateSequential(context.Context, fractal.Config) (*fractal.Result, error) {
	s.calls = append(s.calls, fractal.ModeSequential)
	return s.seq, s.seqErr
}

func (s *spyRunner) Generate(context.Context, fractal.Config) (*fractal.Result, error) {
	s.calls = append(s.calls, fractal.ModeParallel)
	return s.par, s.parErr
}

func canned(mode string, fingerprint uint64) *fractal.Result {
	return &fractal.Result{Mode: mode, Workers: 4, TotalBranches: 127, MaxDepth: 6, Fingerprint: fingerprint}
}

func smallTree() fractal.Config {
	return fractal.Config{TrunkLength: 100, LengthRatio: 0.5, BranchAngleDegrees: 30, MinLength: 1, Workers: 4}
}

func TestVerificationWithRealGenerator(t *testing.T) {
	t.Parallel()
	for _, order := range []fractal.MergeOrder{fractal.OrderUpperFirst, fractal.OrderPreOrder} {
		gen := fractal.NewGenerator(fractal.WithMergeOrder(order))
		outcomes := ExecuteVerification(context.Background(), gen, smallTree())
		if len(outcomes) != 2 || outcomes[0].Name != fractal.ModeSequential || outcomes[1].Name != fractal.ModeParallel {
			t.Fatalf("unexpected legs %+v", outcomes)
		}
		var buf bytes.Buffer
		if code := AnalyzeVerification(outcomes, &buf); code != apperrors.ExitSuccess {
			t.Fatalf("order %s: exit code %d\n%s", order, code, buf.String())
		}
		out := testutil.StripAnsiCodes(buf.String())
		if !strings.Contains(out, "identical") || strings.Count(out, "OK") != 2 {
			t.Errorf("unexpected report:\n%s", out)
		}
	}
}

func TestAnalyzeVerification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		runner *spyRunner
		code   int
		text   string
	}{
		{
			name:   "agreement",
			runner: &spyRunner{seq: canned(fractal.ModeSequential, 7), par: canned(fractal.ModeParallel, 7)},
			code:   apperrors.ExitSuccess,
			text:   "identical",
		},
		{
			name:   "fingerprint mismatch",
			runner: &spyRunner{seq: canned(fractal.ModeSequential, 7), par: canned(fractal.ModeParallel, 8)},
			code:   apperrors.ExitErrorMismatch,
			text:   "MISMATCH",
		},
		{
			name:   "parallel timeout",
			runner: &spyRunner{seq: canned(fractal.ModeSequential, 7), parErr: context.DeadlineExceeded},
			code:   apperrors.ExitErrorTimeout,
			text:   "Timeout",
		},
		{
			name: "worker failure",
			runner: &spyRunner{
				seq:    canned(fractal.ModeSequential, 7),
				parErr: apperrors.WorkerError{Task: 3, Cause: errors.New("boom")},
			},
			code: apperrors.ExitErrorGeneric,
			text: "Task 3 failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outcomes := ExecuteVerification(context.Background(), tt.runner, smallTree())
			var buf bytes.Buffer
			if code := AnalyzeVerification(outcomes, &buf); code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(testutil.StripAnsiCodes(buf.String()), tt.text) {
				t.Errorf("report lacks %q:\n%s", tt.text, buf.String())
			}
		})
	}
}

func TestExecuteVerificationCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spy := &spyRunner{}
	outcomes := ExecuteVerification(ctx, spy, smallTree())
	if len(spy.calls) != 0 {
		t.Errorf("no leg may run on a canceled context, ran %v", spy.calls)
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%s: err = %v", o.Name, o.Err)
		}
	}
	if code := AnalyzeVerification(outcomes, &bytes.Buffer{}); code != apperrors.ExitErrorCanceled {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
}
