// Package service exposes tree generation to request-driven callers such as
// the HTTP server. It validates requests, refuses trees predicted to exceed
// the configured size and reduces results to their summaries.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/pkg/models"
)

// ErrMaxBranchesExceeded is returned when the predicted tree size exceeds
// the configured limit.
var ErrMaxBranchesExceeded = errors.New("maximum branch count exceeded")

// Generator runs one generation. *fractal.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, cfg fractal.Config) (*fractal.Result, error)
}

// Service defines the interface for tree generation services.
type Service interface {
	// Generate validates cfg, runs the generation and summarizes it.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - cfg: The requested tree.
	//
	// Returns:
	//   - models.GenerateSummary: The run summary.
	//   - error: An InvalidParametersError, ErrMaxBranchesExceeded or a run error.
	Generate(ctx context.Context, cfg fractal.Config) (models.GenerateSummary, error)
}

// TreeService runs generations through a Generator with a size limit.
type TreeService struct {
	gen         Generator
	maxBranches int
}

// Ensure TreeService implements Service interface.
var _ Service = (*TreeService)(nil)

// NewTreeService creates a new instance of TreeService.
//
// Parameters:
//   - gen: The generator used for every request.
//   - maxBranches: The largest accepted tree (0 for no limit).
func NewTreeService(gen Generator, maxBranches int) *TreeService {
	return &TreeService{gen: gen, maxBranches: maxBranches}
}

// Generate checks the request before any work is done: parameters first,
// then the exact predicted size, so oversized trees are refused without
// being generated.
func (s *TreeService) Generate(ctx context.Context, cfg fractal.Config) (models.GenerateSummary, error) {
	if err := cfg.Validate(); err != nil {
		return models.GenerateSummary{}, err
	}
	if s.maxBranches > 0 {
		if predicted := fractal.SubtreeSize(cfg.TrunkLength, cfg.LengthRatio, cfg.MinLength); predicted > s.maxBranches {
			return models.GenerateSummary{}, fmt.Errorf("%w: predicted %d branches, limit is %d",
				ErrMaxBranchesExceeded, predicted, s.maxBranches)
		}
	}
	res, err := s.gen.Generate(ctx, cfg)
	if err != nil {
		return models.GenerateSummary{}, err
	}
	return Summarize(res), nil
}

// Summarize reduces a result to its API summary.
func Summarize(res *fractal.Result) models.GenerateSummary {
	sum := models.GenerateSummary{
		Parameters: models.ParametersRecord{
			TrunkLength: res.Config.TrunkLength,
			Ratio:       res.Config.LengthRatio,
			BranchAngle: res.Config.BranchAngleDegrees,
			MinLength:   res.Config.MinLength,
		},
		Workers:       res.Workers,
		SplitDepth:    res.SplitDepth,
		Tasks:         res.Tasks,
		TotalBranches: res.TotalBranches,
		MaxDepth:      res.MaxDepth,
		ExecutionTime: res.ExecutionTime.Seconds(),
		TaskTimeP50:   res.TaskTimes.P50.Seconds(),
		TaskTimeP99:   res.TaskTimes.P99.Seconds(),
	}
	if res.Branches != nil {
		sum.Fingerprint = fmt.Sprintf("%016x", res.Fingerprint)
	}
	return sum
}
