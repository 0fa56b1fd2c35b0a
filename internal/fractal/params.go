// Package fractal implements the fractal tree generation engine: recursive
// branch emission, split-depth planning, exact subtree size prediction,
// partitioning of the tree into independent subtree tasks, per-worker
// encoding of those subtrees, and the deterministic merge of partial results.
//
// Every branch of a tree built with a fixed length ratio shrinks by the same
// factor per level, so the whole tree is determined by its parameters and all
// subtrees rooted at the same depth are identical up to rigid motion.
package fractal

import (
	"math"
	"runtime"

	apperrors "github.com/agbru/fractree/internal/errors"
)

// Branch is a single line segment of the tree, immutable once emitted.
type Branch struct {
	X1, Y1, X2, Y2 float64
	Depth          int
}

// Length returns the Euclidean length of the segment.
func (b Branch) Length() float64 {
	return math.Hypot(b.X2-b.X1, b.Y2-b.Y1)
}

// Parameters are the immutable generation parameters of a run. BranchAngle is
// expressed in radians.
type Parameters struct {
	TrunkLength float64
	LengthRatio float64
	BranchAngle float64
	MinLength   float64
}

// Pose is a branch's starting state before emission.
type Pose struct {
	X, Y   float64
	Length float64
	Angle  float64
	Depth  int
}

// RootPose returns the trunk pose: origin, pointing straight up, depth 0.
func RootPose(trunkLength float64) Pose {
	return Pose{X: 0, Y: 0, Length: trunkLength, Angle: math.Pi / 2, Depth: 0}
}

// Config is the invocation surface of a generation run. Angles are given in
// degrees; Workers == 0 selects the available parallelism.
type Config struct {
	TrunkLength        float64 `json:"trunk_length" toml:"trunk_length"`
	LengthRatio        float64 `json:"ratio" toml:"ratio"`
	BranchAngleDegrees float64 `json:"branch_angle" toml:"branch_angle"`
	MinLength          float64 `json:"min_length" toml:"min_length"`
	Workers            int     `json:"workers" toml:"workers"`
}

// DefaultConfig returns the reference parameters: trunk 100, ratio 0.67,
// 30° branching and a 0.335 minimum length.
func DefaultConfig() Config {
	return Config{
		TrunkLength:        100,
		LengthRatio:        0.67,
		BranchAngleDegrees: 30,
		MinLength:          0.335,
	}
}

// Parameters converts the configuration to run parameters in radians.
func (c Config) Parameters() Parameters {
	return Parameters{
		TrunkLength: c.TrunkLength,
		LengthRatio: c.LengthRatio,
		BranchAngle: c.BranchAngleDegrees * math.Pi / 180,
		MinLength:   c.MinLength,
	}
}

// EffectiveWorkers resolves Workers == 0 to runtime.GOMAXPROCS(0).
func (c Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Validate rejects configurations that cannot terminate or are out of range.
// It never adjusts values.
func (c Config) Validate() error {
	if err := c.Parameters().Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.BranchAngleDegrees) || math.IsInf(c.BranchAngleDegrees, 0) {
		return apperrors.NewInvalidParametersError("branch_angle", c.BranchAngleDegrees, "must be finite")
	}
	if c.Workers < 0 {
		return apperrors.NewInvalidParametersError("workers", c.Workers, "must be >= 0 (0 means available parallelism)")
	}
	return nil
}

// Validate checks the run parameters. A ratio outside (0, 1) never
// terminates or never branches and is rejected before any recursion.
func (p Parameters) Validate() error {
	if !isPositiveFinite(p.TrunkLength) {
		return apperrors.NewInvalidParametersError("trunk_length", p.TrunkLength, "must be a positive finite number")
	}
	if !isPositiveFinite(p.MinLength) {
		return apperrors.NewInvalidParametersError("min_length", p.MinLength, "must be a positive finite number")
	}
	if math.IsNaN(p.LengthRatio) || p.LengthRatio <= 0 || p.LengthRatio >= 1 {
		return apperrors.NewInvalidParametersError("length_ratio", p.LengthRatio, "must be in the open interval (0, 1)")
	}
	if math.IsNaN(p.BranchAngle) || math.IsInf(p.BranchAngle, 0) {
		return apperrors.NewInvalidParametersError("branch_angle", p.BranchAngle, "must be finite")
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
