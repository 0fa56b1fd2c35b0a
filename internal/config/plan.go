package config

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
)

// Scaling is the benchmark scaling mode.
type Scaling string

const (
	// ScalingStrong keeps the problem size fixed while the core count grows.
	ScalingStrong Scaling = "strong"
	// ScalingWeak grows the problem size with the core count.
	ScalingWeak Scaling = "weak"
)

// ParseScaling converts a command argument into a Scaling.
func ParseScaling(s string) (Scaling, error) {
	switch Scaling(strings.ToLower(strings.TrimSpace(s))) {
	case ScalingStrong:
		return ScalingStrong, nil
	case ScalingWeak:
		return ScalingWeak, nil
	}
	return "", apperrors.NewConfigError("unknown scaling mode %q (want strong or weak)", s)
}

// StrongPlan holds the fixed problem size of a strong-scaling session.
type StrongPlan struct {
	MinLength float64 `toml:"min_length"`
}

// WeakPlan holds the per-core-count problem sizes of a weak-scaling session.
// Core counts missing from MinLengths use BaseMinLength * ratio^log2(cores),
// which adds one tree level, doubling the work, each time the core count
// doubles.
type WeakPlan struct {
	BaseMinLength float64            `toml:"base_min_length"`
	MinLengths    map[string]float64 `toml:"min_lengths"`
}

// BenchPlan describes a benchmark session: the tree, the core counts to
// sweep and how many times each configuration is repeated.
type BenchPlan struct {
	CoreCounts  []int      `toml:"core_counts"`
	Runs        int        `toml:"runs"`
	TrunkLength float64    `toml:"trunk_length"`
	Ratio       float64    `toml:"ratio"`
	BranchAngle float64    `toml:"branch_angle"`
	OutputDir   string     `toml:"output_dir"`
	Strong      StrongPlan `toml:"strong"`
	Weak        WeakPlan   `toml:"weak"`
}

// DefaultBenchPlan returns the reference experiment: 1, 2, 4 and 8 cores,
// three runs each, the reference tree at min length 0.01 for strong scaling
// and 0.5, 0.335, 0.224, 0.150 for weak scaling.
func DefaultBenchPlan() BenchPlan {
	return BenchPlan{
		CoreCounts:  []int{1, 2, 4, 8},
		Runs:        3,
		TrunkLength: DefaultTrunkLength,
		Ratio:       DefaultRatio,
		BranchAngle: DefaultBranchAngle,
		OutputDir:   "results",
		Strong:      StrongPlan{MinLength: 0.01},
		Weak: WeakPlan{
			BaseMinLength: 0.5,
			MinLengths:    map[string]float64{"1": 0.5, "2": 0.335, "4": 0.224, "8": 0.150},
		},
	}
}

// LoadBenchPlan reads a TOML plan from path on top of DefaultBenchPlan. Keys
// that do not map to a plan field are rejected.
//
// Parameters:
//   - path: The TOML file. An empty path returns the default plan.
//
// Returns:
//   - BenchPlan: The merged, validated plan.
//   - error: A ConfigError if the file cannot be decoded or is invalid.
func LoadBenchPlan(path string) (BenchPlan, error) {
	plan := DefaultBenchPlan()
	if path == "" {
		return plan, nil
	}
	// An explicit table replaces the default overrides instead of merging.
	plan.Weak.MinLengths = nil
	md, err := toml.DecodeFile(path, &plan)
	if err != nil {
		return BenchPlan{}, apperrors.NewConfigError("failed to load bench plan %s: %v", path, err)
	}
	if !md.IsDefined("weak", "min_lengths") && !md.IsDefined("weak", "base_min_length") {
		plan.Weak.MinLengths = DefaultBenchPlan().Weak.MinLengths
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return BenchPlan{}, apperrors.NewConfigError("unknown keys in bench plan %s: %s", path, strings.Join(keys, ", "))
	}
	if err := plan.Validate(); err != nil {
		return BenchPlan{}, err
	}
	return plan, nil
}

// Validate checks the plan for usable core counts, repetitions and tree
// parameters.
func (p BenchPlan) Validate() error {
	if len(p.CoreCounts) == 0 {
		return apperrors.NewConfigError("bench plan needs at least one core count")
	}
	for _, c := range p.CoreCounts {
		if c < 1 {
			return apperrors.NewConfigError("core counts must be >= 1, got %d", c)
		}
	}
	if p.Runs < 1 {
		return apperrors.NewConfigError("runs must be >= 1, got %d", p.Runs)
	}
	for key := range p.Weak.MinLengths {
		if _, err := strconv.Atoi(key); err != nil {
			return apperrors.NewConfigError("weak min_lengths key %q is not a core count", key)
		}
	}
	for _, scaling := range []Scaling{ScalingStrong, ScalingWeak} {
		for _, cores := range p.CoreCounts {
			if err := p.Generation(scaling, cores).Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SortedCoreCounts returns the core counts in ascending order without duplicates.
func (p BenchPlan) SortedCoreCounts() []int {
	counts := slices.Clone(p.CoreCounts)
	slices.Sort(counts)
	return slices.Compact(counts)
}

// MinLength returns the emission threshold for a scaling mode and core count.
func (p BenchPlan) MinLength(scaling Scaling, cores int) float64 {
	if scaling == ScalingStrong {
		return p.Strong.MinLength
	}
	if v, ok := p.Weak.MinLengths[strconv.Itoa(cores)]; ok {
		return v
	}
	return p.Weak.BaseMinLength * math.Pow(p.Ratio, math.Log2(float64(cores)))
}

// Generation returns the engine configuration for one benchmark cell.
func (p BenchPlan) Generation(scaling Scaling, cores int) fractal.Config {
	return fractal.Config{
		TrunkLength:        p.TrunkLength,
		LengthRatio:        p.Ratio,
		BranchAngleDegrees: p.BranchAngle,
		MinLength:          p.MinLength(scaling, cores),
		Workers:            cores,
	}
}

// String summarizes the plan for logs.
func (p BenchPlan) String() string {
	return fmt.Sprintf("cores=%v runs=%d trunk=%g ratio=%g angle=%g",
		p.SortedCoreCounts(), p.Runs, p.TrunkLength, p.Ratio, p.BranchAngle)
}
