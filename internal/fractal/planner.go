package fractal

import (
	"math"

	apperrors "github.com/agbru/fractree/internal/errors"
)

// tasksPerWorker is the over-decomposition factor: the planner aims for about
// this many subtree tasks per worker.
const tasksPerWorker = 4

// maxLevels is the level count at which 2^levels - 1 no longer fits an int.
// Counting stops there, so a ratio close to 1 still answers immediately.
const maxLevels = 63

// MaxTreeBranches is the largest tree a run accepts: the widest record
// layout of that many branches still has a representable byte size.
const MaxTreeBranches = math.MaxInt / 64

// EstimateDepth returns the continuous estimate of the tree depth,
// |log(min/trunk) / log(ratio)|, or 0 when the trunk is shorter than the
// minimum length.
func EstimateDepth(trunk, ratio, minLength float64) float64 {
	if trunk < minLength {
		return 0
	}
	return math.Abs(math.Log(minLength/trunk) / math.Log(ratio))
}

// PlanSplitDepth chooses the depth at which the tree is cut into parallel
// tasks using the depth-capped policy:
//
//	target = max(1, ceil(log2(workers * 4)))
//	cap    = max(2, floor(0.25 * EstimateDepth))
//	split  = min(target, cap)
//
// The cap keeps the upper region small relative to the tree so that most
// work happens inside tasks.
//
// Parameters:
//   - trunk: The trunk length. Must be positive and finite.
//   - ratio: The length ratio. Must be in (0, 1).
//   - minLength: The minimum emitted length. Must be positive and finite.
//   - workers: The worker count. Must be >= 1.
//
// Returns:
//   - int: The split depth, always >= 1.
//   - error: An InvalidParametersError for out-of-range inputs.
func PlanSplitDepth(trunk, ratio, minLength float64, workers int) (int, error) {
	params := Parameters{TrunkLength: trunk, LengthRatio: ratio, MinLength: minLength}
	if err := params.Validate(); err != nil {
		return 0, err
	}
	if workers < 1 {
		return 0, apperrors.NewInvalidParametersError("workers", workers, "must be >= 1 when planning")
	}

	target := max(1, int(math.Ceil(math.Log2(float64(workers*tasksPerWorker)))))
	limit := max(2, int(math.Floor(0.25*EstimateDepth(trunk, ratio, minLength))))
	return min(target, limit), nil
}

// SubtreeSize returns the exact number of branches in a subtree whose root
// has the given length:
//
//	size(l) = 0                   if l < minLength
//	size(l) = 1 + 2*size(l*ratio) otherwise
//
// It counts the emitted levels with the same multiplication sequence as the
// emitter and returns 2^levels - 1, saturating at math.MaxInt. The ratio must
// be in (0, 1) and minLength positive, otherwise the count does not terminate.
func SubtreeSize(length, ratio, minLength float64) int {
	levels := subtreeLevels(length, ratio, minLength)
	if levels >= maxLevels {
		return math.MaxInt
	}
	return 1<<levels - 1
}

// NaturalDepth returns the deepest emitted depth of a tree with the given
// parameters, or -1 when not even the trunk is emitted.
func NaturalDepth(trunk, ratio, minLength float64) int {
	return subtreeLevels(trunk, ratio, minLength) - 1
}

// LengthAtDepth returns the branch length at depth d, computed by repeated
// multiplication exactly like the emitter.
func LengthAtDepth(trunk, ratio float64, depth int) float64 {
	l := trunk
	for range depth {
		l *= ratio
	}
	return l
}

func subtreeLevels(length, ratio, minLength float64) int {
	if length >= minLength && (!(ratio > 0 && ratio < 1) || !(minLength > 0)) {
		// Non-terminating parameters: report the saturated size.
		return maxLevels
	}
	levels := 0
	for l := length; l >= minLength && levels < maxLevels; l *= ratio {
		levels++
	}
	return levels
}

// checkTreeSize rejects trees whose branch buffers cannot be allocated.
func checkTreeSize(p Parameters) error {
	if n := SubtreeSize(p.TrunkLength, p.LengthRatio, p.MinLength); n > MaxTreeBranches {
		return apperrors.NewInvalidParametersError("min_length", p.MinLength,
			"tree too large: more than %d branches predicted", MaxTreeBranches)
	}
	return nil
}
