package fractal

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/fractree/internal/errors"
)

// MergeOrder selects how partial results are laid out in the merged
// collection. Both orders yield the same branch set.
type MergeOrder int

const (
	// OrderUpperFirst places all upper branches first, then each partial in
	// task-submission order.
	OrderUpperFirst MergeOrder = iota
	// OrderPreOrder interleaves upper runs and partials using each task's
	// UpperOffset, reproducing the sequential pre-order exactly.
	OrderPreOrder
)

// String returns the flag name of the order.
func (o MergeOrder) String() string {
	switch o {
	case OrderUpperFirst:
		return "upper-first"
	case OrderPreOrder:
		return "preorder"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// ParseMergeOrder converts a flag value into a MergeOrder.
func ParseMergeOrder(s string) (MergeOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upper-first", "upperfirst":
		return OrderUpperFirst, nil
	case "preorder", "pre-order":
		return OrderPreOrder, nil
	}
	return 0, fmt.Errorf("unknown merge order %q (want upper-first or preorder)", s)
}

// Stats are the aggregate statistics of a branch collection.
type Stats struct {
	TotalBranches int
	MaxDepth      int
}

// ComputeStats derives Stats from branches. MaxDepth is 0 for an empty
// collection.
func ComputeStats(branches []Branch) Stats {
	s := Stats{TotalBranches: len(branches)}
	for _, b := range branches {
		if b.Depth > s.MaxDepth {
			s.MaxDepth = b.Depth
		}
	}
	return s
}

// Merge combines the upper branches and the partial results of part into one
// collection. Partials are matched to tasks by their Task index, never by
// arrival order; every task must have exactly one partial whose size matches
// ExpectedSize.
//
// Parameters:
//   - part: The partition the partials were generated from.
//   - partials: One result per task, in any order.
//   - order: The layout of the merged collection.
//
// Returns:
//   - []Branch: The merged branches.
//   - Stats: Totals over the merged branches.
//   - error: A matching, decoding or SizeInvariantError failure.
func Merge(part Partition, partials []PartialResult, order MergeOrder) ([]Branch, Stats, error) {
	byTask := make([]*PartialResult, len(part.Tasks))
	for i := range partials {
		pr := &partials[i]
		if pr.Task < 0 || pr.Task >= len(part.Tasks) {
			return nil, Stats{}, fmt.Errorf("partial result references unknown task %d", pr.Task)
		}
		if byTask[pr.Task] != nil {
			return nil, Stats{}, fmt.Errorf("duplicate partial result for task %d", pr.Task)
		}
		byTask[pr.Task] = pr
	}
	for i, pr := range byTask {
		if pr == nil {
			return nil, Stats{}, fmt.Errorf("missing partial result for task %d", i)
		}
		if n := pr.Payload.Len(); n != part.Tasks[i].ExpectedSize {
			return nil, Stats{}, apperrors.SizeInvariantError{Task: i, Expected: part.Tasks[i].ExpectedSize, Actual: n}
		}
	}

	out := make([]Branch, 0, part.TotalBranches())
	var err error
	switch order {
	case OrderPreOrder:
		pos := 0
		for i, task := range part.Tasks {
			out = append(out, part.Upper[pos:task.UpperOffset]...)
			pos = task.UpperOffset
			if out, err = byTask[i].Payload.AppendBranches(out); err != nil {
				return nil, Stats{}, fmt.Errorf("decoding task %d: %w", i, err)
			}
		}
		out = append(out, part.Upper[pos:]...)
	case OrderUpperFirst:
		out = append(out, part.Upper...)
		for i := range part.Tasks {
			if out, err = byTask[i].Payload.AppendBranches(out); err != nil {
				return nil, Stats{}, fmt.Errorf("decoding task %d: %w", i, err)
			}
		}
	default:
		return nil, Stats{}, fmt.Errorf("unsupported merge order %s", order)
	}
	return out, ComputeStats(out), nil
}
