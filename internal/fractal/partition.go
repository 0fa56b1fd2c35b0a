package fractal

import (
	apperrors "github.com/agbru/fractree/internal/errors"
)

// TaskDescriptor describes one independent subtree to be generated by a
// worker. Params is a value copy, so workers share no mutable state.
type TaskDescriptor struct {
	// Index is the submission index of the task, in pre-order.
	Index int
	// Pose is the root of the subtree.
	Pose Pose
	// Params are the generation parameters of the run.
	Params Parameters
	// ExpectedSize is the exact number of branches of the subtree.
	ExpectedSize int
	// UpperOffset is the number of upper branches preceding this task in the
	// pre-order walk of the whole tree.
	UpperOffset int
}

// Partition is the result of cutting a tree at a split depth: the branches
// above the cut, generated directly, and the subtree tasks below it.
type Partition struct {
	SplitDepth int
	Upper      []Branch
	Tasks      []TaskDescriptor
	// Uniform reports that every task starts with the same length, in which
	// case UniformSize is the size shared by all of them.
	Uniform     bool
	UniformSize int
}

// TotalBranches returns the number of branches the partition accounts for.
func (p Partition) TotalBranches() int {
	total := len(p.Upper)
	for _, t := range p.Tasks {
		total += t.ExpectedSize
	}
	return total
}

// NewPartition walks the tree rooted at root in pre-order. Branches shallower
// than splitDepth that satisfy the minimum length go to Upper; poses reaching
// splitDepth with a length of at least MinLength become tasks. Branches
// starved above the split depth contribute nothing at all.
//
// Parameters:
//   - root: The root pose, typically RootPose(params.TrunkLength).
//   - params: The run parameters.
//   - splitDepth: The cut depth relative to root. Zero yields one task for
//     the whole tree.
//
// Returns:
//   - Partition: The upper branches and ordered tasks.
//   - error: An InvalidParametersError for a negative split depth or bad parameters.
func NewPartition(root Pose, params Parameters, splitDepth int) (Partition, error) {
	if err := params.Validate(); err != nil {
		return Partition{}, err
	}
	if splitDepth < 0 {
		return Partition{}, apperrors.NewInvalidParametersError("split_depth", splitDepth, "must be >= 0")
	}

	upper, tasks := splitWalk(root, root.Depth+splitDepth, params, nil, nil)
	part := Partition{SplitDepth: splitDepth, Upper: upper, Tasks: tasks}
	part.assignSizes()
	return part, nil
}

// splitWalk appends upper branches and tasks found below pose and returns the
// extended slices.
func splitWalk(pose Pose, cut int, params Parameters, upper []Branch, tasks []TaskDescriptor) ([]Branch, []TaskDescriptor) {
	if pose.Length < params.MinLength {
		return upper, tasks
	}
	if pose.Depth >= cut {
		tasks = append(tasks, TaskDescriptor{
			Index:       len(tasks),
			Pose:        pose,
			Params:      params,
			UpperOffset: len(upper),
		})
		return upper, tasks
	}

	branch := segment(pose)
	upper = append(upper, branch)
	left, right := children(pose, branch.X2, branch.Y2, params)
	upper, tasks = splitWalk(left, cut, params, upper, tasks)
	return splitWalk(right, cut, params, upper, tasks)
}

// assignSizes fills ExpectedSize on every task. When all tasks share the same
// starting length a single size computation serves them all.
func (p *Partition) assignSizes() {
	if len(p.Tasks) == 0 {
		p.Uniform = true
		return
	}
	first := p.Tasks[0].Pose.Length
	p.Uniform = true
	for _, t := range p.Tasks[1:] {
		if t.Pose.Length != first {
			p.Uniform = false
			break
		}
	}

	if p.Uniform {
		size := SubtreeSize(first, p.Tasks[0].Params.LengthRatio, p.Tasks[0].Params.MinLength)
		p.UniformSize = size
		for i := range p.Tasks {
			p.Tasks[i].ExpectedSize = size
		}
		return
	}
	for i := range p.Tasks {
		t := &p.Tasks[i]
		t.ExpectedSize = SubtreeSize(t.Pose.Length, t.Params.LengthRatio, t.Params.MinLength)
	}
}
