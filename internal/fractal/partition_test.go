package fractal

import (
	"testing"

	apperrors "github.com/agbru/fractree/internal/errors"
)

func TestNewPartitionAccountsForWholeTree(t *testing.T) {
	t.Parallel()
	params := DefaultConfig().Parameters()
	want := SubtreeSize(params.TrunkLength, params.LengthRatio, params.MinLength)

	for split := 0; split <= NaturalDepth(params.TrunkLength, params.LengthRatio, params.MinLength)+1; split++ {
		part, err := NewPartition(RootPose(params.TrunkLength), params, split)
		if err != nil {
			t.Fatalf("split %d: %v", split, err)
		}
		if got := part.TotalBranches(); got != want {
			t.Errorf("split %d: partition accounts for %d branches, want %d", split, got, want)
		}
		if !part.Uniform {
			t.Errorf("split %d: a fixed-ratio tree must partition uniformly", split)
		}
	}
}

func TestNewPartitionShape(t *testing.T) {
	t.Parallel()
	params := smallConfig(1).Parameters()
	part, err := NewPartition(RootPose(params.TrunkLength), params, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(part.Upper) != 7 || len(part.Tasks) != 8 {
		t.Fatalf("expected 7 upper branches and 8 tasks, got %d and %d", len(part.Upper), len(part.Tasks))
	}
	if part.UniformSize != 15 {
		t.Errorf("UniformSize = %d, want 15", part.UniformSize)
	}
	for _, b := range part.Upper {
		if b.Depth >= 3 {
			t.Errorf("upper branch at depth %d", b.Depth)
		}
	}
	prev := -1
	for i, task := range part.Tasks {
		if task.Index != i {
			t.Errorf("task %d has index %d", i, task.Index)
		}
		if task.Pose.Depth != 3 || task.ExpectedSize != 15 {
			t.Errorf("task %d: depth %d size %d", i, task.Pose.Depth, task.ExpectedSize)
		}
		if task.UpperOffset < prev || task.UpperOffset > len(part.Upper) {
			t.Errorf("task %d: upper offset %d out of order", i, task.UpperOffset)
		}
		if task.Params != params {
			t.Errorf("task %d: params not copied", i)
		}
		prev = task.UpperOffset
	}
	// Pre-order: the first task follows the leftmost path root, L, LL.
	if part.Tasks[0].UpperOffset != 3 {
		t.Errorf("first task upper offset = %d, want 3", part.Tasks[0].UpperOffset)
	}
}

func TestNewPartitionBeyondNaturalDepth(t *testing.T) {
	t.Parallel()
	// Depth 6 is the deepest emitted level; splitting deeper leaves no tasks
	// and the starved poses above the cut contribute nothing.
	params := smallConfig(1).Parameters()
	part, err := NewPartition(RootPose(params.TrunkLength), params, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(part.Tasks) != 0 || len(part.Upper) != 127 {
		t.Errorf("expected the whole tree in upper, got %d upper %d tasks", len(part.Upper), len(part.Tasks))
	}
	if !part.Uniform || part.UniformSize != 0 {
		t.Errorf("empty task list should be uniform with size 0: %+v", part)
	}
}

func TestNewPartitionSplitZero(t *testing.T) {
	t.Parallel()
	params := smallConfig(1).Parameters()
	part, err := NewPartition(RootPose(params.TrunkLength), params, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(part.Upper) != 0 || len(part.Tasks) != 1 || part.Tasks[0].ExpectedSize != 127 {
		t.Errorf("split 0 should be a single task of the whole tree: %+v", part)
	}
}

func TestNewPartitionNonUniformRoots(t *testing.T) {
	t.Parallel()
	// Built by hand: tasks with distinct lengths get individual sizes.
	params := smallConfig(1).Parameters()
	part := Partition{Tasks: []TaskDescriptor{
		{Index: 0, Pose: Pose{Length: 100}, Params: params},
		{Index: 1, Pose: Pose{Length: 50}, Params: params},
	}}
	part.assignSizes()
	if part.Uniform {
		t.Fatal("expected non-uniform partition")
	}
	if part.Tasks[0].ExpectedSize != 127 || part.Tasks[1].ExpectedSize != 63 {
		t.Errorf("unexpected sizes %d, %d", part.Tasks[0].ExpectedSize, part.Tasks[1].ExpectedSize)
	}
}

func TestNewPartitionRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	params := smallConfig(1).Parameters()
	if _, err := NewPartition(RootPose(100), params, -1); !apperrors.IsInvalidParameters(err) {
		t.Errorf("negative split depth: expected InvalidParametersError, got %v", err)
	}
	params.LengthRatio = 1
	if _, err := NewPartition(RootPose(100), params, 2); !apperrors.IsInvalidParameters(err) {
		t.Errorf("ratio 1: expected InvalidParametersError, got %v", err)
	}
}
