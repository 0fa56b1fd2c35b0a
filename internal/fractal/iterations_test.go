package fractal

import (
	"testing"
)

func TestGroupIterations(t *testing.T) {
	t.Parallel()
	params := smallConfig(1).Parameters()
	branches := Emit(RootPose(params.TrunkLength), params)
	iterations := GroupIterations(branches)

	if len(iterations) != 7 {
		t.Fatalf("expected 7 iterations, got %d", len(iterations))
	}
	for d, it := range iterations {
		if it.Index != d {
			t.Errorf("iteration %d has index %d", d, it.Index)
		}
		if want := 1<<(d+1) - 1; len(it.Branches) != want {
			t.Errorf("iteration %d: %d branches, want %d", d, len(it.Branches), want)
		}
		for _, b := range it.Branches {
			if b.Depth > d {
				t.Errorf("iteration %d holds a depth-%d branch", d, b.Depth)
			}
		}
	}
	if !sameSet(iterations[6].Branches, branches) {
		t.Error("final iteration must hold every branch")
	}
}

func TestGroupIterationsIsStable(t *testing.T) {
	t.Parallel()
	branches := []Branch{
		{X1: 1, Depth: 1},
		{X1: 2, Depth: 0},
		{X1: 3, Depth: 1},
		{X1: 4, Depth: 0},
	}
	last := GroupIterations(branches)[1].Branches
	want := []float64{2, 4, 1, 3}
	for i, b := range last {
		if b.X1 != want[i] {
			t.Fatalf("position %d: X1 %v, want %v", i, b.X1, want[i])
		}
	}
	if len(GroupIterations(branches)[0].Branches) != 2 {
		t.Error("iteration 0 should hold the two depth-0 branches")
	}
}

func TestGroupIterationsEmpty(t *testing.T) {
	t.Parallel()
	if got := GroupIterations(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	params := smallConfig(1).Parameters()
	branches := Emit(RootPose(params.TrunkLength), params)

	reversed := make([]Branch, len(branches))
	for i, b := range branches {
		reversed[len(branches)-1-i] = b
	}
	if Fingerprint(branches) != Fingerprint(reversed) {
		t.Error("fingerprint must not depend on order")
	}
	if Fingerprint(branches) == Fingerprint(branches[1:]) {
		t.Error("removing a branch must change the fingerprint")
	}
	moved := append([]Branch(nil), branches...)
	moved[5].X2 += 1e-12
	if Fingerprint(branches) == Fingerprint(moved) {
		t.Error("moving a branch must change the fingerprint")
	}
	if Fingerprint(nil) != 0 {
		t.Error("empty set must fingerprint to 0")
	}
}
