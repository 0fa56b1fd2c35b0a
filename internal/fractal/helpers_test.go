package fractal

import (
	"cmp"
	"math"
	"slices"
)

// smallConfig is a tree of 127 branches, cheap enough for every test.
func smallConfig(workers int) Config {
	return Config{TrunkLength: 100, LengthRatio: 0.5, BranchAngleDegrees: 30, MinLength: 1, Workers: workers}
}

func compareBranches(a, b Branch) int {
	return cmp.Or(
		cmp.Compare(a.Depth, b.Depth),
		cmp.Compare(a.X1, b.X1),
		cmp.Compare(a.Y1, b.Y1),
		cmp.Compare(a.X2, b.X2),
		cmp.Compare(a.Y2, b.Y2),
	)
}

// sameSet reports whether a and b hold the same branches, ignoring order.
func sameSet(a, b []Branch) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.SortedFunc(slices.Values(a), compareBranches)
	y := slices.SortedFunc(slices.Values(b), compareBranches)
	return slices.Equal(x, y)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
