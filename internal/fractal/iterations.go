package fractal

// Iteration is the cumulative view of the tree up to a depth: Branches holds
// every branch with Depth <= Index.
type Iteration struct {
	Index    int
	Branches []Branch
}

// GroupIterations buckets branches by depth once, with a stable counting
// sort, and returns one prefix view of the sorted slice per depth from 0 to
// the maximum depth. Within a depth, branches keep their input order.
//
// All iterations share one backing array and must be treated as read-only.
// An empty input yields no iterations.
func GroupIterations(branches []Branch) []Iteration {
	if len(branches) == 0 {
		return nil
	}
	maxDepth := ComputeStats(branches).MaxDepth

	ends := make([]int, maxDepth+1)
	for _, b := range branches {
		ends[b.Depth]++
	}
	// ends[d] becomes the exclusive end of depth d in the sorted slice.
	for d := 1; d <= maxDepth; d++ {
		ends[d] += ends[d-1]
	}

	next := make([]int, maxDepth+1)
	for d := 1; d <= maxDepth; d++ {
		next[d] = ends[d-1]
	}
	sorted := make([]Branch, len(branches))
	for _, b := range branches {
		sorted[next[b.Depth]] = b
		next[b.Depth]++
	}

	iterations := make([]Iteration, maxDepth+1)
	for d := range iterations {
		iterations[d] = Iteration{Index: d, Branches: sorted[:ends[d]:ends[d]]}
	}
	return iterations
}
