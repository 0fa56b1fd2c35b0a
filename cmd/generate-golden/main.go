package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// GoldenData represents a single test case in the golden file
type GoldenData struct {
	TrunkLength   float64 `json:"trunk_length"`
	Ratio         float64 `json:"ratio"`
	BranchAngle   float64 `json:"branch_angle"`
	MinLength     float64 `json:"min_length"`
	TotalBranches int     `json:"total_branches"`
	MaxDepth      int     `json:"max_depth"`
}

func main() {
	outputDir := flag.String("out", "internal/fractal/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "fractal_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Cases cover the reference tree, the weak-scaling minimum lengths,
	// the single-trunk and empty trees, and an exact-equality boundary
	// (1 * 0.5 * 0.5 == 0.25).
	targets := []GoldenData{
		{TrunkLength: 100, Ratio: 0.67, MinLength: 0.335},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 2.0},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 0.5},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 0.224},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 0.15},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 1.0},
		{TrunkLength: 100, Ratio: 0.5, MinLength: 1.0},
		{TrunkLength: 10, Ratio: 0.7, MinLength: 1.0},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 100},
		{TrunkLength: 100, Ratio: 0.67, MinLength: 100.5},
		{TrunkLength: 1, Ratio: 0.5, MinLength: 0.25},
		{TrunkLength: 50, Ratio: 0.6, MinLength: 0.1},
	}

	fmt.Println("Generating golden data...")

	for i := range targets {
		tc := &targets[i]
		tc.BranchAngle = 30
		tc.TotalBranches, tc.MaxDepth = countTree(tc.TrunkLength, tc.Ratio, tc.MinLength, 0)
		fmt.Printf("Generated trunk=%g ratio=%g min=%g: %d branches\n",
			tc.TrunkLength, tc.Ratio, tc.MinLength, tc.TotalBranches)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(targets); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// countTree returns the branch count and deepest depth of the subtree rooted
// at a branch of the given length, following the recursive definition
// literally. It serves as the oracle, independent of the engine.
func countTree(length, ratio, minLength float64, depth int) (int, int) {
	if length < minLength {
		return 0, 0
	}
	next := length * ratio
	lc, ld := countTree(next, ratio, minLength, depth+1)
	rc, rd := countTree(next, ratio, minLength, depth+1)
	return 1 + lc + rc, max(depth, ld, rd)
}
