// Package report turns benchmark session rows into scaling statistics:
// per-core-count timing summaries, IQR outliers, the sequential fraction
// fitted from the highest core count, and the Amdahl or Gustafson
// speedups it predicts.
package report

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/pkg/models"
)

// ErrNoRows is returned when a session has no rows to analyze.
var ErrNoRows = errors.New("no benchmark rows")

// CoreStats summarizes the runs of one core count.
type CoreStats struct {
	Cores    int     `json:"cores"`
	Branches int     `json:"branches"`
	Runs     int     `json:"num_runs"`
	Mean     float64 `json:"mean_time"`
	Stdev    float64 `json:"stdev"`
	Min      float64 `json:"min_time"`
	Max      float64 `json:"max_time"`
	Outliers int     `json:"outliers"`
	// Speedup is T1/TN for strong scaling and N*T1/TN (scaled speedup) for
	// weak scaling, T1 being the mean of the lowest core count.
	Speedup float64 `json:"speedup"`
	// Predicted is the Amdahl (strong) or Gustafson (weak) speedup for the
	// fitted sequential fraction.
	Predicted float64 `json:"predicted_speedup"`
}

// Report is the analysis of one session.
type Report struct {
	Scaling config.Scaling `json:"scaling"`
	// SequentialFraction is the fitted f, clamped to [0, 1].
	SequentialFraction float64     `json:"sequential_fraction"`
	Rows               []CoreStats `json:"rows"`
}

// Analyze groups rows by core count and fits the sequential fraction.
//
// Parameters:
//   - rows: The session rows, in any order.
//   - scaling: Selects the strong (Amdahl) or weak (Gustafson) model.
//
// Returns:
//   - Report: One CoreStats per core count, ascending.
//   - error: ErrNoRows for an empty session, or a statistics error.
func Analyze(rows []models.BenchmarkRow, scaling config.Scaling) (Report, error) {
	if len(rows) == 0 {
		return Report{}, ErrNoRows
	}
	times := make(map[int][]float64)
	branches := make(map[int]int)
	for _, row := range rows {
		times[row.Cores] = append(times[row.Cores], row.Time)
		branches[row.Cores] = row.Branches
	}
	cores := make([]int, 0, len(times))
	for c := range times {
		cores = append(cores, c)
	}
	slices.Sort(cores)

	r := Report{Scaling: scaling, Rows: make([]CoreStats, 0, len(cores))}
	for _, c := range cores {
		cs, err := summarize(c, times[c])
		if err != nil {
			return Report{}, fmt.Errorf("cores %d: %w", c, err)
		}
		cs.Branches = branches[c]
		r.Rows = append(r.Rows, cs)
	}

	if scaling == config.ScalingWeak {
		r.SequentialFraction = SequentialFractionWeak(r.Rows)
	} else {
		r.SequentialFraction = SequentialFractionStrong(r.Rows)
	}
	t1 := r.Rows[0].Mean
	for i := range r.Rows {
		row := &r.Rows[i]
		n := float64(row.Cores)
		if scaling == config.ScalingWeak {
			row.Speedup = n * t1 / row.Mean
			row.Predicted = GustafsonSpeedup(n, r.SequentialFraction)
		} else {
			row.Speedup = t1 / row.Mean
			row.Predicted = AmdahlSpeedup(n, r.SequentialFraction)
		}
	}
	return r, nil
}

func summarize(cores int, times []float64) (CoreStats, error) {
	data := stats.Float64Data(times)
	cs := CoreStats{Cores: cores, Runs: len(times), Outliers: len(Outliers(times))}
	var err error
	if cs.Mean, err = data.Mean(); err != nil {
		return cs, err
	}
	if cs.Min, err = data.Min(); err != nil {
		return cs, err
	}
	if cs.Max, err = data.Max(); err != nil {
		return cs, err
	}
	if len(times) > 1 {
		if cs.Stdev, err = data.StandardDeviationSample(); err != nil {
			return cs, err
		}
	}
	return cs, nil
}

// Outliers returns the times outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR], in input
// order. Q1 and Q3 are the sorted values at positions n/4 and 3n/4
// (integer division). Fewer than four samples have no outliers.
func Outliers(times []float64) []float64 {
	n := len(times)
	if n < 4 {
		return nil
	}
	sorted := slices.Clone(times)
	slices.Sort(sorted)
	q1, q3 := sorted[n/4], sorted[3*n/4]
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	var out []float64
	for _, t := range times {
		if t < lower || t > upper {
			out = append(out, t)
		}
	}
	return out
}

// reference returns the lowest-core-count mean and the row with the highest
// core count beyond it (the lowest row itself when it is alone).
func reference(rows []CoreStats) (t1 float64, best CoreStats) {
	t1, best = rows[0].Mean, rows[0]
	for _, r := range rows[1:] {
		if r.Cores > best.Cores {
			best = r
		}
	}
	return t1, best
}

// SequentialFractionStrong fits Amdahl's law to the highest core count:
// S = T1/TN and f = (1/S - 1/N) / (1 - 1/N), clamped to [0, 1]. A session
// whose highest core count is 1 yields 0.
func SequentialFractionStrong(rows []CoreStats) float64 {
	if len(rows) == 0 {
		return 0
	}
	t1, best := reference(rows)
	n := float64(best.Cores)
	if best.Cores <= 1 {
		return 0
	}
	s := t1 / best.Mean
	return clamp01((1/s - 1/n) / (1 - 1/n))
}

// SequentialFractionWeak fits Gustafson's law to the highest core count:
// Ss = N*T1/TN and f = (N - Ss) / (N - 1), clamped to [0, 1]. A session
// whose highest core count is 1 yields 0.
func SequentialFractionWeak(rows []CoreStats) float64 {
	if len(rows) == 0 {
		return 0
	}
	t1, best := reference(rows)
	n := float64(best.Cores)
	if best.Cores <= 1 {
		return 0
	}
	scaled := n * t1 / best.Mean
	return clamp01((n - scaled) / (n - 1))
}

// AmdahlSpeedup is 1 / (f + (1-f)/n).
func AmdahlSpeedup(n, f float64) float64 {
	return 1 / (f + (1-f)/n)
}

// GustafsonSpeedup is n - f(n-1).
func GustafsonSpeedup(n, f float64) float64 {
	return n - f*(n-1)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
