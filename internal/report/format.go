package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/agbru/fractree/internal/cli"
	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/internal/ui"
)

// WriteTable prints the report as an aligned console table.
func (r Report) WriteTable(out io.Writer) error {
	title, speedup, model := "Strong Scaling", "Speedup", "Amdahl"
	if r.Scaling == config.ScalingWeak {
		title, speedup, model = "Weak Scaling", "Scaled S", "Gustafson"
	}
	runs := 0
	if len(r.Rows) > 0 {
		runs = r.Rows[0].Runs
	}
	f := r.SequentialFraction

	fmt.Fprintf(out, "\n%s--- %s (%d runs per config) ---%s\n", ui.ColorBold(), title, runs, ui.ColorReset())
	fmt.Fprintf(out, "Sequential fraction (f) = %s%.4f%s (%.2f%%)\n", ui.ColorValue(), f, ui.ColorReset(), f*100)
	fmt.Fprintf(out, "Parallelizable fraction  = %.4f (%.2f%%)\n", 1-f, (1-f)*100)
	if r.Scaling == config.ScalingWeak {
		fmt.Fprintln(out, "Gustafson's Law: S(N) = N - f*(N-1)")
	} else if f > 0 {
		fmt.Fprintf(out, "Amdahl's max speedup (inf cores) = %.2f\n", 1/f)
	} else {
		fmt.Fprintln(out, "Amdahl's max speedup (inf cores) = inf (fully parallelizable)")
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Cores\tBranches\tMean\tStdev\tMin\tMax\t%s\t%s\tOutliers\t\n", speedup, model)
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%.3fs\t%.3fs\t%.3fs\t%.3fs\t%.3f\t%.3f\t%d\t\n",
			row.Cores, cli.FormatCount(row.Branches), row.Mean, row.Stdev, row.Min, row.Max,
			row.Speedup, row.Predicted, row.Outliers)
	}
	return tw.Flush()
}

// WriteJSON writes the report as indented JSON. An infinite or undefined
// value cannot occur: f is clamped and speedups are finite for N >= 1.
func (r Report) WriteJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes the per-core-count table for inclusion in documents.
func (r Report) WriteCSV(w io.Writer) error {
	speedup, model := "speedup", "amdahl_speedup"
	if r.Scaling == config.ScalingWeak {
		speedup, model = "scaled_speedup", "gustafson_speedup"
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cores", "branches", "mean_time", "stdev", speedup, model, "outliers", "num_runs"}); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{
			strconv.Itoa(row.Cores),
			strconv.Itoa(row.Branches),
			formatFixed(row.Mean, 6),
			formatFixed(row.Stdev, 6),
			formatFixed(row.Speedup, 4),
			formatFixed(row.Predicted, 4),
			strconv.Itoa(row.Outliers),
			strconv.Itoa(row.Runs),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFixed(v float64, prec int) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
