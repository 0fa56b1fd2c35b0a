package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/internal/testutil"
	"github.com/agbru/fractree/pkg/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func rows(cores int, branches int, times ...float64) []models.BenchmarkRow {
	out := make([]models.BenchmarkRow, len(times))
	for i, t := range times {
		out[i] = models.BenchmarkRow{Cores: cores, Run: i + 1, Time: t, Branches: branches}
	}
	return out
}

func strongSession() []models.BenchmarkRow {
	// Deliberately out of order: grouping sorts by cores.
	r := rows(4, 32767, 0.8, 0.8)
	return append(r, rows(1, 32767, 2, 2, 2)...)
}

func TestAnalyzeStrong(t *testing.T) {
	t.Parallel()
	r, err := Analyze(strongSession(), config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Rows) != 2 || r.Rows[0].Cores != 1 || r.Rows[1].Cores != 4 {
		t.Fatalf("unexpected grouping %+v", r.Rows)
	}
	one, four := r.Rows[0], r.Rows[1]
	if one.Runs != 3 || !approx(one.Mean, 2) || one.Stdev != 0 || one.Branches != 32767 {
		t.Errorf("unexpected 1-core stats %+v", one)
	}
	// S = 2.5 on 4 cores: f = (0.4 - 0.25) / 0.75.
	if !approx(r.SequentialFraction, 0.2) {
		t.Errorf("f = %v, want 0.2", r.SequentialFraction)
	}
	if !approx(four.Speedup, 2.5) || !approx(four.Predicted, 2.5) {
		t.Errorf("4-core speedup %v predicted %v, want 2.5", four.Speedup, four.Predicted)
	}
	if !approx(one.Speedup, 1) || !approx(one.Predicted, 1) {
		t.Errorf("1-core speedup %v predicted %v, want 1", one.Speedup, one.Predicted)
	}
}

func TestAnalyzeWeak(t *testing.T) {
	t.Parallel()
	session := append(rows(1, 16383, 1, 1), rows(4, 65535, 1.25, 1.25)...)
	r, err := Analyze(session, config.ScalingWeak)
	if err != nil {
		t.Fatal(err)
	}
	// Ss = 4 * 1 / 1.25 = 3.2, so f = 0.8 / 3.
	if want := 0.8 / 3; !approx(r.SequentialFraction, want) {
		t.Errorf("f = %v, want %v", r.SequentialFraction, want)
	}
	four := r.Rows[1]
	if !approx(four.Speedup, 3.2) || !approx(four.Predicted, 3.2) {
		t.Errorf("scaled speedup %v predicted %v, want 3.2", four.Speedup, four.Predicted)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()
	if _, err := Analyze(nil, config.ScalingStrong); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestSampleStdev(t *testing.T) {
	t.Parallel()
	r, err := Analyze(rows(2, 7, 1, 2, 3), config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	cs := r.Rows[0]
	if !approx(cs.Stdev, 1) || cs.Min != 1 || cs.Max != 3 || !approx(cs.Mean, 2) {
		t.Errorf("unexpected stats %+v", cs)
	}
}

func TestOutliers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		times []float64
		want  int
	}{
		{"too few samples", []float64{1, 100, 1000}, 0},
		{"spike", []float64{1, 1, 1, 10, 1, 1, 1, 1}, 1},
		{"spread", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 0},
		{"both tails", []float64{-50, 5, 5, 5, 5, 5, 5, 50}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Outliers(tt.times); len(got) != tt.want {
				t.Errorf("Outliers(%v) = %v, want %d values", tt.times, got, tt.want)
			}
		})
	}
}

func TestSequentialFractionClamping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		rows   []CoreStats
		strong float64
		weak   float64
	}{
		{"empty", nil, 0, 0},
		{"single core only", []CoreStats{{Cores: 1, Mean: 1}}, 0, 0},
		{"slowdown", []CoreStats{{Cores: 1, Mean: 1}, {Cores: 2, Mean: 3}}, 1, 1},
		{"superlinear", []CoreStats{{Cores: 1, Mean: 1}, {Cores: 2, Mean: 0.25}}, 0, 0},
		{"highest core count wins", []CoreStats{{Cores: 1, Mean: 1}, {Cores: 8, Mean: 0.125}, {Cores: 2, Mean: 1}}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SequentialFractionStrong(tt.rows); !approx(got, tt.strong) {
				t.Errorf("strong f = %v, want %v", got, tt.strong)
			}
			if got := SequentialFractionWeak(tt.rows); !approx(got, tt.weak) {
				t.Errorf("weak f = %v, want %v", got, tt.weak)
			}
		})
	}
}

func TestSpeedupLaws(t *testing.T) {
	t.Parallel()
	if !approx(AmdahlSpeedup(8, 0), 8) || !approx(AmdahlSpeedup(8, 1), 1) {
		t.Error("Amdahl bounds")
	}
	if !approx(GustafsonSpeedup(8, 0), 8) || !approx(GustafsonSpeedup(8, 1), 1) {
		t.Error("Gustafson bounds")
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()
	r, err := Analyze(strongSession(), config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteTable(&buf); err != nil {
		t.Fatal(err)
	}
	out := testutil.StripAnsiCodes(buf.String())
	for _, want := range []string{
		"--- Strong Scaling (3 runs per config) ---",
		"Sequential fraction (f) = 0.2000 (20.00%)",
		"Amdahl's max speedup (inf cores) = 5.00",
		"Speedup",
		"32,767",
		"2.500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table lacks %q:\n%s", want, out)
		}
	}

	weak := Report{Scaling: config.ScalingWeak, Rows: []CoreStats{{Cores: 1, Mean: 1, Runs: 1}}}
	buf.Reset()
	if err := weak.WriteTable(&buf); err != nil {
		t.Fatal(err)
	}
	out = testutil.StripAnsiCodes(buf.String())
	if !strings.Contains(out, "Scaled S") || !strings.Contains(out, "Gustafson") {
		t.Errorf("weak table headers missing:\n%s", out)
	}
}

func TestWriteJSONAndCSV(t *testing.T) {
	t.Parallel()
	r, err := Analyze(strongSession(), config.ScalingStrong)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var back Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.Scaling != config.ScalingStrong || len(back.Rows) != 2 || !approx(back.SequentialFraction, 0.2) {
		t.Errorf("unexpected JSON report %+v", back)
	}

	buf.Reset()
	if err := r.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d CSV lines, want 3", len(lines))
	}
	if lines[0] != "cores,branches,mean_time,stdev,speedup,amdahl_speedup,outliers,num_runs" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "4,32767,0.800000,0.000000,2.5000,2.5000,0,2" {
		t.Errorf("unexpected row %q", lines[2])
	}
}
