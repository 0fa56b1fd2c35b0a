// Package cli renders fractree runs on the console and persists their
// results. It owns the human-readable layout (banner, parameter echo,
// timing and size lines), the benchmark progress spinner, and the JSON
// result document.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/ui"
)

const (
	// ProgressRefreshRate is the spinner animation interval.
	ProgressRefreshRate = 200 * time.Millisecond
	// spinnerCharSet is the braille dots set of briandowns/spinner.
	spinnerCharSet = 11
)

// Extra is an additional "key: value" line printed under the parameters.
type Extra struct {
	Key   string
	Value any
}

// FormatExecutionDuration formats a duration for display: microseconds below
// a millisecond, milliseconds below a second, and the default representation
// otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: The formatted duration.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// FormatSeconds renders d as seconds with six decimals, the precision of
// the "Generation time" line and of the benchmark CSV.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

// FormatCount inserts thousands separators into n.
func FormatCount(n int) string {
	return formatNumberString(strconv.Itoa(n))
}

// PrintHeader writes the "=== name ===" banner preceded by a blank line.
func PrintHeader(out io.Writer, name string) {
	fmt.Fprintf(out, "\n%s=== %s ===%s\n", ui.ColorHeading(), name, ui.ColorReset())
}

// PrintParams echoes the tree parameters, then one indented line per extra.
//
// Parameters:
//   - out: The destination writer.
//   - cfg: The generation configuration; the angle is shown in degrees.
//   - extras: Additional run settings such as workers or split depth.
func PrintParams(out io.Writer, cfg fractal.Config, extras ...Extra) {
	fmt.Fprintf(out, "%sParameters:%s trunk=%s%g%s, ratio=%s%g%s, angle=%s%g°%s, min_length=%s%g%s\n",
		ui.ColorLabel(), ui.ColorReset(),
		ui.ColorAccent(), cfg.TrunkLength, ui.ColorReset(),
		ui.ColorAccent(), cfg.LengthRatio, ui.ColorReset(),
		ui.ColorAccent(), cfg.BranchAngleDegrees, ui.ColorReset(),
		ui.ColorAccent(), cfg.MinLength, ui.ColorReset())
	for _, e := range extras {
		fmt.Fprintf(out, "  %s: %v\n", e.Key, e.Value)
	}
}

// PrintResult writes the timing line and the size line of a run.
func PrintResult(out io.Writer, elapsed time.Duration, branches, maxDepth int) {
	fmt.Fprintf(out, "%sGeneration time:%s %s%ss%s\n",
		ui.ColorLabel(), ui.ColorReset(), ui.ColorValue(), FormatSeconds(elapsed), ui.ColorReset())
	fmt.Fprintf(out, "%sBranches:%s %s%s%s | %sMax depth:%s %s%d%s\n",
		ui.ColorLabel(), ui.ColorReset(), ui.ColorValue(), FormatCount(branches), ui.ColorReset(),
		ui.ColorLabel(), ui.ColorReset(), ui.ColorValue(), maxDepth, ui.ColorReset())
}

// RunTitle names a run for its banner.
func RunTitle(res *fractal.Result) string {
	if res.Mode == fractal.ModeSequential {
		return "Sequential"
	}
	return fmt.Sprintf("Parallel (%d workers)", res.Workers)
}

// RunExtras lists the engine settings shown under the parameters of a run.
func RunExtras(res *fractal.Result) []Extra {
	if res.Mode == fractal.ModeSequential {
		return nil
	}
	return []Extra{
		{"workers", res.Workers},
		{"split_depth", res.SplitDepth},
		{"tasks", res.Tasks},
		{"encoding", res.Encoding},
		{"merge_order", res.Order},
	}
}

// formatNumberString inserts thousand separators into a numeric string.
//
// Parameters:
//   - s: The numeric string to format.
//
// Returns:
//   - string: The formatted string with comma separators.
func formatNumberString(s string) string {
	if s == "" {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var b strings.Builder
	b.Grow(len(prefix) + n + (n-1)/3)
	b.WriteString(prefix)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Spinner abstracts the terminal spinner so progress reporting can be
// tested without a terminal.
type Spinner interface {
	Start()
	Stop()
	// UpdateSuffix sets the text displayed after the spinner glyph.
	UpdateSuffix(suffix string)
}

// realSpinner adapts briandowns/spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

// NewSpinner returns a terminal spinner writing to out.
func NewSpinner(out io.Writer) Spinner {
	s := spinner.New(spinner.CharSets[spinnerCharSet], ProgressRefreshRate, spinner.WithWriter(out))
	return &realSpinner{s}
}

// nopSpinner is used in quiet mode.
type nopSpinner struct{}

func (nopSpinner) Start()              {}
func (nopSpinner) Stop()               {}
func (nopSpinner) UpdateSuffix(string) {}

// ColorProvider supplies theme colours to apperrors.HandleRunError.
type ColorProvider struct{}

// Yellow returns the warning style.
func (ColorProvider) Yellow() string { return ui.ColorYellow() }

// Reset returns the reset escape code.
func (ColorProvider) Reset() string { return ui.ColorReset() }
