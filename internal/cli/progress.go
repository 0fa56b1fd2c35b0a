package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// maxETA caps the displayed estimate.
const maxETA = 24 * time.Hour

// Progress reports a fixed number of sequential steps, such as the runs of
// a benchmark session, on a spinner line "Run i/n (label) ETA: x". The ETA
// is the mean duration of the completed steps times the steps left.
// Progress is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	spin    Spinner
	total   int
	done    int
	started time.Time
	now     func() time.Time
}

// NewProgress returns a Progress for total steps drawing on out. When
// enabled is false nothing is drawn.
func NewProgress(out io.Writer, total int, enabled bool) *Progress {
	var s Spinner = nopSpinner{}
	if enabled {
		s = NewSpinner(out)
	}
	return NewProgressWithSpinner(s, total)
}

// NewProgressWithSpinner returns a Progress drawing on s.
func NewProgressWithSpinner(s Spinner, total int) *Progress {
	return &Progress{spin: s, total: total, now: time.Now}
}

// Start begins the animation and the clock.
func (p *Progress) Start() {
	p.mu.Lock()
	p.started = p.now()
	p.mu.Unlock()
	p.spin.Start()
}

// Begin announces the next step.
//
// Parameters:
//   - label: A short description of the step, e.g. "4 cores, run 2".
func (p *Progress) Begin(label string) {
	p.mu.Lock()
	suffix := fmt.Sprintf(" Run %d/%d (%s) ETA: %s", p.done+1, p.total, label, FormatETA(p.etaLocked()))
	p.mu.Unlock()
	p.spin.UpdateSuffix(suffix)
}

// Complete records the end of the current step.
func (p *Progress) Complete() {
	p.mu.Lock()
	if p.done < p.total {
		p.done++
	}
	p.mu.Unlock()
}

// Stop halts the animation.
func (p *Progress) Stop() {
	p.spin.Stop()
}

// Done returns the number of completed steps.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// ETA returns the estimated time to finish, or 0 before the first step
// completes.
func (p *Progress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked()
}

func (p *Progress) etaLocked() time.Duration {
	if p.done == 0 || p.done >= p.total {
		return 0
	}
	elapsed := p.now().Sub(p.started)
	eta := elapsed / time.Duration(p.done) * time.Duration(p.total-p.done)
	return min(eta, maxETA)
}

// FormatETA renders an estimate for the spinner line.
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(eta.Minutes()), int(eta.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(eta.Hours()), int(eta.Minutes())%60)
}
