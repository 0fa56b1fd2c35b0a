package cli

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (f *fakeSpinner) Start() { f.mu.Lock(); f.started = true; f.mu.Unlock() }
func (f *fakeSpinner) Stop()  { f.mu.Lock(); f.stopped = true; f.mu.Unlock() }
func (f *fakeSpinner) UpdateSuffix(s string) {
	f.mu.Lock()
	f.suffixes = append(f.suffixes, s)
	f.mu.Unlock()
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestProgress(t *testing.T) {
	t.Parallel()
	spin := &fakeSpinner{}
	clock := &fakeClock{t: time.Unix(0, 0), step: 0}
	p := NewProgressWithSpinner(spin, 4)
	p.now = clock.now

	p.Start()
	p.Begin("1 cores, run 1")
	if p.ETA() != 0 {
		t.Errorf("ETA before the first step = %v", p.ETA())
	}
	clock.step = 10 * time.Second
	p.Complete()
	// One step done in 10s of elapsed time, three left.
	if eta := p.ETA(); eta != 30*time.Second {
		t.Errorf("ETA = %v, want 30s", eta)
	}
	p.Begin("1 cores, run 2")
	for range 5 {
		p.Complete()
	}
	if p.Done() != 4 || p.ETA() != 0 {
		t.Errorf("Done = %d, ETA = %v after completion", p.Done(), p.ETA())
	}
	p.Stop()

	if !spin.started || !spin.stopped {
		t.Error("spinner not started and stopped")
	}
	if len(spin.suffixes) != 2 {
		t.Fatalf("got %d suffix updates, want 2", len(spin.suffixes))
	}
	if spin.suffixes[0] != " Run 1/4 (1 cores, run 1) ETA: calculating..." {
		t.Errorf("first suffix = %q", spin.suffixes[0])
	}
	if !strings.HasPrefix(spin.suffixes[1], " Run 2/4 (1 cores, run 2) ETA: ") {
		t.Errorf("second suffix = %q", spin.suffixes[1])
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "calculating..."},
		{300 * time.Millisecond, "< 1s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 7*time.Second, "3m07s"},
		{2*time.Hour + 5*time.Minute, "2h05m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.in); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuietProgressDrawsNothing(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	p := NewProgress(&sb, 2, false)
	p.Start()
	p.Begin("x")
	p.Complete()
	p.Stop()
	if sb.Len() != 0 {
		t.Errorf("quiet progress wrote %q", sb.String())
	}
}
