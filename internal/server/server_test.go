package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/pkg/models"
)

// fakeService records the requested configuration.
type fakeService struct {
	mu      sync.Mutex
	got     fractal.Config
	summary models.GenerateSummary
	err     error
	panic   bool
}

func (f *fakeService) Generate(_ context.Context, cfg fractal.Config) (models.GenerateSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	f.got = cfg
	return f.summary, f.err
}

func testConfig() config.AppConfig {
	cfg := config.Default()
	cfg.MaxBranches = 1 << 12
	return cfg
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return NewServer(testConfig(), append([]Option{WithLogger(logging.NewNopLogger())}, opts...)...)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestHandleGenerateParameters(t *testing.T) {
	t.Parallel()
	svc := &fakeService{summary: models.GenerateSummary{TotalBranches: 42}}
	s := newTestServer(t, WithService(svc))

	rec := get(t, s.Handler(), "/generate?trunk_length=50&ratio=0.6&angle=25&min_length=0.5&workers=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	want := fractal.Config{TrunkLength: 50, LengthRatio: 0.6, BranchAngleDegrees: 25, MinLength: 0.5, Workers: 3}
	if svc.got != want {
		t.Errorf("service got %+v, want %+v", svc.got, want)
	}
	var sum models.GenerateSummary
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil || sum.TotalBranches != 42 {
		t.Errorf("unexpected body %+v, %v", sum, err)
	}

	get(t, s.Handler(), "/generate")
	if svc.got != testConfig().Generation() {
		t.Errorf("missing parameters must use the defaults, got %+v", svc.got)
	}
}

func TestHandleGenerateErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		body   string
	}{
		{"malformed ratio", "?ratio=abc", nil, http.StatusBadRequest, "ratio"},
		{"negative workers", "?workers=-2", nil, http.StatusBadRequest, "workers"},
		{"too many workers", "?workers=5000", nil, http.StatusBadRequest, "workers"},
		{"timeout", "", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline"},
		{"internal", "", errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, WithService(&fakeService{err: tt.err}))
			rec := get(t, s.Handler(), "/generate"+tt.query)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != http.StatusText(tt.status) || !strings.Contains(resp.Message, tt.body) {
				t.Errorf("unexpected error body %+v", resp)
			}
		})
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"small tree", "?trunk_length=100&ratio=0.5&min_length=1&workers=2", http.StatusOK},
		{"ratio one rejected", "?ratio=1", http.StatusBadRequest},
		{"above the size limit", "?min_length=0.01", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := get(t, s.Handler(), "/generate"+tt.query)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if tt.status != http.StatusOK {
				return
			}
			var sum models.GenerateSummary
			if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
				t.Fatal(err)
			}
			if sum.TotalBranches != 127 || sum.MaxDepth != 6 || sum.Workers != 2 || sum.Fingerprint == "" {
				t.Errorf("unexpected summary %+v", sum)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("health: %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("health content type = %q", ct)
	}

	get(t, s.Handler(), "/generate?min_length=1&ratio=0.5")
	rec = get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	for _, name := range []string{"fractree_http_requests_total", "fractree_generations_total"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metrics lack %s", name)
		}
	}
}

func TestRoutingAndRecovery(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, WithService(&fakeService{panic: true}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate", http.NoBody))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /generate = %d, want 405", rec.Code)
	}
	if rec := get(t, s.Handler(), "/nowhere"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nowhere = %d, want 404", rec.Code)
	}
	if rec := get(t, s.Handler(), "/generate"); rec.Code != http.StatusInternalServerError {
		t.Errorf("panicking handler = %d, want 500", rec.Code)
	}
}

func TestServeGracefulShutdown(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, WithTimeouts(Timeouts{
		RequestTimeout: time.Second, ShutdownTimeout: 5 * time.Second,
		ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health over TCP = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
