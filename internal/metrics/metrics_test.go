package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"wallpaper/internal/domain"
)

func TestCollectorRecordsCycles(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	c.CycleStarted("timer")
	c.CycleStarted("timer")
	c.CycleStarted("regenerate")
	c.CycleFinished(domain.KindNone, time.Second)
	c.CycleFinished(domain.KindRateLimited, 2*time.Second)
	c.StateObserved(42, true, 7)

	if got := testutil.ToFloat64(c.cycles.WithLabelValues("timer")); got != 2 {
		t.Fatalf("timer cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.failures.WithLabelValues("rate_limited")); got != 1 {
		t.Fatalf("rate limited failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.failures); got != 1 {
		t.Fatalf("failure series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(c.countdown); got != 42 {
		t.Fatalf("countdown = %v", got)
	}
	if got := testutil.ToFloat64(c.history); got != 7 {
		t.Fatalf("history = %v", got)
	}
	if got := testutil.ToFloat64(c.paused); got != 1 {
		t.Fatalf("paused = %v", got)
	}
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New returned error: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	c.CycleStarted("startup")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `wallpaper_cycles_started_total{trigger="startup"} 1`) {
		t.Fatalf("metrics body missing cycle counter:\n%s", body)
	}
}
