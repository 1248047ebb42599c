package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCollectorRecordsFetches(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.Issued()
	c.Issued()
	c.Completed(OutcomeApplied, 0.02)
	c.Completed(OutcomeFailed, 0.5)
	c.Skipped("gate")

	if got := testutil.ToFloat64(c.FetchIssued); got != 2 {
		t.Fatalf("issued = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.FetchOutcomes.WithLabelValues(OutcomeFailed)); got != 1 {
		t.Fatalf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.FetchSkipped.WithLabelValues("gate")); got != 1 {
		t.Fatalf("skipped = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "solarview_fetch_duration_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	if hist == nil || hist.GetSampleCount() != 2 {
		t.Fatalf("expected 2 duration samples, got %+v", hist)
	}
}

func TestCollectorReRegistersExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	second.Issued()
	if got := testutil.ToFloat64(first.FetchIssued); got != 1 {
		t.Fatalf("collectors not shared: %v", got)
	}
}

func TestSetClockAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.SetClock("fast", 10, []string{"realtime", "fast", "fixed"})
	if got := testutil.ToFloat64(c.ClockMode.WithLabelValues("fast")); got != 1 {
		t.Fatalf("fast mode gauge = %v", got)
	}
	if got := testutil.ToFloat64(c.ClockMode.WithLabelValues("fixed")); got != 0 {
		t.Fatalf("fixed mode gauge = %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "solarview_clock_rate_days_per_second 10") {
		t.Fatalf("metrics output missing clock rate: %s", body)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.Issued()
	c.Completed(OutcomeApplied, 1)
	c.Skipped("gate")
	c.SetClock("fast", 1, nil)
	c.Frame(0)
}
