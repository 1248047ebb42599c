// Package metrics exposes Prometheus collectors for the fetch pipeline and the
// simulated clock.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

// Collector bundles the solarview metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	FetchIssued   prometheus.Counter
	FetchOutcomes *prometheus.CounterVec
	FetchSkipped  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	SnapshotAge   prometheus.Gauge
	ClockRate     prometheus.Gauge
	ClockMode     *prometheus.GaugeVec
	Frames        prometheus.Counter
}

// NewCollector registers metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error
	if c.FetchIssued, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solarview_fetch_issued_total",
		Help: "Position queries issued to the position service.",
	}), "solarview_fetch_issued_total"); err != nil {
		return nil, err
	}
	if c.FetchOutcomes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarview_fetch_completed_total",
		Help: "Completed position queries by outcome (applied, discarded, failed).",
	}, []string{"outcome"}), "solarview_fetch_completed_total"); err != nil {
		return nil, err
	}
	if c.FetchSkipped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarview_fetch_skipped_total",
		Help: "Update requests answered without I/O, by reason (gate, in_flight, duplicate).",
	}, []string{"reason"}), "solarview_fetch_skipped_total"); err != nil {
		return nil, err
	}
	if c.FetchDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solarview_fetch_duration_seconds",
		Help:    "Position query latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "solarview_fetch_duration_seconds"); err != nil {
		return nil, err
	}
	if c.SnapshotAge, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solarview_snapshot_lag_seconds",
		Help: "Difference between displayed simulated time and the applied snapshot time.",
	}), "solarview_snapshot_lag_seconds"); err != nil {
		return nil, err
	}
	if c.ClockRate, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solarview_clock_rate_days_per_second",
		Help: "Configured FAST rate of the simulated clock.",
	}), "solarview_clock_rate_days_per_second"); err != nil {
		return nil, err
	}
	if c.ClockMode, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "solarview_clock_mode",
		Help: "1 for the active simulated clock mode, 0 otherwise.",
	}, []string{"mode"}), "solarview_clock_mode"); err != nil {
		return nil, err
	}
	if c.Frames, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solarview_frames_total",
		Help: "Placement frames handed to the configured sinks.",
	}), "solarview_frames_total"); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Issued records an issued query.
func (c *Collector) Issued() {
	if c == nil {
		return
	}
	c.FetchIssued.Inc()
}

// Completed records a finished query.
func (c *Collector) Completed(outcome string, seconds float64) {
	if c == nil {
		return
	}
	c.FetchOutcomes.WithLabelValues(outcome).Inc()
	c.FetchDuration.Observe(seconds)
}

// Skipped records an update request that did not reach the network.
func (c *Collector) Skipped(reason string) {
	if c == nil {
		return
	}
	c.FetchSkipped.WithLabelValues(reason).Inc()
}

// SetClock publishes the active mode and rate.
func (c *Collector) SetClock(mode string, rate float64, modes []string) {
	if c == nil {
		return
	}
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		c.ClockMode.WithLabelValues(m).Set(v)
	}
	c.ClockRate.Set(rate)
}

// Frame records one emitted frame and the lag of its snapshot.
func (c *Collector) Frame(lagSeconds float64) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.SnapshotAge.Set(lagSeconds)
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
