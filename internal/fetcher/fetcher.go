// Package fetcher throttles and sequences queries to the position service.
package fetcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"solarview/internal/ephemeris"
	"solarview/internal/logging"
	"solarview/internal/metrics"
)

// Source answers position queries. *ephemeris.Client implements it.
type Source interface {
	Positions(ctx context.Context, t time.Time) (map[string]ephemeris.Coordinate, error)
}

// Stats counts fetcher activity since construction.
type Stats struct {
	Issued     uint64 `json:"issued"`
	Applied    uint64 `json:"applied"`
	Discarded  uint64 `json:"discarded"`
	Failed     uint64 `json:"failed"`
	Skipped    uint64 `json:"skipped"`
	AppliedSeq uint64 `json:"applied_seq"`
	InFlight   int    `json:"in_flight"`
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records fetch activity in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *Fetcher) { f.metrics = c }
}

// Fetcher is the only writer of the current snapshot. Readers use Latest.
type Fetcher struct {
	source  Source
	metrics *metrics.Collector

	mu         sync.Mutex
	gate       Gate
	inFlight   int
	nextSeq    uint64
	appliedSeq uint64
	stats      Stats

	// newest issued query while it is outstanding
	pendingSeq  uint64
	pendingTime time.Time

	latest atomic.Pointer[ephemeris.Snapshot]
}

// New returns a fetcher that issues at most one query per minInterval.
func New(source Source, minInterval time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{source: source, gate: Gate{MinInterval: minInterval}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MinInterval returns the gate interval.
func (f *Fetcher) MinInterval() time.Duration { return f.gate.MinInterval }

// Latest returns the most recently applied snapshot or nil.
func (f *Fetcher) Latest() *ephemeris.Snapshot {
	return f.latest.Load()
}

// AppliedSeq returns the sequence number of the latest applied snapshot.
func (f *Fetcher) AppliedSeq() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appliedSeq
}

// Stats returns a copy of the counters.
func (f *Fetcher) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats
	s.AppliedSeq = f.appliedSeq
	s.InFlight = f.inFlight
	return s
}

// RequestUpdate queries positions for simTime when the gate is open and no
// request is outstanding. Otherwise it returns (nil, nil) without I/O and the
// caller keeps drawing the previous snapshot. A completed response that was
// overtaken by a later-issued one is discarded and also reported as nil.
// On failure the stored snapshot is left untouched.
func (f *Fetcher) RequestUpdate(ctx context.Context, simTime, nowReal time.Time) (*ephemeris.Snapshot, error) {
	q, ok := f.Reserve(simTime, nowReal, false)
	if !ok {
		return nil, nil
	}
	return q.Run(ctx)
}

// Supersede behaves like RequestUpdate but does not wait for an outstanding
// request. It is used when the displayed instant changed discontinuously and
// the response of the older request is no longer wanted.
func (f *Fetcher) Supersede(ctx context.Context, simTime, nowReal time.Time) (*ephemeris.Snapshot, error) {
	q, ok := f.Reserve(simTime, nowReal, true)
	if !ok {
		return nil, nil
	}
	return q.Run(ctx)
}

// Query is an issued request that has not been sent yet.
type Query struct {
	f       *Fetcher
	Seq     uint64
	SimTime time.Time
}

// Reserve claims the next issuance slot without doing I/O. ok is false when
// the gate is closed or, unless supersede is set, a request is outstanding or
// simTime is already applied or being fetched.
// A reserved query must be Run exactly once.
func (f *Fetcher) Reserve(simTime, nowReal time.Time, supersede bool) (*Query, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !supersede && f.inFlight > 0 {
		f.skipLocked("in_flight")
		return nil, false
	}
	if !supersede && f.duplicateLocked(simTime) {
		f.skipLocked("duplicate")
		return nil, false
	}
	if !f.gate.TryIssue(nowReal) {
		f.skipLocked("gate")
		return nil, false
	}
	f.nextSeq++
	f.inFlight++
	f.pendingSeq = f.nextSeq
	f.pendingTime = simTime
	f.stats.Issued++
	f.metrics.Issued()
	return &Query{f: f, Seq: f.nextSeq, SimTime: simTime}, true
}

// Run sends the query and applies the response if nothing newer has been
// applied in the meantime.
func (q *Query) Run(ctx context.Context) (*ephemeris.Snapshot, error) {
	f := q.f
	log := logging.FromContext(ctx).With("seq", q.Seq, "sim_time", q.SimTime.UTC().Format(time.RFC3339))
	start := time.Now()
	positions, err := f.source.Positions(ctx, q.SimTime)
	elapsed := time.Since(start).Seconds()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if q.Seq == f.pendingSeq {
		f.pendingSeq = 0
	}
	if err != nil {
		f.stats.Failed++
		f.metrics.Completed(metrics.OutcomeFailed, elapsed)
		return nil, fmt.Errorf("position query seq %d: %w", q.Seq, err)
	}
	if q.Seq <= f.appliedSeq {
		f.stats.Discarded++
		f.metrics.Completed(metrics.OutcomeDiscarded, elapsed)
		log.Debug("discarding stale position response", "applied_seq", f.appliedSeq)
		return nil, nil
	}
	snap := ephemeris.NewSnapshot(q.Seq, q.SimTime, positions)
	f.appliedSeq = q.Seq
	f.latest.Store(snap)
	f.stats.Applied++
	f.metrics.Completed(metrics.OutcomeApplied, elapsed)
	log.Debug("applied position snapshot", "bodies", snap.Len())
	return snap, nil
}

func (f *Fetcher) duplicateLocked(simTime time.Time) bool {
	if f.pendingSeq != 0 && f.pendingTime.Equal(simTime) {
		return true
	}
	latest := f.latest.Load()
	return latest != nil && latest.Timestamp.Equal(simTime)
}

func (f *Fetcher) skipLocked(reason string) {
	f.stats.Skipped++
	f.metrics.Skipped(reason)
}
