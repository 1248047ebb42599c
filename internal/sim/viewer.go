// Viewer driving the simulated clock, position fetches and placement sinks
package sim

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"solarview/internal/clock"
	"solarview/internal/config"
	"solarview/internal/ephemeris"
	"solarview/internal/fetcher"
	"solarview/internal/metrics"
	"solarview/internal/scene"
	"solarview/internal/telemetry"
)

var clockModes = []string{string(clock.Realtime), string(clock.Fast), string(clock.Fixed)}

// Controls are the user-facing clock operations shared by the TUI and the
// admin API.
type Controls interface {
	SetRealtime()
	SetFast(rate float64) error
	JumpTo(ts string) (time.Time, error)
	Refresh()
	State() ViewerState
}

// ViewerState summarises the viewer for status displays.
type ViewerState struct {
	SessionID   string        `json:"session_id"`
	Clock       clock.State   `json:"clock"`
	Fetch       fetcher.Stats `json:"fetch"`
	SnapshotSeq uint64        `json:"snapshot_seq"`
	Status      string        `json:"status,omitempty"`
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithMetrics records clock and frame metrics in m. The same collector should
// be handed to the fetcher through NewViewer.
func WithMetrics(m *metrics.Collector) Option {
	return func(v *Viewer) { v.metrics = m }
}

// WithWallClock replaces time.Now for the viewer and its clock.
func WithWallClock(now func() time.Time) Option {
	return func(v *Viewer) { v.now = now }
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(v *Viewer) { v.sessionID = id }
}

// Viewer owns one SimulatedClock, one Fetcher and the scene policy, and turns
// them into placement frames at a fixed frame interval.
type Viewer struct {
	sessionID     string
	clock         *clock.SimulatedClock
	fetcher       *fetcher.Fetcher
	policy        scene.Policy
	bodies        []string
	central       string
	writer        PlacementWriter
	metrics       *metrics.Collector
	frameInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	lastTick  time.Time
	supersede bool
	status    string
	lastFrame telemetry.PlacementFrame

	// last placement per body, refreshed once per applied snapshot
	placed    map[string]scene.Placement
	placedSeq uint64

	fetches sync.WaitGroup
	frames  atomic.Uint64
}

// NewPositionClient builds the position service client described by cfg.
func NewPositionClient(cfg *config.Config) (*ephemeris.Client, error) {
	bodies := make([]ephemeris.Body, len(cfg.Bodies))
	for i, b := range cfg.Bodies {
		bodies[i] = ephemeris.Body{ID: b.ID, WireName: b.WireName}
	}
	table, err := ephemeris.NewBodyTable(bodies)
	if err != nil {
		return nil, fmt.Errorf("body table: %w", err)
	}
	return ephemeris.NewClient(cfg.Service.BaseURL,
		ephemeris.WithHTTPClient(&http.Client{Timeout: cfg.Service.Timeout}),
		ephemeris.WithBodyTable(table),
		ephemeris.WithCacheBusting(cfg.Service.CacheBust),
	), nil
}

// NewPolicy builds the scene policy described by cfg.
func NewPolicy(cfg *config.Config) (scene.Policy, error) {
	remap, err := scene.ParseAxisRemap(cfg.Scene.AxisRemap.X, cfg.Scene.AxisRemap.Y, cfg.Scene.AxisRemap.Z)
	if err != nil {
		return scene.Policy{}, err
	}
	return scene.Policy{
		Remap:          remap,
		UniformScale:   cfg.Scene.AUToUnits,
		Flatten:        cfg.Scene.Flatten,
		RadiusOverride: cfg.RadiusOverrides(),
	}, nil
}

// NewViewer wires a clock, a fetcher over source and the scene policy from
// cfg. Frames go to writer.
func NewViewer(cfg *config.Config, source fetcher.Source, writer PlacementWriter, opts ...Option) (*Viewer, error) {
	v := &Viewer{
		writer:        writer,
		frameInterval: cfg.FrameInterval,
		now:           time.Now,
		bodies:        cfg.BodyIDs(),
		central:       cfg.Scene.CentralBody,
		placed:        make(map[string]scene.Placement),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.sessionID == "" {
		v.sessionID = uuid.New().String()
	}
	if v.frameInterval <= 0 {
		v.frameInterval = 50 * time.Millisecond
	}
	if v.central != "" {
		if _, ok := cfg.Body(v.central); !ok {
			return nil, fmt.Errorf("central body %q is not configured", v.central)
		}
	}

	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	v.policy = policy

	mode, err := clock.ParseMode(cfg.Clock.Mode)
	if err != nil {
		return nil, err
	}
	v.clock = clock.New(
		clock.WithNow(v.now),
		clock.WithMaxStep(cfg.Clock.MaxStep),
		clock.WithRate(cfg.Clock.RateDaysPerSecond),
	)
	if cfg.Clock.Start != "" {
		if _, err := v.clock.JumpToString(cfg.Clock.Start); err != nil {
			return nil, fmt.Errorf("clock.start: %w", err)
		}
	}
	switch mode {
	case clock.Realtime:
		v.clock.SetRealtime()
	case clock.Fast:
		if err := v.clock.SetFast(cfg.Clock.RateDaysPerSecond); err != nil {
			return nil, err
		}
	case clock.Fixed:
		if cfg.Clock.Start == "" {
			v.clock.JumpTo(v.now())
		}
	}

	v.fetcher = fetcher.New(source, cfg.Fetch.MinInterval, fetcher.WithMetrics(v.metrics))
	return v, nil
}

// SessionID identifies this viewer in frames and logs.
func (v *Viewer) SessionID() string { return v.sessionID }

// Clock exposes the simulated clock.
func (v *Viewer) Clock() *clock.SimulatedClock { return v.clock }

// Fetcher exposes the position fetcher.
func (v *Viewer) Fetcher() *fetcher.Fetcher { return v.fetcher }

// Policy returns the scene policy in use.
func (v *Viewer) Policy() scene.Policy { return v.policy }

// FrameInterval returns the frame period.
func (v *Viewer) FrameInterval() time.Duration { return v.frameInterval }

// Frames returns the number of frames emitted so far.
func (v *Viewer) Frames() uint64 { return v.frames.Load() }

// SetRealtime switches to REALTIME. The displayed instant jumps to now, so
// the next fetch does not wait for an older outstanding one.
func (v *Viewer) SetRealtime() {
	v.clock.SetRealtime()
	v.requestSupersede("switched to realtime")
}

// SetFast switches to FAST at rate days per second.
func (v *Viewer) SetFast(rate float64) error {
	if err := v.clock.SetFast(rate); err != nil {
		v.setStatus(fmt.Sprintf("rejected rate %v: %v", rate, err))
		return err
	}
	v.setStatus(fmt.Sprintf("fast at %g days/s", rate))
	return nil
}

// JumpTo freezes the clock at the parsed timestamp. Unparsable input leaves
// the clock unchanged.
func (v *Viewer) JumpTo(ts string) (time.Time, error) {
	t, err := v.clock.JumpToString(ts)
	if err != nil {
		v.setStatus(fmt.Sprintf("ignored jump: %v", err))
		return time.Time{}, err
	}
	v.requestSupersede("jumped to " + clock.FormatTimestamp(t))
	return t, nil
}

// Refresh resyncs simulated time to now in the current mode and asks for
// fresh positions on the next open gate slot.
func (v *Viewer) Refresh() {
	v.clock.Resync()
	v.requestSupersede("refreshed")
}

func (v *Viewer) requestSupersede(status string) {
	v.mu.Lock()
	v.supersede = true
	v.status = status
	v.mu.Unlock()
}

// State returns a point-in-time summary.
func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	status := v.status
	v.mu.Unlock()
	st := ViewerState{
		SessionID: v.sessionID,
		Clock:     v.clock.State(),
		Fetch:     v.fetcher.Stats(),
		Status:    status,
	}
	if snap := v.fetcher.Latest(); snap != nil {
		st.SnapshotSeq = snap.Seq
	}
	return st
}

// LastFrame returns the most recently emitted frame.
func (v *Viewer) LastFrame() telemetry.PlacementFrame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastFrame
}

func (v *Viewer) setStatus(s string) {
	v.mu.Lock()
	v.status = s
	v.mu.Unlock()
}

func (v *Viewer) currentStatus() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}
