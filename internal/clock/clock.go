// Package clock owns simulated time and the mode it advances in.
package clock

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Mode describes how simulated time advances.
type Mode string

const (
	// Realtime follows the wall clock.
	Realtime Mode = "realtime"
	// Fast runs ahead of the wall clock at Rate days per real second.
	Fast Mode = "fast"
	// Fixed freezes simulated time until the next explicit jump.
	Fixed Mode = "fixed"
)

const (
	// DefaultMaxStep bounds a single FAST advancement step.
	DefaultMaxStep = 250 * time.Millisecond
	// MsPerDay is the number of milliseconds in a day.
	MsPerDay = 86_400_000
)

var (
	// ErrInvalidRate is returned by SetFast for non-positive or non-finite rates.
	ErrInvalidRate = errors.New("rate must be a positive finite number of days per second")
	// ErrInvalidTimestamp is returned by JumpToString when the value cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidMode is returned by ParseMode.
	ErrInvalidMode = errors.New("invalid clock mode")
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Realtime, "":
		return Realtime, nil
	case Fast:
		return Fast, nil
	case Fixed:
		return Fixed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// State is a point-in-time copy of the clock.
type State struct {
	Mode    Mode      `json:"mode"`
	SimTime time.Time `json:"sim_time"`
	Rate    float64   `json:"rate_days_per_second"`
}

// Option configures a SimulatedClock.
type Option func(*SimulatedClock)

// WithNow overrides the wall clock.
func WithNow(now func() time.Time) Option {
	return func(c *SimulatedClock) { c.now = now }
}

// WithMaxStep overrides the FAST clamp. Values <= 0 keep the default.
func WithMaxStep(d time.Duration) Option {
	return func(c *SimulatedClock) {
		if d > 0 {
			c.maxStep = d
		}
	}
}

// WithRate sets the initial FAST rate without changing the mode.
func WithRate(rate float64) Option {
	return func(c *SimulatedClock) {
		if validRate(rate) {
			c.rate = rate
		}
	}
}

// SimulatedClock is safe for concurrent use.
type SimulatedClock struct {
	mu      sync.RWMutex
	mode    Mode
	simTime time.Time
	rate    float64
	maxStep time.Duration
	now     func() time.Time
}

// New returns a clock in REALTIME mode synchronised to now.
func New(opts ...Option) *SimulatedClock {
	c := &SimulatedClock{
		mode:    Realtime,
		rate:    1,
		maxStep: DefaultMaxStep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.simTime = c.wallNow()
	return c
}

func (c *SimulatedClock) wallNow() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

// State returns a copy of the current clock state.
func (c *SimulatedClock) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{Mode: c.mode, SimTime: c.simTime, Rate: c.rate}
}

// Now returns the current simulated time without advancing it.
func (c *SimulatedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.simTime
}

// MaxStep returns the FAST clamp.
func (c *SimulatedClock) MaxStep() time.Duration { return c.maxStep }

// SetRealtime switches to REALTIME and resyncs immediately.
func (c *SimulatedClock) SetRealtime() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Realtime
	c.simTime = c.wallNow()
}

// SetFast switches to FAST at rate days per real second. Simulated time
// continues from its current value.
func (c *SimulatedClock) SetFast(rate float64) error {
	if !validRate(rate) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Fast
	c.rate = rate
	return nil
}

// JumpTo freezes simulated time at t.
func (c *SimulatedClock) JumpTo(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Fixed
	c.simTime = t.UTC().Truncate(time.Millisecond)
}

// JumpToString parses s and jumps to it. Unparsable input leaves the clock
// untouched.
func (c *SimulatedClock) JumpToString(s string) (time.Time, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	c.JumpTo(t)
	return c.Now(), nil
}

// Resync moves simulated time to now keeping the current mode.
func (c *SimulatedClock) Resync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simTime = c.wallNow()
}

// Advance moves simulated time forward by one step and returns it.
func (c *SimulatedClock) Advance(elapsed time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Realtime:
		c.simTime = c.wallNow()
	case Fast:
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed > c.maxStep {
			elapsed = c.maxStep
		}
		c.simTime = c.simTime.Add(Step(elapsed, c.rate))
	}
	return c.simTime
}

// Step is the simulated duration covered by elapsed real time at rate days
// per second, rounded to the millisecond. It does not apply the clamp.
func Step(elapsed time.Duration, rate float64) time.Duration {
	ms := float64(elapsed) / float64(time.Millisecond) * rate * MsPerDay / 1000
	return time.Duration(math.Round(ms)) * time.Millisecond
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps as produced by date pickers.
// Values without a zone are interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// FormatTimestamp renders t in the wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
