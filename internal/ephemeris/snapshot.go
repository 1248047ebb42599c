package ephemeris

import (
	"sort"
	"time"
)

// Snapshot is an immutable set of body positions for one simulated instant.
type Snapshot struct {
	Seq       uint64
	Timestamp time.Time
	positions map[string]Coordinate
}

// NewSnapshot copies positions into a new snapshot.
func NewSnapshot(seq uint64, ts time.Time, positions map[string]Coordinate) *Snapshot {
	cp := make(map[string]Coordinate, len(positions))
	for k, v := range positions {
		cp[k] = v
	}
	return &Snapshot{Seq: seq, Timestamp: ts.UTC(), positions: cp}
}

// Position returns the coordinate of body, if present.
func (s *Snapshot) Position(body string) (Coordinate, bool) {
	if s == nil {
		return Coordinate{}, false
	}
	c, ok := s.positions[body]
	return c, ok
}

// Bodies lists the body ids in the snapshot, sorted.
func (s *Snapshot) Bodies() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.positions))
	for k := range s.positions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bodies.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.positions)
}
