// Package scene converts heliocentric coordinates into scene positions.
package scene

import (
	"math"

	"solarview/internal/ephemeris"
)

// epsilon replaces a zero in-plane magnitude.
const epsilon = 1e-9

// Vec3 is a position in scene units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Placement is one body's scene position for the current cycle.
type Placement struct {
	Body     string `json:"body"`
	Position Vec3   `json:"position"`
	Central  bool   `json:"central,omitempty"`
}

// MapBody maps one raw coordinate. The result never contains NaN or Inf for
// finite input.
func MapBody(body string, raw ephemeris.Coordinate, p Policy) Vec3 {
	v := Vec3{X: raw.X, Y: raw.Y, Z: raw.Z}
	out := Vec3{
		X: p.Remap.X.pick(v) * p.UniformScale,
		Y: p.Remap.Y.pick(v) * p.UniformScale * p.Flatten,
		Z: p.Remap.Z.pick(v) * p.UniformScale,
	}
	r, ok := p.Override(body)
	if !ok {
		return out
	}
	mag := math.Hypot(out.X, out.Z)
	if mag == 0 {
		mag = epsilon
	}
	out.X = out.X / mag * r
	out.Z = out.Z / mag * r
	return out
}

// MapSnapshot maps every body in bodies that the snapshot carries. Missing
// bodies are skipped so the caller keeps their previous placement; central is
// always placed at the origin.
func MapSnapshot(snap *ephemeris.Snapshot, bodies []string, central string, p Policy) []Placement {
	out := make([]Placement, 0, len(bodies)+1)
	if central != "" {
		out = append(out, Placement{Body: central, Central: true})
	}
	for _, b := range bodies {
		if b == central {
			continue
		}
		raw, ok := snap.Position(b)
		if !ok {
			continue
		}
		out = append(out, Placement{Body: b, Position: MapBody(b, raw, p)})
	}
	return out
}

// InPlaneRadius is the distance from the vertical axis.
func (v Vec3) InPlaneRadius() float64 {
	return math.Hypot(v.X, v.Z)
}
