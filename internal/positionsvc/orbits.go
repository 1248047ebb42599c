// Package positionsvc serves approximate heliocentric positions over the
// same HTTP contract as the real ephemeris service. Orbits are circular and
// inclined; it is meant for development and tests, not astronomy.
package positionsvc

import (
	"math"
	"time"
)

// J2000 is the reference epoch of the orbit table.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Orbit describes one body on a circular orbit around the origin.
type Orbit struct {
	WireName           string
	SemiMajorAU        float64
	PeriodDays         float64
	InclinationDeg     float64
	AscendingNodeDeg   float64
	MeanLongitudeJ2000 float64 // degrees
}

// Vector is a position in AU.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DefaultOrbits are the Sun and the eight planets.
var DefaultOrbits = []Orbit{
	{WireName: "Sun"},
	{WireName: "Mercury", SemiMajorAU: 0.387, PeriodDays: 87.97, InclinationDeg: 7.005, AscendingNodeDeg: 48.331, MeanLongitudeJ2000: 252.25},
	{WireName: "Venus", SemiMajorAU: 0.723, PeriodDays: 224.70, InclinationDeg: 3.395, AscendingNodeDeg: 76.680, MeanLongitudeJ2000: 181.98},
	{WireName: "Earth", SemiMajorAU: 1.000, PeriodDays: 365.25, InclinationDeg: 0, AscendingNodeDeg: 174.873, MeanLongitudeJ2000: 100.46},
	{WireName: "Mars", SemiMajorAU: 1.524, PeriodDays: 686.97, InclinationDeg: 1.850, AscendingNodeDeg: 49.562, MeanLongitudeJ2000: 355.45},
	{WireName: "Jupiter", SemiMajorAU: 5.204, PeriodDays: 4332.59, InclinationDeg: 1.303, AscendingNodeDeg: 100.556, MeanLongitudeJ2000: 34.40},
	{WireName: "Saturn", SemiMajorAU: 9.582, PeriodDays: 10759.22, InclinationDeg: 2.489, AscendingNodeDeg: 113.715, MeanLongitudeJ2000: 49.94},
	{WireName: "Uranus", SemiMajorAU: 19.201, PeriodDays: 30688.5, InclinationDeg: 0.773, AscendingNodeDeg: 74.230, MeanLongitudeJ2000: 313.23},
	{WireName: "Neptune", SemiMajorAU: 30.047, PeriodDays: 60182, InclinationDeg: 1.770, AscendingNodeDeg: 131.722, MeanLongitudeJ2000: 304.88},
}

// MeanMotion returns the angular rate in degrees per day.
func (o Orbit) MeanMotion() float64 {
	if o.PeriodDays <= 0 {
		return 0
	}
	return 360 / o.PeriodDays
}

// Position returns the heliocentric position at t.
func (o Orbit) Position(t time.Time) Vector {
	if o.SemiMajorAU == 0 {
		return Vector{}
	}
	days := t.Sub(J2000).Hours() / 24
	node := rad(o.AscendingNodeDeg)
	inc := rad(o.InclinationDeg)
	// argument of latitude measured from the ascending node
	u := rad(normalizeDeg(o.MeanLongitudeJ2000 - o.AscendingNodeDeg + o.MeanMotion()*days))

	r := o.SemiMajorAU
	cosU, sinU := math.Cos(u), math.Sin(u)
	cosN, sinN := math.Cos(node), math.Sin(node)
	return Vector{
		X: r * (cosN*cosU - sinN*sinU*math.Cos(inc)),
		Y: r * (sinN*cosU + cosN*sinU*math.Cos(inc)),
		Z: r * sinU * math.Sin(inc),
	}
}

// Model evaluates a set of orbits.
type Model struct {
	orbits []Orbit
}

// NewModel returns a model over orbits; nil means DefaultOrbits.
func NewModel(orbits []Orbit) *Model {
	if orbits == nil {
		orbits = DefaultOrbits
	}
	return &Model{orbits: orbits}
}

// Positions returns every body's position at t keyed by wire name.
func (m *Model) Positions(t time.Time) map[string]Vector {
	out := make(map[string]Vector, len(m.orbits))
	for _, o := range m.orbits {
		out[o.WireName] = o.Position(t)
	}
	return out
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
