package scene

import (
	"fmt"
	"strings"
)

// Axis names a component of a raw coordinate.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

// AxisRef selects a raw axis and its sign.
type AxisRef struct {
	Axis   Axis
	Negate bool
}

// ParseAxisRef accepts "x", "-y", "+z" and so on.
func ParseAxisRef(s string) (AxisRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var ref AxisRef
	switch {
	case strings.HasPrefix(s, "-"):
		ref.Negate = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	switch s {
	case "x":
		ref.Axis = AxisX
	case "y":
		ref.Axis = AxisY
	case "z":
		ref.Axis = AxisZ
	default:
		return AxisRef{}, fmt.Errorf("unknown axis %q", s)
	}
	return ref, nil
}

func (r AxisRef) String() string {
	if r.Negate {
		return "-" + r.Axis.String()
	}
	return r.Axis.String()
}

func (r AxisRef) pick(v Vec3) float64 {
	var c float64
	switch r.Axis {
	case AxisX:
		c = v.X
	case AxisY:
		c = v.Y
	case AxisZ:
		c = v.Z
	}
	if r.Negate {
		return -c
	}
	return c
}

// AxisRemap says which raw axis feeds each scene axis. Scene Y is vertical;
// scene X and Z span the renderer's horizontal plane.
type AxisRemap struct {
	X AxisRef
	Y AxisRef
	Z AxisRef
}

// DefaultAxisRemap puts the orbital plane (raw x, y) on the scene's horizontal
// plane and the out-of-plane raw z on the vertical axis.
var DefaultAxisRemap = AxisRemap{
	X: AxisRef{Axis: AxisX},
	Y: AxisRef{Axis: AxisZ},
	Z: AxisRef{Axis: AxisY},
}

// ParseAxisRemap builds a remap from per-scene-axis strings. Each raw axis
// must be used exactly once.
func ParseAxisRemap(x, y, z string) (AxisRemap, error) {
	var r AxisRemap
	var err error
	if r.X, err = ParseAxisRef(x); err != nil {
		return AxisRemap{}, fmt.Errorf("scene x: %w", err)
	}
	if r.Y, err = ParseAxisRef(y); err != nil {
		return AxisRemap{}, fmt.Errorf("scene y: %w", err)
	}
	if r.Z, err = ParseAxisRef(z); err != nil {
		return AxisRemap{}, fmt.Errorf("scene z: %w", err)
	}
	if r.X.Axis == r.Y.Axis || r.X.Axis == r.Z.Axis || r.Y.Axis == r.Z.Axis {
		return AxisRemap{}, fmt.Errorf("axis remap %s,%s,%s reuses a raw axis", r.X, r.Y, r.Z)
	}
	return r, nil
}

// Policy controls how raw astronomical coordinates become scene positions.
type Policy struct {
	Remap AxisRemap
	// UniformScale converts AU to scene units.
	UniformScale float64
	// Flatten attenuates the vertical axis.
	Flatten float64
	// RadiusOverride fixes the in-plane distance of selected bodies.
	RadiusOverride map[string]float64
}

// DefaultPolicy mirrors the stock layout: 30 units per AU, vertical flattened
// to a fifth, no overrides.
func DefaultPolicy() Policy {
	return Policy{Remap: DefaultAxisRemap, UniformScale: 30, Flatten: 0.2}
}

// Override returns the radius override for body.
func (p Policy) Override(body string) (float64, bool) {
	r, ok := p.RadiusOverride[body]
	return r, ok
}
