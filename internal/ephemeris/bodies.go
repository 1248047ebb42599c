package ephemeris

import (
	"fmt"
	"sort"
	"strings"
)

// Body pairs an internal lowercase identifier with the name the position
// service uses on the wire.
type Body struct {
	ID       string
	WireName string
}

// DefaultBodies is the fixed name table of the position service.
var DefaultBodies = []Body{
	{ID: "sun", WireName: "Sun"},
	{ID: "mercury", WireName: "Mercury"},
	{ID: "venus", WireName: "Venus"},
	{ID: "earth", WireName: "Earth"},
	{ID: "mars", WireName: "Mars"},
	{ID: "jupiter", WireName: "Jupiter"},
	{ID: "saturn", WireName: "Saturn"},
	{ID: "uranus", WireName: "Uranus"},
	{ID: "neptune", WireName: "Neptune"},
}

// BodyTable translates between internal ids and wire names. The mapping is
// explicit; names are never case-folded to find a match.
type BodyTable struct {
	byID   map[string]string
	byWire map[string]string
}

// NewBodyTable builds a table, rejecting duplicate ids or wire names.
func NewBodyTable(bodies []Body) (*BodyTable, error) {
	t := &BodyTable{byID: make(map[string]string, len(bodies)), byWire: make(map[string]string, len(bodies))}
	for _, b := range bodies {
		id := strings.TrimSpace(b.ID)
		wire := strings.TrimSpace(b.WireName)
		if id == "" || wire == "" {
			return nil, fmt.Errorf("body table: empty id or wire name in %+v", b)
		}
		if _, dup := t.byID[id]; dup {
			return nil, fmt.Errorf("body table: duplicate id %q", id)
		}
		if _, dup := t.byWire[wire]; dup {
			return nil, fmt.Errorf("body table: duplicate wire name %q", wire)
		}
		t.byID[id] = wire
		t.byWire[wire] = id
	}
	return t, nil
}

// DefaultBodyTable returns the table for DefaultBodies.
func DefaultBodyTable() *BodyTable {
	t, err := NewBodyTable(DefaultBodies)
	if err != nil {
		panic(err)
	}
	return t
}

// WireName returns the wire name for id.
func (t *BodyTable) WireName(id string) (string, bool) {
	w, ok := t.byID[id]
	return w, ok
}

// ID returns the internal id for a wire name.
func (t *BodyTable) ID(wire string) (string, bool) {
	id, ok := t.byWire[wire]
	return id, ok
}

// IDs returns all internal ids in sorted order.
func (t *BodyTable) IDs() []string {
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
