// Frame and row types shared by the placement sinks.
package telemetry

import (
	"os"
	"time"

	"solarview/internal/scene"
)

// PlacementFrame is everything a sink needs to draw one cycle.
type PlacementFrame struct {
	SessionID    string            `json:"session_id"`
	SimTime      time.Time         `json:"sim_time"`
	Mode         string            `json:"mode"`
	Rate         float64           `json:"rate_days_per_second"`
	SnapshotSeq  uint64            `json:"snapshot_seq"`
	SnapshotTime time.Time         `json:"snapshot_time"`
	Placements   []scene.Placement `json:"placements"`
	Status       string            `json:"status,omitempty"`
	Timestamp    time.Time         `json:"ts"`
}

// HasSnapshot reports whether the frame was built from position data.
func (f PlacementFrame) HasSnapshot() bool {
	return f.SnapshotSeq > 0
}

// PlacementRow is one body of one frame, flattened for storage.
type PlacementRow struct {
	SessionID    string    `json:"session_id"` // TAG
	Body         string    `json:"body"`       // TAG
	SceneX       float64   `json:"scene_x"`    // FIELD
	SceneY       float64   `json:"scene_y"`    // FIELD
	SceneZ       float64   `json:"scene_z"`    // FIELD
	SimTime      time.Time `json:"sim_time"`   // FIELD
	Mode         string    `json:"mode"`       // FIELD
	SnapshotSeq  uint64    `json:"snapshot_seq"`
	SnapshotTime time.Time `json:"snapshot_time"`
	Timestamp    time.Time `json:"ts"` // TIME INDEX
}

// Rows flattens a frame.
func (f PlacementFrame) Rows() []PlacementRow {
	rows := make([]PlacementRow, 0, len(f.Placements))
	for _, p := range f.Placements {
		rows = append(rows, PlacementRow{
			SessionID:    f.SessionID,
			Body:         p.Body,
			SceneX:       p.Position.X,
			SceneY:       p.Position.Y,
			SceneZ:       p.Position.Z,
			SimTime:      f.SimTime,
			Mode:         f.Mode,
			SnapshotSeq:  f.SnapshotSeq,
			SnapshotTime: f.SnapshotTime,
			Timestamp:    f.Timestamp,
		})
	}
	return rows
}

// PlacementTableName holds the table name used when writing to GreptimeDB.
// It defaults to "body_placements" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var PlacementTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "body_placements"
}()

func (PlacementRow) TableName() string {
	return PlacementTableName
}
