package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"solarview/internal/telemetry"
)

// JSONStdoutWriter prints placement frames as JSON lines.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
	// OnlyChanges suppresses frames whose snapshot was already printed.
	OnlyChanges bool
	lastSeq     uint64
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WritePlacements outputs a frame in JSON format.
func (w *JSONStdoutWriter) WritePlacements(f telemetry.PlacementFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.OnlyChanges && f.SnapshotSeq == w.lastSeq {
		return nil
	}
	w.lastSeq = f.SnapshotSeq
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteFrames outputs multiple frames in JSON format.
func (w *JSONStdoutWriter) WriteFrames(frames []telemetry.PlacementFrame) error {
	for _, f := range frames {
		if err := w.WritePlacements(f); err != nil {
			return err
		}
	}
	return nil
}
