package sim

import "solarview/internal/telemetry"

// PlacementWriter is an interface to support different placement sinks.
type PlacementWriter interface {
	WritePlacements(telemetry.PlacementFrame) error
}

// Optional: writers may accept several frames at once
type batchWriter interface {
	WriteFrames([]telemetry.PlacementFrame) error
}

// writeFrames uses batch mode when w supports it.
func writeFrames(w PlacementWriter, frames []telemetry.PlacementFrame) error {
	if len(frames) == 0 {
		return nil
	}
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteFrames(frames)
	}
	for _, f := range frames {
		if err := w.WritePlacements(f); err != nil {
			return err
		}
	}
	return nil
}
