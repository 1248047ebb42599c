package sim

import (
	"errors"

	"solarview/internal/telemetry"
)

// MultiWriter fans placement frames out to multiple writers.
type MultiWriter struct {
	writers []PlacementWriter
}

// NewMultiWriter creates a new MultiWriter. Nil writers are dropped.
func NewMultiWriter(ws ...PlacementWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// WritePlacements sends a frame to all writers. A failing writer does not
// stop the others.
func (mw *MultiWriter) WritePlacements(f telemetry.PlacementFrame) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WritePlacements(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteFrames sends multiple frames to all writers, using batch if supported.
func (mw *MultiWriter) WriteFrames(frames []telemetry.PlacementFrame) error {
	var errs []error
	for _, w := range mw.writers {
		if err := writeFrames(w, frames); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetControls forwards the viewer controls to writers that accept them.
func (mw *MultiWriter) SetControls(c Controls) {
	for _, w := range mw.writers {
		if cw, ok := w.(interface{ SetControls(Controls) }); ok {
			cw.SetControls(c)
		}
	}
}

// SetAdminStatus forwards the admin indicator to writers that show it.
func (mw *MultiWriter) SetAdminStatus(active bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(interface{ SetAdminStatus(bool) }); ok {
			aw.SetAdminStatus(active)
		}
	}
}
