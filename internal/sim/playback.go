package sim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"solarview/internal/telemetry"
)

// replayBatch is the number of frames flushed at once when no delay applies.
const replayBatch = 64

// ReplayLog replays placement frames from r to writer. A speed >0 scales the
// recorded gaps between frames; speed <= 0 replays without delay in batches.
func ReplayLog(ctx context.Context, r io.Reader, writer PlacementWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var (
		prev    time.Time
		pending []telemetry.PlacementFrame
		n       int
	)
	flush := func() error {
		err := writeFrames(writer, pending)
		n += len(pending)
		pending = pending[:0]
		return err
	}
	for {
		var frame telemetry.PlacementFrame
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return n, flush()
			}
			return n, err
		}
		if speed <= 0 {
			pending = append(pending, frame)
			if len(pending) >= replayBatch {
				if err := flush(); err != nil {
					return n, err
				}
			}
			continue
		}
		if !prev.IsZero() {
			diff := time.Duration(float64(frame.Timestamp.Sub(prev)) / speed)
			if diff > 0 {
				select {
				case <-time.After(diff):
				case <-ctx.Done():
					return n, ctx.Err()
				}
			}
		}
		if err := writer.WritePlacements(frame); err != nil {
			return n, err
		}
		n++
		prev = frame.Timestamp
	}
}

// ReplayLogFile opens a file and replays its frames.
func ReplayLogFile(ctx context.Context, path string, writer PlacementWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
