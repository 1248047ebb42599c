package sim

import (
	"context"
	"errors"
	"strings"
	"time"

	"solarview/internal/ephemeris"
	"solarview/internal/fetcher"
	"solarview/internal/logging"
	"solarview/internal/scene"
	"solarview/internal/telemetry"
)

// Run starts the frame loop and stops when the context is done. Outstanding
// fetches are awaited before returning.
func (v *Viewer) Run(ctx context.Context) {
	log := logging.FromContext(ctx).With("session_id", v.sessionID)
	ctx = logging.NewContext(ctx, log)
	log.Info("starting viewer", "frame_interval", v.frameInterval, "fetch_interval", v.fetcher.MinInterval())
	ticker := time.NewTicker(v.frameInterval)
	defer ticker.Stop()

	v.tick(ctx)
	for {
		select {
		case <-ticker.C:
			v.tick(ctx)
		case <-ctx.Done():
			v.fetches.Wait()
			log.Info("stopping viewer", "frames", v.frames.Load())
			return
		}
	}
}

// tick advances the clock by the wall time since the previous tick, starts a
// fetch when one is due and emits a frame from the latest snapshot. It never
// waits for the position service.
func (v *Viewer) tick(ctx context.Context) telemetry.PlacementFrame {
	now := v.now()
	v.mu.Lock()
	var elapsed time.Duration
	if !v.lastTick.IsZero() {
		elapsed = now.Sub(v.lastTick)
	}
	v.lastTick = now
	v.mu.Unlock()

	simTime := v.clock.Advance(elapsed)
	v.startFetch(ctx, simTime, now)

	frame := v.buildFrame(simTime, now)
	v.emit(ctx, frame)
	return frame
}

func (v *Viewer) startFetch(ctx context.Context, simTime, now time.Time) {
	v.mu.Lock()
	q, ok := v.fetcher.Reserve(simTime, now, v.supersede)
	if ok {
		v.supersede = false
	}
	v.mu.Unlock()
	if !ok {
		return
	}
	v.fetches.Add(1)
	go func() {
		defer v.fetches.Done()
		v.runFetch(ctx, q)
	}()
}

func (v *Viewer) runFetch(ctx context.Context, q *fetcher.Query) {
	log := logging.FromContext(ctx)
	snap, err := q.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		log.Warn("position query failed; keeping previous snapshot", "seq", q.Seq, "err", err)
		if q.Seq > v.fetcher.AppliedSeq() {
			v.setStatus(fetchErrorStatus + err.Error())
		}
	case snap != nil:
		v.mu.Lock()
		if strings.HasPrefix(v.status, fetchErrorStatus) {
			v.status = ""
		}
		v.mu.Unlock()
	}
}

const fetchErrorStatus = "position service unavailable: "

func (v *Viewer) buildFrame(simTime, now time.Time) telemetry.PlacementFrame {
	st := v.clock.State()
	frame := telemetry.PlacementFrame{
		SessionID: v.sessionID,
		SimTime:   simTime,
		Mode:      string(st.Mode),
		Rate:      st.Rate,
		Status:    v.currentStatus(),
		Timestamp: now.UTC(),
	}
	snap := v.fetcher.Latest()
	if snap == nil {
		return frame
	}
	frame.SnapshotSeq = snap.Seq
	frame.SnapshotTime = snap.Timestamp
	frame.Placements = v.placements(snap)
	return frame
}

// placements merges the bodies carried by snap over the last known
// placements. Bodies absent from snap keep where they were.
func (v *Viewer) placements(snap *ephemeris.Snapshot) []scene.Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	if snap.Seq != v.placedSeq {
		for _, p := range scene.MapSnapshot(snap, v.bodies, v.central, v.policy) {
			v.placed[p.Body] = p
		}
		v.placedSeq = snap.Seq
	}
	out := make([]scene.Placement, 0, len(v.placed))
	if p, ok := v.placed[v.central]; ok && v.central != "" {
		out = append(out, p)
	}
	for _, b := range v.bodies {
		if b == v.central {
			continue
		}
		if p, ok := v.placed[b]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (v *Viewer) emit(ctx context.Context, frame telemetry.PlacementFrame) {
	v.mu.Lock()
	v.lastFrame = frame
	v.mu.Unlock()
	v.frames.Add(1)

	lag := 0.0
	if frame.HasSnapshot() {
		lag = frame.SimTime.Sub(frame.SnapshotTime).Seconds()
	}
	v.metrics.Frame(lag)
	v.metrics.SetClock(frame.Mode, frame.Rate, clockModes)

	if v.writer == nil {
		return
	}
	if err := v.writer.WritePlacements(frame); err != nil {
		logging.FromContext(ctx).Error("placement write failed", "err", err)
	}
}
