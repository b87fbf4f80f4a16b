package game

import (
	"log/slog"

	"github.com/pthm-cable/apex/telemetry"
	"github.com/pthm-cable/apex/vehicle"
)

// flushTelemetry closes the stats window when it is due and handles the
// events raised during it.
func (g *Game) flushTelemetry(snap vehicle.Snapshot) {
	now := snap.State.Time
	if !g.collector.ShouldFlush(now) {
		return
	}

	stats := g.collector.Flush(now, snap)
	perfStats := g.perfCollector.Stats()

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for i := range g.pending {
		e := &g.pending[i]
		if g.opts.LogStats {
			e.LogEvent()
		}
		if snapshotWorthy(e.Type) {
			g.saveSnapshot(e)
		}
	}
	g.writeEvents()
}

// snapshotWorthy reports whether an event should save a state snapshot.
// Gear and DRS changes happen every run and are only logged.
func snapshotWorthy(t telemetry.EventType) bool {
	switch t {
	case telemetry.EventWheelLift, telemetry.EventLockup, telemetry.EventMaxLatG:
		return true
	}
	return false
}

// writeEvents appends pending events to the events CSV.
func (g *Game) writeEvents() {
	if len(g.pending) == 0 {
		return
	}
	if err := g.outputManager.WriteEvents(g.pending); err != nil {
		slog.Error("failed to write events", "error", err)
	}
	g.pending = g.pending[:0]
}

// saveSnapshot writes the current state to the output directory.
func (g *Game) saveSnapshot(e *telemetry.Event) {
	if g.outputManager == nil {
		return
	}
	path, err := g.outputManager.WriteSnapshot(g.createSnapshot(e))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "time", e.Time)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(e *telemetry.Event) *telemetry.Snapshot {
	snap := g.car.Snapshot()
	pose := g.body.Pose()
	var event *telemetry.Event
	if e != nil {
		ev := *e
		event = &ev
	}
	return &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		Vehicle:   snap.Name,
		Compound:  g.car.Tire().Compound.String(),
		X:         pose.Position.X,
		Z:         pose.Position.Z,
		Yaw:       pose.Yaw,
		State:     snap.State,
		Telemetry: snap.Telemetry,
		Event:     event,
	}
}
