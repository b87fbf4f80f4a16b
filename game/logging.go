package game

import (
	"log/slog"

	"github.com/pthm-cable/apex/vehicle"
)

// logRunSummary logs the maxima of a completed scripted run.
func (g *Game) logRunSummary(snap vehicle.Snapshot) {
	t := snap.Telemetry
	slog.Info("run complete",
		"run", g.runs,
		"vehicle", snap.Name,
		"corner", g.corner.Name,
		"compound", g.car.Tire().Compound.String(),
		"time", snap.State.Time,
		"distance", t.Distance,
		"max_speed", t.MaxSpeed,
		"max_lat_g", t.MaxLateralG,
		"max_braking_g", t.MaxBrakingG,
		"max_accel_g", t.MaxAccelG,
		"target_speed", g.script.TargetSpeed(),
	)
}

// logPerfStats logs step timing for the current perf window.
func (g *Game) logPerfStats() {
	stats := g.perfCollector.Stats()
	slog.Info("perf", "tick", g.steps, "paused", g.paused, "stats", stats)
}
