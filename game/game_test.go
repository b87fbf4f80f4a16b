package game

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/input"
	"github.com/pthm-cable/apex/telemetry"
)

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	opts.Headless = true
	g, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

// ---------- construction ----------

func TestNew_Defaults(t *testing.T) {
	g := newTestGame(t, Options{})

	if g.car.Config().Name != "street" {
		t.Errorf("vehicle = %q, want street", g.car.Config().Name)
	}
	if g.Corner().Name != "left-hander" {
		t.Errorf("corner = %q, want left-hander", g.Corner().Name)
	}
	if g.world.Bodies() != 1 {
		t.Errorf("Bodies() = %d, want 1", g.world.Bodies())
	}

	x, z, yaw := g.Pose()
	spawn := g.Corner().Spawn()
	if x != spawn.Position.X || z != spawn.Position.Z || yaw != spawn.Yaw {
		t.Errorf("pose = (%v, %v, %v), want spawn %+v", x, z, yaw, spawn)
	}
	v := g.body.Kinematics().Velocity
	if math.Abs(v.X-g.cfg.Script.SpawnSpeed) > 1e-9 || math.Abs(v.Z) > 1e-9 {
		t.Errorf("velocity = %+v, want spawn speed along +X", v)
	}
}

func TestNew_Errors(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown vehicle", Options{Vehicle: "bus"}},
		{"unknown corner", Options{Corner: "hairpin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(cfg, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ---------- stepping ----------

func TestStep_AdvancesSession(t *testing.T) {
	g := newTestGame(t, Options{})
	startX, _, _ := g.Pose()

	for range 240 {
		g.UpdateHeadless()
	}

	if g.Tick() != 240 {
		t.Errorf("Tick() = %d, want 240", g.Tick())
	}
	snap := g.Snapshot()
	if math.Abs(snap.State.Time-240*g.cfg.Physics.DT) > 1e-9 {
		t.Errorf("state time = %v, want %v", snap.State.Time, 240*g.cfg.Physics.DT)
	}
	if x, _, _ := g.Pose(); x-startX < 30 {
		t.Errorf("moved %.1f m in 2 s, want at least 30", x-startX)
	}
	if snap.Telemetry.Distance <= 0 {
		t.Errorf("distance = %v", snap.Telemetry.Distance)
	}
	if g.Script().Phase() == input.PhaseStraight && g.Controls().Throttle != 1 {
		t.Errorf("throttle on the straight = %v", g.Controls().Throttle)
	}
}

func TestStep_CompletesRun(t *testing.T) {
	g := newTestGame(t, Options{})
	limit := int(60 / g.cfg.Physics.DT)

	for i := 0; i < limit && g.Runs() == 0; i++ {
		g.UpdateHeadless()
	}

	if g.Runs() != 1 {
		t.Fatalf("Runs() = %d after 60 s, want 1", g.Runs())
	}
	// A finished run restarts at the spawn point.
	if g.Script().Phase() != input.PhaseStraight {
		t.Errorf("phase after restart = %v", g.Script().Phase())
	}
	if g.Snapshot().State.Time != 0 {
		t.Errorf("state time after restart = %v", g.Snapshot().State.Time)
	}
}

// ---------- session control ----------

func TestReset_RestoresSpawn(t *testing.T) {
	g := newTestGame(t, Options{})
	for range 120 {
		g.UpdateHeadless()
	}
	g.Reset()

	x, z, yaw := g.Pose()
	spawn := g.Corner().Spawn()
	if x != spawn.Position.X || z != spawn.Position.Z || yaw != spawn.Yaw {
		t.Errorf("pose after Reset = (%v, %v, %v)", x, z, yaw)
	}
	snap := g.Snapshot()
	if snap.State.Time != 0 || snap.Telemetry.Distance != 0 {
		t.Errorf("state not cleared: time=%v distance=%v", snap.State.Time, snap.Telemetry.Distance)
	}
	if g.Tick() != 120 {
		t.Errorf("Tick() = %d, session step count should survive Reset", g.Tick())
	}
}

func TestSetVehicle(t *testing.T) {
	g := newTestGame(t, Options{})

	if err := g.SetVehicle("race"); err != nil {
		t.Fatalf("SetVehicle: %v", err)
	}
	if g.car.Config().Name != "race" {
		t.Errorf("vehicle = %q", g.car.Config().Name)
	}
	if g.world.Bodies() != 1 {
		t.Errorf("Bodies() = %d, old body should be removed", g.world.Bodies())
	}
	if err := g.SetVehicle("bus"); err == nil {
		t.Error("expected error for unknown vehicle")
	}
	if g.car.Config().Name != "race" {
		t.Error("failed swap should keep the current vehicle")
	}
}

func TestSetCompound_SurvivesReset(t *testing.T) {
	g := newTestGame(t, Options{})
	g.SetCompound(config.CompoundSoft)
	g.Reset()

	if got := g.car.Tire().Compound; got != config.CompoundSoft {
		t.Errorf("compound after Reset = %v, want soft", got)
	}
}

func TestTogglePause(t *testing.T) {
	g := newTestGame(t, Options{})
	g.TogglePause()
	if !g.Paused() {
		t.Error("expected paused")
	}
	g.TogglePause()
	if g.Paused() {
		t.Error("expected running")
	}
}

func TestSnapshotWorthy(t *testing.T) {
	tests := []struct {
		typ  telemetry.EventType
		want bool
	}{
		{telemetry.EventLockup, true},
		{telemetry.EventWheelLift, true},
		{telemetry.EventMaxLatG, true},
		{telemetry.EventGearShift, false},
		{telemetry.EventDRSOpen, false},
		{telemetry.EventDRSClose, false},
	}
	for _, tt := range tests {
		if got := snapshotWorthy(tt.typ); got != tt.want {
			t.Errorf("snapshotWorthy(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

// ---------- output ----------

func TestOutput_WritesSession(t *testing.T) {
	dir := t.TempDir()
	g := newTestGame(t, Options{OutputDir: dir})

	for range 300 {
		g.UpdateHeadless()
	}
	g.Unload()

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml: %v", err)
	}

	var windows []*telemetry.WindowStats
	if err := readCSV(filepath.Join(dir, "telemetry.csv"), &windows); err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("got %d stats windows in 2.5 s, want at least 2", len(windows))
	}
	if windows[0].Steps == 0 || windows[0].SpeedMax <= 0 {
		t.Errorf("first window looks empty: %+v", windows[0])
	}

	var perf []*telemetry.PerfStatsCSV
	if err := readCSV(filepath.Join(dir, "perf.csv"), &perf); err != nil {
		t.Fatalf("reading perf.csv: %v", err)
	}
	if len(perf) != len(windows) {
		t.Errorf("perf rows = %d, want one per window (%d)", len(perf), len(windows))
	}
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}
