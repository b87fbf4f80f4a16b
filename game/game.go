// Package game runs a cornering session: it owns the rigid-body world, one
// vehicle, its driver and the telemetry pipeline, and advances them with a
// fixed-step clock. The windowed front end lives in render.go and input.go.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/apex/camera"
	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/input"
	"github.com/pthm-cable/apex/physics"
	"github.com/pthm-cable/apex/telemetry"
	"github.com/pthm-cable/apex/track"
	"github.com/pthm-cable/apex/vehicle"
)

// RestSpeed is the speed below which a finished run counts as stopped.
const RestSpeed = 0.5 // m/s

// Game holds the complete session state.
type Game struct {
	cfg  *config.Config
	opts Options

	world *physics.World
	body  *physics.Body
	car   *vehicle.Vehicle

	corners []*track.Corner
	corner  *track.Corner
	script  *input.Script
	driver  input.Source

	clock    *FixedStep
	controls vehicle.Controls
	compound config.Compound

	// Driver-independent requests layered on top of the driver's controls.
	drsRequest bool
	ersRequest bool

	// Telemetry
	collector     *telemetry.Collector
	events        *telemetry.EventDetector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	pending       []telemetry.Event

	camera *camera.Camera
	render *renderState // nil until the first Draw

	// State
	steps  int64
	runs   int
	paused bool
	alpha  float64 // leftover step fraction from the last frame

	screenWidth, screenHeight float32
}

// New builds a session from cfg. The vehicle and corner come from opts,
// falling back to the config's selection and first corner.
func New(cfg *config.Config, opts Options) (*Game, error) {
	corners, err := track.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building corners: %w", err)
	}
	if len(corners) == 0 {
		return nil, fmt.Errorf("no corners configured")
	}

	g := &Game{
		cfg:           cfg,
		opts:          opts,
		world:         physics.NewWorld(),
		corners:       corners,
		corner:        corners[0],
		clock:         NewFixedStep(cfg.Physics.DT, cfg.Physics.MaxSteps),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		events:        telemetry.NewEventDetector(cfg.Telemetry.Events),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		screenWidth:   float32(cfg.Screen.Width),
		screenHeight:  float32(cfg.Screen.Height),
	}
	if opts.Corner != "" {
		if g.corner = g.findCorner(opts.Corner); g.corner == nil {
			return nil, fmt.Errorf("unknown corner %q", opts.Corner)
		}
	}
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.Screen.PixelsPerM))

	name := opts.Vehicle
	if name == "" {
		name = cfg.SelectedVehicle().Name
	}
	if err := g.SetVehicle(name); err != nil {
		return nil, err
	}

	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	slog.Info("session ready",
		"vehicle", g.car.Config().Name,
		"corner", g.corner.Name,
		"radius", g.corner.Radius(),
		"target_speed", g.script.TargetSpeed(),
		"manual", opts.Manual,
	)
	return g, nil
}

func (g *Game) findCorner(name string) *track.Corner {
	for _, c := range g.corners {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SetVehicle swaps in the named archetype and restarts the run.
func (g *Game) SetVehicle(name string) error {
	vc, err := g.cfg.Archetype(name)
	if err != nil {
		return err
	}
	car, err := vehicle.New(vc, g.cfg.Environment, g.cfg.Thermal)
	if err != nil {
		return err
	}

	g.world.RemoveBody(g.body)
	g.car = car
	g.compound = vc.Tire.Compound
	g.body = g.world.CreateVehicleBody(vc, g.corner.Spawn())
	g.rebuildDriver()
	g.Reset()
	return nil
}

// SetCorner switches to the named corner and restarts the run.
func (g *Game) SetCorner(name string) error {
	c := g.findCorner(name)
	if c == nil {
		return fmt.Errorf("unknown corner %q", name)
	}
	g.corner = c
	g.rebuildDriver()
	g.Reset()
	return nil
}

// NextCorner cycles to the next configured corner.
func (g *Game) NextCorner() {
	for i, c := range g.corners {
		if c == g.corner {
			g.corner = g.corners[(i+1)%len(g.corners)]
			break
		}
	}
	g.rebuildDriver()
	g.Reset()
}

// SetCompound fits a new tire compound. The run continues.
func (g *Game) SetCompound(c config.Compound) {
	g.compound = c
	g.car.SetCompound(c)
}

func (g *Game) rebuildDriver() {
	g.script = input.NewScript(g.cfg.Script, g.corner, g.car.Config(), g.cfg.Environment.Gravity)
	g.driver = g.script
	if g.opts.Manual {
		g.driver = newKeyboardDriver(g.car.Config().MaxSteer)
	}
}

// Reset puts the car back at the corner's spawn point at the spawn speed
// and clears all per-run state.
func (g *Game) Reset() {
	g.writeEvents()
	g.body.SetPose(g.corner.Spawn())
	g.body.SetSpeed(g.cfg.Script.SpawnSpeed)
	g.car.Reset()
	if g.compound != g.car.Tire().Compound {
		g.car.SetCompound(g.compound)
	}
	g.driver.Reset()
	g.collector.Reset(0)
	g.events.Reset()
	g.clock.Reset()
	g.controls = vehicle.Controls{}
	g.camera.CenterOn(g.corner.Spawn().Position)
	g.clearTrail()
}

// Update advances the session by one rendered frame of frameDT seconds.
func (g *Game) Update(frameDT float64) {
	g.handleInput()
	g.perfCollector.RecordFrame()
	if g.paused {
		return
	}
	g.alpha, _ = g.clock.Advance(frameDT, g.Step)
	g.camera.Track(g.body.Pose().Position, frameDT)
}

// UpdateHeadless runs one fixed step with no graphics.
func (g *Game) UpdateHeadless() {
	g.Step(g.cfg.Physics.DT)
}

// Step runs one fixed simulation step: driver, vehicle loop, rigid-body
// integration, then telemetry.
func (g *Game) Step(dt float64) {
	g.perfCollector.StartStep()

	g.perfCollector.StartPhase(telemetry.PhaseDriver)
	before := g.car.Snapshot()
	ctl := g.driver.Controls(g.body.Kinematics(), &before.State, dt)
	ctl.DRS = ctl.DRS || g.drsRequest
	ctl.ERS = ctl.ERS || g.ersRequest
	g.controls = ctl

	g.perfCollector.StartPhase(telemetry.PhaseVehicle)
	g.car.Step(dt, ctl, g.body)

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.world.Step(dt, g.cfg.Physics.Substeps)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	snap := g.car.Snapshot()
	g.collector.Record(&snap.State)
	for _, e := range g.events.Check(&snap.State) {
		g.collector.RecordEvent(e)
		g.pending = append(g.pending, e)
		if g.opts.EventCallback != nil {
			g.opts.EventCallback(e)
		}
	}
	g.steps++
	g.perfCollector.EndStep()

	g.flushTelemetry(snap)

	if !g.opts.Manual && g.script.Phase() == input.PhaseDone && snap.State.Speed < RestSpeed {
		g.finishRun(snap)
	}
}

// finishRun logs the run summary and starts the next run.
func (g *Game) finishRun(snap vehicle.Snapshot) {
	g.runs++
	g.logRunSummary(snap)
	g.Reset()
}

// TogglePause pauses or resumes the fixed-step clock.
func (g *Game) TogglePause() { g.paused = !g.paused }

// Paused reports whether the clock is paused.
func (g *Game) Paused() bool { return g.paused }

// Snapshot returns a copy of the vehicle's state after the last step.
func (g *Game) Snapshot() vehicle.Snapshot { return g.car.Snapshot() }

// Controls returns the controls applied in the last step.
func (g *Game) Controls() vehicle.Controls { return g.controls }

// Corner returns the corner being driven.
func (g *Game) Corner() *track.Corner { return g.corner }

// Script returns the scripted driver for the current corner. It is
// planned even in manual mode so its target speed can be displayed.
func (g *Game) Script() *input.Script { return g.script }

// Pose returns the chassis pose.
func (g *Game) Pose() (x, z, yaw float64) {
	p := g.body.Pose()
	return p.Position.X, p.Position.Z, p.Yaw
}

// Tick returns the number of fixed steps taken this session.
func (g *Game) Tick() int64 { return g.steps }

// Runs returns the number of completed scripted runs.
func (g *Game) Runs() int { return g.runs }

// Unload flushes and closes session output.
func (g *Game) Unload() {
	g.writeEvents()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.world.RemoveBody(g.body)
}
