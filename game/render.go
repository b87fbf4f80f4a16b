package game

import (
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/ui"
	"github.com/pthm-cable/apex/vehicle"
)

// Drawing constants, in metres unless noted.
const (
	roadWidth   = 12.0
	coneRadius  = 0.6
	carWidth    = 1.9
	trailLength = 900 // frames
)

var (
	roadColor  = rl.Color{R: 60, G: 62, B: 66, A: 255}
	grassColor = rl.Color{R: 34, G: 70, B: 40, A: 255}
	lineColor  = rl.Color{R: 200, G: 200, B: 200, A: 120}
	trailColor = rl.Color{R: 90, G: 170, B: 255, A: 200}
)

const controlsLegend = "[Space] pause  [R] reset  [C] compound  [V] vehicle  [N] corner  [Q] DRS  [E] ERS  [F3] log perf  [wheel/+/-] zoom"

// renderState holds per-window drawing state created on first Draw.
type renderState struct {
	hud   *ui.HUD
	perf  *ui.PerfPanel
	trail []r3.Vec
	head  int
}

// Draw renders the frame.
func (g *Game) Draw() {
	if g.render == nil {
		g.render = &renderState{hud: ui.NewHUD(), perf: ui.NewPerfPanel(10, 0)}
	}
	g.recordTrail()

	rl.BeginDrawing()
	rl.ClearBackground(grassColor)

	g.drawTrack()
	g.drawTrail()
	g.drawCar()
	g.drawUI()

	rl.EndDrawing()
}

// recordTrail appends the car position to the trail ring.
func (g *Game) recordTrail() {
	rs := g.render
	p := g.body.Pose().Position
	if len(rs.trail) < trailLength {
		rs.trail = append(rs.trail, p)
		return
	}
	rs.trail[rs.head] = p
	rs.head = (rs.head + 1) % trailLength
}

func (g *Game) clearTrail() {
	if g.render != nil {
		g.render.trail = g.render.trail[:0]
		g.render.head = 0
	}
}

func (g *Game) screen(p r3.Vec) rl.Vector2 {
	x, y := g.camera.WorldToScreen(p)
	return rl.Vector2{X: x, Y: y}
}

// drawTrack draws the road along the corner path with cones at the entry,
// apex and exit.
func (g *Game) drawTrack() {
	path := g.corner.Path()
	width := g.camera.Pixels(roadWidth)
	for i := 1; i < len(path); i++ {
		a, b := g.screen(path[i-1]), g.screen(path[i])
		rl.DrawLineEx(a, b, width, roadColor)
		rl.DrawCircleV(b, width/2, roadColor)
	}
	for i := 1; i < len(path); i++ {
		rl.DrawLineEx(g.screen(path[i-1]), g.screen(path[i]), 1, lineColor)
	}

	r := g.camera.Pixels(coneRadius)
	for _, p := range []r3.Vec{g.corner.Entry, g.corner.Apex, g.corner.Exit} {
		rl.DrawCircleV(g.screen(p), max(r, 3), rl.Orange)
	}
	brakeAt := g.corner.PointAt(g.corner.EntryDistance() - g.cfg.Script.BrakeDistance)
	rl.DrawCircleV(g.screen(brakeAt), max(r, 3), rl.Red)
}

func (g *Game) drawTrail() {
	rs := g.render
	n := len(rs.trail)
	for i := 1; i < n; i++ {
		a := rs.trail[(rs.head+i-1)%n]
		b := rs.trail[(rs.head+i)%n]
		rl.DrawLineEx(g.screen(a), g.screen(b), 2, trailColor)
	}
}

// drawCar draws the chassis and a marker per wheel shaded by grip use.
func (g *Game) drawCar() {
	kin := g.body.Kinematics()
	pos := r3.Add(kin.Position, r3.Scale(g.alpha*g.cfg.Physics.DT, kin.Velocity))
	yaw := kin.Orientation.Yaw
	vc := g.car.Config()
	center := g.screen(pos)

	length := g.camera.Pixels(vc.Wheelbase + 1.2)
	width := g.camera.Pixels(carWidth)
	rot := float32(-yaw * 180 / math.Pi)
	rl.DrawRectanglePro(
		rl.Rectangle{X: center.X, Y: center.Y, Width: length, Height: width},
		rl.Vector2{X: length / 2, Y: width / 2},
		rot, rl.Maroon,
	)

	state := g.car.Snapshot().State
	wheelR := max(g.camera.Pixels(vc.Tire.Radius), 2)
	for i, off := range vehicle.WheelOffsets(vc) {
		c := rl.Green
		w := state.Wheels[i]
		switch {
		case w.Lifted:
			c = rl.SkyBlue
		case w.Utilization >= 1:
			c = rl.Red
		case w.Utilization > 0.8:
			c = rl.Yellow
		}
		rl.DrawCircleV(g.screen(off.World(pos, yaw)), wheelR, c)
	}

	// Nose marker
	nose := r3.Add(pos, r3.Scale(vc.Wheelbase/2+0.6, vehicle.Forward(yaw)))
	rl.DrawLineEx(center, g.screen(nose), 2, rl.White)
}

// drawUI renders the HUD, wheel panels, perf panel and buttons.
func (g *Game) drawUI() {
	rs := g.render
	sw, sh := int32(g.screenWidth), int32(g.screenHeight)
	state := g.car.Snapshot().State

	phase := "manual"
	if !g.opts.Manual {
		phase = g.script.Phase().String()
	}
	rs.hud.Draw(ui.HUDData{
		Vehicle:     g.car.Config().Name,
		Corner:      g.corner.Name,
		Compound:    g.car.Tire().Compound.String(),
		Phase:       phase,
		TargetSpeed: g.script.TargetSpeed(),
		Runs:        g.runs,
		Tick:        g.steps,
		FPS:         rl.GetFPS(),
		Paused:      g.paused,
	}, &state)
	rs.hud.DrawWheels(sw, sh, &state)
	rs.hud.DrawControls(sh, controlsLegend)

	rs.perf.SetPosition(10, sh-110)
	rs.perf.Draw(g.perfCollector.Stats())

	g.drawButtons(float32(sw))
}

// drawButtons draws the compound, DRS and ERS buttons along the top right.
func (g *Game) drawButtons(screenWidth float32) {
	x := screenWidth - 10
	y := float32(10)
	button := func(label string) bool {
		x -= 90
		return gui.Button(rl.Rectangle{X: x, Y: y, Width: 84, Height: 28}, label)
	}

	if button(toggleText(g.ersRequest, "ERS on", "ERS off")) {
		g.ersRequest = !g.ersRequest
	}
	if g.car.Config().DRS != nil && button(toggleText(g.drsRequest, "DRS on", "DRS off")) {
		g.drsRequest = !g.drsRequest
	}
	for i := len(config.Compounds) - 1; i >= 0; i-- {
		c := config.Compounds[i]
		if button(c.String()) && c != g.compound {
			g.SetCompound(c)
		}
	}
	if button(toggleText(g.paused, "Resume", "Pause")) {
		g.TogglePause()
	}
	if button("Reset") {
		g.Reset()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
