package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/input"
	"github.com/pthm-cable/apex/vehicle"
)

// Keyboard driving rates.
const (
	pedalRate = 4.0 // full travel in a quarter second
	steerRate = 1.5 // steering travel per second as a fraction of lock
)

// keyboardDriver maps held keys to ramped controls:
// W/S throttle and brake, A/D steering, left shift handbrake.
type keyboardDriver struct {
	maxSteer float64
	ctl      vehicle.Controls
}

var _ input.Source = (*keyboardDriver)(nil)

func newKeyboardDriver(maxSteer float64) *keyboardDriver {
	return &keyboardDriver{maxSteer: maxSteer}
}

func (k *keyboardDriver) Controls(_ vehicle.Kinematics, _ *vehicle.VehicleState, dt float64) vehicle.Controls {
	k.ctl.Throttle = ramp(k.ctl.Throttle, axis(rl.KeyW, -1), pedalRate*dt)
	k.ctl.Brake = ramp(k.ctl.Brake, axis(rl.KeyS, -1), pedalRate*dt)
	k.ctl.Throttle = max(k.ctl.Throttle, 0)
	k.ctl.Brake = max(k.ctl.Brake, 0)

	target := axis(rl.KeyA, rl.KeyD) * k.maxSteer
	k.ctl.Steering = ramp(k.ctl.Steering, target, steerRate*k.maxSteer*dt)
	k.ctl.Handbrake = rl.IsKeyDown(rl.KeyLeftShift)
	return k.ctl
}

func (k *keyboardDriver) Reset() { k.ctl = vehicle.Controls{} }

// axis returns 1 while pos is held, -1 while neg is held, else 0.
// A negative key code means no key.
func axis(pos, neg int32) float64 {
	v := 0.0
	if pos >= 0 && rl.IsKeyDown(pos) {
		v++
	}
	if neg >= 0 && rl.IsKeyDown(neg) {
		v--
	}
	return v
}

// ramp moves v toward target by at most step.
func ramp(v, target, step float64) float64 {
	switch {
	case v < target:
		return min(v+step, target)
	case v > target:
		return max(v-step, target)
	}
	return v
}

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.cycleCompound()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.NextCorner()
	}
	if rl.IsKeyPressed(rl.KeyV) {
		g.cycleVehicle()
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		g.drsRequest = !g.drsRequest
	}
	if rl.IsKeyPressed(rl.KeyE) {
		g.ersRequest = !g.ersRequest
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.logPerfStats()
	}

	g.handleCameraInput()
}

// cycleCompound fits the next compound in display order.
func (g *Game) cycleCompound() {
	for i, c := range config.Compounds {
		if c == g.compound {
			g.SetCompound(config.Compounds[(i+1)%len(config.Compounds)])
			return
		}
	}
	g.SetCompound(config.Compounds[0])
}

// cycleVehicle switches to the next archetype and restarts the run.
func (g *Game) cycleVehicle() {
	arch := g.cfg.Archetypes
	for i := range arch {
		if arch[i].Name == g.car.Config().Name {
			_ = g.SetVehicle(arch[(i+1)%len(arch)].Name)
			return
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}

// handleCameraInput processes camera zoom controls. The camera follows the
// car, so panning is only useful while paused.
func (g *Game) handleCameraInput() {
	const panSpeed = 8 // px per frame
	if g.paused {
		if rl.IsKeyDown(rl.KeyRight) {
			g.camera.Pan(panSpeed, 0)
		}
		if rl.IsKeyDown(rl.KeyLeft) {
			g.camera.Pan(-panSpeed, 0)
		}
		if rl.IsKeyDown(rl.KeyDown) {
			g.camera.Pan(0, panSpeed)
		}
		if rl.IsKeyDown(rl.KeyUp) {
			g.camera.Pan(0, -panSpeed)
		}
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
