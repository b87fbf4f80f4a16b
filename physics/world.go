// Package physics is a planar rigid-body engine built on an ark ECS world.
// Chassis translate and yaw in the ground plane; roll and pitch are
// sprung modes driven by body-frame acceleration. Wheels carry their own
// spin state so slip ratios have something to measure against.
package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/components"
	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/vehicle"
)

// SpinRelax is the rate at which a gripping wheel follows road speed, 1/s.
const SpinRelax = 60.0

// World owns all simulated bodies.
type World struct {
	world *ecs.World

	bodies *ecs.Map5[
		components.Pose,
		components.Motion,
		components.Chassis,
		components.WheelSet,
		components.Accumulator,
	]
	filter *ecs.Filter5[
		components.Pose,
		components.Motion,
		components.Chassis,
		components.WheelSet,
		components.Accumulator,
	]

	count int
	time  float64
}

// NewWorld creates an empty world.
func NewWorld() *World {
	world := ecs.NewWorld()
	return &World{
		world: world,
		bodies: ecs.NewMap5[
			components.Pose,
			components.Motion,
			components.Chassis,
			components.WheelSet,
			components.Accumulator,
		](world),
		filter: ecs.NewFilter5[
			components.Pose,
			components.Motion,
			components.Chassis,
			components.WheelSet,
			components.Accumulator,
		](world),
	}
}

// CreateVehicleBody spawns a chassis for cfg at rest at pose.
func (w *World) CreateVehicleBody(cfg *config.VehicleConfig, pose components.Pose) *Body {
	motion := components.Motion{}
	chassis := components.ChassisFromVehicle(cfg)
	wheels := components.WheelSetFromVehicle(cfg)
	acc := components.Accumulator{}

	e := w.bodies.NewEntity(&pose, &motion, &chassis, &wheels, &acc)
	w.count++
	return &Body{world: w, entity: e}
}

// RemoveBody deletes a body. Removing a dead body is a no-op.
func (w *World) RemoveBody(b *Body) {
	if b == nil || !w.world.Alive(b.entity) {
		return
	}
	w.bodies.Remove(b.entity)
	w.count--
}

// Bodies returns the number of live bodies.
func (w *World) Bodies() int { return w.count }

// Time returns the simulated seconds stepped so far.
func (w *World) Time() float64 { return w.time }

// Step advances every body by dt, split into substeps. Forces and wheel
// torques applied since the last step are held for the whole interval and
// then cleared.
func (w *World) Step(dt float64, substeps int) {
	if !(dt > 0) {
		return
	}
	substeps = max(substeps, 1)
	h := dt / float64(substeps)

	query := w.filter.Query()
	for query.Next() {
		pose, motion, chassis, wheels, acc := query.Get()
		for range substeps {
			integrate(pose, motion, chassis, wheels, acc, h)
		}
		*acc = components.Accumulator{}
		wheels.ClearTorques()
	}
	w.time += dt
}

// integrate is one semi-implicit Euler step.
func integrate(p *components.Pose, m *components.Motion, c *components.Chassis, ws *components.WheelSet, acc *components.Accumulator, h float64) {
	// Ground plane only; vertical loads are handled by weight transfer.
	accel := r3.Scale(1/c.Mass, r3.Vec{X: acc.Force.X, Z: acc.Force.Z})
	m.Velocity = r3.Add(m.Velocity, r3.Scale(h, accel))
	p.Position = r3.Add(p.Position, r3.Scale(h, m.Velocity))

	m.YawRate += acc.YawTorque / c.YawInertia * h
	p.Yaw += m.YawRate * h

	fwd := vehicle.Forward(p.Yaw)
	left := vehicle.Left(p.Yaw)
	aFwd := r3.Dot(accel, fwd)
	aLeft := r3.Dot(accel, left)

	// Body leans away from the turn and squats under acceleration.
	roll := (c.Mass*c.CGHeight*aLeft - c.RollStiffness*p.Roll - c.RollDamping*m.RollRate) / c.RollInertia
	m.RollRate += roll * h
	p.Roll = limitAngle(p.Roll+m.RollRate*h, c.MaxRoll, &m.RollRate)

	pitch := (c.Mass*c.CGHeight*aFwd - c.PitchStiffness*p.Pitch - c.PitchDamping*m.PitchRate) / c.PitchInertia
	m.PitchRate += pitch * h
	p.Pitch = limitAngle(p.Pitch+m.PitchRate*h, c.MaxPitch, &m.PitchRate)

	vLong := r3.Dot(m.Velocity, fwd)
	for i := range ws.Spin {
		rolling := (vLong - m.YawRate*ws.Offsets[i].Left) / ws.Radius
		ws.Spin[i] = spinStep(ws.Spin[i], rolling, ws.DriveTorque[i], ws.BrakeTorque[i],
			ws.GripLimit[i]*ws.Radius, ws.Inertia, h)
		if ws.MaxSpin > 0 {
			ws.Spin[i] = math.Max(-ws.MaxSpin, math.Min(ws.MaxSpin, ws.Spin[i]))
		}
	}
}

// limitAngle clamps angle to ±limit and stops the rate at a bump stop.
func limitAngle(angle, limit float64, rate *float64) float64 {
	if limit <= 0 {
		return angle
	}
	if math.Abs(angle) > limit {
		*rate = 0
		return math.Copysign(limit, angle)
	}
	return angle
}

// spinStep advances one wheel. Torque the contact patch cannot react
// accelerates the wheel away from road speed; otherwise it follows the road.
func spinStep(spin, rolling, drive, brake, gripTorque, inertia, h float64) float64 {
	if inertia <= 0 {
		return rolling
	}
	switch {
	case brake > gripTorque:
		dec := (brake - gripTorque) / inertia * h
		if math.Abs(spin) <= dec {
			return 0
		}
		return spin - math.Copysign(dec, spin)
	case drive-brake > gripTorque:
		return spin + (drive-brake-gripTorque)/inertia*h
	}
	return spin + (rolling-spin)*math.Min(SpinRelax*h, 1)
}
