package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/components"
	"github.com/pthm-cable/apex/vehicle"
)

// Body is a handle to one chassis in a World. It satisfies vehicle.Body.
type Body struct {
	world  *World
	entity ecs.Entity
}

var _ vehicle.Body = (*Body)(nil)

// Alive reports whether the body still exists in its world.
func (b *Body) Alive() bool { return b.world.world.Alive(b.entity) }

// Kinematics returns the current rigid-body state.
func (b *Body) Kinematics() vehicle.Kinematics {
	pose, motion, _, wheels, _ := b.world.bodies.Get(b.entity)
	fwd := vehicle.Forward(pose.Yaw)
	right := vehicle.Right(pose.Yaw)

	// Roll turns about the forward axis, pitch about the right axis.
	omega := r3.Add(r3.Vec{Y: motion.YawRate},
		r3.Add(r3.Scale(motion.RollRate, fwd), r3.Scale(motion.PitchRate, right)))

	return vehicle.Kinematics{
		Position:        pose.Position,
		Velocity:        motion.Velocity,
		AngularVelocity: omega,
		Orientation:     vehicle.Orientation{Yaw: pose.Yaw, Pitch: pose.Pitch, Roll: pose.Roll},
		WheelSpin:       wheels.Spin,
	}
}

// ApplyForce adds a ground-plane force at a world point for the next step.
func (b *Body) ApplyForce(force, point r3.Vec) {
	pose, _, _, _, acc := b.world.bodies.Get(b.entity)
	acc.Force = r3.Add(acc.Force, force)
	acc.YawTorque += yawTorque(r3.Sub(point, pose.Position), force)
}

// ApplyWheelForces applies the four tire forces and hands the wheel torques
// to the spin model.
func (b *Body) ApplyWheelForces(forces [4]vehicle.WheelForce) {
	for _, f := range forces {
		b.ApplyForce(f.Force, f.Point)
	}
	_, _, _, wheels, _ := b.world.bodies.Get(b.entity)
	for i, f := range forces {
		wheels.DriveTorque[i] = f.DriveTorque
		wheels.BrakeTorque[i] = f.BrakeTorque
		wheels.GripLimit[i] = f.GripLimit
	}
}

// Pose returns the chassis pose.
func (b *Body) Pose() components.Pose {
	pose, _, _, _, _ := b.world.bodies.Get(b.entity)
	return *pose
}

// SetPose teleports the chassis and brings it to rest.
func (b *Body) SetPose(p components.Pose) {
	pose, motion, _, wheels, acc := b.world.bodies.Get(b.entity)
	*pose = p
	*motion = components.Motion{}
	*acc = components.Accumulator{}
	wheels.Spin = [4]float64{}
	wheels.ClearTorques()
}

// SetSpeed sets the chassis moving straight ahead at speed with the wheels
// rolling to match.
func (b *Body) SetSpeed(speed float64) {
	pose, motion, _, wheels, _ := b.world.bodies.Get(b.entity)
	*motion = components.Motion{Velocity: r3.Scale(speed, vehicle.Forward(pose.Yaw))}
	for i := range wheels.Spin {
		wheels.Spin[i] = speed / wheels.Radius
	}
}

// yawTorque is the vertical torque of f applied at lever arm r.
// With Y up, τ_y = r_z·f_x − r_x·f_z.
func yawTorque(r, f r3.Vec) float64 {
	return r.Z*f.X - r.X*f.Z
}
