// Package vehicle runs the per-step vehicle simulation loop. A Vehicle owns
// all step-to-step state (wheel states, gearbox, load filter, thermal state,
// telemetry maxima) and talks to a rigid-body engine through the Body
// interface. Consumers read copies via Snapshot.
package vehicle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Controls are the driver inputs sampled once per fixed step.
type Controls struct {
	Throttle  float64 // [0, 1]
	Brake     float64 // [0, 1]
	Steering  float64 // road-wheel angle in radians, left positive
	Handbrake bool
	DRS       bool // request to open the drag-reduction flap
	ERS       bool // request to deploy stored energy
}

// Normalized clamps pedals to [0, 1] and steering to ±maxSteer.
// Non-finite values become zero.
func (c Controls) Normalized(maxSteer float64) Controls {
	c.Throttle = clampFinite(c.Throttle, 0, 1)
	c.Brake = clampFinite(c.Brake, 0, 1)
	c.Steering = clampFinite(c.Steering, -maxSteer, maxSteer)
	return c
}

func clampFinite(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// Orientation is the chassis attitude in radians.
// Positive yaw turns left, positive pitch is nose up, positive roll leans right.
type Orientation struct {
	Yaw, Pitch, Roll float64
}

// Kinematics is the rigid-body state read from the engine each step.
// Vectors are in world space with Y up.
type Kinematics struct {
	Position        r3.Vec
	Velocity        r3.Vec
	AngularVelocity r3.Vec // Y is the yaw rate
	Orientation     Orientation
	WheelSpin       [4]float64 // rad/s, FL, FR, RL, RR
}

// WheelForce is what the loop hands the engine for one wheel.
type WheelForce struct {
	Force       r3.Vec  // world-space tire force in the ground plane
	Point       r3.Vec  // world-space contact point
	DriveTorque float64 // N·m delivered to the wheel
	BrakeTorque float64 // N·m resisting wheel rotation
	GripLimit   float64 // N, largest force the contact patch can carry
}

// Body is the rigid-body engine handle for one vehicle.
type Body interface {
	Kinematics() Kinematics
	ApplyForce(force, point r3.Vec)
	ApplyWheelForces(forces [4]WheelForce)
}

// WheelState is the per-wheel result of the last step.
type WheelState struct {
	Load         float64 // N, from weight transfer
	AeroLoad     float64 // N, downforce share on this wheel
	SlipAngle    float64 // rad
	SlipRatio    float64
	TireTemp     float64 // °C
	BrakeTemp    float64 // °C
	Wear         float64 // [0, 1]
	Lateral      float64 // N, left positive in the wheel frame
	Longitudinal float64 // N, forward positive in the wheel frame
	Utilization  float64
	Grip         float64 // composite friction coefficient
	BrakeForce   float64 // N
	DriveForce   float64 // N
	Lifted       bool
}

// VehicleState is the exposed state of one vehicle after a completed step.
type VehicleState struct {
	RPM           float64
	Gear          int
	Speed         float64 // m/s
	Throttle      float64
	Brake         float64
	Steering      float64
	Handbrake     bool
	LateralG      float64 // left positive
	LongitudinalG float64 // acceleration positive
	YawRate       float64 // rad/s, left positive
	Wheels        [4]WheelState
	DRS           bool
	ERS           bool
	ERSStore      float64 // J
	Drag          float64 // N
	Downforce     float64 // N
	Time          float64 // simulated seconds since reset
}
