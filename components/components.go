// Package components defines ECS components for the rigid-body world.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Pose is a chassis position and attitude in world space.
// Positive yaw turns left, positive pitch is nose up, positive roll leans right.
type Pose struct {
	Position         r3.Vec
	Yaw, Pitch, Roll float64
}

// Motion holds the chassis velocities.
type Motion struct {
	Velocity  r3.Vec // world space, Y stays zero on flat ground
	YawRate   float64
	PitchRate float64
	RollRate  float64
}

// Accumulator collects forces applied between integration steps.
// The world clears it after every step.
type Accumulator struct {
	Force     r3.Vec
	YawTorque float64 // N·m about the vertical axis, left positive
}
