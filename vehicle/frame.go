package vehicle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
)

// Up is the world vertical.
var Up = r3.Vec{Y: 1}

// Forward returns the ground-plane heading for yaw.
func Forward(yaw float64) r3.Vec {
	return r3.Vec{X: math.Cos(yaw), Z: -math.Sin(yaw)}
}

// Right returns the ground-plane right-hand direction for yaw.
func Right(yaw float64) r3.Vec {
	return r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// Left returns the ground-plane left-hand direction for yaw.
func Left(yaw float64) r3.Vec {
	return r3.Scale(-1, Right(yaw))
}

// Offset is a position relative to the center of gravity in the body frame.
type Offset struct {
	X float64 // forward
	Y float64 // left
}

// WheelOffsets returns the contact patch offsets, FL, FR, RL, RR.
func WheelOffsets(cfg *config.VehicleConfig) [4]Offset {
	a := cfg.Wheelbase * (1 - cfg.FrontWeight) // CG to front axle
	b := cfg.Wheelbase * cfg.FrontWeight       // CG to rear axle
	return [4]Offset{
		{X: a, Y: cfg.TrackFront / 2},
		{X: a, Y: -cfg.TrackFront / 2},
		{X: -b, Y: cfg.TrackRear / 2},
		{X: -b, Y: -cfg.TrackRear / 2},
	}
}

// World converts a body-frame offset into a world-space point.
func (o Offset) World(pos r3.Vec, yaw float64) r3.Vec {
	return r3.Add(pos, r3.Add(r3.Scale(o.X, Forward(yaw)), r3.Scale(o.Y, Left(yaw))))
}

// PointVelocity returns the body-frame (forward, left) velocity of a point
// on a chassis moving at (vLong, vLat) with yaw rate omega.
func (o Offset) PointVelocity(vLong, vLat, omega float64) (float64, float64) {
	return vLong - omega*o.Y, vLat + omega*o.X
}
