package components

import (
	"math"

	"github.com/pthm-cable/apex/config"
)

// Chassis holds the inertial properties of a sprung body.
type Chassis struct {
	Mass       float64 // kg
	YawInertia float64 // kg·m^2
	CGHeight   float64 // m

	RollInertia   float64
	RollStiffness float64 // N·m/rad
	RollDamping   float64 // N·m·s/rad
	MaxRoll       float64 // rad, limited by suspension travel

	PitchInertia   float64
	PitchStiffness float64
	PitchDamping   float64
	MaxPitch       float64
}

// ChassisFromVehicle derives chassis properties from a vehicle config.
// Springs and dampers are per wheel; the roll and pitch rates combine them
// across the track and wheelbase.
func ChassisFromVehicle(cfg *config.VehicleConfig) Chassis {
	m := cfg.Mass
	l := cfg.Wheelbase
	h := cfg.CGHeight
	a := l * (1 - cfg.FrontWeight)
	b := l * cfg.FrontWeight
	tf, tr := cfg.TrackFront, cfg.TrackRear
	track := (tf + tr) / 2

	return Chassis{
		Mass:       m,
		YawInertia: m * (l*l + track*track) / 12,
		CGHeight:   h,

		RollInertia:   m * (track*track/12 + h*h),
		RollStiffness: (cfg.SpringFront*tf*tf + cfg.SpringRear*tr*tr) / 2,
		RollDamping:   (cfg.DamperFront*tf*tf + cfg.DamperRear*tr*tr) / 2,
		MaxRoll:       math.Atan(2 * cfg.MaxTravel / track),

		PitchInertia:   m * (l*l/12 + h*h),
		PitchStiffness: 2 * (cfg.SpringFront*a*a + cfg.SpringRear*b*b),
		PitchDamping:   2 * (cfg.DamperFront*a*a + cfg.DamperRear*b*b),
		MaxPitch:       math.Atan(2 * cfg.MaxTravel / l),
	}
}

// WheelOffset is a contact patch position relative to the CG.
type WheelOffset struct {
	Forward, Left float64
}

// WheelSet holds wheel rotation state and the torques applied for the
// current step. FL, FR, RL, RR order throughout.
type WheelSet struct {
	Radius  float64 // m
	Inertia float64 // kg·m^2 per wheel
	MaxSpin float64 // rad/s
	Offsets [4]WheelOffset
	Spin    [4]float64 // rad/s

	DriveTorque [4]float64
	BrakeTorque [4]float64
	GripLimit   [4]float64 // N
}

// spinHeadroom lets a wheel overrun the top-gear limiter before it is capped.
const spinHeadroom = 1.2

// WheelSetFromVehicle builds a wheel set at rest.
func WheelSetFromVehicle(cfg *config.VehicleConfig) WheelSet {
	r := cfg.Tire.Radius
	a := cfg.Wheelbase * (1 - cfg.FrontWeight)
	b := cfg.Wheelbase * cfg.FrontWeight

	ws := WheelSet{
		Radius:  r,
		Inertia: 0.5 * cfg.WheelMass * r * r,
		Offsets: [4]WheelOffset{
			{Forward: a, Left: cfg.TrackFront / 2},
			{Forward: a, Left: -cfg.TrackFront / 2},
			{Forward: -b, Left: cfg.TrackRear / 2},
			{Forward: -b, Left: -cfg.TrackRear / 2},
		},
	}

	eng := cfg.Engine
	if n := len(eng.GearRatios); n > 0 && eng.FinalDrive > 0 {
		top := eng.GearRatios[n-1] * eng.FinalDrive
		ws.MaxSpin = spinHeadroom * eng.MaxRPM * 2 * math.Pi / 60 / top
	}
	return ws
}

// ClearTorques zeroes the per-step inputs.
func (ws *WheelSet) ClearTorques() {
	ws.DriveTorque = [4]float64{}
	ws.BrakeTorque = [4]float64{}
	ws.GripLimit = [4]float64{}
}
