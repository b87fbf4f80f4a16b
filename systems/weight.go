package systems

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/apex/config"
)

// Wheel indices, always in this order.
const (
	WheelFL = iota
	WheelFR
	WheelRL
	WheelRR
	NumWheels
)

// Weight transfer constants
const (
	LoadDamping         = 0.5  // filter blend per 1/60 s
	TrailBrakeBias      = 0.1  // extra front-outside load per N of brake force
	TrailBrakeFullSpeed = 30.0 // m/s at which the trail-brake bias stops growing
)

// IsFront reports whether wheel i is on the front axle.
func IsFront(i int) bool { return i < 2 }

// IsLeft reports whether wheel i is on the left side.
func IsLeft(i int) bool { return i%2 == 0 }

// WheelLoads holds vertical loads in newtons, FL, FR, RL, RR.
type WheelLoads [NumWheels]float64

// Sum returns the total vertical load.
func (l WheelLoads) Sum() float64 {
	return floats.Sum(l[:])
}

// ClampNonNegative zeroes any negative load. The deficit is not redistributed,
// so the sum can exceed the vehicle weight afterwards.
func (l WheelLoads) ClampNonNegative() WheelLoads {
	for i := range l {
		if l[i] < 0 {
			l[i] = 0
		}
	}
	return l
}

// AddAxleTransfer moves front and rear newtons from the left wheel to the
// right wheel of each axle.
func (l WheelLoads) AddAxleTransfer(front, rear float64) WheelLoads {
	l[WheelFL] -= front
	l[WheelFR] += front
	l[WheelRL] -= rear
	l[WheelRR] += rear
	return l
}

// StaticLoads splits the vehicle weight by the static front fraction.
func StaticLoads(cfg *config.VehicleConfig, g float64) WheelLoads {
	w := cfg.Mass * g
	front := w * cfg.FrontWeight / 2
	rear := w * (1 - cfg.FrontWeight) / 2
	return WheelLoads{front, front, rear, rear}
}

// LateralTransfer returns static loads plus steady-state lateral transfer.
// Positive latG is a left-hand turn and loads the right wheels.
func LateralTransfer(cfg *config.VehicleConfig, g, latG float64) WheelLoads {
	l := StaticLoads(cfg, g)
	l = l.AddAxleTransfer(lateralAxleTransfer(cfg, g, latG))
	return l.ClampNonNegative()
}

// LongitudinalTransfer returns static loads plus longitudinal transfer.
// Positive longG is acceleration and moves load to the rear axle.
func LongitudinalTransfer(cfg *config.VehicleConfig, g, longG float64) WheelLoads {
	l := StaticLoads(cfg, g)
	l = addLongitudinal(l, longitudinalAxleTransfer(cfg, g, longG))
	return l.ClampNonNegative()
}

// CombinedTransfer sums static load, lateral and longitudinal transfer, and
// the roll and pitch moment contributions, then clamps every wheel to >= 0.
func CombinedTransfer(cfg *config.VehicleConfig, g, latG, longG, roll, pitch float64) WheelLoads {
	return combinedRaw(cfg, g, latG, longG, roll, pitch).ClampNonNegative()
}

func combinedRaw(cfg *config.VehicleConfig, g, latG, longG, roll, pitch float64) WheelLoads {
	w := cfg.Mass * g
	l := StaticLoads(cfg, g)

	l = addLongitudinal(l, longitudinalAxleTransfer(cfg, g, longG))
	l = l.AddAxleTransfer(lateralAxleTransfer(cfg, g, latG))

	if roll != 0 {
		moment := w * cfg.CGHeight * math.Sin(roll)
		kf := cfg.SpringFront * (cfg.TrackFront / 2) * (cfg.TrackFront / 2)
		kr := cfg.SpringRear * (cfg.TrackRear / 2) * (cfg.TrackRear / 2)
		if total := kf + kr; total > 0 {
			l = l.AddAxleTransfer(
				moment*(kf/total)/cfg.TrackFront,
				moment*(kr/total)/cfg.TrackRear,
			)
		}
	}

	if pitch != 0 {
		// Nose up behaves like acceleration.
		l = addLongitudinal(l, w*cfg.CGHeight*math.Sin(pitch)/cfg.Wheelbase)
	}

	return l
}

// TrailBrakingTransfer is CombinedTransfer with braking expressed as a
// deceleration plus an extra load on the front-outside wheel that grows
// with speed and brake force. Half of the extra comes off the front-inside
// wheel, so this variant does not conserve total load.
func TrailBrakingTransfer(cfg *config.VehicleConfig, g, latG, brakeForce, speed, roll, pitch float64) WheelLoads {
	longG := -brakeForce / (cfg.Mass * g)
	l := combinedRaw(cfg, g, latG, longG, roll, pitch)

	extra := math.Abs(brakeForce) * math.Min(math.Abs(speed)/TrailBrakeFullSpeed, 1) * TrailBrakeBias
	outside, inside := WheelFR, WheelFL
	if latG < 0 {
		outside, inside = WheelFL, WheelFR
	}
	l[outside] += extra
	l[inside] -= extra / 2

	return l.ClampNonNegative()
}

// AntiRollTransfer returns the additional per-axle lateral transfer from the
// anti-roll bars. It is meant to be added with WheelLoads.AddAxleTransfer.
func AntiRollTransfer(cfg *config.VehicleConfig, g, latG float64) (front, rear float64) {
	moment := cfg.Mass * g * latG * cfg.CGHeight
	return moment * cfg.AntiRollFront / cfg.TrackFront,
		moment * cfg.AntiRollRear / cfg.TrackRear
}

func lateralAxleTransfer(cfg *config.VehicleConfig, g, latG float64) (front, rear float64) {
	w := cfg.Mass * g
	front = w * cfg.FrontWeight * latG * cfg.CGHeight / cfg.TrackFront
	rear = w * (1 - cfg.FrontWeight) * latG * cfg.CGHeight / cfg.TrackRear
	return front, rear
}

func longitudinalAxleTransfer(cfg *config.VehicleConfig, g, longG float64) float64 {
	return cfg.Mass * g * longG * cfg.CGHeight / cfg.Wheelbase
}

// addLongitudinal moves axle newtons from the front axle to the rear axle.
func addLongitudinal(l WheelLoads, axle float64) WheelLoads {
	half := axle / 2
	l[WheelFL] -= half
	l[WheelFR] -= half
	l[WheelRL] += half
	l[WheelRR] += half
	return l
}

// LoadFilter damps step-to-step load changes with an exponential blend.
// The first sample passes through unchanged and seeds the filter.
type LoadFilter struct {
	prev   WheelLoads
	primed bool
}

// Apply blends target into the filter state and returns the smoothed loads.
func (f *LoadFilter) Apply(target WheelLoads, dt float64) WheelLoads {
	if !f.primed {
		f.prev = target
		f.primed = true
		return target
	}
	if dt <= 0 {
		return f.prev
	}
	alpha := math.Min(dt*60, 1) * LoadDamping
	for i := range f.prev {
		f.prev[i] += (target[i] - f.prev[i]) * alpha
	}
	return f.prev
}

// Previous returns the last filtered loads.
func (f *LoadFilter) Previous() WheelLoads { return f.prev }

// Reset clears the filter history.
func (f *LoadFilter) Reset() { *f = LoadFilter{} }
