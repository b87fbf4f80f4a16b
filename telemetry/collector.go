package telemetry

import (
	"math"

	"github.com/pthm-cable/apex/vehicle"
)

// Collector accumulates per-step samples within time windows and produces
// WindowStats.
type Collector struct {
	window float64 // seconds of simulated time per window
	start  float64

	speed     []float64
	latG      []float64
	util      []float64
	tireTemp  []float64
	brakingG  float64
	accelG    float64
	brakeTemp float64

	lockups    int
	wheelLifts int
	gearShifts int
}

// NewCollector creates a collector that flushes every windowSec of
// simulated time. Non-positive windows flush after every sample.
func NewCollector(windowSec float64) *Collector {
	return &Collector{window: math.Max(windowSec, 0)}
}

// Record adds one completed step.
func (c *Collector) Record(s *vehicle.VehicleState) {
	c.speed = append(c.speed, s.Speed)
	c.latG = append(c.latG, math.Abs(s.LateralG))
	c.brakingG = math.Max(c.brakingG, -s.LongitudinalG)
	c.accelG = math.Max(c.accelG, s.LongitudinalG)
	for _, w := range s.Wheels {
		c.util = append(c.util, w.Utilization)
		c.tireTemp = append(c.tireTemp, w.TireTemp)
		c.brakeTemp = math.Max(c.brakeTemp, w.BrakeTemp)
	}
}

// RecordEvent counts an event against the current window.
func (c *Collector) RecordEvent(e Event) {
	switch e.Type {
	case EventLockup:
		c.lockups++
	case EventWheelLift:
		c.wheelLifts++
	case EventGearShift:
		c.gearShifts++
	}
}

// ShouldFlush returns true once the window has elapsed at time now.
func (c *Collector) ShouldFlush(now float64) bool {
	return now-c.start >= c.window && len(c.speed) > 0
}

// Flush produces a WindowStats ending at now and resets for the next window.
// End-of-window state comes from snap.
func (c *Collector) Flush(now float64, snap vehicle.Snapshot) WindowStats {
	speed := Summarize(c.speed)
	lat := Summarize(c.latG)
	util := Summarize(c.util)
	temp := Summarize(c.tireTemp)

	stats := WindowStats{
		WindowStart: c.start,
		WindowEnd:   now,
		Steps:       len(c.speed),

		SpeedMean: speed.Mean,
		SpeedMax:  speed.Max,

		LatGP50:     lat.P50,
		LatGP90:     lat.P90,
		LatGMax:     lat.Max,
		BrakingGMax: c.brakingG,
		AccelGMax:   c.accelG,

		UtilMean:     util.Mean,
		UtilP90:      util.P90,
		TireTempMean: temp.Mean,
		TireTempMax:  temp.Max,
		BrakeTempMax: c.brakeTemp,

		Lockups:    c.lockups,
		WheelLifts: c.wheelLifts,
		GearShifts: c.gearShifts,

		Gear:     snap.State.Gear,
		Distance: snap.Telemetry.Distance,
		ERSStore: snap.State.ERSStore,
	}

	*c = Collector{
		window:   c.window,
		start:    now,
		speed:    c.speed[:0],
		latG:     c.latG[:0],
		util:     c.util[:0],
		tireTemp: c.tireTemp[:0],
	}
	return stats
}

// Window returns the window length in seconds.
func (c *Collector) Window() float64 { return c.window }

// Reset drops the current window and starts a new one at now.
func (c *Collector) Reset(now float64) {
	*c = Collector{window: c.window, start: now}
}
