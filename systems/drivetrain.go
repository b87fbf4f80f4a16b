package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/pthm-cable/apex/config"
)

// Drivetrain constants
const (
	UpshiftFraction   = 0.95 // of max RPM
	DownshiftFraction = 0.50 // of max RPM
	RPMSmoothing      = 8.0  // 1/s, rate at which RPM follows wheel speed
	radPerSecToRPM    = 60 / (2 * math.Pi)
)

// TorqueCurve is a piecewise-linear engine torque map. Outside the sampled
// range it holds the endpoint values.
type TorqueCurve struct {
	pl       interp.PiecewiseLinear
	min, max float64
}

// NewTorqueCurve fits a curve through samples ordered by increasing RPM.
func NewTorqueCurve(samples []config.TorqueSample) (*TorqueCurve, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("torque curve needs at least 2 samples, got %d", len(samples))
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		if i > 0 && s.RPM <= xs[i-1] {
			return nil, fmt.Errorf("torque curve rpm not increasing at sample %d", i)
		}
		xs[i] = s.RPM
		ys[i] = s.Torque
	}

	c := &TorqueCurve{}
	if err := c.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting torque curve: %w", err)
	}
	c.min, c.max = xs[0], xs[len(xs)-1]
	return c, nil
}

// At returns the torque in N·m at rpm.
func (c *TorqueCurve) At(rpm float64) float64 {
	return c.pl.Predict(clamp(rpm, c.min, c.max))
}

// EngineTorque interpolates the curve at rpm. A nil curve produces no torque.
func EngineTorque(rpm float64, curve *TorqueCurve) float64 {
	if curve == nil {
		return 0
	}
	return curve.At(rpm)
}

// WheelDriveForce converts engine torque at the current gear into a total
// tractive force at the contact patch.
func WheelDriveForce(throttle, rpm, gearRatio, finalDrive, efficiency float64, curve *TorqueCurve, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	torque := EngineTorque(rpm, curve) * clamp01(throttle)
	return torque * gearRatio * finalDrive * efficiency / radius
}

// SelectGear applies the shift rule: up above 95% of max RPM when a higher
// gear exists, down below 50% when a lower gear exists, otherwise hold.
// Gears are 1-based.
func SelectGear(current int, rpm, maxRPM float64, gears int) int {
	if gears < 1 {
		return 1
	}
	current = max(1, min(current, gears))
	switch {
	case rpm > UpshiftFraction*maxRPM && current < gears:
		return current + 1
	case rpm < DownshiftFraction*maxRPM && current > 1:
		return current - 1
	}
	return current
}

// Gearbox holds the engine speed and selected gear between steps.
type Gearbox struct {
	cfg  *config.EngineConfig
	Gear int     // 1-based
	RPM  float64 // smoothed engine speed
}

// NewGearbox starts in first gear at idle.
func NewGearbox(cfg *config.EngineConfig) *Gearbox {
	g := &Gearbox{cfg: cfg}
	g.Reset()
	return g
}

// Reset returns to first gear at idle.
func (g *Gearbox) Reset() {
	g.Gear = 1
	g.RPM = g.cfg.IdleRPM
}

// Ratio returns the ratio of the selected gear.
func (g *Gearbox) Ratio() float64 {
	return g.cfg.GearRatios[g.Gear-1]
}

// Gears returns the number of forward gears.
func (g *Gearbox) Gears() int { return len(g.cfg.GearRatios) }

// AtLimiter reports whether the engine is pinned at max RPM.
func (g *Gearbox) AtLimiter() bool { return g.RPM >= g.cfg.MaxRPM }

// Update moves RPM toward the speed implied by the driven wheels, then
// evaluates the shift rule once. On a shift RPM is rescaled by the ratio
// change so the next step does not see the old gear's speed.
// It reports whether a shift happened.
func (g *Gearbox) Update(wheelOmega, dt float64) bool {
	target := math.Abs(wheelOmega) * g.Ratio() * g.cfg.FinalDrive * radPerSecToRPM

	blend := clamp01(RPMSmoothing * dt)
	g.RPM += (target - g.RPM) * blend
	g.RPM = clamp(g.RPM, g.cfg.IdleRPM, g.cfg.MaxRPM)

	next := SelectGear(g.Gear, g.RPM, g.cfg.MaxRPM, g.Gears())
	if next == g.Gear {
		return false
	}
	ratio := g.cfg.GearRatios[next-1] / g.Ratio()
	g.Gear = next
	g.RPM = clamp(g.RPM*ratio, g.cfg.IdleRPM, g.cfg.MaxRPM)
	return true
}
