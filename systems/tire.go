package systems

import (
	"math"

	"github.com/pthm-cable/apex/config"
)

// Tire model constants
const (
	StandardGravity = 9.81
	NominalLoad     = 400 * StandardGravity // N, reference load for load sensitivity

	MinCombinedSlip = 1e-3 // below this the tire produces no force
	MinSlipSpeed    = 0.1  // m/s, slip denominators below this are degenerate

	TempGripFalloff = 1e-4 // grip lost per °C² away from optimal
	MinTempGrip     = 0.7
	WearGripLoss    = 0.3 // grip lost at full wear
)

// Combined is the result of the combined-slip tire law.
type Combined struct {
	Lateral      float64 // N
	Longitudinal float64 // N
	CombinedSlip float64 // Euclidean norm of the two slips
	Utilization  float64 // total force / (load × peak mu), for display only
}

// LoadFactor returns the load-sensitivity scale applied to the peak force.
// With an exponent below one, doubling the load less than doubles the grip.
func LoadFactor(load float64, p config.TireParameters) float64 {
	if load <= 0 {
		return 1
	}
	return math.Pow(load/NominalLoad, p.LoadSensitivity-1)
}

// PeakForce returns the largest force the tire can produce at this load.
func PeakForce(load float64, p config.TireParameters) float64 {
	if load <= 0 {
		return 0
	}
	return p.D * p.PeakMu * load * LoadFactor(load, p)
}

// TireForce evaluates the single-axis force curve
// D·sin(C·atan(B·x − E·(B·x − atan(B·x)))).
func TireForce(slip, load float64, p config.TireParameters) float64 {
	d := PeakForce(load, p)
	if d == 0 {
		return 0
	}
	bx := p.B * slip
	return d * math.Sin(p.C*math.Atan(bx-p.E*(bx-math.Atan(bx))))
}

// CombinedForce distributes the force produced by the combined slip
// magnitude back onto the lateral and longitudinal slip directions.
func CombinedForce(slipLat, slipLong, load float64, p config.TireParameters) Combined {
	s := math.Hypot(slipLat, slipLong)
	if s < MinCombinedSlip {
		return Combined{CombinedSlip: s}
	}

	total := TireForce(s, load, p)
	scale := total / s

	out := Combined{
		Lateral:      slipLat * scale,
		Longitudinal: slipLong * scale,
		CombinedSlip: s,
	}
	if load > 0 && p.PeakMu > 0 {
		out.Utilization = math.Abs(total) / (load * p.PeakMu)
	}
	return out
}

// SlipAngle returns the angle between the wheel heading and its velocity.
// vLat and vLong are the contact-patch velocity in the body frame (left and
// forward positive), steer is the road-wheel angle (left positive).
func SlipAngle(vLat, vLong, steer float64) float64 {
	if math.Abs(vLong) < MinSlipSpeed {
		return 0
	}
	alpha := steer - math.Atan2(vLat, math.Abs(vLong))
	return clamp(alpha, -math.Pi/2, math.Pi/2)
}

// SlipRatio compares wheel surface speed with ground speed.
// The direction of slip picks the branch. A wheel slower than the ground
// normalizes by ground speed and is never positive; a wheel at least as fast
// normalizes by wheel speed and is never negative. braking only decides the
// standstill case: a braked wheel that is not turning on a car that is not
// moving reads as fully locked (-1).
func SlipRatio(omega, radius, vehicleSpeed float64, braking bool) float64 {
	wheelSpeed := omega * radius

	if braking && math.Abs(vehicleSpeed) < MinSlipSpeed && math.Abs(wheelSpeed) < MinSlipSpeed {
		return -1
	}

	if wheelSpeed < vehicleSpeed {
		den := math.Abs(vehicleSpeed)
		if den < MinSlipSpeed {
			return 0
		}
		return clamp((wheelSpeed-vehicleSpeed)/den, -1, 0)
	}

	den := math.Abs(wheelSpeed)
	if den < MinSlipSpeed {
		return 0
	}
	return clamp((wheelSpeed-vehicleSpeed)/den, 0, 1)
}

// TemperatureGrip is a downward quadratic falloff from the optimal
// temperature, floored at MinTempGrip.
func TemperatureGrip(temp, optimal float64) float64 {
	d := temp - optimal
	return math.Max(MinTempGrip, 1-TempGripFalloff*d*d)
}

// WearGrip returns the grip multiplier for a wear fraction in [0, 1].
func WearGrip(wear float64) float64 {
	return 1 - clamp01(wear)*WearGripLoss
}

// GripLevel is the composite friction coefficient shown to the driver.
func GripLevel(p config.TireParameters, temp, wear, load float64) float64 {
	return p.PeakMu * TemperatureGrip(temp, p.OptimalTemp) * WearGrip(wear) * LoadFactor(load, p)
}

// ConditionTire returns p with its peak friction scaled for temperature and wear.
func ConditionTire(p config.TireParameters, temp, wear float64) config.TireParameters {
	p.PeakMu *= TemperatureGrip(temp, p.OptimalTemp) * WearGrip(wear)
	return p
}

// ClampToFrictionCircle scales (lat, long) down so its magnitude does not exceed limit.
func ClampToFrictionCircle(lat, long, limit float64) (float64, float64) {
	if limit <= 0 {
		return 0, 0
	}
	mag := math.Hypot(lat, long)
	if mag <= limit {
		return lat, long
	}
	k := limit / mag
	return lat * k, long * k
}
