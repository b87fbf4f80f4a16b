// Package systems contains the per-step vehicle models: tire forces, weight
// transfer, drivetrain, aerodynamics and thermal state. Everything here is a
// pure function of its inputs except the small stateful helpers (Gearbox,
// LoadFilter) that the vehicle loop owns.
package systems

// Clamp functions for common value ranges

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
