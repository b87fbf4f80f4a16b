package systems

import "github.com/pthm-cable/apex/config"

// AeroLoads holds aerodynamic force magnitudes in newtons. Drag opposes the
// direction of travel; Front and Rear push the axles down and are zero when
// HasDownforce is false.
type AeroLoads struct {
	Drag         float64
	Front        float64
	Rear         float64
	HasDownforce bool
}

// Downforce returns the total downforce.
func (a AeroLoads) Downforce() float64 { return a.Front + a.Rear }

// DynamicPressure returns ½ρv².
func DynamicPressure(speed, airDensity float64) float64 {
	return 0.5 * airDensity * speed * speed
}

// AeroForces computes drag and, for cars configured with downforce, the
// front and rear downforce including ground effect and DRS.
func AeroForces(speed, airDensity float64, cfg config.AeroConfig, drsActive bool) AeroLoads {
	q := DynamicPressure(speed, airDensity)
	out := AeroLoads{Drag: q * cfg.DragCoefficient * cfg.FrontalArea}

	df := cfg.Downforce
	if df == nil {
		return out
	}
	drs := drsActive && df.DRS != nil
	if drs {
		out.Drag *= df.DRS.DragFactor
	}

	total := q * (df.Front + df.Rear) * cfg.FrontalArea
	if df.GroundEffect > 0 && speed > df.GroundEffectSpeed {
		total *= df.GroundEffect
	}

	out.HasDownforce = true
	out.Front = total * df.Balance
	out.Rear = total * (1 - df.Balance)
	if drs {
		out.Rear *= df.DRS.RearFactor
	}
	return out
}

// DRSAllowed reports whether the drag-reduction flap may open at speed.
func DRSAllowed(speed float64, cfg config.AeroConfig) bool {
	return cfg.Downforce != nil && cfg.Downforce.DRS != nil && speed >= cfg.Downforce.DRS.MinSpeed
}
