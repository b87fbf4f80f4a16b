package vehicle

import (
	"log/slog"
	"math"
)

// Telemetry holds session maxima and distance. Values only grow until Reset.
type Telemetry struct {
	MaxSpeed    float64 // m/s
	MaxLateralG float64
	MaxBrakingG float64
	MaxAccelG   float64
	Distance    float64 // m
}

// Observe folds one completed step into the maxima.
func (t *Telemetry) Observe(s *VehicleState, dt float64) {
	t.MaxSpeed = math.Max(t.MaxSpeed, s.Speed)
	t.MaxLateralG = math.Max(t.MaxLateralG, math.Abs(s.LateralG))
	t.MaxBrakingG = math.Max(t.MaxBrakingG, -s.LongitudinalG)
	t.MaxAccelG = math.Max(t.MaxAccelG, s.LongitudinalG)
	t.Distance += s.Speed * dt
}

// Reset clears all maxima and the distance.
func (t *Telemetry) Reset() { *t = Telemetry{} }

// Snapshot is a copy of the vehicle's exposed state after a completed step.
// It shares nothing with the live vehicle.
type Snapshot struct {
	Name      string
	State     VehicleState
	Telemetry Telemetry
}

// LogValue implements slog.LogValuer for structured logging.
func (s Snapshot) LogValue() slog.Value {
	st := s.State
	return slog.GroupValue(
		slog.String("vehicle", s.Name),
		slog.Float64("time", st.Time),
		slog.Float64("speed", st.Speed),
		slog.Int("gear", st.Gear),
		slog.Float64("rpm", st.RPM),
		slog.Float64("lat_g", st.LateralG),
		slog.Float64("long_g", st.LongitudinalG),
		slog.Float64("yaw_rate", st.YawRate),
		slog.Bool("drs", st.DRS),
		slog.Float64("max_speed", s.Telemetry.MaxSpeed),
		slog.Float64("max_lat_g", s.Telemetry.MaxLateralG),
		slog.Float64("distance", s.Telemetry.Distance),
	)
}
