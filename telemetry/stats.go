package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStart float64 `csv:"-"`
	WindowEnd   float64 `csv:"window_end"`
	Steps       int     `csv:"steps"`

	// Speed (m/s)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedMax  float64 `csv:"speed_max"`

	// Accelerations in g; lateral is absolute
	LatGP50     float64 `csv:"lat_g_p50"`
	LatGP90     float64 `csv:"lat_g_p90"`
	LatGMax     float64 `csv:"lat_g_max"`
	BrakingGMax float64 `csv:"braking_g_max"`
	AccelGMax   float64 `csv:"accel_g_max"`

	// Tire usage across all four wheels
	UtilMean     float64 `csv:"util_mean"`
	UtilP90      float64 `csv:"util_p90"`
	TireTempMean float64 `csv:"tire_temp_mean"`
	TireTempMax  float64 `csv:"tire_temp_max"`
	BrakeTempMax float64 `csv:"brake_temp_max"`

	// Events during window
	Lockups    int `csv:"lockups"`
	WheelLifts int `csv:"wheel_lifts"`
	GearShifts int `csv:"gear_shifts"`

	// State at window end
	Gear     int     `csv:"gear"`
	Distance float64 `csv:"distance"`
	ERSStore float64 `csv:"ers_store"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summary is the mean and spread of one sampled channel.
type Summary struct {
	Mean, P10, P50, P90, Max float64
}

// Summarize computes a Summary without modifying values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Mean: floats.Sum(values) / float64(n),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  sorted[n-1],
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_start", s.WindowStart),
		slog.Float64("window_end", s.WindowEnd),
		slog.Int("steps", s.Steps),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("lat_g_p50", s.LatGP50),
		slog.Float64("lat_g_p90", s.LatGP90),
		slog.Float64("lat_g_max", s.LatGMax),
		slog.Float64("braking_g_max", s.BrakingGMax),
		slog.Float64("accel_g_max", s.AccelGMax),
		slog.Float64("util_mean", s.UtilMean),
		slog.Float64("util_p90", s.UtilP90),
		slog.Float64("tire_temp_mean", s.TireTempMean),
		slog.Float64("tire_temp_max", s.TireTempMax),
		slog.Float64("brake_temp_max", s.BrakeTempMax),
		slog.Int("lockups", s.Lockups),
		slog.Int("wheel_lifts", s.WheelLifts),
		slog.Int("gear_shifts", s.GearShifts),
		slog.Int("gear", s.Gear),
		slog.Float64("distance", s.Distance),
		slog.Float64("ers_store", s.ERSStore),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
