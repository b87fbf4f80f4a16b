package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one fixed simulation step.
const (
	PhaseDriver    = "driver"
	PhaseVehicle   = "vehicle"
	PhasePhysics   = "physics"
	PhaseTelemetry = "telemetry"
)

var phases = []string{PhaseDriver, PhaseVehicle, PhasePhysics, PhaseTelemetry}

// stepSample holds timing data for a single step.
type stepSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector tracks step timing over a rolling window of steps.
type PerfCollector struct {
	samples []stepSample
	next    int
	count   int

	current    map[string]time.Duration
	stepStart  time.Time
	phaseStart time.Time
	phase      string

	// Frame timing (graphics mode)
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]stepSample, windowSize),
		current: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.current = make(map[string]time.Duration, len(phases))
	p.phase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.phase = ""

	p.samples[p.next] = stepSample{total: now.Sub(p.stepStart), phases: p.current}
	p.next = (p.next + 1) % len(p.samples)
	p.count = min(p.count+1, len(p.samples))
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average step

	StepsPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		stats.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return stats
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	for i, s := range p.samples[:p.count] {
		total += s.total
		if i == 0 || s.total < stats.MinStep {
			stats.MinStep = s.total
		}
		stats.MaxStep = max(stats.MaxStep, s.total)
		for phase, d := range s.phases {
			sums[phase] += d
		}
	}

	n := time.Duration(p.count)
	stats.AvgStep = total / n
	for phase, sum := range sums {
		stats.PhaseAvg[phase] = sum / n
		if stats.AvgStep > 0 {
			stats.PhasePct[phase] = float64(sum/n) / float64(stats.AvgStep) * 100
		}
	}
	if stats.AvgStep > 0 {
		stats.StepsPerSecond = float64(time.Second) / float64(stats.AvgStep)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("min_step_us", s.MinStep.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd    float64 `csv:"window_end"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	FPS          float64 `csv:"fps"`
	DriverPct    float64 `csv:"driver_pct"`
	VehiclePct   float64 `csv:"vehicle_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd float64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgStepUS:    s.AvgStep.Microseconds(),
		MinStepUS:    s.MinStep.Microseconds(),
		MaxStepUS:    s.MaxStep.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		FPS:          s.FPS,
		DriverPct:    s.PhasePct[PhaseDriver],
		VehiclePct:   s.PhasePct[PhaseVehicle],
		PhysicsPct:   s.PhasePct[PhasePhysics],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
