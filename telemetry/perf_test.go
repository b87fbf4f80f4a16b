package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for range 5 {
		pc.StartStep()
		pc.StartPhase(PhaseVehicle)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhasePhysics)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration")
	}
	if stats.MinStep > stats.AvgStep || stats.AvgStep > stats.MaxStep {
		t.Errorf("min/avg/max out of order: %v %v %v", stats.MinStep, stats.AvgStep, stats.MaxStep)
	}
	for _, phase := range []string{PhaseVehicle, PhasePhysics} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[PhaseDriver]; ok {
		t.Error("driver phase was never started")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for range 10 {
		pc.StartStep()
		pc.StartPhase(PhaseVehicle)
		time.Sleep(50 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.AvgStep <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for range 5 {
		pc.StartStep()
		pc.StartPhase(PhaseDriver)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhasePhysics)
		time.Sleep(2 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhasePhysics] <= stats.PhasePct[PhaseDriver] {
		t.Errorf("expected physics (%v%%) > driver (%v%%)",
			stats.PhasePct[PhasePhysics], stats.PhasePct[PhaseDriver])
	}
	if pct := stats.PhasePct[PhasePhysics] + stats.PhasePct[PhaseDriver]; pct > 100.0001 {
		t.Errorf("phase share %v%% exceeds the step", pct)
	}

	row := stats.ToCSV(3)
	if row.WindowEnd != 3 || row.PhysicsPct != stats.PhasePct[PhasePhysics] {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgStep != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("FPS = %v with 16ms frames", stats.FPS)
	}
}
