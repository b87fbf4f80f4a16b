package game

import (
	"math"
	"testing"
)

func TestFixedStep_Advance(t *testing.T) {
	tests := []struct {
		name      string
		frames    []float64
		wantSteps int
		wantAlpha float64
	}{
		{"exact step", []float64{0.01}, 1, 0},
		{"partial", []float64{0.004}, 0, 0.4},
		{"accumulates", []float64{0.004, 0.004, 0.004}, 1, 0.2},
		{"several", []float64{0.035}, 3, 0.5},
		{"negative ignored", []float64{-0.5, 0.015}, 1, 0.5},
		{"NaN ignored", []float64{math.NaN(), 0.015}, 1, 0.5},
		{"Inf ignored", []float64{math.Inf(1), 0.015}, 1, 0.5},
		{"zero", []float64{0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFixedStep(0.01, 5)
			total := 0
			var alpha float64
			for _, dt := range tt.frames {
				var n int
				alpha, n = f.Advance(dt, func(step float64) {
					if step != 0.01 {
						t.Errorf("step called with %v", step)
					}
				})
				total += n
			}
			if total != tt.wantSteps {
				t.Errorf("steps = %d, want %d", total, tt.wantSteps)
			}
			if math.Abs(alpha-tt.wantAlpha) > 1e-6 {
				t.Errorf("alpha = %v, want %v", alpha, tt.wantAlpha)
			}
		})
	}
}

func TestFixedStep_DropsExcessTime(t *testing.T) {
	f := NewFixedStep(0.01, 4)
	calls := 0
	alpha, steps := f.Advance(1.0025, func(float64) { calls++ })

	if steps != 4 || calls != 4 {
		t.Errorf("steps = %d, calls = %d, want 4", steps, calls)
	}
	if alpha < 0 || alpha >= 1 {
		t.Errorf("alpha = %v, want in [0, 1)", alpha)
	}
	if math.Abs(alpha-0.25) > 1e-6 {
		t.Errorf("alpha = %v, want the partial step 0.25", alpha)
	}

	// Nothing left to catch up on.
	if _, steps := f.Advance(0, func(float64) {}); steps != 0 {
		t.Errorf("catch-up steps = %d, want 0", steps)
	}
}

func TestFixedStep_StepCountMatchesTime(t *testing.T) {
	f := NewFixedStep(1.0/120, 10)
	total := 0
	for range 600 {
		_, n := f.Advance(1.0/60, func(float64) {})
		total += n
	}
	// 10 s at 120 Hz, give or take rounding of the last step.
	if total < 1199 || total > 1200 {
		t.Errorf("steps = %d, want ~1200", total)
	}
}

func TestFixedStep_Reset(t *testing.T) {
	f := NewFixedStep(0.01, 5)
	f.Advance(0.005, func(float64) {})
	if f.Pending() == 0 {
		t.Fatal("expected pending time")
	}
	f.Reset()
	if f.Pending() != 0 {
		t.Errorf("Pending() = %v after Reset", f.Pending())
	}
	if alpha, steps := f.Advance(0.005, func(float64) {}); steps != 0 || math.Abs(alpha-0.5) > 1e-9 {
		t.Errorf("after Reset: alpha=%v steps=%d", alpha, steps)
	}
}

func TestFixedStep_ZeroDT(t *testing.T) {
	f := &FixedStep{MaxSteps: 3}
	called := false
	if _, steps := f.Advance(1, func(float64) { called = true }); steps != 0 || called {
		t.Error("zero DT should never step")
	}
}
