package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/apex/config"
)

const g = 9.81

// archetype loads a vehicle from the embedded defaults.
func archetype(t *testing.T, name string) *config.VehicleConfig {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	v, err := cfg.Archetype(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// ---------- static / single-axis transfer ----------

func TestStaticLoads(t *testing.T) {
	v := archetype(t, "street")
	l := StaticLoads(v, g)
	w := v.Mass * g
	if math.Abs(l.Sum()-w) > 1e-9 {
		t.Errorf("sum = %f, want %f", l.Sum(), w)
	}
	if math.Abs(l[WheelFL]-w*0.55/2) > 1e-9 || l[WheelFL] != l[WheelFR] {
		t.Errorf("front loads = %f, %f", l[WheelFL], l[WheelFR])
	}
	if l[WheelRL] != l[WheelRR] {
		t.Errorf("rear loads differ: %f, %f", l[WheelRL], l[WheelRR])
	}
}

// Scenario: 1390 kg street car, 0.45 m CG, 1.5 m front track, 1 g left turn.
func TestLateralTransfer_LeftTurnLoadsRight(t *testing.T) {
	v := archetype(t, "street")
	l := LateralTransfer(v, g, 1.0)

	if l[WheelFL] >= l[WheelFR] {
		t.Fatalf("expected FL < FR, got FL=%f FR=%f", l[WheelFL], l[WheelFR])
	}

	w := 1390 * g
	perWheel := w * 0.55 * 1.0 * 0.45 / 1.5
	if got := l[WheelFR] - l[WheelFL]; math.Abs(got-2*perWheel) > 1e-6 {
		t.Errorf("front left/right difference = %f, want %f", got, 2*perWheel)
	}
	static := StaticLoads(v, g)
	if math.Abs(l[WheelFR]-static[WheelFR]-perWheel) > 1e-6 {
		t.Errorf("FR gained %f, want %f", l[WheelFR]-static[WheelFR], perWheel)
	}
}

func TestLateralTransfer_RightTurnLoadsLeft(t *testing.T) {
	v := archetype(t, "race")
	l := LateralTransfer(v, g, -1.2)
	if l[WheelFL] <= l[WheelFR] || l[WheelRL] <= l[WheelRR] {
		t.Errorf("right turn should load the left wheels: %v", l)
	}
}

func TestLongitudinalTransfer(t *testing.T) {
	v := archetype(t, "street")
	static := StaticLoads(v, g)
	half := v.Mass * g * 0.5 * v.CGHeight / v.Wheelbase / 2

	accel := LongitudinalTransfer(v, g, 0.5)
	if math.Abs(accel[WheelRL]-static[WheelRL]-half) > 1e-6 {
		t.Errorf("accelerating: RL gained %f, want %f", accel[WheelRL]-static[WheelRL], half)
	}
	if math.Abs(static[WheelFL]-accel[WheelFL]-half) > 1e-6 {
		t.Errorf("accelerating: FL lost %f, want %f", static[WheelFL]-accel[WheelFL], half)
	}

	brake := LongitudinalTransfer(v, g, -0.5)
	if brake[WheelFL] <= static[WheelFL] || brake[WheelRR] >= static[WheelRR] {
		t.Errorf("braking should load the front axle: %v", brake)
	}
}

// ---------- CombinedTransfer ----------

func TestCombinedTransfer_ConservesWeightUnderModerateG(t *testing.T) {
	for _, name := range []string{"street", "race"} {
		v := archetype(t, name)
		w := v.Mass * g
		for latG := -1.0; latG <= 1.0; latG += 0.25 {
			for longG := -1.0; longG <= 1.0; longG += 0.25 {
				l := CombinedTransfer(v, g, latG, longG, 0, 0)
				for i, load := range l {
					if load < 0 {
						t.Fatalf("%s lat=%.2f long=%.2f: wheel %d negative (%f)", name, latG, longG, i, load)
					}
				}
				if math.Abs(l.Sum()-w) > 1e-6 {
					t.Fatalf("%s lat=%.2f long=%.2f: sum %f, want %f", name, latG, longG, l.Sum(), w)
				}
			}
		}
	}
}

func TestCombinedTransfer_ConservesWeightWithRollAndPitch(t *testing.T) {
	v := archetype(t, "street")
	w := v.Mass * g
	for _, roll := range []float64{-0.01, 0, 0.01} {
		for _, pitch := range []float64{-0.01, 0, 0.01} {
			for _, latG := range []float64{-0.5, 0, 0.5} {
				l := CombinedTransfer(v, g, latG, -0.5, roll, pitch)
				if math.Abs(l.Sum()-w) > 1e-6 {
					t.Errorf("roll=%.2f pitch=%.2f lat=%.1f: sum %f, want %f", roll, pitch, latG, l.Sum(), w)
				}
			}
		}
	}
}

func TestCombinedTransfer_ClampBreaksConservation(t *testing.T) {
	v := archetype(t, "street")
	w := v.Mass * g
	l := CombinedTransfer(v, g, 3.0, 0, 0, 0)

	if l[WheelFL] != 0 || l[WheelRL] != 0 {
		t.Fatalf("expected inside wheels clamped to 0, got %v", l)
	}
	// The clamped deficit is not redistributed.
	if l.Sum() <= w {
		t.Errorf("expected sum above weight after clamp, got %f <= %f", l.Sum(), w)
	}
}

func TestCombinedTransfer_RollDistribution(t *testing.T) {
	v := archetype(t, "street")
	static := StaticLoads(v, g)
	roll := 0.02
	l := CombinedTransfer(v, g, 0, 0, roll, 0)

	moment := v.Mass * g * v.CGHeight * math.Sin(roll)
	kf := v.SpringFront * v.TrackFront * v.TrackFront / 4
	kr := v.SpringRear * v.TrackRear * v.TrackRear / 4
	wantFront := moment * kf / (kf + kr) / v.TrackFront
	wantRear := moment * kr / (kf + kr) / v.TrackRear

	if math.Abs(l[WheelFR]-static[WheelFR]-wantFront) > 1e-6 {
		t.Errorf("FR roll transfer = %f, want %f", l[WheelFR]-static[WheelFR], wantFront)
	}
	if math.Abs(static[WheelRL]-l[WheelRL]-wantRear) > 1e-6 {
		t.Errorf("RL roll transfer = %f, want %f", static[WheelRL]-l[WheelRL], wantRear)
	}
}

func TestCombinedTransfer_PitchNoseUpLoadsRear(t *testing.T) {
	v := archetype(t, "race")
	static := StaticLoads(v, g)
	l := CombinedTransfer(v, g, 0, 0, 0, 0.01)
	if l[WheelRL] <= static[WheelRL] || l[WheelFL] >= static[WheelFL] {
		t.Errorf("nose up should move load rearward: %v vs static %v", l, static)
	}
	if l[WheelRL] != l[WheelRR] {
		t.Errorf("pitch should split evenly across an axle: %f vs %f", l[WheelRL], l[WheelRR])
	}
}

// ---------- trail braking / anti-roll ----------

func TestTrailBrakingTransfer(t *testing.T) {
	v := archetype(t, "street")
	brake := 8000.0

	tests := []struct {
		name            string
		latG, speed     float64
		outside, inside int
		extra           float64
	}{
		{"left turn fast", 0.8, 40, WheelFR, WheelFL, brake * 0.1},
		{"left turn slow", 0.8, 15, WheelFR, WheelFL, brake * 0.5 * 0.1},
		{"right turn fast", -0.8, 40, WheelFL, WheelFR, brake * 0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base := CombinedTransfer(v, g, tc.latG, -brake/(v.Mass*g), 0, 0)
			l := TrailBrakingTransfer(v, g, tc.latG, brake, tc.speed, 0, 0)

			if got := l[tc.outside] - base[tc.outside]; math.Abs(got-tc.extra) > 1e-6 {
				t.Errorf("outside gained %f, want %f", got, tc.extra)
			}
			if got := base[tc.inside] - l[tc.inside]; math.Abs(got-tc.extra/2) > 1e-6 {
				t.Errorf("inside lost %f, want %f", got, tc.extra/2)
			}
			if l[WheelRL] != base[WheelRL] || l[WheelRR] != base[WheelRR] {
				t.Error("rear wheels should match the base transfer")
			}
		})
	}
}

func TestAntiRollTransfer(t *testing.T) {
	v := archetype(t, "street")
	front, rear := AntiRollTransfer(v, g, 1.0)
	moment := v.Mass * g * v.CGHeight
	if math.Abs(front-moment*v.AntiRollFront/v.TrackFront) > 1e-9 {
		t.Errorf("front = %f", front)
	}
	if math.Abs(rear-moment*v.AntiRollRear/v.TrackRear) > 1e-9 {
		t.Errorf("rear = %f", rear)
	}

	static := StaticLoads(v, g)
	l := static.AddAxleTransfer(front, rear)
	if math.Abs(l.Sum()-static.Sum()) > 1e-9 {
		t.Error("anti-roll correction should not change total load")
	}

	if f, r := AntiRollTransfer(v, g, 0); f != 0 || r != 0 {
		t.Errorf("no lateral G should give no correction, got %f %f", f, r)
	}
}

// ---------- LoadFilter ----------

func TestLoadFilter(t *testing.T) {
	var f LoadFilter
	a := WheelLoads{1000, 1000, 1000, 1000}
	b := WheelLoads{2000, 0, 1500, 500}

	if got := f.Apply(a, 1.0/60); got != a {
		t.Fatalf("first sample should pass through, got %v", got)
	}

	got := f.Apply(b, 1.0/60)
	want := WheelLoads{1500, 500, 1250, 750}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("wheel %d = %f, want %f", i, got[i], want[i])
		}
	}
	if math.Abs(got.Sum()-a.Sum()) > 1e-9 {
		t.Errorf("filter changed total load: %f", got.Sum())
	}

	// Large steps are capped at the same blend.
	capped := f.Apply(b, 1.0)
	if math.Abs(capped[WheelFL]-1750) > 1e-9 {
		t.Errorf("capped step FL = %f, want 1750", capped[WheelFL])
	}

	if held := f.Apply(a, 0); held != capped {
		t.Errorf("zero dt should hold state, got %v", held)
	}

	f.Reset()
	if got := f.Apply(b, 1.0/60); got != b {
		t.Errorf("after reset the next sample should seed the filter, got %v", got)
	}
}

func TestLoadFilter_SmallStep(t *testing.T) {
	var f LoadFilter
	f.Apply(WheelLoads{}, 0)
	got := f.Apply(WheelLoads{600, 600, 600, 600}, 1.0/240)
	// alpha = 0.25 × 0.5
	if math.Abs(got[WheelRR]-75) > 1e-9 {
		t.Errorf("RR = %f, want 75", got[WheelRR])
	}
}
