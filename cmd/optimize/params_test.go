package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/apex/config"
)

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector("street")
	raw := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		raw[i] = s.Min + 0.3*(s.Max-s.Min)
	}
	norm := pv.Normalize(raw)
	for i, v := range norm {
		if math.Abs(v-0.3) > 1e-12 {
			t.Errorf("%s normalized = %v, want 0.3", pv.Specs[i].Name, v)
		}
	}
	back := pv.Denormalize(norm)
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVector_Clamp(t *testing.T) {
	pv := NewParamVector("street")
	v := make([]float64, pv.Dim())
	for i := range v {
		v[i] = 1e6
	}
	for i, x := range pv.Clamp(v) {
		if x != pv.Specs[i].Max {
			t.Errorf("%s clamped = %v, want max %v", pv.Specs[i].Name, x, pv.Specs[i].Max)
		}
	}
}

func TestParamVector_ApplyAndExtract(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector("street")
	want := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		want[i] = (s.Min + s.Max) / 2
	}
	if err := pv.ApplyToConfig(cfg, want); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}

	got, err := pv.ExtractFromConfig(cfg)
	if err != nil {
		t.Fatalf("ExtractFromConfig: %v", err)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}

	veh, _ := cfg.Archetype("street")
	if veh.BrakeBias != want[0] {
		t.Errorf("brake bias not written to the archetype: %v", veh.BrakeBias)
	}
	race, _ := cfg.Archetype("race")
	if race.BrakeBias == want[0] && race.AntiRollFront == want[1] {
		t.Error("other archetypes should be untouched")
	}
}

func TestParamVector_Errors(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := NewParamVector("bus").ApplyToConfig(cfg, nil); err == nil {
		t.Error("expected error for unknown vehicle")
	}
	if err := NewParamVector("street").ApplyToConfig(cfg, []float64{0.5}); err == nil {
		t.Error("expected error for short vector")
	}
}

func TestRunResult_Fitness(t *testing.T) {
	tests := []struct {
		name string
		r    runResult
		want float64
	}{
		{"clean", runResult{time: 12, finished: true}, 12},
		{"lockups", runResult{time: 12, finished: true, lockups: 2}, 13},
		{"lift", runResult{time: 12, finished: true, lifts: 1}, 12.25},
		{"dnf", runResult{time: 30, remaining: 50}, 30 + dnfPenalty + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.fitness(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("fitness() = %v, want %v", got, tt.want)
			}
		})
	}
}
