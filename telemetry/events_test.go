package telemetry

import (
	"testing"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/vehicle"
)

func eventsConfig() config.EventsConfig {
	return config.EventsConfig{LockupSlip: -0.95, LockupMinSpeed: 3, HistorySize: 4}
}

func state(time float64) *vehicle.VehicleState {
	return &vehicle.VehicleState{Time: time, Gear: 2, Speed: 20}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestEventDetector_LockupEdge(t *testing.T) {
	d := NewEventDetector(eventsConfig())
	s := state(0)
	d.Check(s)

	s = state(0.1)
	s.Wheels[1].SlipRatio = -1
	events := d.Check(s)
	if len(events) != 1 || events[0].Type != EventLockup || events[0].Wheel != 1 {
		t.Fatalf("events = %+v, want one FR lockup", events)
	}

	// Still locked: no repeat.
	if events := d.Check(s); len(events) != 0 {
		t.Errorf("repeat events = %v", types(events))
	}

	// Released, then locked again: fires again.
	s.Wheels[1].SlipRatio = 0
	d.Check(s)
	s.Wheels[1].SlipRatio = -1
	if events := d.Check(s); len(events) != 1 {
		t.Errorf("rearmed lockup events = %v", types(events))
	}
}

func TestEventDetector_LockupBelowMinSpeed(t *testing.T) {
	d := NewEventDetector(eventsConfig())
	s := state(0)
	s.Speed = 1
	s.Wheels[0].SlipRatio = -1
	if events := d.Check(s); len(events) != 0 {
		t.Errorf("events at %v m/s = %v", s.Speed, types(events))
	}
}

func TestEventDetector_WheelLift(t *testing.T) {
	d := NewEventDetector(eventsConfig())
	s := state(0)
	s.LateralG = 0.05
	s.Wheels[0].Lifted = true
	s.Wheels[2].Lifted = true

	events := d.Check(s)
	if len(events) != 2 {
		t.Fatalf("events = %v, want two lifts", types(events))
	}
	if events[0].Wheel != 0 || events[1].Wheel != 2 {
		t.Errorf("lifted wheels = %d, %d", events[0].Wheel, events[1].Wheel)
	}
}

func TestEventDetector_GearAndDRS(t *testing.T) {
	d := NewEventDetector(eventsConfig())
	s := state(0)
	if events := d.Check(s); len(events) != 0 {
		t.Fatalf("first state produced %v", types(events))
	}

	s = state(0.1)
	s.Gear = 3
	s.DRS = true
	events := d.Check(s)
	if got := types(events); len(got) != 2 || got[0] != EventGearShift || got[1] != EventDRSOpen {
		t.Fatalf("events = %v", got)
	}
	if events[0].Value != 3 || events[0].Wheel != NoWheel {
		t.Errorf("gear event = %+v", events[0])
	}

	s = state(0.2)
	s.Gear = 3
	if got := types(d.Check(s)); len(got) != 1 || got[0] != EventDRSClose {
		t.Errorf("events = %v, want drs close", got)
	}
}

func TestEventDetector_MaxLateralG(t *testing.T) {
	d := NewEventDetector(eventsConfig())

	tests := []struct {
		latG float64
		want bool
	}{
		{0.05, false},
		{0.5, true},
		{0.55, false},
		{-0.65, true}, // either direction counts
		{0.7, false},
		{0.76, true},
	}
	for i, tt := range tests {
		s := state(float64(i))
		s.LateralG = tt.latG
		got := len(d.Check(s)) == 1
		if got != tt.want {
			t.Errorf("latG %v: reported = %v, want %v", tt.latG, got, tt.want)
		}
	}
}

func TestEventDetector_History(t *testing.T) {
	d := NewEventDetector(eventsConfig())
	s := state(0)
	d.Check(s)

	for gear := 3; gear <= 8; gear++ {
		s = state(float64(gear))
		s.Gear = gear
		d.Check(s)
	}

	recent := d.Recent()
	if len(recent) != 4 {
		t.Fatalf("len(Recent) = %d, want 4", len(recent))
	}
	for i, e := range recent {
		if want := float64(5 + i); e.Value != want {
			t.Errorf("Recent[%d] gear = %v, want %v", i, e.Value, want)
		}
	}

	d.Reset()
	if len(d.Recent()) != 0 {
		t.Errorf("Recent after Reset = %v", d.Recent())
	}
}
