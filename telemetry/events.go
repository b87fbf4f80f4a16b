// Package telemetry turns per-step vehicle state into windowed statistics,
// driving events, and CSV/JSON output for offline analysis.
package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/vehicle"
)

// EventType identifies a driving event.
type EventType string

const (
	EventWheelLift EventType = "wheel_lift"
	EventLockup    EventType = "lockup"
	EventGearShift EventType = "gear_shift"
	EventDRSOpen   EventType = "drs_open"
	EventDRSClose  EventType = "drs_close"
	EventMaxLatG   EventType = "max_lateral_g"
)

// NoWheel marks events that are not tied to one wheel.
const NoWheel = -1

// MaxLatGStep is how far a lateral g record must be beaten before it is
// reported again.
const MaxLatGStep = 0.1

// Event is one detected driving event.
type Event struct {
	Type        EventType `csv:"type"`
	Time        float64   `csv:"time"`
	Wheel       int       `csv:"wheel"`
	Value       float64   `csv:"value"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"time", e.Time,
		"wheel", e.Wheel,
		"value", e.Value,
		"description", e.Description,
	)
}

var wheelNames = [4]string{"FL", "FR", "RL", "RR"}

// EventDetector compares successive vehicle states and reports edges.
// Each condition fires once when it becomes true and rearms when it clears.
type EventDetector struct {
	cfg config.EventsConfig

	prev   vehicle.VehicleState
	primed bool
	lifted [4]bool
	locked [4]bool
	latG   float64 // last reported lateral g record

	// Rolling history (circular buffer)
	history     []Event
	historyIdx  int
	historyFull bool
}

// NewEventDetector creates a detector. History keeps the most recent
// cfg.HistorySize events.
func NewEventDetector(cfg config.EventsConfig) *EventDetector {
	size := max(cfg.HistorySize, 1)
	return &EventDetector{
		cfg:     cfg,
		history: make([]Event, size),
	}
}

// Check analyzes the latest state and returns any new events.
func (d *EventDetector) Check(s *vehicle.VehicleState) []Event {
	var events []Event
	add := func(e Event) {
		events = append(events, e)
		d.remember(e)
	}

	for i, w := range s.Wheels {
		if w.Lifted && !d.lifted[i] {
			add(Event{Type: EventWheelLift, Time: s.Time, Wheel: i, Value: s.LateralG,
				Description: fmt.Sprintf("%s lifted at %.2f g", wheelNames[i], s.LateralG)})
		}
		d.lifted[i] = w.Lifted

		locked := w.SlipRatio <= d.cfg.LockupSlip && s.Speed >= d.cfg.LockupMinSpeed
		if locked && !d.locked[i] {
			add(Event{Type: EventLockup, Time: s.Time, Wheel: i, Value: s.Speed,
				Description: fmt.Sprintf("%s locked at %.1f m/s", wheelNames[i], s.Speed)})
		}
		d.locked[i] = locked
	}

	if d.primed {
		if s.Gear != d.prev.Gear {
			add(Event{Type: EventGearShift, Time: s.Time, Wheel: NoWheel, Value: float64(s.Gear),
				Description: fmt.Sprintf("%d -> %d at %.0f rpm", d.prev.Gear, s.Gear, s.RPM)})
		}
		switch {
		case s.DRS && !d.prev.DRS:
			add(Event{Type: EventDRSOpen, Time: s.Time, Wheel: NoWheel, Value: s.Speed})
		case !s.DRS && d.prev.DRS:
			add(Event{Type: EventDRSClose, Time: s.Time, Wheel: NoWheel, Value: s.Speed})
		}
	}

	if lat := math.Abs(s.LateralG); lat >= d.latG+MaxLatGStep {
		d.latG = lat
		add(Event{Type: EventMaxLatG, Time: s.Time, Wheel: NoWheel, Value: lat,
			Description: fmt.Sprintf("new lateral record %.2f g", lat)})
	}

	d.prev = *s
	d.primed = true
	return events
}

func (d *EventDetector) remember(e Event) {
	d.history[d.historyIdx] = e
	d.historyIdx = (d.historyIdx + 1) % len(d.history)
	if d.historyIdx == 0 {
		d.historyFull = true
	}
}

// Recent returns remembered events, oldest first.
func (d *EventDetector) Recent() []Event {
	if !d.historyFull {
		return append([]Event(nil), d.history[:d.historyIdx]...)
	}
	out := make([]Event, 0, len(d.history))
	out = append(out, d.history[d.historyIdx:]...)
	return append(out, d.history[:d.historyIdx]...)
}

// Reset forgets all edge state and history.
func (d *EventDetector) Reset() {
	*d = EventDetector{cfg: d.cfg, history: make([]Event, len(d.history))}
}
