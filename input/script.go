// Package input provides control sources for the vehicle loop.
package input

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/track"
	"github.com/pthm-cable/apex/vehicle"
)

// Source produces driver inputs once per fixed step.
type Source interface {
	Controls(k vehicle.Kinematics, s *vehicle.VehicleState, dt float64) vehicle.Controls
	Reset()
}

// Phase is a stage of the scripted cornering technique.
type Phase uint8

const (
	PhaseStraight Phase = iota // full throttle toward the braking point
	PhaseBrake                 // threshold braking in a straight line
	PhaseTurnIn                // trail braking while turning in
	PhaseApex                  // hold minimum speed through the apex
	PhaseExit                  // feed the throttle in while unwinding
	PhaseDone                  // past the run-off, bring the car to rest
)

var phaseNames = [...]string{"straight", "brake", "turn_in", "apex", "exit", "done"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Technique constants.
const (
	BrakeRelease   = 1.05 // release threshold braking at this multiple of the target speed
	TrailBrakeMax  = 0.5  // brake pedal at the start of turn-in
	ApexFraction   = 0.25 // share of apex-to-exit held at constant speed
	ApexThrottle   = 0.3  // throttle cap while holding the apex speed
	ApexGain       = 4.0  // throttle per unit of relative speed error
	StopBrake      = 0.5
	minPursuitDist = 1e-3
)

// Script drives one corner with a fixed technique: brake in a straight
// line, trail the brake to the apex, then feed in throttle on exit.
// Steering is pure pursuit on the corner path. Phases only move forward.
type Script struct {
	cfg       config.ScriptConfig
	corner    *track.Corner
	wheelbase float64
	maxSteer  float64
	target    float64

	phase    Phase
	throttle float64
}

var _ Source = (*Script)(nil)

// NewScript plans a run through corner for veh. The target minimum speed is
// cfg.CornerSpeed of the speed at which the arc needs the tire's peak
// friction.
func NewScript(cfg config.ScriptConfig, corner *track.Corner, veh *config.VehicleConfig, g float64) *Script {
	return &Script{
		cfg:       cfg,
		corner:    corner,
		wheelbase: veh.Wheelbase,
		maxSteer:  veh.MaxSteer,
		target:    cfg.CornerSpeed * corner.LimitSpeed(veh.Tire.PeakMu, g),
	}
}

// TargetSpeed returns the planned minimum corner speed in m/s.
func (s *Script) TargetSpeed() float64 { return s.target }

// Phase returns the current technique phase.
func (s *Script) Phase() Phase { return s.phase }

// Reset starts the technique over.
func (s *Script) Reset() {
	s.phase = PhaseStraight
	s.throttle = 0
}

// Controls returns the inputs for the next step.
func (s *Script) Controls(k vehicle.Kinematics, _ *vehicle.VehicleState, dt float64) vehicle.Controls {
	at := s.corner.Project(k.Position)
	speed := math.Hypot(k.Velocity.X, k.Velocity.Z)
	s.advance(at, speed)

	ctl := vehicle.Controls{Steering: s.steer(k, at)}
	switch s.phase {
	case PhaseStraight:
		ctl.Throttle = 1
	case PhaseBrake:
		ctl.Brake = 1
	case PhaseTurnIn:
		if speed > s.target {
			span := s.corner.ApexDistance() - s.corner.EntryDistance()
			left := 1.0
			if span > 0 {
				left = clamp((s.corner.ApexDistance()-at)/span, 0, 1)
			}
			ctl.Brake = TrailBrakeMax * left
		}
	case PhaseApex:
		if s.target > 0 {
			ctl.Throttle = clamp((s.target-speed)/s.target*ApexGain, 0, ApexThrottle)
		}
		s.throttle = ctl.Throttle
	case PhaseExit:
		s.throttle = math.Min(s.throttle+s.cfg.ExitThrottle*dt, 1)
		ctl.Throttle = s.throttle
	case PhaseDone:
		ctl.Brake = StopBrake
		ctl.Steering = 0
	}
	return ctl
}

// advance moves through as many phases as the position and speed allow.
func (s *Script) advance(at, speed float64) {
	c := s.corner
	for {
		next := s.phase
		switch s.phase {
		case PhaseStraight:
			if at >= c.EntryDistance()-s.cfg.BrakeDistance {
				next = PhaseBrake
			}
		case PhaseBrake:
			if speed <= s.target*BrakeRelease || at >= c.EntryDistance() {
				next = PhaseTurnIn
			}
		case PhaseTurnIn:
			if at >= c.ApexDistance() {
				next = PhaseApex
			}
		case PhaseApex:
			if at >= c.ApexDistance()+ApexFraction*(c.ExitDistance()-c.ApexDistance()) {
				next = PhaseExit
			}
		case PhaseExit:
			if at >= c.Length()-s.cfg.Lookahead {
				next = PhaseDone
			}
		}
		if next == s.phase {
			return
		}
		slog.Debug("script phase", "corner", c.Name, "from", s.phase.String(), "to", next.String(),
			"at", at, "speed", speed)
		s.phase = next
	}
}

// steer is pure pursuit toward the path point Lookahead metres ahead.
func (s *Script) steer(k vehicle.Kinematics, at float64) float64 {
	yaw := k.Orientation.Yaw
	d := r3.Sub(s.corner.PointAt(at+s.cfg.Lookahead), k.Position)
	x := r3.Dot(d, vehicle.Forward(yaw))
	y := r3.Dot(d, vehicle.Left(yaw))
	l2 := x*x + y*y
	if l2 < minPursuitDist {
		return 0
	}
	curvature := 2 * y / l2
	return clamp(math.Atan(s.wheelbase*curvature), -s.maxSteer, s.maxSteer)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
