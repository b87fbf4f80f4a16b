package config

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ErrInvalidVehicle is returned when a vehicle archetype cannot be simulated.
var ErrInvalidVehicle = errors.New("invalid vehicle config")

// Archetype tags which family of vehicle a config describes.
type Archetype uint8

const (
	ArchetypeStreet Archetype = iota // road car: no downforce, no DRS, no ERS
	ArchetypeRace                    // open-wheel race car: downforce required
)

var archetypeNames = map[Archetype]string{
	ArchetypeStreet: "street",
	ArchetypeRace:   "race",
}

func (a Archetype) String() string {
	if s, ok := archetypeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("archetype(%d)", a)
}

// UnmarshalYAML decodes an archetype from its name.
func (a *Archetype) UnmarshalYAML(node *yaml.Node) error {
	for k, v := range archetypeNames {
		if v == node.Value {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown archetype %q", node.Value)
}

// MarshalYAML encodes an archetype as its name.
func (a Archetype) MarshalYAML() (any, error) {
	return a.String(), nil
}

// Driven selects which axle receives drive torque.
type Driven uint8

const (
	DrivenRear Driven = iota
	DrivenFront
	DrivenAll
)

var drivenNames = map[Driven]string{
	DrivenRear:  "rear",
	DrivenFront: "front",
	DrivenAll:   "all",
}

func (d Driven) String() string {
	if s, ok := drivenNames[d]; ok {
		return s
	}
	return fmt.Sprintf("driven(%d)", d)
}

// UnmarshalYAML decodes the driven axle from its name.
func (d *Driven) UnmarshalYAML(node *yaml.Node) error {
	for k, v := range drivenNames {
		if v == node.Value {
			*d = k
			return nil
		}
	}
	return fmt.Errorf("unknown driven axle %q", node.Value)
}

// MarshalYAML encodes the driven axle as its name.
func (d Driven) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Drives reports whether wheel i (FL, FR, RL, RR order) is driven.
func (d Driven) Drives(i int) bool {
	switch d {
	case DrivenFront:
		return i < 2
	case DrivenAll:
		return true
	default:
		return i >= 2
	}
}

// VehicleConfig is the static description of one vehicle archetype.
// It is immutable for the lifetime of a vehicle instance.
type VehicleConfig struct {
	Name      string    `yaml:"name"`
	Archetype Archetype `yaml:"archetype"`

	// Mass and geometry
	Mass        float64 `yaml:"mass"`         // kg
	Wheelbase   float64 `yaml:"wheelbase"`    // m
	TrackFront  float64 `yaml:"track_front"`  // m
	TrackRear   float64 `yaml:"track_rear"`   // m
	CGHeight    float64 `yaml:"cg_height"`    // m
	FrontWeight float64 `yaml:"front_weight"` // static fraction on the front axle
	WheelMass   float64 `yaml:"wheel_mass"`   // kg per wheel
	MaxSteer    float64 `yaml:"max_steer"`    // road-wheel angle limit in radians

	// TireFadeSpeed ramps tire forces in from zero below this speed to keep
	// the contact patches quiet at standstill. 0 disables the ramp.
	TireFadeSpeed float64 `yaml:"tire_fade_speed"` // m/s

	// Suspension
	SpringFront   float64 `yaml:"spring_front"`    // N/m per wheel
	SpringRear    float64 `yaml:"spring_rear"`     // N/m per wheel
	DamperFront   float64 `yaml:"damper_front"`    // N·s/m per wheel
	DamperRear    float64 `yaml:"damper_rear"`     // N·s/m per wheel
	MaxTravel     float64 `yaml:"max_travel"`      // m
	AntiRollFront float64 `yaml:"anti_roll_front"` // dimensionless share of roll moment
	AntiRollRear  float64 `yaml:"anti_roll_rear"`

	// Brakes
	BrakeFront float64 `yaml:"brake_front"` // N, whole axle at full pedal
	BrakeRear  float64 `yaml:"brake_rear"`  // N, whole axle at full pedal
	BrakeBias  float64 `yaml:"brake_bias"`  // front fraction of brake demand

	Aero   AeroConfig     `yaml:"aero"`
	Engine EngineConfig   `yaml:"engine"`
	Tire   TireParameters `yaml:"tire"`
	ERS    *ERSConfig     `yaml:"ers,omitempty"`
}

// AeroConfig holds aerodynamic coefficients. Downforce is nil for street cars.
type AeroConfig struct {
	DragCoefficient float64          `yaml:"drag_coefficient"`
	FrontalArea     float64          `yaml:"frontal_area"` // m^2
	Downforce       *DownforceConfig `yaml:"downforce,omitempty"`
}

// DownforceConfig holds lift coefficients for cars that generate downforce.
type DownforceConfig struct {
	Front             float64    `yaml:"front"`               // front lift coefficient
	Rear              float64    `yaml:"rear"`                // rear lift coefficient
	Balance           float64    `yaml:"balance"`             // front fraction of total downforce
	GroundEffect      float64    `yaml:"ground_effect"`       // multiplier above GroundEffectSpeed
	GroundEffectSpeed float64    `yaml:"ground_effect_speed"` // m/s
	DRS               *DRSConfig `yaml:"drs,omitempty"`
}

// DRSConfig holds drag-reduction parameters.
type DRSConfig struct {
	DragFactor float64 `yaml:"drag_factor"` // drag multiplier when open
	RearFactor float64 `yaml:"rear_factor"` // rear downforce multiplier when open
	MinSpeed   float64 `yaml:"min_speed"`   // m/s below which DRS stays closed
}

// ERSConfig holds energy-recovery parameters.
type ERSConfig struct {
	Power       float64 `yaml:"power"`        // W deployed while active
	Capacity    float64 `yaml:"capacity"`     // J
	HarvestRate float64 `yaml:"harvest_rate"` // fraction of braking power recovered
	HarvestMax  float64 `yaml:"harvest_max"`  // W
}

// EngineConfig holds the torque curve and transmission.
type EngineConfig struct {
	TorqueCurve []TorqueSample `yaml:"torque_curve"`
	IdleRPM     float64        `yaml:"idle_rpm"`
	MaxRPM      float64        `yaml:"max_rpm"`
	GearRatios  []float64      `yaml:"gear_ratios"`
	FinalDrive  float64        `yaml:"final_drive"`
	Efficiency  float64        `yaml:"efficiency"`
	Driven      Driven         `yaml:"driven"`
}

// TorqueSample is one point of the engine torque curve.
type TorqueSample struct {
	RPM    float64 `yaml:"rpm"`
	Torque float64 `yaml:"torque"` // N·m
}

// TireParameters holds the force-curve coefficients for one tire class.
type TireParameters struct {
	B               float64  `yaml:"b"` // stiffness
	C               float64  `yaml:"c"` // shape
	D               float64  `yaml:"d"` // normalized peak
	E               float64  `yaml:"e"` // curvature
	PeakMu          float64  `yaml:"peak_mu"`
	LoadSensitivity float64  `yaml:"load_sensitivity"` // exponent, < 1 means diminishing grip per N
	Radius          float64  `yaml:"radius"`           // m
	Width           float64  `yaml:"width"`            // m
	OptimalTemp     float64  `yaml:"optimal_temp"`     // °C
	Compound        Compound `yaml:"compound"`
}

// Validate checks that the vehicle can be simulated. All problems are
// reported together, each wrapped in ErrInvalidVehicle.
func (v *VehicleConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidVehicle, v.Name, fmt.Sprintf(format, args...)))
	}
	positive := func(name string, x float64) {
		if !(x > 0) || math.IsInf(x, 0) {
			bad("%s must be positive, got %v", name, x)
		}
	}
	nonNegative := func(name string, x float64) {
		if !(x >= 0) || math.IsInf(x, 0) {
			bad("%s must not be negative, got %v", name, x)
		}
	}
	finite := func(name string, x float64) {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			bad("%s must be finite, got %v", name, x)
		}
	}
	fraction := func(name string, x float64) {
		if !(x >= 0 && x <= 1) {
			bad("%s must be in [0, 1], got %v", name, x)
		}
	}

	positive("mass", v.Mass)
	positive("wheelbase", v.Wheelbase)
	positive("track_front", v.TrackFront)
	positive("track_rear", v.TrackRear)
	positive("spring_front", v.SpringFront)
	positive("spring_rear", v.SpringRear)
	positive("tire.radius", v.Tire.Radius)
	positive("tire.peak_mu", v.Tire.PeakMu)
	positive("engine.final_drive", v.Engine.FinalDrive)
	positive("engine.max_rpm", v.Engine.MaxRPM)
	positive("engine.efficiency", v.Engine.Efficiency)
	nonNegative("cg_height", v.CGHeight)
	nonNegative("wheel_mass", v.WheelMass)
	nonNegative("max_steer", v.MaxSteer)
	nonNegative("tire_fade_speed", v.TireFadeSpeed)
	nonNegative("damper_front", v.DamperFront)
	nonNegative("damper_rear", v.DamperRear)
	nonNegative("max_travel", v.MaxTravel)
	nonNegative("anti_roll_front", v.AntiRollFront)
	nonNegative("anti_roll_rear", v.AntiRollRear)
	nonNegative("brake_front", v.BrakeFront)
	nonNegative("brake_rear", v.BrakeRear)
	nonNegative("aero.drag_coefficient", v.Aero.DragCoefficient)
	nonNegative("aero.frontal_area", v.Aero.FrontalArea)
	finite("tire.b", v.Tire.B)
	finite("tire.c", v.Tire.C)
	finite("tire.d", v.Tire.D)
	finite("tire.e", v.Tire.E)
	finite("tire.load_sensitivity", v.Tire.LoadSensitivity)
	finite("tire.optimal_temp", v.Tire.OptimalTemp)
	if !(v.FrontWeight > 0 && v.FrontWeight < 1) {
		bad("front_weight must be in (0, 1), got %v", v.FrontWeight)
	}
	fraction("brake_bias", v.BrakeBias)

	if len(v.Engine.GearRatios) == 0 {
		bad("engine.gear_ratios must not be empty")
	}
	for i, r := range v.Engine.GearRatios {
		if !(r > 0) || math.IsInf(r, 0) {
			bad("engine.gear_ratios[%d] must be positive, got %v", i, r)
		}
	}
	for i, ts := range v.Engine.TorqueCurve {
		finite(fmt.Sprintf("engine.torque_curve[%d].rpm", i), ts.RPM)
		finite(fmt.Sprintf("engine.torque_curve[%d].torque", i), ts.Torque)
	}
	if len(v.Engine.TorqueCurve) < 2 {
		bad("engine.torque_curve needs at least two samples")
	}
	for i := 1; i < len(v.Engine.TorqueCurve); i++ {
		if v.Engine.TorqueCurve[i].RPM <= v.Engine.TorqueCurve[i-1].RPM {
			bad("engine.torque_curve rpm must increase at sample %d", i)
		}
	}
	if !(v.Engine.IdleRPM > 0 && v.Engine.IdleRPM < v.Engine.MaxRPM) {
		bad("engine idle_rpm %v must be positive and below max_rpm %v", v.Engine.IdleRPM, v.Engine.MaxRPM)
	}

	// Archetypes carry different optional equipment; check each exhaustively.
	switch v.Archetype {
	case ArchetypeStreet:
		if v.Aero.Downforce != nil {
			bad("street archetype must not configure downforce")
		}
		if v.ERS != nil {
			bad("street archetype must not configure ers")
		}
	case ArchetypeRace:
		if v.Aero.Downforce == nil {
			bad("race archetype requires aero.downforce")
		} else {
			df := v.Aero.Downforce
			fraction("aero.downforce.balance", df.Balance)
			nonNegative("aero.downforce.front", df.Front)
			nonNegative("aero.downforce.rear", df.Rear)
			nonNegative("aero.downforce.ground_effect", df.GroundEffect)
			nonNegative("aero.downforce.ground_effect_speed", df.GroundEffectSpeed)
			if df.DRS != nil {
				nonNegative("aero.downforce.drs.drag_factor", df.DRS.DragFactor)
				nonNegative("aero.downforce.drs.rear_factor", df.DRS.RearFactor)
				nonNegative("aero.downforce.drs.min_speed", df.DRS.MinSpeed)
			}
		}
		if v.ERS != nil {
			nonNegative("ers.power", v.ERS.Power)
			nonNegative("ers.capacity", v.ERS.Capacity)
			fraction("ers.harvest_rate", v.ERS.HarvestRate)
			nonNegative("ers.harvest_max", v.ERS.HarvestMax)
		}
	default:
		bad("unknown archetype %v", v.Archetype)
	}

	return errors.Join(errs...)
}
