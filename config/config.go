// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig    `yaml:"screen"`
	Physics     PhysicsConfig   `yaml:"physics"`
	Environment Environment     `yaml:"environment"`
	Thermal     ThermalConfig   `yaml:"thermal"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Script      ScriptConfig    `yaml:"script"`
	Vehicle     string          `yaml:"vehicle"` // name of the archetype to drive
	Archetypes  []VehicleConfig `yaml:"archetypes"`
	Corners     []CornerConfig  `yaml:"corners"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TargetFPS  int     `yaml:"target_fps"`
	PixelsPerM float64 `yaml:"pixels_per_m"` // top-down view scale
}

// PhysicsConfig holds fixed-step integration parameters.
type PhysicsConfig struct {
	DT       float64 `yaml:"dt"`        // fixed simulation step in seconds
	MaxSteps int     `yaml:"max_steps"` // fixed steps allowed per rendered frame
	Substeps int     `yaml:"substeps"`  // rigid-body substeps inside one fixed step
}

// Environment holds world constants shared by all vehicles.
type Environment struct {
	Gravity     float64 `yaml:"gravity"`      // m/s^2
	AirDensity  float64 `yaml:"air_density"`  // kg/m^3
	AmbientTemp float64 `yaml:"ambient_temp"` // °C
}

// ThermalConfig holds tire and brake heating/cooling coefficients.
type ThermalConfig struct {
	TireHeat      float64 `yaml:"tire_heat"`       // °C/s per (slip × N)
	TireCooling   float64 `yaml:"tire_cooling"`    // 1/s
	TireAirflow   float64 `yaml:"tire_airflow"`    // extra cooling per m/s
	TireMax       float64 `yaml:"tire_max"`        // °C
	BrakeHeat     float64 `yaml:"brake_heat"`      // °C/s per W
	BrakeCooling  float64 `yaml:"brake_cooling"`   // 1/s
	BrakeAirflow  float64 `yaml:"brake_airflow"`   // extra cooling per m/s
	BrakeMax      float64 `yaml:"brake_max"`       // °C
	BrakeFadeTemp float64 `yaml:"brake_fade_temp"` // fade starts above this
	BrakeFadeMin  float64 `yaml:"brake_fade_min"`  // brake efficiency at BrakeMax
	WearRate      float64 `yaml:"wear_rate"`       // wear per (slip × N × m)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64      `yaml:"stats_window"` // seconds per stats window
	PerfCollectorWindow int          `yaml:"perf_collector_window"`
	Events              EventsConfig `yaml:"events"`
}

// EventsConfig holds driving event detection thresholds.
type EventsConfig struct {
	LockupSlip     float64 `yaml:"lockup_slip"`      // slip ratio at or below this counts as locked
	LockupMinSpeed float64 `yaml:"lockup_min_speed"` // m/s
	HistorySize    int     `yaml:"history_size"`
}

// ScriptConfig holds the scripted technique driver parameters.
type ScriptConfig struct {
	BrakeDistance float64 `yaml:"brake_distance"` // metres before entry to start braking
	CornerSpeed   float64 `yaml:"corner_speed"`   // fraction of the grip-limited speed to brake down to
	Lookahead     float64 `yaml:"lookahead"`      // pure-pursuit lookahead in metres
	ExitThrottle  float64 `yaml:"exit_throttle"`  // throttle ramp per second after apex
	SpawnSpeed    float64 `yaml:"spawn_speed"`    // m/s at the start of each run
}

// CornerConfig describes one corner by its waypoints.
type CornerConfig struct {
	Name     string   `yaml:"name"`
	Entry    Waypoint `yaml:"entry"`
	Apex     Waypoint `yaml:"apex"`
	Exit     Waypoint `yaml:"exit"`
	Approach float64  `yaml:"approach"` // straight length before entry used as spawn point
}

// Waypoint is a ground-plane point with an optional heading in radians.
type Waypoint struct {
	X       float64 `yaml:"x"`
	Z       float64 `yaml:"z"`
	Heading float64 `yaml:"heading"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ArchetypeIndex map[string]int // name -> index into Archetypes
	Selected       int            // index of Vehicle in Archetypes
}

// ErrInvalidConfig is returned when world or thermal constants cannot be
// simulated.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks that the world constants are usable.
func (e Environment) Validate() error {
	var errs []error
	if !(e.Gravity > 0) || math.IsInf(e.Gravity, 0) {
		errs = append(errs, fmt.Errorf("%w: environment.gravity must be positive, got %v", ErrInvalidConfig, e.Gravity))
	}
	if !(e.AirDensity >= 0) || math.IsInf(e.AirDensity, 0) {
		errs = append(errs, fmt.Errorf("%w: environment.air_density must not be negative, got %v", ErrInvalidConfig, e.AirDensity))
	}
	if math.IsNaN(e.AmbientTemp) || math.IsInf(e.AmbientTemp, 0) {
		errs = append(errs, fmt.Errorf("%w: environment.ambient_temp must be finite, got %v", ErrInvalidConfig, e.AmbientTemp))
	}
	return errors.Join(errs...)
}

// Validate checks the thermal coefficients against the ambient temperature.
// Both ceilings must sit at or above ambient.
func (t ThermalConfig) Validate(ambient float64) error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: thermal.%s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"tire_heat", t.TireHeat},
		{"tire_cooling", t.TireCooling},
		{"tire_airflow", t.TireAirflow},
		{"brake_heat", t.BrakeHeat},
		{"brake_cooling", t.BrakeCooling},
		{"brake_airflow", t.BrakeAirflow},
		{"wear_rate", t.WearRate},
	} {
		if !(c.v >= 0) || math.IsInf(c.v, 0) {
			bad("%s must not be negative, got %v", c.name, c.v)
		}
	}
	if !(t.TireMax >= ambient) || math.IsInf(t.TireMax, 0) {
		bad("tire_max %v must be finite and at least ambient %v", t.TireMax, ambient)
	}
	if !(t.BrakeMax >= ambient) || math.IsInf(t.BrakeMax, 0) {
		bad("brake_max %v must be finite and at least ambient %v", t.BrakeMax, ambient)
	}
	if math.IsNaN(t.BrakeFadeTemp) || math.IsInf(t.BrakeFadeTemp, 0) {
		bad("brake_fade_temp must be finite, got %v", t.BrakeFadeTemp)
	}
	if !(t.BrakeFadeMin >= 0 && t.BrakeFadeMin <= 1) {
		bad("brake_fade_min must be in [0, 1], got %v", t.BrakeFadeMin)
	}
	return errors.Join(errs...)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct. Scalars and maps keep their defaults
		// unless present in the file; yaml replaces lists wholesale, so the
		// named lists are merged entry by entry afterwards.
		archetypes, corners := cfg.Archetypes, cfg.Corners
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		var lists namedLists
		if err := yaml.Unmarshal(data, &lists); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if cfg.Archetypes, err = mergeByName(archetypes, lists.Archetypes, func(v *VehicleConfig) string { return v.Name }); err != nil {
			return nil, fmt.Errorf("archetypes: %w", err)
		}
		if cfg.Corners, err = mergeByName(corners, lists.Corners, func(c *CornerConfig) string { return c.Name }); err != nil {
			return nil, fmt.Errorf("corners: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// namedLists captures the raw entries of the lists merged by name.
type namedLists struct {
	Archetypes []yaml.Node `yaml:"archetypes"`
	Corners    []yaml.Node `yaml:"corners"`
}

// mergeByName decodes each node over the base entry with the same name, so
// only the keys present in the node change. Unknown names are appended.
func mergeByName[T any](base []T, nodes []yaml.Node, name func(*T) string) ([]T, error) {
	for i := range nodes {
		var key struct {
			Name string `yaml:"name"`
		}
		if err := nodes[i].Decode(&key); err != nil {
			return nil, err
		}
		if key.Name == "" {
			return nil, fmt.Errorf("entry %d has no name", i)
		}
		j := slices.IndexFunc(base, func(t T) bool { return name(&t) == key.Name })
		if j < 0 {
			var item T
			if err := nodes[i].Decode(&item); err != nil {
				return nil, err
			}
			base = append(base, item)
			continue
		}
		if err := nodes[i].Decode(&base[j]); err != nil {
			return nil, err
		}
	}
	return base, nil
}

// computeDerived fills defaults and calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Physics.DT <= 0 {
		c.Physics.DT = 1.0 / 60.0
	}
	if c.Physics.MaxSteps < 1 {
		c.Physics.MaxSteps = 5
	}
	if c.Physics.Substeps < 1 {
		c.Physics.Substeps = 1
	}
	if c.Environment.Gravity == 0 {
		c.Environment.Gravity = 9.81
	}
	if c.Environment.AirDensity == 0 {
		c.Environment.AirDensity = 1.225
	}
	if err := c.Environment.Validate(); err != nil {
		return err
	}
	if err := c.Thermal.Validate(c.Environment.AmbientTemp); err != nil {
		return err
	}

	for i := range c.Archetypes {
		arch := &c.Archetypes[i]
		if arch.Engine.Efficiency == 0 {
			arch.Engine.Efficiency = 1
		}
		if arch.Tire.D == 0 {
			arch.Tire.D = 1
		}
		if arch.Tire.LoadSensitivity == 0 {
			arch.Tire.LoadSensitivity = 1
		}
	}

	c.Derived.ArchetypeIndex = make(map[string]int, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = i
	}

	if c.Vehicle == "" && len(c.Archetypes) > 0 {
		c.Vehicle = c.Archetypes[0].Name
	}
	idx, ok := c.Derived.ArchetypeIndex[c.Vehicle]
	if !ok {
		return fmt.Errorf("unknown vehicle %q", c.Vehicle)
	}
	c.Derived.Selected = idx
	return nil
}

// Archetype returns the named vehicle archetype.
func (c *Config) Archetype(name string) (*VehicleConfig, error) {
	idx, ok := c.Derived.ArchetypeIndex[name]
	if !ok {
		return nil, fmt.Errorf("unknown vehicle %q", name)
	}
	return &c.Archetypes[idx], nil
}

// SelectedVehicle returns the archetype named by Vehicle.
func (c *Config) SelectedVehicle() *VehicleConfig {
	return &c.Archetypes[c.Derived.Selected]
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
