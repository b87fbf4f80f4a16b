package vehicle

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/systems"
)

// Loop constants
const (
	trailBrakeMinBrake = 0.05 // pedal fraction
	trailBrakeMinSteer = 0.02 // rad
	brakeFadeSpeed     = 0.5  // m/s, brake force ramps in below this speed
	ersMinSpeed        = 5.0  // m/s, floor when converting ERS power to force
)

// Vehicle is one simulated vehicle and all of its step-to-step state.
// It is not safe for concurrent use; run one instance per vehicle.
type Vehicle struct {
	cfg     *config.VehicleConfig
	env     config.Environment
	thermal systems.ThermalModel
	tire    config.TireParameters
	curve   *systems.TorqueCurve
	gearbox *systems.Gearbox
	filter  systems.LoadFilter
	offsets [4]Offset

	state     VehicleState
	telemetry Telemetry

	prevVel r3.Vec
	primed  bool
}

// New validates cfg and builds a vehicle at idle. A misconfigured vehicle is
// refused with an error wrapping config.ErrInvalidVehicle.
func New(cfg *config.VehicleConfig, env config.Environment, thermal config.ThermalConfig) (*Vehicle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidVehicle)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle %q: %w", cfg.Name, err)
	}
	if err := errors.Join(env.Validate(), thermal.Validate(env.AmbientTemp)); err != nil {
		return nil, fmt.Errorf("vehicle %q: %w", cfg.Name, errors.Join(config.ErrInvalidVehicle, err))
	}
	curve, err := systems.NewTorqueCurve(cfg.Engine.TorqueCurve)
	if err != nil {
		return nil, fmt.Errorf("vehicle %q: %w", cfg.Name, errors.Join(config.ErrInvalidVehicle, err))
	}

	v := &Vehicle{
		cfg:     cfg,
		env:     env,
		thermal: systems.NewThermalModel(thermal, env.AmbientTemp),
		tire:    cfg.Tire,
		curve:   curve,
		gearbox: systems.NewGearbox(&cfg.Engine),
		offsets: WheelOffsets(cfg),
	}
	v.Reset()
	return v, nil
}

// Config returns the vehicle's static configuration.
func (v *Vehicle) Config() *config.VehicleConfig { return v.cfg }

// Tire returns the tire parameters currently fitted.
func (v *Vehicle) Tire() config.TireParameters { return v.tire }

// SetCompound swaps the tire compound. Temperatures and wear are kept.
func (v *Vehicle) SetCompound(c config.Compound) {
	v.tire = v.tire.WithCompound(c)
	slog.Debug("tire compound", "vehicle", v.cfg.Name, "compound", c.String(), "peak_mu", v.tire.PeakMu)
}

// Reset restores idle defaults: first gear, static loads, tires at their
// optimal temperature, brakes at ambient, full ERS store, cleared telemetry.
func (v *Vehicle) Reset() {
	v.gearbox.Reset()
	v.filter.Reset()
	v.telemetry.Reset()
	v.prevVel = r3.Vec{}
	v.primed = false

	amb := v.thermal.Ambient()
	tireTemp := math.Max(v.tire.OptimalTemp, amb)

	v.state = VehicleState{RPM: v.gearbox.RPM, Gear: v.gearbox.Gear}
	static := systems.StaticLoads(v.cfg, v.env.Gravity)
	for i := range v.state.Wheels {
		v.state.Wheels[i] = WheelState{
			Load:      static[i],
			TireTemp:  tireTemp,
			BrakeTemp: amb,
			Grip:      systems.GripLevel(v.tire, tireTemp, 0, static[i]),
		}
	}
	if v.cfg.ERS != nil {
		v.state.ERSStore = v.cfg.ERS.Capacity
	}
}

// Snapshot returns a copy of the state and telemetry after the last step.
func (v *Vehicle) Snapshot() Snapshot {
	return Snapshot{Name: v.cfg.Name, State: v.state, Telemetry: v.telemetry}
}

// Step advances the vehicle by one fixed step of dt seconds. It reads the
// body's kinematics, computes loads, slips and forces, applies aero and
// wheel forces to the body, and updates drivetrain, thermal and telemetry
// state. The body is integrated by the caller afterwards.
func (v *Vehicle) Step(dt float64, ctl Controls, body Body) {
	if dt <= 0 || body == nil {
		return
	}
	cfg := v.cfg
	gravity := v.env.Gravity
	ctl = ctl.Normalized(cfg.MaxSteer)

	// (a) inputs and kinematics
	kin := body.Kinematics()
	yaw := kin.Orientation.Yaw
	fwd, left := Forward(yaw), Left(yaw)
	vLong := r3.Dot(kin.Velocity, fwd)
	vLat := r3.Dot(kin.Velocity, left)
	speed := math.Hypot(vLong, vLat)
	omega := kin.AngularVelocity.Y

	var accel r3.Vec
	if v.primed {
		accel = r3.Scale(1/dt, r3.Sub(kin.Velocity, v.prevVel))
	}
	v.prevVel = kin.Velocity
	v.primed = true
	latG := r3.Dot(accel, left) / gravity
	longG := r3.Dot(accel, fwd) / gravity

	s := &v.state
	s.Throttle, s.Brake, s.Steering, s.Handbrake = ctl.Throttle, ctl.Brake, ctl.Steering, ctl.Handbrake
	s.Speed, s.LateralG, s.LongitudinalG, s.YawRate = speed, latG, longG, omega
	v.updateDRS(ctl, speed)

	aero := systems.AeroForces(speed, v.env.AirDensity, cfg.Aero, s.DRS)
	s.Drag, s.Downforce = aero.Drag, aero.Downforce()

	// (b) vertical loads
	brakeDemand := ctl.Brake * (cfg.BrakeFront + cfg.BrakeRear)
	var loads systems.WheelLoads
	if ctl.Brake > trailBrakeMinBrake && math.Abs(ctl.Steering) > trailBrakeMinSteer {
		loads = systems.TrailBrakingTransfer(cfg, gravity, latG, brakeDemand, speed,
			kin.Orientation.Roll, kin.Orientation.Pitch)
	} else {
		loads = systems.CombinedTransfer(cfg, gravity, latG, longG,
			kin.Orientation.Roll, kin.Orientation.Pitch)
	}
	arbFront, arbRear := systems.AntiRollTransfer(cfg, gravity, latG)
	loads = loads.AddAxleTransfer(arbFront, arbRear).ClampNonNegative()
	loads = v.filter.Apply(loads, dt)

	brakes := v.brakeForces(ctl)
	drive := v.driveForce(ctl, speed, dt)
	driven := 0
	for i := range s.Wheels {
		if cfg.Engine.Driven.Drives(i) {
			driven++
		}
	}

	// (c) and (d) slips and tire forces
	var out [4]WheelForce
	tireFade := 1.0
	if cfg.TireFadeSpeed > 0 {
		tireFade = math.Min(speed/cfg.TireFadeSpeed, 1)
	}
	for i := range s.Wheels {
		w := &s.Wheels[i]
		off := v.offsets[i]

		steer := 0.0
		if systems.IsFront(i) {
			steer = ctl.Steering
		}
		px, py := off.PointVelocity(vLong, vLat, omega)
		wheelLong := px*math.Cos(steer) + py*math.Sin(steer)

		w.Load = loads[i]
		w.AeroLoad = v.axleDownforce(aero, i) / 2
		w.Lifted = loads[i] <= 0
		effLoad := loads[i] + w.AeroLoad

		w.BrakeForce = brakes[i]
		w.SlipAngle = systems.SlipAngle(py, px, steer)
		w.SlipRatio = systems.SlipRatio(kin.WheelSpin[i], v.tire.Radius, wheelLong, brakes[i] > 0)

		tire := systems.ConditionTire(v.tire, w.TireTemp, w.Wear)
		c := systems.CombinedForce(w.SlipAngle, w.SlipRatio, effLoad, tire)
		w.Utilization = c.Utilization
		w.Grip = systems.GripLevel(v.tire, w.TireTemp, w.Wear, effLoad)

		lat := c.Lateral * tireFade
		long := c.Longitudinal * tireFade
		long -= brakes[i] * sign(wheelLong) * math.Min(math.Abs(wheelLong)/brakeFadeSpeed, 1)

		w.DriveForce = 0
		if driven > 0 && cfg.Engine.Driven.Drives(i) {
			w.DriveForce = drive / float64(driven)
			long += w.DriveForce
		}

		limit := systems.PeakForce(effLoad, tire)
		lat, long = systems.ClampToFrictionCircle(lat, long, limit)
		w.Lateral, w.Longitudinal = lat, long

		heading := yaw + steer
		out[i] = WheelForce{
			Force:       r3.Add(r3.Scale(long, Forward(heading)), r3.Scale(lat, Left(heading))),
			Point:       off.World(kin.Position, yaw),
			DriveTorque: w.DriveForce * v.tire.Radius,
			BrakeTorque: brakes[i] * v.tire.Radius,
			GripLimit:   limit,
		}
	}

	// (e) aerodynamic forces at fixed points
	if aero.Drag > 0 && speed > 0 {
		dir := r3.Unit(r3.Vec{X: kin.Velocity.X, Z: kin.Velocity.Z})
		body.ApplyForce(r3.Scale(-aero.Drag, dir), kin.Position)
	}
	if aero.HasDownforce {
		frontPoint := Offset{X: v.offsets[0].X}.World(kin.Position, yaw)
		rearPoint := Offset{X: v.offsets[2].X}.World(kin.Position, yaw)
		body.ApplyForce(r3.Scale(-aero.Front, Up), frontPoint)
		body.ApplyForce(r3.Scale(-aero.Rear, Up), rearPoint)
	}

	// (f) drivetrain and thermal state
	v.updateGearbox(kin.WheelSpin, dt)
	for i := range s.Wheels {
		w := &s.Wheels[i]
		slip := math.Hypot(w.SlipAngle, w.SlipRatio)
		effLoad := w.Load + w.AeroLoad
		w.TireTemp = v.thermal.UpdateTireTemp(w.TireTemp, slip, effLoad, speed, dt)
		w.BrakeTemp = v.thermal.UpdateBrakeTemp(w.BrakeTemp, w.BrakeForce, speed, dt)
		w.Wear = v.thermal.UpdateWear(w.Wear, slip, effLoad, speed, dt)
	}
	v.harvestERS(brakes, speed, dt)

	// (g) telemetry
	s.Time += dt
	v.telemetry.Observe(s, dt)

	// (h) hand off to the rigid-body engine
	body.ApplyWheelForces(out)
}

// axleDownforce returns the downforce on wheel i's axle.
func (v *Vehicle) axleDownforce(a systems.AeroLoads, i int) float64 {
	if systems.IsFront(i) {
		return a.Front
	}
	return a.Rear
}

// brakeForces splits pedal demand by bias, caps each axle at its capacity and
// applies per-wheel fade. The handbrake applies full rear capacity.
func (v *Vehicle) brakeForces(ctl Controls) [4]float64 {
	cfg := v.cfg
	demand := ctl.Brake * (cfg.BrakeFront + cfg.BrakeRear)
	front := math.Min(demand*cfg.BrakeBias, cfg.BrakeFront)
	rear := math.Min(demand*(1-cfg.BrakeBias), cfg.BrakeRear)
	if ctl.Handbrake {
		rear = cfg.BrakeRear
	}

	var out [4]float64
	for i := range out {
		axle := rear
		if systems.IsFront(i) {
			axle = front
		}
		out[i] = axle / 2 * v.thermal.BrakeFade(v.state.Wheels[i].BrakeTemp)
	}
	return out
}

// driveForce returns the total tractive force for the driven wheels,
// including any ERS deployment.
func (v *Vehicle) driveForce(ctl Controls, speed, dt float64) float64 {
	s := &v.state
	s.ERS = false
	if ctl.Throttle <= 0 || v.gearbox.AtLimiter() {
		return 0
	}
	eng := &v.cfg.Engine
	force := systems.WheelDriveForce(ctl.Throttle, v.gearbox.RPM, v.gearbox.Ratio(),
		eng.FinalDrive, eng.Efficiency, v.curve, v.tire.Radius)

	if ers := v.cfg.ERS; ers != nil && ctl.ERS && s.ERSStore > 0 {
		power := math.Min(ers.Power*ctl.Throttle, s.ERSStore/dt)
		s.ERSStore -= power * dt
		s.ERS = true
		force += power / math.Max(speed, ersMinSpeed)
	}
	return force
}

// harvestERS recovers a fraction of braking power into the store.
func (v *Vehicle) harvestERS(brakes [4]float64, speed, dt float64) {
	ers := v.cfg.ERS
	if ers == nil {
		return
	}
	total := 0.0
	for _, b := range brakes {
		total += b
	}
	power := math.Min(total*speed*ers.HarvestRate, ers.HarvestMax)
	v.state.ERSStore = math.Min(v.state.ERSStore+power*dt, ers.Capacity)
}

// updateDRS opens the flap on request when allowed and closes it under
// braking or below its minimum speed.
func (v *Vehicle) updateDRS(ctl Controls, speed float64) {
	v.state.DRS = ctl.DRS && ctl.Brake == 0 && systems.DRSAllowed(speed, v.cfg.Aero)
}

// updateGearbox advances RPM from the mean driven-wheel speed.
func (v *Vehicle) updateGearbox(spin [4]float64, dt float64) {
	sum, n := 0.0, 0
	for i, w := range spin {
		if v.cfg.Engine.Driven.Drives(i) {
			sum += w
			n++
		}
	}
	from := v.gearbox.Gear
	if v.gearbox.Update(sum/float64(n), dt) {
		slog.Debug("gear shift", "vehicle", v.cfg.Name, "from", from, "to", v.gearbox.Gear, "rpm", v.gearbox.RPM)
	}
	v.state.Gear = v.gearbox.Gear
	v.state.RPM = v.gearbox.RPM
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
