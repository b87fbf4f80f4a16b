package systems

import (
	"math"

	"github.com/pthm-cable/apex/config"
)

// ThermalModel integrates tire and brake temperatures and tire wear with
// explicit Euler over the fixed step.
type ThermalModel struct {
	cfg     config.ThermalConfig
	ambient float64
}

// NewThermalModel creates a thermal model for the given ambient temperature.
func NewThermalModel(cfg config.ThermalConfig, ambient float64) ThermalModel {
	return ThermalModel{cfg: cfg, ambient: ambient}
}

// Ambient returns the ambient temperature in °C.
func (m ThermalModel) Ambient() float64 { return m.ambient }

// UpdateTireTemp heats the tire with |slip|·load and cools it toward ambient
// faster with speed. The result stays in [ambient, TireMax].
func (m ThermalModel) UpdateTireTemp(temp, slip, load, speed, dt float64) float64 {
	heat := math.Abs(slip) * math.Max(load, 0) * m.cfg.TireHeat
	cool := (temp - m.ambient) * m.cfg.TireCooling * (1 + math.Abs(speed)*m.cfg.TireAirflow)
	return clamp(temp+(heat-cool)*dt, m.ambient, m.cfg.TireMax)
}

// UpdateBrakeTemp heats the brake with the power it dissipates and cools it
// toward ambient. The result stays in [ambient, BrakeMax].
func (m ThermalModel) UpdateBrakeTemp(temp, brakeForce, speed, dt float64) float64 {
	heat := math.Abs(brakeForce) * math.Abs(speed) * m.cfg.BrakeHeat
	cool := (temp - m.ambient) * m.cfg.BrakeCooling * (1 + math.Abs(speed)*m.cfg.BrakeAirflow)
	return clamp(temp+(heat-cool)*dt, m.ambient, m.cfg.BrakeMax)
}

// UpdateWear accumulates tread wear from sliding distance under load.
func (m ThermalModel) UpdateWear(wear, slip, load, speed, dt float64) float64 {
	rate := math.Abs(slip) * math.Max(load, 0) * math.Abs(speed) * m.cfg.WearRate
	return clamp01(wear + rate*dt)
}

// BrakeFade returns the brake efficiency at temp: 1 up to BrakeFadeTemp,
// falling linearly to BrakeFadeMin at BrakeMax.
func (m ThermalModel) BrakeFade(temp float64) float64 {
	if temp <= m.cfg.BrakeFadeTemp || m.cfg.BrakeMax <= m.cfg.BrakeFadeTemp {
		return 1
	}
	frac := clamp01((temp - m.cfg.BrakeFadeTemp) / (m.cfg.BrakeMax - m.cfg.BrakeFadeTemp))
	return 1 - frac*(1-m.cfg.BrakeFadeMin)
}
