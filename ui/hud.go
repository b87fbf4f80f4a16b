package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/apex/telemetry"
	"github.com/pthm-cable/apex/vehicle"
)

// Display ranges.
var (
	gRange         = FieldRange{Min: -3, Max: 3}
	tireTempRange  = FieldRange{Min: 40, Max: 140}
	brakeTempRange = FieldRange{Min: 20, Max: 1000}
	slipRange      = FieldRange{Min: -0.3, Max: 0.3}
)

// WheelNames labels the wheels in FL, FR, RL, RR order.
var WheelNames = [4]string{"FL", "FR", "RL", "RR"}

func state(data any) *vehicle.VehicleState { return data.(*vehicle.VehicleState) }
func wheel(data any) *vehicle.WheelState   { return data.(*vehicle.WheelState) }

// VehicleSections describes the driver readouts. Getters take a
// *vehicle.VehicleState.
func VehicleSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			Title: "Drivetrain",
			Fields: []FieldDescriptor{
				{Label: "Speed", Widget: WidgetText, Format: "%.1f km/h", Getter: func(d any) float64 { return state(d).Speed * 3.6 }},
				{Label: "Gear", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 { return float64(state(d).Gear) }},
				{Label: "RPM", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 { return state(d).RPM }},
				{Label: "Throttle", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float64 { return state(d).Throttle }},
				{Label: "Brake", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float64 { return state(d).Brake }},
				{Label: "Steer", Widget: WidgetCenteredBar, Range: FieldRange{Min: -0.6, Max: 0.6}, Getter: func(d any) float64 { return state(d).Steering }},
			},
		},
		{
			Title: "Forces",
			Fields: []FieldDescriptor{
				{Label: "Lat G", Widget: WidgetCenteredBar, Range: gRange, Getter: func(d any) float64 { return state(d).LateralG }},
				{Label: "Long G", Widget: WidgetCenteredBar, Range: gRange, Getter: func(d any) float64 { return state(d).LongitudinalG }},
				{Label: "Yaw rate", Widget: WidgetText, Format: "%+.2f rad/s", Getter: func(d any) float64 { return state(d).YawRate }},
				{Label: "Drag", Widget: WidgetText, Format: "%.0f N", Getter: func(d any) float64 { return state(d).Drag }},
				{Label: "Downforce", Widget: WidgetText, Format: "%.0f N", Getter: func(d any) float64 { return state(d).Downforce }},
			},
		},
		{
			Title: "Hybrid",
			Fields: []FieldDescriptor{
				{Label: "DRS", Widget: WidgetText, TextGetter: func(d any) string { return onOff(state(d).DRS) }},
				{Label: "ERS", Widget: WidgetText, TextGetter: func(d any) string { return onOff(state(d).ERS) }},
				{Label: "Store", Widget: WidgetText, Format: "%.2f MJ", Getter: func(d any) float64 { return state(d).ERSStore / 1e6 }},
			},
		},
	}
}

// WheelSection describes one wheel's readouts. Getters take a
// *vehicle.WheelState.
func WheelSection(name string) SectionDescriptor {
	return SectionDescriptor{
		Title: name,
		Fields: []FieldDescriptor{
			{Label: "Load", Widget: WidgetText, Format: "%.0f N", Getter: func(d any) float64 { return wheel(d).Load + wheel(d).AeroLoad }},
			{Label: "Slip", Widget: WidgetCenteredBar, Range: slipRange, Getter: func(d any) float64 { return wheel(d).SlipRatio }},
			{Label: "Angle", Widget: WidgetText, Format: "%+.1f°", Getter: func(d any) float64 { return wheel(d).SlipAngle * 180 / math.Pi }},
			{Label: "Grip", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float64 { return wheel(d).Utilization }},
			{Label: "Tire", Widget: WidgetHeatBar, Range: tireTempRange, Getter: func(d any) float64 { return wheel(d).TireTemp }},
			{Label: "Brake", Widget: WidgetHeatBar, Range: brakeTempRange, Getter: func(d any) float64 { return wheel(d).BrakeTemp }},
			{Label: "Wear", Widget: WidgetBar, Range: DefaultRange(), Getter: func(d any) float64 { return wheel(d).Wear }},
		},
	}
}

func onOff(b bool) string {
	if b {
		return "open"
	}
	return "closed"
}

// HUDData holds everything the main HUD shows besides the vehicle state.
type HUDData struct {
	Vehicle     string
	Corner      string
	Compound    string
	Phase       string
	TargetSpeed float64 // m/s
	Runs        int
	Tick        int64
	FPS         int32
	Paused      bool
}

// HUD renders the vehicle readouts and session status.
type HUD struct {
	renderer *Renderer
	vehicle  []SectionDescriptor
	wheels   [4]SectionDescriptor
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	h := &HUD{renderer: NewRenderer(), vehicle: VehicleSections(), width: 240}
	for i, name := range WheelNames {
		h.wheels[i] = WheelSection(name)
	}
	return h
}

// Draw renders the status line and the vehicle panel at the top left.
func (h *HUD) Draw(data HUDData, s *vehicle.VehicleState) {
	r := h.renderer
	pad := r.Theme.Padding

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(fmt.Sprintf("%s | %s | %s tires | %s", data.Vehicle, data.Corner, data.Compound, status), pad, pad, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Phase: %s | Target: %.1f km/h | Runs: %d | Tick: %d | FPS: %d",
			data.Phase, data.TargetSpeed*3.6, data.Runs, data.Tick, data.FPS),
		pad, pad+24, 16, rl.LightGray,
	)

	y := int32(60)
	var height int32
	for _, sd := range h.vehicle {
		height += r.SectionHeight(sd, s)
	}
	r.DrawPanel(pad, y, h.width, height+2*pad)
	y += pad
	for _, sd := range h.vehicle {
		y = r.DrawSection(2*pad, y, sd, s, h.width-2*pad)
	}
}

// DrawWheels renders the four wheel panels in a 2x2 grid anchored at the
// bottom right.
func (h *HUD) DrawWheels(screenWidth, screenHeight int32, s *vehicle.VehicleState) {
	r := h.renderer
	pad := r.Theme.Padding
	cellH := r.SectionHeight(h.wheels[0], &s.Wheels[0]) + 2*pad
	x0 := screenWidth - 2*h.width - 2*pad
	y0 := screenHeight - 2*cellH - pad - 30

	for i := range h.wheels {
		x := x0 + int32(i%2)*h.width
		y := y0 + int32(i/2)*cellH
		r.DrawPanel(x, y, h.width, cellH)
		r.DrawSection(x+pad, y+pad, h.wheels[i], &s.Wheels[i], h.width-2*pad)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders step timing by phase.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y
	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("avg %s  max %s  %.0f steps/s", stats.AvgStep, stats.MaxStep, stats.StepsPerSecond), x, y, 12, rl.Yellow)
	y += 16

	for _, phase := range []string{telemetry.PhaseDriver, telemetry.PhaseVehicle, telemetry.PhasePhysics, telemetry.PhaseTelemetry} {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase], pct), x, y, 12, color)
		y += 14
	}
}
