// Tire curve preview tool - interactive force-curve plot with sliders.
//
// Usage: go run ./cmd/tirepreview [-config path] [-vehicle name]
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/systems"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	plotSize     = 560
	panelWidth   = windowWidth - plotSize - 60
	samples      = 200
	maxSlip      = 0.4 // rad, or slip ratio
)

// curve is a sampled force curve.
type curve struct {
	slip  []float64
	force []float64
	peak  int // index of the largest force
}

// sampleCurve evaluates the tire force at n evenly spaced slips in [0, maxSlip].
func sampleCurve(p config.TireParameters, load float64, n int) curve {
	c := curve{slip: make([]float64, n), force: make([]float64, n)}
	floats.Span(c.slip, 0, maxSlip)
	for i, s := range c.slip {
		c.force[i] = systems.TireForce(s, load, p)
	}
	c.peak = floats.MaxIdx(c.force)
	return c
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	vehicleName := flag.String("vehicle", "", "Vehicle archetype whose tire to load (empty = config selection)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	veh := cfg.SelectedVehicle()
	if *vehicleName != "" {
		if veh, err = cfg.Archetype(*vehicleName); err != nil {
			log.Fatal(err)
		}
	}

	initial := veh.Tire
	tire := initial
	staticLoad := veh.Mass * cfg.Environment.Gravity / 4
	load := staticLoad
	temp := tire.OptimalTemp
	wear := 0.0

	rl.InitWindow(windowWidth, windowHeight, "Tire Curve Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	for !rl.WindowShouldClose() {
		conditioned := systems.ConditionTire(tire, temp, wear)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Plot three loads around the selected one.
		plotX, plotY := float32(20), float32(20)
		rl.DrawRectangleLines(int32(plotX), int32(plotY), plotSize, plotSize, rl.DarkGray)
		scale := systems.PeakForce(1.6*load, conditioned) * 1.1
		if scale <= 0 {
			scale = 1
		}
		for _, f := range []struct {
			factor float64
			color  rl.Color
		}{{0.5, rl.SkyBlue}, {1.0, rl.Maroon}, {1.5, rl.DarkGreen}} {
			c := sampleCurve(conditioned, f.factor*load, samples)
			for i := 1; i < len(c.slip); i++ {
				a := plotPoint(plotX, plotY, c.slip[i-1], c.force[i-1], scale)
				b := plotPoint(plotX, plotY, c.slip[i], c.force[i], scale)
				rl.DrawLineEx(a, b, 2, f.color)
			}
			pk := plotPoint(plotX, plotY, c.slip[c.peak], c.force[c.peak], scale)
			rl.DrawCircleV(pk, 4, f.color)
			rl.DrawText(fmt.Sprintf("%.0f N load: peak %.0f N at %.3f", f.factor*load, c.force[c.peak], c.slip[c.peak]),
				int32(plotX)+10, int32(plotY)+plotSize+10+int32(f.factor*2-1)*18, 14, f.color)
		}
		rl.DrawText(fmt.Sprintf("slip 0 .. %.1f", maxSlip), int32(plotX)+plotSize-110, int32(plotY)+plotSize-20, 12, rl.Gray)
		rl.DrawText(fmt.Sprintf("grip %.3f  load factor %.3f", systems.GripLevel(tire, temp, wear, load), systems.LoadFactor(load, tire)),
			int32(plotX)+10, int32(plotY)+10, 14, rl.DarkGray)

		// Control panel
		panelX := float32(plotSize + 50)
		panelY := float32(20)
		rl.DrawText("Tire Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label string, value, lo, hi float64, format string) float64 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "", float32(value), float32(lo), float32(hi),
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 32
			return float64(v)
		}

		tire.B = slider("B (stiffness)", tire.B, 2, 20, "%.2f")
		tire.C = slider("C (shape)", tire.C, 1, 2.5, "%.2f")
		tire.E = slider("E (curvature)", tire.E, -2, 1, "%.2f")
		tire.PeakMu = slider("Peak mu", tire.PeakMu, 0.5, 2.5, "%.2f")
		tire.LoadSensitivity = slider("Load sensitivity", tire.LoadSensitivity, 0.6, 1.0, "%.2f")
		load = slider("Load (N)", load, 0.2*staticLoad, 3*staticLoad, "%.0f")
		temp = slider("Tire temp (°C)", temp, 20, 150, "%.0f")
		wear = slider("Wear", wear, 0, 1, "%.2f")

		// Compound buttons
		bx := panelX
		for _, c := range config.Compounds {
			label := c.String()
			if c == tire.Compound {
				label = "[" + label + "]"
			}
			if gui.Button(rl.Rectangle{X: bx, Y: panelY, Width: 100, Height: 30}, label) {
				tire = tire.WithCompound(c)
				temp = tire.OptimalTemp
			}
			bx += 110
		}
		panelY += 45
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			tire = initial
			load, temp, wear = staticLoad, initial.OptimalTemp, 0
		}
		panelY += 50

		yamlText := tireYAML(tire)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 22
		rl.DrawText(yamlText, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yamlText)
		}

		rl.EndDrawing()
	}
}

// plotPoint maps (slip, force) into the plot square.
func plotPoint(x0, y0 float32, slip, force, scale float64) rl.Vector2 {
	fx := float32(slip / maxSlip * plotSize)
	fy := float32(math.Max(0, force) / scale * plotSize)
	return rl.Vector2{X: x0 + fx, Y: y0 + plotSize - fy}
}

func tireYAML(p config.TireParameters) string {
	return fmt.Sprintf("tire:\n  b: %.2f\n  c: %.2f\n  e: %.2f\n  peak_mu: %.2f\n  load_sensitivity: %.2f\n  compound: %s",
		p.B, p.C, p.E, p.PeakMu, p.LoadSensitivity, p.Compound)
}
