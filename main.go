package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	manual := flag.Bool("manual", false, "Drive from the keyboard instead of the scripted driver")
	vehicleName := flag.String("vehicle", "", "Vehicle archetype (empty = use config)")
	cornerName := flag.String("corner", "", "Corner name (empty = first configured corner)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshots")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N fixed steps (0 = unlimited)")
	maxRuns := flag.Int("max-runs", 0, "Stop after N completed runs (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	opts := game.Options{
		Headless:  *headless,
		Vehicle:   *vehicleName,
		Corner:    *cornerName,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Manual:    *manual && !*headless,
	}

	done := func(g *game.Game) bool {
		if *maxTicks > 0 && g.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return true
		}
		if *maxRuns > 0 && g.Runs() >= *maxRuns {
			slog.Info("max runs reached", "runs", g.Runs())
			return true
		}
		return false
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.New(cfg, opts)
		if err != nil {
			slog.Error("failed to start session", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"dt", cfg.Physics.DT,
			"max_ticks", *maxTicks,
			"max_runs", *maxRuns,
		)
		for !done(g) {
			g.UpdateHeadless()
		}
		return
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Apex")
	defer rl.CloseWindow()
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && !done(g) {
		g.Update(float64(rl.GetFrameTime()))
		g.Draw()
	}
}
