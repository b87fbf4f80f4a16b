// Package main tunes a vehicle's setup and the scripted driver's technique
// with CMA-ES, minimizing corner time with penalties for lockups and
// lifted wheels.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/apex/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	vehicleName := flag.String("vehicle", "", "Vehicle archetype to tune (empty = config selection)")
	cornerList := flag.String("corners", "", "Comma-separated corners to drive (empty = all)")
	maxTime := flag.Float64("max-time", 30, "Simulated seconds allowed per corner run")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Session logs would drown the progress lines.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	name := *vehicleName
	if name == "" {
		name = baseCfg.SelectedVehicle().Name
	}

	var corners []string
	if *cornerList != "" {
		corners = strings.Split(*cornerList, ",")
	} else {
		for _, c := range baseCfg.Corners {
			corners = append(corners, c.Name)
		}
	}
	if len(corners) == 0 {
		log.Fatal("no corners to drive")
	}

	params := NewParamVector(name)
	start, err := params.ExtractFromConfig(baseCfg)
	if err != nil {
		log.Fatalf("reading start parameters: %v", err)
	}
	evaluator := NewFitnessEvaluator(params, *configPath, corners, *maxTime)

	dim := params.Dim()
	initX := params.Normalize(params.Clamp(start))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // corners already run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "lockups", "lifts"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	evalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := evalFunc(x)
		evalCount++

		// Log clamped values, which are the values actually used.
		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		var lockups, lifts int
		for _, r := range evaluator.LastResults() {
			lockups += r.lockups
			lifts += r.lifts
		}
		row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.4f", fitness), strconv.Itoa(lockups), strconv.Itoa(lifts)}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
		fmt.Printf("Eval %d/%d: fitness=%.3fs lockups=%d lifts=%d (best=%.3fs) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, lockups, lifts, bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Tuning %s with %d parameters over %d corners, population=%d, max_evals=%d\n",
		name, dim, len(corners), popSize, *maxEvals)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.3fs\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.4f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading config: %v", err)
	}
	bestCfg.Vehicle = name
	if err := params.ApplyToConfig(bestCfg, bestParams); err != nil {
		log.Fatalf("applying best parameters: %v", err)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
