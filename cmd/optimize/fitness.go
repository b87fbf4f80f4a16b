package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/game"
	"github.com/pthm-cable/apex/input"
	"github.com/pthm-cable/apex/telemetry"
)

// Fitness penalties, in seconds.
const (
	lockupPenalty = 0.5
	liftPenalty   = 0.25
	dnfPenalty    = 10.0 // added once when a run misses the time cap
	dnfPerMetre   = 0.1  // added per metre of path not covered
)

// FitnessEvaluator runs headless corner runs and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	configPath string
	corners    []string
	maxTime    float64 // simulated seconds per run

	mu         sync.Mutex
	lastResult []runResult // from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each evaluation drives every
// named corner once.
func NewFitnessEvaluator(params *ParamVector, configPath string, corners []string, maxTime float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		configPath: configPath,
		corners:    corners,
		maxTime:    maxTime,
	}
}

// runResult holds the outcome of one corner run.
type runResult struct {
	corner    string
	time      float64 // seconds to the end of the exit straight
	finished  bool
	remaining float64 // metres of path left when the run was cut off
	lockups   int
	lifts     int
	maxLatG   float64
}

// fitness scores a run in seconds, lower is better.
func (r runResult) fitness() float64 {
	f := r.time + lockupPenalty*float64(r.lockups) + liftPenalty*float64(r.lifts)
	if !r.finished {
		f += dnfPenalty + dnfPerMetre*r.remaining
	}
	return f
}

// LastResults returns the per-corner results of the most recent evaluation.
func (fe *FitnessEvaluator) LastResults() []runResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return append([]runResult(nil), fe.lastResult...)
}

// Evaluate computes mean fitness over all corners for a raw parameter
// vector (lower = better). Corners run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.corners))
	errs := make([]error, len(fe.corners))
	var wg sync.WaitGroup
	for i, corner := range fe.corners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = fe.run(x, corner)
		}()
	}
	wg.Wait()

	total := 0.0
	for i, r := range results {
		if errs[i] != nil {
			return math.Inf(1)
		}
		total += r.fitness()
	}

	fe.mu.Lock()
	fe.lastResult = results
	fe.mu.Unlock()
	return total / float64(len(results))
}

// run drives one corner with the parameters applied to a fresh config.
// The run ends when the script reaches the end of the exit straight.
func (fe *FitnessEvaluator) run(x []float64, corner string) (runResult, error) {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return runResult{}, err
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return runResult{}, err
	}

	res := runResult{corner: corner}
	g, err := game.New(cfg, game.Options{
		Headless: true,
		Vehicle:  fe.params.Vehicle,
		Corner:   corner,
		EventCallback: func(e telemetry.Event) {
			switch e.Type {
			case telemetry.EventLockup:
				res.lockups++
			case telemetry.EventWheelLift:
				res.lifts++
			}
		},
	})
	if err != nil {
		return runResult{}, fmt.Errorf("corner %s: %w", corner, err)
	}
	defer g.Unload()

	steps := int(fe.maxTime / cfg.Physics.DT)
	for range steps {
		g.UpdateHeadless()
		if g.Script().Phase() == input.PhaseDone {
			res.finished = true
			break
		}
	}

	snap := g.Snapshot()
	res.time = snap.State.Time
	res.maxLatG = snap.Telemetry.MaxLateralG
	if !res.finished {
		px, pz, _ := g.Pose()
		c := g.Corner()
		res.remaining = c.Length() - c.Project(r3.Vec{X: px, Z: pz})
	}
	return res, nil
}
