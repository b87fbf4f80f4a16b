package game

import "math"

// FixedStep converts variable frame time into whole fixed simulation
// steps. Time left over after MaxSteps steps is dropped so a slow frame
// cannot snowball into ever longer catch-up frames.
type FixedStep struct {
	DT       float64
	MaxSteps int

	acc float64
}

// NewFixedStep creates an accumulator for steps of dt seconds.
func NewFixedStep(dt float64, maxSteps int) *FixedStep {
	return &FixedStep{DT: dt, MaxSteps: max(maxSteps, 1)}
}

// Advance adds frameDT to the accumulator and calls step once per whole
// DT, at most MaxSteps times. It returns the leftover fraction of a step
// for render interpolation and the number of steps taken. Negative or
// non-finite frame times are ignored.
func (f *FixedStep) Advance(frameDT float64, step func(dt float64)) (alpha float64, steps int) {
	if f.DT <= 0 {
		return 0, 0
	}
	if frameDT > 0 && !math.IsInf(frameDT, 0) {
		f.acc += frameDT
	}

	for f.acc >= f.DT && steps < f.MaxSteps {
		step(f.DT)
		f.acc -= f.DT
		steps++
	}
	if f.acc >= f.DT {
		// Over budget: keep only the partial step.
		f.acc = math.Mod(f.acc, f.DT)
	}
	return f.acc / f.DT, steps
}

// Pending returns the accumulated time not yet stepped.
func (f *FixedStep) Pending() float64 { return f.acc }

// Reset clears the accumulator.
func (f *FixedStep) Reset() { f.acc = 0 }
