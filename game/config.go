package game

import "github.com/pthm-cable/apex/telemetry"

// Options configures a session.
type Options struct {
	Headless  bool
	Vehicle   string // archetype name; empty uses the config's selection
	Corner    string // corner name; empty uses the first corner
	OutputDir string // CSV, config and snapshot output; empty disables it
	LogStats  bool   // log each stats window
	Manual    bool   // drive from the keyboard instead of the script

	// EventCallback, if set, receives each driving event as it is detected.
	EventCallback func(telemetry.Event)
}

// DefaultOptions returns options for a windowed scripted session.
func DefaultOptions() Options {
	return Options{}
}
