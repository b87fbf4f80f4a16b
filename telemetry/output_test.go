package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/apex/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Nil manager is a no-op.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvents([]Event{{Type: EventLockup}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Errorf("Dir() = %q", om.Dir())
	}
}

func TestOutputManager_WritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := range 3 {
		if err := om.WriteTelemetry(WindowStats{WindowEnd: float64(i + 1), Gear: i + 1}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WriteEvents(nil); err != nil {
		t.Fatalf("WriteEvents(nil): %v", err)
	}
	events := []Event{
		{Type: EventLockup, Time: 1.5, Wheel: 0, Value: 22, Description: "FL locked, hard"},
		{Type: EventGearShift, Time: 2, Wheel: NoWheel, Value: 3},
	}
	if err := om.WriteEvents(events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var stats []WindowStats
	if err := readCSV(filepath.Join(dir, "telemetry.csv"), &stats); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 || stats[2].Gear != 3 || stats[2].WindowEnd != 3 {
		t.Errorf("telemetry rows = %+v", stats)
	}

	var gotEvents []Event
	if err := readCSV(filepath.Join(dir, "events.csv"), &gotEvents); err != nil {
		t.Fatal(err)
	}
	if len(gotEvents) != 2 || gotEvents[0] != events[0] || gotEvents[1] != events[1] {
		t.Errorf("event rows = %+v", gotEvents)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}
