package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/apex/vehicle"
)

func TestSnapshotSaveLoad(t *testing.T) {
	dir := t.TempDir()

	snap := &Snapshot{
		Version:  SnapshotVersion,
		Vehicle:  "race",
		Compound: "soft",
		X:        12.5,
		Z:        -3,
		Yaw:      0.4,
		State: vehicle.VehicleState{
			Time:     2.25,
			Gear:     4,
			Speed:    41.5,
			LateralG: 2.1,
		},
		Telemetry: vehicle.Telemetry{MaxLateralG: 2.3, Distance: 80},
		Event:     &Event{Type: EventMaxLatG, Time: 2.25, Wheel: NoWheel, Value: 2.1},
	}
	snap.State.Wheels[1].Load = 4200

	path, err := SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if base := filepath.Base(path); !strings.Contains(base, "race") || !strings.HasSuffix(base, "max_lateral_g.json") {
		t.Errorf("file name = %q", base)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.State != snap.State || loaded.Telemetry != snap.Telemetry {
		t.Errorf("state mismatch:\n got %+v\nwant %+v", loaded.State, snap.State)
	}
	if loaded.Event == nil || *loaded.Event != *snap.Event {
		t.Errorf("event = %+v", loaded.Event)
	}
	if loaded.X != 12.5 || loaded.Z != -3 || loaded.Yaw != 0.4 {
		t.Errorf("pose = %v %v %v", loaded.X, loaded.Z, loaded.Yaw)
	}
}

func TestLoadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	old := filepath.Join(dir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(old); err == nil {
		t.Error("expected error for version mismatch")
	}
}
