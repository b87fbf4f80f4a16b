package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 4)

	if cam.X != 0 || cam.Z != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Z)
	}
	if cam.Zoom != 4 {
		t.Errorf("expected zoom 4, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 4)
	cam.CenterOn(r3.Vec{X: 100, Z: -50})

	sx, sy := cam.WorldToScreen(r3.Vec{X: 100, Z: -50})
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}

	// Left of a car heading along +X is -Z, which is up the screen.
	_, up := cam.WorldToScreen(r3.Vec{X: 100, Z: -60})
	if up >= 360 {
		t.Errorf("-Z should draw above center, got y=%f", up)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 4)
	cam.CenterOn(r3.Vec{X: 12, Z: 7})

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		w := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(w)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, w, sx, sy)
		}
	}
}

func TestTrack(t *testing.T) {
	cam := New(1280, 720, 4)
	target := r3.Vec{X: 100}

	cam.Track(target, 0)
	if cam.X != 0 {
		t.Errorf("zero dt moved the camera to %f", cam.X)
	}

	prev := cam.X
	for range 100 {
		cam.Track(target, 0.05)
		if cam.X < prev || cam.X > target.X {
			t.Fatalf("overshoot or retreat: %f after %f", cam.X, prev)
		}
		prev = cam.X
	}
	if math.Abs(cam.X-target.X) > 0.1 {
		t.Errorf("camera at %f, expected to converge on %f", cam.X, target.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 4)

	cam.SetZoom(0.1)
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != 32 {
		t.Errorf("expected zoom clamped to 32, got %f", cam.Zoom)
	}
	cam.SetZoom(4)
	cam.ZoomBy(2)
	if cam.Zoom != 8 {
		t.Errorf("ZoomBy(2) = %f, want 8", cam.Zoom)
	}
	if px := cam.Pixels(1.5); px != 12 {
		t.Errorf("Pixels(1.5) = %f, want 12", px)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 4)
	// Visible range: X in [-160, 160], Z in [-90, 90]

	if !cam.IsVisible(r3.Vec{}, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(r3.Vec{X: 300, Z: 200}, 1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(r3.Vec{X: 165}, 10) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestPanAndReset(t *testing.T) {
	cam := New(1280, 720, 4)
	cam.Pan(40, -80)
	if cam.X != 10 || cam.Z != -20 {
		t.Errorf("Pan moved to (%f, %f), want (10, -20)", cam.X, cam.Z)
	}

	cam.ZoomBy(3)
	cam.Reset()
	if cam.X != 0 || cam.Z != 0 || cam.Zoom != 4 {
		t.Errorf("Reset left (%f, %f) zoom %f", cam.X, cam.Z, cam.Zoom)
	}
}
