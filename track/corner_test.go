package track

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/config"
)

// quarter is a 90° corner of radius 40 turning toward -Z (left) or +Z.
func quarter(left bool) config.CornerConfig {
	side := 1.0
	if left {
		side = -1
	}
	r := 40.0
	return config.CornerConfig{
		Name:     "quarter",
		Approach: 100,
		Entry:    config.Waypoint{X: 0, Z: 0, Heading: 0},
		Apex:     config.Waypoint{X: r * math.Sqrt2 / 2, Z: side * r * (1 - math.Sqrt2/2)},
		Exit:     config.Waypoint{X: r, Z: side * r, Heading: -side * math.Pi / 2},
	}
}

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

// ---------- Geometry ----------

func TestNew_Geometry(t *testing.T) {
	tests := []struct {
		name string
		left bool
	}{
		{"left-hander", true},
		{"right-hander", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(quarter(tt.left))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Left() != tt.left {
				t.Errorf("Left() = %v, want %v", c.Left(), tt.left)
			}
			if math.Abs(c.Radius()-40) > 1e-9 {
				t.Errorf("Radius() = %v, want 40", c.Radius())
			}

			arc := 40 * math.Pi / 2
			if math.Abs(c.EntryDistance()-100) > 1e-9 {
				t.Errorf("EntryDistance() = %v, want 100", c.EntryDistance())
			}
			if math.Abs(c.ExitDistance()-(100+arc)) > 0.05 {
				t.Errorf("ExitDistance() = %v, want %v", c.ExitDistance(), 100+arc)
			}
			if math.Abs(c.ApexDistance()-(100+arc/2)) > 0.05 {
				t.Errorf("ApexDistance() = %v, want %v", c.ApexDistance(), 100+arc/2)
			}
			if math.Abs(c.Length()-(200+arc)) > 0.05 {
				t.Errorf("Length() = %v", c.Length())
			}

			path := c.Path()
			if !near(path[len(path)-2], c.Exit, 1e-9) {
				t.Errorf("arc ends at %v, want exit %v", path[len(path)-2], c.Exit)
			}
		})
	}
}

func TestNew_Collinear(t *testing.T) {
	cc := config.CornerConfig{
		Name:  "straight",
		Entry: config.Waypoint{X: 0},
		Apex:  config.Waypoint{X: 10},
		Exit:  config.Waypoint{X: 20},
	}
	if _, err := New(cc); !errors.Is(err, ErrDegenerateCorner) {
		t.Errorf("err = %v, want ErrDegenerateCorner", err)
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	corners, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(corners) != len(cfg.Corners) || len(corners) == 0 {
		t.Fatalf("got %d corners", len(corners))
	}
	c := corners[0]
	if !c.Left() || math.Abs(c.Radius()-40) > 0.05 {
		t.Errorf("default corner: left=%v radius=%v", c.Left(), c.Radius())
	}
}

// ---------- Spawn and projection ----------

func TestSpawn(t *testing.T) {
	c, err := New(quarter(true))
	if err != nil {
		t.Fatal(err)
	}
	p := c.Spawn()
	if !near(p.Position, r3.Vec{X: -100}, 1e-9) || p.Yaw != 0 {
		t.Errorf("Spawn() = %+v", p)
	}
	if s := c.Project(p.Position); s != 0 {
		t.Errorf("Project(spawn) = %v, want 0", s)
	}
}

func TestPointAtProjectRoundtrip(t *testing.T) {
	c, err := New(quarter(true))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []float64{0, 25, 100, 120, 150, 162, 200, c.Length()} {
		p := c.PointAt(s)
		if got := c.Project(p); math.Abs(got-s) > 1e-6 {
			t.Errorf("Project(PointAt(%v)) = %v", s, got)
		}
	}
	if !near(c.PointAt(-5), c.Path()[0], 0) || !near(c.PointAt(1e6), c.Path()[len(c.Path())-1], 0) {
		t.Error("PointAt does not clamp to the path ends")
	}
}

func TestOffset(t *testing.T) {
	c, err := New(quarter(true))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		p    r3.Vec
		want float64
	}{
		{"on approach", r3.Vec{X: -50}, 0},
		{"left of approach", r3.Vec{X: -50, Z: -2}, 2},
		{"right of approach", r3.Vec{X: -50, Z: 3}, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Offset(tt.p); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Offset = %v, want %v", got, tt.want)
			}
		})
	}

	// Inside of the arc is to the left for a left-hander.
	mid := c.PointAt(c.ApexDistance())
	inside := r3.Add(mid, r3.Scale(0.1, r3.Sub(r3.Vec{Z: -40}, mid)))
	if off := c.Offset(inside); off <= 0 {
		t.Errorf("inside offset = %v, want positive", off)
	}
}

func TestLimitSpeed(t *testing.T) {
	c, err := New(quarter(true))
	if err != nil {
		t.Fatal(err)
	}
	if v := c.LimitSpeed(1, 10); math.Abs(v-20) > 1e-9 {
		t.Errorf("LimitSpeed = %v, want 20", v)
	}
	if v := c.LimitSpeed(-1, 10); v != 0 {
		t.Errorf("LimitSpeed with negative mu = %v", v)
	}
}
