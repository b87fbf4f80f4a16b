// Package track builds corner geometry from configured waypoints: a
// straight approach, a circular arc through entry, apex and exit, and a
// straight run-off. Distances along the path are measured from the spawn
// point.
package track

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/apex/components"
	"github.com/pthm-cable/apex/config"
	"github.com/pthm-cable/apex/vehicle"
)

// ErrDegenerateCorner is returned when the waypoints do not define an arc.
var ErrDegenerateCorner = errors.New("degenerate corner")

// ArcSegments is the number of polyline segments used for the arc.
const ArcSegments = 48

// Corner is one configured corner.
type Corner struct {
	Name string

	Entry, Apex, Exit r3.Vec
	EntryHeading      float64
	ExitHeading       float64
	Approach          float64

	center r3.Vec
	radius float64
	left   bool

	path []r3.Vec
	dist []float64 // cumulative distance at each path point

	entryAt, apexAt, exitAt float64
}

// New builds a corner from its config.
func New(cc config.CornerConfig) (*Corner, error) {
	c := &Corner{
		Name:         cc.Name,
		Entry:        r3.Vec{X: cc.Entry.X, Z: cc.Entry.Z},
		Apex:         r3.Vec{X: cc.Apex.X, Z: cc.Apex.Z},
		Exit:         r3.Vec{X: cc.Exit.X, Z: cc.Exit.Z},
		EntryHeading: cc.Entry.Heading,
		ExitHeading:  cc.Exit.Heading,
		Approach:     math.Max(cc.Approach, 0),
	}

	center, ok := circumcenter(c.Entry, c.Apex, c.Exit)
	if !ok {
		return nil, fmt.Errorf("%w: %q waypoints are collinear", ErrDegenerateCorner, cc.Name)
	}
	c.center = center
	c.radius = r3.Norm(r3.Sub(c.Entry, center))
	c.left = r3.Dot(r3.Sub(c.Apex, c.Entry), vehicle.Left(c.EntryHeading)) > 0

	c.build()
	return c, nil
}

// FromConfig builds every configured corner.
func FromConfig(cfg *config.Config) ([]*Corner, error) {
	corners := make([]*Corner, 0, len(cfg.Corners))
	var errs []error
	for _, cc := range cfg.Corners {
		c, err := New(cc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		corners = append(corners, c)
	}
	return corners, errors.Join(errs...)
}

func (c *Corner) build() {
	start := r3.Sub(c.Entry, r3.Scale(c.Approach, vehicle.Forward(c.EntryHeading)))
	c.path = append(c.path, start, c.Entry)

	from := r3.Sub(c.Entry, c.center)
	sweep := c.sweep(from, r3.Sub(c.Exit, c.center))
	for i := 1; i <= ArcSegments; i++ {
		c.path = append(c.path, r3.Add(c.center, rotateY(from, sweep*float64(i)/ArcSegments)))
	}
	c.path = append(c.path, r3.Add(c.Exit, r3.Scale(c.Approach, vehicle.Forward(c.ExitHeading))))

	c.dist = make([]float64, len(c.path))
	for i := 1; i < len(c.path); i++ {
		c.dist[i] = c.dist[i-1] + r3.Norm(r3.Sub(c.path[i], c.path[i-1]))
	}
	c.entryAt = c.dist[1]
	c.exitAt = c.dist[len(c.dist)-2]
	c.apexAt = c.Project(c.Apex)
}

// sweep is the signed arc angle from a to b, positive when turning left.
func (c *Corner) sweep(a, b r3.Vec) float64 {
	cross := a.Z*b.X - a.X*b.Z
	angle := math.Atan2(cross, r3.Dot(a, b))
	switch {
	case c.left && angle < 0:
		angle += 2 * math.Pi
	case !c.left && angle > 0:
		angle -= 2 * math.Pi
	}
	return angle
}

// rotateY turns v about the vertical axis; positive angles turn left.
func rotateY(v r3.Vec, angle float64) r3.Vec {
	s, co := math.Sincos(angle)
	return r3.Vec{X: v.X*co + v.Z*s, Y: v.Y, Z: -v.X*s + v.Z*co}
}

// circumcenter returns the center of the circle through a, b and c in the
// ground plane.
func circumcenter(a, b, c r3.Vec) (r3.Vec, bool) {
	d := 2 * (a.X*(b.Z-c.Z) + b.X*(c.Z-a.Z) + c.X*(a.Z-b.Z))
	if math.Abs(d) < 1e-9 {
		return r3.Vec{}, false
	}
	a2 := a.X*a.X + a.Z*a.Z
	b2 := b.X*b.X + b.Z*b.Z
	c2 := c.X*c.X + c.Z*c.Z
	return r3.Vec{
		X: (a2*(b.Z-c.Z) + b2*(c.Z-a.Z) + c2*(a.Z-b.Z)) / d,
		Z: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// Radius returns the arc radius in metres.
func (c *Corner) Radius() float64 { return c.radius }

// Left reports whether the corner turns left.
func (c *Corner) Left() bool { return c.left }

// Path returns the polyline from spawn to the end of the run-off.
func (c *Corner) Path() []r3.Vec { return c.path }

// Length returns the total path length.
func (c *Corner) Length() float64 { return c.dist[len(c.dist)-1] }

// EntryDistance, ApexDistance and ExitDistance are path distances of the
// waypoints.
func (c *Corner) EntryDistance() float64 { return c.entryAt }
func (c *Corner) ApexDistance() float64  { return c.apexAt }
func (c *Corner) ExitDistance() float64  { return c.exitAt }

// Spawn returns the start pose: Approach metres before the entry, facing
// the entry heading.
func (c *Corner) Spawn() components.Pose {
	return components.Pose{Position: c.path[0], Yaw: c.EntryHeading}
}

// LimitSpeed is the steady-state speed at which the arc needs mu·g of
// lateral acceleration.
func (c *Corner) LimitSpeed(mu, g float64) float64 {
	return math.Sqrt(math.Max(mu*g*c.radius, 0))
}

// PointAt returns the path point at distance s, clamped to the path.
func (c *Corner) PointAt(s float64) r3.Vec {
	if s <= 0 {
		return c.path[0]
	}
	for i := 1; i < len(c.path); i++ {
		if s <= c.dist[i] {
			seg := c.dist[i] - c.dist[i-1]
			if seg == 0 {
				return c.path[i]
			}
			t := (s - c.dist[i-1]) / seg
			return r3.Add(c.path[i-1], r3.Scale(t, r3.Sub(c.path[i], c.path[i-1])))
		}
	}
	return c.path[len(c.path)-1]
}

// Project returns the path distance of the point nearest p.
func (c *Corner) Project(p r3.Vec) float64 {
	p.Y = 0
	best, bestD := 0.0, math.Inf(1)
	for i := 1; i < len(c.path); i++ {
		a, b := c.path[i-1], c.path[i]
		ab := r3.Sub(b, a)
		l2 := r3.Dot(ab, ab)
		t := 0.0
		if l2 > 0 {
			t = math.Max(0, math.Min(1, r3.Dot(r3.Sub(p, a), ab)/l2))
		}
		q := r3.Add(a, r3.Scale(t, ab))
		if d := r3.Norm(r3.Sub(p, q)); d < bestD {
			bestD = d
			best = c.dist[i-1] + t*(c.dist[i]-c.dist[i-1])
		}
	}
	return best
}

// Offset returns the signed lateral distance of p from the path, left
// positive relative to the direction of travel.
func (c *Corner) Offset(p r3.Vec) float64 {
	s := c.Project(p)
	q := c.PointAt(s)
	ahead := r3.Sub(c.PointAt(s+0.5), c.PointAt(s-0.5))
	if r3.Norm(ahead) == 0 {
		return 0
	}
	yaw := math.Atan2(-ahead.Z, ahead.X)
	return r3.Dot(r3.Sub(p, q), vehicle.Left(yaw))
}
