// Package camera maps the ground plane to the screen for the top-down view.
// World X runs right on screen and world Z runs down, so a car heading
// along +X that turns left moves up the screen.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultFollow is the follow rate used by New, 1/s.
const DefaultFollow = 4.0

// Camera controls the viewport into the simulation world.
type Camera struct {
	// X, Z is the world point under the viewport center.
	X, Z float64

	// Zoom in pixels per metre.
	Zoom float32

	ViewportW, ViewportH float32

	MinZoom, MaxZoom float32

	// Follow is the rate at which Track closes on its target, 1/s.
	Follow float64

	home float32
}

// New creates a camera centered on the origin at pixelsPerM.
func New(viewportW, viewportH, pixelsPerM float32) *Camera {
	return &Camera{
		Zoom:      pixelsPerM,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   pixelsPerM / 8,
		MaxZoom:   pixelsPerM * 8,
		Follow:    DefaultFollow,
		home:      pixelsPerM,
	}
}

// WorldToScreen converts a ground-plane point to screen coordinates.
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy float32) {
	sx = c.ViewportW/2 + float32(p.X-c.X)*c.Zoom
	sy = c.ViewportH/2 + float32(p.Z-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to a ground-plane point.
func (c *Camera) ScreenToWorld(sx, sy float32) r3.Vec {
	return r3.Vec{
		X: c.X + float64((sx-c.ViewportW/2)/c.Zoom),
		Z: c.Z + float64((sy-c.ViewportH/2)/c.Zoom),
	}
}

// Pixels converts a length in metres to pixels.
func (c *Camera) Pixels(metres float64) float32 {
	return float32(metres) * c.Zoom
}

// IsVisible returns true if a circle at p with the given radius in metres
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(p r3.Vec, radius float64) bool {
	minX, minZ, maxX, maxZ := c.VisibleWorldBounds()
	return p.X >= minX-radius && p.X <= maxX+radius &&
		p.Z >= minZ-radius && p.Z <= maxZ+radius
}

// CenterOn moves the camera onto target immediately.
func (c *Camera) CenterOn(target r3.Vec) {
	c.X, c.Z = target.X, target.Z
}

// Track eases the camera toward target over dt seconds.
func (c *Camera) Track(target r3.Vec, dt float64) {
	if dt <= 0 {
		return
	}
	k := 1 - math.Exp(-c.Follow*dt)
	c.X += (target.X - c.X) * k
	c.Z += (target.Z - c.Z) * k
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += float64(dx / c.Zoom)
	c.Z += float64(dy / c.Zoom)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = max(c.MinZoom, min(c.MaxZoom, zoom))
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the origin at its initial zoom.
func (c *Camera) Reset() {
	c.X, c.Z = 0, 0
	c.Zoom = c.home
}

// VisibleWorldBounds returns the ground-plane bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float64) {
	halfW := float64(c.ViewportW / (2 * c.Zoom))
	halfH := float64(c.ViewportH / (2 * c.Zoom))
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}
