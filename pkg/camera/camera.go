// Package camera generates primary rays for the transport kernel: a
// pinhole look-at camera emitting RayDifferentials so downstream mipmap
// lookups have screen-space derivatives to work with.
package camera

import (
	"fmt"
	"math"

	"github.com/df07/specterray/pkg/core"
)

// Config describes a pinhole camera. All fields are validated by New per
// the invalid-argument policy.
type Config struct {
	LookFrom core.Vec3
	LookAt   core.Vec3
	Up       core.Vec3
	VFov     float64 // vertical field of view, degrees
	Width    int     // framebuffer width in pixels
	Height   int     // framebuffer height in pixels
}

// Camera maps pixel coordinates to world-space rays.
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	width, height   float64
}

// New validates cfg and builds the camera basis.
func New(cfg Config) (*Camera, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("camera: dimensions %dx%d must be positive", cfg.Width, cfg.Height)
	}
	if math.IsNaN(cfg.VFov) || cfg.VFov <= 0 || cfg.VFov >= 180 {
		return nil, fmt.Errorf("camera: vertical fov %v out of (0, 180)", cfg.VFov)
	}
	forward := cfg.LookAt.Subtract(cfg.LookFrom)
	if forward.IsZero() {
		return nil, fmt.Errorf("camera: look-from and look-at coincide")
	}

	aspectRatio := float64(cfg.Width) / float64(cfg.Height)
	theta := cfg.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2)
	viewportWidth := aspectRatio * viewportHeight

	w := forward.Normalize().Negate()
	u := cfg.Up.Cross(w).Normalize()
	if u.IsZero() {
		return nil, fmt.Errorf("camera: up vector is parallel to the view direction")
	}
	v := w.Cross(u)

	origin := cfg.LookFrom
	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := origin.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		width:           float64(cfg.Width),
		height:          float64(cfg.Height),
	}, nil
}

func (c *Camera) rayAt(s, t float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin)
	return core.NewRay(c.origin, direction.Normalize())
}

// GetRay generates the ray through pixel (i, j) at sub-pixel offset
// (u, v) in [0, 1)^2, with differentials offset by one pixel in x and y.
// Pixel (0, 0) is the top-left of the framebuffer.
func (c *Camera) GetRay(i, j int, u, v float64) core.RayDifferential {
	s := (float64(i) + u) / c.width
	t := 1 - (float64(j)+v)/c.height

	primary := c.rayAt(s, t)
	rx := c.rayAt(s+1/c.width, t)
	ry := c.rayAt(s, t-1/c.height)

	return core.RayDifferential{
		Ray:              primary,
		HasDifferentials: true,
		RxOrigin:         rx.Origin,
		RxDirection:      rx.Direction,
		RyOrigin:         ry.Origin,
		RyDirection:      ry.Direction,
	}
}
