// Package mipmap implements the pyramidal image store shared by
// SpectrumMipmap, ReflectorMipmap and FloatMipmap: point / trilinear /
// anisotropic EWA lookup over a power-of-two base image, with Repeat /
// Clamp / Black wrap policies.
//
// The generic core (this file) operates over any texel type T that
// supports addition and scalar scaling, which the two instantiations in
// this package supply (color.Color3 for Spectrum/ReflectorMipmap,
// float64 for FloatMipmap).
package mipmap

import "math"

// WrapMode selects how out-of-[0,1] texture coordinates are handled.
type WrapMode int

const (
	Repeat WrapMode = iota
	Clamp
	Black
)

// FilterMode selects the reconstruction filter.
type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterTrilinear
	FilterEWA
)

// Options configures a Build.
type Options struct {
	Filter        FilterMode
	MaxAnisotropy float64 // must be > 0
	Wrap          WrapMode
}

// DefaultOptions returns the conventional trilinear/clamp/anisotropy-8
// configuration.
func DefaultOptions() Options {
	return Options{Filter: FilterTrilinear, MaxAnisotropy: 8, Wrap: Clamp}
}

type level[T any] struct {
	width, height int
	texels        []T
}

func (l *level[T]) at(x, y int) T {
	return l.texels[y*l.width+x]
}

// Mipmap is the generic pyramid. zero/add/scale let the same filtering
// logic serve both colour pyramids (Color3) and scalar pyramids
// (float64) without duplicating the EWA/trilinear math.
type Mipmap[T any] struct {
	levels  []level[T]
	opts    Options
	zero    T
	add     func(a, b T) T
	scale   func(a T, k float64) T
}

// Build constructs a full mip pyramid from a power-of-two W x H base
// image. Level count is log2(min(W,H))+1; each level halves both
// dimensions and averages 2x2 blocks with a box filter.
func Build[T any](width, height int, texels []T, opts Options, zero T, add func(a, b T) T, scale func(a T, k float64) T) *Mipmap[T] {
	m := &Mipmap[T]{opts: opts, zero: zero, add: add, scale: scale}
	m.levels = append(m.levels, level[T]{width: width, height: height, texels: texels})

	levelCount := int(math.Log2(float64(minInt(width, height)))) + 1
	for i := 1; i < levelCount; i++ {
		prev := &m.levels[i-1]
		nw, nh := maxInt(1, prev.width/2), maxInt(1, prev.height/2)
		next := level[T]{width: nw, height: nh, texels: make([]T, nw*nh)}
		for y := 0; y < nh; y++ {
			for x := 0; x < nw; x++ {
				sum := m.zero
				for _, d := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
					sx := minInt(2*x+d[0], prev.width-1)
					sy := minInt(2*y+d[1], prev.height-1)
					sum = m.add(sum, prev.at(sx, sy))
				}
				next.texels[y*nw+x] = m.scale(sum, 0.25)
			}
		}
		m.levels = append(m.levels, next)
	}
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// LevelCount returns the number of pyramid levels.
func (m *Mipmap[T]) LevelCount() int { return len(m.levels) }

// wrapCoord maps a coordinate into [0,1) (or flags it as out of range for
// Black) per the wrap policy.
func (m *Mipmap[T]) wrapCoord(s float64) (float64, bool) {
	switch m.opts.Wrap {
	case Repeat:
		f := s - math.Floor(s)
		return f, true
	case Clamp:
		return math.Max(0, math.Min(1, s)), true
	default: // Black
		if s < 0 || s >= 1 {
			return 0, false
		}
		return s, true
	}
}

// texelLookup fetches the wrapped texel at integer (x,y) for a given
// level, honoring Black by returning the pyramid's zero value.
func (m *Mipmap[T]) texelLookup(lvl *level[T], x, y int) T {
	switch m.opts.Wrap {
	case Repeat:
		x = ((x % lvl.width) + lvl.width) % lvl.width
		y = ((y % lvl.height) + lvl.height) % lvl.height
	case Clamp:
		x = clampInt(x, 0, lvl.width-1)
		y = clampInt(y, 0, lvl.height-1)
	default: // Black
		if x < 0 || x >= lvl.width || y < 0 || y >= lvl.height {
			return m.zero
		}
	}
	return lvl.at(x, y)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bilinear samples a level with bilinear interpolation at continuous
// coordinates (s,t) in [0,1]^2.
func (m *Mipmap[T]) bilinear(lvlIdx int, s, t float64) T {
	lvl := &m.levels[lvlIdx]
	x := s*float64(lvl.width) - 0.5
	y := t*float64(lvl.height) - 0.5
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	dx, dy := x-float64(x0), y-float64(y0)

	v00 := m.texelLookup(lvl, x0, y0)
	v10 := m.texelLookup(lvl, x0+1, y0)
	v01 := m.texelLookup(lvl, x0, y0+1)
	v11 := m.texelLookup(lvl, x0+1, y0+1)

	top := m.add(m.scale(v00, 1-dx), m.scale(v10, dx))
	bottom := m.add(m.scale(v01, 1-dx), m.scale(v11, dx))
	return m.add(m.scale(top, 1-dy), m.scale(bottom, dy))
}

// Lookup samples the mipmap at (s,t) with the given screen-space
// derivatives, dispatching to the configured filter. Derivatives
// are ignored for FilterNone.
func (m *Mipmap[T]) Lookup(s, t, dsdx, dtdx, dsdy, dtdy float64) T {
	ws, wrapOK := m.wrapCoord(s)
	wt, wrapOK2 := m.wrapCoord(t)
	if !wrapOK || !wrapOK2 {
		return m.zero
	}

	switch m.opts.Filter {
	case FilterNone:
		lvl := &m.levels[0]
		x := clampInt(int(ws*float64(lvl.width)), 0, lvl.width-1)
		y := clampInt(int(wt*float64(lvl.height)), 0, lvl.height-1)
		return m.texelLookup(lvl, x, y)
	case FilterTrilinear:
		return m.trilinear(ws, wt, dsdx, dtdx, dsdy, dtdy)
	default:
		return m.ewaLookup(ws, wt, dsdx, dtdx, dsdy, dtdy)
	}
}

func (m *Mipmap[T]) trilinear(s, t, dsdx, dtdx, dsdy, dtdy float64) T {
	width := math.Max(math.Max(math.Abs(dsdx), math.Abs(dsdy)), math.Max(math.Abs(dtdx), math.Abs(dtdy)))
	lastLevel := float64(len(m.levels) - 1)
	level := lastLevel + math.Log2(math.Max(width, 1e-8))
	level = math.Max(0, math.Min(lastLevel, level))

	lo := int(math.Floor(level))
	hi := minInt(lo+1, len(m.levels)-1)
	frac := level - float64(lo)

	a := m.bilinear(lo, s, t)
	b := m.bilinear(hi, s, t)
	return m.add(m.scale(a, 1-frac), m.scale(b, frac))
}
