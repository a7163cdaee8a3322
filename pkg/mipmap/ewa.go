package mipmap

import "math"

// ewaTableSize is the fixed Gaussian lookup table size.
const ewaTableSize = 128

var ewaLUT [ewaTableSize]float64

func init() {
	const alpha = 2.0
	for i := range ewaLUT {
		r2 := float64(i) / float64(ewaTableSize)
		ewaLUT[i] = math.Exp(-alpha*r2) - math.Exp(-alpha)
	}
}

// ewaWeight returns the Gaussian weight for a normalized squared radius
// r2 in [0,1); callers guarantee r2 has already been checked against 1.
func ewaWeight(r2 float64) float64 {
	idx := int(r2 * ewaTableSize)
	if idx >= ewaTableSize {
		idx = ewaTableSize - 1
	}
	return ewaLUT[idx]
}

// ewaLookup implements the Elliptical Weighted Average filter:
// (dsdx,dtdx) and (dsdy,dtdy) are treated as two ellipse axes, an
// anisotropy cap is enforced by scaling up the minor axis, a level is
// picked so the minor axis covers roughly one texel, and EWA is evaluated
// at that level and the one above, blended by level fraction.
func (m *Mipmap[T]) ewaLookup(s, t, dsdx, dtdx, dsdy, dtdy float64) T {
	// Treat the two differentials as ellipse axes; pick the longer as
	// major.
	ax0, ay0 := dsdx, dtdx
	ax1, ay1 := dsdy, dtdy
	len0 := ax0*ax0 + ay0*ay0
	len1 := ax1*ax1 + ay1*ay1
	if len0 < len1 {
		ax0, ay0, ax1, ay1 = ax1, ay1, ax0, ay0
		len0, len1 = len1, len0
	}

	majorLen := math.Sqrt(len0)
	minorLen := math.Sqrt(len1)

	if minorLen > 0 && majorLen/minorLen > m.opts.MaxAnisotropy {
		scale := majorLen / (minorLen * m.opts.MaxAnisotropy)
		ax1 *= scale
		ay1 *= scale
		minorLen *= scale
	}
	if minorLen == 0 {
		return m.bilinear(0, s, t)
	}

	lastLevel := float64(len(m.levels) - 1)
	level := math.Max(0, math.Min(lastLevel, lastLevel+math.Log2(math.Max(minorLen, 1e-8))))
	lo := int(math.Floor(level))
	hi := minInt(lo+1, len(m.levels)-1)
	frac := level - float64(lo)

	a := m.ewaAtLevel(lo, s, t, ax0, ay0, ax1, ay1)
	b := m.ewaAtLevel(hi, s, t, ax0, ay0, ax1, ay1)
	return m.add(m.scale(a, 1-frac), m.scale(b, frac))
}

// ewaAtLevel evaluates the elliptically-weighted sum over texels covered
// by the ellipse with axes (ax0,ay0) and (ax1,ay1) centered at (s,t), at
// pyramid level lvlIdx.
func (m *Mipmap[T]) ewaAtLevel(lvlIdx int, s, t, ax0, ay0, ax1, ay1 float64) T {
	lvl := &m.levels[lvlIdx]
	sw := s * float64(lvl.width)
	tw := t * float64(lvl.height)
	ax0 *= float64(lvl.width)
	ay0 *= float64(lvl.height)
	ax1 *= float64(lvl.width)
	ay1 *= float64(lvl.height)

	// Implicit ellipse coefficients: A*u^2 + B*u*v + C*v^2 = F, from the
	// two axis vectors.
	A := ay0*ay0 + ay1*ay1 + 1
	B := -2 * (ax0*ay0 + ax1*ay1)
	C := ax0*ax0 + ax1*ax1 + 1
	invDet := 1.0 / (A*C - B*B*0.25)
	A *= invDet
	B *= invDet
	C *= invDet

	// Bounding box of the ellipse in texel units, from the standard
	// (A,B,C) quadratic-form extents.
	denom := 4*A*C - B*B
	su := math.Sqrt(math.Abs(4 * C / denom))
	sv := math.Sqrt(math.Abs(4 * A / denom))

	x0 := int(math.Floor(sw - su))
	x1 := int(math.Ceil(sw + su))
	y0 := int(math.Floor(tw - sv))
	y1 := int(math.Ceil(tw + sv))

	sum := m.zero
	totalWeight := 0.0
	for y := y0; y <= y1; y++ {
		dv := float64(y) + 0.5 - tw
		for x := x0; x <= x1; x++ {
			du := float64(x) + 0.5 - sw
			r2 := A*du*du + B*du*dv + C*dv*dv
			if r2 < 1 {
				weight := ewaWeight(r2)
				sum = m.add(sum, m.scale(m.texelLookup(lvl, x, y), weight))
				totalWeight += weight
			}
		}
	}
	if totalWeight == 0 {
		return m.bilinear(lvlIdx, s, t)
	}
	return m.scale(sum, 1/totalWeight)
}
