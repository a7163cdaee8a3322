package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/mipmap"
	"github.com/df07/specterray/pkg/spectrum"
)

// ImageInfiniteLight is an equirectangular image-based environment
// light: a per-texel luminance table drives a flattened CDF for
// importance sampling, and emission lookup indexes the same table by
// direction. An index computed as floor(u*width) can equal width exactly
// at the u=1 boundary, so lookups saturate to width-1/height-1.
type ImageInfiniteLight struct {
	radiance    *mipmap.SpectrumMipmap
	width, height int
	pdf         []float64 // per-texel luminance weighted by sin(theta); divided by totalLuma at use
	cdf         []float64 // flattened running total, length width*height
	totalLuma   float64
	WorldRadius float64
}

// NewImageInfiniteLight builds the importance table from a WxH array of
// per-texel luminance weights (typically derived from the same base image
// used to build radiance).
func NewImageInfiniteLight(radiance *mipmap.SpectrumMipmap, width, height int, luma []float64, worldRadius float64) *ImageInfiniteLight {
	l := &ImageInfiniteLight{radiance: radiance, width: width, height: height, WorldRadius: worldRadius}
	l.pdf = make([]float64, width*height)
	l.cdf = make([]float64, width*height)
	running := 0.0
	for y := 0; y < height; y++ {
		// sin(theta) weighting: texels near the poles cover less solid angle.
		theta := (float64(y) + 0.5) / float64(height) * math.Pi
		sinTheta := math.Sin(theta)
		for x := 0; x < width; x++ {
			idx := x + y*width
			w := luma[idx] * sinTheta
			running += w
			l.pdf[idx] = w
			l.cdf[idx] = running
		}
	}
	l.totalLuma = running
	return l
}

func (l *ImageInfiniteLight) IsDelta() bool { return false }

// directionFromUV maps equirectangular (u,v) to a world direction: u spans
// azimuth [0,2π), v spans polar angle [0,π] from the +Y pole.
func directionFromUV(u, v float64) core.Vec3 {
	phi := u * 2 * math.Pi
	theta := v * math.Pi
	sinTheta := math.Sin(theta)
	return core.NewVec3(sinTheta*math.Cos(phi), math.Cos(theta), sinTheta*math.Sin(phi))
}

func uvFromDirection(dir core.Vec3) (u, v float64) {
	d := dir.Normalize()
	theta := math.Acos(math.Max(-1, math.Min(1, d.Y)))
	phi := math.Atan2(d.Z, d.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi / (2 * math.Pi), theta / math.Pi
}

func (l *ImageInfiniteLight) Sample(point core.Vec3, vis VisibilityTester, rng RNG, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, core.Vec3, float64) {
	if l.totalLuma <= 0 {
		return nil, core.Vec3{}, 0
	}
	target := rng.NextFloat(0, l.totalLuma)
	idx := lowerBound(l.cdf, target)
	x, y := idx%l.width, idx/l.width

	u := (float64(x) + rng.NextFloat(0, 1)) / float64(l.width)
	v := (float64(y) + rng.NextFloat(0, 1)) / float64(l.height)
	dir := directionFromUV(u, v)

	theta := v * math.Pi
	sinTheta := math.Sin(theta)
	if sinTheta <= 0 {
		return nil, dir, 0
	}
	texelPdf := l.pdf[idx] / l.totalLuma
	pdf := texelPdf * float64(l.width*l.height) / (2 * math.Pi * math.Pi * sinTheta)

	far := point.Add(dir.Multiply(2 * l.WorldRadius))
	if !vis.Unoccluded(point, far) {
		return nil, dir, 0
	}

	radiance, err := l.radiance.Lookup(u, v, 0, 0, 0, 0)
	if err != nil {
		return nil, dir, 0
	}
	return radiance, dir, pdf
}

func (l *ImageInfiniteLight) ComputeEmissiveWithPdf(ray core.Ray, vis VisibilityTester, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, float64) {
	u, v := uvFromDirection(ray.Direction)
	radiance, err := l.radiance.Lookup(u, v, 0, 0, 0, 0)
	if err != nil || l.totalLuma <= 0 {
		return radiance, 0
	}

	x := clampIndex(int(u*float64(l.width)), l.width-1)
	y := clampIndex(int(v*float64(l.height)), l.height-1)
	idx := x + y*l.width

	theta := v * math.Pi
	sinTheta := math.Sin(theta)
	if sinTheta <= 0 {
		return radiance, 0
	}
	texelPdf := l.pdf[idx] / l.totalLuma
	pdf := texelPdf * float64(l.width*l.height) / (2 * math.Pi * math.Pi * sinTheta)
	return radiance, pdf
}

// clampIndex saturates an index computed as floor(coord*extent) to
// extent-1, fixing the off-by-one the source exhibits at the u=1/v=1
// boundary.
func clampIndex(idx, max int) int {
	if idx < 0 {
		return 0
	}
	if idx > max {
		return max
	}
	return idx
}

func lowerBound(cdf []float64, target float64) int {
	lo, hi := 0, len(cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cdf[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
