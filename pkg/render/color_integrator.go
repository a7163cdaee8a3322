package render

import (
	"math"

	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/spectrum"
)

// ColorIntegrator reduces a path's Spectrum to a Color3 for the
// tone-mapper. Implementations must be pure and
// safe to share across workers.
type ColorIntegrator interface {
	ToColor(s spectrum.Spectrum) color.Color3
}

// RGBIntegrator samples the spectrum at the three RGB reconstruction
// wavelengths (the same basis the RGB-backed spectrum variant is built
// on) and returns the result as a linear-sRGB triple. It is exact for
// RGB-backed scene content and is what the seeded test scenarios use.
type RGBIntegrator struct{}

func (RGBIntegrator) ToColor(s spectrum.Spectrum) color.Color3 {
	return color.NewColor3(
		spectrum.Sample(s, 611),
		spectrum.Sample(s, 549),
		spectrum.Sample(s, 466),
		color.LinearSRGB,
	)
}

// CIEIntegrator integrates the spectrum against the CIE 1931 standard
// observer to produce an XYZ triple, using the piecewise-Gaussian fit of
// the matching functions (Wyman/Sloan/Shirley) sampled on a fixed
// wavelength grid over the visible range. Normalised so a constant unit
// spectrum maps to Y = 1.
type CIEIntegrator struct {
	wavelengths []float64
	xBar        []float64
	yBar        []float64
	zBar        []float64
	invYSum     float64
}

// NewCIEIntegrator builds the integrator with sampleCount wavelengths
// spread uniformly over [380, 720] nm.
func NewCIEIntegrator(sampleCount int) *CIEIntegrator {
	if sampleCount < 3 {
		sampleCount = 3
	}
	ci := &CIEIntegrator{
		wavelengths: make([]float64, sampleCount),
		xBar:        make([]float64, sampleCount),
		yBar:        make([]float64, sampleCount),
		zBar:        make([]float64, sampleCount),
	}
	ySum := 0.0
	for i := 0; i < sampleCount; i++ {
		lambda := 380 + (720-380.0)*(float64(i)+0.5)/float64(sampleCount)
		ci.wavelengths[i] = lambda
		ci.xBar[i] = cieX(lambda)
		ci.yBar[i] = cieY(lambda)
		ci.zBar[i] = cieZ(lambda)
		ySum += ci.yBar[i]
	}
	ci.invYSum = 1 / ySum
	return ci
}

func (ci *CIEIntegrator) ToColor(s spectrum.Spectrum) color.Color3 {
	if s == nil {
		return color.NewColor3(0, 0, 0, color.XYZ)
	}
	var x, y, z float64
	for i, lambda := range ci.wavelengths {
		v := s.Sample(lambda)
		x += v * ci.xBar[i]
		y += v * ci.yBar[i]
		z += v * ci.zBar[i]
	}
	return color.NewColor3(x*ci.invYSum, y*ci.invYSum, z*ci.invYSum, color.XYZ)
}

// piecewiseGaussian is the single-lobe building block of the CIE fit:
// a Gaussian with different widths on each side of its peak.
func piecewiseGaussian(lambda, mu, sigmaL, sigmaR float64) float64 {
	sigma := sigmaL
	if lambda >= mu {
		sigma = sigmaR
	}
	d := (lambda - mu) / sigma
	return math.Exp(-0.5 * d * d)
}

func cieX(lambda float64) float64 {
	return 1.056*piecewiseGaussian(lambda, 599.8, 37.9, 31.0) +
		0.362*piecewiseGaussian(lambda, 442.0, 16.0, 26.7) -
		0.065*piecewiseGaussian(lambda, 501.1, 20.4, 26.2)
}

func cieY(lambda float64) float64 {
	return 0.821*piecewiseGaussian(lambda, 568.8, 46.9, 40.5) +
		0.286*piecewiseGaussian(lambda, 530.9, 16.3, 31.1)
}

func cieZ(lambda float64) float64 {
	return 1.217*piecewiseGaussian(lambda, 437.0, 11.8, 36.0) +
		0.681*piecewiseGaussian(lambda, 459.0, 26.0, 13.8)
}
