// Package spectrum implements the spectral primitives: Spectrum and
// Reflector are opaque, wavelength-indexed values built from a closed set
// of variants (interpolated samples, blackbody, constant, RGB-backed,
// XYZ-backed, and the arithmetic composites produced by a Compositor).
//
// Sampling is a pure function of the value and a wavelength in nanometres:
// no variant here holds mutable state, so every Sample call is safe to
// make concurrently, from any goroutine, once construction has finished.
package spectrum

import "math"

// Spectrum maps a wavelength in nanometres to a non-negative, finite
// radiometric intensity.
type Spectrum interface {
	Sample(wavelengthNM float64) float64
}

// Reflector maps a wavelength in nanometres to a reflectance in [0, 1] and
// exposes a scalar upper bound on its own integral, used as the early-out
// for Russian-roulette path termination.
type Reflector interface {
	Sample(wavelengthNM float64) float64
	Albedo() float64
}

// Sample evaluates s at wavelengthNM, treating a nil Spectrum as the null
// spectrum (always zero).
func Sample(s Spectrum, wavelengthNM float64) float64 {
	if s == nil {
		return 0
	}
	return s.Sample(wavelengthNM)
}

// SampleReflector evaluates r at wavelengthNM, treating a nil Reflector as
// the null reflector (always zero).
func SampleReflector(r Reflector, wavelengthNM float64) float64 {
	if r == nil {
		return 0
	}
	return r.Sample(wavelengthNM)
}

// AlbedoOf returns r's albedo bound, or 0 for a nil Reflector.
func AlbedoOf(r Reflector) float64 {
	if r == nil {
		return 0
	}
	return r.Albedo()
}

// --- constant ---

type constantSpectrum struct{ value float64 }

// NewConstant returns a Spectrum with the same intensity at every
// wavelength. A non-positive value collapses to the null spectrum.
func NewConstant(value float64) Spectrum {
	if value <= 0 {
		return nil
	}
	return &constantSpectrum{value: value}
}

func (c *constantSpectrum) Sample(float64) float64 { return c.value }

type constantReflector struct{ value float64 }

// NewConstantReflector returns a Reflector with the same reflectance at
// every wavelength, clamped to [0, 1].
func NewConstantReflector(value float64) Reflector {
	value = clamp01(value)
	if value <= 0 {
		return nil
	}
	return &constantReflector{value: value}
}

func (c *constantReflector) Sample(float64) float64 { return c.value }
func (c *constantReflector) Albedo() float64        { return c.value }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// --- interpolated samples ---

// interpolated holds a piecewise-linear function over sorted sample
// points, clamped flat beyond its first/last wavelength. It backs both
// general tabulated spectra/reflectors and the RGB-/XYZ-backed variants,
// whose "3 discrete wavelengths" are just a 3-point instance of the same
// shape.
type interpolated struct {
	wavelengths []float64
	values      []float64
}

func newInterpolated(wavelengths, values []float64) *interpolated {
	return &interpolated{wavelengths: wavelengths, values: values}
}

func (in *interpolated) sample(lambda float64) float64 {
	n := len(in.wavelengths)
	if n == 0 {
		return 0
	}
	if lambda <= in.wavelengths[0] {
		return in.values[0]
	}
	if lambda >= in.wavelengths[n-1] {
		return in.values[n-1]
	}
	// binary search for the bracketing segment
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if in.wavelengths[mid] <= lambda {
			lo = mid
		} else {
			hi = mid
		}
	}
	t := (lambda - in.wavelengths[lo]) / (in.wavelengths[hi] - in.wavelengths[lo])
	return in.values[lo] + t*(in.values[hi]-in.values[lo])
}

type interpolatedSpectrum struct{ *interpolated }

// NewInterpolated returns a Spectrum that linearly interpolates between
// sorted (wavelength, intensity) samples, clamping flat beyond the table.
func NewInterpolated(wavelengths, intensities []float64) Spectrum {
	if len(wavelengths) == 0 {
		return nil
	}
	return &interpolatedSpectrum{newInterpolated(wavelengths, intensities)}
}

func (s *interpolatedSpectrum) Sample(lambda float64) float64 {
	return math.Max(0, s.sample(lambda))
}

type interpolatedReflector struct {
	*interpolated
	albedo float64
}

// NewInterpolatedReflector returns a Reflector that linearly interpolates
// between sorted (wavelength, reflectance) samples clamped to [0, 1]. The
// albedo bound is the maximum tabulated reflectance, which by construction
// bounds the interpolated curve everywhere.
func NewInterpolatedReflector(wavelengths, reflectances []float64) Reflector {
	if len(wavelengths) == 0 {
		return nil
	}
	clamped := make([]float64, len(reflectances))
	maxV := 0.0
	for i, v := range reflectances {
		clamped[i] = clamp01(v)
		if clamped[i] > maxV {
			maxV = clamped[i]
		}
	}
	return &interpolatedReflector{newInterpolated(wavelengths, clamped), maxV}
}

func (r *interpolatedReflector) Sample(lambda float64) float64 {
	return clamp01(r.sample(lambda))
}

func (r *interpolatedReflector) Albedo() float64 { return r.albedo }

// --- RGB-backed (3 discrete wavelengths) ---

// Representative narrow-band R/G/B wavelengths (nm) for the 3-point
// reconstruction.
const (
	wavelengthBlue  = 466.0
	wavelengthGreen = 549.0
	wavelengthRed   = 611.0
)

// NewRGB returns a Spectrum backed by exactly 3 discrete wavelengths,
// one per RGB channel, linearly interpolated between them.
func NewRGB(r, g, b float64) Spectrum {
	if r <= 0 && g <= 0 && b <= 0 {
		return nil
	}
	return NewInterpolated(
		[]float64{wavelengthBlue, wavelengthGreen, wavelengthRed},
		[]float64{b, g, r},
	)
}

// NewRGBReflector returns a Reflector backed by 3 discrete wavelengths.
func NewRGBReflector(r, g, b float64) Reflector {
	if r <= 0 && g <= 0 && b <= 0 {
		return nil
	}
	return NewInterpolatedReflector(
		[]float64{wavelengthBlue, wavelengthGreen, wavelengthRed},
		[]float64{b, g, r},
	)
}

// --- XYZ-backed ---

const (
	wavelengthZ = 454.0
	wavelengthY = 547.0
	wavelengthX = 611.0
)

// NewXYZ returns a Spectrum backed by 3 discrete wavelengths representing
// the CIE X/Y/Z tristimulus weights.
func NewXYZ(x, y, z float64) Spectrum {
	if x <= 0 && y <= 0 && z <= 0 {
		return nil
	}
	return NewInterpolated(
		[]float64{wavelengthZ, wavelengthY, wavelengthX},
		[]float64{z, y, x},
	)
}

// --- blackbody (metric) ---

const (
	planckC1 = 3.7418e-16 // 2*pi*h*c^2 (W*m^2)
	planckC2 = 1.4388e-2  // h*c/k (m*K)
)

// planckRadiance evaluates Planck's law at wavelength (metres) and
// temperature (Kelvin).
func planckRadiance(wavelengthM, temperatureK float64) float64 {
	return planckC1 / (math.Pow(wavelengthM, 5) * (math.Exp(planckC2/(wavelengthM*temperatureK)) - 1))
}

type blackbodySpectrum struct {
	temperatureK float64
	normalizer   float64
}

// NewBlackbody returns a "metric" blackbody Spectrum: Planck's law at
// temperatureK, normalized so its peak (at the Wien's-law wavelength)
// samples to 1, keeping the result in the same working-intensity range as
// the other variants instead of the enormous raw W/m^2/sr/m magnitudes.
func NewBlackbody(temperatureK float64) Spectrum {
	if temperatureK <= 0 {
		return nil
	}
	peakWavelengthM := 2.8977721e-3 / temperatureK // Wien's displacement law
	peak := planckRadiance(peakWavelengthM, temperatureK)
	return &blackbodySpectrum{temperatureK: temperatureK, normalizer: 1 / peak}
}

func (b *blackbodySpectrum) Sample(wavelengthNM float64) float64 {
	if wavelengthNM <= 0 {
		return 0
	}
	return planckRadiance(wavelengthNM*1e-9, b.temperatureK) * b.normalizer
}
