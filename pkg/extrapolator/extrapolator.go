// Package extrapolator implements the colour extrapolator: a cache
// mapping a Color3 to a synthesized Spectrum or Reflector, backed by an
// open-addressed hash table with linear probing and the Smits RGB-to-SPD
// reconstruction as its default policy.
package extrapolator

import (
	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/spectrum"
)

// SpectrumPolicy synthesizes a Spectrum for a cache miss.
type SpectrumPolicy func(c color.Color3) (spectrum.Spectrum, error)

// ReflectorPolicy synthesizes a Reflector for a cache miss.
type ReflectorPolicy func(c color.Color3) (spectrum.Reflector, error)

// Cache is the colour extrapolator: two tables (Color3 -> Spectrum,
// Color3 -> Reflector), each independently growable, sharing one pair of
// synthesis policies. The zero value is not usable; construct with New.
type Cache struct {
	spectra        table[spectrum.Spectrum]
	reflectors     table[spectrum.Reflector]
	spectrumPolicy SpectrumPolicy
	reflectorPolicy ReflectorPolicy
}

// New creates a Cache using the Smits RGB-to-SPD synthesis policy as the
// built-in default for both tables.
func New() *Cache {
	c := &Cache{
		spectra:    newTable[spectrum.Spectrum](16),
		reflectors: newTable[spectrum.Reflector](16),
	}
	c.spectrumPolicy = smitsSpectrumPolicy
	c.reflectorPolicy = smitsReflectorPolicy
	return c
}

// WithPolicies overrides the synthesis policies (e.g. to test the cache in
// isolation from Smits reconstruction).
func (c *Cache) WithPolicies(s SpectrumPolicy, r ReflectorPolicy) *Cache {
	c.spectrumPolicy = s
	c.reflectorPolicy = r
	return c
}

// Prepare grows both tables to accommodate n additional entries without
// reallocating mid-insert, for bulk work such as MIP-map construction.
// Called once at scene build time, before rendering starts.
func (c *Cache) Prepare(n int) {
	c.spectra.reserve(c.spectra.count + n)
	c.reflectors.reserve(c.reflectors.count + n)
}

// Spectrum returns the cached or newly synthesized Spectrum for c. A
// perfectly black colour short-circuits to the null spectrum without a
// cache entry.
func (c *Cache) Spectrum(col color.Color3) (spectrum.Spectrum, error) {
	if col.IsBlack() {
		return nil, nil
	}
	if v, ok := c.spectra.get(col); ok {
		return v, nil
	}
	v, err := c.spectrumPolicy(col)
	if err != nil {
		return nil, err
	}
	c.spectra.put(col, v)
	return v, nil
}

// Reflector returns the cached or newly synthesized Reflector for c.
func (c *Cache) Reflector(col color.Color3) (spectrum.Reflector, error) {
	if col.IsBlack() {
		return nil, nil
	}
	if v, ok := c.reflectors.get(col); ok {
		return v, nil
	}
	v, err := c.reflectorPolicy(col)
	if err != nil {
		return nil, err
	}
	c.reflectors.put(col, v)
	return v, nil
}

func smitsSpectrumPolicy(col color.Color3) (spectrum.Spectrum, error) {
	rgb := col.To(color.LinearSRGB)
	samples := make([]float64, smitsSampleCount)
	for i, w := range smitsWavelengths {
		samples[i] = evalSmitsSPD(rgb.C0, rgb.C1, rgb.C2, w)
	}
	return spectrum.NewInterpolated(smitsWavelengths[:], samples), nil
}

func smitsReflectorPolicy(col color.Color3) (spectrum.Reflector, error) {
	rgb := col.To(color.LinearSRGB)
	samples := make([]float64, smitsSampleCount)
	for i, w := range smitsWavelengths {
		samples[i] = evalSmitsSPD(rgb.C0, rgb.C1, rgb.C2, w)
	}
	return spectrum.NewInterpolatedReflector(smitsWavelengths[:], samples), nil
}
