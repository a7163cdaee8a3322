package mipmap

import (
	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/extrapolator"
	"github.com/df07/specterray/pkg/spectrum"
)

func colorZero() color.Color3 { return color.Color3{Space: color.LinearSRGB} }

func colorAdd(a, b color.Color3) color.Color3 { return a.Add(b) }

func colorScale(a color.Color3, k float64) color.Color3 { return a.Scale(k) }

// BuildColor builds a colour pyramid from WxH linear-sRGB texels. Every
// source texel is converted into the shared working colour space exactly
// once, here at ingestion, before any box-filter downsample pass runs.
func BuildColor(width, height int, texels []color.Color3, opts Options) *Mipmap[color.Color3] {
	linear := make([]color.Color3, len(texels))
	for i, t := range texels {
		linear[i] = t.To(color.LinearSRGB)
	}
	return Build(width, height, linear, opts, colorZero(), colorAdd, colorScale)
}

// SpectrumMipmap filters in colour space and spectralises only the final
// blended result:
// mip level averaging never touches the extrapolator, so colours stay
// faithful across levels; only Lookup's result is pushed through the
// colour extrapolator.
type SpectrumMipmap struct {
	colors *Mipmap[color.Color3]
	cache  *extrapolator.Cache
}

// NewSpectrumMipmap builds a SpectrumMipmap from a base image, sharing
// cache (the scene's single colour extrapolator instance, built complete
// before rendering starts).
func NewSpectrumMipmap(width, height int, texels []color.Color3, opts Options, cache *extrapolator.Cache) *SpectrumMipmap {
	return &SpectrumMipmap{colors: BuildColor(width, height, texels, opts), cache: cache}
}

// Lookup filters the colour pyramid at (s,t) with the given screen-space
// derivatives and spectralises the blended colour through the shared
// extrapolator cache.
func (m *SpectrumMipmap) Lookup(s, t, dsdx, dtdx, dsdy, dtdy float64) (spectrum.Spectrum, error) {
	blended := m.colors.Lookup(s, t, dsdx, dtdx, dsdy, dtdy)
	return m.cache.Spectrum(blended)
}

// ReflectorMipmap is the reflectance-valued twin of SpectrumMipmap.
type ReflectorMipmap struct {
	colors *Mipmap[color.Color3]
	cache  *extrapolator.Cache
}

func NewReflectorMipmap(width, height int, texels []color.Color3, opts Options, cache *extrapolator.Cache) *ReflectorMipmap {
	return &ReflectorMipmap{colors: BuildColor(width, height, texels, opts), cache: cache}
}

func (m *ReflectorMipmap) Lookup(s, t, dsdx, dtdx, dsdy, dtdy float64) (spectrum.Reflector, error) {
	blended := m.colors.Lookup(s, t, dsdx, dtdx, dsdy, dtdy)
	return m.cache.Reflector(blended)
}
