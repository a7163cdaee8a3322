package shading

import (
	"github.com/df07/specterray/pkg/spectrum"
)

// Matte is the diffuse material: a Lambertian or Oren-Nayar BSDF built
// from a ReflectorSource.
type Matte struct {
	Source ReflectorSource
	Sigma  float64 // 0 selects plain Lambertian; >0 selects Oren-Nayar
}

func NewMatte(source ReflectorSource, sigma float64) *Matte {
	return &Matte{Source: source, Sigma: sigma}
}

func (m *Matte) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	r, err := m.Source.Evaluate(hctx)
	if err != nil || r == nil {
		return nil
	}
	if m.Sigma > 0 {
		return alloc.New(NewOrenNayar(r, m.Sigma))
	}
	return alloc.New(NewLambertian(r))
}

// MirrorMaterial wraps a Mirror BSDF.
type MirrorMaterial struct {
	Source ReflectorSource
}

func NewMirrorMaterial(source ReflectorSource) *MirrorMaterial {
	return &MirrorMaterial{Source: source}
}

func (m *MirrorMaterial) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	r, err := m.Source.Evaluate(hctx)
	if err != nil || r == nil {
		return nil
	}
	return alloc.New(NewMirror(r))
}

// GlassMaterial wraps a Dielectric BSDF.
type GlassMaterial struct {
	Source          ReflectorSource
	RefractiveIndex float64
}

func NewGlassMaterial(source ReflectorSource, refractiveIndex float64) *GlassMaterial {
	return &GlassMaterial{Source: source, RefractiveIndex: refractiveIndex}
}

func (g *GlassMaterial) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	r, err := g.Source.Evaluate(hctx)
	if err != nil {
		return nil
	}
	return alloc.New(NewDielectric(r, g.RefractiveIndex))
}

// GlossyMaterial wraps an anisotropic GGX Microfacet BSDF.
type GlossyMaterial struct {
	Source         ReflectorSource
	AlphaX, AlphaY float64
	EtaI, EtaT     float64
}

func NewGlossyMaterial(source ReflectorSource, alphaX, alphaY, etaI, etaT float64) *GlossyMaterial {
	return &GlossyMaterial{Source: source, AlphaX: alphaX, AlphaY: alphaY, EtaI: etaI, EtaT: etaT}
}

func (g *GlossyMaterial) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	r, err := g.Source.Evaluate(hctx)
	if err != nil || r == nil {
		return nil
	}
	return alloc.New(NewMicrofacet(r, g.AlphaX, g.AlphaY, g.EtaI, g.EtaT))
}

// AlphaMaterial wraps a base material's BSDF in an Alpha blender,
// driven by an alpha mask sampled per-hit (cutout transparency).
type AlphaMaterial struct {
	Base  Material
	Alpha func(hctx HitContext) float64
}

func NewAlphaMaterial(base Material, alpha func(hctx HitContext) float64) *AlphaMaterial {
	return &AlphaMaterial{Base: base, Alpha: alpha}
}

func (a *AlphaMaterial) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	base := a.Base.Sample(hctx, alloc)
	if base == nil {
		return nil
	}
	return alloc.New(NewAlpha(base, a.Alpha(hctx)))
}

// Mix probabilistically selects between two materials per-sample.
type Mix struct {
	A, B  Material
	Ratio float64 // 0 = always A, 1 = always B
	rng   func() float64
}

func NewMix(a, b Material, ratio float64, rng func() float64) *Mix {
	return &Mix{A: a, B: b, Ratio: ratio, rng: rng}
}

func (m *Mix) Sample(hctx HitContext, alloc *BsdfAllocator) BSDF {
	if m.rng() < m.Ratio {
		return m.B.Sample(hctx, alloc)
	}
	return m.A.Sample(hctx, alloc)
}

// Emissive is a purely-emissive material (no BSDF).
type Emissive struct {
	Emission spectrum.Spectrum
}

func NewEmissive(emission spectrum.Spectrum) *Emissive {
	return &Emissive{Emission: emission}
}

func (e *Emissive) Emit(hctx HitContext) spectrum.Spectrum { return e.Emission }
