package shading

import (
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// Alpha is the alpha blender: probabilistically a pure specular
// transmission pass-through with probability 1-alpha, or the base BSDF with
// probability alpha; diffuse queries fall through scaled by alpha.
type Alpha struct {
	Base  BSDF
	Value float64 // alpha in [0, 1]
}

func NewAlpha(base BSDF, alpha float64) *Alpha {
	return &Alpha{Base: base, Value: alpha}
}

// passThrough is the unit transmittance of the alpha blender's skip
// branch: the ray continues unbent and unattenuated, so returning a real
// all-pass reflector (rather than the null reflector, which the path
// tracer reads as sample failure) keeps the path alive.
var passThrough = spectrum.NewConstantReflector(1)

func (a *Alpha) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	if rng.NextFloat(0, 1) >= a.Value {
		// Pure transmission pass-through: the ray continues unbent.
		return passThrough, Transmission | Specular, wi.Negate(), posInf
	}
	return a.Base.Sample(wi, nGeom, nShading, rng, rc)
}

func (a *Alpha) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	base := a.Base.ComputeDiffuse(wi, nGeom, nShading, wo, rc)
	if base == nil {
		return nil
	}
	return rc.Attenuate(base, a.Value)
}

func (a *Alpha) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	base, pdf := a.Base.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
	if base == nil {
		return nil, 0
	}
	return rc.Attenuate(base, a.Value), pdf * a.Value
}
