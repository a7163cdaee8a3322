package shading

import (
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// Mirror is the perfect-specular-reflection BSDF: one reflection
// direction, pdf = +Inf, no diffuse contribution (a specular lobe never
// answers a diffuse query).
type Mirror struct {
	Reflectance spectrum.Reflector
}

func NewMirror(reflectance spectrum.Reflector) *Mirror {
	return &Mirror{Reflectance: reflectance}
}

func (m *Mirror) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	wo := core.Reflect(wi.Negate(), nShading)
	return m.Reflectance, Reflection | Specular, wo, posInf
}

func (m *Mirror) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	return nil
}

func (m *Mirror) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	return nil, 0
}
