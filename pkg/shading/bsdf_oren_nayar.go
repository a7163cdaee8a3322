package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// OrenNayar is the rough-diffuse BSDF: sampling matches Lambertian's
// cosine-hemisphere distribution, but the reflectance is modulated by the
// Oren-Nayar roughness term (the standard A/B
// microfacet-facing-ratio approximation).
type OrenNayar struct {
	Reflectance spectrum.Reflector
	Sigma       float64 // roughness, radians
	a, b        float64 // precomputed A, B terms
}

func NewOrenNayar(reflectance spectrum.Reflector, sigma float64) *OrenNayar {
	sigma2 := sigma * sigma
	return &OrenNayar{
		Reflectance: reflectance,
		Sigma:       sigma,
		a:           1 - sigma2/(2*(sigma2+0.33)),
		b:           0.45 * sigma2 / (sigma2 + 0.09),
	}
}

func (o *OrenNayar) orenNayarFalloff(wi, n, wo core.Vec3) float64 {
	cosThetaI := math.Abs(wi.Dot(n))
	cosThetaO := math.Abs(wo.Dot(n))
	sinThetaI := math.Sqrt(math.Max(0, 1-cosThetaI*cosThetaI))
	sinThetaO := math.Sqrt(math.Max(0, 1-cosThetaO*cosThetaO))

	// Project wi, wo onto the tangent plane to get the azimuthal term.
	ti := wi.Subtract(n.Multiply(wi.Dot(n)))
	to := wo.Subtract(n.Multiply(wo.Dot(n)))
	var cosPhiDiff float64
	if ti.LengthSquared() > 1e-12 && to.LengthSquared() > 1e-12 {
		cosPhiDiff = math.Max(0, ti.Normalize().Dot(to.Normalize()))
	}

	sinAlpha, tanBeta := sinThetaI, sinThetaO/math.Max(cosThetaI, cosThetaO)
	if sinThetaI > sinThetaO {
		sinAlpha, tanBeta = sinThetaO, sinThetaI/math.Max(cosThetaI, cosThetaO)
	}
	return o.a + o.b*cosPhiDiff*sinAlpha*tanBeta
}

func (o *OrenNayar) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	wo := cosineHemisphere(nShading, rng)
	if (wi.Dot(nGeom) > 0) != (wo.Dot(nGeom) > 0) {
		wo = wo.Negate()
	}
	cosTheta := math.Max(0, wo.Dot(nShading))
	pdf := cosTheta / math.Pi
	falloff := o.orenNayarFalloff(wi.Negate(), nShading, wo)
	return rc.Attenuate(o.Reflectance, falloff/math.Pi), Reflection, wo, pdf
}

func (o *OrenNayar) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	r, _ := o.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
	return r
}

func (o *OrenNayar) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	cosTheta := wo.Dot(nShading)
	if cosTheta <= 0 {
		return nil, 0
	}
	falloff := o.orenNayarFalloff(wi.Negate(), nShading, wo)
	return rc.Attenuate(o.Reflectance, falloff/math.Pi), cosTheta / math.Pi
}
