package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// Dielectric is the specular-dielectric (Fresnel) BSDF: probabilistic
// choice between reflection and refraction weighted by the Fresnel
// dielectric coefficient at the incident angle; total internal
// reflection forces the reflection branch.
type Dielectric struct {
	Reflectance   spectrum.Reflector // tint applied to both branches
	RefractiveIndex float64
}

func NewDielectric(reflectance spectrum.Reflector, refractiveIndex float64) *Dielectric {
	return &Dielectric{Reflectance: reflectance, RefractiveIndex: refractiveIndex}
}

// fresnelDielectric computes unpolarised Fresnel reflectance for cosThetaI
// the cosine of the incident angle (measured from the normal, on the side
// the ray is arriving from) and eta = etaTransmit/etaIncident.
func fresnelDielectric(cosThetaI, eta float64) float64 {
	cosThetaI = math.Max(-1, math.Min(1, cosThetaI))
	if cosThetaI < 0 {
		eta = 1 / eta
		cosThetaI = -cosThetaI
	}
	sin2ThetaI := math.Max(0, 1-cosThetaI*cosThetaI)
	sin2ThetaT := sin2ThetaI / (eta * eta)
	if sin2ThetaT >= 1 {
		return 1 // total internal reflection
	}
	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	rParallel := (eta*cosThetaI - cosThetaT) / (eta*cosThetaI + cosThetaT)
	rPerp := (cosThetaI - eta*cosThetaT) / (cosThetaI + eta*cosThetaT)
	return (rParallel*rParallel + rPerp*rPerp) / 2
}

func (d *Dielectric) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	incoming := wi.Negate() // direction of travel, toward the surface
	cosThetaI := nShading.Dot(incoming.Negate())
	entering := cosThetaI > 0
	n := nShading
	eta := d.RefractiveIndex
	if !entering {
		n = nShading.Negate()
		cosThetaI = -cosThetaI
		eta = 1 / eta
	}

	sin2ThetaI := math.Max(0, 1-cosThetaI*cosThetaI)
	sin2ThetaT := sin2ThetaI / (eta * eta)

	if sin2ThetaT >= 1 {
		// Total internal reflection: forced deterministically.
		wo := core.Reflect(incoming, n)
		return d.Reflectance, Reflection | Specular, wo, posInf
	}

	fr := fresnelDielectric(cosThetaI, eta)
	if rng.NextFloat(0, 1) < fr {
		wo := core.Reflect(incoming, n)
		return d.Reflectance, Reflection | Specular, wo, posInf
	}

	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	wt := incoming.Multiply(1 / eta).Add(n.Multiply(cosThetaI/eta - cosThetaT))
	return d.Reflectance, Transmission | Specular, wt.Normalize(), posInf
}

func (d *Dielectric) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	return nil
}

func (d *Dielectric) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	return nil, 0
}
