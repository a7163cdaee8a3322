package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// cosineHemisphere draws a cosine-weighted direction in the hemisphere
// around n.
func cosineHemisphere(n core.Vec3, rng RNG) core.Vec3 {
	u1 := rng.NextFloat(0, 1)
	u2 := rng.NextFloat(0, 1)
	r := math.Sqrt(u1)
	theta := 2 * math.Pi * u2
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u1))

	// Build an orthonormal basis around n.
	var a core.Vec3
	if math.Abs(n.X) > 0.9 {
		a = core.NewVec3(0, 1, 0)
	} else {
		a = core.NewVec3(1, 0, 0)
	}
	t := a.Cross(n).Normalize()
	b := n.Cross(t)
	return t.Multiply(x).Add(b.Multiply(y)).Add(n.Multiply(z)).Normalize()
}

// Lambertian is the perfectly diffuse BSDF: cosine-hemisphere
// sampling, pdf = cosθ/π.
type Lambertian struct {
	Reflectance spectrum.Reflector
}

func NewLambertian(reflectance spectrum.Reflector) *Lambertian {
	return &Lambertian{Reflectance: reflectance}
}

func (l *Lambertian) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	wo := cosineHemisphere(nShading, rng)
	if (wi.Dot(nGeom) > 0) != (wo.Dot(nGeom) > 0) {
		// Keep the sample on the same side of the geometric surface as the
		// incoming ray's hemisphere of origin.
		wo = wo.Negate()
	}
	cosTheta := math.Max(0, wo.Dot(nShading))
	pdf := cosTheta / math.Pi
	return rc.Attenuate(l.Reflectance, 1/math.Pi), Reflection, wo, pdf
}

func (l *Lambertian) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	if wo.Dot(nShading) <= 0 {
		return nil
	}
	return rc.Attenuate(l.Reflectance, 1/math.Pi)
}

func (l *Lambertian) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	cosTheta := wo.Dot(nShading)
	if cosTheta <= 0 {
		return nil, 0
	}
	return rc.Attenuate(l.Reflectance, 1/math.Pi), cosTheta / math.Pi
}
