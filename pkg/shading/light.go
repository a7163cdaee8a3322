package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// EmitterGeometry is the subset of the Shape capability set a Light
// needs from an emissive shape: sampling a point on its surface,
// evaluating the solid-angle pdf of a ray that hit it, and testing
// whether a ray hits a given face at all. Declared locally (rather than
// imported from pkg/shape) so pkg/shape can import pkg/shading for
// Material/Light/NormalMap without a cycle; *shape.Sphere and
// *shape.Triangle satisfy this interface structurally.
type EmitterGeometry interface {
	SampleFace(face int, u, v float64) (point, normal core.Vec3)
	PDFSolidAngle(ray core.Ray, distance float64, face int) float64
	IntersectFace(ray core.Ray, face int) (distance float64, ok bool)
}

// PointLight is a delta light at a fixed position.
type PointLight struct {
	Position  core.Vec3
	Intensity spectrum.Spectrum
}

func NewPointLight(position core.Vec3, intensity spectrum.Spectrum) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

func (p *PointLight) IsDelta() bool { return true }

func (p *PointLight) Sample(point core.Vec3, vis VisibilityTester, rng RNG, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, core.Vec3, float64) {
	toLight := p.Position.Subtract(point)
	dist2 := toLight.LengthSquared()
	if dist2 == 0 {
		return nil, core.Vec3{}, 0
	}
	wi := toLight.Normalize()
	if !vis.Unoccluded(point, p.Position) {
		return nil, wi, posInf
	}
	radiance := sc.Attenuate(p.Intensity, 1/dist2)
	return radiance, wi, posInf
}

func (p *PointLight) ComputeEmissiveWithPdf(ray core.Ray, vis VisibilityTester, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, float64) {
	return nil, 0 // a delta light is never hit by a BSDF sample
}

// DiffuseAreaLight emits uniformly from one face of an emissive shape:
// sample a point on the shape, evaluate emission there.
type DiffuseAreaLight struct {
	Geometry EmitterGeometry
	Face     int
	Emission spectrum.Spectrum
	TwoSided bool
}

func NewDiffuseAreaLight(geometry EmitterGeometry, face int, emission spectrum.Spectrum, twoSided bool) *DiffuseAreaLight {
	return &DiffuseAreaLight{Geometry: geometry, Face: face, Emission: emission, TwoSided: twoSided}
}

func (d *DiffuseAreaLight) IsDelta() bool { return false }

func (d *DiffuseAreaLight) Sample(point core.Vec3, vis VisibilityTester, rng RNG, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, core.Vec3, float64) {
	lightPoint, lightNormal := d.Geometry.SampleFace(d.Face, rng.NextFloat(0, 1), rng.NextFloat(0, 1))
	toLight := lightPoint.Subtract(point)
	dist := toLight.Length()
	if dist == 0 {
		return nil, core.Vec3{}, 0
	}
	wi := toLight.Multiply(1 / dist)

	facing := lightNormal.Dot(wi.Negate())
	if !d.TwoSided && facing <= 0 {
		return nil, wi, 0
	}
	if !vis.Unoccluded(point, lightPoint) {
		return nil, wi, 0
	}

	ray := core.NewRay(point, wi)
	pdf := d.Geometry.PDFSolidAngle(ray, dist, d.Face)
	if pdf <= 0 {
		return nil, wi, 0
	}
	return d.Emission, wi, pdf
}

// ComputeEmissiveWithPdf evaluates the light along an already-chosen ray
// (the BSDF-sampled half of the MIS estimator): if the ray hits the
// emitting face unoccluded, the light's emission and the solid-angle pdf
// of that hit are returned.
func (d *DiffuseAreaLight) ComputeEmissiveWithPdf(ray core.Ray, vis VisibilityTester, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, float64) {
	dist, ok := d.Geometry.IntersectFace(ray, d.Face)
	if !ok && d.TwoSided {
		dist, ok = d.Geometry.IntersectFace(ray, 1-d.Face)
	}
	if !ok {
		return nil, 0
	}
	if !vis.Unoccluded(ray.Origin, ray.At(dist)) {
		return nil, 0
	}
	pdf := d.Geometry.PDFSolidAngle(ray, dist, d.Face)
	if pdf <= 0 {
		return nil, 0
	}
	return d.Emission, pdf
}

// GradientInfiniteLight is a simple directional-gradient environment.
type GradientInfiniteLight struct {
	Top, Bottom spectrum.Spectrum
	WorldRadius float64
}

func NewGradientInfiniteLight(top, bottom spectrum.Spectrum, worldRadius float64) *GradientInfiniteLight {
	return &GradientInfiniteLight{Top: top, Bottom: bottom, WorldRadius: worldRadius}
}

func (g *GradientInfiniteLight) IsDelta() bool { return false }

// gradientAt blends bottom/top by t = 0.5*(dir.Y+1), mapping Y from
// [-1,1] to [0,1].
func (g *GradientInfiniteLight) gradientAt(dir core.Vec3, sc *spectrum.SpectrumCompositor) spectrum.Spectrum {
	t := 0.5 * (dir.Y + 1)
	return sc.Add(sc.Attenuate(g.Bottom, 1-t), sc.Attenuate(g.Top, t))
}

func (g *GradientInfiniteLight) Sample(point core.Vec3, vis VisibilityTester, rng RNG, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, core.Vec3, float64) {
	dir := cosineHemisphere(core.NewVec3(0, 1, 0), rng)
	cosTheta := dir.Y
	if cosTheta <= 0 {
		return nil, dir, 0
	}
	far := point.Add(dir.Multiply(2 * g.WorldRadius))
	if !vis.Unoccluded(point, far) {
		return nil, dir, 0
	}
	return g.gradientAt(dir, sc), dir, cosTheta / math.Pi
}

func (g *GradientInfiniteLight) ComputeEmissiveWithPdf(ray core.Ray, vis VisibilityTester, sc *spectrum.SpectrumCompositor) (spectrum.Spectrum, float64) {
	dir := ray.Direction.Normalize()
	radiance := g.gradientAt(dir, sc)
	if dir.Y <= 0 {
		return radiance, 0
	}
	return radiance, dir.Y / math.Pi
}
