package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// Microfacet is the anisotropic Trowbridge-Reitz (GGX) BSDF:
// visible-normal sampling of the half-vector distribution (Heitz 2018),
// Fresnel-weighted, with the Smith height-correlated masking term.
type Microfacet struct {
	Reflectance  spectrum.Reflector
	AlphaX, AlphaY float64
	EtaI, EtaT   float64
}

func NewMicrofacet(reflectance spectrum.Reflector, alphaX, alphaY, etaI, etaT float64) *Microfacet {
	return &Microfacet{Reflectance: reflectance, AlphaX: alphaX, AlphaY: alphaY, EtaI: etaI, EtaT: etaT}
}

// localFrame builds an orthonormal basis (t, b, n) around n.
func localFrame(n core.Vec3) (t, b core.Vec3) {
	var a core.Vec3
	if math.Abs(n.X) > 0.9 {
		a = core.NewVec3(0, 1, 0)
	} else {
		a = core.NewVec3(1, 0, 0)
	}
	t = a.Cross(n).Normalize()
	b = n.Cross(t)
	return
}

func toLocal(v, t, b, n core.Vec3) core.Vec3 {
	return core.NewVec3(v.Dot(t), v.Dot(b), v.Dot(n))
}

func fromLocal(v core.Vec3, t, b, n core.Vec3) core.Vec3 {
	return t.Multiply(v.X).Add(b.Multiply(v.Y)).Add(n.Multiply(v.Z))
}

// ggxD evaluates the Trowbridge-Reitz normal distribution for a local-space
// half vector wh (z-up).
func (m *Microfacet) ggxD(wh core.Vec3) float64 {
	tan2 := (wh.X*wh.X)/(m.AlphaX*m.AlphaX) + (wh.Y*wh.Y)/(m.AlphaY*m.AlphaY)
	cos4 := wh.Z * wh.Z * wh.Z * wh.Z
	if cos4 < 1e-16 {
		return 0
	}
	e := tan2 / (wh.Z * wh.Z)
	denom := math.Pi * m.AlphaX * m.AlphaY * cos4 * (1 + e) * (1 + e)
	return 1 / denom
}

// ggxLambda is the Smith masking auxiliary function.
func (m *Microfacet) ggxLambda(w core.Vec3) float64 {
	cosTheta2 := w.Z * w.Z
	if cosTheta2 >= 1 {
		return 0
	}
	tan2 := (1 - cosTheta2) / cosTheta2
	alpha2 := (w.X*w.X*m.AlphaX*m.AlphaX + w.Y*w.Y*m.AlphaY*m.AlphaY) / math.Max(1e-12, w.X*w.X+w.Y*w.Y)
	return (math.Sqrt(1+alpha2*tan2) - 1) / 2
}

func (m *Microfacet) g1(w core.Vec3) float64 { return 1 / (1 + m.ggxLambda(w)) }
func (m *Microfacet) g(wi, wo core.Vec3) float64 {
	return 1 / (1 + m.ggxLambda(wi) + m.ggxLambda(wo))
}

// sampleVisibleNormal implements Heitz's visible-normal GGX sampling in
// local space (wo points away from the surface, z>=0 not required).
func sampleVisibleNormal(wo core.Vec3, alphaX, alphaY float64, u1, u2 float64) core.Vec3 {
	whStretched := core.NewVec3(alphaX*wo.X, alphaY*wo.Y, wo.Z).Normalize()
	t1 := core.NewVec3(1, 0, 0)
	if whStretched.Z < 0.999 {
		t1 = core.NewVec3(0, 0, 1).Cross(whStretched).Normalize()
	}
	t2 := whStretched.Cross(t1)

	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	p1 := r * math.Cos(phi)
	p2 := r * math.Sin(phi)
	s := 0.5 * (1 + whStretched.Z)
	p2 = (1-s)*math.Sqrt(math.Max(0, 1-p1*p1)) + s*p2

	nh := t1.Multiply(p1).Add(t2.Multiply(p2)).Add(whStretched.Multiply(math.Sqrt(math.Max(0, 1-p1*p1-p2*p2))))
	return core.NewVec3(alphaX*nh.X, alphaY*nh.Y, math.Max(1e-6, nh.Z)).Normalize()
}

func (m *Microfacet) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	t, b := localFrame(nShading)
	woLocal := toLocal(wi, t, b, nShading) // wi points away from the surface toward the viewer
	if woLocal.Z < 0 {
		woLocal = woLocal.Negate()
	}

	whLocal := sampleVisibleNormal(woLocal, m.AlphaX, m.AlphaY, rng.NextFloat(0, 1), rng.NextFloat(0, 1))
	wiLocal := core.Reflect(woLocal.Negate(), whLocal)
	if wiLocal.Z <= 0 {
		return nil, Reflection, core.Vec3{}, 0
	}

	wh := fromLocal(whLocal, t, b, nShading)
	fr := fresnelDielectric(wi.Dot(wh), m.EtaT/m.EtaI)
	d := m.ggxD(whLocal)
	gTerm := m.g(wiLocal, woLocal)
	g1o := m.g1(woLocal)

	denom := 4 * woLocal.Z * wiLocal.Z
	if denom <= 0 {
		return nil, Reflection, core.Vec3{}, 0
	}
	value := d * gTerm * fr / denom
	pdf := d * g1o / (4 * woLocal.Z)

	wo := fromLocal(wiLocal, t, b, nShading)
	return rc.Attenuate(m.Reflectance, value*wiLocal.Z), Reflection, wo, pdf
}

func (m *Microfacet) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	r, _ := m.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
	return r
}

func (m *Microfacet) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	t, b := localFrame(nShading)
	wiLocal := toLocal(wo, t, b, nShading) // "incoming" from the BSDF's own local perspective
	woLocal := toLocal(wi, t, b, nShading)
	if wiLocal.Z <= 0 || woLocal.Z <= 0 {
		return nil, 0
	}
	wh := wiLocal.Add(woLocal).Normalize()
	fr := fresnelDielectric(woLocal.Dot(wh), m.EtaT/m.EtaI)
	d := m.ggxD(wh)
	gTerm := m.g(wiLocal, woLocal)
	value := d * gTerm * fr / (4 * woLocal.Z * wiLocal.Z)
	pdf := d * m.g1(woLocal) * math.Abs(wh.Dot(woLocal)) / (4 * woLocal.Z * math.Abs(wh.Dot(woLocal)))
	return rc.Attenuate(m.Reflectance, value*wiLocal.Z), pdf
}
