package shading

import (
	"math"
	"testing"

	"github.com/df07/specterray/pkg/color"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/extrapolator"
	"github.com/df07/specterray/pkg/mipmap"
	"github.com/df07/specterray/pkg/spectrum"
)

func TestPowerHeuristicNormalization(t *testing.T) {
	cases := [][2]float64{{1, 1}, {2, 3}, {0.1, 5}, {1, 0}}
	for _, c := range cases {
		w1 := PowerHeuristic(c[0], c[1])
		w2 := PowerHeuristic(c[1], c[0])
		if math.Abs(w1+w2-1) > 1e-9 {
			t.Fatalf("weight(%v,%v)+weight(%v,%v) = %v, want 1", c[0], c[1], c[1], c[0], w1+w2)
		}
	}
}

func TestPowerHeuristicSpecularAlwaysWins(t *testing.T) {
	w := PowerHeuristic(math.Inf(1), 5)
	if w != 1 {
		t.Fatalf("specular pdf should dominate, got weight %v", w)
	}
}

type fakeRNG struct {
	floats []float64
	idx    int
	i      int
}

func (f *fakeRNG) NextFloat(low, high float64) float64 {
	v := f.floats[f.i%len(f.floats)]
	f.i++
	return low + v*(high-low)
}
func (f *fakeRNG) NextIndex(n int) int {
	v := f.idx
	f.idx++
	return v % n
}

func TestAggregateCombinesTwoLambertians(t *testing.T) {
	rc := spectrum.NewReflectorCompositor(8)
	r1 := spectrum.NewConstantReflector(0.5)
	r2 := spectrum.NewConstantReflector(0.3)
	agg := NewAggregate([]BSDF{NewLambertian(r1), NewLambertian(r2)})
	if agg == nil {
		t.Fatal("expected non-nil aggregate")
	}

	wi := core.NewVec3(0, 0, 1)
	n := core.NewVec3(0, 0, 1)
	rng := &fakeRNG{floats: []float64{0.3, 0.6}}
	reflector, sampleType, wo, pdf := agg.Sample(wi, n, n, rng, rc)
	if reflector == nil || pdf <= 0 {
		t.Fatalf("expected a valid diffuse sample, got reflector=%v pdf=%v", reflector, pdf)
	}
	if sampleType.IsSpecular() {
		t.Fatalf("combining two diffuse lobes should never report specular")
	}
	if wo.Dot(n) <= 0 {
		t.Fatalf("sampled direction should stay in the upper hemisphere, got %v", wo)
	}
}

func TestAlphaPassThroughKeepsPathAlive(t *testing.T) {
	rc := spectrum.NewReflectorCompositor(8)
	base := NewLambertian(spectrum.NewConstantReflector(0.5))
	a := NewAlpha(base, 0) // alpha 0: always the pass-through branch

	wi := core.NewVec3(0, 0, 1)
	n := core.NewVec3(0, 0, 1)
	rng := &fakeRNG{floats: []float64{0.7}}
	refl, sampleType, wo, pdf := a.Sample(wi, n, n, rng, rc)
	if refl == nil {
		t.Fatal("pass-through must return a real reflector, not the null reflector")
	}
	if refl.Sample(550) != 1 || refl.Albedo() != 1 {
		t.Fatalf("pass-through transmittance should be unit, got sample %v albedo %v", refl.Sample(550), refl.Albedo())
	}
	if sampleType != Transmission|Specular {
		t.Fatalf("pass-through must be a specular transmission, got %v", sampleType)
	}
	if !math.IsInf(pdf, 1) {
		t.Fatalf("pass-through pdf must be +Inf, got %v", pdf)
	}
	if !wo.Equals(wi.Negate()) {
		t.Fatalf("pass-through must continue unbent, got %v", wo)
	}
}

func TestAlphaDelegatesAndScalesDiffuse(t *testing.T) {
	rc := spectrum.NewReflectorCompositor(8)
	base := NewLambertian(spectrum.NewConstantReflector(0.8))
	a := NewAlpha(base, 1) // alpha 1: always the base BSDF

	wi := core.NewVec3(0, 0, 1)
	n := core.NewVec3(0, 0, 1)
	rng := &fakeRNG{floats: []float64{0.3, 0.6}}
	refl, sampleType, _, pdf := a.Sample(wi, n, n, rng, rc)
	if refl == nil || pdf <= 0 || sampleType.IsSpecular() {
		t.Fatalf("alpha=1 must delegate to the diffuse base, got refl=%v type=%v pdf=%v", refl, sampleType, pdf)
	}

	half := NewAlpha(base, 0.5)
	got := half.ComputeDiffuse(wi, n, n, core.NewVec3(0, 0, 1), rc)
	if got == nil {
		t.Fatal("diffuse query must fall through to the base")
	}
	want := 0.5 * base.Reflectance.Sample(550) / math.Pi
	if math.Abs(got.Sample(550)-want) > 1e-9 {
		t.Fatalf("diffuse response should scale by alpha: got %v, want %v", got.Sample(550), want)
	}
}

func TestImageReflectorConsumesTexCoordPayload(t *testing.T) {
	cache := extrapolator.New()
	const size = 4
	texels := make([]color.Color3, size*size)
	for i := range texels {
		texels[i] = color.NewColor3(0.8, 0.1, 0.1, color.LinearSRGB)
	}
	opts := mipmap.Options{Filter: mipmap.FilterNone, MaxAnisotropy: 8, Wrap: mipmap.Repeat}
	ir := NewImageReflector(mipmap.NewReflectorMipmap(size, size, texels, opts, cache))

	refl, err := ir.Evaluate(HitContext{TexCoord: TexCoord{Kind: TexCoordUV, U: 0.5, V: 0.5}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if refl == nil || refl.Sample(611) <= 0 {
		t.Fatal("a red texel must evaluate to a reflector with red-wavelength reflectance")
	}

	none, err := ir.Evaluate(HitContext{TexCoord: TexCoord{Kind: TexCoordNone}})
	if err != nil || none != nil {
		t.Fatalf("a hit without a UV payload must evaluate to the null reflector, got %v, %v", none, err)
	}
}

func TestUVTexCoordMapEmitsHitUV(t *testing.T) {
	var alloc TextureCoordinateAllocator
	tc := UVTexCoordMap{}.Compute(HitContext{UV: core.NewVec2(0.25, 0.75)}, &alloc)
	if tc.Kind != TexCoordUV || tc.U != 0.25 || tc.V != 0.75 {
		t.Fatalf("UVTexCoordMap should relay the hit UV, got %+v", tc)
	}
}

// fakeEmitter is a stand-in EmitterGeometry: a disc-like surface that a
// ray hits at a fixed distance on the front face.
type fakeEmitter struct {
	hitDistance float64
	pdf         float64
}

func (f fakeEmitter) SampleFace(face int, u, v float64) (core.Vec3, core.Vec3) {
	return core.NewVec3(0, 0, -f.hitDistance), core.NewVec3(0, 0, 1)
}

func (f fakeEmitter) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 {
	return f.pdf
}

func (f fakeEmitter) IntersectFace(ray core.Ray, face int) (float64, bool) {
	if face != 0 {
		return 0, false
	}
	return f.hitDistance, true
}

type alwaysVisible struct{}

func (alwaysVisible) Unoccluded(from, to core.Vec3) bool { return true }

func TestDiffuseAreaLightComputeEmissiveWithPdf(t *testing.T) {
	sc := spectrum.NewSpectrumCompositor(8)
	emission := spectrum.NewConstant(5)
	light := NewDiffuseAreaLight(fakeEmitter{hitDistance: 2, pdf: 0.5}, 0, emission, false)

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	radiance, pdf := light.ComputeEmissiveWithPdf(ray, alwaysVisible{}, sc)
	if radiance == nil || pdf != 0.5 {
		t.Fatalf("a ray hitting the emitting face must return (emission, pdf): got %v, %v", radiance, pdf)
	}
	if radiance.Sample(550) != 5 {
		t.Fatalf("returned radiance should be the light's emission, got %v", radiance.Sample(550))
	}

	// A one-sided light hit on the back face returns nothing.
	backOnly := NewDiffuseAreaLight(fakeEmitter{hitDistance: 2, pdf: 0.5}, 1, emission, false)
	if r, p := backOnly.ComputeEmissiveWithPdf(ray, alwaysVisible{}, sc); r != nil || p != 0 {
		t.Fatalf("a miss on the emitting face must return (nil, 0), got %v, %v", r, p)
	}
}
