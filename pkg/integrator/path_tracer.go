package integrator

import (
	"fmt"
	"math"

	"github.com/df07/specterray/pkg/bvh"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/shape"
	"github.com/df07/specterray/pkg/spectrum"
)

// Config is the path tracer's Russian-roulette and depth policy. All
// four fields are validated at construction.
type Config struct {
	MinBounces                uint8
	MaxBounces                uint8
	MinTerminationProbability float64
	RouletteThreshold         float64
}

// Validate reports the first invalid field: construction fails rather
// than silently clamping.
func (c Config) Validate() error {
	if c.MinBounces > c.MaxBounces {
		return fmt.Errorf("integrator: min_bounces (%d) exceeds max_bounces (%d)", c.MinBounces, c.MaxBounces)
	}
	if math.IsNaN(c.MinTerminationProbability) || c.MinTerminationProbability < 0 || c.MinTerminationProbability > 1 {
		return fmt.Errorf("integrator: min_termination_probability %v out of [0,1]", c.MinTerminationProbability)
	}
	if math.IsNaN(c.RouletteThreshold) || math.IsInf(c.RouletteThreshold, 0) || c.RouletteThreshold < 0 {
		return fmt.Errorf("integrator: roulette_threshold %v must be finite and non-negative", c.RouletteThreshold)
	}
	return nil
}

// PathTracer is the transport kernel: one instance per render worker,
// reused across every ray it traces. Its per-bounce arrays are sized once
// at construction (MaxBounces+1 entries) so tracing a path never
// allocates.
type PathTracer struct {
	Config Config

	spectra      []spectrum.Spectrum
	reflectors   []spectrum.Reflector
	attenuations []float64
}

// New validates cfg and returns a PathTracer with its per-bounce arrays
// pre-sized.
func New(cfg Config) (*PathTracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := int(cfg.MaxBounces) + 1
	return &PathTracer{
		Config:       cfg,
		spectra:      make([]spectrum.Spectrum, n),
		reflectors:   make([]spectrum.Reflector, n),
		attenuations: make([]float64, n),
	}, nil
}

// buildHitContext assembles the shading.HitContext for a confirmed hit:
// geometric normal, the hit's surface parameterisation, texture
// coordinates, and the normal-map-perturbed shading normal (computed
// last, so normal maps can read the texture-coordinate payload). When
// the ray carries differentials (primary camera rays do), the UV
// screen-space derivatives are computed by re-tracing the offset rays
// against the hit shape and finite-differencing the resulting UVs;
// secondary bounces carry no differentials, so their lookups fall back
// to the finest mip level.
func buildHitContext(hit *shape.Hit, ray core.RayDifferential, texAlloc *shading.TextureCoordinateAllocator) shading.HitContext {
	n := hit.Shape.Normal(hit.Point, hit.Face)
	hctx := shading.HitContext{
		Point:           hit.Point,
		GeometricNormal: n,
		ShadingNormal:   n,
		UV:              hit.UV,
		Wo:              ray.Direction.Negate().Normalize(),
	}
	if ray.HasDifferentials {
		var alloc shape.ShapeHitAllocator
		if hx := hit.Shape.Trace(core.NewRay(ray.RxOrigin, ray.RxDirection), &alloc); hx != nil {
			hctx.DuDx = hx.UV.X - hit.UV.X
			hctx.DvDx = hx.UV.Y - hit.UV.Y
		}
		if hy := hit.Shape.Trace(core.NewRay(ray.RyOrigin, ray.RyDirection), &alloc); hy != nil {
			hctx.DuDy = hy.UV.X - hit.UV.X
			hctx.DvDy = hy.UV.Y - hit.UV.Y
		}
	}
	if tcm := hit.Shape.TexCoordMap(hit.Face); tcm != nil {
		hctx.TexCoord = tcm.Compute(hctx, texAlloc)
	}
	if nm := hit.Shape.NormalMap(hit.Face); nm != nil {
		hctx.ShadingNormal = nm.Perturb(hctx)
	}
	return hctx
}

// Li traces a single camera path through scene and returns its
// estimated incident radiance. tester
// and the allocators/compositors are owned by the calling worker and
// reused ray-to-ray; Li resets tester itself once per bounce.
func (pt *PathTracer) Li(
	scene *bvh.Scene,
	tester *bvh.HitTester,
	lightSampler shading.LightSampler,
	vis shading.VisibilityTester,
	rng shading.RNG,
	sc *spectrum.SpectrumCompositor,
	rc *spectrum.ReflectorCompositor,
	bsdfAlloc *shading.BsdfAllocator,
	texAlloc *shading.TextureCoordinateAllocator,
	ray core.RayDifferential,
) spectrum.Spectrum {
	throughput := 1.0
	addEmissions := true
	currentRay := ray
	lastBounce := 0

	maxBounce := int(pt.Config.MaxBounces)
	for bounce := 0; ; bounce++ {
		lastBounce = bounce
		tester.Reset()
		hit := scene.Trace(currentRay.Ray, tester)

		if hit == nil {
			if addEmissions && scene.EnvironmentalLight != nil {
				radiance, _ := scene.EnvironmentalLight.ComputeEmissiveWithPdf(currentRay.Ray, vis, sc)
				pt.spectra[bounce] = radiance
			} else {
				pt.spectra[bounce] = nil
			}
			break
		}

		hctx := buildHitContext(hit, currentRay, texAlloc)

		if emissive := hit.Shape.Emissive(hit.Face); emissive != nil && addEmissions {
			pt.spectra[bounce] = emissive.Emit(hctx)
		} else {
			pt.spectra[bounce] = nil
		}
		addEmissions = false

		mat := hit.Shape.Material(hit.Face)
		if mat == nil {
			break
		}
		bsdf := mat.Sample(hctx, bsdfAlloc)

		var direct spectrum.Spectrum
		for _, ls := range lightSampler.Sample(hctx.Point, rng) {
			if ls.Pdf <= 0 {
				continue
			}
			contribution := SampleDirectLighting(ls.Light, bsdf, hctx, vis, rng, sc, rc)
			direct = sc.AttenuatedAdd(direct, contribution, 1/ls.Pdf)
		}
		pt.spectra[bounce] = sc.Add(pt.spectra[bounce], direct)

		if bounce == maxBounce {
			break
		}

		sampledRefl, sampleType, wNext, pdf := bsdf.Sample(hctx.Wo, hctx.GeometricNormal, hctx.ShadingNormal, rng, rc)
		if pdf == 0 || sampledRefl == nil {
			break
		}

		throughput *= sampledRefl.Albedo()

		var attenuation float64
		if !math.IsInf(pdf, 1) {
			cos := math.Abs(hctx.ShadingNormal.Dot(wNext))
			attenuation = cos / pdf
			throughput *= attenuation
		} else {
			attenuation = 1
		}

		if bounce > int(pt.Config.MinBounces) && throughput < pt.Config.RouletteThreshold {
			u := rng.NextFloat(0, 1)
			cutoff := math.Max(pt.Config.MinTerminationProbability, 1-throughput)
			if u < cutoff {
				break
			}
			attenuation /= 1 - cutoff
			throughput /= 1 - cutoff
		}

		if sampleType.IsSpecular() {
			addEmissions = true
		}

		pt.reflectors[bounce] = sampledRefl
		pt.attenuations[bounce] = attenuation
		currentRay = core.NewRayDifferential(core.NewRay(hctx.Point, wNext))
	}

	for b := lastBounce; b >= 1; b-- {
		term := sc.AttenuateReflection(pt.spectra[b], pt.reflectors[b-1], pt.attenuations[b-1])
		pt.spectra[b-1] = sc.Add(pt.spectra[b-1], term)
	}
	return pt.spectra[0]
}
