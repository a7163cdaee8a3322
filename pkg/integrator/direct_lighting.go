// Package integrator implements the multiple-importance-sampled
// direct-lighting estimator and the path-tracing transport kernel. The
// tracer is iterative with per-bounce arrays sized at construction, so a
// worker's path state never allocates or recurses during rendering.
package integrator

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/spectrum"
)

// SampleDirectLighting evaluates a single (light, bsdf, hit) triple by the
// power-heuristic MIS combination of a light-sampled estimator and a
// BSDF-sampled estimator, summed through the spectrum compositor.
func SampleDirectLighting(
	light shading.Light,
	bsdf shading.BSDF,
	hctx shading.HitContext,
	vis shading.VisibilityTester,
	rng shading.RNG,
	sc *spectrum.SpectrumCompositor,
	rc *spectrum.ReflectorCompositor,
) spectrum.Spectrum {
	nShading := hctx.ShadingNormal

	// Step 1: light sample. A delta light has no BSDF-sampled counterpart
	// to weight against, so its diffuse reflectance is applied directly.
	lightRadiance, wLight, pLight := light.Sample(hctx.Point, vis, rng, sc)
	if lightRadiance == nil || pLight <= 0 {
		return nil
	}
	if math.IsInf(pLight, 1) {
		refl := bsdf.ComputeDiffuse(hctx.Wo, hctx.GeometricNormal, nShading, wLight, rc)
		cos := math.Abs(nShading.Dot(wLight))
		return sc.AttenuateReflection(lightRadiance, refl, cos)
	}

	// Step 3: the light-sampled estimator, weighted by the BSDF's pdf for
	// the same direction.
	var lightTerm spectrum.Spectrum
	if bsdfAtLight, pBsdfAtLight := bsdf.ComputeDiffuseWithPdf(hctx.Wo, hctx.GeometricNormal, nShading, wLight, rc); pBsdfAtLight > 0 {
		cos := math.Abs(nShading.Dot(wLight))
		weight := shading.PowerHeuristic(pLight, pBsdfAtLight)
		lightTerm = sc.AttenuateReflection(lightRadiance, bsdfAtLight, weight*cos/pLight)
	}

	// Step 2 & 4: the BSDF-sampled estimator, weighted by the light's pdf
	// for the direction the BSDF happened to sample.
	var bsdfTerm spectrum.Spectrum
	sampledRefl, _, wBsdf, pBsdf := bsdf.Sample(hctx.Wo, hctx.GeometricNormal, nShading, rng, rc)
	if pBsdf > 0 && sampledRefl != nil {
		ray := core.NewRay(hctx.Point, wBsdf)
		radianceAtBsdf, pLightAtBsdf := light.ComputeEmissiveWithPdf(ray, vis, sc)
		if radianceAtBsdf != nil && pLightAtBsdf > 0 {
			cos := math.Abs(nShading.Dot(wBsdf))
			weight := shading.PowerHeuristic(pBsdf, pLightAtBsdf)
			bsdfTerm = sc.AttenuateReflection(radianceAtBsdf, sampledRefl, weight*cos/pBsdf)
		}
	}

	return sc.Add(lightTerm, bsdfTerm)
}
