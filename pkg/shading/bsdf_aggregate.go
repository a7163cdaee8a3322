package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// Aggregate holds n child BSDFs: sampling picks one
// uniformly, then folds in the other children's reflectance at the sampled
// direction; if the chosen sample is specular and at least one other lobe
// is non-specular, the combined pdf becomes 1+Σpdfs and the specular
// reflector is divided by the |N·ωo| falloff to cancel the caller's
// forthcoming multiplication.
type Aggregate struct {
	Children []BSDF
}

func NewAggregate(children []BSDF) BSDF {
	filtered := make([]BSDF, 0, len(children))
	for _, c := range children {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &Aggregate{Children: filtered}
}

func (ag *Aggregate) Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, SampleType, core.Vec3, float64) {
	idx := rng.NextIndex(len(ag.Children))
	reflector, sampleType, wo, pdf := ag.Children[idx].Sample(wi, nGeom, nShading, rng, rc)

	var specular bool
	var matching int
	if pdf <= 0 {
		specular, matching = false, 0
	} else {
		specular, matching = math.IsInf(pdf, 1), 1
	}

	for i, child := range ag.Children {
		if i == idx {
			continue
		}
		bsdfReflector, bsdfPdf := child.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
		if bsdfPdf <= 0 {
			continue
		}
		if specular {
			falloff := math.Abs(nShading.Dot(wo))
			if falloff <= 0 {
				return nil, sampleType, wo, 0
			}
			reflector = rc.Attenuate(reflector, 1/falloff)
			pdf = 1 + bsdfPdf
			specular = false
		} else {
			pdf += bsdfPdf
		}
		matching++
		reflector = rc.Add(reflector, bsdfReflector)
	}

	if matching > 1 {
		pdf /= float64(matching)
	}
	return reflector, sampleType, wo, pdf
}

func (ag *Aggregate) ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector {
	r, _ := ag.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
	return r
}

func (ag *Aggregate) ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64) {
	var reflector spectrum.Reflector
	var pdf float64
	var matching int
	for _, child := range ag.Children {
		childReflector, childPdf := child.ComputeDiffuseWithPdf(wi, nGeom, nShading, wo, rc)
		if childPdf <= 0 {
			continue
		}
		matching++
		reflector = rc.Add(reflector, childReflector)
		pdf += childPdf
	}
	if matching > 1 {
		pdf /= float64(matching)
	}
	return reflector, pdf
}
