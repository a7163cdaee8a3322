// Package shading implements the shading graph: BSDFs, materials,
// lights, normal maps and texture-coordinate maps, all speaking the
// spectral value model and the MIS-aware sampling contracts the
// transport kernel relies on.
package shading

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/spectrum"
)

// SampleType classifies a BSDF sample: reflection or transmission,
// crossed with specular or diffuse.
type SampleType int

const (
	Reflection   SampleType = 0
	Transmission SampleType = 1 << 0
	Specular     SampleType = 1 << 1
)

// IsSpecular reports whether a sample type carries the specular bit.
func (t SampleType) IsSpecular() bool { return t&Specular != 0 }

// BSDF is the capability set from sampling, and evaluating the diffuse
// (non-delta) lobe either alone or paired with its pdf.
type BSDF interface {
	Sample(wi core.Vec3, nGeom, nShading core.Vec3, rng RNG, rc *spectrum.ReflectorCompositor) (reflector spectrum.Reflector, sampleType SampleType, wo core.Vec3, pdf float64)
	ComputeDiffuse(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) spectrum.Reflector
	ComputeDiffuseWithPdf(wi, nGeom, nShading, wo core.Vec3, rc *spectrum.ReflectorCompositor) (spectrum.Reflector, float64)
}

// RNG is the capability contract from independent, uniformly
// distributed draws.
type RNG interface {
	NextFloat(low, high float64) float64
	NextIndex(n int) int
}

// HitContext carries everything a Material needs to build a BSDF at a
// surface point, and everything a Light needs to shade a point it
// illuminates: position, geometric and shading normals, and a
// texture-coordinate payload.
type HitContext struct {
	Point           core.Vec3
	GeometricNormal core.Vec3
	ShadingNormal   core.Vec3
	UV              core.Vec2
	TexCoord        TexCoord
	Wo              core.Vec3 // direction back toward the ray origin

	// Screen-space UV derivatives for mipmap level selection, computed
	// at primary hits by finite-differencing the camera ray's offset
	// rays against the hit shape; zero when the originating ray carried
	// no differentials (secondary bounces, shadow rays), which makes
	// filtered lookups fall back to the finest level.
	DuDx, DvDx, DuDy, DvDy float64
}

// Material builds a BSDF for a hit. The BSDF is allocated from alloc
// and scoped to the shading call.
type Material interface {
	Sample(hctx HitContext, alloc *BsdfAllocator) BSDF
}

// EmissiveMaterial is the capability for shapes whose material also emits
// light directly (as opposed to only being reachable through a Light in the
// scene's light list).
type EmissiveMaterial interface {
	Emit(hctx HitContext) spectrum.Spectrum
}

// VisibilityTester is the capability a Light uses to confirm an unoccluded
// path to the point it's illuminating; it is implemented by the renderer
// (pkg/render), which owns the scene trace.
type VisibilityTester interface {
	Unoccluded(from, to core.Vec3) bool
}

// Light is the light capability: sample an incident direction toward the
// light, or evaluate its emission (and pdf) along an already-chosen
// direction (used by the BSDF-sampling branch of MIS).
type Light interface {
	Sample(point core.Vec3, vis VisibilityTester, rng RNG, sc *spectrum.SpectrumCompositor) (radiance spectrum.Spectrum, wi core.Vec3, pdf float64)
	ComputeEmissiveWithPdf(ray core.Ray, vis VisibilityTester, sc *spectrum.SpectrumCompositor) (radiance spectrum.Spectrum, pdf float64)
	IsDelta() bool
}

// NormalMap perturbs the geometric shading normal at a hit.
type NormalMap interface {
	Perturb(hctx HitContext) core.Vec3
}

// TexCoordKind tags the payload a shape emits for its texture
// coordinate: a tagged sum type, not an opaque pointer, so consumers
// pattern-match instead of casting.
type TexCoordKind int

const (
	TexCoordNone TexCoordKind = iota
	TexCoordUV
	texCoordReserved // extension point; never produced by the built-in shapes
)

// TexCoord is the sum-type payload a Shape's texture-coord-map capability
// emits; BSDFs/normal maps that care about a specific kind type-switch on
// Kind before reading U/V.
type TexCoord struct {
	Kind TexCoordKind
	U, V float64
}

// TexCoordMap produces a TexCoord payload for a hit, allocated from alloc.
type TexCoordMap interface {
	Compute(hctx HitContext, alloc *TextureCoordinateAllocator) TexCoord
}

// posInf is the Dirac-delta pdf marker for specular lobes.
var posInf = math.Inf(1)

// PowerHeuristic implements the MIS weight with exponent 2.
func PowerHeuristic(sampledPdf, otherPdf float64) float64 {
	if math.IsInf(sampledPdf, 1) {
		return 1
	}
	a := sampledPdf * sampledPdf
	b := otherPdf * otherPdf
	if a+b == 0 {
		return 0
	}
	return a / (a + b)
}
