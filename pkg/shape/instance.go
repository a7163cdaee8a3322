package shape

import (
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
)

// Instance wraps a shape with a model-to-world affine transform. When
// Premultiplied is false, Trace maps the ray into
// model space, asks the inner shape, and maps the resulting hits back.
// When Premultiplied is true, the transform has already been folded into
// the inner shape's own geometry at build time (e.g. a pre-transformed
// triangle mesh) and the ray passes through unchanged; an aggregate (BVH)
// shape never carries a premultiplied Instance.
//
// Ray parameterisation is preserved across the transform by not
// normalizing the transformed direction (core.Matrix4x4.TransformRay
// already does this): a hit distance t computed in model space names the
// same world-space point under Origin+t*Direction in both spaces, so
// Distance needs no rescaling on the way back.
type Instance struct {
	Inner         Shape
	ModelToWorld  core.Matrix4x4
	Premultiplied bool
}

// NewInstance wraps inner with modelToWorld. premultiplied must be false
// unless inner's own geometry has already been baked into world space.
func NewInstance(inner Shape, modelToWorld core.Matrix4x4, premultiplied bool) *Instance {
	return &Instance{Inner: inner, ModelToWorld: modelToWorld, Premultiplied: premultiplied}
}

func (i *Instance) Trace(ray core.Ray, alloc *ShapeHitAllocator) *Hit {
	if i.Premultiplied {
		return i.Inner.Trace(ray, alloc)
	}
	inv := i.ModelToWorld.Inverse()
	modelRay := inv.TransformRay(ray)
	hits := i.Inner.Trace(modelRay, alloc)
	for h := hits; h != nil; h = h.Next {
		h.Point = i.ModelToWorld.TransformPoint(h.Point)
		h.Shape = i
	}
	return hits
}

func (i *Instance) Bounds(modelToWorld core.Matrix4x4) core.AABB {
	if i.Premultiplied {
		return i.Inner.Bounds(modelToWorld)
	}
	return i.Inner.Bounds(modelToWorld.Mul(i.ModelToWorld))
}

func (i *Instance) Normal(point core.Vec3, face int) core.Vec3 {
	if i.Premultiplied {
		return i.Inner.Normal(point, face)
	}
	modelPoint := i.ModelToWorld.Inverse().TransformPoint(point)
	n := i.Inner.Normal(modelPoint, face)
	return i.ModelToWorld.TransformNormal(n)
}

func (i *Instance) Material(face int) shading.Material        { return i.Inner.Material(face) }
func (i *Instance) Emissive(face int) shading.EmissiveMaterial { return i.Inner.Emissive(face) }
func (i *Instance) NormalMap(face int) shading.NormalMap       { return i.Inner.NormalMap(face) }
func (i *Instance) TexCoordMap(face int) shading.TexCoordMap   { return i.Inner.TexCoordMap(face) }

func (i *Instance) SampleFace(face int, u, v float64) (point, normal core.Vec3) {
	p, n := i.Inner.SampleFace(face, u, v)
	if i.Premultiplied {
		return p, n
	}
	return i.ModelToWorld.TransformPoint(p), i.ModelToWorld.TransformNormal(n)
}

func (i *Instance) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 {
	if i.Premultiplied {
		return i.Inner.PDFSolidAngle(ray, distance, face)
	}
	modelRay := i.ModelToWorld.Inverse().TransformRay(ray)
	return i.Inner.PDFSolidAngle(modelRay, distance, face)
}
