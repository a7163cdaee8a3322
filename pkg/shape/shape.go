// Package shape implements the polymorphic shape layer: hit-testable
// surfaces, per-shape instancing transforms, constructive solid geometry
// and watertight triangle meshes.
package shape

import (
	"github.com/df07/specterray/pkg/arena"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/extrapolator"
	"github.com/df07/specterray/pkg/shading"
)

// Face identifies which side of a surface a Hit landed on. By convention
// 0 = front (the ray enters the solid here), 1 = back (the ray exits
// it). Declared as plain int, not a defined type, so the emitter-capable
// shapes satisfy shading.EmitterGeometry structurally.
const (
	FaceFront = 0
	FaceBack  = 1
)

// Hit records an intersection: the shape hit, which face, the distance
// along the ray's own parameterisation, and the model-space hit point. Hits from one
// Trace form a singly-linked list sorted by ascending Distance, allocated
// from a ShapeHitAllocator so a full trace produces no garbage the caller
// must free by hand.
type Hit struct {
	Shape    Shape
	Face     int
	Distance float64
	Point    core.Vec3
	UV       core.Vec2 // surface parameterisation at the hit point
	Next     *Hit
}

// ShapeHitAllocator is the scoped allocator for Hit records produced
// during a single Shape.Trace call, reset once per trace by its
// owner.
type ShapeHitAllocator struct {
	arena arena.Arena[*Hit]
}

// New records hit as owned by this allocator and returns it.
func (a *ShapeHitAllocator) New(hit *Hit) *Hit { return a.arena.New(hit) }

// Reset invalidates every Hit produced since the last reset.
func (a *ShapeHitAllocator) Reset() { a.arena.Reset() }

// Shape is the polymorphic surface capability set.
type Shape interface {
	// Trace intersects ray against the shape, returning a list of hits
	// sorted by ascending distance (nil for no intersection), allocated
	// from alloc.
	Trace(ray core.Ray, alloc *ShapeHitAllocator) *Hit

	// Bounds returns a box containing every point the shape could return
	// a hit at when traced through a ray consistent with modelToWorld.
	Bounds(modelToWorld core.Matrix4x4) core.AABB

	// Normal returns the (model-space, unit) geometric normal at point on
	// the given face.
	Normal(point core.Vec3, face int) core.Vec3

	// Material returns the shading material for face, or nil if the
	// shape is purely a CSG/aggregate combinator with no surface of its
	// own on that face.
	Material(face int) shading.Material

	// Emissive returns the emissive material for face, or nil.
	Emissive(face int) shading.EmissiveMaterial

	// SampleFace draws a uniformly-distributed point (and its normal) on
	// face, for area-light sampling. u, v are independent draws in
	// [0,1). Signature matches shading.EmitterGeometry.
	SampleFace(face int, u, v float64) (point, normal core.Vec3)

	// PDFSolidAngle returns the solid-angle pdf of a ray that traveled
	// distance to hit face. Signature matches shading.EmitterGeometry.
	PDFSolidAngle(ray core.Ray, distance float64, face int) float64

	// NormalMap returns the normal map bound to face, or nil.
	NormalMap(face int) shading.NormalMap

	// TexCoordMap returns the texture-coordinate map bound to face, or
	// nil (the consumer then sees shading.TexCoordNone).
	TexCoordMap(face int) shading.TexCoordMap
}

// ColorCacher is implemented by shapes holding Color3-valued state (e.g. a
// texture with a palette of discrete colours) that should be warmed into
// the colour extrapolator before bulk tracing begins, so steady-state
// lookups stay on the cache's read-only path. Not
// every shape needs it, so it is a separate, optional interface rather
// than a method every Shape must implement.
type ColorCacher interface {
	CacheColors(cache *extrapolator.Cache)
}

// firstFaceHit returns the closest intersection of ray with s that lands
// on face past a small origin epsilon, shared by the emitter-capable
// shapes' IntersectFace implementations.
func firstFaceHit(s Shape, ray core.Ray, face int) (float64, bool) {
	var alloc ShapeHitAllocator
	for h := s.Trace(ray, &alloc); h != nil; h = h.Next {
		if h.Face == face && h.Distance > 1e-4 {
			return h.Distance, true
		}
	}
	return 0, false
}

// sortedInsert inserts hit into the list headed by head, keeping the list
// sorted by ascending Distance, and returns the new head. Sphere.Trace uses
// it to order its entry and exit hits; CSG builds its list by its own
// two-pointer merge.
func sortedInsert(head *Hit, hit *Hit) *Hit {
	if head == nil || hit.Distance < head.Distance {
		hit.Next = head
		return hit
	}
	cur := head
	for cur.Next != nil && cur.Next.Distance <= hit.Distance {
		cur = cur.Next
	}
	hit.Next = cur.Next
	cur.Next = hit
	return head
}
