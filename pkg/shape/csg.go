package shape

import (
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
)

// CSGOp selects which constructive-solid-geometry combination a CSG node
// performs.
type CSGOp int

const (
	Union CSGOp = iota
	Intersection
	Difference // A - B
)

// CSG combines two child shapes by a two-pointer merge of their sorted hit
// lists, maintaining inside-A/inside-B booleans that toggle at each hit.
// A CSG node carries no material of its own: hits keep referencing
// whichever child shape produced them, so downstream shading dispatches to
// that child's Material/Emissive/NormalMap/TexCoordMap.
type CSG struct {
	Op   CSGOp
	A, B Shape
}

// NewCSG builds a CSG combinator node.
func NewCSG(op CSGOp, a, b Shape) *CSG {
	return &CSG{Op: op, A: a, B: b}
}

// membership evaluates whether a point with the given inside-A/inside-B
// state lies in the combined solid. The usual per-source emission table
// (emit from A when not inside B, and so on) is the single-toggle
// specialization of emitting exactly when an event changes membership;
// computing membership directly instead of applying the table literally
// is what makes the tie case (both lists advance together) come out right
// even when the tie is a true coincidence, such as difference(A, A): a
// coincident entry/exit toggles both flags but never changes membership,
// so correctly nothing is emitted there.
func membership(op CSGOp, insideA, insideB bool) bool {
	switch op {
	case Union:
		return insideA || insideB
	case Intersection:
		return insideA && insideB
	default: // Difference
		return insideA && !insideB
	}
}

func (c *CSG) Trace(ray core.Ray, alloc *ShapeHitAllocator) *Hit {
	a := c.A.Trace(ray, alloc)
	b := c.B.Trace(ray, alloc)

	insideA, insideB := false, false
	var head, tail *Hit
	emit := func(h *Hit) {
		h.Next = nil
		if head == nil {
			head, tail = h, h
		} else {
			tail.Next = h
			tail = h
		}
	}

	for a != nil || b != nil {
		before := membership(c.Op, insideA, insideB)

		var fromA, fromB *Hit
		switch {
		case b == nil || (a != nil && a.Distance < b.Distance):
			fromA = a
			insideA = !insideA
			a = a.Next
		case a == nil || b.Distance < a.Distance:
			fromB = b
			insideB = !insideB
			b = b.Next
		default: // tie: both lists advance together
			fromA, fromB = a, b
			insideA = !insideA
			insideB = !insideB
			a, b = a.Next, b.Next
		}

		if membership(c.Op, insideA, insideB) == before {
			continue // no net transition: e.g. a coincident tie, or B moving within A's interior for Union
		}
		if fromA != nil {
			emit(fromA)
		} else {
			emit(c.flipIfDifference(fromB))
		}
	}
	return head
}

// flipIfDifference inverts the face of a B-originated hit surviving a
// Difference op: the boundary of the subtracted solid B faces into the
// result, the opposite of how B reports it as a standalone shape.
func (c *CSG) flipIfDifference(h *Hit) *Hit {
	if c.Op != Difference {
		return h
	}
	flipped := *h
	if flipped.Face == FaceFront {
		flipped.Face = FaceBack
	} else {
		flipped.Face = FaceFront
	}
	return &flipped
}

func (c *CSG) Bounds(modelToWorld core.Matrix4x4) core.AABB {
	ab := c.A.Bounds(modelToWorld)
	bb := c.B.Bounds(modelToWorld)
	switch c.Op {
	case Intersection:
		return ab.Intersect(bb)
	case Difference:
		return ab
	default:
		return ab.Union(bb)
	}
}

// Normal, Material, Emissive, NormalMap and TexCoordMap are never called
// directly on a CSG node: every Hit it emits still references the child
// shape that produced it, so dispatch happens there. These are provided
// only so *CSG satisfies Shape when used as, e.g., a BVH leaf entry that
// is never itself the Hit.Shape.
func (c *CSG) Normal(point core.Vec3, face int) core.Vec3         { return core.Vec3{} }
func (c *CSG) Material(face int) shading.Material                { return nil }
func (c *CSG) Emissive(face int) shading.EmissiveMaterial         { return nil }
func (c *CSG) NormalMap(face int) shading.NormalMap               { return nil }
func (c *CSG) TexCoordMap(face int) shading.TexCoordMap           { return nil }
func (c *CSG) SampleFace(face int, u, v float64) (core.Vec3, core.Vec3) {
	return core.Vec3{}, core.Vec3{}
}
func (c *CSG) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 { return 0 }
