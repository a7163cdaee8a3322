package bvh

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
	"github.com/df07/specterray/pkg/shape"
)

// HitTester owns the per-ray ShapeHitAllocator and tracks the closest hit
// confirmed so far, letting TraceClosest shrink the box-test interval as
// it goes. One HitTester is reused across every ray traced by a
// single render worker; Reset clears it between rays.
type HitTester struct {
	Alloc   shape.ShapeHitAllocator
	tMin    float64
	closest *shape.Hit
}

// NewHitTester returns a HitTester with the default minimum hit distance
// used to reject self-intersection at a ray's own origin.
func NewHitTester() *HitTester {
	return &HitTester{tMin: 1e-4}
}

// Reset clears the allocator and the closest-hit state for a new ray.
func (t *HitTester) Reset() {
	t.Alloc.Reset()
	t.closest = nil
}

// TMax is the farthest distance still worth a box test: infinity until a
// hit has been confirmed, after which it is that hit's distance.
func (t *HitTester) TMax() float64 {
	if t.closest == nil {
		return math.Inf(1)
	}
	return t.closest.Distance
}

// Consider folds every hit in a freshly traced list into the closest-hit
// state, discarding anything nearer than tMin (self-intersection) or
// farther than the current closest.
func (t *HitTester) Consider(hits *shape.Hit) {
	for h := hits; h != nil; h = h.Next {
		if h.Distance < t.tMin {
			continue
		}
		if t.closest == nil || h.Distance < t.closest.Distance {
			t.closest = h
		}
	}
}

// Closest returns the nearest hit found since the last Reset, or nil.
func (t *HitTester) Closest() *shape.Hit {
	return t.closest
}

// DispatchKind records, for documentation/instrumentation only, what kind
// of traversal a Scene needs; every kind runs through the same traversal
// and leans on shape.Instance for any space transform, so this is purely
// descriptive (the three named dispatch variants affect overhead, not
// behaviour, and in this design that overhead difference lives entirely
// inside shape.Instance.Trace rather than in a separate BVH code path).
type DispatchKind int

const (
	WorldSpace DispatchKind = iota
	TransformOnly
	Full
)

// Scene is the top-level render target: a built BVH over every shape plus
// an optional environmental light queried when a ray escapes the scene
// entirely.
type Scene struct {
	BVH                *BVH
	EnvironmentalLight  shading.Light
	Dispatch            DispatchKind
	WorldCenter         core.Vec3
	WorldRadius         float64
}

// NewScene builds a BVH over shapes and computes the finite-world bounds
// infinite lights need.
func NewScene(shapes []shape.Shape, env shading.Light) *Scene {
	s := &Scene{BVH: Build(shapes), EnvironmentalLight: env, Dispatch: classifyDispatch(shapes)}
	s.WorldCenter, s.WorldRadius = finiteWorldBounds(s.BVH)
	return s
}

func classifyDispatch(shapes []shape.Shape) DispatchKind {
	sawInstance, sawPremultiplied := false, false
	for _, s := range shapes {
		if inst, ok := s.(*shape.Instance); ok {
			if inst.Premultiplied {
				sawPremultiplied = true
			} else {
				sawInstance = true
			}
		}
	}
	switch {
	case sawPremultiplied:
		return Full
	case sawInstance:
		return TransformOnly
	default:
		return WorldSpace
	}
}

func finiteWorldBounds(b *BVH) (core.Vec3, float64) {
	if len(b.Nodes) == 0 {
		return core.Vec3{}, 1.0
	}
	bounds := b.Nodes[0].Bounds
	center := bounds.Center()
	radius := bounds.Size().Length() * 0.5
	if radius <= 0 {
		radius = 1.0
	}
	return center, radius
}

// Trace finds the closest hit along ray, if any, using tester's allocator
// and closest-hit tracking. Returns the same value as tester.Closest()
// for convenience.
func (s *Scene) Trace(ray core.Ray, tester *HitTester) *shape.Hit {
	s.BVH.TraceClosest(ray, tester)
	return tester.Closest()
}
