package bvh

import (
	"math"
	"testing"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shape"
)

// gridSpheres lays out a deterministic cloud of spheres, spread enough to
// force a multi-level tree.
func gridSpheres(n int) []shape.Shape {
	shapes := make([]shape.Shape, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i%7)*3 - 9
		y := float64((i/7)%5)*2.5 - 5
		z := float64(i/35)*4 - 6
		r := 0.3 + 0.05*float64(i%4)
		shapes = append(shapes, shape.NewSphere(core.NewVec3(x, y, z), r, nil))
	}
	return shapes
}

// linearClosest is the reference oracle: trace every shape directly and
// keep the nearest hit past tMin.
func linearClosest(shapes []shape.Shape, ray core.Ray, tMin float64) *shape.Hit {
	var alloc shape.ShapeHitAllocator
	var best *shape.Hit
	for _, s := range shapes {
		for h := s.Trace(ray, &alloc); h != nil; h = h.Next {
			if h.Distance < tMin {
				continue
			}
			if best == nil || h.Distance < best.Distance {
				best = h
			}
		}
	}
	return best
}

// TestBVHCompleteness checks the BVH-completeness property: every hit a
// linear scan finds is found by Scene.Trace at the same distance, and no
// extra hit is introduced.
func TestBVHCompleteness(t *testing.T) {
	shapes := gridSpheres(70)
	scene := NewScene(shapes, nil)
	tester := NewHitTester()

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 0, 20), core.NewVec3(0, 0, -1)),
		core.NewRay(core.NewVec3(-20, -5, -6), core.NewVec3(1, 0.1, 0.05).Normalize()),
		core.NewRay(core.NewVec3(5, 20, 0), core.NewVec3(-0.2, -1, -0.1).Normalize()),
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1).Normalize()),
		core.NewRay(core.NewVec3(-9, -5, -6), core.NewVec3(0.7, 0.5, 0.5).Normalize()),
		core.NewRay(core.NewVec3(0, 0, 20), core.NewVec3(0, 1, 0)), // escapes
	}
	for i, ray := range rays {
		tester.Reset()
		got := scene.Trace(ray, tester)
		want := linearClosest(shapes, ray, 1e-4)
		if (got == nil) != (want == nil) {
			t.Fatalf("ray %d: BVH hit=%v, linear scan hit=%v", i, got != nil, want != nil)
		}
		if got == nil {
			continue
		}
		if math.Abs(got.Distance-want.Distance) > 1e-9 {
			t.Fatalf("ray %d: BVH distance %v != linear scan distance %v", i, got.Distance, want.Distance)
		}
		if got.Shape != want.Shape {
			t.Fatalf("ray %d: BVH and linear scan disagree on the closest shape", i)
		}
	}
}

// TestBVHNodeInvariants checks the packed-record invariants over a
// built tree: a leaf's range stays inside the flat shape array, an
// interior node's second-child index stays inside the node array, and the
// whole shape list is covered exactly once by the leaves.
func TestBVHNodeInvariants(t *testing.T) {
	b := Build(gridSpheres(70))
	if len(b.Nodes) == 0 {
		t.Fatal("expected a non-empty tree")
	}

	covered := 0
	for i, n := range b.Nodes {
		if n.NumShapes > 0 {
			end := int(n.Offset) + int(n.NumShapes)
			if end > len(b.Shapes) {
				t.Fatalf("node %d: leaf range [%d, %d) exceeds %d shapes", i, n.Offset, end, len(b.Shapes))
			}
			covered += int(n.NumShapes)
			continue
		}
		if int(n.Offset) <= i || int(n.Offset) >= len(b.Nodes) {
			t.Fatalf("node %d: interior second-child index %d out of range", i, n.Offset)
		}
		if n.Axis > 2 {
			t.Fatalf("node %d: split axis %d out of range", i, n.Axis)
		}
	}
	if covered != len(b.Shapes) {
		t.Fatalf("leaves cover %d shapes, flat array holds %d", covered, len(b.Shapes))
	}
}

// TestBVHAsAggregateShape exercises the aggregate-shape path: a BVH
// traced through the Shape interface must return the full sorted hit list
// its children produce.
func TestBVHAsAggregateShape(t *testing.T) {
	a := shape.NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	b := shape.NewSphere(core.NewVec3(0, 0, -5), 1, nil)
	agg := Build([]shape.Shape{a, b})

	var alloc shape.ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1))
	count := 0
	last := math.Inf(-1)
	for h := agg.Trace(ray, &alloc); h != nil; h = h.Next {
		if h.Distance < last {
			t.Fatal("aggregate hit list must be sorted ascending by distance")
		}
		last = h.Distance
		count++
	}
	if count != 4 {
		t.Fatalf("expected 4 hits through two spheres, got %d", count)
	}
}

func TestEmptySceneTraceReturnsNoIntersection(t *testing.T) {
	scene := NewScene(nil, nil)
	tester := NewHitTester()
	if hit := scene.Trace(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), tester); hit != nil {
		t.Fatal("empty scene must report no intersection")
	}
}

// TestHitTesterShrinksInterval checks the closest-hit bookkeeping that
// lets traversal short-circuit far boxes.
func TestHitTesterShrinksInterval(t *testing.T) {
	tester := NewHitTester()
	if !math.IsInf(tester.TMax(), 1) {
		t.Fatal("a fresh tester must accept any distance")
	}
	near := &shape.Hit{Distance: 2}
	far := &shape.Hit{Distance: 7}
	far.Next = nil
	near.Next = far
	tester.Consider(near)
	if tester.TMax() != 2 {
		t.Fatalf("TMax should shrink to the closest confirmed hit, got %v", tester.TMax())
	}
	tester.Consider(&shape.Hit{Distance: 1e-9})
	if tester.TMax() != 2 {
		t.Fatal("hits below the self-intersection threshold must be ignored")
	}
}
