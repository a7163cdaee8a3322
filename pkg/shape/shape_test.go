package shape

import (
	"math"
	"testing"

	"github.com/df07/specterray/pkg/core"
)

func countHits(h *Hit) int {
	n := 0
	for ; h != nil; h = h.Next {
		n++
	}
	return n
}

func TestSphereTraceFrontAndBack(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1))
	hits := s.Trace(ray, &alloc)
	if countHits(hits) != 2 {
		t.Fatalf("expected 2 hits (entry+exit), got %d", countHits(hits))
	}
	if hits.Face != FaceFront || hits.Next.Face != FaceBack {
		t.Fatalf("expected front then back face, got %v then %v", hits.Face, hits.Next.Face)
	}
	if hits.Distance >= hits.Next.Distance {
		t.Fatalf("hits must be sorted ascending by distance")
	}
}

func TestSphereMiss(t *testing.T) {
	s := NewSphere(core.NewVec3(10, 10, 10), 1, nil)
	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1))
	if s.Trace(ray, &alloc) != nil {
		t.Fatal("expected no intersection for a ray that misses the sphere entirely")
	}
}

func TestSphereBoundsContainsShape(t *testing.T) {
	s := NewSphere(core.NewVec3(1, 2, 3), 2, nil)
	b := s.Bounds(core.Identity())
	if !b.IsValid() {
		t.Fatal("sphere bounds must be a valid AABB")
	}
	if b.Min.X > -1 || b.Max.X < 3 {
		t.Fatalf("bounds %v do not contain sphere of radius 2 at x=1", b)
	}
}

// TestCSGDifferenceOfEqualSpheres checks that difference(A, A) = ∅.
func TestCSGDifferenceOfEqualSpheres(t *testing.T) {
	a := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	b := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	diff := NewCSG(Difference, a, b)

	var alloc ShapeHitAllocator
	for _, origin := range []core.Vec3{
		core.NewVec3(0, 0, 4),
		core.NewVec3(3, 0, 0),
		core.NewVec3(0, -5, 0),
	} {
		ray := core.NewRayTo(origin, core.NewVec3(0, 0, 0))
		if hits := diff.Trace(ray, &alloc); hits != nil {
			t.Fatalf("difference of equal spheres should yield no intersection, got %d hits from %v", countHits(hits), origin)
		}
	}
}

// TestCSGUnionOfDisjointSpheresIsClosed checks the CSG-closure property:
// for disjoint A, B, union(A,B)'s hit count equals A's hits plus B's hits.
func TestCSGUnionOfDisjointSpheresIsClosed(t *testing.T) {
	a := NewSphere(core.NewVec3(-5, 0, 0), 1, nil)
	b := NewSphere(core.NewVec3(5, 0, 0), 1, nil)
	union := NewCSG(Union, a, b)

	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(-20, 0, 0), core.NewVec3(1, 0, 0))
	aHits := countHits(a.Trace(ray, &alloc))
	bHits := countHits(b.Trace(ray, &alloc))
	unionHits := countHits(union.Trace(ray, &alloc))
	if unionHits != aHits+bHits {
		t.Fatalf("union of disjoint spheres: got %d hits, want %d+%d", unionHits, aHits, bHits)
	}
}

func TestInstanceTransformsHitsToWorldSpace(t *testing.T) {
	inner := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	xform := core.Translate(core.NewVec3(10, 0, 0))
	inst := NewInstance(inner, xform, false)

	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(10, 0, 4), core.NewVec3(0, 0, -1))
	hits := inst.Trace(ray, &alloc)
	if hits == nil {
		t.Fatal("expected a hit on the translated sphere")
	}
	if math.Abs(hits.Point.X-10) > 1e-9 {
		t.Fatalf("hit point %v should be centered on the translated sphere at x=10", hits.Point)
	}
	if hits.Shape != inst {
		t.Fatal("a non-premultiplied instance must rewrite Hit.Shape to itself")
	}
}

func TestTriangleMeshDropsDegenerateFaces(t *testing.T) {
	vertices := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(2, 0, 0), // collinear with the first two: degenerate
		core.NewVec3(0, 1, 0),
	}
	faces := [][3]int{{0, 1, 3}, {0, 1, 2}}
	_, tris := NewTriangleMesh(vertices, nil, nil, faces, nil)
	if len(tris) != 1 {
		t.Fatalf("expected 1 surviving triangle out of 2 faces, got %d", len(tris))
	}
}

func TestSphereTracePopulatesUV(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1))
	hit := s.Trace(ray, &alloc)
	if hit == nil {
		t.Fatal("expected a hit")
	}
	// Front hit is at (0, 0, 1): azimuth pi/2, polar angle pi/2.
	if math.Abs(hit.UV.X-0.25) > 1e-9 || math.Abs(hit.UV.Y-0.5) > 1e-9 {
		t.Fatalf("front hit UV = %v, want (0.25, 0.5)", hit.UV)
	}
	for h := hit; h != nil; h = h.Next {
		if h.UV.X < 0 || h.UV.X >= 1 || h.UV.Y < 0 || h.UV.Y > 1 {
			t.Fatalf("sphere UV %v outside the unit square", h.UV)
		}
	}
}

func TestTriangleTraceInterpolatesUV(t *testing.T) {
	vertices := []core.Vec3{
		core.NewVec3(-1, -1, 0),
		core.NewVec3(1, -1, 0),
		core.NewVec3(0, 1, 0),
	}
	uvs := []core.Vec2{
		core.NewVec2(0, 0),
		core.NewVec2(1, 0),
		core.NewVec2(0.5, 1),
	}
	_, tris := NewTriangleMesh(vertices, nil, uvs, [][3]int{{0, 1, 2}}, nil)
	var alloc ShapeHitAllocator

	// Through the centroid: barycentrics are all 1/3, so the UV is the
	// average of the three vertex UVs.
	centroid := core.NewVec3(0, -1.0/3.0, 0)
	hit := tris[0].Trace(core.NewRay(centroid.Add(core.NewVec3(0, 0, 5)), core.NewVec3(0, 0, -1)), &alloc)
	if hit == nil {
		t.Fatal("expected a hit through the centroid")
	}
	if math.Abs(hit.UV.X-0.5) > 1e-9 || math.Abs(hit.UV.Y-1.0/3.0) > 1e-9 {
		t.Fatalf("centroid UV = %v, want (0.5, 1/3)", hit.UV)
	}

	// Near a vertex the UV approaches that vertex's UV.
	nearV1 := core.NewVec3(0.9, -0.9, 0)
	hit = tris[0].Trace(core.NewRay(nearV1.Add(core.NewVec3(0, 0, 5)), core.NewVec3(0, 0, -1)), &alloc)
	if hit == nil {
		t.Fatal("expected a hit near vertex 1")
	}
	if math.Abs(hit.UV.X-0.95) > 0.02 || hit.UV.Y > 0.06 {
		t.Fatalf("near-vertex UV = %v, want ~(0.95, 0.05)", hit.UV)
	}
}

func TestSphereIntersectFace(t *testing.T) {
	s := NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, -1))

	front, ok := s.IntersectFace(ray, FaceFront)
	if !ok || math.Abs(front-3) > 1e-9 {
		t.Fatalf("front intersection = (%v, %v), want (3, true)", front, ok)
	}
	back, ok := s.IntersectFace(ray, FaceBack)
	if !ok || math.Abs(back-5) > 1e-9 {
		t.Fatalf("back intersection = (%v, %v), want (5, true)", back, ok)
	}
	if _, ok := s.IntersectFace(core.NewRay(core.NewVec3(0, 0, 4), core.NewVec3(0, 1, 0)), FaceFront); ok {
		t.Fatal("a ray that misses the sphere must not intersect either face")
	}
}

func TestTriangleTraceHitsPlane(t *testing.T) {
	vertices := []core.Vec3{
		core.NewVec3(-1, -1, 0),
		core.NewVec3(1, -1, 0),
		core.NewVec3(0, 1, 0),
	}
	_, tris := NewTriangleMesh(vertices, nil, nil, [][3]int{{0, 1, 2}}, nil)
	if len(tris) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(tris))
	}
	var alloc ShapeHitAllocator
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	hit := tris[0].Trace(ray, &alloc)
	if hit == nil {
		t.Fatal("expected the ray through the triangle's interior to hit")
	}
	if math.Abs(hit.Distance-5) > 1e-9 {
		t.Fatalf("expected hit distance 5, got %v", hit.Distance)
	}

	missRay := core.NewRay(core.NewVec3(5, 5, 5), core.NewVec3(0, 0, -1))
	if tris[0].Trace(missRay, &alloc) != nil {
		t.Fatal("expected a ray outside the triangle to miss")
	}
}
