package core

import (
	"math"
	"testing"
)

func vecClose(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestTranslateDistinguishesPointsAndVectors(t *testing.T) {
	m := Translate(NewVec3(1, 2, 3))
	p := m.TransformPoint(NewVec3(0, 0, 0))
	if !vecClose(p, NewVec3(1, 2, 3), 1e-12) {
		t.Fatalf("translated point = %v", p)
	}
	v := m.TransformVector(NewVec3(1, 0, 0))
	if !vecClose(v, NewVec3(1, 0, 0), 1e-12) {
		t.Fatalf("translation must not move a vector, got %v", v)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(NewVec3(4, -2, 7)).Mul(Scale(NewVec3(2, 3, 0.5)))
	inv := m.Inverse()
	for _, p := range []Vec3{{0, 0, 0}, {1, 1, 1}, {-3, 5, 0.25}} {
		back := inv.TransformPoint(m.TransformPoint(p))
		if !vecClose(back, p, 1e-9) {
			t.Fatalf("inverse round trip of %v gave %v", p, back)
		}
	}
}

// TestTransformNormalUsesInverseTranspose: under a non-uniform scale, a
// surface normal must stay perpendicular to transformed tangents, which
// only holds if normals go through the inverse-transpose.
func TestTransformNormalUsesInverseTranspose(t *testing.T) {
	m := Scale(NewVec3(2, 1, 1))
	// A plane with normal (1, 1, 0)/sqrt2 and tangent (1, -1, 0).
	n := NewVec3(1, 1, 0).Normalize()
	tangent := NewVec3(1, -1, 0)

	nT := m.TransformNormal(n)
	tanT := m.TransformVector(tangent)
	if math.Abs(nT.Dot(tanT)) > 1e-9 {
		t.Fatalf("transformed normal %v is not perpendicular to transformed tangent %v", nT, tanT)
	}
}

func TestTransformRayMovesOriginAndDirection(t *testing.T) {
	m := Translate(NewVec3(0, 0, -5))
	r := m.TransformRay(NewRay(NewVec3(0, 0, 4), NewVec3(0, 0, -1)))
	if !vecClose(r.Origin, NewVec3(0, 0, -1), 1e-12) {
		t.Fatalf("ray origin = %v", r.Origin)
	}
	if !vecClose(r.Direction, NewVec3(0, 0, -1), 1e-12) {
		t.Fatalf("ray direction must be translation-invariant, got %v", r.Direction)
	}
}

func TestAABBTransformContainsAllCorners(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))
	m := Translate(NewVec3(5, 0, 0)).Mul(Scale(NewVec3(2, 1, 3)))
	out := box.Transform(m)
	for i := 0; i < 8; i++ {
		corner := Vec3{
			X: pick(i&1 != 0, box.Min.X, box.Max.X),
			Y: pick(i&2 != 0, box.Min.Y, box.Max.Y),
			Z: pick(i&4 != 0, box.Min.Z, box.Max.Z),
		}
		p := m.TransformPoint(corner)
		if p.X < out.Min.X-1e-9 || p.X > out.Max.X+1e-9 ||
			p.Y < out.Min.Y-1e-9 || p.Y > out.Max.Y+1e-9 ||
			p.Z < out.Min.Z-1e-9 || p.Z > out.Max.Z+1e-9 {
			t.Fatalf("transformed corner %v escapes transformed bounds %v", p, out)
		}
	}
}

func TestRNGRanges(t *testing.T) {
	g := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := g.NextFloat(2, 5)
		if v < 2 || v >= 5 {
			t.Fatalf("NextFloat(2, 5) = %v out of range", v)
		}
		n := g.NextIndex(3)
		if n < 0 || n >= 3 {
			t.Fatalf("NextIndex(3) = %d out of range", n)
		}
	}
}
