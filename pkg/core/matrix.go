package core

import "math"

// Matrix4x4 is an affine transform with a cached inverse, transpose and
// inverse-transpose, so that instanced shapes and their surface normals can
// be transformed without re-inverting per ray.
type Matrix4x4 struct {
	m    [4][4]float64
	inv  [4][4]float64
	invT [4][4]float64
}

// Identity returns the identity transform.
func Identity() Matrix4x4 {
	var m Matrix4x4
	for i := 0; i < 4; i++ {
		m.m[i][i] = 1
		m.inv[i][i] = 1
		m.invT[i][i] = 1
	}
	return m
}

// NewMatrix4x4 builds a transform from a row-major 4x4 array, computing and
// caching its inverse and inverse-transpose. Panics are never used; a
// singular matrix gets the identity as its cached inverse (see invert4x4).
func NewMatrix4x4(m [4][4]float64) Matrix4x4 {
	out := Matrix4x4{m: m}
	out.inv = invert4x4(m)
	out.invT = transpose4x4(out.inv)
	return out
}

// Translate returns a translation transform.
func Translate(v Vec3) Matrix4x4 {
	m := Identity().m
	m[0][3], m[1][3], m[2][3] = v.X, v.Y, v.Z
	return NewMatrix4x4(m)
}

// Scale returns a non-uniform scale transform.
func Scale(v Vec3) Matrix4x4 {
	m := Identity().m
	m[0][0], m[1][1], m[2][2] = v.X, v.Y, v.Z
	return NewMatrix4x4(m)
}

// Inverse returns the cached inverse transform.
func (m Matrix4x4) Inverse() Matrix4x4 {
	return Matrix4x4{m: m.inv, inv: m.m, invT: transpose4x4(m.m)}
}

// TransformPoint applies the transform to a point (w=1, translation applies).
func (m Matrix4x4) TransformPoint(p Vec3) Vec3 {
	x := m.m[0][0]*p.X + m.m[0][1]*p.Y + m.m[0][2]*p.Z + m.m[0][3]
	y := m.m[1][0]*p.X + m.m[1][1]*p.Y + m.m[1][2]*p.Z + m.m[1][3]
	z := m.m[2][0]*p.X + m.m[2][1]*p.Y + m.m[2][2]*p.Z + m.m[2][3]
	w := m.m[3][0]*p.X + m.m[3][1]*p.Y + m.m[3][2]*p.Z + m.m[3][3]
	if w != 1 && w != 0 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// TransformVector applies the transform to a vector (w=0, no translation).
func (m Matrix4x4) TransformVector(v Vec3) Vec3 {
	return Vec3{
		X: m.m[0][0]*v.X + m.m[0][1]*v.Y + m.m[0][2]*v.Z,
		Y: m.m[1][0]*v.X + m.m[1][1]*v.Y + m.m[1][2]*v.Z,
		Z: m.m[2][0]*v.X + m.m[2][1]*v.Y + m.m[2][2]*v.Z,
	}
}

// TransformNormal applies the inverse-transpose to a normal, which is the
// correct transform for surface normals under non-uniform scale/shear.
func (m Matrix4x4) TransformNormal(n Vec3) Vec3 {
	return Vec3{
		X: m.invT[0][0]*n.X + m.invT[0][1]*n.Y + m.invT[0][2]*n.Z,
		Y: m.invT[1][0]*n.X + m.invT[1][1]*n.Y + m.invT[1][2]*n.Z,
		Z: m.invT[2][0]*n.X + m.invT[2][1]*n.Y + m.invT[2][2]*n.Z,
	}.Normalize()
}

// TransformRay transforms a ray's origin and direction.
func (m Matrix4x4) TransformRay(r Ray) Ray {
	return Ray{Origin: m.TransformPoint(r.Origin), Direction: m.TransformVector(r.Direction)}
}

// Mul composes two transforms, returning one equivalent to applying m
// first, then other (other * m in matrix-multiplication order).
func (m Matrix4x4) Mul(other Matrix4x4) Matrix4x4 {
	var out [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				out[i][j] += other.m[i][k] * m.m[k][j]
			}
		}
	}
	return NewMatrix4x4(out)
}

func transpose4x4(m [4][4]float64) [4][4]float64 {
	var out [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

// invert4x4 computes the inverse by Gauss-Jordan elimination with partial
// pivoting. A singular input yields the identity (callers of NewMatrix4x4
// are expected to supply invertible affine transforms; this keeps the
// function total rather than panicking deep inside scene construction).
func invert4x4(m [4][4]float64) [4][4]float64 {
	var a [4][8]float64
	for i := 0; i < 4; i++ {
		copy(a[i][:4], m[i][:])
		a[i][4+i] = 1
	}

	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Identity().m
		}
		a[col], a[pivot] = a[pivot], a[col]

		pv := a[col][col]
		for c := 0; c < 8; c++ {
			a[col][c] /= pv
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			for c := 0; c < 8; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	var out [4][4]float64
	for i := 0; i < 4; i++ {
		copy(out[i][:], a[i][4:8])
	}
	return out
}
