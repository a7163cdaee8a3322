package shape

import (
	"math"

	"github.com/df07/specterray/pkg/arena"
	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
)

// degenerateNormalThreshold is the geometric-degeneracy threshold: a
// triangle whose computed normal length falls below this is silently
// omitted from the output list.
const degenerateNormalThreshold = 1e-6

// TriangleMesh is the shared vertex/uv buffer header referenced by every
// Triangle instance it produces. Ownership is by longest-holder: the
// mesh never back-references its triangles.
type TriangleMesh struct {
	ref       *arena.Ref[*meshData]
	Mat       shading.Material
	Emit      shading.EmissiveMaterial
	NMap      shading.NormalMap
	TCMap     shading.TexCoordMap
}

type meshData struct {
	vertices []core.Vec3
	normals  []core.Vec3 // nil if the mesh carries no per-vertex normals
	uvs      []core.Vec2 // nil if the mesh carries no uvs
}

// NewTriangleMesh builds a mesh header from the PLY contract's
// {vertices, normals?, uvs?, faces} shape and returns the header plus one
// Triangle instance per constructed face. Degenerate faces (normal length
// below degenerateNormalThreshold) are silently dropped, so the returned
// count of triangles may be less than len(faces).
func NewTriangleMesh(vertices []core.Vec3, normals []core.Vec3, uvs []core.Vec2, faces [][3]int, mat shading.Material) (*TriangleMesh, []*Triangle) {
	data := &meshData{vertices: vertices, normals: normals, uvs: uvs}
	mesh := &TriangleMesh{ref: arena.NewRef(data, nil), Mat: mat}

	tris := make([]*Triangle, 0, len(faces))
	for _, f := range faces {
		p0, p1, p2 := vertices[f[0]], vertices[f[1]], vertices[f[2]]
		n := p1.Subtract(p0).Cross(p2.Subtract(p0))
		if n.Length() < degenerateNormalThreshold {
			continue
		}
		tris = append(tris, &Triangle{mesh: mesh, i0: f[0], i1: f[1], i2: f[2], normal: n.Normalize()})
	}
	return mesh, tris
}

// Triangle is a single face of a TriangleMesh, storing only its three
// vertex indices and a cached (pre-normalized) surface normal.
type Triangle struct {
	mesh   *TriangleMesh
	i0, i1, i2 int
	normal core.Vec3
}

func (t *Triangle) vertices() (p0, p1, p2 core.Vec3) {
	d := t.mesh.ref.Value()
	return d.vertices[t.i0], d.vertices[t.i1], d.vertices[t.i2]
}

// Trace intersects ray against the triangle using the Pharr-Jakob-
// Humphreys watertight algorithm: shear the triangle into the
// ray's dominant-axis frame, compute edge functions, and require they
// share a sign (zero is compatible with either sign). The source
// algorithm falls back to double precision when an edge function is
// exactly zero in single precision; this implementation is already
// entirely float64; there is no lower-precision tier to fall back from.
func (t *Triangle) Trace(ray core.Ray, alloc *ShapeHitAllocator) *Hit {
	p0, p1, p2 := t.vertices()

	p0t := p0.Subtract(ray.Origin)
	p1t := p1.Subtract(ray.Origin)
	p2t := p2.Subtract(ray.Origin)

	kz := maxAbsDimension(ray.Direction)
	kx := (kz + 1) % 3
	ky := (kx + 1) % 3

	d := permute(ray.Direction, kx, ky, kz)
	p0t = permute(p0t, kx, ky, kz)
	p1t = permute(p1t, kx, ky, kz)
	p2t = permute(p2t, kx, ky, kz)

	if d.Z == 0 {
		return nil
	}
	sx := -d.X / d.Z
	sy := -d.Y / d.Z
	sz := 1 / d.Z

	p0t.X += sx * p0t.Z
	p0t.Y += sy * p0t.Z
	p1t.X += sx * p1t.Z
	p1t.Y += sy * p1t.Z
	p2t.X += sx * p2t.Z
	p2t.Y += sy * p2t.Z

	e0 := p1t.X*p2t.Y - p1t.Y*p2t.X
	e1 := p2t.X*p0t.Y - p2t.Y*p0t.X
	e2 := p0t.X*p1t.Y - p0t.Y*p1t.X

	if (e0 < 0 || e1 < 0 || e2 < 0) && (e0 > 0 || e1 > 0 || e2 > 0) {
		return nil
	}
	det := e0 + e1 + e2
	if det == 0 {
		return nil
	}

	p0t.Z *= sz
	p1t.Z *= sz
	p2t.Z *= sz
	tScaled := e0*p0t.Z + e1*p1t.Z + e2*p2t.Z
	if det < 0 && tScaled >= 0 {
		return nil
	}
	if det > 0 && tScaled <= 0 {
		return nil
	}

	invDet := 1 / det
	dist := tScaled * invDet
	if dist <= 0 {
		return nil
	}
	b0, b1, b2 := e0*invDet, e1*invDet, e2*invDet
	point := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))

	// Carry the surface parameterisation out of the trace: interpolated
	// mesh uvs when the mesh has them, raw barycentrics otherwise.
	uv := core.NewVec2(b1, b2)
	if d := t.mesh.ref.Value(); d.uvs != nil {
		uv = d.uvs[t.i0].Multiply(b0).
			Add(d.uvs[t.i1].Multiply(b1)).
			Add(d.uvs[t.i2].Multiply(b2))
	}

	face := FaceFront
	if t.normal.Dot(ray.Direction) > 0 {
		face = FaceBack
	}
	return alloc.New(&Hit{Shape: t, Face: face, Distance: dist, Point: point, UV: uv})
}

// IntersectFace reports the closest hit of ray on the given face, for
// area-light emission queries.
func (t *Triangle) IntersectFace(ray core.Ray, face int) (float64, bool) {
	return firstFaceHit(t, ray, face)
}

func maxAbsDimension(v core.Vec3) int {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	if ax > ay && ax > az {
		return 0
	}
	if ay > az {
		return 1
	}
	return 2
}

func permute(v core.Vec3, x, y, z int) core.Vec3 {
	c := [3]float64{v.X, v.Y, v.Z}
	return core.NewVec3(c[x], c[y], c[z])
}

func (t *Triangle) Bounds(modelToWorld core.Matrix4x4) core.AABB {
	p0, p1, p2 := t.vertices()
	local := core.NewAABBFromPoints(p0, p1, p2)
	return local.Transform(modelToWorld)
}

func (t *Triangle) Normal(point core.Vec3, face int) core.Vec3 {
	if face == FaceBack {
		return t.normal.Negate()
	}
	return t.normal
}

func (t *Triangle) Material(face int) shading.Material        { return t.mesh.Mat }
func (t *Triangle) Emissive(face int) shading.EmissiveMaterial { return t.mesh.Emit }
func (t *Triangle) NormalMap(face int) shading.NormalMap       { return t.mesh.NMap }
func (t *Triangle) TexCoordMap(face int) shading.TexCoordMap   { return t.mesh.TCMap }

func (t *Triangle) SampleFace(face int, u, v float64) (point, normal core.Vec3) {
	p0, p1, p2 := t.vertices()
	su := math.Sqrt(u)
	b0 := 1 - su
	b1 := v * su
	b2 := 1 - b0 - b1
	point = p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))
	normal = t.normal
	if face == FaceBack {
		normal = normal.Negate()
	}
	return point, normal
}

func (t *Triangle) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 {
	p0, p1, p2 := t.vertices()
	area := 0.5 * p1.Subtract(p0).Cross(p2.Subtract(p0)).Length()
	if area <= 0 {
		return 0
	}
	cosTheta := math.Abs(t.Normal(ray.At(distance), face).Dot(ray.Direction))
	if cosTheta <= 0 {
		return 0
	}
	dist2 := distance * distance
	return dist2 / (cosTheta * area)
}
