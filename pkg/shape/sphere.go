package shape

import (
	"math"

	"github.com/df07/specterray/pkg/core"
	"github.com/df07/specterray/pkg/shading"
)

// Sphere is a closed quadric. Trace returns both the entry and exit
// intersections (CSG needs the whole sorted hit list, not just the
// closest one), tagged FaceFront / FaceBack by whether the ray is
// entering or leaving the solid.
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Mat      shading.Material
	Emit     shading.EmissiveMaterial
	NMap     shading.NormalMap
	TCMap    shading.TexCoordMap
}

// NewSphere creates a sphere with the given material (mat/emit/nmap/tcmap
// may be nil).
func NewSphere(center core.Vec3, radius float64, mat shading.Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, Mat: mat}
}

func (s *Sphere) Trace(ray core.Ray, alloc *ShapeHitAllocator) *Hit {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil
	}
	sqrtD := math.Sqrt(discriminant)
	tNear := (-halfB - sqrtD) / a
	tFar := (-halfB + sqrtD) / a

	var head *Hit
	if tNear > 0 {
		p := ray.At(tNear)
		head = sortedInsert(head, alloc.New(&Hit{Shape: s, Face: FaceFront, Distance: tNear, Point: p, UV: s.uvAt(p)}))
	}
	if tFar > 0 {
		p := ray.At(tFar)
		head = sortedInsert(head, alloc.New(&Hit{Shape: s, Face: FaceBack, Distance: tFar, Point: p, UV: s.uvAt(p)}))
	}
	return head
}

// uvAt maps a surface point to the equirectangular parameterisation:
// u spans azimuth [0, 1), v spans the polar angle from the +Y pole.
func (s *Sphere) uvAt(point core.Vec3) core.Vec2 {
	n := point.Subtract(s.Center).Multiply(1 / s.Radius)
	phi := math.Atan2(n.Z, n.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(math.Max(-1, math.Min(1, n.Y)))
	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
}

// IntersectFace reports the closest hit of ray on the given face, for
// area-light emission queries.
func (s *Sphere) IntersectFace(ray core.Ray, face int) (float64, bool) {
	return firstFaceHit(s, ray, face)
}

func (s *Sphere) Bounds(modelToWorld core.Matrix4x4) core.AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	local := core.NewAABB(s.Center.Subtract(r), s.Center.Add(r))
	return local.Transform(modelToWorld)
}

func (s *Sphere) Normal(point core.Vec3, face int) core.Vec3 {
	n := point.Subtract(s.Center).Multiply(1 / s.Radius)
	if face == FaceBack {
		return n.Negate()
	}
	return n
}

func (s *Sphere) Material(face int) shading.Material                 { return s.Mat }
func (s *Sphere) Emissive(face int) shading.EmissiveMaterial          { return s.Emit }
func (s *Sphere) NormalMap(face int) shading.NormalMap                { return s.NMap }
func (s *Sphere) TexCoordMap(face int) shading.TexCoordMap            { return s.TCMap }

// SampleFace draws a uniform point on the sphere's surface via the
// standard uniform-sphere parameterisation.
func (s *Sphere) SampleFace(face int, u, v float64) (point, normal core.Vec3) {
	z := 1 - 2*u
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * v
	local := core.NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
	normal = local
	if face == FaceBack {
		normal = normal.Negate()
	}
	return s.Center.Add(local.Multiply(s.Radius)), normal
}

// PDFSolidAngle returns the solid-angle pdf of uniformly sampling the
// visible cap of the sphere from the ray's origin.
func (s *Sphere) PDFSolidAngle(ray core.Ray, distance float64, face int) float64 {
	toCenter := s.Center.Subtract(ray.Origin)
	dist2 := toCenter.LengthSquared()
	if dist2 <= s.Radius*s.Radius {
		// Origin is inside the sphere: fall back to uniform-area pdf
		// converted to solid angle at the hit distance.
		area := 4 * math.Pi * s.Radius * s.Radius
		cosTheta := math.Abs(s.Normal(ray.At(distance), face).Dot(ray.Direction.Negate()))
		if cosTheta <= 0 {
			return 0
		}
		return distance * distance / (cosTheta * area)
	}
	sinThetaMax2 := s.Radius * s.Radius / dist2
	cosThetaMax := math.Sqrt(math.Max(0, 1-sinThetaMax2))
	solidAngle := 2 * math.Pi * (1 - cosThetaMax)
	if solidAngle <= 0 {
		return 0
	}
	return 1 / solidAngle
}
