package csg

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Sphere is the unit sphere centered at the origin of its local frame.
// Size and position come from the transform it is inserted with.
type Sphere struct {
	nodeBase
}

// NewSphere creates a unit sphere
func NewSphere() *Sphere {
	return &Sphere{}
}

// Kind returns "sphere"
func (s *Sphere) Kind() string { return "sphere" }

// LocalBounds implements Intersectable
func (s *Sphere) LocalBounds() core.AABB {
	return core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// Intersect implements Intersectable
func (s *Sphere) Intersect(ray core.Ray) []Interval {
	a := ray.Direction.LengthSquared()
	if a == 0 {
		return nil
	}
	halfB := ray.Origin.Dot(ray.Direction)
	c := ray.Origin.LengthSquared() - 1

	discriminant := halfB*halfB - a*c
	if discriminant <= 0 {
		return nil // Miss or tangent
	}

	sqrtD := math.Sqrt(discriminant)
	t0 := (-halfB - sqrtD) / a
	t1 := (-halfB + sqrtD) / a

	p0 := ray.At(t0)
	p1 := ray.At(t1)
	return appendInterval(nil,
		Intersection{T: t0, Solid: s, LocalPoint: p0, LocalNormal: p0},
		Intersection{T: t1, Solid: s, LocalPoint: p1, LocalNormal: p1},
	)
}

// textureCoord maps longitude to u and latitude to v, both in [0,1]
func (s *Sphere) textureCoord(p core.Vec3) core.Vec2 {
	p = p.Normalize()
	u := 0.5 + math.Atan2(p.Z, p.X)/(2*math.Pi)
	v := math.Acos(math.Max(-1, math.Min(1, p.Y))) / math.Pi
	return core.NewVec2(u, v)
}
