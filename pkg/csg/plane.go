package csg

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Plane is the half-space z <= 0 of its local frame. Its surface is the
// XY plane with the outward normal +Z. Intervals may start or end at infinity.
type Plane struct {
	nodeBase
}

// NewPlane creates the half-space below the XY plane
func NewPlane() *Plane {
	return &Plane{}
}

// Kind returns "plane"
func (p *Plane) Kind() string { return "plane" }

// LocalBounds implements Intersectable
func (p *Plane) LocalBounds() core.AABB {
	inf := math.Inf(1)
	return core.NewAABB(core.NewVec3(-inf, -inf, -inf), core.NewVec3(inf, inf, 0))
}

// Intersect implements Intersectable
func (p *Plane) Intersect(ray core.Ray) []Interval {
	up := core.NewVec3(0, 0, 1)
	oz, dz := ray.Origin.Z, ray.Direction.Z

	if dz == 0 {
		if oz > 0 {
			return nil
		}
		return []Interval{{
			Enter: Intersection{T: math.Inf(-1), Solid: p, LocalNormal: up},
			Exit:  Intersection{T: math.Inf(1), Solid: p, LocalNormal: up},
		}}
	}

	t := -oz / dz
	hit := Intersection{T: t, Solid: p, LocalPoint: ray.At(t), LocalNormal: up}
	hit.LocalPoint.Z = 0

	if dz > 0 {
		// Moving up: inside until the surface
		return appendInterval(nil, Intersection{T: math.Inf(-1), Solid: p, LocalNormal: up}, hit)
	}
	return appendInterval(nil, hit, Intersection{T: math.Inf(1), Solid: p, LocalNormal: up})
}

// textureCoord repeats every unit along X and Y
func (p *Plane) textureCoord(pt core.Vec3) core.Vec2 {
	return core.NewVec2(pt.X-math.Floor(pt.X), pt.Y-math.Floor(pt.Y))
}
