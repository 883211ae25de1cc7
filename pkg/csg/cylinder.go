package csg

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Cylinder is the solid x^2 + y^2 <= 1 clipped to -1 <= z <= 1 in its local frame
type Cylinder struct {
	nodeBase
}

// NewCylinder creates a capped unit cylinder along Z
func NewCylinder() *Cylinder {
	return &Cylinder{}
}

// Kind returns "cylinder"
func (c *Cylinder) Kind() string { return "cylinder" }

// LocalBounds implements Intersectable
func (c *Cylinder) LocalBounds() core.AABB {
	return core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// Intersect implements Intersectable
func (c *Cylinder) Intersect(ray core.Ray) []Interval {
	o, d := ray.Origin, ray.Direction
	if d.LengthSquared() == 0 {
		return nil
	}

	// Infinite side wall
	sideEnter, sideExit := math.Inf(-1), math.Inf(1)
	a := d.X*d.X + d.Y*d.Y
	halfB := o.X*d.X + o.Y*d.Y
	cc := o.X*o.X + o.Y*o.Y - 1
	if a == 0 {
		if cc > 0 {
			return nil
		}
	} else {
		disc := halfB*halfB - a*cc
		if disc <= 0 {
			return nil
		}
		sqrtD := math.Sqrt(disc)
		sideEnter = (-halfB - sqrtD) / a
		sideExit = (-halfB + sqrtD) / a
	}

	// Caps
	capEnter, capExit := math.Inf(-1), math.Inf(1)
	if d.Z == 0 {
		if math.Abs(o.Z) > 1 {
			return nil
		}
	} else {
		capEnter = (-1 - o.Z) / d.Z
		capExit = (1 - o.Z) / d.Z
		if capEnter > capExit {
			capEnter, capExit = capExit, capEnter
		}
	}

	var enter, exit Intersection
	if sideEnter > capEnter {
		p := ray.At(sideEnter)
		enter = Intersection{T: sideEnter, Solid: c, LocalPoint: p, LocalNormal: core.NewVec3(p.X, p.Y, 0)}
	} else {
		enter = Intersection{T: capEnter, Solid: c, LocalPoint: ray.At(capEnter), LocalNormal: faceNormal(2, -d.Z)}
	}
	if sideExit < capExit {
		p := ray.At(sideExit)
		exit = Intersection{T: sideExit, Solid: c, LocalPoint: p, LocalNormal: core.NewVec3(p.X, p.Y, 0)}
	} else {
		exit = Intersection{T: capExit, Solid: c, LocalPoint: ray.At(capExit), LocalNormal: faceNormal(2, d.Z)}
	}

	return appendInterval(nil, enter, exit)
}

// textureCoord wraps u around the axis; caps map radially
func (c *Cylinder) textureCoord(p, normal core.Vec3) core.Vec2 {
	u := 0.5 + math.Atan2(p.Y, p.X)/(2*math.Pi)
	if normal.Z != 0 {
		return core.NewVec2(u, clamp01(math.Sqrt(p.X*p.X+p.Y*p.Y)))
	}
	return core.NewVec2(u, clamp01((p.Z+1)/2))
}
