package csg

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Cube is the axis-aligned cube [-1,1]^3 in its local frame
type Cube struct {
	nodeBase
}

// NewCube creates a unit cube with half-extent 1
func NewCube() *Cube {
	return &Cube{}
}

// Kind returns "cube"
func (c *Cube) Kind() string { return "cube" }

// LocalBounds implements Intersectable
func (c *Cube) LocalBounds() core.AABB {
	return core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// Intersect implements Intersectable
func (c *Cube) Intersect(ray core.Ray) []Interval {
	tEnter, tExit, enterAxis, exitAxis, ok := c.LocalBounds().Slab(ray, math.Inf(-1), math.Inf(1))
	if !ok || enterAxis < 0 || exitAxis < 0 {
		return nil
	}

	p0 := ray.At(tEnter)
	p1 := ray.At(tExit)
	return appendInterval(nil,
		Intersection{T: tEnter, Solid: c, LocalPoint: p0, LocalNormal: faceNormal(enterAxis, -ray.Direction.Axis(enterAxis))},
		Intersection{T: tExit, Solid: c, LocalPoint: p1, LocalNormal: faceNormal(exitAxis, ray.Direction.Axis(exitAxis))},
	)
}

// faceNormal returns the unit axis vector with the sign of sign
func faceNormal(axis int, sign float64) core.Vec3 {
	s := 1.0
	if sign < 0 {
		s = -1.0
	}
	switch axis {
	case 0:
		return core.NewVec3(s, 0, 0)
	case 1:
		return core.NewVec3(0, s, 0)
	default:
		return core.NewVec3(0, 0, s)
	}
}

// textureCoord projects the hit onto the face it lies on
func (c *Cube) textureCoord(p, normal core.Vec3) core.Vec2 {
	var u, v float64
	switch {
	case normal.X != 0:
		u, v = p.Z, p.Y
	case normal.Y != 0:
		u, v = p.X, p.Z
	default:
		u, v = p.X, p.Y
	}
	return core.NewVec2(clamp01((u+1)/2), clamp01((v+1)/2))
}
