package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns a box that contains nothing; it is the identity for Union
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: NewVec3(inf, inf, inf), Max: NewVec3(-inf, -inf, -inf)}
}

// InfiniteAABB returns a box that contains all of space
func InfiniteAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: NewVec3(-inf, -inf, -inf), Max: NewVec3(inf, inf, inf)}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return EmptyAABB()
	}

	min := points[0]
	max := points[0]

	for _, point := range points[1:] {
		min.X = math.Min(min.X, point.X)
		min.Y = math.Min(min.Y, point.Y)
		min.Z = math.Min(min.Z, point.Z)

		max.X = math.Max(max.X, point.X)
		max.Y = math.Max(max.Y, point.Y)
		max.Z = math.Max(max.Z, point.Z)
	}

	return AABB{Min: min, Max: max}
}

// Slab intersects the ray with the box using the slab method and returns the
// parametric entry and exit distances together with the axis that produced each.
// An axis of -1 means the bound came from the ray interval itself, not a box face.
func (aabb AABB) Slab(ray Ray, tMin, tMax float64) (tEnter, tExit float64, enterAxis, exitAxis int, ok bool) {
	tEnter, tExit = tMin, tMax
	enterAxis, exitAxis = -1, -1

	for axis := 0; axis < 3; axis++ {
		min := aabb.Min.Axis(axis)
		max := aabb.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		// Handle parallel rays (direction near zero)
		if math.Abs(direction) < 1e-12 {
			if origin < min || origin > max {
				return 0, 0, -1, -1, false // Ray origin outside slab
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (min - origin) * invDirection
		t2 := (max - origin) * invDirection

		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > tEnter {
			tEnter = t1
			enterAxis = axis
		}
		if t2 < tExit {
			tExit = t2
			exitAxis = axis
		}

		if tEnter > tExit {
			return 0, 0, -1, -1, false
		}
	}

	return tEnter, tExit, enterAxis, exitAxis, true
}

// Hit tests if a ray intersects with this AABB using the slab method
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	if aabb.IsEmpty() {
		return false
	}
	_, _, _, _, ok := aabb.Slab(ray, tMin, tMax)
	return ok
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	min := Vec3{
		X: math.Min(aabb.Min.X, other.Min.X),
		Y: math.Min(aabb.Min.Y, other.Min.Y),
		Z: math.Min(aabb.Min.Z, other.Min.Z),
	}
	max := Vec3{
		X: math.Max(aabb.Max.X, other.Max.X),
		Y: math.Max(aabb.Max.Y, other.Max.Y),
		Z: math.Max(aabb.Max.Z, other.Max.Z),
	}
	return AABB{Min: min, Max: max}
}

// Intersect returns the overlap of two boxes; the result may be empty
func (aabb AABB) Intersect(other AABB) AABB {
	min := Vec3{
		X: math.Max(aabb.Min.X, other.Min.X),
		Y: math.Max(aabb.Min.Y, other.Min.Y),
		Z: math.Max(aabb.Min.Z, other.Min.Z),
	}
	max := Vec3{
		X: math.Min(aabb.Max.X, other.Max.X),
		Y: math.Min(aabb.Max.Y, other.Max.Y),
		Z: math.Min(aabb.Max.Z, other.Max.Z),
	}
	return AABB{Min: min, Max: max}
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// IsEmpty reports whether the box contains no points
func (aabb AABB) IsEmpty() bool {
	return !aabb.IsValid()
}

// IsFinite reports whether both corners are finite
func (aabb AABB) IsFinite() bool {
	return aabb.Min.IsFinite() && aabb.Max.IsFinite()
}

// Corners returns the eight corners of the box
func (aabb AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		NewVec3(aabb.Min.X, aabb.Min.Y, aabb.Min.Z),
		NewVec3(aabb.Max.X, aabb.Min.Y, aabb.Min.Z),
		NewVec3(aabb.Max.X, aabb.Max.Y, aabb.Min.Z),
		NewVec3(aabb.Min.X, aabb.Max.Y, aabb.Min.Z),
		NewVec3(aabb.Min.X, aabb.Min.Y, aabb.Max.Z),
		NewVec3(aabb.Max.X, aabb.Min.Y, aabb.Max.Z),
		NewVec3(aabb.Max.X, aabb.Max.Y, aabb.Max.Z),
		NewVec3(aabb.Min.X, aabb.Max.Y, aabb.Max.Z),
	}
}

// Transform returns a box bounding this box after the affine transform t.
// Unbounded boxes stay unbounded unless t is the identity.
func (aabb AABB) Transform(t Transform) AABB {
	if aabb.IsEmpty() || t.IsIdentity() {
		return aabb
	}
	if !aabb.IsFinite() {
		return InfiniteAABB()
	}

	corners := aabb.Corners()
	for i := range corners {
		corners[i] = t.Point(corners[i])
	}
	return NewAABBFromPoints(corners[:]...)
}
