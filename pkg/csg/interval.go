package csg

import (
	"math"
	"sort"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Intersection is a point where a ray crosses the boundary of a primitive
type Intersection struct {
	T           float64       // Ray parameter; may be infinite for unbounded solids
	Solid       Intersectable // The primitive whose surface was crossed
	LocalPoint  core.Vec3     // Hit point in the primitive's frame
	LocalNormal core.Vec3     // Outward primitive normal in its frame
	Inverted    bool          // Set when a difference turned the surface inside out
}

// Normal returns the unit surface normal in the root frame, pointing out of
// the combined solid
func (x Intersection) Normal() core.Vec3 {
	if isNil(x.Solid) {
		return x.LocalNormal.Normalize()
	}
	n := x.Solid.base().normalTransform().Vector(x.LocalNormal).Normalize()
	if x.Inverted {
		n = n.Negate()
	}
	return n
}

// WorldPoint returns the hit point in the root frame
func (x Intersection) WorldPoint() core.Vec3 {
	if isNil(x.Solid) {
		return x.LocalPoint
	}
	return x.Solid.base().worldTransform().Point(x.LocalPoint)
}

// TextureCoord returns the primitive's surface parameterization at the hit
func (x Intersection) TextureCoord() core.Vec2 {
	switch s := x.Solid.(type) {
	case *Sphere:
		return s.textureCoord(x.LocalPoint)
	case *Cube:
		return s.textureCoord(x.LocalPoint, x.LocalNormal)
	case *Plane:
		return s.textureCoord(x.LocalPoint)
	case *Cylinder:
		return s.textureCoord(x.LocalPoint, x.LocalNormal)
	}
	return core.Vec2{}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (x Intersection) flipped() Intersection {
	x.Inverted = !x.Inverted
	return x
}

// Interval is a range of ray parameter [Enter.T, Exit.T) spent inside a solid
type Interval struct {
	Enter Intersection
	Exit  Intersection
}

// Empty reports whether the interval has no length
func (iv Interval) Empty() bool {
	return !(iv.Enter.T < iv.Exit.T)
}

// Contains reports whether t lies in [Enter.T, Exit.T)
func (iv Interval) Contains(t float64) bool {
	return iv.Enter.T <= t && t < iv.Exit.T
}

// Length returns Exit.T - Enter.T
func (iv Interval) Length() float64 {
	return iv.Exit.T - iv.Enter.T
}

// FirstHit returns the first boundary crossing with T > tMin.
// A ray starting inside a solid hits the exit of the interval it is in.
func FirstHit(intervals []Interval, tMin float64) (Intersection, bool) {
	for _, iv := range intervals {
		if iv.Enter.T > tMin && !math.IsInf(iv.Enter.T, 0) {
			return iv.Enter, true
		}
		if iv.Exit.T > tMin && !math.IsInf(iv.Exit.T, 0) {
			return iv.Exit, true
		}
	}
	return Intersection{}, false
}

// appendInterval drops zero-length ranges
func appendInterval(out []Interval, enter, exit Intersection) []Interval {
	if enter.T < exit.T {
		out = append(out, Interval{Enter: enter, Exit: exit})
	}
	return out
}

// unionIntervals merges two sorted, disjoint lists. Touching ranges are joined.
func unionIntervals(a, b []Interval) []Interval {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Enter.T < all[j].Enter.T
	})

	out := make([]Interval, 0, len(all))
	cur := all[0]
	for _, iv := range all[1:] {
		if iv.Enter.T <= cur.Exit.T {
			if iv.Exit.T > cur.Exit.T {
				cur.Exit = iv.Exit
			}
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	return append(out, cur)
}

// intersectIntervals keeps the ranges covered by both lists
func intersectIntervals(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		enter := a[i].Enter
		if b[j].Enter.T > enter.T {
			enter = b[j].Enter
		}
		exit := a[i].Exit
		if b[j].Exit.T < exit.T {
			exit = b[j].Exit
		}
		out = appendInterval(out, enter, exit)

		if a[i].Exit.T < b[j].Exit.T {
			i++
		} else {
			j++
		}
	}
	return out
}

// subtractIntervals removes every range of b from a. Boundaries taken from b
// face the other way in the result.
func subtractIntervals(a, b []Interval) []Interval {
	if len(b) == 0 {
		return a
	}

	var out []Interval
	start := 0
	for _, iv := range a {
		enter, exit := iv.Enter, iv.Exit
		alive := true

		for start < len(b) && b[start].Exit.T <= enter.T {
			start++
		}
		for j := start; j < len(b); j++ {
			cut := b[j]
			if cut.Enter.T >= exit.T {
				break
			}
			if cut.Exit.T <= enter.T {
				continue
			}
			if cut.Enter.T > enter.T {
				out = appendInterval(out, enter, cut.Enter.flipped())
			}
			if cut.Exit.T >= exit.T {
				alive = false
				break
			}
			enter = cut.Exit.flipped()
		}

		if alive {
			out = appendInterval(out, enter, exit)
		}
	}
	return out
}
