package material

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// CheckerTexture replaces the surface color on every other check.
// Fu and Fv give the number of checks across the full [0,1] texture range.
type CheckerTexture struct {
	Fu    float64
	Fv    float64
	Color core.Vec3 // Color of the odd checks
}

// NewCheckerTexture creates a checkerboard texture
func NewCheckerTexture(fu, fv float64, color core.Vec3) *CheckerTexture {
	return &CheckerTexture{Fu: fu, Fv: fv, Color: color}
}

// Apply implements Texture
func (c *CheckerTexture) Apply(color core.Vec3, uv core.Vec2) core.Vec3 {
	checkU := int64(math.Floor(uv.X * c.Fu))
	checkV := int64(math.Floor(uv.Y * c.Fv))
	if (checkU+checkV)&1 != 0 {
		return c.Color
	}
	return color
}

// StripeTexture alternates the surface color with Color along u
type StripeTexture struct {
	Frequency float64
	Color     core.Vec3
}

// NewStripeTexture creates a stripe texture
func NewStripeTexture(frequency float64, color core.Vec3) *StripeTexture {
	return &StripeTexture{Frequency: frequency, Color: color}
}

// Apply implements Texture
func (s *StripeTexture) Apply(color core.Vec3, uv core.Vec2) core.Vec3 {
	if int64(math.Floor(uv.X*s.Frequency))&1 != 0 {
		return s.Color
	}
	return color
}
