package scene

import (
	"errors"
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// ErrInvalidCamera is returned for cameras without a usable viewing direction or field of view
var ErrInvalidCamera = errors.New("invalid camera")

// StaticCamera is a pinhole camera with a horizontal field of view
type StaticCamera struct {
	Center    core.Vec3 // Eye position
	Direction core.Vec3 // Viewing direction
	Up        core.Vec3 // Approximate up vector
	FOV       float64   // Horizontal field of view in degrees
}

// NewStaticCamera creates a camera with +Y as the up vector
func NewStaticCamera(center, direction core.Vec3, fov float64) *StaticCamera {
	return &StaticCamera{
		Center:    center,
		Direction: direction,
		Up:        core.NewVec3(0, 1, 0),
		FOV:       fov,
	}
}

// Validate checks the viewing direction and field of view
func (c *StaticCamera) Validate() error {
	if c.Direction.LengthSquared() == 0 || !c.Direction.IsFinite() {
		return errors.Join(ErrInvalidCamera, errors.New("direction must be a non-zero vector"))
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return errors.Join(ErrInvalidCamera, errors.New("field of view must be between 0 and 180 degrees"))
	}
	return nil
}

// basis returns the orthonormal forward, right and up vectors
func (c *StaticCamera) basis() (forward, right, up core.Vec3) {
	forward = c.Direction.Normalize()
	up = c.Up
	if up.LengthSquared() == 0 || math.Abs(up.Normalize().Dot(forward)) > 0.999 {
		// Up is unusable, pick any axis not parallel to forward
		up = core.NewVec3(0, 1, 0)
		if math.Abs(forward.Y) > 0.999 {
			up = core.NewVec3(0, 0, 1)
		}
	}
	right = up.Cross(forward).Normalize()
	up = forward.Cross(right)
	return forward, right, up
}

// Ray returns the primary ray through image position (x, y) of a width x height
// image. Positions are continuous; pixel (i, j) spans [i, i+1) x [j, j+1) with
// the origin at the top-left corner. The returned direction is unit length.
func (c *StaticCamera) Ray(x, y float64, width, height int) core.Ray {
	forward, right, up := c.basis()

	halfWidth := math.Tan(c.FOV * math.Pi / 360)
	halfHeight := halfWidth * float64(height) / float64(width)

	sx := 2*x/float64(width) - 1
	sy := 1 - 2*y/float64(height)

	direction := forward.
		Add(right.Multiply(sx * halfWidth)).
		Add(up.Multiply(sy * halfHeight)).
		Normalize()
	return core.NewRay(c.Center, direction)
}
