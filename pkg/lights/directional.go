package lights

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// DirectionalLight models a light infinitely far away, such as the sun
type DirectionalLight struct {
	Direction core.Vec3 // Direction the light travels, normalized
	Intensity core.Vec3
}

// NewDirectionalLight creates a directional light travelling along direction
func NewDirectionalLight(direction core.Vec3, intensity float64) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Intensity: core.Gray(intensity)}
}

func (d *DirectionalLight) Type() LightType {
	return LightTypeDirectional
}

// Illuminate implements LightSource
func (d *DirectionalLight) Illuminate(point core.Vec3) (LightSample, bool) {
	if d.Direction.LengthSquared() == 0 {
		return LightSample{}, false
	}
	return LightSample{
		Direction: d.Direction.Negate(),
		Distance:  math.Inf(1),
		Intensity: d.Intensity,
	}, true
}
