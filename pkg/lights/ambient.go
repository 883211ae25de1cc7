package lights

import "github.com/df07/go-csg-raytracer/pkg/core"

// AmbientLight adds a constant, unshadowed contribution everywhere
type AmbientLight struct {
	Intensity core.Vec3
}

// NewAmbientLight creates an ambient light with equal intensity in all channels
func NewAmbientLight(intensity float64) *AmbientLight {
	return &AmbientLight{Intensity: core.Gray(intensity)}
}

// NewColoredAmbientLight creates an ambient light with an RGB intensity
func NewColoredAmbientLight(intensity core.Vec3) *AmbientLight {
	return &AmbientLight{Intensity: intensity}
}

func (a *AmbientLight) Type() LightType {
	return LightTypeAmbient
}

// Illuminate implements LightSource
func (a *AmbientLight) Illuminate(point core.Vec3) (LightSample, bool) {
	return LightSample{Intensity: a.Intensity, Ambient: true}, true
}
