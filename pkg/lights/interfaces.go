package lights

import "github.com/df07/go-csg-raytracer/pkg/core"

type LightType string

const (
	LightTypeAmbient     LightType = "ambient"
	LightTypePoint       LightType = "point"
	LightTypeSpot        LightType = "spot"
	LightTypeDirectional LightType = "directional"
)

// LightSource is anything in the scene's light list that can illuminate a point
type LightSource interface {
	Type() LightType

	// Illuminate returns the light arriving at point.
	// ok is false when the light cannot reach the point at all (e.g. outside a spot cone).
	Illuminate(point core.Vec3) (sample LightSample, ok bool)
}

// LightSample describes the light arriving at a shading point
type LightSample struct {
	Direction core.Vec3 // Unit direction FROM the shading point TO the light
	Distance  float64   // Distance to the light; +Inf for directional lights
	Intensity core.Vec3 // RGB intensity arriving at the point
	Ambient   bool      // Ambient samples have no direction and are never shadowed
}
