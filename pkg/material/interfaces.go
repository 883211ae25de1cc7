package material

import (
	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Texture modifies the surface color at a hit point
type Texture interface {
	// Apply returns the textured color given the untextured surface color
	// and the solid's texture coordinates at the hit point
	Apply(color core.Vec3, uv core.Vec2) core.Vec3
}

// ShadingInput describes one light's contribution at a surface point.
// All direction vectors point away from the surface and are unit length.
type ShadingInput struct {
	Normal    core.Vec3 // Surface normal facing the viewer
	ToLight   core.Vec3 // Direction to the light (ignored for ambient light)
	ToViewer  core.Vec3 // Direction back along the incoming ray
	Intensity core.Vec3 // Light intensity reaching the point
	Ambient   bool      // True for ambient contributions
}

// ReflectanceModel turns a material and a light contribution into reflected color
type ReflectanceModel interface {
	// Name identifies the model in scene files and diagnostics
	Name() string

	// ColorReflection returns the color reflected toward the viewer
	ColorReflection(mat *PhongMaterial, surfaceColor core.Vec3, in ShadingInput) core.Vec3
}
