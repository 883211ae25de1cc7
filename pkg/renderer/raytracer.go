package renderer

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/material"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

const (
	// hitEpsilon keeps secondary rays from re-hitting the surface they start on
	hitEpsilon = 1e-6

	// surfaceOffset moves secondary ray origins off the surface along the normal
	surfaceOffset = 1e-5
)

var (
	fallbackMaterial = material.DefaultPhongMaterial()
	fallbackModel    = material.NewPhongModel()
)

// Raytracer shades rays against a prepared scene
type Raytracer struct {
	scene  *scene.Scene
	width  int
	height int
	config scene.SamplingConfig
}

// NewRaytracer creates a raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene, width, height int) *Raytracer {
	return &Raytracer{
		scene:  s,
		width:  width,
		height: height,
		config: s.SamplingConfig,
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config scene.SamplingConfig) {
	rt.config = config
}

// SamplingConfig returns the active sampling configuration
func (rt *Raytracer) SamplingConfig() scene.SamplingConfig {
	return rt.config
}

// RayColor returns the color seen along ray. depth bounds the number of
// mirror reflections; a depth of zero or less gathers no light.
func (rt *Raytracer) RayColor(ray core.Ray, depth int) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := rt.scene.FirstHit(ray, hitEpsilon)
	if !isHit {
		return rt.scene.BackgroundColor
	}

	shade := rt.shadeSurface(ray, hit)
	result := shade.Color

	// Ks doubles as mirror reflectivity
	if shade.Material.Ks > 0 && depth > 1 {
		reflected := core.NewRay(shade.origin(), shade.incoming.Reflect(shade.Normal))
		result = result.Add(rt.RayColor(reflected, depth-1).Multiply(shade.Material.Ks))
	}

	return result
}

// SurfaceShade is the local illumination at one surface crossing
type SurfaceShade struct {
	Point        core.Vec3 // World-space hit point
	Normal       core.Vec3 // Unit normal facing the incoming ray
	SurfaceColor core.Vec3 // Color after attribute and texture resolution
	Color        core.Vec3 // Sum of every light's contribution
	Material     *material.PhongMaterial
	Model        material.ReflectanceModel

	incoming core.Vec3
}

func (s SurfaceShade) origin() core.Vec3 {
	return s.Point.Add(s.Normal.Multiply(surfaceOffset))
}

// shadeSurface resolves the hit's attributes and sums the light sources
func (rt *Raytracer) shadeSurface(ray core.Ray, hit csg.Intersection) SurfaceShade {
	incoming := ray.Direction.Normalize()
	normal := hit.Normal()
	if normal.Dot(incoming) > 0 {
		normal = normal.Negate()
	}

	mat, err := csg.LookupMaterial(hit.Solid)
	if err != nil {
		mat = fallbackMaterial
	}
	model, err := csg.LookupReflectance(hit.Solid)
	if err != nil {
		model = fallbackModel
	}

	shade := SurfaceShade{
		Point:        ray.At(hit.T),
		Normal:       normal,
		SurfaceColor: surfaceColor(hit, mat),
		Material:     mat,
		Model:        model,
		incoming:     incoming,
	}

	toViewer := incoming.Negate()
	for _, source := range rt.scene.Sources {
		sample, ok := source.Illuminate(shade.Point)
		if !ok {
			continue
		}
		if !sample.Ambient && rt.occluded(shade.origin(), sample) {
			continue
		}
		shade.Color = shade.Color.Add(model.ColorReflection(mat, shade.SurfaceColor, material.ShadingInput{
			Normal:    normal,
			ToLight:   sample.Direction,
			ToViewer:  toViewer,
			Intensity: sample.Intensity,
			Ambient:   sample.Ambient,
		}))
	}

	return shade
}

// surfaceColor applies COLOR over the material color, then TEXTURE
func surfaceColor(hit csg.Intersection, mat *material.PhongMaterial) core.Vec3 {
	c, err := csg.LookupColor(hit.Solid)
	if err != nil {
		c = mat.Color
	}
	if texture, err := csg.LookupTexture(hit.Solid); err == nil {
		c = texture.Apply(c, hit.TextureCoord())
	}
	return c
}

// occluded reports whether any surface lies between origin and the light
func (rt *Raytracer) occluded(origin core.Vec3, sample lights.LightSample) bool {
	hit, isHit := rt.scene.FirstHit(core.NewRay(origin, sample.Direction), hitEpsilon)
	return isHit && hit.T < sample.Distance
}

// vec3ToColor clamps a linear color into an 8-bit RGBA pixel
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(255*colorVec.X + 0.5),
		G: uint8(255*colorVec.Y + 0.5),
		B: uint8(255*colorVec.Z + 0.5),
		A: 255,
	}
}

// pixelRay returns the camera ray for pixel (i, j). The first sample of a
// pixel goes through its center; later samples are jittered.
func (rt *Raytracer) pixelRay(i, j, sampleIndex int, random *rand.Rand) core.Ray {
	dx, dy := 0.5, 0.5
	if sampleIndex > 0 {
		dx, dy = random.Float64(), random.Float64()
	}
	return rt.scene.Camera.Ray(float64(i)+dx, float64(j)+dy, rt.width, rt.height)
}

// RenderPass renders the whole image on the calling goroutine
func (rt *Raytracer) RenderPass() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))
	random := rand.New(rand.NewSource(42))
	samples := max(1, rt.config.SamplesPerPixel)

	for j := 0; j < rt.height; j++ {
		for i := 0; i < rt.width; i++ {
			colorAccum := core.Vec3{}
			for sample := 0; sample < samples; sample++ {
				colorAccum = colorAccum.Add(rt.RayColor(rt.pixelRay(i, j, sample, random), rt.config.MaxDepth))
			}
			img.SetRGBA(i, j, vec3ToColor(colorAccum.Multiply(1.0/float64(samples))))
		}
	}

	return img
}
