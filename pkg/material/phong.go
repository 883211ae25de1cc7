package material

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// PhongMaterial holds the coefficients of the Phong illumination model
type PhongMaterial struct {
	Color core.Vec3 // Base surface color
	Ka    float64   // Ambient coefficient
	Kd    float64   // Diffuse coefficient
	Ks    float64   // Specular coefficient, also used as mirror reflectivity
	H     float64   // Specular exponent (shininess)
}

// NewPhongMaterial creates a Phong material
func NewPhongMaterial(color core.Vec3, ka, kd, ks, h float64) *PhongMaterial {
	return &PhongMaterial{
		Color: color,
		Ka:    ka,
		Kd:    kd,
		Ks:    ks,
		H:     h,
	}
}

// DefaultPhongMaterial returns a neutral gray material
func DefaultPhongMaterial() *PhongMaterial {
	return NewPhongMaterial(core.NewVec3(0.5, 0.5, 0.5), 0.2, 0.5, 0.3, 16)
}

// PhongModel evaluates ambient, diffuse and specular Phong terms.
// Highlights take the light color, not the surface color.
type PhongModel struct{}

// NewPhongModel creates the Phong reflectance model
func NewPhongModel() *PhongModel {
	return &PhongModel{}
}

// Name returns "phong"
func (p *PhongModel) Name() string {
	return "phong"
}

// ColorReflection implements ReflectanceModel
func (p *PhongModel) ColorReflection(mat *PhongMaterial, surfaceColor core.Vec3, in ShadingInput) core.Vec3 {
	if in.Ambient {
		return surfaceColor.MultiplyVec(in.Intensity).Multiply(mat.Ka)
	}

	cosNL := in.Normal.Dot(in.ToLight)
	if cosNL <= 0 {
		return core.Vec3{}
	}

	diffuse := surfaceColor.MultiplyVec(in.Intensity).Multiply(mat.Kd * cosNL)

	// Mirror the light direction about the normal
	reflected := in.Normal.Multiply(2 * cosNL).Subtract(in.ToLight)
	cosRV := reflected.Dot(in.ToViewer)
	if cosRV <= 0 || mat.Ks <= 0 {
		return diffuse
	}

	specular := in.Intensity.Multiply(mat.Ks * math.Pow(cosRV, mat.H))
	return diffuse.Add(specular)
}
