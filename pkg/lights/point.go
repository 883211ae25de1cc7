package lights

import (
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// PointLight emits equally in all directions from a single position.
// Intensity does not fall off with distance.
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3
}

// NewPointLight creates a white point light
func NewPointLight(position core.Vec3, intensity float64) *PointLight {
	return &PointLight{Position: position, Intensity: core.Gray(intensity)}
}

// NewColoredPointLight creates a point light with an RGB intensity
func NewColoredPointLight(position core.Vec3, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

func (p *PointLight) Type() LightType {
	return LightTypePoint
}

// Illuminate implements LightSource
func (p *PointLight) Illuminate(point core.Vec3) (LightSample, bool) {
	toLight := p.Position.Subtract(point)
	distance := toLight.Length()
	if distance == 0 {
		return LightSample{}, false
	}

	return LightSample{
		Direction: toLight.Multiply(1 / distance),
		Distance:  distance,
		Intensity: p.Intensity,
	}, true
}

// SpotLight is a point light restricted to a cone with a smooth falloff edge
type SpotLight struct {
	position        core.Vec3 // Light position in world space
	direction       core.Vec3 // Normalized direction vector (from -> to)
	intensity       core.Vec3 // Light intensity/color
	cosTotalWidth   float64   // Cosine of total cone angle (outer edge)
	cosFalloffStart float64   // Cosine of falloff start angle (inner cone)
}

// NewSpotLight creates a spot light at from aimed at to.
// coneAngleDegrees is the half-angle of the cone; the last coneDeltaAngleDegrees fade out.
func NewSpotLight(from, to, intensity core.Vec3, coneAngleDegrees, coneDeltaAngleDegrees float64) *SpotLight {
	direction := to.Subtract(from).Normalize()

	totalWidthRadians := coneAngleDegrees * math.Pi / 180.0
	falloffStartRadians := (coneAngleDegrees - coneDeltaAngleDegrees) * math.Pi / 180.0

	return &SpotLight{
		position:        from,
		direction:       direction,
		intensity:       intensity,
		cosTotalWidth:   math.Cos(totalWidthRadians),
		cosFalloffStart: math.Cos(falloffStartRadians),
	}
}

func (sl *SpotLight) Type() LightType {
	return LightTypeSpot
}

// Illuminate implements LightSource
func (sl *SpotLight) Illuminate(point core.Vec3) (LightSample, bool) {
	toLightVec := sl.position.Subtract(point)
	distance := toLightVec.Length()
	if distance == 0 {
		return LightSample{}, false
	}

	toLight := toLightVec.Multiply(1 / distance)
	attenuation := sl.falloff(sl.direction.Dot(toLight.Negate()))
	if attenuation <= 0 {
		return LightSample{}, false
	}

	return LightSample{
		Direction: toLight,
		Distance:  distance,
		Intensity: sl.intensity.Multiply(attenuation),
	}, true
}

// falloff calculates the spot light falloff
// Based on the cosine of the angle between light direction and direction to point
func (sl *SpotLight) falloff(cosAngle float64) float64 {
	// Outside the total cone width
	if cosAngle < sl.cosTotalWidth {
		return 0.0
	}

	// Inside the inner cone (full intensity)
	if cosAngle >= sl.cosFalloffStart {
		return 1.0
	}

	// Smooth quartic falloff across the transition band
	delta := (cosAngle - sl.cosTotalWidth) / (sl.cosFalloffStart - sl.cosTotalWidth)
	return delta * delta * delta * delta
}
