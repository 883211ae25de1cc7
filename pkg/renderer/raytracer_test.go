package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/material"
	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// newSphereScene returns a prepared scene with a unit sphere at the origin
// seen by a camera at (0,0,-10) looking down +Z
func newSphereScene(t *testing.T, mat *material.PhongMaterial, sources ...lights.LightSource) *scene.Scene {
	t.Helper()
	return newColoredSphereScene(t, mat, nil, sources...)
}

// newColoredSphereScene is newSphereScene with an optional COLOR on the sphere
func newColoredSphereScene(t *testing.T, mat *material.PhongMaterial, color *core.Vec3, sources ...lights.LightSource) *scene.Scene {
	t.Helper()
	s := scene.NewScene("sphere")
	s.BackgroundColor = core.NewVec3(0, 0, 1)

	root := csg.NewInnerNode(csg.OpUnion)
	if mat != nil {
		if err := root.SetAttribute(csg.PropertyMaterial, csg.MaterialValue{Material: mat}); err != nil {
			t.Fatal(err)
		}
	}
	sphere := csg.NewSphere()
	if color != nil {
		if err := sphere.SetAttribute(csg.PropertyColor, csg.ColorValue{Color: *color}); err != nil {
			t.Fatal(err)
		}
	}
	if err := root.InsertChild(sphere, core.Identity()); err != nil {
		t.Fatal(err)
	}
	s.Root = root
	for _, light := range sources {
		s.AddLight(light)
	}

	if err := s.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return s
}

var towardSphere = core.NewRay(core.NewVec3(0, 0, -10), core.NewVec3(0, 0, 1))

func TestRayColor_MissReturnsBackground(t *testing.T) {
	s := newSphereScene(t, nil, lights.NewAmbientLight(1))
	rt := NewRaytracer(s, 10, 10)

	got := rt.RayColor(core.NewRay(core.NewVec3(0, 5, -10), core.NewVec3(0, 0, 1)), 4)
	if got != s.BackgroundColor {
		t.Errorf("Expected background %v, got %v", s.BackgroundColor, got)
	}
}

func TestRayColor_ZeroDepthIsBlack(t *testing.T) {
	s := newSphereScene(t, nil, lights.NewAmbientLight(1))
	rt := NewRaytracer(s, 10, 10)

	if got := rt.RayColor(towardSphere, 0); got != (core.Vec3{}) {
		t.Errorf("Expected black, got %v", got)
	}
}

func TestRayColor_Shading(t *testing.T) {
	tests := []struct {
		name    string
		mat     *material.PhongMaterial
		color   *core.Vec3 // COLOR attribute on the sphere
		sources []lights.LightSource
		depth   int
		want    core.Vec3
	}{
		{
			name:    "ambient uses material color",
			mat:     material.NewPhongMaterial(core.NewVec3(0.2, 0.4, 0.6), 1, 0, 0, 1),
			sources: []lights.LightSource{lights.NewAmbientLight(1)},
			depth:   1,
			want:    core.NewVec3(0.2, 0.4, 0.6),
		},
		{
			name:    "color attribute overrides material color",
			mat:     material.NewPhongMaterial(core.NewVec3(0.2, 0.4, 0.6), 0.5, 0, 0, 1),
			color:   &core.Vec3{X: 1},
			sources: []lights.LightSource{lights.NewAmbientLight(1)},
			depth:   1,
			want:    core.NewVec3(0.5, 0, 0),
		},
		{
			name:    "head-on diffuse",
			mat:     material.NewPhongMaterial(core.Gray(1), 0, 1, 0, 1),
			sources: []lights.LightSource{lights.NewPointLight(core.NewVec3(0, 0, -10), 1)},
			depth:   1,
			want:    core.Gray(1),
		},
		{
			name:    "light behind the surface contributes nothing",
			mat:     material.NewPhongMaterial(core.Gray(1), 0, 1, 0, 1),
			sources: []lights.LightSource{lights.NewPointLight(core.NewVec3(0, 0, 10), 1)},
			depth:   1,
			want:    core.Vec3{},
		},
		{
			name:  "mirror reflection of the background",
			mat:   material.NewPhongMaterial(core.Gray(1), 0, 0, 0.5, 1),
			depth: 2,
			want:  core.NewVec3(0, 0, 0.5),
		},
		{
			name:  "reflection stops at max depth",
			mat:   material.NewPhongMaterial(core.Gray(1), 0, 0, 0.5, 1),
			depth: 1,
			want:  core.Vec3{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newColoredSphereScene(t, tt.mat, tt.color, tt.sources...)

			got := NewRaytracer(s, 10, 10).RayColor(towardSphere, tt.depth)
			if !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRayColor_TextureApplied(t *testing.T) {
	s := scene.NewScene("textured")
	sphere := csg.NewSphere()
	mat := material.NewPhongMaterial(core.Gray(1), 1, 0, 0, 1)
	for key, value := range map[csg.PropertyName]csg.Value{
		csg.PropertyMaterial: csg.MaterialValue{Material: mat},
		csg.PropertyTexture:  csg.TextureValue{Texture: material.NewStripeTexture(4, core.NewVec3(1, 0, 0))},
	} {
		if err := sphere.SetAttribute(key, value); err != nil {
			t.Fatal(err)
		}
	}
	s.Root = sphere
	s.AddLight(lights.NewAmbientLight(1))
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}

	hit, ok := s.FirstHit(towardSphere, hitEpsilon)
	if !ok {
		t.Fatal("Expected a hit")
	}
	want := material.NewStripeTexture(4, core.NewVec3(1, 0, 0)).Apply(core.Gray(1), hit.TextureCoord())

	got := NewRaytracer(s, 10, 10).RayColor(towardSphere, 1)
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("Expected textured color %v, got %v", want, got)
	}
}

func TestRayColor_MissingMaterialUsesDefault(t *testing.T) {
	s := newSphereScene(t, nil, lights.NewAmbientLight(1))
	want := fallbackMaterial.Color.Multiply(fallbackMaterial.Ka)

	got := NewRaytracer(s, 10, 10).RayColor(towardSphere, 1)
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOccluded(t *testing.T) {
	s := newSphereScene(t, nil)
	rt := NewRaytracer(s, 10, 10)
	origin := core.NewVec3(0, 0, -3)

	tests := []struct {
		name   string
		sample lights.LightSample
		want   bool
	}{
		{"sphere before light", lights.LightSample{Direction: core.NewVec3(0, 0, 1), Distance: 10}, true},
		{"light before sphere", lights.LightSample{Direction: core.NewVec3(0, 0, 1), Distance: 1}, false},
		{"directional light", lights.LightSample{Direction: core.NewVec3(0, 0, 1), Distance: math.Inf(1)}, true},
		{"facing away", lights.LightSample{Direction: core.NewVec3(0, 0, -1), Distance: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rt.occluded(origin, tt.sample); got != tt.want {
				t.Errorf("occluded = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestShadeSurface_NormalFacesViewer(t *testing.T) {
	s := newSphereScene(t, nil)
	rt := NewRaytracer(s, 10, 10)

	// Starting inside the sphere, the first crossing is the exit
	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 2))
	hit, ok := s.FirstHit(ray, hitEpsilon)
	if !ok {
		t.Fatal("Expected a hit from inside")
	}
	shade := rt.shadeSurface(ray, hit)
	if shade.Normal.Dot(ray.Direction) >= 0 {
		t.Errorf("Normal %v does not face the viewer", shade.Normal)
	}
	if !shade.Point.ApproxEqual(core.NewVec3(0, 0, 1), 1e-9) {
		t.Errorf("Expected hit point (0,0,1), got %v", shade.Point)
	}
}

func TestShadowedPointLight(t *testing.T) {
	tests := []struct {
		name     string
		occluder core.Transform
		shadowed bool
	}{
		// The midpoint between the hit point (0,0,-1) and the light
		{"occluder on the shadow ray", core.Translation(0, 2.5, -2.5), true},
		{"occluder off to the side", core.Translation(3, 2.5, -2.5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.NewScene("shadow")
			root := csg.NewInnerNode(csg.OpUnion)
			if err := root.SetAttribute(csg.PropertyMaterial, csg.MaterialValue{
				Material: material.NewPhongMaterial(core.Gray(1), 0, 1, 0, 1),
			}); err != nil {
				t.Fatal(err)
			}
			if err := root.InsertChild(csg.NewSphere(), core.Identity()); err != nil {
				t.Fatal(err)
			}
			if err := root.InsertChild(csg.NewSphere(), tt.occluder.Mul(core.Scaling(0.5, 0.5, 0.5))); err != nil {
				t.Fatal(err)
			}
			s.Root = root
			s.AddLight(lights.NewPointLight(core.NewVec3(0, 5, -4), 1))
			if err := s.Prepare(); err != nil {
				t.Fatal(err)
			}

			got := NewRaytracer(s, 10, 10).RayColor(towardSphere, 1)
			if black := got == (core.Vec3{}); black != tt.shadowed {
				t.Errorf("Expected shadowed=%t, got color %v", tt.shadowed, got)
			}
		})
	}
}

func TestRenderPass_FiveBalls(t *testing.T) {
	s := scene.NewFiveBallsScene()
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}
	config := s.SamplingConfig
	config.SamplesPerPixel = 1

	rt := NewRaytracer(s, 9, 7)
	rt.SetSamplingConfig(config)
	img := rt.RenderPass()

	if img.Bounds().Dx() != 9 || img.Bounds().Dy() != 7 {
		t.Fatalf("Unexpected image size %v", img.Bounds())
	}

	background := vec3ToColor(s.BackgroundColor)
	if got := img.RGBAAt(0, 0); got != background {
		t.Errorf("Expected background %v in the corner, got %v", background, got)
	}
	if got := img.RGBAAt(4, 3); got == background {
		t.Error("Expected the center pixel to hit the middle ball")
	}
}

func TestVec3ToColor(t *testing.T) {
	tests := []struct {
		in   core.Vec3
		want [3]uint8
	}{
		{core.NewVec3(0, 0.5, 1), [3]uint8{0, 128, 255}},
		{core.NewVec3(-1, 2, 0.2), [3]uint8{0, 255, 51}},
	}
	for _, tt := range tests {
		got := vec3ToColor(tt.in)
		if [3]uint8{got.R, got.G, got.B} != tt.want || got.A != 255 {
			t.Errorf("vec3ToColor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
