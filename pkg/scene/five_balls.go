package scene

import (
	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// FiveBallsPositions are the X coordinates of the five spheres, in insertion order
var FiveBallsPositions = []float64{0, -2.2, -4.4, 2.2, 4.4}

// NewFiveBallsScene creates five unit spheres in a row along the X axis,
// combined by a single union that carries the shared Phong material
func NewFiveBallsScene() *Scene {
	s := NewScene("Five Balls")
	s.BackgroundColor = core.NewVec3(0.0, 0.05, 0.05)
	s.Camera = NewStaticCamera(core.NewVec3(0, 0, -10), core.NewVec3(0, 0, 1), 60)

	s.AddLight(lights.NewAmbientLight(0.8))
	s.AddLight(lights.NewPointLight(core.NewVec3(-5, 3, -3), 1.0))

	root := phongRoot(csg.OpUnion, material.NewPhongMaterial(core.NewVec3(0.5, 0.5, 0.5), 0.1, 0.6, 0.3, 16))
	s.Root = root

	colors := []core.Vec3{
		core.NewVec3(1.0, 0.6, 0.0),
		core.NewVec3(0.2, 0.9, 0.5),
		core.NewVec3(0.1, 0.3, 1.0),
		core.NewVec3(1.0, 0.2, 0.2),
		core.NewVec3(0.1, 0.4, 0.0),
	}

	for i, x := range FiveBallsPositions {
		sphere := colored(csg.NewSphere(), colors[i])
		if i == len(FiveBallsPositions)-1 {
			mustSet(sphere, csg.PropertyTexture, csg.TextureValue{
				Texture: material.NewCheckerTexture(80, 40, core.NewVec3(1.0, 0.8, 0.2)),
			})
		}
		mustInsert(root, sphere, core.Translation(x, 0, 0))
	}

	return s
}
