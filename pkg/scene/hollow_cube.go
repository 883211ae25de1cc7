package scene

import (
	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// NewHollowCubeScene creates a thin-walled cube with a round window drilled
// through each pair of opposite faces and a mirror ball inside
func NewHollowCubeScene() *Scene {
	s := NewScene("Hollow Cube")
	s.BackgroundColor = core.NewVec3(0.1, 0.1, 0.15)
	s.Camera = &StaticCamera{
		Center:    core.NewVec3(4, 3.5, -6),
		Direction: core.NewVec3(-4, -3.5, 6),
		Up:        core.NewVec3(0, 1, 0),
		FOV:       50,
	}

	s.AddLight(lights.NewAmbientLight(0.3))
	s.AddLight(lights.NewPointLight(core.NewVec3(5, 6, -4), 0.8))
	s.AddLight(lights.NewSpotLight(
		core.NewVec3(-3, 6, -3), core.NewVec3(0, 0, 0), core.Gray(0.6), 25, 5))

	root := phongRoot(csg.OpUnion, material.NewPhongMaterial(core.Gray(0.8), 0.15, 0.7, 0.2, 24))
	s.Root = root

	// Difference is order sensitive: shell first, then everything carved out of it
	shell := labeled(colored(csg.NewInnerNode(csg.OpDifference), core.NewVec3(0.85, 0.55, 0.3)), "shell")
	mustInsert(shell, csg.NewCube(), core.Identity())
	mustInsert(shell, csg.NewCube(), core.Scaling(0.9, 0.9, 0.9))
	drill := core.Scaling(0.55, 0.55, 1.5)
	mustInsert(shell, csg.NewCylinder(), drill)
	mustInsert(shell, csg.NewCylinder(), core.RotationX(90).Mul(drill))
	mustInsert(shell, csg.NewCylinder(), core.RotationY(90).Mul(drill))
	mustInsert(root, shell, core.Scaling(1.5, 1.5, 1.5))

	ball := labeled(colored(csg.NewSphere(), core.Gray(0.9)), "mirror ball")
	mustSet(ball, csg.PropertyMaterial, csg.MaterialValue{
		Material: material.NewPhongMaterial(core.Gray(0.9), 0.05, 0.2, 0.8, 128),
	})
	mustInsert(root, ball, core.Scaling(0.7, 0.7, 0.7))

	return s
}
