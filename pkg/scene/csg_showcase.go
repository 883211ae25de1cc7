package scene

import (
	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/lights"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// NewCSGShowcaseScene places one solid per set operation on a ground plane:
// cube minus sphere, cube intersect sphere, a two-sphere xor and a capsule union
func NewCSGShowcaseScene() *Scene {
	s := NewScene("CSG Showcase")
	s.BackgroundColor = core.NewVec3(0.55, 0.7, 0.9)
	s.Camera = &StaticCamera{
		Center:    core.NewVec3(0, 3, -12),
		Direction: core.NewVec3(0, -0.25, 1),
		Up:        core.NewVec3(0, 1, 0),
		FOV:       65,
	}
	s.SamplingConfig.MaxDepth = 4

	s.AddLight(lights.NewAmbientLight(0.4))
	s.AddLight(lights.NewPointLight(core.NewVec3(-6, 8, -8), 0.9))
	s.AddLight(lights.NewDirectionalLight(core.NewVec3(1, -1, 0.5), 0.3))

	root := phongRoot(csg.OpUnion, material.NewPhongMaterial(core.Gray(0.7), 0.2, 0.6, 0.3, 32))
	s.Root = root

	cutter := func() *csg.Sphere { return csg.NewSphere() }
	sphereScale := core.Scaling(1.3, 1.3, 1.3)

	// Cube with a spherical bite taken out of every face
	diff := labeled(csg.NewInnerNode(csg.OpDifference), "difference")
	mustSet(diff, csg.PropertyColor, csg.ColorValue{Color: core.NewVec3(0.9, 0.3, 0.2)})
	mustInsert(diff, csg.NewCube(), core.Identity())
	mustInsert(diff, cutter(), sphereScale)
	mustInsert(root, diff, core.Translation(-4.5, 0, 0).Mul(core.RotationY(30)))

	// Rounded cube
	inter := labeled(csg.NewInnerNode(csg.OpIntersection), "intersection")
	mustSet(inter, csg.PropertyColor, csg.ColorValue{Color: core.NewVec3(0.2, 0.6, 0.9)})
	mustInsert(inter, csg.NewCube(), core.Identity())
	mustInsert(inter, cutter(), sphereScale)
	mustInsert(root, inter, core.Translation(-1.5, 0, 0).Mul(core.RotationY(30)))

	// Two overlapping spheres with the shared lens removed
	xor := labeled(csg.NewInnerNode(csg.OpXor), "xor")
	mustSet(xor, csg.PropertyColor, csg.ColorValue{Color: core.NewVec3(0.3, 0.8, 0.3)})
	mustInsert(xor, csg.NewSphere(), core.Translation(-0.5, 0, 0))
	mustInsert(xor, csg.NewSphere(), core.Translation(0.5, 0, 0))
	mustInsert(root, xor, core.Translation(1.5, 0, 0).Mul(core.RotationY(-60)).Mul(core.Scaling(0.8, 0.8, 0.8)))

	// Capsule: a cylinder with two spherical caps
	capsule := labeled(csg.NewInnerNode(csg.OpUnion), "union")
	mustSet(capsule, csg.PropertyColor, csg.ColorValue{Color: core.NewVec3(0.9, 0.8, 0.2)})
	mustInsert(capsule, csg.NewCylinder(), core.Identity())
	mustInsert(capsule, csg.NewSphere(), core.Translation(0, 0, 1))
	mustInsert(capsule, csg.NewSphere(), core.Translation(0, 0, -1))
	mustInsert(root, capsule, core.Translation(4.5, 0, 0).Mul(core.RotationX(-90)).Mul(core.Scaling(0.6, 0.6, 0.6)))

	// Ground: the plane's +Z normal turned to +Y
	ground := labeled(colored(csg.NewPlane(), core.Gray(0.9)), "ground")
	mustSet(ground, csg.PropertyTexture, csg.TextureValue{
		Texture: material.NewCheckerTexture(2, 2, core.Gray(0.3)),
	})
	mustInsert(root, ground, core.Translation(0, -1.3, 0).Mul(core.RotationX(-90)))

	return s
}
