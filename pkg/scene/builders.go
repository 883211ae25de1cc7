package scene

import (
	"fmt"

	"github.com/df07/go-csg-raytracer/pkg/core"
	"github.com/df07/go-csg-raytracer/pkg/csg"
	"github.com/df07/go-csg-raytracer/pkg/material"
)

// mustInsert adds a child to a hard-coded scene; failure is a programming error
func mustInsert(parent *csg.InnerNode, child csg.Intersectable, transform core.Transform) {
	if err := parent.InsertChild(child, transform); err != nil {
		panic(fmt.Sprintf("built-in scene: %v", err))
	}
}

// mustSet sets an attribute on a hard-coded scene node
func mustSet(n csg.Intersectable, key csg.PropertyName, value csg.Value) {
	if err := n.SetAttribute(key, value); err != nil {
		panic(fmt.Sprintf("built-in scene: %v", err))
	}
}

// colored creates a primitive with a COLOR attribute
func colored[T csg.Intersectable](n T, color core.Vec3) T {
	mustSet(n, csg.PropertyColor, csg.ColorValue{Color: color})
	return n
}

// labeled attaches a LABEL attribute
func labeled[T csg.Intersectable](n T, label string) T {
	mustSet(n, csg.PropertyLabel, csg.LabelValue{Label: label})
	return n
}

// phongRoot creates a root node that carries the Phong model and a shared material
func phongRoot(op csg.SetOperation, mat *material.PhongMaterial) *csg.InnerNode {
	root := csg.NewInnerNode(op)
	mustSet(root, csg.PropertyReflectanceModel, csg.ReflectanceValue{Model: material.NewPhongModel()})
	mustSet(root, csg.PropertyMaterial, csg.MaterialValue{Material: mat})
	return root
}
