package csg

import (
	"fmt"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Freeze marks every node under root as read-only and caches world
// transforms and bounds. After Freeze the tree can be intersected
// concurrently. Freezing twice is harmless.
func Freeze(root Intersectable) {
	if isNil(root) {
		return
	}
	b := root.base()
	inv, ok := b.worldInverse()
	freeze(root, b.worldTransform(), inv, ok)
}

func freeze(n Intersectable, world, worldInv core.Transform, invertible bool) {
	b := n.base()
	b.world = world
	b.normal = normalMatrix(worldInv, invertible)

	if inner, ok := n.(*InnerNode); ok {
		for _, c := range inner.children {
			freeze(c.node, world.Mul(c.transform), c.inverse.Mul(worldInv), invertible && c.invErr == nil)
		}
		inner.bounds = inner.computeBounds()
	}
	b.frozen = true
}

// Validate walks the subtree and returns ErrInvalidTransform for the first
// child whose transform has no inverse. The error names the path to that child.
func Validate(root Intersectable) error {
	if isNil(root) {
		return fmt.Errorf("validate: %w: nil root", ErrInvalidArgument)
	}
	return validate(root, root.Kind())
}

func validate(n Intersectable, path string) error {
	inner, ok := n.(*InnerNode)
	if !ok {
		return nil
	}
	for i, c := range inner.children {
		childPath := fmt.Sprintf("%s/%d:%s", path, i, c.node.Kind())
		if c.invErr != nil {
			return fmt.Errorf("%w at %s: %w", ErrInvalidTransform, childPath, c.invErr)
		}
		if err := validate(c.node, childPath); err != nil {
			return err
		}
	}
	return nil
}

// Path names n by its position under the root, in the form used by
// Validate errors: "union/2:difference/0:cube"
func Path(n Intersectable) string {
	if isNil(n) {
		return ""
	}
	parent := n.Parent()
	if parent == nil {
		return n.Kind()
	}
	for i, c := range parent.children {
		if c.node == n {
			return fmt.Sprintf("%s/%d:%s", Path(parent), i, n.Kind())
		}
	}
	return n.Kind()
}
