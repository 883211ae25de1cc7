package csg

import (
	"fmt"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Intersectable is any node of the CSG tree. The set of implementations is
// closed: *InnerNode, *Sphere, *Cube, *Plane and *Cylinder.
type Intersectable interface {
	// Intersect returns the sorted, disjoint ranges of ray parameter during
	// which the ray, given in this node's local frame, is inside the solid
	Intersect(ray core.Ray) []Interval

	// LocalBounds returns a conservative box around the solid in its local frame
	LocalBounds() core.AABB

	// Kind names the node type ("sphere", "union", ...)
	Kind() string

	// SetAttribute sets or replaces an attribute on this node
	SetAttribute(key PropertyName, value Value) error

	// Attribute returns the attribute stored on this node only
	Attribute(key PropertyName) (Value, bool)

	// Parent returns the inner node this node was inserted into, or nil
	Parent() *InnerNode

	base() *nodeBase
}

// nodeBase holds the state every node shares: attributes, the parent link
// and transforms cached by Freeze
type nodeBase struct {
	parent     *InnerNode
	toParent   core.Transform // child-to-parent transform, valid when parent != nil
	fromParent core.Transform // inverse of toParent, valid when singular is false
	singular   bool
	attrs      map[PropertyName]Value
	frozen     bool

	world  core.Transform // local-to-world, valid when frozen
	normal core.Transform // inverse transpose of world, valid when frozen
}

func (b *nodeBase) base() *nodeBase { return b }

// Parent implements Intersectable
func (b *nodeBase) Parent() *InnerNode { return b.parent }

// Frozen reports whether the node has been frozen
func (b *nodeBase) Frozen() bool { return b.frozen }

// SetAttribute implements Intersectable
func (b *nodeBase) SetAttribute(key PropertyName, value Value) error {
	if b.frozen {
		return fmt.Errorf("set attribute %s: %w", key, ErrFrozen)
	}
	if !validValue(value) {
		return fmt.Errorf("set attribute %s: %w: nil value", key, ErrInvalidArgument)
	}
	if b.attrs == nil {
		b.attrs = make(map[PropertyName]Value)
	}
	b.attrs[key] = value
	return nil
}

// Attribute implements Intersectable
func (b *nodeBase) Attribute(key PropertyName) (Value, bool) {
	v, ok := b.attrs[key]
	return v, ok
}

func (b *nodeBase) parentBase() *nodeBase {
	if b.parent == nil {
		return nil
	}
	return &b.parent.nodeBase
}

// worldTransform maps this node's local frame into the root frame
func (b *nodeBase) worldTransform() core.Transform {
	if b.frozen {
		return b.world
	}
	t := core.Identity()
	for n := b; n.parent != nil; n = n.parentBase() {
		t = n.toParent.Mul(t)
	}
	return t
}

// worldInverse maps root-frame points into this node's local frame. It
// multiplies the cached per-child inverses rather than inverting the world
// matrix, so deep chains of small scales stay exact. ok is false when a
// transform on the chain is singular.
func (b *nodeBase) worldInverse() (inv core.Transform, ok bool) {
	inv = core.Identity()
	for n := b; n.parent != nil; n = n.parentBase() {
		if n.singular {
			return core.Identity(), false
		}
		inv = inv.Mul(n.fromParent)
	}
	return inv, true
}

// normalTransform carries local normals into the root frame.
// Singular chains fall back to the identity; Validate reports them and
// Intersect never reaches a node below one.
func (b *nodeBase) normalTransform() core.Transform {
	if b.frozen {
		return b.normal
	}
	return normalMatrix(b.worldInverse())
}

func normalMatrix(worldInv core.Transform, ok bool) core.Transform {
	if !ok {
		return core.Identity()
	}
	return worldInv.Transpose()
}

// WorldTransform returns the transform from n's local frame to the root frame
func WorldTransform(n Intersectable) core.Transform {
	if isNil(n) {
		return core.Identity()
	}
	return n.base().worldTransform()
}

// Bounds returns a conservative root-frame box around n
func Bounds(n Intersectable) core.AABB {
	if isNil(n) {
		return core.EmptyAABB()
	}
	return n.LocalBounds().Transform(n.base().worldTransform())
}

// isNil reports whether n is nil or a typed nil pointer
func isNil(n Intersectable) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *InnerNode:
		return v == nil
	case *Sphere:
		return v == nil
	case *Cube:
		return v == nil
	case *Plane:
		return v == nil
	case *Cylinder:
		return v == nil
	}
	return false
}
