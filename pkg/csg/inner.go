package csg

import (
	"fmt"
	"math"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// Child is a node together with its child-to-parent transform
type Child struct {
	Node      Intersectable
	Transform core.Transform
}

type childEntry struct {
	node      Intersectable
	transform core.Transform // child-local to parent frame
	inverse   core.Transform // parent frame to child-local
	invErr    error          // set when transform is singular
}

// InnerNode combines its children with a set operation
type InnerNode struct {
	nodeBase
	Operation SetOperation

	children []childEntry
	bounds   core.AABB // cached by Freeze
}

// NewInnerNode creates an empty inner node
func NewInnerNode(op SetOperation) *InnerNode {
	return &InnerNode{Operation: op}
}

// Kind returns the name of the node's set operation
func (n *InnerNode) Kind() string {
	return n.Operation.String()
}

// InsertChild appends node to the children, placed by transform.
//
// It fails with ErrInvalidArgument when node is nil, already has a parent or
// would become its own ancestor, and with ErrFrozen when either n or node
// has been frozen. A transform without an inverse is accepted; Validate
// reports it as ErrInvalidTransform and Intersect ignores that child.
func (n *InnerNode) InsertChild(node Intersectable, transform core.Transform) error {
	if isNil(node) {
		return fmt.Errorf("insert child: %w: node is nil", ErrInvalidArgument)
	}
	if n.frozen {
		return fmt.Errorf("insert child: %w", ErrFrozen)
	}

	b := node.base()
	if b.frozen {
		return fmt.Errorf("insert child: %w: %s is frozen", ErrFrozen, node.Kind())
	}
	if b.parent != nil {
		return fmt.Errorf("insert child: %w: %s already has a parent", ErrInvalidArgument, node.Kind())
	}
	if inner, ok := node.(*InnerNode); ok {
		for p := n; p != nil; p = p.parent {
			if p == inner {
				return fmt.Errorf("insert child: %w: node cannot contain itself", ErrInvalidArgument)
			}
		}
	}

	inverse, err := transform.Inverse()
	n.children = append(n.children, childEntry{
		node:      node,
		transform: transform,
		inverse:   inverse,
		invErr:    err,
	})
	b.parent = n
	b.toParent = transform
	b.fromParent = inverse
	b.singular = err != nil
	return nil
}

// Children returns a copy of the child list in insertion order
func (n *InnerNode) Children() []Child {
	out := make([]Child, len(n.children))
	for i, c := range n.children {
		out[i] = Child{Node: c.node, Transform: c.transform}
	}
	return out
}

// Len returns the number of children
func (n *InnerNode) Len() int {
	return len(n.children)
}

// Freeze makes the subtree rooted at n read-only
func (n *InnerNode) Freeze() {
	Freeze(n)
}

// Validate reports the first child transform in the subtree that cannot be inverted
func (n *InnerNode) Validate() error {
	return Validate(n)
}

// Intersect implements Intersectable. Children are folded left to right in
// insertion order, which matters for OpDifference.
func (n *InnerNode) Intersect(ray core.Ray) []Interval {
	var acc []Interval
	first := true

	for _, c := range n.children {
		if c.invErr != nil {
			continue
		}

		local := c.inverse.Ray(ray)
		var next []Interval
		if c.node.LocalBounds().Hit(local, math.Inf(-1), math.Inf(1)) {
			next = c.node.Intersect(local)
		}

		if first {
			acc = next
			first = false
		} else {
			acc = n.Operation.combine(acc, next)
		}

		// Nothing can grow back once an intersection or difference is empty
		if len(acc) == 0 && (n.Operation == OpIntersection || n.Operation == OpDifference) {
			return nil
		}
	}
	return acc
}

// LocalBounds implements Intersectable
func (n *InnerNode) LocalBounds() core.AABB {
	if n.frozen {
		return n.bounds
	}
	return n.computeBounds()
}

func (n *InnerNode) computeBounds() core.AABB {
	box := core.EmptyAABB()
	first := true
	for _, c := range n.children {
		if c.invErr != nil {
			continue
		}
		childBox := c.node.LocalBounds().Transform(c.transform)
		switch {
		case first:
			box = childBox
		case n.Operation == OpIntersection:
			box = box.Intersect(childBox)
		case n.Operation == OpDifference:
			// Subtracting never enlarges the first child
		default:
			box = box.Union(childBox)
		}
		first = false
	}
	return box
}
