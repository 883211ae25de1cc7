// Package csg implements a constructive solid geometry scene graph.
//
// A tree is built from InnerNode values, each combining its children with a
// SetOperation, and leaf primitives (Sphere, Cube, Plane, Cylinder). Every
// child is stored together with a transform that maps child-local coordinates
// into the parent frame.
//
// Intersecting a ray with a node yields the sorted list of parameter ranges
// during which the ray is inside the solid. Ranges are half-open, closed on
// the entering side. Rays are transformed between frames without being
// normalized, so the parameter t means the same point in every frame.
//
// Attributes (color, material, texture, reflectance model) can be attached to
// any node and are inherited by every descendant unless overridden. Lookup
// walks from a node up to the root.
//
// Construction is single threaded. Once Freeze has been called the tree is
// read-only and may be intersected from any number of goroutines.
package csg
