package csg

import "errors"

var (
	// ErrAttributeNotFound is returned when no node on the path to the root defines an attribute
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrAttributeType is returned by typed lookups when the stored value has a different kind
	ErrAttributeType = errors.New("attribute has unexpected type")

	// ErrInvalidArgument is returned for nil children, nil values and insertions that would break the tree
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTransform is returned when a child transform cannot be inverted
	ErrInvalidTransform = errors.New("invalid transform")

	// ErrFrozen is returned when a frozen tree is modified
	ErrFrozen = errors.New("scene graph is frozen")
)
