package csg

import (
	"fmt"
	"strings"
)

// SetOperation selects how an InnerNode combines the solids of its children
type SetOperation int

const (
	OpUnion SetOperation = iota
	OpIntersection
	OpDifference // First child minus every later child
	OpXor        // Points inside an odd number of children
)

var operationNames = map[SetOperation]string{
	OpUnion:        "union",
	OpIntersection: "intersection",
	OpDifference:   "difference",
	OpXor:          "xor",
}

func (op SetOperation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("SetOperation(%d)", int(op))
}

// ParseSetOperation converts a name such as "union" or "Difference" into a SetOperation
func ParseSetOperation(name string) (SetOperation, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for op, n := range operationNames {
		if n == lower {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown set operation %q", ErrInvalidArgument, name)
}

// combine folds the intervals of the next child into the accumulated result
func (op SetOperation) combine(acc, next []Interval) []Interval {
	switch op {
	case OpIntersection:
		return intersectIntervals(acc, next)
	case OpDifference:
		return subtractIntervals(acc, next)
	case OpXor:
		return unionIntervals(subtractIntervals(acc, next), subtractIntervals(next, acc))
	default:
		return unionIntervals(acc, next)
	}
}
