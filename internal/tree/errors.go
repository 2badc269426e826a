package tree

import "errors"

var (
	ErrMalformedPath = errors.New("tree: malformed nodepath")
	ErrFrozen        = errors.New("tree: node belongs to a store")
	ErrHasParent     = errors.New("tree: node already has a parent")
	ErrNilNode       = errors.New("tree: nil node")
)
