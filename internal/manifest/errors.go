package manifest

import "errors"

var (
	ErrUnknownFormat = errors.New("manifest: unknown format")
	ErrEmptyDocument = errors.New("manifest: document has no root element")
	ErrMultipleRoots = errors.New("manifest: document has more than one root element")
	ErrInvalidTag    = errors.New("manifest: invalid tag name")
	ErrInvalidShape  = errors.New("manifest: unsupported document shape")
)
