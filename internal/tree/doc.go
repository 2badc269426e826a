// Package tree owns the in-memory manifest tree and nodepath resolution.
//
// Ownership boundary:
// - node/attribute data model
// - nodepath grammar and resolution
// - atomic publication of frozen stores
//
// Tree construction belongs to the loader (internal/manifest); once a Store
// takes ownership of a root, the tree is read-only.
package tree
