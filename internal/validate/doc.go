// Package validate owns the manifest predicate catalog and rule binding.
//
// Ownership boundary:
// - named predicates over tree nodes
// - rule files that pair a nodepath with a predicate
// - evaluation of bound rules against a store
//
// Predicates are total: unparseable input yields false, never an error.
// Deciding how failures are reported to a user belongs to the caller.
package validate
