package rds

import "errors"

// ErrEmptyQuery is returned by Canonicalize for a conjunction with no atoms,
// and surfaces from Coordinator.Prepare when a disjunction contains one. An
// empty disjunction or is_all_path is not reported with it: Prepare returns a
// nil Fingerprint and a nil error in that case.
var ErrEmptyQuery = errors.New("rds: empty query")

// ErrInvalidAtom marks an AtomByID atom that reached the canonicalizer
// without first being resolved to a tag name. This is a programmer error:
// the caller must resolve tag_id -> tag name before building or
// canonicalizing, per invariant 4.
var ErrInvalidAtom = errors.New("rds: id-only atom reached canonicalizer unresolved")
