// Package rds implements the Resilient Data Set subsystem: translation of a
// parsed tag-query tree into materialized cache rows, the catalog that
// indexes them, and the invalidation protocol that keeps the cache coherent
// with mutations to the tag/object catalog.
package rds

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is the comparison operator carried by a Triple atom.
type Op int

const (
	OpEQ Op = iota
	OpContains
	OpGT
	OpLT
)

// canonical returns the token used in the canonical subquery grammar.
func (o Op) canonical() (string, error) {
	switch o {
	case OpEQ:
		return "eq", nil
	case OpContains:
		return "inc", nil
	case OpGT:
		return "gt", nil
	case OpLT:
		return "lt", nil
	default:
		return "", fmt.Errorf("rds: unknown operator %d", o)
	}
}

// sqlCompare returns the SQL comparison operator for this Op. CONTAINS is
// handled specially by callers since it needs the value wrapped in %...%.
func (o Op) sqlCompare() (string, error) {
	switch o {
	case OpEQ:
		return "=", nil
	case OpContains:
		return "like", nil
	case OpGT:
		return ">", nil
	case OpLT:
		return "<", nil
	default:
		return "", fmt.Errorf("rds: unknown operator %d", o)
	}
}

// AtomKind distinguishes the three TagAtom variants.
type AtomKind int

const (
	AtomByID AtomKind = iota
	AtomByName
	AtomTriple
)

// TagAtom is one tag assertion: a direct id reference, a tag name, or a
// namespaced triple comparison.
type TagAtom struct {
	Kind AtomKind

	TagID int64 // AtomByID

	Tag string // AtomByName

	Namespace string // AtomTriple
	Key       string
	Op        Op
	Value     string
}

// ByID constructs a direct tag-id atom.
func ByID(tagID int64) TagAtom { return TagAtom{Kind: AtomByID, TagID: tagID} }

// ByName constructs a tag-name atom.
func ByName(tag string) TagAtom { return TagAtom{Kind: AtomByName, Tag: tag} }

// Triple constructs a namespace/key/op/value atom.
func Triple(namespace, key string, op Op, value string) TagAtom {
	return TagAtom{Kind: AtomTriple, Namespace: namespace, Key: key, Op: op, Value: value}
}

// NegatedAtom is a tag assertion that must NOT match, with its own
// reasoner-expanded alternatives.
type NegatedAtom struct {
	Atom    TagAtom
	Related []TagAtom
}

// AtomNode is one link of a Conjunction's AND chain: a head atom, the
// reasoner-expanded tags that satisfy it as alternatives, and the atoms
// that must not match alongside it.
type AtomNode struct {
	Atom    TagAtom
	Related []TagAtom
	Negated []NegatedAtom
}

// Conjunction is a non-empty AND chain of atoms (an "and-node"). The zero
// value (no Atoms) is the empty conjunction; callers must not canonicalize
// or build it directly — Coordinator treats an empty Disjunction as
// EmptyQuery before reaching that code.
type Conjunction struct {
	Atoms []AtomNode
}

// Head returns the first atom of the chain, which Phase 2 of RdsBuilder
// seeds from. ok is false for an empty conjunction.
func (c Conjunction) Head() (AtomNode, bool) {
	if len(c.Atoms) == 0 {
		return AtomNode{}, false
	}
	return c.Atoms[0], true
}

// Rest returns every atom after the head, which Phase 3 intersects against.
func (c Conjunction) Rest() []AtomNode {
	if len(c.Atoms) <= 1 {
		return nil
	}
	return c.Atoms[1:]
}

// Disjunction is an ordered sequence of Conjunctions; its semantics is set
// union over whatever each Conjunction resolves to.
type Disjunction []Conjunction

// FileHandle is the external representation of one resolved object.
type FileHandle struct {
	Inode int64
	Name  string
}

// RdsID is a monotonically assigned catalog identifier. Zero means "no
// RDS yet".
type RdsID int64

// Fingerprint is the ordered list of RdsIDs answering one Disjunction.
type Fingerprint []RdsID

// String renders the comma-joined fingerprint grammar: id ("," id)*.
func (f Fingerprint) String() string {
	parts := make([]string, len(f))
	for i, id := range f {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}

// ParseFingerprint parses the fingerprint grammar back into ids. An empty
// string yields an empty, non-nil Fingerprint.
func ParseFingerprint(s string) (Fingerprint, error) {
	if s == "" {
		return Fingerprint{}, nil
	}
	parts := strings.Split(s, ",")
	out := make(Fingerprint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("rds: invalid fingerprint %q: %w", s, err)
		}
		out = append(out, RdsID(n))
	}
	return out, nil
}
