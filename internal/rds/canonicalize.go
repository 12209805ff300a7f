package rds

import (
	"fmt"
	"strings"

	"tagrds/internal/rdslog"
)

// Canonicalize deterministically serializes one Conjunction into its
// canonical subquery string, the cache key used by CatalogStore. Two
// structurally-equal Conjunctions (same atoms, same next-order, same
// related and negated sets in the same traversal order) always produce
// byte-identical output.
//
// Callers must not canonicalize an empty conjunction; ErrEmptyQuery is
// returned if they do, so the mistake surfaces rather than silently keying
// the catalog on "".
func Canonicalize(c Conjunction) (string, error) {
	timer := rdslog.StartTimer(rdslog.CategoryCanonicalize, "Canonicalize")
	defer timer.Stop()

	if len(c.Atoms) == 0 {
		return "", ErrEmptyQuery
	}

	var sb strings.Builder

	// Pass 1: the main AND chain, in next-order.
	for _, node := range c.Atoms {
		rendered, err := renderAtom(node.Atom)
		if err != nil {
			return "", err
		}
		sb.WriteString(rendered)
	}

	// Pass 2: walking the same chain again, every negated member of every
	// node, preceded by "-/". This two-pass shape (rather than interleaving
	// negations inline) is what the canonical grammar's "atom+ neg*"
	// ordering requires.
	for _, node := range c.Atoms {
		for _, neg := range node.Negated {
			rendered, err := renderAtom(neg.Atom)
			if err != nil {
				return "", err
			}
			sb.WriteString("-/")
			sb.WriteString(rendered)
		}
	}

	return sb.String(), nil
}

// renderAtom renders one TagAtom per the canonical grammar:
//
//	ByName{tag}            -> "tag/"
//	Triple{ns,key,op,val}  -> "ns/key/OP/value/"
//
// AtomByID atoms have no canonical rendering: the parser is required to
// resolve tag_id -> tag name before the conjunction ever reaches the
// canonicalizer (invariant 4). Reaching this branch is a programmer error.
func renderAtom(a TagAtom) (string, error) {
	switch a.Kind {
	case AtomByName:
		return a.Tag + "/", nil
	case AtomTriple:
		op, err := a.Op.canonical()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/%s/%s/%s/", a.Namespace, a.Key, op, a.Value), nil
	case AtomByID:
		return "", ErrInvalidAtom
	default:
		return "", fmt.Errorf("rds: unknown atom kind %d", a.Kind)
	}
}
