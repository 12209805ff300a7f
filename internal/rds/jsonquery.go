package rds

import (
	"encoding/json"
	"fmt"
)

// jsonAtom is the wire shape for one TagAtom, used by cmd/tagrds to read
// Disjunction fixtures from JSON rather than constructing the struct tree
// by hand.
type jsonAtom struct {
	Kind      string `json:"kind"`
	Tag       string `json:"tag,omitempty"`
	TagID     int64  `json:"tagId,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Key       string `json:"key,omitempty"`
	Op        string `json:"op,omitempty"`
	Value     string `json:"value,omitempty"`
}

type jsonNegatedAtom struct {
	Atom    jsonAtom   `json:"atom"`
	Related []jsonAtom `json:"related,omitempty"`
}

// jsonAtomNode carries its atom's fields inline, alongside the node's
// related and negated lists.
type jsonAtomNode struct {
	jsonAtom
	Related []jsonAtom        `json:"related,omitempty"`
	Negated []jsonNegatedAtom `json:"negated,omitempty"`
}

type jsonConjunction struct {
	Atoms []jsonAtomNode `json:"atoms"`
}

// ParseDisjunction decodes a JSON array of conjunctions (see jsonConjunction)
// into a Disjunction.
func ParseDisjunction(data []byte) (Disjunction, error) {
	var raw []jsonConjunction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rds: parse disjunction json: %w", err)
	}

	disjunction := make(Disjunction, len(raw))
	for i, rc := range raw {
		conj, err := rc.toConjunction()
		if err != nil {
			return nil, fmt.Errorf("rds: conjunction %d: %w", i, err)
		}
		disjunction[i] = conj
	}
	return disjunction, nil
}

func (rc jsonConjunction) toConjunction() (Conjunction, error) {
	nodes := make([]AtomNode, len(rc.Atoms))
	for i, ra := range rc.Atoms {
		node, err := ra.toAtomNode()
		if err != nil {
			return Conjunction{}, err
		}
		nodes[i] = node
	}
	return Conjunction{Atoms: nodes}, nil
}

func (ra jsonAtomNode) toAtomNode() (AtomNode, error) {
	atom, err := ra.jsonAtom.toTagAtom()
	if err != nil {
		return AtomNode{}, err
	}

	related := make([]TagAtom, len(ra.Related))
	for i, r := range ra.Related {
		rel, err := r.toTagAtom()
		if err != nil {
			return AtomNode{}, err
		}
		related[i] = rel
	}

	negated := make([]NegatedAtom, len(ra.Negated))
	for i, n := range ra.Negated {
		negAtom, err := n.Atom.toTagAtom()
		if err != nil {
			return AtomNode{}, err
		}
		negRelated := make([]TagAtom, len(n.Related))
		for j, r := range n.Related {
			rel, err := r.toTagAtom()
			if err != nil {
				return AtomNode{}, err
			}
			negRelated[j] = rel
		}
		negated[i] = NegatedAtom{Atom: negAtom, Related: negRelated}
	}

	return AtomNode{Atom: atom, Related: related, Negated: negated}, nil
}

func (ja jsonAtom) toTagAtom() (TagAtom, error) {
	switch ja.Kind {
	case "id":
		return ByID(ja.TagID), nil
	case "name":
		return ByName(ja.Tag), nil
	case "triple":
		op, err := parseOp(ja.Op)
		if err != nil {
			return TagAtom{}, err
		}
		return Triple(ja.Namespace, ja.Key, op, ja.Value), nil
	default:
		return TagAtom{}, fmt.Errorf("rds: unknown atom kind %q", ja.Kind)
	}
}

func parseOp(s string) (Op, error) {
	switch s {
	case "eq":
		return OpEQ, nil
	case "inc":
		return OpContains, nil
	case "gt":
		return OpGT, nil
	case "lt":
		return OpLT, nil
	default:
		return 0, fmt.Errorf("rds: unknown op %q", s)
	}
}
