package rds

import (
	"fmt"
	"strings"
)

// Fragment is a bound SQL predicate fragment: literal values are never
// interpolated into SQL text, only into the placeholder slice, closing the
// escaping debt the original carried.
type Fragment struct {
	SQL  string
	Args []interface{}
}

// appendAtom emits the predicate fragment for one tag atom:
//
//	ById{t}               -> "tagging.tag_id = ?"            [t]
//	ByName{n}              -> "tagname = ?"                   [n]
//	Triple{ns,k,op,v}      -> "tagname = ? and `key` = ? and value {cmp} ?"  [ns,k,v(or %v%)]
func appendAtom(a TagAtom) (Fragment, error) {
	switch a.Kind {
	case AtomByID:
		return Fragment{SQL: "tagging.tag_id = ?", Args: []interface{}{a.TagID}}, nil
	case AtomByName:
		return Fragment{SQL: "tagname = ?", Args: []interface{}{a.Tag}}, nil
	case AtomTriple:
		cmp, err := a.Op.sqlCompare()
		if err != nil {
			return Fragment{}, err
		}
		value := a.Value
		if a.Op == OpContains {
			value = "%" + value + "%"
		}
		sql := fmt.Sprintf("tagname = ? and `key` = ? and value %s ?", cmp)
		return Fragment{SQL: sql, Args: []interface{}{a.Namespace, a.Key, value}}, nil
	default:
		return Fragment{}, fmt.Errorf("rds: unknown atom kind %d", a.Kind)
	}
}

// orGroup joins head with its reasoner-expanded related alternatives into a
// single parenthesized OR fragment: P(head) [ OR P(related[0]) ... ].
func orGroup(head TagAtom, related []TagAtom) (Fragment, error) {
	clauses := make([]string, 0, 1+len(related))
	args := make([]interface{}, 0, 1+len(related))

	headFrag, err := appendAtom(head)
	if err != nil {
		return Fragment{}, err
	}
	clauses = append(clauses, headFrag.SQL)
	args = append(args, headFrag.Args...)

	for _, alt := range related {
		altFrag, err := appendAtom(alt)
		if err != nil {
			return Fragment{}, err
		}
		clauses = append(clauses, altFrag.SQL)
		args = append(args, altFrag.Args...)
	}

	return Fragment{SQL: "(" + strings.Join(clauses, " or ") + ")", Args: args}, nil
}
