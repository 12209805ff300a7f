package rds

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDisjunction_StructuralEquality(t *testing.T) {
	data := []byte(`[
		{"atoms": [
			{"kind": "name", "tag": "photo"},
			{"kind": "triple", "namespace": "exif", "key": "camera", "op": "eq", "value": "nikon"}
		]}
	]`)

	got, err := ParseDisjunction(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Disjunction{
		{Atoms: []AtomNode{
			{Atom: ByName("photo")},
			{Atom: Triple("exif", "camera", OpEQ, "nikon")},
		}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("disjunction mismatch (-want +got):\n%s", diff)
	}
}
