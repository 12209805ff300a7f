package rds

import "testing"

func TestAppendAtom_ByID(t *testing.T) {
	frag, err := appendAtom(ByID(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag.SQL != "tagging.tag_id = ?" {
		t.Errorf("unexpected SQL: %q", frag.SQL)
	}
	if len(frag.Args) != 1 || frag.Args[0].(int64) != 42 {
		t.Errorf("unexpected args: %v", frag.Args)
	}
}

func TestAppendAtom_ByName(t *testing.T) {
	frag, err := appendAtom(ByName("photo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag.SQL != "tagname = ?" {
		t.Errorf("unexpected SQL: %q", frag.SQL)
	}
	if len(frag.Args) != 1 || frag.Args[0] != "photo" {
		t.Errorf("unexpected args: %v", frag.Args)
	}
}

func TestAppendAtom_TripleContainsWrapsValue(t *testing.T) {
	frag, err := appendAtom(Triple("exif", "camera", OpContains, "nikon"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag.SQL != "tagname = ? and `key` = ? and value like ?" {
		t.Errorf("unexpected SQL: %q", frag.SQL)
	}
	if len(frag.Args) != 3 || frag.Args[2] != "%nikon%" {
		t.Errorf("unexpected args: %v", frag.Args)
	}
}

func TestAppendAtom_TripleEqDoesNotWrapValue(t *testing.T) {
	frag, err := appendAtom(Triple("exif", "camera", OpEQ, "nikon"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag.Args[2] != "nikon" {
		t.Errorf("expected unwrapped value, got %v", frag.Args[2])
	}
}

func TestOrGroup_JoinsHeadAndRelated(t *testing.T) {
	frag, err := orGroup(ByName("cat"), []TagAtom{ByName("feline"), ByName("kitty")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(tagname = ? or tagname = ? or tagname = ?)"
	if frag.SQL != want {
		t.Errorf("got %q, want %q", frag.SQL, want)
	}
	if len(frag.Args) != 3 {
		t.Errorf("expected 3 args, got %d", len(frag.Args))
	}
}

func TestOrGroup_NoRelated(t *testing.T) {
	frag, err := orGroup(ByName("cat"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frag.SQL != "(tagname = ?)" {
		t.Errorf("got %q", frag.SQL)
	}
}
