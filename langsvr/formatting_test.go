package langsvr

import (
	"strings"
	"testing"
)

func TestComputeEditsNoChange(t *testing.T) {
	if edits := computeEdits("a = 1\n", "a = 1\n"); edits != nil {
		t.Errorf("identical documents need no edits, got %v", edits)
	}
}

func TestComputeEditsMinimal(t *testing.T) {
	original := "a = 1\nb = 2\nc = 3\n"
	modified := "a = 1\nb = 22\nc = 3\n"
	edits := computeEdits(original, modified)
	if len(edits) != 1 {
		t.Fatalf("edits = %+v, want one hunk", edits)
	}
	e := edits[0]
	if e.Range.Start.Line != 1 || e.Range.End.Line != 2 {
		t.Errorf("hunk range = %+v, want line 1..2", e.Range)
	}
	if e.NewText != "b = 22\n" {
		t.Errorf("newText = %q", e.NewText)
	}
}

func TestComputeEditsInsertion(t *testing.T) {
	original := "a = 1\nc = 3\n"
	modified := "a = 1\nb = 2\nc = 3\n"
	edits := computeEdits(original, modified)
	if len(edits) != 1 {
		t.Fatalf("edits = %+v, want one hunk", edits)
	}
	e := edits[0]
	if e.Range.Start.Line != 1 || e.Range.End.Line != 1 {
		t.Errorf("insertion range = %+v", e.Range)
	}
	if !strings.Contains(e.NewText, "b = 2") {
		t.Errorf("newText = %q", e.NewText)
	}
}

func TestComputeEditsDeletion(t *testing.T) {
	original := "a = 1\nb = 2\nc = 3\n"
	modified := "a = 1\nc = 3\n"
	edits := computeEdits(original, modified)
	if len(edits) != 1 {
		t.Fatalf("edits = %+v, want one hunk", edits)
	}
	e := edits[0]
	if e.Range.Start.Line != 1 || e.Range.End.Line != 2 {
		t.Errorf("deletion range = %+v", e.Range)
	}
	if e.NewText != "" {
		t.Errorf("newText = %q, want empty", e.NewText)
	}
}
