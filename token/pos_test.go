package token

import "testing"

func TestRegionContains(t *testing.T) {
	r := Region{Start: Position{Line: 1, Col: 2}, End: Position{Line: 3, Col: 4}}
	cases := []struct {
		pos  Position
		want bool
	}{
		{Position{1, 2}, true},
		{Position{3, 4}, true},
		{Position{2, 0}, true},
		{Position{1, 1}, false},
		{Position{3, 5}, false},
		{Position{0, 9}, false},
	}
	for _, c := range cases {
		if got := r.ContainsPos(c.pos); got != c.want {
			t.Errorf("ContainsPos(%v) = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestRegionOverlaps(t *testing.T) {
	a := Region{Start: Position{0, 0}, End: Position{0, 5}}
	b := Region{Start: Position{0, 5}, End: Position{0, 9}}
	c := Region{Start: Position{1, 0}, End: Position{1, 3}}
	if !a.Overlaps(b) {
		t.Errorf("adjacent inclusive regions should overlap")
	}
	if a.Overlaps(c) {
		t.Errorf("disjoint regions should not overlap")
	}
	if !a.ContainsRegion(Region{Start: Position{0, 1}, End: Position{0, 4}}) {
		t.Errorf("containment failed")
	}
}

func TestEndOf(t *testing.T) {
	end := EndOf("ab\ncd", Position{Line: 2, Col: 7})
	want := Position{Line: 3, Col: 2}
	if end != want {
		t.Errorf("EndOf = %v, want %v", end, want)
	}
}

func TestListPendingAndReplace(t *testing.T) {
	l := &List{}
	l.Add(Token{Text: "x", Category: Identifier, Region: Region{End: Position{0, 1}}})
	l.SetPending(Unknown)
	l.AppendPending('?')
	l.AppendPending('!')
	l.Flush()
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}
	if got := l.At(1); got.Text != "?!" || got.Category != Unknown {
		t.Errorf("pending token = %+v", got)
	}
	if got := l.At(1).Region.Start; got != (Position{0, 1}) {
		t.Errorf("pending start = %v, want end of previous token", got)
	}

	l.Replace3(1,
		Token{Text: "a", Category: Identifier},
		Token{Text: ".", Category: Operator},
		Token{Text: "b", Category: Identifier},
	)
	if l.Len() != 4 {
		t.Fatalf("len after split = %d, want 4", l.Len())
	}
	if l.At(0).Text != "x" || l.At(1).Text != "a" || l.At(2).Text != "." || l.At(3).Text != "b" {
		t.Errorf("unexpected tokens after split")
	}
}
