package comments

import (
	"strings"
	"testing"
)

func TestLegacyRoundTrip(t *testing.T) {
	in := []Legacy{
		{Ref: "B2", Author: "Ada", Text: "first note"},
		{Ref: "C3", Author: "Grace", Text: "second <note> & more"},
		{Ref: "D4", Author: "Ada", Text: " leading space kept"},
	}
	out := ParseLegacy(WriteLegacy(in))
	if len(out) != len(in) {
		t.Fatalf("got %d comments, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Ref != in[i].Ref {
			t.Errorf("comment %d ref = %q, want %q", i, out[i].Ref, in[i].Ref)
		}
		if out[i].Author != in[i].Author {
			t.Errorf("comment %d author = %q, want %q", i, out[i].Author, in[i].Author)
		}
		if out[i].Text != in[i].Text {
			t.Errorf("comment %d text = %q, want %q", i, out[i].Text, in[i].Text)
		}
	}
}

func TestWriteLegacyDedupesAuthors(t *testing.T) {
	in := []Legacy{
		{Ref: "A1", Author: "Ada", Text: "x"},
		{Ref: "A2", Author: "Ada", Text: "y"},
	}
	part := string(WriteLegacy(in))
	if strings.Count(part, ">Ada<") != 1 {
		t.Errorf("author list should carry Ada once:\n%s", part)
	}
}

func TestThreadedRoundTrip(t *testing.T) {
	in := []Threaded{
		{Ref: "B2", ID: NextThreadedGUID(0), PersonID: NextPersonGUID(0), Text: "root comment"},
		{Ref: "B2", ID: NextThreadedGUID(1), PersonID: NextPersonGUID(1), Text: "a reply", ParentID: NextThreadedGUID(0)},
	}
	out := ParseThreaded(WriteThreaded(in))
	if len(out) != 2 {
		t.Fatalf("got %d threaded comments", len(out))
	}
	if out[0].ParentID != "" {
		t.Errorf("root should have no parent, got %q", out[0].ParentID)
	}
	if out[1].ParentID != in[0].ID {
		t.Errorf("reply parent = %q, want %q", out[1].ParentID, in[0].ID)
	}
	if out[1].Text != "a reply" {
		t.Errorf("reply text = %q", out[1].Text)
	}
	if out[0].PersonID != in[0].PersonID {
		t.Errorf("personId = %q, want %q", out[0].PersonID, in[0].PersonID)
	}
}

func TestGUIDPatterns(t *testing.T) {
	g := NextThreadedGUID(7)
	if g != "{54EE7951-7262-4200-6969-000000000007}" {
		t.Errorf("threaded guid = %q", g)
	}
	p := NextPersonGUID(12)
	if p != "{54EE7950-7262-4200-6969-000000000012}" {
		t.Errorf("person guid = %q", p)
	}
}

func TestPeopleRoundTrip(t *testing.T) {
	out := ParsePeople(WritePeople([]string{"Ada", "Grace"}))
	if len(out) != 2 {
		t.Fatalf("got %d persons", len(out))
	}
	if out[0].DisplayName != "Ada" || out[1].DisplayName != "Grace" {
		t.Errorf("people = %+v", out)
	}
	if out[0].ID != NextPersonGUID(0) {
		t.Errorf("person id = %q", out[0].ID)
	}
}

func TestVMLRoundTrip(t *testing.T) {
	in := []Shape{
		{Row: 1, Col: 1, Visible: false},
		{Row: 4, Col: 2, Visible: true},
	}
	out := ParseVML(WriteVML(in, 1))
	if len(out) != 2 {
		t.Fatalf("got %d shapes", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("shape %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestShapeID(t *testing.T) {
	if got := ShapeID(2, 3); got != 65536*2+3 {
		t.Errorf("ShapeID = %d", got)
	}
}

func TestAnchor(t *testing.T) {
	if got := Anchor(0, 0); got != "1, 0, 1, 0, 3, 20, 5, 20" {
		t.Errorf("Anchor = %q", got)
	}
}
