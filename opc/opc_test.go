package opc

import (
	"errors"
	"strings"
	"testing"
)

func TestResolvePath(t *testing.T) {
	cases := []struct {
		base, target, mode, want string
	}{
		{"xl/workbook.xml", "worksheets/sheet1.xml", "", "xl/worksheets/sheet1.xml"},
		{"xl/workbook.xml", "/xl/styles.xml", "", "xl/styles.xml"},
		{"xl/worksheets/sheet1.xml", "../comments1.xml", "", "xl/comments1.xml"},
		{"xl/worksheets/sheet1.xml", "./x.xml", "", "xl/worksheets/x.xml"},
		{"xl/workbook.xml", "https://example.com/a", "External", "https://example.com/a"},
	}
	for _, tt := range cases {
		if got := ResolvePath(tt.base, tt.target, tt.mode); got != tt.want {
			t.Errorf("ResolvePath(%q, %q, %q) = %q, want %q", tt.base, tt.target, tt.mode, got, tt.want)
		}
	}
}

func TestRelsPathFor(t *testing.T) {
	if got := RelsPathFor(""); got != "_rels/.rels" {
		t.Errorf("root rels = %q", got)
	}
	if got := RelsPathFor("xl/workbook.xml"); got != "xl/_rels/workbook.xml.rels" {
		t.Errorf("workbook rels = %q", got)
	}
}

func TestRelationshipsAutoID(t *testing.T) {
	r := NewRelationships()
	a, err := r.Add(Relationship{Type: "t", Target: "a.xml"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Add(Relationship{Type: "t", Target: "b.xml"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "rId1" || b.ID != "rId2" {
		t.Errorf("auto ids = %q, %q", a.ID, b.ID)
	}
}

func TestRelationshipsDuplicateID(t *testing.T) {
	r := NewRelationships()
	if _, err := r.Add(Relationship{ID: "rId1", Type: "t", Target: "a.xml"}); err != nil {
		t.Fatal(err)
	}
	_, err := r.Add(Relationship{ID: "rId1", Type: "t", Target: "other.xml"})
	var dup *ErrDuplicateRelationshipID
	if !errors.As(err, &dup) {
		t.Fatalf("want ErrDuplicateRelationshipID, got %v", err)
	}
	// After an explicit rId3, the next free slot is scanned past it.
	if _, err := r.Add(Relationship{ID: "rId3", Type: "t", Target: "c.xml"}); err != nil {
		t.Fatal(err)
	}
	next, err := r.Add(Relationship{Type: "t", Target: "d.xml"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID == "rId1" || next.ID == "rId3" {
		t.Errorf("auto id %q collides with an existing slot", next.ID)
	}
}

func TestHyperlinkDefaultsExternal(t *testing.T) {
	r := NewRelationships()
	rel, err := r.Add(Relationship{
		Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink",
		Target: "https://example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rel.TargetMode != "External" {
		t.Errorf("TargetMode = %q, want External", rel.TargetMode)
	}
}

func TestRelationshipsRoundTrip(t *testing.T) {
	r := NewRelationships()
	_, _ = r.Add(Relationship{Type: "tA", Target: "a.xml"})
	_, _ = r.Add(Relationship{Type: "tB", Target: "https://x", TargetMode: "External"})
	parsed, err := ParseRelationships(r.Write())
	if err != nil {
		t.Fatal(err)
	}
	all := parsed.All()
	if len(all) != 2 {
		t.Fatalf("got %d rels", len(all))
	}
	if all[0].Type != "tA" || all[1].TargetMode != "External" {
		t.Errorf("round trip lost fields: %+v", all)
	}
	if _, ok := parsed.ByTarget("https://x"); !ok {
		t.Error("ByTarget lookup failed")
	}
}

func TestContentTypesRoundTrip(t *testing.T) {
	ct := New()
	ct.Add("/xl/workbook.xml", contentTypeStrings[CategoryWorkbook][BookTypeXLSX])
	ct.Add("/xl/worksheets/sheet1.xml", contentTypeStrings[CategorySheet][BookTypeXLSX])
	ct.Add("/odd/part.xml", "application/x-unknown")

	out := ct.Write()
	parsed, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Category[CategoryWorkbook]) != 1 {
		t.Errorf("workbook category = %v", parsed.Category[CategoryWorkbook])
	}
	if parsed.Other["/odd/part.xml"] != "application/x-unknown" {
		t.Errorf("unknown content type not preserved: %v", parsed.Other)
	}
	if parsed.Default["xml"] != "application/xml" {
		t.Errorf("Default xml = %q", parsed.Default["xml"])
	}
}

func TestContentTypesUnknownNamespace(t *testing.T) {
	data := []byte(`<?xml version="1.0"?><Types xmlns="urn:wrong"><Default Extension="xml" ContentType="application/xml"/></Types>`)
	_, err := Parse(data)
	var unk *ErrUnknownNamespace
	if !errors.As(err, &unk) {
		t.Fatalf("want ErrUnknownNamespace, got %v", err)
	}
}

func TestContentTypeForVBA(t *testing.T) {
	if _, ok := ContentTypeFor(CategoryVBA, BookTypeXLSX); ok {
		t.Error("vba has no xlsx content type")
	}
	if s, ok := ContentTypeFor(CategoryVBA, BookTypeXLSM); !ok || !strings.Contains(s, "vba") {
		t.Errorf("vba xlsm content type = %q, %v", s, ok)
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	got := SortedKeys(m)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("SortedKeys = %v", got)
	}
}
