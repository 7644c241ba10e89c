package sst

import (
	"errors"
	"strings"
	"testing"
)

func TestAddDedup(t *testing.T) {
	tbl := New()
	a := tbl.Add("hello")
	b := tbl.Add("world")
	c := tbl.Add("hello")
	if a != c {
		t.Errorf("dedup failed: %d vs %d", a, c)
	}
	if a == b {
		t.Error("distinct strings share an index")
	}
	if tbl.Count != 3 {
		t.Errorf("Count = %d, want 3 (total references)", tbl.Count)
	}
	if len(tbl.Items) != 2 {
		t.Errorf("unique items = %d, want 2", len(tbl.Items))
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	tbl := New()
	tbl.Add("plain")
	tbl.Add(" spaced ")
	tbl.Add("with <angles> & amps")
	tbl.Add("日本語")

	parsed, err := Parse(tbl.Write())
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Items) != 4 {
		t.Fatalf("got %d items", len(parsed.Items))
	}
	want := []string{"plain", " spaced ", "with <angles> & amps", "日本語"}
	for i, w := range want {
		if parsed.Items[i].Text != w {
			t.Errorf("item %d = %q, want %q", i, parsed.Items[i].Text, w)
		}
	}
}

func TestWritePreservesWhitespaceAttr(t *testing.T) {
	tbl := New()
	tbl.Add(" padded ")
	out := string(tbl.Write())
	if !strings.Contains(out, `xml:space="preserve"`) {
		t.Errorf("missing xml:space=preserve:\n%s", out)
	}
}

func TestWriteCounts(t *testing.T) {
	tbl := New()
	tbl.Add("a")
	tbl.Add("a")
	tbl.Add("b")
	out := string(tbl.Write())
	if !strings.Contains(out, `count="3"`) || !strings.Contains(out, `uniqueCount="2"`) {
		t.Errorf("counts wrong:\n%s", out)
	}
}

func TestParsePlainItems(t *testing.T) {
	data := []byte(`<?xml version="1.0"?><sst xmlns="x" count="2" uniqueCount="2"><si><t>alpha</t></si><si><t xml:space="preserve"> beta</t></si></sst>`)
	tbl, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Items) != 2 || tbl.Items[0].Text != "alpha" || tbl.Items[1].Text != " beta" {
		t.Errorf("items = %+v", tbl.Items)
	}
}

func TestParseRichItem(t *testing.T) {
	raw := `<r><rPr><b/><sz val="11"/></rPr><t>bold</t></r><r><t xml:space="preserve"> tail</t></r>`
	data := []byte(`<sst><si>` + raw + `</si></sst>`)
	tbl, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Items) != 1 {
		t.Fatalf("got %d items", len(tbl.Items))
	}
	it := tbl.Items[0]
	if it.Text != "bold tail" {
		t.Errorf("concatenated text = %q", it.Text)
	}
	if it.RawRuns != raw {
		t.Errorf("raw runs not preserved verbatim:\n%q\n%q", it.RawRuns, raw)
	}
	// A rich item re-emits its runs untouched.
	out := string(tbl.Write())
	if !strings.Contains(out, raw) {
		t.Errorf("write did not re-emit raw runs:\n%s", out)
	}
}

func TestParseStripsPhonetic(t *testing.T) {
	data := []byte(`<sst><si><r><t>漢字</t></r><rPh sb="0" eb="2"><t>かんじ</t></rPh></si></sst>`)
	tbl, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Items[0].Text != "漢字" {
		t.Errorf("phonetic guide leaked into text: %q", tbl.Items[0].Text)
	}
}

func TestParseRejectsUnknownRunProperty(t *testing.T) {
	data := []byte(`<sst><si><r><rPr><blink/></rPr><t>x</t></r></si></sst>`)
	_, err := Parse(data)
	var unrec *ErrUnrecognizedRichFormat
	if !errors.As(err, &unrec) {
		t.Fatalf("want ErrUnrecognizedRichFormat, got %v", err)
	}
	if unrec.Child != "blink" {
		t.Errorf("child = %q", unrec.Child)
	}
}

func TestParseToleratesExtPassthrough(t *testing.T) {
	data := []byte(`<sst><si><r><rPr><extLst><ext uri="x"><futureProp/></ext></extLst></rPr><t>x</t></r></si></sst>`)
	if _, err := Parse(data); err != nil {
		t.Fatalf("ext passthrough should be tolerated: %v", err)
	}
}

func TestGet(t *testing.T) {
	tbl := New()
	tbl.Add("x")
	if _, _, _, ok := tbl.Get(5); ok {
		t.Error("out-of-range index should fail")
	}
	text, _, _, ok := tbl.Get(0)
	if !ok || text != "x" {
		t.Errorf("Get(0) = %q, %v", text, ok)
	}
}
