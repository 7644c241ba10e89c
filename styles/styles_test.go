package styles

import (
	"strings"
	"testing"

	"github.com/xlcore-go/xlcore/ssf"
)

const sampleStyles = `<?xml version="1.0"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <numFmts count="2">
    <numFmt numFmtId="164" formatCode="yyyy-mm-dd"/>
    <numFmt numFmtId="200" formatCode="0.000"/>
  </numFmts>
  <fonts count="1"><font><sz val="11"/></font></fonts>
  <cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>
  <cellXfs count="3">
    <xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>
    <xf numFmtId="164" fontId="0" fillId="0" borderId="0" xfId="0"/>
    <xf numFmtId="14" fontId="1" fillId="2" borderId="0" xfId="0"/>
  </cellXfs>
</styleSheet>`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleStyles))
	if err != nil {
		t.Fatal(err)
	}
	if s.NumFmts[164] != "yyyy-mm-dd" || s.NumFmts[200] != "0.000" {
		t.Errorf("numFmts = %v", s.NumFmts)
	}
	if len(s.CellXfs) != 3 {
		t.Fatalf("cellXfs = %d entries", len(s.CellXfs))
	}
	if s.CellXfs[1].NumFmtID != 164 {
		t.Errorf("xf 1 numFmtId = %d", s.CellXfs[1].NumFmtID)
	}
	if s.CellXfs[2].FontID != 1 || s.CellXfs[2].FillID != 2 {
		t.Errorf("xf 2 = %+v", s.CellXfs[2])
	}
}

func TestParseIgnoresCellStyleXfs(t *testing.T) {
	s, err := Parse([]byte(sampleStyles))
	if err != nil {
		t.Fatal(err)
	}
	// The single cellStyleXfs xf must not leak into CellXfs.
	if len(s.CellXfs) != 3 {
		t.Errorf("cellStyleXfs leaked: %d entries", len(s.CellXfs))
	}
}

func TestNumFmtIDFor(t *testing.T) {
	s, err := Parse([]byte(sampleStyles))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.NumFmtIDFor(1); got != 164 {
		t.Errorf("NumFmtIDFor(1) = %d", got)
	}
	if got := s.NumFmtIDFor(99); got != 0 {
		t.Errorf("out-of-range style index should map to General, got %d", got)
	}
}

func TestRegisterInto(t *testing.T) {
	s, err := Parse([]byte(sampleStyles))
	if err != nil {
		t.Fatal(err)
	}
	tbl := ssf.NewFormatTable()
	s.RegisterInto(tbl)
	if got := tbl.Lookup(164); got != "yyyy-mm-dd" {
		t.Errorf("Lookup(164) = %q", got)
	}
	if got := tbl.Lookup(200); got != "0.000" {
		t.Errorf("Lookup(200) = %q", got)
	}
}

func TestWriteMinimalStylesheet(t *testing.T) {
	out := string(New().Write())
	for _, want := range []string{"<fonts", "gray125", "<borders", "cellStyleXfs", "cellXfs", `"Normal"`} {
		if !strings.Contains(out, want) {
			t.Errorf("minimal stylesheet missing %q:\n%s", want, out)
		}
	}
	parsed, err := Parse([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.CellXfs) != 2 {
		t.Errorf("default cellXfs = %d entries, want 2", len(parsed.CellXfs))
	}
}

func TestBuilderIndexFor(t *testing.T) {
	s := New()
	b := NewBuilder(s)
	tbl := ssf.NewFormatTable()

	if idx := b.IndexFor(nil, tbl); idx != 0 {
		t.Errorf("nil format index = %d", idx)
	}
	i14 := b.IndexFor(14, tbl)
	if i14 == 0 {
		t.Error("built-in date format should get its own xf")
	}
	if again := b.IndexFor(14, tbl); again != i14 {
		t.Errorf("same id not reused: %d vs %d", again, i14)
	}
	custom := b.IndexFor("0.000%", tbl)
	if custom == 0 || custom == i14 {
		t.Errorf("custom format index = %d", custom)
	}
	if again := b.IndexFor("0.000%", tbl); again != custom {
		t.Errorf("same string not reused: %d vs %d", again, custom)
	}
	// The custom string landed in numFmts with a registered id >= 164.
	found := false
	for id, code := range s.NumFmts {
		if code == "0.000%" && id >= 164 {
			found = true
		}
	}
	if !found {
		t.Errorf("custom format missing from numFmts: %v", s.NumFmts)
	}
	if s.CellXfs[i14].NumFmtID != 14 {
		t.Errorf("xf %d = %+v", i14, s.CellXfs[i14])
	}
}
