package worksheet

import (
	"testing"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
)

func TestSetGetExpandsRef(t *testing.T) {
	ws := New()
	if err := ws.Set("B2", NumberCell(1)); err != nil {
		t.Fatal(err)
	}
	if ws.Ref != "B2" {
		t.Errorf("ref after first cell = %q", ws.Ref)
	}
	if err := ws.Set("D5", NumberCell(2)); err != nil {
		t.Fatal(err)
	}
	if ws.Ref != "B2:D5" {
		t.Errorf("ref after second cell = %q", ws.Ref)
	}
	if err := ws.Set("A1", NumberCell(3)); err != nil {
		t.Fatal(err)
	}
	if ws.Ref != "A1:D5" {
		t.Errorf("ref after third cell = %q", ws.Ref)
	}
	if c := ws.Get("D5"); c == nil || c.Value.(float64) != 2 {
		t.Error("Get(D5) lost the cell")
	}
}

func TestSetCellRejectsNegative(t *testing.T) {
	ws := New()
	if err := ws.SetCell(cellref.Cell{C: -1, R: 0}, NumberCell(1)); err == nil {
		t.Error("negative column should fail")
	}
}

func TestDenseSparseConversion(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(1))
	_ = ws.Set("C2", StringCell("x"))
	ws.Merges = []cellref.Range{{Start: cellref.Cell{C: 0, R: 0}, End: cellref.Cell{C: 1, R: 0}}}

	dense := ws.ToDense()
	if !dense.Dense {
		t.Fatal("ToDense did not produce a dense sheet")
	}
	if c := dense.Get("C2"); c == nil || c.Value.(string) != "x" {
		t.Error("dense lost C2")
	}
	if len(dense.Merges) != 1 {
		t.Error("dense lost merges")
	}

	back := dense.ToSparse()
	if back.Dense {
		t.Fatal("ToSparse did not produce a sparse sheet")
	}
	if c := back.Get("A1"); c == nil || c.Value.(float64) != 1 {
		t.Error("sparse lost A1")
	}
	if back.Ref != ws.Ref {
		t.Errorf("ref drifted: %q vs %q", back.Ref, ws.Ref)
	}
}

func TestEachCellOrder(t *testing.T) {
	ws := New()
	_ = ws.Set("B2", NumberCell(3))
	_ = ws.Set("A1", NumberCell(1))
	_ = ws.Set("B1", NumberCell(2))
	var refs []string
	ws.EachCell(func(c cellref.Cell, _ *Cell) {
		s, _ := cellref.EncodeCell(c)
		refs = append(refs, s)
	})
	want := []string{"A1", "B1", "B2"}
	for i := range want {
		if refs[i] != want[i] {
			t.Fatalf("row-major order broken: %v", refs)
		}
	}
}

func TestSetArrayFormula(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(2))
	_ = ws.Set("A2", NumberCell(3))
	_ = ws.Set("B1", NumberCell(4))
	_ = ws.Set("B2", NumberCell(5))
	if err := ws.SetArrayFormula("C1:C2", "A1:A2*B1:B2"); err != nil {
		t.Fatal(err)
	}
	origin := ws.Get("C1")
	if origin.F != "A1:A2*B1:B2" || origin.FRange != "C1:C2" {
		t.Errorf("origin = %+v", origin)
	}
	member := ws.Get("C2")
	if member == nil || member.FRange != "C1:C2" {
		t.Errorf("member = %+v", member)
	}
	if member.F != "" {
		t.Errorf("member should carry no formula, got %q", member.F)
	}
}

func TestErrorCodeDisplay(t *testing.T) {
	cases := map[ErrorCode]string{
		ErrNull: "#NULL!", ErrDiv0: "#DIV/0!", ErrValue: "#VALUE!", ErrRef: "#REF!",
		ErrName: "#NAME?", ErrNum: "#NUM!", ErrNA: "#N/A", ErrGetData: "#GETTING_DATA",
	}
	for code, want := range cases {
		if got := code.DisplayString(); got != want {
			t.Errorf("DisplayString(%#x) = %q, want %q", int(code), got, want)
		}
		back, ok := ErrorCodeFromText(want)
		if !ok || back != code {
			t.Errorf("ErrorCodeFromText(%q) = %v, %v", want, back, ok)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	if !StubCell().IsEmpty() {
		t.Error("bare stub should be empty")
	}
	c := StubCell()
	c.F = "A1"
	if c.IsEmpty() {
		t.Error("stub with a formula is not empty")
	}
	if NumberCell(0).IsEmpty() {
		t.Error("number cell is never empty")
	}
	var nilCell *Cell
	if !nilCell.IsEmpty() {
		t.Error("nil cell is empty")
	}
}

func defaultParseOpts() ParseOptions {
	return ParseOptions{CellFormula: true}
}

func TestWriteParseRoundTrip(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(42.5))
	_ = ws.Set("A2", BoolCell(true))
	_ = ws.Set("A3", StringCell("hello & <world>"))
	_ = ws.Set("A4", ErrorCell(ErrDiv0))
	fcell := NumberCell(7)
	fcell.F = "A1+1"
	_ = ws.Set("B1", fcell)

	data := ws.Write(WriteOptions{FirstSheet: true}, nil, nil)
	got, err := Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if c := got.Get("A1"); c.Type != TypeNumber || c.Value.(float64) != 42.5 {
		t.Errorf("A1 = %+v", c)
	}
	if c := got.Get("A2"); c.Type != TypeBool || c.Value.(bool) != true {
		t.Errorf("A2 = %+v", c)
	}
	if c := got.Get("A3"); c.Type != TypeString || c.Value.(string) != "hello & <world>" {
		t.Errorf("A3 = %+v", c)
	}
	if c := got.Get("A4"); c.Type != TypeError || c.Value.(ErrorCode) != ErrDiv0 {
		t.Errorf("A4 = %+v", c)
	}
	if c := got.Get("B1"); c.F != "A1+1" || c.Value.(float64) != 7 {
		t.Errorf("B1 = %+v", c)
	}
	if got.Ref != ws.Ref {
		t.Errorf("ref = %q, want %q", got.Ref, ws.Ref)
	}
}

func TestRoundTripDates(t *testing.T) {
	ws := New()
	d := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	cell := DateCell(d)
	cell.NumFmt = 14
	_ = ws.Set("A1", cell)

	// Serial form: the value survives as a number.
	data := ws.Write(WriteOptions{}, nil, nil)
	got, err := Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.Get("A1"); c.Type != TypeNumber {
		t.Errorf("serial date cell = %+v", c)
	}

	// ISO form: the value survives as a live date.
	data = ws.Write(WriteOptions{CellDates: true}, nil, nil)
	got, err = Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := got.Get("A1")
	if c.Type != TypeDate {
		t.Fatalf("iso date cell = %+v", c)
	}
	if !c.Value.(time.Time).Equal(d) {
		t.Errorf("date value = %v, want %v", c.Value, d)
	}
}

func TestRoundTripArrayFormula(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(2))
	_ = ws.Set("A2", NumberCell(3))
	_ = ws.Set("B1", NumberCell(4))
	_ = ws.Set("B2", NumberCell(5))
	if err := ws.SetArrayFormula("C1:C2", "A1:A2*B1:B2"); err != nil {
		t.Fatal(err)
	}
	c1 := ws.Get("C1")
	c1.Value = 8.0
	c2 := ws.Get("C2")
	c2.Type = TypeNumber
	c2.Value = 15.0

	data := ws.Write(WriteOptions{}, nil, nil)
	got, err := Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := got.Get("C1"); c.F != "A1:A2*B1:B2" || c.FRange != "C1:C2" {
		t.Errorf("C1 = %+v", c)
	}
	c := got.Get("C2")
	if c == nil || c.FRange != "C1:C2" {
		t.Errorf("C2 should carry the array range, got %+v", c)
	}
	if c != nil && c.F != "" {
		t.Errorf("C2 should carry no formula, got %q", c.F)
	}
}

func TestRoundTripSheetMetadata(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(1))
	_ = ws.Set("C3", NumberCell(2))
	ws.Merges = []cellref.Range{{Start: cellref.Cell{C: 0, R: 0}, End: cellref.Cell{C: 2, R: 0}}}
	ws.AutoFilter = &AutoFilter{Ref: "A1:C3"}
	ws.Margins = &Margins{Left: 0.7, Right: 0.7, Top: 0.75, Bottom: 0.75, Header: 0.3, Footer: 0.3}
	ws.Rows = []RowInfo{{Index: 2, Height: 30, Hidden: true}}
	ws.Cols = []ColInfo{{Index: 1, Width: 17.5, CustomWidth: true, Hidden: true}}

	data := ws.Write(WriteOptions{}, nil, nil)
	got, err := Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Merges) != 1 || got.Merges[0] != ws.Merges[0] {
		t.Errorf("merges = %+v", got.Merges)
	}
	if got.AutoFilter == nil || got.AutoFilter.Ref != "A1:C3" {
		t.Errorf("autofilter = %+v", got.AutoFilter)
	}
	if got.Margins == nil || *got.Margins != *ws.Margins {
		t.Errorf("margins = %+v", got.Margins)
	}
	foundRow := false
	for _, ri := range got.Rows {
		if ri.Index == 2 && ri.Hidden && ri.Height == 30 {
			foundRow = true
		}
	}
	if !foundRow {
		t.Errorf("row info lost: %+v", got.Rows)
	}
	foundCol := false
	for _, ci := range got.Cols {
		if ci.Index == 1 && ci.Hidden && ci.Width == 17.5 {
			foundCol = true
		}
	}
	if !foundCol {
		t.Errorf("col info lost: %+v", got.Cols)
	}
}

func TestSheetRowsClamp(t *testing.T) {
	ws := New()
	for r := 0; r < 50; r++ {
		_ = ws.SetCell(cellref.Cell{C: 0, R: r}, NumberCell(float64(r)))
	}
	data := ws.Write(WriteOptions{}, nil, nil)

	opts := defaultParseOpts()
	opts.SheetRows = 5
	got, err := Parse(data, opts, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Ref != "A1:A5" {
		t.Errorf("clamped ref = %q, want A1:A5", got.Ref)
	}
	if got.FullRef != "A1:A50" {
		t.Errorf("fullref = %q, want A1:A50", got.FullRef)
	}
	if got.Get("A6") != nil {
		t.Error("rows beyond the clamp should not be materialized")
	}
}

type fakeInterner struct {
	seen []string
}

func (f *fakeInterner) Add(s string) int {
	f.seen = append(f.seen, s)
	return len(f.seen) - 1
}

func TestWriteWithInterner(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", StringCell("shared"))
	interner := &fakeInterner{}
	data := ws.Write(WriteOptions{}, interner, nil)
	if len(interner.seen) != 1 || interner.seen[0] != "shared" {
		t.Errorf("interner saw %v", interner.seen)
	}
	got, err := Parse(data, defaultParseOpts(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ResolveSST(got, func(idx int) (string, string, string, bool) {
		if idx == 0 {
			return "shared", "", "", true
		}
		return "", "", "", false
	})
	if c := got.Get("A1"); c.Type != TypeString || c.Value.(string) != "shared" {
		t.Errorf("resolved cell = %+v", c)
	}
}

func TestValidateMerges(t *testing.T) {
	ws := New()
	_ = ws.Set("A1", NumberCell(1))
	ws.Merges = []cellref.Range{{Start: cellref.Cell{C: 2, R: 2}, End: cellref.Cell{C: 0, R: 0}}}
	if err := ws.Validate(); err == nil {
		t.Error("inverted merge should fail validation")
	}
}
