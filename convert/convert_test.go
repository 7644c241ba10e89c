package convert

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

func TestAddArrayToSheetTypes(t *testing.T) {
	ws := worksheet.New()
	err := AddArrayToSheet(ws, [][]any{
		{1.5, "text", true},
		{math.NaN(), math.Inf(1), nil},
	}, AOAOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := ws.Get("A1"); c.Type != worksheet.TypeNumber || c.Value.(float64) != 1.5 {
		t.Errorf("A1 = %+v", c)
	}
	if c := ws.Get("B1"); c.Type != worksheet.TypeString {
		t.Errorf("B1 = %+v", c)
	}
	if c := ws.Get("C1"); c.Type != worksheet.TypeBool {
		t.Errorf("C1 = %+v", c)
	}
	if c := ws.Get("A2"); c.Type != worksheet.TypeError || c.Value.(worksheet.ErrorCode) != worksheet.ErrValue {
		t.Errorf("NaN should become #VALUE!: %+v", c)
	}
	if c := ws.Get("B2"); c.Type != worksheet.TypeError || c.Value.(worksheet.ErrorCode) != worksheet.ErrDiv0 {
		t.Errorf("Inf should become #DIV/0!: %+v", c)
	}
	if ws.Get("C2") != nil {
		t.Error("plain nil should be skipped")
	}
	if ws.Ref != "A1:C2" {
		t.Errorf("ref = %q", ws.Ref)
	}
}

func TestAddArrayNullModes(t *testing.T) {
	ws := worksheet.New()
	err := AddArrayToSheet(ws, [][]any{{nil}}, AOAOptions{NullError: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c := ws.Get("A1"); c.Type != worksheet.TypeError || c.Value.(worksheet.ErrorCode) != worksheet.ErrValue {
		t.Errorf("nullError cell = %+v", c)
	}

	ws2 := worksheet.New()
	if err := AddArrayToSheet(ws2, [][]any{{nil}}, AOAOptions{SheetStubs: true}, nil); err != nil {
		t.Fatal(err)
	}
	if c := ws2.Get("A1"); c == nil || c.Type != worksheet.TypeStub {
		t.Errorf("sheetStubs cell = %+v", c)
	}
}

func TestAddArrayValueFormulaPair(t *testing.T) {
	ws := worksheet.New()
	if err := AddArrayToSheet(ws, [][]any{{[]any{3.0, "A1+A2"}}}, AOAOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	c := ws.Get("A1")
	if c.Value.(float64) != 3.0 || c.F != "A1+A2" {
		t.Errorf("pair cell = %+v", c)
	}
}

func TestAddArrayDates(t *testing.T) {
	tbl := ssf.NewFormatTable()
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	ws := worksheet.New()
	if err := AddArrayToSheet(ws, [][]any{{d}}, AOAOptions{UTC: true, CellDates: true}, tbl); err != nil {
		t.Fatal(err)
	}
	c := ws.Get("A1")
	if c.Type != worksheet.TypeDate {
		t.Fatalf("cellDates cell = %+v", c)
	}
	if c.NumFmt != 14 {
		t.Errorf("default date format = %v, want 14", c.NumFmt)
	}
	if c.W == "" {
		t.Error("display text should be precomputed")
	}

	ws2 := worksheet.New()
	if err := AddArrayToSheet(ws2, [][]any{{d}}, AOAOptions{UTC: true}, tbl); err != nil {
		t.Fatal(err)
	}
	if c := ws2.Get("A1"); c.Type != worksheet.TypeNumber {
		t.Errorf("serial date cell = %+v", c)
	}
}

func TestAddArrayOriginAppend(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.NumberCell(1))
	if err := AddArrayToSheet(ws, [][]any{{2.0}}, AOAOptions{Origin: Origin{Row: -1}}, nil); err != nil {
		t.Fatal(err)
	}
	if c := ws.Get("A2"); c == nil || c.Value.(float64) != 2 {
		t.Errorf("append origin wrote elsewhere: A2 = %+v", c)
	}
}

func TestAddRecordsHeaderInference(t *testing.T) {
	ws := worksheet.New()
	rows := []map[string]any{
		{"name": "ada", "age": 36.0},
		{"name": "grace", "city": "nyc"},
	}
	if err := AddRecordsToSheet(ws, rows, RecordsOptions{Header: []string{"name", "age", "city"}}, nil); err != nil {
		t.Fatal(err)
	}
	if c := ws.Get("A1"); c.Value.(string) != "name" {
		t.Errorf("header A1 = %+v", c)
	}
	if c := ws.Get("B2"); c.Value.(float64) != 36 {
		t.Errorf("B2 = %+v", c)
	}
	if c := ws.Get("C3"); c.Value.(string) != "nyc" {
		t.Errorf("C3 = %+v", c)
	}
	if ws.Get("C2") != nil {
		t.Error("missing key should leave no cell")
	}
}

func TestSheetToRecordsHeaderModes(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("col"))
	_ = ws.Set("B1", worksheet.StringCell("col"))
	_ = ws.Set("A2", worksheet.NumberCell(1))
	_ = ws.Set("B2", worksheet.NumberCell(2))

	header, rows, err := SheetToRecords(ws, RecordsQuery{Raw: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if header[0] != "col" || header[1] != "col_1" {
		t.Errorf("deduplicated header = %v", header)
	}
	if len(rows) != 1 || rows[0]["col"].(float64) != 1 || rows[0]["col_1"].(float64) != 2 {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0]["__rowNum__"].(int) != 1 {
		t.Errorf("__rowNum__ = %v", rows[0]["__rowNum__"])
	}

	header, _, err = SheetToRecords(ws, RecordsQuery{Header: HeaderLetter, Raw: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if header[0] != "A" || header[1] != "B" {
		t.Errorf("letter header = %v", header)
	}
}

func TestSheetToRecordsRawVersusFormatted(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("pct"))
	_ = ws.Set("B1", worksheet.StringCell("flag"))
	pct := worksheet.NumberCell(0.5)
	pct.NumFmt = 9 // built-in "0%"
	_ = ws.Set("A2", pct)
	_ = ws.Set("B2", worksheet.BoolCell(true))

	tbl := ssf.NewFormatTable()

	_, rows, err := SheetToRecords(ws, RecordsQuery{Raw: true}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := rows[0]["pct"].(float64); !ok || v != 0.5 {
		t.Errorf("Raw=true should return the raw number, got %v", rows[0]["pct"])
	}
	if v, ok := rows[0]["flag"].(bool); !ok || v != true {
		t.Errorf("Raw=true should return the raw bool, got %v", rows[0]["flag"])
	}

	_, rows, err = SheetToRecords(ws, RecordsQuery{Raw: false}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["pct"] != "50%" {
		t.Errorf("Raw=false should return the formatted text, got %v", rows[0]["pct"])
	}
	if rows[0]["flag"] != "TRUE" {
		t.Errorf("Raw=false should format the bool, got %v", rows[0]["flag"])
	}

	_, rows, err = SheetToRecords(ws, RecordsQuery{Raw: false, RawNumbers: true}, tbl)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := rows[0]["pct"].(float64); !ok || v != 0.5 {
		t.Errorf("RawNumbers should override formatting for numeric cells, got %v", rows[0]["pct"])
	}
}

func TestSheetToRecordsDefval(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("k"))
	_ = ws.Set("B1", worksheet.StringCell("v"))
	_ = ws.Set("A2", worksheet.StringCell("x"))
	_, rows, err := SheetToRecords(ws, RecordsQuery{Raw: true, Defval: "-"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["v"] != "-" {
		t.Errorf("defval not applied: %+v", rows[0])
	}
}

func TestSheetToCSV(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("a,b"))
	_ = ws.Set("B1", worksheet.StringCell(`say "hi"`))
	_ = ws.Set("A2", worksheet.NumberCell(3))
	_ = ws.Set("B2", worksheet.BoolCell(true))

	tbl := ssf.NewFormatTable()
	got := SheetToCSV(ws, CSVOptions{Blankrows: false}, tbl)
	want := `"a,b","say ""hi"""` + "\n" + "3,TRUE\n"
	if got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestSheetToCSVSylkGuard(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("ID"))
	_ = ws.Set("B1", worksheet.StringCell("name"))
	got := SheetToCSV(ws, CSVOptions{}, nil)
	if !strings.HasPrefix(got, `"ID"`) {
		t.Errorf("A1 ID must be force-quoted: %q", got)
	}
}

func TestSheetToCSVStripAndBlankrows(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("x"))
	_ = ws.Set("C3", worksheet.StringCell("y"))
	got := SheetToCSV(ws, CSVOptions{Strip: true, Blankrows: false}, nil)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("blank row not dropped: %q", got)
	}
	if lines[0] != "x" {
		t.Errorf("trailing empty fields not stripped: %q", lines[0])
	}
}

func TestSheetToHTMLMerges(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.StringCell("merged"))
	_ = ws.Set("A2", worksheet.NumberCell(1))
	_ = ws.Set("B2", worksheet.NumberCell(2))
	ws.Merges = []cellref.Range{{Start: cellref.Cell{C: 0, R: 0}, End: cellref.Cell{C: 1, R: 0}}}

	tbl := ssf.NewFormatTable()
	got := SheetToHTML(ws, HTMLOptions{}, tbl)
	if !strings.Contains(got, `colspan="2"`) {
		t.Errorf("merge origin missing colspan:\n%s", got)
	}
	if strings.Count(got, "<td") != 3 {
		t.Errorf("covered cell should be coalesced, got %d tds:\n%s", strings.Count(got, "<td"), got)
	}
}

func TestSheetToHTMLSanitizesLinks(t *testing.T) {
	ws := worksheet.New()
	c := worksheet.StringCell("click")
	c.Link = &worksheet.Hyperlink{Target: "javascript:alert(1)"}
	_ = ws.Set("A1", c)
	got := SheetToHTML(ws, HTMLOptions{SanitizeLinks: true}, nil)
	if strings.Contains(got, "javascript") {
		t.Errorf("javascript link survived:\n%s", got)
	}

	c2 := worksheet.StringCell("ok")
	c2.Link = &worksheet.Hyperlink{Target: "https://example.com"}
	ws2 := worksheet.New()
	_ = ws2.Set("A1", c2)
	got = SheetToHTML(ws2, HTMLOptions{SanitizeLinks: true}, nil)
	if !strings.Contains(got, `<a href="https://example.com">`) {
		t.Errorf("https link dropped:\n%s", got)
	}
}

func TestToFormulaeList(t *testing.T) {
	ws := worksheet.New()
	_ = ws.Set("A1", worksheet.NumberCell(3))
	_ = ws.Set("A2", worksheet.StringCell("lit"))
	_ = ws.Set("A3", worksheet.BoolCell(false))
	f := worksheet.NumberCell(6)
	f.F = "A1*2"
	_ = ws.Set("B1", f)
	if err := ws.SetArrayFormula("C1:C2", "A1:A2"); err != nil {
		t.Fatal(err)
	}

	got := ToFormulaeList(ws)
	want := map[string]bool{
		"A1=3":          true,
		"A2='lit":       true,
		"A3=FALSE":      true,
		"B1=A1*2":       true,
		"C1:C2=A1:A2":   true,
	}
	if len(got) != len(want) {
		t.Fatalf("formulae = %v", got)
	}
	for _, line := range got {
		if !want[line] {
			t.Errorf("unexpected line %q in %v", line, got)
		}
	}
}
