// Package xlcore reads and writes XLSX workbooks: ZIP/DEFLATE container,
// OPC packaging, and the full SpreadsheetML part set, per the codec layered
// in its subpackages (zipfile, opc, workbook, worksheet, styles, sst,
// comments, metadata, convert).
package xlcore

import (
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/comments"
	"github.com/xlcore-go/xlcore/convert"
	"github.com/xlcore-go/xlcore/internal/codec"
	"github.com/xlcore-go/xlcore/internal/xlerr"
	"github.com/xlcore-go/xlcore/metadata"
	"github.com/xlcore-go/xlcore/opc"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/sst"
	"github.com/xlcore-go/xlcore/styles"
	"github.com/xlcore-go/xlcore/workbook"
	"github.com/xlcore-go/xlcore/worksheet"
	"github.com/xlcore-go/xlcore/zipfile"
)

// Relationship type URIs used while wiring parts together.
const (
	relTypeOfficeDocument  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeWorksheet       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeStyles          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSharedStrings   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	relTypeTheme           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeComments        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	relTypeVMLDrawing      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing"
	relTypeHyperlink       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relTypeSheetMetadata   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sheetMetadata"
	relTypeCalcChain       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain"
	relTypeThreadedComment = "http://schemas.microsoft.com/office/2017/10/relationships/threadedComment"
	relTypePerson          = "http://schemas.microsoft.com/office/2017/10/relationships/person"
	relTypeCoreProps       = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeExtProps        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relTypeCustomProps     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/custom-properties"
)

// BookType values Write accepts. XLSX and XLSM produce an OPC package; the
// text flavors render the first sheet only.
const (
	BookTypeXLSX = opc.BookTypeXLSX
	BookTypeXLSM = opc.BookTypeXLSM

	BookTypeCSV  opc.BookType = "csv"
	BookTypeTSV  opc.BookType = "tsv"
	BookTypeHTML opc.BookType = "html"
)

// ReadOptions controls Read. The zero value disables everything optional,
// including formula and display-text extraction; most callers want
// DefaultReadOptions as a starting point.
type ReadOptions struct {
	Dense       bool // build dense (row-major) worksheets instead of sparse
	CellDates   bool // promote date-formatted numbers to live Date cells
	CellNF      bool // attach the resolved number-format string to each cell
	CellStyles  bool // retain style binding (implies column widths survive)
	CellHTML    bool // retain the HTML rendering of rich-text strings
	CellFormula bool // retain formula strings
	CellText    bool // precompute each cell's formatted display text
	SheetStubs  bool // materialize empty cells as stubs
	SheetRows   int  // clamp parsing to the first N rows (0 = unlimited)
	NoDim       bool // ignore <dimension>, derive !ref from the cells seen
	Xlfn        bool // keep the _xlfn. prefix on newer function names
	DateNF      string
	UTC         bool
	Sheets      []string // parse only the named sheets (nil = all)
	BookProps   bool     // stop after document properties
	BookSheets  bool     // stop after the sheet list
	BookFiles   bool     // retain the raw part map on the workbook
	BookDeps    bool     // retain calcChain entries on the workbook
	WTF         bool     // strict mode: surface normally-tolerated part damage
}

// DefaultReadOptions returns the options most callers want: formulas and
// display text on, everything else off.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{CellFormula: true, CellText: true}
}

// WriteOptions controls Write.
type WriteOptions struct {
	BookType    opc.BookType // xlsx (default), xlsm, csv, tsv, html
	BookSST     bool         // build a shared-string table instead of inlining "str" cells
	Compression bool         // DEFLATE the archive entries instead of storing them
	CellDates   bool         // serialize date cells as ISO strings instead of serials
	Unsafe      bool         // skip workbook validation
	Props       *workbook.CoreProps
	ThemeXLSX   []byte // replaces the built-in theme part
	IgnoreEC    bool   // drop the extension-compatibility hints (currently none are written)
}

var pdfSignature = []byte("%PDF")
var pngSignature = []byte{0x89, 'P', 'N', 'G'}

// Read unpacks data (the raw bytes of an .xlsx/.xlsm archive) into a
// Workbook. The SSF format table is created fresh per call; two concurrent
// Read/Write calls never share one.
func Read(data []byte, opts ReadOptions) (*workbook.Workbook, error) {
	if len(data) >= 4 && hasPrefix(data, pdfSignature) {
		return nil, xlerr.WithSubject(xlerr.KindNotASpreadsheet, "pdf", "data begins with a PDF signature")
	}
	if len(data) >= 4 && hasPrefix(data, pngSignature) {
		return nil, xlerr.WithSubject(xlerr.KindNotASpreadsheet, "png", "data begins with a PNG signature")
	}
	if len(data) < 2 || data[0] != 0x50 || data[1] != 0x4B {
		return nil, xlerr.New(xlerr.KindUnsupportedFormat, "data is not a ZIP package")
	}

	entries, err := zipfile.Read(data)
	if err != nil {
		return nil, err
	}
	parts := make(map[string][]byte, len(entries))
	for _, e := range entries {
		parts[strings.TrimPrefix(e.Name, "/")] = e.Data
	}

	ctData, ok := parts["[Content_Types].xml"]
	if !ok {
		return nil, xlerr.New(xlerr.KindNotASpreadsheet, "missing [Content_Types].xml")
	}
	if _, err := opc.Parse(ctData); err != nil {
		return nil, err
	}

	rootRels, err := readRels(parts, "")
	if err != nil {
		return nil, err
	}
	workbookRel, ok := rootRels.ByType(relTypeOfficeDocument)
	if !ok {
		return nil, xlerr.New(xlerr.KindNotASpreadsheet, "root .rels carries no officeDocument relationship")
	}
	workbookPath := opc.ResolvePath("/", workbookRel.Target, workbookRel.TargetMode)

	wbData, ok := parts[workbookPath]
	if !ok {
		return nil, xlerr.New(xlerr.KindNotASpreadsheet, "workbook part missing")
	}
	wb, wbProps, err := workbook.Parse(wbData)
	if err != nil {
		return nil, err
	}
	wb.WBProps = wbProps
	if opts.BookFiles {
		wb.Files = parts
	}

	if coreRel, ok := rootRels.ByType(relTypeCoreProps); ok {
		path := opc.ResolvePath("/", coreRel.Target, coreRel.TargetMode)
		if data, ok := parts[path]; ok {
			wb.Props = workbook.ParseCoreProps(data)
		}
	}
	if opts.BookProps || opts.BookSheets {
		return wb, nil
	}

	wbRels, err := readRels(parts, workbookPath)
	if err != nil {
		return nil, err
	}

	fmtTable := ssf.NewFormatTable()

	var st *styles.Styles
	if stylesRel, ok := wbRels.ByType(relTypeStyles); ok {
		stylesPath := opc.ResolvePath(workbookPath, stylesRel.Target, stylesRel.TargetMode)
		if data, ok := parts[stylesPath]; ok {
			st, err = styles.Parse(data)
			if err != nil {
				return nil, err
			}
			st.RegisterInto(fmtTable)
		}
	}
	if st == nil {
		st = styles.New()
	}

	var sstTable *sst.Table
	if sstRel, ok := wbRels.ByType(relTypeSharedStrings); ok {
		sstPath := opc.ResolvePath(workbookPath, sstRel.Target, sstRel.TargetMode)
		if data, ok := parts[sstPath]; ok {
			sstTable, err = sst.Parse(data)
			if err != nil {
				return nil, err
			}
		}
	}

	if themeRel, ok := wbRels.ByType(relTypeTheme); ok {
		themePath := opc.ResolvePath(workbookPath, themeRel.Target, themeRel.TargetMode)
		if data, ok := parts[themePath]; ok {
			wb.Theme = data
		}
	}

	var people []comments.Person
	if personRel, ok := wbRels.ByType(relTypePerson); ok {
		path := opc.ResolvePath(workbookPath, personRel.Target, personRel.TargetMode)
		if data, ok := parts[path]; ok {
			people = comments.ParsePeople(data)
		}
	}

	parseOpts := worksheet.ParseOptions{
		Dense:       opts.Dense,
		CellDates:   opts.CellDates,
		CellNF:      opts.CellNF,
		CellStyles:  opts.CellStyles,
		CellHTML:    opts.CellHTML,
		CellFormula: opts.CellFormula,
		CellText:    opts.CellText,
		SheetStubs:  opts.SheetStubs,
		SheetRows:   opts.SheetRows,
		NoDim:       opts.NoDim,
		Xlfn:        opts.Xlfn,
		DateNF:      opts.DateNF,
		UTC:         opts.UTC,
		WTF:         opts.WTF,
		Date1904:    wbProps.Date1904,
	}

	wanted := map[string]bool{}
	for _, name := range opts.Sheets {
		wanted[name] = true
	}

	for _, ref := range wb.SheetRefs {
		if len(wanted) > 0 && !wanted[ref.Name] {
			continue
		}
		rel, ok := wbRels.Get(ref.RID)
		if !ok {
			if opts.WTF {
				return nil, xlerr.Newf(xlerr.KindInvalidArgument, "sheet %q has no matching relationship %q", ref.Name, ref.RID)
			}
			continue
		}
		sheetPath := opc.ResolvePath(workbookPath, rel.Target, rel.TargetMode)
		data, ok := parts[sheetPath]
		if !ok {
			if opts.WTF {
				return nil, xlerr.Newf(xlerr.KindInvalidArgument, "sheet part %q missing", sheetPath)
			}
			continue
		}
		sheetRels, err := readRels(parts, sheetPath)
		if err != nil {
			return nil, err
		}
		ws, err := worksheet.Parse(data, parseOpts, st, fmtTable, sheetRels)
		if err != nil {
			return nil, err
		}
		if sstTable != nil {
			get := sstTable.Get
			if !opts.CellHTML {
				get = func(idx int) (string, string, string, bool) {
					text, raw, _, ok := sstTable.Get(idx)
					return text, raw, "", ok
				}
			}
			worksheet.ResolveSST(ws, get)
		}
		wb.Sheets[ref.Name] = ws

		loadSheetComments(ws, sheetRels, sheetPath, parts, people)
	}

	if opts.BookDeps {
		if ccRel, ok := wbRels.ByType(relTypeCalcChain); ok {
			path := opc.ResolvePath(workbookPath, ccRel.Target, ccRel.TargetMode)
			if data, ok := parts[path]; ok {
				wb.CalcChain = metadata.ParseCalcChain(data)
			}
		}
	}

	return wb, nil
}

// loadSheetComments resolves a worksheet's legacy and threaded comments and
// the VML visibility overlay, then merges them onto the parsed cells.
// Threaded comments always win: a cell that ends up with threaded entries
// drops its plain ones.
func loadSheetComments(ws *worksheet.Worksheet, sheetRels *opc.Relationships, sheetPath string, parts map[string][]byte, people []comments.Person) {
	var legacy []comments.Legacy
	if commentsRel, ok := sheetRels.ByType(relTypeComments); ok {
		path := opc.ResolvePath(sheetPath, commentsRel.Target, commentsRel.TargetMode)
		if data, ok := parts[path]; ok {
			legacy = comments.ParseLegacy(data)
		}
	}

	var shapes []comments.Shape
	if vmlRel, ok := sheetRels.ByType(relTypeVMLDrawing); ok {
		path := opc.ResolvePath(sheetPath, vmlRel.Target, vmlRel.TargetMode)
		if data, ok := parts[path]; ok {
			shapes = comments.ParseVML(data)
		}
	}
	visible := map[[2]int]bool{}
	for _, s := range shapes {
		visible[[2]int{s.Row, s.Col}] = s.Visible
	}

	for _, c := range legacy {
		hidden := false
		if at, err := cellref.DecodeCell(c.Ref); err == nil {
			hidden = !visible[[2]int{at.R, at.C}]
		}
		insertComment(ws, c.Ref, worksheet.Comment{
			Author: c.Author,
			Text:   c.Text,
			HTML:   c.HTML,
			Hidden: hidden,
		})
	}

	var threaded []comments.Threaded
	if tcRel, ok := sheetRels.ByType(relTypeThreadedComment); ok {
		path := opc.ResolvePath(sheetPath, tcRel.Target, tcRel.TargetMode)
		if data, ok := parts[path]; ok {
			threaded = comments.ParseThreaded(data)
		}
	}
	personName := map[string]string{}
	for _, p := range people {
		personName[p.ID] = p.DisplayName
	}
	for _, tc := range threaded {
		insertComment(ws, tc.Ref, worksheet.Comment{
			Author:   personName[tc.PersonID],
			Text:     tc.Text,
			Threaded: true,
			ID:       tc.ID,
			ParentID: tc.ParentID,
		})
	}
}

// insertComment appends cm to the cell at ref, creating a stub cell (and
// expanding !ref) when absent. A plain comment never lands on a cell that
// already carries a threaded one; a threaded comment evicts the cell's
// plain ones first.
func insertComment(ws *worksheet.Worksheet, ref string, cm worksheet.Comment) {
	cell := ws.Get(ref)
	if cell == nil {
		cell = worksheet.StubCell()
		if err := ws.Set(ref, cell); err != nil {
			return
		}
	}
	if !cm.Threaded {
		for _, existing := range cell.Comments {
			if existing.Threaded {
				return
			}
		}
	} else {
		kept := cell.Comments[:0]
		for _, existing := range cell.Comments {
			if existing.Threaded {
				kept = append(kept, existing)
			}
		}
		cell.Comments = kept
	}
	cell.Comments = append(cell.Comments, cm)
}

// Write serializes wb. For the xlsx/xlsm book types the result is an OPC
// archive; for csv/tsv/html it is the rendered text of the first sheet.
func Write(wb *workbook.Workbook, opts WriteOptions) ([]byte, error) {
	switch opts.BookType {
	case BookTypeCSV, BookTypeTSV, BookTypeHTML:
		s, err := WriteString(wb, opts)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	if !opts.Unsafe {
		if err := wb.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.BookType == "" {
		opts.BookType = BookTypeXLSX
	}
	if opts.Props != nil {
		wb.Props = opts.Props
	}

	fmtTable := ssf.NewFormatTable()
	st := styles.New()
	builder := styles.NewBuilder(st)
	var sstTable *sst.Table
	if opts.BookSST {
		sstTable = sst.New()
	}

	ct := opc.New()
	rootRels := opc.NewRelationships()
	wbRels := opc.NewRelationships()

	entries := []zipfile.WriteEntry{}

	for len(wb.SheetRefs) < len(wb.SheetNames) {
		wb.SheetRefs = append(wb.SheetRefs, workbook.SheetRef{
			Name:    wb.SheetNames[len(wb.SheetRefs)],
			SheetID: len(wb.SheetRefs) + 1,
		})
	}

	persons := collectPersons(wb)
	personIdx := map[string]int{}
	for i, name := range persons {
		personIdx[name] = i
	}
	tcid := 0

	for i, name := range wb.SheetNames {
		ws := wb.Sheets[name]
		if ws == nil {
			ws = worksheet.New()
		}
		sheetPath := sheetPartPath(i + 1)
		rel, err := wbRels.Add(opc.Relationship{
			Type:   relTypeWorksheet,
			Target: sheetPath[len("xl/"):],
		})
		if err != nil {
			return nil, err
		}
		wb.SheetRefs[i].RID = rel.ID

		sheetRels := opc.NewRelationships()
		legacy, threaded, shapes := collectComments(ws, personIdx, &tcid)

		legacyRelID := ""
		if len(legacy) > 0 {
			n := strconv.Itoa(i + 1)
			commentsPath := "xl/comments" + n + ".xml"
			vmlPath := "xl/drawings/vmlDrawing" + n + ".vml"
			if _, err := sheetRels.Add(opc.Relationship{
				Type:   relTypeComments,
				Target: "../comments" + n + ".xml",
			}); err != nil {
				return nil, err
			}
			vmlRel, err := sheetRels.Add(opc.Relationship{
				Type:   relTypeVMLDrawing,
				Target: "../drawings/vmlDrawing" + n + ".vml",
			})
			if err != nil {
				return nil, err
			}
			legacyRelID = vmlRel.ID
			entries = append(entries, zipfile.WriteEntry{Name: commentsPath, Data: comments.WriteLegacy(legacy)})
			ct.Add("/"+commentsPath, mustContentType(opc.CategoryComments, opts.BookType))
			entries = append(entries, zipfile.WriteEntry{Name: vmlPath, Data: comments.WriteVML(shapes, relNumber(vmlRel.ID))})
		}
		if len(threaded) > 0 {
			n := strconv.Itoa(i + 1)
			tcPath := "xl/threadedComments/threadedComment" + n + ".xml"
			if _, err := sheetRels.Add(opc.Relationship{
				Type:   relTypeThreadedComment,
				Target: "../threadedComments/threadedComment" + n + ".xml",
			}); err != nil {
				return nil, err
			}
			entries = append(entries, zipfile.WriteEntry{Name: tcPath, Data: comments.WriteThreaded(threaded)})
			ct.Add("/"+tcPath, mustContentType(opc.CategoryThreadedComments, opts.BookType))
		}

		var stringer worksheet.StringInterner
		if sstTable != nil {
			stringer = sstTable
		}
		data := ws.Write(worksheet.WriteOptions{
			FirstSheet:  i == 0,
			CellDates:   opts.CellDates,
			Date1904:    wb.WBProps.Date1904,
			LegacyRelID: legacyRelID,
			StyleIndex: func(cell *worksheet.Cell) int {
				if cell.NumFmt != nil {
					return builder.IndexFor(cell.NumFmt, fmtTable)
				}
				if cell.XF != nil {
					return builder.IndexFor(cell.XF.NumFmtID, fmtTable)
				}
				return 0
			},
		}, stringer, &sheetRelRegistrar{rels: sheetRels})
		entries = append(entries, zipfile.WriteEntry{Name: sheetPath, Data: data})
		ct.Add("/"+sheetPath, mustContentType(opc.CategorySheet, opts.BookType))

		if len(sheetRels.All()) > 0 {
			entries = append(entries, zipfile.WriteEntry{Name: opc.RelsPathFor(sheetPath), Data: sheetRels.Write()})
		}
	}

	wbData := wb.Write()
	entries = append(entries, zipfile.WriteEntry{Name: "xl/workbook.xml", Data: wbData})
	ct.Add("/xl/workbook.xml", mustContentType(opc.CategoryWorkbook, opts.BookType))

	stylesData := st.Write()
	entries = append(entries, zipfile.WriteEntry{Name: "xl/styles.xml", Data: stylesData})
	ct.Add("/xl/styles.xml", mustContentType(opc.CategoryStyles, opts.BookType))
	if _, err := wbRels.Add(opc.Relationship{Type: relTypeStyles, Target: "styles.xml"}); err != nil {
		return nil, err
	}

	theme := opts.ThemeXLSX
	if theme == nil {
		theme = wb.Theme
	}
	if theme == nil {
		theme = []byte(defaultTheme)
	}
	entries = append(entries, zipfile.WriteEntry{Name: "xl/theme/theme1.xml", Data: theme})
	ct.Add("/xl/theme/theme1.xml", mustContentType(opc.CategoryTheme, opts.BookType))
	if _, err := wbRels.Add(opc.Relationship{Type: relTypeTheme, Target: "theme/theme1.xml"}); err != nil {
		return nil, err
	}

	if sstTable != nil {
		entries = append(entries, zipfile.WriteEntry{Name: "xl/sharedStrings.xml", Data: sstTable.Write()})
		ct.Add("/xl/sharedStrings.xml", mustContentType(opc.CategorySharedStrings, opts.BookType))
		if _, err := wbRels.Add(opc.Relationship{Type: relTypeSharedStrings, Target: "sharedStrings.xml"}); err != nil {
			return nil, err
		}
	}

	if len(persons) > 0 {
		entries = append(entries, zipfile.WriteEntry{Name: "xl/persons/person.xml", Data: comments.WritePeople(persons)})
		ct.Add("/xl/persons/person.xml", mustContentType(opc.CategoryPeople, opts.BookType))
		if _, err := wbRels.Add(opc.Relationship{Type: relTypePerson, Target: "persons/person.xml"}); err != nil {
			return nil, err
		}
	}

	entries = append(entries, zipfile.WriteEntry{Name: "xl/metadata.xml", Data: metadata.WriteDynamicArrayMetadata()})
	ct.Add("/xl/metadata.xml", mustContentType(opc.CategoryMetadata, opts.BookType))
	if _, err := wbRels.Add(opc.Relationship{Type: relTypeSheetMetadata, Target: "metadata.xml"}); err != nil {
		return nil, err
	}

	if wb.Props == nil {
		wb.Props = &workbook.CoreProps{}
	}
	entries = append(entries, zipfile.WriteEntry{Name: "docProps/core.xml", Data: wb.Props.Write()})
	ct.Add("/docProps/core.xml", mustContentType(opc.CategoryCoreProps, opts.BookType))
	entries = append(entries, zipfile.WriteEntry{Name: "docProps/app.xml", Data: wb.WriteExtProps()})
	ct.Add("/docProps/app.xml", mustContentType(opc.CategoryExtProps, opts.BookType))
	if _, err := rootRels.Add(opc.Relationship{Type: relTypeCoreProps, Target: "docProps/core.xml"}); err != nil {
		return nil, err
	}
	if _, err := rootRels.Add(opc.Relationship{Type: relTypeExtProps, Target: "docProps/app.xml"}); err != nil {
		return nil, err
	}

	if len(wb.CustProps) > 0 {
		custData, err := wb.WriteCustomProps()
		if err != nil {
			return nil, err
		}
		entries = append(entries, zipfile.WriteEntry{Name: "docProps/custom.xml", Data: custData})
		ct.Add("/docProps/custom.xml", mustContentType(opc.CategoryCustomProps, opts.BookType))
		if _, err := rootRels.Add(opc.Relationship{Type: relTypeCustomProps, Target: "docProps/custom.xml"}); err != nil {
			return nil, err
		}
	}

	if _, err := rootRels.Add(opc.Relationship{Type: relTypeOfficeDocument, Target: "xl/workbook.xml"}); err != nil {
		return nil, err
	}

	entries = append(entries, zipfile.WriteEntry{Name: opc.RelsPathFor("xl/workbook.xml"), Data: wbRels.Write()})
	entries = append(entries, zipfile.WriteEntry{Name: opc.RelsPathFor(""), Data: rootRels.Write()})
	entries = append(entries, zipfile.WriteEntry{Name: "[Content_Types].xml", Data: ct.Write()})

	return zipfile.Write(entries, opts.Compression)
}

// WriteString renders wb as text. For csv/tsv/html the first sheet is
// converted; for the archive book types the archive bytes are returned as a
// binary string.
func WriteString(wb *workbook.Workbook, opts WriteOptions) (string, error) {
	switch opts.BookType {
	case BookTypeCSV, BookTypeTSV, BookTypeHTML:
	default:
		b, err := Write(wb, opts)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if len(wb.SheetNames) == 0 {
		return "", xlerr.New(xlerr.KindInvalidArgument, "workbook has no sheets")
	}
	ws, ok := wb.Sheets[wb.SheetNames[0]]
	if !ok {
		return "", xlerr.Newf(xlerr.KindInvalidArgument, "sheet %q listed but has no worksheet entry", wb.SheetNames[0])
	}
	fmtTable := ssf.NewFormatTable()
	switch opts.BookType {
	case BookTypeCSV:
		return convert.SheetToCSV(ws, convert.CSVOptions{Date1904: wb.WBProps.Date1904}, fmtTable), nil
	case BookTypeTSV:
		return convert.SheetToCSV(ws, convert.CSVOptions{FS: "\t", Date1904: wb.WBProps.Date1904}, fmtTable), nil
	default:
		return convert.SheetToHTML(ws, convert.HTMLOptions{SanitizeLinks: true, Date1904: wb.WBProps.Date1904}, fmtTable), nil
	}
}

// WriteBase64 is Write with the result base64-encoded, for hosts that move
// the archive through a text channel.
func WriteBase64(wb *workbook.Workbook, opts WriteOptions) (string, error) {
	b, err := Write(wb, opts)
	if err != nil {
		return "", err
	}
	return codec.Base64Encode(b), nil
}

// sheetRelRegistrar adapts a sheet's opc.Relationships to the worksheet
// writer's hyperlink-registration interface.
type sheetRelRegistrar struct {
	rels *opc.Relationships
}

func (s *sheetRelRegistrar) AddHyperlink(target, tooltip string) string {
	rel, err := s.rels.Add(opc.Relationship{
		Type:       relTypeHyperlink,
		Target:     target,
		TargetMode: "External",
	})
	if err != nil {
		return ""
	}
	return rel.ID
}

// collectPersons walks every sheet in order and gathers the distinct
// authors of threaded comments, first-seen order.
func collectPersons(wb *workbook.Workbook) []string {
	var persons []string
	seen := map[string]bool{}
	for _, name := range wb.SheetNames {
		ws := wb.Sheets[name]
		if ws == nil {
			continue
		}
		ws.EachCell(func(_ cellref.Cell, cell *worksheet.Cell) {
			for _, cm := range cell.Comments {
				if cm.Threaded && !seen[cm.Author] {
					seen[cm.Author] = true
					persons = append(persons, cm.Author)
				}
			}
		})
	}
	return persons
}

// collectComments flattens ws's per-cell comment lists into the three
// per-sheet part payloads: legacy comments (threaded ones included as
// plain-text shadows, the way Excel itself writes them), threaded
// comments with their GUID chain, and one VML shape per commented cell.
func collectComments(ws *worksheet.Worksheet, personIdx map[string]int, tcid *int) (legacy []comments.Legacy, threaded []comments.Threaded, shapes []comments.Shape) {
	if ws == nil {
		return nil, nil, nil
	}
	ws.EachCell(func(at cellref.Cell, cell *worksheet.Cell) {
		if len(cell.Comments) == 0 {
			return
		}
		ref, err := cellref.EncodeCell(at)
		if err != nil {
			return
		}
		anyVisible := false
		rootID := ""
		for _, cm := range cell.Comments {
			if !cm.Hidden {
				anyVisible = true
			}
			if cm.Threaded {
				id := cm.ID
				if id == "" {
					id = comments.NextThreadedGUID(*tcid)
					*tcid++
				}
				parent := cm.ParentID
				if rootID == "" {
					rootID = id
				} else if parent == "" {
					parent = rootID
				}
				personID := ""
				if idx, ok := personIdx[cm.Author]; ok {
					personID = comments.NextPersonGUID(idx)
				}
				threaded = append(threaded, comments.Threaded{
					Ref: ref, ID: id, PersonID: personID, Text: cm.Text, ParentID: parent,
				})
				legacy = append(legacy, comments.Legacy{Ref: ref, Author: cm.Author, Text: cm.Text})
			} else {
				legacy = append(legacy, comments.Legacy{Ref: ref, Author: cm.Author, Text: cm.Text, HTML: cm.HTML})
			}
		}
		shapes = append(shapes, comments.Shape{Row: at.R, Col: at.C, Visible: anyVisible})
	})
	return legacy, threaded, shapes
}

// relNumber extracts the numeric part of an "rIdN" relationship id, for the
// VML shape-id formula.
func relNumber(rid string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(rid, "rId"))
	if err != nil {
		return 1
	}
	return n
}

func sheetPartPath(n int) string {
	return "xl/worksheets/sheet" + strconv.Itoa(n) + ".xml"
}

func mustContentType(cat opc.Category, book opc.BookType) string {
	s, _ := opc.ContentTypeFor(cat, book)
	return s
}

func readRels(parts map[string][]byte, partPath string) (*opc.Relationships, error) {
	path := opc.RelsPathFor(partPath)
	data, ok := parts[path]
	if !ok {
		return opc.NewRelationships(), nil
	}
	return opc.ParseRelationships(data)
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}
