package worksheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/dateconv"
	"github.com/xlcore-go/xlcore/formula"
	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/internal/xlerr"
	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/opc"
	"github.com/xlcore-go/xlcore/ssf"
)

// sstPending is a placeholder Cell.Value for a string cell awaiting the
// post-parse shared-string resolution pass.
type sstPending struct{ Index int }

// ParseOptions mirrors the subset of the top-level ReadOptions that affect
// worksheet parsing.
type ParseOptions struct {
	Dense       bool
	CellDates   bool
	CellNF      bool
	CellStyles  bool
	CellHTML    bool
	CellFormula bool // retain formula strings on cells
	CellText    bool // precompute the cached display text (w)
	SheetStubs  bool
	SheetRows   int // 0 means unlimited
	NoDim       bool // ignore the <dimension> tag, track the range from cells
	Xlfn        bool // keep the _xlfn. prefix on function names
	DateNF      string // overrides the display format for date-detected cells
	UTC         bool
	WTF         bool // strict mode: unknown cell types become errors instead of skips
	Date1904    bool
}

// StyleTable is the subset of styles.Styles parsing needs.
type StyleTable interface {
	NumFmtIDFor(styleIndex int) int
}

// Parse reads one xl/worksheets/sheetN.xml part. styles/fmtTable/rels may
// be nil (a bare worksheet with no style or relationship binding).
func Parse(data []byte, opts ParseOptions, styleTable StyleTable, fmtTable *ssf.FormatTable, rels *opc.Relationships) (*Worksheet, error) {
	ws := New()
	if opts.Dense {
		ws = NewDense()
	}

	if !opts.NoDim {
		if dimStart, dimEnd, ok := findTagSpan(data, "dimension"); ok {
			ref := attrFromSpan(data[dimStart:dimEnd], "ref")
			if ref != "" {
				ws.Ref = ref
			}
		}
	}

	if colsStart, colsEnd, ok := findElementSpan(data, "cols"); ok {
		ws.Cols = parseCols(data[colsStart:colsEnd])
	}
	if mergeStart, mergeEnd, ok := findElementSpan(data, "mergeCells"); ok {
		ws.Merges = parseMerges(data[mergeStart:mergeEnd])
	}
	if afStart, afEnd, ok := findTagSpan(data, "autoFilter"); ok {
		ref := attrFromSpan(data[afStart:afEnd], "ref")
		ws.AutoFilter = &AutoFilter{Ref: ref}
	}
	if pmStart, pmEnd, ok := findTagSpan(data, "pageMargins"); ok {
		ws.Margins = parseMargins(data[pmStart:pmEnd])
	}
	if _, _, ok := findTagSpan(data, "legacyDrawing"); ok {
		ws.Legacy = true
	}

	hyperlinks := parseHyperlinks(data)

	rowChunks := splitRows(data)
	var trackedRange cellref.Range
	haveTracked := false

	for _, rc := range rowChunks {
		rowNum, hidden, height, hasHeight := parseRowHeader(rc)
		if rowNum < 0 {
			continue
		}
		if opts.SheetRows > 0 && rowNum >= opts.SheetRows {
			continue
		}
		if hidden || hasHeight {
			ws.Rows = append(ws.Rows, RowInfo{Index: rowNum, Height: height, Hidden: hidden})
		}

		cells := parseCellsInRow(rc)
		for _, pc := range cells {
			addr, err := cellref.DecodeCell(pc.ref)
			if err != nil {
				continue
			}
			cell, skip, err := buildCell(pc, opts, styleTable, fmtTable, rels)
			if err != nil {
				return nil, err
			}
			if skip {
				continue
			}
			if err := ws.SetCell(addr, cell); err != nil {
				continue
			}
			if !haveTracked {
				trackedRange = cellref.Range{Start: addr, End: addr}
				haveTracked = true
			} else {
				if addr.C < trackedRange.Start.C {
					trackedRange.Start.C = addr.C
				}
				if addr.R < trackedRange.Start.R {
					trackedRange.Start.R = addr.R
				}
				if addr.C > trackedRange.End.C {
					trackedRange.End.C = addr.C
				}
				if addr.R > trackedRange.End.R {
					trackedRange.End.R = addr.R
				}
			}
		}
	}

	if ws.Ref == "" && haveTracked {
		ws.Ref, _ = cellref.EncodeRange(trackedRange)
	}

	ws.PropagateArrayRanges()

	if opts.SheetRows > 0 {
		if fullRg, err := cellref.DecodeRange(ws.Ref); err == nil {
			clampedEnd := opts.SheetRows - 1
			if fullRg.End.R > clampedEnd {
				ws.FullRef = ws.Ref
				fullRg.End.R = clampedEnd
				ws.Ref, _ = cellref.EncodeRange(fullRg)
			}
		}
	}

	for ref, hl := range hyperlinks {
		rid := hl.rid
		link := &Hyperlink{Tooltip: hl.tooltip}
		if hl.location != "" && rid == "" {
			link.Target = hl.location
		} else if rels != nil && rid != "" {
			if rel, ok := rels.Get(rid); ok {
				link.Target = rel.Target
				if hl.location != "" {
					link.Target += "#" + hl.location
				}
			}
		}
		addr, err := cellref.DecodeCell(ref)
		if err != nil {
			continue
		}
		cell := ws.GetCell(addr)
		if cell == nil {
			cell = StubCell()
		}
		cell.Link = link
		_ = ws.SetCell(addr, cell)
	}

	return ws, nil
}

type parsedHyperlink struct {
	rid, location, tooltip string
}

func parseHyperlinks(data []byte) map[string]parsedHyperlink {
	start, end, ok := findElementSpan(data, "hyperlinks")
	if !ok {
		return nil
	}
	out := map[string]parsedHyperlink{}
	walker := xmlscan.NewWalker(data[start:end])
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "hyperlink" && !tag.Closing {
			ref, _ := tag.Attr("ref")
			rid, _ := tag.Attr("id") // r:id, local name "id"
			loc, _ := tag.Attr("location")
			tip, _ := tag.Attr("tooltip")
			out[ref] = parsedHyperlink{rid: rid, location: loc, tooltip: tip}
		}
		if !ok {
			break
		}
	}
	return out
}

type parsedCell struct {
	ref        string
	styleIdx   int
	cellType   string
	value      string
	formula    string
	formulaRef string
	isArray    bool
	inlineStr  string
}

func parseCellsInRow(rowChunk []byte) []parsedCell {
	var out []parsedCell
	walker := xmlscan.NewWalker(rowChunk)
	var cur *parsedCell
	var textBuf strings.Builder
	curField := ""
	for {
		text, tag, ok := walker.Next()
		if cur != nil && curField != "" && text != "" {
			textBuf.WriteString(text)
		}
		switch tag.Name {
		case "c":
			if tag.Closing {
				if cur != nil {
					out = append(out, *cur)
					cur = nil
				}
			} else {
				ref, _ := tag.Attr("r")
				styleIdx := 0
				if s, present := tag.Attr("s"); present {
					styleIdx, _ = strconv.Atoi(s)
				}
				t, _ := tag.Attr("t")
				cur = &parsedCell{ref: ref, styleIdx: styleIdx, cellType: t}
				if tag.SelfClosing {
					out = append(out, *cur)
					cur = nil
				}
			}
		case "v":
			if tag.Closing {
				if cur != nil {
					cur.value = textBuf.String()
				}
				textBuf.Reset()
				curField = ""
			} else {
				curField = "v"
				textBuf.Reset()
			}
		case "f":
			if tag.Closing {
				if cur != nil {
					cur.formula = textBuf.String()
				}
				textBuf.Reset()
				curField = ""
			} else {
				if ref, present := tag.Attr("ref"); present && cur != nil {
					cur.formulaRef = ref
					cur.isArray = true
				}
				if ft, present := tag.Attr("t"); present && ft == "array" && cur != nil {
					cur.isArray = true
				}
				curField = "f"
				textBuf.Reset()
			}
		case "t":
			if tag.Closing {
				if cur != nil {
					cur.inlineStr = textBuf.String()
				}
				textBuf.Reset()
				curField = ""
			} else {
				curField = "t"
				textBuf.Reset()
			}
		case "hyperlink":
			// inline hyperlink reference is parsed at the sheet level instead;
			// nothing to do per-cell here.
		}
		if !ok {
			break
		}
	}
	return out
}

func buildCell(pc parsedCell, opts ParseOptions, styleTable StyleTable, fmtTable *ssf.FormatTable, rels *opc.Relationships) (*Cell, bool, error) {
	cell := &Cell{}
	if pc.formula != "" && opts.CellFormula {
		cell.F = ooxml.UnescapeXML(pc.formula, true)
		if !opts.Xlfn {
			cell.F = formula.StripXlFunctionPrefix(cell.F)
		}
		if pc.isArray {
			if pc.formulaRef != "" {
				cell.FRange = pc.formulaRef
			}
		}
	}

	var numFmtID int
	if styleTable != nil {
		numFmtID = styleTable.NumFmtIDFor(pc.styleIdx)
		if opts.CellNF || opts.CellStyles {
			cell.XF = &XFRef{NumFmtID: numFmtID}
			if opts.CellNF && fmtTable != nil {
				cell.NumFmt = fmtTable.Lookup(numFmtID)
			}
		}
	}

	switch pc.cellType {
	case "s":
		idx, err := strconv.Atoi(pc.value)
		if err != nil {
			return nil, true, nil
		}
		cell.Type = TypeString
		cell.Value = sstPending{Index: idx}
	case "str":
		cell.Type = TypeString
		cell.Value = ooxml.UnescapeXML(pc.value, true)
	case "inlineStr":
		cell.Type = TypeString
		cell.Value = ooxml.UnescapeXML(pc.inlineStr, true)
	case "b":
		cell.Type = TypeBool
		cell.Value = pc.value == "1"
	case "e":
		cell.Type = TypeError
		if code, err := strconv.Atoi(pc.value); err == nil {
			cell.Value = ErrorCode(code)
		} else if code, ok := ErrorCodeFromText(pc.value); ok {
			cell.Value = code
		} else {
			cell.Value = ErrNA
		}
	case "d":
		t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(pc.value, "Z"))
		if err != nil {
			cell.Type = TypeStub
			break
		}
		cell.Type = TypeDate
		cell.Value = t
	case "", "n":
		if pc.value == "" {
			if pc.formula != "" && cell.F != "" {
				cell.Type = TypeNumber
				cell.Value = 0.0
				break
			}
			if !opts.SheetStubs {
				return nil, true, nil
			}
			cell.Type = TypeStub
			break
		}
		f, err := strconv.ParseFloat(pc.value, 64)
		if err != nil {
			return nil, true, nil
		}
		cell.Type = TypeNumber
		cell.Value = f
		if opts.CellText && fmtTable != nil {
			cell.W = fmtTable.Format(numFmtID, f, opts.Date1904)
		}
		if opts.CellDates && fmtTable != nil && ssf.IsDateFormat(numFmtID, fmtTable.Lookup(numFmtID)) {
			cell.Type = TypeDate
			cell.Value = dateconv.ToTime(f, opts.Date1904)
			if !opts.UTC {
				cell.Value = dateconv.UtcToLocal(cell.Value.(time.Time), time.Local)
			}
			if opts.DateNF != "" {
				cell.NumFmt = opts.DateNF
				if opts.CellText {
					cell.W = fmtTable.Format(opts.DateNF, f, opts.Date1904)
				}
			}
		}
	default:
		if opts.WTF {
			return nil, true, xlerr.Newf(xlerr.KindUnrecognizedCellType, "cell %s has unknown type %q", pc.ref, pc.cellType)
		}
		return nil, true, nil
	}
	return cell, false, nil
}

func parseRowHeader(rowChunk []byte) (rowNum int, hidden bool, height float64, hasHeight bool) {
	start, end, ok := findTagSpan(rowChunk, "row")
	if !ok {
		return -1, false, 0, false
	}
	span := rowChunk[start:end]
	n, err := strconv.Atoi(attrFromSpan(span, "r"))
	if err != nil {
		return -1, false, 0, false
	}
	ht, htErr := strconv.ParseFloat(attrFromSpan(span, "ht"), 64)
	return n - 1, xmlscan.Bool(attrFromSpan(span, "hidden")), ht, htErr == nil
}

// findTagSpan locates the byte range of the first "<name .../>" or
// "<name ...>" opening tag's attribute text (excluding the angle brackets
// and the name itself).
func findTagSpan(data []byte, name string) (start, end int, ok bool) {
	s := string(data)
	open := "<" + name
	idx := strings.Index(s, open)
	for idx >= 0 {
		after := idx + len(open)
		if after < len(s) && (s[after] == ' ' || s[after] == '/' || s[after] == '>') {
			gt := strings.IndexByte(s[after:], '>')
			if gt < 0 {
				return 0, 0, false
			}
			return after, after + gt, true
		}
		next := strings.Index(s[idx+1:], open)
		if next < 0 {
			return 0, 0, false
		}
		idx = idx + 1 + next
	}
	return 0, 0, false
}

// findElementSpan locates the inner content of the first "<name>...</name>"
// element (not self-closing).
func findElementSpan(data []byte, name string) (start, end int, ok bool) {
	s := string(data)
	open := "<" + name
	idx := strings.Index(s, open)
	if idx < 0 {
		return 0, 0, false
	}
	gt := strings.IndexByte(s[idx:], '>')
	if gt < 0 {
		return 0, 0, false
	}
	gtAbs := idx + gt
	if s[gtAbs-1] == '/' {
		return 0, 0, false
	}
	closeTag := "</" + name + ">"
	endIdx := strings.Index(s[gtAbs:], closeTag)
	if endIdx < 0 {
		return 0, 0, false
	}
	return gtAbs + 1, gtAbs + endIdx, true
}

func attrFromSpan(span []byte, name string) string {
	tag := xmlscan.ParseTag("x " + string(span))
	v, _ := tag.Attr(name)
	return v
}

func splitRows(data []byte) [][]byte {
	start, end, ok := findElementSpan(data, "sheetData")
	if !ok {
		return nil
	}
	inner := data[start:end]
	var out [][]byte
	const closeTag = "</row>"
	s := inner
	for {
		idx := indexBytes(s, closeTag)
		if idx < 0 {
			break
		}
		open := indexBytes(s[:idx], "<row")
		if open < 0 {
			s = s[idx+len(closeTag):]
			continue
		}
		out = append(out, s[open:idx+len(closeTag)])
		s = s[idx+len(closeTag):]
	}
	return out
}

func indexBytes(b []byte, s string) int {
	return strings.Index(string(b), s)
}

func parseCols(span []byte) []ColInfo {
	var cols []ColInfo
	walker := xmlscan.NewWalker(span)
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "col" && !tag.Closing {
			minStr, _ := tag.Attr("min")
			maxStr, _ := tag.Attr("max")
			min, _ := strconv.Atoi(minStr)
			max, _ := strconv.Atoi(maxStr)
			if max == 0 {
				max = min
			}
			width, _ := strconv.ParseFloat(attrOrEmpty(tag, "width"), 64)
			hidden := xmlscan.Bool(attrOrEmpty(tag, "hidden"))
			customWidth := xmlscan.Bool(attrOrEmpty(tag, "customWidth"))
			for idx := min; idx <= max; idx++ {
				cols = append(cols, ColInfo{Index: idx - 1, Width: width, CustomWidth: customWidth, Hidden: hidden})
			}
		}
		if !ok {
			break
		}
	}
	return cols
}

func attrOrEmpty(tag xmlscan.Tag, name string) string {
	v, _ := tag.Attr(name)
	return v
}

func parseMerges(span []byte) []cellref.Range {
	var merges []cellref.Range
	walker := xmlscan.NewWalker(span)
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "mergeCell" && !tag.Closing {
			ref, _ := tag.Attr("ref")
			if rg, err := cellref.DecodeRange(ref); err == nil {
				merges = append(merges, rg)
			}
		}
		if !ok {
			break
		}
	}
	return merges
}

func parseMargins(span []byte) *Margins {
	tag := xmlscan.ParseTag("pageMargins " + string(span))
	get := func(name string) float64 {
		v, _ := tag.Attr(name)
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return &Margins{
		Left: get("left"), Right: get("right"), Top: get("top"),
		Bottom: get("bottom"), Header: get("header"), Footer: get("footer"),
	}
}

// ResolveSST walks every cell in ws and replaces any pending shared-string
// placeholder with the resolved text/rich-run/HTML triple, once every
// sheet has been parsed and the table is complete.
func ResolveSST(ws *Worksheet, getItem func(idx int) (text, rawRuns, html string, ok bool)) {
	ws.EachCell(func(c cellref.Cell, cell *Cell) {
		pending, ok := cell.Value.(sstPending)
		if !ok {
			return
		}
		text, raw, html, found := getItem(pending.Index)
		if !found {
			cell.Value = ""
			return
		}
		cell.Value = text
		if raw != "" {
			cell.Rich = raw
		}
		if html != "" {
			cell.HTML = html
		}
	})
}
