package worksheet

import (
	"strconv"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/dateconv"
	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

const defaultColWidth = 9.140625

// StringInterner is the subset of sst.Table a worksheet writer needs. When
// nil, string cells are inlined as type "str" instead of referencing a
// shared-string table.
type StringInterner interface {
	Add(s string) int
}

// WriteOptions mirrors the top-level WriteOptions fields relevant to
// worksheet serialization.
type WriteOptions struct {
	CellDates   bool
	Date1904    bool
	FirstSheet  bool // emits tabSelected="1" on the sheet view
	LegacyRelID string

	// StyleIndex resolves a cell's cellXfs index for the "s" attribute.
	// nil (or a 0 return) omits the attribute, leaving the cell styled by
	// the default xf.
	StyleIndex func(cell *Cell) int
}

// RelRegistrar lets the worksheet writer register hyperlink relationships
// into the owning part's .rels set without importing opc (avoiding an
// import cycle: opc depends on nothing in worksheet, and worksheet stays
// free of opc on the write path — only parse needs it, for resolution).
type RelRegistrar interface {
	AddHyperlink(target, tooltip string) (rid string)
}

// Write renders one xl/worksheets/sheetN.xml part. sst is nil to inline
// strings; rels is nil to omit hyperlink relationship registration.
func (ws *Worksheet) Write(opts WriteOptions, sst StringInterner, rels RelRegistrar) []byte {
	w := xmlw.New()
	w.OpenBare("worksheet").Attr("xmlns", mainNamespace).Attr("xmlns:r", relNamespace)

	if ws.Ref != "" {
		w.Open("dimension").Attr("ref", ws.Ref).Close()
	}

	w.Open("sheetViews")
	w.Open("sheetView")
	if opts.FirstSheet {
		w.Attr("tabSelected", "1")
	}
	w.Attr("workbookViewId", 0)
	w.Close()
	w.Close()

	if len(ws.Cols) > 0 {
		w.Open("cols")
		for _, c := range ws.Cols {
			width := c.Width
			if width == 0 {
				width = defaultColWidth
			}
			w.Open("col").Attr("min", c.Index+1).Attr("max", c.Index+1).Attr("width", width)
			if c.CustomWidth || c.Width != 0 {
				w.Attr("customWidth", "1")
			}
			if c.Hidden {
				w.Attr("hidden", "1")
			}
			w.Close()
		}
		w.Close()
	}

	w.Open("sheetData")
	var hyperlinkRefs []struct {
		ref  string
		rid  string
		loc  string
		tip  string
	}

	rg := ws.Range()
	rowHeight := map[int]RowInfo{}
	for _, ri := range ws.Rows {
		rowHeight[ri.Index] = ri
	}

	// Determine the set of row indices that need emitting: any row in the
	// used range that has at least one cell, or carries row metadata.
	rowsWithCells := map[int]bool{}
	ws.EachCell(func(c cellref.Cell, cell *Cell) {
		if !cell.IsEmpty() {
			rowsWithCells[c.R] = true
		}
	})

	for r := rg.Start.R; r <= rg.End.R; r++ {
		info, hasInfo := rowHeight[r]
		if !rowsWithCells[r] && !hasInfo {
			continue
		}
		w.Open("row").Attr("r", r+1)
		if hasInfo {
			if info.Height != 0 {
				w.Attr("ht", formatFloat(info.Height)).Attr("customHeight", "1")
			}
			if info.Hidden {
				w.Attr("hidden", "1")
			}
		}

		for c := rg.Start.C; c <= rg.End.C; c++ {
			cell := ws.GetCell(cellref.Cell{C: c, R: r})
			if cell.IsEmpty() {
				continue
			}
			ref, _ := cellref.EncodeCell(cellref.Cell{C: c, R: r})
			writeCell(w, ref, cell, opts, sst)

			if cell.Link != nil {
				hl := struct {
					ref, rid, loc, tip string
				}{ref: ref}
				if rels != nil {
					hl.rid = rels.AddHyperlink(cell.Link.Target, cell.Link.Tooltip)
				}
				hl.tip = cell.Link.Tooltip
				hyperlinkRefs = append(hyperlinkRefs, hl)
			}
		}
		w.Close()
	}
	w.Close()

	if ws.AutoFilter != nil && ws.AutoFilter.Ref != "" {
		w.Open("autoFilter").Attr("ref", ws.AutoFilter.Ref).Close()
	}

	if len(ws.Merges) > 0 {
		w.Open("mergeCells").Attr("count", len(ws.Merges))
		for _, m := range ws.Merges {
			ref, _ := cellref.EncodeRange(m)
			w.Open("mergeCell").Attr("ref", ref).Close()
		}
		w.Close()
	}

	if len(hyperlinkRefs) > 0 {
		w.Open("hyperlinks")
		for _, hl := range hyperlinkRefs {
			w.Open("hyperlink").Attr("ref", hl.ref)
			if hl.rid != "" {
				w.Attr("r:id", hl.rid)
			}
			if hl.tip != "" {
				w.Attr("tooltip", hl.tip)
			}
			w.Close()
		}
		w.Close()
	}

	if ws.Margins != nil {
		m := ws.Margins
		w.Open("pageMargins").
			Attr("left", m.Left).Attr("right", m.Right).
			Attr("top", m.Top).Attr("bottom", m.Bottom).
			Attr("header", m.Header).Attr("footer", m.Footer).
			Close()
	}

	if opts.LegacyRelID != "" {
		w.Open("legacyDrawing").Attr("r:id", opts.LegacyRelID).Close()
	}

	w.Close()
	return w.Bytes()
}

func writeCell(w *xmlw.Writer, ref string, cell *Cell, opts WriteOptions, sst StringInterner) {
	w.Open("c").Attr("r", ref)
	if opts.StyleIndex != nil {
		if idx := opts.StyleIndex(cell); idx != 0 {
			w.Attr("s", idx)
		}
	}

	switch cell.Type {
	case TypeStub:
		w.Close()
		return
	case TypeNumber:
		v, ok := cell.Value.(float64)
		if !ok {
			writeFormula(w, cell)
			break
		}
		writeValueCell(w, "", strconv.FormatFloat(v, 'g', -1, 64), cell)
	case TypeBool:
		v := "0"
		if cell.Value.(bool) {
			v = "1"
		}
		writeValueCell(w, "b", v, cell)
	case TypeError:
		writeValueCell(w, "e", cell.Value.(ErrorCode).DisplayString(), cell)
	case TypeDate:
		t := cell.Value.(time.Time)
		if opts.CellDates {
			w.Attr("t", "d")
			writeFormula(w, cell)
			s, _ := ooxml.WriteW3CDatetime(t, false)
			w.Open("v").Text(s).Close()
		} else {
			serial := dateconv.FromTime(t, opts.Date1904)
			writeValueCell(w, "", strconv.FormatFloat(serial, 'g', -1, 64), cell)
		}
	case TypeString:
		s := cell.Value.(string)
		if sst != nil {
			idx := sst.Add(s)
			w.Attr("t", "s")
			writeFormula(w, cell)
			w.Open("v").Text(strconv.Itoa(idx)).Close()
		} else {
			w.Attr("t", "str")
			writeFormula(w, cell)
			w.Open("v").Text(s).Close()
		}
	}
	w.Close()
}

func writeValueCell(w *xmlw.Writer, t, v string, cell *Cell) {
	if t != "" {
		w.Attr("t", t)
	}
	writeFormula(w, cell)
	w.Open("v").Text(v).Close()
}

func writeFormula(w *xmlw.Writer, cell *Cell) {
	if cell.F == "" {
		return
	}
	w.Open("f")
	if cell.FRange != "" {
		w.Attr("t", "array").Attr("ref", cell.FRange)
	}
	w.Text(cell.F)
	w.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
