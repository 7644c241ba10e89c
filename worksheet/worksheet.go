package worksheet

import (
	"sort"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/internal/xlerr"
)

// ColInfo is one <col> entry, indexed by 0-based column.
type ColInfo struct {
	Index       int
	Width       float64
	CustomWidth bool
	Hidden      bool
}

// RowInfo is one <row> entry's non-cell metadata, indexed by 0-based row.
type RowInfo struct {
	Index  int
	Height float64
	Hidden bool
}

// Margins holds the six <pageMargins> values.
type Margins struct {
	Left, Right, Top, Bottom, Header, Footer float64
}

// AutoFilter is the {ref} of an <autoFilter> element.
type AutoFilter struct {
	Ref string
}

// Worksheet holds one sheet in either of two equivalent storage forms (sparse keyed
// by A1 reference, dense row-major), plus the sheet-level metadata that
// isn't per-cell.
type Worksheet struct {
	Dense bool

	sparse map[string]*Cell
	dense  [][]*Cell

	Ref       string
	FullRef   string // present only when sheetRows clamped Ref
	Cols      []ColInfo
	Rows      []RowInfo
	Merges    []cellref.Range
	AutoFilter *AutoFilter
	Margins   *Margins
	Legacy    bool // transient drawing flag
}

// New returns an empty sparse worksheet.
func New() *Worksheet {
	return &Worksheet{sparse: map[string]*Cell{}}
}

// NewDense returns an empty dense worksheet.
func NewDense() *Worksheet {
	return &Worksheet{Dense: true}
}

// Get returns the cell at ref ("B3"), or nil if absent.
func (ws *Worksheet) Get(ref string) *Cell {
	c, err := cellref.DecodeCell(ref)
	if err != nil {
		return nil
	}
	return ws.GetCell(c)
}

// GetCell returns the cell at the zero-based address c, or nil if absent.
func (ws *Worksheet) GetCell(c cellref.Cell) *Cell {
	if ws.Dense {
		if c.R < 0 || c.R >= len(ws.dense) {
			return nil
		}
		row := ws.dense[c.R]
		if c.C < 0 || c.C >= len(row) {
			return nil
		}
		return row[c.C]
	}
	ref, err := cellref.EncodeCell(c)
	if err != nil {
		return nil
	}
	return ws.sparse[ref]
}

// Set stores cell at ref, expanding !ref to include it.
func (ws *Worksheet) Set(ref string, cell *Cell) error {
	c, err := cellref.DecodeCell(ref)
	if err != nil {
		return err
	}
	return ws.SetCell(c, cell)
}

// SetCell stores cell at the zero-based address c, expanding !ref.
func (ws *Worksheet) SetCell(c cellref.Cell, cell *Cell) error {
	if c.C < 0 || c.R < 0 {
		return xlerr.New(xlerr.KindInvalidArgument, "negative cell address")
	}
	if ws.Dense {
		for len(ws.dense) <= c.R {
			ws.dense = append(ws.dense, nil)
		}
		row := ws.dense[c.R]
		for len(row) <= c.C {
			row = append(row, nil)
		}
		row[c.C] = cell
		ws.dense[c.R] = row
	} else {
		ref, err := cellref.EncodeCell(c)
		if err != nil {
			return err
		}
		ws.sparse[ref] = cell
	}
	ws.expandRef(c)
	return nil
}

func (ws *Worksheet) expandRef(c cellref.Cell) {
	if ws.Ref == "" {
		r, _ := cellref.EncodeRange(cellref.Range{Start: c, End: c})
		ws.Ref = r
		return
	}
	rg, err := cellref.FastDecodeRange(ws.Ref)
	if err != nil {
		return
	}
	changed := false
	if c.C < rg.Start.C {
		rg.Start.C = c.C
		changed = true
	}
	if c.R < rg.Start.R {
		rg.Start.R = c.R
		changed = true
	}
	if c.C > rg.End.C {
		rg.End.C = c.C
		changed = true
	}
	if c.R > rg.End.R {
		rg.End.R = c.R
		changed = true
	}
	if changed {
		ws.Ref, _ = cellref.EncodeRange(rg)
	}
}

// Range returns the worksheet's used range decoded from !ref. If !ref is
// empty, a zero Range is returned.
func (ws *Worksheet) Range() cellref.Range {
	if ws.Ref == "" {
		return cellref.Range{}
	}
	rg, err := cellref.DecodeRange(ws.Ref)
	if err != nil {
		return cellref.Range{}
	}
	return rg
}

// EachCell invokes fn for every non-nil cell in the used range, in
// row-major order, regardless of storage form.
func (ws *Worksheet) EachCell(fn func(c cellref.Cell, cell *Cell)) {
	rg := ws.Range()
	if ws.Dense {
		for r := rg.Start.R; r <= rg.End.R && r < len(ws.dense); r++ {
			row := ws.dense[r]
			for col := rg.Start.C; col <= rg.End.C && col < len(row); col++ {
				if row[col] != nil {
					fn(cellref.Cell{C: col, R: r}, row[col])
				}
			}
		}
		return
	}
	refs := make([]string, 0, len(ws.sparse))
	for ref := range ws.sparse {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		ci, _ := cellref.DecodeCell(refs[i])
		cj, _ := cellref.DecodeCell(refs[j])
		if ci.R != cj.R {
			return ci.R < cj.R
		}
		return ci.C < cj.C
	})
	for _, ref := range refs {
		c, _ := cellref.DecodeCell(ref)
		fn(c, ws.sparse[ref])
	}
}

// ToDense converts a sparse worksheet to dense storage; the conversion is
// total, no cell or sheet metadata is lost.
func (ws *Worksheet) ToDense() *Worksheet {
	if ws.Dense {
		return ws
	}
	out := NewDense()
	out.Ref, out.FullRef, out.Cols, out.Rows = ws.Ref, ws.FullRef, ws.Cols, ws.Rows
	out.Merges, out.AutoFilter, out.Margins, out.Legacy = ws.Merges, ws.AutoFilter, ws.Margins, ws.Legacy
	ws.EachCell(func(c cellref.Cell, cell *Cell) {
		_ = out.SetCell(c, cell)
	})
	return out
}

// ToSparse converts a dense worksheet to sparse storage.
func (ws *Worksheet) ToSparse() *Worksheet {
	if !ws.Dense {
		return ws
	}
	out := New()
	out.Ref, out.FullRef, out.Cols, out.Rows = ws.Ref, ws.FullRef, ws.Cols, ws.Rows
	out.Merges, out.AutoFilter, out.Margins, out.Legacy = ws.Merges, ws.AutoFilter, ws.Margins, ws.Legacy
	ws.EachCell(func(c cellref.Cell, cell *Cell) {
		_ = out.SetCell(c, cell)
	})
	return out
}

// SetArrayFormula marks the origin cell of rangeRef with formula f and
// registers the array-formula range on every cell the range covers; only
// the origin carries the formula string itself, the rest carry the range so
// a reader can tell a spilled member from a plain value.
func (ws *Worksheet) SetArrayFormula(rangeRef, f string) error {
	rg, err := cellref.DecodeRange(rangeRef)
	if err != nil {
		return err
	}
	origin := ws.GetCell(rg.Start)
	if origin == nil {
		origin = StubCell()
	}
	origin.F = f
	origin.FRange = rangeRef
	origin.Type = TypeNumber
	if err := ws.SetCell(rg.Start, origin); err != nil {
		return err
	}
	for r := rg.Start.R; r <= rg.End.R; r++ {
		for c := rg.Start.C; c <= rg.End.C; c++ {
			at := cellref.Cell{C: c, R: r}
			if at == rg.Start {
				continue
			}
			member := ws.GetCell(at)
			if member == nil {
				member = StubCell()
			}
			member.FRange = rangeRef
			if err := ws.SetCell(at, member); err != nil {
				return err
			}
		}
	}
	return nil
}

// PropagateArrayRanges copies each array formula's range marker from its
// origin cell onto every other cell the range covers, creating stubs where
// the sheet has no cell yet. The range attribute only ever appears on the
// origin in worksheet XML, so parsing runs this as a post-pass.
func (ws *Worksheet) PropagateArrayRanges() {
	type span struct {
		rg  cellref.Range
		ref string
	}
	var spans []span
	ws.EachCell(func(c cellref.Cell, cell *Cell) {
		if cell.F == "" || cell.FRange == "" {
			return
		}
		if rg, err := cellref.DecodeRange(cell.FRange); err == nil {
			spans = append(spans, span{rg: rg, ref: cell.FRange})
		}
	})
	for _, sp := range spans {
		for r := sp.rg.Start.R; r <= sp.rg.End.R; r++ {
			for c := sp.rg.Start.C; c <= sp.rg.End.C; c++ {
				at := cellref.Cell{C: c, R: r}
				cell := ws.GetCell(at)
				if cell == nil {
					cell = StubCell()
					_ = ws.SetCell(at, cell)
				}
				if cell.FRange == "" {
					cell.FRange = sp.ref
				}
			}
		}
	}
}

// Validate rejects merges whose start lies after their end and autofilter
// refs that do not decode; the workbook validator runs it at the top of every
// write. It does not compare merges, the autofilter or the dimension against
// the used range.
func (ws *Worksheet) Validate() error {
	used := ws.Range()
	for _, m := range ws.Merges {
		if m.Start.C > m.End.C || m.Start.R > m.End.R {
			return xlerr.New(xlerr.KindInvalidArgument, "merge range has start after end")
		}
	}
	if ws.AutoFilter != nil && ws.AutoFilter.Ref != "" {
		if _, err := cellref.DecodeRange(ws.AutoFilter.Ref); err != nil {
			return xlerr.New(xlerr.KindInvalidArgument, "invalid autofilter ref")
		}
	}
	_ = used
	return nil
}
