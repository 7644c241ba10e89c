// Package styles parses and writes the xl/styles.xml part: the
// custom numFmts table and the cellXfs array that binds a cell's style
// index to a numFmtId (plus font/fill/border ids the core only threads
// through, never interprets).
package styles

import (
	"strconv"

	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
	"github.com/xlcore-go/xlcore/opc"
	"github.com/xlcore-go/xlcore/ssf"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"

// Xf is one cellXfs record: the numFmtId plus the font/fill/border/xfId
// indices the core carries through without interpreting.
type Xf struct {
	NumFmtID int
	FontID   int
	FillID   int
	BorderID int
	XfID     int
}

// Styles is the parsed or in-progress xl/styles.xml part.
type Styles struct {
	NumFmts map[int]string // custom numFmtId -> format string
	CellXfs []Xf
}

// New returns an empty Styles value.
func New() *Styles {
	return &Styles{NumFmts: map[int]string{}}
}

// Parse reads xl/styles.xml, extracting <numFmts> and <cellXfs>. Unknown
// subsections (<fonts>, <fills>, <borders>, <cellStyleXfs>, <cellStyles>,
// <dxfs>, <tableStyles>, <extLst>) are ignored but tolerated.
func Parse(data []byte) (*Styles, error) {
	s := New()
	walker := xmlscan.NewWalker(data)
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "numFmt" {
			idStr, _ := tag.Attr("numFmtId")
			code, _ := tag.Attr("formatCode")
			if id, err := strconv.Atoi(idStr); err == nil {
				s.NumFmts[id] = code
			}
		}
		if !ok {
			break
		}
	}
	// cellStyleXfs, cellXfs, and dxfs all nest <xf> children, so a flat tag
	// scan can't tell them apart; bracket the <cellXfs>...</cellXfs> span
	// explicitly and parse only within it.
	if start, end, found := findSpan(data, "cellXfs"); found {
		s.CellXfs = parseCellXfs(data[start:end])
	}
	return s, nil
}

func findSpan(data []byte, elem string) (start, end int, found bool) {
	open := "<" + elem
	closeTag := "</" + elem + ">"
	startIdx := indexOf(data, open)
	if startIdx < 0 {
		return 0, 0, false
	}
	gt := indexOfFrom(data, ">", startIdx)
	if gt < 0 {
		return 0, 0, false
	}
	if data[gt-1] == '/' {
		return gt + 1, gt + 1, true
	}
	endIdx := indexOfFrom(data, closeTag, gt)
	if endIdx < 0 {
		return 0, 0, false
	}
	return gt + 1, endIdx, true
}

func indexOf(data []byte, s string) int    { return indexOfFrom(data, s, 0) }
func indexOfFrom(data []byte, s string, from int) int {
	n := len(s)
	for i := from; i+n <= len(data); i++ {
		if string(data[i:i+n]) == s {
			return i
		}
	}
	return -1
}

func parseCellXfs(span []byte) []Xf {
	var xfs []Xf
	walker := xmlscan.NewWalker(span)
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "xf" && !tag.Closing {
			xfs = append(xfs, Xf{
				NumFmtID: atoiDefault(attrOr(tag, "numFmtId", "0")),
				FontID:   atoiDefault(attrOr(tag, "fontId", "0")),
				FillID:   atoiDefault(attrOr(tag, "fillId", "0")),
				BorderID: atoiDefault(attrOr(tag, "borderId", "0")),
				XfID:     atoiDefault(attrOr(tag, "xfId", "0")),
			})
		}
		if !ok {
			break
		}
	}
	return xfs
}

func attrOr(tag xmlscan.Tag, name, def string) string {
	if v, ok := tag.Attr(name); ok {
		return v
	}
	return def
}

func atoiDefault(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// NumFmtIDFor returns the cellXfs entry's numFmtId for styleIndex, or 0
// (General) if styleIndex is out of range.
func (s *Styles) NumFmtIDFor(styleIndex int) int {
	if styleIndex < 0 || styleIndex >= len(s.CellXfs) {
		return 0
	}
	return s.CellXfs[styleIndex].NumFmtID
}

// Builder assigns cellXfs indices during write. Index 0 stays the default
// (General) xf; every distinct numFmtId a cell asks for gets one xf record,
// reused across cells that share the format.
type Builder struct {
	s        *Styles
	byFmtID  map[int]int
	byFmtStr map[string]int // format string -> assigned numFmtId
}

// NewBuilder wraps s for write-time index assignment, seeding the two
// identical default cellXfs entries the minimal stylesheet always carries.
func NewBuilder(s *Styles) *Builder {
	if len(s.CellXfs) == 0 {
		s.CellXfs = []Xf{{}, {}}
	}
	return &Builder{s: s, byFmtID: map[int]int{}, byFmtStr: map[string]int{}}
}

// IndexFor resolves a cell's NumFmt (nil, an int id, or a literal format
// string) to a cellXfs index, registering custom format strings into table
// and the styles part's numFmts as needed. nil and General map to index 0.
func (b *Builder) IndexFor(numFmt any, table *ssf.FormatTable) int {
	var id int
	switch v := numFmt.(type) {
	case nil:
		return 0
	case int:
		id = v
	case string:
		if v == "" || v == "General" {
			return 0
		}
		if known, ok := b.byFmtStr[v]; ok {
			id = known
		} else {
			assigned, err := table.Register(-1, v)
			if err != nil {
				return 0
			}
			id = assigned
			b.byFmtStr[v] = id
			b.s.NumFmts[id] = v
		}
	default:
		return 0
	}
	if id == 0 {
		return 0
	}
	if idx, ok := b.byFmtID[id]; ok {
		return idx
	}
	if _, custom := b.s.NumFmts[id]; !custom && id >= 164 {
		b.s.NumFmts[id] = table.Lookup(id)
	}
	idx := len(b.s.CellXfs)
	b.s.CellXfs = append(b.s.CellXfs, Xf{NumFmtID: id})
	b.byFmtID[id] = idx
	return idx
}

// RegisterInto loads every custom numFmt this styles part carries into t,
// preserving ids, so cell style indices resolve to the formats this
// workbook actually defines.
func (s *Styles) RegisterInto(t *ssf.FormatTable) {
	for id, code := range s.NumFmts {
		_, _ = t.Register(id, code)
	}
}

// Write emits a minimum valid xl/styles.xml: one custom "General" format
// (id 164) if none was registered, one font, two fills (none, gray125), one
// empty border, one cellStyleXfs, the caller's cellXfs (defaulting to two
// identical entries), and one cellStyle ("Normal").
func (s *Styles) Write() []byte {
	w := xmlw.New()
	w.OpenBare("styleSheet").Attr("xmlns", mainNamespace)

	if len(s.NumFmts) > 0 {
		w.Open("numFmts").Attr("count", len(s.NumFmts))
		for _, id := range opc.SortedKeys(s.NumFmts) {
			w.Open("numFmt").Attr("numFmtId", id).Attr("formatCode", s.NumFmts[id]).Close()
		}
		w.Close()
	} else {
		w.Open("numFmts").Attr("count", 1)
		w.Open("numFmt").Attr("numFmtId", 164).Attr("formatCode", "General").Close()
		w.Close()
	}

	w.Open("fonts").Attr("count", 1)
	w.Open("font")
	w.Open("sz").Attr("val", 11).Close()
	w.Open("color").Attr("theme", 1).Close()
	w.Open("name").Attr("val", "Calibri").Close()
	w.Close()
	w.Close()

	w.Open("fills").Attr("count", 2)
	w.Open("fill")
	w.Open("patternFill").Attr("patternType", "none").Close()
	w.Close()
	w.Open("fill")
	w.Open("patternFill").Attr("patternType", "gray125").Close()
	w.Close()
	w.Close()

	w.Open("borders").Attr("count", 1)
	w.Open("border")
	w.Open("left").Close()
	w.Open("right").Close()
	w.Open("top").Close()
	w.Open("bottom").Close()
	w.Open("diagonal").Close()
	w.Close()
	w.Close()

	w.Open("cellStyleXfs").Attr("count", 1)
	w.Open("xf").Attr("numFmtId", 0).Attr("fontId", 0).Attr("fillId", 0).Attr("borderId", 0).Close()
	w.Close()

	xfs := s.CellXfs
	if len(xfs) == 0 {
		xfs = []Xf{{}, {}}
	}
	w.Open("cellXfs").Attr("count", len(xfs))
	for _, xf := range xfs {
		w.Open("xf").
			Attr("numFmtId", xf.NumFmtID).
			Attr("fontId", xf.FontID).
			Attr("fillId", xf.FillID).
			Attr("borderId", xf.BorderID).
			Attr("xfId", xf.XfID).
			Close()
	}
	w.Close()

	w.Open("cellStyles").Attr("count", 1)
	w.Open("cellStyle").Attr("name", "Normal").Attr("xfId", 0).Attr("builtinId", 0).Close()
	w.Close()

	w.Close()
	return w.Bytes()
}
