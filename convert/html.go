package convert

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

// HTMLOptions controls SheetToHTML.
type HTMLOptions struct {
	SanitizeLinks bool
	Date1904      bool
}

// skipSet is the set of cell addresses covered by a merge but not its
// top-left origin; these are omitted entirely, with rowspan/colspan set on
// the origin cell instead.
type skipSet map[cellref.Cell]bool

// SheetToHTML renders ws as a <table>, coalescing merged ranges and
// wrapping hyperlink cells in <a>.
func SheetToHTML(ws *worksheet.Worksheet, opts HTMLOptions, fmtTable *ssf.FormatTable) string {
	rg := ws.Range()
	spans := map[cellref.Cell][2]int{} // origin -> {rowspan, colspan}
	skip := skipSet{}
	for _, m := range ws.Merges {
		rows := m.End.R - m.Start.R + 1
		cols := m.End.C - m.Start.C + 1
		if rows <= 1 && cols <= 1 {
			continue
		}
		spans[m.Start] = [2]int{rows, cols}
		for r := m.Start.R; r <= m.End.R; r++ {
			for c := m.Start.C; c <= m.End.C; c++ {
				if r == m.Start.R && c == m.Start.C {
					continue
				}
				skip[cellref.Cell{C: c, R: r}] = true
			}
		}
	}

	var b strings.Builder
	b.WriteString("<table>\n")
	for r := rg.Start.R; r <= rg.End.R; r++ {
		b.WriteString("<tr>")
		for c := rg.Start.C; c <= rg.End.C; c++ {
			at := cellref.Cell{C: c, R: r}
			if skip[at] {
				continue
			}
			cell := ws.GetCell(at)
			b.WriteString(htmlTD(cell, spans[at], opts, fmtTable))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}

func htmlTD(cell *worksheet.Cell, span [2]int, opts HTMLOptions, fmtTable *ssf.FormatTable) string {
	var attrs strings.Builder
	if span[0] > 1 {
		fmt.Fprintf(&attrs, ` rowspan="%d"`, span[0])
	}
	if span[1] > 1 {
		fmt.Fprintf(&attrs, ` colspan="%d"`, span[1])
	}

	body := ""
	if cell != nil && !cell.IsEmpty() {
		fmt.Fprintf(&attrs, ` data-t="%c"`, cell.Type)
		if cell.F != "" {
			attrs.WriteString(` data-f="` + ooxml.EscapeHTML(cell.F) + `"`)
		}
		if cell.NumFmt != nil {
			attrs.WriteString(` data-z="` + fmt.Sprint(cell.NumFmt) + `"`)
		}

		switch cell.Type {
		case worksheet.TypeError:
			code, _ := cell.Value.(worksheet.ErrorCode)
			body = code.DisplayString()
		case worksheet.TypeNumber:
			n, _ := cell.Value.(float64)
			switch {
			case n != n: // NaN
				body = worksheet.ErrValue.DisplayString()
			case n > 1e308 || n < -1e308:
				body = worksheet.ErrDiv0.DisplayString()
			default:
				body = cellDisplayText(cell, fmtTable, opts.Date1904)
			}
		default:
			body = cellDisplayText(cell, fmtTable, opts.Date1904)
		}

		attrs.WriteString(` data-v="` + ooxml.EscapeHTML(body) + `"`)

		if cell.Link != nil {
			target := cell.Link.Target
			if opts.SanitizeLinks && isJavascriptURL(target) {
				target = ""
			}
			if target != "" {
				body = `<a href="` + ooxml.EscapeHTML(target) + `">` + ooxml.EscapeHTML(body) + `</a>`
				return "<td" + attrs.String() + ">" + body + "</td>"
			}
		}
	}
	return "<td" + attrs.String() + ">" + ooxml.EscapeHTML(body) + "</td>"
}

func cellDisplayText(cell *worksheet.Cell, fmtTable *ssf.FormatTable, date1904 bool) string {
	if cell.W != "" {
		return cell.W
	}
	if s, ok := cell.Value.(string); ok {
		return s
	}
	if fmtTable != nil {
		return fmtTable.Format(cell.NumFmt, cell.Value, date1904)
	}
	if n, ok := cell.Value.(float64); ok {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return fmt.Sprint(cell.Value)
}

func isJavascriptURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "javascript")
}
