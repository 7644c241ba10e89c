package convert

import (
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/worksheet"
)

// ToFormulaeList renders ws as a flat list of "ref=expression" strings: one
// entry per non-empty cell, array formulas emitting only their origin with
// the array range as ref, plain formulas as "ref=formula", and literal
// values as "ref=literal" (strings prefixed with a leading apostrophe,
// booleans as TRUE/FALSE). Blank cells are skipped.
func ToFormulaeList(ws *worksheet.Worksheet) []string {
	var out []string
	ws.EachCell(func(c cellref.Cell, cell *worksheet.Cell) {
		if cell.IsEmpty() {
			return
		}
		ref, _ := cellref.EncodeCell(c)

		if cell.F != "" {
			if cell.FRange != "" {
				ref = cell.FRange
			}
			out = append(out, ref+"="+cell.F)
			return
		}

		switch v := cell.Value.(type) {
		case string:
			out = append(out, ref+"='"+v)
		case bool:
			lit := "FALSE"
			if v {
				lit = "TRUE"
			}
			out = append(out, ref+"="+lit)
		case float64:
			out = append(out, ref+"="+strconv.FormatFloat(v, 'g', -1, 64))
		case worksheet.ErrorCode:
			out = append(out, ref+"="+v.DisplayString())
		default:
			out = append(out, ref+"="+strings.TrimSpace(cell.W))
		}
	})
	return out
}
