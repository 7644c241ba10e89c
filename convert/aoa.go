package convert

import (
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

// AOAOptions controls AddArrayToSheet.
type AOAOptions struct {
	Origin     Origin
	UTC        bool
	CellDates  bool
	NullError  bool
	SheetStubs bool
	Date1904   bool
}

// AddArrayToSheet writes rows (an array of arrays, each element one of
// nil, float64, bool, string, time.Time, *worksheet.Cell, or a two-element
// []any{value, formula}) into ws starting at opts.Origin. The sheet's !ref
// is extended only if at least one cell was written.
func AddArrayToSheet(ws *worksheet.Worksheet, rows [][]any, opts AOAOptions, fmtTable *ssf.FormatTable) error {
	origin := opts.Origin.resolve(ws)
	wrote := false

	for ri, row := range rows {
		for ci, raw := range row {
			at := cellref.Cell{C: origin.C + ci, R: origin.R + ri}
			cell, skip, err := aoaCell(raw, opts, fmtTable)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			if err := ws.SetCell(at, cell); err != nil {
				return err
			}
			wrote = true
		}
	}
	_ = wrote
	return nil
}

func aoaCell(raw any, opts AOAOptions, fmtTable *ssf.FormatTable) (*worksheet.Cell, bool, error) {
	var formula string
	value := raw
	if pair, ok := raw.([]any); ok && len(pair) == 2 {
		value = pair[0]
		if f, ok := pair[1].(string); ok {
			formula = f
		}
	}

	switch v := value.(type) {
	case nil:
		switch {
		case formula != "":
			c := worksheet.NumberCell(0)
			c.F = formula
			return c, false, nil
		case opts.NullError:
			return worksheet.ErrorCell(worksheet.ErrValue), false, nil
		case opts.SheetStubs:
			return worksheet.StubCell(), false, nil
		default:
			return nil, true, nil
		}
	case *worksheet.Cell:
		return v, false, nil
	case float64:
		if code, isErr := isFiniteNumber(v); isErr {
			return worksheet.ErrorCell(code), false, nil
		}
		c := worksheet.NumberCell(v)
		c.F = formula
		return c, false, nil
	case int:
		c := worksheet.NumberCell(float64(v))
		c.F = formula
		return c, false, nil
	case bool:
		c := worksheet.BoolCell(v)
		c.F = formula
		return c, false, nil
	case time.Time:
		c := dateToCell(v, opts.CellDates, opts.UTC, opts.Date1904, fmtTable)
		c.F = formula
		return c, false, nil
	case string:
		c := worksheet.StringCell(v)
		c.F = formula
		return c, false, nil
	default:
		return nil, true, nil
	}
}
