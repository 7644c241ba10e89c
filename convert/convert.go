// Package convert implements the high-level conversions between a
// worksheet and array-of-arrays, rows-of-records, CSV, and HTML
// representations.
package convert

import (
	"math"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/dateconv"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

// Origin describes where a bulk write begins: Row == -1 means "append
// after the sheet's last used row".
type Origin struct {
	Row int
	Col int
}

func (o Origin) resolve(ws *worksheet.Worksheet) cellref.Cell {
	if o.Row >= 0 {
		return cellref.Cell{C: o.Col, R: o.Row}
	}
	rg := ws.Range()
	next := rg.End.R + 1
	if ws.Ref == "" {
		next = 0
	}
	return cellref.Cell{C: o.Col, R: next}
}

func isFiniteNumber(f float64) (errCode worksheet.ErrorCode, isErr bool) {
	if math.IsNaN(f) {
		return worksheet.ErrValue, true
	}
	if math.IsInf(f, 0) {
		return worksheet.ErrDiv0, true
	}
	return 0, false
}

// dateToCell converts t into a cell per the cellDates/UTC rules shared by
// AddArrayToSheet and AddRecordsToSheet.
func dateToCell(t time.Time, cellDates, utc, date1904 bool, fmtTable *ssf.FormatTable) *worksheet.Cell {
	local := t
	if !utc {
		local = dateconv.UtcToLocal(t, time.Local)
	}
	var cell *worksheet.Cell
	if cellDates {
		cell = worksheet.DateCell(local)
	} else {
		cell = worksheet.NumberCell(dateconv.FromTime(local, date1904))
	}
	cell.NumFmt = 14
	if fmtTable != nil {
		cell.W = fmtTable.Format(14, cell.Value, date1904)
	}
	return cell
}
