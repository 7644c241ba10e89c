package convert

import (
	"fmt"
	"time"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/dateconv"
	"github.com/xlcore-go/xlcore/internal/dateformat"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

// RecordsOptions controls AddRecordsToSheet.
type RecordsOptions struct {
	Origin     Origin
	Header     []string // explicit column order; nil infers from first-seen keys
	SkipHeader bool
	UTC        bool
	CellDates  bool
	Date1904   bool
}

// AddRecordsToSheet writes a slice of row-records (maps keyed by column
// name) into ws as a header row followed by one row per record.
func AddRecordsToSheet(ws *worksheet.Worksheet, rows []map[string]any, opts RecordsOptions, fmtTable *ssf.FormatTable) error {
	header := opts.Header
	if header == nil {
		seen := map[string]bool{}
		for _, row := range rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					header = append(header, k)
				}
			}
		}
	}

	origin := opts.Origin.resolve(ws)
	r := origin.R
	if !opts.SkipHeader {
		for ci, name := range header {
			if err := ws.SetCell(cellref.Cell{C: origin.C + ci, R: r}, worksheet.StringCell(name)); err != nil {
				return err
			}
		}
		r++
	}

	for _, row := range rows {
		for ci, name := range header {
			raw, ok := row[name]
			if !ok {
				continue
			}
			cell, skip, err := aoaCell(raw, AOAOptions{UTC: opts.UTC, CellDates: opts.CellDates, Date1904: opts.Date1904}, fmtTable)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
			if err := ws.SetCell(cellref.Cell{C: origin.C + ci, R: r}, cell); err != nil {
				return err
			}
		}
		r++
	}
	return nil
}

// HeaderMode selects how SheetToRecords derives output keys.
type HeaderMode int

const (
	HeaderInferred HeaderMode = iota // from row 0, deduplicated with _N suffixes
	HeaderIndex                      // 0-based column index as key
	HeaderLetter                     // column letter as key
	HeaderExplicit                   // caller-supplied key list
)

// RecordsQuery controls SheetToRecords.
type RecordsQuery struct {
	Header     HeaderMode
	Keys       []string // required when Header == HeaderExplicit
	Raw        bool     // true: cell value as-is; false: SSF-formatted text
	RawNumbers bool     // per-cell override for numeric cells when !Raw
	UTC        bool
	Date1904   bool
	Defval     any // used when a row is missing a column; nil columns are omitted
}

// SheetToRecords converts ws into a slice of ordered maps (returned as
// []map[string]any, with key order recoverable from the header returned
// alongside). Each record also carries "__rowNum__" with its 0-based sheet
// row index, except when Header == HeaderIndex.
func SheetToRecords(ws *worksheet.Worksheet, q RecordsQuery, fmtTable *ssf.FormatTable) (header []string, rows []map[string]any, err error) {
	rg := ws.Range()
	firstDataRow := rg.Start.R

	switch q.Header {
	case HeaderExplicit:
		header = q.Keys
	case HeaderIndex:
		for c := rg.Start.C; c <= rg.End.C; c++ {
			header = append(header, fmt.Sprintf("%d", c))
		}
	case HeaderLetter:
		for c := rg.Start.C; c <= rg.End.C; c++ {
			s, _ := cellref.EncodeCol(c)
			header = append(header, s)
		}
	default:
		seen := map[string]int{}
		for c := rg.Start.C; c <= rg.End.C; c++ {
			name := cellText(ws.GetCell(cellref.Cell{C: c, R: rg.Start.R}), q, fmtTable)
			if name == "" {
				letter, _ := cellref.EncodeCol(c)
				name = letter
			}
			if n := seen[name]; n > 0 {
				seen[name]++
				name = fmt.Sprintf("%s_%d", name, n)
			} else {
				seen[name] = 1
			}
			header = append(header, name)
		}
		firstDataRow = rg.Start.R + 1
	}

	for r := firstDataRow; r <= rg.End.R; r++ {
		record := map[string]any{}
		if q.Header != HeaderIndex {
			record["__rowNum__"] = r
		}
		for i, c := rg.Start.C, 0; i <= rg.End.C; i, c = i+1, c+1 {
			if c >= len(header) {
				break
			}
			cell := ws.GetCell(cellref.Cell{C: i, R: r})
			v, present := recordValue(cell, q, fmtTable)
			if !present {
				if q.Defval != nil {
					record[header[c]] = q.Defval
				}
				continue
			}
			record[header[c]] = v
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

func cellText(cell *worksheet.Cell, q RecordsQuery, fmtTable *ssf.FormatTable) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.Value.(string); ok {
		return s
	}
	if fmtTable != nil {
		return fmtTable.Format(cell.NumFmt, cell.Value, q.Date1904)
	}
	return fmt.Sprint(cell.Value)
}

func recordValue(cell *worksheet.Cell, q RecordsQuery, fmtTable *ssf.FormatTable) (any, bool) {
	if cell == nil || cell.IsEmpty() {
		return nil, false
	}
	switch cell.Type {
	case worksheet.TypeStub:
		return nil, false
	case worksheet.TypeError:
		code, _ := cell.Value.(worksheet.ErrorCode)
		if code == 0 {
			return nil, true
		}
		return nil, false
	case worksheet.TypeDate:
		t, _ := cell.Value.(time.Time)
		if !q.UTC {
			t = dateconv.LocalToUtc(t)
		}
		return t, true
	case worksheet.TypeNumber:
		n, _ := cell.Value.(float64)
		var nfID int
		if id, ok := cell.NumFmt.(int); ok {
			nfID = id
		}
		var fmtStr string
		if s, ok := cell.NumFmt.(string); ok {
			fmtStr = s
		}
		if dateformat.IsBuiltInDateID(nfID) || dateformat.ScanFormatStr(fmtStr) {
			t := dateconv.ToTime(n, q.Date1904)
			if !q.UTC {
				t = dateconv.LocalToUtc(t)
			}
			return t, true
		}
		if q.Raw || q.RawNumbers {
			return n, true
		}
		if fmtTable != nil {
			return fmtTable.Format(cell.NumFmt, n, q.Date1904), true
		}
		return n, true
	default:
		if q.Raw {
			return cell.Value, true
		}
		if fmtTable != nil {
			return fmtTable.Format(cell.NumFmt, cell.Value, q.Date1904), true
		}
		return cell.Value, true
	}
}

