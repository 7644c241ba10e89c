package convert

import (
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/cellref"
	"github.com/xlcore-go/xlcore/ssf"
	"github.com/xlcore-go/xlcore/worksheet"
)

// CSVOptions controls SheetToCSV.
type CSVOptions struct {
	FS          string
	RS          string
	ForceQuotes bool
	RawNumbers  bool
	Strip       bool
	Blankrows   bool
	Date1904    bool
}

func (o CSVOptions) fs() string {
	if o.FS != "" {
		return o.FS
	}
	return ","
}

func (o CSVOptions) rs() string {
	if o.RS != "" {
		return o.RS
	}
	return "\n"
}

// SheetToCSV renders ws as delimited text. The literal "ID" in A1 is force
// quoted to defeat SYLK file-format auto-detection.
func SheetToCSV(ws *worksheet.Worksheet, opts CSVOptions, fmtTable *ssf.FormatTable) string {
	rg := ws.Range()
	var b strings.Builder
	for r := rg.Start.R; r <= rg.End.R; r++ {
		fields := make([]string, 0, rg.End.C-rg.Start.C+1)
		anyNonEmpty := false
		for c := rg.Start.C; c <= rg.End.C; c++ {
			cell := ws.GetCell(cellref.Cell{C: c, R: r})
			text := csvCellText(cell, opts, fmtTable)
			if text != "" {
				anyNonEmpty = true
			}
			if r == rg.Start.R && c == rg.Start.C && text == "ID" {
				text = csvQuote(text)
			} else if csvNeedsQuote(text, opts) {
				text = csvQuote(text)
			}
			fields = append(fields, text)
		}
		if opts.Strip {
			for len(fields) > 0 && fields[len(fields)-1] == "" {
				fields = fields[:len(fields)-1]
			}
		}
		if !opts.Blankrows && !anyNonEmpty {
			continue
		}
		b.WriteString(strings.Join(fields, opts.fs()))
		b.WriteString(opts.rs())
	}
	return b.String()
}

func csvCellText(cell *worksheet.Cell, opts CSVOptions, fmtTable *ssf.FormatTable) string {
	if cell == nil || cell.IsEmpty() {
		return ""
	}
	if opts.RawNumbers {
		if n, ok := cell.Value.(float64); ok {
			return strconv.FormatFloat(n, 'g', -1, 64)
		}
	}
	if cell.W != "" {
		return cell.W
	}
	switch v := cell.Value.(type) {
	case string:
		return v
	case worksheet.ErrorCode:
		return v.DisplayString()
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if fmtTable != nil {
		return fmtTable.Format(cell.NumFmt, cell.Value, opts.Date1904)
	}
	if n, ok := cell.Value.(float64); ok {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return ""
}

func csvNeedsQuote(s string, opts CSVOptions) bool {
	if opts.ForceQuotes {
		return true
	}
	fs, rs := opts.fs(), opts.rs()
	return strings.Contains(s, fs) || strings.Contains(s, rs) ||
		strings.ContainsAny(s, "\r\n\"")
}

func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
