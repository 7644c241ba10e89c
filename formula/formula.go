// Package formula implements the R1C1/A1 reference transforms and the
// shared-formula reference-shifting algebra: converting between
// R1C1 and A1 notation, shifting relative references by a row/column delta
// (the operation that materializes a shared formula group into a non-origin
// cell), and the small string-level helpers (_xlfn. stripping, the
// "fuzzy formula" heuristic).
package formula

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/cellref"
)

// r1c1Token matches one R1C1 reference: R[n]C[n], R n C n, RC, R C[n], etc.
var r1c1Token = regexp.MustCompile(`R(\[-?\d+\]|\d+)?C(\[-?\d+\]|\d+)?`)

// RcToA1 rewrites every R1C1 token in f to its A1 equivalent, using base as
// the anchor cell for relative ("R[1]C[1]"-style) deltas. Absolute rows and
// columns ("R5C3") gain a leading "$" in the A1 output.
func RcToA1(f string, base cellref.Cell) (string, error) {
	var outerErr error
	out := r1c1Token.ReplaceAllStringFunc(f, func(tok string) string {
		if outerErr != nil {
			return tok
		}
		m := r1c1Token.FindStringSubmatch(tok)
		rowPart, colPart := m[1], m[2]

		row, rowAbs, err := resolveAxis(rowPart, base.R)
		if err != nil {
			outerErr = err
			return tok
		}
		col, colAbs, err := resolveAxis(colPart, base.C)
		if err != nil {
			outerErr = err
			return tok
		}

		colStr, err := cellref.EncodeCol(col)
		if err != nil {
			outerErr = err
			return tok
		}
		var b strings.Builder
		if colAbs {
			b.WriteByte('$')
		}
		b.WriteString(colStr)
		if rowAbs {
			b.WriteByte('$')
		}
		b.WriteString(strconv.Itoa(row + 1))
		return b.String()
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}

// resolveAxis decodes one R or C component. An empty part means "current
// position" (relative, delta 0). "[n]" is a relative delta. A bare digit
// string is an absolute 1-based index.
func resolveAxis(part string, base int) (index int, absolute bool, err error) {
	if part == "" {
		return base, false, nil
	}
	if strings.HasPrefix(part, "[") {
		n, err := strconv.Atoi(part[1 : len(part)-1])
		if err != nil {
			return 0, false, err
		}
		return base + n, false, nil
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, false, err
	}
	return n - 1, true, nil
}

// a1Token matches one A1 reference, with optional "$" on column and/or row.
var a1Token = regexp.MustCompile(`(\$?)([A-Za-z]{1,3})(\$?)(\d+)`)

// A1ToRc is the inverse of RcToA1: every A1 token in f is rewritten to
// R1C1, relative to base. Absolute parts ("$"-marked) become 1-based
// literals; relative parts become "[offset]", or are omitted entirely when
// the offset is zero.
func A1ToRc(f string, base cellref.Cell) (string, error) {
	var outerErr error
	out := a1Token.ReplaceAllStringFunc(f, func(tok string) string {
		if outerErr != nil {
			return tok
		}
		m := a1Token.FindStringSubmatch(tok)
		colAbs, colLetters, rowAbs, rowDigits := m[1] == "$", m[2], m[3] == "$", m[4]

		col, err := cellref.DecodeCol(colLetters)
		if err != nil {
			outerErr = err
			return tok
		}
		row, err := strconv.Atoi(rowDigits)
		if err != nil {
			outerErr = err
			return tok
		}
		row--

		var b strings.Builder
		b.WriteByte('R')
		b.WriteString(axisToken(row, base.R, rowAbs))
		b.WriteByte('C')
		b.WriteString(axisToken(col, base.C, colAbs))
		return b.String()
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}

func axisToken(index, base int, absolute bool) string {
	if absolute {
		return strconv.Itoa(index + 1)
	}
	delta := index - base
	if delta == 0 {
		return ""
	}
	return "[" + strconv.Itoa(delta) + "]"
}

// ShiftFormulaStr shifts every relative (non "$"-marked) reference in f by
// delta. Absolute references are left untouched.
func ShiftFormulaStr(f string, delta cellref.Cell) string {
	return a1Token.ReplaceAllStringFunc(f, func(tok string) string {
		m := a1Token.FindStringSubmatch(tok)
		colAbs, colLetters, rowAbs, rowDigits := m[1] == "$", m[2], m[3] == "$", m[4]

		col, err := cellref.DecodeCol(colLetters)
		if err != nil {
			return tok
		}
		row, err := strconv.Atoi(rowDigits)
		if err != nil {
			return tok
		}
		row--

		if !colAbs {
			col += delta.C
		}
		if !rowAbs {
			row += delta.R
		}
		if col < 0 || row < 0 {
			return "#REF!"
		}

		colStr, err := cellref.EncodeCol(col)
		if err != nil {
			return tok
		}
		var b strings.Builder
		if colAbs {
			b.WriteByte('$')
		}
		b.WriteString(colStr)
		if rowAbs {
			b.WriteByte('$')
		}
		b.WriteString(strconv.Itoa(row + 1))
		return b.String()
	})
}

// ShiftFormulaXlsx computes the delta from rg's start to cell and applies
// ShiftFormulaStr with it — the operation that materializes a shared-formula
// group's formula string into a non-origin cell.
func ShiftFormulaXlsx(f string, rg cellref.Range, cell cellref.Cell) string {
	delta := cellref.Cell{C: cell.C - rg.Start.C, R: cell.R - rg.Start.R}
	return ShiftFormulaStr(f, delta)
}

// StripXlFunctionPrefix removes every "_xlfn." occurrence from f, the
// namespace prefix Excel attaches to functions newer than the base
// SpreadsheetML function set.
func StripXlFunctionPrefix(f string) string {
	return strings.ReplaceAll(f, "_xlfn.", "")
}

// IsFuzzyFormula reports whether f looks like more than a single token
// reference — the cheap heuristic used to decide whether a cached formula
// string is worth re-deriving (len > 1 after trimming any leading "=").
func IsFuzzyFormula(f string) bool {
	return len(strings.TrimPrefix(f, "=")) > 1
}
