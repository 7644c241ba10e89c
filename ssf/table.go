// Package ssf is the number-format (SSF) engine: a per-call FormatTable of
// built-in and custom number formats, plus the tokenizer/renderer that turns
// a raw cell value into its displayed text. Tokenizing is delegated to
// github.com/xuri/nfp; this package owns the format table and the
// rendering logic on top of it.
//
// The table is explicit, per-call state (a *FormatTable threaded through
// read/write), never a package-level global — two concurrent operations
// never share one.
package ssf

// MaxFormatID is the highest id a custom format may occupy (0x187).
const MaxFormatID = 0x187

const firstCustomID = 164

// FormatTable resolves a numFmtId to its format string. It starts out
// populated with the ECMA-376 built-ins and is reset at the start of every
// read or write entry point.
type FormatTable struct {
	byID     map[int]string
	nextFree int
}

// NewFormatTable returns a table reset to the built-in formats.
func NewFormatTable() *FormatTable {
	t := &FormatTable{
		byID:     make(map[int]string, len(builtInNumFmt)+8),
		nextFree: firstCustomID,
	}
	for id, s := range builtInNumFmt {
		t.byID[id] = s
	}
	return t
}

// Register records a custom format string. If id is non-negative, it is
// preserved verbatim (workbook-specific ids from the styles part). If id is
// negative, the first free slot at or above 164 is assigned. The assigned id
// is returned; ids beyond MaxFormatID are rejected.
func (t *FormatTable) Register(id int, fmtStr string) (int, error) {
	if id >= 0 {
		if id > MaxFormatID {
			return 0, &InvalidFormatIDError{ID: id}
		}
		t.byID[id] = fmtStr
		return id, nil
	}
	for t.nextFree <= MaxFormatID {
		if _, used := t.byID[t.nextFree]; !used {
			assigned := t.nextFree
			t.byID[assigned] = fmtStr
			t.nextFree++
			return assigned, nil
		}
		t.nextFree++
	}
	return 0, &InvalidFormatIDError{ID: id}
}

// Lookup resolves id to its format string, following the locale-alias map
// when id has no direct entry, defaulting to "General".
func (t *FormatTable) Lookup(id int) string {
	if s, ok := t.byID[id]; ok {
		return s
	}
	if alias, ok := DefaultFormatMap[id]; ok {
		if s, ok := t.byID[alias]; ok {
			return s
		}
	}
	if s, ok := DefaultFormatStrings[id]; ok {
		return s
	}
	return "General"
}

// InvalidFormatIDError reports a format id outside the representable range.
type InvalidFormatIDError struct {
	ID int
}

func (e *InvalidFormatIDError) Error() string {
	return "ssf: format id out of range (max 0x187)"
}

// builtInNumFmt holds the ECMA-376 §18.8.30 built-in format strings, ids
// 0-49 plus the CJK date format at 56.
var builtInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
	56: "yyyy\"年\"m\"月\"d\"日\"",
}

// DefaultFormatMap maps locale-id aliases (5-8, 23-36, 50-62, 67-82) to the
// equivalent built-in id whose format string they share.
var DefaultFormatMap = map[int]int{
	5: 37, 6: 38, 7: 39, 8: 40,
	23: 0, 24: 0, 25: 0, 26: 0,
	27: 14, 28: 14, 29: 14, 30: 14, 31: 14, 32: 21, 33: 21, 34: 21, 35: 21, 36: 14,
	50: 14, 51: 14, 52: 40, 53: 40, 54: 40, 55: 9, 56: 9, 57: 9, 58: 14,
	59: 1, 60: 2, 61: 3, 62: 4, 67: 9, 68: 10, 69: 12, 70: 13,
	71: 14, 72: 14, 73: 15, 74: 16, 75: 17, 76: 20, 77: 21, 78: 45, 79: 46, 80: 47, 81: 48, 82: 4,
}

// DefaultFormatStrings carries the literal accounting format strings for ids
// that have no simpler built-in alias (41-44 duplicated here for direct
// lookup symmetry, plus the further accounting/currency variants 63-66).
var DefaultFormatStrings = map[int]string{
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	63: `_-* #,##0_-;-* #,##0_-;_-* "-"_-;_-@_-`,
	64: `_-* #,##0.00_-;-* #,##0.00_-;_-* "-"??_-;_-@_-`,
	65: `_-* #,##0 "€"_-;-* #,##0 "€"_-;_-* "-" "€"_-;_-@_-`,
	66: `_-* #,##0.00 "€"_-;-* #,##0.00 "€"_-;_-* "-"?? "€"_-;_-@_-`,
}
