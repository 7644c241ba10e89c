// Package worksheet implements the Worksheet data model and the
// worksheet.xml parser/writer: dense and sparse cell storage, the
// cell type tags, merges/autofilter/margins/hyperlinks, and the
// shared-string resolution pass run after every sheet has been parsed.
package worksheet

import "time"

// CellType is one of the six tagged-variant codes a cell can carry.
type CellType byte

const (
	TypeNumber CellType = 'n'
	TypeString CellType = 's'
	TypeBool   CellType = 'b'
	TypeDate   CellType = 'd'
	TypeError  CellType = 'e'
	TypeStub   CellType = 'z'
)

// ErrorCode is one of the eight SpreadsheetML error values.
type ErrorCode int

const (
	ErrNull   ErrorCode = 0x00
	ErrDiv0   ErrorCode = 0x07
	ErrValue  ErrorCode = 0x0F
	ErrRef    ErrorCode = 0x17
	ErrName   ErrorCode = 0x1D
	ErrNum    ErrorCode = 0x24
	ErrNA     ErrorCode = 0x2A
	ErrGetData ErrorCode = 0x2B
)

// errorDisplay maps each error code to its canonical on-sheet text.
var errorDisplay = map[ErrorCode]string{
	ErrNull: "#NULL!", ErrDiv0: "#DIV/0!", ErrValue: "#VALUE!", ErrRef: "#REF!",
	ErrName: "#NAME?", ErrNum: "#NUM!", ErrNA: "#N/A", ErrGetData: "#GETTING_DATA",
}

// DisplayString returns the canonical error literal for code.
func (c ErrorCode) DisplayString() string {
	if s, ok := errorDisplay[c]; ok {
		return s
	}
	return "#N/A"
}

// errorCodeByText is the reverse of errorDisplay, used when parsing a
// literal error string back into its numeric code.
var errorCodeByText = map[string]ErrorCode{
	"#NULL!": ErrNull, "#DIV/0!": ErrDiv0, "#VALUE!": ErrValue, "#REF!": ErrRef,
	"#NAME?": ErrName, "#NUM!": ErrNum, "#N/A": ErrNA, "#GETTING_DATA": ErrGetData,
}

// ErrorCodeFromText resolves a canonical error literal to its numeric code.
func ErrorCodeFromText(s string) (ErrorCode, bool) {
	c, ok := errorCodeByText[s]
	return c, ok
}

// Hyperlink is a cell's optional link attribute.
type Hyperlink struct {
	Target  string
	Tooltip string
}

// Comment is one entry in a cell's comment list.
type Comment struct {
	Author   string
	Text     string
	HTML     string
	Hidden   bool
	Threaded bool
	ID       string // threaded-comment guid, empty for legacy comments
	ParentID string // threaded-comment parent guid, empty for thread roots
}

// XFRef is the style-binding pointer a parsed cell carries when style
// retention is requested.
type XFRef struct {
	NumFmtID int
}

// Cell is the tagged-variant cell record.
type Cell struct {
	Type  CellType
	Value any // float64 | string | bool | time.Time | ErrorCode, per Type

	W        string // cached formatted display text
	F        string // formula (without leading "=")
	FRange   string // array-formula range (origin cell only)
	Dynamic  bool   // dynamic-array flag; set through the API, never serialized
	NumFmt   any    // string or int, explicit per-cell override
	Link     *Hyperlink
	Comments []Comment
	XF       *XFRef
	Rich     string // raw rich-text run XML, verbatim
	HTML     string
}

// IsEmpty reports whether the cell carries no meaningful value (stub with
// no formula/comment/link attached).
func (c *Cell) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Type == TypeStub && c.F == "" && c.Link == nil && len(c.Comments) == 0
}

// NumberCell builds a plain numeric cell.
func NumberCell(v float64) *Cell { return &Cell{Type: TypeNumber, Value: v} }

// StringCell builds a plain string cell.
func StringCell(v string) *Cell { return &Cell{Type: TypeString, Value: v} }

// BoolCell builds a plain boolean cell.
func BoolCell(v bool) *Cell { return &Cell{Type: TypeBool, Value: v} }

// DateCell builds a live-Date cell.
func DateCell(v time.Time) *Cell { return &Cell{Type: TypeDate, Value: v} }

// ErrorCell builds an error cell from its numeric code.
func ErrorCell(v ErrorCode) *Cell { return &Cell{Type: TypeError, Value: v} }

// StubCell builds an empty cell carrying no value.
func StubCell() *Cell { return &Cell{Type: TypeStub} }
