// Package workbook implements the Workbook data model, the workbook.xml
// parser/writer (sheet list, defined names, workbookPr, views), and the
// top-of-write validation rules.
package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/internal/xlerr"
	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
	"github.com/xlcore-go/xlcore/metadata"
	"github.com/xlcore-go/xlcore/worksheet"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// Visibility is one of the three SpreadsheetML sheet-state values.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
	VeryHidden
)

func (v Visibility) xmlValue() string {
	switch v {
	case Hidden:
		return "hidden"
	case VeryHidden:
		return "veryHidden"
	default:
		return "visible"
	}
}

func parseVisibility(s string) Visibility {
	switch s {
	case "hidden":
		return Hidden
	case "veryHidden":
		return VeryHidden
	default:
		return Visible
	}
}

// SheetRef is one entry in the workbook's ordered sheet list.
type SheetRef struct {
	Name    string
	SheetID int
	RID     string
	State   Visibility
}

// DefinedName is one <definedName> entry. LocalSheetID, when non-negative,
// scopes the name to that sheet (0-based) rather than the whole workbook.
type DefinedName struct {
	Name         string
	Ref          string
	LocalSheetID int // -1 for workbook scope
}

// View is one <workbookView> entry.
type View struct {
	ActiveTab int
}

// WBProps carries the sheet-visibility metadata, defined names, views, and
// the date-system flag that live in workbook.xml outside the bare sheet
// list.
type WBProps struct {
	Date1904      bool
	FilterPrivacy bool
	CodeName      string
	DefinedNames  []DefinedName
	Views         []View
}

// Workbook is the in-memory model: an ordered sheet-name sequence, a
// name->Worksheet map, and the document-level metadata.
type Workbook struct {
	SheetNames []string
	Sheets     map[string]*worksheet.Worksheet
	SheetRefs  []SheetRef // parallel metadata to SheetNames, same order
	Props      *CoreProps
	CustProps  map[string]any
	WBProps    WBProps

	// Theme carries the raw xl/theme/theme1.xml payload across a
	// read-modify-write cycle; empty means the writer falls back to its
	// built-in template.
	Theme []byte
	// CalcChain holds the parsed calcChain.xml entries when the reader was
	// asked to retain them. The writer never re-emits the chain (the core
	// does not evaluate formulae, so it cannot keep the chain correct).
	CalcChain []metadata.ChainEntry
	// Files carries every raw part keyed by package path when the reader
	// was asked to retain the file map (bookFiles).
	Files map[string][]byte
}

// New returns an empty Workbook ready for AppendSheet.
func New() *Workbook {
	return &Workbook{
		Sheets:    map[string]*worksheet.Worksheet{},
		CustProps: map[string]any{},
	}
}

// invalidNameChars are forbidden verbatim anywhere in a sheet name.
const invalidNameChars = `\/?*[]`

// ValidateSheetName checks the sheet-name rules: not blank, at most 31
// characters, none of \ / ? * [ ].
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return xlerr.New(xlerr.KindInvalidSheetName, "sheet name is empty")
	}
	if len([]rune(name)) > 31 {
		return xlerr.Newf(xlerr.KindInvalidSheetName, "sheet name %q exceeds 31 characters", name)
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return xlerr.Newf(xlerr.KindInvalidSheetName, "sheet name %q contains a forbidden character", name)
	}
	return nil
}

// AppendSheet adds a new, empty sheet named name. When roll is true and
// name collides with an existing sheet, a numeric suffix is incremented
// (after stripping any trailing digits from the base) until the name is
// unique, instead of failing with DuplicateSheetName.
func (wb *Workbook) AppendSheet(name string, roll bool) (string, error) {
	if len(wb.SheetNames) >= 65535 {
		return "", xlerr.New(xlerr.KindSheetLimitExceeded, "workbook already has 65535 sheets")
	}
	if err := ValidateSheetName(name); err != nil {
		if !roll {
			return "", err
		}
	}
	if _, exists := wb.Sheets[name]; exists {
		if !roll {
			return "", xlerr.Newf(xlerr.KindDuplicateSheetName, "sheet %q already exists", name)
		}
		name = wb.nextFreeName(name)
	}
	ws := worksheet.New()
	wb.Sheets[name] = ws
	wb.SheetNames = append(wb.SheetNames, name)
	wb.SheetRefs = append(wb.SheetRefs, SheetRef{
		Name:    name,
		SheetID: len(wb.SheetRefs) + 1,
		RID:     "",
		State:   Visible,
	})
	return name, nil
}

func (wb *Workbook) nextFreeName(base string) string {
	stripped := strings.TrimRight(base, "0123456789")
	n := 1
	if stripped != base {
		if v, err := strconv.Atoi(base[len(stripped):]); err == nil {
			n = v
		}
	}
	for {
		candidate := fmt.Sprintf("%s%d", stripped, n)
		if len(candidate) > 31 {
			candidate = candidate[:31]
		}
		if _, exists := wb.Sheets[candidate]; !exists {
			return candidate
		}
		n++
	}
}

// SetVisibility sets sheet name's visibility, validating the enum value.
func (wb *Workbook) SetVisibility(name string, v Visibility) error {
	for i := range wb.SheetRefs {
		if wb.SheetRefs[i].Name == name {
			wb.SheetRefs[i].State = v
			return nil
		}
	}
	return xlerr.Newf(xlerr.KindInvalidArgument, "no such sheet %q", name)
}

// Validate runs the top-of-write checks: non-empty/valid/unique
// sheet names and sheet-count bound. Callers pass unsafe=true to skip this
// (the write-time "ignore validation" escape hatch).
func (wb *Workbook) Validate() error {
	if len(wb.SheetNames) > 65535 {
		return xlerr.New(xlerr.KindSheetLimitExceeded, "workbook exceeds 65535 sheets")
	}
	seen := make(map[string]bool, len(wb.SheetNames))
	for _, name := range wb.SheetNames {
		if err := ValidateSheetName(name); err != nil {
			return err
		}
		if seen[name] {
			return xlerr.Newf(xlerr.KindDuplicateSheetName, "duplicate sheet name %q", name)
		}
		seen[name] = true
		ws, ok := wb.Sheets[name]
		if !ok {
			return xlerr.Newf(xlerr.KindInvalidArgument, "sheet %q listed but has no worksheet entry", name)
		}
		if err := ws.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads xl/workbook.xml: the sheet list (name/sheetId/r:id/state),
// defined names, views, and workbookPr.
func Parse(data []byte) (*Workbook, WBProps, error) {
	wb := New()
	var props WBProps
	props.FilterPrivacy = false

	walker := xmlscan.NewWalker(data)
	var curDefinedName *DefinedName
	var definedNameText strings.Builder
	for {
		text, tag, ok := walker.Next()
		// A defined name's ref is the text immediately preceding its closing
		// tag, delivered by the same Next call; collect it before dispatch.
		if curDefinedName != nil && text != "" {
			definedNameText.WriteString(text)
		}
		switch tag.Name {
		case "workbookPr":
			if v, present := tag.Attr("date1904"); present {
				props.Date1904 = xmlscan.Bool(v)
			}
			if v, present := tag.Attr("filterPrivacy"); present {
				props.FilterPrivacy = xmlscan.Bool(v)
			}
			if v, present := tag.Attr("codeName"); present {
				props.CodeName = v
			}
		case "sheet":
			name, _ := tag.Attr("name")
			idStr, _ := tag.Attr("sheetId")
			rid, _ := tag.Attr("id") // r:id, local name "id" after prefix strip
			state, _ := tag.Attr("state")
			id, _ := strconv.Atoi(idStr)
			wb.SheetNames = append(wb.SheetNames, name)
			wb.SheetRefs = append(wb.SheetRefs, SheetRef{
				Name: name, SheetID: id, RID: rid, State: parseVisibility(state),
			})
			wb.Sheets[name] = worksheet.New()
		case "definedName":
			if tag.Closing {
				if curDefinedName != nil {
					curDefinedName.Ref = strings.TrimSpace(definedNameText.String())
					props.DefinedNames = append(props.DefinedNames, *curDefinedName)
					curDefinedName = nil
				}
				definedNameText.Reset()
				break
			}
			name, _ := tag.Attr("name")
			localID := -1
			if v, present := tag.Attr("localSheetId"); present {
				if n, err := strconv.Atoi(v); err == nil {
					localID = n
				}
			}
			curDefinedName = &DefinedName{Name: name, LocalSheetID: localID}
			if tag.SelfClosing {
				props.DefinedNames = append(props.DefinedNames, *curDefinedName)
				curDefinedName = nil
			}
		case "workbookView":
			activeTab := 0
			if v, present := tag.Attr("activeTab"); present {
				activeTab, _ = strconv.Atoi(v)
			}
			props.Views = append(props.Views, View{ActiveTab: activeTab})
		}
		if !ok {
			break
		}
	}
	wb.WBProps = props
	return wb, props, nil
}

// Write renders xl/workbook.xml. veryHidden sheets still appear here; only
// the extended-properties SheetNames vector excludes them.
func (wb *Workbook) Write() []byte {
	w := xmlw.New()
	w.OpenBare("workbook").Attr("xmlns", mainNamespace).Attr("xmlns:r", relNamespace)

	w.Open("workbookPr")
	if wb.WBProps.Date1904 {
		w.Attr("date1904", "1")
	}
	if wb.WBProps.FilterPrivacy {
		w.Attr("filterPrivacy", "1")
	}
	if wb.WBProps.CodeName != "" {
		w.Attr("codeName", wb.WBProps.CodeName)
	}
	w.Close()

	if len(wb.WBProps.Views) > 0 {
		w.Open("bookViews")
		for _, v := range wb.WBProps.Views {
			w.Open("workbookView").Attr("activeTab", v.ActiveTab).Close()
		}
		w.Close()
	}

	w.Open("sheets")
	for _, ref := range wb.SheetRefs {
		w.Open("sheet").Attr("name", ref.Name).Attr("sheetId", ref.SheetID)
		if ref.State != Visible {
			w.Attr("state", ref.State.xmlValue())
		}
		if ref.RID != "" {
			w.Attr("r:id", ref.RID)
		}
		w.Close()
	}
	w.Close()

	if len(wb.WBProps.DefinedNames) > 0 {
		w.Open("definedNames")
		for _, dn := range wb.WBProps.DefinedNames {
			w.Open("definedName").Attr("name", dn.Name)
			if dn.LocalSheetID >= 0 {
				w.Attr("localSheetId", dn.LocalSheetID)
			}
			w.Text(dn.Ref)
			w.Close()
		}
		w.Close()
	}

	w.Close()
	return w.Bytes()
}
