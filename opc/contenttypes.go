// Package opc implements the Open Packaging Conventions layer that sits
// between the raw ZIP entries and the SpreadsheetML parsers: Content Types
// categorization, per-part Relationships, and path resolution.
package opc

import (
	"fmt"
	"strings"

	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

const ctNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// Category partitions the well-known OOXML content-type strings this codec
// recognizes. Parts whose content-type falls outside every category are
// kept in Other, indexed by their resolved absolute path.
type Category string

const (
	CategoryWorkbook         Category = "workbook"
	CategorySheet            Category = "sheet"
	CategorySharedStrings    Category = "strs"
	CategoryStyles           Category = "styles"
	CategoryTheme            Category = "theme"
	CategoryComments         Category = "comments"
	CategoryThreadedComments Category = "threadedcomments"
	CategoryPeople           Category = "people"
	CategoryMetadata         Category = "metadata"
	CategoryDrawing          Category = "drawings"
	CategoryVBA              Category = "vba"
	CategoryExternalLinks    Category = "links"
	CategoryCoreProps        Category = "coreprops"
	CategoryExtProps         Category = "extprops"
	CategoryCustomProps      Category = "custprops"
	CategoryRels             Category = "rels"
)

// BookType selects which flavor of workbook content-type string is emitted
// on write: the macro-free xlsx type, or the macro-enabled xlsm type.
type BookType string

const (
	BookTypeXLSX BookType = "xlsx"
	BookTypeXLSM BookType = "xlsm"
)

// contentTypeStrings maps (Category, BookType) to the literal OOXML
// content-type string. Categories whose string never varies by book flavor
// repeat the same value for both keys.
var contentTypeStrings = map[Category]map[BookType]string{
	CategoryWorkbook: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml",
		BookTypeXLSM: "application/vnd.ms-excel.sheet.macroEnabled.main+xml",
	},
	CategorySheet: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml",
	},
	CategorySharedStrings: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml",
	},
	CategoryStyles: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml",
	},
	CategoryTheme: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.theme+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.theme+xml",
	},
	CategoryComments: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml",
	},
	CategoryThreadedComments: {
		BookTypeXLSX: "application/vnd.ms-excel.threadedcomments+xml",
		BookTypeXLSM: "application/vnd.ms-excel.threadedcomments+xml",
	},
	CategoryPeople: {
		BookTypeXLSX: "application/vnd.ms-excel.person+xml",
		BookTypeXLSM: "application/vnd.ms-excel.person+xml",
	},
	CategoryMetadata: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheetMetadata+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheetMetadata+xml",
	},
	CategoryDrawing: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.drawing+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.drawing+xml",
	},
	CategoryVBA: {
		BookTypeXLSM: "application/vnd.ms-office.vbaProject",
	},
	CategoryExternalLinks: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.externalLink+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.spreadsheetml.externalLink+xml",
	},
	CategoryCoreProps: {
		BookTypeXLSX: "application/vnd.openxmlformats-package.core-properties+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-package.core-properties+xml",
	},
	CategoryExtProps: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.extended-properties+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.extended-properties+xml",
	},
	CategoryCustomProps: {
		BookTypeXLSX: "application/vnd.openxmlformats-officedocument.custom-properties+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-officedocument.custom-properties+xml",
	},
	CategoryRels: {
		BookTypeXLSX: "application/vnd.openxmlformats-package.relationships+xml",
		BookTypeXLSM: "application/vnd.openxmlformats-package.relationships+xml",
	},
}

// defaultExtensions lists the fixed set of file extensions the writer
// always emits a <Default> entry for, mapped to their content type.
var defaultExtensions = []struct {
	Ext, ContentType string
}{
	{"rels", contentTypeStrings[CategoryRels][BookTypeXLSX]},
	{"xml", "application/xml"},
	{"vml", "application/vnd.openxmlformats-officedocument.vmlDrawing"},
	{"bin", "application/vnd.openxmlformats-officedocument.spreadsheetml.printerSettings"},
	{"png", "image/png"},
	{"jpeg", "image/jpeg"},
	{"gif", "image/gif"},
	{"pdf", "application/pdf"},
	{"data", "application/vnd.openxmlformats-officedocument.model+data"},
}

// ContentTypes holds the parsed or in-progress [Content_Types].xml part:
// one path-to-content-type map per known category, plus the Default
// extension table, plus an Other bucket for overrides whose content-type
// string matched no known category (preserved for round-trip fidelity).
type ContentTypes struct {
	Default  map[string]string
	ByPath   map[string]string // abs path -> content-type, every override
	Category map[Category][]string
	Other    map[string]string
}

// ErrUnknownNamespace reports a [Content_Types].xml whose root namespace is
// not the OPC content-types namespace.
type ErrUnknownNamespace struct{ Got string }

func (e *ErrUnknownNamespace) Error() string {
	return fmt.Sprintf("opc: unknown content types namespace %q", e.Got)
}

// New returns an empty ContentTypes ready for population via Add.
func New() *ContentTypes {
	return &ContentTypes{
		Default:  map[string]string{},
		ByPath:   map[string]string{},
		Category: map[Category][]string{},
		Other:    map[string]string{},
	}
}

// Add registers part at abspath under contentType, classifying it into the
// matching Category (or Other, if the content-type string is unrecognized).
func (ct *ContentTypes) Add(abspath, contentType string) {
	ct.ByPath[abspath] = contentType
	cat, known := categoryOf(contentType)
	if !known {
		ct.Other[abspath] = contentType
		return
	}
	ct.Category[cat] = append(ct.Category[cat], abspath)
}

func categoryOf(contentType string) (Category, bool) {
	for cat, byBook := range contentTypeStrings {
		for _, s := range byBook {
			if s == contentType {
				return cat, true
			}
		}
	}
	return "", false
}

// Parse reads a [Content_Types].xml document.
func Parse(data []byte) (*ContentTypes, error) {
	ct := New()
	walker := xmlscan.NewWalker(data)
	nsChecked := false
	for {
		_, tag, ok := walker.Next()
		if tag.Name == "" && !ok {
			break
		}
		switch tag.Name {
		case "Types":
			if ns, present := tag.Attr("xmlns"); present {
				if ns != ctNamespace {
					return nil, &ErrUnknownNamespace{Got: ns}
				}
				nsChecked = true
			}
		case "Default":
			ext, _ := tag.Attr("Extension")
			typ, _ := tag.Attr("ContentType")
			ct.Default[strings.ToLower(ext)] = typ
		case "Override":
			part, _ := tag.Attr("PartName")
			typ, _ := tag.Attr("ContentType")
			ct.Add(part, typ)
		}
		if !ok {
			break
		}
	}
	if !nsChecked && len(ct.ByPath) == 0 && len(ct.Default) == 0 {
		return nil, &ErrUnknownNamespace{Got: ""}
	}
	return ct, nil
}

// Write renders [Content_Types].xml: one <Default> per fixed well-known
// extension, then one <Override> per registered part in path-sorted order.
func (ct *ContentTypes) Write() []byte {
	w := xmlw.New()
	w.OpenBare("Types").Attr("xmlns", ctNamespace)

	for _, d := range defaultExtensions {
		w.Open("Default").Attr("Extension", d.Ext).Attr("ContentType", d.ContentType).Close()
	}

	for _, p := range SortedKeys(ct.ByPath) {
		w.Open("Override").Attr("PartName", p).Attr("ContentType", ct.ByPath[p]).Close()
	}

	w.Close()
	return w.Bytes()
}

// ContentTypeFor returns the literal content-type string for cat under the
// given book flavor, and whether that combination is defined at all (VBA
// has no xlsx mapping, for instance).
func ContentTypeFor(cat Category, book BookType) (string, bool) {
	byBook, ok := contentTypeStrings[cat]
	if !ok {
		return "", false
	}
	s, ok := byBook[book]
	return s, ok
}
