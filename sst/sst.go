// Package sst implements the shared-string table: the deduplicated
// string pool that worksheet cells of type "s" index into. Parsing
// recovers plain text, rich-text runs (preserved verbatim for re-emit),
// and an optional HTML rendering; writing only happens when the caller
// opted into building an SST (bookSST) rather than inlining strings.
package sst

import (
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/internal/xmlscan"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"

// Item is one <si> entry.
type Item struct {
	Text    string // plain, unescaped text
	RawRuns string // raw inner XML of the <r> runs, preserved verbatim (empty if this item was plain <t>)
	HTML    string // optional HTML rendering of the rich runs
}

// Table is the parsed or in-progress shared-string table.
type Table struct {
	Items []Item
	Count int // total non-unique reference count, tracked during write

	index map[string]int // plain-text fast path for dedup; rich items are never deduped
}

// New returns an empty Table.
func New() *Table {
	return &Table{index: map[string]int{}}
}

// ErrUnrecognizedRichFormat reports an <rPr> child this parser doesn't
// know, outside of an <ext> passthrough (where it's tolerated silently).
type ErrUnrecognizedRichFormat struct{ Child string }

func (e *ErrUnrecognizedRichFormat) Error() string {
	return "sst: unrecognized rich-text property element " + e.Child
}

// Parse reads xl/sharedStrings.xml, splitting at </si> boundaries. Each
// item's text is either a single plain <t>, or the concatenation of every
// run's <t> content (after stripping <rPh> pronunciation guides), with the
// raw run XML preserved for verbatim re-emission.
func Parse(data []byte) (*Table, error) {
	t := New()
	chunks := splitItems(data)
	for _, chunk := range chunks {
		item, err := parseItem(chunk)
		if err != nil {
			return nil, err
		}
		t.Items = append(t.Items, item)
	}
	return t, nil
}

func splitItems(data []byte) [][]byte {
	s := string(data)
	startTag := "<si>"
	var out [][]byte
	for {
		start := strings.Index(s, startTag)
		if start < 0 {
			// self-closing <si/> items carry no content at all.
			for {
				se := strings.Index(s, "<si/>")
				if se < 0 {
					break
				}
				out = append(out, []byte{})
				s = s[se+5:]
			}
			break
		}
		rest := s[start+len(startTag):]
		end := strings.Index(rest, "</si>")
		if end < 0 {
			break
		}
		out = append(out, []byte(rest[:end]))
		s = rest[end+5:]
	}
	return out
}

func parseItem(chunk []byte) (Item, error) {
	s := string(chunk)
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "<t") {
		// Plain <t>...</t> (possibly with xml:space attr) or <t/>.
		gt := strings.IndexByte(trimmed, '>')
		if gt < 0 {
			return Item{}, nil
		}
		if trimmed[gt-1] == '/' {
			return Item{}, nil
		}
		inner := trimmed[gt+1:]
		endIdx := strings.Index(inner, "</t>")
		if endIdx < 0 {
			return Item{Text: ooxml.UnescapeXML(inner, true)}, nil
		}
		return Item{Text: ooxml.UnescapeXML(inner[:endIdx], true)}, nil
	}

	// Rich-text runs: collect every <t> under each <r>, stripping <rPh>,
	// and validate the run-property children while walking.
	var text strings.Builder
	walker := xmlscan.NewWalker(chunk)
	inRPh := false
	inT := false
	inRPr := false
	extDepth := 0
	for {
		txt, tag, ok := walker.Next()
		if inT && !inRPh && txt != "" {
			text.WriteString(ooxml.UnescapeXML(txt, true))
		}
		switch tag.Name {
		case "rPh":
			inRPh = !tag.Closing && !tag.SelfClosing
		case "rPr":
			inRPr = !tag.Closing && !tag.SelfClosing
		case "ext":
			if tag.Closing {
				if extDepth > 0 {
					extDepth--
				}
			} else if !tag.SelfClosing {
				extDepth++
			}
		case "t":
			if tag.Closing {
				inT = false
			} else if !inRPh {
				inT = !tag.SelfClosing
			}
		default:
			if inRPr && extDepth == 0 && !tag.Closing && tag.Name != "" {
				if !knownRunProps[tag.Name] {
					return Item{}, &ErrUnrecognizedRichFormat{Child: tag.Name}
				}
			}
		}
		if !ok {
			break
		}
	}
	plain := text.String()
	return Item{Text: plain, RawRuns: string(chunk), HTML: ooxml.EscapeHTML(plain)}, nil
}

// knownRunProps is the set of <rPr> children the parser accepts; anything
// else outside an <ext> passthrough is a malformed run.
var knownRunProps = map[string]bool{
	"b": true, "i": true, "strike": true, "u": true, "sz": true,
	"rFont": true, "family": true, "color": true, "vertAlign": true,
	"shadow": true, "outline": true, "condense": true, "extend": true,
	"charset": true, "scheme": true, "extLst": true,
}

// Add interns s into the table and returns its 0-based index. Only plain
// text is deduplicated; parsed rich-run items are never matched by Add.
func (t *Table) Add(s string) int {
	t.Count++
	if idx, ok := t.index[s]; ok {
		return idx
	}
	idx := len(t.Items)
	t.Items = append(t.Items, Item{Text: s})
	t.index[s] = idx
	return idx
}

// Get returns the resolved value for idx: {t: text, r?: raw runs, h?: html}.
func (t *Table) Get(idx int) (text, rawRuns, html string, ok bool) {
	if idx < 0 || idx >= len(t.Items) {
		return "", "", "", false
	}
	it := t.Items[idx]
	return it.Text, it.RawRuns, it.HTML, true
}

// Write renders xl/sharedStrings.xml with the <sst> count/uniqueCount
// attributes. Items with preserved raw rich-text runs are re-emitted
// verbatim, which is why this part is assembled by hand instead of through
// the generic tag writer (a generic writer cannot inject raw markup);
// plain-text items emit <t xml:space="preserve"> when needed.
func (t *Table) Write() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<sst xmlns="` + mainNamespace + `" count="` + strconv.Itoa(t.Count) + `" uniqueCount="` + strconv.Itoa(len(t.Items)) + `">`)
	for _, item := range t.Items {
		b.WriteString("<si>")
		if item.RawRuns != "" {
			b.WriteString(item.RawRuns)
		} else {
			if ooxml.NeedsPreserve(item.Text) {
				b.WriteString(`<t xml:space="preserve">`)
			} else {
				b.WriteString("<t>")
			}
			b.WriteString(ooxml.EscapeXML(item.Text))
			b.WriteString("</t>")
		}
		b.WriteString("</si>")
	}
	b.WriteString("</sst>")
	return []byte(b.String())
}
