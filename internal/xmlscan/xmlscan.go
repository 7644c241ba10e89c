// Package xmlscan is the minimal XML micro-parser used throughout the
// SpreadsheetML layer. It does not build a DOM: it scans "<...>" tag
// boundaries one at a time off a byte cursor.
//
// Callers that need to walk repeated child elements (rows, cells, shared
// string items) typically split on a closing-tag marker first (e.g.
// bytes.Split(data, []byte("</row>"))) and then run a Walker over each
// chunk.
package xmlscan

import (
	"strings"
)

// Tag is one scanned "<...>" element: an open tag, a close tag, or a
// self-closing tag. RawName holds the tag name as written (e.g. "c" for
// "<c r=\"A1\">" and for "</c>", with Closing set on the latter); Attrs holds attribute values keyed by
// their original-case name, and AttrsLower mirrors the same values keyed by
// lower-cased name so callers can do case-insensitive lookups without
// re-scanning.
type Tag struct {
	Name        string // local name, namespace prefix stripped
	RawName     string // name as it appeared, including any namespace prefix
	Attrs       map[string]string
	AttrsLower  map[string]string
	SelfClosing bool
	Closing     bool // true for "</name>"
}

// Attr returns the attribute value for name, checking the original-case map
// first and falling back to a lower-case lookup; OOXML local names take
// precedence on a case collision.
func (t Tag) Attr(name string) (string, bool) {
	if v, ok := t.Attrs[name]; ok {
		return v, true
	}
	v, ok := t.AttrsLower[strings.ToLower(name)]
	return v, ok
}

// Bool interprets an attribute-ish string the way OOXML booleans are
// written: {1, "1", true, "true"} are true, everything else is false.
func Bool(s string) bool {
	switch s {
	case "1", "true", "True", "TRUE":
		return true
	default:
		return false
	}
}

// ParseTag parses one tag's raw text (without the surrounding '<' '>') into
// a Tag. raw is e.g. `c r="A1" s="3" t="s"` or `/row` or `row r="1" /`.
func ParseTag(raw string) Tag {
	raw = strings.TrimSpace(raw)
	t := Tag{Attrs: map[string]string{}, AttrsLower: map[string]string{}}
	if raw == "" {
		return t
	}
	if strings.HasPrefix(raw, "?") || strings.HasPrefix(raw, "!") {
		// processing instruction / doctype / comment marker: caller skips these.
		t.RawName = raw
		t.Name = raw
		return t
	}
	if strings.HasPrefix(raw, "/") {
		t.Closing = true
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "/") {
		t.SelfClosing = true
		raw = strings.TrimSpace(raw[:len(raw)-1])
	}

	// Split the name from the attribute list on the first run of whitespace
	// that isn't inside a quoted value.
	nameEnd := len(raw)
	for i, c := range raw {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			nameEnd = i
			break
		}
	}
	rawName := raw[:nameEnd]
	t.RawName = rawName
	t.Name = stripNamespacePrefix(rawName)

	rest := strings.TrimSpace(raw[nameEnd:])
	for len(rest) > 0 {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = strings.TrimSpace(rest[eq+1:])
		if len(rest) == 0 {
			break
		}
		quote := rest[0]
		if quote != '"' && quote != '\'' {
			// Unquoted attribute value (malformed, but tolerate it): read until
			// whitespace.
			sp := strings.IndexAny(rest, " \t\r\n")
			var val string
			if sp < 0 {
				val = rest
				rest = ""
			} else {
				val = rest[:sp]
				rest = strings.TrimSpace(rest[sp:])
			}
			setAttr(&t, key, val)
			continue
		}
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			break
		}
		val := rest[1 : 1+end]
		rest = strings.TrimSpace(rest[1+end+1:])
		setAttr(&t, key, val)
	}
	return t
}

func setAttr(t *Tag, key, val string) {
	localKey := stripNamespacePrefix(key)
	t.Attrs[key] = val
	t.Attrs[localKey] = val
	t.AttrsLower[strings.ToLower(key)] = val
	t.AttrsLower[strings.ToLower(localKey)] = val
}

// stripNamespacePrefix removes a leading "ns:" prefix from a tag or
// attribute name, preferring the OOXML local name on collision.
func stripNamespacePrefix(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Walker scans a byte buffer for successive "<...>" markers, yielding the
// raw inter-tag text before each tag along with the parsed Tag itself. It is
// the structural analogue of record.Reader.Next, except the unit is a tag
// boundary rather than a length-prefixed binary record.
type Walker struct {
	data []byte
	pos  int
}

// NewWalker creates a Walker over data.
func NewWalker(data []byte) *Walker {
	return &Walker{data: data}
}

// Next returns the next tag found in the stream along with the text that
// preceded it (already un-decoded — callers apply ooxml.UnescapeXML
// themselves once they know whether the span is CDATA). ok is false once
// the stream is exhausted.
func (w *Walker) Next() (text string, tag Tag, ok bool) {
	if w.pos >= len(w.data) {
		return "", Tag{}, false
	}
	lt := indexByteFrom(w.data, '<', w.pos)
	if lt < 0 {
		text = string(w.data[w.pos:])
		w.pos = len(w.data)
		return text, Tag{}, false
	}
	text = string(w.data[w.pos:lt])

	// CDATA sections are passed through unescaped and may contain '>' — scan
	// for the matching "]]>" terminator instead of a bare '>'.
	if hasPrefixAt(w.data, lt, "<![CDATA[") {
		end := indexFrom(w.data, "]]>", lt+9)
		if end < 0 {
			w.pos = len(w.data)
			return text, Tag{}, false
		}
		cdata := string(w.data[lt+9 : end])
		w.pos = end + 3
		return text + cdata, Tag{}, true // synthetic: caller checks tag.Name == ""
	}

	gt := indexByteFrom(w.data, '>', lt)
	if gt < 0 {
		w.pos = len(w.data)
		return text, Tag{}, false
	}
	tag = ParseTag(string(w.data[lt+1 : gt]))
	w.pos = gt + 1
	return text, tag, true
}

func indexByteFrom(b []byte, c byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

func indexFrom(b []byte, sub string, from int) int {
	if from >= len(b) {
		return -1
	}
	idx := strings.Index(string(b[from:]), sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func hasPrefixAt(b []byte, pos int, prefix string) bool {
	if pos+len(prefix) > len(b) {
		return false
	}
	return string(b[pos:pos+len(prefix)]) == prefix
}
