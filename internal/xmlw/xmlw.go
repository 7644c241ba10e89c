// Package xmlw is a thin convenience layer over github.com/adnsv/srw/xml,
// the streaming tag writer already used by the pack's XLSX writer
// (adnsv-go-xl). Every SpreadsheetML part writer in this module (workbook,
// worksheet, styles, comments, content-types, relationships, docProps)
// builds its XML through this package so tag/attribute emission stays
// uniform and every part gets the standalone XML declaration.
package xmlw

import (
	"bytes"

	"github.com/adnsv/srw/xml"

	"github.com/xlcore-go/xlcore/internal/ooxml"
)

// Writer wraps an srw xml.Writer bound to an in-memory buffer, the pattern
// every part writer in adnsv-go-xl follows (bytes.Buffer + xml.NewWriter).
type Writer struct {
	buf *bytes.Buffer
	x   *xml.Writer
}

// New creates a Writer and emits the standalone XML declaration.
func New() *Writer {
	buf := &bytes.Buffer{}
	x := xml.NewWriter(buf, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()
	return &Writer{buf: buf, x: x}
}

// Open starts an element with the given name on its own indented line.
func (w *Writer) Open(name string) *Writer {
	w.x.OTag(xml.NameString("+" + name))
	return w
}

// OpenBare starts an element without the nested-indent marker; used for
// the document root element.
func (w *Writer) OpenBare(name string) *Writer {
	w.x.OTag(xml.NameString(name))
	return w
}

// Attr sets an attribute on the most recently opened element.
func (w *Writer) Attr(name string, value any) *Writer {
	w.x.Attr(xml.NameString(name), value)
	return w
}

// Close closes the most recently opened element.
func (w *Writer) Close() *Writer {
	w.x.CTag()
	return w
}

// Text writes character content. srw's writer applies the predefined-entity
// escaping; control characters are encoded with the OOXML _xHHHH_
// convention first, since a generic XML writer doesn't know it.
func (w *Writer) Text(s string) *Writer {
	w.x.Write(ooxml.EncodeControls(s))
	return w
}

// Bytes returns the accumulated XML document.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}
