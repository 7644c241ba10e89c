package comments

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xlcore-go/xlcore/internal/xmlscan"
)

// Shape is one parsed VML comment shape: its anchor cell and visibility.
type Shape struct {
	Row     int
	Col     int
	Visible bool
}

// ParseVML scans a vmlDrawing part for <v:shape>/<v:rect> elements whose
// o:ObjectType is "Note", reading the Row/Column child text and treating the
// shape as visible only when it carries a <x:Visible> child.
func ParseVML(data []byte) []Shape {
	var out []Shape
	walker := xmlscan.NewWalker(data)
	var inShape, isNote, inRow, inCol bool
	var cur Shape
	for {
		text, tag, ok := walker.Next()
		// Anchor coordinates arrive as text with the closing </Row>/<...>
		// tag, so read them before dispatching on the tag.
		trimmed := strings.TrimSpace(text)
		if inRow && trimmed != "" {
			if n, err := strconv.Atoi(trimmed); err == nil {
				cur.Row = n
			}
		}
		if inCol && trimmed != "" {
			if n, err := strconv.Atoi(trimmed); err == nil {
				cur.Col = n
			}
		}
		name := tag.Name
		switch {
		case !tag.Closing && (name == "shape" || name == "rect"):
			inShape = true
			isNote = false
			cur = Shape{}
		case tag.Closing && (name == "shape" || name == "rect"):
			if inShape && isNote {
				out = append(out, cur)
			}
			inShape = false
		case inShape && !tag.Closing && name == "Visible":
			cur.Visible = true
		case inShape && name == "Row":
			inRow = !tag.Closing
		case inShape && name == "Column":
			inCol = !tag.Closing
		}
		if ot, present := tag.Attr("ObjectType"); present && ot == "Note" {
			isNote = true
		}
		if !ok {
			break
		}
	}
	return out
}

// ShapeID computes the id Excel assigns a comment shape: 65536 times the
// owning relationship id plus a 1-based sequence number within the part.
func ShapeID(rid, sequence int) int {
	return 65536*rid + sequence
}

// Anchor formats the x:Anchor points for a shape anchored at zero-based
// (col, row): [c+1,0,r+1,0,c+3,20,r+5,20].
func Anchor(col, row int) string {
	return fmt.Sprintf("%d, 0, %d, 0, %d, 20, %d, 20", col+1, row+1, col+3, row+5)
}

const vNamespace = "urn:schemas-microsoft-com:vml"
const oNamespace = "urn:schemas-microsoft-com:office:office"
const xNamespace = "urn:schemas-microsoft-com:office:excel"

// WriteVML renders a vmlDrawing part for the given shapes, in anchor order.
// rid is the owning worksheet's comments relationship id, used in the shape
// id formula.
func WriteVML(shapes []Shape, rid int) []byte {
	var b []byte
	b = append(b, `<xml xmlns:v="`+vNamespace+`" xmlns:o="`+oNamespace+`" xmlns:x="`+xNamespace+`">`+"\n"...)
	b = append(b, `<v:shapetype id="_x0000_t202" coordsize="21600,21600" o:spt="202" path="m0,0l0,21600,21600,21600,21600,0xe">`+"\n"...)
	b = append(b, `<v:stroke joinstyle="miter"/>`+"\n"...)
	b = append(b, `<v:path gradientshapeok="t" o:connecttype="rect"/>`+"\n"...)
	b = append(b, `</v:shapetype>`+"\n"...)

	for i, s := range shapes {
		id := ShapeID(rid, i+1)
		visibility := "hidden"
		if s.Visible {
			visibility = "visible"
		}
		b = append(b, fmt.Sprintf(
			`<v:shape id="_x0000_s%d" type="#_x0000_t202" style="position:absolute;margin-left:59.25pt;margin-top:1.5pt;width:108pt;height:59.25pt;z-index:%d;visibility:%s" fillcolor="#ffffe1" o:insetmode="auto">`+"\n",
			id, i+1, visibility)...)
		b = append(b, `<v:fill color2="#ffffe1"/>`+"\n"...)
		b = append(b, `<v:shadow on="t" color="black" obscured="t"/>`+"\n"...)
		b = append(b, `<v:path o:connecttype="none"/>`+"\n"...)
		b = append(b, `<v:textbox><div style="text-align:left"></div></v:textbox>`+"\n"...)
		b = append(b, fmt.Sprintf(`<x:ClientData ObjectType="Note"><x:MoveWithCells/><x:SizeWithCells/><x:Anchor>%s</x:Anchor><x:AutoFill>False</x:AutoFill><x:Row>%d</x:Row><x:Column>%d</x:Column>`,
			Anchor(s.Col, s.Row), s.Row, s.Col)...)
		if s.Visible {
			b = append(b, `<x:Visible/>`...)
		}
		b = append(b, `</x:ClientData>`+"\n"...)
		b = append(b, `</v:shape>`+"\n"...)
	}
	b = append(b, `</xml>`...)
	return b
}
