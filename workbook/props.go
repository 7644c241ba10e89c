package workbook

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xlcore-go/xlcore/internal/ooxml"
	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

// CoreProps models docProps/core.xml + docProps/app.xml (the "core" and
// "extended" document properties).
type CoreProps struct {
	Title          string
	Subject        string
	Author         string
	Manager        string
	Company        string
	Category       string
	Keywords       string
	Description    string
	LastModifiedBy string
	Created        time.Time
	Modified       time.Time
	Application    string
	AppVersion     string
}

const coreNamespace = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
const dcNamespace = "http://purl.org/dc/elements/1.1/"
const dctermsNamespace = "http://purl.org/dc/terms/"
const dcmitypeNamespace = "http://purl.org/dc/dcmitype/"
const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
const extPropsNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
const vtNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
const custPropsNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/custom-properties"

// ParseCoreProps reads docProps/core.xml.
func ParseCoreProps(data []byte) *CoreProps {
	p := &CoreProps{}
	walker := xmlscan.NewWalker(data)
	var cur string
	for {
		text, tag, ok := walker.Next()
		// Text belongs to the element opened before this tag; inter-element
		// indentation is not content.
		if cur != "" && strings.TrimSpace(text) != "" {
			assignCoreField(p, cur, ooxml.UnescapeXML(text, true))
		}
		if tag.Closing {
			cur = ""
		} else if tag.Name != "" {
			cur = tag.Name
		}
		if !ok {
			break
		}
	}
	return p
}

func assignCoreField(p *CoreProps, field, value string) {
	switch field {
	case "title":
		p.Title = value
	case "subject":
		p.Subject = value
	case "creator":
		p.Author = value
	case "keywords":
		p.Keywords = value
	case "description":
		p.Description = value
	case "lastModifiedBy":
		p.LastModifiedBy = value
	case "category":
		p.Category = value
	case "created":
		if t, err := time.Parse("2006-01-02T15:04:05Z", value); err == nil {
			p.Created = t
		}
	case "modified":
		if t, err := time.Parse("2006-01-02T15:04:05Z", value); err == nil {
			p.Modified = t
		}
	}
}

// Write renders docProps/core.xml.
func (p *CoreProps) Write() []byte {
	w := xmlw.New()
	w.OpenBare("cp:coreProperties").
		Attr("xmlns:cp", coreNamespace).
		Attr("xmlns:dc", dcNamespace).
		Attr("xmlns:dcterms", dctermsNamespace).
		Attr("xmlns:dcmitype", dcmitypeNamespace).
		Attr("xmlns:xsi", xsiNamespace)

	writeIf(w, "dc:title", p.Title)
	writeIf(w, "dc:subject", p.Subject)
	writeIf(w, "dc:creator", p.Author)
	writeIf(w, "cp:keywords", p.Keywords)
	writeIf(w, "dc:description", p.Description)
	writeIf(w, "cp:lastModifiedBy", p.LastModifiedBy)
	writeIf(w, "cp:category", p.Category)

	if !p.Created.IsZero() {
		if s, err := ooxml.WriteW3CDatetime(p.Created, false); err == nil && s != "" {
			w.Open("dcterms:created").Attr("xsi:type", "dcterms:W3CDTF").Text(s).Close()
		}
	}
	if !p.Modified.IsZero() {
		if s, err := ooxml.WriteW3CDatetime(p.Modified, false); err == nil && s != "" {
			w.Open("dcterms:modified").Attr("xsi:type", "dcterms:W3CDTF").Text(s).Close()
		}
	}

	w.Close()
	return w.Bytes()
}

func writeIf(w *xmlw.Writer, tag, value string) {
	if value == "" {
		return
	}
	w.Open(tag).Text(value).Close()
}

// WriteExtProps renders docProps/app.xml: the extended properties,
// including the SheetNames vector, which excludes veryHidden sheets even
// though they remain listed in the workbook part.
func (wb *Workbook) WriteExtProps() []byte {
	w := xmlw.New()
	w.OpenBare("Properties").Attr("xmlns", extPropsNamespace).Attr("xmlns:vt", vtNamespace)

	app := "xlcore"
	if wb.Props != nil && wb.Props.Application != "" {
		app = wb.Props.Application
	}
	w.Open("Application").Text(app).Close()

	visible := make([]string, 0, len(wb.SheetRefs))
	for _, ref := range wb.SheetRefs {
		if ref.State != VeryHidden {
			visible = append(visible, ref.Name)
		}
	}
	w.Open("HeadingPairs")
	w.Open("vt:vector").Attr("size", 2).Attr("baseType", "variant")
	w.Open("vt:variant").Open("vt:lpstr").Text("Worksheets").Close().Close()
	w.Open("vt:variant").Open("vt:i4").Text(strconv.Itoa(len(visible))).Close().Close()
	w.Close()
	w.Close()

	w.Open("TitlesOfParts")
	w.Open("vt:vector").Attr("size", len(visible)).Attr("baseType", "lpstr")
	for _, name := range visible {
		w.Open("vt:lpstr").Text(name).Close()
	}
	w.Close()
	w.Close()

	w.Close()
	return w.Bytes()
}

// WriteCustomProps renders docProps/custom.xml from wb.CustProps, using
// internal/ooxml.WriteVariantType for each value's <vt:...> wrapper.
func (wb *Workbook) WriteCustomProps() ([]byte, error) {
	w := xmlw.New()
	w.OpenBare("Properties").
		Attr("xmlns", custPropsNamespace).
		Attr("xmlns:vt", vtNamespace)

	keys := make([]string, 0, len(wb.CustProps))
	for k := range wb.CustProps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pid := 2
	for _, name := range keys {
		tag, body, err := ooxml.WriteVariantType(wb.CustProps[name])
		if err != nil {
			return nil, err
		}
		w.Open("property").
			Attr("fmtid", "{D5CDD505-2E9C-101B-9397-08002B2CF9AE}").
			Attr("pid", pid).
			Attr("name", name)
		w.Open(tag).Text(body).Close()
		w.Close()
		pid++
	}

	w.Close()
	return w.Bytes(), nil
}
