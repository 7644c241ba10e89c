// Package metadata implements calcChain.xml parsing and the fixed
// dynamic-array metadata template.
package metadata

import (
	"strconv"

	"github.com/xlcore-go/xlcore/internal/xmlscan"
	"github.com/xlcore-go/xlcore/internal/xmlw"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"

// ChainEntry is one <c> entry of calcChain.xml. Sheet is made sticky: an
// entry that omits the i attribute inherits the previous entry's sheet
// index, per the part's documented compression convention.
type ChainEntry struct {
	Ref   string
	Sheet int
}

// ParseCalcChain reads calcChain.xml, propagating the sticky sheet index
// forward across entries that omit it.
func ParseCalcChain(data []byte) []ChainEntry {
	var out []ChainEntry
	walker := xmlscan.NewWalker(data)
	sheet := 0
	for {
		_, tag, ok := walker.Next()
		if !tag.Closing && tag.Name == "c" {
			ref, _ := tag.Attr("r")
			if iStr, present := tag.Attr("i"); present {
				if i, err := strconv.Atoi(iStr); err == nil {
					sheet = i
				}
			}
			out = append(out, ChainEntry{Ref: ref, Sheet: sheet})
		}
		if !ok {
			break
		}
	}
	return out
}

// WriteCalcChain renders calcChain.xml, emitting the i attribute only when
// the sheet index changes from the previous entry (mirroring the producer
// convention ParseCalcChain decompresses).
func WriteCalcChain(entries []ChainEntry) []byte {
	w := xmlw.New()
	w.OpenBare("calcChain").Attr("xmlns", mainNamespace)
	last := -1
	for _, e := range entries {
		w.Open("c").Attr("r", e.Ref)
		if e.Sheet != last {
			w.Attr("i", e.Sheet)
			last = e.Sheet
		}
		w.Close()
	}
	w.Close()
	return w.Bytes()
}

// WriteDynamicArrayMetadata renders xl/metadata.xml: a fixed template
// declaring one XLDAPR future-metadata type and one cell-metadata record,
// which is all Excel needs to treat a formula as a dynamic array.
func WriteDynamicArrayMetadata() []byte {
	w := xmlw.New()
	w.OpenBare("metadata").
		Attr("xmlns", mainNamespace).
		Attr("xmlns:xda", "http://schemas.microsoft.com/office/spreadsheetml/2017/dynamicarray")

	w.Open("metadataTypes").Attr("count", 1)
	w.Open("metadataType").
		Attr("name", "XLDAPR").
		Attr("minSupportedVersion", 120000).
		Attr("copy", "1").Attr("pasteAll", "1").Attr("pasteValues", "1").
		Attr("merge", "1").Attr("splitFirst", "1").Attr("rowColShift", "1").
		Attr("clearFormats", "1").Attr("clearComments", "1").Attr("assign", "1").
		Attr("coerce", "1").Attr("cellMeta", "1").
		Close()
	w.Close()

	w.Open("futureMetadata").Attr("name", "XLDAPR").Attr("count", 1)
	w.Open("bk")
	w.Open("extLst")
	w.Open("ext").Attr("uri", "{bdbb8cdc-fa1e-496e-a857-3c3f30c029c3}")
	w.Open("xda:dynamicArrayProperties").Attr("fCollapsed", "0").Attr("fDynamic", "1").Close()
	w.Close()
	w.Close()
	w.Close()
	w.Close()

	w.Open("cellMetadata").Attr("count", 1)
	w.Open("bk")
	w.Open("rc").Attr("t", 1).Attr("v", 0).Close()
	w.Close()
	w.Close()

	w.Close()
	return w.Bytes()
}
