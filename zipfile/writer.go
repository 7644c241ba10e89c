package zipfile

import (
	"bytes"
	"compress/flate"
	"sync"

	"github.com/xlcore-go/xlcore/internal/codec"
)

// WriteEntry is one member to emit, in caller-supplied order; write order
// is preserved in the resulting archive.
type WriteEntry struct {
	Name string
	Data []byte
}

// Write assembles a ZIP archive from entries. When deflate is true every
// entry is compressed with raw DEFLATE (method 8); otherwise entries are
// stored (method 0). Timestamps are zero, general-purpose flags are zero,
// version fields are 20, names are UTF-8, and no ZIP64 record is ever
// emitted. Compression of the entries may be dispatched concurrently;
// Write does so, then serializes the archive in the original entry order.
func Write(entries []WriteEntry, deflate bool) ([]byte, error) {
	type compiled struct {
		name       string
		method     uint16
		raw        []byte
		crc        uint32
		uncompSize uint32
		compSize   uint32
	}
	out := make([]compiled, len(entries))
	errs := make([]error, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func(i int, e WriteEntry) {
			defer wg.Done()
			c := compiled{name: e.Name, crc: codec.CRC32(e.Data), uncompSize: uint32(len(e.Data))}
			if deflate {
				payload, err := deflateRaw(e.Data)
				if err != nil {
					errs[i] = err
					return
				}
				c.method = methodDeflate
				c.raw = payload
			} else {
				c.method = methodStored
				c.raw = e.Data
			}
			c.compSize = uint32(len(c.raw))
			out[i] = c
		}(i, e)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var body bytes.Buffer
	offsets := make([]uint32, len(out))
	for i, c := range out {
		offsets[i] = uint32(body.Len())
		writeLocalHeader(&body, c.name, c.method, c.crc, c.compSize, c.uncompSize)
		body.Write(c.raw)
	}

	cdStart := uint32(body.Len())
	for i, c := range out {
		writeCentralDirEntry(&body, c.name, c.method, c.crc, c.compSize, c.uncompSize, offsets[i])
	}
	cdSize := uint32(body.Len()) - cdStart

	writeEOCD(&body, uint16(len(out)), cdSize, cdStart)
	return body.Bytes(), nil
}

func deflateRaw(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeLocalHeader(b *bytes.Buffer, name string, method uint16, crc, compSize, uncompSize uint32) {
	var h []byte
	h = codec.PutUint32LE(h, sigLocalHeader)
	h = codec.PutUint16LE(h, 20) // version needed
	h = codec.PutUint16LE(h, 0)  // flags
	h = codec.PutUint16LE(h, method)
	h = codec.PutUint16LE(h, 0) // mod time
	h = codec.PutUint16LE(h, 0) // mod date
	h = codec.PutUint32LE(h, crc)
	h = codec.PutUint32LE(h, compSize)
	h = codec.PutUint32LE(h, uncompSize)
	h = codec.PutUint16LE(h, uint16(len(name)))
	h = codec.PutUint16LE(h, 0) // extra length
	b.Write(h)
	b.WriteString(name)
}

func writeCentralDirEntry(b *bytes.Buffer, name string, method uint16, crc, compSize, uncompSize, localOff uint32) {
	var h []byte
	h = codec.PutUint32LE(h, sigCentralDir)
	h = codec.PutUint16LE(h, 20) // version made by
	h = codec.PutUint16LE(h, 20) // version needed
	h = codec.PutUint16LE(h, 0)  // flags
	h = codec.PutUint16LE(h, method)
	h = codec.PutUint16LE(h, 0) // mod time
	h = codec.PutUint16LE(h, 0) // mod date
	h = codec.PutUint32LE(h, crc)
	h = codec.PutUint32LE(h, compSize)
	h = codec.PutUint32LE(h, uncompSize)
	h = codec.PutUint16LE(h, uint16(len(name)))
	h = codec.PutUint16LE(h, 0) // extra length
	h = codec.PutUint16LE(h, 0) // comment length
	h = codec.PutUint16LE(h, 0) // disk number start
	h = codec.PutUint16LE(h, 0) // internal attrs
	h = codec.PutUint32LE(h, 0) // external attrs
	h = codec.PutUint32LE(h, localOff)
	b.Write(h)
	b.WriteString(name)
}

func writeEOCD(b *bytes.Buffer, count uint16, cdSize, cdOffset uint32) {
	var h []byte
	h = codec.PutUint32LE(h, sigEOCD)
	h = codec.PutUint16LE(h, 0) // disk number
	h = codec.PutUint16LE(h, 0) // disk with central dir
	h = codec.PutUint16LE(h, count)
	h = codec.PutUint16LE(h, count)
	h = codec.PutUint32LE(h, cdSize)
	h = codec.PutUint32LE(h, cdOffset)
	h = codec.PutUint16LE(h, 0) // comment length
	b.Write(h)
}
