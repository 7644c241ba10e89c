// Package zipfile is a hand-rolled ZIP/DEFLATE container codec scoped to
// exactly what the OPC layer needs: read a package by scanning the EOCD and
// central directory backward from the end of the buffer, and write a
// package as local headers + central directory + EOCD, with no ZIP64
// support.
//
// Decompression is raw DEFLATE (compress/flate, the stdlib's "external
// primitive" in Go terms — no cgo, no vendored C zlib). Method 0 (stored)
// entries are copied verbatim. Any other compression method is rejected
// with an *UnsupportedMethodError.
package zipfile

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"sync"

	"github.com/xlcore-go/xlcore/internal/codec"
)

const (
	sigLocalHeader = 0x04034b50
	sigCentralDir  = 0x02014b50
	sigEOCD        = 0x06054b50

	methodStored  = 0
	methodDeflate = 8
)

// InvalidZipError reports a structurally broken ZIP container.
type InvalidZipError struct {
	Reason string
}

func (e *InvalidZipError) Error() string { return fmt.Sprintf("zipfile: invalid zip: %s", e.Reason) }

// UnsupportedMethodError reports a compression method this codec does not
// implement (anything other than stored or deflate).
type UnsupportedMethodError struct {
	Method uint16
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("zipfile: unsupported compression method %d", e.Method)
}

// Entry is one decoded archive member.
type Entry struct {
	Name string
	Data []byte
}

// Read scans buf for the end-of-central-directory record, walks the central
// directory, and decompresses every file entry. Directory entries (names
// ending in "/") are skipped. Decompression of the deflated entries is
// dispatched concurrently and joined before returning.
func Read(buf []byte) ([]Entry, error) {
	eocdOff, err := findEOCD(buf)
	if err != nil {
		return nil, err
	}
	if eocdOff+22 > len(buf) {
		return nil, &InvalidZipError{Reason: "EOCD record truncated"}
	}
	entryCount := int(codec.ReadUint16LE(buf, eocdOff+10))
	cdOffset := int(codec.ReadUint32LE(buf, eocdOff+16))
	if cdOffset < 0 || cdOffset > len(buf) {
		return nil, &InvalidZipError{Reason: "central directory offset out of range"}
	}

	type rawEntry struct {
		name       string
		method     uint16
		compSize   int
		uncompSize int
		localOff   int
	}
	raws := make([]rawEntry, 0, entryCount)

	pos := cdOffset
	for i := 0; i < entryCount; i++ {
		if pos+46 > len(buf) {
			return nil, &InvalidZipError{Reason: "central directory record truncated"}
		}
		if codec.ReadUint32LE(buf, pos) != sigCentralDir {
			return nil, &InvalidZipError{Reason: "bad central directory signature"}
		}
		method := codec.ReadUint16LE(buf, pos+10)
		compSize := int(codec.ReadUint32LE(buf, pos+20))
		uncompSize := int(codec.ReadUint32LE(buf, pos+24))
		nameLen := int(codec.ReadUint16LE(buf, pos+28))
		extraLen := int(codec.ReadUint16LE(buf, pos+30))
		commentLen := int(codec.ReadUint16LE(buf, pos+32))
		localOff := int(codec.ReadUint32LE(buf, pos+42))
		nameStart := pos + 46
		if nameStart+nameLen > len(buf) {
			return nil, &InvalidZipError{Reason: "central directory file name truncated"}
		}
		name := string(buf[nameStart : nameStart+nameLen])
		raws = append(raws, rawEntry{
			name: name, method: method,
			compSize: compSize, uncompSize: uncompSize, localOff: localOff,
		})
		pos = nameStart + nameLen + extraLen + commentLen
	}

	entries := make([]Entry, len(raws))
	errs := make([]error, len(raws))
	var wg sync.WaitGroup
	for i := range raws {
		re := raws[i]
		if len(re.name) > 0 && re.name[len(re.name)-1] == '/' {
			continue // directory entry, nothing to decompress
		}
		wg.Add(1)
		go func(i int, re rawEntry) {
			defer wg.Done()
			data, err := readLocalEntry(buf, re.localOff, re.method, re.compSize, re.uncompSize)
			if err != nil {
				errs[i] = fmt.Errorf("zipfile: entry %q: %w", re.name, err)
				return
			}
			entries[i] = Entry{Name: re.name, Data: data}
		}(i, re)
	}
	wg.Wait()

	out := make([]Entry, 0, len(raws))
	for i, re := range raws {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if len(re.name) > 0 && re.name[len(re.name)-1] == '/' {
			continue
		}
		out = append(out, entries[i])
	}
	return out, nil
}

func readLocalEntry(buf []byte, localOff int, method uint16, compSize, uncompSize int) ([]byte, error) {
	if localOff+30 > len(buf) {
		return nil, &InvalidZipError{Reason: "local header truncated"}
	}
	if codec.ReadUint32LE(buf, localOff) != sigLocalHeader {
		return nil, &InvalidZipError{Reason: "bad local header signature"}
	}
	nameLen := int(codec.ReadUint16LE(buf, localOff+26))
	extraLen := int(codec.ReadUint16LE(buf, localOff+28))
	dataStart := localOff + 30 + nameLen + extraLen
	if dataStart+compSize > len(buf) {
		return nil, &InvalidZipError{Reason: "local entry data truncated"}
	}
	raw := buf[dataStart : dataStart+compSize]

	switch method {
	case methodStored:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case methodDeflate:
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		out := make([]byte, 0, uncompSize)
		buf2 := bytes.NewBuffer(out)
		if _, err := io.Copy(buf2, fr); err != nil {
			return nil, err
		}
		return buf2.Bytes(), nil
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}
}

// findEOCD scans the last 65557 bytes of buf backward for the EOCD
// signature (22-byte record + up to 65535-byte comment).
func findEOCD(buf []byte) (int, error) {
	if len(buf) < 2 || buf[0] != 0x50 || buf[1] != 0x4B {
		return 0, &InvalidZipError{Reason: "missing PK signature"}
	}
	const maxScan = 65557
	start := len(buf) - maxScan
	if start < 0 {
		start = 0
	}
	for i := len(buf) - 22; i >= start; i-- {
		if codec.ReadUint32LE(buf, i) == sigEOCD {
			return i, nil
		}
	}
	return 0, &InvalidZipError{Reason: "end-of-central-directory record not found"}
}
