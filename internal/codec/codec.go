// Package codec provides the low-level byte utilities shared by the ZIP,
// OPC, and SpreadsheetML layers: little-endian integer IO, CRC32 (the ZIP
// polynomial), and base64 wrapping.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

// CRC32 computes the ZIP CRC32 checksum (polynomial 0xEDB88320, the IEEE
// polynomial used by every DEFLATE-based archive format).
func CRC32(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// ReadUint16LE reads a little-endian uint16 at offset off.
func ReadUint16LE(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

// ReadUint32LE reads a little-endian uint32 at offset off.
func ReadUint32LE(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

// PutUint16LE appends a little-endian uint16 to b.
func PutUint16LE(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

// PutUint32LE appends a little-endian uint32 to b.
func PutUint32LE(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// Base64Encode returns the standard (non-URL) base64 encoding of b, the form
// used by the write(type="base64") entry point.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode reverses Base64Encode.
func Base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
