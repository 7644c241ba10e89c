package zipfile

import (
	"bytes"
	"errors"
	"testing"
)

func roundTrip(t *testing.T, entries []WriteEntry, deflate bool) []Entry {
	t.Helper()
	archive, err := Write(entries, deflate)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if archive[0] != 0x50 || archive[1] != 0x4B {
		t.Fatalf("archive does not start with PK: % x", archive[:4])
	}
	out, err := Read(archive)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return out
}

func TestRoundTripStored(t *testing.T) {
	in := []WriteEntry{
		{Name: "a.txt", Data: []byte("hello")},
		{Name: "dir/b.xml", Data: []byte("<x/>")},
		{Name: "empty", Data: nil},
	}
	out := roundTrip(t, in, false)
	if len(out) != len(in) {
		t.Fatalf("got %d entries, want %d", len(out), len(in))
	}
	for i, e := range out {
		if e.Name != in[i].Name {
			t.Errorf("entry %d name %q, want %q (order must be preserved)", i, e.Name, in[i].Name)
		}
		if !bytes.Equal(e.Data, in[i].Data) {
			t.Errorf("entry %q data mismatch", e.Name)
		}
	}
}

func TestRoundTripDeflate(t *testing.T) {
	big := bytes.Repeat([]byte("spreadsheets all the way down "), 500)
	in := []WriteEntry{
		{Name: "xl/workbook.xml", Data: big},
		{Name: "xl/styles.xml", Data: []byte("tiny")},
	}
	archive, err := Write(in, true)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(archive) >= len(big) {
		t.Errorf("deflated archive (%d) not smaller than payload (%d)", len(archive), len(big))
	}
	out, err := Read(archive)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(out[0].Data, big) {
		t.Error("deflated entry did not round-trip")
	}
}

func TestReadRejectsNonZip(t *testing.T) {
	var invalid *InvalidZipError
	if _, err := Read([]byte("not a zip at all")); err == nil {
		t.Fatal("Read should reject non-ZIP input")
	} else if !errors.As(err, &invalid) {
		t.Errorf("want *InvalidZipError, got %T", err)
	}
}

func TestReadRejectsMissingEOCD(t *testing.T) {
	// Starts with the PK magic but carries no end-of-central-directory record.
	data := append([]byte{0x50, 0x4B, 0x03, 0x04}, bytes.Repeat([]byte{0}, 64)...)
	if _, err := Read(data); err == nil {
		t.Fatal("Read should fail without an EOCD record")
	}
}

func TestUnsupportedMethodError(t *testing.T) {
	e := &UnsupportedMethodError{Method: 12}
	if e.Error() == "" {
		t.Error("empty error text")
	}
}
