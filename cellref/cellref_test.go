package cellref

import "testing"

func TestColumnRoundTrip(t *testing.T) {
	for c := 0; c <= MaxColumn; c += 37 {
		s, err := EncodeCol(c)
		if err != nil {
			t.Fatalf("EncodeCol(%d): %v", c, err)
		}
		back, err := DecodeCol(s)
		if err != nil {
			t.Fatalf("DecodeCol(%q): %v", s, err)
		}
		if back != c {
			t.Errorf("round trip %d -> %q -> %d", c, s, back)
		}
	}
}

func TestEncodeColKnownValues(t *testing.T) {
	cases := []struct {
		c    int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{16383, "XFD"},
	}
	for _, tt := range cases {
		got, err := EncodeCol(tt.c)
		if err != nil {
			t.Fatalf("EncodeCol(%d): %v", tt.c, err)
		}
		if got != tt.want {
			t.Errorf("EncodeCol(%d) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestEncodeColNegative(t *testing.T) {
	if _, err := EncodeCol(-1); err == nil {
		t.Fatal("EncodeCol(-1) should fail")
	}
}

func TestEncodeCellFirstRow(t *testing.T) {
	for c := 0; c <= MaxColumn; c += 101 {
		letters, err := EncodeCol(c)
		if err != nil {
			t.Fatalf("EncodeCol(%d): %v", c, err)
		}
		got, err := EncodeCell(Cell{C: c, R: 0})
		if err != nil {
			t.Fatalf("EncodeCell: %v", err)
		}
		if got != letters+"1" {
			t.Errorf("EncodeCell({%d,0}) = %q, want %q", c, got, letters+"1")
		}
	}
}

func TestDecodeCell(t *testing.T) {
	cases := []struct {
		s    string
		want Cell
	}{
		{"A1", Cell{0, 0}},
		{"$B$7", Cell{1, 6}},
		{"XFD1048576", Cell{16383, 1048575}},
	}
	for _, tt := range cases {
		got, err := DecodeCell(tt.s)
		if err != nil {
			t.Fatalf("DecodeCell(%q): %v", tt.s, err)
		}
		if got != tt.want {
			t.Errorf("DecodeCell(%q) = %+v, want %+v", tt.s, got, tt.want)
		}
	}
}

func TestDecodeRange(t *testing.T) {
	rg, err := DecodeRange("A1:C5")
	if err != nil {
		t.Fatalf("DecodeRange: %v", err)
	}
	want := Range{Start: Cell{0, 0}, End: Cell{2, 4}}
	if rg != want {
		t.Errorf("DecodeRange(A1:C5) = %+v, want %+v", rg, want)
	}

	single, err := DecodeRange("B2")
	if err != nil {
		t.Fatalf("DecodeRange: %v", err)
	}
	if single.Start != single.End {
		t.Errorf("DecodeRange(B2) endpoints differ: %+v", single)
	}
}

func TestEncodeRangeOmitsColonWhenEqual(t *testing.T) {
	s, err := EncodeRange(Range{Start: Cell{1, 1}, End: Cell{1, 1}})
	if err != nil {
		t.Fatalf("EncodeRange: %v", err)
	}
	if s != "B2" {
		t.Errorf("EncodeRange(equal endpoints) = %q, want B2", s)
	}
}

func TestFastDecodeRangeMatchesDecodeRange(t *testing.T) {
	inputs := []string{"A1", "A1:C5", "$B$2:$D$9", "XFD1048576"}
	for _, in := range inputs {
		slow, err := DecodeRange(in)
		if err != nil {
			t.Fatalf("DecodeRange(%q): %v", in, err)
		}
		fast, err := FastDecodeRange(in)
		if err != nil {
			t.Fatalf("FastDecodeRange(%q): %v", in, err)
		}
		if slow != fast {
			t.Errorf("FastDecodeRange(%q) = %+v, want %+v", in, fast, slow)
		}
	}
}

func TestQuoteSheetName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Sheet1", "Sheet1"},
		{"日本語", "日本語"},
		{"My Sheet", "'My Sheet'"},
		{"O'Brien", "'O''Brien'"},
	}
	for _, tt := range cases {
		if got := QuoteSheetName(tt.name); got != tt.want {
			t.Errorf("QuoteSheetName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
