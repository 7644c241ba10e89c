package ssf

import (
	"math"
	"testing"
)

func TestFormatGeneral(t *testing.T) {
	tbl := NewFormatTable()
	cases := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{3.5, "3.5"},
	}
	for _, tt := range cases {
		if got := tbl.Format(0, tt.v, false); got != tt.want {
			t.Errorf("Format(General, %v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatBuiltins(t *testing.T) {
	tbl := NewFormatTable()
	cases := []struct {
		id   int
		v    float64
		want string
	}{
		{1, 7, "7"},
		{2, 7, "7.00"},
		{3, 1234567, "1,234,567"},
		{9, 0.5, "50%"},
		{49, 1, "1"},
	}
	for _, tt := range cases {
		if got := tbl.Format(tt.id, tt.v, false); got != tt.want {
			t.Errorf("Format(%d, %v) = %q, want %q", tt.id, tt.v, got, tt.want)
		}
	}
}

func TestFormatNonFinite(t *testing.T) {
	tbl := NewFormatTable()
	if got := tbl.Format(0, math.NaN(), false); got != "#VALUE!" {
		t.Errorf("Format(NaN) = %q, want #VALUE!", got)
	}
	if got := tbl.Format(0, math.Inf(1), false); got != "#DIV/0!" {
		t.Errorf("Format(+Inf) = %q, want #DIV/0!", got)
	}
}

func TestFormatStringBoolNil(t *testing.T) {
	tbl := NewFormatTable()
	if got := tbl.Format(0, "hi", false); got != "hi" {
		t.Errorf("Format(string) = %q, want hi", got)
	}
	if got := tbl.Format(0, true, false); got != "TRUE" {
		t.Errorf("Format(true) = %q, want TRUE", got)
	}
	if got := tbl.Format(0, nil, false); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestIsDateFormat(t *testing.T) {
	cases := []struct {
		id     int
		fmtStr string
		isDate bool
	}{
		{0, "General", false},
		{14, "", true},
		{9, "", false},
		{164, "yyyy-mm-dd", true},
		{164, "#,##0.00", false},
	}
	for _, tt := range cases {
		if got := IsDateFormat(tt.id, tt.fmtStr); got != tt.isDate {
			t.Errorf("IsDateFormat(%d, %q) = %v, want %v", tt.id, tt.fmtStr, got, tt.isDate)
		}
	}
}

func TestRegisterPreservesID(t *testing.T) {
	tbl := NewFormatTable()
	id, err := tbl.Register(200, "0.000")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id != 200 {
		t.Fatalf("Register kept id = %d, want 200", id)
	}
	if got := tbl.Lookup(200); got != "0.000" {
		t.Errorf("Lookup(200) = %q, want 0.000", got)
	}
}

func TestRegisterAssignsFreeSlot(t *testing.T) {
	tbl := NewFormatTable()
	id, err := tbl.Register(-1, "0.0%")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id < firstCustomID {
		t.Fatalf("Register(-1) assigned %d, want >= %d", id, firstCustomID)
	}
	id2, err := tbl.Register(-1, "0.00%")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id2 == id {
		t.Fatalf("Register(-1) reused id %d twice", id)
	}
}

func TestLocaleAlias(t *testing.T) {
	tbl := NewFormatTable()
	// id 59 aliases to built-in 1 ("0") per DefaultFormatMap.
	if got := tbl.Format(59, 7.0, false); got != "7" {
		t.Errorf("Format(59 alias) = %q, want 7", got)
	}
}
