// Package dateconv converts between Excel serial date numbers and
// time.Time, honoring the 1900/1904 date systems and the Lotus 1-2-3
// phantom leap day that Excel deliberately preserved for compatibility.
package dateconv

import (
	"math"
	"time"
)

// Epoch is the Excel 1900-date-system epoch, 1899-12-30 UTC. Serial day 1 is
// 1900-01-01; serial 60 is the fictional 1900-02-29 (the Lotus bug).
var Epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Date1904Offset is the 1900-system serial of 1904-01-01 (day 0 of the 1904
// date system), added to every serial when the workbook uses the 1904 date
// system.
const Date1904Offset = 1462

const msPerDay = 86400000

// ToTime converts a serial day number to a UTC time.Time, applying the Lotus
// phantom-day correction and, when date1904 is true, the 1904 epoch shift.
func ToTime(serial float64, date1904 bool) time.Time {
	s := serial
	if date1904 {
		s += Date1904Offset
	}
	if s < 60 {
		s++
	}
	days := math.Floor(s)
	frac := time.Duration(math.Round((s-days)*msPerDay)) * time.Millisecond
	return Epoch.AddDate(0, 0, int(days)).Add(frac)
}

// FromTime converts a UTC time.Time to a serial day number, applying the
// inverse Lotus phantom-day correction and, when date1904 is true, the 1904
// epoch shift.
func FromTime(t time.Time, date1904 bool) float64 {
	s := (float64(t.Unix()-Epoch.Unix()) + float64(t.Nanosecond())/1e9) / 86400
	if s < 61 {
		s--
	}
	if date1904 {
		s -= Date1904Offset
	}
	return s
}

// LocalToUtc shifts t forward by its own UTC offset, so that its wall-clock
// components (as observed in its original location) become the UTC
// components of the result. This is used when a serial date, which carries
// no time zone, needs to round-trip through a time.Time that must compare
// equal component-wise regardless of the process's local zone.
func LocalToUtc(t time.Time) time.Time {
	_, offset := t.Zone()
	return t.Add(time.Duration(offset) * time.Second).UTC()
}

// UtcToLocal is the inverse of LocalToUtc: it reinterprets a UTC time.Time's
// wall-clock components as being in loc, without changing the numeric
// field values.
func UtcToLocal(t time.Time, loc *time.Location) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), loc)
}
