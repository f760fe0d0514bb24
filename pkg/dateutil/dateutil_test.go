package dateutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	d := time.Date(2024, time.October, 1, 15, 30, 45, 123, CST)
	got := StartOfDay(d)
	want := time.Date(2024, time.October, 1, 0, 0, 0, 0, CST)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestKeys(t *testing.T) {
	d := time.Date(2024, time.February, 5, 0, 0, 0, 0, CST)
	if got := DayKey(d); got != "20240205" {
		t.Errorf("DayKey() = %q, want 20240205", got)
	}
	if got := MonthDayKey(d); got != "0205" {
		t.Errorf("MonthDayKey() = %q, want 0205", got)
	}
	if got := YearKey(d); got != "2024" {
		t.Errorf("YearKey() = %q, want 2024", got)
	}
	if got := FormatDate(d); got != "2024-02-05" {
		t.Errorf("FormatDate() = %q, want 2024-02-05", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-10-01")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.October || d.Day() != 1 {
		t.Errorf("ParseDate() = %v", d)
	}
	if d.Location() != CST {
		t.Errorf("ParseDate() location = %v, want CST", d.Location())
	}

	if _, err := ParseDate("2024/10/01"); err == nil {
		t.Error("ParseDate() accepted a malformed string")
	}
}

func TestParseDayKey(t *testing.T) {
	d, err := ParseDayKey("20241001")
	if err != nil {
		t.Fatalf("ParseDayKey() error = %v", err)
	}
	if FormatDate(d) != "2024-10-01" {
		t.Errorf("ParseDayKey() = %v", d)
	}
	if _, err := ParseDayKey("2024100"); err == nil {
		t.Error("ParseDayKey() accepted a short key")
	}
}

func TestISOWeekday(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{date: "2024-09-30", want: 1}, // Monday
		{date: "2024-10-01", want: 2},
		{date: "2024-09-28", want: 6}, // Saturday
		{date: "2024-09-29", want: 7}, // Sunday
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.date)
		if err != nil {
			t.Fatalf("ParseDate(%s) error = %v", tt.date, err)
		}
		if got := ISOWeekday(d); got != tt.want {
			t.Errorf("ISOWeekday(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestIsWeekend(t *testing.T) {
	sat, _ := ParseDate("2024-09-28")
	sun, _ := ParseDate("2024-09-29")
	mon, _ := ParseDate("2024-09-30")
	if !IsWeekend(sat) || !IsWeekend(sun) {
		t.Error("Saturday and Sunday should be weekend")
	}
	if IsWeekend(mon) {
		t.Error("Monday should not be weekend")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.September, 25, 23, 59, 0, 0, CST)
	b := time.Date(2024, time.October, 1, 0, 1, 0, 0, CST)
	if got := DaysBetween(a, b); got != 6 {
		t.Errorf("DaysBetween() = %d, want 6 ignoring time of day", got)
	}
	if got := DaysBetween(b, a); got != -6 {
		t.Errorf("DaysBetween() reversed = %d, want -6", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("DaysBetween() same day = %d, want 0", got)
	}
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2024, time.October, 1, 1, 0, 0, 0, CST)
	b := time.Date(2024, time.October, 1, 23, 0, 0, 0, CST)
	c := time.Date(2024, time.October, 2, 0, 0, 0, 0, CST)
	if !IsSameDay(a, b) {
		t.Error("same calendar day not recognized")
	}
	if IsSameDay(a, c) {
		t.Error("different days reported as same")
	}
}

func TestDayOffsets(t *testing.T) {
	today := Today()
	if !Tomorrow().Equal(today.AddDate(0, 0, 1)) {
		t.Error("Tomorrow() != Today()+1")
	}
	if !Day(-1).Equal(today.AddDate(0, 0, -1)) {
		t.Error("Day(-1) != Today()-1")
	}
	if today.Hour() != 0 || today.Minute() != 0 {
		t.Error("Today() is not a start-of-day value")
	}
}
