package lunar

import (
	"testing"
	"time"
)

func TestFromSolar_ReferenceDates(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  Date
	}{
		{
			name: "epoch is lunar new year 1900",
			year: 1900, month: time.January, day: 31,
			want: Date{Year: 1900, Month: 1, Day: 1},
		},
		{
			name: "chinese new year 2024",
			year: 2024, month: time.February, day: 10,
			want: Date{Year: 2024, Month: 1, Day: 1},
		},
		{
			name: "chinese new year 2025",
			year: 2025, month: time.January, day: 29,
			want: Date{Year: 2025, Month: 1, Day: 1},
		},
		{
			name: "mid-autumn 2024",
			year: 2024, month: time.September, day: 17,
			want: Date{Year: 2024, Month: 8, Day: 15},
		},
		{
			name: "dragon boat 2024",
			year: 2024, month: time.June, day: 10,
			want: Date{Year: 2024, Month: 5, Day: 5},
		},
		{
			name: "day before chinese new year 2024",
			year: 2024, month: time.February, day: 9,
			want: Date{Year: 2023, Month: 12, Day: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromSolar(tt.year, tt.month, tt.day)
			if err != nil {
				t.Fatalf("FromSolar() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FromSolar() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFromSolar_OutOfRange(t *testing.T) {
	if _, err := FromSolar(1899, time.December, 31); err == nil {
		t.Error("FromSolar(1899) expected error, got nil")
	}
	if _, err := FromSolar(2050, time.January, 1); err == nil {
		t.Error("FromSolar(2050) expected error, got nil")
	}
	// Before the epoch but inside the table's first year.
	if _, err := FromSolar(1900, time.January, 1); err == nil {
		t.Error("FromSolar(1900-01-01) expected error, got nil")
	}
}

func TestToSolar_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		day   int
		leap  bool
	}{
		{name: "year below range", year: 1899, month: 1, day: 1},
		{name: "year above range", year: 2050, month: 1, day: 1},
		{name: "month zero", year: 2024, month: 0, day: 1},
		{name: "month thirteen", year: 2024, month: 13, day: 1},
		{name: "leap month in non-leap year", year: 2024, month: 4, day: 1, leap: true},
		{name: "wrong leap month", year: 2023, month: 3, day: 1, leap: true},
		{name: "day past month length", year: 2024, month: 1, day: 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToSolar(tt.year, tt.month, tt.day, tt.leap); err == nil {
				t.Errorf("ToSolar(%d, %d, %d, %v) expected error, got nil",
					tt.year, tt.month, tt.day, tt.leap)
			}
		})
	}
}

func TestLeapMonths(t *testing.T) {
	// 2023 intercalates month 2, 2025 intercalates month 6.
	if got := LeapMonth(2023); got != 2 {
		t.Errorf("LeapMonth(2023) = %d, want 2", got)
	}
	if got := LeapMonth(2025); got != 6 {
		t.Errorf("LeapMonth(2025) = %d, want 6", got)
	}
	if got := LeapMonth(2024); got != 0 {
		t.Errorf("LeapMonth(2024) = %d, want 0", got)
	}
	if got := LeapDays(2024); got != 0 {
		t.Errorf("LeapDays(2024) = %d, want 0", got)
	}
}

func TestYearDays_MatchesMonthSum(t *testing.T) {
	for year := MinYear; year <= MaxYear; year++ {
		sum := 0
		for month := 1; month <= 12; month++ {
			sum += MonthDays(year, month)
		}
		sum += LeapDays(year)
		if got := YearDays(year); got != sum {
			t.Fatalf("YearDays(%d) = %d, month sum = %d", year, got, sum)
		}
	}
}

// Every valid lunisolar date in the table must survive the
// ToSolar/FromSolar round trip exactly.
func TestRoundTrip_FullRange(t *testing.T) {
	for year := MinYear; year <= MaxYear; year++ {
		leap := LeapMonth(year)
		for month := 1; month <= 12; month++ {
			checkRoundTrip(t, year, month, false)
			if month == leap {
				checkRoundTrip(t, year, month, true)
			}
		}
	}
}

func checkRoundTrip(t *testing.T, year, month int, isLeap bool) {
	t.Helper()
	length := MonthDays(year, month)
	if isLeap {
		length = LeapDays(year)
	}
	for day := 1; day <= length; day++ {
		solar, err := ToSolar(year, month, day, isLeap)
		if err != nil {
			t.Fatalf("ToSolar(%d, %d, %d, %v) error = %v", year, month, day, isLeap, err)
		}
		if solar.Year() > MaxYear {
			// The table's last months spill past 2049-12-31.
			continue
		}
		got, err := FromSolar(solar.Year(), solar.Month(), solar.Day())
		if err != nil {
			t.Fatalf("FromSolar(%v) error = %v", solar, err)
		}
		want := Date{Year: year, Month: month, Day: day, IsLeapMonth: isLeap}
		if got != want {
			t.Fatalf("round trip %+v -> %s -> %+v", want, solar.Format("2006-01-02"), got)
		}
	}
}
