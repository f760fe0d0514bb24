// Package lunar converts between Gregorian dates and Chinese lunisolar
// dates using a packed per-year table covering 1900 through 2049.
// All arithmetic is exact integer day counting from the epoch
// 1900-01-31, the lunisolar New Year of that cycle.
package lunar

import (
	"fmt"
	"time"

	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

const (
	// MinYear and MaxYear bound the conversion table.
	MinYear = 1900
	MaxYear = 2049
)

// ErrOutOfRange reports a year or month outside the table's coverage.
// It indicates a programming or data error, not a runtime condition.
type ErrOutOfRange struct {
	Year  int
	Month int
}

func (e *ErrOutOfRange) Error() string {
	if e.Month != 0 {
		return fmt.Sprintf("lunar: month %d invalid for year %d", e.Month, e.Year)
	}
	return fmt.Sprintf("lunar: year %d outside [%d, %d]", e.Year, MinYear, MaxYear)
}

// epoch is 1900-01-31, lunisolar 1900-01-01.
var epoch = time.Date(1900, time.January, 31, 0, 0, 0, 0, dateutil.CST)

// Date is a lunisolar calendar date. Month and Day are 1-based;
// IsLeapMonth marks a date inside the year's intercalary month.
type Date struct {
	Year        int
	Month       int
	Day         int
	IsLeapMonth bool
}

func (d Date) String() string {
	leap := ""
	if d.IsLeapMonth {
		leap = "闰"
	}
	return fmt.Sprintf("%d年%s%d月%d日", d.Year, leap, d.Month, d.Day)
}

// LeapMonth returns which month of the given lunisolar year is a leap
// month, or 0 if the year has none.
func LeapMonth(year int) int {
	return yearInfo[year-MinYear] & 0xf
}

// LeapDays returns the length of the given year's leap month, or 0 if
// the year has none.
func LeapDays(year int) int {
	if LeapMonth(year) == 0 {
		return 0
	}
	if yearInfo[year-MinYear]&0x10000 != 0 {
		return 30
	}
	return 29
}

// MonthDays returns the length of a regular (non-leap) month.
func MonthDays(year, month int) int {
	if yearInfo[year-MinYear]&(0x10000>>uint(month)) != 0 {
		return 30
	}
	return 29
}

// YearDays returns the total number of days in a lunisolar year,
// including its leap month if present.
func YearDays(year int) int {
	days := 348 // 12 months of 29 days
	for mask := 0x8000; mask >= 0x10; mask >>= 1 {
		if yearInfo[year-MinYear]&mask != 0 {
			days++
		}
	}
	return days + LeapDays(year)
}

// FromSolar converts a Gregorian calendar date to its lunisolar
// representation. The solar date must fall on or after the epoch and
// inside the table's range.
func FromSolar(year int, month time.Month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, &ErrOutOfRange{Year: year}
	}
	solar := time.Date(year, month, day, 0, 0, 0, 0, dateutil.CST)
	offset := dateutil.DaysBetween(epoch, solar)
	if offset < 0 {
		return Date{}, &ErrOutOfRange{Year: year}
	}

	ly := MinYear
	for ly <= MaxYear && offset >= YearDays(ly) {
		offset -= YearDays(ly)
		ly++
	}
	if ly > MaxYear {
		return Date{}, &ErrOutOfRange{Year: ly}
	}

	leap := LeapMonth(ly)
	isLeap := false
	lm := 1
	for ; lm <= 12; lm++ {
		days := MonthDays(ly, lm)
		if offset < days {
			break
		}
		offset -= days
		if lm == leap {
			days = LeapDays(ly)
			if offset < days {
				isLeap = true
				break
			}
			offset -= days
		}
	}

	return Date{Year: ly, Month: lm, Day: offset + 1, IsLeapMonth: isLeap}, nil
}

// ToSolar converts a lunisolar date to the Gregorian calendar. It is
// the exact inverse of FromSolar: day counts are accumulated for every
// year before the target year, then every month before the target
// month, respecting the leap-month position.
func ToSolar(year, month, day int, isLeapMonth bool) (time.Time, error) {
	if year < MinYear || year > MaxYear {
		return time.Time{}, &ErrOutOfRange{Year: year}
	}
	if month < 1 || month > 12 {
		return time.Time{}, &ErrOutOfRange{Year: year, Month: month}
	}
	leap := LeapMonth(year)
	if isLeapMonth && leap != month {
		return time.Time{}, &ErrOutOfRange{Year: year, Month: month}
	}
	if day < 1 || day > monthLen(year, month, isLeapMonth) {
		return time.Time{}, &ErrOutOfRange{Year: year, Month: month}
	}

	offset := 0
	for y := MinYear; y < year; y++ {
		offset += YearDays(y)
	}
	for m := 1; m < month; m++ {
		offset += MonthDays(year, m)
		if m == leap {
			offset += LeapDays(year)
		}
	}
	if isLeapMonth {
		// The leap month follows its regular counterpart.
		offset += MonthDays(year, month)
	}
	offset += day - 1

	return epoch.AddDate(0, 0, offset), nil
}

func monthLen(year, month int, isLeapMonth bool) int {
	if isLeapMonth {
		return LeapDays(year)
	}
	return MonthDays(year, month)
}
