package dateutil

import "time"

// CST is the single civil timezone (UTC+8) used for every "today"
// computation. All calendar dates downstream are midnight values in
// this zone.
var CST = time.FixedZone("CST", 8*60*60)

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// Today returns today's civil date in CST (start of day)
func Today() time.Time {
	return StartOfDay(time.Now().In(CST))
}

// Day returns the civil date n days from today. Day(1) is tomorrow,
// Day(-1) is yesterday.
func Day(n int) time.Time {
	return Today().AddDate(0, 0, n)
}

// Tomorrow returns tomorrow's civil date in CST
func Tomorrow() time.Time {
	return Day(1)
}

// DayKey formats a date as the 8-digit key "YYYYMMDD"
func DayKey(date time.Time) string {
	return date.Format("20060102")
}

// MonthDayKey formats a date as the 4-digit key "MMDD"
func MonthDayKey(date time.Time) string {
	return date.Format("0102")
}

// YearKey formats a date's year as a 4-digit string
func YearKey(date time.Time) string {
	return date.Format("2006")
}

// FormatDate formats a date as "YYYY-MM-DD"
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

// ParseDate parses a "YYYY-MM-DD" date string into a CST calendar date
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, CST)
}

// ParseDayKey parses an 8-digit "YYYYMMDD" key into a CST calendar date
func ParseDayKey(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, CST)
}

// ISOWeekday returns the weekday numbered 1 (Monday) through 7 (Sunday)
func ISOWeekday(date time.Time) int {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return weekday
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// DaysBetween returns the number of whole days from a to b, ignoring
// the time-of-day components
func DaysBetween(a, b time.Time) int {
	a = StartOfDay(a)
	b = StartOfDay(b)
	return int(b.Sub(a).Hours() / 24)
}

// IsSameDay returns true if two dates are on the same day
func IsSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}
