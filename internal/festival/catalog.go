// Package festival holds the static observance tables: fixed-date solar
// festivals, fixed-date lunisolar festivals, and nth-weekday-of-month
// festivals, plus the per-year resolution cache for the latter.
package festival

import (
	"time"

	"github.com/jdmeng/holidaycal/internal/lunar"
	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

// SolarFestivals maps a Gregorian "MMDD" key to festival names.
var SolarFestivals = map[string][]string{
	"0101": {"元旦"},
	"0214": {"情人节"},
	"0308": {"妇女节"},
	"0312": {"植树节"},
	"0401": {"愚人节"},
	"0501": {"劳动节"},
	"0504": {"青年节"},
	"0601": {"儿童节"},
	"0701": {"建党节"},
	"0801": {"建军节"},
	"0910": {"教师节"},
	"1001": {"国庆节"},
	"1224": {"平安夜"},
	"1225": {"圣诞节"},
}

// LunarFestivals maps a lunisolar "MMDD" key to festival names.
var LunarFestivals = map[string][]string{
	"0101": {"春节"},
	"0115": {"元宵节"},
	"0202": {"龙抬头"},
	"0505": {"端午节"},
	"0707": {"七夕节"},
	"0715": {"中元节"},
	"0815": {"中秋节"},
	"0909": {"重阳节"},
	"1208": {"腊八节"},
	"1223": {"小年"},
	"1230": {"除夕"},
}

// WeekFestivals maps month*100 + weekday*10 + occurrence to festival
// names, with the weekday numbered 1 (Monday) through 7 (Sunday).
// 572 is the second Sunday of May, 1144 the fourth Thursday of
// November.
var WeekFestivals = map[int][]string{
	572:  {"母亲节"},
	673:  {"父亲节"},
	1144: {"感恩节"},
}

// Info collects the festival names attached to one calendar date.
type Info struct {
	Solar         []string
	Lunar         []string
	Anniversaries []string
	Combined      []string
}

// Catalog resolves festival tables against concrete dates, memoizing
// the per-year weekday-festival resolution. A Catalog is owned by one
// engine instance; it is not safe for concurrent mutation.
type Catalog struct {
	weekCache map[int]map[string][]string
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{weekCache: make(map[int]map[string][]string)}
}

// weekFestivalsFor resolves the nth-weekday table into concrete "MMDD"
// keys for one year, computing it once per year.
func (c *Catalog) weekFestivalsFor(year int) map[string][]string {
	if resolved, ok := c.weekCache[year]; ok {
		return resolved
	}

	resolved := make(map[string][]string, len(WeekFestivals))
	for key, names := range WeekFestivals {
		month := key / 100
		weekday := key / 10 % 10
		nth := key % 10

		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, dateutil.CST)
		firstWeekday := dateutil.ISOWeekday(first)
		day := 1 + (weekday-firstWeekday+7)%7 + (nth-1)*7
		// Observances are bounded to the first 30 days of the month.
		if day > 30 {
			day -= 7
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, dateutil.CST)
		mmdd := dateutil.MonthDayKey(date)
		resolved[mmdd] = append(resolved[mmdd], names...)
	}

	c.weekCache[year] = resolved
	return resolved
}

// Info returns the festival names for a date: fixed-solar plus resolved
// weekday observances, fixed-lunisolar resolved through the converter,
// the supplied anniversary names, and the de-duplicated insertion-
// ordered union of all three.
func (c *Catalog) Info(date time.Time, anniversaries []string) Info {
	info := Info{Anniversaries: anniversaries}

	mmdd := dateutil.MonthDayKey(date)
	info.Solar = append(info.Solar, SolarFestivals[mmdd]...)
	info.Solar = append(info.Solar, c.weekFestivalsFor(date.Year())[mmdd]...)

	if ld, err := lunar.FromSolar(date.Year(), date.Month(), date.Day()); err == nil && !ld.IsLeapMonth {
		key := twoDigits(ld.Month) + twoDigits(ld.Day)
		info.Lunar = append(info.Lunar, LunarFestivals[key]...)
	}

	seen := make(map[string]bool)
	for _, group := range [][]string{info.Solar, info.Lunar, info.Anniversaries} {
		for _, name := range group {
			if !seen[name] {
				seen[name] = true
				info.Combined = append(info.Combined, name)
			}
		}
	}
	return info
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
