package holiday

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/internal/lunar"
	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

// Anniversary key grammars:
//
//	YYYY-MM-DD   one-time solar date
//	MM-DD        recurring solar date
//	nYYYY-MM-DD  one-time lunisolar date
//	nMM-DD       recurring lunisolar date
//
// Malformed keys are skipped, never fatal.

// FutureAnniversaries resolves every configured anniversary rule to
// its next occurrence on or after the given date, sorted ascending by
// day offset. Past one-time dates and malformed keys are skipped.
func (e *Engine) FutureAnniversaries(from time.Time) []Anniversary {
	var result []Anniversary
	for key, name := range e.anniversaries {
		date, isLunar, ok := e.resolveAnniversary(key, from)
		if !ok {
			continue
		}
		result = append(result, Anniversary{
			Key:      key,
			Name:     name,
			Date:     date,
			DaysDiff: dateutil.DaysBetween(from, date),
			IsLunar:  isLunar,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DaysDiff < result[j].DaysDiff
	})
	return result
}

// resolveAnniversary maps a rule key to its next occurrence on or
// after from. ok is false for malformed keys and for one-time dates
// already past.
func (e *Engine) resolveAnniversary(key string, from time.Time) (date time.Time, isLunar bool, ok bool) {
	pattern := key
	if strings.HasPrefix(pattern, "n") {
		isLunar = true
		pattern = pattern[1:]
	}

	switch {
	case !isLunar && len(pattern) == 10:
		d, err := dateutil.ParseDate(pattern)
		if err != nil || d.Before(from) {
			return time.Time{}, false, false
		}
		return d, false, true

	case !isLunar && len(pattern) == 5:
		month, day, err := parseMonthDay(pattern)
		if err != nil {
			return time.Time{}, false, false
		}
		d := time.Date(from.Year(), time.Month(month), day, 0, 0, 0, 0, dateutil.CST)
		if d.Before(from) {
			d = time.Date(from.Year()+1, time.Month(month), day, 0, 0, 0, 0, dateutil.CST)
		}
		return d, false, true

	case isLunar && len(pattern) == 10:
		year, err1 := strconv.Atoi(pattern[:4])
		month, day, err2 := parseMonthDay(pattern[5:])
		if err1 != nil || err2 != nil || pattern[4] != '-' {
			return time.Time{}, false, false
		}
		d, err := lunar.ToSolar(year, month, day, false)
		if err != nil || d.Before(from) {
			return time.Time{}, false, false
		}
		return d, true, true

	case isLunar && len(pattern) == 5:
		month, day, err := parseMonthDay(pattern)
		if err != nil {
			return time.Time{}, false, false
		}
		ld, err2 := lunar.FromSolar(from.Year(), from.Month(), from.Day())
		if err2 != nil {
			e.logger.Warn("Anniversary outside lunar table range",
				zap.String("key", key),
				zap.Error(err2))
			return time.Time{}, false, false
		}
		for _, year := range []int{ld.Year, ld.Year + 1} {
			d, err := lunar.ToSolar(year, month, day, false)
			if err != nil {
				continue
			}
			if !d.Before(from) {
				return d, true, true
			}
		}
		return time.Time{}, false, false
	}

	return time.Time{}, false, false
}

func parseMonthDay(s string) (month, day int, err error) {
	if len(s) != 5 || s[2] != '-' {
		return 0, 0, strconv.ErrSyntax
	}
	month, err = strconv.Atoi(s[:2])
	if err != nil {
		return 0, 0, err
	}
	day, err = strconv.Atoi(s[3:])
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, strconv.ErrRange
	}
	return month, day, nil
}

// matchAnniversaryNames returns the names of anniversary rules that
// land exactly on the given date, used when attaching festival lists
// to fetched records.
func (e *Engine) matchAnniversaryNames(date time.Time) []string {
	var names []string
	for key, name := range e.anniversaries {
		pattern := key
		isLunar := strings.HasPrefix(pattern, "n")
		if isLunar {
			pattern = pattern[1:]
		}

		var matched bool
		switch {
		case !isLunar && len(pattern) == 10:
			d, err := dateutil.ParseDate(pattern)
			matched = err == nil && dateutil.IsSameDay(d, date)
		case !isLunar && len(pattern) == 5:
			month, day, err := parseMonthDay(pattern)
			matched = err == nil && int(date.Month()) == month && date.Day() == day
		case isLunar:
			ld, err := lunar.FromSolar(date.Year(), date.Month(), date.Day())
			if err != nil || ld.IsLeapMonth {
				break
			}
			if len(pattern) == 10 {
				year, err1 := strconv.Atoi(pattern[:4])
				month, day, err2 := parseMonthDay(pattern[5:])
				matched = err1 == nil && err2 == nil &&
					ld.Year == year && ld.Month == month && ld.Day == day
			} else if len(pattern) == 5 {
				month, day, err2 := parseMonthDay(pattern)
				matched = err2 == nil && ld.Month == month && ld.Day == day
			}
		}

		if matched {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// nextSolarOccurrence resolves a Gregorian "MMDD" key to its nearest
// occurrence on or after from.
func nextSolarOccurrence(from time.Time, mmdd string) (time.Time, bool) {
	month, err1 := strconv.Atoi(mmdd[:2])
	day, err2 := strconv.Atoi(mmdd[2:])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	d := time.Date(from.Year(), time.Month(month), day, 0, 0, 0, 0, dateutil.CST)
	if d.Before(from) {
		d = time.Date(from.Year()+1, time.Month(month), day, 0, 0, 0, 0, dateutil.CST)
	}
	return d, true
}

// nextLunarOccurrence resolves a lunisolar "MMDD" key to its nearest
// occurrence on or after from, using the lunisolar year containing
// from. Dates invalid for a given lunar year (day 30 of a short
// month) roll to the next year that has them, within the search pair.
func (e *Engine) nextLunarOccurrence(from time.Time, mmdd string) (time.Time, bool) {
	month, err1 := strconv.Atoi(mmdd[:2])
	day, err2 := strconv.Atoi(mmdd[2:])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}

	ld, err := lunar.FromSolar(from.Year(), from.Month(), from.Day())
	if err != nil {
		e.logger.Warn("Date outside lunar table range", zap.Error(err))
		return time.Time{}, false
	}

	for _, year := range []int{ld.Year, ld.Year + 1} {
		d, err := lunar.ToSolar(year, month, day, false)
		if err != nil {
			continue
		}
		if !d.Before(from) {
			return d, true
		}
	}
	return time.Time{}, false
}
