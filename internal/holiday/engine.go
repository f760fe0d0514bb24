// Package holiday implements the holiday calendar engine: day-type
// classification over the remote-sourced calendar, consecutive
// rest-day interval search, and ranked nearest-event merging across
// the statutory calendar, the festival catalogs, and user
// anniversaries.
package holiday

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/internal/festival"
	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultFetchDelay  = 500 * time.Millisecond
	fetchMonths        = 6
)

// Storage is the persistence surface the engine depends on. The
// sqlite-backed implementation lives in internal/store.
type Storage interface {
	Load() *Snapshot
	SaveFull(records []*DayRecord, updateTime string)
	DayDetail(dayKey string) (*DayRecord, bool)
	WriteSnapshot(snap *Snapshot) error
}

// Options configures an Engine.
type Options struct {
	APIURL         string
	StaleAfterDays int
	FetchDelay     time.Duration
	Anniversaries  map[string]string
}

// Engine owns the in-memory calendar snapshot and composes the
// converter, catalogs, store, and refresher into the query surface.
// Queries are deterministic functions of the snapshot; the only side
// effect is a lazy refresh when the snapshot is empty.
type Engine struct {
	storage        Storage
	catalog        *festival.Catalog
	anniversaries  map[string]string
	apiURL         string
	staleAfterDays int
	fetchDelay     time.Duration
	httpClient     *http.Client
	logger         *zap.Logger

	mu   sync.RWMutex
	snap *Snapshot

	refreshMu sync.Mutex

	now func() time.Time
}

// NewEngine creates an engine and populates its snapshot from storage.
// storage may be nil; the engine then serves weekday-inferred answers
// until a refresh succeeds.
func NewEngine(storage Storage, opts Options, logger *zap.Logger) *Engine {
	e := &Engine{
		storage:        storage,
		catalog:        festival.NewCatalog(),
		anniversaries:  opts.Anniversaries,
		apiURL:         opts.APIURL,
		staleAfterDays: opts.StaleAfterDays,
		fetchDelay:     opts.FetchDelay,
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:         logger,
		snap:           NewSnapshot(),
		now:            dateutil.Today,
	}
	if e.fetchDelay == 0 {
		e.fetchDelay = defaultFetchDelay
	}
	if storage != nil {
		e.snap = storage.Load()
	}
	return e
}

func (e *Engine) snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// ensureData lazily triggers a refresh when the in-memory calendar is
// empty. Queries still work without data via weekday inference.
func (e *Engine) ensureData() {
	if e.snapshot().Empty() {
		e.Refresh(e.staleAfterDays)
	}
}

// DayStatus classifies a date: 0 workday, 1 rest day, 2 statutory
// holiday. A date absent from the calendar is inferred from its
// weekday (Saturday and Sunday rest, everything else works).
func (e *Engine) DayStatus(date time.Time) int {
	e.ensureData()
	return e.dayStatus(e.snapshot(), date)
}

func (e *Engine) dayStatus(snap *Snapshot, date time.Time) int {
	if rec, ok := snap.Lookup(dateutil.YearKey(date), dateutil.MonthDayKey(date)); ok {
		return int(rec.Type)
	}
	if dateutil.IsWeekend(date) {
		return StatusRestDay
	}
	return StatusWorkday
}

// StatusTextFor returns the display text for a date's status.
func (e *Engine) StatusTextFor(date time.Time) string {
	if text, ok := StatusText[e.DayStatus(date)]; ok {
		return text
	}
	return "未知"
}

// TodayStatus returns today's status text.
func (e *Engine) TodayStatus() string {
	return e.StatusTextFor(e.now())
}

// TomorrowStatus returns tomorrow's status text.
func (e *Engine) TomorrowStatus() string {
	return e.StatusTextFor(e.now().AddDate(0, 0, 1))
}

// HolidayRange extends from a non-workday in both directions to the
// maximal contiguous block of non-workdays containing it, inclusive.
func (e *Engine) HolidayRange(date time.Time) (start, end time.Time) {
	e.ensureData()
	snap := e.snapshot()
	start, end = date, date
	for e.dayStatus(snap, start.AddDate(0, 0, -1)) != StatusWorkday {
		start = start.AddDate(0, 0, -1)
	}
	for e.dayStatus(snap, end.AddDate(0, 0, 1)) != StatusWorkday {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// Workday is one workday adjoining a holiday block. IsShiftedWeekend
// marks a calendar weekend redesignated as a working day to compensate
// for the block ("串休").
type Workday struct {
	Date             time.Time
	IsShiftedWeekend bool
}

// SurroundingWorkdays collects the consecutive workdays adjoining a
// date, scanning backward when lookBack is true and forward otherwise.
// Results are in chronological order regardless of scan direction.
func (e *Engine) SurroundingWorkdays(date time.Time, lookBack bool) []Workday {
	e.ensureData()
	snap := e.snapshot()

	step := 1
	if lookBack {
		step = -1
	}
	current := date.AddDate(0, 0, step)

	var workdays []Workday
	for e.dayStatus(snap, current) == StatusWorkday {
		workdays = append(workdays, Workday{
			Date:             current,
			IsShiftedWeekend: dateutil.IsWeekend(current),
		})
		current = current.AddDate(0, 0, step)
	}

	if lookBack {
		for i, j := 0, len(workdays)-1; i < j; i, j = i+1, j-1 {
			workdays[i], workdays[j] = workdays[j], workdays[i]
		}
	}
	return workdays
}

// collectStatutoryCandidates gathers every statutory-holiday date in
// the current and next calendar year on or after today, sorted
// ascending.
func (e *Engine) collectStatutoryCandidates(today time.Time) []Candidate {
	snap := e.snapshot()
	years := []string{
		strconv.Itoa(today.Year()),
		strconv.Itoa(today.Year() + 1),
	}

	var candidates []Candidate
	for _, year := range years {
		for mmdd, rec := range snap.Years[year] {
			if int(rec.Type) != StatusStatutory {
				continue
			}
			date, ok := candidateDate(rec, year, mmdd)
			if !ok {
				continue
			}
			diff := dateutil.DaysBetween(today, date)
			if diff < 0 {
				continue
			}
			name := rec.TypeName
			if name == "" {
				name = "未知节假日"
			}
			candidates = append(candidates, Candidate{
				Date:     date,
				Name:     name,
				DaysDiff: diff,
				FullInfo: rec,
				Priority: PriorityStatutory,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Date.Before(candidates[j].Date)
	})
	return candidates
}

func candidateDate(rec *DayRecord, year, mmdd string) (time.Time, bool) {
	if len(rec.Day) == 8 {
		if date, err := dateutil.ParseDayKey(rec.Day); err == nil {
			return date, true
		}
	}
	date, err := dateutil.ParseDayKey(year + mmdd)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// NearestHolidayInfo renders the next statutory-holiday block whose
// first day falls within [minDays, maxDays] of today as a
// human-readable summary: the block's span with weekday, its total
// length, and the shifted workdays on both sides.
func (e *Engine) NearestHolidayInfo(minDays, maxDays int) string {
	e.ensureData()
	today := e.now()

	for _, cand := range e.collectStatutoryCandidates(today) {
		if cand.DaysDiff < minDays || cand.DaysDiff > maxDays {
			continue
		}
		start, end := e.HolidayRange(cand.Date)
		before := e.SurroundingWorkdays(start, true)
		after := e.SurroundingWorkdays(end, false)
		return formatHolidayInfo(start, end, before, after)
	}
	return "无最近节假日信息"
}

func formatHolidayInfo(start, end time.Time, before, after []Workday) string {
	totalDays := dateutil.DaysBetween(start, end) + 1
	return fmt.Sprintf("%s(周%d)-%s 放假 共%d天\n据上一次休息%d天 %s \n据下一次休息%d天 %s",
		start.Format("01/02"),
		dateutil.ISOWeekday(start),
		end.Format("01/02"),
		totalDays,
		len(before),
		formatWorkdays(before),
		len(after),
		formatWorkdays(after),
	)
}

func formatWorkdays(workdays []Workday) string {
	var b strings.Builder
	for _, wd := range workdays {
		fmt.Fprintf(&b, " %d/%d", int(wd.Date.Month()), wd.Date.Day())
		if wd.IsShiftedWeekend {
			fmt.Fprintf(&b, "(串休日，周%d)", dateutil.ISOWeekday(wd.Date))
		}
	}
	return b.String()
}

// NearestStatutoryHoliday returns the earliest statutory holiday whose
// offset from today falls within [minDays, maxDays], or nil.
func (e *Engine) NearestStatutoryHoliday(minDays, maxDays int) *Candidate {
	e.ensureData()
	today := e.now()

	for _, cand := range e.collectStatutoryCandidates(today) {
		if cand.DaysDiff >= minDays && cand.DaysDiff <= maxDays {
			c := cand
			return &c
		}
	}
	return nil
}

// NearestFestival merges statutory holidays, fixed solar observances,
// fixed lunisolar observances, and user anniversaries into one ranked
// search, selecting the minimum by (days_diff, priority). An
// anniversary on the same day as a statutory holiday is reported as
// the anniversary. A precomputed anniversary list may be supplied to
// avoid resolving the rules twice.
func (e *Engine) NearestFestival(minDays, maxDays int, precomputed []Anniversary) *Candidate {
	e.ensureData()
	today := e.now()

	var best *Candidate
	consider := func(c Candidate) {
		if c.DaysDiff < minDays || c.DaysDiff > maxDays {
			return
		}
		if best == nil ||
			c.DaysDiff < best.DaysDiff ||
			(c.DaysDiff == best.DaysDiff && c.Priority < best.Priority) {
			copied := c
			best = &copied
		}
	}

	anniversaries := precomputed
	if anniversaries == nil {
		anniversaries = e.FutureAnniversaries(today)
	}
	for _, a := range anniversaries {
		consider(Candidate{
			Date:     a.Date,
			Name:     a.Name,
			DaysDiff: a.DaysDiff,
			Priority: PriorityAnniversary,
		})
	}

	for _, cand := range e.collectStatutoryCandidates(today) {
		consider(cand)
	}

	for mmdd, names := range festival.SolarFestivals {
		date, ok := nextSolarOccurrence(today, mmdd)
		if !ok {
			continue
		}
		consider(Candidate{
			Date:     date,
			Name:     strings.Join(names, " "),
			DaysDiff: dateutil.DaysBetween(today, date),
			Priority: PriorityObservance,
		})
	}

	for mmdd, names := range festival.LunarFestivals {
		date, ok := e.nextLunarOccurrence(today, mmdd)
		if !ok {
			continue
		}
		consider(Candidate{
			Date:     date,
			Name:     strings.Join(names, " "),
			DaysDiff: dateutil.DaysBetween(today, date),
			Priority: PriorityObservance,
		})
	}

	return best
}

// DayDetail returns the full record for a date: the in-memory snapshot
// first, then the store's point lookup, always overlaid with freshly
// computed festival lists so those are never stale.
func (e *Engine) DayDetail(date time.Time) *DayRecord {
	e.ensureData()

	var rec *DayRecord
	if found, ok := e.snapshot().Lookup(dateutil.YearKey(date), dateutil.MonthDayKey(date)); ok {
		rec = found
	} else if e.storage != nil {
		if found, ok := e.storage.DayDetail(dateutil.DayKey(date)); ok {
			rec = found
		}
	}

	detail := DayRecord{Day: dateutil.DayKey(date)}
	if rec != nil {
		detail = *rec
	}

	info := e.catalog.Info(date, e.matchAnniversaryNames(date))
	detail.SolarFestival = info.Solar
	detail.LunarFestival = info.Lunar
	detail.Festival = info.Combined
	return &detail
}
