package holiday

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// staleFallback is assumed when the snapshot carries no parseable
// update time, forcing a fetch.
var staleFallback = time.Date(2020, time.January, 1, 0, 0, 0, 0, dateutil.CST)

// Refresh fetches per-month day-status data from the remote calendar
// API when the local data is stale. It is a no-op when the last update
// is within staleAfterDays, staleAfterDays is non-zero, and the
// current year already has records; staleAfterDays == 0 always
// fetches. At most one refresh runs at a time per engine.
func (e *Engine) Refresh(staleAfterDays int) {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	today := e.now()
	snap := e.snapshot()

	lastUpdate := staleFallback
	if parsed, err := dateutil.ParseDate(snap.UpdateTime); err == nil {
		lastUpdate = parsed
	}
	interval := dateutil.DaysBetween(lastUpdate, today)
	hasCurrentYear := len(snap.Years[dateutil.YearKey(today)]) > 0

	e.logger.Debug("Refresh staleness check",
		zap.Int("days_since_update", interval),
		zap.Int("stale_after_days", staleAfterDays),
		zap.Bool("has_current_year", hasCurrentYear))

	if interval <= staleAfterDays && staleAfterDays != 0 && hasCurrentYear {
		e.logger.Debug("Calendar data is fresh, skipping refresh")
		return
	}

	e.logger.Info("Refreshing holiday calendar",
		zap.String("api_url", e.apiURL))

	next := snap.Clone()
	next.UpdateTime = dateutil.FormatDate(today)

	var fullList []*DayRecord
	for i := 0; i < fetchMonths; i++ {
		year, month := addMonths(today.Year(), int(today.Month()), i)
		if err := e.fetchMonth(year, month, next, &fullList); err != nil {
			e.logger.Error("Failed to fetch month",
				zap.Int("year", year),
				zap.Int("month", month),
				zap.Error(err))
		}
		if i < fetchMonths-1 {
			time.Sleep(e.fetchDelay)
		}
	}

	// A wholly failed refresh leaves the previous snapshot serving
	// stale or weekday-inferred answers.
	if len(fullList) == 0 {
		e.logger.Warn("Refresh produced no data, keeping previous snapshot")
		return
	}

	if e.storage != nil {
		if err := e.storage.WriteSnapshot(next); err != nil {
			e.logger.Error("Failed to write JSON snapshot", zap.Error(err))
		}
		e.storage.SaveFull(fullList, next.UpdateTime)
	}

	e.mu.Lock()
	e.snap = next
	e.mu.Unlock()

	e.logger.Info("Holiday calendar refreshed",
		zap.Int("fetched_days", len(fullList)),
		zap.String("update_time", next.UpdateTime))
}

func addMonths(year, month, offset int) (int, int) {
	month += offset
	for month > 12 {
		month -= 12
		year++
	}
	return year, month
}

// fetchMonth requests one month of day-status data and merges it into
// the pending snapshot. Days classified rest (1), statutory (2), or a
// workday falling on a calendar weekend (a shifted workday) enter the
// compact table; ordinary workdays stay absent and are inferred from
// the weekday at query time. Every fetched day gains festival info and
// joins the full list written to the database backup.
func (e *Engine) fetchMonth(year, month int, next *Snapshot, fullList *[]*DayRecord) error {
	yearMonth := fmt.Sprintf("%d%02d", year, month)
	url := fmt.Sprintf("%s?d=%s&info=1", e.apiURL, yearMonth)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var payload map[string]map[string]*DayRecord
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	monthData, ok := payload[yearMonth]
	if !ok {
		return nil
	}

	yearKey := strconv.Itoa(year)
	for dayKey, rec := range monthData {
		dayNum, err := strconv.Atoi(dayKey)
		if err != nil || rec == nil {
			e.logger.Debug("Skipping unparseable day entry",
				zap.String("day_key", dayKey))
			continue
		}
		if rec.Day == "" {
			rec.Day = fmt.Sprintf("%d%02d%02d", year, month, dayNum)
		}
		date, err := dateutil.ParseDayKey(rec.Day)
		if err != nil {
			e.logger.Debug("Skipping day entry with invalid key",
				zap.String("day", rec.Day))
			continue
		}

		e.attachFestivals(rec, date)

		t := int(rec.Type)
		w := rec.weekNumber()
		if t == StatusRestDay || t == StatusStatutory ||
			(t == StatusWorkday && (w == 6 || w == 7)) {
			next.Put(yearKey, dateutil.MonthDayKey(date), rec)
		}

		*fullList = append(*fullList, rec)
	}
	return nil
}

// attachFestivals recomputes a record's festival lists at fetch time
// so they reflect the current catalogs and anniversary rules.
func (e *Engine) attachFestivals(rec *DayRecord, date time.Time) {
	info := e.catalog.Info(date, e.matchAnniversaryNames(date))
	rec.SolarFestival = info.Solar
	rec.LunarFestival = info.Lunar
	rec.Festival = info.Combined
}
