// Package store persists the remote-sourced day-status calendar: a
// SQLite database holding one row per fetched day (the authoritative
// backup) and a JSON snapshot file (the portable interchange format).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/internal/holiday"
)

const createMetaTable = `
CREATE TABLE IF NOT EXISTS meta_info (
	key TEXT PRIMARY KEY,
	value TEXT
)`

const createDetailTable = `
CREATE TABLE IF NOT EXISTS holiday_detail (
	day TEXT PRIMARY KEY,
	status INTEGER,
	type INTEGER,
	typename TEXT,
	unixtime INTEGER,
	yearname TEXT,
	nonglicn TEXT,
	nongli TEXT,
	shengxiao TEXT,
	jieqi TEXT,
	weekcn TEXT,
	week1 TEXT,
	week2 TEXT,
	week3 TEXT,
	daynum INTEGER,
	weeknum INTEGER,
	avoid TEXT,
	suit TEXT,
	solar_festival TEXT,
	lunar_festival TEXT,
	festival TEXT
)`

// festivalColumns were added after the original layout shipped; Open
// adds them to databases created before they existed.
var festivalColumns = []string{"solar_festival", "lunar_festival", "festival"}

// Store wraps the SQLite backup database and the JSON snapshot file.
// Storage errors never propagate as fatal: they are logged and degrade
// to empty results so the engine stays queryable.
type Store struct {
	db       *sql.DB
	jsonPath string
	logger   *zap.Logger
}

// Open opens (creating if needed) the database at dbPath and remembers
// jsonPath for snapshot reads and writes.
func Open(dbPath, jsonPath string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, jsonPath: jsonPath, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(createMetaTable); err != nil {
		return err
	}
	if _, err := s.db.Exec(createDetailTable); err != nil {
		return err
	}

	// Older databases predate the festival columns; add any that are
	// missing without touching existing rows.
	existing := make(map[string]bool)
	rows, err := s.db.Query(`PRAGMA table_info(holiday_detail)`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, col := range festivalColumns {
		if existing[col] {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE holiday_detail ADD COLUMN %s TEXT`, col)); err != nil {
			return err
		}
		s.logger.Info("Added missing column to holiday_detail", zap.String("column", col))
	}
	return nil
}

// SaveFull upserts every record in the full list by day key and updates
// the update_time metadata row, in a single transaction. Rows for days
// outside the list are kept, so the backup accumulates history across
// refreshes.
func (s *Store) SaveFull(records []*holiday.DayRecord, updateTime string) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error("Failed to begin save transaction", zap.Error(err))
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`REPLACE INTO meta_info (key, value) VALUES (?, ?)`,
		"update_time", updateTime,
	); err != nil {
		s.logger.Error("Failed to save update_time", zap.Error(err))
		return
	}

	stmt, err := tx.Prepare(`REPLACE INTO holiday_detail (
		day, status, type, typename, unixtime, yearname,
		nonglicn, nongli, shengxiao, jieqi, weekcn,
		week1, week2, week3, daynum, weeknum, avoid, suit,
		solar_festival, lunar_festival, festival
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		s.logger.Error("Failed to prepare day upsert", zap.Error(err))
		return
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(
			rec.Day, int(rec.Status), int(rec.Type), rec.TypeName,
			rec.UnixTime, rec.YearName, rec.NongliCN, rec.Nongli,
			rec.Animal, rec.JieQi, rec.WeekCN,
			rec.Week1, rec.Week2, rec.Week3,
			int(rec.DayNum), int(rec.WeekNum), rec.Avoid, rec.Suit,
			marshalList(rec.SolarFestival),
			marshalList(rec.LunarFestival),
			marshalList(rec.Festival),
		); err != nil {
			s.logger.Error("Failed to upsert day row",
				zap.String("day", rec.Day),
				zap.Error(err))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit save transaction", zap.Error(err))
		return
	}

	s.logger.Info("Calendar backup saved",
		zap.Int("days", len(records)),
		zap.String("update_time", updateTime))
}

const selectColumns = `day, status, type, typename, unixtime, yearname,
	nonglicn, nongli, shengxiao, jieqi, weekcn,
	week1, week2, week3, daynum, weeknum, avoid, suit,
	solar_festival, lunar_festival, festival`

// Load reconstructs the in-memory snapshot. The database is the
// authoritative source; when it holds no rows the JSON snapshot file is
// tried; when neither exists the result is empty.
func (s *Store) Load() *holiday.Snapshot {
	snap := holiday.NewSnapshot()

	var updateTime string
	err := s.db.QueryRow(
		`SELECT value FROM meta_info WHERE key = 'update_time'`,
	).Scan(&updateTime)
	if err == nil {
		snap.UpdateTime = updateTime
	} else if err != sql.ErrNoRows {
		s.logger.Error("Failed to read update_time", zap.Error(err))
	}

	rows, err := s.db.Query(`SELECT ` + selectColumns + ` FROM holiday_detail`)
	if err != nil {
		s.logger.Error("Failed to query holiday_detail", zap.Error(err))
	} else {
		defer rows.Close()
		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				s.logger.Error("Failed to scan day row", zap.Error(err))
				continue
			}
			if len(rec.Day) != 8 {
				continue
			}
			snap.Put(rec.Day[:4], rec.Day[4:], rec)
		}
		if err := rows.Err(); err != nil {
			s.logger.Error("Failed to iterate day rows", zap.Error(err))
		}
	}

	if !snap.Empty() {
		s.logger.Debug("Calendar loaded from database",
			zap.Int("years", len(snap.Years)))
		return snap
	}

	if fromFile, err := s.ReadSnapshot(); err == nil && !fromFile.Empty() {
		s.logger.Info("Calendar loaded from JSON snapshot",
			zap.String("file", s.jsonPath))
		return fromFile
	}

	return snap
}

// DayDetail looks up a single row by its exact 8-digit day key.
func (s *Store) DayDetail(dayKey string) (*holiday.DayRecord, bool) {
	row := s.db.QueryRow(
		`SELECT `+selectColumns+` FROM holiday_detail WHERE day = ?`, dayKey)
	rec, err := scanRecord(row)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Error("Failed to load day detail",
				zap.String("day", dayKey),
				zap.Error(err))
		}
		return nil, false
	}
	return rec, true
}

// WriteSnapshot writes the snapshot to the JSON file with stable key
// ordering and non-ASCII characters preserved literally.
func (s *Store) WriteSnapshot(snap *holiday.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.jsonPath), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	f, err := os.OpenFile(s.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses the JSON snapshot file.
func (s *Store) ReadSnapshot() (*holiday.Snapshot, error) {
	data, err := os.ReadFile(s.jsonPath)
	if err != nil {
		return nil, err
	}
	snap := holiday.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*holiday.DayRecord, error) {
	var rec holiday.DayRecord
	var status, typ, daynum, weeknum sql.NullInt64
	var typename, yearname, nonglicn, nongli, shengxiao, jieqi sql.NullString
	var weekcn, week1, week2, week3, avoid, suit sql.NullString
	var unixtime sql.NullInt64
	var solarList, lunarList, allList sql.NullString

	err := row.Scan(
		&rec.Day, &status, &typ, &typename, &unixtime, &yearname,
		&nonglicn, &nongli, &shengxiao, &jieqi, &weekcn,
		&week1, &week2, &week3, &daynum, &weeknum, &avoid, &suit,
		&solarList, &lunarList, &allList,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = holiday.FlexInt(status.Int64)
	rec.Type = holiday.FlexInt(typ.Int64)
	rec.TypeName = typename.String
	rec.UnixTime = unixtime.Int64
	rec.YearName = yearname.String
	rec.NongliCN = nonglicn.String
	rec.Nongli = nongli.String
	rec.Animal = shengxiao.String
	rec.JieQi = jieqi.String
	rec.WeekCN = weekcn.String
	rec.Week1 = week1.String
	rec.Week2 = week2.String
	rec.Week3 = week3.String
	rec.DayNum = holiday.FlexInt(daynum.Int64)
	rec.WeekNum = holiday.FlexInt(weeknum.Int64)
	rec.Avoid = avoid.String
	rec.Suit = suit.String
	rec.SolarFestival = unmarshalList(solarList.String)
	rec.LunarFestival = unmarshalList(lunarList.String)
	rec.Festival = unmarshalList(allList.String)
	return &rec, nil
}

func marshalList(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalList(text string) []string {
	if text == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(text), &names); err != nil {
		return nil
	}
	if len(names) == 0 {
		return nil
	}
	return names
}
