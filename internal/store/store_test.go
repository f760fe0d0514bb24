package store

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/jdmeng/holidaycal/internal/holiday"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data.db"), filepath.Join(dir, "holiday.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []*holiday.DayRecord {
	return []*holiday.DayRecord{
		{
			Day:           "20241001",
			Status:        1,
			Type:          2,
			TypeName:      "国庆节",
			NongliCN:      "八月廿九",
			Animal:        "龙",
			WeekCN:        "星期二",
			SolarFestival: []string{"国庆节"},
			Festival:      []string{"国庆节"},
		},
		{
			Day:  "20240928",
			Type: 0,
		},
	}
}

func TestSaveFullAndLoad(t *testing.T) {
	s := newTestStore(t)
	s.SaveFull(sampleRecords(), "2024-09-25")

	snap := s.Load()
	if snap.UpdateTime != "2024-09-25" {
		t.Errorf("UpdateTime = %q, want 2024-09-25", snap.UpdateTime)
	}

	rec, ok := snap.Lookup("2024", "1001")
	if !ok {
		t.Fatal("record 2024/1001 missing after reload")
	}
	if rec.TypeName != "国庆节" || int(rec.Type) != 2 {
		t.Errorf("record = %+v", rec)
	}
	if !reflect.DeepEqual(rec.Festival, []string{"国庆节"}) {
		t.Errorf("Festival = %v, want [国庆节]", rec.Festival)
	}

	if _, ok := snap.Lookup("2024", "0928"); !ok {
		t.Error("record 2024/0928 missing after reload")
	}
}

func TestSaveFull_ReplacesByKey(t *testing.T) {
	s := newTestStore(t)
	s.SaveFull(sampleRecords(), "2024-09-25")
	s.SaveFull([]*holiday.DayRecord{
		{Day: "20241001", Type: 2, TypeName: "国庆节假期"},
	}, "2024-09-26")

	rec, ok := s.DayDetail("20241001")
	if !ok {
		t.Fatal("record missing after second save")
	}
	if rec.TypeName != "国庆节假期" {
		t.Errorf("TypeName = %q, want the replacement value", rec.TypeName)
	}
}

func TestDayDetail(t *testing.T) {
	s := newTestStore(t)
	s.SaveFull(sampleRecords(), "2024-09-25")

	rec, ok := s.DayDetail("20241001")
	if !ok {
		t.Fatal("DayDetail miss for stored key")
	}
	if rec.Animal != "龙" {
		t.Errorf("Animal = %q, want 龙", rec.Animal)
	}

	if _, ok := s.DayDetail("19990101"); ok {
		t.Error("DayDetail hit for absent key")
	}
}

func TestLoad_FallsBackToJSONSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data.db")
	jsonPath := filepath.Join(dir, "holiday.json")

	snap := holiday.NewSnapshot()
	snap.UpdateTime = "2024-09-25"
	snap.Put("2024", "1001", &holiday.DayRecord{Day: "20241001", Type: 2, TypeName: "国庆节"})

	s, err := Open(dbPath, jsonPath, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.WriteSnapshot(snap); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	// Database has no rows, so the JSON file wins.
	loaded := s.Load()
	rec, ok := loaded.Lookup("2024", "1001")
	if !ok {
		t.Fatal("JSON fallback record missing")
	}
	if rec.TypeName != "国庆节" {
		t.Errorf("TypeName = %q", rec.TypeName)
	}
}

func TestLoad_EmptyEverywhere(t *testing.T) {
	s := newTestStore(t)
	if !s.Load().Empty() {
		t.Error("expected an empty snapshot with no data anywhere")
	}
}

func TestWriteSnapshot_PreservesNonASCII(t *testing.T) {
	s := newTestStore(t)
	snap := holiday.NewSnapshot()
	snap.UpdateTime = "2024-09-25"
	snap.Put("2024", "1001", &holiday.DayRecord{Day: "20241001", Type: 2, TypeName: "国庆节"})

	if err := s.WriteSnapshot(snap); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}
	data, err := os.ReadFile(s.jsonPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if want := "国庆节"; !bytes.Contains(data, []byte(want)) {
		t.Errorf("snapshot file does not contain %q literally", want)
	}
}

// Databases created before the festival columns existed must gain them
// on open without losing rows.
func TestMigration_AddsFestivalColumns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	legacySchema := `
	CREATE TABLE meta_info (key TEXT PRIMARY KEY, value TEXT);
	CREATE TABLE holiday_detail (
		day TEXT PRIMARY KEY, status INTEGER, type INTEGER, typename TEXT,
		unixtime INTEGER, yearname TEXT, nonglicn TEXT, nongli TEXT,
		shengxiao TEXT, jieqi TEXT, weekcn TEXT, week1 TEXT, week2 TEXT,
		week3 TEXT, daynum INTEGER, weeknum INTEGER, avoid TEXT, suit TEXT
	);
	INSERT INTO meta_info VALUES ('update_time', '2023-01-01');
	INSERT INTO holiday_detail (day, status, type, typename) VALUES ('20230101', 1, 2, '元旦');
	`
	if _, err := db.Exec(legacySchema); err != nil {
		t.Fatalf("legacy schema setup error = %v", err)
	}
	db.Close()

	s, err := Open(dbPath, filepath.Join(dir, "holiday.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open() on legacy database error = %v", err)
	}
	defer s.Close()

	rec, ok := s.DayDetail("20230101")
	if !ok {
		t.Fatal("legacy row lost during migration")
	}
	if rec.TypeName != "元旦" {
		t.Errorf("TypeName = %q, want 元旦", rec.TypeName)
	}
	if rec.Festival != nil {
		t.Errorf("Festival = %v, want nil for migrated row", rec.Festival)
	}

	// New writes exercise the added columns.
	s.SaveFull(sampleRecords(), "2024-09-25")
	rec, ok = s.DayDetail("20241001")
	if !ok || len(rec.Festival) == 0 {
		t.Errorf("festival columns unusable after migration: %+v", rec)
	}
}
