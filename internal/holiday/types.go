package holiday

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Day status codes returned by the remote calendar.
const (
	StatusWorkday   = 0
	StatusRestDay   = 1
	StatusStatutory = 2
)

// StatusText maps a status code to its display text.
var StatusText = map[int]string{
	StatusWorkday:   "工作日",
	StatusRestDay:   "休息日",
	StatusStatutory: "节假日",
}

// FlexInt decodes a JSON value that may arrive as a number, a quoted
// number, or something unparseable (decoded as zero). The remote API
// is inconsistent about numeric fields across years.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	s = trimQuotes(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// DayRecord is the unit of calendar data for one calendar date,
// normalized from the remote payload, the JSON snapshot, or the
// database.
type DayRecord struct {
	Day      string  `json:"day,omitempty"`
	Status   FlexInt `json:"status,omitempty"`
	Type     FlexInt `json:"type"`
	TypeName string  `json:"typename,omitempty"`
	UnixTime int64   `json:"unixtime,omitempty"`
	YearName string  `json:"yearname,omitempty"`
	NongliCN string  `json:"nonglicn,omitempty"`
	Nongli   string  `json:"nongli,omitempty"`
	Animal   string  `json:"shengxiao,omitempty"`
	JieQi    string  `json:"jieqi,omitempty"`
	WeekCN   string  `json:"weekcn,omitempty"`
	Week     FlexInt `json:"week,omitempty"`
	Week1    string  `json:"week1,omitempty"`
	Week2    string  `json:"week2,omitempty"`
	Week3    string  `json:"week3,omitempty"`
	DayNum   FlexInt `json:"daynum,omitempty"`
	WeekNum  FlexInt `json:"weeknum,omitempty"`
	Avoid    string  `json:"avoid,omitempty"`
	Suit     string  `json:"suit,omitempty"`

	SolarFestival []string `json:"solar_festival,omitempty"`
	LunarFestival []string `json:"lunar_festival,omitempty"`
	Festival      []string `json:"festival,omitempty"`
}

// UnmarshalJSON tolerates the historical snapshot format where a day's
// value is a bare status integer instead of a full object. Bare values
// are normalized into a record carrying only the type code.
func (r *DayRecord) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var t FlexInt
		if err := t.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*r = DayRecord{Type: t}
		return nil
	}

	type plain DayRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = DayRecord(p)
	return nil
}

// weekNumber derives the numeric weekday indicator the remote attaches
// to a day: the week field if present, else week2 parsed as a number,
// else zero.
func (r *DayRecord) weekNumber() int {
	if r.Week != 0 {
		return int(r.Week)
	}
	if n, err := strconv.Atoi(r.Week2); err == nil {
		return n
	}
	return 0
}

// Snapshot is the in-memory calendar: year string to MMDD to record,
// plus the date of the last refresh. It is replaced wholesale on
// refresh and never partially mutated by readers.
type Snapshot struct {
	UpdateTime string
	Years      map[string]map[string]*DayRecord
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Years: make(map[string]map[string]*DayRecord)}
}

// Empty reports whether the snapshot holds no day records.
func (s *Snapshot) Empty() bool {
	if s == nil {
		return true
	}
	for _, days := range s.Years {
		if len(days) > 0 {
			return false
		}
	}
	return true
}

// Lookup returns the record for (year, MMDD) if present.
func (s *Snapshot) Lookup(year, mmdd string) (*DayRecord, bool) {
	if s == nil {
		return nil, false
	}
	days, ok := s.Years[year]
	if !ok {
		return nil, false
	}
	rec, ok := days[mmdd]
	return rec, ok
}

// Put stores a record under (year, MMDD), creating the year bucket on
// first use.
func (s *Snapshot) Put(year, mmdd string, rec *DayRecord) {
	days, ok := s.Years[year]
	if !ok {
		days = make(map[string]*DayRecord)
		s.Years[year] = days
	}
	days[mmdd] = rec
}

// Clone copies the snapshot's year/day structure. Records themselves
// are shared; they are immutable once written for a refresh cycle.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	if s == nil {
		return out
	}
	out.UpdateTime = s.UpdateTime
	for year, days := range s.Years {
		bucket := make(map[string]*DayRecord, len(days))
		for mmdd, rec := range days {
			bucket[mmdd] = rec
		}
		out.Years[year] = bucket
	}
	return out
}

// MarshalJSON renders the snapshot in the interchange format: top-level
// 4-digit year keys plus a string "update_time".
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(s.Years)+1)
	for year, days := range s.Years {
		obj[year] = days
	}
	if s.UpdateTime != "" {
		obj["update_time"] = s.UpdateTime
	}
	return json.Marshal(obj)
}

// UnmarshalJSON parses the interchange format back into the snapshot.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Years = make(map[string]map[string]*DayRecord)
	for key, val := range raw {
		if key == "update_time" {
			if err := json.Unmarshal(val, &s.UpdateTime); err != nil {
				return err
			}
			continue
		}
		if len(key) != 4 {
			continue
		}
		var days map[string]*DayRecord
		if err := json.Unmarshal(val, &days); err != nil {
			continue
		}
		s.Years[key] = days
	}
	return nil
}

// Candidate source priorities; lower wins ties on day offset.
const (
	PriorityAnniversary = 0
	PriorityStatutory   = 1
	PriorityObservance  = 2
)

// Candidate is a ranked result produced during nearest-event search.
type Candidate struct {
	Date     time.Time
	Name     string
	DaysDiff int
	FullInfo *DayRecord
	Priority int
}

// Anniversary is one resolved user anniversary occurrence.
type Anniversary struct {
	Key      string
	Name     string
	Date     time.Time
	DaysDiff int
	IsLunar  bool
}
