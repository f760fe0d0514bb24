package festival

import (
	"reflect"
	"testing"
	"time"

	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, dateutil.CST)
}

func TestWeekFestivalsFor(t *testing.T) {
	tests := []struct {
		name string
		year int
		mmdd string
		want []string
	}{
		{name: "mother's day 2024", year: 2024, mmdd: "0512", want: []string{"母亲节"}},
		{name: "father's day 2024", year: 2024, mmdd: "0616", want: []string{"父亲节"}},
		{name: "thanksgiving 2024", year: 2024, mmdd: "1128", want: []string{"感恩节"}},
		{name: "mother's day 2025", year: 2025, mmdd: "0511", want: []string{"母亲节"}},
		{name: "thanksgiving 2025", year: 2025, mmdd: "1127", want: []string{"感恩节"}},
	}

	c := NewCatalog()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := c.weekFestivalsFor(tt.year)
			if got := resolved[tt.mmdd]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("weekFestivalsFor(%d)[%s] = %v, want %v",
					tt.year, tt.mmdd, got, tt.want)
			}
		})
	}
}

func TestWeekFestivalsFor_CachesPerYear(t *testing.T) {
	c := NewCatalog()
	first := c.weekFestivalsFor(2024)
	second := c.weekFestivalsFor(2024)
	if reflect.ValueOf(first).Pointer() != reflect.ValueOf(second).Pointer() {
		t.Error("expected the resolved table to be computed once per year")
	}
}

func TestInfo_SolarFestival(t *testing.T) {
	c := NewCatalog()
	info := c.Info(date(2024, time.October, 1), nil)
	if !reflect.DeepEqual(info.Solar, []string{"国庆节"}) {
		t.Errorf("Solar = %v, want [国庆节]", info.Solar)
	}
	if !reflect.DeepEqual(info.Combined, []string{"国庆节"}) {
		t.Errorf("Combined = %v, want [国庆节]", info.Combined)
	}
}

func TestInfo_LunarFestival(t *testing.T) {
	c := NewCatalog()
	// 2024-09-17 is lunisolar 2024-08-15, Mid-Autumn.
	info := c.Info(date(2024, time.September, 17), nil)
	if !reflect.DeepEqual(info.Lunar, []string{"中秋节"}) {
		t.Errorf("Lunar = %v, want [中秋节]", info.Lunar)
	}
}

func TestInfo_CombinedDeduplicates(t *testing.T) {
	c := NewCatalog()
	info := c.Info(date(2024, time.October, 1), []string{"国庆节", "入职纪念"})
	want := []string{"国庆节", "入职纪念"}
	if !reflect.DeepEqual(info.Combined, want) {
		t.Errorf("Combined = %v, want %v", info.Combined, want)
	}
	if !reflect.DeepEqual(info.Anniversaries, []string{"国庆节", "入职纪念"}) {
		t.Errorf("Anniversaries = %v", info.Anniversaries)
	}
}

func TestInfo_PlainDayHasNoFestivals(t *testing.T) {
	c := NewCatalog()
	info := c.Info(date(2024, time.March, 20), nil)
	if len(info.Combined) != 0 {
		t.Errorf("Combined = %v, want empty", info.Combined)
	}
}
