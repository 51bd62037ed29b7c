package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Location is the zone used for calendar arithmetic and display. Scraped
// timestamps without an offset are interpreted here as well.
var Location = loadLocation()

// timeNow is swapped in tests
var timeNow = time.Now

func loadLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Layouts accepted as absolute timestamps. Date-only ISO strings are UTC,
// zone-less date-times are local to Location.
var absoluteLayouts = []struct {
	layout string
	utc    bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02 15:04:05.999999999Z07:00", false},
	{"2006-01-02 15:04:05.999999999Z07", false},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", true},
	{"2006/01/02 15:04:05", false},
	{"2006/01/02 15:04", false},
	{"2006/01/02", false},
}

// parseAbsolute parses s as an absolute point in time
func parseAbsolute(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range absoluteLayouts {
		loc := Location
		if l.utc {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	jpDatePattern = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`)
	jpYearPattern = regexp.MustCompile(`^(\d{4})年`)
)

// ParseReleaseDate accepts ISO-like dates and the "2025年10月25日" form
func ParseReleaseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, ok := parseAbsolute(raw); ok {
		return t, true
	}
	m := jpDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return time.Date(y, time.Month(mon), day, 0, 0, 0, 0, Location), true
}

// ReleaseDateMillis returns the release date as unix milliseconds, 0 when unparseable
func ReleaseDateMillis(raw string) int64 {
	t, ok := ParseReleaseDate(raw)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// ReleaseYear extracts the release year. The "YYYY年" prefix is enough for
// the Japanese form.
func ReleaseYear(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if t, ok := parseAbsolute(raw); ok {
		return t.In(Location).Year(), true
	}
	m := jpYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// FormatReleaseDate renders YYYY/MM/DD or "—"
func FormatReleaseDate(raw string) string {
	t, ok := ParseReleaseDate(raw)
	if !ok {
		return "—"
	}
	return t.In(Location).Format("2006/01/02")
}
