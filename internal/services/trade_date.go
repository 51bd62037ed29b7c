package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeUnit is the closed set of units accepted in "N<unit>前"
type relativeUnit int

const (
	unitUnknown relativeUnit = iota
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
)

func parseRelativeUnit(s string) relativeUnit {
	switch s {
	case "分":
		return unitMinute
	case "時間":
		return unitHour
	case "日":
		return unitDay
	case "週間":
		return unitWeek
	case "ヶ月", "か月", "月":
		return unitMonth
	default:
		return unitUnknown
	}
}

var relativePattern = regexp.MustCompile(`^(\d+)\s*(\S+?)\s*前$`)

// maxRelativeYears bounds calendar offsets so AddDate stays in range
const maxRelativeYears = 10000

// maxCount is the largest count of u that can be subtracted without
// overflowing a time.Duration or the calendar arithmetic
func (u relativeUnit) maxCount() int64 {
	switch u {
	case unitMinute:
		return math.MaxInt64 / int64(time.Minute)
	case unitHour:
		return math.MaxInt64 / int64(time.Hour)
	case unitDay:
		return maxRelativeYears * 366
	case unitWeek:
		return maxRelativeYears * 53
	case unitMonth:
		return maxRelativeYears * 12
	default:
		return 0
	}
}

// subtract moves t back by n units. Months use calendar arithmetic with the
// same day-overflow normalisation as AddDate: 2025-03-31 minus one month is
// 2025-03-03 (there is no February 31st). Counts too large to represent are
// rejected.
func (u relativeUnit) subtract(t time.Time, n int) (time.Time, bool) {
	if int64(n) > u.maxCount() {
		return time.Time{}, false
	}
	t = t.In(Location)
	switch u {
	case unitMinute:
		return t.Add(-time.Duration(n) * time.Minute), true
	case unitHour:
		return t.Add(-time.Duration(n) * time.Hour), true
	case unitDay:
		return t.AddDate(0, 0, -n), true
	case unitWeek:
		return t.AddDate(0, 0, -7*n), true
	case unitMonth:
		return t.AddDate(0, -n, 0), true
	default:
		return time.Time{}, false
	}
}

// ResolveTradeDate turns a scraped trade date into an absolute time.
// Relative values ("3日前") are anchored at scrapedAt, or at the current time
// when scrapedAt is missing or invalid.
func ResolveTradeDate(tradeDate, scrapedAt string) (time.Time, bool) {
	return resolveTradeDateAt(tradeDate, scrapedAt, timeNow())
}

func resolveTradeDateAt(tradeDate, scrapedAt string, now time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(tradeDate)
	if trimmed == "" {
		return time.Time{}, false
	}
	if t, ok := parseAbsolute(trimmed); ok {
		return t, true
	}

	m := relativePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}

	anchor, ok := parseAbsolute(scrapedAt)
	if !ok {
		anchor = now
	}
	return parseRelativeUnit(m[2]).subtract(anchor, n)
}

// FormatTradeDate renders the resolved trade date as YYYY/MM/DD, or "-".
// The time of day is never shown: absolute values are scrape times.
func FormatTradeDate(tradeDate, scrapedAt string) string {
	t, ok := ResolveTradeDate(tradeDate, scrapedAt)
	if !ok {
		return "-"
	}
	return t.In(Location).Format("2006/01/02")
}
