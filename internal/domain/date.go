package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date ("2006-01-02") or an RFC 3339
// timestamp and returns midnight of that calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return StartOfDay(t.In(loc)), true
}

// DateOr parses s, falling back to the calendar day of now.
func DateOr(s string, now time.Time) time.Time {
	if t, ok := ParseDate(s, now.Location()); ok {
		return t
	}
	return StartOfDay(now)
}

// FormatDate renders the calendar day of t as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatTimestamp renders t as an RFC 3339 UTC timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of calendar days from a to b.
// Daylight-saving shifts do not affect the result.
func DaysBetween(a, b time.Time) int {
	return dayNumber(b) - dayNumber(a)
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
