package util

import (
	"time"
)

// DateLayout is the wire format for calendar dates throughout the app.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date. Returns (t, true) if it worked.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange enumerates every calendar day from start to end inclusive,
// as YYYY-MM-DD strings. Reversed bounds are swapped rather than rejected.
func DateRange(start, end time.Time) []string {
	if start.After(end) {
		start, end = end, start
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates
}

// IsBusinessDay reports whether the day is Monday through Friday.
// Exchange holidays are not excluded.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDaysBack returns the n business days strictly before the given day,
// oldest first, as YYYY-MM-DD strings.
func BusinessDaysBack(from time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	dates := make([]string, 0, n)
	for d := from.AddDate(0, 0, -1); len(dates) < n; d = d.AddDate(0, 0, -1) {
		if IsBusinessDay(d) {
			dates = append(dates, FormatDate(d))
		}
	}
	// collected newest first; flip to oldest first
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}
