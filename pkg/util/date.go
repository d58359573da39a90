package util

import (
    "strconv"
    "time"
)

// DayLayout is the wire format for daily bar dates.
const DayLayout = "2006-01-02"

// ParseTime tries the daily layout, RFC3339, RFC3339Nano, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(DayLayout, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// SameMonth reports whether two dates fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
    y1, m1, _ := a.Date()
    y2, m2, _ := b.Date()
    return y1 == y2 && m1 == m2
}
