package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeDay(t *testing.T) {
    got, ok := ParseTime("2024-10-10")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestSameMonth(t *testing.T) {
    a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
    b := time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)
    c := time.Date(2023, 3, 29, 0, 0, 0, 0, time.UTC)
    d := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
    if !SameMonth(a, b) {
        t.Fatalf("expected same month")
    }
    if SameMonth(a, c) || SameMonth(a, d) {
        t.Fatalf("expected different month")
    }
}
