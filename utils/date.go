package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	return t
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", s)
	}
	return t, nil
}

// WeekStart returns the Sunday on or before t as a yyyy-MM-dd date.
func WeekStart(t time.Time) string {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -int(d.Weekday())).Format(DateLayout)
}

// IsWeekStart reports whether s is a yyyy-MM-dd date falling on a Sunday.
func IsWeekStart(s string) bool {
	t, err := ParseDate(s)
	return err == nil && t.Weekday() == time.Sunday
}

// FormatWeek renders a week start for email subjects, e.g. "5 January 2025".
func FormatWeek(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("2 January 2006")
}
