package core

import (
	"regexp"
	"strconv"
	"strings"

	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

var timeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// IsTimeOfDay reports whether s is a valid HH:MM value.
func IsTimeOfDay(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// parseMinutes converts HH:MM to minutes since midnight.
func parseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !IsTimeOfDay(s) {
		return 0, false
	}
	hh, mm, _ := strings.Cut(s, ":")
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	return h*60 + m, true
}

// ParseBreakMinutes reads a break entered as whole minutes. Anything else counts as no break.
func ParseBreakMinutes(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// IsBreakMinutes reports whether s is empty or a whole, non-negative number of minutes.
func IsBreakMinutes(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0
}

// sameTimeOfDay compares two HH:MM values by the minute they denote, so "9:00" and
// "09:00" are equal. Malformed values only equal themselves.
func sameTimeOfDay(a, b string) bool {
	x, okA := parseMinutes(a)
	y, okB := parseMinutes(b)
	if !okA || !okB {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return x == y
}

// ComputeWorkedHours returns the hours worked between start and end less the break,
// rounded to 2 decimal places.
//
// An end at or before the start is a shift that crosses midnight, so equal times are
// a full 24 hour shift. Missing or malformed times yield 0 and a break longer than the
// shift clamps to 0.
func ComputeWorkedHours(start, end string, breakMinutes int) float64 {
	s, ok := parseMinutes(start)
	if !ok {
		return 0
	}
	e, ok := parseMinutes(end)
	if !ok {
		return 0
	}
	if e <= s {
		e += minutesPerDay
	}

	worked := e - s - breakMinutes
	if worked < 0 {
		worked = 0
	}
	return decimal.NewFromInt(int64(worked)).
		Div(decimal.NewFromInt(60)).
		Round(2).
		InexactFloat64()
}

// DayHours computes the worked hours of a single day record.
func DayHours(d model.DayRecord) float64 {
	return ComputeWorkedHours(d.Start, d.End, ParseBreakMinutes(d.Break))
}

// RecomputeTotals overwrites every day total with the value derived from its times.
// Totals sent by clients are never trusted.
func RecomputeTotals(ts *model.Timesheet) {
	for i := range ts.Days {
		ts.Days[i].Total = DayHours(ts.Days[i])
	}
}

// roundHours rounds an accumulated hour sum for presentation.
func roundHours(h float64) float64 {
	return decimal.NewFromFloat(h).Round(2).InexactFloat64()
}
