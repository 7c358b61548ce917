package core

import (
	"math"

	"acceptrec.co.uk/timesheets/timesheet/model"
)

// BillableHours applies the minimum-per-shift guarantee to the hours a driver worked
// for one client over a period: the floor is daysWorked shifts at the minimum, not each
// shift floored on its own. This is the figure payroll totals use.
func BillableHours(actualHours float64, daysWorked int, minimumPerShift float64) float64 {
	return math.Max(actualHours, float64(daysWorked)*minimumPerShift)
}

// DayBillableHours floors a single day. It only drives discrepancy warnings on the
// approval page and can disagree with BillableHours for uneven weeks.
func DayBillableHours(dayHours, minimumPerShift float64) float64 {
	return math.Max(dayHours, minimumPerShift)
}

type DayBreakdown struct {
	Day           string  `json:"day"`
	Client        string  `json:"client"`
	ActualHours   float64 `json:"actualHours"`
	BillableHours float64 `json:"billableHours"`
	BelowMinimum  bool    `json:"belowMinimum"`
}

// BreakdownDays lists the worked days of a timesheet with the per-day floor applied.
// Days without a client or without hours are skipped.
func BreakdownDays(ts *model.Timesheet, minimumPerShift float64) []DayBreakdown {
	out := make([]DayBreakdown, 0, len(ts.Days))
	for i, d := range ts.Days {
		hours := DayHours(d)
		if !d.HasClient() || hours <= 0 {
			continue
		}
		out = append(out, DayBreakdown{
			Day:           model.DayNames[i],
			Client:        d.Client,
			ActualHours:   hours,
			BillableHours: DayBillableHours(hours, minimumPerShift),
			BelowMinimum:  hours < minimumPerShift,
		})
	}
	return out
}
