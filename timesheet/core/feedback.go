package core

import (
	"sort"
	"strings"
	"time"

	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/shopspring/decimal"
)

// DriverReview is one client rating of an approved timesheet.
type DriverReview struct {
	TimesheetID   string     `json:"timesheetId"`
	WeekStartDate string     `json:"weekStartDate"`
	Rating        int        `json:"rating"`
	Label         string     `json:"label"`
	Comments      string     `json:"comments,omitempty"`
	ApprovedBy    string     `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
}

type DriverPerformance struct {
	Driver        string         `json:"driver"`
	Reviews       int            `json:"reviews"`
	AverageRating float64        `json:"averageRating"`
	Label         string         `json:"label"`
	Entries       []DriverReview `json:"entries"`
}

// DayFeedback is a driver's private rating or comment about the client of one day.
type DayFeedback struct {
	TimesheetID   string `json:"timesheetId"`
	Driver        string `json:"driver"`
	WeekStartDate string `json:"weekStartDate"`
	Day           string `json:"day"`
	Date          string `json:"date"`
	Rating        *int   `json:"rating,omitempty"`
	Comments      string `json:"comments,omitempty"`
}

type ClientFeedback struct {
	Client        string        `json:"client"`
	Feedback      int           `json:"feedback"`
	Ratings       int           `json:"ratings"`
	AverageRating float64       `json:"averageRating"`
	Entries       []DayFeedback `json:"entries"`
}

// AverageLabel grades an average rating out of 10.
func AverageLabel(avg float64) string {
	switch {
	case avg >= 8:
		return "Excellent"
	case avg >= 6:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// RatingLabel grades a single rating out of 10.
func RatingLabel(rating int) string {
	switch {
	case rating >= 8:
		return "Excellent"
	case rating >= 6:
		return "Good"
	case rating >= 4:
		return "Fair"
	default:
		return "Poor"
	}
}

func average(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(n))).
		Round(1).
		InexactFloat64()
}

// SummarizeDriverPerformance groups client ratings of approved timesheets by driver
// name. Timesheets without a rating are ignored. Drivers are sorted by name and their
// reviews newest week first.
func SummarizeDriverPerformance(timesheets []model.Timesheet) []DriverPerformance {
	byDriver := map[string]*DriverPerformance{}
	sums := map[string]int{}
	for _, ts := range timesheets {
		if ts.ApprovalStatus != model.StatusApproved || ts.ClientRating == nil || ts.DeletedAt.Valid {
			continue
		}
		dp, ok := byDriver[ts.DriverName]
		if !ok {
			dp = &DriverPerformance{Driver: ts.DriverName}
			byDriver[ts.DriverName] = dp
		}
		rating := *ts.ClientRating
		dp.Reviews++
		sums[ts.DriverName] += rating
		dp.Entries = append(dp.Entries, DriverReview{
			TimesheetID:   ts.ID,
			WeekStartDate: ts.WeekStartDate,
			Rating:        rating,
			Label:         RatingLabel(rating),
			Comments:      deref(ts.ClientComments),
			ApprovedBy:    deref(ts.ClientApprovedBy),
			ApprovedAt:    ts.ClientApprovedAt,
		})
	}

	out := make([]DriverPerformance, 0, len(byDriver))
	for name, dp := range byDriver {
		dp.AverageRating = average(sums[name], dp.Reviews)
		dp.Label = AverageLabel(dp.AverageRating)
		sort.SliceStable(dp.Entries, func(i, j int) bool {
			if dp.Entries[i].WeekStartDate != dp.Entries[j].WeekStartDate {
				return dp.Entries[i].WeekStartDate > dp.Entries[j].WeekStartDate
			}
			return dp.Entries[i].TimesheetID < dp.Entries[j].TimesheetID
		})
		out = append(out, *dp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Driver < out[j].Driver })
	return out
}

// SummarizeClientFeedback collects per-day driver feedback by the client entered for
// the day. A day counts when it has a client and either a rating or a comment. The
// average covers only the days that carry a rating.
func SummarizeClientFeedback(timesheets []model.Timesheet) []ClientFeedback {
	byClient := map[string]*ClientFeedback{}
	sums := map[string]int{}
	for _, ts := range timesheets {
		if ts.DeletedAt.Valid {
			continue
		}
		weekStart, weekErr := time.ParseInLocation(time.DateOnly, ts.WeekStartDate, time.UTC)
		for i, d := range ts.Days {
			client := strings.TrimSpace(d.Client)
			comments := strings.TrimSpace(d.DriverComments)
			if client == "" || (d.DriverRating == nil && comments == "") {
				continue
			}
			cf, ok := byClient[client]
			if !ok {
				cf = &ClientFeedback{Client: client}
				byClient[client] = cf
			}
			entry := DayFeedback{
				TimesheetID:   ts.ID,
				Driver:        ts.DriverName,
				WeekStartDate: ts.WeekStartDate,
				Day:           model.DayNames[i],
				Rating:        d.DriverRating,
				Comments:      comments,
			}
			if weekErr == nil {
				entry.Date = weekStart.AddDate(0, 0, i).Format(time.DateOnly)
			}
			cf.Feedback++
			if d.DriverRating != nil {
				cf.Ratings++
				sums[client] += *d.DriverRating
			}
			cf.Entries = append(cf.Entries, entry)
		}
	}

	out := make([]ClientFeedback, 0, len(byClient))
	for name, cf := range byClient {
		cf.AverageRating = average(sums[name], cf.Ratings)
		sort.SliceStable(cf.Entries, func(i, j int) bool {
			if cf.Entries[i].Date != cf.Entries[j].Date {
				return cf.Entries[i].Date > cf.Entries[j].Date
			}
			return cf.Entries[i].Driver < cf.Entries[j].Driver
		})
		out = append(out, *cf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
