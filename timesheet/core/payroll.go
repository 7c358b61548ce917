package core

import (
	"io"
	"sort"
	"strings"
	"time"

	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/sirupsen/logrus"
)

type DriverEntry struct {
	Name             string     `json:"name"`
	TimesheetID      string     `json:"timesheetId"`
	ActualHours      float64    `json:"actualHours"`
	BillableHours    float64    `json:"billableHours"`
	DaysWorked       int        `json:"daysWorked"`
	Rating           *int       `json:"rating,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy       *string    `json:"approvedBy,omitempty"`
	BatchID          *string    `json:"batchId,omitempty"`
	HasModifications bool       `json:"hasModifications"`
}

type ClientGroup struct {
	Client               string        `json:"client"`
	BatchID              *string       `json:"batchId,omitempty"`
	MinimumBillableHours float64       `json:"minimumBillableHours"`
	Matched              bool          `json:"matched"`
	Drivers              []DriverEntry `json:"drivers"`
	TotalActualHours     float64       `json:"totalActualHours"`
	TotalBillableHours   float64       `json:"totalBillableHours"`
	DriverCount          int           `json:"driverCount"`
	TotalShifts          int           `json:"totalShifts"`
}

type WeekGroup struct {
	WeekStartDate      string        `json:"weekStartDate"`
	Clients            []ClientGroup `json:"clients"`
	TotalActualHours   float64       `json:"totalActualHours"`
	TotalBillableHours float64       `json:"totalBillableHours"`
	DriverCount        int           `json:"driverCount"`
}

// ClientHours is the work one timesheet records against one raw client name.
type ClientHours struct {
	Client      string
	ActualHours float64
	DaysWorked  int
}

// CollectClientHours folds the seven days of a timesheet into hours per client, keyed
// by the client name exactly as entered. Clients keep the order they first appear in,
// starting from Sunday. Days without a client or without hours are ignored.
func CollectClientHours(ts *model.Timesheet) []ClientHours {
	var out []ClientHours
	index := make(map[string]int)
	for _, d := range ts.Days {
		if !d.HasClient() {
			continue
		}
		hours := DayHours(d)
		if hours <= 0 {
			continue
		}
		i, ok := index[d.Client]
		if !ok {
			i = len(out)
			index[d.Client] = i
			out = append(out, ClientHours{Client: d.Client})
		}
		out[i].ActualHours += hours
		out[i].DaysWorked++
	}
	return out
}

// Aggregator folds approved timesheets into the week, client and driver payroll tree.
type Aggregator struct {
	log logrus.FieldLogger
}

// NewAggregator creates an aggregator that reports unmatched client names to log.
// A nil log discards them.
func NewAggregator(log logrus.FieldLogger) *Aggregator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Aggregator{log: log}
}

// AggregatePayroll aggregates without logging.
func AggregatePayroll(timesheets []model.Timesheet, clients []model.Client) []WeekGroup {
	return NewAggregator(nil).Aggregate(timesheets, clients)
}

type clientState struct {
	group   ClientGroup
	drivers map[string]struct{}
}

type weekState struct {
	group   WeekGroup
	clients map[string]*clientState
	order   []*clientState
	drivers map[string]struct{}
}

// Aggregate builds the payroll from already fetched timesheets and clients. Only
// approved, non-deleted timesheets count. Client minimums are resolved in memory and a
// name that matches no client falls back to DefaultMinimumBillableHours.
//
// The output only depends on the input values: weeks are newest first and clients are
// sorted by name.
func (a *Aggregator) Aggregate(timesheets []model.Timesheet, clients []model.Client) []WeekGroup {
	directory := NewClientDirectory(clients)
	warned := make(map[string]bool)

	eligible := make([]*model.Timesheet, 0, len(timesheets))
	for i := range timesheets {
		ts := &timesheets[i]
		if ts.ApprovalStatus != model.StatusApproved || ts.DeletedAt.Valid {
			continue
		}
		eligible = append(eligible, ts)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		x, y := eligible[i], eligible[j]
		if x.WeekStartDate != y.WeekStartDate {
			return x.WeekStartDate > y.WeekStartDate
		}
		if x.DriverName != y.DriverName {
			return x.DriverName < y.DriverName
		}
		return x.ID < y.ID
	})

	var weeks []*weekState
	byWeek := make(map[string]*weekState)

	for _, ts := range eligible {
		week, ok := byWeek[ts.WeekStartDate]
		if !ok {
			week = &weekState{
				group:   WeekGroup{WeekStartDate: ts.WeekStartDate},
				clients: make(map[string]*clientState),
				drivers: make(map[string]struct{}),
			}
			byWeek[ts.WeekStartDate] = week
			weeks = append(weeks, week)
		}

		for _, ch := range CollectClientHours(ts) {
			cs, ok := week.clients[ch.Client]
			if !ok {
				minimum, matched := directory.MinimumFor(ch.Client)
				if !matched && !warned[ch.Client] {
					warned[ch.Client] = true
					fields := logrus.Fields{"client": ch.Client, "minimum": minimum}
					if suggestion, ok := directory.Suggest(ch.Client); ok {
						fields["suggestion"] = suggestion
					}
					a.log.WithFields(fields).Warn("client name matched no client record, using default minimum")
				}
				cs = &clientState{
					group: ClientGroup{
						Client:               ch.Client,
						MinimumBillableHours: minimum,
						Matched:              matched,
						Drivers:              []DriverEntry{},
					},
					drivers: make(map[string]struct{}),
				}
				week.clients[ch.Client] = cs
				week.order = append(week.order, cs)
			}
			if cs.group.BatchID == nil && ts.IsBatched() {
				cs.group.BatchID = ts.BatchID
			}

			actual := roundHours(ch.ActualHours)
			billable := roundHours(BillableHours(actual, ch.DaysWorked, cs.group.MinimumBillableHours))
			cs.group.Drivers = append(cs.group.Drivers, DriverEntry{
				Name:             ts.DriverName,
				TimesheetID:      ts.ID,
				ActualHours:      actual,
				BillableHours:    billable,
				DaysWorked:       ch.DaysWorked,
				Rating:           ts.ClientRating,
				ApprovedAt:       ts.ClientApprovedAt,
				ApprovedBy:       ts.ClientApprovedBy,
				BatchID:          ts.BatchID,
				HasModifications: ts.HasModifications(),
			})
			cs.group.TotalActualHours += actual
			cs.group.TotalBillableHours += billable
			cs.group.TotalShifts += ch.DaysWorked
			cs.drivers[ts.DriverName] = struct{}{}
			week.drivers[ts.DriverName] = struct{}{}
		}
	}

	out := make([]WeekGroup, 0, len(weeks))
	for _, week := range weeks {
		sort.SliceStable(week.order, func(i, j int) bool {
			x, y := week.order[i].group.Client, week.order[j].group.Client
			lx, ly := strings.ToLower(x), strings.ToLower(y)
			if lx != ly {
				return lx < ly
			}
			return x < y
		})

		group := week.group
		group.Clients = make([]ClientGroup, 0, len(week.order))
		for _, cs := range week.order {
			cg := cs.group
			cg.TotalActualHours = roundHours(cg.TotalActualHours)
			cg.TotalBillableHours = roundHours(cg.TotalBillableHours)
			cg.DriverCount = len(cs.drivers)
			group.TotalActualHours += cg.TotalActualHours
			group.TotalBillableHours += cg.TotalBillableHours
			group.Clients = append(group.Clients, cg)
		}
		group.TotalActualHours = roundHours(group.TotalActualHours)
		group.TotalBillableHours = roundHours(group.TotalBillableHours)
		group.DriverCount = len(week.drivers)
		out = append(out, group)
	}
	return out
}
