package service

import (
	"context"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"acceptrec.co.uk/timesheets/utils"
	"gorm.io/gorm"
)

// DriverPerformance summarizes client ratings per driver. A non-empty driver narrows
// the result to that driver name.
func (s *Service) DriverPerformance(ctx context.Context, p security.Principal, driver string) ([]engine.DriverPerformance, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var approved []model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		approved, err = store.ListTimesheets(db, store.TimesheetFilter{Status: model.StatusApproved})
		return err
	})
	if err != nil {
		return nil, err
	}

	out := engine.SummarizeDriverPerformance(approved)
	if driver = strings.TrimSpace(driver); driver != "" {
		out = utils.Filter(out, func(d engine.DriverPerformance) bool { return d.Driver == driver })
	}
	return out, nil
}

// ClientFeedback summarizes the private per-day feedback drivers leave about clients.
// It is never shown to client accounts. A non-empty client narrows the result.
func (s *Service) ClientFeedback(ctx context.Context, p security.Principal, client string) ([]engine.ClientFeedback, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var timesheets []model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		timesheets, err = store.ListTimesheets(db, store.TimesheetFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	out := engine.SummarizeClientFeedback(timesheets)
	if client = strings.TrimSpace(client); client != "" {
		out = utils.Filter(out, func(c engine.ClientFeedback) bool { return c.Client == client })
	}
	return out, nil
}
