package service

import (
	"context"
	"fmt"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"acceptrec.co.uk/timesheets/utils"
	"gorm.io/gorm"
)

type TimesheetInput struct {
	// UserID is ignored for drivers, who always create their own timesheets.
	UserID         string
	DriverName     string
	WeekStartDate  string
	Days           model.Week
	DriverRating   *int
	DriverComments *string
}

// TimesheetUpdate holds the fields of an edit. Nil fields are left unchanged.
type TimesheetUpdate struct {
	DriverName     *string
	Days           *model.Week
	DriverRating   *int
	DriverComments *string
}

func validateRating(name string, rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 10) {
		return engine.Validationf("%s must be between 1 and 10", name)
	}
	return nil
}

func validateDays(days *model.Week) error {
	for i, d := range days {
		day := model.DayNames[i]
		for _, v := range []string{d.Start, d.End} {
			if v != "" && !engine.IsTimeOfDay(v) {
				return engine.Validationf("%s: invalid time %q, expected HH:MM", day, v)
			}
		}
		if !engine.IsBreakMinutes(d.Break) {
			return engine.Validationf("%s: invalid break %q, expected whole minutes", day, d.Break)
		}
		if d.ExpenseAmount.IsNegative() {
			return engine.Validationf("%s: expense amount cannot be negative", day)
		}
		if err := validateRating(day+" driver rating", d.DriverRating); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadAccessibleTimesheet(db *gorm.DB, p security.Principal, id string) (*model.Timesheet, error) {
	ts, err := store.GetTimesheet(db, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessTimesheet(ts.UserID) {
		return nil, fmt.Errorf("%w: timesheet %s", engine.ErrAccessDenied, id)
	}
	return ts, nil
}

// ListTimesheets lists timesheets visible to the caller. Drivers only ever see their own.
func (s *Service) ListTimesheets(ctx context.Context, p security.Principal, filter store.TimesheetFilter) ([]model.Timesheet, error) {
	switch {
	case p.IsAdmin():
	case p.Role == security.RoleDriver:
		filter.UserID = p.UserID
	default:
		return nil, fmt.Errorf("%w: timesheets", engine.ErrAccessDenied)
	}

	var out []model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ListTimesheets(db, filter)
		return err
	})
	return out, err
}

func (s *Service) GetTimesheet(ctx context.Context, p security.Principal, id string) (*model.Timesheet, error) {
	var out *model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = s.loadAccessibleTimesheet(db, p, id)
		return err
	})
	return out, err
}

// CreateTimesheet stores a new draft timesheet with server computed day totals.
func (s *Service) CreateTimesheet(ctx context.Context, p security.Principal, in TimesheetInput) (*model.Timesheet, error) {
	switch {
	case p.IsAdmin():
		if in.UserID == "" {
			return nil, engine.Validationf("userId is required")
		}
	case p.Role == security.RoleDriver:
		in.UserID = p.UserID
		if strings.TrimSpace(in.DriverName) == "" {
			in.DriverName = p.DisplayName()
		}
	default:
		return nil, fmt.Errorf("%w: only drivers and administrators create timesheets", engine.ErrAccessDenied)
	}

	if strings.TrimSpace(in.DriverName) == "" {
		return nil, engine.Validationf("driverName is required")
	}
	if !utils.IsWeekStart(in.WeekStartDate) {
		return nil, engine.Validationf("weekStartDate %q must be a Sunday in yyyy-MM-dd format", in.WeekStartDate)
	}
	if err := validateDays(&in.Days); err != nil {
		return nil, err
	}
	if err := validateRating("driverRating", in.DriverRating); err != nil {
		return nil, err
	}

	ts := &model.Timesheet{
		UserID:         in.UserID,
		DriverName:     strings.TrimSpace(in.DriverName),
		WeekStartDate:  in.WeekStartDate,
		ApprovalStatus: model.StatusDraft,
		Days:           in.Days,
		DriverRating:   in.DriverRating,
		DriverComments: in.DriverComments,
	}
	engine.RecomputeTotals(ts)

	if err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		return store.CreateTimesheet(tx, ts)
	}); err != nil {
		return nil, err
	}
	return ts, nil
}

// UpdateTimesheet edits a timesheet. Changing the data of an approved or rejected
// timesheet throws away the client review and refreshes the batch it belongs to. An
// edit that changes nothing leaves the timesheet untouched.
func (s *Service) UpdateTimesheet(ctx context.Context, p security.Principal, id string, in TimesheetUpdate, info RequestInfo) (*model.Timesheet, error) {
	if in.Days != nil {
		if err := validateDays(in.Days); err != nil {
			return nil, err
		}
	}
	if err := validateRating("driverRating", in.DriverRating); err != nil {
		return nil, err
	}
	if in.DriverName != nil && strings.TrimSpace(*in.DriverName) == "" {
		return nil, engine.Validationf("driverName cannot be empty")
	}

	var out *model.Timesheet
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		ts, err := s.loadAccessibleTimesheet(tx, p, id)
		if err != nil {
			return err
		}

		changed := false
		if in.DriverName != nil && strings.TrimSpace(*in.DriverName) != ts.DriverName {
			ts.DriverName = strings.TrimSpace(*in.DriverName)
			changed = true
		}
		if in.Days != nil && engine.WeekChanged(ts.Days, *in.Days) {
			ts.Days = *in.Days
			changed = true
		}
		if in.DriverRating != nil && (ts.DriverRating == nil || *ts.DriverRating != *in.DriverRating) {
			ts.DriverRating = in.DriverRating
			changed = true
		}
		if in.DriverComments != nil && utils.Deref(ts.DriverComments) != *in.DriverComments {
			ts.DriverComments = in.DriverComments
			changed = true
		}
		if !changed {
			out = ts
			return nil
		}
		engine.RecomputeTotals(ts)

		reset := engine.ResetReview(ts)
		if err := store.SaveTimesheet(tx, ts); err != nil {
			return err
		}
		if reset && ts.IsBatched() {
			if _, err := store.RefreshBatchStatus(tx, *ts.BatchID); err != nil {
				return err
			}
			if err := s.audit(tx, *ts.BatchID, &ts.ID, model.AuditReviewReset, p.DisplayName(), info, "timesheet edited after review"); err != nil {
				return err
			}
		}
		out = ts
		return nil
	})
	return out, err
}

// DeleteTimesheet soft deletes a timesheet and refreshes its batch.
func (s *Service) DeleteTimesheet(ctx context.Context, p security.Principal, id string) error {
	return s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		ts, err := s.loadAccessibleTimesheet(tx, p, id)
		if err != nil {
			return err
		}
		if err := store.SoftDeleteTimesheet(tx, id, p.UserID); err != nil {
			return err
		}
		if ts.IsBatched() {
			if _, err := store.RefreshBatchStatus(tx, *ts.BatchID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) ListDeletedTimesheets(ctx context.Context, p security.Principal) ([]model.Timesheet, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ListDeletedTimesheets(db)
		return err
	})
	return out, err
}

func (s *Service) RestoreTimesheet(ctx context.Context, p security.Principal, id string) (*model.Timesheet, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out *model.Timesheet
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := store.RestoreTimesheet(tx, id); err != nil {
			return err
		}
		ts, err := store.GetTimesheet(tx, id)
		if err != nil {
			return err
		}
		if ts.IsBatched() {
			if _, err := store.RefreshBatchStatus(tx, *ts.BatchID); err != nil {
				return err
			}
		}
		out = ts
		return nil
	})
	return out, err
}
