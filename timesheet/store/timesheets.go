package store

import (
	"fmt"
	"time"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"gorm.io/gorm"
)

// reviewColumns are written by every approval status transition.
var reviewColumns = []string{
	"approval_status",
	"batch_id",
	"client_approved_at",
	"client_approved_by",
	"client_rating",
	"client_comments",
	"client_modifications",
	"days",
	"updated_at",
}

type TimesheetFilter struct {
	UserID        string
	Status        model.ApprovalStatus
	WeekStartDate string
	BatchID       string
}

func ListTimesheets(db *gorm.DB, f TimesheetFilter) ([]model.Timesheet, error) {
	query := db.Model(&model.Timesheet{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		query = query.Where("approval_status = ?", f.Status)
	}
	if f.WeekStartDate != "" {
		query = query.Where("week_start_date = ?", f.WeekStartDate)
	}
	if f.BatchID != "" {
		query = query.Where("batch_id = ?", f.BatchID)
	}

	var out []model.Timesheet
	if err := query.Order("week_start_date DESC").Order("driver_name").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return out, nil
}

// ApprovedTimesheets is the payroll read. An empty week selects every week.
func ApprovedTimesheets(db *gorm.DB, weekStartDate string) ([]model.Timesheet, error) {
	return ListTimesheets(db, TimesheetFilter{Status: model.StatusApproved, WeekStartDate: weekStartDate})
}

func GetTimesheet(db *gorm.DB, id string) (*model.Timesheet, error) {
	var ts model.Timesheet
	if err := db.Where("id = ?", id).Take(&ts).Error; err != nil {
		return nil, notFound(err, "timesheet", id)
	}
	return &ts, nil
}

func GetTimesheets(db *gorm.DB, ids []string) ([]model.Timesheet, error) {
	var out []model.Timesheet
	if len(ids) == 0 {
		return out, nil
	}
	if err := db.Where("id IN ?", ids).Order("driver_name").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load timesheets: %w", err)
	}
	return out, nil
}

// CreateTimesheet inserts a timesheet. A driver can only have one active timesheet per
// week.
func CreateTimesheet(db *gorm.DB, ts *model.Timesheet) error {
	var count int64
	if err := db.Model(&model.Timesheet{}).
		Where("user_id = ? AND week_start_date = ?", ts.UserID, ts.WeekStartDate).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing timesheets: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: a timesheet for week %s already exists", engine.ErrConflict, ts.WeekStartDate)
	}
	if err := db.Create(ts).Error; err != nil {
		return fmt.Errorf("failed to create timesheet: %w", err)
	}
	return nil
}

// SaveTimesheet writes every column of a timesheet.
func SaveTimesheet(db *gorm.DB, ts *model.Timesheet) error {
	if err := db.Save(ts).Error; err != nil {
		return fmt.Errorf("failed to save timesheet %s: %w", ts.ID, err)
	}
	return nil
}

// TransitionTimesheet persists a status change made by the approval state machine. The
// row is only written while it is still in status from, so a concurrent review turns
// into engine.ErrConflict instead of a lost update.
func TransitionTimesheet(db *gorm.DB, ts *model.Timesheet, from model.ApprovalStatus) error {
	result := db.Model(ts).
		Where("approval_status = ?", from).
		Select(reviewColumns).
		Updates(ts)
	if result.Error != nil {
		return fmt.Errorf("failed to update timesheet %s: %w", ts.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: timesheet %s is no longer %s", engine.ErrConflict, ts.ID, from)
	}
	return nil
}

func SoftDeleteTimesheet(db *gorm.DB, id, deletedBy string) error {
	result := db.Model(&model.Timesheet{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": time.Now(), "deleted_by": deletedBy})
	if result.Error != nil {
		return fmt.Errorf("failed to delete timesheet %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("timesheet %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func ListDeletedTimesheets(db *gorm.DB) ([]model.Timesheet, error) {
	var out []model.Timesheet
	if err := db.Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list deleted timesheets: %w", err)
	}
	return out, nil
}

// RestoreTimesheet undeletes a timesheet unless its driver has since submitted another
// one for the same week.
func RestoreTimesheet(db *gorm.DB, id string) error {
	var ts model.Timesheet
	if err := db.Unscoped().Where("id = ? AND deleted_at IS NOT NULL", id).Take(&ts).Error; err != nil {
		return notFound(err, "deleted timesheet", id)
	}

	var count int64
	if err := db.Model(&model.Timesheet{}).
		Where("user_id = ? AND week_start_date = ?", ts.UserID, ts.WeekStartDate).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing timesheets: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: driver already has a timesheet for week %s", engine.ErrConflict, ts.WeekStartDate)
	}

	if err := db.Unscoped().Model(&ts).
		Updates(map[string]any{"deleted_at": nil, "deleted_by": nil}).Error; err != nil {
		return fmt.Errorf("failed to restore timesheet %s: %w", id, err)
	}
	return nil
}

// CountByStatus counts active timesheets per approval status.
func CountByStatus(db *gorm.DB) (map[model.ApprovalStatus]int64, error) {
	var rows []struct {
		ApprovalStatus model.ApprovalStatus
		Count          int64
	}
	if err := db.Model(&model.Timesheet{}).
		Select("approval_status, COUNT(*) AS count").
		Group("approval_status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count timesheets: %w", err)
	}

	out := map[model.ApprovalStatus]int64{
		model.StatusDraft:           0,
		model.StatusPendingApproval: 0,
		model.StatusApproved:        0,
		model.StatusRejected:        0,
	}
	for _, r := range rows {
		out[r.ApprovalStatus] = r.Count
	}
	return out, nil
}

// LatestApprovedWeek returns the newest week with an approved timesheet, or "".
func LatestApprovedWeek(db *gorm.DB) (string, error) {
	var weeks []string
	if err := db.Model(&model.Timesheet{}).
		Where("approval_status = ?", model.StatusApproved).
		Order("week_start_date DESC").
		Limit(1).
		Pluck("week_start_date", &weeks).Error; err != nil {
		return "", fmt.Errorf("failed to find latest payroll week: %w", err)
	}
	if len(weeks) == 0 {
		return "", nil
	}
	return weeks[0], nil
}
