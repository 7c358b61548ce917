package store

import (
	"fmt"
	"slices"
	"time"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"gorm.io/gorm"
)

type BatchFilter struct {
	ClientID string
	Status   model.BatchStatus
}

func ListBatches(db *gorm.DB, f BatchFilter) ([]model.ApprovalBatch, error) {
	query := db.Model(&model.ApprovalBatch{})
	if f.ClientID != "" {
		query = query.Where("client_id = ?", f.ClientID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var out []model.ApprovalBatch
	if err := query.Order("week_start_date DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return out, nil
}

func GetBatch(db *gorm.DB, id string) (*model.ApprovalBatch, error) {
	var b model.ApprovalBatch
	if err := db.Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFound(err, "approval batch", id)
	}
	return &b, nil
}

// FindBatchByToken looks a batch up by its approval token. Expiry is left to the caller.
func FindBatchByToken(db *gorm.DB, token string) (*model.ApprovalBatch, error) {
	var b model.ApprovalBatch
	if err := db.Where("approval_token = ?", token).Take(&b).Error; err != nil {
		return nil, notFound(err, "approval link", "")
	}
	return &b, nil
}

// CreateBatch inserts a batch and links its timesheets.
func CreateBatch(db *gorm.DB, b *model.ApprovalBatch, timesheetIDs []string) error {
	if err := db.Create(b).Error; err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	if len(timesheetIDs) == 0 {
		return nil
	}
	links := make([]model.BatchTimesheet, 0, len(timesheetIDs))
	for _, id := range timesheetIDs {
		links = append(links, model.BatchTimesheet{BatchID: b.ID, TimesheetID: id})
	}
	if err := db.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link timesheets to batch %s: %w", b.ID, err)
	}
	return nil
}

// BatchMemberIDs returns the ids of the timesheets in a batch, from the link table and
// from the timesheets' own batch reference.
func BatchMemberIDs(db *gorm.DB, batchID string) ([]string, error) {
	var linked []string
	if err := db.Model(&model.BatchTimesheet{}).
		Where("batch_id = ?", batchID).
		Pluck("timesheet_id", &linked).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch links: %w", err)
	}
	var referenced []string
	if err := db.Model(&model.Timesheet{}).
		Where("batch_id = ?", batchID).
		Pluck("id", &referenced).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch timesheets: %w", err)
	}

	seen := make(map[string]bool, len(linked)+len(referenced))
	var out []string
	for _, id := range append(linked, referenced...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// BatchMembers loads the active timesheets of a batch ordered by driver name.
func BatchMembers(db *gorm.DB, batchID string) ([]model.Timesheet, error) {
	ids, err := BatchMemberIDs(db, batchID)
	if err != nil {
		return nil, err
	}
	return GetTimesheets(db, ids)
}

// IsBatchMember reports whether a timesheet belongs to a batch.
func IsBatchMember(db *gorm.DB, batchID, timesheetID string) (bool, error) {
	var count int64
	if err := db.Model(&model.BatchTimesheet{}).
		Where("batch_id = ? AND timesheet_id = ?", batchID, timesheetID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check batch membership: %w", err)
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&model.Timesheet{}).
		Where("id = ? AND batch_id = ?", timesheetID, batchID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check batch membership: %w", err)
	}
	return count > 0, nil
}

// RefreshBatchStatus derives the batch status from its members and stores it.
func RefreshBatchStatus(db *gorm.DB, batchID string) (model.BatchStatus, error) {
	members, err := BatchMembers(db, batchID)
	if err != nil {
		return "", err
	}
	statuses := make([]model.ApprovalStatus, 0, len(members))
	for _, ts := range members {
		statuses = append(statuses, ts.ApprovalStatus)
	}
	status := engine.DeriveBatchStatus(statuses)

	if err := db.Model(&model.ApprovalBatch{}).
		Where("id = ?", batchID).
		Update("status", status).Error; err != nil {
		return "", fmt.Errorf("failed to update batch %s status: %w", batchID, err)
	}
	return status, nil
}

// MarkBatchSent records where and when the approval link was emailed.
func MarkBatchSent(db *gorm.DB, batchID, email string, at time.Time) error {
	if err := db.Model(&model.ApprovalBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]any{"sent_to_email": email, "sent_at": at}).Error; err != nil {
		return fmt.Errorf("failed to mark batch %s sent: %w", batchID, err)
	}
	return nil
}

func CountBatchesByStatus(db *gorm.DB, status model.BatchStatus) (int64, error) {
	var count int64
	if err := db.Model(&model.ApprovalBatch{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return count, nil
}

func AppendAudit(db *gorm.DB, entry *model.ApprovalAuditLog) error {
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func ListAudit(db *gorm.DB, batchID string) ([]model.ApprovalAuditLog, error) {
	var out []model.ApprovalAuditLog
	if err := db.Where("batch_id = ?", batchID).
		Order("timestamp").
		Order("id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	return out, nil
}

// BatchIDsForTimesheet lists every batch a timesheet has been linked to.
func BatchIDsForTimesheet(db *gorm.DB, timesheetID string) ([]string, error) {
	var ids []string
	if err := db.Model(&model.BatchTimesheet{}).
		Where("timesheet_id = ?", timesheetID).
		Pluck("batch_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load batches of timesheet %s: %w", timesheetID, err)
	}
	ts, err := GetTimesheet(db, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts.IsBatched() && !slices.Contains(ids, *ts.BatchID) {
		ids = append(ids, *ts.BatchID)
	}
	return ids, nil
}

// ClientBatchForTimesheet returns a batch of the given client that contains the
// timesheet. A timesheet outside the client's batches is reported as not found.
func ClientBatchForTimesheet(db *gorm.DB, timesheetID, clientID string) (*model.ApprovalBatch, error) {
	ids, err := BatchIDsForTimesheet(db, timesheetID)
	if err != nil {
		return nil, err
	}
	var out []model.ApprovalBatch
	if len(ids) > 0 {
		if err := db.Where("id IN ? AND client_id = ?", ids, clientID).
			Order("created_at DESC").
			Limit(1).
			Find(&out).Error; err != nil {
			return nil, fmt.Errorf("failed to load client batch: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("timesheet %s in client batches: %w", timesheetID, engine.ErrNotFound)
	}
	return &out[0], nil
}
