package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchStatus string

const (
	BatchPending  BatchStatus = "pending"
	BatchPartial  BatchStatus = "partial"
	BatchApproved BatchStatus = "approved"
	BatchRejected BatchStatus = "rejected"
)

// ApprovalBatch routes one client's timesheets for one week through a tokenized link.
type ApprovalBatch struct {
	ID                  string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ClientID            *string     `gorm:"column:client_id;type:varchar(36);index" json:"clientId"`
	ClientName          string      `gorm:"column:client_name;type:varchar(255);not null" json:"clientName"`
	WeekStartDate       string      `gorm:"column:week_start_date;type:varchar(10);not null" json:"weekStartDate"`
	ApprovalToken       string      `gorm:"column:approval_token;type:varchar(64);not null;uniqueIndex" json:"approvalToken"`
	ApprovalTokenExpiry time.Time   `gorm:"column:approval_token_expiry;not null" json:"approvalTokenExpiry"`
	Status              BatchStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	SentToEmail         *string     `gorm:"column:sent_to_email;type:varchar(255)" json:"sentToEmail"`
	SentAt              *time.Time  `gorm:"column:sent_at" json:"sentAt"`
	CreatedBy           string      `gorm:"column:created_by;type:varchar(64);not null" json:"createdBy"`
	CreatedAt           time.Time   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt           time.Time   `gorm:"column:updated_at" json:"updatedAt"`
}

func (ApprovalBatch) TableName() string {
	return "approval_batches"
}

func (b *ApprovalBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BatchPending
	}
	return nil
}

// Expired reports whether the approval link can no longer be used at the given instant.
func (b *ApprovalBatch) Expired(now time.Time) bool {
	return now.After(b.ApprovalTokenExpiry)
}

type BatchTimesheet struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	BatchID     string    `gorm:"column:batch_id;type:varchar(36);not null;uniqueIndex:idx_batch_timesheet" json:"batchId"`
	TimesheetID string    `gorm:"column:timesheet_id;type:varchar(36);not null;uniqueIndex:idx_batch_timesheet;index" json:"timesheetId"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (BatchTimesheet) TableName() string {
	return "batch_timesheets"
}

func (b *BatchTimesheet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
