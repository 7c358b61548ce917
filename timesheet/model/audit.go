package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditBatchCreated AuditAction = "batch_created"
	AuditLinkSent     AuditAction = "link_sent"
	AuditEmailResent  AuditAction = "email_resent"
	AuditLinkOpened   AuditAction = "link_opened"
	AuditApproved     AuditAction = "approved"
	AuditRejected     AuditAction = "rejected"
	AuditReviewReset  AuditAction = "review_reset"
)

type ApprovalAuditLog struct {
	ID          string      `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	BatchID     string      `gorm:"column:batch_id;type:varchar(36);not null;index" json:"batchId"`
	TimesheetID *string     `gorm:"column:timesheet_id;type:varchar(36)" json:"timesheetId"`
	Action      AuditAction `gorm:"column:action;type:varchar(50);not null" json:"action"`
	PerformedBy string      `gorm:"column:performed_by;type:varchar(255)" json:"performedBy"`
	IPAddress   string      `gorm:"column:ip_address;type:varchar(64)" json:"ipAddress"`
	UserAgent   string      `gorm:"column:user_agent;type:text" json:"userAgent"`
	Notes       string      `gorm:"column:notes;type:text" json:"notes"`
	Timestamp   time.Time   `gorm:"column:timestamp;not null;autoCreateTime" json:"timestamp"`
}

func (ApprovalAuditLog) TableName() string {
	return "approval_audit_log"
}

func (a *ApprovalAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Client{},
		&ClientContact{},
		&Timesheet{},
		&ApprovalBatch{},
		&BatchTimesheet{},
		&ApprovalAuditLog{},
	}
}
