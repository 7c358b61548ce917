package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	StatusDraft           ApprovalStatus = "draft"
	StatusPendingApproval ApprovalStatus = "pending_approval"
	StatusApproved        ApprovalStatus = "approved"
	StatusRejected        ApprovalStatus = "rejected"
)

// Modification is a single client correction of a driver-reported field.
type Modification struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// Modifications is keyed by field name, e.g. "mondayStart".
type Modifications map[string]Modification

type Timesheet struct {
	ID             string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID         string         `gorm:"column:user_id;type:varchar(64);not null;index" json:"userId"`
	DriverName     string         `gorm:"column:driver_name;type:varchar(255);not null" json:"driverName"`
	WeekStartDate  string         `gorm:"column:week_start_date;type:varchar(10);not null;index" json:"weekStartDate"`
	BatchID        *string        `gorm:"column:batch_id;type:varchar(36);index" json:"batchId"`
	ApprovalStatus ApprovalStatus `gorm:"column:approval_status;type:varchar(20);not null;index" json:"approvalStatus"`

	ClientApprovedAt    *time.Time    `gorm:"column:client_approved_at" json:"clientApprovedAt"`
	ClientApprovedBy    *string       `gorm:"column:client_approved_by;type:varchar(255)" json:"clientApprovedBy"`
	ClientRating        *int          `gorm:"column:client_rating" json:"clientRating"`
	ClientComments      *string       `gorm:"column:client_comments;type:text" json:"clientComments"`
	ClientModifications Modifications `gorm:"column:client_modifications;serializer:json;type:text" json:"clientModifications"`

	DriverRating   *int    `gorm:"column:driver_rating" json:"driverRating"`
	DriverComments *string `gorm:"column:driver_comments;type:text" json:"driverComments"`

	Days Week `gorm:"column:days;serializer:json;type:text;not null" json:"days"`

	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deletedAt,omitempty"`
	DeletedBy *string        `gorm:"column:deleted_by;type:varchar(64)" json:"deletedBy,omitempty"`
}

func (Timesheet) TableName() string {
	return "timesheets"
}

func (t *Timesheet) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ApprovalStatus == "" {
		t.ApprovalStatus = StatusDraft
	}
	return nil
}

func (t *Timesheet) IsBatched() bool {
	return t.BatchID != nil && *t.BatchID != ""
}

// HasModifications reports whether a client corrected any field during approval.
func (t *Timesheet) HasModifications() bool {
	return len(t.ClientModifications) > 0
}
