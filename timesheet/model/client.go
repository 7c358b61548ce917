package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID                   string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	CompanyName          string         `gorm:"column:company_name;type:varchar(255);not null" json:"companyName"`
	ContactName          string         `gorm:"column:contact_name;type:varchar(255);not null" json:"contactName"`
	Email                string         `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Phone                *string        `gorm:"column:phone;type:varchar(50)" json:"phone"`
	Notes                *string        `gorm:"column:notes;type:text" json:"notes"`
	MinimumBillableHours int            `gorm:"column:minimum_billable_hours;not null" json:"minimumBillableHours"`
	CreatedAt            time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt            time.Time      `gorm:"column:updated_at" json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deletedAt,omitempty"`
	DeletedBy            *string        `gorm:"column:deleted_by;type:varchar(64)" json:"deletedBy,omitempty"`

	Contacts []ClientContact `gorm:"foreignKey:ClientID" json:"contacts,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type ClientContact struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	ClientID  string    `gorm:"column:client_id;type:varchar(36);not null;index" json:"clientId"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Phone     *string   `gorm:"column:phone;type:varchar(50)" json:"phone"`
	IsPrimary bool      `gorm:"column:is_primary;not null" json:"isPrimary"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (ClientContact) TableName() string {
	return "client_contacts"
}

func (c *ClientContact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
