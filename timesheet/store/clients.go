package store

import (
	"fmt"
	"time"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"gorm.io/gorm"
)

// ListClients returns the active clients ordered by company name.
func ListClients(db *gorm.DB) ([]model.Client, error) {
	var out []model.Client
	if err := db.Order("company_name").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return out, nil
}

func ClientNames(db *gorm.DB) ([]string, error) {
	var names []string
	if err := db.Model(&model.Client{}).Order("company_name").Pluck("company_name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list client names: %w", err)
	}
	return names, nil
}

func GetClient(db *gorm.DB, id string) (*model.Client, error) {
	var c model.Client
	if err := db.Preload("Contacts", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_primary DESC").Order("name")
	}).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, notFound(err, "client", id)
	}
	return &c, nil
}

func CreateClient(db *gorm.DB, c *model.Client) error {
	if err := db.Omit("Contacts").Create(c).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// UpdateClient applies the given column values to an active client.
func UpdateClient(db *gorm.DB, id string, values map[string]any) error {
	result := db.Model(&model.Client{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update client %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func SoftDeleteClient(db *gorm.DB, id, deletedBy string) error {
	result := db.Model(&model.Client{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": time.Now(), "deleted_by": deletedBy})
	if result.Error != nil {
		return fmt.Errorf("failed to delete client %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("client %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func ListDeletedClients(db *gorm.DB) ([]model.Client, error) {
	var out []model.Client
	if err := db.Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list deleted clients: %w", err)
	}
	return out, nil
}

func RestoreClient(db *gorm.DB, id string) error {
	result := db.Unscoped().Model(&model.Client{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{"deleted_at": nil, "deleted_by": nil})
	if result.Error != nil {
		return fmt.Errorf("failed to restore client %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("deleted client %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func ListContacts(db *gorm.DB, clientID string) ([]model.ClientContact, error) {
	var out []model.ClientContact
	if err := db.Where("client_id = ?", clientID).
		Order("is_primary DESC").
		Order("name").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return out, nil
}

// CreateContact adds a contact. A new primary contact demotes the current one.
func CreateContact(db *gorm.DB, c *model.ClientContact) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if c.IsPrimary {
			if err := clearPrimary(tx, c.ClientID); err != nil {
				return err
			}
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		return nil
	})
}

func GetContact(db *gorm.DB, id string) (*model.ClientContact, error) {
	var c model.ClientContact
	if err := db.Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, notFound(err, "contact", id)
	}
	return &c, nil
}

func DeleteContact(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&model.ClientContact{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("contact %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

// SetPrimaryContact makes a contact the only primary contact of its client.
func SetPrimaryContact(db *gorm.DB, id string) (*model.ClientContact, error) {
	var contact *model.ClientContact
	err := db.Transaction(func(tx *gorm.DB) error {
		c, err := GetContact(tx, id)
		if err != nil {
			return err
		}
		if err := clearPrimary(tx, c.ClientID); err != nil {
			return err
		}
		if err := tx.Model(c).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to set primary contact %s: %w", id, err)
		}
		contact = c
		return nil
	})
	return contact, err
}

// PrimaryContact returns the primary contact of a client, or nil.
func PrimaryContact(db *gorm.DB, clientID string) (*model.ClientContact, error) {
	var out []model.ClientContact
	if err := db.Where("client_id = ? AND is_primary = ?", clientID, true).Limit(1).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load primary contact: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func clearPrimary(db *gorm.DB, clientID string) error {
	if err := db.Model(&model.ClientContact{}).
		Where("client_id = ? AND is_primary = ?", clientID, true).
		Update("is_primary", false).Error; err != nil {
		return fmt.Errorf("failed to clear primary contact: %w", err)
	}
	return nil
}
