package service

import (
	"context"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type ClientInput struct {
	CompanyName          string
	ContactName          string
	Email                string
	Phone                *string
	Notes                *string
	MinimumBillableHours *int
}

// ClientUpdate holds the fields of a client edit. Nil fields are left unchanged.
type ClientUpdate struct {
	CompanyName          *string
	ContactName          *string
	Email                *string
	Phone                *string
	Notes                *string
	MinimumBillableHours *int
}

type ContactInput struct {
	Name      string
	Email     string
	Phone     *string
	IsPrimary bool
}

func validateMinimum(hours *int) error {
	if hours != nil && (*hours < 0 || *hours > 24) {
		return engine.Validationf("minimumBillableHours must be between 0 and 24")
	}
	return nil
}

var validate = validator.New()

// validateEmail applies the same rule as the email binding tag of the HTTP layer.
func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return engine.Validationf("invalid email address %q", email)
	}
	return nil
}

func (s *Service) ListClients(ctx context.Context, p security.Principal) ([]model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.Client
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ListClients(db)
		return err
	})
	return out, err
}

// ClientNames lists company names for the driver's client picker.
func (s *Service) ClientNames(ctx context.Context, p security.Principal) ([]string, error) {
	var out []string
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ClientNames(db)
		return err
	})
	return out, err
}

func (s *Service) GetClient(ctx context.Context, p security.Principal, id string) (*model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out *model.Client
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.GetClient(db, id)
		return err
	})
	return out, err
}

// CreateClient adds a client. The minimum billable hours default to 8.
func (s *Service) CreateClient(ctx context.Context, p security.Principal, in ClientInput) (*model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, engine.Validationf("companyName is required")
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return nil, engine.Validationf("contactName is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validateMinimum(in.MinimumBillableHours); err != nil {
		return nil, err
	}

	c := &model.Client{
		CompanyName:          strings.TrimSpace(in.CompanyName),
		ContactName:          strings.TrimSpace(in.ContactName),
		Email:                strings.TrimSpace(in.Email),
		Phone:                in.Phone,
		Notes:                in.Notes,
		MinimumBillableHours: int(engine.DefaultMinimumBillableHours),
	}
	if in.MinimumBillableHours != nil {
		c.MinimumBillableHours = *in.MinimumBillableHours
	}

	if err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		return store.CreateClient(db, c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, p security.Principal, id string, in ClientUpdate) (*model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateMinimum(in.MinimumBillableHours); err != nil {
		return nil, err
	}

	values := map[string]any{}
	if in.CompanyName != nil {
		if strings.TrimSpace(*in.CompanyName) == "" {
			return nil, engine.Validationf("companyName cannot be empty")
		}
		values["company_name"] = strings.TrimSpace(*in.CompanyName)
	}
	if in.ContactName != nil {
		values["contact_name"] = strings.TrimSpace(*in.ContactName)
	}
	if in.Email != nil {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		values["email"] = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		values["phone"] = *in.Phone
	}
	if in.Notes != nil {
		values["notes"] = *in.Notes
	}
	if in.MinimumBillableHours != nil {
		values["minimum_billable_hours"] = *in.MinimumBillableHours
	}

	var out *model.Client
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if len(values) > 0 {
			if err := store.UpdateClient(tx, id, values); err != nil {
				return err
			}
		}
		var err error
		out, err = store.GetClient(tx, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteClient(ctx context.Context, p security.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return store.SoftDeleteClient(db, id, p.UserID)
	})
}

func (s *Service) ListDeletedClients(ctx context.Context, p security.Principal) ([]model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.Client
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ListDeletedClients(db)
		return err
	})
	return out, err
}

func (s *Service) RestoreClient(ctx context.Context, p security.Principal, id string) (*model.Client, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out *model.Client
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := store.RestoreClient(tx, id); err != nil {
			return err
		}
		var err error
		out, err = store.GetClient(tx, id)
		return err
	})
	return out, err
}

func (s *Service) ListContacts(ctx context.Context, p security.Principal, clientID string) ([]model.ClientContact, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.ClientContact
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		if _, err := store.GetClient(db, clientID); err != nil {
			return err
		}
		var err error
		out, err = store.ListContacts(db, clientID)
		return err
	})
	return out, err
}

func (s *Service) CreateContact(ctx context.Context, p security.Principal, clientID string, in ContactInput) (*model.ClientContact, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, engine.Validationf("name is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}

	contact := &model.ClientContact{
		ClientID:  clientID,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		IsPrimary: in.IsPrimary,
	}
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := store.GetClient(tx, clientID); err != nil {
			return err
		}
		return store.CreateContact(tx, contact)
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) DeleteContact(ctx context.Context, p security.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		return store.DeleteContact(db, id)
	})
}

func (s *Service) SetPrimaryContact(ctx context.Context, p security.Principal, id string) (*model.ClientContact, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out *model.ClientContact
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.SetPrimaryContact(db, id)
		return err
	})
	return out, err
}
