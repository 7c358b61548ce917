package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"acceptrec.co.uk/timesheets/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EmailStatus string

const (
	EmailNotRequested EmailStatus = "not_requested"
	EmailSent         EmailStatus = "sent"
	EmailFailed       EmailStatus = "failed"
)

type BatchRequest struct {
	ClientName     string
	WeekStartDate  string
	TimesheetIDs   []string
	ClientID       *string
	SendEmail      bool
	RecipientEmail string
}

type BatchResult struct {
	Batch       *model.ApprovalBatch `json:"batch"`
	Link        string               `json:"link"`
	EmailStatus EmailStatus          `json:"emailStatus"`
	EmailError  string               `json:"emailError,omitempty"`
}

// ReviewTimesheet is a batch member as shown to a reviewer.
type ReviewTimesheet struct {
	model.Timesheet
	ActualHours float64               `json:"actualHours"`
	Breakdown   []engine.DayBreakdown `json:"breakdown"`
}

type BatchDetail struct {
	Batch                model.ApprovalBatch `json:"batch"`
	MinimumBillableHours float64             `json:"minimumBillableHours"`
	Timesheets           []ReviewTimesheet   `json:"timesheets"`
}

// workedFor reports whether any day of the timesheet was worked for the client.
func workedFor(ts model.Timesheet, clientName string) bool {
	for _, d := range ts.Days {
		if d.HasClient() && engine.ClientNamesOverlap(d.Client, clientName) {
			return true
		}
	}
	return false
}

// EligibleTimesheets lists the unbatched drafts of a week that were worked for the
// client.
func (s *Service) EligibleTimesheets(ctx context.Context, p security.Principal, clientName, weekStartDate string) ([]model.Timesheet, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(clientName) == "" {
		return nil, engine.Validationf("clientName is required")
	}
	if !utils.IsWeekStart(weekStartDate) {
		return nil, engine.Validationf("weekStartDate %q must be a Sunday in yyyy-MM-dd format", weekStartDate)
	}

	var out []model.Timesheet
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		drafts, err := store.ListTimesheets(db, store.TimesheetFilter{
			Status:        model.StatusDraft,
			WeekStartDate: weekStartDate,
		})
		if err != nil {
			return err
		}
		out = utils.Filter(drafts, func(ts model.Timesheet) bool {
			return !ts.IsBatched() && workedFor(ts, clientName)
		})
		return nil
	})
	return out, err
}

func validateBatchRequest(req *BatchRequest) error {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.ClientName == "" {
		return engine.Validationf("clientName is required")
	}
	if !utils.IsWeekStart(req.WeekStartDate) {
		return engine.Validationf("weekStartDate %q must be a Sunday in yyyy-MM-dd format", req.WeekStartDate)
	}
	if len(req.TimesheetIDs) == 0 {
		return engine.Validationf("at least one timesheet is required")
	}
	seen := make(map[string]bool, len(req.TimesheetIDs))
	for _, id := range req.TimesheetIDs {
		if seen[id] {
			return engine.Validationf("timesheet %s is listed twice", id)
		}
		seen[id] = true
	}
	if req.RecipientEmail != "" {
		if err := validateEmail(req.RecipientEmail); err != nil {
			return err
		}
	}
	return nil
}

// CreateBatch groups draft timesheets of one client and week into an approval batch.
// Every timesheet is checked before anything is written. The approval email is sent
// after the batch is committed and a delivery failure does not undo the batch.
func (s *Service) CreateBatch(ctx context.Context, p security.Principal, req BatchRequest, info RequestInfo) (*BatchResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateBatchRequest(&req); err != nil {
		return nil, err
	}

	token, err := engine.GenerateApprovalToken()
	if err != nil {
		return nil, err
	}

	batch := &model.ApprovalBatch{
		ClientName:          req.ClientName,
		WeekStartDate:       req.WeekStartDate,
		ApprovalToken:       token,
		ApprovalTokenExpiry: s.now().Add(s.opts.ApprovalTTL),
		Status:              model.BatchPending,
		CreatedBy:           p.UserID,
	}

	key := "batch:" + req.WeekStartDate + ":" + engine.NormalizeClientNameLoose(req.ClientName)
	err = s.withLock(ctx, key, func(ctx context.Context) error {
		return s.dm.Transaction(ctx, func(tx *gorm.DB) error {
			members, err := store.GetTimesheets(tx, req.TimesheetIDs)
			if err != nil {
				return err
			}
			for _, id := range req.TimesheetIDs {
				if !utils.Any(members, func(ts model.Timesheet) bool { return ts.ID == id }) {
					return fmt.Errorf("timesheet %s: %w", id, engine.ErrNotFound)
				}
			}
			for _, ts := range members {
				if ts.WeekStartDate != req.WeekStartDate {
					return engine.Validationf("timesheet %s is for week %s, not %s", ts.ID, ts.WeekStartDate, req.WeekStartDate)
				}
				if ts.ApprovalStatus != model.StatusDraft || ts.IsBatched() {
					return fmt.Errorf("%w: timesheet %s is %s and cannot be batched", engine.ErrInvalidTransition, ts.ID, ts.ApprovalStatus)
				}
				if !workedFor(ts, req.ClientName) {
					return engine.Validationf("timesheet %s has no days worked for %s", ts.ID, req.ClientName)
				}
			}

			clientID, err := s.resolveBatchClient(tx, req)
			if err != nil {
				return err
			}
			batch.ClientID = clientID

			if err := store.CreateBatch(tx, batch, req.TimesheetIDs); err != nil {
				return err
			}
			for i := range members {
				ts := &members[i]
				if err := engine.BeginReview(ts, batch.ID); err != nil {
					return err
				}
				if err := store.TransitionTimesheet(tx, ts, model.StatusDraft); err != nil {
					return err
				}
			}
			return s.audit(tx, batch.ID, nil, model.AuditBatchCreated, p.DisplayName(), info,
				fmt.Sprintf("%d timesheets", len(members)))
		})
	})
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Batch: batch, Link: s.ApprovalLink(batch), EmailStatus: EmailNotRequested}
	if req.SendEmail {
		sent, err := s.SendBatchEmail(ctx, p, batch.ID, req.RecipientEmail, info)
		if err != nil {
			config.LogError(s.log, "service", "CreateBatch", "approval email", batch.ID, err)
			result.EmailStatus = EmailFailed
			result.EmailError = err.Error()
		} else {
			result.Batch = sent
			result.EmailStatus = EmailSent
		}
	}
	return result, nil
}

// resolveBatchClient picks the client record of a batch, either the one given
// explicitly or the best match for the client name. No match leaves the batch
// without a client.
func (s *Service) resolveBatchClient(db *gorm.DB, req BatchRequest) (*string, error) {
	if req.ClientID != nil && *req.ClientID != "" {
		c, err := store.GetClient(db, *req.ClientID)
		if err != nil {
			return nil, err
		}
		return &c.ID, nil
	}
	directory, _, err := clientDirectory(db)
	if err != nil {
		return nil, err
	}
	if c := directory.Resolve(req.ClientName); c != nil {
		return &c.ID, nil
	}
	return nil, nil
}

func (s *Service) ListBatches(ctx context.Context, p security.Principal, filter store.BatchFilter) ([]model.ApprovalBatch, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.ApprovalBatch
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, err = store.ListBatches(db, filter)
		return err
	})
	return out, err
}

// batchMinimum resolves the minimum billable hours of a batch: the linked client
// first, then the client matching the batch name, then the default.
func batchMinimum(db *gorm.DB, b *model.ApprovalBatch) (float64, error) {
	if b.ClientID != nil && *b.ClientID != "" {
		c, err := store.GetClient(db, *b.ClientID)
		if err == nil {
			return float64(c.MinimumBillableHours), nil
		}
		if !isNotFound(err) {
			return 0, err
		}
	}
	directory, _, err := clientDirectory(db)
	if err != nil {
		return 0, err
	}
	minimum, _ := directory.MinimumFor(b.ClientName)
	return minimum, nil
}

func loadBatchDetail(db *gorm.DB, b *model.ApprovalBatch) (*BatchDetail, error) {
	minimum, err := batchMinimum(db, b)
	if err != nil {
		return nil, err
	}
	members, err := store.BatchMembers(db, b.ID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{
		Batch:                *b,
		MinimumBillableHours: minimum,
		Timesheets: utils.Map(members, func(ts model.Timesheet) ReviewTimesheet {
			breakdown := engine.BreakdownDays(&ts, minimum)
			actual := 0.0
			for _, d := range breakdown {
				actual += d.ActualHours
			}
			return ReviewTimesheet{Timesheet: ts, ActualHours: roundHours(actual), Breakdown: breakdown}
		}),
	}, nil
}

func (s *Service) GetBatch(ctx context.Context, p security.Principal, id string) (*BatchDetail, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out *BatchDetail
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		b, err := store.GetBatch(db, id)
		if err != nil {
			return err
		}
		out, err = loadBatchDetail(db, b)
		return err
	})
	return out, err
}

func (s *Service) BatchAuditLog(ctx context.Context, p security.Principal, id string) ([]model.ApprovalAuditLog, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var out []model.ApprovalAuditLog
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		if _, err := store.GetBatch(db, id); err != nil {
			return err
		}
		var err error
		out, err = store.ListAudit(db, id)
		return err
	})
	return out, err
}

// batchRecipient picks who receives an approval link: the explicit address, then the
// client's primary contact, then the client's own email.
func batchRecipient(db *gorm.DB, b *model.ApprovalBatch, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if b.ClientID != nil && *b.ClientID != "" {
		contact, err := store.PrimaryContact(db, *b.ClientID)
		if err != nil {
			return "", err
		}
		if contact != nil && contact.Email != "" {
			return contact.Email, nil
		}
		c, err := store.GetClient(db, *b.ClientID)
		if err != nil && !isNotFound(err) {
			return "", err
		}
		if c != nil && c.Email != "" {
			return c.Email, nil
		}
	}
	return "", engine.Validationf("no recipient email for batch %s: the client has no primary contact or email", b.ID)
}

// SendBatchEmail emails the approval link of a batch and records the delivery.
func (s *Service) SendBatchEmail(ctx context.Context, p security.Principal, id, recipient string, info RequestInfo) (*model.ApprovalBatch, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var batch *model.ApprovalBatch
	var to string
	if err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		if batch, err = store.GetBatch(db, id); err != nil {
			return err
		}
		to, err = batchRecipient(db, batch, recipient)
		return err
	}); err != nil {
		return nil, err
	}
	if err := validateEmail(to); err != nil {
		return nil, err
	}

	email, err := s.approvalEmail(batch, to)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to send approval email for batch %s: %w", id, err)
	}

	action := model.AuditLinkSent
	if batch.SentAt != nil {
		action = model.AuditEmailResent
	}
	now := s.now()
	if err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := store.MarkBatchSent(tx, id, to, now); err != nil {
			return err
		}
		return s.audit(tx, id, nil, action, p.DisplayName(), info, "sent to "+to)
	}); err != nil {
		return nil, err
	}
	batch.SentToEmail = &to
	batch.SentAt = &now
	return batch, nil
}

// ClientCompany returns the client record of a portal user.
func (s *Service) ClientCompany(ctx context.Context, p security.Principal, impersonate string) (*model.Client, error) {
	clientID, err := portalClientID(p, impersonate)
	if err != nil {
		return nil, err
	}
	var out *model.Client
	err = s.dm.Exec(ctx, func(db *gorm.DB) error {
		out, err = store.GetClient(db, clientID)
		return err
	})
	return out, err
}

func (s *Service) ClientBatches(ctx context.Context, p security.Principal, impersonate string) ([]model.ApprovalBatch, error) {
	clientID, err := portalClientID(p, impersonate)
	if err != nil {
		return nil, err
	}
	var out []model.ApprovalBatch
	err = s.dm.Exec(ctx, func(db *gorm.DB) error {
		out, err = store.ListBatches(db, store.BatchFilter{ClientID: clientID})
		return err
	})
	return out, err
}

// ClientBatchTimesheets shows one of the portal user's batches. A batch of another
// client is reported as not found.
func (s *Service) ClientBatchTimesheets(ctx context.Context, p security.Principal, impersonate, batchID string) (*BatchDetail, error) {
	clientID, err := portalClientID(p, impersonate)
	if err != nil {
		return nil, err
	}
	var out *BatchDetail
	err = s.dm.Exec(ctx, func(db *gorm.DB) error {
		b, err := store.GetBatch(db, batchID)
		if err != nil {
			return err
		}
		if b.ClientID == nil || *b.ClientID != clientID {
			return fmt.Errorf("approval batch %s: %w", batchID, engine.ErrNotFound)
		}
		out, err = loadBatchDetail(db, b)
		return err
	})
	return out, err
}

// portalClientID is the client a portal request acts for. Super admins may act for
// any client through impersonation.
func portalClientID(p security.Principal, impersonate string) (string, error) {
	switch {
	case p.Role == security.RoleClient && p.ClientID != "":
		return p.ClientID, nil
	case p.Role == security.RoleSuperAdmin && impersonate != "":
		return impersonate, nil
	}
	return "", fmt.Errorf("%w: client portal requires a client account", engine.ErrAccessDenied)
}

func isNotFound(err error) bool {
	return errors.Is(err, engine.ErrNotFound)
}

func roundHours(h float64) float64 {
	return decimal.NewFromFloat(h).Round(2).InexactFloat64()
}
