package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"gorm.io/gorm"
)

type ReviewInput struct {
	Decision      engine.Decision
	ReviewedBy    string
	Rating        *int
	Comments      string
	Modifications model.Modifications
}

// activeBatch loads the batch behind an approval link and refuses expired links.
func (s *Service) activeBatch(db *gorm.DB, token string) (*model.ApprovalBatch, error) {
	b, err := store.FindBatchByToken(db, token)
	if err != nil {
		return nil, err
	}
	if b.Expired(s.now()) {
		return nil, fmt.Errorf("batch %s: %w", b.ID, engine.ErrTokenExpired)
	}
	return b, nil
}

// ApprovalPage opens the public review page of a batch and records the visit.
func (s *Service) ApprovalPage(ctx context.Context, token string, info RequestInfo) (*BatchDetail, error) {
	var out *BatchDetail
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		b, err := s.activeBatch(tx, token)
		if err != nil {
			return err
		}
		if out, err = loadBatchDetail(tx, b); err != nil {
			return err
		}
		return s.audit(tx, b.ID, nil, model.AuditLinkOpened, "client", info, "")
	})
	return out, err
}

// ReviewByToken approves or rejects a timesheet through a public approval link. An
// unknown link is refused outright rather than reported missing.
func (s *Service) ReviewByToken(ctx context.Context, token, timesheetID string, in ReviewInput, info RequestInfo) (*model.Timesheet, error) {
	var batch *model.ApprovalBatch
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		b, err := s.activeBatch(db, token)
		if errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("%w: invalid approval link", engine.ErrAccessDenied)
		}
		if err != nil {
			return err
		}
		member, err := store.IsBatchMember(db, b.ID, timesheetID)
		if err != nil {
			return err
		}
		if !member {
			return fmt.Errorf("timesheet %s in batch %s: %w", timesheetID, b.ID, engine.ErrNotFound)
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.applyReview(ctx, batch, timesheetID, in, info)
}

// ClientReview approves or rejects a timesheet from the client portal. The timesheet
// must belong to one of the caller's batches. The reviewer is the signed in user.
func (s *Service) ClientReview(ctx context.Context, p security.Principal, impersonate, timesheetID string, in ReviewInput, info RequestInfo) (*model.Timesheet, error) {
	clientID, err := portalClientID(p, impersonate)
	if err != nil {
		return nil, err
	}

	var batch *model.ApprovalBatch
	if err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		b, err := store.ClientBatchForTimesheet(db, timesheetID, clientID)
		if errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("%w: timesheet %s is not awaiting your review", engine.ErrAccessDenied, timesheetID)
		}
		batch = b
		return err
	}); err != nil {
		return nil, err
	}

	in.ReviewedBy = p.Name
	if strings.TrimSpace(in.ReviewedBy) == "" {
		in.ReviewedBy = p.Email
	}
	return s.applyReview(ctx, batch, timesheetID, in, info)
}

func (s *Service) applyReview(ctx context.Context, batch *model.ApprovalBatch, timesheetID string, in ReviewInput, info RequestInfo) (*model.Timesheet, error) {
	var ts *model.Timesheet
	err := s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if ts, err = store.GetTimesheet(tx, timesheetID); err != nil {
			return err
		}
		from := ts.ApprovalStatus

		var mods model.Modifications
		if in.Decision == engine.DecisionApprove {
			if mods, err = engine.DiffModifications(ts, in.Modifications); err != nil {
				return err
			}
		}
		if err := engine.ApplyReview(ts, engine.Review{
			Decision:      in.Decision,
			ReviewedBy:    in.ReviewedBy,
			Rating:        in.Rating,
			Comments:      in.Comments,
			Modifications: mods,
			At:            s.now(),
		}); err != nil {
			return err
		}
		if err := store.TransitionTimesheet(tx, ts, from); err != nil {
			return err
		}
		if _, err := store.RefreshBatchStatus(tx, batch.ID); err != nil {
			return err
		}

		action := model.AuditApproved
		if ts.ApprovalStatus == model.StatusRejected {
			action = model.AuditRejected
		}
		notes := strings.TrimSpace(in.Comments)
		if len(mods) > 0 {
			notes = strings.TrimSpace(fmt.Sprintf("%s (%d corrections)", notes, len(mods)))
		}
		return s.audit(tx, batch.ID, &ts.ID, action, strings.TrimSpace(in.ReviewedBy), info, notes)
	})
	if err != nil {
		return nil, err
	}

	s.notifyInfo(fmt.Sprintf("%s %s the timesheet of %s for the week of %s (%s)",
		strings.TrimSpace(in.ReviewedBy), ts.ApprovalStatus, ts.DriverName, ts.WeekStartDate, batch.ClientName))
	return ts, nil
}
