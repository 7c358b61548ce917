package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"acceptrec.co.uk/timesheets/timesheet/model"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Review is a client decision on a single timesheet. Modifications must already be
// diffed against the stored timesheet, see DiffModifications.
type Review struct {
	Decision      Decision
	ReviewedBy    string
	Rating        *int
	Comments      string
	Modifications model.Modifications
	At            time.Time
}

func (r Review) validate() error {
	if strings.TrimSpace(r.ReviewedBy) == "" {
		return Validationf("reviewer name is required")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 10) {
		return Validationf("rating must be between 1 and 10")
	}
	switch r.Decision {
	case DecisionApprove:
	case DecisionReject:
		if strings.TrimSpace(r.Comments) == "" {
			return Validationf("comments are required when rejecting a timesheet")
		}
	default:
		return Validationf("unknown decision %q", r.Decision)
	}
	return nil
}

// BeginReview puts a draft timesheet into a batch.
func BeginReview(ts *model.Timesheet, batchID string) error {
	if ts.ApprovalStatus != model.StatusDraft || ts.IsBatched() {
		return fmt.Errorf("%w: timesheet %s is %s", ErrInvalidTransition, ts.ID, ts.ApprovalStatus)
	}
	ts.ApprovalStatus = model.StatusPendingApproval
	ts.BatchID = &batchID
	return nil
}

// ApplyReview records a client decision. Only timesheets awaiting approval can be
// reviewed. Corrections are written into the days before the totals are recomputed.
func ApplyReview(ts *model.Timesheet, r Review) error {
	if ts.ApprovalStatus != model.StatusPendingApproval {
		return fmt.Errorf("%w: timesheet %s is %s", ErrInvalidTransition, ts.ID, ts.ApprovalStatus)
	}
	if err := r.validate(); err != nil {
		return err
	}

	at := r.At
	by := strings.TrimSpace(r.ReviewedBy)
	ts.ClientApprovedAt = &at
	ts.ClientApprovedBy = &by
	ts.ClientRating = r.Rating
	ts.ClientComments = nil
	if c := strings.TrimSpace(r.Comments); c != "" {
		ts.ClientComments = &c
	}
	ts.ClientModifications = nil

	if r.Decision == DecisionReject {
		ts.ApprovalStatus = model.StatusRejected
		return nil
	}
	if len(r.Modifications) > 0 {
		ApplyModifications(ts, r.Modifications)
		ts.ClientModifications = r.Modifications
	}
	ts.ApprovalStatus = model.StatusApproved
	return nil
}

// ResetReview discards the client review of an approved or rejected timesheet whose
// data changed. A timesheet still linked to a batch goes back to pending approval,
// anything else to draft. It reports whether a review was discarded.
func ResetReview(ts *model.Timesheet) bool {
	if ts.ApprovalStatus != model.StatusApproved && ts.ApprovalStatus != model.StatusRejected {
		return false
	}
	ts.ClientApprovedAt = nil
	ts.ClientApprovedBy = nil
	ts.ClientRating = nil
	ts.ClientComments = nil
	ts.ClientModifications = nil
	if ts.IsBatched() {
		ts.ApprovalStatus = model.StatusPendingApproval
	} else {
		ts.ApprovalStatus = model.StatusDraft
	}
	return true
}

// DeriveBatchStatus computes a batch status from its members. A rejection outranks
// everything, then partial approval, then pending. A batch is approved only when every
// member is.
func DeriveBatchStatus(statuses []model.ApprovalStatus) model.BatchStatus {
	if len(statuses) == 0 {
		return model.BatchPending
	}
	approved := 0
	for _, s := range statuses {
		switch s {
		case model.StatusRejected:
			return model.BatchRejected
		case model.StatusApproved:
			approved++
		}
	}
	switch {
	case approved == len(statuses):
		return model.BatchApproved
	case approved > 0:
		return model.BatchPartial
	default:
		return model.BatchPending
	}
}

var editableAttributes = []string{"Start", "End", "Break"}

func parseField(field string) (int, string, bool) {
	for _, attr := range editableAttributes {
		if prefix, ok := strings.CutSuffix(field, attr); ok {
			if day, ok := model.DayIndex(prefix); ok {
				return day, attr, true
			}
		}
	}
	return 0, "", false
}

func dayField(d *model.DayRecord, attr string) *string {
	switch attr {
	case "Start":
		return &d.Start
	case "End":
		return &d.End
	default:
		return &d.Break
	}
}

func validCorrection(attr, value string) bool {
	if attr == "Break" {
		return IsBreakMinutes(value)
	}
	return IsTimeOfDay(value)
}

// sameValue compares a stored and a corrected field by value. An empty break is no break.
func sameValue(attr, original, corrected string) bool {
	if attr == "Break" {
		return ParseBreakMinutes(original) == ParseBreakMinutes(corrected)
	}
	return sameTimeOfDay(original, corrected)
}

func sameDay(a, b model.DayRecord) bool {
	return strings.TrimSpace(a.Client) == strings.TrimSpace(b.Client) &&
		sameTimeOfDay(a.Start, b.Start) &&
		sameTimeOfDay(a.End, b.End) &&
		ParseBreakMinutes(a.Break) == ParseBreakMinutes(b.Break) &&
		a.POA == b.POA &&
		a.OtherWork == b.OtherWork &&
		a.Review == b.Review &&
		a.NightOut == b.NightOut &&
		a.ExpenseAmount.Equal(b.ExpenseAmount) &&
		a.ExpenseReceipt == b.ExpenseReceipt &&
		sameRating(a.DriverRating, b.DriverRating) &&
		a.DriverComments == b.DriverComments
}

func sameRating(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// WeekChanged reports whether any day of b differs in value from the same day of a.
// Day totals are ignored since they are derived from the times.
func WeekChanged(a, b model.Week) bool {
	for i := range a {
		if !sameDay(a[i], b[i]) {
			return true
		}
	}
	return false
}

// DiffModifications keeps the proposed corrections that actually change a stored
// time field. The original value always comes from the stored timesheet. Empty
// corrections and values equal to the stored one are dropped. Returns nil when nothing
// changed.
func DiffModifications(ts *model.Timesheet, proposed model.Modifications) (model.Modifications, error) {
	fields := make([]string, 0, len(proposed))
	for f := range proposed {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out model.Modifications
	for _, f := range fields {
		day, attr, ok := parseField(f)
		if !ok {
			return nil, Validationf("field %q cannot be modified", f)
		}
		corrected := strings.TrimSpace(proposed[f].Corrected)
		if corrected == "" {
			continue
		}
		if !validCorrection(attr, corrected) {
			return nil, Validationf("invalid value %q for %s", corrected, f)
		}
		original := *dayField(&ts.Days[day], attr)
		if sameValue(attr, original, corrected) {
			continue
		}
		if out == nil {
			out = make(model.Modifications)
		}
		out[model.DayNames[day]+attr] = model.Modification{Original: original, Corrected: corrected}
	}
	return out, nil
}

// ApplyModifications writes corrected values into the timesheet and recomputes totals.
func ApplyModifications(ts *model.Timesheet, mods model.Modifications) {
	for f, m := range mods {
		day, attr, ok := parseField(f)
		if !ok {
			continue
		}
		*dayField(&ts.Days[day], attr) = m.Corrected
	}
	RecomputeTotals(ts)
}
