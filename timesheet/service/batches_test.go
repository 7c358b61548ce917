package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditActions(t *testing.T, f *fixture, batchID string) []model.AuditAction {
	t.Helper()
	entries, err := f.svc.BatchAuditLog(context.Background(), admin, batchID)
	require.NoError(t, err)
	out := make([]model.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func TestApprovalWorkflowByToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	client := f.createClient(t, "Client A Ltd", "accounts@client-a.test")
	_, err := f.svc.CreateContact(ctx, admin, client.ID, ContactInput{Name: "Site Manager", Email: "manager@client-a.test", IsPrimary: true})
	require.NoError(t, err)

	first := f.createTimesheet(t, driver, "Client A")
	second := f.createTimesheet(t, other, "Client A")

	eligible, err := f.svc.EligibleTimesheets(ctx, admin, "Client A", week)
	require.NoError(t, err)
	assert.Len(t, eligible, 2)

	res, err := f.svc.CreateBatch(ctx, admin, BatchRequest{
		ClientName:    "Client A",
		WeekStartDate: week,
		TimesheetIDs:  []string{first.ID, second.ID},
		SendEmail:     true,
	}, info)
	require.NoError(t, err)
	batch := res.Batch
	assert.Equal(t, EmailSent, res.EmailStatus)
	require.NotNil(t, batch.ClientID)
	assert.Equal(t, client.ID, *batch.ClientID)
	assert.Len(t, batch.ApprovalToken, 64)
	assert.WithinDuration(t, testNow.Add(DefaultApprovalTTL), batch.ApprovalTokenExpiry, time.Minute)
	assert.Equal(t, "https://portal.acceptrec.co.uk/approve/"+batch.ApprovalToken, res.Link)

	require.Len(t, f.mailer.sent, 1)
	email := f.mailer.sent[0]
	assert.Equal(t, []string{"manager@client-a.test"}, email.To)
	assert.Equal(t, DefaultSender, email.From)
	assert.Equal(t, "Timesheet Approval Required - Week of 5 January 2025", email.Subject)
	assert.Contains(t, email.HTML, res.Link)
	assert.Contains(t, email.HTML, "Dear Client A,")

	eligible, err = f.svc.EligibleTimesheets(ctx, admin, "Client A", week)
	require.NoError(t, err)
	assert.Empty(t, eligible)

	page, err := f.svc.ApprovalPage(ctx, batch.ApprovalToken, info)
	require.NoError(t, err)
	assert.Equal(t, 8.0, page.MinimumBillableHours)
	require.Len(t, page.Timesheets, 2)
	for _, ts := range page.Timesheets {
		assert.Equal(t, model.StatusPendingApproval, ts.ApprovalStatus)
		assert.Equal(t, 14.0, ts.ActualHours)
		require.Len(t, ts.Breakdown, 2)
		assert.True(t, ts.Breakdown[0].BelowMinimum)
		assert.Equal(t, 8.0, ts.Breakdown[0].BillableHours)
	}

	rating := 9
	approved, err := f.svc.ReviewByToken(ctx, batch.ApprovalToken, first.ID, ReviewInput{
		Decision:   engine.DecisionApprove,
		ReviewedBy: "Site Manager",
		Rating:     &rating,
		Modifications: model.Modifications{
			"mondayEnd":   {Original: "bogus", Corrected: "16:00"},
			"tuesdayEnd":  {Corrected: "17:30"},
			"mondayStart": {Corrected: ""},
		},
	}, info)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.ApprovalStatus)
	assert.Equal(t, model.Modifications{"mondayEnd": {Original: "15:00", Corrected: "16:00"}}, approved.ClientModifications)
	assert.Equal(t, 7.0, approved.Days[1].Total)
	require.NotNil(t, approved.ClientApprovedBy)
	assert.Equal(t, "Site Manager", *approved.ClientApprovedBy)

	detail, err := f.svc.GetBatch(ctx, admin, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchPartial, detail.Batch.Status)

	_, err = f.svc.ReviewByToken(ctx, batch.ApprovalToken, second.ID, ReviewInput{
		Decision:   engine.DecisionReject,
		ReviewedBy: "Site Manager",
	}, info)
	assert.ErrorIs(t, err, engine.ErrValidation)

	_, err = f.svc.ReviewByToken(ctx, batch.ApprovalToken, second.ID, ReviewInput{
		Decision:   engine.DecisionReject,
		ReviewedBy: "Site Manager",
		Comments:   "Driver was not on site on Tuesday",
	}, info)
	require.NoError(t, err)

	detail, err = f.svc.GetBatch(ctx, admin, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchRejected, detail.Batch.Status)

	_, err = f.svc.ReviewByToken(ctx, batch.ApprovalToken, first.ID, ReviewInput{
		Decision:   engine.DecisionApprove,
		ReviewedBy: "Site Manager",
	}, info)
	assert.ErrorIs(t, err, engine.ErrInvalidTransition)

	assert.Equal(t, []model.AuditAction{
		model.AuditBatchCreated,
		model.AuditLinkSent,
		model.AuditLinkOpened,
		model.AuditApproved,
		model.AuditRejected,
	}, auditActions(t, f, batch.ID))
	assert.Len(t, f.notifier.infos, 2)
}

func TestApprovalLinkErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ts := f.createTimesheet(t, driver, "Client A")
	outsider := f.createTimesheet(t, other, "Client A")
	batch := f.createBatch(t, "Client A", ts.ID)

	approve := ReviewInput{Decision: engine.DecisionApprove, ReviewedBy: "Site Manager"}

	_, err := f.svc.ApprovalPage(ctx, "unknown", info)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = f.svc.ReviewByToken(ctx, "unknown", ts.ID, approve, info)
	assert.ErrorIs(t, err, engine.ErrAccessDenied)

	_, err = f.svc.ReviewByToken(ctx, batch.ApprovalToken, outsider.ID, approve, info)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	f.advance(DefaultApprovalTTL + time.Minute)

	_, err = f.svc.ApprovalPage(ctx, batch.ApprovalToken, info)
	assert.ErrorIs(t, err, engine.ErrTokenExpired)

	_, err = f.svc.ReviewByToken(ctx, batch.ApprovalToken, ts.ID, approve, info)
	assert.ErrorIs(t, err, engine.ErrTokenExpired)

	loaded, err := f.svc.GetTimesheet(ctx, admin, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, loaded.ApprovalStatus)
}

func TestCreateBatchValidatesEveryMemberFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	batched := f.createTimesheet(t, driver, "Client A")
	f.createBatch(t, "Client A", batched.ID)

	fresh := f.createTimesheet(t, other, "Client A")
	elsewhere, err := f.svc.CreateTimesheet(ctx, admin, TimesheetInput{
		UserID:        "driver-3",
		DriverName:    "Sam Driver",
		WeekStartDate: week,
		Days:          workWeek("Other Haulage"),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"already batched", []string{fresh.ID, batched.ID}, engine.ErrInvalidTransition},
		{"unknown timesheet", []string{fresh.ID, "missing"}, engine.ErrNotFound},
		{"not worked for client", []string{fresh.ID, elsewhere.ID}, engine.ErrValidation},
		{"listed twice", []string{fresh.ID, fresh.ID}, engine.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBatch(ctx, admin, BatchRequest{ClientName: "Client A", WeekStartDate: week, TimesheetIDs: tt.ids}, info)
			assert.ErrorIs(t, err, tt.want)

			loaded, err := f.svc.GetTimesheet(ctx, admin, fresh.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusDraft, loaded.ApprovalStatus)
			assert.Nil(t, loaded.BatchID)
		})
	}

	batches, err := f.svc.ListBatches(ctx, admin, store.BatchFilter{})
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	_, err = f.svc.CreateBatch(ctx, driver, BatchRequest{ClientName: "Client A", WeekStartDate: week, TimesheetIDs: []string{fresh.ID}}, info)
	assert.ErrorIs(t, err, engine.ErrAccessDenied)
}

func TestCreateBatchKeepsBatchWhenEmailFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createClient(t, "Client A", "accounts@client-a.test")
	ts := f.createTimesheet(t, driver, "Client A")
	f.mailer.err = errors.New("ses unavailable")

	res, err := f.svc.CreateBatch(ctx, admin, BatchRequest{
		ClientName:    "Client A",
		WeekStartDate: week,
		TimesheetIDs:  []string{ts.ID},
		SendEmail:     true,
	}, info)
	require.NoError(t, err)
	assert.Equal(t, EmailFailed, res.EmailStatus)
	assert.Contains(t, res.EmailError, "ses unavailable")

	detail, err := f.svc.GetBatch(ctx, admin, res.Batch.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Batch.SentAt)
	assert.Len(t, detail.Timesheets, 1)
}

func TestSendBatchEmailRecipientFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	withContact := f.createClient(t, "Client A", "accounts@client-a.test")
	_, err := f.svc.CreateContact(ctx, admin, withContact.ID, ContactInput{Name: "Site Manager", Email: "manager@client-a.test", IsPrimary: true})
	require.NoError(t, err)
	withoutContact := f.createClient(t, "Client B", "accounts@client-b.test")

	newBatch := func(name string, clientID *string) *model.ApprovalBatch {
		b := &model.ApprovalBatch{
			ClientID:            clientID,
			ClientName:          name,
			WeekStartDate:       week,
			ApprovalToken:       name + "-token",
			ApprovalTokenExpiry: testNow.Add(time.Hour),
			CreatedBy:           admin.UserID,
		}
		require.NoError(t, store.CreateBatch(f.svc.dm.DB, b, nil))
		return b
	}

	tests := []struct {
		name     string
		batch    *model.ApprovalBatch
		explicit string
		want     string
	}{
		{"explicit recipient", newBatch("Explicit", &withContact.ID), "boss@client-a.test", "boss@client-a.test"},
		{"primary contact", newBatch("Primary", &withContact.ID), "", "manager@client-a.test"},
		{"client email", newBatch("Client", &withoutContact.ID), "", "accounts@client-b.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent, err := f.svc.SendBatchEmail(ctx, admin, tt.batch.ID, tt.explicit, info)
			require.NoError(t, err)
			require.NotNil(t, sent.SentToEmail)
			assert.Equal(t, tt.want, *sent.SentToEmail)
			assert.Equal(t, []string{tt.want}, f.mailer.sent[len(f.mailer.sent)-1].To)
		})
	}

	t.Run("no recipient", func(t *testing.T) {
		b := newBatch("Nobody", nil)
		_, err := f.svc.SendBatchEmail(ctx, admin, b.ID, "", info)
		assert.ErrorIs(t, err, engine.ErrValidation)
	})

	t.Run("resend", func(t *testing.T) {
		b := tests[1].batch
		_, err := f.svc.SendBatchEmail(ctx, admin, b.ID, "", info)
		require.NoError(t, err)
		assert.Equal(t, []model.AuditAction{model.AuditLinkSent, model.AuditEmailResent}, auditActions(t, f, b.ID))
	})
}

func TestClientPortalReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	clientA := f.createClient(t, "Client A", "accounts@client-a.test")
	clientB := f.createClient(t, "Client B", "accounts@client-b.test")

	tsA := f.createTimesheet(t, driver, "Client A")
	tsB := f.createTimesheet(t, other, "Client B")
	batchA := f.createBatch(t, "Client A", tsA.ID)
	f.createBatch(t, "Client B", tsB.ID)

	portalA := security.Principal{UserID: "client-user", Name: "Site Manager", Email: "manager@client-a.test", Role: security.RoleClient, ClientID: clientA.ID}
	approve := ReviewInput{Decision: engine.DecisionApprove, ReviewedBy: "someone else"}

	_, err := f.svc.ClientReview(ctx, portalA, "", tsB.ID, approve, info)
	assert.ErrorIs(t, err, engine.ErrAccessDenied)
	loaded, err := f.svc.GetTimesheet(ctx, admin, tsB.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, loaded.ApprovalStatus)

	batches, err := f.svc.ClientBatches(ctx, portalA, "")
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batchA.ID, batches[0].ID)

	_, err = f.svc.ClientBatchTimesheets(ctx, portalA, "", batches[0].ID)
	require.NoError(t, err)

	reviewed, err := f.svc.ClientReview(ctx, portalA, "", tsA.ID, approve, info)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, reviewed.ApprovalStatus)
	assert.Equal(t, "Site Manager", *reviewed.ClientApprovedBy)

	superAdmin := security.Principal{UserID: "root", Email: "root@acceptrec.co.uk", Role: security.RoleSuperAdmin}
	company, err := f.svc.ClientCompany(ctx, superAdmin, clientB.ID)
	require.NoError(t, err)
	assert.Equal(t, "Client B", company.CompanyName)

	reviewed, err = f.svc.ClientReview(ctx, superAdmin, clientB.ID, tsB.ID, ReviewInput{Decision: engine.DecisionReject, Comments: "Wrong site"}, info)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, reviewed.ApprovalStatus)
	assert.Equal(t, "root@acceptrec.co.uk", *reviewed.ClientApprovedBy)

	_, err = f.svc.ClientBatches(ctx, admin, "")
	assert.ErrorIs(t, err, engine.ErrAccessDenied)
}
