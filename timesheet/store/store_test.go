package store

import (
	"context"
	"testing"
	"time"

	"acceptrec.co.uk/timesheets/core"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dm, err := core.Open(sqlite.Open("file::memory:"), 1, core.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	require.NoError(t, dm.AutoMigrate(context.Background()))
	return dm.DB
}

func newTimesheet(userID, week string) *model.Timesheet {
	ts := &model.Timesheet{UserID: userID, DriverName: "Driver " + userID, WeekStartDate: week}
	ts.Days[1] = model.DayRecord{Client: "Client A", Start: "09:00", End: "17:00"}
	engine.RecomputeTotals(ts)
	return ts
}

func TestCreateTimesheetOnePerDriverPerWeek(t *testing.T) {
	db := newTestDB(t)

	first := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, model.StatusDraft, first.ApprovalStatus)

	err := CreateTimesheet(db, newTimesheet("u1", "2025-01-05"))
	assert.ErrorIs(t, err, engine.ErrConflict)

	require.NoError(t, CreateTimesheet(db, newTimesheet("u1", "2025-01-12")))
	require.NoError(t, CreateTimesheet(db, newTimesheet("u2", "2025-01-05")))

	loaded, err := GetTimesheet(db, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Client A", loaded.Days[1].Client)
	assert.Equal(t, 8.0, loaded.Days[1].Total)

	_, err = GetTimesheet(db, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestListTimesheetsFilters(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, CreateTimesheet(db, newTimesheet("u1", "2025-01-05")))
	require.NoError(t, CreateTimesheet(db, newTimesheet("u1", "2025-01-12")))
	require.NoError(t, CreateTimesheet(db, newTimesheet("u2", "2025-01-05")))

	tests := []struct {
		name     string
		filter   TimesheetFilter
		expected int
	}{
		{"No filter", TimesheetFilter{}, 3},
		{"By user", TimesheetFilter{UserID: "u1"}, 2},
		{"By week", TimesheetFilter{WeekStartDate: "2025-01-05"}, 2},
		{"By status", TimesheetFilter{Status: model.StatusApproved}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ListTimesheets(db, tt.filter)
			require.NoError(t, err)
			assert.Len(t, out, tt.expected)
		})
	}

	out, err := ListTimesheets(db, TimesheetFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-12", out[0].WeekStartDate)
}

func TestTransitionTimesheetConflict(t *testing.T) {
	db := newTestDB(t)
	ts := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, ts))

	require.NoError(t, engine.BeginReview(ts, "batch-1"))
	require.NoError(t, TransitionTimesheet(db, ts, model.StatusDraft))

	stale, err := GetTimesheet(db, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, stale.ApprovalStatus)
	assert.Equal(t, "batch-1", *stale.BatchID)

	first := *stale
	require.NoError(t, engine.ApplyReview(&first, engine.Review{
		Decision:   engine.DecisionApprove,
		ReviewedBy: "Manager",
		At:         time.Now(),
	}))
	require.NoError(t, TransitionTimesheet(db, &first, model.StatusPendingApproval))

	second := *stale
	require.NoError(t, engine.ApplyReview(&second, engine.Review{
		Decision:   engine.DecisionReject,
		ReviewedBy: "Other Manager",
		Comments:   "wrong",
		At:         time.Now(),
	}))
	err = TransitionTimesheet(db, &second, model.StatusPendingApproval)
	assert.ErrorIs(t, err, engine.ErrConflict)

	loaded, err := GetTimesheet(db, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, loaded.ApprovalStatus)
	assert.Equal(t, "Manager", *loaded.ClientApprovedBy)
}

func TestTransitionTimesheetStoresModifications(t *testing.T) {
	db := newTestDB(t)
	ts := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, ts))
	require.NoError(t, engine.BeginReview(ts, "batch-1"))
	require.NoError(t, TransitionTimesheet(db, ts, model.StatusDraft))

	mods, err := engine.DiffModifications(ts, model.Modifications{"mondayEnd": {Corrected: "16:00"}})
	require.NoError(t, err)
	require.NoError(t, engine.ApplyReview(ts, engine.Review{
		Decision:      engine.DecisionApprove,
		ReviewedBy:    "Manager",
		Modifications: mods,
		At:            time.Now(),
	}))
	require.NoError(t, TransitionTimesheet(db, ts, model.StatusPendingApproval))

	loaded, err := GetTimesheet(db, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, "16:00", loaded.Days[1].End)
	assert.Equal(t, 7.0, loaded.Days[1].Total)
	assert.Equal(t, model.Modification{Original: "17:00", Corrected: "16:00"}, loaded.ClientModifications["mondayEnd"])
}

func TestSoftDeleteAndRestoreTimesheet(t *testing.T) {
	db := newTestDB(t)
	ts := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, ts))

	require.NoError(t, SoftDeleteTimesheet(db, ts.ID, "admin-1"))

	_, err := GetTimesheet(db, ts.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	assert.ErrorIs(t, SoftDeleteTimesheet(db, ts.ID, "admin-1"), engine.ErrNotFound)

	deleted, err := ListDeletedTimesheets(db)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "admin-1", *deleted[0].DeletedBy)

	// a deleted timesheet frees the week
	replacement := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, replacement))
	assert.ErrorIs(t, RestoreTimesheet(db, ts.ID), engine.ErrConflict)

	require.NoError(t, SoftDeleteTimesheet(db, replacement.ID, "admin-1"))
	require.NoError(t, RestoreTimesheet(db, ts.ID))
	restored, err := GetTimesheet(db, ts.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedBy)

	assert.ErrorIs(t, RestoreTimesheet(db, ts.ID), engine.ErrNotFound)
}

func TestCountByStatus(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, CreateTimesheet(db, newTimesheet("u1", "2025-01-05")))
	approved := newTimesheet("u2", "2025-01-05")
	approved.ApprovalStatus = model.StatusApproved
	require.NoError(t, CreateTimesheet(db, approved))

	counts, err := CountByStatus(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.StatusDraft])
	assert.Equal(t, int64(1), counts[model.StatusApproved])
	assert.Equal(t, int64(0), counts[model.StatusRejected])

	week, err := LatestApprovedWeek(db)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", week)
}

func TestClientsSoftDeleteAndRestore(t *testing.T) {
	db := newTestDB(t)
	c := &model.Client{CompanyName: "Client A", ContactName: "Ann", Email: "ann@a.test", MinimumBillableHours: 8}
	require.NoError(t, CreateClient(db, c))
	require.NoError(t, CreateClient(db, &model.Client{CompanyName: "Beta Ltd", MinimumBillableHours: 6}))

	names, err := ClientNames(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Ltd", "Client A"}, names)

	require.NoError(t, UpdateClient(db, c.ID, map[string]any{"minimum_billable_hours": 10}))
	loaded, err := GetClient(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.MinimumBillableHours)

	require.NoError(t, SoftDeleteClient(db, c.ID, "admin-1"))
	active, err := ListClients(db)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.ErrorIs(t, UpdateClient(db, c.ID, map[string]any{"notes": "x"}), engine.ErrNotFound)

	deleted, err := ListDeletedClients(db)
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	require.NoError(t, RestoreClient(db, c.ID))
	active, err = ListClients(db)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestPrimaryContactSwitching(t *testing.T) {
	db := newTestDB(t)
	c := &model.Client{CompanyName: "Client A", MinimumBillableHours: 8}
	require.NoError(t, CreateClient(db, c))

	first := &model.ClientContact{ClientID: c.ID, Name: "Ann", Email: "ann@a.test", IsPrimary: true}
	second := &model.ClientContact{ClientID: c.ID, Name: "Bob", Email: "bob@a.test"}
	require.NoError(t, CreateContact(db, first))
	require.NoError(t, CreateContact(db, second))

	primary, err := PrimaryContact(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)

	_, err = SetPrimaryContact(db, second.ID)
	require.NoError(t, err)
	primary, err = PrimaryContact(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	third := &model.ClientContact{ClientID: c.ID, Name: "Cat", Email: "cat@a.test", IsPrimary: true}
	require.NoError(t, CreateContact(db, third))

	contacts, err := ListContacts(db, c.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	primaries := 0
	for _, contact := range contacts {
		if contact.IsPrimary {
			primaries++
			assert.Equal(t, third.ID, contact.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	require.NoError(t, DeleteContact(db, third.ID))
	primary, err = PrimaryContact(db, c.ID)
	require.NoError(t, err)
	assert.Nil(t, primary)
	assert.ErrorIs(t, DeleteContact(db, third.ID), engine.ErrNotFound)
}

func TestBatchMembershipAndStatus(t *testing.T) {
	db := newTestDB(t)
	linked := newTimesheet("u1", "2025-01-05")
	referenced := newTimesheet("u2", "2025-01-05")
	outsider := newTimesheet("u3", "2025-01-05")
	for _, ts := range []*model.Timesheet{linked, referenced, outsider} {
		require.NoError(t, CreateTimesheet(db, ts))
	}

	batch := &model.ApprovalBatch{
		ClientName:          "Client A",
		WeekStartDate:       "2025-01-05",
		ApprovalToken:       "token-1",
		ApprovalTokenExpiry: time.Now().Add(time.Hour),
		CreatedBy:           "admin-1",
	}
	require.NoError(t, CreateBatch(db, batch, []string{linked.ID}))
	assert.Equal(t, model.BatchPending, batch.Status)

	require.NoError(t, engine.BeginReview(linked, batch.ID))
	require.NoError(t, TransitionTimesheet(db, linked, model.StatusDraft))
	require.NoError(t, engine.BeginReview(referenced, batch.ID))
	require.NoError(t, TransitionTimesheet(db, referenced, model.StatusDraft))

	ids, err := BatchMemberIDs(db, batch.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{linked.ID, referenced.ID}, ids)

	ok, err := IsBatchMember(db, batch.ID, referenced.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = IsBatchMember(db, batch.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, engine.ApplyReview(linked, engine.Review{Decision: engine.DecisionApprove, ReviewedBy: "M", At: time.Now()}))
	require.NoError(t, TransitionTimesheet(db, linked, model.StatusPendingApproval))

	status, err := RefreshBatchStatus(db, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchPartial, status)

	found, err := FindBatchByToken(db, "token-1")
	require.NoError(t, err)
	assert.Equal(t, model.BatchPartial, found.Status)

	_, err = FindBatchByToken(db, "nope")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestCreateBatchRejectsDuplicateLinks(t *testing.T) {
	db := newTestDB(t)
	ts := newTimesheet("u1", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, ts))

	batch := &model.ApprovalBatch{
		ClientName:          "Client A",
		WeekStartDate:       "2025-01-05",
		ApprovalToken:       "token-1",
		ApprovalTokenExpiry: time.Now().Add(time.Hour),
		CreatedBy:           "admin-1",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return CreateBatch(tx, batch, []string{ts.ID, ts.ID})
	})
	require.Error(t, err)

	batches, err := ListBatches(db, BatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestAuditLog(t *testing.T) {
	db := newTestDB(t)
	tsID := "ts-1"
	require.NoError(t, AppendAudit(db, &model.ApprovalAuditLog{BatchID: "b1", Action: model.AuditBatchCreated, PerformedBy: "admin"}))
	require.NoError(t, AppendAudit(db, &model.ApprovalAuditLog{BatchID: "b1", TimesheetID: &tsID, Action: model.AuditApproved, PerformedBy: "Manager"}))
	require.NoError(t, AppendAudit(db, &model.ApprovalAuditLog{BatchID: "b2", Action: model.AuditLinkOpened}))

	entries, err := ListAudit(db, "b1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestClientBatchForTimesheet(t *testing.T) {
	db := newTestDB(t)
	ts := newTimesheet("u1", "2025-01-05")
	loose := newTimesheet("u2", "2025-01-05")
	require.NoError(t, CreateTimesheet(db, ts))
	require.NoError(t, CreateTimesheet(db, loose))

	clientID := "client-1"
	batch := &model.ApprovalBatch{
		ClientID:            &clientID,
		ClientName:          "Client A",
		WeekStartDate:       "2025-01-05",
		ApprovalToken:       "token-1",
		ApprovalTokenExpiry: time.Now().Add(time.Hour),
		CreatedBy:           "admin-1",
	}
	require.NoError(t, CreateBatch(db, batch, []string{ts.ID}))

	found, err := ClientBatchForTimesheet(db, ts.ID, clientID)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, found.ID)

	_, err = ClientBatchForTimesheet(db, ts.ID, "client-2")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = ClientBatchForTimesheet(db, loose.ID, clientID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
