package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"acceptrec.co.uk/timesheets/core"
	"acceptrec.co.uk/timesheets/infrastructure/communication"
	"acceptrec.co.uk/timesheets/security"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*communication.EmailInfo
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, info *communication.EmailInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, info)
	return nil
}

type fakeNotifier struct {
	infos  []string
	errors []string
}

func (n *fakeNotifier) Info(message string) error {
	n.infos = append(n.infos, message)
	return nil
}

func (n *fakeNotifier) Error(message string) error {
	n.errors = append(n.errors, message)
	return nil
}

type fakeFiles struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeFiles) WriteFile(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFiles) ReadFile(ctx context.Context, key string, w io.Writer) (string, error) {
	data, ok := f.objects[key]
	if !ok {
		return "", errors.New("no such key")
	}
	_, err := w.Write(data)
	return f.types[key], err
}

func (f *fakeFiles) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

var (
	testNow = time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	week    = "2025-01-05"

	admin  = security.Principal{UserID: "admin-1", Name: "Office Admin", Email: "office@acceptrec.co.uk", Role: security.RoleAdmin}
	driver = security.Principal{UserID: "driver-1", Name: "Jane Driver", Role: security.RoleDriver}
	other  = security.Principal{UserID: "driver-2", Name: "John Driver", Role: security.RoleDriver}
	info   = RequestInfo{IPAddress: "203.0.113.7", UserAgent: "test"}
)

// tickingClock moves forward a second per reading so audit entries keep their order.
type tickingClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *tickingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(time.Second)
	return c.at
}

type fixture struct {
	svc      *Service
	clock    *tickingClock
	mailer   *fakeMailer
	notifier *fakeNotifier
	files    *fakeFiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dm, err := core.Open(sqlite.Open("file::memory:"), 1, core.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	require.NoError(t, dm.AutoMigrate(context.Background()))

	f := &fixture{
		clock:    &tickingClock{at: testNow},
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
		files:    newFakeFiles(),
	}
	f.svc = New(dm, Dependencies{
		Mailer:   f.mailer,
		Notifier: f.notifier,
		Files:    f.files,
	}, Options{BaseURL: "https://portal.acceptrec.co.uk/"})
	f.svc.now = f.clock.now
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock.mu.Lock()
	defer f.clock.mu.Unlock()
	f.clock.at = f.clock.at.Add(d)
}

// workWeek has a 6 hour Monday and an 8 hour Tuesday for the given client.
func workWeek(client string) model.Week {
	var days model.Week
	days[1] = model.DayRecord{Client: client, Start: "09:00", End: "15:00", Break: "0"}
	days[2] = model.DayRecord{Client: client, Start: "09:00", End: "17:30", Break: "30"}
	return days
}

func (f *fixture) createClient(t *testing.T, name, email string) *model.Client {
	t.Helper()
	c, err := f.svc.CreateClient(context.Background(), admin, ClientInput{
		CompanyName: name,
		ContactName: "Accounts",
		Email:       email,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) createTimesheet(t *testing.T, p security.Principal, client string) *model.Timesheet {
	t.Helper()
	ts, err := f.svc.CreateTimesheet(context.Background(), p, TimesheetInput{
		WeekStartDate: week,
		Days:          workWeek(client),
	})
	require.NoError(t, err)
	return ts
}

func (f *fixture) createBatch(t *testing.T, client string, ids ...string) *model.ApprovalBatch {
	t.Helper()
	res, err := f.svc.CreateBatch(context.Background(), admin, BatchRequest{
		ClientName:    client,
		WeekStartDate: week,
		TimesheetIDs:  ids,
	}, info)
	require.NoError(t, err)
	return res.Batch
}

func readAll(t *testing.T, fn func(w io.Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	return buf.String()
}
