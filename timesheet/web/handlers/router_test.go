package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"acceptrec.co.uk/timesheets/core"
	"acceptrec.co.uk/timesheets/security"
	"acceptrec.co.uk/timesheets/timesheet/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var (
	secret = []byte("handler-test-secret")

	admin  = security.Principal{UserID: "admin-1", Name: "Office Admin", Role: security.RoleAdmin}
	driver = security.Principal{UserID: "driver-1", Name: "Jane Driver", Role: security.RoleDriver}
	client = security.Principal{UserID: "client-user", Name: "Site Manager", Role: security.RoleClient, ClientID: "client-1"}
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dm, err := core.Open(sqlite.Open("file::memory:"), 1, core.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	require.NoError(t, dm.AutoMigrate(context.Background()))

	svc := service.New(dm, service.Dependencies{}, service.Options{BaseURL: "https://portal.acceptrec.co.uk"})
	return NewRouter(svc, RouterOptions{Secret: secret, AllowOrigins: []string{"https://portal.acceptrec.co.uk"}})
}

func bearer(t *testing.T, p security.Principal) string {
	t.Helper()
	token, err := security.CreateIdentityToken(p, secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, r *gin.Engine, method, path, auth string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func weekBody(clientName string) map[string]any {
	days := make([]map[string]any, 7)
	for i := range days {
		days[i] = map[string]any{}
	}
	days[1] = map[string]any{"client": clientName, "start": "09:00", "end": "15:00", "break": "0"}
	days[2] = map[string]any{"client": clientName, "start": "09:00", "end": "17:30", "break": "30"}
	return map[string]any{"weekStartDate": "2025-01-05", "days": days}
}

func TestPing(t *testing.T) {
	r := newRouter(t)
	w, _ := do(t, r, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestAuthentication(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"No credentials", "", http.StatusUnauthorized},
		{"Not a bearer token", "Basic abc", http.StatusUnauthorized},
		{"Bad signature", "Bearer not-a-token", http.StatusUnauthorized},
		{"Driver", bearer(t, driver), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, http.MethodGet, "/api/timesheets", tt.auth, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("Session cookie", func(t *testing.T) {
		token, err := security.CreateIdentityToken(driver, secret, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/timesheets", nil)
		req.AddCookie(&http.Cookie{Name: "acceptrec.session", Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRoles(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		p    security.Principal
		path string
		want int
	}{
		{"Driver cannot list clients", driver, "/api/clients", http.StatusForbidden},
		{"Admin lists clients", admin, "/api/clients", http.StatusOK},
		{"Driver reads client names", driver, "/api/clients/names", http.StatusOK},
		{"Driver cannot see payroll", driver, "/api/payroll", http.StatusForbidden},
		{"Client cannot see batches", client, "/api/approval-batches", http.StatusForbidden},
		{"Driver cannot open the portal", driver, "/api/client/approval-batches", http.StatusForbidden},
		{"Client opens the portal", client, "/api/client/approval-batches", http.StatusOK},
		{"Admin without impersonation", admin, "/api/client/approval-batches", http.StatusForbidden},
		{"Admin reads driver performance", admin, "/api/reports/driver-performance", http.StatusOK},
		{"Driver cannot read client feedback", driver, "/api/reports/client-feedback", http.StatusForbidden},
		{"Client cannot read client feedback", client, "/api/reports/client-feedback", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, http.MethodGet, tt.path, bearer(t, tt.p), nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreateTimesheetBinding(t *testing.T) {
	r := newRouter(t)
	auth := bearer(t, driver)

	monday := weekBody("Client A")
	monday["weekStartDate"] = "2025-01-06"
	short := weekBody("Client A")
	short["days"] = short["days"].([]map[string]any)[:6]
	badTime := weekBody("Client A")
	badTime["days"].([]map[string]any)[3] = map[string]any{"start": "7am"}
	badBreak := weekBody("Client A")
	badBreak["days"].([]map[string]any)[3] = map[string]any{"break": "30.5"}

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"Week not on a Sunday", monday, "Field 'weekStartDate' must be a Sunday in yyyy-MM-dd format"},
		{"Six days", short, "Field 'days' must have length 7"},
		{"Bad time", badTime, "Field 'start' must be a time in HH:MM format"},
		{"Fractional break", badBreak, "Field 'break' must be a whole number of minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/timesheets", auth, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, env.Message)
		})
	}

	w, _ := do(t, r, http.MethodPost, "/api/timesheets", auth, weekBody("Client A"))
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/timesheets", auth, weekBody("Client A"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPublicApprovalFlow(t *testing.T) {
	r := newRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/timesheets", bearer(t, driver), weekBody("Client A Ltd"))
	require.Equal(t, http.StatusCreated, w.Code)
	var ts struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ts))

	w, env = do(t, r, http.MethodPost, "/api/approval-batches", bearer(t, admin), map[string]any{
		"clientName":    "Client A",
		"weekStartDate": "2025-01-05",
		"timesheetIds":  []string{ts.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.BatchResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	token := created.Batch.ApprovalToken
	assert.Equal(t, "https://portal.acceptrec.co.uk/approve/"+token, created.Link)
	assert.Equal(t, service.EmailNotRequested, created.EmailStatus)

	w, env = do(t, r, http.MethodGet, "/api/approve/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.BatchDetail
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 8.0, page.MinimumBillableHours)
	require.Len(t, page.Timesheets, 1)
	assert.Equal(t, 14.0, page.Timesheets[0].ActualHours)

	w, env = do(t, r, http.MethodPost, "/api/approve/"+token+"/"+ts.ID, "", map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Field 'approvedBy' is required", env.Message)

	w, env = do(t, r, http.MethodPost, "/api/reject/"+token+"/"+ts.ID, "", map[string]any{"rejectedBy": "Site Manager"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Field 'comments' is required", env.Message)

	w, env = do(t, r, http.MethodPost, "/api/approve/"+token+"/"+ts.ID, "", map[string]any{
		"approvedBy": "Site Manager",
		"rating":     9,
		"comments":   "Good week",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var approved struct {
		ApprovalStatus   string  `json:"approvalStatus"`
		ClientApprovedBy *string `json:"clientApprovedBy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, "approved", approved.ApprovalStatus)
	require.NotNil(t, approved.ClientApprovedBy)
	assert.Equal(t, "Site Manager", *approved.ClientApprovedBy)

	w, _ = do(t, r, http.MethodGet, "/api/approve/not-a-real-token", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/approve/not-a-real-token/"+ts.ID, "", map[string]any{"approvedBy": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/approval-batches/"+created.Batch.ID+"/audit-log", bearer(t, admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.NotEmpty(t, entries)
}

func TestPayrollExport(t *testing.T) {
	r := newRouter(t)
	auth := bearer(t, admin)

	w, _ := do(t, r, http.MethodGet, "/api/payroll/export?format=csv", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="Payroll_Report_`)
	assert.Contains(t, w.Body.String(), "Week Start,Client,Driver")

	w, env := do(t, r, http.MethodGet, "/api/payroll/export?format=pdf", auth, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Field 'format' must be one of xlsx csv", env.Message)

	w, env = do(t, r, http.MethodPost, "/api/payroll/send", auth, map[string]any{"email": "payroll@acceptrec.co.uk"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, env.Message, "no approved timesheets found")
}
