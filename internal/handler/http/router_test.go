package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/repository/memory"
	complianceService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/compliance"
	ledgerService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/ledger"
	publishService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/publish"
	scheduleService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/schedule"
	workperiodService "github.com/cmlabs-hris/timeledger-backend-go/internal/service/workperiod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// switchableLedger fails appends with a storage error while down is set.
type switchableLedger struct {
	ledger.Service
	down bool
}

func (s *switchableLedger) Append(ctx context.Context, req ledger.AppendRequest) (ledger.TimeEvent, error) {
	if s.down {
		return ledger.TimeEvent{}, fmt.Errorf("failed to lock chain head: %w", database.ErrStorageUnavailable)
	}
	return s.Service.Append(ctx, req)
}

type testServer struct {
	router     http.Handler
	jwt        jwt.Service
	ledger     *switchableLedger
	ledgerRepo *memory.LedgerRepository
	queue      *offline.Queue
	metrics    *metrics.Collector
	hub        *sse.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerAt(t, time.Now)
}

// newTestServerAt builds the server with every service reading clock.
func newTestServerAt(t *testing.T, clock func() time.Time) *testServer {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	for _, e := range []employee.Employee{
		{ID: "emp-1", CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "emp-2", CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive},
		{ID: "emp-9", CompanyID: "co-2", EmploymentStatus: employee.EmploymentStatusActive},
	} {
		require.NoError(t, employees.Save(ctx, e))
	}

	queue, err := offline.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })

	policies := policy.Static(policy.Default())
	collector := metrics.New()
	hub := sse.NewHub()
	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)

	ledgerRepo := memory.NewLedgerRepository(store)
	ls := &switchableLedger{Service: ledgerService.NewLedgerService(store, ledgerRepo, ledgerService.WithMetrics(collector))}
	shifts := memory.NewShiftRepository(store)
	excRepo := memory.NewExceptionRepository(store)
	periods := workperiodService.NewWorkPeriodService(store, ls, memory.NewCorrectionRepository(store)).WithClock(clock)
	schedules := scheduleService.NewScheduleService(store, shifts, memory.NewVersionRepository(store), employees, policies)
	cs := complianceService.NewComplianceService(employees, periods, schedules, excRepo, policies, collector).WithClock(clock)
	es := complianceService.NewExceptionService(store, excRepo, employees, 0).WithClock(clock)
	ps := publishService.NewPublishService(store, cs, schedules, shifts, excRepo, memory.NewPublicationRepository(store), policies, collector).WithClock(clock)

	router := NewRouter(RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		JWTService:     jwtService,
		EmployeeRepo:   employees,
		Metrics:        collector,
	}, Handlers{
		TimeEvent:    NewTimeEventHandler(ls, employees, queue, collector),
		WorkPeriod:   NewWorkPeriodHandler(periods, policies),
		Compliance:   NewComplianceHandler(cs, es, employees, policies),
		Schedule:     NewScheduleHandler(schedules),
		Publish:      NewPublishHandler(ps),
		Notification: NewNotificationHandler(hub, jwtService),
		Metrics:      NewMetricsHandler(collector, hub, queue),
	})

	return &testServer{
		router:     router,
		jwt:        jwtService,
		ledger:     ls,
		ledgerRepo: ledgerRepo,
		queue:      queue,
		metrics:    collector,
		hub:        hub,
	}
}

func (s *testServer) employeeToken(t *testing.T, employeeID, companyID string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(auth.Claims{
		UserID: "user-" + employeeID, CompanyID: companyID, EmployeeID: &employeeID, Role: auth.RoleEmployee,
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) managerToken(t *testing.T, companyID string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(auth.Claims{UserID: "mgr-" + companyID, CompanyID: companyID, Role: auth.RoleManager})
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func at(d, h, m int) time.Time {
	return time.Date(2026, 3, d, h, m, 0, 0, time.UTC)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", "", map[string]string{"kind": "clock_in"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", "not-a-token", map[string]string{"kind": "clock_in"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sse, _, err := s.jwt.GenerateSSEToken(auth.Claims{UserID: "u", CompanyID: "co-1", Role: auth.RoleManager})
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/compliance/summary", sse, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "SSE tokens are not access tokens")
}

func TestAppendTimeEvent(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")

	ts := at(2, 9, 0)
	rec, resp := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{
		"kind": "clock_in", "timestamp": ts,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var event ledger.TimeEventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &event))
	assert.Equal(t, "emp-1", event.EmployeeID)
	assert.Equal(t, int64(1), event.Sequence)
	assert.Equal(t, ledger.GenesisHash, event.PreviousHash)
	assert.Len(t, event.Hash, 64)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{
		"kind": "clock_in", "timestamp": at(2, 9, 5),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeSequenceError, resp.Error.Code)
	assert.Equal(t, string(ledger.ReasonAlreadyClockedIn), resp.Error.Details["reason"])

	rec, resp = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "lunch"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "kind")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_out", "extra": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeScope(t *testing.T) {
	s := newTestServer(t)

	own := s.employeeToken(t, "emp-1", "co-1")
	rec, _ := s.do(t, http.MethodGet, "/api/v1/employees/emp-1/time-events", own, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/emp-2/time-events", own, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", own, map[string]string{"employee_id": "emp-2", "kind": "clock_in"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mgr := s.managerToken(t, "co-1")
	rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/emp-2/time-events", mgr, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/emp-9/time-events", mgr, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other company's employees are invisible")

	rec, _ = s.do(t, http.MethodGet, "/api/v1/compliance/summary", own, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAppend_QueuesWhenStorageUnavailable(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")

	s.ledger.down = true
	rec, resp := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{
		"kind": "clock_in", "timestamp": at(2, 9, 0),
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var queued QueuedTimeEventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &queued))
	assert.True(t, queued.Queued)
	assert.Equal(t, at(2, 9, 0), queued.Timestamp)

	// storage is back but the earlier action is still queued
	s.ledger.down = false
	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{
		"kind": "clock_out", "timestamp": at(2, 17, 0),
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	stats, err := s.queue.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, uint64(2), s.metrics.Snapshot()["offlineQueuedTotal"])

	// another employee is unaffected
	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", s.employeeToken(t, "emp-2", "co-1"), map[string]interface{}{
		"kind": "clock_in", "timestamp": at(2, 9, 0),
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestVerifyChain(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")
	for _, e := range []struct {
		kind string
		ts   time.Time
	}{{"clock_in", at(2, 9, 0)}, {"clock_out", at(2, 17, 0)}} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": e.kind, "timestamp": e.ts})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp := s.do(t, http.MethodGet, "/api/v1/employees/emp-1/chain/verify", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v ledger.Verification
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	assert.True(t, v.Valid)
	assert.Equal(t, int64(2), v.Length)

	require.NoError(t, s.ledgerRepo.Corrupt("emp-1", 2, func(e *ledger.TimeEvent) {
		e.Timestamp = e.Timestamp.Add(time.Hour)
	}))

	rec, resp = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/chain/verify", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeChainBroken, resp.Error.Code)
	assert.Equal(t, "2", resp.Error.Details["sequence"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/work-periods?start_date=2026-03-02&end_date=2026-03-02", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "periods are never built from a broken chain")
	assert.Equal(t, response.CodeChainBroken, resp.Error.Code)
}

func TestWorkPeriodsAndBreak(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_in", "timestamp": at(2, 9, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, resp := s.do(t, http.MethodPost, "/api/v1/time-events/break", token, map[string]interface{}{
		"break_start": at(2, 12, 0), "resume_at": at(2, 12, 30),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pair []ledger.TimeEventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &pair))
	require.Len(t, pair, 2)
	assert.Equal(t, ledger.SourceBreak, pair[0].Source)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_out", "timestamp": at(2, 17, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/work-periods?start_date=2026-03-02&end_date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var periods []struct {
		DurationMinutes int64 `json:"duration_minutes"`
		IsActive        bool  `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &periods))
	require.Len(t, periods, 2)
	assert.Equal(t, int64(180), periods[0].DurationMinutes)
	assert.Equal(t, int64(270), periods[1].DurationMinutes)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/work-periods?start_date=2026-03-05&end_date=2026-03-02", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCorrectionReview(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")
	rec, resp := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_in", "timestamp": at(2, 9, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)
	var in ledger.TimeEventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &in))

	rec, resp = s.do(t, http.MethodPost, "/api/v1/employees/emp-1/corrections", token, map[string]interface{}{
		"clock_in_event_id": in.ID,
		"corrected_end":     at(2, 17, 0),
		"reason":            "forgot to clock out",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var correction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &correction))
	assert.Equal(t, "pending", correction.Status)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/corrections/"+correction.ID+"/approve", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mgr := s.managerToken(t, "co-1")
	rec, _ = s.do(t, http.MethodPost, "/api/v1/corrections/"+correction.ID+"/approve", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do(t, http.MethodPost, "/api/v1/corrections/"+correction.ID+"/reject", mgr, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/work-periods?start_date=2026-03-02&end_date=2026-03-02", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var periods []struct {
		IsActive  bool              `json:"is_active"`
		Overrides []json.RawMessage `json:"overrides"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &periods))
	require.Len(t, periods, 1)
	assert.False(t, periods[0].IsActive)
	assert.Len(t, periods[0].Overrides, 1)
}

func TestCorrection_EndBeforeRecordedStart(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")
	rec, resp := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_in", "timestamp": at(2, 9, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)
	var in ledger.TimeEventResponse
	require.NoError(t, json.Unmarshal(resp.Data, &in))
	rec, _ = s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_out", "timestamp": at(2, 17, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/employees/emp-1/corrections", token, map[string]interface{}{
		"clock_in_event_id": in.ID,
		"corrected_end":     at(2, 8, 0),
		"reason":            "typo",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	require.NotNil(t, resp.Error)
	assert.Equal(t, response.CodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "corrected_end")
}

func TestFindingsAndExceptions(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")
	for _, e := range []struct {
		kind string
		ts   time.Time
	}{
		{"clock_in", at(2, 9, 0)}, {"clock_out", at(2, 17, 0)},
		{"clock_in", at(2, 17, 20)}, {"clock_out", at(2, 19, 0)},
	} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": e.kind, "timestamp": e.ts})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp := s.do(t, http.MethodGet, "/api/v1/employees/emp-1/findings?start_date=2026-03-02&end_date=2026-03-08", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var findings EmployeeFindingsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &findings))
	assert.Equal(t, 1, findings.Summary.Total)
	require.Len(t, findings.Findings, 1)
	assert.Equal(t, int64(40), findings.Findings[0].Overage)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/compliance/exceptions", token, map[string]interface{}{
		"rule_type":    "rest_period_insufficient",
		"kind":         "waiver",
		"window_start": at(2, 0, 0),
		"window_end":   at(3, 0, 0),
		"reason":       "stocktake",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var exc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &exc))

	mgr := s.managerToken(t, "co-1")
	rec, _ = s.do(t, http.MethodGet, "/api/v1/compliance/exceptions?status=bogus", mgr, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/compliance/exceptions/"+exc.ID+"/approve", s.managerToken(t, "co-2"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/compliance/exceptions/"+exc.ID+"/approve", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, resp = s.do(t, http.MethodGet, "/api/v1/compliance/summary?start_date=2026-03-02&end_date=2026-03-08", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Zero(t, summary.Summary.Total)
}

func TestPublishFlow(t *testing.T) {
	s := newTestServer(t)
	mgr := s.managerToken(t, "co-1")
	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

	for _, sh := range [][2]time.Time{
		{day.Add(9 * time.Hour), day.Add(17 * time.Hour)},
		{day.Add(17*time.Hour + 20*time.Minute), day.Add(19 * time.Hour)},
	} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/shifts", mgr, map[string]interface{}{
			"employee_id": "emp-1", "start_time": sh[0], "end_time": sh[1],
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	body := map[string]interface{}{"start_date": "2030-01-07", "end_date": "2030-01-13"}
	rec, resp := s.do(t, http.MethodPost, "/api/v1/publish/evaluate", mgr, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var eval struct {
		Fingerprint            string `json:"fingerprint"`
		RequiresAcknowledgment bool   `json:"requires_acknowledgment"`
		ScheduleVersion        int64  `json:"schedule_version"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &eval))
	assert.True(t, eval.RequiresAcknowledgment)
	assert.Equal(t, int64(2), eval.ScheduleVersion)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/publish", mgr, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeAcknowledgmentRequired, resp.Error.Code)

	body["acknowledgment"] = map[string]string{"fingerprint": "stale"}
	rec, resp = s.do(t, http.MethodPost, "/api/v1/publish", mgr, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	var ack struct {
		Fingerprint string `json:"fingerprint"`
		Stale       bool   `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ack))
	assert.True(t, ack.Stale)
	assert.Equal(t, eval.Fingerprint, ack.Fingerprint)

	body["acknowledgment"] = map[string]string{"fingerprint": eval.Fingerprint}
	rec, resp = s.do(t, http.MethodPost, "/api/v1/publish", mgr, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pub struct {
		WithAcknowledgedWarnings bool  `json:"with_acknowledged_warnings"`
		ShiftsPublished          int64 `json:"shifts_published"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pub))
	assert.True(t, pub.WithAcknowledgedWarnings)
	assert.Equal(t, int64(2), pub.ShiftsPublished)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/publish/publications", mgr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pubs []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &pubs))
	assert.Len(t, pubs, 1)
}

func TestPublish_ShortRestBeforeOpenPeriod(t *testing.T) {
	s := newTestServerAt(t, func() time.Time { return at(2, 17, 30) })
	token := s.employeeToken(t, "emp-1", "co-1")
	for _, e := range []struct {
		kind string
		ts   time.Time
	}{{"clock_in", at(2, 9, 0)}, {"clock_out", at(2, 17, 0)}, {"clock_in", at(2, 17, 20)}} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": e.kind, "timestamp": e.ts})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	mgr := s.managerToken(t, "co-1")
	body := map[string]interface{}{"start_date": "2026-03-02", "end_date": "2026-03-08"}
	rec, resp := s.do(t, http.MethodPost, "/api/v1/publish/evaluate", mgr, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var eval struct {
		Fingerprint            string `json:"fingerprint"`
		RequiresAcknowledgment bool   `json:"requires_acknowledgment"`
		Summary                struct {
			Total    int `json:"total"`
			RestTime int `json:"rest_time"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &eval))
	assert.True(t, eval.RequiresAcknowledgment)
	assert.Equal(t, 1, eval.Summary.Total)
	assert.Equal(t, 1, eval.Summary.RestTime)

	rec, resp = s.do(t, http.MethodPost, "/api/v1/publish", mgr, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeAcknowledgmentRequired, resp.Error.Code)

	body["acknowledgment"] = map[string]string{"fingerprint": eval.Fingerprint}
	rec, resp = s.do(t, http.MethodPost, "/api/v1/publish", mgr, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pub struct {
		WithAcknowledgedWarnings bool `json:"with_acknowledged_warnings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pub))
	assert.True(t, pub.WithAcknowledgedWarnings)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1", "co-1")
	rec, _ := s.do(t, http.MethodPost, "/api/v1/time-events", token, map[string]interface{}{"kind": "clock_in", "timestamp": at(2, 9, 0)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/metrics", s.managerToken(t, "co-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]float64
	require.NoError(t, json.Unmarshal(resp.Data, &m))
	assert.Equal(t, float64(1), m["appendsTotal"])
	assert.Equal(t, float64(0), m["offlinePending"])
	assert.GreaterOrEqual(t, m["requestsTotal"], float64(1))
}

func TestNotificationStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/notifications/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	rec, body := s.do(t, http.MethodGet, "/api/v1/notifications/token", s.managerToken(t, "co-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &tok))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream?token="+tok.Token, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	_, _ = reader.ReadString('\n') // data
	_, _ = reader.ReadString('\n') // blank

	require.Eventually(t, func() bool { return s.hub.SubscriberCount("co-1") == 1 }, time.Second, 10*time.Millisecond)
	s.hub.Publish("co-1", sse.Event{Event: complianceService.FindingsEvent, Data: map[string]int{"total": 1}})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: "+complianceService.FindingsEvent+"\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: {\"total\":1}\n", line)
}
