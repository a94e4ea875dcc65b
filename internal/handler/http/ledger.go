package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/offline"
	"github.com/go-chi/chi/v5"
)

type TimeEventHandler interface {
	Append(w http.ResponseWriter, r *http.Request)
	AppendBreak(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	VerifyChain(w http.ResponseWriter, r *http.Request)
}

type timeEventHandlerImpl struct {
	ledgerService ledger.Service
	employeeRepo  employee.EmployeeRepository
	queue         *offline.Queue // nil when offline buffering is off
	metrics       *metrics.Collector
	now           func() time.Time
}

func NewTimeEventHandler(ledgerService ledger.Service, employeeRepo employee.EmployeeRepository, queue *offline.Queue, collector *metrics.Collector) TimeEventHandler {
	return &timeEventHandlerImpl{
		ledgerService: ledgerService,
		employeeRepo:  employeeRepo,
		queue:         queue,
		metrics:       collector,
		now:           time.Now,
	}
}

type QueuedTimeEventResponse struct {
	Queued     bool        `json:"queued"`
	QueueID    int64       `json:"queue_id"`
	EmployeeID string      `json:"employee_id"`
	Kind       ledger.Kind `json:"kind"`
	Timestamp  time.Time   `json:"timestamp"`
}

type ChainResponse struct {
	EmployeeID string                     `json:"employee_id"`
	Length     int64                      `json:"length"`
	Events     []ledger.TimeEventResponse `json:"events"`
}

// Append implements TimeEventHandler.
func (h *timeEventHandlerImpl) Append(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req ledger.AppendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EmployeeID == "" && c.EmployeeID != nil {
		req.EmployeeID = *c.EmployeeID
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := middleware.AuthorizeEmployee(r.Context(), h.employeeRepo, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	// Pin the instant now so a buffered action keeps the time it happened.
	if req.Timestamp == nil {
		ts := h.now()
		req.Timestamp = &ts
	}

	if h.queue != nil {
		pending, err := h.queue.HasPending(r.Context(), req.EmployeeID)
		if err != nil {
			slog.Error("failed to check offline queue", "employee_id", req.EmployeeID, "error", err)
		} else if pending {
			h.enqueue(w, r, req)
			return
		}
	}

	event, err := h.ledgerService.Append(r.Context(), req)
	if err != nil {
		if h.queue != nil && errors.Is(err, database.ErrStorageUnavailable) {
			h.enqueue(w, r, req)
			return
		}
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time event recorded", ledger.ToResponse(event))
}

func (h *timeEventHandlerImpl) enqueue(w http.ResponseWriter, r *http.Request, req ledger.AppendRequest) {
	a, err := h.queue.Enqueue(r.Context(), req.EmployeeID, string(req.Kind), *req.Timestamp)
	if err != nil {
		slog.Error("failed to buffer time event", "employee_id", req.EmployeeID, "error", err)
		response.HandleError(w, database.ErrStorageUnavailable)
		return
	}
	h.metrics.OfflineQueued()
	slog.Warn("time event buffered offline", "employee_id", req.EmployeeID, "kind", req.Kind, "queue_id", a.ID)

	response.Accepted(w, "Time event queued, it will be recorded when storage is back", QueuedTimeEventResponse{
		Queued:     true,
		QueueID:    a.ID,
		EmployeeID: a.EmployeeID,
		Kind:       ledger.Kind(a.Kind),
		Timestamp:  a.Timestamp,
	})
}

// AppendBreak implements TimeEventHandler.
func (h *timeEventHandlerImpl) AppendBreak(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req ledger.BreakRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EmployeeID == "" && c.EmployeeID != nil {
		req.EmployeeID = *c.EmployeeID
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := middleware.AuthorizeEmployee(r.Context(), h.employeeRepo, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	events, err := h.ledgerService.AppendBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]ledger.TimeEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ledger.ToResponse(e))
	}
	response.Created(w, "Break recorded", out)
}

// List implements TimeEventHandler. It returns the raw chain; use
// VerifyChain to check it.
func (h *timeEventHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	snap, err := h.ledgerService.Snapshot(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := ChainResponse{
		EmployeeID: employeeID,
		Length:     snap.Head.Length,
		Events:     make([]ledger.TimeEventResponse, 0, len(snap.Events)),
	}
	for _, e := range snap.Events {
		resp.Events = append(resp.Events, ledger.ToResponse(e))
	}
	response.Success(w, resp)
}

// VerifyChain implements TimeEventHandler.
func (h *timeEventHandlerImpl) VerifyChain(w http.ResponseWriter, r *http.Request) {
	v, err := h.ledgerService.VerifyChain(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, v)
}
