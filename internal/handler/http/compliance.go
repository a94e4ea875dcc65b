package http

import (
	"context"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/compliance"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ComplianceHandler interface {
	EmployeeFindings(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)

	// Exceptions
	RequestException(w http.ResponseWriter, r *http.Request)
	ListExceptions(w http.ResponseWriter, r *http.Request)
	ApproveException(w http.ResponseWriter, r *http.Request)
	RejectException(w http.ResponseWriter, r *http.Request)
}

type complianceHandlerImpl struct {
	complianceService compliance.Service
	exceptionService  compliance.ExceptionService
	employeeRepo      employee.EmployeeRepository
	policies          policy.Provider
	now               func() time.Time
}

func NewComplianceHandler(
	complianceService compliance.Service,
	exceptionService compliance.ExceptionService,
	employeeRepo employee.EmployeeRepository,
	policies policy.Provider,
) ComplianceHandler {
	return &complianceHandlerImpl{
		complianceService: complianceService,
		exceptionService:  exceptionService,
		employeeRepo:      employeeRepo,
		policies:          policies,
		now:               time.Now,
	}
}

type EmployeeFindingsResponse struct {
	EmployeeID          string                       `json:"employee_id"`
	StartDate           string                       `json:"start_date"`
	EndDate             string                       `json:"end_date"`
	Summary             compliance.Summary           `json:"summary"`
	Findings            []compliance.FindingResponse `json:"findings"`
	AppliedExceptionIDs []string                     `json:"applied_exception_ids"`
}

// EmployeeFindings implements ComplianceHandler. Findings are derived on
// every request.
func (h *complianceHandlerImpl) EmployeeFindings(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}
	now := h.now()

	dates, err := queryDates(r.Context(), r, h.policies, c.CompanyID, now)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	res, err := h.complianceService.EvaluateEmployee(r.Context(), compliance.EvaluateRequest{
		CompanyID:   c.CompanyID,
		EmployeeID:  employeeID,
		Dates:       dates,
		EvaluatedAt: now,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	applied := res.AppliedExceptionIDs
	if applied == nil {
		applied = []string{}
	}
	response.Success(w, EmployeeFindingsResponse{
		EmployeeID:          employeeID,
		StartDate:           dates.From,
		EndDate:             dates.To,
		Summary:             compliance.Summarize(res.Findings),
		Findings:            compliance.ToFindingResponses(res.Findings),
		AppliedExceptionIDs: applied,
	})
}

// Summary implements ComplianceHandler.
func (h *complianceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	dates, err := queryDates(r.Context(), r, h.policies, c.CompanyID, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	eval, err := h.complianceService.GetComplianceSummary(r.Context(), c.CompanyID, dates)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, compliance.ToSummaryResponse(eval))
}

// RequestException implements ComplianceHandler.
func (h *complianceHandlerImpl) RequestException(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req compliance.CreateExceptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EmployeeID == "" && c.EmployeeID != nil {
		req.EmployeeID = *c.EmployeeID
	}
	req.CompanyID = c.CompanyID
	req.RequestedBy = c.UserID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := middleware.AuthorizeEmployee(r.Context(), h.employeeRepo, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	exc, err := h.exceptionService.RequestException(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Compliance exception requested", compliance.ToExceptionResponse(exc))
}

// ListExceptions implements ComplianceHandler.
func (h *complianceHandlerImpl) ListExceptions(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var status *compliance.ExceptionStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if !validator.IsInSlice(s, compliance.ExceptionStatusValues) {
			response.ValidationError(w, map[string]string{"status": "unknown exception status"})
			return
		}
		st := compliance.ExceptionStatus(s)
		status = &st
	}

	list, err := h.exceptionService.ListExceptions(r.Context(), c.CompanyID, status)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]compliance.ExceptionResponse, 0, len(list))
	for _, e := range list {
		out = append(out, compliance.ToExceptionResponse(e))
	}
	response.Success(w, out)
}

// ApproveException implements ComplianceHandler.
func (h *complianceHandlerImpl) ApproveException(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.exceptionService.ApproveException, "Compliance exception approved")
}

// RejectException implements ComplianceHandler.
func (h *complianceHandlerImpl) RejectException(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.exceptionService.RejectException, "Compliance exception rejected")
}

func (h *complianceHandlerImpl) review(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, req compliance.ReviewExceptionRequest) (compliance.Exception, error),
	message string,
) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	exc, err := fn(r.Context(), compliance.ReviewExceptionRequest{
		ExceptionID: chi.URLParam(r, "id"),
		CompanyID:   c.CompanyID,
		ReviewedBy:  c.UserID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, compliance.ToExceptionResponse(exc))
}
