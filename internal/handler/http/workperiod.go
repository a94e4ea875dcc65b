package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/workperiod"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/go-chi/chi/v5"
)

type WorkPeriodHandler interface {
	List(w http.ResponseWriter, r *http.Request)

	// Corrections
	RequestCorrection(w http.ResponseWriter, r *http.Request)
	ListCorrections(w http.ResponseWriter, r *http.Request)
	ApproveCorrection(w http.ResponseWriter, r *http.Request)
	RejectCorrection(w http.ResponseWriter, r *http.Request)
}

type workPeriodHandlerImpl struct {
	workPeriodService workperiod.Service
	policies          policy.Provider
	now               func() time.Time
}

func NewWorkPeriodHandler(workPeriodService workperiod.Service, policies policy.Provider) WorkPeriodHandler {
	return &workPeriodHandlerImpl{
		workPeriodService: workPeriodService,
		policies:          policies,
		now:               time.Now,
	}
}

// List implements WorkPeriodHandler.
func (h *workPeriodHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	rng, err := queryRange(r.Context(), r, h.policies, c.CompanyID, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	periods, err := h.workPeriodService.BuildPeriods(r.Context(), chi.URLParam(r, "employeeID"), rng)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]workperiod.WorkPeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, workperiod.ToResponse(p))
	}
	response.Success(w, out)
}

// RequestCorrection implements WorkPeriodHandler.
func (h *workPeriodHandlerImpl) RequestCorrection(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req workperiod.CorrectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")
	req.CompanyID = c.CompanyID
	req.RequestedBy = c.UserID

	correction, err := h.workPeriodService.RequestCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction requested", workperiod.ToCorrectionResponse(correction))
}

// ListCorrections implements WorkPeriodHandler.
func (h *workPeriodHandlerImpl) ListCorrections(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.workPeriodService.ListCorrections(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]workperiod.CorrectionResponse, 0, len(corrections))
	for _, c := range corrections {
		out = append(out, workperiod.ToCorrectionResponse(c))
	}
	response.Success(w, out)
}

// ApproveCorrection implements WorkPeriodHandler.
func (h *workPeriodHandlerImpl) ApproveCorrection(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	correction, err := h.workPeriodService.ApproveCorrection(r.Context(), workperiod.ReviewRequest{
		CorrectionID: chi.URLParam(r, "id"),
		CompanyID:    c.CompanyID,
		ReviewedBy:   c.UserID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction approved", workperiod.ToCorrectionResponse(correction))
}

// RejectCorrection implements WorkPeriodHandler.
func (h *workPeriodHandlerImpl) RejectCorrection(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req workperiod.ReviewRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	req.CorrectionID = chi.URLParam(r, "id")
	req.CompanyID = c.CompanyID
	req.ReviewedBy = c.UserID

	correction, err := h.workPeriodService.RejectCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction rejected", workperiod.ToCorrectionResponse(correction))
}
