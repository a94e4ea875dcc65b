package http

import (
	"net/http"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type PublishHandler interface {
	Evaluate(w http.ResponseWriter, r *http.Request)
	Publish(w http.ResponseWriter, r *http.Request)
	ListPublications(w http.ResponseWriter, r *http.Request)
}

type publishHandlerImpl struct {
	publishService publish.Service
}

func NewPublishHandler(publishService publish.Service) PublishHandler {
	return &publishHandlerImpl{
		publishService: publishService,
	}
}

// Evaluate implements PublishHandler. The returned fingerprint is what a
// manager acknowledges when publishing a range with findings.
func (h *publishHandlerImpl) Evaluate(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req publish.EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	dates, err := timerange.ParseDates(req.StartDate, req.EndDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	eval, err := h.publishService.EvaluateForPublish(r.Context(), c.CompanyID, dates)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, publish.ToEvaluationResponse(eval))
}

// Publish implements PublishHandler.
func (h *publishHandlerImpl) Publish(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	var req publish.PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = c.CompanyID
	req.PublishedBy = c.UserID

	pub, err := h.publishService.Publish(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Schedule published"
	if pub.WithAcknowledgedWarnings {
		message = "Schedule published with acknowledged warnings"
	}
	response.Created(w, message, publish.ToPublicationResponse(pub))
}

// ListPublications implements PublishHandler.
func (h *publishHandlerImpl) ListPublications(w http.ResponseWriter, r *http.Request) {
	c, ok := claimsOf(w, r)
	if !ok {
		return
	}

	pubs, err := h.publishService.ListPublications(r.Context(), c.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]publish.PublicationResponse, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, publish.ToPublicationResponse(p))
	}
	response.Success(w, out)
}
