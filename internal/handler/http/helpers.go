package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/policy"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

// decodeJSON reads a JSON body, answering 400 itself when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// claimsOf returns the caller identity, answering 401 when it is missing.
func claimsOf(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return auth.Claims{}, false
	}
	return c, true
}

// queryDates reads start_date/end_date. Both absent means the current week
// in the company's policy zone.
func queryDates(ctx context.Context, r *http.Request, policies policy.Provider, companyID string, now time.Time) (timerange.Dates, error) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	if start == "" && end == "" {
		p, err := policies.PolicyFor(ctx, companyID)
		if err != nil {
			return timerange.Dates{}, err
		}
		return timerange.WeekOf(now, p.Location()), nil
	}
	return timerange.ParseDates(start, end)
}

// queryRange resolves an instant range from from/to (RFC 3339) or, failing
// that, from the date range in the company's policy zone.
func queryRange(ctx context.Context, r *http.Request, policies policy.Provider, companyID string, now time.Time) (timerange.Range, error) {
	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		start, err := time.Parse(time.RFC3339Nano, from)
		if err != nil {
			return timerange.Range{}, timerange.ErrInvalidDate
		}
		end, err := time.Parse(time.RFC3339Nano, to)
		if err != nil {
			return timerange.Range{}, timerange.ErrInvalidDate
		}
		if end.Before(start) {
			return timerange.Range{}, timerange.ErrInvalidRange
		}
		return timerange.Range{Start: start.UTC(), End: end.UTC()}, nil
	}

	dates, err := queryDates(ctx, r, policies, companyID, now)
	if err != nil {
		return timerange.Range{}, err
	}
	p, err := policies.PolicyFor(ctx, companyID)
	if err != nil {
		return timerange.Range{}, err
	}
	return dates.In(p.Location()), nil
}
