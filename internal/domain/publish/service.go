package publish

import (
	"context"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/timerange"
)

type Service interface {
	// EvaluateForPublish evaluates a company date range and fingerprints it.
	EvaluateForPublish(ctx context.Context, companyID string, dates timerange.Dates) (Evaluation, error)
	// Publish re-evaluates and publishes, or returns
	// *AcknowledgmentRequiredError.
	Publish(ctx context.Context, req PublishRequest) (Publication, error)
	ListPublications(ctx context.Context, companyID string) ([]Publication, error)
}
