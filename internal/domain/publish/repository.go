package publish

import "context"

type PublicationRepository interface {
	Create(ctx context.Context, p Publication) error
	ListByCompany(ctx context.Context, companyID string, limit int) ([]Publication, error)
}
