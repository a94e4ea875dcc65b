package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
)

type PublicationRepository struct {
	store *Store
}

func NewPublicationRepository(store *Store) *PublicationRepository {
	return &PublicationRepository{store: store}
}

// Create implements publish.PublicationRepository.
func (r *PublicationRepository) Create(ctx context.Context, p publish.Publication) error {
	return r.store.write(ctx, func(d *state) error {
		d.publications = append(d.publications, p)
		return nil
	})
}

// ListByCompany implements publish.PublicationRepository. Newest first.
func (r *PublicationRepository) ListByCompany(_ context.Context, companyID string, limit int) ([]publish.Publication, error) {
	var out []publish.Publication
	r.store.read(func(d *state) {
		for _, p := range d.publications {
			if p.CompanyID == companyID {
				out = append(out, p)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
