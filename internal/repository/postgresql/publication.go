package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/publish"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/database"
)

type publicationRepositoryImpl struct {
	db *database.DB
}

func NewPublicationRepository(db *database.DB) publish.PublicationRepository {
	return &publicationRepositoryImpl{db: db}
}

// Create implements publish.PublicationRepository.
func (r *publicationRepositoryImpl) Create(ctx context.Context, p publish.Publication) error {
	q := GetQuerier(ctx, r.db)

	summary, err := json.Marshal(p.Summary)
	if err != nil {
		return fmt.Errorf("encode publication summary: %w", err)
	}
	consumed := p.ConsumedExceptionIDs
	if consumed == nil {
		consumed = []string{}
	}

	query := `
		INSERT INTO publications (
			id, company_id, start_date, end_date, schedule_version, fingerprint, summary,
			with_acknowledged_warnings, shifts_published, consumed_exception_ids, published_by, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Dates.From, p.Dates.To, p.ScheduleVersion, p.Fingerprint, summary,
		p.WithAcknowledgedWarnings, p.ShiftsPublished, consumed, p.PublishedBy, p.PublishedAt,
	)
	return err
}

// ListByCompany implements publish.PublicationRepository. Newest first.
func (r *publicationRepositoryImpl) ListByCompany(ctx context.Context, companyID string, limit int) ([]publish.Publication, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, start_date, end_date, schedule_version, fingerprint, summary,
			with_acknowledged_warnings, shifts_published, consumed_exception_ids, published_by, published_at
		FROM publications
		WHERE company_id = $1
		ORDER BY published_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []publish.Publication
	for rows.Next() {
		var (
			p       publish.Publication
			summary []byte
		)
		err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Dates.From, &p.Dates.To, &p.ScheduleVersion, &p.Fingerprint, &summary,
			&p.WithAcknowledgedWarnings, &p.ShiftsPublished, &p.ConsumedExceptionIDs, &p.PublishedBy, &p.PublishedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &p.Summary); err != nil {
			return nil, fmt.Errorf("decode publication summary: %w", err)
		}
		p.PublishedAt = p.PublishedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
