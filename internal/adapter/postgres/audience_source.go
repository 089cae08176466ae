package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/segment"
)

// AudienceSource implements port.AudienceSource over the prospect tables.
type AudienceSource struct {
	pool *pgxpool.Pool
}

var _ port.AudienceSource = (*AudienceSource)(nil)

func NewAudienceSource(pool *pgxpool.Pool) *AudienceSource {
	return &AudienceSource{pool: pool}
}

// Query implements port.AudienceSource.
func (s *AudienceSource) Query(ctx context.Context, p segment.Pipeline) ([]port.AudienceCandidate, int64, error) {
	q, err := buildAudienceQuery(p)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, q.selectSQL(), q.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audience: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.AudienceCandidate, error) {
		var c port.AudienceCandidate
		err := row.Scan(&c.ProspectID, &c.AddressID, &c.PostalCodeShort)
		return c, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan audience: %w", err)
	}
	return out, int64(len(out)), nil
}

// Aggregate implements port.AudienceSource.
func (s *AudienceSource) Aggregate(ctx context.Context, p segment.Pipeline) ([]domain.PostalCodeRollup, error) {
	q, err := buildAudienceQuery(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, q.rollupSQL(p.JoinsCustomers()), q.args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate audience: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PostalCodeRollup, error) {
		var r domain.PostalCodeRollup
		err := row.Scan(&r.PostalCodeShort, &r.Households, &r.AverageCustomerLTV)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rollup: %w", err)
	}
	return out, nil
}
