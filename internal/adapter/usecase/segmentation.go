package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/segment"
)

// SegmentationEngine turns campaign targeting into an ordered audience. It
// compiles the targeting, delegates predicate evaluation to the audience
// source and enforces household uniqueness, ordering and postal code caps
// over whatever the source returns.
type SegmentationEngine struct {
	deps
	source port.AudienceSource
}

func NewSegmentationEngine(source port.AudienceSource, opts ...Option) *SegmentationEngine {
	return &SegmentationEngine{deps: applyOptions(opts), source: source}
}

// Select compiles t and returns the eligible prospect ids.
func (e *SegmentationEngine) Select(ctx context.Context, t domain.Targeting) ([]int64, error) {
	p, err := segment.Compile(t)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, "invalid targeting", err)
	}
	return e.SelectPipeline(ctx, p)
}

// SelectPipeline runs an already compiled pipeline.
func (e *SegmentationEngine) SelectPipeline(ctx context.Context, p segment.Pipeline) ([]int64, error) {
	started := time.Now()
	candidates, total, err := e.source.Query(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("query audience: %w", err)
	}

	candidates = householdHeads(candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PostalCodeShort != candidates[j].PostalCodeShort {
			return candidates[i].PostalCodeShort < candidates[j].PostalCodeShort
		}
		return candidates[i].ProspectID < candidates[j].ProspectID
	})

	ids := make([]int64, 0, len(candidates))
	taken := make(map[string]int)
	for _, c := range candidates {
		if limit := p.Cap(c.PostalCodeShort); limit > 0 && taken[c.PostalCodeShort] >= limit {
			continue
		}
		taken[c.PostalCodeShort]++
		ids = append(ids, c.ProspectID)
	}

	e.metrics.ObserveSegmentation(started, len(ids))
	e.logger.Debug("segmentation pass",
		slog.Int64("source_rows", total),
		slog.Int("selected", len(ids)),
		slog.Duration("took", time.Since(started)),
	)
	return ids, nil
}

// Rollup sizes the audience of t per short postal code.
func (e *SegmentationEngine) Rollup(ctx context.Context, t domain.Targeting) (*port.AudiencePreview, error) {
	p, err := segment.Compile(t)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, "invalid targeting", err)
	}
	rows, err := e.source.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("aggregate audience: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PostalCodeShort < rows[j].PostalCodeShort })

	preview := &port.AudiencePreview{Rows: rows}
	for i := range rows {
		if !p.JoinsCustomers() {
			rows[i].AverageCustomerLTV = 0
		}
		preview.Households += rows[i].Households
	}
	return preview, nil
}

// householdHeads keeps the highest prospect id per address.
func householdHeads(in []port.AudienceCandidate) []port.AudienceCandidate {
	best := make(map[int64]int, len(in))
	for i, c := range in {
		j, ok := best[c.AddressID]
		if !ok || c.ProspectID > in[j].ProspectID {
			best[c.AddressID] = i
		}
	}
	out := make([]port.AudienceCandidate, 0, len(best))
	for i, c := range in {
		if best[c.AddressID] == i {
			out = append(out, c)
		}
	}
	return out
}
