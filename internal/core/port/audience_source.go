package port

import (
	"context"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/segment"
)

// AudienceCandidate is one prospect returned by an AudienceSource.
type AudienceCandidate struct {
	ProspectID      int64
	AddressID       int64
	PostalCodeShort string
}

// AudienceSource evaluates segmentation pipelines against the prospect data.
// Implementations must reject predicates they do not understand.
type AudienceSource interface {
	// Query returns the prospects matching every step of the pipeline and the
	// number of rows returned.
	Query(ctx context.Context, p segment.Pipeline) ([]AudienceCandidate, int64, error)
	// Aggregate returns household counts and average customer lifetime value
	// per short postal code for the same pipeline.
	Aggregate(ctx context.Context, p segment.Pipeline) ([]domain.PostalCodeRollup, error)
}
