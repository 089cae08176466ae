package port

import (
	"context"
	"time"

	"mailcadence/internal/core/domain"
)

// CampaignUseCase is the primary port of the lifecycle controller.
type CampaignUseCase interface {
	// Create validates the request, writes the campaign with its calendar
	// and materializes the first iteration. A request whose idempotency key
	// is already in flight or created fails with a conflict.
	Create(ctx context.Context, req CreateCampaignReq) (*CampaignView, error)
	// Get returns the campaign with its iterations, weeks and batches.
	Get(ctx context.Context, id int64) (*CampaignView, error)
	// Pause pauses an active campaign and its not yet elapsed batches.
	Pause(ctx context.Context, id int64) (*CampaignView, error)
	// Resume shifts the paused part of the schedule by the pause length and
	// recomputes the audience of every paused batch.
	Resume(ctx context.Context, id int64) (*CampaignView, error)
	// Stop archives the campaign and all of its batches.
	Stop(ctx context.Context, id int64) (*CampaignView, error)
	// ActivatePending materializes and activates the campaign's next pending
	// iteration when it is due. Calling it again for the same period is a
	// no-op.
	ActivatePending(ctx context.Context, id int64) (*CampaignView, error)
	// ActivatePendingAll runs ActivatePending over every active campaign.
	ActivatePendingAll(ctx context.Context) (*ActivationReport, error)
	// PreviewAudience sizes an audience per short postal code.
	PreviewAudience(ctx context.Context, t domain.Targeting) (*AudiencePreview, error)
	// Events returns the campaign's lifecycle log.
	Events(ctx context.Context, id int64) ([]domain.CampaignEvent, error)
}

// BulkStatusUseCase is the primary port of the bulk status processor.
type BulkStatusUseCase interface {
	// ApplyBulkStatus moves every batch whose week overlaps the ISO week to
	// the target status and records one audit event.
	ApplyBulkStatus(ctx context.Context, req BulkStatusReq) (*domain.BulkStatusEvent, error)
}

// CreateCampaignReq is the input of CampaignUseCase.Create. An empty
// IdempotencyKey is replaced by a generated one.
type CreateCampaignReq struct {
	IdempotencyKey        string
	Name                  string
	StartDate             time.Time
	EndDate               time.Time
	MailingFrequencyWeeks int
	MailingDropWeeks      []int
	Targeting             domain.Targeting
}

// CampaignView is the read model returned by lifecycle operations.
type CampaignView struct {
	Campaign   domain.Campaign
	Iterations []domain.IterationPhase
}

// ActivationReport summarises one ActivatePendingAll run.
type ActivationReport struct {
	Campaigns int
	Failed    int
}

// AudiencePreview is the sized audience returned by PreviewAudience.
type AudiencePreview struct {
	Households int64
	Rows       []domain.PostalCodeRollup
}

// BulkStatusReq selects an ISO week and the status its batches move to.
type BulkStatusReq struct {
	Year   int
	Week   int
	Status domain.BatchStatus
}
