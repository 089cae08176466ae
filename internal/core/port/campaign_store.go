package port

import (
	"context"
	"errors"
	"time"

	"mailcadence/internal/core/domain"
)

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CampaignStore persists campaigns, their iterations, weeks and batches, and
// the lifecycle and bulk status audit logs. It is an outbound port.
type CampaignStore interface {
	// InTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise, including on panic.
	InTx(ctx context.Context, fn func(ctx context.Context, tx CampaignTx) error) error
}

// CampaignTx is the set of operations available inside a store
// transaction.
type CampaignTx interface {
	// LockCampaign loads a campaign and holds a write lock on it until the
	// transaction ends. It returns ErrNotFound for unknown ids.
	LockCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	// GetCampaign loads a campaign without locking it.
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	UpdateCampaign(ctx context.Context, c *domain.Campaign) error
	// ListCampaignIDs returns the ids of campaigns in the given status.
	ListCampaignIDs(ctx context.Context, status domain.CampaignStatus) ([]int64, error)

	CreateIteration(ctx context.Context, it *domain.Iteration) error
	UpdateIteration(ctx context.Context, it *domain.Iteration) error
	// ListIterations returns a campaign's iterations by iteration number.
	ListIterations(ctx context.Context, campaignID int64) ([]domain.Iteration, error)

	CreateWeek(ctx context.Context, w *domain.IterationWeek) error
	UpdateWeek(ctx context.Context, w *domain.IterationWeek) error
	// ListWeeks returns an iteration's weeks by week number.
	ListWeeks(ctx context.Context, iterationID int64) ([]domain.IterationWeek, error)

	CreateBatch(ctx context.Context, b *domain.Batch) error
	// UpdateBatch stores a batch's status and prospect list.
	UpdateBatch(ctx context.Context, b *domain.Batch) error
	// SetBatchStatus sets the status of the given batches.
	SetBatchStatus(ctx context.Context, ids []int64, status domain.BatchStatus) error
	// ListCampaignBatches returns every batch of a campaign joined with its
	// week, ordered by week number. The batch rows stay locked until the
	// transaction ends so a concurrent bulk status change cannot be
	// overwritten.
	ListCampaignBatches(ctx context.Context, campaignID int64) ([]domain.WeekBatch, error)
	// ListBatchesOverlapping returns batches of all campaigns whose week
	// overlaps [from, to], ordered by batch id.
	ListBatchesOverlapping(ctx context.Context, from, to time.Time) ([]domain.WeekBatch, error)

	AppendCampaignEvent(ctx context.Context, e *domain.CampaignEvent) error
	// LatestEventByKey returns the newest event for an idempotency key or
	// ErrNotFound.
	LatestEventByKey(ctx context.Context, key string) (*domain.CampaignEvent, error)
	// LatestEventTo returns the newest event of a campaign that entered the
	// given status or ErrNotFound.
	LatestEventTo(ctx context.Context, campaignID int64, status domain.LifecycleStatus) (*domain.CampaignEvent, error)
	// ListCampaignEvents returns a campaign's events oldest first.
	ListCampaignEvents(ctx context.Context, campaignID int64) ([]domain.CampaignEvent, error)

	// FindBulkStatusEvent returns the newest event for the triple or
	// ErrNotFound.
	FindBulkStatusEvent(ctx context.Context, year, week int, status domain.BatchStatus) (*domain.BulkStatusEvent, error)
	CreateBulkStatusEvent(ctx context.Context, e *domain.BulkStatusEvent) error
}
