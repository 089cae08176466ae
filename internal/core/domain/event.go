package domain

import "time"

// LifecycleStatus is a step recorded in the campaign event log. It is wider
// than CampaignStatus because creation and resume pass through transient
// steps.
type LifecycleStatus string

const (
	LifecycleNone       LifecycleStatus = ""
	LifecyclePending    LifecycleStatus = "pending"
	LifecycleProcessing LifecycleStatus = "processing"
	LifecycleCreated    LifecycleStatus = "created"
	LifecycleActive     LifecycleStatus = "active"
	LifecyclePaused     LifecycleStatus = "paused"
	LifecycleResuming   LifecycleStatus = "resuming"
	LifecycleArchived   LifecycleStatus = "archived"
)

// CampaignEvent is one append-only lifecycle transition.
type CampaignEvent struct {
	ID             int64
	CampaignID     *int64 // nil while the campaign row does not exist yet
	IdempotencyKey string
	FromStatus     LifecycleStatus
	ToStatus       LifecycleStatus
	OccurredAt     time.Time
}

// BulkStatusEvent records one application of a bulk status change to the
// batches of an ISO calendar week.
type BulkStatusEvent struct {
	ID               int64
	Year             int
	Week             int
	TargetStatus     BatchStatus
	AffectedBatchIDs []int64
	CreatedAt        time.Time
}
