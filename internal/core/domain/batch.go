package domain

import "time"

// BatchStatus is the mailing state of a Batch.
type BatchStatus string

const (
	BatchNew      BatchStatus = "new"
	BatchPaused   BatchStatus = "paused"
	BatchSent     BatchStatus = "sent"
	BatchArchived BatchStatus = "archived"
)

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchNew, BatchPaused, BatchSent, BatchArchived:
		return true
	}
	return false
}

// Batch is the set of prospects mailed together in one drop week.
type Batch struct {
	ID              int64
	IterationWeekID int64
	Status          BatchStatus
	ProspectIDs     []int64 // in segmentation order
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WeekBatch is a batch joined with its week and owning campaign. It is the
// row shape used by pause, resume, stop and bulk status.
type WeekBatch struct {
	Batch       Batch
	Week        IterationWeek
	CampaignID  int64
	IterationID int64
}
