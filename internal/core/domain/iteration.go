package domain

import "time"

// IterationStatus is the state of one cadence cycle.
type IterationStatus string

const (
	IterationPending   IterationStatus = "pending"
	IterationActive    IterationStatus = "active"
	IterationPaused    IterationStatus = "paused"
	IterationCompleted IterationStatus = "completed"
)

// Iteration is one MailingFrequencyWeeks-long cycle of a campaign.
type Iteration struct {
	ID              int64
	CampaignID      int64
	IterationNumber int
	StartDate       time.Time
	EndDate         time.Time
	Status          IterationStatus
	// ResumeStatus holds the status the iteration had when it was paused.
	ResumeStatus   IterationStatus
	MaterializedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Materialized reports whether weeks and batches exist for the iteration.
func (it *Iteration) Materialized() bool { return it.MaterializedAt != nil }

// IterationPhase is either a ScheduledIteration or a MaterializedIteration.
type IterationPhase interface {
	Header() *Iteration
	phase()
}

// ScheduledIteration is a date-ranged placeholder: no weeks or batches have
// been written for it yet.
type ScheduledIteration struct {
	Iteration Iteration
}

func (s *ScheduledIteration) Header() *Iteration { return &s.Iteration }
func (*ScheduledIteration) phase()               {}

// MaterializedIteration carries the weeks of an iteration and the batch bound
// to each drop week.
type MaterializedIteration struct {
	Iteration Iteration
	Weeks     []ScheduledWeek
}

func (m *MaterializedIteration) Header() *Iteration { return &m.Iteration }
func (*MaterializedIteration) phase()               {}

// DropWeeks returns the weeks that carry a batch, in week order.
func (m *MaterializedIteration) DropWeeks() []ScheduledWeek {
	out := make([]ScheduledWeek, 0, len(m.Weeks))
	for _, w := range m.Weeks {
		if w.Week.IsMailingDropWeek {
			out = append(out, w)
		}
	}
	return out
}

// ScheduledWeek pairs an IterationWeek with its batch. Batch is nil for weeks
// that do not mail.
type ScheduledWeek struct {
	Week  IterationWeek
	Batch *Batch
}

// IterationWeek is one calendar week of an iteration. WeekNumber counts weeks
// from the campaign's first week and is never reset per iteration.
type IterationWeek struct {
	ID                int64
	IterationID       int64
	WeekNumber        int
	StartDate         time.Time
	EndDate           time.Time
	IsMailingDropWeek bool
}

// Elapsed reports whether the week ended strictly before now.
func (w *IterationWeek) Elapsed(now time.Time) bool {
	return w.EndDate.Before(now)
}
