package schedule

import (
	"time"

	"mailcadence/internal/core/domain"
)

// BuildCalendar splits the campaign's range into consecutive cycles of
// MailingFrequencyWeeks calendar weeks. The last cycle may be partial. The
// first iteration is Active and the rest Pending; none is materialized.
func BuildCalendar(c *domain.Campaign) []*domain.ScheduledIteration {
	start := StartOfDay(c.StartDate)
	end := EndOfDay(c.EndDate)
	totalWeeks := WeeksBetween(start, end) + 1
	freq := c.MailingFrequencyWeeks

	var out []*domain.ScheduledIteration
	for first, n := 0, 1; first < totalWeeks; first, n = first+freq, n+1 {
		last := min(first+freq, totalWeeks) - 1
		itStart := ShiftWeeks(StartOfWeek(start), first)
		itEnd := ShiftWeeks(EndOfWeek(start), last)
		status := domain.IterationPending
		if n == 1 {
			status = domain.IterationActive
		}
		out = append(out, &domain.ScheduledIteration{Iteration: domain.Iteration{
			CampaignID:      c.ID,
			IterationNumber: n,
			StartDate:       maxTime(start, itStart),
			EndDate:         minTime(end, itEnd),
			Status:          status,
		}})
	}
	return out
}

// PlanWeeks lays out the calendar weeks of an iteration. Week numbers count
// from the campaign's first week; the drop flag follows the week's position
// within the cycle.
func PlanWeeks(c *domain.Campaign, it *domain.Iteration) []domain.IterationWeek {
	first := StartOfWeek(it.StartDate)
	count := WeeksBetween(it.StartDate, it.EndDate) + 1
	base := WeeksBetween(c.StartDate, first) + 1

	weeks := make([]domain.IterationWeek, 0, count)
	for k := 0; k < count; k++ {
		wStart := ShiftWeeks(first, k)
		weeks = append(weeks, domain.IterationWeek{
			IterationID:       it.ID,
			WeekNumber:        base + k,
			StartDate:         maxTime(it.StartDate, wStart),
			EndDate:           minTime(it.EndDate, EndOfWeek(wStart)),
			IsMailingDropWeek: c.IsDropWeek(k%c.MailingFrequencyWeeks + 1),
		})
	}
	return weeks
}

// Materialize turns a scheduled iteration into a materialized one: it lays out
// the weeks and partitions the audience across the drop weeks in order. IDs
// are left for the store to assign.
func Materialize(c *domain.Campaign, s *domain.ScheduledIteration, audience []int64, now time.Time) *domain.MaterializedIteration {
	it := s.Iteration
	it.MaterializedAt = &now

	weeks := PlanWeeks(c, &it)
	drops := 0
	for _, w := range weeks {
		if w.IsMailingDropWeek {
			drops++
		}
	}
	parts := Partition(audience, drops)

	m := &domain.MaterializedIteration{Iteration: it, Weeks: make([]domain.ScheduledWeek, 0, len(weeks))}
	i := 0
	for _, w := range weeks {
		sw := domain.ScheduledWeek{Week: w}
		if w.IsMailingDropWeek {
			sw.Batch = &domain.Batch{Status: domain.BatchNew, ProspectIDs: parts[i]}
			i++
		}
		m.Weeks = append(m.Weeks, sw)
	}
	return m
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
