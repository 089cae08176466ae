package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/schedule"
)

// Pause implements port.CampaignUseCase.
func (u *CampaignUseCase) Pause(ctx context.Context, id int64) (*port.CampaignView, error) {
	return u.mutate(ctx, "pause", id, u.pause)
}

func (u *CampaignUseCase) pause(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, now time.Time) error {
	if c.Status != domain.CampaignActive {
		return domain.Conflictf("campaign %d is %s, only active campaigns can be paused", c.ID, c.Status)
	}

	iterations, err := tx.ListIterations(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list iterations: %w", err)
	}
	for i := range iterations {
		it := &iterations[i]
		it.ResumeStatus = it.Status
		it.Status = domain.IterationPaused
		if err := tx.UpdateIteration(ctx, it); err != nil {
			return fmt.Errorf("pause iteration %d: %w", it.IterationNumber, err)
		}
	}

	batches, err := tx.ListCampaignBatches(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	var ids []int64
	for _, wb := range batches {
		if wb.Batch.Status == domain.BatchNew && !wb.Week.Elapsed(now) {
			ids = append(ids, wb.Batch.ID)
		}
	}
	if err := tx.SetBatchStatus(ctx, ids, domain.BatchPaused); err != nil {
		return fmt.Errorf("pause batches: %w", err)
	}

	c.Status = domain.CampaignPaused
	if err := tx.UpdateCampaign(ctx, c); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if err := appendEvent(ctx, tx, &c.ID, c.IdempotencyKey, domain.LifecycleActive, domain.LifecyclePaused, now); err != nil {
		return err
	}

	u.logger.Info("campaign paused", slog.Int64("campaign_id", c.ID), slog.Int("batches", len(ids)))
	return nil
}

// Resume implements port.CampaignUseCase.
func (u *CampaignUseCase) Resume(ctx context.Context, id int64) (*port.CampaignView, error) {
	return u.mutate(ctx, "resume", id, u.resume)
}

func (u *CampaignUseCase) resume(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, now time.Time) error {
	if c.Status != domain.CampaignPaused {
		return domain.Conflictf("campaign %d is %s, only paused campaigns can be resumed", c.ID, c.Status)
	}
	paused, err := tx.LatestEventTo(ctx, c.ID, domain.LifecyclePaused)
	if err != nil {
		return fmt.Errorf("find pause event: %w", err)
	}
	pausedAt := paused.OccurredAt
	shift := schedule.CeilWeeks(now.Sub(pausedAt))

	if err := appendEvent(ctx, tx, &c.ID, c.IdempotencyKey, domain.LifecyclePaused, domain.LifecycleResuming, now); err != nil {
		return err
	}

	batches, err := tx.ListCampaignBatches(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	byWeek := make(map[int64]domain.Batch, len(batches))
	affected := make(map[int64]bool)
	for _, wb := range batches {
		byWeek[wb.Week.ID] = wb.Batch
		if wb.Batch.Status == domain.BatchPaused {
			affected[wb.IterationID] = true
		}
	}

	var audience []int64
	if len(affected) > 0 {
		if audience, err = u.engine.Select(ctx, c.Targeting); err != nil {
			return err
		}
	}

	iterations, err := tx.ListIterations(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list iterations: %w", err)
	}
	resumed := 0
	for i := range iterations {
		it := &iterations[i]
		switch {
		case affected[it.ID]:
			n, err := u.resumeIteration(ctx, tx, it, byWeek, audience, pausedAt, shift)
			if err != nil {
				return err
			}
			resumed += n
		case !it.Materialized() && shift > 0:
			it.StartDate = schedule.ShiftWeeks(it.StartDate, shift)
			it.EndDate = schedule.ShiftWeeks(it.EndDate, shift)
		}
		if it.ResumeStatus != "" {
			it.Status = it.ResumeStatus
		}
		it.ResumeStatus = ""
		if err := tx.UpdateIteration(ctx, it); err != nil {
			return fmt.Errorf("resume iteration %d: %w", it.IterationNumber, err)
		}
	}

	if shift > 0 {
		c.EndDate = schedule.EndOfWeek(schedule.ShiftWeeks(c.EndDate, shift))
	}
	c.Status = domain.CampaignActive
	if err := tx.UpdateCampaign(ctx, c); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if err := appendEvent(ctx, tx, &c.ID, c.IdempotencyKey, domain.LifecycleResuming, domain.LifecycleActive, now); err != nil {
		return err
	}

	u.logger.Info("campaign resumed",
		slog.Int64("campaign_id", c.ID),
		slog.Int("shift_weeks", shift),
		slog.Int("batches", resumed),
		slog.Int("audience", len(audience)),
	)
	return nil
}

// resumeIteration moves the paused part of a materialized iteration forward
// by shift weeks and refills its paused batches. Prospects held by the
// iteration's other batches stay where they are; the rest of audience is
// partitioned over the paused batches in week order. A week moves when it had
// not ended at pause time and either carries a paused batch or carries none.
// The iteration's dates are updated in place.
func (u *CampaignUseCase) resumeIteration(
	ctx context.Context,
	tx port.CampaignTx,
	it *domain.Iteration,
	byWeek map[int64]domain.Batch,
	audience []int64,
	pausedAt time.Time,
	shift int,
) (int, error) {
	weeks, err := tx.ListWeeks(ctx, it.ID)
	if err != nil {
		return 0, fmt.Errorf("list weeks of iteration %d: %w", it.IterationNumber, err)
	}

	kept := make(map[int64]bool)
	paused := 0
	for _, w := range weeks {
		b, ok := byWeek[w.ID]
		switch {
		case !ok:
		case b.Status == domain.BatchPaused:
			paused++
		default:
			for _, id := range b.ProspectIDs {
				kept[id] = true
			}
		}
	}
	remaining := make([]int64, 0, len(audience))
	for _, id := range audience {
		if !kept[id] {
			remaining = append(remaining, id)
		}
	}
	parts := schedule.Partition(remaining, paused)

	moved, resumed := 0, 0
	for i := range weeks {
		w := &weeks[i]
		b, hasBatch := byWeek[w.ID]

		if shift > 0 && !w.EndDate.Before(pausedAt) && (!hasBatch || b.Status == domain.BatchPaused) {
			w.StartDate = schedule.ShiftWeeks(w.StartDate, shift)
			w.EndDate = schedule.ShiftWeeks(w.EndDate, shift)
			w.WeekNumber += shift
			if err := tx.UpdateWeek(ctx, w); err != nil {
				return 0, fmt.Errorf("shift week %d: %w", w.WeekNumber, err)
			}
			moved++
		}

		if !hasBatch || b.Status != domain.BatchPaused {
			continue
		}
		b.ProspectIDs = parts[resumed]
		b.Status = domain.BatchNew
		if err := tx.UpdateBatch(ctx, &b); err != nil {
			return 0, fmt.Errorf("resume batch %d: %w", b.ID, err)
		}
		resumed++
	}

	if moved > 0 {
		it.EndDate = schedule.ShiftWeeks(it.EndDate, shift)
		if moved == len(weeks) {
			it.StartDate = schedule.ShiftWeeks(it.StartDate, shift)
		}
	}
	return resumed, nil
}

// Stop implements port.CampaignUseCase.
func (u *CampaignUseCase) Stop(ctx context.Context, id int64) (*port.CampaignView, error) {
	return u.mutate(ctx, "stop", id, u.stop)
}

func (u *CampaignUseCase) stop(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, now time.Time) error {
	if c.Status == domain.CampaignArchived {
		return domain.Conflictf("campaign %d is already archived", c.ID)
	}
	batches, err := tx.ListCampaignBatches(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	ids := make([]int64, 0, len(batches))
	for _, wb := range batches {
		if wb.Batch.Status != domain.BatchArchived {
			ids = append(ids, wb.Batch.ID)
		}
	}
	if err := tx.SetBatchStatus(ctx, ids, domain.BatchArchived); err != nil {
		return fmt.Errorf("archive batches: %w", err)
	}

	from := domain.LifecycleStatus(c.Status)
	c.Status = domain.CampaignArchived
	if err := tx.UpdateCampaign(ctx, c); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if err := appendEvent(ctx, tx, &c.ID, c.IdempotencyKey, from, domain.LifecycleArchived, now); err != nil {
		return err
	}

	u.logger.Info("campaign stopped", slog.Int64("campaign_id", c.ID), slog.Int("batches", len(ids)))
	return nil
}
