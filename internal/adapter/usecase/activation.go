package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
)

// ActivatePending implements port.CampaignUseCase.
func (u *CampaignUseCase) ActivatePending(ctx context.Context, id int64) (*port.CampaignView, error) {
	return u.mutate(ctx, "activate", id, u.activate)
}

func (u *CampaignUseCase) activate(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, now time.Time) error {
	if c.Status != domain.CampaignActive {
		return domain.Conflictf("campaign %d is %s, only active campaigns activate iterations", c.ID, c.Status)
	}

	for {
		iterations, err := tx.ListIterations(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("list iterations: %w", err)
		}

		var running, next *domain.Iteration
		for i := range iterations {
			it := &iterations[i]
			switch it.Status {
			case domain.IterationActive:
				if !it.EndDate.Before(now) {
					running = it
					continue
				}
				it.Status = domain.IterationCompleted
				if err := tx.UpdateIteration(ctx, it); err != nil {
					return fmt.Errorf("complete iteration %d: %w", it.IterationNumber, err)
				}
				u.logger.Info("iteration completed",
					slog.Int64("campaign_id", c.ID),
					slog.Int("iteration", it.IterationNumber),
				)
			case domain.IterationPending:
				if next == nil {
					next = it
				}
			}
		}
		if next == nil || running != nil {
			return nil
		}

		if !next.Materialized() {
			audience, err := u.engine.Select(ctx, c.Targeting)
			if err != nil {
				return err
			}
			m, err := materialize(ctx, tx, c, next, audience, now)
			if err != nil {
				return err
			}
			u.logger.Info("iteration materialized",
				slog.Int64("campaign_id", c.ID),
				slog.Int("iteration", next.IterationNumber),
				slog.Int("audience", len(audience)),
				slog.Int("batches", len(m.DropWeeks())),
			)
		}

		switch {
		case now.After(next.EndDate):
			next.Status = domain.IterationCompleted
		case !next.StartDate.After(now):
			next.Status = domain.IterationActive
		default:
			return nil
		}
		if err := tx.UpdateIteration(ctx, next); err != nil {
			return fmt.Errorf("update iteration %d: %w", next.IterationNumber, err)
		}
		u.logger.Info("iteration activated",
			slog.Int64("campaign_id", c.ID),
			slog.Int("iteration", next.IterationNumber),
			slog.String("status", string(next.Status)),
		)
		if next.Status != domain.IterationCompleted {
			return nil
		}
	}
}

// ActivatePendingAll implements port.CampaignUseCase. Campaigns are processed
// concurrently up to the configured limit; a failure on one campaign does not
// stop the others.
func (u *CampaignUseCase) ActivatePendingAll(ctx context.Context) (*port.ActivationReport, error) {
	var ids []int64
	err := u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		var err error
		ids, err = tx.ListCampaignIDs(ctx, domain.CampaignActive)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(u.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			_, err := u.ActivatePending(ctx, id)
			switch {
			case err == nil:
			case domain.IsCode(err, domain.CodeConflict):
				// paused or stopped since the listing
			default:
				failed.Add(1)
				u.logger.Error("activate pending iterations",
					slog.Int64("campaign_id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &port.ActivationReport{Campaigns: len(ids), Failed: int(failed.Load())}
	u.logger.Info("pending iterations activated",
		slog.Int("campaigns", report.Campaigns),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}
