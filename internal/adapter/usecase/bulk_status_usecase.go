package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/schedule"
)

// BulkStatusUseCase implements port.BulkStatusUseCase.
type BulkStatusUseCase struct {
	deps
	store  port.CampaignStore
	locker port.Locker
}

var _ port.BulkStatusUseCase = (*BulkStatusUseCase)(nil)

func NewBulkStatusUseCase(store port.CampaignStore, locker port.Locker, opts ...Option) *BulkStatusUseCase {
	return &BulkStatusUseCase{deps: applyOptions(opts), store: store, locker: locker}
}

// ApplyBulkStatus moves every batch of every campaign whose week overlaps
// the ISO week to req.Status. Archived batches never move. When nothing had
// to change and the week was already processed for the same status, the
// existing audit event is returned and nothing is written.
func (u *BulkStatusUseCase) ApplyBulkStatus(ctx context.Context, req port.BulkStatusReq) (event *domain.BulkStatusEvent, err error) {
	started := time.Now()
	defer func() { u.metrics.ObserveOperation("bulk_status", started, err) }()

	if !req.Status.IsValid() {
		return nil, domain.Validationf("unknown batch status %q", req.Status)
	}
	from, to, err := schedule.ISOWeekRange(req.Year, req.Week)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, "invalid week", err)
	}

	unlock, err := u.locker.Lock(ctx, bulkLockKey(req.Year, req.Week))
	if err != nil {
		return nil, translate(err)
	}
	defer unlock()

	err = u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		rows, err := tx.ListBatchesOverlapping(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		var ids []int64
		for _, wb := range rows {
			if wb.Batch.Status != domain.BatchArchived && wb.Batch.Status != req.Status {
				ids = append(ids, wb.Batch.ID)
			}
		}

		if len(ids) == 0 {
			existing, err := tx.FindBulkStatusEvent(ctx, req.Year, req.Week, req.Status)
			if err == nil {
				event = existing
				return nil
			}
			if !errors.Is(err, port.ErrNotFound) {
				return fmt.Errorf("find bulk status event: %w", err)
			}
		}

		if err := tx.SetBatchStatus(ctx, ids, req.Status); err != nil {
			return fmt.Errorf("set batch status: %w", err)
		}
		event = &domain.BulkStatusEvent{
			Year:             req.Year,
			Week:             req.Week,
			TargetStatus:     req.Status,
			AffectedBatchIDs: ids,
		}
		if err := tx.CreateBulkStatusEvent(ctx, event); err != nil {
			return fmt.Errorf("record bulk status event: %w", err)
		}
		u.metrics.AddTransitioned(req.Status, len(ids))
		u.logger.Info("bulk status applied",
			slog.Int("year", req.Year),
			slog.Int("week", req.Week),
			slog.String("status", string(req.Status)),
			slog.Int("batches", len(ids)),
		)
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return event, nil
}
