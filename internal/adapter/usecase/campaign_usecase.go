package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/schedule"
	"mailcadence/internal/core/segment"
)

// CampaignUseCase implements port.CampaignUseCase. Every mutating operation
// takes the campaign's lock, then runs in one store transaction so a failure
// anywhere leaves no partial iteration, week or batch behind.
type CampaignUseCase struct {
	deps
	store  port.CampaignStore
	locker port.Locker
	engine *SegmentationEngine
}

var _ port.CampaignUseCase = (*CampaignUseCase)(nil)

func NewCampaignUseCase(store port.CampaignStore, locker port.Locker, engine *SegmentationEngine, opts ...Option) *CampaignUseCase {
	return &CampaignUseCase{
		deps:   applyOptions(opts),
		store:  store,
		locker: locker,
		engine: engine,
	}
}

// Create implements port.CampaignUseCase.
func (u *CampaignUseCase) Create(ctx context.Context, req port.CreateCampaignReq) (view *port.CampaignView, err error) {
	started := time.Now()
	defer func() { u.metrics.ObserveOperation("create", started, err) }()

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	c := &domain.Campaign{
		IdempotencyKey:        key,
		Name:                  req.Name,
		StartDate:             schedule.StartOfDay(req.StartDate),
		EndDate:               schedule.EndOfDay(req.EndDate),
		MailingFrequencyWeeks: req.MailingFrequencyWeeks,
		MailingDropWeeks:      req.MailingDropWeeks,
		Status:                domain.CampaignActive,
		Targeting:             req.Targeting,
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		c.StartDate, c.EndDate = req.StartDate, req.EndDate
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pipeline, err := segment.Compile(c.Targeting)
	if err != nil {
		return nil, domain.WrapError(domain.CodeValidation, "invalid targeting", err)
	}

	unlock, err := u.locker.Lock(ctx, createLockKey(key))
	if err != nil {
		return nil, translate(err)
	}
	defer unlock()

	now := u.clock()
	err = u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		// A key names one campaign for good, whatever became of it.
		prev, err := tx.LatestEventByKey(ctx, key)
		switch {
		case err == nil:
			return domain.Conflictf("campaign with idempotency key %q is already %s", key, prev.ToStatus)
		case !errors.Is(err, port.ErrNotFound):
			return fmt.Errorf("check idempotency key: %w", err)
		}

		if err := appendEvent(ctx, tx, nil, key, domain.LifecycleNone, domain.LifecyclePending, now); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, nil, key, domain.LifecyclePending, domain.LifecycleProcessing, now); err != nil {
			return err
		}
		if err := tx.CreateCampaign(ctx, c); err != nil {
			return fmt.Errorf("create campaign: %w", err)
		}
		if err := appendEvent(ctx, tx, &c.ID, key, domain.LifecycleProcessing, domain.LifecycleCreated, now); err != nil {
			return err
		}

		calendar := schedule.BuildCalendar(c)
		for _, s := range calendar {
			if err := tx.CreateIteration(ctx, &s.Iteration); err != nil {
				return fmt.Errorf("create iteration %d: %w", s.Iteration.IterationNumber, err)
			}
		}

		audience, err := u.engine.SelectPipeline(ctx, pipeline)
		if err != nil {
			return err
		}
		first, err := materialize(ctx, tx, c, &calendar[0].Iteration, audience, now)
		if err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, &c.ID, key, domain.LifecycleCreated, domain.LifecycleActive, now); err != nil {
			return err
		}

		u.logger.Info("campaign created",
			slog.Int64("campaign_id", c.ID),
			slog.String("idempotency_key", key),
			slog.Int("iterations", len(calendar)),
			slog.Int("audience", len(audience)),
			slog.Int("batches", len(first.DropWeeks())),
		)
		view, err = loadView(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return view, nil
}

// Get implements port.CampaignUseCase.
func (u *CampaignUseCase) Get(ctx context.Context, id int64) (*port.CampaignView, error) {
	var view *port.CampaignView
	err := u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		c, err := tx.GetCampaign(ctx, id)
		if err != nil {
			return err
		}
		view, err = loadView(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return view, nil
}

// Events implements port.CampaignUseCase.
func (u *CampaignUseCase) Events(ctx context.Context, id int64) ([]domain.CampaignEvent, error) {
	var events []domain.CampaignEvent
	err := u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		if _, err := tx.GetCampaign(ctx, id); err != nil {
			return err
		}
		var err error
		events, err = tx.ListCampaignEvents(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return events, nil
}

// PreviewAudience implements port.CampaignUseCase.
func (u *CampaignUseCase) PreviewAudience(ctx context.Context, t domain.Targeting) (preview *port.AudiencePreview, err error) {
	started := time.Now()
	defer func() { u.metrics.ObserveOperation("preview", started, err) }()

	preview, err = u.engine.Rollup(ctx, t)
	if err != nil {
		return nil, translate(err)
	}
	return preview, nil
}

// mutate runs fn under the campaign lock in one transaction with the
// campaign row locked and returns the resulting view.
func (u *CampaignUseCase) mutate(
	ctx context.Context,
	op string,
	id int64,
	fn func(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, now time.Time) error,
) (view *port.CampaignView, err error) {
	started := time.Now()
	defer func() { u.metrics.ObserveOperation(op, started, err) }()

	unlock, err := u.locker.Lock(ctx, campaignLockKey(id))
	if err != nil {
		return nil, translate(err)
	}
	defer unlock()

	now := u.clock()
	err = u.store.InTx(ctx, func(ctx context.Context, tx port.CampaignTx) error {
		c, err := tx.LockCampaign(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, c, now); err != nil {
			return err
		}
		view, err = loadView(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return view, nil
}

// materialize writes the weeks and batches of a scheduled iteration and
// marks it materialized. it is updated in place.
func materialize(ctx context.Context, tx port.CampaignTx, c *domain.Campaign, it *domain.Iteration, audience []int64, now time.Time) (*domain.MaterializedIteration, error) {
	m := schedule.Materialize(c, &domain.ScheduledIteration{Iteration: *it}, audience, now)
	for i := range m.Weeks {
		w := &m.Weeks[i]
		if err := tx.CreateWeek(ctx, &w.Week); err != nil {
			return nil, fmt.Errorf("create week %d: %w", w.Week.WeekNumber, err)
		}
		if w.Batch == nil {
			continue
		}
		w.Batch.IterationWeekID = w.Week.ID
		if err := tx.CreateBatch(ctx, w.Batch); err != nil {
			return nil, fmt.Errorf("create batch for week %d: %w", w.Week.WeekNumber, err)
		}
	}
	if err := tx.UpdateIteration(ctx, &m.Iteration); err != nil {
		return nil, fmt.Errorf("update iteration %d: %w", m.Iteration.IterationNumber, err)
	}
	*it = m.Iteration
	return m, nil
}

func appendEvent(ctx context.Context, tx port.CampaignTx, campaignID *int64, key string, from, to domain.LifecycleStatus, at time.Time) error {
	e := &domain.CampaignEvent{
		CampaignID:     campaignID,
		IdempotencyKey: key,
		FromStatus:     from,
		ToStatus:       to,
		OccurredAt:     at,
	}
	if err := tx.AppendCampaignEvent(ctx, e); err != nil {
		return fmt.Errorf("append %s event: %w", to, err)
	}
	return nil
}

func loadView(ctx context.Context, tx port.CampaignTx, c *domain.Campaign) (*port.CampaignView, error) {
	iterations, err := tx.ListIterations(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	batches, err := tx.ListCampaignBatches(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	byWeek := make(map[int64]*domain.Batch, len(batches))
	for i := range batches {
		b := batches[i].Batch
		byWeek[batches[i].Week.ID] = &b
	}

	view := &port.CampaignView{Campaign: *c, Iterations: make([]domain.IterationPhase, 0, len(iterations))}
	for _, it := range iterations {
		if !it.Materialized() {
			view.Iterations = append(view.Iterations, &domain.ScheduledIteration{Iteration: it})
			continue
		}
		weeks, err := tx.ListWeeks(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("list weeks of iteration %d: %w", it.IterationNumber, err)
		}
		m := &domain.MaterializedIteration{Iteration: it, Weeks: make([]domain.ScheduledWeek, 0, len(weeks))}
		for _, w := range weeks {
			m.Weeks = append(m.Weeks, domain.ScheduledWeek{Week: w, Batch: byWeek[w.ID]})
		}
		view.Iterations = append(view.Iterations, m)
	}
	return view, nil
}
