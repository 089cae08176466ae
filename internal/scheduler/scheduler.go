// Package scheduler runs the periodic jobs of the service: activation of due
// iterations and the weekly bulk status change.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"mailcadence/internal/config/configs"
	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/schedule"
)

const jobTimeout = 10 * time.Minute

// Scheduler drives the use cases from cron specs evaluated in UTC. A job
// still running when its next tick fires is skipped.
type Scheduler struct {
	cron      *cron.Cron
	campaigns port.CampaignUseCase
	bulk      port.BulkStatusUseCase
	status    domain.BatchStatus
	clock     func() time.Time
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New registers both jobs. It fails when a spec does not parse.
func New(cfg configs.Scheduler, campaigns port.CampaignUseCase, bulk port.BulkStatusUseCase, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger.With(slog.String("component", "scheduler"))}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		campaigns: campaigns,
		bulk:      bulk,
		status:    domain.BatchStatus(cfg.BulkStatus),
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    cl.logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(cfg.ActivateSpec, func() { s.run("activate", s.RunActivation) }); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.BulkSpec, func() { s.run("bulk_status", s.RunBulkStatus) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) run(job string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	started := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error("job failed", slog.String("job", job), slog.Any("error", err))
		return
	}
	s.logger.Info("job finished", slog.String("job", job), slog.Duration("took", time.Since(started)))
}

// RunActivation activates due iterations of every active campaign.
func (s *Scheduler) RunActivation(ctx context.Context) error {
	report, err := s.campaigns.ActivatePendingAll(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("activation pass",
		slog.Int("campaigns", report.Campaigns),
		slog.Int("failed", report.Failed),
	)
	return nil
}

// RunBulkStatus applies the configured status to the ISO week before the
// current one.
func (s *Scheduler) RunBulkStatus(ctx context.Context) error {
	year, week := PreviousISOWeek(s.clock())
	ev, err := s.bulk.ApplyBulkStatus(ctx, port.BulkStatusReq{Year: year, Week: week, Status: s.status})
	if err != nil {
		return err
	}
	s.logger.Info("bulk status applied",
		slog.Int("year", year),
		slog.Int("week", week),
		slog.String("status", string(s.status)),
		slog.Int("batches", len(ev.AffectedBatchIDs)),
	)
	return nil
}

// PreviousISOWeek returns the ISO year and week preceding t's week.
func PreviousISOWeek(t time.Time) (year, week int) {
	return schedule.StartOfWeek(t).AddDate(0, 0, -7).ISOWeek()
}

// cronLogger routes cron's key-value logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
