package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/metrics"
)

// Clock returns the current time. It is injected so that pause, resume and
// activation can be tested against fixed instants.
type Clock func() time.Time

type deps struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	clock       Clock
	concurrency int
}

func defaultDeps() deps {
	return deps{
		logger:      slog.Default(),
		clock:       func() time.Time { return time.Now().UTC() },
		concurrency: 4,
	}
}

// Option configures the use cases of this package.
type Option func(*deps)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(d *deps) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithConcurrency bounds how many campaigns ActivatePendingAll processes at
// once.
func WithConcurrency(n int) Option {
	return func(d *deps) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func applyOptions(opts []Option) deps {
	d := defaultDeps()
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}

// translate maps store and lock failures to coded domain errors. Errors that
// already carry a code pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, port.ErrNotFound):
		return domain.WrapError(domain.CodeNotFound, "not found", err)
	case errors.Is(err, port.ErrLockTimeout):
		return domain.WrapError(domain.CodeTransient, "campaign is busy", err)
	default:
		return domain.WrapError(domain.CodeTransient, "storage failure", err)
	}
}

func campaignLockKey(id int64) string { return fmt.Sprintf("campaign:%d", id) }

func createLockKey(key string) string { return "campaign-create:" + key }

func bulkLockKey(year, week int) string { return fmt.Sprintf("bulk-status:%d-%02d", year, week) }
