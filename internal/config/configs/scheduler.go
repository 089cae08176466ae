package configs

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"mailcadence/internal/core/domain"
)

// Scheduler configures the embedded periodic jobs. Specs use the standard
// five-field cron syntax and run in UTC.
type Scheduler struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
	// ActivateSpec schedules Activate-Pending over every active campaign.
	ActivateSpec string `env:"ACTIVATE_SPEC" envDefault:"0 1 * * 1"`
	// BulkSpec schedules the bulk status job for the ISO week that just
	// ended.
	BulkSpec string `env:"BULK_SPEC" envDefault:"0 2 * * 1"`
	// BulkStatus is the status the bulk job moves batches to.
	BulkStatus  string `env:"BULK_STATUS" envDefault:"sent"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"4"`
}

// Validate checks the cron specs and the bulk status.
func (s Scheduler) Validate() error {
	for name, spec := range map[string]string{"activate": s.ActivateSpec, "bulk": s.BulkSpec} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("scheduler %s spec %q: %w", name, spec, err)
		}
	}
	if !domain.BatchStatus(s.BulkStatus).IsValid() {
		return fmt.Errorf("scheduler bulk status %q is not a batch status", s.BulkStatus)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("scheduler concurrency must be positive, got %d", s.Concurrency)
	}
	return nil
}
