package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mailcadence/internal/config/configs"
	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCampaigns struct {
	port.CampaignUseCase
	calls  int
	report *port.ActivationReport
	err    error
}

func (f *fakeCampaigns) ActivatePendingAll(context.Context) (*port.ActivationReport, error) {
	f.calls++
	return f.report, f.err
}

type fakeBulk struct {
	reqs []port.BulkStatusReq
}

func (f *fakeBulk) ApplyBulkStatus(_ context.Context, req port.BulkStatusReq) (*domain.BulkStatusEvent, error) {
	f.reqs = append(f.reqs, req)
	return &domain.BulkStatusEvent{Year: req.Year, Week: req.Week, TargetStatus: req.Status, AffectedBatchIDs: []int64{1, 2}}, nil
}

func config() configs.Scheduler {
	return configs.Scheduler{
		Enabled:      true,
		ActivateSpec: "0 1 * * 1",
		BulkSpec:     "0 2 * * 1",
		BulkStatus:   "sent",
		Concurrency:  2,
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// TestPreviousISOWeek ensures year boundaries and 53-week years are handled.
func TestPreviousISOWeek(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		year, week int
	}{
		{"mid year", time.Date(2025, time.March, 12, 8, 0, 0, 0, time.UTC), 2025, 10},
		{"monday", time.Date(2025, time.January, 13, 2, 0, 0, 0, time.UTC), 2025, 2},
		{"first week of year", time.Date(2025, time.January, 1, 2, 0, 0, 0, time.UTC), 2024, 52},
		{"long year", time.Date(2021, time.January, 4, 2, 0, 0, 0, time.UTC), 2020, 53},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, week := PreviousISOWeek(tt.now)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.week, week)
		})
	}
}

// TestRunBulkStatusTargetsPreviousWeek ensures the bulk job marks last week's batches as sent.
func TestRunBulkStatusTargetsPreviousWeek(t *testing.T) {
	bulk := &fakeBulk{}
	s, err := New(config(), &fakeCampaigns{}, bulk, discard)
	require.NoError(t, err)
	s.clock = func() time.Time { return time.Date(2025, time.January, 13, 2, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunBulkStatus(context.Background()))
	require.Len(t, bulk.reqs, 1)
	assert.Equal(t, port.BulkStatusReq{Year: 2025, Week: 2, Status: domain.BatchSent}, bulk.reqs[0])
}

// TestRunActivation ensures the activation job starts pending iterations.
func TestRunActivation(t *testing.T) {
	campaigns := &fakeCampaigns{report: &port.ActivationReport{Campaigns: 3, Failed: 1}}
	s, err := New(config(), campaigns, &fakeBulk{}, discard)
	require.NoError(t, err)

	require.NoError(t, s.RunActivation(context.Background()))
	assert.Equal(t, 1, campaigns.calls)

	campaigns.err = errors.New("store down")
	assert.EqualError(t, s.RunActivation(context.Background()), "store down")
}

// TestNewRejectsBadSpec ensures a malformed cron spec is reported at construction.
func TestNewRejectsBadSpec(t *testing.T) {
	cfg := config()
	cfg.BulkSpec = "every monday"
	_, err := New(cfg, &fakeCampaigns{}, &fakeBulk{}, discard)
	assert.Error(t, err)
}

// TestStartStop ensures the scheduler stops cleanly after starting.
func TestStartStop(t *testing.T) {
	s, err := New(config(), &fakeCampaigns{}, &fakeBulk{}, discard)
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.Error(t, s.ctx.Err())
}
