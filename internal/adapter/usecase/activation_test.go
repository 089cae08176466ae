package usecase

import (
	"context"
	"testing"
	"time"

	"mailcadence/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActivatePendingStartsNextIteration ensures the next iteration starts once the current one ends.
func TestActivatePendingStartsNextIteration(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 20)
	view := f.create(t)
	id := view.Campaign.ID

	f.addProspects(21, 26)
	f.now = at(time.January, 28, 9)
	view, err := f.campaign.ActivatePending(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []domain.IterationStatus{
		domain.IterationCompleted, domain.IterationActive, domain.IterationPending,
	}, statuses(view))
	second := materialized(t, view, 1)
	require.Len(t, second.Weeks, 3)
	assert.Equal(t, 4, second.Weeks[0].Week.WeekNumber)
	assert.Equal(t, 6, second.Weeks[2].Week.WeekNumber)
	assert.Equal(t, []int{8, 8, 10}, batchSizes(second))
	_, ok := view.Iterations[2].(*domain.ScheduledIteration)
	assert.True(t, ok)
}

// TestActivatePendingIsIdempotent ensures activating twice materializes one iteration.
func TestActivatePendingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 20)
	view := f.create(t)
	id := view.Campaign.ID

	f.now = at(time.January, 28, 9)
	first, err := f.campaign.ActivatePending(context.Background(), id)
	require.NoError(t, err)
	f.addProspects(21, 40)
	again, err := f.campaign.ActivatePending(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, statuses(first), statuses(again))
	a, b := materialized(t, first, 1), materialized(t, again, 1)
	require.Len(t, b.Weeks, len(a.Weeks))
	for i := range a.Weeks {
		assert.Equal(t, a.Weeks[i].Week.ID, b.Weeks[i].Week.ID)
		assert.Equal(t, a.Weeks[i].Batch.ID, b.Weeks[i].Batch.ID)
		assert.Equal(t, a.Weeks[i].Batch.ProspectIDs, b.Weeks[i].Batch.ProspectIDs)
	}
}

// TestActivatePendingWaitsForRunningIteration ensures nothing starts while an iteration is still running.
func TestActivatePendingWaitsForRunningIteration(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 6)
	view := f.create(t)

	f.now = at(time.January, 10, 9)
	view, err := f.campaign.ActivatePending(context.Background(), view.Campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.IterationStatus{
		domain.IterationActive, domain.IterationPending, domain.IterationPending,
	}, statuses(view))
	assert.False(t, view.Iterations[1].Header().Materialized())
}

// TestActivatePendingCatchesUpMissedIterations ensures missed iterations are materialized in order.
func TestActivatePendingCatchesUpMissedIterations(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 20)
	view := f.create(t)

	f.now = at(time.February, 20, 9)
	view, err := f.campaign.ActivatePending(context.Background(), view.Campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.IterationStatus{
		domain.IterationCompleted, domain.IterationCompleted, domain.IterationActive,
	}, statuses(view))
	last := materialized(t, view, 2)
	require.Len(t, last.Weeks, 2)
	assert.Equal(t, 7, last.Weeks[0].Week.WeekNumber)
	assert.Equal(t, 8, last.Weeks[1].Week.WeekNumber)
	assert.Equal(t, []int{10, 10}, batchSizes(last))
	materialized(t, view, 1)
}

// TestActivatePendingAllSkipsInactiveCampaigns ensures paused and archived campaigns are not activated.
func TestActivatePendingAllSkipsInactiveCampaigns(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 12)
	running, err := f.campaign.Create(context.Background(), eightWeekRequest("running"))
	require.NoError(t, err)
	paused, err := f.campaign.Create(context.Background(), eightWeekRequest("paused"))
	require.NoError(t, err)
	_, err = f.campaign.Pause(context.Background(), paused.Campaign.ID)
	require.NoError(t, err)

	f.now = at(time.January, 28, 9)
	report, err := f.campaign.ActivatePendingAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Campaigns)
	assert.Zero(t, report.Failed)

	view, err := f.campaign.Get(context.Background(), running.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IterationActive, view.Iterations[1].Header().Status)

	view, err = f.campaign.Get(context.Background(), paused.Campaign.ID)
	require.NoError(t, err)
	assert.False(t, view.Iterations[1].Header().Materialized())
}
