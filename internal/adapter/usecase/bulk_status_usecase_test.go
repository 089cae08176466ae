package usecase

import (
	"context"
	"testing"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApplyBulkStatusTwiceRecordsOneEvent ensures repeating a bulk update records no second event.
func TestApplyBulkStatusTwiceRecordsOneEvent(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 20)
	view := f.create(t)
	firstBatch := materialized(t, view, 0).DropWeeks()[0].Batch

	req := port.BulkStatusReq{Year: 2025, Week: 2, Status: domain.BatchSent}
	event, err := f.bulk.ApplyBulkStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int64{firstBatch.ID}, event.AffectedBatchIDs)

	again, err := f.bulk.ApplyBulkStatus(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, event.ID, again.ID)
	assert.Len(t, f.store.BulkStatusEvents(), 1)

	view, err = f.campaign.Get(context.Background(), view.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.BatchStatus{
		domain.BatchSent, domain.BatchNew, domain.BatchNew,
	}, batchStatuses(materialized(t, view, 0)))
}

// TestApplyBulkStatusSpansCampaignsAndSkipsArchived ensures bulk updates cross campaigns but leave archived batches alone.
func TestApplyBulkStatusSpansCampaignsAndSkipsArchived(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 6)
	a, err := f.campaign.Create(context.Background(), eightWeekRequest("a"))
	require.NoError(t, err)
	b, err := f.campaign.Create(context.Background(), eightWeekRequest("b"))
	require.NoError(t, err)
	c, err := f.campaign.Create(context.Background(), eightWeekRequest("c"))
	require.NoError(t, err)
	_, err = f.campaign.Stop(context.Background(), c.Campaign.ID)
	require.NoError(t, err)

	event, err := f.bulk.ApplyBulkStatus(context.Background(), port.BulkStatusReq{Year: 2025, Week: 3, Status: domain.BatchSent})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{
		materialized(t, a, 0).DropWeeks()[1].Batch.ID,
		materialized(t, b, 0).DropWeeks()[1].Batch.ID,
	}, event.AffectedBatchIDs)

	view, err := f.campaign.Get(context.Background(), c.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchArchived, materialized(t, view, 0).DropWeeks()[1].Batch.Status)
}

// TestApplyBulkStatusNewTargetRecordsNewEvent ensures a different target status records a fresh event.
func TestApplyBulkStatusNewTargetRecordsNewEvent(t *testing.T) {
	f := newFixture(t)
	f.addProspects(1, 6)
	f.create(t)

	sent, err := f.bulk.ApplyBulkStatus(context.Background(), port.BulkStatusReq{Year: 2025, Week: 2, Status: domain.BatchSent})
	require.NoError(t, err)
	back, err := f.bulk.ApplyBulkStatus(context.Background(), port.BulkStatusReq{Year: 2025, Week: 2, Status: domain.BatchNew})
	require.NoError(t, err)

	assert.NotEqual(t, sent.ID, back.ID)
	assert.Equal(t, sent.AffectedBatchIDs, back.AffectedBatchIDs)
	assert.Len(t, f.store.BulkStatusEvents(), 2)
}

// TestApplyBulkStatusValidatesInput ensures bad ranges and statuses are rejected.
func TestApplyBulkStatusValidatesInput(t *testing.T) {
	f := newFixture(t)
	cases := map[string]port.BulkStatusReq{
		"week out of range": {Year: 2025, Week: 54, Status: domain.BatchSent},
		"no week 53":        {Year: 2025, Week: 53, Status: domain.BatchSent},
		"unknown status":    {Year: 2025, Week: 2, Status: "lost"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.bulk.ApplyBulkStatus(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		})
	}
	assert.Empty(t, f.store.BulkStatusEvents())
}
