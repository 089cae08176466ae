package usecase

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"mailcadence/internal/adapter/memory"
	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func at(m time.Month, d, hour int) time.Time {
	return time.Date(2025, m, d, hour, 0, 0, 0, time.UTC)
}

// fixture wires the use cases to in-memory adapters and a settable clock.
type fixture struct {
	now      time.Time
	store    *memory.CampaignStore
	audience *memory.AudienceSource
	engine   *SegmentationEngine
	campaign *CampaignUseCase
	bulk     *BulkStatusUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:      at(time.January, 5, 9),
		store:    memory.NewCampaignStore(),
		audience: memory.NewAudienceSource(),
	}
	clock := WithClock(func() time.Time { return f.now })
	locker := memory.NewLocker()
	f.engine = NewSegmentationEngine(f.audience)
	f.campaign = NewCampaignUseCase(f.store, locker, f.engine, clock)
	f.bulk = NewBulkStatusUseCase(f.store, locker, clock)
	return f
}

func prospect(id int64, zip string) domain.Prospect {
	return domain.Prospect{
		ID:               id,
		IntacctCompanyID: "C1",
		Active:           true,
		PreferredAddress: &domain.Address{
			ID:              id,
			Line1:           fmt.Sprintf("%d Elm St", id),
			City:            "Springfield",
			State:           "IL",
			PostalCode:      zip + "-0001",
			PostalCodeShort: zip,
			Verified:        true,
			Active:          true,
		},
	}
}

func (f *fixture) addProspects(from, to int64) {
	for id := from; id <= to; id++ {
		f.audience.Add(prospect(id, "62701"))
	}
}

// eightWeekRequest covers Monday 2025-01-06 through Sunday 2025-03-02 in
// three-week cycles that mail every week.
func eightWeekRequest(key string) port.CreateCampaignReq {
	return port.CreateCampaignReq{
		IdempotencyKey:        key,
		Name:                  "Spring tune-up",
		StartDate:             day(time.January, 6),
		EndDate:               day(time.March, 2),
		MailingFrequencyWeeks: 3,
		MailingDropWeeks:      []int{1, 2, 3},
		Targeting:             domain.Targeting{IntacctCompanyID: "C1"},
	}
}

func (f *fixture) create(t *testing.T) *port.CampaignView {
	t.Helper()
	view, err := f.campaign.Create(context.Background(), eightWeekRequest("spring-2025"))
	require.NoError(t, err)
	return view
}

func materialized(t *testing.T, view *port.CampaignView, i int) *domain.MaterializedIteration {
	t.Helper()
	require.Greater(t, len(view.Iterations), i)
	m, ok := view.Iterations[i].(*domain.MaterializedIteration)
	require.Truef(t, ok, "iteration %d is not materialized", i+1)
	return m
}

func statuses(view *port.CampaignView) []domain.IterationStatus {
	out := make([]domain.IterationStatus, 0, len(view.Iterations))
	for _, it := range view.Iterations {
		out = append(out, it.Header().Status)
	}
	return out
}

func batchSizes(m *domain.MaterializedIteration) []int {
	var out []int
	for _, w := range m.DropWeeks() {
		out = append(out, len(w.Batch.ProspectIDs))
	}
	return out
}

func batchStatuses(m *domain.MaterializedIteration) []domain.BatchStatus {
	var out []domain.BatchStatus
	for _, w := range m.DropWeeks() {
		out = append(out, w.Batch.Status)
	}
	return out
}

func eventTrail(events []domain.CampaignEvent) []domain.LifecycleStatus {
	out := make([]domain.LifecycleStatus, 0, len(events))
	for _, e := range events {
		out = append(out, e.ToStatus)
	}
	return out
}

func seq(from, to int64) []int64 {
	var out []int64
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}

// audienceOf runs a fresh segmentation pass for the campaign's targeting.
func (f *fixture) audienceOf(t *testing.T, view *port.CampaignView) []int64 {
	t.Helper()
	ids, err := f.engine.Select(context.Background(), view.Campaign.Targeting)
	require.NoError(t, err)
	return ids
}

// assertBatchesCover checks that no prospect sits in two batches of m and
// that the batches together hold exactly audience plus mailed, the members
// of batches that were already sent out and no longer match.
func assertBatchesCover(t *testing.T, m *domain.MaterializedIteration, audience []int64, mailed ...int64) {
	t.Helper()
	seen := make(map[int64]int)
	total := 0
	for _, w := range m.DropWeeks() {
		for _, id := range w.Batch.ProspectIDs {
			seen[id]++
			total++
		}
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "prospect %d is in %d batches", id, n)
	}

	want := make(map[int64]int, len(audience)+len(mailed))
	for _, id := range append(slices.Clone(audience), mailed...) {
		want[id] = 1
	}
	assert.Equal(t, want, seen)
	assert.Equal(t, len(want), total)
}
