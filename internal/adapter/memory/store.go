// Package memory provides in-process implementations of the core's outbound
// ports. They back tests and the demo mode of the server.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
)

// CampaignStore implements port.CampaignStore. Transactions are serialized
// and work on a copy of the state that replaces the committed state only
// when the transaction function succeeds.
type CampaignStore struct {
	mu    sync.Mutex
	state *state
}

func NewCampaignStore() *CampaignStore {
	return &CampaignStore{state: newState()}
}

type state struct {
	nextID     int64
	campaigns  map[int64]domain.Campaign
	iterations map[int64]domain.Iteration
	weeks      map[int64]domain.IterationWeek
	batches    map[int64]domain.Batch
	events     []domain.CampaignEvent
	bulk       []domain.BulkStatusEvent
}

func newState() *state {
	return &state{
		campaigns:  make(map[int64]domain.Campaign),
		iterations: make(map[int64]domain.Iteration),
		weeks:      make(map[int64]domain.IterationWeek),
		batches:    make(map[int64]domain.Batch),
	}
}

// clone copies the containers. Stored values are never mutated in place, so
// sharing them between copies is safe.
func (s *state) clone() *state {
	return &state{
		nextID:     s.nextID,
		campaigns:  maps.Clone(s.campaigns),
		iterations: maps.Clone(s.iterations),
		weeks:      maps.Clone(s.weeks),
		batches:    maps.Clone(s.batches),
		events:     slices.Clone(s.events),
		bulk:       slices.Clone(s.bulk),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// InTx implements port.CampaignStore.
func (s *CampaignStore) InTx(ctx context.Context, fn func(ctx context.Context, tx port.CampaignTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type tx struct {
	st *state
}

func now() time.Time { return time.Now().UTC() }

func cloneCampaign(c domain.Campaign) domain.Campaign {
	c.MailingDropWeeks = slices.Clone(c.MailingDropWeeks)
	c.Targeting.Rules = slices.Clone(c.Targeting.Rules)
	c.Targeting.Tags = slices.Clone(c.Targeting.Tags)
	c.Targeting.LocationIDs = slices.Clone(c.Targeting.LocationIDs)
	c.Targeting.PostalCodes = slices.Clone(c.Targeting.PostalCodes)
	return c
}

func cloneBatch(b domain.Batch) domain.Batch {
	b.ProspectIDs = slices.Clone(b.ProspectIDs)
	return b
}

func (t *tx) LockCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	c, ok := t.st.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	c = cloneCampaign(c)
	return &c, nil
}

func (t *tx) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return t.LockCampaign(ctx, id)
}

func (t *tx) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	c.ID = t.st.id()
	c.CreatedAt, c.UpdatedAt = now(), now()
	t.st.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (t *tx) UpdateCampaign(_ context.Context, c *domain.Campaign) error {
	if _, ok := t.st.campaigns[c.ID]; !ok {
		return fmt.Errorf("campaign %d: %w", c.ID, port.ErrNotFound)
	}
	c.UpdatedAt = now()
	t.st.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (t *tx) ListCampaignIDs(_ context.Context, status domain.CampaignStatus) ([]int64, error) {
	var ids []int64
	for id, c := range t.st.campaigns {
		if c.Status == status {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (t *tx) CreateIteration(_ context.Context, it *domain.Iteration) error {
	it.ID = t.st.id()
	it.CreatedAt, it.UpdatedAt = now(), now()
	t.st.iterations[it.ID] = *it
	return nil
}

func (t *tx) UpdateIteration(_ context.Context, it *domain.Iteration) error {
	if _, ok := t.st.iterations[it.ID]; !ok {
		return fmt.Errorf("iteration %d: %w", it.ID, port.ErrNotFound)
	}
	it.UpdatedAt = now()
	t.st.iterations[it.ID] = *it
	return nil
}

func (t *tx) ListIterations(_ context.Context, campaignID int64) ([]domain.Iteration, error) {
	var out []domain.Iteration
	for _, it := range t.st.iterations {
		if it.CampaignID == campaignID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IterationNumber < out[j].IterationNumber })
	return out, nil
}

func (t *tx) CreateWeek(_ context.Context, w *domain.IterationWeek) error {
	w.ID = t.st.id()
	t.st.weeks[w.ID] = *w
	return nil
}

func (t *tx) UpdateWeek(_ context.Context, w *domain.IterationWeek) error {
	if _, ok := t.st.weeks[w.ID]; !ok {
		return fmt.Errorf("iteration week %d: %w", w.ID, port.ErrNotFound)
	}
	t.st.weeks[w.ID] = *w
	return nil
}

func (t *tx) ListWeeks(_ context.Context, iterationID int64) ([]domain.IterationWeek, error) {
	var out []domain.IterationWeek
	for _, w := range t.st.weeks {
		if w.IterationID == iterationID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (t *tx) CreateBatch(_ context.Context, b *domain.Batch) error {
	b.ID = t.st.id()
	b.CreatedAt, b.UpdatedAt = now(), now()
	t.st.batches[b.ID] = cloneBatch(*b)
	return nil
}

func (t *tx) UpdateBatch(_ context.Context, b *domain.Batch) error {
	if _, ok := t.st.batches[b.ID]; !ok {
		return fmt.Errorf("batch %d: %w", b.ID, port.ErrNotFound)
	}
	b.UpdatedAt = now()
	t.st.batches[b.ID] = cloneBatch(*b)
	return nil
}

func (t *tx) SetBatchStatus(_ context.Context, ids []int64, status domain.BatchStatus) error {
	for _, id := range ids {
		b, ok := t.st.batches[id]
		if !ok {
			return fmt.Errorf("batch %d: %w", id, port.ErrNotFound)
		}
		b.Status = status
		b.UpdatedAt = now()
		t.st.batches[id] = b
	}
	return nil
}

func (t *tx) weekBatches(keep func(w domain.IterationWeek, it domain.Iteration) bool) []domain.WeekBatch {
	var out []domain.WeekBatch
	for _, b := range t.st.batches {
		w := t.st.weeks[b.IterationWeekID]
		it := t.st.iterations[w.IterationID]
		if !keep(w, it) {
			continue
		}
		out = append(out, domain.WeekBatch{
			Batch:       cloneBatch(b),
			Week:        w,
			CampaignID:  it.CampaignID,
			IterationID: it.ID,
		})
	}
	return out
}

func (t *tx) ListCampaignBatches(_ context.Context, campaignID int64) ([]domain.WeekBatch, error) {
	out := t.weekBatches(func(_ domain.IterationWeek, it domain.Iteration) bool {
		return it.CampaignID == campaignID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Week.WeekNumber < out[j].Week.WeekNumber })
	return out, nil
}

func (t *tx) ListBatchesOverlapping(_ context.Context, from, to time.Time) ([]domain.WeekBatch, error) {
	out := t.weekBatches(func(w domain.IterationWeek, _ domain.Iteration) bool {
		return !w.StartDate.After(to) && !w.EndDate.Before(from)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Batch.ID < out[j].Batch.ID })
	return out, nil
}

func (t *tx) AppendCampaignEvent(_ context.Context, e *domain.CampaignEvent) error {
	e.ID = t.st.id()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now()
	}
	t.st.events = append(t.st.events, *e)
	return nil
}

func (t *tx) LatestEventByKey(_ context.Context, key string) (*domain.CampaignEvent, error) {
	for i := len(t.st.events) - 1; i >= 0; i-- {
		if e := t.st.events[i]; e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("event for key %q: %w", key, port.ErrNotFound)
}

func (t *tx) LatestEventTo(_ context.Context, campaignID int64, status domain.LifecycleStatus) (*domain.CampaignEvent, error) {
	for i := len(t.st.events) - 1; i >= 0; i-- {
		e := t.st.events[i]
		if e.CampaignID != nil && *e.CampaignID == campaignID && e.ToStatus == status {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("campaign %d event to %s: %w", campaignID, status, port.ErrNotFound)
}

func (t *tx) ListCampaignEvents(_ context.Context, campaignID int64) ([]domain.CampaignEvent, error) {
	var out []domain.CampaignEvent
	var key string
	for _, e := range t.st.events {
		if e.CampaignID != nil && *e.CampaignID == campaignID {
			key = e.IdempotencyKey
			break
		}
	}
	for _, e := range t.st.events {
		if (e.CampaignID != nil && *e.CampaignID == campaignID) || (e.CampaignID == nil && key != "" && e.IdempotencyKey == key) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *tx) FindBulkStatusEvent(_ context.Context, year, week int, status domain.BatchStatus) (*domain.BulkStatusEvent, error) {
	for i := len(t.st.bulk) - 1; i >= 0; i-- {
		e := t.st.bulk[i]
		if e.Year == year && e.Week == week && e.TargetStatus == status {
			e.AffectedBatchIDs = slices.Clone(e.AffectedBatchIDs)
			return &e, nil
		}
	}
	return nil, fmt.Errorf("bulk status event %d-W%02d %s: %w", year, week, status, port.ErrNotFound)
}

func (t *tx) CreateBulkStatusEvent(_ context.Context, e *domain.BulkStatusEvent) error {
	e.ID = t.st.id()
	e.CreatedAt = now()
	stored := *e
	stored.AffectedBatchIDs = slices.Clone(e.AffectedBatchIDs)
	t.st.bulk = append(t.st.bulk, stored)
	return nil
}

// BulkStatusEvents returns every recorded bulk status event.
func (s *CampaignStore) BulkStatusEvents() []domain.BulkStatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.bulk)
}
