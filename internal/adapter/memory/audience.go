package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/segment"
)

// AudienceSource implements port.AudienceSource over prospects held in
// memory.
type AudienceSource struct {
	mu        sync.RWMutex
	prospects []domain.Prospect
	locations map[int64]domain.Location
}

func NewAudienceSource() *AudienceSource {
	return &AudienceSource{locations: make(map[int64]domain.Location)}
}

// Add appends prospects to the audience.
func (a *AudienceSource) Add(prospects ...domain.Prospect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prospects = append(a.prospects, prospects...)
}

// AddLocation registers a company-owned location.
func (a *AudienceSource) AddLocation(l domain.Location) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locations[l.ID] = l
}

// Update applies fn to the prospect with the given id.
func (a *AudienceSource) Update(id int64, fn func(p *domain.Prospect)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.prospects {
		if a.prospects[i].ID == id {
			fn(&a.prospects[i])
		}
	}
}

// snapshot copies the audience, detaching locations the prospect's company
// does not own so that location filters only see company-owned locations.
func (a *AudienceSource) snapshot() []domain.Prospect {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := slices.Clone(a.prospects)
	for i := range out {
		if id := out[i].LocationID; id != nil {
			if l, ok := a.locations[*id]; !ok || l.IntacctCompanyID != out[i].IntacctCompanyID {
				out[i].LocationID = nil
			}
		}
	}
	return out
}

// Query implements port.AudienceSource.
func (a *AudienceSource) Query(ctx context.Context, p segment.Pipeline) ([]port.AudienceCandidate, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	selected := p.Select(a.snapshot())
	out := make([]port.AudienceCandidate, 0, len(selected))
	for _, pr := range selected {
		out = append(out, port.AudienceCandidate{
			ProspectID:      pr.ID,
			AddressID:       pr.PreferredAddress.ID,
			PostalCodeShort: pr.PreferredAddress.PostalCodeShort,
		})
	}
	return out, int64(len(out)), nil
}

// Aggregate implements port.AudienceSource.
func (a *AudienceSource) Aggregate(ctx context.Context, p segment.Pipeline) ([]domain.PostalCodeRollup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type acc struct {
		households int64
		customers  int64
		ltv        int64
	}
	groups := make(map[string]*acc)
	for _, pr := range p.Select(a.snapshot()) {
		code := pr.PreferredAddress.PostalCodeShort
		g := groups[code]
		if g == nil {
			g = &acc{}
			groups[code] = g
		}
		g.households++
		if p.JoinsCustomers() && pr.Customer != nil {
			g.customers++
			g.ltv += pr.Customer.LifetimeValue
		}
	}

	out := make([]domain.PostalCodeRollup, 0, len(groups))
	for code, g := range groups {
		row := domain.PostalCodeRollup{PostalCodeShort: code, Households: g.households}
		if g.customers > 0 {
			row.AverageCustomerLTV = float64(g.ltv) / float64(g.customers)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostalCodeShort < out[j].PostalCodeShort })
	return out, nil
}
