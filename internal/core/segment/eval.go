package segment

import (
	"slices"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/filter"
)

// Matches evaluates every row-level predicate of the pipeline against one
// prospect. HouseholdDedup needs the prospect's siblings and is evaluated by
// Select instead.
func (p Pipeline) Matches(pr *domain.Prospect) bool {
	for _, step := range p.steps {
		if !matchStep(step, pr) {
			return false
		}
	}
	return true
}

func matchStep(step Predicate, pr *domain.Prospect) bool {
	switch s := step.(type) {
	case CompanyScope:
		return pr.IntacctCompanyID == s.IntacctCompanyID
	case AddressEligibility:
		return addressEligible(pr.PreferredAddress)
	case AddressTypeFilter:
		a := pr.PreferredAddress
		if a == nil {
			return false
		}
		switch s.Type {
		case filter.ResidentialOnly:
			return !a.IsBusiness
		case filter.CommercialOnly:
			return a.IsBusiness
		}
		return true
	case ProspectEligibility:
		return pr.Active && !pr.DoNotContact && !pr.DoNotMail
	case CustomerInclusion:
		return matchInclusion(s, pr.Customer)
	case DetailBounds:
		return matchDetails(s, pr.Details)
	case TagFilter:
		return hasAnyTag(pr, s.Tags)
	case LocationFilter:
		return pr.LocationID != nil && slices.Contains(s.LocationIDs, *pr.LocationID)
	case PostalCodeFilter:
		return pr.PreferredAddress != nil && slices.Contains(s.Codes, pr.PreferredAddress.PostalCodeShort)
	case HouseholdDedup:
		return true
	}
	return false
}

func addressEligible(a *domain.Address) bool {
	if a == nil {
		return false
	}
	return a.City != "" && a.State != "" && a.PostalCode != "" &&
		a.Verified && a.Active && !a.Vacant &&
		!a.DoNotMail && !a.GlobalDoNotMail &&
		!a.IsPOBox && !poBoxRe.MatchString(a.Line1) &&
		len(a.PostalCodeShort) >= MinPostalCodeShortLen
}

func matchInclusion(s CustomerInclusion, c *domain.Customer) bool {
	switch s.Mode {
	case filter.ProspectsOnly:
		return c == nil
	case filter.CustomersOnly:
		return c != nil && matchCustomer(s, c)
	default:
		return c == nil || matchCustomer(s, c)
	}
}

func matchCustomer(s CustomerInclusion, c *domain.Customer) bool {
	if s.MaxLifetimeValue != nil && c.LifetimeValue > *s.MaxLifetimeValue {
		return false
	}
	switch s.Club {
	case filter.ClubIncludeOnly:
		if !c.IsClubMember {
			return false
		}
	case filter.ClubExclude:
		if c.IsClubMember {
			return false
		}
	}
	switch s.Installation {
	case filter.WithInstallation:
		return c.HasInstallation
	case filter.WithoutInstallation:
		return !c.HasInstallation
	}
	return true
}

func matchDetails(s DetailBounds, d *domain.ProspectDetails) bool {
	if d == nil {
		return true
	}
	if d.Age != nil {
		if s.MinAge != nil && *d.Age < *s.MinAge {
			return false
		}
		if s.MaxAge != nil && *d.Age > *s.MaxAge {
			return false
		}
	}
	if d.HomeAge != nil && s.MinHomeAge != nil && *d.HomeAge < *s.MinHomeAge {
		return false
	}
	if d.EstimatedIncome != nil && s.MinIncome != nil && *d.EstimatedIncome < *s.MinIncome {
		return false
	}
	return true
}

func hasAnyTag(pr *domain.Prospect, tags []string) bool {
	for _, t := range pr.Tags {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}

func (p Pipeline) household() (HouseholdDedup, bool) {
	for _, step := range p.steps {
		if h, ok := step.(HouseholdDedup); ok {
			return h, true
		}
	}
	return HouseholdDedup{}, false
}

// Select evaluates the whole pipeline, household dedup included, over an
// in-memory audience and returns the matching prospects in input order.
// Siblings are compared within the same company.
func (p Pipeline) Select(audience []domain.Prospect) []*domain.Prospect {
	type householdKey struct {
		company   string
		addressID int64
	}
	h, dedup := p.household()
	heads := make(map[householdKey]int64)
	if dedup {
		for i := range audience {
			pr := &audience[i]
			if pr.PreferredAddress == nil {
				continue
			}
			if len(h.Tags) > 0 && !hasAnyTag(pr, h.Tags) {
				continue
			}
			k := householdKey{pr.IntacctCompanyID, pr.PreferredAddress.ID}
			if pr.ID > heads[k] {
				heads[k] = pr.ID
			}
		}
	}

	var out []*domain.Prospect
	for i := range audience {
		pr := &audience[i]
		if !p.Matches(pr) {
			continue
		}
		if dedup && pr.PreferredAddress == nil {
			continue
		}
		if dedup && heads[householdKey{pr.IntacctCompanyID, pr.PreferredAddress.ID}] != pr.ID {
			continue
		}
		out = append(out, pr)
	}
	return out
}
