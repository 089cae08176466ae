package segment

import (
	"slices"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/filter"
)

// Pipeline is an ordered, immutable list of predicates.
type Pipeline struct {
	steps []Predicate
	mode  filter.CustomerInclusion
	caps  map[string]int
}

// Steps returns a copy of the pipeline's predicates.
func (p Pipeline) Steps() []Predicate { return slices.Clone(p.steps) }

// Inclusion returns the customer inclusion mode the pipeline was built with.
func (p Pipeline) Inclusion() filter.CustomerInclusion { return p.mode }

// JoinsCustomers reports whether customer values are meaningful for the
// pipeline's audience.
func (p Pipeline) JoinsCustomers() bool { return p.mode != filter.ProspectsOnly }

// Cap returns the per-postal-code cap, 0 when uncapped.
func (p Pipeline) Cap(code string) int { return p.caps[code] }

// HasCaps reports whether any postal code is capped.
func (p Pipeline) HasCaps() bool { return len(p.caps) > 0 }

// Builder assembles a Pipeline step by step.
type Builder struct {
	steps []Predicate
	mode  filter.CustomerInclusion
	caps  map[string]int
}

func NewBuilder() *Builder {
	return &Builder{caps: make(map[string]int)}
}

// With appends a predicate.
func (b *Builder) With(p Predicate) *Builder {
	if ci, ok := p.(CustomerInclusion); ok {
		b.mode = ci.Mode
	}
	b.steps = append(b.steps, p)
	return b
}

// WithCap caps the number of prospects selected from a short postal code.
func (b *Builder) WithCap(code string, n int) *Builder {
	if n > 0 {
		b.caps[code] = n
	}
	return b
}

func (b *Builder) Build() Pipeline {
	return Pipeline{steps: slices.Clone(b.steps), mode: b.mode, caps: b.caps}
}

// Compile resolves the targeting's rules and builds the pipeline in the
// canonical step order. Unknown rules fail before anything is built.
func Compile(t domain.Targeting) (Pipeline, error) {
	rules, err := filter.ResolveAll(t.Rules)
	if err != nil {
		return Pipeline{}, err
	}
	if err = validateBounds(t); err != nil {
		return Pipeline{}, err
	}

	b := NewBuilder()
	if t.IntacctCompanyID != "" {
		b.With(CompanyScope{IntacctCompanyID: t.IntacctCompanyID})
	}
	b.With(AddressEligibility{})
	if rules.AddressType == filter.ResidentialOnly || rules.AddressType == filter.CommercialOnly {
		b.With(AddressTypeFilter{Type: rules.AddressType})
	}
	b.With(ProspectEligibility{})
	b.With(CustomerInclusion{
		Mode:             rules.CustomerInclusion,
		MaxLifetimeValue: t.MaxLifetimeValue,
		Club:             rules.ClubMembership,
		Installation:     rules.InstallationHistory,
	})
	if rules.CustomerInclusion != filter.CustomersOnly {
		bounds := DetailBounds{
			MinAge:     t.MinProspectAge,
			MaxAge:     t.MaxProspectAge,
			MinHomeAge: t.MinHomeAge,
			MinIncome:  t.MinEstimatedIncome,
		}
		if bounds != (DetailBounds{}) {
			b.With(bounds)
		}
	}
	if len(t.Tags) > 0 {
		b.With(TagFilter{Tags: slices.Clone(t.Tags)})
	}
	if len(t.LocationIDs) > 0 {
		b.With(LocationFilter{LocationIDs: slices.Clone(t.LocationIDs)})
	}
	if len(t.PostalCodes) > 0 {
		codes := make([]string, 0, len(t.PostalCodes))
		for _, pc := range t.PostalCodes {
			codes = append(codes, pc.Code)
			b.WithCap(pc.Code, pc.Cap)
		}
		b.With(PostalCodeFilter{Codes: codes})
	}
	b.With(HouseholdDedup{Tags: slices.Clone(t.Tags)})
	return b.Build(), nil
}

func validateBounds(t domain.Targeting) error {
	if t.MinProspectAge != nil && t.MaxProspectAge != nil && *t.MinProspectAge > *t.MaxProspectAge {
		return domain.Validationf("min prospect age %d exceeds max prospect age %d", *t.MinProspectAge, *t.MaxProspectAge)
	}
	for _, pc := range t.PostalCodes {
		if pc.Code == "" {
			return domain.Validationf("postal code allow-list contains an empty code")
		}
		if pc.Cap < 0 {
			return domain.Validationf("postal code %s has a negative cap", pc.Code)
		}
	}
	return nil
}
