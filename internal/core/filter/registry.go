// Package filter holds the registry of targeting rules a campaign may apply.
// Every rule name has a fixed catalog of values; resolving a pair outside the
// catalog fails before anything is queried or written.
package filter

import (
	"sort"

	"mailcadence/internal/core/domain"
)

// Name identifies a rule catalog.
type Name string

const (
	CustomerInclusionRule   Name = "customer_inclusion"
	ClubMembershipRule      Name = "club_membership"
	InstallationHistoryRule Name = "installation_history"
	AddressTypeRule         Name = "address_type"
)

// Rule is a resolved catalog entry. The set of implementations is closed.
type Rule interface {
	RuleName() Name
	String() string
}

type CustomerInclusion int

const (
	ProspectsOnly CustomerInclusion = iota + 1
	CustomersOnly
	ProspectsAndCustomers
)

func (CustomerInclusion) RuleName() Name { return CustomerInclusionRule }

func (c CustomerInclusion) String() string {
	switch c {
	case ProspectsOnly:
		return "prospects_only"
	case CustomersOnly:
		return "customers_only"
	case ProspectsAndCustomers:
		return "both"
	}
	return ""
}

type ClubMembership int

const (
	ClubIncludeOnly ClubMembership = iota + 1
	ClubExclude
)

func (ClubMembership) RuleName() Name { return ClubMembershipRule }

func (c ClubMembership) String() string {
	switch c {
	case ClubIncludeOnly:
		return "include_only"
	case ClubExclude:
		return "exclude"
	}
	return ""
}

type InstallationHistory int

const (
	WithInstallation InstallationHistory = iota + 1
	WithoutInstallation
)

func (InstallationHistory) RuleName() Name { return InstallationHistoryRule }

func (h InstallationHistory) String() string {
	switch h {
	case WithInstallation:
		return "with_installation"
	case WithoutInstallation:
		return "without_installation"
	}
	return ""
}

type AddressType int

const (
	ResidentialOnly AddressType = iota + 1
	CommercialOnly
	AnyAddressType
)

func (AddressType) RuleName() Name { return AddressTypeRule }

func (a AddressType) String() string {
	switch a {
	case ResidentialOnly:
		return "residential_only"
	case CommercialOnly:
		return "commercial_only"
	case AnyAddressType:
		return "both"
	}
	return ""
}

var catalog = func() map[Name]map[string]Rule {
	entries := []Rule{
		ProspectsOnly, CustomersOnly, ProspectsAndCustomers,
		ClubIncludeOnly, ClubExclude,
		WithInstallation, WithoutInstallation,
		ResidentialOnly, CommercialOnly, AnyAddressType,
	}
	m := make(map[Name]map[string]Rule)
	for _, r := range entries {
		if m[r.RuleName()] == nil {
			m[r.RuleName()] = make(map[string]Rule)
		}
		m[r.RuleName()][r.String()] = r
	}
	return m
}()

// Resolve looks up a (name, value) pair in the catalogs.
func Resolve(name, value string) (Rule, error) {
	values, ok := catalog[Name(name)]
	if !ok {
		return nil, domain.NotFoundf("filter rule %q not found", name)
	}
	r, ok := values[value]
	if !ok {
		return nil, domain.NotFoundf("filter rule %q has no value %q", name, value)
	}
	return r, nil
}

// Catalog returns every rule name with its allowed values, sorted.
func Catalog() map[string][]string {
	out := make(map[string][]string, len(catalog))
	for name, values := range catalog {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out[string(name)] = list
	}
	return out
}

// Rules is the resolved rule set of one campaign. Unset catalogs are zero.
type Rules struct {
	CustomerInclusion   CustomerInclusion
	ClubMembership      ClubMembership
	InstallationHistory InstallationHistory
	AddressType         AddressType
}

// ResolveAll resolves every rule of a campaign. It fails on the first unknown
// pair and on a rule name given twice. Customer inclusion defaults to
// ProspectsAndCustomers when absent.
func ResolveAll(rules []domain.FilterRule) (Rules, error) {
	var out Rules
	seen := make(map[string]bool, len(rules))
	for _, fr := range rules {
		if seen[fr.Name] {
			return Rules{}, domain.Validationf("filter rule %q given more than once", fr.Name)
		}
		seen[fr.Name] = true

		r, err := Resolve(fr.Name, fr.Value)
		if err != nil {
			return Rules{}, err
		}
		switch v := r.(type) {
		case CustomerInclusion:
			out.CustomerInclusion = v
		case ClubMembership:
			out.ClubMembership = v
		case InstallationHistory:
			out.InstallationHistory = v
		case AddressType:
			out.AddressType = v
		}
	}
	if out.CustomerInclusion == 0 {
		out.CustomerInclusion = ProspectsAndCustomers
	}
	return out, nil
}
