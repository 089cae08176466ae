// Package segment compiles campaign targeting into a pipeline of predicates
// over the audience. The predicate set is closed: audience sources switch on
// the concrete types and reject anything they do not know.
package segment

import (
	"regexp"

	"mailcadence/internal/core/filter"
)

// Predicate is one step of a Pipeline.
type Predicate interface {
	predicate()
}

// CompanyScope keeps prospects owned by one company.
type CompanyScope struct {
	IntacctCompanyID string
}

// AddressEligibility is the unconditional mailability check on the preferred
// address.
type AddressEligibility struct{}

// AddressTypeFilter keeps residential or commercial addresses only.
type AddressTypeFilter struct {
	Type filter.AddressType
}

// ProspectEligibility keeps active prospects that may be contacted and mailed.
type ProspectEligibility struct{}

// CustomerInclusion applies the inclusion mode together with the
// customer-scoped predicates.
type CustomerInclusion struct {
	Mode             filter.CustomerInclusion
	MaxLifetimeValue *int64
	Club             filter.ClubMembership
	Installation     filter.InstallationHistory
}

// HasCustomerPredicates reports whether any customer-scoped bound is set.
func (c CustomerInclusion) HasCustomerPredicates() bool {
	return c.MaxLifetimeValue != nil || c.Club != 0 || c.Installation != 0
}

// DetailBounds applies demographic bounds. A missing detail record or a
// missing attribute passes.
type DetailBounds struct {
	MinAge     *int
	MaxAge     *int
	MinHomeAge *int
	MinIncome  *int64
}

// TagFilter keeps prospects carrying at least one of Tags.
type TagFilter struct {
	Tags []string
}

// LocationFilter keeps prospects attached to one of the company's locations.
type LocationFilter struct {
	LocationIDs []int64
}

// PostalCodeFilter keeps prospects whose short postal code is listed.
type PostalCodeFilter struct {
	Codes []string
}

// HouseholdDedup keeps one prospect per preferred address: the highest id
// among the address's prospects, or among those carrying one of Tags when
// Tags is set.
type HouseholdDedup struct {
	Tags []string
}

func (CompanyScope) predicate()        {}
func (AddressEligibility) predicate()  {}
func (AddressTypeFilter) predicate()   {}
func (ProspectEligibility) predicate() {}
func (CustomerInclusion) predicate()   {}
func (DetailBounds) predicate()        {}
func (TagFilter) predicate()           {}
func (LocationFilter) predicate()      {}
func (PostalCodeFilter) predicate()    {}
func (HouseholdDedup) predicate()      {}

// MinPostalCodeShortLen is the shortest short postal code considered
// mailable.
const MinPostalCodeShortLen = 5

// POBoxPattern matches address lines that are post office boxes. The SQL
// audience source uses the same expression with the ~* operator.
const POBoxPattern = `^\s*p\.?\s*o\.?\s*box([^a-z]|$)`

var poBoxRe = regexp.MustCompile(`(?i)` + POBoxPattern)
