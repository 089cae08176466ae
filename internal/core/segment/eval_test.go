package segment

import (
	"testing"

	"mailcadence/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func mailable(id, addressID int64, zip string) domain.Prospect {
	return domain.Prospect{
		ID:               id,
		IntacctCompanyID: "C1",
		Active:           true,
		PreferredAddress: &domain.Address{
			ID:              addressID,
			Line1:           "12 Elm St",
			City:            "Springfield",
			State:           "IL",
			PostalCode:      zip + "-0001",
			PostalCodeShort: zip,
			Verified:        true,
			Active:          true,
		},
	}
}

func ids(prs []*domain.Prospect) []int64 {
	out := make([]int64, 0, len(prs))
	for _, p := range prs {
		out = append(out, p.ID)
	}
	return out
}

func compile(t *testing.T, tg domain.Targeting) Pipeline {
	t.Helper()
	p, err := Compile(tg)
	require.NoError(t, err)
	return p
}

// TestAddressEligibility ensures do-not-mail and undeliverable addresses are dropped.
func TestAddressEligibility(t *testing.T) {
	p := compile(t, domain.Targeting{IntacctCompanyID: "C1"})

	cases := map[string]func(*domain.Prospect){
		"unverified":    func(pr *domain.Prospect) { pr.PreferredAddress.Verified = false },
		"inactive":      func(pr *domain.Prospect) { pr.PreferredAddress.Active = false },
		"vacant":        func(pr *domain.Prospect) { pr.PreferredAddress.Vacant = true },
		"do not mail":   func(pr *domain.Prospect) { pr.PreferredAddress.DoNotMail = true },
		"global dnm":    func(pr *domain.Prospect) { pr.PreferredAddress.GlobalDoNotMail = true },
		"po box flag":   func(pr *domain.Prospect) { pr.PreferredAddress.IsPOBox = true },
		"po box line":   func(pr *domain.Prospect) { pr.PreferredAddress.Line1 = "P.O. Box 44" },
		"missing city":  func(pr *domain.Prospect) { pr.PreferredAddress.City = "" },
		"short zip":     func(pr *domain.Prospect) { pr.PreferredAddress.PostalCodeShort = "123" },
		"no address":    func(pr *domain.Prospect) { pr.PreferredAddress = nil },
		"prospect dnc":  func(pr *domain.Prospect) { pr.DoNotContact = true },
		"prospect dnm":  func(pr *domain.Prospect) { pr.DoNotMail = true },
		"prospect off":  func(pr *domain.Prospect) { pr.Active = false },
		"other company": func(pr *domain.Prospect) { pr.IntacctCompanyID = "C2" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			pr := mailable(1, 1, "62701")
			mutate(&pr)
			assert.False(t, p.Matches(&pr))
		})
	}

	pr := mailable(1, 1, "62701")
	pr.PreferredAddress.Line1 = "Post Road 5"
	assert.True(t, p.Matches(&pr), "street names starting with po are not boxes")
}

// TestAddressType ensures the address type filter keeps only matching addresses.
func TestAddressType(t *testing.T) {
	residential := mailable(1, 1, "62701")
	business := mailable(2, 2, "62701")
	business.PreferredAddress.IsBusiness = true
	audience := []domain.Prospect{residential, business}

	p := compile(t, domain.Targeting{Rules: []domain.FilterRule{{Name: "address_type", Value: "residential_only"}}})
	assert.Equal(t, []int64{1}, ids(p.Select(audience)))

	p = compile(t, domain.Targeting{Rules: []domain.FilterRule{{Name: "address_type", Value: "commercial_only"}}})
	assert.Equal(t, []int64{2}, ids(p.Select(audience)))

	p = compile(t, domain.Targeting{Rules: []domain.FilterRule{{Name: "address_type", Value: "both"}}})
	assert.Equal(t, []int64{1, 2}, ids(p.Select(audience)))
}

// TestCustomerInclusion ensures customer inclusion follows the population setting.
func TestCustomerInclusion(t *testing.T) {
	prospect := mailable(1, 1, "62701")
	member := mailable(2, 2, "62701")
	member.Customer = &domain.Customer{ID: 20, LifetimeValue: 5000, IsClubMember: true}
	rich := mailable(3, 3, "62701")
	rich.Customer = &domain.Customer{ID: 30, LifetimeValue: 900000}
	audience := []domain.Prospect{prospect, member, rich}

	tests := []struct {
		name string
		tg   domain.Targeting
		want []int64
	}{
		{
			name: "prospects only drops linked customers",
			tg:   domain.Targeting{Rules: []domain.FilterRule{{Name: "customer_inclusion", Value: "prospects_only"}}},
			want: []int64{1},
		},
		{
			name: "customers only requires a customer",
			tg:   domain.Targeting{Rules: []domain.FilterRule{{Name: "customer_inclusion", Value: "customers_only"}}},
			want: []int64{2, 3},
		},
		{
			name: "customers only applies ltv as hard requirement",
			tg: domain.Targeting{
				Rules:            []domain.FilterRule{{Name: "customer_inclusion", Value: "customers_only"}},
				MaxLifetimeValue: ptr(int64(10000)),
			},
			want: []int64{2},
		},
		{
			name: "both lets prospects without customer pass",
			tg: domain.Targeting{
				Rules: []domain.FilterRule{
					{Name: "customer_inclusion", Value: "both"},
					{Name: "club_membership", Value: "exclude"},
				},
			},
			want: []int64{1, 3},
		},
		{
			name: "club include only",
			tg: domain.Targeting{
				Rules: []domain.FilterRule{
					{Name: "customer_inclusion", Value: "customers_only"},
					{Name: "club_membership", Value: "include_only"},
				},
			},
			want: []int64{2},
		},
		{
			name: "installation history",
			tg: domain.Targeting{
				Rules: []domain.FilterRule{
					{Name: "customer_inclusion", Value: "both"},
					{Name: "installation_history", Value: "with_installation"},
				},
			},
			want: []int64{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.tg)
			assert.Equal(t, tt.want, ids(p.Select(audience)))
		})
	}
}

// TestDetailBounds ensures detail bounds filter prospects while missing details pass.
func TestDetailBounds(t *testing.T) {
	young := mailable(1, 1, "62701")
	young.Details = &domain.ProspectDetails{Age: ptr(22), EstimatedIncome: ptr(int64(4_000_000))}
	old := mailable(2, 2, "62701")
	old.Details = &domain.ProspectDetails{Age: ptr(70), HomeAge: ptr(30)}
	unknown := mailable(3, 3, "62701")
	audience := []domain.Prospect{young, old, unknown}

	p := compile(t, domain.Targeting{
		Rules:          []domain.FilterRule{{Name: "customer_inclusion", Value: "prospects_only"}},
		MinProspectAge: ptr(30),
	})
	assert.Equal(t, []int64{2, 3}, ids(p.Select(audience)), "missing detail record passes")

	p = compile(t, domain.Targeting{MinHomeAge: ptr(10), MinEstimatedIncome: ptr(int64(5_000_000))})
	assert.Equal(t, []int64{2, 3}, ids(p.Select(audience)))

	// customers only never evaluates detail bounds
	youngCustomer := young
	youngCustomer.Customer = &domain.Customer{ID: 9}
	p = compile(t, domain.Targeting{
		Rules:          []domain.FilterRule{{Name: "customer_inclusion", Value: "customers_only"}},
		MinProspectAge: ptr(30),
	})
	assert.Equal(t, []int64{1}, ids(p.Select([]domain.Prospect{youngCustomer})))
}

// TestTagLocationAndPostalFilters ensures tag, location and postal code targeting narrows the audience.
func TestTagLocationAndPostalFilters(t *testing.T) {
	a := mailable(1, 1, "62701")
	a.Tags = []string{"solar"}
	a.LocationID = ptr(int64(7))
	b := mailable(2, 2, "62702")
	b.Tags = []string{"roof"}
	c := mailable(3, 3, "62703")
	c.LocationID = ptr(int64(8))
	audience := []domain.Prospect{a, b, c}

	assert.Equal(t, []int64{1, 2}, ids(compile(t, domain.Targeting{Tags: []string{"solar", "roof"}}).Select(audience)))
	assert.Equal(t, []int64{3}, ids(compile(t, domain.Targeting{LocationIDs: []int64{8}}).Select(audience)))
	assert.Equal(t, []int64{2, 3}, ids(compile(t, domain.Targeting{
		PostalCodes: []domain.PostalCodeCap{{Code: "62702"}, {Code: "62703"}},
	}).Select(audience)))
}

// TestHouseholdDedupKeepsNewest ensures dedup keeps the newest member of a household.
func TestHouseholdDedupKeepsNewest(t *testing.T) {
	older := mailable(10, 1, "62701")
	newer := mailable(11, 1, "62701")
	other := mailable(12, 2, "62701")

	p := compile(t, domain.Targeting{})
	assert.Equal(t, []int64{11, 12}, ids(p.Select([]domain.Prospect{older, newer, other})))
}

// TestHouseholdDedupNewestIneligibleSuppressesHousehold ensures an ineligible newest member suppresses the household.
func TestHouseholdDedupNewestIneligibleSuppressesHousehold(t *testing.T) {
	older := mailable(10, 1, "62701")
	newer := mailable(11, 1, "62701")
	newer.DoNotContact = true

	p := compile(t, domain.Targeting{})
	assert.Empty(t, p.Select([]domain.Prospect{older, newer}))
}

// TestHouseholdDedupScopedToTags ensures dedup only considers tagged members.
func TestHouseholdDedupScopedToTags(t *testing.T) {
	tagged := mailable(10, 1, "62701")
	tagged.Tags = []string{"solar"}
	untaggedNewer := mailable(11, 1, "62701")

	p := compile(t, domain.Targeting{Tags: []string{"solar"}})
	assert.Equal(t, []int64{10}, ids(p.Select([]domain.Prospect{tagged, untaggedNewer})),
		"a sibling without the tag cannot suppress a tagged prospect")

	taggedNewer := mailable(12, 1, "62701")
	taggedNewer.Tags = []string{"solar"}
	assert.Equal(t, []int64{12}, ids(p.Select([]domain.Prospect{tagged, untaggedNewer, taggedNewer})))
}

// TestHouseholdIsPerCompany ensures households never span companies.
func TestHouseholdIsPerCompany(t *testing.T) {
	a := mailable(10, 1, "62701")
	b := mailable(11, 1, "62701")
	b.IntacctCompanyID = "C2"

	p := compile(t, domain.Targeting{IntacctCompanyID: "C1"})
	assert.Equal(t, []int64{10}, ids(p.Select([]domain.Prospect{a, b})))
}
