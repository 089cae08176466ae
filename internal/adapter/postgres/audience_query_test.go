package postgres

import (
	"strings"
	"testing"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/filter"
	"mailcadence/internal/core/segment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// TestBuildAudienceQueryTranslatesEveryStep ensures every pipeline step shows up in the generated SQL.
func TestBuildAudienceQueryTranslatesEveryStep(t *testing.T) {
	p, err := segment.Compile(domain.Targeting{
		IntacctCompanyID: "C1",
		Rules: []domain.FilterRule{
			{Name: "customer_inclusion", Value: "customers_only"},
			{Name: "club_membership", Value: "exclude"},
			{Name: "address_type", Value: "residential_only"},
		},
		MaxLifetimeValue: ptr(int64(500000)),
		Tags:             []string{"solar"},
		LocationIDs:      []int64{7},
		PostalCodes:      []domain.PostalCodeCap{{Code: "62701", Cap: 10}},
	})
	require.NoError(t, err)

	q, err := buildAudienceQuery(p)
	require.NoError(t, err)
	sql := q.selectSQL()

	for _, fragment := range []string{
		"p.intacct_company_id = $1",
		"a.line1 !~* $2",
		"NOT a.is_business",
		"p.active AND NOT p.do_not_contact",
		"cu.id IS NOT NULL AND cu.lifetime_value <= $3 AND NOT cu.is_club_member",
		"t.tag = ANY($4)",
		"p.location_id = ANY($5)",
		"a.postal_code_short = ANY($6)",
		"p2.id > p.id",
		"t2.tag = ANY($7)",
		"ORDER BY a.postal_code_short, p.id",
	} {
		assert.Contains(t, sql, fragment)
	}
	assert.Equal(t, []any{
		"C1", segment.POBoxPattern, int64(500000), []string{"solar"}, []int64{7}, []string{"62701"}, []string{"solar"},
	}, q.args)
}

// TestBuildAudienceQueryDefaultsToBothPopulations ensures an unset population selects prospects and customers.
func TestBuildAudienceQueryDefaultsToBothPopulations(t *testing.T) {
	p, err := segment.Compile(domain.Targeting{})
	require.NoError(t, err)
	q, err := buildAudienceQuery(p)
	require.NoError(t, err)

	sql := q.selectSQL()
	assert.NotContains(t, sql, "cu.id IS")
	assert.NotContains(t, sql, "intacct_company_id = $")
	assert.Contains(t, q.rollupSQL(p.JoinsCustomers()), "avg(cu.lifetime_value)")
}

// TestBuildAudienceQueryBothWithCustomerBounds ensures customer conditions let prospects without a customer through.
func TestBuildAudienceQueryBothWithCustomerBounds(t *testing.T) {
	p, err := segment.Compile(domain.Targeting{
		Rules: []domain.FilterRule{{Name: "installation_history", Value: "without_installation"}},
	})
	require.NoError(t, err)
	q, err := buildAudienceQuery(p)
	require.NoError(t, err)
	assert.Contains(t, q.selectSQL(), "(cu.id IS NULL OR (NOT cu.has_installation))")
}

// TestBuildAudienceQueryProspectsOnly ensures a prospects-only population skips the customer join.
func TestBuildAudienceQueryProspectsOnly(t *testing.T) {
	p, err := segment.Compile(domain.Targeting{
		Rules:          []domain.FilterRule{{Name: "customer_inclusion", Value: "prospects_only"}},
		MinProspectAge: ptr(30),
		MinHomeAge:     ptr(10),
	})
	require.NoError(t, err)
	q, err := buildAudienceQuery(p)
	require.NoError(t, err)

	sql := q.selectSQL()
	assert.Contains(t, sql, "cu.id IS NULL")
	assert.Contains(t, sql, "(d.age IS NULL OR d.age >= $")
	assert.Contains(t, sql, "(d.home_age IS NULL OR d.home_age >= $")
	assert.True(t, strings.Contains(q.rollupSQL(p.JoinsCustomers()), "0::float8"))
}

// TestBuildAudienceQueryFromBuilder ensures a hand-built pipeline translates to SQL.
func TestBuildAudienceQueryFromBuilder(t *testing.T) {
	p := segment.NewBuilder().With(segment.AddressTypeFilter{Type: filter.CommercialOnly}).Build()
	q, err := buildAudienceQuery(p)
	require.NoError(t, err)
	assert.Contains(t, q.selectSQL(), "a.is_business")
}
