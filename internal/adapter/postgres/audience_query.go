package postgres

import (
	"fmt"
	"strings"

	"mailcadence/internal/core/filter"
	"mailcadence/internal/core/segment"
)

const audienceFrom = `
          FROM prospects p
          JOIN addresses a ON a.id = p.preferred_address_id
          LEFT JOIN customers cu ON cu.prospect_id = p.id
          LEFT JOIN prospect_details d ON d.prospect_id = p.id`

// audienceQuery is the WHERE clause of a compiled pipeline with its
// positional arguments.
type audienceQuery struct {
	conds []string
	args  []any
}

func (q *audienceQuery) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *audienceQuery) where(cond string) {
	q.conds = append(q.conds, cond)
}

func (q *audienceQuery) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return "\n         WHERE " + strings.Join(q.conds, "\n           AND ")
}

// buildAudienceQuery translates each pipeline step into SQL. Unknown steps
// are rejected rather than silently ignored.
func buildAudienceQuery(p segment.Pipeline) (*audienceQuery, error) {
	q := &audienceQuery{}
	for _, step := range p.Steps() {
		switch s := step.(type) {
		case segment.CompanyScope:
			q.where("p.intacct_company_id = " + q.arg(s.IntacctCompanyID))
		case segment.AddressEligibility:
			q.where(fmt.Sprintf(`a.city <> '' AND a.state <> '' AND a.postal_code <> ''
           AND a.verified AND a.active AND NOT a.vacant
           AND NOT a.do_not_mail AND NOT a.global_do_not_mail
           AND NOT a.is_po_box AND a.line1 !~* %s
           AND length(a.postal_code_short) >= %d`, q.arg(segment.POBoxPattern), segment.MinPostalCodeShortLen))
		case segment.AddressTypeFilter:
			switch s.Type {
			case filter.ResidentialOnly:
				q.where("NOT a.is_business")
			case filter.CommercialOnly:
				q.where("a.is_business")
			}
		case segment.ProspectEligibility:
			q.where("p.active AND NOT p.do_not_contact AND NOT p.do_not_mail")
		case segment.CustomerInclusion:
			q.customerInclusion(s)
		case segment.DetailBounds:
			q.detailBounds(s)
		case segment.TagFilter:
			q.where("EXISTS (SELECT 1 FROM prospect_tags t WHERE t.prospect_id = p.id AND t.tag = ANY(" + q.arg(s.Tags) + "))")
		case segment.LocationFilter:
			q.where(`p.location_id = ANY(` + q.arg(s.LocationIDs) + `)
           AND EXISTS (SELECT 1 FROM locations l
                        WHERE l.id = p.location_id AND l.intacct_company_id = p.intacct_company_id)`)
		case segment.PostalCodeFilter:
			q.where("a.postal_code_short = ANY(" + q.arg(s.Codes) + ")")
		case segment.HouseholdDedup:
			q.household(s)
		default:
			return nil, fmt.Errorf("unsupported segmentation step %T", step)
		}
	}
	return q, nil
}

func (q *audienceQuery) customerInclusion(s segment.CustomerInclusion) {
	var customer []string
	if s.MaxLifetimeValue != nil {
		customer = append(customer, "cu.lifetime_value <= "+q.arg(*s.MaxLifetimeValue))
	}
	switch s.Club {
	case filter.ClubIncludeOnly:
		customer = append(customer, "cu.is_club_member")
	case filter.ClubExclude:
		customer = append(customer, "NOT cu.is_club_member")
	}
	switch s.Installation {
	case filter.WithInstallation:
		customer = append(customer, "cu.has_installation")
	case filter.WithoutInstallation:
		customer = append(customer, "NOT cu.has_installation")
	}
	matches := "TRUE"
	if len(customer) > 0 {
		matches = strings.Join(customer, " AND ")
	}

	switch s.Mode {
	case filter.ProspectsOnly:
		q.where("cu.id IS NULL")
	case filter.CustomersOnly:
		q.where("cu.id IS NOT NULL AND " + matches)
	default:
		if len(customer) > 0 {
			q.where("(cu.id IS NULL OR (" + matches + "))")
		}
	}
}

func (q *audienceQuery) detailBounds(s segment.DetailBounds) {
	if s.MinAge != nil {
		q.where("(d.age IS NULL OR d.age >= " + q.arg(*s.MinAge) + ")")
	}
	if s.MaxAge != nil {
		q.where("(d.age IS NULL OR d.age <= " + q.arg(*s.MaxAge) + ")")
	}
	if s.MinHomeAge != nil {
		q.where("(d.home_age IS NULL OR d.home_age >= " + q.arg(*s.MinHomeAge) + ")")
	}
	if s.MinIncome != nil {
		q.where("(d.estimated_income IS NULL OR d.estimated_income >= " + q.arg(*s.MinIncome) + ")")
	}
}

// household keeps p only when no newer prospect of the same company shares
// its preferred address. With tags, only tagged siblings compete.
func (q *audienceQuery) household(s segment.HouseholdDedup) {
	sibling := `NOT EXISTS (SELECT 1 FROM prospects p2
                        WHERE p2.preferred_address_id = p.preferred_address_id
                          AND p2.intacct_company_id = p.intacct_company_id
                          AND p2.id > p.id`
	if len(s.Tags) > 0 {
		sibling += `
                          AND EXISTS (SELECT 1 FROM prospect_tags t2
                                       WHERE t2.prospect_id = p2.id AND t2.tag = ANY(` + q.arg(s.Tags) + `))`
	}
	q.where(sibling + ")")
}

func (q *audienceQuery) selectSQL() string {
	return `
        SELECT p.id, a.id, a.postal_code_short` + audienceFrom + q.clause() + `
         ORDER BY a.postal_code_short, p.id`
}

func (q *audienceQuery) rollupSQL(withCustomers bool) string {
	avg := "0::float8"
	if withCustomers {
		avg = "COALESCE(avg(cu.lifetime_value), 0)::float8"
	}
	return `
        SELECT a.postal_code_short, count(*), ` + avg + audienceFrom + q.clause() + `
         GROUP BY a.postal_code_short
         ORDER BY a.postal_code_short`
}
