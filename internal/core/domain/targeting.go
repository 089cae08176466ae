package domain

// FilterRule is a named targeting rule. Names and values are validated by the
// filter registry before a campaign is created.
type FilterRule struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PostalCodeCap allows a short postal code and optionally caps how many
// prospects are selected from it. A zero Cap means no cap.
type PostalCodeCap struct {
	Code string `json:"code"`
	Cap  int    `json:"cap,omitempty"`
}

// Targeting describes who a campaign mails. It is stored alongside the
// campaign and compiled into a segmentation pipeline on every pass.
type Targeting struct {
	IntacctCompanyID   string          `json:"intacct_company_id"`
	Rules              []FilterRule    `json:"rules"`
	MinProspectAge     *int            `json:"min_prospect_age,omitempty"`
	MaxProspectAge     *int            `json:"max_prospect_age,omitempty"`
	MinHomeAge         *int            `json:"min_home_age,omitempty"`
	MinEstimatedIncome *int64          `json:"min_estimated_income,omitempty"`
	MaxLifetimeValue   *int64          `json:"max_lifetime_value,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	LocationIDs        []int64         `json:"location_ids,omitempty"`
	PostalCodes        []PostalCodeCap `json:"postal_codes,omitempty"`
}

// PostalCodeRollup is the per-postal-code sizing row of the audience preview.
type PostalCodeRollup struct {
	PostalCodeShort    string
	Households         int64
	AverageCustomerLTV float64 // cents, 0 when no customer join applies
}
