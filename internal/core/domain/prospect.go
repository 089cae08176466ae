package domain

// Prospect is an audience record owned by the audience data source. The
// engine only reads it.
type Prospect struct {
	ID               int64
	IntacctCompanyID string
	Active           bool
	DoNotContact     bool
	DoNotMail        bool
	Tags             []string
	LocationID       *int64
	PreferredAddress *Address
	Customer         *Customer
	Details          *ProspectDetails
}

// Address is a mailing address with the eligibility flags supplied by the
// address verification provider.
type Address struct {
	ID              int64
	Line1           string
	City            string
	State           string
	PostalCode      string
	PostalCodeShort string
	Verified        bool
	Active          bool
	Vacant          bool
	DoNotMail       bool
	GlobalDoNotMail bool
	IsPOBox         bool
	IsBusiness      bool
}

// Customer is the customer record linked to a prospect.
type Customer struct {
	ID              int64
	LifetimeValue   int64 // cents
	IsClubMember    bool
	HasInstallation bool
}

// ProspectDetails holds optional demographic attributes.
type ProspectDetails struct {
	Age             *int
	HomeAge         *int
	EstimatedIncome *int64 // cents
}

// Location is a company-owned location prospects can be attached to.
type Location struct {
	ID               int64
	IntacctCompanyID string
	Name             string
}
