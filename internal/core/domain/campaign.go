package domain

import (
	"slices"
	"time"
)

// CampaignStatus is the lifecycle state of a Campaign.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignArchived CampaignStatus = "archived"
)

// Campaign represents a direct-mail campaign. Mail is dropped every
// MailingFrequencyWeeks-long cycle on the weeks listed in MailingDropWeeks.
type Campaign struct {
	ID                    int64
	IdempotencyKey        string
	Name                  string
	StartDate             time.Time
	EndDate               time.Time
	MailingFrequencyWeeks int
	MailingDropWeeks      []int // 1-based week offsets within a cycle
	Status                CampaignStatus
	Targeting             Targeting
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate checks the date range and cadence invariants.
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return Validationf("campaign name is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return Validationf("campaign start and end dates are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return Validationf("campaign end date %s is before start date %s",
			c.EndDate.Format(time.DateOnly), c.StartDate.Format(time.DateOnly))
	}
	if c.MailingFrequencyWeeks < 1 {
		return Validationf("mailing frequency must be at least one week")
	}
	if len(c.MailingDropWeeks) == 0 {
		return Validationf("at least one mailing drop week is required")
	}
	for _, w := range c.MailingDropWeeks {
		if w < 1 || w > c.MailingFrequencyWeeks {
			return Validationf("mailing drop week %d is outside [1, %d]", w, c.MailingFrequencyWeeks)
		}
	}
	return nil
}

// IsDropWeek reports whether the 1-based position within a cycle mails.
func (c *Campaign) IsDropWeek(position int) bool {
	return slices.Contains(c.MailingDropWeeks, position)
}
