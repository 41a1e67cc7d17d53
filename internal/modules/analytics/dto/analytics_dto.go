package dto

import "github.com/google/uuid"

type SummaryQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

type CampaignTotal struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	RaisedCents int64     `json:"raised_cents"`
	PledgeCount int64     `json:"pledge_count"`
}

type DailyTotal struct {
	Day         string `json:"day"` // YYYY-MM-DD, UTC
	RaisedCents int64  `json:"raised_cents"`
	PledgeCount int64  `json:"pledge_count"`
}

type Summary struct {
	Days               int             `json:"days"`
	TotalUsers         int64           `json:"total_users"`
	TotalRaisedCents   int64           `json:"total_raised_cents"`
	PledgeCount        int64           `json:"pledge_count"`
	UniqueDonors       int64           `json:"unique_donors"`
	AveragePledgeCents int64           `json:"average_pledge_cents"`
	TopCampaigns       []CampaignTotal `json:"top_campaigns"`
	Daily              []DailyTotal    `json:"daily"`
	Degraded           bool            `json:"degraded"` // computed from raw pledges
}
