package dto

import (
	"time"

	commonDto "anoa.com/donorhub/pkg/dto"
	"github.com/google/uuid"
)

type CreatePledgeRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Message     string `json:"message" binding:"max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type PledgeResponse struct {
	ID           uuid.UUID `json:"id"`
	CampaignSlug string    `json:"campaign_slug"`
	CampaignName string    `json:"campaign_name"`
	AmountCents  int64     `json:"amount_cents"`
	Currency     string    `json:"currency"`
	Message      *string   `json:"message,omitempty"`
	IsAnonymous  bool      `json:"is_anonymous"`
	XPAwarded    int64     `json:"xp_awarded"`
	CreatedAt    time.Time `json:"created_at"`
}

// CampaignPledgeResponse is the public view; Donor is masked for anonymous pledges.
type CampaignPledgeResponse struct {
	ID          uuid.UUID                `json:"id"`
	Donor       commonDto.AuthorResponse `json:"donor"`
	AmountCents int64                    `json:"amount_cents"`
	Currency    string                   `json:"currency"`
	Message     *string                  `json:"message,omitempty"`
	IsAnonymous bool                     `json:"is_anonymous"`
	CreatedAt   time.Time                `json:"created_at"`
}

type MyPledgesResponse struct {
	Data []PledgeResponse        `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

type CampaignPledgesResponse struct {
	Data []CampaignPledgeResponse `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
