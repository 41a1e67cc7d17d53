package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCampaignRequest struct {
	Name        string     `form:"name" json:"name" binding:"required,max=150"`
	Description string     `form:"description" json:"description" binding:"max=5000"`
	GoalCents   int64      `form:"goal_cents" json:"goal_cents" binding:"gte=0"`
	Currency    string     `form:"currency" json:"currency" binding:"omitempty,len=3"`
	EndsAt      *time.Time `form:"ends_at" json:"ends_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type CampaignFilter struct {
	Active bool `form:"active"`
}

type CampaignResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	GoalCents   int64      `json:"goal_cents"`
	Currency    string     `json:"currency"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsOpen      bool       `json:"is_open"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	RaisedCents int64      `json:"raised_cents"`
	PledgeCount int64      `json:"pledge_count"`
	Progress    float64    `json:"progress"` // Percentage of goal, uncapped
	CreatedAt   time.Time  `json:"created_at"`
}
