package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Campaign struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:150;not null" json:"name"`
	Slug        string     `gorm:"size:150;uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	GoalCents   int64      `gorm:"not null;default:0" json:"goal_cents"`
	Currency    string     `gorm:"size:3;not null;default:USD" json:"currency"`
	CoverURL    *string    `gorm:"type:text" json:"cover_url,omitempty"`
	IsActive    bool       `gorm:"not null;default:true;index" json:"is_active"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CreatedByID uuid.UUID  `gorm:"type:uuid" json:"created_by_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// AcceptsPledges reports whether the campaign is open at now.
func (c *Campaign) AcceptsPledges(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	return c.EndsAt == nil || now.Before(*c.EndsAt)
}
