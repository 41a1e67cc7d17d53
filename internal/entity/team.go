package entity

import (
	"time"

	"github.com/google/uuid"
)

// TeamMember marks a platform-team identity; members always resolve to the top rank.
type TeamMember struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Title     string    `gorm:"size:100" json:"title"`
	AddedByID uuid.UUID `gorm:"type:uuid" json:"added_by_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
