package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionPledge          = "pledge"
	ActionProfileComplete = "profile_complete"
)

// XPLog is the append-only ledger behind UserStats. Each (user, action,
// reference) is awarded at most once.
type XPLog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;index:idx_xp_user_date,priority:1;uniqueIndex:uq_xp_award,priority:1;not null" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActionType     string     `gorm:"size:50;uniqueIndex:uq_xp_award,priority:2;not null" json:"action_type"`
	XP             int64      `gorm:"not null" json:"xp"`
	ReferenceID    string     `gorm:"size:36;uniqueIndex:uq_xp_award,priority:3;not null" json:"reference_id"`
	ReferenceTable string     `gorm:"size:50" json:"reference_table"`
	ActorID        *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`
	CreatedAt      time.Time  `gorm:"index:idx_xp_user_date,priority:2;index:idx_xp_date" json:"created_at"`
}

func (XPLog) TableName() string {
	return "xp_logs"
}

// UserStats holds the XP aggregates read by the rank resolver. The weekly and
// monthly columns cover the current calendar period and are zeroed by the
// reset jobs.
type UserStats struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	TotalXPAllTime    int64     `gorm:"default:0;index" json:"total_xp_all_time"`
	TotalXPMonthly    int64     `gorm:"default:0" json:"total_xp_monthly"`
	TotalXPWeekly     int64     `gorm:"default:0" json:"total_xp_weekly"`
	TotalPledgedCents int64     `gorm:"default:0" json:"total_pledged_cents"`
	LastUpdatedAt     time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`
}
