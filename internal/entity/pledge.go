package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Pledge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DonorID     uuid.UUID `gorm:"type:uuid;not null;index:idx_pledge_donor_date,priority:1" json:"donor_id"`
	Donor       User      `gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE" json:"-"`
	CampaignID  uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	Campaign    Campaign  `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
	AmountCents int64     `gorm:"not null;check:amount_cents > 0" json:"amount_cents"`
	Currency    string    `gorm:"size:3;not null" json:"currency"`
	Message     *string   `gorm:"type:text" json:"message,omitempty"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_pledge_donor_date,priority:2;index" json:"created_at"`
}

func (p *Pledge) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
