package repository

import (
	"context"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PledgeRepository interface {
	Create(ctx context.Context, pledge *entity.Pledge) error
	FindByDonor(ctx context.Context, donorID uuid.UUID, offset, limit int) ([]entity.Pledge, int64, error)
	FindByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]entity.Pledge, int64, error)
}

type pledgeRepository struct {
	db *gorm.DB
}

func NewPledgeRepository(db *gorm.DB) PledgeRepository {
	return &pledgeRepository{db: db}
}

func (r *pledgeRepository) Create(ctx context.Context, pledge *entity.Pledge) error {
	return r.db.WithContext(ctx).Omit("Donor", "Campaign").Create(pledge).Error
}

func (r *pledgeRepository) FindByDonor(ctx context.Context, donorID uuid.UUID, offset, limit int) ([]entity.Pledge, int64, error) {
	var (
		pledges []entity.Pledge
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&entity.Pledge{}).Where("donor_id = ?", donorID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Campaign").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pledges).Error
	return pledges, total, err
}

func (r *pledgeRepository) FindByCampaign(ctx context.Context, campaignID uuid.UUID, offset, limit int) ([]entity.Pledge, int64, error) {
	var (
		pledges []entity.Pledge
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&entity.Pledge{}).Where("campaign_id = ?", campaignID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Donor").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pledges).Error
	return pledges, total, err
}
