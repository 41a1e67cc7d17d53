package repository

import (
	"context"
	"errors"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Totals is the pledged sum and count for one campaign.
type Totals struct {
	CampaignID  uuid.UUID
	RaisedCents int64
	PledgeCount int64
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *entity.Campaign) error
	FindBySlug(ctx context.Context, slug string) (*entity.Campaign, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]entity.Campaign, error)
	Totals(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Totals, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
}

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

func (r *campaignRepository) FindBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	var campaign entity.Campaign
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	var campaign entity.Campaign
	if err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *campaignRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *campaignRepository) List(ctx context.Context, activeOnly bool) ([]entity.Campaign, error) {
	var campaigns []entity.Campaign
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true).
			Where("ends_at IS NULL OR ends_at > CURRENT_TIMESTAMP")
	}
	err := q.Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) Totals(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Totals, error) {
	out := make(map[uuid.UUID]Totals, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []Totals
	err := r.db.WithContext(ctx).Model(&entity.Pledge{}).
		Select("campaign_id, COALESCE(SUM(amount_cents), 0) AS raised_cents, COUNT(*) AS pledge_count").
		Where("campaign_id IN ?", ids).
		Group("campaign_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CampaignID] = row
	}
	return out, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *entity.Campaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}
