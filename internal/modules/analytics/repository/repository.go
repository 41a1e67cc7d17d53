package repository

import (
	"context"
	"time"

	"anoa.com/donorhub/internal/entity"
	analyticsDto "anoa.com/donorhub/internal/modules/analytics/dto"
	"gorm.io/gorm"
)

type Totals struct {
	RaisedCents  int64
	PledgeCount  int64
	UniqueDonors int64
}

type AnalyticsRepository interface {
	Totals(ctx context.Context, since time.Time) (Totals, error)
	TopCampaigns(ctx context.Context, since time.Time, limit int) ([]analyticsDto.CampaignTotal, error)
	Daily(ctx context.Context, since time.Time) ([]analyticsDto.DailyTotal, error)
	PledgesSince(ctx context.Context, since time.Time) ([]entity.Pledge, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Totals(ctx context.Context, since time.Time) (Totals, error) {
	var t Totals
	err := r.db.WithContext(ctx).Model(&entity.Pledge{}).
		Select("COALESCE(SUM(amount_cents), 0) AS raised_cents, COUNT(*) AS pledge_count, COUNT(DISTINCT donor_id) AS unique_donors").
		Where("created_at >= ?", since).
		Scan(&t).Error
	return t, err
}

func (r *analyticsRepository) TopCampaigns(ctx context.Context, since time.Time, limit int) ([]analyticsDto.CampaignTotal, error) {
	var rows []analyticsDto.CampaignTotal
	err := r.db.WithContext(ctx).Table("pledges").
		Select("campaigns.id AS campaign_id, campaigns.name, campaigns.slug, SUM(pledges.amount_cents) AS raised_cents, COUNT(*) AS pledge_count").
		Joins("JOIN campaigns ON campaigns.id = pledges.campaign_id").
		Where("pledges.created_at >= ?", since).
		Group("campaigns.id, campaigns.name, campaigns.slug").
		Order("raised_cents DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) Daily(ctx context.Context, since time.Time) ([]analyticsDto.DailyTotal, error) {
	var rows []analyticsDto.DailyTotal
	err := r.db.WithContext(ctx).Model(&entity.Pledge{}).
		Select("TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(amount_cents) AS raised_cents, COUNT(*) AS pledge_count").
		Where("created_at >= ?", since).
		Group("day").
		Order("day").
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) PledgesSince(ctx context.Context, since time.Time) ([]entity.Pledge, error) {
	var pledges []entity.Pledge
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("created_at >= ?", since).
		Find(&pledges).Error
	return pledges, err
}
