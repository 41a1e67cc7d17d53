package repository

import (
	"context"
	"errors"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TimeframeAllTime = "all_time"
	TimeframeMonthly = "monthly"
	TimeframeWeekly  = "weekly"
)

type LeaderboardRepository interface {
	// RecordAward appends the ledger row and credits the stats in one
	// transaction. awarded is false when the (user, action, reference) award
	// already exists; total is the all-time XP after the award.
	RecordAward(ctx context.Context, log *entity.XPLog, pledgedCents int64) (total int64, awarded bool, err error)
	GetTopUsers(ctx context.Context, limit int, timeframe string) ([]entity.UserStats, error)
	GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
	ResetPeriod(ctx context.Context, column string) (int64, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) RecordAward(ctx context.Context, log *entity.XPLog, pledgedCents int64) (int64, bool, error) {
	var (
		total   int64
		awarded bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "action_type"}, {Name: "reference_id"}},
			DoNothing: true,
		}).Omit("User").Create(log)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		awarded = true

		stats := entity.UserStats{
			UserID:            log.UserID,
			TotalXPAllTime:    log.XP,
			TotalXPMonthly:    log.XP,
			TotalXPWeekly:     log.XP,
			TotalPledgedCents: pledgedCents,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_xp_all_time":   gorm.Expr("user_stats.total_xp_all_time + ?", log.XP),
				"total_xp_monthly":    gorm.Expr("user_stats.total_xp_monthly + ?", log.XP),
				"total_xp_weekly":     gorm.Expr("user_stats.total_xp_weekly + ?", log.XP),
				"total_pledged_cents": gorm.Expr("user_stats.total_pledged_cents + ?", pledgedCents),
				"last_updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}, clause.Returning{Columns: []clause.Column{{Name: "total_xp_all_time"}}}).
			Omit("User").Create(&stats).Error
		if err != nil {
			return err
		}
		total = stats.TotalXPAllTime
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return total, awarded, nil
}

func periodColumn(timeframe string) (string, error) {
	switch timeframe {
	case "", TimeframeAllTime:
		return "total_xp_all_time", nil
	case TimeframeMonthly:
		return "total_xp_monthly", nil
	case TimeframeWeekly:
		return "total_xp_weekly", nil
	}
	return "", errors.New("unknown timeframe")
}

// GetTopUsers orders by the stored column of the requested period. Weekly and
// monthly columns restart at zero when the reset jobs run.
func (r *leaderboardRepository) GetTopUsers(ctx context.Context, limit int, timeframe string) ([]entity.UserStats, error) {
	column, err := periodColumn(timeframe)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Preload("User").Preload("User.Role")
	if column != "total_xp_all_time" {
		q = q.Where(column + " > 0")
	}

	var stats []entity.UserStats
	err = q.Order(column + " DESC").
		Order("total_xp_all_time DESC").
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

func (r *leaderboardRepository) GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	var stats entity.UserStats
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &entity.UserStats{UserID: userID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// ResetPeriod zeroes total_xp_weekly or total_xp_monthly.
func (r *leaderboardRepository) ResetPeriod(ctx context.Context, column string) (int64, error) {
	switch column {
	case "total_xp_weekly", "total_xp_monthly":
	default:
		return 0, errors.New("unknown stats column " + column)
	}
	res := r.db.WithContext(ctx).Model(&entity.UserStats{}).
		Where(column+" <> 0").
		Update(column, 0)
	return res.RowsAffected, res.Error
}
