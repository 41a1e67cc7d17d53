package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsReader supplies the stored XP aggregates.
type StatsReader interface {
	GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

// OverrideChecker reports admin / platform-team membership.
type OverrideChecker interface {
	IsOverridden(ctx context.Context, userID uuid.UUID) (bool, error)
}

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type RankService interface {
	GetRank(ctx context.Context, userID uuid.UUID) (*commonDto.RankStatus, error)
	GetRankByUsername(ctx context.Context, username string) (*commonDto.RankStatus, error)
	Status(ctx context.Context, stats *entity.UserStats) commonDto.RankStatus
	Thresholds() []Threshold
}

type rankService struct {
	table     *Table
	stats     StatsReader
	overrides OverrideChecker
	users     UserFinder
	log       *zap.Logger
}

func NewRankService(table *Table, stats StatsReader, overrides OverrideChecker, users UserFinder, log *zap.Logger) RankService {
	if table == nil {
		table = DefaultTable()
	}
	return &rankService{
		table:     table,
		stats:     stats,
		overrides: overrides,
		users:     users,
		log:       log,
	}
}

func (s *rankService) GetRank(ctx context.Context, userID uuid.UUID) (*commonDto.RankStatus, error) {
	stats, err := s.stats.GetUserStatsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load xp for %s: %w", userID, err)
	}

	status := s.Status(ctx, stats)
	return &status, nil
}

func (s *rankService) GetRankByUsername(ctx context.Context, username string) (*commonDto.RankStatus, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return s.GetRank(ctx, user.ID)
}

// Status resolves stats into the response block. A failed membership lookup is
// logged and resolves as not overridden.
func (s *rankService) Status(ctx context.Context, stats *entity.UserStats) commonDto.RankStatus {
	if stats == nil {
		stats = &entity.UserStats{}
	}

	overridden := false
	if s.overrides != nil && stats.UserID != uuid.Nil {
		ok, err := s.overrides.IsOverridden(ctx, stats.UserID)
		if err != nil {
			s.log.Warn("override lookup failed, resolving by xp",
				zap.String("user_id", stats.UserID.String()), zap.Error(err))
		}
		overridden = ok && err == nil
	}

	return BuildStatus(s.table, stats, overridden)
}

func (s *rankService) Thresholds() []Threshold {
	return s.table.Ascending()
}

// BuildStatus is the pure mapping from aggregates to a RankStatus.
func BuildStatus(table *Table, stats *entity.UserStats, overridden bool) commonDto.RankStatus {
	resolved := table.Resolve(float64(stats.TotalXPAllTime), overridden)

	return commonDto.RankStatus{
		RankName:     resolved.Name(),
		Level:        resolved.Level(),
		Pips:         resolved.Pips(),
		NextRank:     resolved.NextName(),
		XP:           stats.TotalXPAllTime,
		TargetXP:     resolved.TargetXP(),
		Progress:     resolved.Progress,
		IsOverridden: resolved.IsOverridden,
		Title:        AmbassadorTitle(stats.TotalPledgedCents),
		WeeklyXP:     stats.TotalXPWeekly,
		WeeklyLabel:  WeeklyLabel(stats.TotalXPWeekly),
	}
}
