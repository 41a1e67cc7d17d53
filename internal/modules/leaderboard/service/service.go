package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anoa.com/donorhub/internal/entity"
	leaderboardDto "anoa.com/donorhub/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/donorhub/internal/modules/leaderboard/repository"
	rankService "anoa.com/donorhub/internal/modules/rank/service"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ProfileCompleteBonusXP = 250

	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	// AwardXPAsync runs AwardXP in the background; failures are only logged.
	AwardXPAsync(targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64)
	AwardXP(ctx context.Context, targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64) error
	GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error)
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
	// Wait blocks until in-flight background awards finish.
	Wait()
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type leaderboardService struct {
	repo      leaderboardRepo.LeaderboardRepository
	ranks     rankService.RankService
	table     *rankService.Table
	notifier  Notifier
	xpPerUnit int64
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, ranks rankService.RankService, table *rankService.Table, notifier Notifier, xpPerUnit int64, log *zap.Logger) LeaderboardService {
	if table == nil {
		table = rankService.DefaultTable()
	}
	return &leaderboardService{
		repo:      repo,
		ranks:     ranks,
		table:     table,
		notifier:  notifier,
		xpPerUnit: xpPerUnit,
		log:       log,
	}
}

// PledgeXP converts a pledge amount in minor units to XP.
func PledgeXP(amountCents, xpPerUnit int64) int64 {
	if amountCents <= 0 || xpPerUnit <= 0 {
		return 0
	}
	return amountCents * xpPerUnit / 100
}

func (s *leaderboardService) AwardXPAsync(targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.AwardXP(ctx, targetUserID, actionType, referenceID, referenceTable, amountCents); err != nil {
			s.log.Error("failed to award xp",
				zap.String("user_id", targetUserID.String()),
				zap.String("action", actionType),
				zap.String("reference_id", referenceID),
				zap.Error(err))
		}
	}()
}

func (s *leaderboardService) Wait() {
	s.wg.Wait()
}

func (s *leaderboardService) AwardXP(ctx context.Context, targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64) error {
	var (
		xp      int64
		pledged int64
	)
	switch actionType {
	case entity.ActionPledge:
		xp = PledgeXP(amountCents, s.xpPerUnit)
		pledged = amountCents
	case entity.ActionProfileComplete:
		xp = ProfileCompleteBonusXP
	default:
		return fmt.Errorf("unknown action type %q", actionType)
	}

	logEntry := &entity.XPLog{
		UserID:         targetUserID,
		ActionType:     actionType,
		XP:             xp,
		ReferenceID:    referenceID,
		ReferenceTable: referenceTable,
		CreatedAt:      time.Now(),
	}
	newXP, awarded, err := s.repo.RecordAward(ctx, logEntry, pledged)
	if err != nil {
		return fmt.Errorf("record award: %w", err)
	}
	if !awarded {
		s.log.Debug("duplicate award skipped",
			zap.String("user_id", targetUserID.String()),
			zap.String("action", actionType),
			zap.String("reference_id", referenceID))
		return nil
	}

	previous := s.table.Resolve(float64(newXP-xp), false)
	next := s.table.Resolve(float64(newXP), false)
	if next.Level() > previous.Level() && s.notifier != nil {
		s.sendRankUpNotification(ctx, targetUserID, previous.Name(), next.Name(), newXP)
	}

	return nil
}

func (s *leaderboardService) sendRankUpNotification(ctx context.Context, userID uuid.UUID, previousRank, newRank string, newXP int64) {
	notification := &entity.Notification{
		UserID:     userID,
		ActorID:    userID,
		EntityID:   userID,
		EntityType: "rank",
		Type:       entity.NotificationRankUp,
		Message:    fmt.Sprintf("Promoted from %s to %s with %d XP", previousRank, newRank, newXP),
	}

	if err := s.notifier.CreateNotification(ctx, notification); err != nil {
		s.log.Warn("failed to send rank up notification",
			zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	s.log.Info("rank up",
		zap.String("user_id", userID.String()),
		zap.String("from", previousRank),
		zap.String("to", newRank))
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error) {
	switch timeframe {
	case "":
		timeframe = leaderboardRepo.TimeframeAllTime
	case leaderboardRepo.TimeframeAllTime, leaderboardRepo.TimeframeMonthly, leaderboardRepo.TimeframeWeekly:
	default:
		return nil, apperror.Invalid("timeframe must be one of all_time, monthly, weekly")
	}
	limit = ClampLimit(limit)

	stats, err := s.repo.GetTopUsers(ctx, limit, timeframe)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(stats))
	for i := range stats {
		stat := &stats[i]

		var role string
		if stat.User.Role.ID != 0 {
			role = stat.User.Role.Name
		}

		periodXP := stat.TotalXPAllTime
		switch timeframe {
		case leaderboardRepo.TimeframeMonthly:
			periodXP = stat.TotalXPMonthly
		case leaderboardRepo.TimeframeWeekly:
			periodXP = stat.TotalXPWeekly
		}

		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Username:  stat.User.Username,
			AvatarURL: stat.User.AvatarURL,
			Role:      role,
			Position:  i + 1,
			PeriodXP:  periodXP,
			Rank:      s.ranks.Status(ctx, stat),
		})
	}

	return entries, nil
}

func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *leaderboardService) ResetWeekly(ctx context.Context) error {
	n, err := s.repo.ResetPeriod(ctx, "total_xp_weekly")
	if err != nil {
		return err
	}
	s.log.Info("weekly xp reset", zap.Int64("rows", n))
	return nil
}

func (s *leaderboardService) ResetMonthly(ctx context.Context) error {
	n, err := s.repo.ResetPeriod(ctx, "total_xp_monthly")
	if err != nil {
		return err
	}
	s.log.Info("monthly xp reset", zap.Int64("rows", n))
	return nil
}
