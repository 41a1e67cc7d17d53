package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"anoa.com/donorhub/internal/entity"
	leaderboardRepo "anoa.com/donorhub/internal/modules/leaderboard/repository"
	rankService "anoa.com/donorhub/internal/modules/rank/service"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu        sync.Mutex
	logs      []entity.XPLog
	stats     map[uuid.UUID]*entity.UserStats
	top       []entity.UserStats
	reset     []string
	statsErrs int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stats: map[uuid.UUID]*entity.UserStats{}}
}

// RecordAward mirrors the transactional repository: a failed stats update
// leaves no ledger row behind.
func (f *fakeRepo) RecordAward(_ context.Context, l *entity.XPLog, cents int64) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.logs {
		if existing.UserID == l.UserID && existing.ActionType == l.ActionType && existing.ReferenceID == l.ReferenceID {
			return 0, false, nil
		}
	}
	if f.statsErrs > 0 {
		f.statsErrs--
		return 0, false, errors.New("db hiccup")
	}

	f.logs = append(f.logs, *l)
	s, ok := f.stats[l.UserID]
	if !ok {
		s = &entity.UserStats{UserID: l.UserID}
		f.stats[l.UserID] = s
	}
	s.TotalXPAllTime += l.XP
	s.TotalXPMonthly += l.XP
	s.TotalXPWeekly += l.XP
	s.TotalPledgedCents += cents
	return s.TotalXPAllTime, true, nil
}

func (f *fakeRepo) GetTopUsers(_ context.Context, limit int, timeframe string) ([]entity.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.top
	if out == nil {
		for _, s := range f.stats {
			if periodXP(*s, timeframe) > 0 || timeframe == "" || timeframe == leaderboardRepo.TimeframeAllTime {
				out = append(out, *s)
			}
		}
		sort.Slice(out, func(i, j int) bool { return periodXP(out[i], timeframe) > periodXP(out[j], timeframe) })
	}
	if limit < len(out) {
		return out[:limit], nil
	}
	return out, nil
}

func periodXP(s entity.UserStats, timeframe string) int64 {
	switch timeframe {
	case leaderboardRepo.TimeframeWeekly:
		return s.TotalXPWeekly
	case leaderboardRepo.TimeframeMonthly:
		return s.TotalXPMonthly
	}
	return s.TotalXPAllTime
}

func (f *fakeRepo) GetUserStatsByUserID(_ context.Context, userID uuid.UUID) (*entity.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stats[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return &entity.UserStats{UserID: userID}, nil
}

func (f *fakeRepo) ResetPeriod(_ context.Context, column string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset = append(f.reset, column)
	var n int64
	for _, s := range f.stats {
		switch column {
		case "total_xp_weekly":
			s.TotalXPWeekly = 0
		case "total_xp_monthly":
			s.TotalXPMonthly = 0
		}
		n++
	}
	return n, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (f *fakeNotifier) CreateNotification(_ context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *n)
	return nil
}

type fakeOverrides map[uuid.UUID]bool

func (f fakeOverrides) IsOverridden(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}

func newTestService(repo *fakeRepo, notifier *fakeNotifier, overrides fakeOverrides) LeaderboardService {
	ranks := rankService.NewRankService(nil, repo, overrides, nil, zap.NewNop())
	return NewLeaderboardService(repo, ranks, nil, notifier, 10, zap.NewNop())
}

func TestPledgeXP(t *testing.T) {
	assert.Equal(t, int64(500), PledgeXP(5_000, 10))
	assert.Equal(t, int64(5), PledgeXP(50, 10))
	assert.Equal(t, int64(0), PledgeXP(0, 10))
	assert.Equal(t, int64(0), PledgeXP(-100, 10))
}

func TestAwardXPPledge(t *testing.T) {
	repo, notifier := newFakeRepo(), &fakeNotifier{}
	svc := newTestService(repo, notifier, nil)
	donor := uuid.New()

	err := svc.AwardXP(context.Background(), donor, entity.ActionPledge, "p-1", "pledges", 5_000)
	require.NoError(t, err)

	require.Len(t, repo.logs, 1)
	assert.Equal(t, int64(500), repo.logs[0].XP)
	assert.Equal(t, int64(500), repo.stats[donor].TotalXPAllTime)
	assert.Equal(t, int64(5_000), repo.stats[donor].TotalPledgedCents)
	assert.Empty(t, notifier.sent)
}

func TestAwardXPIsIdempotentPerReference(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{}, nil)
	donor := uuid.New()

	require.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionProfileComplete, donor.String(), "profiles", 0))
	require.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionProfileComplete, donor.String(), "profiles", 0))

	assert.Len(t, repo.logs, 1)
	assert.Equal(t, int64(ProfileCompleteBonusXP), repo.stats[donor].TotalXPAllTime)
}

func TestAwardXPRetryAfterFailedStatsUpdate(t *testing.T) {
	repo := newFakeRepo()
	repo.statsErrs = 1
	svc := newTestService(repo, &fakeNotifier{}, nil)
	donor := uuid.New()

	err := svc.AwardXP(context.Background(), donor, entity.ActionPledge, "p-9", "pledges", 5_000)
	require.Error(t, err)
	assert.Empty(t, repo.logs)

	require.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionPledge, "p-9", "pledges", 5_000))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, int64(500), repo.stats[donor].TotalXPAllTime)

	require.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionPledge, "p-9", "pledges", 5_000))
	assert.Equal(t, int64(500), repo.stats[donor].TotalXPAllTime)
}

func TestAwardXPConcurrentDuplicatesPayOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{}, nil)
	donor := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionProfileComplete, donor.String(), "profiles", 0))
		}()
	}
	wg.Wait()

	assert.Len(t, repo.logs, 1)
	assert.Equal(t, int64(ProfileCompleteBonusXP), repo.stats[donor].TotalXPAllTime)
}

func TestAwardXPRankUpNotifies(t *testing.T) {
	repo, notifier := newFakeRepo(), &fakeNotifier{}
	svc := newTestService(repo, notifier, nil)
	donor := uuid.New()
	repo.stats[donor] = &entity.UserStats{UserID: donor, TotalXPAllTime: 900}

	require.NoError(t, svc.AwardXP(context.Background(), donor, entity.ActionPledge, "p-2", "pledges", 1_000))

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, entity.NotificationRankUp, n.Type)
	assert.Equal(t, donor, n.UserID)
	assert.Contains(t, n.Message, "Crewman")
	assert.Contains(t, n.Message, "Ensign")
}

func TestAwardXPUnknownAction(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)
	err := svc.AwardXP(context.Background(), uuid.New(), "like", "x", "y", 0)
	assert.Error(t, err)
}

func TestAwardXPAsync(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{}, nil)
	donor := uuid.New()

	for i := 0; i < 5; i++ {
		svc.AwardXPAsync(donor, entity.ActionPledge, uuid.NewString(), "pledges", 100)
	}
	svc.Wait()

	stats, err := repo.GetUserStatsByUserID(context.Background(), donor)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stats.TotalXPAllTime)
}

func TestGetLeaderboard(t *testing.T) {
	repo := newFakeRepo()
	admin, donor := uuid.New(), uuid.New()
	repo.top = []entity.UserStats{
		{UserID: donor, User: entity.User{ID: donor, Username: "ada", Role: entity.Role{ID: 3, Name: entity.RoleDonor}}, TotalXPAllTime: 3_000, TotalXPWeekly: 1_200},
		{UserID: admin, User: entity.User{ID: admin, Username: "root"}, TotalXPAllTime: 20},
	}
	svc := newTestService(repo, &fakeNotifier{}, fakeOverrides{admin: true})

	entries, err := svc.GetLeaderboard(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "ada", entries[0].Username)
	assert.Equal(t, entity.RoleDonor, entries[0].Role)
	assert.Equal(t, "Lieutenant Junior Grade", entries[0].Rank.RankName)
	assert.Equal(t, int64(3_000), entries[0].PeriodXP)

	assert.Equal(t, 2, entries[1].Position)
	assert.Empty(t, entries[1].Role)
	assert.True(t, entries[1].Rank.IsOverridden)
	assert.Equal(t, "Fleet Admiral", entries[1].Rank.RankName)
}

func TestGetLeaderboardWeeklyPeriodXP(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.top = []entity.UserStats{{UserID: id, User: entity.User{ID: id, Username: "ada"}, TotalXPAllTime: 9_000, TotalXPWeekly: 40}}
	svc := newTestService(repo, &fakeNotifier{}, nil)

	entries, err := svc.GetLeaderboard(context.Background(), 10, leaderboardRepo.TimeframeWeekly)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(40), entries[0].PeriodXP)
	assert.Equal(t, "Lieutenant", entries[0].Rank.RankName)
}

func TestGetLeaderboardRejectsUnknownTimeframe(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeNotifier{}, nil)
	_, err := svc.GetLeaderboard(context.Background(), 10, "yearly")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(500))
}

func TestResetPeriods(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{}, nil)

	require.NoError(t, svc.ResetWeekly(context.Background()))
	require.NoError(t, svc.ResetMonthly(context.Background()))
	assert.Equal(t, []string{"total_xp_weekly", "total_xp_monthly"}, repo.reset)
}

func TestWeeklyResetClearsWeeklyLeaderboard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeNotifier{}, nil)
	ctx := context.Background()
	donor := uuid.New()

	require.NoError(t, svc.AwardXP(ctx, donor, entity.ActionPledge, "p-1", "pledges", 3_000))

	weekly, err := svc.GetLeaderboard(ctx, 10, leaderboardRepo.TimeframeWeekly)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, int64(300), weekly[0].PeriodXP)

	require.NoError(t, svc.ResetWeekly(ctx))

	weekly, err = svc.GetLeaderboard(ctx, 10, leaderboardRepo.TimeframeWeekly)
	require.NoError(t, err)
	assert.Empty(t, weekly)

	monthly, err := svc.GetLeaderboard(ctx, 10, leaderboardRepo.TimeframeMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, int64(300), monthly[0].PeriodXP)

	allTime, err := svc.GetLeaderboard(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, allTime, 1)
	assert.Equal(t, int64(300), allTime[0].PeriodXP)
	assert.Zero(t, allTime[0].Rank.WeeklyXP)
}
