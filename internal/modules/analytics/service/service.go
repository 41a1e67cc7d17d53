package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"anoa.com/donorhub/internal/entity"
	analyticsDto "anoa.com/donorhub/internal/modules/analytics/dto"
	analyticsRepo "anoa.com/donorhub/internal/modules/analytics/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	TopCampaigns = 5

	dayLayout = "2006-01-02"
)

type AnalyticsService interface {
	Summary(ctx context.Context, days int) (*analyticsDto.Summary, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type analyticsService struct {
	repo  analyticsRepo.AnalyticsRepository
	users UserCounter
	log   *zap.Logger
	now   func() time.Time
}

func NewAnalyticsService(repo analyticsRepo.AnalyticsRepository, users UserCounter, log *zap.Logger) AnalyticsService {
	return &analyticsService{
		repo:  repo,
		users: users,
		log:   log,
		now:   time.Now,
	}
}

// Summary covers the last days calendar days (UTC), today included.
func (s *analyticsService) Summary(ctx context.Context, days int) (*analyticsDto.Summary, error) {
	if days < 1 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	summary, err := s.aggregate(ctx, since)
	if err != nil {
		s.log.Warn("aggregate analytics failed, computing from raw pledges", zap.Error(err))
		summary, err = s.fromPledges(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("analytics fallback: %w", err)
		}
		summary.Degraded = true
	}

	summary.Days = days
	summary.Daily = fillDays(summary.Daily, since, days)
	if summary.PledgeCount > 0 {
		summary.AveragePledgeCents = summary.TotalRaisedCents / summary.PledgeCount
	}

	if s.users != nil {
		total, err := s.users.Count(ctx)
		if err != nil {
			return nil, err
		}
		summary.TotalUsers = total
	}

	return summary, nil
}

func (s *analyticsService) aggregate(ctx context.Context, since time.Time) (*analyticsDto.Summary, error) {
	var (
		totals analyticsRepo.Totals
		top    []analyticsDto.CampaignTotal
		daily  []analyticsDto.DailyTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.repo.Totals(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		top, err = s.repo.TopCampaigns(gctx, since, TopCampaigns)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.repo.Daily(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &analyticsDto.Summary{
		TotalRaisedCents: totals.RaisedCents,
		PledgeCount:      totals.PledgeCount,
		UniqueDonors:     totals.UniqueDonors,
		TopCampaigns:     top,
		Daily:            daily,
	}, nil
}

func (s *analyticsService) fromPledges(ctx context.Context, since time.Time) (*analyticsDto.Summary, error) {
	pledges, err := s.repo.PledgesSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return Compute(pledges), nil
}

// Compute derives the pledge figures of a Summary from raw rows.
func Compute(pledges []entity.Pledge) *analyticsDto.Summary {
	summary := &analyticsDto.Summary{}
	donors := make(map[uuid.UUID]struct{})
	campaigns := make(map[uuid.UUID]*analyticsDto.CampaignTotal)
	daily := make(map[string]*analyticsDto.DailyTotal)

	for _, p := range pledges {
		summary.TotalRaisedCents += p.AmountCents
		summary.PledgeCount++
		donors[p.DonorID] = struct{}{}

		ct, ok := campaigns[p.CampaignID]
		if !ok {
			ct = &analyticsDto.CampaignTotal{CampaignID: p.CampaignID, Name: p.Campaign.Name, Slug: p.Campaign.Slug}
			campaigns[p.CampaignID] = ct
		}
		ct.RaisedCents += p.AmountCents
		ct.PledgeCount++

		day := p.CreatedAt.UTC().Format(dayLayout)
		dt, ok := daily[day]
		if !ok {
			dt = &analyticsDto.DailyTotal{Day: day}
			daily[day] = dt
		}
		dt.RaisedCents += p.AmountCents
		dt.PledgeCount++
	}
	summary.UniqueDonors = int64(len(donors))

	top := make([]analyticsDto.CampaignTotal, 0, len(campaigns))
	for _, ct := range campaigns {
		top = append(top, *ct)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].RaisedCents != top[j].RaisedCents {
			return top[i].RaisedCents > top[j].RaisedCents
		}
		return top[i].Slug < top[j].Slug
	})
	if len(top) > TopCampaigns {
		top = top[:TopCampaigns]
	}
	summary.TopCampaigns = top

	for _, dt := range daily {
		summary.Daily = append(summary.Daily, *dt)
	}
	return summary
}

// fillDays returns one entry per day from since, zero-filled where absent.
func fillDays(rows []analyticsDto.DailyTotal, since time.Time, days int) []analyticsDto.DailyTotal {
	byDay := make(map[string]analyticsDto.DailyTotal, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	out := make([]analyticsDto.DailyTotal, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(dayLayout)
		row, ok := byDay[day]
		if !ok {
			row = analyticsDto.DailyTotal{Day: day}
		}
		out = append(out, row)
	}
	return out
}
