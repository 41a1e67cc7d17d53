package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/donorhub/internal/entity"
	campaignRepo "anoa.com/donorhub/internal/modules/campaign/repository"
	leaderboardService "anoa.com/donorhub/internal/modules/leaderboard/service"
	pledgeDto "anoa.com/donorhub/internal/modules/pledge/dto"
	pledgeRepo "anoa.com/donorhub/internal/modules/pledge/repository"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionCreatePledge = "create_pledge"
	AnonymousDonor     = "Anonymous donor"
)

type PledgeService interface {
	CreatePledge(ctx context.Context, donorID uuid.UUID, campaignSlug string, req pledgeDto.CreatePledgeRequest) (*pledgeDto.PledgeResponse, error)
	ListMyPledges(ctx context.Context, donorID uuid.UUID, q commonDto.PaginationQuery) (*pledgeDto.MyPledgesResponse, error)
	ListCampaignPledges(ctx context.Context, campaignSlug string, q commonDto.PaginationQuery) (*pledgeDto.CampaignPledgesResponse, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID, action string, window time.Duration) error
	Clear(ctx context.Context, userID uuid.UUID, action string) error
}

type XPAwarder interface {
	AwardXPAsync(targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type pledgeService struct {
	repo      pledgeRepo.PledgeRepository
	campaigns campaignRepo.CampaignRepository
	limiter   RateLimiter
	window    time.Duration
	xp        XPAwarder
	xpPerUnit int64
	notifier  Notifier
	sanitizer *bluemonday.Policy
	log       *zap.Logger
	now       func() time.Time
}

type Options struct {
	Limiter   RateLimiter
	Window    time.Duration
	XP        XPAwarder
	XPPerUnit int64
	Notifier  Notifier
}

func NewPledgeService(repo pledgeRepo.PledgeRepository, campaigns campaignRepo.CampaignRepository, opts Options, log *zap.Logger) PledgeService {
	return &pledgeService{
		repo:      repo,
		campaigns: campaigns,
		limiter:   opts.Limiter,
		window:    opts.Window,
		xp:        opts.XP,
		xpPerUnit: opts.XPPerUnit,
		notifier:  opts.Notifier,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
		now:       time.Now,
	}
}

func (s *pledgeService) CreatePledge(ctx context.Context, donorID uuid.UUID, campaignSlug string, req pledgeDto.CreatePledgeRequest) (res *pledgeDto.PledgeResponse, err error) {
	if req.AmountCents <= 0 {
		return nil, apperror.Invalid("amount must be greater than zero")
	}

	if s.limiter != nil && s.window > 0 {
		if err := s.limiter.Allow(ctx, donorID, ActionCreatePledge, s.window); err != nil {
			return nil, err
		}
		// A rejected pledge does not consume the window.
		defer func() {
			if err != nil {
				if clearErr := s.limiter.Clear(ctx, donorID, ActionCreatePledge); clearErr != nil {
					s.log.Warn("failed to clear rate limit", zap.Error(clearErr))
				}
			}
		}()
	}

	campaign, err := s.findCampaign(ctx, campaignSlug)
	if err != nil {
		return nil, err
	}
	if !campaign.AcceptsPledges(s.now()) {
		return nil, apperror.Invalid("campaign is not accepting pledges")
	}

	var message *string
	if m := strings.TrimSpace(s.sanitizer.Sanitize(req.Message)); m != "" {
		message = &m
	}

	pledge := &entity.Pledge{
		DonorID:     donorID,
		CampaignID:  campaign.ID,
		AmountCents: req.AmountCents,
		Currency:    campaign.Currency,
		Message:     message,
		IsAnonymous: req.IsAnonymous,
	}
	if err := s.repo.Create(ctx, pledge); err != nil {
		return nil, err
	}

	if s.xp != nil {
		s.xp.AwardXPAsync(donorID, entity.ActionPledge, pledge.ID.String(), "pledges", pledge.AmountCents)
	}
	s.notifyDonor(ctx, pledge, campaign)

	s.log.Info("pledge created",
		zap.String("pledge_id", pledge.ID.String()),
		zap.String("campaign", campaign.Slug),
		zap.Int64("amount_cents", pledge.AmountCents))

	out := toPledgeResponse(pledge, campaign)
	out.XPAwarded = leaderboardService.PledgeXP(pledge.AmountCents, s.xpPerUnit)
	return &out, nil
}

func (s *pledgeService) notifyDonor(ctx context.Context, pledge *entity.Pledge, campaign *entity.Campaign) {
	if s.notifier == nil {
		return
	}
	notification := &entity.Notification{
		UserID:     pledge.DonorID,
		ActorID:    pledge.DonorID,
		EntityID:   campaign.ID,
		EntitySlug: campaign.Slug,
		EntityType: "campaign",
		Type:       entity.NotificationPledgeCreated,
		Message:    fmt.Sprintf("Thank you for pledging %s to %s", FormatAmount(pledge.AmountCents, pledge.Currency), campaign.Name),
	}
	if err := s.notifier.CreateNotification(ctx, notification); err != nil {
		s.log.Warn("failed to notify donor", zap.String("pledge_id", pledge.ID.String()), zap.Error(err))
	}
}

func (s *pledgeService) ListMyPledges(ctx context.Context, donorID uuid.UUID, q commonDto.PaginationQuery) (*pledgeDto.MyPledgesResponse, error) {
	q.Normalize()

	pledges, total, err := s.repo.FindByDonor(ctx, donorID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]pledgeDto.PledgeResponse, 0, len(pledges))
	for i := range pledges {
		res := toPledgeResponse(&pledges[i], &pledges[i].Campaign)
		res.XPAwarded = leaderboardService.PledgeXP(pledges[i].AmountCents, s.xpPerUnit)
		data = append(data, res)
	}

	return &pledgeDto.MyPledgesResponse{Data: data, Meta: commonDto.NewPaginationMeta(q, total)}, nil
}

func (s *pledgeService) ListCampaignPledges(ctx context.Context, campaignSlug string, q commonDto.PaginationQuery) (*pledgeDto.CampaignPledgesResponse, error) {
	q.Normalize()

	campaign, err := s.findCampaign(ctx, campaignSlug)
	if err != nil {
		return nil, err
	}

	pledges, total, err := s.repo.FindByCampaign(ctx, campaign.ID, q.Offset(), q.Limit)
	if err != nil {
		return nil, err
	}

	data := make([]pledgeDto.CampaignPledgeResponse, 0, len(pledges))
	for _, p := range pledges {
		donor := commonDto.AuthorResponse{Username: AnonymousDonor}
		if !p.IsAnonymous {
			donor = commonDto.AuthorResponse{Username: p.Donor.Username, AvatarURL: p.Donor.AvatarURL}
		}
		data = append(data, pledgeDto.CampaignPledgeResponse{
			ID:          p.ID,
			Donor:       donor,
			AmountCents: p.AmountCents,
			Currency:    p.Currency,
			Message:     p.Message,
			IsAnonymous: p.IsAnonymous,
			CreatedAt:   p.CreatedAt,
		})
	}

	return &pledgeDto.CampaignPledgesResponse{Data: data, Meta: commonDto.NewPaginationMeta(q, total)}, nil
}

func (s *pledgeService) findCampaign(ctx context.Context, slug string) (*entity.Campaign, error) {
	campaign, err := s.campaigns.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("campaign not found")
		}
		return nil, err
	}
	return campaign, nil
}

func toPledgeResponse(p *entity.Pledge, c *entity.Campaign) pledgeDto.PledgeResponse {
	return pledgeDto.PledgeResponse{
		ID:           p.ID,
		CampaignSlug: c.Slug,
		CampaignName: c.Name,
		AmountCents:  p.AmountCents,
		Currency:     p.Currency,
		Message:      p.Message,
		IsAnonymous:  p.IsAnonymous,
		CreatedAt:    p.CreatedAt,
	}
}

// FormatAmount renders minor units as "12.50 USD".
func FormatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
