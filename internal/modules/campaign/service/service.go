package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"anoa.com/donorhub/internal/entity"
	campaignDto "anoa.com/donorhub/internal/modules/campaign/dto"
	campaignRepo "anoa.com/donorhub/internal/modules/campaign/repository"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultCurrency = "USD"

var slugInvalid = regexp.MustCompile("[^a-z0-9 ]+")

type CampaignService interface {
	CreateCampaign(ctx context.Context, actorID uuid.UUID, req campaignDto.CreateCampaignRequest, cover *commonDto.UploadFile) (*campaignDto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, filter campaignDto.CampaignFilter) ([]campaignDto.CampaignResponse, error)
	GetCampaign(ctx context.Context, slug string) (*campaignDto.CampaignResponse, error)
	CloseCampaign(ctx context.Context, slug string) (*campaignDto.CampaignResponse, error)
}

type campaignService struct {
	repo    campaignRepo.CampaignRepository
	storage   storage.ImageStorage
	sanitizer *bluemonday.Policy
	log       *zap.Logger
	now       func() time.Time
}

func NewCampaignService(repo campaignRepo.CampaignRepository, imageStorage storage.ImageStorage, log *zap.Logger) CampaignService {
	return &campaignService{
		repo:      repo,
		storage:   imageStorage,
		sanitizer: bluemonday.UGCPolicy(),
		log:       log,
		now:       time.Now,
	}
}

func (s *campaignService) CreateCampaign(ctx context.Context, actorID uuid.UUID, req campaignDto.CreateCampaignRequest, cover *commonDto.UploadFile) (*campaignDto.CampaignResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Invalid("name is required")
	}
	if req.EndsAt != nil && !req.EndsAt.After(s.now()) {
		return nil, apperror.Invalid("ends_at must be in the future")
	}

	slug, err := s.generateUniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}

	campaign := &entity.Campaign{
		Name:        name,
		Slug:        slug,
		Description: s.sanitizer.Sanitize(req.Description),
		GoalCents:   req.GoalCents,
		Currency:    currency,
		IsActive:    true,
		EndsAt:      req.EndsAt,
		CreatedByID: actorID,
	}

	if cover != nil {
		if s.storage == nil {
			return nil, apperror.Invalid("image uploads are not configured")
		}
		url, err := s.storage.UploadImage(ctx, cover.Reader, "campaigns", cover.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				return nil, apperror.Invalid(err.Error())
			}
			return nil, fmt.Errorf("upload cover: %w", err)
		}
		campaign.CoverURL = &url
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		if campaign.CoverURL != nil {
			if delErr := s.storage.DeleteImage(ctx, *campaign.CoverURL); delErr != nil {
				s.log.Warn("failed to clean up cover", zap.Error(delErr))
			}
		}
		return nil, err
	}

	s.log.Info("campaign created", zap.String("slug", slug), zap.String("by", actorID.String()))
	res := s.toResponse(campaign, campaignRepo.Totals{})
	return &res, nil
}

func (s *campaignService) ListCampaigns(ctx context.Context, filter campaignDto.CampaignFilter) ([]campaignDto.CampaignResponse, error) {
	campaigns, err := s.repo.List(ctx, filter.Active)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	totals, err := s.repo.Totals(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]campaignDto.CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		res = append(res, s.toResponse(&campaigns[i], totals[campaigns[i].ID]))
	}
	return res, nil
}

func (s *campaignService) GetCampaign(ctx context.Context, slug string) (*campaignDto.CampaignResponse, error) {
	campaign, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx, []uuid.UUID{campaign.ID})
	if err != nil {
		return nil, err
	}

	res := s.toResponse(campaign, totals[campaign.ID])
	return &res, nil
}

func (s *campaignService) CloseCampaign(ctx context.Context, slug string) (*campaignDto.CampaignResponse, error) {
	campaign, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !campaign.IsActive {
		return nil, apperror.Conflict("campaign is already closed")
	}

	campaign.IsActive = false
	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, err
	}

	s.log.Info("campaign closed", zap.String("slug", slug))
	return s.GetCampaign(ctx, slug)
}

func (s *campaignService) findBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	campaign, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("campaign not found")
		}
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) toResponse(c *entity.Campaign, totals campaignRepo.Totals) campaignDto.CampaignResponse {
	var progress float64
	if c.GoalCents > 0 {
		progress = math.Round(float64(totals.RaisedCents)/float64(c.GoalCents)*10000) / 100
	}

	return campaignDto.CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		GoalCents:   c.GoalCents,
		Currency:    c.Currency,
		CoverURL:    c.CoverURL,
		IsActive:    c.IsActive,
		IsOpen:      c.AcceptsPledges(s.now()),
		EndsAt:      c.EndsAt,
		RaisedCents: totals.RaisedCents,
		PledgeCount: totals.PledgeCount,
		Progress:    progress,
		CreatedAt:   c.CreatedAt,
	}
}

// Slugify lowercases name and joins its alphanumeric words with hyphens.
func Slugify(name string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "")
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "campaign"
	}
	return slug
}

func (s *campaignService) generateUniqueSlug(ctx context.Context, name string) (string, error) {
	slug := Slugify(name)

	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if exists {
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}
	return slug, nil
}
