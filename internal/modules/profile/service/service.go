package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/donorhub/internal/entity"
	profileDto "anoa.com/donorhub/internal/modules/profile/dto"
	rankService "anoa.com/donorhub/internal/modules/rank/service"
	userRepo "anoa.com/donorhub/internal/modules/user/repository"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
	GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *commonDto.UploadFile) (*profileDto.ProfileResponse, error)
}

type StatsReader interface {
	GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

type XPAwarder interface {
	AwardXPAsync(targetUserID uuid.UUID, actionType, referenceID, referenceTable string, amountCents int64)
}

type DonorIndexer interface {
	IndexDonor(ctx context.Context, user *entity.User, pledgedCents int64) error
}

type profileService struct {
	repo     userRepo.UserRepository
	storage  storage.ImageStorage
	stats    StatsReader
	ranks    rankService.RankService
	xp       XPAwarder
	indexer  DonorIndexer
	sanitize *bluemonday.Policy
	log      *zap.Logger
}

func NewProfileService(repo userRepo.UserRepository, imageStorage storage.ImageStorage, stats StatsReader, ranks rankService.RankService, xp XPAwarder, indexer DonorIndexer, log *zap.Logger) ProfileService {
	return &profileService{
		repo:     repo,
		storage:  imageStorage,
		stats:    stats,
		ranks:    ranks,
		xp:       xp,
		indexer:  indexer,
		sanitize: bluemonday.UGCPolicy(),
		log:      log,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := s.loadStats(ctx, user.ID)
	return s.buildResponse(ctx, user, stats), nil
}

func (s *profileService) GetProfileByUsername(ctx context.Context, username string) (*profileDto.PublicProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	res := &profileDto.PublicProfileResponse{
		Username:  user.Username,
		Role:      user.Role.Name,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		Rank:      s.ranks.Status(ctx, s.loadStats(ctx, user.ID)),
	}
	if user.Profile != nil {
		res.FullName = user.Profile.FullName
		res.Organization = user.Profile.Organization
		res.Bio = user.Profile.Bio
	}

	return res, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput, avatar *commonDto.UploadFile) (*profileDto.ProfileResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != "" && *input.Username != user.Username {
		username := strings.ReplaceAll(strings.TrimSpace(*input.Username), " ", "_")
		if len(username) < 3 || len(username) > 50 {
			return nil, apperror.Invalid("username must be between 3 and 50 characters")
		}
		if _, err := s.repo.FindByUsername(ctx, username); err == nil {
			return nil, apperror.Conflict("username already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = username
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 8 {
			return nil, apperror.Invalid("password must be at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	profile := user.Profile
	if profile == nil {
		profile = &entity.Profile{UserID: user.ID, FullName: user.Username}
	}
	if input.FullName != nil {
		if name := strings.TrimSpace(*input.FullName); name != "" {
			profile.FullName = name
		}
	}
	if input.Organization != nil {
		profile.Organization = normalizeOptional(input.Organization)
	}
	if input.Bio != nil {
		bio := s.sanitize.Sanitize(*input.Bio)
		profile.Bio = normalizeOptional(&bio)
	}

	var previousAvatar, uploadedAvatar *string
	if avatar != nil && avatar.Reader != nil {
		if s.storage == nil {
			return nil, apperror.Invalid("image uploads are not configured")
		}
		url, err := s.storage.UploadImage(ctx, avatar.Reader, "avatars", avatar.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				return nil, apperror.Invalid(err.Error())
			}
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
		previousAvatar = user.AvatarURL
		uploadedAvatar = &url
		user.AvatarURL = &url
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		if uploadedAvatar != nil {
			if delErr := s.storage.DeleteImage(ctx, *uploadedAvatar); delErr != nil {
				s.log.Warn("failed to clean up avatar", zap.String("url", *uploadedAvatar), zap.Error(delErr))
			}
		}
		return nil, err
	}
	user.Profile = profile

	if previousAvatar != nil && s.storage != nil {
		if err := s.storage.DeleteImage(ctx, *previousAvatar); err != nil {
			s.log.Warn("failed to delete previous avatar", zap.String("url", *previousAvatar), zap.Error(err))
		}
	}

	stats := s.loadStats(ctx, user.ID)
	if s.indexer != nil {
		if err := s.indexer.IndexDonor(ctx, user, stats.TotalPledgedCents); err != nil {
			s.log.Warn("failed to reindex donor", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	complete := IsComplete(user)
	if complete && s.xp != nil {
		// One award per user; repeats are dropped by the ledger.
		s.xp.AwardXPAsync(user.ID, entity.ActionProfileComplete, user.ID.String(), "profiles", 0)
	}

	res := s.buildResponse(ctx, user, stats)
	return res, nil
}

// IsComplete reports whether every optional profile field has been filled in.
func IsComplete(user *entity.User) bool {
	if user == nil || user.Profile == nil {
		return false
	}
	p := user.Profile
	return strings.TrimSpace(p.FullName) != "" &&
		p.Organization != nil && *p.Organization != "" &&
		p.Bio != nil && *p.Bio != "" &&
		user.AvatarURL != nil && *user.AvatarURL != ""
}

func (s *profileService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *profileService) loadStats(ctx context.Context, userID uuid.UUID) *entity.UserStats {
	stats, err := s.stats.GetUserStatsByUserID(ctx, userID)
	if err != nil || stats == nil {
		if err != nil {
			s.log.Warn("failed to load xp stats", zap.String("user_id", userID.String()), zap.Error(err))
		}
		return &entity.UserStats{UserID: userID}
	}
	return stats
}

func (s *profileService) buildResponse(ctx context.Context, user *entity.User, stats *entity.UserStats) *profileDto.ProfileResponse {
	user.PasswordHash = ""
	return &profileDto.ProfileResponse{
		User:     user,
		Profile:  user.Profile,
		Rank:     s.ranks.Status(ctx, stats),
		Complete: IsComplete(user),
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
