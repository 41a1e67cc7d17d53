package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/internal/modules/admin/dto"
	searchService "anoa.com/donorhub/internal/modules/search/service"
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

type AdminService interface {
	CreateUser(ctx context.Context, input dto.CreateUserInput, avatar *commonDto.UploadFile) (*dto.AdminUserResponse, error)
	GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateAdminUserInput, avatar *commonDto.UploadFile) (*dto.AdminUserResponse, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
	SearchDonors(ctx context.Context, query dto.DonorSearchQuery) (*searchService.DonorResults, error)
}

type StatsReader interface {
	GetUserStatsByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserStats, error)
}

// OverrideCache is invalidated when a role changes.
type OverrideCache interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type adminService struct {
	repo      userRepo.UserRepository
	storage   storage.ImageStorage
	search    searchService.SearchService
	stats     StatsReader
	overrides OverrideCache
	sanitize  *bluemonday.Policy
	log       *zap.Logger
}

func NewAdminService(repo userRepo.UserRepository, imageStorage storage.ImageStorage, search searchService.SearchService, stats StatsReader, overrides OverrideCache, log *zap.Logger) AdminService {
	return &adminService{
		repo:      repo,
		storage:   imageStorage,
		search:    search,
		stats:     stats,
		overrides: overrides,
		sanitize:  bluemonday.UGCPolicy(),
		log:       log,
	}
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput, avatar *commonDto.UploadFile) (*dto.AdminUserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperror.Conflict("username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.findRole(ctx, input.Role)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatarURL, err := s.uploadAvatar(ctx, avatar)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		RoleID:       &role.ID,
		AvatarURL:    avatarURL,
	}
	profile := &entity.Profile{
		FullName:     strings.TrimSpace(input.FullName),
		Organization: normalizeOptional(input.Organization),
		Bio:          s.sanitizeOptional(input.Bio),
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}
	user.Role = *role
	user.Profile = profile

	s.reindex(ctx, user)
	s.log.Info("user created by admin", zap.String("user_id", user.ID.String()), zap.String("role", role.Name))

	return toResponse(user), nil
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*dto.AdminUserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toResponse(u))
	}
	return res, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateAdminUserInput, avatar *commonDto.UploadFile) (*dto.AdminUserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	if input.Username != "" && input.Username != user.Username {
		if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
			return nil, apperror.Conflict("username already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = input.Username
	}

	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, apperror.Conflict("email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = email
	}

	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	roleChanged := false
	if input.Role != "" && input.Role != user.Role.Name {
		role, err := s.findRole(ctx, input.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = &role.ID
		user.Role = *role
		roleChanged = true
	}

	avatarURL, err := s.uploadAvatar(ctx, avatar)
	if err != nil {
		return nil, err
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}

	if user.Profile == nil {
		user.Profile = &entity.Profile{UserID: user.ID, FullName: user.Username}
	}
	if name := strings.TrimSpace(input.FullName); name != "" {
		user.Profile.FullName = name
	}
	if input.Organization != nil {
		user.Profile.Organization = normalizeOptional(input.Organization)
	}
	if input.Bio != nil {
		user.Profile.Bio = s.sanitizeOptional(input.Bio)
	}

	if err := s.repo.Update(ctx, user, user.Profile); err != nil {
		return nil, err
	}

	if roleChanged && s.overrides != nil {
		s.overrides.Invalidate(ctx, user.ID)
	}
	s.reindex(ctx, user)

	return toResponse(user), nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperror.Forbidden("admins cannot delete their own account")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user not found")
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteDonor(ctx, id); err != nil {
			s.log.Warn("failed to remove donor from index", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	if s.overrides != nil {
		s.overrides.Invalidate(ctx, id)
	}
	if user.AvatarURL != nil && s.storage != nil {
		if err := s.storage.DeleteImage(ctx, *user.AvatarURL); err != nil {
			s.log.Warn("failed to delete avatar", zap.String("url", *user.AvatarURL), zap.Error(err))
		}
	}

	s.log.Info("user deleted by admin", zap.String("user_id", id.String()), zap.String("actor_id", actorID.String()))
	return nil
}

func (s *adminService) SearchDonors(ctx context.Context, query dto.DonorSearchQuery) (*searchService.DonorResults, error) {
	if s.search == nil {
		return &searchService.DonorResults{Hits: []searchService.DonorDocument{}}, nil
	}
	return s.search.SearchDonors(ctx, strings.TrimSpace(query.Q), query.Limit)
}

func (s *adminService) findRole(ctx context.Context, name string) (*entity.Role, error) {
	role, err := s.repo.FindRoleByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Invalid(fmt.Sprintf("role %s not found", name))
		}
		return nil, err
	}
	return role, nil
}

func (s *adminService) uploadAvatar(ctx context.Context, avatar *commonDto.UploadFile) (*string, error) {
	if avatar == nil || avatar.Reader == nil {
		return nil, nil
	}
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
	return &url, nil
}

func (s *adminService) reindex(ctx context.Context, user *entity.User) {
	if s.search == nil {
		return
	}
	var pledged int64
	if s.stats != nil {
		if stats, err := s.stats.GetUserStatsByUserID(ctx, user.ID); err == nil && stats != nil {
			pledged = stats.TotalPledgedCents
		}
	}
	if err := s.search.IndexDonor(ctx, user, pledged); err != nil {
		s.log.Warn("failed to index donor", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *adminService) sanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	clean := s.sanitize.Sanitize(*value)
	return normalizeOptional(&clean)
}

func toResponse(u *entity.User) *dto.AdminUserResponse {
	u.PasswordHash = ""
	return &dto.AdminUserResponse{
		User:    u,
		Role:    &u.Role,
		Profile: u.Profile,
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
