package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/donorhub/internal/entity"
	membershipDto "anoa.com/donorhub/internal/modules/membership/dto"
	teamRepo "anoa.com/donorhub/internal/modules/membership/repository"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type MembershipService interface {
	// IsOverridden is true for admins and platform-team members.
	IsOverridden(ctx context.Context, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, actorID uuid.UUID, input membershipDto.AddMemberInput) (*entity.TeamMember, error)
	RemoveMember(ctx context.Context, userID uuid.UUID) error
	ListMembers(ctx context.Context) ([]entity.TeamMember, error)
	// Invalidate drops the cached override flag, e.g. after a role change.
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type membershipService struct {
	repo     teamRepo.TeamRepository
	users    UserLookup
	notifier Notifier
	rdb      *redis.Client
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewMembershipService(repo teamRepo.TeamRepository, users UserLookup, notifier Notifier, rdb *redis.Client, cacheTTL time.Duration, log *zap.Logger) MembershipService {
	return &membershipService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func cacheKey(userID uuid.UUID) string {
	return "membership:override:" + userID.String()
}

func (s *membershipService) IsOverridden(ctx context.Context, userID uuid.UUID) (bool, error) {
	if cached, ok := s.readCache(ctx, userID); ok {
		return cached, nil
	}

	role, err := s.repo.RoleName(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load role: %w", err)
	}

	overridden := role == entity.RoleAdmin || role == entity.RolePlatformTeam
	if !overridden {
		overridden, err = s.repo.Exists(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to check team membership: %w", err)
		}
	}

	s.writeCache(ctx, userID, overridden)
	return overridden, nil
}

func (s *membershipService) readCache(ctx context.Context, userID uuid.UUID) (bool, bool) {
	if s.rdb == nil {
		return false, false
	}
	val, err := s.rdb.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug("membership cache read failed", zap.Error(err))
		}
		return false, false
	}
	return val == "1", true
}

func (s *membershipService) writeCache(ctx context.Context, userID uuid.UUID, overridden bool) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	val := "0"
	if overridden {
		val = "1"
	}
	if err := s.rdb.Set(ctx, cacheKey(userID), val, s.cacheTTL).Err(); err != nil {
		s.log.Debug("membership cache write failed", zap.Error(err))
	}
}

func (s *membershipService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		s.log.Warn("membership cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *membershipService) AddMember(ctx context.Context, actorID uuid.UUID, input membershipDto.AddMemberInput) (*entity.TeamMember, error) {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, apperror.Invalid("invalid user id")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user not found")
	}

	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("user is already a team member")
	}

	member := &entity.TeamMember{
		UserID:    userID,
		Title:     input.Title,
		AddedByID: actorID,
	}
	if err := s.repo.Add(ctx, member); err != nil {
		return nil, err
	}
	member.User = *user
	member.User.PasswordHash = ""

	s.Invalidate(ctx, userID)

	if s.notifier != nil {
		n := &entity.Notification{
			UserID:     userID,
			ActorID:    actorID,
			EntityID:   userID,
			EntityType: "membership",
			Type:       entity.NotificationTeamAdded,
			Message:    "You joined the platform team. Your rank is now Fleet Admiral.",
		}
		if err := s.notifier.CreateNotification(ctx, n); err != nil {
			s.log.Warn("failed to notify new team member", zap.Error(err))
		}
	}

	return member, nil
}

func (s *membershipService) RemoveMember(ctx context.Context, userID uuid.UUID) error {
	removed, err := s.repo.Remove(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("team member not found")
	}
	s.Invalidate(ctx, userID)
	return nil
}

func (s *membershipService) ListMembers(ctx context.Context) ([]entity.TeamMember, error) {
	return s.repo.List(ctx)
}
