package service

import (
	"context"

	"anoa.com/donorhub/internal/entity"
	notifRepo "anoa.com/donorhub/internal/modules/notification/repository"
	"anoa.com/donorhub/internal/realtime"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

type notificationService struct {
	repo      notifRepo.NotificationRepository
	publisher Publisher
	log       *zap.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, publisher Publisher, log *zap.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// CreateNotification persists first; a failed publish only costs the live push.
func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, realtime.UserChannel(notification.UserID), notification); err != nil {
			s.log.Warn("failed to publish notification",
				zap.String("user_id", notification.UserID.String()), zap.Error(err))
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
