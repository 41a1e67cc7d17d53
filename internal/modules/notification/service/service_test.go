package service

import (
	"context"
	"errors"
	"testing"

	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	items []entity.Notification
	err   error
}

func (m *memRepo) Create(_ context.Context, n *entity.Notification) error {
	if m.err != nil {
		return m.err
	}
	n.ID = uuid.New()
	m.items = append(m.items, *n)
	return nil
}

func (m *memRepo) GetByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	var out []entity.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memRepo) MarkAsRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	for i := range m.items {
		if m.items[i].UserID == userID {
			m.items[i].IsRead = true
		}
	}
	return nil
}

func (m *memRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.UserID == userID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	channels []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ any) error {
	p.channels = append(p.channels, channel)
	return p.err
}

func TestCreateNotificationPublishes(t *testing.T) {
	repo := &memRepo{}
	pub := &recordingPublisher{}
	svc := NewNotificationService(repo, pub, zap.NewNop())

	user := uuid.New()
	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{UserID: user, Type: entity.NotificationRankUp}))

	assert.Len(t, repo.items, 1)
	assert.Equal(t, []string{"user_notifications:" + user.String()}, pub.channels)
}

func TestCreateNotificationPublishFailureIsNotFatal(t *testing.T) {
	svc := NewNotificationService(&memRepo{}, &recordingPublisher{err: errors.New("down")}, zap.NewNop())
	assert.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{UserID: uuid.New()}))
}

func TestCreateNotificationStoreFailureSkipsPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewNotificationService(&memRepo{err: errors.New("db")}, pub, zap.NewNop())

	assert.Error(t, svc.CreateNotification(context.Background(), &entity.Notification{UserID: uuid.New()}))
	assert.Empty(t, pub.channels)
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	repo := &memRepo{}
	svc := NewNotificationService(repo, nil, zap.NewNop())
	owner, other := uuid.New(), uuid.New()
	require.NoError(t, svc.CreateNotification(context.Background(), &entity.Notification{UserID: owner}))
	id := repo.items[0].ID

	assert.ErrorIs(t, svc.MarkAsRead(context.Background(), id, other), apperror.ErrNotFound)
	require.NoError(t, svc.MarkAsRead(context.Background(), id, owner))

	count, err := svc.UnreadCount(context.Background(), owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}
