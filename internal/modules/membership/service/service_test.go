package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/donorhub/internal/entity"
	membershipDto "anoa.com/donorhub/internal/modules/membership/dto"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeTeamRepo struct {
	roles       map[uuid.UUID]string
	members     map[uuid.UUID]entity.TeamMember
	roleLookups int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{roles: map[uuid.UUID]string{}, members: map[uuid.UUID]entity.TeamMember{}}
}

func (f *fakeTeamRepo) Add(_ context.Context, m *entity.TeamMember) error {
	f.members[m.UserID] = *m
	return nil
}

func (f *fakeTeamRepo) Remove(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.members[id]
	delete(f.members, id)
	return ok, nil
}

func (f *fakeTeamRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.members[id]
	return ok, nil
}

func (f *fakeTeamRepo) List(context.Context) ([]entity.TeamMember, error) {
	out := make([]entity.TeamMember, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeTeamRepo) RoleName(_ context.Context, id uuid.UUID) (string, error) {
	f.roleLookups++
	return f.roles[id], nil
}

type fakeUsers map[uuid.UUID]*entity.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type countingNotifier struct{ n int }

func (c *countingNotifier) CreateNotification(context.Context, *entity.Notification) error {
	c.n++
	return nil
}

func newService(t *testing.T, repo *fakeTeamRepo, users fakeUsers, notifier Notifier) (MembershipService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewMembershipService(repo, users, notifier, rdb, time.Minute, zap.NewNop()), mr
}

func TestIsOverriddenByRole(t *testing.T) {
	repo := newFakeTeamRepo()
	admin, team, donor := uuid.New(), uuid.New(), uuid.New()
	repo.roles[admin] = entity.RoleAdmin
	repo.roles[team] = entity.RolePlatformTeam
	repo.roles[donor] = entity.RoleDonor
	svc, _ := newService(t, repo, fakeUsers{}, nil)

	for id, want := range map[uuid.UUID]bool{admin: true, team: true, donor: false} {
		got, err := svc.IsOverridden(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIsOverriddenUsesCache(t *testing.T) {
	repo := newFakeTeamRepo()
	id := uuid.New()
	repo.roles[id] = entity.RoleAdmin
	svc, mr := newService(t, repo, fakeUsers{}, nil)

	_, err := svc.IsOverridden(context.Background(), id)
	require.NoError(t, err)
	_, err = svc.IsOverridden(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.roleLookups)

	mr.FastForward(2 * time.Minute)
	_, err = svc.IsOverridden(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.roleLookups)
}

func TestAddAndRemoveMemberInvalidatesCache(t *testing.T) {
	repo := newFakeTeamRepo()
	actor, id := uuid.New(), uuid.New()
	repo.roles[id] = entity.RoleDonor
	notifier := &countingNotifier{}
	svc, _ := newService(t, repo, fakeUsers{id: {ID: id, Username: "spock"}}, notifier)
	ctx := context.Background()

	got, err := svc.IsOverridden(ctx, id)
	require.NoError(t, err)
	assert.False(t, got)

	member, err := svc.AddMember(ctx, actor, membershipDto.AddMemberInput{UserID: id.String(), Title: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, "spock", member.User.Username)
	assert.Equal(t, 1, notifier.n)

	got, err = svc.IsOverridden(ctx, id)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = svc.AddMember(ctx, actor, membershipDto.AddMemberInput{UserID: id.String()})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, svc.RemoveMember(ctx, id))
	got, err = svc.IsOverridden(ctx, id)
	require.NoError(t, err)
	assert.False(t, got)

	assert.ErrorIs(t, svc.RemoveMember(ctx, id), apperror.ErrNotFound)
}

func TestAddMemberUnknownUser(t *testing.T) {
	svc, _ := newService(t, newFakeTeamRepo(), fakeUsers{}, nil)
	_, err := svc.AddMember(context.Background(), uuid.New(), membershipDto.AddMemberInput{UserID: uuid.NewString()})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestIsOverriddenWithoutRedis(t *testing.T) {
	repo := newFakeTeamRepo()
	id := uuid.New()
	repo.members[id] = entity.TeamMember{UserID: id}
	svc := NewMembershipService(repo, fakeUsers{}, nil, nil, time.Minute, zap.NewNop())

	got, err := svc.IsOverridden(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got)
}
