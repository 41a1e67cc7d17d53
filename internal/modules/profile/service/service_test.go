package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"anoa.com/donorhub/internal/entity"
	profileDto "anoa.com/donorhub/internal/modules/profile/dto"
	rankService "anoa.com/donorhub/internal/modules/rank/service"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeUsers struct {
	users     map[uuid.UUID]*entity.User
	updateErr error
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User, p *entity.Profile) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Profile = p
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByIDs(context.Context, []uuid.UUID) ([]entity.User, error) { return nil, nil }
func (f *fakeUsers) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindRoleByName(context.Context, string) (*entity.Role, error) { return nil, nil }

func (f *fakeUsers) Update(_ context.Context, u *entity.User, p *entity.Profile) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u.Profile = p
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindAll(context.Context) ([]*entity.User, error) { return nil, nil }
func (f *fakeUsers) Delete(context.Context, uuid.UUID) error         { return nil }
func (f *fakeUsers) Count(context.Context) (int64, error)            { return 0, nil }

type fakeStats map[uuid.UUID]*entity.UserStats

func (f fakeStats) GetUserStatsByUserID(_ context.Context, id uuid.UUID) (*entity.UserStats, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return &entity.UserStats{UserID: id}, nil
}

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	_, _ = io.ReadAll(r)
	return "https://cdn.test/" + folder + "/" + fileName, nil
}

func (f *fakeStorage) DeleteImage(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type awardCall struct {
	userID uuid.UUID
	action string
}

type fakeXP struct {
	mu    sync.Mutex
	calls []awardCall
}

func (f *fakeXP) AwardXPAsync(userID uuid.UUID, action, _, _ string, _ int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, awardCall{userID, action})
}

type fakeIndexer struct {
	pledged map[uuid.UUID]int64
}

func (f *fakeIndexer) IndexDonor(_ context.Context, u *entity.User, cents int64) error {
	f.pledged[u.ID] = cents
	return nil
}

type fixture struct {
	users   *fakeUsers
	stats   fakeStats
	storage *fakeStorage
	xp      *fakeXP
	indexer *fakeIndexer
	svc     ProfileService
	donor   *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   &fakeUsers{users: map[uuid.UUID]*entity.User{}},
		stats:   fakeStats{},
		storage: &fakeStorage{},
		xp:      &fakeXP{},
		indexer: &fakeIndexer{pledged: map[uuid.UUID]int64{}},
	}
	ranks := rankService.NewRankService(nil, f.stats, nil, nil, zap.NewNop())
	f.svc = NewProfileService(f.users, f.storage, f.stats, ranks, f.xp, f.indexer, zap.NewNop())

	f.donor = &entity.User{Username: "ada", Email: "ada@example.com", PasswordHash: "hash", Role: entity.Role{Name: entity.RoleDonor}}
	require.NoError(t, f.users.Create(context.Background(), f.donor, &entity.Profile{FullName: "Ada L"}))
	return f
}

func ptr(s string) *string { return &s }

func TestGetCurrentProfileResolvesRank(t *testing.T) {
	f := newFixture(t)
	f.stats[f.donor.ID] = &entity.UserStats{UserID: f.donor.ID, TotalXPAllTime: 1500, TotalXPWeekly: 150, TotalPledgedCents: 20_000}

	res, err := f.svc.GetCurrentProfile(context.Background(), f.donor.ID)
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, "Ensign", res.Rank.RankName)
	assert.Equal(t, "Patron", res.Rank.Title)
	assert.Equal(t, "📈 Active", res.Rank.WeeklyLabel)
	assert.False(t, res.Complete)

	_, err = f.svc.GetCurrentProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetProfileByUsername(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.GetProfileByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", res.FullName)
	assert.Equal(t, entity.RoleDonor, res.Role)
	assert.Equal(t, "Crewman", res.Rank.RankName)

	_, err = f.svc.GetProfileByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfileSanitizesAndReindexes(t *testing.T) {
	f := newFixture(t)
	f.stats[f.donor.ID] = &entity.UserStats{UserID: f.donor.ID, TotalPledgedCents: 4200}

	res, err := f.svc.UpdateProfile(context.Background(), f.donor.ID, profileDto.UpdateProfileInput{
		Username:     ptr("ada lovelace"),
		Bio:          ptr(`<script>alert(1)</script><b>hello</b>`),
		Organization: ptr("  "),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "ada_lovelace", res.User.Username)
	require.NotNil(t, res.Profile.Bio)
	assert.NotContains(t, *res.Profile.Bio, "script")
	assert.Contains(t, *res.Profile.Bio, "hello")
	assert.Nil(t, res.Profile.Organization)
	assert.Equal(t, int64(4200), f.indexer.pledged[f.donor.ID])
	assert.Empty(t, f.xp.calls)
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	f := newFixture(t)
	other := &entity.User{Username: "grace"}
	require.NoError(t, f.users.Create(context.Background(), other, nil))

	_, err := f.svc.UpdateProfile(context.Background(), f.donor.ID, profileDto.UpdateProfileInput{Username: ptr("grace")}, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUpdateProfileCompletionAwardsBonus(t *testing.T) {
	f := newFixture(t)
	old := "https://cdn.test/avatars/old.png"
	f.donor.AvatarURL = &old

	res, err := f.svc.UpdateProfile(context.Background(), f.donor.ID, profileDto.UpdateProfileInput{
		Organization: ptr("Analytical Engines Ltd"),
		Bio:          ptr("Numbers."),
	}, &commonDto.UploadFile{Reader: strings.NewReader("png"), FileName: "new.png"})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.Equal(t, "https://cdn.test/avatars/new.png", *res.User.AvatarURL)
	assert.Equal(t, []string{old}, f.storage.deleted)
	assert.Equal(t, []awardCall{{f.donor.ID, entity.ActionProfileComplete}}, f.xp.calls)
}

func TestUpdateProfileRemovesUploadedAvatarOnFailure(t *testing.T) {
	f := newFixture(t)
	old := "https://cdn.test/avatars/old.png"
	f.donor.AvatarURL = &old
	f.users.updateErr = errors.New("db down")

	_, err := f.svc.UpdateProfile(context.Background(), f.donor.ID, profileDto.UpdateProfileInput{},
		&commonDto.UploadFile{Reader: strings.NewReader("png"), FileName: "new.png"})
	require.Error(t, err)

	assert.Equal(t, []string{"https://cdn.test/avatars/new.png"}, f.storage.deleted)
	assert.Empty(t, f.xp.calls)
}

func TestUpdateProfileWithoutStorage(t *testing.T) {
	f := newFixture(t)
	ranks := rankService.NewRankService(nil, f.stats, nil, nil, zap.NewNop())
	svc := NewProfileService(f.users, nil, f.stats, ranks, nil, nil, zap.NewNop())

	_, err := svc.UpdateProfile(context.Background(), f.donor.ID, profileDto.UpdateProfileInput{},
		&commonDto.UploadFile{Reader: strings.NewReader("x"), FileName: "a.png"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestIsComplete(t *testing.T) {
	assert.False(t, IsComplete(nil))
	assert.False(t, IsComplete(&entity.User{}))

	avatar := "https://cdn.test/a.png"
	u := &entity.User{AvatarURL: &avatar, Profile: &entity.Profile{FullName: "A", Organization: ptr("O"), Bio: ptr("B")}}
	assert.True(t, IsComplete(u))

	u.Profile.Bio = ptr("")
	assert.False(t, IsComplete(u))
}
