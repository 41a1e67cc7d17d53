package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/internal/modules/admin/dto"
	searchService "anoa.com/donorhub/internal/modules/search/service"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var roles = map[string]*entity.Role{
	entity.RoleAdmin: {ID: 1, Name: entity.RoleAdmin},
	entity.RoleDonor: {ID: 3, Name: entity.RoleDonor},
}

type fakeUsers struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User, p *entity.Profile) error {
	u.ID = uuid.New()
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

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
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

func (f *fakeUsers) FindRoleByName(_ context.Context, name string) (*entity.Role, error) {
	if r, ok := roles[name]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Update(_ context.Context, u *entity.User, p *entity.Profile) error {
	u.Profile = p
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) FindAll(context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) { return int64(len(f.users)), nil }

type fakeSearch struct {
	indexed map[uuid.UUID]int64
	deleted []uuid.UUID
	query   string
}

func (f *fakeSearch) IndexDonor(_ context.Context, u *entity.User, cents int64) error {
	f.indexed[u.ID] = cents
	return nil
}

func (f *fakeSearch) DeleteDonor(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearch) SearchDonors(_ context.Context, q string, _ int) (*searchService.DonorResults, error) {
	f.query = q
	return &searchService.DonorResults{Hits: []searchService.DonorDocument{{Username: "ada"}}, Total: 1}, nil
}

type fakeStats map[uuid.UUID]int64

func (f fakeStats) GetUserStatsByUserID(_ context.Context, id uuid.UUID) (*entity.UserStats, error) {
	return &entity.UserStats{UserID: id, TotalPledgedCents: f[id]}, nil
}

type fakeOverrides struct{ invalidated []uuid.UUID }

func (f *fakeOverrides) Invalidate(_ context.Context, id uuid.UUID) {
	f.invalidated = append(f.invalidated, id)
}

type fakeStorage struct{ deleted []string }

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, name string) (string, error) {
	_, _ = io.ReadAll(r)
	return "https://cdn.test/" + folder + "/" + name, nil
}

func (f *fakeStorage) DeleteImage(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fixture struct {
	users     *fakeUsers
	search    *fakeSearch
	stats     fakeStats
	overrides *fakeOverrides
	storage   *fakeStorage
	svc       AdminService
}

func newFixture() *fixture {
	f := &fixture{
		users:     &fakeUsers{users: map[uuid.UUID]*entity.User{}},
		search:    &fakeSearch{indexed: map[uuid.UUID]int64{}},
		stats:     fakeStats{},
		overrides: &fakeOverrides{},
		storage:   &fakeStorage{},
	}
	f.svc = NewAdminService(f.users, f.storage, f.search, f.stats, f.overrides, zap.NewNop())
	return f
}

func createInput() dto.CreateUserInput {
	return dto.CreateUserInput{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "longenough",
		Role:     entity.RoleDonor,
		FullName: "Ada L",
		Bio:      strPtr("<img src=x onerror=alert(1)>hi"),
	}
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	f := newFixture()

	res, err := f.svc.CreateUser(context.Background(), createInput(),
		&commonDto.UploadFile{Reader: strings.NewReader("img"), FileName: "a.png"})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, entity.RoleDonor, res.Role.Name)
	assert.Equal(t, "https://cdn.test/avatars/a.png", *res.User.AvatarURL)
	require.NotNil(t, res.Profile.Bio)
	assert.NotContains(t, *res.Profile.Bio, "onerror")
	assert.Contains(t, f.search.indexed, res.User.ID)

	_, err = f.svc.CreateUser(context.Background(), createInput(), nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateUserUnknownRole(t *testing.T) {
	f := newFixture()
	in := createInput()
	in.Role = "captain"

	_, err := f.svc.CreateUser(context.Background(), in, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUpdateUserRoleInvalidatesOverride(t *testing.T) {
	f := newFixture()
	created, err := f.svc.CreateUser(context.Background(), createInput(), nil)
	require.NoError(t, err)
	id := created.User.ID
	f.stats[id] = 12_345

	res, err := f.svc.UpdateUser(context.Background(), id, dto.UpdateAdminUserInput{
		Role:         entity.RoleAdmin,
		Organization: strPtr("Engines"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, entity.RoleAdmin, res.Role.Name)
	assert.Equal(t, "Engines", *res.Profile.Organization)
	assert.Equal(t, []uuid.UUID{id}, f.overrides.invalidated)
	assert.Equal(t, int64(12_345), f.search.indexed[id])

	_, err = f.svc.UpdateUser(context.Background(), id, dto.UpdateAdminUserInput{FullName: "Ada"}, nil)
	require.NoError(t, err)
	assert.Len(t, f.overrides.invalidated, 1)

	_, err = f.svc.UpdateUser(context.Background(), uuid.New(), dto.UpdateAdminUserInput{}, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture()
	created, err := f.svc.CreateUser(context.Background(), createInput(),
		&commonDto.UploadFile{Reader: strings.NewReader("img"), FileName: "a.png"})
	require.NoError(t, err)
	id := created.User.ID
	admin := uuid.New()

	assert.ErrorIs(t, f.svc.DeleteUser(context.Background(), id, id), apperror.ErrForbidden)

	require.NoError(t, f.svc.DeleteUser(context.Background(), admin, id))
	assert.NotContains(t, f.users.users, id)
	assert.Equal(t, []uuid.UUID{id}, f.search.deleted)
	assert.Equal(t, []string{"https://cdn.test/avatars/a.png"}, f.storage.deleted)

	assert.ErrorIs(t, f.svc.DeleteUser(context.Background(), admin, id), apperror.ErrNotFound)
}

func TestSearchDonors(t *testing.T) {
	f := newFixture()

	res, err := f.svc.SearchDonors(context.Background(), dto.DonorSearchQuery{Q: "  ada "})
	require.NoError(t, err)
	assert.Equal(t, "ada", f.search.query)
	assert.Equal(t, int64(1), res.Total)

	noSearch := NewAdminService(f.users, nil, nil, nil, nil, zap.NewNop())
	res, err = noSearch.SearchDonors(context.Background(), dto.DonorSearchQuery{Q: "ada"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}
