package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"anoa.com/donorhub/internal/entity"
	campaignDto "anoa.com/donorhub/internal/modules/campaign/dto"
	campaignRepo "anoa.com/donorhub/internal/modules/campaign/repository"
	"anoa.com/donorhub/pkg/apperror"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRepo struct {
	bySlug    map[string]*entity.Campaign
	totals    map[uuid.UUID]campaignRepo.Totals
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bySlug: map[string]*entity.Campaign{}, totals: map[uuid.UUID]campaignRepo.Totals{}}
}

func (f *fakeRepo) Create(_ context.Context, c *entity.Campaign) error {
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = uuid.New()
	f.bySlug[c.Slug] = c
	return nil
}

func (f *fakeRepo) FindBySlug(_ context.Context, slug string) (*entity.Campaign, error) {
	if c, ok := f.bySlug[slug]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Campaign, error) {
	for _, c := range f.bySlug {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	_, ok := f.bySlug[slug]
	return ok, nil
}

func (f *fakeRepo) List(_ context.Context, activeOnly bool) ([]entity.Campaign, error) {
	var out []entity.Campaign
	for _, c := range f.bySlug {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeRepo) Totals(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]campaignRepo.Totals, error) {
	out := map[uuid.UUID]campaignRepo.Totals{}
	for _, id := range ids {
		if t, ok := f.totals[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, c *entity.Campaign) error {
	f.bySlug[c.Slug] = c
	return nil
}

type fakeStorage struct {
	uploaded []string
	deleted  []string
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if strings.HasSuffix(fileName, ".exe") {
		return "", storage.ErrUnsupportedImage
	}
	_, _ = io.ReadAll(r)
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + fileName
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeStorage) DeleteImage(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "clean-water-for-all", Slugify("Clean Water   for All!"))
	assert.Equal(t, "campaign", Slugify("???"))
}

func TestCreateCampaign(t *testing.T) {
	repo, store := newFakeRepo(), &fakeStorage{}
	svc := NewCampaignService(repo, store, zap.NewNop())

	res, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{
		Name:      "School Library",
		GoalCents: 100_000,
	}, &commonDto.UploadFile{Reader: strings.NewReader("img"), FileName: "cover.png"})
	require.NoError(t, err)

	assert.Equal(t, "school-library", res.Slug)
	assert.Equal(t, DefaultCurrency, res.Currency)
	assert.True(t, res.IsOpen)
	require.NotNil(t, res.CoverURL)
	assert.Contains(t, *res.CoverURL, "campaigns/cover.png")

	res2, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{Name: "School Library"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, res.Slug, res2.Slug)
	assert.True(t, strings.HasPrefix(res2.Slug, "school-library-"))
}

func TestCreateCampaignSanitizesDescription(t *testing.T) {
	svc := NewCampaignService(newFakeRepo(), nil, zap.NewNop())

	res, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{
		Name:        "Clinic",
		Description: `<b>Beds</b><script>alert(1)</script>`,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<b>Beds</b>", res.Description)
}

func TestCreateCampaignRejectsPastEnd(t *testing.T) {
	svc := NewCampaignService(newFakeRepo(), nil, zap.NewNop())
	past := time.Now().Add(-time.Hour)

	_, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{Name: "Old", EndsAt: &past}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreateCampaignBadCover(t *testing.T) {
	svc := NewCampaignService(newFakeRepo(), &fakeStorage{}, zap.NewNop())

	_, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{Name: "X"},
		&commonDto.UploadFile{Reader: strings.NewReader("x"), FileName: "virus.exe"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreateCampaignCleansUpCoverOnFailure(t *testing.T) {
	repo, store := newFakeRepo(), &fakeStorage{}
	repo.createErr = errors.New("db down")
	svc := NewCampaignService(repo, store, zap.NewNop())

	_, err := svc.CreateCampaign(context.Background(), uuid.New(), campaignDto.CreateCampaignRequest{Name: "X"},
		&commonDto.UploadFile{Reader: strings.NewReader("x"), FileName: "c.jpg"})
	require.Error(t, err)
	assert.Equal(t, store.uploaded, store.deleted)
}

func TestGetCampaignWithTotals(t *testing.T) {
	repo := newFakeRepo()
	id := uuid.New()
	repo.bySlug["wells"] = &entity.Campaign{ID: id, Name: "Wells", Slug: "wells", GoalCents: 40_000, IsActive: true}
	repo.totals[id] = campaignRepo.Totals{CampaignID: id, RaisedCents: 10_000, PledgeCount: 3}
	svc := NewCampaignService(repo, nil, zap.NewNop())

	res, err := svc.GetCampaign(context.Background(), "wells")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), res.RaisedCents)
	assert.Equal(t, int64(3), res.PledgeCount)
	assert.Equal(t, 25.0, res.Progress)

	_, err = svc.GetCampaign(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCloseCampaign(t *testing.T) {
	repo := newFakeRepo()
	repo.bySlug["wells"] = &entity.Campaign{ID: uuid.New(), Slug: "wells", IsActive: true}
	svc := NewCampaignService(repo, nil, zap.NewNop())

	res, err := svc.CloseCampaign(context.Background(), "wells")
	require.NoError(t, err)
	assert.False(t, res.IsActive)
	assert.False(t, res.IsOpen)

	_, err = svc.CloseCampaign(context.Background(), "wells")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestListCampaignsActiveOnly(t *testing.T) {
	repo := newFakeRepo()
	repo.bySlug["a"] = &entity.Campaign{ID: uuid.New(), Slug: "a", IsActive: true}
	repo.bySlug["b"] = &entity.Campaign{ID: uuid.New(), Slug: "b", IsActive: false}
	svc := NewCampaignService(repo, nil, zap.NewNop())

	all, err := svc.ListCampaigns(context.Background(), campaignDto.CampaignFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListCampaigns(context.Background(), campaignDto.CampaignFilter{Active: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Slug)
}
