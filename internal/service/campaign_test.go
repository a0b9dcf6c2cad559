package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	pkgkafka "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/kafka"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/event"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
)

// --- Mock Repository ---

type mockCampaignRepository struct {
	mock.Mock
}

func (m *mockCampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) GetByCode(ctx context.Context, code string) (*domain.Campaign, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]*domain.Campaign, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*domain.Campaign), args.Int(1), args.Error(2)
}

func (m *mockCampaignRepository) ListLive(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCampaignRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCampaignRepository) CategoryNames(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock Product Repository ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

// --- Stub Publisher ---

type stubPublisher struct {
	published []*pkgkafka.Event
}

func (p *stubPublisher) Publish(_ context.Context, _ string, evt *pkgkafka.Event) error {
	p.published = append(p.published, evt)
	return nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() (*event.Producer, *stubPublisher) {
	publisher := &stubPublisher{}
	return event.NewProducer(publisher, newTestLogger()), publisher
}

func newTestCampaignService(repo *mockCampaignRepository) *CampaignService {
	producer, _ := newTestProducer()
	return NewCampaignService(repo, producer, nil, newTestLogger())
}

func strPtr(s string) *string       { return &s }
func int64Ptr(i int64) *int64       { return &i }
func boolPtr(b bool) *bool          { return &b }
func timePtr(t time.Time) *time.Time { return &t }

var (
	activeStart = time.Now().UTC().Add(-24 * time.Hour)
	activeEnd   = time.Now().UTC().Add(24 * time.Hour)
	pastStart   = time.Now().UTC().Add(-48 * time.Hour)
	pastEnd     = time.Now().UTC().Add(-24 * time.Hour)
	futureStart = time.Now().UTC().Add(24 * time.Hour)
	futureEnd   = time.Now().UTC().Add(48 * time.Hour)
)

// --- Tests ---

func TestCreateCampaign_Success(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	input := CreateCampaignInput{
		Title:             "Yaz İndirimi",
		Description:       "Tüm ürünlerde %10 indirim",
		Type:              "GENERAL",
		DiscountPercent:   10,
		MinPurchaseAmount: 20000,
		StartDate:         activeStart,
		EndDate:           activeEnd,
		IsActive:          true,
	}

	campaign, err := svc.CreateCampaign(ctx, &input)

	require.NoError(t, err)
	assert.NotEmpty(t, campaign.ID)
	assert.Equal(t, "Yaz İndirimi", campaign.Title)
	assert.Equal(t, domain.CampaignTypeGeneral, campaign.Type)
	assert.Empty(t, campaign.Code)
	repo.AssertExpectations(t)
}

func TestCreateCampaign_NormalizesCode(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	input := CreateCampaignInput{
		Title:           "VIP Sale",
		Type:            "GENERAL",
		DiscountPercent: 15,
		Code:            "  vip15 ",
		StartDate:       activeStart,
		EndDate:         activeEnd,
		IsActive:        true,
	}

	campaign, err := svc.CreateCampaign(ctx, &input)

	require.NoError(t, err)
	assert.Equal(t, "VIP15", campaign.Code)
}

func TestCreateCampaign_GeneratedCodeTransliteratesTurkish(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	input := CreateCampaignInput{
		Title:           "Çocuk Ürünleri",
		Type:            "GENERAL",
		DiscountPercent: 5,
		GenerateCode:    true,
		StartDate:       activeStart,
		EndDate:         activeEnd,
		IsActive:        true,
	}

	campaign, err := svc.CreateCampaign(ctx, &input)

	require.NoError(t, err)
	assert.Regexp(t, `^COCUK-URUNLERI-[0-9A-F]{4}$`, campaign.Code)
}

func TestCreateCampaign_InvalidType(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)

	input := CreateCampaignInput{
		Title:           "Broken",
		Type:            "FLASH",
		DiscountPercent: 10,
		StartDate:       activeStart,
		EndDate:         activeEnd,
	}

	campaign, err := svc.CreateCampaign(context.Background(), &input)

	assert.Nil(t, campaign)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateCampaign_PercentOutOfRange(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)

	input := CreateCampaignInput{
		Title:           "Too much",
		Type:            "GENERAL",
		DiscountPercent: 150,
		StartDate:       activeStart,
		EndDate:         activeEnd,
	}

	_, err := svc.CreateCampaign(context.Background(), &input)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateCampaign_PackageRequiresBundle(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)

	input := CreateCampaignInput{
		Title:        "Sticker Seti",
		Type:         "PACKAGE",
		PackagePrice: int64Ptr(15000),
		StartDate:    activeStart,
		EndDate:      activeEnd,
	}

	_, err := svc.CreateCampaign(context.Background(), &input)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateCampaign_PackagePriceOnlyForPackages(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)

	input := CreateCampaignInput{
		Title:        "General with package price",
		Type:         "GENERAL",
		PackagePrice: int64Ptr(5000),
		StartDate:    activeStart,
		EndDate:      activeEnd,
	}

	_, err := svc.CreateCampaign(context.Background(), &input)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateCampaign_PublishesEvent(t *testing.T) {
	repo := new(mockCampaignRepository)
	producer, publisher := newTestProducer()
	svc := NewCampaignService(repo, producer, nil, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	_, err := svc.CreateCampaign(ctx, &CreateCampaignInput{
		Title:           "Launch",
		Type:            "GENERAL",
		DiscountPercent: 10,
		StartDate:       activeStart,
		EndDate:         activeEnd,
		IsActive:        true,
	})

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "campaign.created", publisher.published[0].EventType)
}

func TestUpdateCampaign_PartialUpdate(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	existing := &domain.Campaign{
		ID:              "c1",
		Title:           "Old Title",
		Type:            domain.CampaignTypeGeneral,
		DiscountPercent: 10,
		StartDate:       activeStart,
		EndDate:         activeEnd,
		IsActive:        true,
	}

	repo.On("GetByID", ctx, "c1").Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	updated, err := svc.UpdateCampaign(ctx, "c1", &UpdateCampaignInput{
		Title:    strPtr("New Title"),
		IsActive: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 10.0, updated.DiscountPercent)
	repo.AssertExpectations(t)
}

func TestUpdateCampaign_ReplacesScopeSet(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	existing := &domain.Campaign{
		ID:          "c1",
		Title:       "Category Sale",
		Type:        domain.CampaignTypeCategory,
		CategoryIDs: []string{"cat-1", "cat-2"},
		StartDate:   activeStart,
		EndDate:     activeEnd,
	}

	repo.On("GetByID", ctx, "c1").Return(existing, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(c *domain.Campaign) bool {
		return len(c.CategoryIDs) == 1 && c.CategoryIDs[0] == "cat-3"
	})).Return(nil)

	_, err := svc.UpdateCampaign(ctx, "c1", &UpdateCampaignInput{
		CategoryIDs: []string{"cat-3"},
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateCampaign_NotFound(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateCampaign(ctx, "missing", &UpdateCampaignInput{Title: strPtr("x")})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCampaign_PublishesEvent(t *testing.T) {
	repo := new(mockCampaignRepository)
	producer, publisher := newTestProducer()
	svc := NewCampaignService(repo, producer, nil, newTestLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, "c1").Return(nil)

	err := svc.DeleteCampaign(ctx, "c1")

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "campaign.deleted", publisher.published[0].EventType)
}

func TestListCampaigns_ClampsLimit(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestCampaignService(repo)
	ctx := context.Background()

	repo.On("List", ctx, mock.MatchedBy(func(f repository.CampaignFilter) bool {
		return f.Limit == 100
	})).Return([]*domain.Campaign{}, 0, nil)

	_, _, err := svc.ListCampaigns(ctx, repository.CampaignFilter{Limit: 500})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
