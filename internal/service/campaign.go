// Package service implements the campaign engine: admin campaign
// management, cart matching, and listing price decoration.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/slug"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/event"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
)

// CacheInvalidator drops cached campaign snapshots after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CampaignService implements the admin-facing campaign operations.
type CampaignService struct {
	repo     repository.CampaignRepository
	producer *event.Producer
	cache    CacheInvalidator
	logger   *slog.Logger
}

// NewCampaignService creates a campaign service. cache may be nil.
func NewCampaignService(repo repository.CampaignRepository, producer *event.Producer, cache CacheInvalidator, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		repo:     repo,
		producer: producer,
		cache:    cache,
		logger:   logger,
	}
}

// CreateCampaignInput holds the parameters for creating a campaign.
// Monetary fields are in kuruş.
type CreateCampaignInput struct {
	Title             string
	Description       string
	Type              string
	Code              string
	GenerateCode      bool
	DiscountPercent   float64
	DiscountAmount    int64
	PackagePrice      *int64
	MinPurchaseAmount int64
	StartDate         time.Time
	EndDate           time.Time
	IsActive          bool
	CategoryIDs       []string
	ProductIDs        []string
	PackageProducts   []domain.PackageProduct
}

// UpdateCampaignInput holds the parameters for updating a campaign.
// Nil fields are left unchanged; non-nil scope slices fully replace the
// existing association set.
type UpdateCampaignInput struct {
	Title             *string
	Description       *string
	Type              *string
	Code              *string
	DiscountPercent   *float64
	DiscountAmount    *int64
	PackagePrice      *int64
	MinPurchaseAmount *int64
	StartDate         *time.Time
	EndDate           *time.Time
	IsActive          *bool
	CategoryIDs       []string
	ProductIDs        []string
	PackageProducts   []domain.PackageProduct
}

// CreateCampaign creates a new campaign with the given input.
func (s *CampaignService) CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*domain.Campaign, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("campaign title is required")
	}
	campaignType := domain.CampaignType(input.Type)
	if !campaignType.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid campaign type %q", input.Type))
	}
	if err := validateCampaignFields(campaignType, input.DiscountPercent, input.DiscountAmount, input.MinPurchaseAmount, input.PackagePrice, input.PackageProducts, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	// A code is only ever set deliberately: its presence gates the
	// campaign out of automatic matching.
	code := domain.NormalizeCode(input.Code)
	if code == "" && input.GenerateCode {
		code = generateCampaignCode(input.Title)
	}

	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:                uuid.New().String(),
		Title:             input.Title,
		Description:       input.Description,
		Type:              campaignType,
		Code:              code,
		DiscountPercent:   input.DiscountPercent,
		DiscountAmount:    input.DiscountAmount,
		PackagePrice:      input.PackagePrice,
		MinPurchaseAmount: input.MinPurchaseAmount,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		IsActive:          input.IsActive,
		CategoryIDs:       input.CategoryIDs,
		ProductIDs:        input.ProductIDs,
		PackageProducts:   input.PackageProducts,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishCampaignCreated(ctx, campaign); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.created event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("type", string(campaign.Type)),
	)

	return campaign, nil
}

// GetCampaign retrieves a campaign by its ID.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return campaign, nil
}

// ListCampaigns returns a filtered, paginated list of campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, filter repository.CampaignFilter) ([]*domain.Campaign, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	return campaigns, total, nil
}

// UpdateCampaign applies partial updates to an existing campaign.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, input *UpdateCampaignInput) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("campaign title must not be empty")
		}
		campaign.Title = *input.Title
	}
	if input.Description != nil {
		campaign.Description = *input.Description
	}
	if input.Type != nil {
		campaignType := domain.CampaignType(*input.Type)
		if !campaignType.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid campaign type %q", *input.Type))
		}
		campaign.Type = campaignType
	}
	if input.Code != nil {
		campaign.Code = domain.NormalizeCode(*input.Code)
	}
	if input.DiscountPercent != nil {
		campaign.DiscountPercent = *input.DiscountPercent
	}
	if input.DiscountAmount != nil {
		campaign.DiscountAmount = *input.DiscountAmount
	}
	if input.PackagePrice != nil {
		campaign.PackagePrice = input.PackagePrice
	}
	if input.MinPurchaseAmount != nil {
		campaign.MinPurchaseAmount = *input.MinPurchaseAmount
	}
	if input.StartDate != nil {
		campaign.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		campaign.EndDate = *input.EndDate
	}
	if input.IsActive != nil {
		campaign.IsActive = *input.IsActive
	}
	if input.CategoryIDs != nil {
		campaign.CategoryIDs = input.CategoryIDs
	}
	if input.ProductIDs != nil {
		campaign.ProductIDs = input.ProductIDs
	}
	if input.PackageProducts != nil {
		campaign.PackageProducts = input.PackageProducts
	}

	if err := validateCampaignFields(campaign.Type, campaign.DiscountPercent, campaign.DiscountAmount, campaign.MinPurchaseAmount, campaign.PackagePrice, campaign.PackageProducts, campaign.StartDate, campaign.EndDate); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishCampaignUpdated(ctx, campaign); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.updated event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign updated",
		slog.String("campaign_id", campaign.ID),
	)

	return campaign, nil
}

// DeleteCampaign removes a campaign and its scoping associations.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	s.invalidateCache(ctx)

	if err := s.producer.PublishCampaignDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.deleted event",
			slog.String("campaign_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign deleted",
		slog.String("campaign_id", id),
	)

	return nil
}

func (s *CampaignService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate campaign cache",
			slog.String("error", err.Error()),
		)
	}
}

func validateCampaignFields(campaignType domain.CampaignType, percent float64, amount, minPurchase int64, packagePrice *int64, packageProducts []domain.PackageProduct, startDate, endDate time.Time) error {
	if percent < 0 || percent > 100 {
		return apperrors.InvalidInput("discount percent must be between 0 and 100")
	}
	if amount < 0 {
		return apperrors.InvalidInput("discount amount must not be negative")
	}
	if minPurchase < 0 {
		return apperrors.InvalidInput("min purchase amount must not be negative")
	}
	if packagePrice != nil && *packagePrice < 0 {
		return apperrors.InvalidInput("package price must not be negative")
	}
	if endDate.Before(startDate) {
		return apperrors.InvalidInput("end date must not be before start date")
	}
	if campaignType == domain.CampaignTypePackage && len(packageProducts) == 0 {
		return apperrors.InvalidInput("package campaigns require at least one bundle product")
	}
	if campaignType != domain.CampaignTypePackage && packagePrice != nil {
		return apperrors.InvalidInput("package price is only valid for package campaigns")
	}
	return nil
}

// generateCampaignCode builds a human-readable code from the campaign
// title, transliterating Turkish characters, and appends a 4-character
// random hex suffix so regenerated codes never collide.
// Example: "Yaz İndirimi" -> "YAZ-INDIRIMI-A3F2".
func generateCampaignCode(title string) string {
	base := strings.ToUpper(slug.Generate(title))

	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		b = []byte(uuid.New().String()[:2])
	}
	suffix := strings.ToUpper(hex.EncodeToString(b))

	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
