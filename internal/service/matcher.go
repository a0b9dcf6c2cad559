package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/event"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
)

// LiveCampaignCache is the cache surface the matcher reads through. It
// is fail-open: a miss or error just means a catalog read.
type LiveCampaignCache interface {
	GetLive(ctx context.Context) ([]*domain.Campaign, bool)
	SetLive(ctx context.Context, campaigns []*domain.Campaign)
}

// CampaignSummary is the campaign echo returned alongside a computed
// discount. Monetary fields are in kuruş.
type CampaignSummary struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	DiscountPercent    float64 `json:"discountPercent,omitempty"`
	DiscountAmount     int64   `json:"discountAmount,omitempty"`
	MinPurchaseAmount  int64   `json:"minPurchaseAmount,omitempty"`
	CalculatedDiscount int64   `json:"calculatedDiscount"`
}

// CodeValidation is the result of validating a user-entered coupon code.
// Business-rule failures set Valid=false with a user-facing reason and
// are not errors.
type CodeValidation struct {
	Valid    bool             `json:"valid"`
	Campaign *CampaignSummary `json:"campaign,omitempty"`
	Reason   string           `json:"error,omitempty"`
}

// MatcherService selects the best-fitting campaign for a cart. It has
// two distinct entry points: automatic matching, restricted to code-less
// GENERAL campaigns, and explicit code validation, open to every type.
// The two are never combined; the checkout flow applies one or the other.
type MatcherService struct {
	repo     repository.CampaignRepository
	cache    LiveCampaignCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewMatcherService creates a campaign matcher. cache may be nil.
func NewMatcherService(repo repository.CampaignRepository, cache LiveCampaignCache, producer *event.Producer, logger *slog.Logger) *MatcherService {
	return &MatcherService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CheckAutomaticCampaign returns the best automatic campaign for the
// cart total, or nil when none applies. No campaign is a normal outcome,
// not an error. The check is read-only and idempotent; the storefront
// re-runs it on every cart total change.
func (s *MatcherService) CheckAutomaticCampaign(ctx context.Context, cartTotal int64) (*CampaignSummary, error) {
	if cartTotal <= 0 {
		return nil, nil
	}

	now := time.Now().UTC()

	campaigns, err := s.liveCampaigns(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("check automatic campaign: %w", err)
	}

	var candidates []*domain.Campaign
	for _, c := range campaigns {
		if eligibleForAutomatic(c, now, cartTotal) {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sortByTargeting(candidates)
	best := candidates[0]

	return summarize(best, best.Discount(cartTotal)), nil
}

// ValidateCampaignCode validates a user-entered coupon code against the
// cart. Lookup is case-insensitive and whitespace-tolerant. It never
// falls back to the automatic matcher: an unknown or ineligible code is
// a negative result, and only infrastructure failures return an error.
func (s *MatcherService) ValidateCampaignCode(ctx context.Context, code string, cartTotal int64, items []domain.CartItem) (*CodeValidation, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return &CodeValidation{Valid: false, Reason: "campaign code is required"}, nil
	}
	if cartTotal <= 0 {
		return &CodeValidation{Valid: false, Reason: "cart is empty"}, nil
	}

	campaign, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return &CodeValidation{Valid: false, Reason: "campaign code not found"}, nil
		}
		return nil, fmt.Errorf("look up campaign code: %w", err)
	}

	now := time.Now().UTC()
	if rej := checkCodeEligibility(campaign, now, cartTotal); !rej.ok() {
		return &CodeValidation{Valid: false, Reason: rej.Reason}, nil
	}

	discount, rej, err := s.scopedDiscount(ctx, campaign, cartTotal, items)
	if err != nil {
		return nil, err
	}
	if !rej.ok() {
		return &CodeValidation{Valid: false, Reason: rej.Reason}, nil
	}

	if err := s.producer.PublishCodeRedeemed(ctx, campaign, cartTotal, discount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign.code_redeemed event",
			slog.String("campaign_id", campaign.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "campaign code validated",
		slog.String("campaign_id", campaign.ID),
		slog.String("code", campaign.Code),
		slog.Int64("calculated_discount", discount),
	)

	return &CodeValidation{Valid: true, Campaign: summarize(campaign, discount)}, nil
}

// scopedDiscount narrows the cart to the campaign's applicable lines and
// computes the discount over that subtotal. A scoped campaign matching
// no cart line fails with a reason naming the eligible scope.
func (s *MatcherService) scopedDiscount(ctx context.Context, c *domain.Campaign, cartTotal int64, items []domain.CartItem) (int64, *ineligibility, error) {
	if c.Type == domain.CampaignTypePackage {
		discount, rej := packageDiscount(c, items)
		return discount, rej, nil
	}

	matched := applicableItems(c, items)

	if len(matched) == 0 && c.Type != domain.CampaignTypeGeneral {
		switch c.Type {
		case domain.CampaignTypeCategory:
			names, err := s.repo.CategoryNames(ctx, c.CategoryIDs)
			if err != nil {
				return 0, nil, fmt.Errorf("resolve campaign categories: %w", err)
			}
			return 0, &ineligibility{
				Reason: fmt.Sprintf("this code only applies to products in: %s", joinNames(names)),
			}, nil
		default:
			return 0, &ineligibility{Reason: "this code does not apply to any product in your cart"}, nil
		}
	}

	applicableTotal := cartTotal
	if c.Type == domain.CampaignTypeCategory || c.Type == domain.CampaignTypeProduct {
		applicableTotal = domain.CartTotal(matched)
	}

	return c.Discount(applicableTotal), nil, nil
}

// PopupCampaign returns the live campaign the storefront popup should
// advertise: the most targeted code-less GENERAL campaign, or nil when
// nothing is live.
func (s *MatcherService) PopupCampaign(ctx context.Context) (*domain.Campaign, error) {
	now := time.Now().UTC()

	campaigns, err := s.liveCampaigns(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("popup campaign: %w", err)
	}

	var candidates []*domain.Campaign
	for _, c := range campaigns {
		if c.Type == domain.CampaignTypeGeneral && !c.HasCode() && c.IsLiveAt(now) {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sortByTargeting(candidates)
	return candidates[0], nil
}

// liveCampaigns returns the live-campaign snapshot, cache-first.
func (s *MatcherService) liveCampaigns(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	if s.cache != nil {
		if campaigns, ok := s.cache.GetLive(ctx); ok {
			return campaigns, nil
		}
	}

	campaigns, err := s.repo.ListLive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list live campaigns: %w", err)
	}

	if s.cache != nil {
		s.cache.SetLive(ctx, campaigns)
	}

	return campaigns, nil
}

func summarize(c *domain.Campaign, discount int64) *CampaignSummary {
	return &CampaignSummary{
		ID:                 c.ID,
		Title:              c.Title,
		DiscountPercent:    c.DiscountPercent,
		DiscountAmount:     c.DiscountAmount,
		MinPurchaseAmount:  c.MinPurchaseAmount,
		CalculatedDiscount: discount,
	}
}
