package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
)

// PriceQuote is the decorated price for one product in a listing.
// OriginalPrice is only set when something actually reduced the price,
// so the storefront strikethrough always shows the immediately-prior
// price.
type PriceQuote struct {
	FinalPrice    int64  `json:"finalPrice"`
	OriginalPrice *int64 `json:"originalPrice,omitempty"`
	HasCampaign   bool   `json:"hasCampaign"`
	CampaignTitle string `json:"campaignTitle,omitempty"`
}

// PricingService computes campaign-adjusted sell prices for product
// listings. It runs per listing page, with no cart and no code: only a
// product's pinned campaign or a live CATEGORY campaign over its
// category can reduce the price here.
type PricingService struct {
	campaignRepo repository.CampaignRepository
	productRepo  repository.ProductRepository
	cache        LiveCampaignCache
	logger       *slog.Logger
}

// NewPricingService creates a pricing service. cache may be nil.
func NewPricingService(campaignRepo repository.CampaignRepository, productRepo repository.ProductRepository, cache LiveCampaignCache, logger *slog.Logger) *PricingService {
	return &PricingService{
		campaignRepo: campaignRepo,
		productRepo:  productRepo,
		cache:        cache,
		logger:       logger,
	}
}

// DecorateProductPrices computes the effective sell price for each
// product in the batch. Live campaigns are fetched once and evaluated in
// memory, so the cost does not grow with a per-product catalog lookup.
// The input slice is never mutated.
func (s *PricingService) DecorateProductPrices(ctx context.Context, products []*domain.Product) (map[string]PriceQuote, error) {
	quotes := make(map[string]PriceQuote, len(products))
	if len(products) == 0 {
		return quotes, nil
	}

	now := time.Now().UTC()

	campaigns, err := s.liveCampaigns(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("decorate product prices: %w", err)
	}

	categoryCampaigns := make(map[string][]*domain.Campaign)
	byID := make(map[string]*domain.Campaign, len(campaigns))
	for _, c := range campaigns {
		// Coupon campaigns only apply through code validation, never on
		// listing pages.
		if c.HasCode() {
			continue
		}
		byID[c.ID] = c
		if c.Type == domain.CampaignTypeCategory {
			for _, categoryID := range c.CategoryIDs {
				categoryCampaigns[categoryID] = append(categoryCampaigns[categoryID], c)
			}
		}
	}

	for _, p := range products {
		quotes[p.ID] = s.quoteFor(p, byID, categoryCampaigns)
	}

	return quotes, nil
}

// ListProducts returns a page of catalog products decorated with their
// campaign-adjusted prices.
func (s *PricingService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.PricedProduct, int, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	quotes, err := s.DecorateProductPrices(ctx, products)
	if err != nil {
		return nil, 0, err
	}

	priced := make([]domain.PricedProduct, 0, len(products))
	for _, p := range products {
		q := quotes[p.ID]
		priced = append(priced, domain.PricedProduct{
			Product:       *p,
			FinalPrice:    q.FinalPrice,
			OriginalPrice: q.OriginalPrice,
			HasCampaign:   q.HasCampaign,
			CampaignTitle: q.CampaignTitle,
		})
	}

	return priced, total, nil
}

// quoteFor decorates one product. Selection among several qualifying
// campaigns uses the same comparator as the cart matcher, but the
// minimum purchase is a static sort key only: there is no cart total to
// gate against on a listing page.
func (s *PricingService) quoteFor(p *domain.Product, byID map[string]*domain.Campaign, categoryCampaigns map[string][]*domain.Campaign) PriceQuote {
	quote := PriceQuote{FinalPrice: p.BasePrice()}
	if p.SalePrice != nil {
		price := p.Price
		quote.OriginalPrice = &price
	}

	var candidates []*domain.Campaign
	if p.CampaignID != nil {
		if c, ok := byID[*p.CampaignID]; ok {
			candidates = append(candidates, c)
		}
	}
	candidates = append(candidates, categoryCampaigns[p.CategoryID]...)

	if len(candidates) == 0 {
		return quote
	}

	sortByTargeting(candidates)
	best := candidates[0]

	previous := quote.FinalPrice
	discounted := previous - best.Discount(previous)
	if discounted < 0 {
		discounted = 0
	}

	quote.FinalPrice = discounted
	quote.OriginalPrice = &previous
	quote.HasCampaign = true
	quote.CampaignTitle = best.Title

	return quote
}

// liveCampaigns returns the live-campaign snapshot, cache-first.
func (s *PricingService) liveCampaigns(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	if s.cache != nil {
		if campaigns, ok := s.cache.GetLive(ctx); ok {
			return campaigns, nil
		}
	}

	campaigns, err := s.campaignRepo.ListLive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list live campaigns: %w", err)
	}

	if s.cache != nil {
		s.cache.SetLive(ctx, campaigns)
	}

	return campaigns, nil
}

// isNotFound reports whether err is the repository's not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
