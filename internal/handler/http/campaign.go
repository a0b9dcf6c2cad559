// Package http exposes the campaign engine over a chi router.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/httputil"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/pagination"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/validator"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/service"
)

const maxBodyBytes = 1 << 20 // 1 MB

// CampaignHandler handles admin campaign management and the two cart
// matching endpoints.
type CampaignHandler struct {
	campaigns *service.CampaignService
	matcher   *service.MatcherService
	logger    *slog.Logger
}

// NewCampaignHandler creates a campaign HTTP handler.
func NewCampaignHandler(campaigns *service.CampaignService, matcher *service.MatcherService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		matcher:   matcher,
		logger:    logger,
	}
}

// --- Request DTOs ---

// PackageProductRequest is one bundle line in a PACKAGE campaign body.
type PackageProductRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateCampaignRequest is the JSON request body for creating a campaign.
// Monetary fields are in kuruş.
type CreateCampaignRequest struct {
	Title             string                  `json:"title" validate:"required,min=1,max=255"`
	Description       string                  `json:"description"`
	Type              string                  `json:"type" validate:"required,oneof=GENERAL CATEGORY PRODUCT PACKAGE"`
	Code              string                  `json:"code" validate:"max=50"`
	GenerateCode      bool                    `json:"generateCode"`
	DiscountPercent   float64                 `json:"discountPercent" validate:"gte=0,lte=100"`
	DiscountAmount    int64                   `json:"discountAmount" validate:"gte=0"`
	PackagePrice      *int64                  `json:"packagePrice" validate:"omitempty,gte=0"`
	MinPurchaseAmount int64                   `json:"minPurchaseAmount" validate:"gte=0"`
	StartDate         string                  `json:"startDate" validate:"required"`
	EndDate           string                  `json:"endDate" validate:"required"`
	IsActive          bool                    `json:"isActive"`
	CategoryIDs       []string                `json:"categoryIds"`
	ProductIDs        []string                `json:"productIds"`
	PackageProducts   []PackageProductRequest `json:"packageProducts" validate:"dive"`
}

// UpdateCampaignRequest is the JSON request body for updating a campaign.
type UpdateCampaignRequest struct {
	Title             *string                 `json:"title" validate:"omitempty,min=1,max=255"`
	Description       *string                 `json:"description"`
	Type              *string                 `json:"type" validate:"omitempty,oneof=GENERAL CATEGORY PRODUCT PACKAGE"`
	Code              *string                 `json:"code" validate:"omitempty,max=50"`
	DiscountPercent   *float64                `json:"discountPercent" validate:"omitempty,gte=0,lte=100"`
	DiscountAmount    *int64                  `json:"discountAmount" validate:"omitempty,gte=0"`
	PackagePrice      *int64                  `json:"packagePrice" validate:"omitempty,gte=0"`
	MinPurchaseAmount *int64                  `json:"minPurchaseAmount" validate:"omitempty,gte=0"`
	StartDate         *string                 `json:"startDate"`
	EndDate           *string                 `json:"endDate"`
	IsActive          *bool                   `json:"isActive"`
	CategoryIDs       []string                `json:"categoryIds"`
	ProductIDs        []string                `json:"productIds"`
	PackageProducts   []PackageProductRequest `json:"packageProducts" validate:"dive"`
}

// CheckCampaignRequest is the JSON request body for the automatic check.
type CheckCampaignRequest struct {
	CartTotal int64 `json:"cartTotal" validate:"required,gt=0"`
}

// CartItemRequest is one cart line in a code validation body.
type CartItemRequest struct {
	ProductID  string `json:"productId" validate:"required"`
	CategoryID string `json:"categoryId"`
	Price      int64  `json:"price" validate:"gte=0"`
	SalePrice  *int64 `json:"salePrice" validate:"omitempty,gte=0"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// ValidateCodeRequest is the JSON request body for code validation.
type ValidateCodeRequest struct {
	Code      string            `json:"code" validate:"required"`
	CartTotal int64             `json:"cartTotal" validate:"required,gt=0"`
	CartItems []CartItemRequest `json:"cartItems" validate:"dive"`
}

// --- Handlers ---

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	startDate, endDate, err := parseWindow(req.StartDate, &req.EndDate)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := &service.CreateCampaignInput{
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Code:              req.Code,
		GenerateCode:      req.GenerateCode,
		DiscountPercent:   req.DiscountPercent,
		DiscountAmount:    req.DiscountAmount,
		PackagePrice:      req.PackagePrice,
		MinPurchaseAmount: req.MinPurchaseAmount,
		StartDate:         *startDate,
		EndDate:           *endDate,
		IsActive:          req.IsActive,
		CategoryIDs:       req.CategoryIDs,
		ProductIDs:        req.ProductIDs,
		PackageProducts:   toPackageProducts(req.PackageProducts),
	}

	campaign, err := h.campaigns.CreateCampaign(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: campaign})
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.CampaignFilter{
		Limit:  params.PerPage,
		Offset: params.Offset,
	}

	if v := r.URL.Query().Get("type"); v != "" {
		filter.Type = domain.CampaignType(v)
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		isActive := v == "true"
		filter.IsActive = &isActive
	}

	campaigns, total, err := h.campaigns.ListCampaigns(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(campaigns, total, params))
}

// GetCampaign handles GET /api/v1/campaigns/{id}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("campaign id is required"), h.logger)
		return
	}

	campaign, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// UpdateCampaign handles PUT /api/v1/campaigns/{id}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("campaign id is required"), h.logger)
		return
	}

	var req UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateCampaignInput{
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Code:              req.Code,
		DiscountPercent:   req.DiscountPercent,
		DiscountAmount:    req.DiscountAmount,
		PackagePrice:      req.PackagePrice,
		MinPurchaseAmount: req.MinPurchaseAmount,
		IsActive:          req.IsActive,
		CategoryIDs:       req.CategoryIDs,
		ProductIDs:        req.ProductIDs,
	}
	if req.PackageProducts != nil {
		input.PackageProducts = toPackageProducts(req.PackageProducts)
	}

	if req.StartDate != nil {
		startDate, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("startDate must be in RFC3339 format"), h.logger)
			return
		}
		input.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("endDate must be in RFC3339 format"), h.logger)
			return
		}
		input.EndDate = &endDate
	}

	campaign, err := h.campaigns.UpdateCampaign(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: campaign})
}

// DeleteCampaign handles DELETE /api/v1/campaigns/{id}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("campaign id is required"), h.logger)
		return
	}

	if err := h.campaigns.DeleteCampaign(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckCampaign handles POST /api/v1/campaigns/check — the automatic,
// code-less match the storefront re-runs on every cart total change.
func (h *CampaignHandler) CheckCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CheckCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summary, err := h.matcher.CheckAutomaticCampaign(r.Context(), req.CartTotal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"campaign": summary},
	})
}

// ValidateCode handles POST /api/v1/campaigns/validate-code
func (h *CampaignHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]domain.CartItem, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		items = append(items, domain.CartItem{
			ProductID:  it.ProductID,
			CategoryID: it.CategoryID,
			Price:      it.Price,
			SalePrice:  it.SalePrice,
			Quantity:   it.Quantity,
		})
	}

	validation, err := h.matcher.ValidateCampaignCode(r.Context(), req.Code, req.CartTotal, items)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: validation})
}

// --- Helpers ---

func toPackageProducts(reqs []PackageProductRequest) []domain.PackageProduct {
	if reqs == nil {
		return nil
	}
	out := make([]domain.PackageProduct, 0, len(reqs))
	for _, pp := range reqs {
		out = append(out, domain.PackageProduct{ProductID: pp.ProductID, Quantity: pp.Quantity})
	}
	return out
}

func parseWindow(start string, end *string) (*time.Time, *time.Time, error) {
	startDate, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("startDate must be in RFC3339 format")
	}
	endDate, err := time.Parse(time.RFC3339, *end)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("endDate must be in RFC3339 format")
	}
	return &startDate, &endDate, nil
}
