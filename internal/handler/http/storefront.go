package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/errors"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/httputil"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/pagination"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/validator"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/clientstate"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/service"
)

const popupStateKey = "campaign_popup"

// StateBackendFactory builds the clientstate backend for one request.
// The cookie adapter needs the live request pair; the Redis adapter
// ignores it.
type StateBackendFactory func(w http.ResponseWriter, r *http.Request) clientstate.Backend

// StorefrontHandler serves the public catalog and popup endpoints.
type StorefrontHandler struct {
	pricing      *service.PricingService
	matcher      *service.MatcherService
	stateBackend StateBackendFactory
	popupTTL     time.Duration
	logger       *slog.Logger
}

// NewStorefrontHandler creates a storefront HTTP handler.
func NewStorefrontHandler(pricing *service.PricingService, matcher *service.MatcherService, stateBackend StateBackendFactory, popupTTL time.Duration, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		pricing:      pricing,
		matcher:      matcher,
		stateBackend: stateBackend,
		popupTTL:     popupTTL,
		logger:       logger,
	}
}

// QuoteProductRequest is one product in a pricing quote body.
type QuoteProductRequest struct {
	ID         string `json:"id" validate:"required"`
	CategoryID string `json:"categoryId"`
	CampaignID *string `json:"campaignId"`
	Price      int64  `json:"price" validate:"gte=0"`
	SalePrice  *int64 `json:"salePrice" validate:"omitempty,gte=0"`
}

// QuoteRequest is the JSON request body for batch price decoration.
type QuoteRequest struct {
	Products []QuoteProductRequest `json:"products" validate:"required,min=1,max=100,dive"`
}

type popupState struct {
	ShownAt time.Time `json:"shownAt"`
}

type popupResponse struct {
	Show     bool           `json:"show"`
	Campaign *popupCampaign `json:"campaign,omitempty"`
}

type popupCampaign struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListProducts handles GET /api/v1/products — the catalog listing with
// campaign-adjusted prices.
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.ProductFilter{
		CategoryID: r.URL.Query().Get("category_id"),
		Status:     domain.ProductStatusActive,
		Limit:      params.PerPage,
		Offset:     params.Offset,
	}

	priced, total, err := h.pricing.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(priced, total, params))
}

// Quote handles POST /api/v1/pricing/quotes — batch price decoration for
// an arbitrary set of products, keyed by product id.
func (h *StorefrontHandler) Quote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products := make([]*domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, &domain.Product{
			ID:         p.ID,
			CategoryID: p.CategoryID,
			CampaignID: p.CampaignID,
			Price:      p.Price,
			SalePrice:  p.SalePrice,
		})
	}

	quotes, err := h.pricing.DecorateProductPrices(r.Context(), products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: quotes})
}

// Popup handles GET /api/v1/popup. The popup is shown once per visitor
// per TTL window; the shown flag lives in the clientstate store, and
// its expiry is checked on load rather than trusted to the backend.
func (h *StorefrontHandler) Popup(w http.ResponseWriter, r *http.Request) {
	store := clientstate.NewStore(h.stateBackend(w, r))

	var state popupState
	if err := store.Load(r.Context(), popupStateKey, &state); err == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: popupResponse{Show: false}})
		return
	}

	campaign, err := h.matcher.PopupCampaign(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if campaign == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: popupResponse{Show: false}})
		return
	}

	if err := store.Save(r.Context(), popupStateKey, popupState{ShownAt: time.Now().UTC()}, h.popupTTL); err != nil {
		h.logger.WarnContext(r.Context(), "failed to persist popup state",
			slog.String("error", err.Error()),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: popupResponse{
		Show: true,
		Campaign: &popupCampaign{
			ID:          campaign.ID,
			Title:       campaign.Title,
			Description: campaign.Description,
		},
	}})
}
