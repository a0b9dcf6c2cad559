package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/clientstate"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/service"
)

func testStorefrontHandler(campaignRepo *mockCampaignRepository, productRepo *mockProductRepository) *StorefrontHandler {
	pricing := service.NewPricingService(campaignRepo, productRepo, nil, testLogger())
	matcher := service.NewMatcherService(campaignRepo, nil, testEventProducer(), testLogger())
	factory := func(w http.ResponseWriter, r *http.Request) clientstate.Backend {
		return clientstate.NewCookieBackend(w, r)
	}
	return NewStorefrontHandler(pricing, matcher, factory, 24*time.Hour, testLogger())
}

func setupStorefrontRouter(handler *StorefrontHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
	})
	r.Route("/api/v1/pricing", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/quotes", handler.Quote)
	})
	r.Get("/api/v1/popup", handler.Popup)
	return r
}

// ============================================================================
// ListProducts
// ============================================================================

func TestListProducts_DecoratedListing(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	productRepo := new(mockProductRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, productRepo))

	expectedFilter := repository.ProductFilter{
		CategoryID: "cat-sticker",
		Status:     domain.ProductStatusActive,
		Limit:      20,
	}
	productRepo.On("List", mock.Anything, expectedFilter).Return([]*domain.Product{
		{ID: "p1", CategoryID: "cat-sticker", Price: 10000},
	}, 1, nil)
	campaignRepo.On("ListLive", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*domain.Campaign{{
			ID:              "camp-001",
			Title:           "Sticker Kampanyası",
			Type:            domain.CampaignTypeCategory,
			DiscountPercent: 10,
			StartDate:       time.Now().UTC().Add(-time.Hour),
			EndDate:         time.Now().UTC().Add(time.Hour),
			IsActive:        true,
			CategoryIDs:     []string{"cat-sticker"},
		}}, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products?category_id=cat-sticker", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Data       []domain.PricedProduct `json:"data"`
		TotalCount int                    `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))

	assert.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Data, 1)
	assert.Equal(t, int64(9000), result.Data[0].FinalPrice)
	require.NotNil(t, result.Data[0].OriginalPrice)
	assert.Equal(t, int64(10000), *result.Data[0].OriginalPrice)
	assert.True(t, result.Data[0].HasCampaign)
}

// ============================================================================
// Quote
// ============================================================================

func TestQuote_BatchDecoration(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, new(mockProductRepository)))

	campaignRepo.On("ListLive", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*domain.Campaign{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/pricing/quotes", map[string]any{
		"products": []map[string]any{
			{"id": "p1", "categoryId": "cat-1", "price": 10000},
			{"id": "p2", "categoryId": "cat-1", "price": 5000, "salePrice": 4000},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	quotes := resp.Data.(map[string]any)

	p1 := quotes["p1"].(map[string]any)
	assert.Equal(t, float64(10000), p1["finalPrice"])

	p2 := quotes["p2"].(map[string]any)
	assert.Equal(t, float64(4000), p2["finalPrice"])
	assert.Equal(t, float64(5000), p2["originalPrice"])
}

func TestQuote_EmptyBatchRejected(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, new(mockProductRepository)))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/pricing/quotes", map[string]any{
		"products": []map[string]any{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	campaignRepo.AssertNotCalled(t, "ListLive")
}

// ============================================================================
// Popup
// ============================================================================

func popupBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeResponse(t, rec)
	return resp.Data.(map[string]any)
}

func TestPopup_ShownOncePerVisitor(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, new(mockProductRepository)))

	campaignRepo.On("ListLive", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*domain.Campaign{{
			ID:          "camp-001",
			Title:       "Yaz İndirimi",
			Description: "Sepette %10",
			Type:        domain.CampaignTypeGeneral,
			StartDate:   time.Now().UTC().Add(-time.Hour),
			EndDate:     time.Now().UTC().Add(time.Hour),
			IsActive:    true,
		}}, nil)

	// First visit: the popup shows and the shown flag is set.
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/api/v1/popup", nil))

	require.Equal(t, http.StatusOK, rec1.Code)
	body := popupBody(t, rec1)
	assert.Equal(t, true, body["show"])
	campaign := body["campaign"].(map[string]any)
	assert.Equal(t, "camp-001", campaign["id"])

	cookies := rec1.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Second visit with the cookie replayed: suppressed.
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/popup", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)

	require.Equal(t, http.StatusOK, rec2.Code)
	body2 := popupBody(t, rec2)
	assert.Equal(t, false, body2["show"])
	assert.Nil(t, body2["campaign"])

	campaignRepo.AssertNumberOfCalls(t, "ListLive", 1)
}

func TestPopup_NoLiveCampaign(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, new(mockProductRepository)))

	campaignRepo.On("ListLive", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*domain.Campaign{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/popup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := popupBody(t, rec)
	assert.Equal(t, false, body["show"])

	// No popup shown, so no shown flag is written.
	assert.Empty(t, rec.Result().Cookies())
}

func TestPopup_CodedCampaignNeverAdvertised(t *testing.T) {
	campaignRepo := new(mockCampaignRepository)
	router := setupStorefrontRouter(testStorefrontHandler(campaignRepo, new(mockProductRepository)))

	campaignRepo.On("ListLive", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*domain.Campaign{{
			ID:        "camp-001",
			Title:     "VIP",
			Type:      domain.CampaignTypeGeneral,
			Code:      "VIP15",
			StartDate: time.Now().UTC().Add(-time.Hour),
			EndDate:   time.Now().UTC().Add(time.Hour),
			IsActive:  true,
		}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/popup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := popupBody(t, rec)
	assert.Equal(t, false, body["show"])
}
