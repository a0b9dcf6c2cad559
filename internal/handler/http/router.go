package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/health"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/middleware"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/service"
)

// RouterConfig bundles the dependencies of the HTTP surface.
type RouterConfig struct {
	Campaigns     *service.CampaignService
	Matcher       *service.MatcherService
	Pricing       *service.PricingService
	StateBackend  StateBackendFactory
	PopupTTL      time.Duration
	HealthHandler *health.Handler
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("campaign"))

	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	campaignHandler := NewCampaignHandler(cfg.Campaigns, cfg.Matcher, cfg.Logger)
	storefrontHandler := NewStorefrontHandler(cfg.Pricing, cfg.Matcher, cfg.StateBackend, cfg.PopupTTL, cfg.Logger)

	r.Route("/api/v1/campaigns", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", campaignHandler.CreateCampaign)
		r.Get("/", campaignHandler.ListCampaigns)

		// Matcher endpoints come before /{id} so chi does not treat
		// "check" as a campaign id.
		r.Post("/check", campaignHandler.CheckCampaign)
		r.Post("/validate-code", campaignHandler.ValidateCode)

		r.Get("/{id}", campaignHandler.GetCampaign)
		r.Put("/{id}", campaignHandler.UpdateCampaign)
		r.Delete("/{id}", campaignHandler.DeleteCampaign)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(middleware.CacheControl(60))

		r.Get("/", storefrontHandler.ListProducts)
	})

	r.Route("/api/v1/pricing", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/quotes", storefrontHandler.Quote)
	})

	r.Get("/api/v1/popup", storefrontHandler.Popup)

	return r
}
