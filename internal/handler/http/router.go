// Package http exposes the storefront over HTTP. The route shapes follow
// the hosted-checkout flow: the buyer browses the showcase, posts a
// quantity form, pays on the provider's page, and lands back on the success
// or cancel route while the provider's webhook confirms in the background.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/StorefrontGo/internal/service"
	"github.com/utafrali/StorefrontGo/pkg/health"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
)

// RouterConfig holds the knobs the router needs beyond its services.
type RouterConfig struct {
	Environment     string
	AllowedOrigins  []string
	PprofCIDRs      []string
	StripePublicKey string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	checkoutService *service.CheckoutService,
	orderService *service.OrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.Identity())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
	}))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	storefrontHandler := NewStorefrontHandler(catalogService, orderService, checkoutService, cfg.StripePublicKey, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	webhookHandler := NewWebhookHandler(orderService, logger)

	// Storefront routes. Trailing slashes are part of the public contract;
	// the provider redirect URLs are registered with them.
	r.Get("/", storefrontHandler.Index)
	r.With(middleware.CacheControl(60)).Get("/products/", storefrontHandler.Products)
	r.Post("/create-checkout-session/", checkoutHandler.CreateCheckoutSession)
	r.Get("/success/", storefrontHandler.Success)
	r.Get("/cancel/", storefrontHandler.Cancel)
	r.Post("/webhook/", webhookHandler.HandleWebhook)
	r.Get("/my-orders/", storefrontHandler.MyOrders)
	r.Get("/status/", storefrontHandler.Status)

	return r
}
