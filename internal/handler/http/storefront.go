package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/service"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
)

// StorefrontHandler serves the storefront pages: the showcase, the
// post-payment landing routes, and order history.
type StorefrontHandler struct {
	catalog         *service.CatalogService
	orders          *service.OrderService
	checkout        *service.CheckoutService
	stripePublicKey string
	logger          *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(
	catalog *service.CatalogService,
	orders *service.OrderService,
	checkout *service.CheckoutService,
	stripePublicKey string,
	logger *slog.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:         catalog,
		orders:          orders,
		checkout:        checkout,
		stripePublicKey: stripePublicKey,
		logger:          logger,
	}
}

// StorefrontView is the response body for the showcase routes.
type StorefrontView struct {
	Products        []domain.Product `json:"products"`
	Orders          []domain.Order   `json:"orders"`
	CheckoutEnabled bool             `json:"checkout_enabled"`
	StripePublicKey string           `json:"stripe_public_key,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Index handles GET /
func (h *StorefrontHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderStorefront(w, r, middleware.UserIDFromContext(r.Context()))
}

// Status handles GET /status/
//
// Unlike the index, the order list here is global: the route reports the
// storefront's state, not the caller's history.
func (h *StorefrontHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.renderStorefront(w, r, "")
}

func (h *StorefrontHandler) renderStorefront(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	products, err := h.catalog.Showcase(ctx)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	orders, _, err := h.orders.ListPaid(ctx, userID, 1, 20)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	view := StorefrontView{
		Products:        products,
		Orders:          orders,
		CheckoutEnabled: h.checkout.Enabled(),
		StripePublicKey: h.stripePublicKey,
		Error:           r.URL.Query().Get("error"),
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Products handles GET /products/
//
// The showcase as a bare list, without the per-user order history. The
// catalog is fixed, so the route is served with a short public cache.
func (h *StorefrontHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Showcase(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// Success handles GET /success/
//
// The provider redirects the buyer here with the session id substituted
// into the query string. Payment is confirmed on the spot rather than
// waiting for the webhook, so the buyer sees their order as paid
// immediately.
func (h *StorefrontHandler) Success(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	order, err := h.orders.CompleteBySession(r.Context(), sessionID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "payment confirmation via redirect failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		redirectWithError(w, r, "we could not verify your payment, please contact support")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// Cancel handles GET /cancel/
//
// The buyer backed out on the provider's page. The pending order is left
// as is.
func (h *StorefrontHandler) Cancel(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "checkout cancelled, you have not been charged",
	}})
}

// MyOrders handles GET /my-orders/
func (h *StorefrontHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	userID := middleware.UserIDFromContext(ctx)
	orders, total, err := h.orders.ListPaid(ctx, userID, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page, perPage))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// redirectWithError sends the buyer back to the storefront with a
// human-readable error message in the query string.
func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
