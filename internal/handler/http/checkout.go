package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/utafrali/StorefrontGo/internal/service"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
	"github.com/utafrali/StorefrontGo/pkg/validator"
)

// quantityFieldPrefix prefixes the per-product quantity fields in the
// checkout form, as in "quantity_<product_id>".
const quantityFieldPrefix = "quantity_"

// quantitySelection is one parsed quantity field from the checkout form.
type quantitySelection struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gte=0,lte=99"`
}

// CheckoutHandler handles the checkout form submission.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateCheckoutSession handles POST /create-checkout-session/
//
// Reads quantity_<product_id> form fields, opens a hosted checkout session,
// and redirects the buyer to the provider's payment page. User errors send
// the buyer back to the storefront with a message instead of a JSON error,
// since this endpoint is the target of a plain form post.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "invalid form submission")
		return
	}

	quantities := make(map[string]int)
	for field, values := range r.PostForm {
		if !strings.HasPrefix(field, quantityFieldPrefix) || len(values) == 0 {
			continue
		}
		productID := strings.TrimPrefix(field, quantityFieldPrefix)
		qty, err := strconv.Atoi(values[0])
		if err != nil {
			redirectWithError(w, r, "quantities must be whole numbers")
			return
		}
		if err := validator.Validate(quantitySelection{ProductID: productID, Quantity: qty}); err != nil {
			redirectWithError(w, r, "quantities must be between 0 and 99")
			return
		}
		quantities[productID] = qty
	}

	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.service.CreateCheckoutSession(r.Context(), userID, quantities)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			msg := "invalid selection"
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				msg = appErr.Message
			}
			redirectWithError(w, r, msg)
		case errors.Is(err, apperrors.ErrServiceUnavail):
			redirectWithError(w, r, "checkout is currently unavailable")
		default:
			h.logger.ErrorContext(r.Context(), "checkout session creation failed",
				slog.String("error", err.Error()),
			)
			redirectWithError(w, r, "something went wrong, please try again")
		}
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
}
