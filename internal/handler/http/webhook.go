package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/utafrali/StorefrontGo/internal/service"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
)

// maxWebhookBodySize caps the webhook payload we are willing to read.
const maxWebhookBodySize = 1 << 16

// signatureHeader carries the provider's payload signature.
const signatureHeader = "Stripe-Signature"

// WebhookHandler receives payment provider webhook deliveries.
type WebhookHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(svc *service.OrderService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		logger:  logger,
	}
}

// HandleWebhook handles POST /webhook/
//
// A 2xx response acknowledges the delivery and stops the provider from
// retrying, so only signature failures and internal errors return non-2xx.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("could not read webhook payload"), h.logger)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		if errors.Is(err, apperrors.ErrBadSignature) {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		h.logger.ErrorContext(r.Context(), "webhook processing failed",
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "received"}})
}
