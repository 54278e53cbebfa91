package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/provider"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// OrderService reconciles payment outcomes onto order records. Confirmation
// arrives on two independent paths, the buyer's redirect back to the site
// and the provider's signed webhook, and both funnel into the same
// conditional pending-to-paid transition, so whichever lands first wins and
// the other becomes a no-op.
type OrderService struct {
	orders   repository.OrderRepository
	provider provider.Provider
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates an order service.
func NewOrderService(
	orders repository.OrderRepository,
	paymentProvider provider.Provider,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		provider: paymentProvider,
		producer: producer,
		logger:   logger,
	}
}

// CompleteBySession confirms payment for the order behind a checkout
// session, called when the buyer lands on the success page. Returns the
// order in its post-confirmation state whether or not this call performed
// the transition.
func (s *OrderService) CompleteBySession(ctx context.Context, sessionID string) (*domain.Order, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("look up checkout session: %w", err)
	}

	order, err := s.orders.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		return order, nil
	}

	won, err := s.orders.ConfirmPaid(ctx, order, sess.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if won {
		s.logger.InfoContext(ctx, "order confirmed paid via redirect",
			slog.String("order_id", order.ID),
			slog.String("session_id", sessionID),
		)
		s.publishPaid(ctx, order)
	} else {
		s.publishSkipped(ctx, order, event.ChannelRedirect)
	}

	return order, nil
}

// HandleWebhook verifies and applies a provider webhook delivery. Unknown
// event types and sessions that match no order are acknowledged without
// side effects so the provider stops retrying them. Signature failures are
// returned as errors and must not be acknowledged.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	whEvent, err := s.provider.ConstructWebhookEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	if whEvent.Type != provider.EventCheckoutCompleted {
		s.logger.DebugContext(ctx, "ignoring webhook event",
			slog.String("event_type", whEvent.Type),
		)
		return nil
	}

	order, err := s.lookupOrder(ctx, whEvent)
	if err != nil {
		return err
	}
	if order == nil {
		s.logger.WarnContext(ctx, "webhook matched no order",
			slog.String("session_id", whEvent.SessionID),
			slog.String("order_id", whEvent.OrderID),
		)
		return nil
	}

	if order.IsPaid() {
		return nil
	}

	won, err := s.orders.ConfirmPaid(ctx, order, whEvent.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}

	if won {
		s.logger.InfoContext(ctx, "order confirmed paid via webhook",
			slog.String("order_id", order.ID),
			slog.String("session_id", whEvent.SessionID),
		)
		s.publishPaid(ctx, order)
	} else {
		s.publishSkipped(ctx, order, event.ChannelWebhook)
	}

	return nil
}

// lookupOrder resolves the order a completed-checkout event refers to,
// preferring the order id carried in metadata and falling back to the
// session id. A nil order with nil error means nothing matched.
func (s *OrderService) lookupOrder(ctx context.Context, whEvent *provider.WebhookEvent) (*domain.Order, error) {
	if whEvent.OrderID != "" {
		order, err := s.orders.GetByID(ctx, whEvent.OrderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if whEvent.SessionID != "" {
		order, err := s.orders.GetBySessionID(ctx, whEvent.SessionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// ListPaid returns a page of paid orders, scoped to one user when userID is
// non-empty.
func (s *OrderService) ListPaid(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	status := domain.OrderStatusPaid
	filter := repository.OrderFilter{
		Status:  &status,
		Page:    page,
		PerPage: perPage,
	}
	if userID != "" {
		filter.UserID = &userID
	}

	return s.orders.List(ctx, filter)
}

func (s *OrderService) publishPaid(ctx context.Context, order *domain.Order) {
	if err := s.producer.PublishOrderPaid(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order.paid publish failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) publishSkipped(ctx context.Context, order *domain.Order, channel string) {
	if err := s.producer.PublishOrderConfirmationSkipped(ctx, order, channel); err != nil {
		s.logger.WarnContext(ctx, "order.confirmation_skipped publish failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}
