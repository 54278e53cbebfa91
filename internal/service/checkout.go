package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/provider"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// sessionIDPlaceholder is substituted by the provider with the real session
// id when redirecting back after payment.
const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// maxQuantityPerLine caps how many units of one product a single checkout
// may hold.
const maxQuantityPerLine = 99

// CheckoutService opens hosted checkout sessions for showcase products.
type CheckoutService struct {
	catalog  *CatalogService
	orders   repository.OrderRepository
	provider provider.Provider
	producer *event.Producer
	siteURL  string
	logger   *slog.Logger
}

// NewCheckoutService creates a checkout service. siteURL is the public base
// URL the provider redirects back to after payment.
func NewCheckoutService(
	catalog *CatalogService,
	orders repository.OrderRepository,
	paymentProvider provider.Provider,
	producer *event.Producer,
	siteURL string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog:  catalog,
		orders:   orders,
		provider: paymentProvider,
		producer: producer,
		siteURL:  strings.TrimRight(siteURL, "/"),
		logger:   logger,
	}
}

// Enabled reports whether checkout can reach the payment provider.
func (s *CheckoutService) Enabled() bool {
	return s.provider.Configured()
}

// CheckoutResult is a pending order together with the provider URL the
// buyer must be redirected to.
type CheckoutResult struct {
	Order       *domain.Order
	RedirectURL string
}

// CreateCheckoutSession builds an order from the requested quantities and
// opens a hosted checkout session for it. quantities maps product ids to
// unit counts; zero and unknown products are ignored. The order is persisted
// as pending before the provider is called, so a provider failure can leave
// a pending order with no session behind. Such orders are never paid and
// never surface in paid listings.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID string, quantities map[string]int) (*CheckoutResult, error) {
	if !s.provider.Configured() {
		return nil, apperrors.ServiceUnavailable("payments are not configured")
	}

	products, err := s.catalog.Showcase(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.SnapshotItem, 0, len(products))
	items := make([]provider.LineItem, 0, len(products))
	for _, p := range products {
		qty := quantities[p.ID]
		if qty <= 0 {
			continue
		}
		if qty > maxQuantityPerLine {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for %s exceeds the maximum of %d", p.Name, maxQuantityPerLine))
		}
		lines = append(lines, domain.SnapshotItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Subtotal:  p.Price * int64(qty),
		})
		items = append(items, provider.LineItem{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    qty,
		})
	}

	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("select at least one product")
	}

	snapshot := domain.NewSnapshot(lines)
	now := time.Now().UTC()

	order := &domain.Order{
		ID:          uuid.New().String(),
		Status:      domain.OrderStatusPending,
		TotalAmount: snapshot.Total(),
		Snapshot:    snapshot,
		Items:       []domain.OrderItem{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if userID != "" {
		order.UserID = &userID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create pending order: %w", err)
	}

	sess, err := s.provider.CreateSession(ctx, provider.CreateSessionInput{
		OrderID:    order.ID,
		Items:      items,
		SuccessURL: s.siteURL + "/success/?session_id=" + sessionIDPlaceholder,
		CancelURL:  s.siteURL + "/cancel/",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session creation failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.orders.SetSessionID(ctx, order.ID, sess.ID); err != nil {
		return nil, fmt.Errorf("attach session to order: %w", err)
	}
	order.SessionID = sess.ID

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order.created publish failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session opened",
		slog.String("order_id", order.ID),
		slog.String("session_id", sess.ID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return &CheckoutResult{Order: order, RedirectURL: sess.URL}, nil
}
