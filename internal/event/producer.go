// Package event publishes storefront domain events to Kafka. Publishing is
// best effort: callers log failures and keep going, the order record in
// PostgreSQL is the source of truth.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StorefrontGo/internal/domain"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicOrderCreated             = "storefront.order.created"
	TopicOrderPaid                = "storefront.order.paid"
	TopicOrderConfirmationSkipped = "storefront.order.confirmation_skipped"
)

// Confirmation channel names used in confirmation_skipped payloads.
const (
	ChannelRedirect = "redirect"
	ChannelWebhook  = "webhook"
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from the storefront.
const SourceStorefront = "storefront"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	SessionID   string          `json:"session_id"`
	Status      string          `json:"status"`
	Items       []OrderLineData `json:"items"`
	TotalAmount int64           `json:"total_amount"`
}

// OrderPaidData is the payload for an order.paid event.
type OrderPaidData struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id,omitempty"`
	SessionID     string `json:"session_id"`
	PaymentIntent string `json:"payment_intent"`
	TotalAmount   int64  `json:"total_amount"`
}

// OrderConfirmationSkippedData is the payload for an
// order.confirmation_skipped event, emitted when a confirmation path finds
// the pending-to-paid transition already taken by the other path.
type OrderConfirmationSkippedData struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Channel   string `json:"channel"`
}

// OrderLineData is the event payload for one purchased line.
type OrderLineData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// publisher is the slice of pkg/kafka.Producer the event producer needs.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. A nil kafka producer disables
// publishing, which turns every Publish call into a no-op.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	p := &Producer{logger: logger}
	if kafka != nil {
		p.kafka = kafka
	}
	return p
}

// PublishOrderCreated publishes an order.created event for a freshly opened
// checkout session.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	if p.kafka == nil {
		return nil
	}

	items := make([]OrderLineData, len(order.Snapshot.Items))
	for i, line := range order.Snapshot.Items {
		items[i] = OrderLineData{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		}
	}

	data := OrderCreatedData{
		ID:          order.ID,
		UserID:      userID(order),
		SessionID:   order.SessionID,
		Status:      order.Status,
		Items:       items,
		TotalAmount: order.TotalAmount,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("session_id", order.SessionID),
	)

	return nil
}

// PublishOrderPaid publishes an order.paid event after a confirmation path
// won the pending-to-paid transition.
func (p *Producer) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	if p.kafka == nil {
		return nil
	}

	data := OrderPaidData{
		ID:            order.ID,
		UserID:        userID(order),
		SessionID:     order.SessionID,
		PaymentIntent: order.PaymentIntent,
		TotalAmount:   order.TotalAmount,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPaid, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.paid event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPaid, event); err != nil {
		return fmt.Errorf("publish order.paid event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.paid event",
		slog.String("order_id", order.ID),
		slog.String("payment_intent", order.PaymentIntent),
	)

	return nil
}

// PublishOrderConfirmationSkipped publishes an order.confirmation_skipped
// event for the confirmation channel that lost the race.
func (p *Producer) PublishOrderConfirmationSkipped(ctx context.Context, order *domain.Order, channel string) error {
	if p.kafka == nil {
		return nil
	}

	data := OrderConfirmationSkippedData{
		ID:        order.ID,
		SessionID: order.SessionID,
		Channel:   channel,
	}

	event, err := pkgkafka.NewEvent(TopicOrderConfirmationSkipped, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.confirmation_skipped event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderConfirmationSkipped, event); err != nil {
		return fmt.Errorf("publish order.confirmation_skipped event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.confirmation_skipped event",
		slog.String("order_id", order.ID),
		slog.String("channel", channel),
	)

	return nil
}

func userID(order *domain.Order) string {
	if order.UserID == nil {
		return ""
	}
	return *order.UserID
}
