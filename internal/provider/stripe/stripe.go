// Package stripe implements the checkout provider on top of the Stripe
// hosted checkout API.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	stripesdk "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/utafrali/StorefrontGo/internal/provider"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// MetadataOrderID is the session metadata key carrying our order id, so
// webhook deliveries can be tied back to the order that opened the session.
const MetadataOrderID = "order_id"

// Provider talks to Stripe through a dedicated API client. The client is
// constructed explicitly instead of mutating the SDK's global key, so two
// providers with different credentials can coexist in one process.
type Provider struct {
	api           *client.API
	webhookSecret string
	logger        *slog.Logger
}

// New creates a Stripe-backed checkout provider.
func New(secretKey, webhookSecret string, logger *slog.Logger) *Provider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &Provider{
		api:           api,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return "stripe" }

// Configured implements provider.Provider.
func (p *Provider) Configured() bool { return true }

// CreateSession opens a hosted checkout session with one price-data line
// per item. Amounts are passed through in cents.
func (p *Provider) CreateSession(ctx context.Context, input provider.CreateSessionInput) (*provider.CheckoutSession, error) {
	lineItems := make([]*stripesdk.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, item := range input.Items {
		productData := &stripesdk.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripesdk.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripesdk.String(item.Description)
		}

		lineItems = append(lineItems, &stripesdk.CheckoutSessionLineItemParams{
			PriceData: &stripesdk.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripesdk.String(string(stripesdk.CurrencyUSD)),
				UnitAmount:  stripesdk.Int64(item.Price),
				ProductData: productData,
			},
			Quantity: stripesdk.Int64(int64(item.Quantity)),
		})
	}

	params := &stripesdk.CheckoutSessionParams{
		Mode:       stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripesdk.String(input.SuccessURL),
		CancelURL:  stripesdk.String(input.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, input.OrderID)

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	p.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sess.ID),
		slog.String("order_id", input.OrderID),
	)

	return &provider.CheckoutSession{
		ID:      sess.ID,
		URL:     sess.URL,
		OrderID: input.OrderID,
	}, nil
}

// GetSession retrieves a session with its payment intent expanded.
func (p *Provider) GetSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	params := &stripesdk.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", sessionID, err)
	}

	return sessionFromStripe(sess), nil
}

// ConstructWebhookEvent verifies the Stripe-Signature header against the
// endpoint secret and decodes the event. Verification failures are reported
// as invalid-signature errors without touching any state.
func (p *Provider) ConstructWebhookEvent(payload []byte, sigHeader string) (*provider.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, apperrors.InvalidSignature(fmt.Sprintf("webhook signature verification failed: %v", err))
	}

	out := &provider.WebhookEvent{Type: string(event.Type)}

	if out.Type != provider.EventCheckoutCompleted {
		return out, nil
	}

	var sess stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session from event: %w", err)
	}

	completed := sessionFromStripe(&sess)
	out.SessionID = completed.ID
	out.PaymentIntentID = completed.PaymentIntentID
	out.OrderID = completed.OrderID

	return out, nil
}

func sessionFromStripe(sess *stripesdk.CheckoutSession) *provider.CheckoutSession {
	out := &provider.CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Metadata != nil {
		out.OrderID = sess.Metadata[MetadataOrderID]
	}
	return out
}
