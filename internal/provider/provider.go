// Package provider abstracts the hosted-checkout payment provider so the
// services depend on a narrow interface rather than a concrete SDK.
package provider

import "context"

// LineItem is one purchasable line in a checkout session. Price is in the
// smallest currency unit (cents).
type LineItem struct {
	Name        string
	Description string
	Price       int64
	Quantity    int
}

// CreateSessionInput carries everything needed to open a hosted checkout
// session for an order.
type CreateSessionInput struct {
	OrderID    string
	Items      []LineItem
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider-side view of a checkout session.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	OrderID         string
}

// WebhookEvent is a verified event delivered by the provider.
type WebhookEvent struct {
	Type            string
	SessionID       string
	PaymentIntentID string
	OrderID         string
}

// EventCheckoutCompleted is the event type signalling a session was paid.
const EventCheckoutCompleted = "checkout.session.completed"

// Provider creates and inspects hosted checkout sessions and verifies
// webhook deliveries.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Configured reports whether the provider has working credentials.
	Configured() bool

	// CreateSession opens a hosted checkout session for an order.
	CreateSession(ctx context.Context, input CreateSessionInput) (*CheckoutSession, error)

	// GetSession retrieves a session by its id.
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// ConstructWebhookEvent verifies a webhook payload against its
	// signature header and decodes it.
	ConstructWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error)
}
