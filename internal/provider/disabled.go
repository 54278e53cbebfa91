package provider

import (
	"context"

	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// Disabled is the provider used when no payment credentials are configured.
// The storefront stays browsable; every checkout operation fails with a
// service-unavailable error.
type Disabled struct{}

// NewDisabled returns a provider that rejects all checkout operations.
func NewDisabled() *Disabled { return &Disabled{} }

func (*Disabled) Name() string { return "disabled" }

func (*Disabled) Configured() bool { return false }

func (*Disabled) CreateSession(context.Context, CreateSessionInput) (*CheckoutSession, error) {
	return nil, apperrors.ServiceUnavailable("payments are not configured")
}

func (*Disabled) GetSession(context.Context, string) (*CheckoutSession, error) {
	return nil, apperrors.ServiceUnavailable("payments are not configured")
}

func (*Disabled) ConstructWebhookEvent([]byte, string) (*WebhookEvent, error) {
	return nil, apperrors.ServiceUnavailable("payments are not configured")
}
