package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

type fakeProvider struct {
	createErr  error
	getErr     error
	session    *CheckoutSession
	createCall int
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return true }

func (f *fakeProvider) CreateSession(context.Context, CreateSessionInput) (*CheckoutSession, error) {
	f.createCall++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeProvider) GetSession(context.Context, string) (*CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeProvider) ConstructWebhookEvent([]byte, string) (*WebhookEvent, error) {
	return &WebhookEvent{Type: EventCheckoutCompleted}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDisabled_RejectsAllOperations(t *testing.T) {
	p := NewDisabled()

	assert.False(t, p.Configured())

	_, err := p.CreateSession(context.Background(), CreateSessionInput{})
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	_, err = p.GetSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	_, err = p.ConstructWebhookEvent([]byte("{}"), "sig")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestBreakerProvider_PassesThroughSuccess(t *testing.T) {
	fake := &fakeProvider{session: &CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}}
	p := WithBreaker(fake, DefaultBreakerConfig(), testLogger())

	sess, err := p.CreateSession(context.Background(), CreateSessionInput{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "fake", p.Name())
	assert.True(t, p.Configured())
}

func TestBreakerProvider_OpensAfterRepeatedFailures(t *testing.T) {
	fake := &fakeProvider{createErr: errors.New("provider down")}
	cfg := BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
	p := WithBreaker(fake, cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, err := p.CreateSession(context.Background(), CreateSessionInput{})
		require.Error(t, err)
	}

	_, err := p.CreateSession(context.Background(), CreateSessionInput{})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 3, fake.createCall)
}

func TestBreakerProvider_WebhookVerificationBypassesBreaker(t *testing.T) {
	fake := &fakeProvider{createErr: errors.New("provider down")}
	cfg := BreakerConfig{FailureRatio: 0.5, MinRequests: 1, Timeout: time.Minute}
	p := WithBreaker(fake, cfg, testLogger())

	_, err := p.CreateSession(context.Background(), CreateSessionInput{})
	require.Error(t, err)
	_, err = p.CreateSession(context.Background(), CreateSessionInput{})
	assert.ErrorIs(t, err, ErrBreakerOpen)

	event, err := p.ConstructWebhookEvent([]byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
}
