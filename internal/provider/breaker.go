package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker settings for provider API calls.
type BreakerConfig struct {
	// MaxRequests is the number of requests allowed in the half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before moving to half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of requests fail.
	FailureRatio float64

	// MinRequests is the minimum sample size before the ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns the settings used for the payment provider.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "payment_provider_breaker_state",
		Help: "Current state of the payment provider circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"provider"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ErrBreakerOpen is returned when the breaker rejects a provider call.
var ErrBreakerOpen = gobreaker.ErrOpenState

// BreakerProvider wraps a Provider with circuit breaker protection on the
// outbound API calls. Webhook verification is purely local cryptography and
// bypasses the breaker.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*CheckoutSession]
	logger  *slog.Logger
}

// WithBreaker wraps a provider's session calls in a circuit breaker.
func WithBreaker(inner Provider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("payment provider breaker state change",
				slog.String("provider", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(inner.Name()).Set(0)

	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*CheckoutSession](settings),
		logger:  logger,
	}
}

func (b *BreakerProvider) Name() string { return b.inner.Name() }

func (b *BreakerProvider) Configured() bool { return b.inner.Configured() }

func (b *BreakerProvider) CreateSession(ctx context.Context, input CreateSessionInput) (*CheckoutSession, error) {
	return b.breaker.Execute(func() (*CheckoutSession, error) {
		return b.inner.CreateSession(ctx, input)
	})
}

func (b *BreakerProvider) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	return b.breaker.Execute(func() (*CheckoutSession, error) {
		return b.inner.GetSession(ctx, sessionID)
	})
}

func (b *BreakerProvider) ConstructWebhookEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	return b.inner.ConstructWebhookEvent(payload, sigHeader)
}

// State returns the breaker's current state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.breaker.State()
}
