package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/provider"
	"github.com/utafrali/StorefrontGo/internal/repository"
)

// --- Mock Repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) CreateIfAbsent(ctx context.Context, p *domain.Product) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListActive(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) SetSessionID(ctx context.Context, orderID, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

func (m *mockOrderRepository) ConfirmPaid(ctx context.Context, order *domain.Order, paymentIntent string) (bool, error) {
	args := m.Called(ctx, order, paymentIntent)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock Provider ---

type mockProvider struct {
	mock.Mock
	configured bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Configured() bool { return m.configured }

func (m *mockProvider) CreateSession(ctx context.Context, input provider.CreateSessionInput) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *mockProvider) ConstructWebhookEvent(payload []byte, sigHeader string) (*provider.WebhookEvent, error) {
	args := m.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.WebhookEvent), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	return event.NewProducer(nil, newTestLogger())
}

func strPtr(s string) *string {
	return &s
}

func showcaseProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-laptop", Name: "Premium Laptop", Slug: "premium-laptop", Description: "High-performance laptop", Price: 129999, IsActive: true},
		{ID: "prod-headphones", Name: "Wireless Headphones", Slug: "wireless-headphones", Description: "Noise-cancelling headphones", Price: 24999, IsActive: true},
		{ID: "prod-watch", Name: "Smart Watch", Slug: "smart-watch", Description: "Fitness tracking watch", Price: 39999, IsActive: true},
	}
}
