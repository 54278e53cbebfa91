package repository

import (
	"context"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// ProductRepository defines the interface for catalog persistence.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, p *domain.Product) error

	// CreateIfAbsent inserts a product unless one with the same slug exists.
	// Returns true when a row was inserted.
	CreateIfAbsent(ctx context.Context, p *domain.Product) (bool, error)

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// ListActive returns active products in id order, up to limit.
	ListActive(ctx context.Context, limit int) ([]domain.Product, error)
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Create inserts a new pending order with its snapshot.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including any
	// materialized items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetBySessionID retrieves an order by its checkout session identifier.
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	// SetSessionID stores the provider checkout session id on an order.
	SetSessionID(ctx context.Context, orderID, sessionID string) error

	// ConfirmPaid atomically marks a pending order paid, records the payment
	// intent, and materializes the snapshot into order items. Returns false
	// without mutating anything when the order is no longer pending. On a
	// win the given order is updated in place.
	ConfirmPaid(ctx context.Context, order *domain.Order, paymentIntent string) (bool, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
}
