package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/provider"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

func newOrderService(orders *mockOrderRepository, p *mockProvider) *OrderService {
	return NewOrderService(orders, p, newTestProducer(), newTestLogger())
}

func pendingOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:          "order-1",
		UserID:      strPtr("user-1"),
		SessionID:   "cs_test_1",
		Status:      domain.OrderStatusPending,
		TotalAmount: 2500,
		Snapshot: domain.NewSnapshot([]domain.SnapshotItem{
			{ProductID: "prod-a", Name: "Product A", Price: 1000, Quantity: 2, Subtotal: 2000},
			{ProductID: "prod-b", Name: "Product B", Price: 500, Quantity: 1, Subtotal: 500},
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func paidOrder() *domain.Order {
	o := pendingOrder()
	o.Status = domain.OrderStatusPaid
	o.PaymentIntent = "pi_prior"
	return o
}

func completedEvent() *provider.WebhookEvent {
	return &provider.WebhookEvent{
		Type:            provider.EventCheckoutCompleted,
		SessionID:       "cs_test_1",
		PaymentIntentID: "pi_123",
		OrderID:         "order-1",
	}
}

// markPaid mimics the repository's winning confirmation, which updates the
// order in place.
func markPaid(args mock.Arguments) {
	o := args.Get(1).(*domain.Order)
	o.Status = domain.OrderStatusPaid
	o.PaymentIntent = args.Get(2).(string)
}

// --- CompleteBySession ---

func TestCompleteBySession_ConfirmsPendingOrder(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	order := pendingOrder()
	prov.On("GetSession", ctx, "cs_test_1").
		Return(&provider.CheckoutSession{ID: "cs_test_1", PaymentIntentID: "pi_123", OrderID: "order-1"}, nil)
	orders.On("GetBySessionID", ctx, "cs_test_1").Return(order, nil)
	orders.On("ConfirmPaid", ctx, order, "pi_123").Return(true, nil).Run(markPaid)

	got, err := svc.CompleteBySession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, "pi_123", got.PaymentIntent)

	orders.AssertExpectations(t)
	prov.AssertExpectations(t)
}

func TestCompleteBySession_AlreadyPaidIsNoOp(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	prov.On("GetSession", ctx, "cs_test_1").
		Return(&provider.CheckoutSession{ID: "cs_test_1", PaymentIntentID: "pi_123"}, nil)
	orders.On("GetBySessionID", ctx, "cs_test_1").Return(paidOrder(), nil)

	got, err := svc.CompleteBySession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, got.Status)
	assert.Equal(t, "pi_prior", got.PaymentIntent)

	orders.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteBySession_LosingRaceIsNotAnError(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	order := pendingOrder()
	prov.On("GetSession", ctx, "cs_test_1").
		Return(&provider.CheckoutSession{ID: "cs_test_1", PaymentIntentID: "pi_123"}, nil)
	orders.On("GetBySessionID", ctx, "cs_test_1").Return(order, nil)
	orders.On("ConfirmPaid", ctx, order, "pi_123").Return(false, nil)

	_, err := svc.CompleteBySession(ctx, "cs_test_1")
	assert.NoError(t, err)
}

func TestCompleteBySession_EmptySessionID(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)

	_, err := svc.CompleteBySession(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	prov.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
}

func TestCompleteBySession_UnknownSession(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	prov.On("GetSession", ctx, "cs_unknown").
		Return(&provider.CheckoutSession{ID: "cs_unknown"}, nil)
	orders.On("GetBySessionID", ctx, "cs_unknown").Return(nil, apperrors.ErrNotFound)

	_, err := svc.CompleteBySession(ctx, "cs_unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- HandleWebhook ---

func TestHandleWebhook_ConfirmsPendingOrder(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	order := pendingOrder()
	prov.On("ConstructWebhookEvent", []byte("payload"), "sig").Return(completedEvent(), nil)
	orders.On("GetByID", ctx, "order-1").Return(order, nil)
	orders.On("ConfirmPaid", ctx, order, "pi_123").Return(true, nil).Run(markPaid)

	err := svc.HandleWebhook(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)

	orders.AssertExpectations(t)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)

	prov.On("ConstructWebhookEvent", []byte("payload"), "bad-sig").
		Return(nil, apperrors.InvalidSignature("webhook signature verification failed"))

	err := svc.HandleWebhook(context.Background(), []byte("payload"), "bad-sig")
	assert.ErrorIs(t, err, apperrors.ErrBadSignature)

	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)

	prov.On("ConstructWebhookEvent", []byte("payload"), "sig").
		Return(&provider.WebhookEvent{Type: "payment_intent.created"}, nil)

	err := svc.HandleWebhook(context.Background(), []byte("payload"), "sig")
	assert.NoError(t, err)

	orders.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_UnknownOrderIsAcknowledged(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	prov.On("ConstructWebhookEvent", []byte("payload"), "sig").Return(completedEvent(), nil)
	orders.On("GetByID", ctx, "order-1").Return(nil, apperrors.ErrNotFound)
	orders.On("GetBySessionID", ctx, "cs_test_1").Return(nil, apperrors.ErrNotFound)

	err := svc.HandleWebhook(ctx, []byte("payload"), "sig")
	assert.NoError(t, err)

	orders.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebhook_FallsBackToSessionLookup(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	order := pendingOrder()
	whEvent := completedEvent()
	whEvent.OrderID = ""

	prov.On("ConstructWebhookEvent", []byte("payload"), "sig").Return(whEvent, nil)
	orders.On("GetBySessionID", ctx, "cs_test_1").Return(order, nil)
	orders.On("ConfirmPaid", ctx, order, "pi_123").Return(true, nil).Run(markPaid)

	err := svc.HandleWebhook(ctx, []byte("payload"), "sig")
	require.NoError(t, err)

	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestHandleWebhook_AfterRedirectAlreadyConfirmed(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	prov.On("ConstructWebhookEvent", []byte("payload"), "sig").Return(completedEvent(), nil)
	orders.On("GetByID", ctx, "order-1").Return(paidOrder(), nil)

	err := svc.HandleWebhook(ctx, []byte("payload"), "sig")
	assert.NoError(t, err)

	orders.AssertNotCalled(t, "ConfirmPaid", mock.Anything, mock.Anything, mock.Anything)
}

// --- ListPaid ---

func TestListPaid_FiltersByUserAndStatus(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	var filter repository.OrderFilter
	orders.On("List", ctx, mock.AnythingOfType("repository.OrderFilter")).
		Return([]domain.Order{*paidOrder()}, 1, nil).
		Run(func(args mock.Arguments) {
			filter = args.Get(1).(repository.OrderFilter)
		})

	got, total, err := svc.ListPaid(ctx, "user-1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)

	require.NotNil(t, filter.Status)
	assert.Equal(t, domain.OrderStatusPaid, *filter.Status)
	require.NotNil(t, filter.UserID)
	assert.Equal(t, "user-1", *filter.UserID)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 10, filter.PerPage)
}

func TestListPaid_AnonymousSeesAllPaidOrders(t *testing.T) {
	orders := new(mockOrderRepository)
	prov := &mockProvider{configured: true}
	svc := newOrderService(orders, prov)
	ctx := context.Background()

	var filter repository.OrderFilter
	orders.On("List", ctx, mock.AnythingOfType("repository.OrderFilter")).
		Return([]domain.Order{}, 0, nil).
		Run(func(args mock.Arguments) {
			filter = args.Get(1).(repository.OrderFilter)
		})

	_, _, err := svc.ListPaid(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Nil(t, filter.UserID)
}
