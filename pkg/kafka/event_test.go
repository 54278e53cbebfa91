package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderPaidPayload struct {
	OrderID       string `json:"order_id"`
	PaymentIntent string `json:"payment_intent"`
	TotalAmount   int64  `json:"total_amount"`
}

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	payload := orderPaidPayload{OrderID: "ord-1", PaymentIntent: "pi_123", TotalAmount: 259998}

	ev, err := NewEvent("order.paid", "ord-1", "order", "storefront", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "order.paid", ev.EventType)
	assert.Equal(t, "ord-1", ev.AggregateID)
	assert.Equal(t, "order", ev.AggregateType)
	assert.Equal(t, "storefront", ev.Source)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	payload := orderPaidPayload{OrderID: "ord-2", PaymentIntent: "pi_456", TotalAmount: 129999}
	ev, err := NewEvent("order.paid", "ord-2", "order", "storefront", payload)
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("session_id", "cs_test_a")

	data, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)
	assert.Equal(t, "cs_test_a", decoded.Metadata["session_id"])

	var out orderPaidPayload
	require.NoError(t, decoded.UnmarshalData(&out))
	assert.Equal(t, payload, out)
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	assert.Error(t, err)
}
