package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

// SnapshotVersion is the current items_snapshot schema version.
const SnapshotVersion = 1

// Order represents a checkout order. TotalAmount is minor units (cents).
// UserID is nil for guest checkouts. SessionID and PaymentIntent hold the
// payment provider's identifiers once known.
type Order struct {
	ID            string       `json:"id"`
	UserID        *string      `json:"user_id,omitempty"`
	SessionID     string       `json:"session_id,omitempty"`
	PaymentIntent string       `json:"payment_intent,omitempty"`
	Status        string       `json:"status"`
	TotalAmount   int64        `json:"total_amount"`
	Snapshot      ItemSnapshot `json:"items_snapshot"`
	Items         []OrderItem  `json:"items,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ItemSnapshot is the versioned record of what was purchased, captured at
// order creation so later catalog edits cannot change it.
type ItemSnapshot struct {
	Version int            `json:"version"`
	Items   []SnapshotItem `json:"items"`
}

// SnapshotItem is one purchased line inside the snapshot.
type SnapshotItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// NewSnapshot builds a versioned snapshot from the given lines.
func NewSnapshot(items []SnapshotItem) ItemSnapshot {
	return ItemSnapshot{Version: SnapshotVersion, Items: items}
}

// Total returns the sum of the snapshot subtotals.
func (s ItemSnapshot) Total() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.Subtotal
	}
	return total
}

// Marshal serializes the snapshot for storage.
func (s ItemSnapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// ParseSnapshot decodes a stored snapshot. A payload that does not decode or
// carries an unknown version is an error; orders must never silently lose
// their purchase record.
func ParseSnapshot(data []byte) (ItemSnapshot, error) {
	var s ItemSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return ItemSnapshot{}, fmt.Errorf("parse items snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return ItemSnapshot{}, fmt.Errorf("parse items snapshot: unsupported version %d", s.Version)
	}
	return s, nil
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusFailed,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Paid is
// terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
		OrderStatusPaid:      {},
		OrderStatusFailed:    {},
		OrderStatusCancelled: {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsPaid reports whether the order has completed payment.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
