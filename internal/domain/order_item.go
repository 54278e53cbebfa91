package domain

// OrderItem is a materialized line item, created only when an order is
// confirmed paid. ProductID is nil when the catalog entry has since been
// removed.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  int64   `json:"subtotal"`
}

// LineTotal returns price times quantity for this line.
func (i *OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
