package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusComplete OrderStatus = "complete"
	OrderStatusFailed   OrderStatus = "failed"
)

// ValidOrderStatus reports whether s is one of the known statuses.
// There is no enforced transition graph; status is set administratively.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusComplete, OrderStatusFailed:
		return true
	}
	return false
}

// OrderItem is a copy of a cart line frozen at placement time. The price
// is the captured cart price, not the live product price.
type OrderItem struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
	Total        int64  `json:"total"`
}

type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	Status          OrderStatus `json:"status"`
	PlacedAt        time.Time   `json:"placed_at"`
	ShippingAddress Address     `json:"shipping_address"`
	Items           []OrderItem `json:"items"`
	Total           int64       `json:"total"`
}

func (o *Order) SumItems() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.Price
	}
	return total
}
