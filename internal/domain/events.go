package domain

import "time"

// OrderPlacedEvent is published after a placement transaction commits.
type OrderPlacedEvent struct {
	OrderID       string      `json:"order_id"`
	CustomerID    string      `json:"customer_id"`
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	Total         int64       `json:"total"`
	PlacedAt      time.Time   `json:"placed_at"`
}
