package domain

import "time"

// CartItem is one (product, quantity, captured price) line. Price is
// captured from the product when the line is first created and never
// recomputed afterwards, even if the live product price changes.
type CartItem struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
	Total        int64  `json:"total"`
}

// Cart is an ephemeral bag of lines scoped to one user. It is destroyed
// atomically when an order is placed from it.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Items     []CartItem `json:"items"`
	Total     int64      `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
}

// SumItems derives the cart total from its lines. Totals are recomputed
// on every read, never stored.
func (c *Cart) SumItems() int64 {
	var total int64
	for _, item := range c.Items {
		total += int64(item.Quantity) * item.Price
	}
	return total
}
