package domain

import "time"

type Collection struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Products []Product `json:"products,omitempty"`
}

type Product struct {
	ID           string         `json:"id"`
	CollectionID string         `json:"collection_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Price        int64          `json:"price"`
	Inventory    int            `json:"inventory"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Images       []ProductImage `json:"images,omitempty"`
}

type ProductImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Review struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
