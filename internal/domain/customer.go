package domain

import "time"

type Membership string

const (
	MembershipGold   Membership = "G"
	MembershipSilver Membership = "S"
	MembershipBronze Membership = "B"
)

type Customer struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Membership   Membership `json:"membership"`
	IsAdmin      bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Address belongs to exactly one customer and doubles as the immutable
// shipping snapshot referenced by orders.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"-"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Zip        string `json:"zip"`
}
