package auth

import (
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestNewToken(t *testing.T) {
	secret := []byte("test-secret")
	customer := &domain.Customer{
		ID:      "cust-1",
		Email:   "ada@example.com",
		IsAdmin: true,
	}

	t.Run("round-trips the customer identity", func(t *testing.T) {
		token, err := NewToken(secret, customer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actor, err := parseToken(secret, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if actor.ID != "cust-1" {
			t.Errorf("expected actor id cust-1, got %s", actor.ID)
		}
		if actor.Email != "ada@example.com" {
			t.Errorf("expected actor email ada@example.com, got %s", actor.Email)
		}
		if !actor.Admin {
			t.Error("expected admin actor")
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		token, err := NewToken([]byte("other-secret"), customer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := parseToken(secret, token); err == nil {
			t.Error("expected error for wrong signing secret")
		}
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		if _, err := parseToken(secret, "not.a.token"); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}
