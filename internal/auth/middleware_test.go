package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestRequire(t *testing.T) {
	secret := []byte("test-secret")

	next := func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			t.Error("expected actor in context")
		}
		if actor.ID == "" {
			t.Error("expected non-empty actor id")
		}
		w.WriteHeader(http.StatusOK)
	}

	t.Run("rejects missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()

		Require(secret, next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		Require(secret, next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		token, err := NewToken(secret, &domain.Customer{ID: "cust-1", Email: "ada@example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Require(secret, next)(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	secret := []byte("test-secret")

	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	t.Run("rejects a non-admin actor", func(t *testing.T) {
		token, err := NewToken(secret, &domain.Customer{ID: "cust-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/products", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		RequireAdmin(secret, next)(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("accepts an admin actor", func(t *testing.T) {
		token, err := NewToken(secret, &domain.Customer{ID: "cust-2", IsAdmin: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/products", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		RequireAdmin(secret, next)(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("rejects missing token before checking admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/products", nil)
		rec := httptest.NewRecorder()

		RequireAdmin(secret, next)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}

func TestOptional(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("proceeds without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		rec := httptest.NewRecorder()

		Optional(secret, func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ActorFrom(r.Context()); ok {
				t.Error("expected no actor in context")
			}
			w.WriteHeader(http.StatusOK)
		})(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("stores the actor when the token is valid", func(t *testing.T) {
		token, err := NewToken(secret, &domain.Customer{ID: "cust-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Optional(secret, func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				t.Fatal("expected actor in context")
			}
			if actor.ID != "cust-1" {
				t.Errorf("expected actor id cust-1, got %s", actor.ID)
			}
			w.WriteHeader(http.StatusOK)
		})(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}
