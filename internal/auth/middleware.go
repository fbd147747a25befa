package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("missing bearer token")

// Actor is the authenticated identity acting on a request.
type Actor struct {
	ID    string
	Email string
	Admin bool
}

type contextKey struct{}

var actorKey contextKey

// ActorFrom returns the actor stored by Require or Optional.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// WithActor returns a context carrying the actor. Exposed for tests.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Require rejects requests without a valid bearer token.
func Require(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(secret, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r.WithContext(WithActor(r.Context(), actor)))
	}
}

// RequireAdmin rejects requests whose actor lacks administrative rights.
func RequireAdmin(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return Require(secret, func(w http.ResponseWriter, r *http.Request) {
		actor, _ := ActorFrom(r.Context())
		if !actor.Admin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	})
}

// Optional stores the actor when a valid token is present and proceeds
// regardless of token state.
func Optional(secret []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if actor, err := actorFromRequest(secret, r); err == nil {
			r = r.WithContext(WithActor(r.Context(), actor))
		}
		next(w, r)
	}
}

func actorFromRequest(secret []byte, r *http.Request) (Actor, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Actor{}, errNoToken
	}
	return parseToken(secret, token)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
