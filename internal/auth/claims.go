package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const tokenTTL = 24 * time.Hour

type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// NewToken issues a signed HS256 token for the customer. The customer id
// travels in the subject claim and is the only identity the API trusts.
func NewToken(secret []byte, customer *domain.Customer) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: customer.Email,
		Admin: customer.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tokenString string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Actor{}, jwt.ErrTokenUnverifiable
	}

	return Actor{
		ID:    claims.Subject,
		Email: claims.Email,
		Admin: claims.Admin,
	}, nil
}
