// Package auth verifies bearer tokens minted by the external identity
// service. This backend never issues tokens; it only checks the shared-secret
// signature and reads the identity out of the claims.
package auth

import (
	"fmt"
	"strings"

	"github.com/aryankapoor/zapkart-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// IdentityClaims is the typed view of the identity provider's JWT. The
// subject claim carries the provider-assigned user id.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the provider-assigned identity for the token.
func (c *IdentityClaims) UserID() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Subject)
}

// ParseIdentityToken validates the JWT string and returns typed claims.
func ParseIdentityToken(cfg config.JWTConfig, tokenString string) (*IdentityClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt: %w", err)
	}
	if claims.UserID() == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return claims, nil
}
