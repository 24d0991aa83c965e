package shared

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT bearer credential without verifying its signature.
//
// The client never holds the signing key; the API remains the authority on validity.
// Returns false for opaque (non-JWT) credentials or tokens without exp.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
