package pocketbase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// decodeToken reads the claims and exp of a PocketBase auth token. exp is
// nil when the claim is absent. The signature is not verified.
func decodeToken(token string) (jwt.MapClaims, *jwt.NumericDate, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, nil, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, nil, err
	}
	return claims, exp, nil
}

// TokenExpiry returns the exp claim of a PocketBase auth token. ok is false
// when the token is not a decodable JWT or carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	_, date, err := decodeToken(token)
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// TokenValid reports whether token is a non-empty JWT with a non-empty
// payload that has not expired. A token without exp never expires.
func TokenValid(token string) bool {
	if token == "" {
		return false
	}
	claims, date, err := decodeToken(token)
	if err != nil || len(claims) == 0 {
		return false
	}
	if date == nil {
		return true
	}
	return time.Now().Before(date.Time)
}
