package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether the token's embedded expiry is in the past at
// the given instant. The signature is never verified here; the backend is
// the authority and this check only exists to stop sending dead tokens.
// Fail-closed: a missing or malformed token counts as expired.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Time.Before(now)
}

// TokenExpired reports whether the stored token is expired, fail-closed.
func (s *Store) TokenExpired() bool {
	return TokenExpired(s.Token(), time.Now())
}

// TokenClaims returns the unverified claims of the stored token, nil when no
// usable token is present.
func (s *Store) TokenClaims() map[string]any {
	token := s.Token()
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}
