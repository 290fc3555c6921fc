package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when the token cannot be decoded at all.
	ErrMalformedToken = errors.New("jwt: malformed token")
	// ErrNoClaim is returned when the requested claim is absent.
	ErrNoClaim = errors.New("jwt: claim not present")
)

// Claims decodes the token payload without verifying the signature and
// returns its claims. The client holds no signing key, so verification is
// the backend's job; decoded claims are advisory only and must never be
// used as an authorization decision.
func Claims(token string) (jwtlib.MapClaims, error) {
	claims := jwtlib.MapClaims{}
	parser := jwtlib.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim as a time.
func ExpiresAt(token string) (time.Time, error) {
	claims, err := Claims(token)
	if err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoClaim
	}
	return exp.Time, nil
}

// Subject returns the token's sub claim.
func Subject(token string) (string, error) {
	claims, err := Claims(token)
	if err != nil {
		return "", err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrNoClaim
	}
	return sub, nil
}
