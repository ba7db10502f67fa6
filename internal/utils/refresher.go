package utils

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadToken is returned when a token handed to the refresher does
// not carry the claims needed to mint its successor.
var ErrBadToken = errors.New("token missing required claims")

// TokenRefresher exchanges an access token for a fresh one carrying
// the same subject, role and session id.  The session lifecycle
// manager calls it from the refresh timer; the old token's signature
// must verify but its expiry is not checked, since a refresh may
// race the access TTL.
type TokenRefresher struct {
	Secret string
	TTLMin int
}

// Refresh parses the current token and issues a replacement.
func (r TokenRefresher) Refresh(_ context.Context, token string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	tok, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(r.Secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return "", ErrBadToken
	}
	role, _ := claims["role"].(string)
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrBadToken
	}
	fresh, err := NewAccessToken(r.Secret, uint64(sub), role, sid, r.TTLMin)
	if err != nil {
		return "", err
	}
	return fresh.Token, nil
}
