package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emberwell/wellness-backend/internal/model"
)

// JWTAuthorizer verifies HS256 tokens minted by the identity provider and
// maps the subject claim to the principal.
type JWTAuthorizer struct {
	key []byte
}

func NewJWTAuthorizer(key []byte) *JWTAuthorizer { return &JWTAuthorizer{key: key} }

func (a *JWTAuthorizer) Authorize(ctx context.Context, token string) (*Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", model.ErrUnauthorized)
	}
	return &Principal{UserID: sub}, nil
}
