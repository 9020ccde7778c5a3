// Package auth resolves the caller behind a request. Two modes exist:
// static for local development and jwt for deployments fronted by the
// identity provider.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/model"
)

// Principal is the authenticated subject of a request.
type Principal struct {
	UserID string `json:"userId"`
}

// Authorizer turns a bearer credential into a principal.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*Principal, error)
}

// ExtractBearer pulls the bearer token from the Authorization header.
func ExtractBearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", fmt.Errorf("%w: missing Authorization header", model.ErrUnauthorized)
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) || len(h) == len(prefix) {
		return "", fmt.Errorf("%w: Authorization header must be a bearer token", model.ErrUnauthorized)
	}
	return h[len(prefix):], nil
}

// NewFromConfig selects the authorizer for the configured auth mode.
func NewFromConfig(cfg *config.Config) (Authorizer, error) {
	switch cfg.AuthMode {
	case "static":
		return NewStaticAuthorizer(), nil
	case "jwt":
		return NewJWTAuthorizer([]byte(cfg.JWTSigningKey)), nil
	}
	return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
}
