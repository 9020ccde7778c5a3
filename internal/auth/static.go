package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberwell/wellness-backend/internal/model"
)

// devTokenPrefix marks local-development credentials. The remainder of the
// token is taken verbatim as the user id.
const devTokenPrefix = "dev-"

// StaticAuthorizer resolves dev-<userId> tokens without an identity
// provider. Never enable it outside local development.
type StaticAuthorizer struct{}

func NewStaticAuthorizer() *StaticAuthorizer { return &StaticAuthorizer{} }

func (a *StaticAuthorizer) Authorize(ctx context.Context, token string) (*Principal, error) {
	if !strings.HasPrefix(token, devTokenPrefix) || len(token) == len(devTokenPrefix) {
		return nil, fmt.Errorf("%w: static mode expects a dev-<userId> token", model.ErrUnauthorized)
	}
	return &Principal{UserID: token[len(devTokenPrefix):]}, nil
}
