// Package services implements the engine behind the HTTP API: accounts,
// check-ins, journals, insight distillation, lifecycle state, reports,
// shares and the consent ledger. Services own domain rules; persistence
// details stay behind store.Store.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// UserService handles account lifecycle.
type UserService struct {
	store store.Store
	nowFn func() time.Time
}

func NewUserService(s store.Store) *UserService {
	return &UserService{store: s, nowFn: time.Now}
}

// CreateUser registers an account and seeds its lifecycle state in the
// exploration phase.
func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u == nil || u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", model.ErrValidation)
	}
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	if u.TimeZone != "" {
		if _, err := time.LoadLocation(u.TimeZone); err != nil {
			return nil, fmt.Errorf("%w: unknown timeZone %q", model.ErrValidation, u.TimeZone)
		}
	}
	created, err := s.store.Users().Create(ctx, u)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.States().Init(ctx, created.UserID, s.nowFn().UTC()); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// DeleteUser erases the account and everything nested under it.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return s.store.Users().Delete(ctx, userID)
}
