package services

import (
	"context"

	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// ConsentService reads the append-only consent ledger. Writes happen as a
// side effect of the sharing operations, never directly.
type ConsentService struct {
	store store.Store
}

func NewConsentService(s store.Store) *ConsentService {
	return &ConsentService{store: s}
}

func (s *ConsentService) ListConsents(ctx context.Context, userID string) ([]*model.ConsentEntry, error) {
	return s.store.Consents().List(ctx, userID)
}
