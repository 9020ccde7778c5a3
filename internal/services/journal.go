package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

const maxJournalChars = 20000

// JournalService records free-form journal entries. Entries feed insight
// generation the same way check-ins do.
type JournalService struct {
	store store.Store
	bus   *events.Bus
	nowFn func() time.Time
}

func NewJournalService(s store.Store, bus *events.Bus) *JournalService {
	return &JournalService{store: s, bus: bus, nowFn: time.Now}
}

func (s *JournalService) RecordEntry(ctx context.Context, userID, text string, mood *string) (*model.JournalEntry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text must not be empty", model.ErrValidation)
	}
	if len(text) > maxJournalChars {
		return nil, fmt.Errorf("%w: text exceeds %d characters", model.ErrValidation, maxJournalChars)
	}
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	created, err := s.store.Journals().Create(ctx, &model.JournalEntry{
		UserID: userID,
		Text:   text,
		Mood:   mood,
	})
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindJournalRecorded, UserID: userID, TargetID: created.EntryID})
	return created, nil
}

func (s *JournalService) GetEntry(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	return s.store.Journals().GetByID(ctx, userID, entryID)
}

func (s *JournalService) ListEntries(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	return s.store.Journals().List(ctx, userID, limit)
}

// ShareEntry records the user's consent to disclose a journal entry to their
// therapist. The entry itself stays where it is; only the ledger changes.
func (s *JournalService) ShareEntry(ctx context.Context, userID, entryID string) error {
	if _, err := s.store.Journals().GetByID(ctx, userID, entryID); err != nil {
		return err
	}
	return s.store.Consents().Append(ctx, &model.ConsentEntry{
		UserID:   userID,
		Action:   model.ConsentJournalShared,
		TargetID: entryID,
		At:       s.nowFn().UTC(),
	})
}
