package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestRecordJournalEntry(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	mood := "tense"
	entry, err := e.journals.RecordEntry(ctx, u.UserID, "rough afternoon at work", &mood)
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}
	if entry.EntryID == "" || entry.Mood == nil || *entry.Mood != "tense" {
		t.Fatalf("entry: %+v", entry)
	}
	lst, err := e.journals.ListEntries(ctx, u.UserID, 0)
	if err != nil || len(lst) != 1 {
		t.Fatalf("ListEntries: n=%d err=%v", len(lst), err)
	}
}

func TestRecordJournalEntryValidation(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	if _, err := e.journals.RecordEntry(ctx, u.UserID, "   ", nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("blank text: want ErrValidation, got %v", err)
	}
	long := strings.Repeat("a", maxJournalChars+1)
	if _, err := e.journals.RecordEntry(ctx, u.UserID, long, nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("oversize text: want ErrValidation, got %v", err)
	}
}

func TestShareJournalEntryAppendsConsent(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	entry, err := e.journals.RecordEntry(ctx, u.UserID, "something worth discussing", nil)
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}
	if err := e.journals.ShareEntry(ctx, u.UserID, entry.EntryID); err != nil {
		t.Fatalf("ShareEntry: %v", err)
	}
	consents, err := e.consents.ListConsents(ctx, u.UserID)
	if err != nil || len(consents) != 1 {
		t.Fatalf("consents: %+v err=%v", consents, err)
	}
	if consents[0].Action != model.ConsentJournalShared || consents[0].TargetID != entry.EntryID {
		t.Fatalf("consent entry: %+v", consents[0])
	}
	if err := e.journals.ShareEntry(ctx, u.UserID, "no-such-entry"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("share unknown entry: want ErrNotFound, got %v", err)
	}
}
