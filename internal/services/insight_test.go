package services

import (
	"context"
	"testing"
	"time"
)

func TestGenerateInsightsGroupsByPattern(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	// Two low-mood check-ins on consecutive days.
	e.checkInDays(t, u.UserID, 2)

	created, err := e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("insights created: got %d want 1", len(created))
	}
	ins := created[0]
	if ins.Pattern != "low_mood" {
		t.Fatalf("pattern: got %q", ins.Pattern)
	}
	if ins.Recurrence.SourceCount != 2 || ins.Recurrence.DistinctDays != 2 {
		t.Fatalf("recurrence: %+v", ins.Recurrence)
	}
	if ins.Recurrence.Strength < 0.49 {
		t.Fatalf("strength for 2 sources over 2 days: %v", ins.Recurrence.Strength)
	}
	if ins.TimeContext != "2026-03-02..2026-03-03" {
		t.Fatalf("time context: %q", ins.TimeContext)
	}

	// Sources are consumed; a second pass finds nothing.
	again, err := e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil {
		t.Fatalf("second GenerateInsights: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second pass created %d insights", len(again))
	}
}

func TestGenerateInsightsMixesJournalAndCheckInSources(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "anxious"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	e.clock.Advance(24 * time.Hour)
	if _, err := e.journals.RecordEntry(ctx, u.UserID, "worried about tomorrow, mind racing", nil); err != nil {
		t.Fatalf("journal: %v", err)
	}

	created, err := e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if len(created) != 1 || created[0].Pattern != "anxiety" {
		t.Fatalf("created: %+v", created)
	}
	if len(created[0].SourceIDs) != 2 {
		t.Fatalf("source refs: %+v", created[0].SourceIDs)
	}
}

func TestGenerateInsightsBelowThresholdMarksLowSignal(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	// A single matching source stays below the two-source minimum.
	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "low"}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	created, err := e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil || len(created) != 0 {
		t.Fatalf("narrow pass: created=%d err=%v", len(created), err)
	}

	// Narrow passes no longer see the source.
	created, err = e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil || len(created) != 0 {
		t.Fatalf("repeat narrow pass: created=%d err=%v", len(created), err)
	}

	// A wider pass pairs it with a fresh low-mood day.
	e.clock.Advance(24 * time.Hour)
	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "very_low"}); err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	created, err = e.insights.GenerateInsights(ctx, u.UserID, true)
	if err != nil {
		t.Fatalf("wide pass: %v", err)
	}
	if len(created) != 1 || created[0].Recurrence.SourceCount != 2 {
		t.Fatalf("wide pass created: %+v", created)
	}
}

func TestGenerateInsightsUnmatchedSourceIsLowSignal(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	if _, err := e.journals.RecordEntry(ctx, u.UserID, "ate lunch at the new place", nil); err != nil {
		t.Fatalf("journal: %v", err)
	}
	created, err := e.insights.GenerateInsights(ctx, u.UserID, false)
	if err != nil || len(created) != 0 {
		t.Fatalf("pass: created=%d err=%v", len(created), err)
	}
	entries, err := e.store.Journals().ListUnprocessed(ctx, u.UserID, true)
	if err != nil || len(entries) != 1 || !entries[0].LowSignal {
		t.Fatalf("unmatched source not low-signal: %+v err=%v", entries, err)
	}
}
