package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestRecordCheckInLevelProgression(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)

	// DepthStepSize 3: the offered depth steps up every third consecutive day.
	levels := e.checkInDays(t, u.UserID, 7)
	want := []int{1, 1, 1, 2, 2, 2, 3}
	if !reflect.DeepEqual(levels, want) {
		t.Fatalf("level progression: got %v want %v", levels, want)
	}
}

func TestRecordCheckInSameDayConflict(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "ok"}); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "ok"}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("second same-day check-in: want ErrConflict, got %v", err)
	}

	elig, err := e.checkins.CanUserCheckIn(ctx, u.UserID)
	if err != nil {
		t.Fatalf("CanUserCheckIn: %v", err)
	}
	if elig.Eligible || elig.Reason != "already_checked_in_today" {
		t.Fatalf("eligibility after check-in: %+v", elig)
	}

	// Next day the user is eligible again.
	e.clock.Advance(24 * time.Hour)
	elig, err = e.checkins.CanUserCheckIn(ctx, u.UserID)
	if err != nil || !elig.Eligible {
		t.Fatalf("eligibility next day: %+v err=%v", elig, err)
	}
}

func TestCheckInStreakResetsAfterGap(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	e.checkInDays(t, u.UserID, 7) // ends at level 3, clock now on day 8

	// Two missed days exceed the one-day grace.
	e.clock.Advance(2 * 24 * time.Hour)
	c, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "ok"})
	if err != nil {
		t.Fatalf("check-in after gap: %v", err)
	}
	if c.Level != 1 {
		t.Fatalf("level after gap: got %d want 1", c.Level)
	}
}

func TestCheckInGapWithinGraceKeepsStreak(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	e.checkInDays(t, u.UserID, 6) // clock now on day 7

	// Skip exactly one day: within the grace allowance.
	e.clock.Advance(24 * time.Hour)
	c, err := e.checkins.RecordCheckIn(ctx, u.UserID, map[string]string{"mood": "ok"})
	if err != nil {
		t.Fatalf("check-in after grace gap: %v", err)
	}
	if c.Level != 3 {
		t.Fatalf("level after grace gap: got %d want 3", c.Level)
	}
}

func TestCheckInLevelCapsAtMax(t *testing.T) {
	e := newEnv(t)
	e.cfg.DepthMaxLevel = 2
	u := e.mustUser(t)

	levels := e.checkInDays(t, u.UserID, 9)
	for i, lvl := range levels {
		if lvl > 2 {
			t.Fatalf("day %d: level %d exceeds cap", i+1, lvl)
		}
	}
	if levels[len(levels)-1] != 2 {
		t.Fatalf("final level: got %d want 2", levels[len(levels)-1])
	}
}

func TestGetCurrentCheckInLevel(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	lvl, err := e.checkins.GetCurrentCheckInLevel(ctx, u.UserID)
	if err != nil || lvl != 1 {
		t.Fatalf("initial level: got %d err=%v", lvl, err)
	}
	e.checkInDays(t, u.UserID, 3)
	lvl, err = e.checkins.GetCurrentCheckInLevel(ctx, u.UserID)
	if err != nil || lvl != 2 {
		t.Fatalf("level after 3-day streak: got %d err=%v", lvl, err)
	}
}

func TestRecordCheckInValidation(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	if _, err := e.checkins.RecordCheckIn(ctx, u.UserID, nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("empty responses: want ErrValidation, got %v", err)
	}
	if _, err := e.checkins.RecordCheckIn(ctx, "no-such-user", map[string]string{"mood": "ok"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("unknown user: want ErrNotFound, got %v", err)
	}
}
