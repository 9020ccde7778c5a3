package services

import (
	"context"
	"testing"
	"time"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestLifecycleProgressionThroughAllPhases(t *testing.T) {
	e := newEnv(t)
	e.cfg.PreparingCheckInCount = 2
	e.cfg.InTherapyCheckInCount = 100
	e.cfg.MaintenanceAfter = 48 * time.Hour
	e.cfg.InactivityWindow = 1000 * 24 * time.Hour
	u := e.mustUser(t)
	ctx := context.Background()

	st, err := e.states.GetState(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseExploration {
		t.Fatalf("initial state: %+v err=%v", st, err)
	}

	// Two check-ins plus one insight satisfy the engagement threshold.
	e.checkInDays(t, u.UserID, 2)
	if _, err := e.insights.GenerateInsights(ctx, u.UserID, false); err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	st, err = e.states.GetState(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhasePreparing {
		t.Fatalf("after engagement: %+v err=%v", st, err)
	}

	// A confirmed booking moves preparing to in_therapy.
	e.booking.confirmed = true
	st, err = e.states.Evaluate(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseInTherapy {
		t.Fatalf("after booking: %+v err=%v", st, err)
	}

	// Past the maintenance window with no upcoming session.
	e.clock.Advance(72 * time.Hour)
	e.checkInDays(t, u.UserID, 1) // stay active so regression does not fire
	st, err = e.states.Evaluate(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseMaintenance {
		t.Fatalf("after maintenance window: %+v err=%v", st, err)
	}

	if len(st.History) != 3 {
		t.Fatalf("history length: %d", len(st.History))
	}
	for i, want := range []model.Phase{model.PhasePreparing, model.PhaseInTherapy, model.PhaseMaintenance} {
		if st.History[i].To != want {
			t.Fatalf("history[%d]: %+v", i, st.History[i])
		}
	}
}

func TestLifecycleInactivityRegression(t *testing.T) {
	e := newEnv(t)
	e.cfg.PreparingCheckInCount = 2
	u := e.mustUser(t)
	ctx := context.Background()

	e.checkInDays(t, u.UserID, 2)
	if _, err := e.insights.GenerateInsights(ctx, u.UserID, false); err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	st, err := e.states.GetState(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhasePreparing {
		t.Fatalf("setup: %+v err=%v", st, err)
	}

	e.clock.Advance(e.cfg.InactivityWindow + 24*time.Hour)
	st, err = e.states.Evaluate(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseExploration {
		t.Fatalf("after inactivity: %+v err=%v", st, err)
	}
	last := st.History[len(st.History)-1]
	if last.Reason != "inactivity" || last.From != model.PhasePreparing {
		t.Fatalf("regression change: %+v", last)
	}
}

func TestLifecycleEvaluateIsStableWhenNothingApplies(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st, err := e.states.Evaluate(ctx, u.UserID)
		if err != nil || st.CurrentPhase != model.PhaseExploration || len(st.History) != 0 {
			t.Fatalf("evaluation %d: %+v err=%v", i, st, err)
		}
	}
}

func TestConfirmBookingOnlyMovesPreparing(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	// In exploration the signal is a recorded no-op.
	st, err := e.states.ConfirmBooking(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseExploration {
		t.Fatalf("confirm in exploration: %+v err=%v", st, err)
	}

	if _, err := e.store.States().Append(ctx, u.UserID, model.StateChange{
		From: model.PhaseExploration, To: model.PhasePreparing, Reason: "engagement_threshold", At: e.clock.Now(),
	}); err != nil {
		t.Fatalf("seed preparing: %v", err)
	}
	st, err = e.states.ConfirmBooking(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseInTherapy {
		t.Fatalf("confirm in preparing: %+v err=%v", st, err)
	}
	if last := st.History[len(st.History)-1]; last.Reason != "booking_confirmed" {
		t.Fatalf("change reason: %+v", last)
	}
}

func TestLifecycleBookingOutageDoesNotBlockThresholdEdge(t *testing.T) {
	e := newEnv(t)
	e.cfg.PreparingCheckInCount = 2
	e.cfg.InTherapyCheckInCount = 3
	u := e.mustUser(t)
	ctx := context.Background()

	e.booking.err = context.DeadlineExceeded
	e.checkInDays(t, u.UserID, 2)
	if _, err := e.insights.GenerateInsights(ctx, u.UserID, false); err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	e.checkInDays(t, u.UserID, 1)

	st, err := e.states.GetState(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseInTherapy {
		t.Fatalf("threshold edge during outage: %+v err=%v", st, err)
	}
}
