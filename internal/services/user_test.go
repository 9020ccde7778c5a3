package services

import (
	"context"
	"errors"
	"testing"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestCreateUserSeedsLifecycleState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.CreateUser(ctx, &model.User{Email: "jo@example.test", TimeZone: "America/New_York"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.UserID == "" {
		t.Fatal("no userId assigned")
	}
	st, err := e.states.GetState(ctx, u.UserID)
	if err != nil || st.CurrentPhase != model.PhaseExploration {
		t.Fatalf("seeded state: %+v err=%v", st, err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.users.CreateUser(ctx, &model.User{Email: "not-an-email"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("bad email: want ErrValidation, got %v", err)
	}
	if _, err := e.users.CreateUser(ctx, &model.User{Email: "jo@example.test", TimeZone: "Mars/Olympus"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("bad timezone: want ErrValidation, got %v", err)
	}
}

func TestDeleteUserErasesEverything(t *testing.T) {
	e := newEnv(t)
	u := e.mustUser(t)
	ctx := context.Background()

	e.checkInDays(t, u.UserID, 2)
	if _, err := e.insights.GenerateInsights(ctx, u.UserID, false); err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if err := e.users.DeleteUser(ctx, u.UserID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := e.users.GetUser(ctx, u.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("user survives erasure: %v", err)
	}
	if n, err := e.store.Insights().Count(ctx, u.UserID); err != nil || n != 0 {
		t.Fatalf("insights survive erasure: n=%d err=%v", n, err)
	}
}
