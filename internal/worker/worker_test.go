package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/services"
	"github.com/emberwell/wellness-backend/internal/store/sqlite"
)

type workerEnv struct {
	worker   *Worker
	insights *services.InsightService
	journal  *services.JournalService
	users    *services.UserService
}

func newWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := config.NewForTesting()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	bus := events.NewBus()
	log := zerolog.Nop()
	states := services.NewStateService(st, cfg, nil, bus, log)
	insights := services.NewInsightService(st, rs, cfg, bus, states, log)
	return &workerEnv{
		worker:   New(st, insights, states, Config{Interval: time.Hour, WidePeriod: 7 * 24 * time.Hour}, log),
		insights: insights,
		journal:  services.NewJournalService(st, bus),
		users:    services.NewUserService(st),
	}
}

func (e *workerEnv) seedUser(t *testing.T, ctx context.Context, id string, entries int) {
	t.Helper()
	if _, err := e.users.CreateUser(ctx, &model.User{UserID: id, Email: id + "@example.test", TimeZone: "UTC"}); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	for i := 0; i < entries; i++ {
		if _, err := e.journal.RecordEntry(ctx, id, "worried and anxious about everything", nil); err != nil {
			t.Fatalf("record entry: %v", err)
		}
	}
}

func (e *workerEnv) countInsights(t *testing.T, ctx context.Context, id string) int {
	t.Helper()
	ins, err := e.insights.ListInsights(ctx, id, nil, nil, 0)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	return len(ins)
}

func TestSweepDistillsAllAccounts(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)

	env.seedUser(t, ctx, "ada", 2)
	env.seedUser(t, ctx, "ben", 2)

	if err := env.worker.Sweep(ctx, false); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for _, id := range []string{"ada", "ben"} {
		if n := env.countInsights(t, ctx, id); n != 1 {
			t.Fatalf("user %s: expected 1 insight, got %d", id, n)
		}
	}
}

func TestSweepToleratesQuietAccounts(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)

	env.seedUser(t, ctx, "cara", 2)
	env.seedUser(t, ctx, "dana", 0)

	if err := env.worker.Sweep(ctx, false); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n := env.countInsights(t, ctx, "cara"); n != 1 {
		t.Fatalf("expected 1 insight for cara, got %d", n)
	}
	if n := env.countInsights(t, ctx, "dana"); n != 0 {
		t.Fatalf("expected no insights for dana, got %d", n)
	}
}

func TestSweepIdempotentWhenNothingNew(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)

	env.seedUser(t, ctx, "eve", 2)

	if err := env.worker.Sweep(ctx, false); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if err := env.worker.Sweep(ctx, false); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n := env.countInsights(t, ctx, "eve"); n != 1 {
		t.Fatalf("sources must be consumed once, got %d insights", n)
	}
}
