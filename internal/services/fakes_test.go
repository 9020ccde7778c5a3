package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/store"
	"github.com/emberwell/wellness-backend/internal/store/sqlite"
)

// fakeClock lets tests march the engine through days and TTLs.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// bookingStub answers lifecycle booking queries from fixed fields.
type bookingStub struct {
	confirmed bool
	upcoming  bool
	err       error
}

func (b *bookingStub) Confirmed(ctx context.Context, userID string) (bool, error) {
	return b.confirmed, b.err
}

func (b *bookingStub) HasUpcoming(ctx context.Context, userID string) (bool, error) {
	return b.upcoming, b.err
}

// seqTokenSource replays a fixed token sequence to force collisions.
type seqTokenSource struct {
	tokens []string
	i      int
}

func (s *seqTokenSource) Token() (string, error) {
	t := s.tokens[s.i%len(s.tokens)]
	s.i++
	return t, nil
}

type env struct {
	store    store.Store
	cfg      *config.Config
	bus      *events.Bus
	clock    *fakeClock
	booking  *bookingStub
	users    *UserService
	checkins *CheckInService
	journals *JournalService
	insights *InsightService
	states   *StateService
	reports  *ReportService
	shares   *ShareService
	consents *ConsentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	cfg := config.NewForTesting()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	bus := events.NewBus()
	clock := newFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	bk := &bookingStub{}
	log := zerolog.Nop()

	states := NewStateService(s, cfg, bk, bus, log)
	states.nowFn = clock.Now
	checkins := NewCheckInService(s, cfg, bus, states, log)
	checkins.nowFn = clock.Now
	insights := NewInsightService(s, rs, cfg, bus, states, log)
	journals := NewJournalService(s, bus)
	journals.nowFn = clock.Now
	shares := NewShareService(s, cfg, bus, log)
	shares.nowFn = clock.Now
	users := NewUserService(s)
	users.nowFn = clock.Now

	return &env{
		store:    s,
		cfg:      cfg,
		bus:      bus,
		clock:    clock,
		booking:  bk,
		users:    users,
		checkins: checkins,
		journals: journals,
		insights: insights,
		states:   states,
		reports:  NewReportService(s, cfg, bus),
		shares:   shares,
		consents: NewConsentService(s),
	}
}

func (e *env) mustUser(t *testing.T) *model.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), &model.User{Email: "casey@example.test", TimeZone: "UTC"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// checkInDays records one low-mood check-in per day for n consecutive days,
// advancing the clock a day at a time, and returns the offered levels.
func (e *env) checkInDays(t *testing.T, userID string, n int) []int {
	t.Helper()
	levels := make([]int, 0, n)
	for i := 0; i < n; i++ {
		c, err := e.checkins.RecordCheckIn(context.Background(), userID, map[string]string{"mood": "low"})
		if err != nil {
			t.Fatalf("RecordCheckIn day %d: %v", i+1, err)
		}
		levels = append(levels, c.Level)
		e.clock.Advance(24 * time.Hour)
	}
	return levels
}
