package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	email := userID + "@example.test"

	// Users
	u := &model.User{UserID: userID, Email: email, TimeZone: "UTC"}
	if _, err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got == nil || got.UserID != userID {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "absent-"+userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser absent: want ErrNotFound, got %v", err)
	}
	if all, err := s.Users().List(ctx); err != nil || !containsUser(all, userID) {
		t.Fatalf("ListUsers: err=%v users=%d", err, len(all))
	}

	// CheckIns: one per (user, day)
	c1, err := s.CheckIns().Create(ctx, &model.CheckIn{UserID: userID, Day: "2026-01-01", Level: 1, Responses: map[string]string{"mood": "low"}})
	if err != nil {
		t.Fatalf("CreateCheckIn: %v", err)
	}
	if c1.CheckInID == "" || c1.Processed {
		t.Fatalf("CreateCheckIn: bad record %+v", c1)
	}
	if _, err := s.CheckIns().Create(ctx, &model.CheckIn{UserID: userID, Day: "2026-01-01", Level: 1, Responses: map[string]string{}}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate same-day check-in: want ErrConflict, got %v", err)
	}
	c2, err := s.CheckIns().Create(ctx, &model.CheckIn{UserID: userID, Day: "2026-01-02", Level: 1, Responses: map[string]string{"mood": "low"}})
	if err != nil {
		t.Fatalf("CreateCheckIn day 2: %v", err)
	}
	if latest, err := s.CheckIns().Latest(ctx, userID); err != nil || latest.CheckInID != c2.CheckInID {
		t.Fatalf("Latest: got=%v err=%v", latest, err)
	}
	if n, err := s.CheckIns().Count(ctx, userID); err != nil || n != 2 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}
	if lst, err := s.CheckIns().List(ctx, model.ListCheckInsRequest{UserID: userID, Limit: 1}); err != nil || len(lst) != 1 {
		t.Fatalf("List limit: n=%d err=%v", len(lst), err)
	}

	// Journals
	j1, err := s.Journals().Create(ctx, &model.JournalEntry{UserID: userID, Text: "long day, could not sleep"})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	if lst, err := s.Journals().List(ctx, userID, 0); err != nil || len(lst) != 1 {
		t.Fatalf("ListJournals: n=%d err=%v", len(lst), err)
	}

	// Insights consume sources atomically
	unprocessed, err := s.CheckIns().ListUnprocessed(ctx, userID, false)
	if err != nil || len(unprocessed) != 2 {
		t.Fatalf("ListUnprocessed: n=%d err=%v", len(unprocessed), err)
	}
	sources := []model.SourceRef{
		{Kind: model.SourceCheckIn, ID: c1.CheckInID},
		{Kind: model.SourceCheckIn, ID: c2.CheckInID},
	}
	ins, err := s.Insights().CreateWithSources(ctx, &model.Insight{
		UserID:      userID,
		Pattern:     "low_mood",
		Recurrence:  model.RecurrenceSignal{Strength: 0.8, SourceCount: 2, DistinctDays: 2},
		TimeContext: "2026-01-01..2026-01-02",
	}, sources)
	if err != nil {
		t.Fatalf("CreateWithSources: %v", err)
	}
	if ins.InsightID == "" || len(ins.SourceIDs) != 2 {
		t.Fatalf("CreateWithSources: bad record %+v", ins)
	}
	if lst, err := s.CheckIns().ListUnprocessed(ctx, userID, false); err != nil || len(lst) != 0 {
		t.Fatalf("sources not consumed: n=%d err=%v", len(lst), err)
	}
	// A source owned by another user aborts the whole commit.
	if _, err := s.Insights().CreateWithSources(ctx, &model.Insight{UserID: userID, Pattern: "x"}, []model.SourceRef{{Kind: model.SourceCheckIn, ID: "not-there"}}); !errors.Is(err, model.ErrInvariant) {
		t.Fatalf("foreign source: want ErrInvariant, got %v", err)
	}
	if n, err := s.Insights().Count(ctx, userID); err != nil || n != 1 {
		t.Fatalf("Insights.Count after aborted commit: n=%d err=%v", n, err)
	}

	// Low-signal marking keeps the source for wider passes
	if err := s.Insights().MarkLowSignal(ctx, userID, []model.SourceRef{{Kind: model.SourceJournal, ID: j1.EntryID}}); err != nil {
		t.Fatalf("MarkLowSignal: %v", err)
	}
	if lst, err := s.Journals().ListUnprocessed(ctx, userID, false); err != nil || len(lst) != 0 {
		t.Fatalf("low-signal journal still in narrow batch: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Journals().ListUnprocessed(ctx, userID, true); err != nil || len(lst) != 1 {
		t.Fatalf("low-signal journal missing from wide batch: n=%d err=%v", len(lst), err)
	}

	// Insight period listing
	now := time.Now().UTC().Add(time.Minute)
	past := now.Add(-time.Hour)
	if lst, err := s.Insights().List(ctx, store.ListInsightsRequest{UserID: userID, From: &past, To: &now}); err != nil || len(lst) != 1 {
		t.Fatalf("ListInsights period: n=%d err=%v", len(lst), err)
	}

	// States: singleton init + transactional append
	at := time.Now().UTC().Truncate(time.Second)
	if _, err := s.States().Init(ctx, userID, at); err != nil {
		t.Fatalf("InitState: %v", err)
	}
	if _, err := s.States().Init(ctx, userID, at); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("double InitState: want ErrConflict, got %v", err)
	}
	st, err := s.States().Append(ctx, userID, model.StateChange{From: model.PhaseExploration, To: model.PhasePreparing, Reason: "checkin_threshold", At: at.Add(time.Second)})
	if err != nil {
		t.Fatalf("AppendState: %v", err)
	}
	if st.CurrentPhase != model.PhasePreparing || len(st.History) != 1 {
		t.Fatalf("AppendState: state=%+v", st)
	}
	// Appending from a stale phase must not apply.
	if _, err := s.States().Append(ctx, userID, model.StateChange{From: model.PhaseExploration, To: model.PhasePreparing, Reason: "stale", At: at.Add(2 * time.Second)}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("stale AppendState: want ErrConflict, got %v", err)
	}

	// Reports
	rep, err := s.Reports().Create(ctx, &model.Report{
		UserID:      userID,
		Type:        model.ReportWeeklySummary,
		PeriodStart: past,
		PeriodEnd:   now,
		InsightIDs:  []string{ins.InsightID},
		Content: model.ReportContent{
			Themes:      []model.Theme{{Pattern: "low_mood", Frequency: 1, LastSupport: now}},
			Patterns:    []model.Pattern{{Pattern: "low_mood", Strength: 0.8}},
			Comparisons: []model.Comparison{},
		},
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	got, err := s.Reports().GetByID(ctx, userID, rep.ReportID)
	if err != nil || got.Type != model.ReportWeeklySummary || len(got.InsightIDs) != 1 {
		t.Fatalf("GetReport: got=%+v err=%v", got, err)
	}
	if _, err := s.Reports().GetByID(ctx, "someone-else", rep.ReportID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetReport wrong owner: want ErrNotFound, got %v", err)
	}

	// Shares: token unique system-wide, revoke terminal and idempotent
	sh, err := s.Shares().Create(ctx, &model.ShareRecord{Token: "tok-" + userID, UserID: userID, ReportID: rep.ReportID, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if _, err := s.Shares().Create(ctx, &model.ShareRecord{Token: "tok-" + userID, UserID: userID, ReportID: rep.ReportID, ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("duplicate token: want ErrConflict, got %v", err)
	}
	if err := s.Shares().AppendAccess(ctx, sh.ShareID, model.ShareAccess{At: now, Outcome: "granted"}); err != nil {
		t.Fatalf("AppendAccess: %v", err)
	}
	byTok, err := s.Shares().GetByToken(ctx, "tok-"+userID)
	if err != nil || byTok.ShareID != sh.ShareID || len(byTok.AccessLog) != 1 {
		t.Fatalf("GetByToken: got=%+v err=%v", byTok, err)
	}
	if err := s.Shares().Revoke(ctx, userID, sh.ShareID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := s.Shares().Revoke(ctx, userID, sh.ShareID); err != nil {
		t.Fatalf("Revoke twice: %v", err)
	}
	if got, err := s.Shares().GetByID(ctx, userID, sh.ShareID); err != nil || !got.Revoked {
		t.Fatalf("Revoked flag: got=%+v err=%v", got, err)
	}

	// Consents: append-only, ordered
	for _, action := range []string{model.ConsentReportShared, model.ConsentShareRevoked} {
		if err := s.Consents().Append(ctx, &model.ConsentEntry{UserID: userID, Action: action, TargetID: rep.ReportID, At: time.Now().UTC()}); err != nil {
			t.Fatalf("AppendConsent %s: %v", action, err)
		}
	}
	if lst, err := s.Consents().List(ctx, userID); err != nil || len(lst) != 2 || lst[0].Action != model.ConsentReportShared {
		t.Fatalf("ListConsents: got=%v err=%v", lst, err)
	}

	// Account erasure removes every nested collection
	if err := s.Users().Delete(ctx, userID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.Users().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("user survives erasure: %v", err)
	}
	if n, err := s.CheckIns().Count(ctx, userID); err != nil || n != 0 {
		t.Fatalf("check-ins survive erasure: n=%d err=%v", n, err)
	}
	if lst, err := s.Consents().List(ctx, userID); err != nil || len(lst) != 0 {
		t.Fatalf("consent log survives erasure: n=%d err=%v", len(lst), err)
	}
}

func containsUser(users []*model.User, userID string) bool {
	for _, u := range users {
		if u.UserID == userID {
			return true
		}
	}
	return false
}
