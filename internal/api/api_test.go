package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/emberwell/wellness-backend/internal/auth"
	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/health"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/services"
	"github.com/emberwell/wellness-backend/internal/store/sqlite"
)

type alwaysHealthy struct{}

func (alwaysHealthy) Name() string                               { return "store" }
func (alwaysHealthy) IsHealthy() bool                            { return true }
func (alwaysHealthy) Start(ctx context.Context, _ time.Duration) {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	cfg := config.NewForTesting()
	rs, err := rules.Default()
	require.NoError(t, err)
	bus := events.NewBus()
	log := zerolog.Nop()

	states := services.NewStateService(s, cfg, nil, bus, log)
	checkins := services.NewCheckInService(s, cfg, bus, states, log)
	insights := services.NewInsightService(s, rs, cfg, bus, states, log)
	reports := services.NewReportService(s, cfg, bus)
	shares := services.NewShareService(s, cfg, bus, log)

	svcHealth := health.NewServiceHealthChecker(log)
	router := NewRouter(RouterDeps{
		Auth:     auth.NewStaticAuthorizer(),
		Users:    NewUserHandler(services.NewUserService(s)),
		CheckIns: NewCheckInHandler(checkins),
		Journal:  NewJournalHandler(services.NewJournalService(s, bus)),
		Insights: NewInsightHandler(insights),
		States:   NewStateHandler(states),
		Reports:  NewReportHandler(reports),
		Shares:   NewShareHandler(shares),
		Consents: NewConsentHandler(services.NewConsentService(s)),
		Health:   NewHealthHandler(svcHealth, alwaysHealthy{}),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestAPIFullFlow(t *testing.T) {
	srv := newTestServer(t)
	token := "dev-alice"

	// Account creation; the id is pinned to the principal.
	resp, body := doReq(t, http.MethodPost, srv.URL+"/v0/users", token, map[string]string{
		"email": "alice@example.test", "timeZone": "UTC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "alice", body["userId"])
	base := srv.URL + "/v0/users/alice"

	// Eligibility before any check-in.
	resp, body = doReq(t, http.MethodGet, base+"/checkins/eligibility", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["eligible"])
	require.Equal(t, float64(1), body["nextLevel"])

	// First check-in of the day.
	resp, body = doReq(t, http.MethodPost, base+"/checkins", token, map[string]interface{}{
		"responses": map[string]string{"mood": "anxious"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, float64(1), body["level"])

	// Second same-day check-in conflicts.
	resp, _ = doReq(t, http.MethodPost, base+"/checkins", token, map[string]interface{}{
		"responses": map[string]string{"mood": "ok"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Journal entry matching the same pattern.
	resp, _ = doReq(t, http.MethodPost, base+"/journal", token, map[string]interface{}{
		"text": "worried all day, thoughts racing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Two anxiety sources distill into one insight.
	resp, body = doReq(t, http.MethodPost, base+"/insights/generate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["count"])

	// Weekly report over the surrounding period.
	now := time.Now().UTC()
	resp, report := doReq(t, http.MethodPost, base+"/reports", token, map[string]interface{}{
		"type":        "weekly_summary",
		"periodStart": now.Add(-time.Hour).Format(time.RFC3339),
		"periodEnd":   now.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reportID := report["reportId"].(string)

	// Monthly needs three insights: unprocessable.
	resp, _ = doReq(t, http.MethodPost, base+"/reports", token, map[string]interface{}{
		"type":        "monthly_progress",
		"periodStart": now.Add(-time.Hour).Format(time.RFC3339),
		"periodEnd":   now.Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Share the weekly report.
	resp, shareBody := doReq(t, http.MethodPost, base+"/reports/"+reportID+"/shares", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shareToken := shareBody["token"].(string)
	share := shareBody["share"].(map[string]interface{})
	shareID := share["shareId"].(string)

	// Public fetch without credentials; owner identity is redacted.
	resp, pub := doReq(t, http.MethodGet, srv.URL+"/v0/shared/"+shareToken, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, reportID, pub["reportId"])
	_, hasOwner := pub["userId"]
	require.False(t, hasOwner)
	_, hasInsights := pub["insightIds"]
	require.False(t, hasInsights)

	// Revoke, then the public path denies with the uniform error.
	resp, _ = doReq(t, http.MethodPost, base+"/reports/"+reportID+"/shares/"+shareID+"/revoke", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, denied := doReq(t, http.MethodGet, srv.URL+"/v0/shared/"+shareToken, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "access denied", denied["message"])

	// Consent ledger holds the grant and the revocation in order.
	resp, consents := doReq(t, http.MethodGet, base+"/consents", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2), consents["count"])
}

func TestAPIAuthBoundaries(t *testing.T) {
	srv := newTestServer(t)

	// No credential.
	resp, _ := doReq(t, http.MethodGet, srv.URL+"/v0/users/alice", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Credential for a different user.
	resp, _ = doReq(t, http.MethodGet, srv.URL+"/v0/users/alice", "dev-mallory", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Malformed static token.
	resp, _ = doReq(t, http.MethodGet, srv.URL+"/v0/users/alice", "alice", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIUnknownSharedTokenDenied(t *testing.T) {
	srv := newTestServer(t)
	resp, body := doReq(t, http.MethodGet, srv.URL+"/v0/shared/some-guess", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "access denied", body["message"])
}

func TestAPIHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// The aggregate checker has not started, so the service reports
	// unhealthy while the store probe is green.
	resp, _ := doReq(t, http.MethodGet, srv.URL+"/v0/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, body := doReq(t, http.MethodGet, srv.URL+"/v0/health/db", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "healthy", body["status"])
}

func TestAPIBookingWebhookIsNoOpInExploration(t *testing.T) {
	srv := newTestServer(t)
	token := "dev-bo"
	resp, _ := doReq(t, http.MethodPost, srv.URL+"/v0/users", token, map[string]string{"email": "bo@example.test"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doReq(t, http.MethodPost, srv.URL+"/v0/users/bo/bookings/confirmed", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "exploration", body["currentPhase"])
}
