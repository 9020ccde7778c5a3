package api

import (
	"github.com/gorilla/mux"

	"github.com/emberwell/wellness-backend/internal/api/recovery"
	"github.com/emberwell/wellness-backend/internal/auth"
)

// RouterDeps carries the wired handlers for route registration.
type RouterDeps struct {
	Auth     auth.Authorizer
	Users    *UserHandler
	CheckIns *CheckInHandler
	Journal  *JournalHandler
	Insights *InsightHandler
	States   *StateHandler
	Reports  *ReportHandler
	Shares   *ShareHandler
	Consents *ConsentHandler
	Health   *HealthHandler
}

// NewRouter registers every route. Health probes and the shared-report path
// are the only unauthenticated surfaces.
func NewRouter(d RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware)

	r.HandleFunc("/v0/health", d.Health.CheckHealth).Methods("GET")
	r.HandleFunc("/v0/health/db", d.Health.CheckStoreHealth).Methods("GET")
	r.HandleFunc("/v0/shared/{token}", d.Shares.GetSharedReport).Methods("GET")

	v0 := r.PathPrefix("/v0").Subrouter()
	v0.Use(AuthMiddleware(d.Auth))

	v0.HandleFunc("/users", d.Users.CreateUser).Methods("POST")
	v0.HandleFunc("/users/{userId}", d.Users.GetUser).Methods("GET")
	v0.HandleFunc("/users/{userId}", d.Users.DeleteUser).Methods("DELETE")

	// Literal check-in routes come before the id route; mux matches in
	// registration order.
	v0.HandleFunc("/users/{userId}/checkins", d.CheckIns.RecordCheckIn).Methods("POST")
	v0.HandleFunc("/users/{userId}/checkins", d.CheckIns.ListCheckIns).Methods("GET")
	v0.HandleFunc("/users/{userId}/checkins/latest", d.CheckIns.GetLatestCheckIn).Methods("GET")
	v0.HandleFunc("/users/{userId}/checkins/eligibility", d.CheckIns.GetEligibility).Methods("GET")
	v0.HandleFunc("/users/{userId}/checkins/level", d.CheckIns.GetLevel).Methods("GET")
	v0.HandleFunc("/users/{userId}/checkins/{checkInId}", d.CheckIns.GetCheckIn).Methods("GET")

	v0.HandleFunc("/users/{userId}/journal", d.Journal.RecordEntry).Methods("POST")
	v0.HandleFunc("/users/{userId}/journal", d.Journal.ListEntries).Methods("GET")
	v0.HandleFunc("/users/{userId}/journal/{entryId}/share", d.Journal.ShareEntry).Methods("POST")

	v0.HandleFunc("/users/{userId}/insights/generate", d.Insights.GenerateInsights).Methods("POST")
	v0.HandleFunc("/users/{userId}/insights", d.Insights.ListInsights).Methods("GET")
	v0.HandleFunc("/users/{userId}/insights/{insightId}", d.Insights.GetInsight).Methods("GET")

	v0.HandleFunc("/users/{userId}/state", d.States.GetState).Methods("GET")
	v0.HandleFunc("/users/{userId}/state/evaluate", d.States.Evaluate).Methods("POST")
	v0.HandleFunc("/users/{userId}/bookings/confirmed", d.States.ConfirmBooking).Methods("POST")

	v0.HandleFunc("/users/{userId}/reports", d.Reports.GenerateReport).Methods("POST")
	v0.HandleFunc("/users/{userId}/reports", d.Reports.ListReports).Methods("GET")
	v0.HandleFunc("/users/{userId}/reports/{reportId}", d.Reports.GetReport).Methods("GET")

	v0.HandleFunc("/users/{userId}/reports/{reportId}/shares", d.Shares.CreateShare).Methods("POST")
	v0.HandleFunc("/users/{userId}/reports/{reportId}/shares", d.Shares.ListShares).Methods("GET")
	v0.HandleFunc("/users/{userId}/reports/{reportId}/shares/{shareId}/revoke", d.Shares.RevokeShare).Methods("POST")

	v0.HandleFunc("/users/{userId}/consents", d.Consents.ListConsents).Methods("GET")

	return r
}
