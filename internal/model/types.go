package model

import "time"

// User represents an account in the system.
type User struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	DisplayName  *string   `json:"displayName,omitempty"`
	TimeZone     string    `json:"timeZone"`
	Status       string    `json:"status"`
	CreationTime time.Time `json:"creationTime"`
}

// SourceKind identifies the class of a raw source consumed by insight generation.
type SourceKind string

const (
	SourceCheckIn SourceKind = "checkin"
	SourceJournal SourceKind = "journal"
)

// SourceRef points at one raw source record.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

// CheckIn is a leveled daily self-report. Day is the server-day key
// (YYYY-MM-DD in the effective timezone) backing the one-per-day constraint.
type CheckIn struct {
	CheckInID    string            `json:"checkInId"`
	UserID       string            `json:"userId"`
	Day          string            `json:"day"`
	Level        int               `json:"level"`
	Responses    map[string]string `json:"responses"`
	Processed    bool              `json:"processed"`
	LowSignal    bool              `json:"lowSignal,omitempty"`
	CreationTime time.Time         `json:"creationTime"`
}

// JournalEntry is a free-form source record, processed like check-ins.
type JournalEntry struct {
	EntryID      string    `json:"entryId"`
	UserID       string    `json:"userId"`
	Text         string    `json:"text"`
	Mood         *string   `json:"mood,omitempty"`
	Processed    bool      `json:"processed"`
	LowSignal    bool      `json:"lowSignal,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// RecurrenceSignal describes how strongly a pattern recurs across sources.
// Sources spread across distinct days weigh more than a same-day cluster.
type RecurrenceSignal struct {
	Strength     float64 `json:"strength"`
	SourceCount  int     `json:"sourceCount"`
	DistinctDays int     `json:"distinctDays"`
}

// Insight is an immutable derived record summarizing one emotional pattern
// across one or more raw sources.
type Insight struct {
	InsightID    string           `json:"insightId"`
	UserID       string           `json:"userId"`
	Pattern      string           `json:"pattern"`
	SourceIDs    []SourceRef      `json:"sourceIds"`
	Recurrence   RecurrenceSignal `json:"recurrenceSignal"`
	TimeContext  string           `json:"timeContext"`
	CreationTime time.Time        `json:"creationTime"`
}

// Phase is a lifecycle phase in the therapeutic journey, ordered.
type Phase string

const (
	PhaseExploration Phase = "exploration"
	PhasePreparing   Phase = "preparing"
	PhaseInTherapy   Phase = "in_therapy"
	PhaseMaintenance Phase = "maintenance"
)

// PhaseOrder returns the rank of a phase, or -1 for an unknown value.
func PhaseOrder(p Phase) int {
	switch p {
	case PhaseExploration:
		return 0
	case PhasePreparing:
		return 1
	case PhaseInTherapy:
		return 2
	case PhaseMaintenance:
		return 3
	}
	return -1
}

// StateChange records one transition in a user's lifecycle history.
type StateChange struct {
	From   Phase     `json:"from"`
	To     Phase     `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// UserState is the single live lifecycle record per user.
type UserState struct {
	UserID       string        `json:"userId"`
	CurrentPhase Phase         `json:"currentPhase"`
	EnteredAt    time.Time     `json:"enteredAt"`
	History      []StateChange `json:"history"`
}

// ReportType tags the kind of aggregation a report carries.
type ReportType string

const (
	ReportWeeklySummary   ReportType = "weekly_summary"
	ReportMonthlyProgress ReportType = "monthly_progress"
	ReportTherapistPacket ReportType = "therapist_packet"
)

// Theme is a pattern ranked by frequency inside a report period.
type Theme struct {
	Pattern     string    `json:"pattern"`
	Frequency   int       `json:"frequency"`
	LastSupport time.Time `json:"lastSupport"`
}

// Pattern surfaces a recurrence signal strong enough to display.
type Pattern struct {
	Pattern  string  `json:"pattern"`
	Strength float64 `json:"strength"`
}

// Comparison is the delta of a theme's frequency against the preceding period.
type Comparison struct {
	Pattern  string `json:"pattern"`
	Current  int    `json:"current"`
	Previous int    `json:"previous"`
	Delta    int    `json:"delta"`
}

// ReportContent holds the derived sections of a report.
type ReportContent struct {
	Themes      []Theme      `json:"themes"`
	Patterns    []Pattern    `json:"patterns"`
	Comparisons []Comparison `json:"comparisons"`
}

// Report is an immutable aggregation of insights over a period.
type Report struct {
	ReportID     string        `json:"reportId"`
	UserID       string        `json:"userId"`
	Type         ReportType    `json:"type"`
	PeriodStart  time.Time     `json:"periodStart"`
	PeriodEnd    time.Time     `json:"periodEnd"`
	InsightIDs   []string      `json:"insightIds"`
	Content      ReportContent `json:"content"`
	CreationTime time.Time     `json:"creationTime"`
}

// RedactedReport is the projection served through the public share path.
// Owner identity, insight references and share history are never included.
type RedactedReport struct {
	ReportID     string        `json:"reportId"`
	Type         ReportType    `json:"type"`
	PeriodStart  time.Time     `json:"periodStart"`
	PeriodEnd    time.Time     `json:"periodEnd"`
	Content      ReportContent `json:"content"`
	CreationTime time.Time     `json:"creationTime"`
}

// Redacted returns the public projection of a report.
func (r *Report) Redacted() *RedactedReport {
	return &RedactedReport{
		ReportID:     r.ReportID,
		Type:         r.Type,
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		Content:      r.Content,
		CreationTime: r.CreationTime,
	}
}

// ShareAccess records one validation attempt against a share token.
type ShareAccess struct {
	At      time.Time `json:"at"`
	Outcome string    `json:"outcome"`
}

// ShareRecord grants read-only access to one report until expiry or revocation.
// The token itself is never serialized back out except at creation time.
type ShareRecord struct {
	ShareID      string        `json:"shareId"`
	Token        string        `json:"-"`
	UserID       string        `json:"userId"`
	ReportID     string        `json:"reportId"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Revoked      bool          `json:"revoked"`
	AccessLog    []ShareAccess `json:"accessLog"`
	CreationTime time.Time     `json:"creationTime"`
}

// Consent actions recorded in the append-only ledger.
const (
	ConsentJournalShared = "journal_shared"
	ConsentReportShared  = "report_shared"
	ConsentShareRevoked  = "share_revoked"
)

// ConsentEntry is one row of the append-only consent ledger.
type ConsentEntry struct {
	UserID   string    `json:"userId"`
	Action   string    `json:"action"`
	TargetID string    `json:"targetId"`
	At       time.Time `json:"at"`
}

// ListCheckInsRequest captures filters used when listing check-ins.
type ListCheckInsRequest struct {
	UserID string
	Limit  int
	Before *time.Time
	After  *time.Time
}
